package platform

import (
	"sync"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/project"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// Resolver merges the project pin, the user default and any command-line
// override into the platform for one invocation.
type Resolver struct {
	paths *config.Paths
	dir   string

	override *Spec

	projectOnce sync.Once
	project     *project.Project
	projectErr  error

	defaultOnce sync.Once
	def         *Spec
	defErr      error
}

// NewResolver creates a resolver for an invocation from dir.
func NewResolver(paths *config.Paths, dir string) *Resolver {
	return &Resolver{paths: paths, dir: dir}
}

// SetOverride applies versions given on the command line. Tools it leaves
// unset come from the project or default platform.
func (r *Resolver) SetOverride(spec Spec) {
	if spec.IsEmpty() {
		r.override = nil
		return
	}
	r.override = &spec
}

// Project returns the enclosing project, read once.
func (r *Resolver) Project() (*project.Project, error) {
	r.projectOnce.Do(func() {
		r.project, r.projectErr = project.Find(r.dir)
	})
	return r.project, r.projectErr
}

// Default returns the user's default platform, read once.
func (r *Resolver) Default() (*Spec, error) {
	r.defaultOnce.Do(func() {
		r.def, r.defErr = LoadDefault(r.paths)
	})
	return r.def, r.defErr
}

// Current returns the platform for this invocation, nil when neither the
// project nor the default supplies one.
func (r *Resolver) Current() (*Platform, error) {
	if r.override != nil && r.override.Node != nil {
		ui.Debug("Using command-line platform %s", r.override)
		return &Platform{Spec: *r.override, Source: CommandLine}, nil
	}

	base, err := r.merged()
	if err != nil {
		return nil, err
	}

	if r.override != nil {
		if base == nil {
			return nil, errs.New(errs.Configuration,
				"no Node version is available to run %s with\nPass --node or pin one with `jsvm pin node`", r.override)
		}
		for _, kind := range tool.Kinds {
			if v := r.override.Get(kind); v != nil {
				base.Set(kind, v)
			}
		}
		base.Source = CommandLine
	}

	if base != nil {
		ui.Debug("Using %s platform %s", base.Source, base.Spec)
	}
	return base, nil
}

func (r *Resolver) merged() (*Platform, error) {
	proj, err := r.Project()
	if err != nil {
		return nil, err
	}

	def, err := r.Default()
	if err != nil {
		return nil, err
	}

	var pinned *Spec
	if proj != nil && !proj.Pin.IsEmpty() {
		if proj.Pin.Node == nil {
			return nil, errs.New(errs.Configuration,
				"%s pins a package manager but no Node version\nPin Node with `jsvm pin node`", proj.ManifestFile)
		}
		pinned = &Spec{
			Node: proj.Pin.Node,
			Npm:  proj.Pin.Npm,
			Pnpm: proj.Pin.Pnpm,
			Yarn: proj.Pin.Yarn,
		}
	}

	return Merge(pinned, def), nil
}

// Merge combines a project pin with the user default. The default only
// contributes Yarn when it carries no Node of its own, so Node never
// comes from two places.
func Merge(pinned, def *Spec) *Platform {
	switch {
	case pinned != nil:
		if pinned.Yarn == nil && def != nil && def.Node == nil && def.Yarn != nil {
			spec := *pinned
			spec.Yarn = def.Yarn
			return &Platform{Spec: spec, Source: ProjectNodeDefaultYarn}
		}
		return &Platform{Spec: *pinned, Source: Project}

	case def != nil && def.Node != nil:
		return &Platform{Spec: *def, Source: Default}
	}
	return nil
}
