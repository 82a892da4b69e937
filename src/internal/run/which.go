package run

import (
	"context"
	"os"

	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/image"
	"github.com/jsvm/jsvm/src/internal/path"
	"github.com/jsvm/jsvm/src/internal/pkg"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// Resolution describes what an invocation would run
type Resolution struct {
	Executable string
	// Platform is nil when the system tool is used
	Platform *platform.Platform
	// Package owns the binary, for installed package bins
	Package string
}

// Which resolves an invocation the way Run does, fetching missing images,
// without starting a process.
func Which(ctx context.Context, opts Options) (*Resolution, error) {
	d, err := newDispatcher(opts)
	if err != nil {
		return nil, err
	}

	if os.Getenv(constants.EnvBypass) != "" {
		return d.whichSystem("")
	}
	if d.target.Kind == tool.Package {
		return d.whichBinary(ctx)
	}

	current, err := d.resolver.Current()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return d.whichSystem(noPlatformHint(d.target))
	}
	if d.target.Kind != tool.Node && d.target.Kind != tool.Npm && current.Get(d.target.Kind) == nil {
		return d.whichSystem(noToolHint(d.target))
	}

	img, err := d.checkout(ctx, current)
	if err != nil {
		return nil, err
	}
	bin, err := img.Lookup(d.target.Name)
	if err != nil {
		return nil, err
	}
	return &Resolution{Executable: bin, Platform: current}, nil
}

func (d *Dispatcher) whichBinary(ctx context.Context) (*Resolution, error) {
	proj, err := d.resolver.Project()
	if err != nil {
		return nil, err
	}
	if proj != nil && proj.DirectBin(d.target.Name) {
		current, err := d.resolver.Current()
		if err != nil {
			return nil, err
		}
		return &Resolution{Executable: proj.BinPath(d.target.Name), Platform: current}, nil
	}

	cfg, err := pkg.LoadBinConfig(d.opts.Paths, d.target.Name)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return d.whichSystem("")
	}

	p := platform.FromBinary(cfg.Platform)
	if cfg.Loader != nil {
		args := cfg.ScriptArgs(d.opts.Paths)
		if len(args) > 0 {
			return &Resolution{Executable: args[0], Platform: p, Package: cfg.Package}, nil
		}
	}
	bin, ok := cfg.Executable(d.opts.Paths)
	if !ok {
		return nil, errs.New(errs.ToolNotFound,
			"%s from %s is missing\nReinstall it with `jsvm install %s`", cfg.Name, cfg.Package, cfg.Package)
	}
	return &Resolution{Executable: bin, Platform: p, Package: cfg.Package}, nil
}

func (d *Dispatcher) whichSystem(hint string) (*Resolution, error) {
	bin, ok := path.LookPath(d.target.Name, image.SystemPath(d.opts.Paths))
	if !ok {
		if hint != "" {
			return nil, errs.New(errs.NoPlatform, "%s", hint)
		}
		return nil, errs.New(errs.ToolNotFound, "could not find executable %q", d.target.Name)
	}
	return &Resolution{Executable: bin}, nil
}
