package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/fetch"
	"github.com/jsvm/jsvm/src/internal/inventory"
	"github.com/jsvm/jsvm/src/internal/lock"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/project"
	"github.com/jsvm/jsvm/src/internal/registry"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// toolchain bundles what the management commands need to resolve and fetch
// tools from the current directory
type toolchain struct {
	paths     *config.Paths
	dir       string
	project   *project.Project
	hooks     *config.Hooks
	source    registry.Source
	inventory *inventory.Inventory
	fetcher   *fetch.Fetcher
}

func rootPaths() *config.Paths {
	return config.DefaultPaths()
}

func newToolchain() (*toolchain, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not determine the current directory")
	}
	return newToolchainIn(rootPaths(), dir)
}

func newToolchainIn(paths *config.Paths, dir string) (*toolchain, error) {
	proj, err := project.Find(dir)
	if err != nil {
		return nil, err
	}

	root := ""
	if proj != nil {
		root = proj.Root
	}
	hooks, err := config.LoadHooks(paths, root)
	if err != nil {
		return nil, err
	}

	inv := inventory.New(paths)
	return &toolchain{
		paths:     paths,
		dir:       dir,
		project:   proj,
		hooks:     hooks,
		source:    registry.NewCachedSource(registry.NewHTTPSource(hooks), paths, registry.DefaultCacheTTL),
		inventory: inv,
		fetcher:   fetch.New(paths, hooks, inv),
	}, nil
}

// resolve turns a requirement into an exact version. When the registry is
// unreachable, the newest matching version already on disk is used.
func (tc *toolchain) resolve(ctx context.Context, req tool.Requirement) (tool.Spec, error) {
	spec, err := registry.Resolve(ctx, tc.source, req)
	if err == nil {
		return spec, nil
	}
	if !errs.IsNetwork(err) || req.Kind == tool.Package || req.Version.IsNone() {
		return tool.Spec{}, err
	}

	if v := tc.inventory.Latest(req.Kind, req.Version); v != nil {
		ui.Warning("Could not reach the registry, using %s %s from the inventory", req.Kind.DisplayName(), v)
		return tool.NewSpec(req.Kind, v), nil
	}
	return tool.Spec{}, err
}

// fetch resolves a requirement and makes its image present
func (tc *toolchain) fetch(ctx context.Context, req tool.Requirement) (tool.Spec, error) {
	spec, err := tc.resolve(ctx, req)
	if err != nil {
		return tool.Spec{}, err
	}
	if err := tc.fetcher.EnsureFetched(ctx, spec); err != nil {
		return tool.Spec{}, err
	}
	return spec, nil
}

// parseTools parses "tool[@version]" arguments. Package names are rejected
// unless allowPackages is set.
func parseTools(args []string, allowPackages bool) ([]tool.Requirement, error) {
	reqs := make([]tool.Requirement, 0, len(args))
	for _, arg := range args {
		req, err := tool.ParseRequirement(arg)
		if err != nil {
			return nil, errs.Wrap(errs.Configuration, err, "invalid tool %q", arg)
		}
		if req.Kind == tool.Package && !allowPackages {
			return nil, errs.New(errs.Configuration,
				"%q is not a tool jsvm manages; expected node, npm, pnpm or yarn", req.Name)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// nodeFirst orders requirements so node is handled before the package
// managers that run on it
func nodeFirst(reqs []tool.Requirement) []tool.Requirement {
	out := make([]tool.Requirement, 0, len(reqs))
	for _, r := range reqs {
		if r.Kind == tool.Node {
			out = append(out, r)
		}
	}
	for _, r := range reqs {
		if r.Kind != tool.Node {
			out = append(out, r)
		}
	}
	return out
}

// setDefault records spec in the user's default platform
func setDefault(paths *config.Paths, spec tool.Spec) error {
	def, err := platform.LoadDefault(paths)
	if err != nil {
		return err
	}
	if def == nil {
		def = &platform.Spec{}
	}
	def.Set(spec.Kind, spec.Version)
	return platform.SaveDefault(paths, *def)
}

// removeToolVersion deletes a fetched image and its cached archives
func removeToolVersion(ctx context.Context, paths *config.Paths, kind tool.Kind, v *semver.Version) error {
	lk, err := lock.Acquire(ctx, paths)
	if err != nil {
		return err
	}
	defer lk.Release()

	version := v.String()
	dir := paths.ImageDir(kind.String(), version)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return errs.New(errs.VersionNotFound, "%s %s is not fetched", kind.DisplayName(), version)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not remove %s", dir)
	}

	entries, _ := os.ReadDir(paths.InventoryDir(kind.String()))
	for _, entry := range entries {
		if entry.IsDir() || !archiveMatches(entry.Name(), version) {
			continue
		}
		file := filepath.Join(paths.InventoryDir(kind.String()), entry.Name())
		if err := os.Remove(file); err != nil {
			ui.Debug("Could not remove %s: %v", file, err)
		}
	}
	return nil
}

// archiveMatches reports whether an inventory file belongs to version,
// e.g. node-v18.16.0-linux-x64.tar.gz, yarn-1.22.19.tgz or node-v18.16.0-npm
func archiveMatches(name, version string) bool {
	for rest := name; ; {
		idx := strings.Index(rest, version)
		if idx < 0 {
			return false
		}
		before := byte('-')
		if offset := len(name) - len(rest) + idx; offset > 0 {
			before = name[offset-1]
		}
		after := rest[idx+len(version):]
		if (before == '-' || before == 'v') && versionEnds(after) {
			return true
		}
		rest = rest[idx+1:]
	}
}

func versionEnds(after string) bool {
	switch {
	case after == "":
		return true
	case after[0] == '-':
		return true
	case after[0] == '.':
		return len(after) > 1 && (after[1] < '0' || after[1] > '9')
	}
	return false
}
