// Package run dispatches a shim invocation to the right tool version.
package run

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/fetch"
	"github.com/jsvm/jsvm/src/internal/image"
	"github.com/jsvm/jsvm/src/internal/inventory"
	"github.com/jsvm/jsvm/src/internal/path"
	"github.com/jsvm/jsvm/src/internal/pkg"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/shim"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// minNpxVersion is the first npm release that ships npx
var minNpxVersion = semver.MustParse("5.2.0")

// Options describe one invocation
type Options struct {
	Paths *config.Paths
	// Dir is the working directory the project is found from
	Dir  string
	Name string
	Args []string
	// Override holds versions given on the command line
	Override platform.Spec
	// Interrupts, when set, is handed off right before the child starts
	Interrupts *Interrupts

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Dispatcher resolves, fetches and runs one invocation
type Dispatcher struct {
	opts     Options
	target   Target
	resolver *platform.Resolver
	fetcher  *fetch.Fetcher
}

// Run executes the invocation and returns the child's exit code. An error
// means jsvm failed before or while starting the child.
func Run(ctx context.Context, opts Options) (int, error) {
	d, err := newDispatcher(opts)
	if err != nil {
		return 0, err
	}

	code, err := d.dispatch(ctx)
	if err != nil && opts.Interrupts.Fired() {
		return 0, errs.New(errs.Interrupted, "interrupted")
	}
	return code, err
}

func newDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Dir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return nil, errs.Wrap(errs.FileSystem, err, "could not determine the current directory")
		}
		opts.Dir = dir
	}

	d := &Dispatcher{
		opts:     opts,
		target:   DetermineTool(opts.Name),
		resolver: platform.NewResolver(opts.Paths, opts.Dir),
	}
	d.resolver.SetOverride(opts.Override)
	return d, nil
}

func (d *Dispatcher) dispatch(ctx context.Context) (int, error) {
	ui.Debug("Dispatching %s (%s) with args %v", d.target.Name, d.target.Kind, d.opts.Args)

	if os.Getenv(constants.EnvBypass) != "" {
		ui.Debug("%s is set, running the system %s", constants.EnvBypass, d.target.Name)
		return d.runSystem(ctx, "")
	}

	if d.target.Kind == tool.Package {
		return d.runBinary(ctx)
	}
	return d.runTool(ctx)
}

func (d *Dispatcher) runTool(ctx context.Context) (int, error) {
	current, err := d.resolver.Current()
	if err != nil {
		return 0, err
	}

	if current == nil {
		return d.runSystem(ctx, noPlatformHint(d.target))
	}
	if d.target.Kind != tool.Node && d.target.Kind != tool.Npm && current.Get(d.target.Kind) == nil {
		return d.runSystem(ctx, noToolHint(d.target))
	}

	img, err := d.checkout(ctx, current)
	if err != nil {
		return 0, err
	}

	if d.target.Name == "npx" {
		if err := requireNpx(img); err != nil {
			return 0, err
		}
	}

	if d.target.Name == d.target.Kind.String() && os.Getenv(constants.EnvInternal) == "" {
		if ic := pkg.Detect(d.target.Kind, d.opts.Args); ic != nil {
			return 0, d.intercept(ctx, img, ic)
		}
	}

	bin, err := img.Lookup(d.target.Name)
	if err != nil {
		return 0, err
	}
	return d.exec(ctx, image.Command(bin, d.opts.Args, img.Path()))
}

// runBinary runs a direct dependency's bin with the project platform, or
// an installed package bin with the platform it was installed with.
func (d *Dispatcher) runBinary(ctx context.Context) (int, error) {
	proj, err := d.resolver.Project()
	if err != nil {
		return 0, err
	}

	if proj != nil && proj.DirectBin(d.target.Name) {
		current, err := d.resolver.Current()
		if err != nil {
			return 0, err
		}
		if current == nil {
			return 0, errs.New(errs.NoPlatform,
				"%s is a dependency of %s but no Node version is selected\nPin one with `jsvm pin node` or set a default with `jsvm install node`",
				d.target.Name, proj.Root)
		}
		img, err := d.checkout(ctx, current)
		if err != nil {
			return 0, err
		}
		return d.exec(ctx, image.Command(proj.BinPath(d.target.Name), d.opts.Args, img.Path()))
	}

	cfg, err := pkg.LoadBinConfig(d.opts.Paths, d.target.Name)
	if err != nil {
		return 0, err
	}
	if cfg == nil {
		return d.runSystem(ctx, "")
	}

	ui.Debug("%s belongs to package %s@%s", cfg.Name, cfg.Package, cfg.Version)
	img, err := d.checkout(ctx, platform.FromBinary(cfg.Platform))
	if err != nil {
		return 0, err
	}

	if cfg.Loader != nil {
		loader, err := img.Lookup(cfg.Loader.Command)
		if err != nil {
			return 0, err
		}
		args := append(cfg.ScriptArgs(d.opts.Paths), d.opts.Args...)
		return d.exec(ctx, image.Command(loader, args, img.Path()))
	}

	bin, ok := cfg.Executable(d.opts.Paths)
	if !ok {
		return 0, errs.New(errs.ToolNotFound,
			"%s from %s is missing\nReinstall it with `jsvm install %s`", cfg.Name, cfg.Package, cfg.Package)
	}
	return d.exec(ctx, image.Command(bin, d.opts.Args, img.Path()))
}

// checkout fetches every tool of the platform and builds its image
func (d *Dispatcher) checkout(ctx context.Context, current *platform.Platform) (*image.Image, error) {
	if d.fetcher == nil {
		root := ""
		if proj, _ := d.resolver.Project(); proj != nil {
			root = proj.Root
		}
		hooks, err := config.LoadHooks(d.opts.Paths, root)
		if err != nil {
			return nil, err
		}
		d.fetcher = fetch.New(d.opts.Paths, hooks, inventory.New(d.opts.Paths))
	}

	for _, spec := range current.Tools() {
		if err := d.fetcher.EnsureFetched(ctx, spec); err != nil {
			return nil, err
		}
	}
	return image.Checkout(d.opts.Paths, current)
}

func (d *Dispatcher) intercept(ctx context.Context, img *image.Image, ic *pkg.Intercept) error {
	ui.Debug("Intercepted global %s of %v", ic.Action, ic.Packages)
	shims, err := shim.NewManager(d.opts.Paths)
	if err != nil {
		return err
	}
	return pkg.NewInstaller(d.opts.Paths, shims).Run(ctx, img, ic)
}

// runSystem runs the tool found on PATH outside jsvm's directories. hint
// explains what to do when there is none.
func (d *Dispatcher) runSystem(ctx context.Context, hint string) (int, error) {
	pathValue := image.SystemPath(d.opts.Paths)
	bin, ok := path.LookPath(d.target.Name, pathValue)
	if !ok {
		if hint != "" {
			return 0, errs.New(errs.NoPlatform, "%s", hint)
		}
		return 0, errs.New(errs.ToolNotFound, "could not find executable %q", d.target.Name)
	}

	ui.Debug("Using system %s at %s", d.target.Name, bin)
	return d.exec(ctx, image.Command(bin, d.opts.Args, pathValue))
}

// exec starts the child, handing it control, and waits for its exit
func (d *Dispatcher) exec(ctx context.Context, cmd *exec.Cmd) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errs.New(errs.Interrupted, "interrupted")
	}

	cmd.Stdin = d.opts.Stdin
	cmd.Stdout = d.opts.Stdout
	cmd.Stderr = d.opts.Stderr

	ui.Debug("Running %v", cmd.Args)
	ui.Sync()
	d.opts.Interrupts.HandOff()

	if err := cmd.Start(); err != nil {
		return 0, errs.Wrap(errs.Execution, err, "could not execute %s", cmd.Path)
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if code, ok := exitCode(err); ok {
		return code, nil
	}
	return 0, errs.Wrap(errs.Execution, err, "%s failed", cmd.Path)
}

func requireNpx(img *image.Image) error {
	npm, err := img.NpmVersion()
	if err != nil {
		return errs.Wrap(errs.NpxUnavailable, err, "could not determine the npm version for npx")
	}
	v, err := semver.NewVersion(npm)
	if err != nil {
		return errs.Wrap(errs.NpxUnavailable, err, "could not determine the npm version for npx")
	}
	if v.LessThan(minNpxVersion) {
		return errs.New(errs.NpxUnavailable,
			"npx requires npm %s or newer, but this project uses npm %s\nPin a newer npm with `jsvm pin npm`",
			minNpxVersion, npm)
	}
	return nil
}

func noPlatformHint(t Target) string {
	return "Node is not available to run " + t.Name +
		"\nSet a default with `jsvm install node` or pin one in this project with `jsvm pin node`"
}

func noToolHint(t Target) string {
	return "no " + t.Kind.String() + " version is selected to run " + t.Name +
		"\nSet a default with `jsvm install " + t.Kind.String() + "` or pin one with `jsvm pin " + t.Kind.String() + "`"
}
