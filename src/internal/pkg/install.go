package pkg

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/image"
	"github.com/jsvm/jsvm/src/internal/inventory"
	"github.com/jsvm/jsvm/src/internal/lock"
	"github.com/jsvm/jsvm/src/internal/project"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// ShimManager creates and removes shims for package bins.
type ShimManager interface {
	CreateShim(name string) error
	RemoveShim(name string) error
}

// Installer performs global package operations for one root.
type Installer struct {
	paths *config.Paths
	shims ShimManager

	// run executes a package manager command; replaced in tests
	run func(cmd *exec.Cmd) error
}

// NewInstaller creates an installer.
func NewInstaller(paths *config.Paths, shims ShimManager) *Installer {
	return &Installer{
		paths: paths,
		shims: shims,
		run:   func(cmd *exec.Cmd) error { return cmd.Run() },
	}
}

// Run performs an intercepted global operation with the image's tools.
func (in *Installer) Run(ctx context.Context, img *image.Image, ic *Intercept) error {
	switch ic.Action {
	case Install:
		for _, spec := range ic.Packages {
			if err := in.Install(ctx, img, ic.Manager, spec); err != nil {
				return err
			}
		}
		return nil

	case Uninstall:
		for _, name := range ic.Packages {
			if err := in.Uninstall(ctx, PackageName(name)); err != nil {
				return err
			}
		}
		return nil

	case Upgrade:
		names := ic.Packages
		if len(names) == 0 {
			names = inventory.New(in.paths).Packages()
		}
		for _, name := range names {
			if err := in.Install(ctx, img, ic.Manager, PackageName(name)); err != nil {
				return err
			}
		}
		return nil
	}
	return errs.New(errs.Unknown, "unsupported package operation %s", ic.Action)
}

// Install installs one package into a private prefix bound to the image's
// platform, then exposes its bins through shims.
func (in *Installer) Install(ctx context.Context, img *image.Image, manager tool.Kind, spec string) error {
	lk, err := lock.Acquire(ctx, in.paths)
	if err != nil {
		return err
	}
	defer lk.Release()

	if err := os.MkdirAll(in.paths.Tmp, 0755); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create %s", in.paths.Tmp)
	}
	staging, err := os.MkdirTemp(in.paths.Tmp, "install-")
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create staging directory")
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			ui.Debug("Could not remove %s: %v", staging, err)
		}
	}()

	cmd, err := img.Command(manager.String(), installArgs(manager, staging, spec),
		constants.EnvInternal+"=1")
	if err != nil {
		return err
	}
	cmd.Stdout = os.Stderr
	ui.Debug("Running %v", cmd.Args)
	if err := in.run(cmd); err != nil {
		return errs.Wrap(errs.Execution, err, "%s could not install %s", manager, spec)
	}

	root, names, err := installedPackages(manager, staging)
	if err != nil {
		return err
	}
	name := pickPackage(names, PackageName(spec))
	if name == "" {
		return errs.New(errs.Configuration, "%s did not install a package for %s", manager, spec)
	}

	manifest, err := readPackageManifest(filepath.Join(root, filepath.FromSlash(name)))
	if err != nil {
		return err
	}

	if err := in.checkConflicts(name, manifest.bins); err != nil {
		return err
	}

	relRoot, err := filepath.Rel(staging, root)
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not locate %s", name)
	}

	if err := in.removeStaleBins(name, manifest.bins); err != nil {
		return err
	}

	dest := in.paths.PackageImageDir(name)
	if err := os.RemoveAll(dest); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not replace %s", dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create %s", filepath.Dir(dest))
	}
	if err := os.Rename(staging, dest); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not move %s into place", name)
	}

	pkgDir := filepath.Join(relRoot, filepath.FromSlash(name))
	bins := make([]string, 0, len(manifest.bins))
	for bin, script := range manifest.bins {
		cfg := &BinConfig{
			Name:     bin,
			Package:  name,
			Version:  manifest.Version,
			Platform: img.Platform.Spec,
			Manager:  manager.String(),
		}
		scriptPath := filepath.Join(pkgDir, filepath.FromSlash(script))
		if isNodeScript(filepath.Join(dest, scriptPath)) {
			cfg.Loader = &Loader{Command: "node", Args: []string{scriptPath}}
		}
		if err := cfg.Save(in.paths); err != nil {
			return err
		}
		if err := in.shims.CreateShim(bin); err != nil {
			return err
		}
		bins = append(bins, bin)
	}
	sort.Strings(bins)

	pkgCfg := &PackageConfig{
		Name:     name,
		Version:  manifest.Version,
		Platform: img.Platform.Spec,
		Bins:     bins,
		Manager:  manager.String(),
	}
	if err := pkgCfg.Save(in.paths); err != nil {
		return err
	}

	ui.Success("Installed %s@%s with Node %s", name, manifest.Version, img.NodeVersion())
	if len(bins) > 0 {
		ui.Info("Executables: %s", strings.Join(bins, ", "))
	}
	return nil
}

// Uninstall removes a package, its bins and their shims.
func (in *Installer) Uninstall(ctx context.Context, name string) error {
	lk, err := lock.Acquire(ctx, in.paths)
	if err != nil {
		return err
	}
	defer lk.Release()

	cfg, err := LoadPackageConfig(in.paths, name)
	if err != nil {
		return err
	}
	if cfg == nil {
		ui.Warning("Package %s is not installed", name)
		return nil
	}

	for _, bin := range cfg.Bins {
		if err := in.removeBin(name, bin); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(cfg.ImageDir(in.paths)); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not remove %s", cfg.ImageDir(in.paths))
	}
	if err := removeFile(in.paths.PackageConfigFile(name)); err != nil {
		return err
	}
	removeEmptyScope(in.paths.PackageImageDir(name))
	removeEmptyScope(in.paths.PackageConfigFile(name))

	ui.Success("Removed %s", name)
	return nil
}

// removeBin deletes a bin's config and shim when the package owns it.
func (in *Installer) removeBin(pkgName, bin string) error {
	cfg, err := LoadBinConfig(in.paths, bin)
	if err != nil {
		return err
	}
	if cfg == nil || cfg.Package != pkgName {
		return nil
	}
	if err := removeFile(in.paths.BinConfigFile(bin)); err != nil {
		return err
	}
	return in.shims.RemoveShim(bin)
}

// checkConflicts fails when another package already exposes one of bins.
func (in *Installer) checkConflicts(name string, bins map[string]string) error {
	for bin := range bins {
		existing, err := LoadBinConfig(in.paths, bin)
		if err != nil {
			return err
		}
		if existing != nil && existing.Package != name {
			return errs.New(errs.Configuration,
				"executable %s is already installed by %s\nRemove it first with `jsvm uninstall %s`",
				bin, existing.Package, existing.Package)
		}
	}
	return nil
}

// removeStaleBins drops bins an earlier version of the package exposed.
func (in *Installer) removeStaleBins(name string, bins map[string]string) error {
	old, err := LoadPackageConfig(in.paths, name)
	if err != nil || old == nil {
		return err
	}
	for _, bin := range old.Bins {
		if _, ok := bins[bin]; !ok {
			if err := in.removeBin(name, bin); err != nil {
				return err
			}
		}
	}
	return nil
}

func installArgs(manager tool.Kind, staging, spec string) []string {
	if manager == tool.Yarn {
		return []string{"global", "add", spec,
			"--prefix", staging,
			"--global-folder", filepath.Join(staging, "global")}
	}
	return []string{"install", "--global", "--prefix", staging, spec}
}

// installedPackages returns the node_modules the manager installed into
// and the top-level packages in it.
func installedPackages(manager tool.Kind, staging string) (string, []string, error) {
	if manager == tool.Yarn {
		root := filepath.Join(staging, "global", "node_modules")
		data, err := os.ReadFile(filepath.Join(staging, "global", "package.json"))
		if err != nil {
			return "", nil, errs.Wrap(errs.FileSystem, err, "yarn did not record the installed package")
		}
		var global struct {
			Dependencies map[string]string `json:"dependencies"`
		}
		if err := json.Unmarshal(data, &global); err != nil {
			return "", nil, errs.Wrap(errs.Configuration, err, "could not parse yarn global manifest")
		}
		var names []string
		for name := range global.Dependencies {
			names = append(names, name)
		}
		sort.Strings(names)
		return root, names, nil
	}

	root := filepath.Join(staging, "lib", "node_modules")
	if runtime.GOOS == constants.OSWindows {
		root = filepath.Join(staging, "node_modules")
	}
	names, err := listPackages(root)
	return root, names, err
}

func listPackages(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not read %s", root)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasPrefix(name, "@") {
			scoped, err := os.ReadDir(filepath.Join(root, name))
			if err != nil {
				continue
			}
			for _, s := range scoped {
				if s.IsDir() {
					names = append(names, name+"/"+s.Name())
				}
			}
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func pickPackage(names []string, wanted string) string {
	for _, n := range names {
		if n == wanted {
			return n
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

type packageManifest struct {
	Name    string
	Version string
	bins    map[string]string
}

func readPackageManifest(dir string) (*packageManifest, error) {
	file := filepath.Join(dir, project.ManifestName)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not read %s", file)
	}

	var raw struct {
		Name    string          `json:"name"`
		Version string          `json:"version"`
		Bin     json.RawMessage `json:"bin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "could not parse %s", file)
	}

	m := &packageManifest{Name: raw.Name, Version: raw.Version, bins: map[string]string{}}
	if len(raw.Bin) > 0 {
		for bin, script := range project.ParseBinField(raw.Name, raw.Bin) {
			m.bins[bin] = script
		}
	}
	return m, nil
}

// isNodeScript reports whether a bin script starts with a node shebang.
func isNodeScript(file string) bool {
	f, err := os.Open(file)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	line, _ := bufio.NewReader(f).ReadString('\n')
	return strings.HasPrefix(line, "#!") && strings.Contains(line, "node")
}

func removeEmptyScope(path string) {
	parent := filepath.Dir(path)
	if strings.HasPrefix(filepath.Base(parent), "@") {
		_ = os.Remove(parent)
	}
}
