// Package fetch guarantees that an unpacked image exists for a tool version,
// downloading and unpacking it on demand.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jsvm/jsvm/src/internal/archive"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/download"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/inventory"
	"github.com/jsvm/jsvm/src/internal/lock"
	"github.com/jsvm/jsvm/src/internal/registry"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// Fetcher downloads and unpacks tool images into a root.
type Fetcher struct {
	paths     *config.Paths
	hooks     *config.Hooks
	inventory *inventory.Inventory
}

// New creates a Fetcher. hooks may be nil.
func New(paths *config.Paths, hooks *config.Hooks, inv *inventory.Inventory) *Fetcher {
	return &Fetcher{paths: paths, hooks: hooks, inventory: inv}
}

// EnsureFetched makes sure the image for spec exists. An image that is
// already present costs one stat and no lock.
func (f *Fetcher) EnsureFetched(ctx context.Context, spec tool.Spec) error {
	if spec.Kind == tool.Package {
		return fmt.Errorf("%s is installed with a package manager, not fetched", spec)
	}
	if f.inventory.Contains(spec) {
		return nil
	}

	lk, err := lock.Acquire(ctx, f.paths)
	if err != nil {
		return err
	}
	defer lk.Release()

	// Another process may have fetched it while we waited
	if f.inventory.Contains(spec) {
		ui.Debug("%s was fetched by another process", spec)
		f.inventory.Add(spec)
		return nil
	}

	if err := f.fetchLocked(ctx, spec); err != nil {
		return err
	}
	f.inventory.Add(spec)
	return nil
}

func (f *Fetcher) fetchLocked(ctx context.Context, spec tool.Spec) error {
	distro, err := registry.DistroFor(ctx, f.hooks, spec)
	if err != nil {
		return err
	}

	cacheFile := filepath.Join(f.paths.InventoryDir(spec.Kind.String()), cacheName(distro))
	ui.Debug("Fetching %s from %s", spec, distro.URL)

	arc, err := archive.Fetch(ctx, distro.URL, cacheFile)
	if err != nil {
		if errs.IsVersionNotFound(err) {
			return errs.Wrap(errs.VersionNotFound, err, "%s %s is not available", spec.Kind.DisplayName(), spec.Version)
		}
		return errs.Wrap(errs.KindOf(err), err, "could not fetch %s", spec)
	}

	if err := os.MkdirAll(f.paths.Tmp, 0755); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create %s", f.paths.Tmp)
	}
	staging, err := os.MkdirTemp(f.paths.Tmp, "fetch-"+spec.Kind.String()+"-")
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create a staging directory")
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			ui.Debug("Could not clean up %s: %v", staging, err)
		}
	}()

	err = ui.WithSpinner(fmt.Sprintf("Unpacking %s", spec), func() error {
		return arc.Unpack(staging, nil)
	})
	if err != nil {
		// The cached archive is suspect; drop it so the next run downloads again
		download.Discard(cacheFile)
		return errs.Wrap(unpackErrorKind(err), err, "could not unpack %s", spec)
	}

	src, err := archive.TopLevelDir(staging)
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not read %s", staging)
	}

	if spec.Kind != tool.Node {
		if err := ensureLaunchers(filepath.Join(src, "bin"), spec.Kind); err != nil {
			return errs.Wrap(errs.FileSystem, err, "could not prepare %s", spec)
		}
	}

	dest := f.paths.ImageDir(spec.Kind.String(), spec.Version.String())
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create %s", filepath.Dir(dest))
	}
	if err := os.Rename(src, dest); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not move %s into place", spec)
	}

	if spec.Kind == tool.Node {
		f.recordBundledNpm(spec)
	}

	ui.Success("Fetched %s", spec)
	return nil
}

// recordBundledNpm stores the npm version shipped inside a Node image.
func (f *Fetcher) recordBundledNpm(spec tool.Spec) {
	version, err := readBundledNpm(f.paths.ImageDir("node", spec.Version.String()))
	if err != nil {
		ui.Debug("Could not determine npm bundled with %s: %v", spec, err)
		return
	}

	sidecar := f.paths.NodeNpmSidecar(spec.Version.String())
	if err := os.MkdirAll(filepath.Dir(sidecar), 0755); err != nil {
		ui.Debug("Could not record bundled npm: %v", err)
		return
	}
	if err := os.WriteFile(sidecar, []byte(version), 0644); err != nil {
		ui.Debug("Could not record bundled npm: %v", err)
	}
}

// readBundledNpm reads npm's package.json from inside a Node image.
func readBundledNpm(image string) (string, error) {
	manifest := filepath.Join(image, "lib", "node_modules", "npm", "package.json")
	if runtime.GOOS == constants.OSWindows {
		manifest = filepath.Join(image, "node_modules", "npm", "package.json")
	}

	data, err := os.ReadFile(manifest)
	if err != nil {
		return "", err
	}

	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", err
	}
	if pkg.Version == "" {
		return "", fmt.Errorf("%s has no version", manifest)
	}
	return pkg.Version, nil
}

// BundledNpm returns the npm version recorded for a fetched Node image.
func BundledNpm(paths *config.Paths, node string) (string, error) {
	data, err := os.ReadFile(paths.NodeNpmSidecar(node))
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	return readBundledNpm(paths.ImageDir("node", node))
}

// cacheName keeps the archive name from a hooked URL when it names a known
// format, so a mirror serving .tar.xz or .7z is unpacked accordingly.
func cacheName(d registry.Distro) string {
	u, err := url.Parse(d.URL)
	if err != nil {
		return d.Filename
	}
	base := path.Base(u.Path)
	for _, ext := range []string{".tar.gz", ".tgz", ".tar.xz", ".zip", ".7z"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base
		}
	}
	return d.Filename
}

func unpackErrorKind(err error) errs.Kind {
	var pathErr *os.PathError
	var linkErr *os.LinkError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) {
		return errs.FileSystem
	}
	return errs.Network
}
