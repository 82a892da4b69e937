// Package inventory reports which tool versions are present on disk.
// The filesystem is authoritative: a version is present iff its image
// directory exists.
package inventory

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// Inventory caches the versions found under tools/image for one process.
type Inventory struct {
	paths *config.Paths

	mu       sync.Mutex
	versions map[tool.Kind]map[string]*semver.Version
}

// New creates an inventory for a root. Directories are read lazily.
func New(paths *config.Paths) *Inventory {
	return &Inventory{
		paths:    paths,
		versions: make(map[tool.Kind]map[string]*semver.Version),
	}
}

// Contains reports whether the image for spec exists. It never consults the
// cache, so a version fetched by another process is seen immediately.
func (inv *Inventory) Contains(spec tool.Spec) bool {
	info, err := os.Stat(inv.imageDir(spec))
	return err == nil && info.IsDir()
}

// Add records a version fetched by this process.
func (inv *Inventory) Add(spec tool.Spec) {
	if spec.Kind == tool.Package {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if set, ok := inv.versions[spec.Kind]; ok {
		set[spec.Version.String()] = spec.Version
	}
}

// Remove forgets a version deleted by this process.
func (inv *Inventory) Remove(spec tool.Spec) {
	if spec.Kind == tool.Package {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if set, ok := inv.versions[spec.Kind]; ok {
		delete(set, spec.Version.String())
	}
}

// Versions returns the present versions of a tool, newest first.
func (inv *Inventory) Versions(kind tool.Kind) []*semver.Version {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	set, ok := inv.versions[kind]
	if !ok {
		set = scanVersions(inv.paths.ImageRoot(kind.String()))
		inv.versions[kind] = set
	}

	out := make([]*semver.Version, 0, len(set))
	for _, v := range set {
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(semver.Collection(out)))
	return out
}

// Latest returns the newest present version matching spec, or nil.
func (inv *Inventory) Latest(kind tool.Kind, spec tool.VersionSpec) *semver.Version {
	for _, v := range inv.Versions(kind) {
		if spec.Matches(v) {
			return v
		}
	}
	return nil
}

// Packages returns the names of globally installed packages, from their configs.
func (inv *Inventory) Packages() []string {
	root := inv.paths.PackageConfigDir()
	var names []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil //nolint:nilerr // outside root
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, ".json")))
		return nil
	})
	sort.Strings(names)
	return names
}

func (inv *Inventory) imageDir(spec tool.Spec) string {
	if spec.Kind == tool.Package {
		return inv.paths.PackageImageDir(spec.Name)
	}
	return inv.paths.ImageDir(spec.Kind.String(), spec.Version.String())
}

// scanVersions reads the version-named directories under an image root.
// Hidden and unparsable entries (staging leftovers) are ignored.
func scanVersions(root string) map[string]*semver.Version {
	set := make(map[string]*semver.Version)

	entries, err := os.ReadDir(root)
	if err != nil {
		return set
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		v, err := semver.StrictNewVersion(entry.Name())
		if err != nil {
			continue
		}
		set[v.String()] = v
	}
	return set
}
