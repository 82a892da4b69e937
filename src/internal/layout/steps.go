package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/ui"
)

const stagingSuffix = ".migrating"

// emptyToV0 adopts whatever tree is already present and creates the base dirs.
func emptyToV0(paths *config.Paths) error {
	for _, dir := range []string{paths.Root, paths.Bin, paths.Shims, paths.Inventory, paths.Image, paths.User} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// v0ToV1 flattens node images nested by bundled npm version
// (image/node/<node>/<npm>/) and rewrites the nested default platform.
func v0ToV1(paths *config.Paths) error {
	nodeRoot := paths.ImageRoot("node")

	err := flattenVersionDirs(nodeRoot, func(node, nested string) error {
		sidecar := paths.NodeNpmSidecar(node)
		if _, err := os.Stat(sidecar); err == nil {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(sidecar), 0755); err != nil {
			return err
		}
		return os.WriteFile(sidecar, []byte(nested), 0644)
	})
	if err != nil {
		return err
	}

	return rewriteJSON(paths.DefaultPlatformFile(), func(doc map[string]json.RawMessage) (bool, error) {
		return flattenPlatform(doc)
	})
}

// v1ToV2 flattens package images nested by version
// (image/packages/<name>/<version>/) and rewrites legacy package configs.
func v1ToV2(paths *config.Paths) error {
	packagesRoot := filepath.Join(paths.Image, "packages")

	entries, err := os.ReadDir(packagesRoot)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "@") {
			continue
		}
		if err := flattenVersionDirs(filepath.Join(packagesRoot, entry.Name()), nil); err != nil {
			return err
		}
	}
	if err := flattenVersionDirs(packagesRoot, nil); err != nil {
		return err
	}

	for _, dir := range []string{paths.PackageConfigDir(), paths.BinConfigDir()} {
		err := walkJSON(dir, func(file string) error {
			return rewriteJSON(file, func(doc map[string]json.RawMessage) (bool, error) {
				raw, ok := doc["platform"]
				if !ok {
					return false, nil
				}
				var platform map[string]json.RawMessage
				if err := json.Unmarshal(raw, &platform); err != nil || platform == nil {
					return false, nil //nolint:nilerr // not a legacy platform object
				}
				changed, err := flattenPlatform(platform)
				if err != nil || !changed {
					return false, err
				}
				data, err := json.Marshal(platform)
				if err != nil {
					return false, err
				}
				doc["platform"] = data
				return true, nil
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// v2ToV3 adds pnpm and the staging dir, and drops the index expiry sidecar.
func v2ToV3(paths *config.Paths) error {
	for _, dir := range []string{paths.ImageRoot("pnpm"), paths.InventoryDir("pnpm"), paths.Tmp} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	expires := filepath.Join(paths.InventoryDir("node"), "index.json.expires")
	if err := os.Remove(expires); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// flattenVersionDirs moves root/<name>/<version>/ up to root/<name>/ for every
// <name> whose only children are version directories. The highest version
// wins. onFlatten, when set, sees each flattened name and its nested version.
func flattenVersionDirs(root string, onFlatten func(name, nested string) error) error {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	// Finish flattens interrupted between the two renames. The staging
	// name carries the nested version so onFlatten still runs.
	for _, entry := range entries {
		staged := entry.Name()
		if !entry.IsDir() || !strings.HasSuffix(staged, stagingSuffix) {
			continue
		}
		name, nested := parseStagingName(staged)
		target := filepath.Join(root, name)
		if err := os.RemoveAll(target); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(root, staged), target); err != nil {
			return err
		}
		if onFlatten != nil && nested != "" {
			if err := onFlatten(name, nested); err != nil {
				return err
			}
		}
	}

	entries, err = os.ReadDir(root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "@") {
			continue
		}

		dir := filepath.Join(root, name)
		nested, ok := nestedVersion(dir)
		if !ok {
			continue
		}

		ui.Debug("Flattening %s", filepath.Join(dir, nested))
		staging := filepath.Join(root, stagingName(name, nested))
		if err := os.Rename(filepath.Join(dir, nested), staging); err != nil {
			return err
		}
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
		if err := os.Rename(staging, dir); err != nil {
			return err
		}

		if onFlatten != nil {
			if err := onFlatten(name, nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// stagingName is the hidden directory a nested image waits in while its
// parent is replaced.
func stagingName(name, nested string) string {
	return "." + name + "@" + nested + stagingSuffix
}

// parseStagingName splits a staging directory name back into the flattened
// name and its nested version. The version is empty when the name has none.
func parseStagingName(staged string) (name, nested string) {
	base := strings.TrimSuffix(strings.TrimPrefix(staged, "."), stagingSuffix)
	i := strings.LastIndex(base, "@")
	if i <= 0 {
		return base, ""
	}
	return base[:i], base[i+1:]
}

// nestedVersion returns the highest version-named child of dir when every
// child is a version directory.
func nestedVersion(dir string) (string, bool) {
	children, err := os.ReadDir(dir)
	if err != nil || len(children) == 0 {
		return "", false
	}

	var versions []*semver.Version
	names := make(map[*semver.Version]string)
	for _, child := range children {
		if !child.IsDir() {
			return "", false
		}
		v, err := semver.StrictNewVersion(child.Name())
		if err != nil {
			return "", false
		}
		versions = append(versions, v)
		names[v] = child.Name()
	}

	sort.Sort(semver.Collection(versions))
	return names[versions[len(versions)-1]], true
}

// flattenPlatform rewrites {"node": {"runtime": r, "npm": n}} in place to the
// flat {"node": r, "npm": null, ...} shape. The legacy npm field was always
// the version bundled with that node, which the flat shape expresses as null.
func flattenPlatform(doc map[string]json.RawMessage) (bool, error) {
	raw, ok := doc["node"]
	if !ok || !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return false, nil
	}

	var legacy struct {
		Runtime string `json:"runtime"`
		Npm     string `json:"npm"`
	}
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return false, err
	}
	if legacy.Runtime == "" {
		return false, fmt.Errorf("legacy platform has no node runtime")
	}

	node, err := json.Marshal(legacy.Runtime)
	if err != nil {
		return false, err
	}
	doc["node"] = node
	doc["npm"] = json.RawMessage("null")
	for _, key := range []string{"pnpm", "yarn"} {
		if _, ok := doc[key]; !ok {
			doc[key] = json.RawMessage("null")
		}
	}
	return true, nil
}

// rewriteJSON applies fn to a JSON object file, writing it back atomically if
// fn reports a change. A missing file is left alone.
func rewriteJSON(file string, fn func(doc map[string]json.RawMessage) (bool, error)) error {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("could not parse %s: %w", file, err)
	}

	changed, err := fn(doc)
	if err != nil {
		return fmt.Errorf("could not migrate %s: %w", file, err)
	}
	if !changed {
		return nil
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := file + stagingSuffix
	if err := os.WriteFile(tmp, append(out, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, file)
}

// walkJSON calls fn for every .json file under dir.
func walkJSON(dir string, fn func(file string) error) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		return fn(path)
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
