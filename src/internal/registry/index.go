// Package registry reads the version indexes of Node and npm-registry
// packages and resolves version requests against them.
package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// Entry is one published version.
type Entry struct {
	Version string   `json:"version"`
	Npm     string   `json:"npm,omitempty"`   // bundled npm, Node only
	LTS     string   `json:"lts,omitempty"`   // LTS codename, Node only
	Files   []string `json:"files,omitempty"` // platform builds, Node only
}

// Index is the list of published versions of one tool plus its named tags.
type Index struct {
	Entries []Entry           `json:"entries"`
	Tags    map[string]string `json:"tags,omitempty"`
}

type nodeIndexEntry struct {
	Version string          `json:"version"`
	Npm     string          `json:"npm"`
	LTS     json.RawMessage `json:"lts"`
	Files   []string        `json:"files"`
}

// ParseNodeIndex parses https://nodejs.org/dist/index.json.
func ParseNodeIndex(data []byte) (*Index, error) {
	var raw []nodeIndexEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse Node index: %w", err)
	}

	index := &Index{Tags: make(map[string]string)}
	for _, e := range raw {
		entry := Entry{
			Version: strings.TrimPrefix(e.Version, "v"),
			Npm:     e.Npm,
			Files:   e.Files,
		}
		// "lts" is either false or the release line's codename
		var codename string
		if json.Unmarshal(e.LTS, &codename) == nil {
			entry.LTS = strings.ToLower(codename)
		}
		index.Entries = append(index.Entries, entry)
	}
	return index, nil
}

type packageMetadata struct {
	Name     string                     `json:"name"`
	DistTags map[string]string          `json:"dist-tags"`
	Versions map[string]json.RawMessage `json:"versions"`
}

// ParsePackageMetadata parses the (abbreviated) npm registry document of a package.
func ParsePackageMetadata(data []byte) (*Index, error) {
	var raw packageMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse registry metadata: %w", err)
	}

	index := &Index{Tags: make(map[string]string)}
	for tag, version := range raw.DistTags {
		index.Tags[strings.ToLower(tag)] = version
	}
	for version := range raw.Versions {
		index.Entries = append(index.Entries, Entry{Version: version})
	}
	return index, nil
}

// Merge adds other's entries and keeps the higher version for shared tags.
func (idx *Index) Merge(other *Index) {
	idx.Entries = append(idx.Entries, other.Entries...)
	if idx.Tags == nil {
		idx.Tags = make(map[string]string)
	}
	for tag, v := range other.Tags {
		cur, ok := idx.Tags[tag]
		if !ok || newer(v, cur) {
			idx.Tags[tag] = v
		}
	}
}

func newer(a, b string) bool {
	va, errA := semver.StrictNewVersion(a)
	vb, errB := semver.StrictNewVersion(b)
	return errA == nil && (errB != nil || va.GreaterThan(vb))
}

// sorted returns the parseable versions newest first, each with its entry.
func (idx *Index) sorted() ([]*semver.Version, map[*semver.Version]Entry) {
	versions := make([]*semver.Version, 0, len(idx.Entries))
	entries := make(map[*semver.Version]Entry, len(idx.Entries))
	for _, e := range idx.Entries {
		v, err := semver.StrictNewVersion(e.Version)
		if err != nil {
			continue
		}
		versions = append(versions, v)
		entries[v] = e
	}
	sort.Sort(sort.Reverse(semver.Collection(versions)))
	return versions, entries
}

// Versions returns every published version, newest first.
func (idx *Index) Versions() []*semver.Version {
	versions, _ := idx.sorted()
	return versions
}

// Resolve picks the version of kind that spec asks for. platformKey, when
// set, skips Node releases with no build for the current platform.
func (idx *Index) Resolve(kind tool.Kind, name string, spec tool.VersionSpec, platformKey string) (*semver.Version, error) {
	if spec.Kind() == tool.SpecExact {
		return spec.ExactVersion(), nil
	}

	versions, entries := idx.sorted()
	available := func(v *semver.Version) bool {
		files := entries[v].Files
		if kind != tool.Node || platformKey == "" || len(files) == 0 {
			return true
		}
		for _, f := range files {
			if f == platformKey {
				return true
			}
		}
		return false
	}

	if spec.IsNone() {
		spec = defaultSpec(kind)
	}

	switch spec.Kind() {
	case tool.SpecTag:
		tag := spec.TagName()
		if kind == tool.Node {
			for _, v := range versions {
				e := entries[v]
				if !available(v) || v.Prerelease() != "" {
					continue
				}
				if tag == "latest" || (tag == "lts" && e.LTS != "") || e.LTS == tag {
					return v, nil
				}
			}
		} else if version, ok := idx.Tags[tag]; ok {
			if v, err := semver.StrictNewVersion(version); err == nil {
				return v, nil
			}
		}
		return nil, errs.New(errs.VersionNotFound, "no %s version matches tag '%s'", name, tag)

	case tool.SpecRange:
		for _, v := range versions {
			if available(v) && spec.Matches(v) {
				return v, nil
			}
		}
		return nil, errs.New(errs.VersionNotFound, "no %s version matches '%s'", name, spec)
	}

	return nil, errs.New(errs.VersionNotFound, "could not resolve %s@%s", name, spec)
}

// defaultSpec is what a bare tool name means: Node's newest LTS, otherwise latest.
func defaultSpec(kind tool.Kind) tool.VersionSpec {
	if kind == tool.Node {
		return tool.Tag("lts")
	}
	return tool.Tag("latest")
}
