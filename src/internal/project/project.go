// Package project finds the Node project enclosing a directory, reads the
// toolchain it pins in package.json and writes new pins.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// ManifestName is the file that marks a project root
const ManifestName = "package.json"

// PinKey is the package.json key holding the pinned toolchain
const PinKey = "jsvm"

// Pin is the toolchain a project pins. Absent tools are nil.
type Pin struct {
	Node *semver.Version
	Npm  *semver.Version
	Pnpm *semver.Version
	Yarn *semver.Version
}

// IsEmpty reports whether the pin names no tool at all
func (p *Pin) IsEmpty() bool {
	return p == nil || (p.Node == nil && p.Npm == nil && p.Pnpm == nil && p.Yarn == nil)
}

// Get returns the pinned version of a toolchain kind
func (p *Pin) Get(kind tool.Kind) *semver.Version {
	if p == nil {
		return nil
	}
	switch kind {
	case tool.Node:
		return p.Node
	case tool.Npm:
		return p.Npm
	case tool.Pnpm:
		return p.Pnpm
	case tool.Yarn:
		return p.Yarn
	}
	return nil
}

func (p *Pin) set(kind tool.Kind, v *semver.Version) {
	switch kind {
	case tool.Node:
		p.Node = v
	case tool.Npm:
		p.Npm = v
	case tool.Pnpm:
		p.Pnpm = v
	case tool.Yarn:
		p.Yarn = v
	}
}

// Project is the nearest directory with a package.json, re-read on every invocation
type Project struct {
	Root         string
	ManifestFile string
	// Pin merges the manifest's pin over those it extends; nil when none
	Pin          *Pin
	Dependencies []string
	// Extends lists the manifests the pin was extended from, nearest first
	Extends []string
}

type rawManifest struct {
	Dependencies    map[string]json.RawMessage `json:"dependencies"`
	DevDependencies map[string]json.RawMessage `json:"devDependencies"`
	Pin             *rawPin                    `json:"jsvm"`
}

type rawPin struct {
	Node    *string `json:"node"`
	Npm     *string `json:"npm"`
	Pnpm    *string `json:"pnpm"`
	Yarn    *string `json:"yarn"`
	Extends string  `json:"extends"`
}

// Find walks from dir up to the nearest package.json. It returns nil, nil
// when no ancestor is a project.
func Find(dir string) (*Project, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not resolve %s", dir)
	}

	for {
		manifest := filepath.Join(dir, ManifestName)
		if info, err := os.Stat(manifest); err == nil && !info.IsDir() {
			return Load(manifest)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Load reads a project from its manifest file
func Load(manifestFile string) (*Project, error) {
	raw, err := readManifest(manifestFile)
	if err != nil {
		return nil, err
	}

	p := &Project{
		Root:         filepath.Dir(manifestFile),
		ManifestFile: manifestFile,
		Dependencies: dependencyNames(raw),
	}

	pin, extends, err := resolvePin(manifestFile, raw, map[string]bool{})
	if err != nil {
		return nil, err
	}
	if !pin.IsEmpty() {
		p.Pin = pin
	}
	p.Extends = extends

	ui.Debug("Found project %s", manifestFile)
	return p, nil
}

func readManifest(file string) (*rawManifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not read %s", file)
	}

	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "could not parse %s", file)
	}
	return &raw, nil
}

// resolvePin merges file's pin over the chain it extends
func resolvePin(file string, raw *rawManifest, seen map[string]bool) (*Pin, []string, error) {
	abs, _ := filepath.Abs(file)
	if seen[abs] {
		return nil, nil, errs.New(errs.Configuration, "%s extends itself through a cycle", file)
	}
	seen[abs] = true

	pin := &Pin{}
	var chain []string

	if raw.Pin != nil && raw.Pin.Extends != "" {
		base := raw.Pin.Extends
		if !filepath.IsAbs(base) {
			base = filepath.Join(filepath.Dir(file), base)
		}
		baseRaw, err := readManifest(base)
		if err != nil {
			return nil, nil, errs.Wrap(errs.Configuration, err, "could not read %s, extended by %s", base, file)
		}
		basePin, baseChain, err := resolvePin(base, baseRaw, seen)
		if err != nil {
			return nil, nil, err
		}
		pin = basePin
		chain = append([]string{base}, baseChain...)
	}

	if raw.Pin == nil {
		return pin, chain, nil
	}

	fields := []struct {
		kind  tool.Kind
		value *string
	}{
		{tool.Node, raw.Pin.Node},
		{tool.Npm, raw.Pin.Npm},
		{tool.Pnpm, raw.Pin.Pnpm},
		{tool.Yarn, raw.Pin.Yarn},
	}
	for _, f := range fields {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			continue
		}
		v, err := tool.ParseVersion(*f.value)
		if err != nil {
			return nil, nil, errs.New(errs.Configuration,
				"%s pins %s to '%s', which is not an exact version", file, f.kind, *f.value)
		}
		pin.set(f.kind, v)
	}

	return pin, chain, nil
}

func dependencyNames(raw *rawManifest) []string {
	seen := make(map[string]bool)
	var names []string
	for _, deps := range []map[string]json.RawMessage{raw.Dependencies, raw.DevDependencies} {
		for name := range deps {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// HasDependency reports whether name is a direct dependency
func (p *Project) HasDependency(name string) bool {
	i := sort.SearchStrings(p.Dependencies, name)
	return i < len(p.Dependencies) && p.Dependencies[i] == name
}

// BinDir is where the package manager links dependency executables
func (p *Project) BinDir() string {
	return filepath.Join(p.Root, "node_modules", ".bin")
}

func (p *Project) String() string {
	return fmt.Sprintf("project at %s", p.Root)
}
