// Package tool defines the tools jsvm manages and the versions requested for them
package tool

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Kind is the closed set of tools jsvm can fetch and run
type Kind int

const (
	Node Kind = iota
	Npm
	Pnpm
	Yarn
	// Package is a third-party npm package installed globally
	Package
)

// Kinds lists the toolchain kinds in PATH order
var Kinds = []Kind{Node, Npm, Pnpm, Yarn}

// String returns the name used on disk and on the command line
func (k Kind) String() string {
	switch k {
	case Node:
		return "node"
	case Npm:
		return "npm"
	case Pnpm:
		return "pnpm"
	case Yarn:
		return "yarn"
	case Package:
		return "packages"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DisplayName returns a human-readable name
func (k Kind) DisplayName() string {
	switch k {
	case Node:
		return "Node"
	case Npm:
		return "npm"
	case Pnpm:
		return "pnpm"
	case Yarn:
		return "Yarn"
	case Package:
		return "package"
	}
	return k.String()
}

// ParseKind maps a toolchain name to its kind. Package names are not kinds.
func ParseKind(name string) (Kind, bool) {
	switch strings.ToLower(name) {
	case "node":
		return Node, true
	case "npm":
		return Npm, true
	case "pnpm":
		return Pnpm, true
	case "yarn":
		return Yarn, true
	}
	return Package, false
}

// Spec is a fully resolved tool version. It is immutable once built.
type Spec struct {
	Kind    Kind
	Name    string // package name, only for Package
	Version *semver.Version
}

// NewSpec creates a spec for a toolchain kind
func NewSpec(kind Kind, version *semver.Version) Spec {
	return Spec{Kind: kind, Name: kind.String(), Version: version}
}

// NewPackageSpec creates a spec for a third-party package
func NewPackageSpec(name string, version *semver.Version) Spec {
	return Spec{Kind: Package, Name: name, Version: version}
}

// String returns "name@version"
func (s Spec) String() string {
	if s.Version == nil {
		return s.Name
	}
	return s.Name + "@" + s.Version.String()
}

// Requirement is a tool plus the version the user asked for
type Requirement struct {
	Kind    Kind
	Name    string
	Version VersionSpec
}

// String returns the requirement as it would be typed
func (r Requirement) String() string {
	if r.Version.IsNone() {
		return r.Name
	}
	return r.Name + "@" + r.Version.String()
}

// ParseRequirement parses "node", "node@18", "yarn@^1.22", "typescript@latest"
// or a scoped package such as "@vue/cli@5".
func ParseRequirement(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Requirement{}, fmt.Errorf("empty tool name")
	}

	name, version := s, ""
	if idx := strings.LastIndex(s, "@"); idx > 0 {
		name, version = s[:idx], s[idx+1:]
	}

	spec, err := ParseVersionSpec(version)
	if err != nil {
		return Requirement{}, fmt.Errorf("invalid version for %s: %w", name, err)
	}

	kind, ok := ParseKind(name)
	if ok {
		name = kind.String()
	}

	return Requirement{Kind: kind, Name: name, Version: spec}, nil
}
