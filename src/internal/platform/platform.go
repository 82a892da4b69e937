// Package platform decides which toolchain versions apply to an invocation.
package platform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// Source records where a platform came from. It only affects diagnostics.
type Source int

const (
	Project Source = iota
	Default
	CommandLine
	Binary
	ProjectNodeDefaultYarn
)

func (s Source) String() string {
	switch s {
	case Project:
		return "project"
	case Default:
		return "default"
	case CommandLine:
		return "command line"
	case Binary:
		return "binary"
	case ProjectNodeDefaultYarn:
		return "project with default yarn"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Spec is a set of exact tool versions. A nil Npm means Node's bundled npm.
type Spec struct {
	Node *semver.Version
	Npm  *semver.Version
	Pnpm *semver.Version
	Yarn *semver.Version
}

type rawSpec struct {
	Node *string `json:"node"`
	Npm  *string `json:"npm"`
	Pnpm *string `json:"pnpm"`
	Yarn *string `json:"yarn"`
}

func versionString(v *semver.Version) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func parseField(field string, s *string) (*semver.Version, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v, err := tool.ParseVersion(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s version %q: %w", field, *s, err)
	}
	return v, nil
}

// MarshalJSON writes every tool, absent ones as null.
func (s Spec) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawSpec{
		Node: versionString(s.Node),
		Npm:  versionString(s.Npm),
		Pnpm: versionString(s.Pnpm),
		Yarn: versionString(s.Yarn),
	})
}

// UnmarshalJSON reads the flat platform shape; empty or null fields are absent.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var raw rawSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	var out Spec
	if out.Node, err = parseField("node", raw.Node); err != nil {
		return err
	}
	if out.Npm, err = parseField("npm", raw.Npm); err != nil {
		return err
	}
	if out.Pnpm, err = parseField("pnpm", raw.Pnpm); err != nil {
		return err
	}
	if out.Yarn, err = parseField("yarn", raw.Yarn); err != nil {
		return err
	}
	*s = out
	return nil
}

// Get returns the version of one tool, nil when absent.
func (s *Spec) Get(kind tool.Kind) *semver.Version {
	switch kind {
	case tool.Node:
		return s.Node
	case tool.Npm:
		return s.Npm
	case tool.Pnpm:
		return s.Pnpm
	case tool.Yarn:
		return s.Yarn
	}
	return nil
}

// Set replaces the version of one tool.
func (s *Spec) Set(kind tool.Kind, v *semver.Version) {
	switch kind {
	case tool.Node:
		s.Node = v
	case tool.Npm:
		s.Npm = v
	case tool.Pnpm:
		s.Pnpm = v
	case tool.Yarn:
		s.Yarn = v
	}
}

// IsEmpty reports whether no tool is set.
func (s *Spec) IsEmpty() bool {
	return s.Node == nil && s.Npm == nil && s.Pnpm == nil && s.Yarn == nil
}

// Tools lists the versions to fetch, node first.
func (s *Spec) Tools() []tool.Spec {
	var specs []tool.Spec
	for _, kind := range tool.Kinds {
		if v := s.Get(kind); v != nil {
			specs = append(specs, tool.NewSpec(kind, v))
		}
	}
	return specs
}

func (s Spec) String() string {
	var parts []string
	for _, kind := range tool.Kinds {
		if v := s.Get(kind); v != nil {
			parts = append(parts, fmt.Sprintf("%s@%s", kind, v))
		}
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

// Platform is a fully resolved toolchain with node always set.
type Platform struct {
	Spec
	Source Source
}

// FromBinary returns the frozen platform of an installed package bin.
func FromBinary(spec Spec) *Platform {
	return &Platform{Spec: spec, Source: Binary}
}
