package tool

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SpecKind distinguishes the forms a requested version can take
type SpecKind int

const (
	SpecNone SpecKind = iota
	SpecExact
	SpecRange
	SpecTag
)

var tagPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// VersionSpec is a version request: nothing, an exact version, a semver range or a tag
type VersionSpec struct {
	kind  SpecKind
	raw   string
	exact *semver.Version
	rng   *semver.Constraints
}

// ParseVersion parses an exact version, accepting an optional "v" prefix
func ParseVersion(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	return semver.StrictNewVersion(s)
}

// ParseVersionSpec classifies user input as none, exact, range or tag
func ParseVersionSpec(s string) (VersionSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VersionSpec{kind: SpecNone}, nil
	}

	if v, err := ParseVersion(s); err == nil {
		return VersionSpec{kind: SpecExact, raw: s, exact: v}, nil
	}

	if tagPattern.MatchString(s) && !isWildcard(s) && !startsWithV(s) {
		return VersionSpec{kind: SpecTag, raw: strings.ToLower(s)}, nil
	}

	c, err := semver.NewConstraint(s)
	if err != nil {
		return VersionSpec{}, fmt.Errorf("%q is not a version, range or tag", s)
	}
	return VersionSpec{kind: SpecRange, raw: s, rng: c}, nil
}

// Exact returns a spec for a concrete version
func Exact(v *semver.Version) VersionSpec {
	return VersionSpec{kind: SpecExact, raw: v.String(), exact: v}
}

// Tag returns a spec for a named tag such as "latest" or "lts"
func Tag(name string) VersionSpec {
	return VersionSpec{kind: SpecTag, raw: strings.ToLower(name)}
}

func isWildcard(s string) bool {
	return s == "x" || s == "X"
}

// startsWithV catches "v18" so it parses as a range rather than a tag
func startsWithV(s string) bool {
	return len(s) > 1 && (s[0] == 'v' || s[0] == 'V') && s[1] >= '0' && s[1] <= '9'
}

// Kind returns the form of the spec
func (s VersionSpec) Kind() SpecKind { return s.kind }

// IsNone reports whether no version was requested
func (s VersionSpec) IsNone() bool { return s.kind == SpecNone }

// ExactVersion returns the version for an exact spec, nil otherwise
func (s VersionSpec) ExactVersion() *semver.Version { return s.exact }

// TagName returns the tag for a tag spec
func (s VersionSpec) TagName() string {
	if s.kind != SpecTag {
		return ""
	}
	return s.raw
}

// Matches reports whether v satisfies an exact or range spec
func (s VersionSpec) Matches(v *semver.Version) bool {
	switch s.kind {
	case SpecExact:
		return s.exact.Equal(v)
	case SpecRange:
		return s.rng.Check(v)
	case SpecNone:
		return true
	}
	return false
}

func (s VersionSpec) String() string {
	switch s.kind {
	case SpecNone:
		return ""
	case SpecExact:
		return s.exact.String()
	}
	return s.raw
}
