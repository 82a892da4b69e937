// Package importer brings Node versions installed by other version managers
// (nvm, fnm) into jsvm's inventory.
package importer

import (
	"github.com/Masterminds/semver/v3"
)

// Provider detects the Node versions one version manager has installed.
type Provider interface {
	// Name returns the identifier used on the command line (e.g., "nvm")
	Name() string

	// DisplayName returns the human-readable name
	DisplayName() string

	// IsPresent checks if this version manager is installed
	IsPresent() bool

	// DetectVersions finds every Node version the manager installed
	DetectVersions() ([]DetectedVersion, error)

	// UninstallCommand returns the command that removes one version, or ""
	UninstallCommand(version string) string

	// ManualInstructions explains how to remove the manager's versions by hand
	ManualInstructions() string
}

// DetectedVersion is a Node version found on disk by a provider.
type DetectedVersion struct {
	Version *semver.Version
	Path    string // node executable
	Source  string // provider name
}

// String returns a formatted string representation.
func (dv DetectedVersion) String() string {
	return "v" + dv.Version.String() + " (" + dv.Source + ") " + dv.Path
}
