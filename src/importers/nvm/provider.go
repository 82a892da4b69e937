// Package nvm imports Node versions installed by Node Version Manager (nvm).
package nvm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsvm/jsvm/src/internal/importer"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// Provider implements importer.Provider for nvm and nvm-windows.
type Provider struct {
	home string
}

// NewProvider creates a provider reading the current user's home.
func NewProvider() *Provider {
	home, _ := os.UserHomeDir()
	return NewProviderWithHome(home)
}

// NewProviderWithHome creates a provider reading an explicit home directory.
func NewProviderWithHome(home string) *Provider {
	return &Provider{home: home}
}

// Name returns the identifier for this version manager.
func (p *Provider) Name() string {
	return "nvm"
}

// DisplayName returns the human-readable name.
func (p *Provider) DisplayName() string {
	return "Node Version Manager (nvm)"
}

func (p *Provider) unixDir() string {
	if dir := os.Getenv("NVM_DIR"); dir != "" {
		return filepath.Join(dir, "versions", "node")
	}
	return filepath.Join(p.home, ".nvm", "versions", "node")
}

func (p *Provider) windowsDir() string {
	if dir := os.Getenv("NVM_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(p.home, "AppData", "Roaming", "nvm")
}

// IsPresent checks if nvm is installed on the system.
func (p *Provider) IsPresent() bool {
	if p.home == "" {
		return false
	}
	for _, dir := range []string{p.unixDir(), p.windowsDir()} {
		if _, err := os.Stat(dir); err == nil {
			return true
		}
	}
	return false
}

// DetectVersions finds all versions installed by nvm.
func (p *Provider) DetectVersions() ([]importer.DetectedVersion, error) {
	detected := make([]importer.DetectedVersion, 0)
	if p.home == "" {
		return detected, nil
	}

	entries, _ := os.ReadDir(p.unixDir())
	for _, entry := range entries {
		if v, ok := p.version(entry, filepath.Join(p.unixDir(), entry.Name(), "bin", "node")); ok {
			detected = append(detected, v)
		}
	}

	entries, _ = os.ReadDir(p.windowsDir())
	for _, entry := range entries {
		if v, ok := p.version(entry, filepath.Join(p.windowsDir(), entry.Name(), "node.exe")); ok {
			detected = append(detected, v)
		}
	}

	return detected, nil
}

func (p *Provider) version(entry os.DirEntry, nodePath string) (importer.DetectedVersion, bool) {
	if !entry.IsDir() {
		return importer.DetectedVersion{}, false
	}
	v, err := tool.ParseVersion(entry.Name())
	if err != nil {
		return importer.DetectedVersion{}, false
	}
	if _, err := os.Stat(nodePath); err != nil {
		return importer.DetectedVersion{}, false
	}
	return importer.DetectedVersion{Version: v, Path: nodePath, Source: p.Name()}, true
}

// UninstallCommand returns the command to uninstall a specific version.
func (p *Provider) UninstallCommand(version string) string {
	return fmt.Sprintf("nvm uninstall %s", version)
}

// ManualInstructions returns instructions for manual removal.
func (p *Provider) ManualInstructions() string {
	return "To remove nvm-installed Node versions:\n" +
		"  1. Run: nvm uninstall <version>\n" +
		"  2. Or delete the version directory from ~/.nvm/versions/node/\n" +
		"  3. Remove the nvm lines from your shell profile so jsvm's shims come first on PATH"
}

func init() {
	if err := importer.Register(NewProvider()); err != nil {
		panic(fmt.Sprintf("failed to register nvm import provider: %v", err))
	}
}
