// Package fnm imports Node versions installed by Fast Node Manager (fnm).
package fnm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsvm/jsvm/src/internal/importer"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// Provider implements importer.Provider for fnm.
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
	return "fnm"
}

// DisplayName returns the human-readable name.
func (p *Provider) DisplayName() string {
	return "Fast Node Manager (fnm)"
}

// versionDirs lists where fnm keeps node-versions, FNM_DIR first.
func (p *Provider) versionDirs() []string {
	var dirs []string
	if dir := os.Getenv("FNM_DIR"); dir != "" {
		dirs = append(dirs, filepath.Join(dir, "node-versions"))
	}
	if p.home == "" {
		return dirs
	}
	return append(dirs,
		filepath.Join(p.home, ".local", "share", "fnm", "node-versions"),
		filepath.Join(p.home, ".fnm", "node-versions"),
		filepath.Join(p.home, "Library", "Application Support", "fnm", "node-versions"), // macOS
		filepath.Join(p.home, "AppData", "Roaming", "fnm", "node-versions"),
	)
}

// IsPresent checks if fnm is installed on the system.
func (p *Provider) IsPresent() bool {
	for _, dir := range p.versionDirs() {
		if _, err := os.Stat(dir); err == nil {
			return true
		}
	}
	return false
}

// DetectVersions finds all versions installed by fnm.
func (p *Provider) DetectVersions() ([]importer.DetectedVersion, error) {
	detected := make([]importer.DetectedVersion, 0)

	for _, dir := range p.versionDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			v, err := tool.ParseVersion(entry.Name())
			if err != nil {
				continue
			}

			versionDir := filepath.Join(dir, entry.Name())
			for _, nodePath := range []string{
				filepath.Join(versionDir, "installation", "bin", "node"),
				filepath.Join(versionDir, "installation", "node.exe"),
			} {
				if _, err := os.Stat(nodePath); err == nil {
					detected = append(detected, importer.DetectedVersion{Version: v, Path: nodePath, Source: p.Name()})
					break
				}
			}
		}
	}

	return detected, nil
}

// UninstallCommand returns the command to uninstall a specific version.
func (p *Provider) UninstallCommand(version string) string {
	return fmt.Sprintf("fnm uninstall %s", version)
}

// ManualInstructions returns instructions for manual removal.
func (p *Provider) ManualInstructions() string {
	return "To remove fnm-installed Node versions:\n" +
		"  1. Run: fnm uninstall <version>\n" +
		"  2. Or delete the version directory from ~/.local/share/fnm/node-versions/\n" +
		"  3. Remove `fnm env` from your shell profile so jsvm's shims come first on PATH"
}

func init() {
	if err := importer.Register(NewProvider()); err != nil {
		panic(fmt.Sprintf("failed to register fnm import provider: %v", err))
	}
}
