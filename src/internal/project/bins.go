package project

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// DirectBin reports whether name is an executable provided by one of the
// project's direct dependencies and linked into node_modules/.bin.
func (p *Project) DirectBin(name string) bool {
	if !p.linkedBin(name) {
		return false
	}

	for _, dep := range p.Dependencies {
		manifest := filepath.Join(p.Root, "node_modules", filepath.FromSlash(dep), ManifestName)
		for _, bin := range dependencyBins(manifest, dep) {
			if bin == name {
				ui.Debug("%s is provided by direct dependency %s", name, dep)
				return true
			}
		}
	}
	return false
}

// BinPath returns the linked executable for a direct dependency bin
func (p *Project) BinPath(name string) string {
	if runtime.GOOS == constants.OSWindows {
		return filepath.Join(p.BinDir(), name+constants.ExtCmd)
	}
	return filepath.Join(p.BinDir(), name)
}

func (p *Project) linkedBin(name string) bool {
	_, err := os.Stat(p.BinPath(name))
	return err == nil
}

// dependencyBins reads the bin names of an installed dependency
func dependencyBins(manifest, dep string) []string {
	data, err := os.ReadFile(manifest)
	if err != nil {
		return nil
	}

	var raw struct {
		Bin json.RawMessage `json:"bin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw.Bin) == 0 {
		return nil
	}

	var bins []string
	for name := range ParseBinField(dep, raw.Bin) {
		bins = append(bins, name)
	}
	return bins
}

// ParseBinField returns the executables of a package.json "bin" value,
// mapped to their scripts. A string bin is named after the package without
// its scope.
func ParseBinField(pkg string, bin json.RawMessage) map[string]string {
	var single string
	if err := json.Unmarshal(bin, &single); err == nil {
		if single == "" {
			return nil
		}
		return map[string]string{path.Base(pkg): single}
	}

	var named map[string]string
	if err := json.Unmarshal(bin, &named); err != nil {
		return nil
	}
	return named
}
