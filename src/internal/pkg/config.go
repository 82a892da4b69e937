// Package pkg installs global npm and Yarn packages into private prefixes,
// each bound to the Node version that installed it.
package pkg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/platform"
)

// Loader runs a bin script through an interpreter.
type Loader struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// BinConfig describes one executable exposed by an installed package.
type BinConfig struct {
	Name     string        `json:"name"`
	Package  string        `json:"package"`
	Version  string        `json:"version"`
	Platform platform.Spec `json:"platform"`
	Manager  string        `json:"manager"`
	Loader   *Loader       `json:"loader,omitempty"`
}

// PackageConfig describes an installed package.
type PackageConfig struct {
	Name     string        `json:"name"`
	Version  string        `json:"version"`
	Platform platform.Spec `json:"platform"`
	Bins     []string      `json:"bins"`
	Manager  string        `json:"manager"`
}

// LoadBinConfig reads the config of an installed bin, nil when none exists.
func LoadBinConfig(paths *config.Paths, name string) (*BinConfig, error) {
	var cfg BinConfig
	found, err := readJSON(paths.BinConfigFile(name), &cfg)
	if !found || err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadPackageConfig reads the config of an installed package, nil when none exists.
func LoadPackageConfig(paths *config.Paths, name string) (*PackageConfig, error) {
	var cfg PackageConfig
	found, err := readJSON(paths.PackageConfigFile(name), &cfg)
	if !found || err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the bin config.
func (c *BinConfig) Save(paths *config.Paths) error {
	return writeJSON(paths.BinConfigFile(c.Name), c)
}

// Save writes the package config.
func (c *PackageConfig) Save(paths *config.Paths) error {
	return writeJSON(paths.PackageConfigFile(c.Name), c)
}

// ImageDir is the private prefix the package was installed into.
func (c *PackageConfig) ImageDir(paths *config.Paths) string {
	return paths.PackageImageDir(c.Name)
}

func readJSON(file string, v interface{}) (bool, error) {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(errs.FileSystem, err, "could not read %s", file)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errs.Wrap(errs.Configuration, err, "could not parse %s", file)
	}
	return true, nil
}

func writeJSON(file string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "could not encode %s", file)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create %s", filepath.Dir(file))
	}
	if err := os.WriteFile(file, append(data, '\n'), 0644); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not write %s", file)
	}
	return nil
}

func removeFile(file string) error {
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.FileSystem, err, "could not remove %s", file)
	}
	return nil
}

// ScriptArgs returns the loader arguments with paths resolved inside the
// package's image.
func (c *BinConfig) ScriptArgs(paths *config.Paths) []string {
	if c.Loader == nil {
		return nil
	}
	dir := paths.PackageImageDir(c.Package)
	args := make([]string, len(c.Loader.Args))
	for i, a := range c.Loader.Args {
		args[i] = filepath.Join(dir, a)
	}
	return args
}

// Executable returns the linked bin the package manager created.
func (c *BinConfig) Executable(paths *config.Paths) (string, bool) {
	dir := paths.PackageImageDir(c.Package)
	candidates := []string{filepath.Join(dir, "bin", c.Name)}
	if runtime.GOOS == constants.OSWindows {
		candidates = []string{
			filepath.Join(dir, c.Name+constants.ExtCmd),
			filepath.Join(dir, "bin", c.Name+constants.ExtCmd),
		}
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
