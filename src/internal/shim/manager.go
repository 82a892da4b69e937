// Package shim manages the shim entries that stand in for Node tools and
// globally installed package binaries
package shim

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// ToolShims are the shims every root has, whatever is installed
var ToolShims = []string{"node", "npm", "npx", "pnpm", "pnpx", "yarn", "yarnpkg"}

// Manager handles shim creation and management
type Manager struct {
	paths      *config.Paths
	shimSource string // Path to the shim executable
}

// NewManager creates a shim manager for a root
func NewManager(paths *config.Paths) (*Manager, error) {
	shimSource, err := findShimExecutable(paths)
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not find %s", shimExecName())
	}

	return &Manager{paths: paths, shimSource: shimSource}, nil
}

// NewManagerWithSource creates a shim manager using an explicit shim executable
func NewManagerWithSource(paths *config.Paths, shimSource string) *Manager {
	return &Manager{paths: paths, shimSource: shimSource}
}

func shimExecName() string {
	if runtime.GOOS == constants.OSWindows {
		return constants.ShimExecName + constants.ExtExe
	}
	return constants.ShimExecName
}

// findShimExecutable looks in the root's bin directory, then next to the
// running executable
func findShimExecutable(paths *config.Paths) (string, error) {
	candidates := []string{filepath.Join(paths.Bin, shimExecName())}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), shimExecName()))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", os.ErrNotExist
}

// Source returns the shim executable new shims point at
func (m *Manager) Source() string {
	return m.shimSource
}

// CreateShim creates a shim for the given executable name. On Unix it is a
// symlink to the shim executable, on Windows a copy.
func (m *Manager) CreateShim(shimName string) error {
	shimPath := m.paths.ShimPath(shimName)
	if err := os.MkdirAll(m.paths.Shims, 0755); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create %s", m.paths.Shims)
	}

	if runtime.GOOS != constants.OSWindows {
		if target, err := os.Readlink(shimPath); err == nil && target == m.shimSource {
			return nil
		}
		_ = os.Remove(shimPath)
		if err := os.Symlink(m.shimSource, shimPath); err == nil {
			ui.Debug("Linked shim %s", shimPath)
			return nil
		}
	}

	if err := copyFile(m.shimSource, shimPath); err != nil {
		return errs.Wrap(errs.FileSystem, err, "failed to create shim %s", shimName)
	}

	if runtime.GOOS != constants.OSWindows {
		if err := os.Chmod(shimPath, 0755); err != nil {
			return errs.Wrap(errs.FileSystem, err, "failed to make shim executable")
		}
	}

	ui.Debug("Copied shim %s", shimPath)
	return nil
}

// CreateShims creates multiple shims at once
func (m *Manager) CreateShims(shimNames []string) error {
	for _, shimName := range shimNames {
		if err := m.CreateShim(shimName); err != nil {
			return err
		}
	}
	return nil
}

// RemoveShim removes a shim. The tool shims are never removed.
func (m *Manager) RemoveShim(shimName string) error {
	for _, s := range ToolShims {
		if s == shimName {
			return nil
		}
	}

	shimPath := m.paths.ShimPath(shimName)
	if err := os.Remove(shimPath); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.FileSystem, err, "failed to remove shim %s", shimName)
	}

	return nil
}

// ListShims returns all existing shims, sorted
func (m *Manager) ListShims() ([]string, error) {
	entries, err := os.ReadDir(m.paths.Shims)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errs.Wrap(errs.FileSystem, err, "could not read %s", m.paths.Shims)
	}

	shims := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Remove .exe extension on Windows for consistency
		if runtime.GOOS == constants.OSWindows {
			name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		shims = append(shims, name)
	}

	sort.Strings(shims)
	return shims, nil
}

// Rehash recreates the tool shims and one shim per installed package bin
func (m *Manager) Rehash() error {
	names := append([]string{}, ToolShims...)

	entries, err := os.ReadDir(m.paths.BinConfigDir())
	if err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.FileSystem, err, "could not read %s", m.paths.BinConfigDir())
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}

	return m.CreateShims(names)
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	// Sync to ensure write is complete
	return dstFile.Sync()
}
