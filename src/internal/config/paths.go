// Package config manages jsvm's on-disk layout and user configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/jsvm/jsvm/src/internal/constants"
)

// Paths holds every location under one jsvm root.
// It is built once per process and passed to each component.
type Paths struct {
	Root      string // Root jsvm directory (~/.jsvm)
	Bin       string // jsvm and jsvm-shim executables (~/.jsvm/bin)
	Shims     string // Shims directory (~/.jsvm/shims)
	Tools     string // ~/.jsvm/tools
	Inventory string // Cached archives (~/.jsvm/tools/inventory)
	Image     string // Unpacked installs (~/.jsvm/tools/image)
	User      string // User configuration (~/.jsvm/tools/user)
	Tmp       string // Staging area for fetches and installs (~/.jsvm/tools/tmp)
	Log       string // Log directory (~/.jsvm/log)
}

var (
	defaultPaths *Paths
	pathsOnce    sync.Once
)

// DefaultPaths returns the paths for the root selected by the environment.
// This function is thread-safe and guarantees single initialization.
func DefaultPaths() *Paths {
	pathsOnce.Do(func() {
		defaultPaths = NewPaths(getRootDir())
	})
	return defaultPaths
}

// NewPaths builds the layout for an explicit root
func NewPaths(root string) *Paths {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	tools := filepath.Join(root, "tools")
	return &Paths{
		Root:      root,
		Bin:       filepath.Join(root, "bin"),
		Shims:     filepath.Join(root, "shims"),
		Tools:     tools,
		Inventory: filepath.Join(tools, "inventory"),
		Image:     filepath.Join(tools, "image"),
		User:      filepath.Join(tools, "user"),
		Tmp:       filepath.Join(tools, "tmp"),
		Log:       filepath.Join(root, "log"),
	}
}

// getRootDir returns the root jsvm directory
func getRootDir() string {
	if root := os.Getenv(constants.EnvHome); root != "" {
		return root
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".jsvm"
	}

	return filepath.Join(home, ".jsvm")
}

// InventoryDir returns the archive cache for a tool ("node", "npm", ...)
func (p *Paths) InventoryDir(toolName string) string {
	return filepath.Join(p.Inventory, toolName)
}

// ImageRoot returns the directory holding every unpacked version of a tool
func (p *Paths) ImageRoot(toolName string) string {
	return filepath.Join(p.Image, toolName)
}

// ImageDir returns the unpacked install for one tool version
func (p *Paths) ImageDir(toolName, version string) string {
	return filepath.Join(p.Image, toolName, version)
}

// PackageImageDir returns the private prefix of a globally installed package
func (p *Paths) PackageImageDir(name string) string {
	return filepath.Join(p.Image, "packages", filepath.FromSlash(name))
}

// NodeBinDir returns the directory holding node, npm and npx for an image
func (p *Paths) NodeBinDir(version string) string {
	dir := p.ImageDir("node", version)
	if runtime.GOOS == constants.OSWindows {
		return dir
	}
	return filepath.Join(dir, "bin")
}

// ToolBinDir returns the bin directory of an npm, pnpm or Yarn image
func (p *Paths) ToolBinDir(toolName, version string) string {
	return filepath.Join(p.ImageDir(toolName, version), "bin")
}

// NodeNpmSidecar records which npm version a Node image bundles
func (p *Paths) NodeNpmSidecar(version string) string {
	return filepath.Join(p.InventoryDir("node"), fmt.Sprintf("node-v%s-npm", version))
}

// DefaultPlatformFile returns the user's default platform
func (p *Paths) DefaultPlatformFile() string {
	return filepath.Join(p.User, "platform.json")
}

// BinConfigDir returns the directory of per-binary configs
func (p *Paths) BinConfigDir() string {
	return filepath.Join(p.User, "bins")
}

// BinConfigFile returns the config for one installed binary
func (p *Paths) BinConfigFile(bin string) string {
	return filepath.Join(p.BinConfigDir(), bin+".json")
}

// PackageConfigDir returns the directory of per-package configs
func (p *Paths) PackageConfigDir() string {
	return filepath.Join(p.User, "packages")
}

// PackageConfigFile returns the config for one installed package
func (p *Paths) PackageConfigFile(name string) string {
	return filepath.Join(p.PackageConfigDir(), filepath.FromSlash(name)+".json")
}

// HooksFile returns the user-wide hooks file
func (p *Paths) HooksFile() string {
	return filepath.Join(p.User, HooksFileName)
}

// LockFile returns the file locked around every mutation of the root
func (p *Paths) LockFile() string {
	return filepath.Join(p.Root, "jsvm.lock")
}

// LayoutMarker returns the marker file for a layout version
func (p *Paths) LayoutMarker(version int) string {
	return filepath.Join(p.Root, fmt.Sprintf("layout.v%d", version))
}

// ShimPath returns the path to a specific shim executable
func (p *Paths) ShimPath(shimName string) string {
	if runtime.GOOS == constants.OSWindows {
		shimName = shimName + constants.ExtExe
	}
	return filepath.Join(p.Shims, shimName)
}

// EnsureDirectories creates all necessary jsvm directories
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Bin,
		p.Shims,
		p.Inventory,
		p.Image,
		p.User,
		p.Tmp,
		p.BinConfigDir(),
		p.PackageConfigDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// OwnDirs returns the directories that must never be on a child's PATH
func (p *Paths) OwnDirs() []string {
	return []string{p.Shims, p.Bin}
}

// HooksFileName is the name of the hooks configuration file
const HooksFileName = "hooks.toml"

// ProjectConfigDirName is the per-project configuration directory
const ProjectConfigDirName = ".jsvm"

// ResetPathsCache resets the cached paths, forcing reinitialization on next access.
// This is primarily useful for testing.
func ResetPathsCache() {
	pathsOnce = sync.Once{}
	defaultPaths = nil
}
