// Package path provides utilities for PATH environment variable manipulation
package path

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jsvm/jsvm/src/internal/constants"
)

// Split breaks a PATH value into its entries, dropping empty ones
func Split(value string) []string {
	var dirs []string
	for _, d := range filepath.SplitList(value) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Join builds a PATH value from entries
func Join(dirs []string) string {
	return strings.Join(dirs, string(os.PathListSeparator))
}

// Same reports whether two PATH entries name the same directory
func Same(a, b string) bool {
	a = filepath.Clean(a)
	b = filepath.Clean(b)
	if runtime.GOOS == constants.OSWindows {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Strip removes every entry naming one of dirs from a PATH value
func Strip(value string, dirs ...string) string {
	var kept []string
	for _, entry := range Split(value) {
		if !containsDir(dirs, entry) {
			kept = append(kept, entry)
		}
	}
	return Join(kept)
}

// Prepend puts dirs, in order, ahead of the entries of a PATH value
func Prepend(value string, dirs ...string) string {
	entries := append([]string{}, dirs...)
	return Join(append(entries, Split(value)...))
}

func containsDir(dirs []string, dir string) bool {
	for _, d := range dirs {
		if Same(d, dir) {
			return true
		}
	}
	return false
}

// IsInPath checks if a directory is in the system PATH
func IsInPath(dir string) bool {
	return containsDir(Split(os.Getenv("PATH")), dir)
}

// LookPath finds an executable on a PATH value other than the process's own
func LookPath(name, pathValue string) (string, bool) {
	exts := []string{""}
	if runtime.GOOS == constants.OSWindows && filepath.Ext(name) == "" {
		exts = windowsExts()
	}

	for _, dir := range Split(pathValue) {
		for _, ext := range exts {
			candidate := filepath.Join(dir, name+ext)
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			if runtime.GOOS != constants.OSWindows && info.Mode()&0111 == 0 {
				continue
			}
			return candidate, true
		}
	}
	return "", false
}

func windowsExts() []string {
	pathext := os.Getenv("PATHEXT")
	if pathext == "" {
		return []string{constants.ExtExe, constants.ExtCmd, constants.ExtBat}
	}
	var exts []string
	for _, e := range strings.Split(strings.ToLower(pathext), ";") {
		if e != "" {
			exts = append(exts, e)
		}
	}
	return exts
}
