package path

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jsvm/jsvm/src/internal/constants"
)

func list(dirs ...string) string {
	return strings.Join(dirs, string(os.PathListSeparator))
}

func TestIsInPath(t *testing.T) {
	tests := []struct {
		name      string
		dir       string
		setupPath string
		expected  bool
	}{
		{
			name:      "Directory exists in PATH",
			dir:       "/usr/bin",
			setupPath: list("/usr/bin", "/usr/local/bin"),
			expected:  true,
		},
		{
			name:      "Directory not in PATH",
			dir:       "/nonexistent",
			setupPath: list("/usr/bin", "/usr/local/bin"),
			expected:  false,
		},
		{
			name:      "Empty PATH",
			dir:       "/usr/bin",
			setupPath: "",
			expected:  false,
		},
		{
			name:      "Spaces in entry",
			dir:       "/path with spaces",
			setupPath: list("/usr/bin", "/path with spaces"),
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PATH", tt.setupPath)

			cleanDir := filepath.Clean(tt.dir)
			if result := IsInPath(cleanDir); result != tt.expected {
				t.Errorf("IsInPath(%q) with PATH=%q = %v, want %v",
					cleanDir, tt.setupPath, result, tt.expected)
			}
		})
	}
}

func TestStrip(t *testing.T) {
	value := list("/home/u/.jsvm/shims", "/usr/bin", "", "/home/u/.jsvm/bin/", "/bin")

	got := Strip(value, "/home/u/.jsvm/shims", "/home/u/.jsvm/bin")
	if got != list("/usr/bin", "/bin") {
		t.Errorf("Strip() = %q", got)
	}
}

func TestPrepend(t *testing.T) {
	got := Prepend(list("/usr/bin"), "/a", "/b")
	if got != list("/a", "/b", "/usr/bin") {
		t.Errorf("Prepend() = %q", got)
	}

	if got := Prepend("", "/a"); got != "/a" {
		t.Errorf("Prepend() on empty PATH = %q", got)
	}
}

func TestLookPath(t *testing.T) {
	if runtime.GOOS == constants.OSWindows {
		t.Skip("executable bits are Unix-only")
	}

	dir := t.TempDir()
	exe := filepath.Join(dir, "yarn")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plain"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	if got, ok := LookPath("yarn", list("/nonexistent", dir)); !ok || got != exe {
		t.Errorf("LookPath(yarn) = %q, %v", got, ok)
	}
	if _, ok := LookPath("plain", dir); ok {
		t.Error("LookPath() should skip files that are not executable")
	}
	if _, ok := LookPath("yarn", "/nonexistent"); ok {
		t.Error("LookPath() found yarn on an unrelated PATH")
	}
}
