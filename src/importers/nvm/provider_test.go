package nvm

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jsvm/jsvm/src/internal/importer"
)

func TestProvider(t *testing.T) {
	harness := &importer.ProviderTestHarness{
		Provider:     NewProviderWithHome(t.TempDir()),
		ExpectedName: "nvm",
	}
	harness.RunAll(t)
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0755); err != nil {
		t.Fatal(err)
	}
}

func TestProvider_DetectVersions(t *testing.T) {
	t.Setenv("NVM_DIR", "")
	t.Setenv("NVM_HOME", "")
	home := t.TempDir()
	versions := filepath.Join(home, ".nvm", "versions", "node")
	touch(t, filepath.Join(versions, "v20.11.1", "bin", "node"))
	touch(t, filepath.Join(versions, "v18.19.0", "bin", "node"))
	// half-installed version without a node binary
	if err := os.MkdirAll(filepath.Join(versions, "v16.0.0", "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(versions, "not-a-version", "bin", "node"))

	p := NewProviderWithHome(home)
	if !p.IsPresent() {
		t.Fatal("IsPresent() = false")
	}

	detected, err := p.DetectVersions()
	if err != nil {
		t.Fatalf("DetectVersions() error: %v", err)
	}
	got := make(map[string]bool)
	for _, v := range detected {
		got[v.Version.String()] = true
		if v.Source != "nvm" {
			t.Errorf("Source = %q", v.Source)
		}
	}
	if len(got) != 2 || !got["20.11.1"] || !got["18.19.0"] {
		t.Errorf("DetectVersions() = %v, want 20.11.1 and 18.19.0", detected)
	}
}

func TestProvider_NvmDirOverride(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("NVM_DIR is used by nvm on Unix")
	}
	dir := t.TempDir()
	t.Setenv("NVM_DIR", dir)
	touch(t, filepath.Join(dir, "versions", "node", "v22.1.0", "bin", "node"))

	detected, err := NewProviderWithHome(t.TempDir()).DetectVersions()
	if err != nil {
		t.Fatal(err)
	}
	if len(detected) != 1 || detected[0].Version.String() != "22.1.0" {
		t.Errorf("DetectVersions() = %v", detected)
	}
}

func TestProvider_UninstallCommand(t *testing.T) {
	p := NewProviderWithHome("")

	tests := []struct {
		version  string
		expected string
	}{
		{version: "22.0.0", expected: "nvm uninstall 22.0.0"},
		{version: "18.16.0", expected: "nvm uninstall 18.16.0"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := p.UninstallCommand(tt.version); got != tt.expected {
				t.Errorf("UninstallCommand(%q) = %q, want %q", tt.version, got, tt.expected)
			}
		})
	}

	if !strings.Contains(p.ManualInstructions(), "nvm") {
		t.Error("ManualInstructions() should mention nvm")
	}
}
