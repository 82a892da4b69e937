package fnm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsvm/jsvm/src/internal/importer"
)

func TestProvider(t *testing.T) {
	t.Setenv("FNM_DIR", "")
	harness := &importer.ProviderTestHarness{
		Provider:     NewProviderWithHome(t.TempDir()),
		ExpectedName: "fnm",
	}
	harness.RunAll(t)
}

func TestProvider_DetectVersions(t *testing.T) {
	t.Setenv("FNM_DIR", "")
	home := t.TempDir()
	root := filepath.Join(home, ".local", "share", "fnm", "node-versions")

	node := filepath.Join(root, "v20.11.1", "installation", "bin", "node")
	if err := os.MkdirAll(filepath.Dir(node), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(node, nil, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "v18.0.0"), 0755); err != nil {
		t.Fatal(err)
	}

	p := NewProviderWithHome(home)
	if !p.IsPresent() {
		t.Fatal("IsPresent() = false")
	}
	detected, err := p.DetectVersions()
	if err != nil {
		t.Fatalf("DetectVersions() error: %v", err)
	}
	if len(detected) != 1 || detected[0].Version.String() != "20.11.1" || detected[0].Path != node {
		t.Errorf("DetectVersions() = %v", detected)
	}
}

func TestProvider_UninstallCommand(t *testing.T) {
	p := NewProviderWithHome("")

	tests := []struct {
		version  string
		expected string
	}{
		{version: "22.0.0", expected: "fnm uninstall 22.0.0"},
		{version: "18.16.0", expected: "fnm uninstall 18.16.0"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := p.UninstallCommand(tt.version); got != tt.expected {
				t.Errorf("UninstallCommand(%q) = %q, want %q", tt.version, got, tt.expected)
			}
		})
	}
}
