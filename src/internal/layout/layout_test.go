package layout

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
)

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readJSON(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON in %s: %v", path, err)
	}
	return doc
}

func TestDetect(t *testing.T) {
	paths := config.NewPaths(t.TempDir())

	if got := Detect(paths); got != Empty {
		t.Errorf("Detect() on empty root = %v, want empty", got)
	}

	mkfile(t, paths.LayoutMarker(1), "")
	if got := Detect(paths); got != V1 {
		t.Errorf("Detect() = %v, want v1", got)
	}

	mkfile(t, paths.LayoutMarker(3), "")
	if got := Detect(paths); got != V3 {
		t.Errorf("Detect() = %v, want v3", got)
	}
}

func TestMigrate_EmptyRoot(t *testing.T) {
	paths := config.NewPaths(filepath.Join(t.TempDir(), "jsvm"))

	if err := RequireCurrent(paths); errs.KindOf(err) != errs.Migration {
		t.Errorf("RequireCurrent() on empty root = %v, want migration error", err)
	}

	if err := Migrate(context.Background(), paths); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	if !IsCurrent(paths) {
		t.Error("root should be current after Migrate()")
	}
	for v := 0; v < int(Current); v++ {
		if exists(paths.LayoutMarker(v)) {
			t.Errorf("old marker layout.v%d should be removed", v)
		}
	}
	for _, dir := range []string{paths.Shims, paths.Bin, paths.Tmp, paths.ImageRoot("pnpm"), paths.InventoryDir("pnpm")} {
		if !exists(dir) {
			t.Errorf("directory %s should exist", dir)
		}
	}
	if err := RequireCurrent(paths); err != nil {
		t.Errorf("RequireCurrent() after Migrate() = %v", err)
	}
}

func TestMigrate_FromV0(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	mkfile(t, paths.LayoutMarker(0), "")

	// Legacy node image nested by bundled npm version
	mkfile(t, filepath.Join(paths.ImageDir("node", "10.11.0"), "6.4.1", "bin", "node"), "node")
	// Already-flat node image must not be touched
	mkfile(t, filepath.Join(paths.ImageDir("node", "12.0.0"), "bin", "node"), "node")
	mkfile(t, paths.DefaultPlatformFile(), `{"node":{"runtime":"10.11.0","npm":"6.4.1"},"yarn":"1.22.4"}`)

	// Legacy package image nested by version, plain and scoped
	mkfile(t, filepath.Join(paths.PackageImageDir("typescript"), "3.9.0", "bin", "tsc"), "tsc")
	mkfile(t, filepath.Join(paths.PackageImageDir("@vue/cli"), "4.5.0", "bin", "vue"), "vue")
	mkfile(t, paths.PackageConfigFile("typescript"),
		`{"name":"typescript","version":"3.9.0","platform":{"node":{"runtime":"10.11.0","npm":"6.4.1"}},"bins":["tsc"]}`)

	mkfile(t, filepath.Join(paths.InventoryDir("node"), "index.json.expires"), "2020")

	if err := Migrate(context.Background(), paths); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	if !exists(filepath.Join(paths.ImageDir("node", "10.11.0"), "bin", "node")) {
		t.Error("node 10.11.0 image should be flattened")
	}
	if !exists(filepath.Join(paths.ImageDir("node", "12.0.0"), "bin", "node")) {
		t.Error("flat node 12.0.0 image should be untouched")
	}
	if data, err := os.ReadFile(paths.NodeNpmSidecar("10.11.0")); err != nil || string(data) != "6.4.1" {
		t.Errorf("npm sidecar = %q, %v; want 6.4.1", data, err)
	}

	platform := readJSON(t, paths.DefaultPlatformFile())
	if platform["node"] != "10.11.0" || platform["npm"] != nil || platform["yarn"] != "1.22.4" {
		t.Errorf("platform.json = %v", platform)
	}

	if !exists(filepath.Join(paths.PackageImageDir("typescript"), "bin", "tsc")) {
		t.Error("typescript image should be flattened")
	}
	if !exists(filepath.Join(paths.PackageImageDir("@vue/cli"), "bin", "vue")) {
		t.Error("scoped package image should be flattened")
	}

	pkg := readJSON(t, paths.PackageConfigFile("typescript"))
	pkgPlatform, _ := pkg["platform"].(map[string]interface{})
	if pkgPlatform["node"] != "10.11.0" {
		t.Errorf("package platform = %v", pkg["platform"])
	}

	if exists(filepath.Join(paths.InventoryDir("node"), "index.json.expires")) {
		t.Error("index.json.expires should be removed")
	}
	if Detect(paths) != Current {
		t.Errorf("Detect() = %v, want %v", Detect(paths), Current)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	mkfile(t, paths.LayoutMarker(0), "")
	mkfile(t, filepath.Join(paths.ImageDir("node", "10.11.0"), "6.4.1", "bin", "node"), "node")

	// Run every step twice; the second run must find nothing to do
	for _, step := range Steps {
		if err := step.Apply(paths); err != nil {
			t.Fatalf("step %v->%v error: %v", step.From, step.To, err)
		}
		if err := step.Apply(paths); err != nil {
			t.Fatalf("repeated step %v->%v error: %v", step.From, step.To, err)
		}
	}

	if !exists(filepath.Join(paths.ImageDir("node", "10.11.0"), "bin", "node")) {
		t.Error("node image should be flattened exactly once")
	}
}

func TestMigrate_ResumesInterruptedFlatten(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	nodeRoot := paths.ImageRoot("node")
	staged := filepath.Join(nodeRoot, stagingName("10.11.0", "6.4.1"))

	// Interrupted after moving the nested image aside
	mkfile(t, filepath.Join(staged, "bin", "node"), "node")
	if err := os.MkdirAll(filepath.Join(nodeRoot, "10.11.0"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := v0ToV1(paths); err != nil {
		t.Fatalf("v0ToV1() error: %v", err)
	}

	if !exists(filepath.Join(paths.ImageDir("node", "10.11.0"), "bin", "node")) {
		t.Error("interrupted flatten should be completed")
	}
	if exists(staged) {
		t.Error("staging dir should be gone")
	}

	data, err := os.ReadFile(paths.NodeNpmSidecar("10.11.0"))
	if err != nil {
		t.Fatalf("resumed flatten should record the bundled npm: %v", err)
	}
	if string(data) != "6.4.1" {
		t.Errorf("sidecar = %q, want 6.4.1", data)
	}
}

func TestParseStagingName(t *testing.T) {
	tests := []struct {
		staged     string
		wantName   string
		wantNested string
	}{
		{stagingName("10.11.0", "6.4.1"), "10.11.0", "6.4.1"},
		{stagingName("typescript", "5.2.2"), "typescript", "5.2.2"},
		{".cli" + stagingSuffix, "cli", ""},
	}

	for _, tt := range tests {
		t.Run(tt.staged, func(t *testing.T) {
			name, nested := parseStagingName(tt.staged)
			if name != tt.wantName || nested != tt.wantNested {
				t.Errorf("parseStagingName(%q) = %q, %q, want %q, %q",
					tt.staged, name, nested, tt.wantName, tt.wantNested)
			}
		})
	}
}

func TestMigrate_CurrentIsNoop(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	mkfile(t, paths.LayoutMarker(int(Current)), "")

	if err := Migrate(context.Background(), paths); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	if exists(paths.LockFile()) {
		t.Error("Migrate() on a current root should not take the lock")
	}
}
