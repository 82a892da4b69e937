package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/tool"
)

func TestArchiveMatches(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		version string
		want    bool
	}{
		{"node tarball", "node-v18.16.0-linux-x64.tar.gz", "18.16.0", true},
		{"node sidecar", "node-v18.16.0-npm", "18.16.0", true},
		{"package tarball", "yarn-1.22.19.tgz", "1.22.19", true},
		{"longer patch", "yarn-1.22.190.tgz", "1.22.19", false},
		{"longer minor", "node-v18.16.0-linux-x64.tar.gz", "8.16.0", false},
		{"other version", "node-v20.0.0-linux-x64.tar.gz", "18.16.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := archiveMatches(tt.file, tt.version); got != tt.want {
				t.Errorf("archiveMatches(%q, %q) = %v, want %v", tt.file, tt.version, got, tt.want)
			}
		})
	}
}

func TestParseTools(t *testing.T) {
	reqs, err := parseTools([]string{"yarn@1.22", "node@18"}, false)
	if err != nil {
		t.Fatalf("parseTools() error: %v", err)
	}
	if len(reqs) != 2 || reqs[0].Kind != tool.Yarn || reqs[1].Kind != tool.Node {
		t.Errorf("parseTools() = %v", reqs)
	}

	ordered := nodeFirst(reqs)
	if ordered[0].Kind != tool.Node || ordered[1].Kind != tool.Yarn {
		t.Errorf("nodeFirst() = %v", ordered)
	}

	if _, err := parseTools([]string{"typescript"}, false); errs.KindOf(err) != errs.Configuration {
		t.Errorf("parseTools(package) error = %v, want Configuration", err)
	}
	reqs, err = parseTools([]string{"@vue/cli@5"}, true)
	if err != nil {
		t.Fatalf("parseTools(package) error: %v", err)
	}
	if reqs[0].Kind != tool.Package || reqs[0].Name != "@vue/cli" {
		t.Errorf("parseTools(@vue/cli@5) = %+v", reqs[0])
	}
}

func TestSetDefault(t *testing.T) {
	paths := config.NewPaths(t.TempDir())

	if err := setDefault(paths, tool.NewSpec(tool.Node, semver.MustParse("18.16.0"))); err != nil {
		t.Fatal(err)
	}
	if err := setDefault(paths, tool.NewSpec(tool.Yarn, semver.MustParse("1.22.19"))); err != nil {
		t.Fatal(err)
	}

	def, err := platform.LoadDefault(paths)
	if err != nil {
		t.Fatal(err)
	}
	if def.Node.String() != "18.16.0" || def.Yarn.String() != "1.22.19" || def.Npm != nil {
		t.Errorf("default = %s", def)
	}
}

func TestRemoveToolVersion(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	image := paths.ImageDir("node", "18.16.0")
	if err := os.MkdirAll(filepath.Join(image, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	inv := paths.InventoryDir("node")
	if err := os.MkdirAll(inv, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"node-v18.16.0-linux-x64.tar.gz", "node-v18.16.0-npm", "node-v20.0.0-linux-x64.tar.gz"} {
		if err := os.WriteFile(filepath.Join(inv, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := removeToolVersion(context.Background(), paths, tool.Node, semver.MustParse("18.16.0")); err != nil {
		t.Fatalf("removeToolVersion() error: %v", err)
	}
	if _, err := os.Stat(image); !os.IsNotExist(err) {
		t.Error("image should be removed")
	}
	entries, _ := os.ReadDir(inv)
	if len(entries) != 1 || entries[0].Name() != "node-v20.0.0-linux-x64.tar.gz" {
		t.Errorf("inventory left = %v", entries)
	}

	err := removeToolVersion(context.Background(), paths, tool.Node, semver.MustParse("18.16.0"))
	if !errs.IsVersionNotFound(err) {
		t.Errorf("second removeToolVersion() error = %v, want VersionNotFound", err)
	}
}

func TestNewToolchainIn_ResolveExact(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"jsvm":{"node":"20.1.0"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	tc, err := newToolchainIn(paths, dir)
	if err != nil {
		t.Fatalf("newToolchainIn() error: %v", err)
	}
	if tc.project == nil || tc.project.Pin.Node.String() != "20.1.0" {
		t.Fatalf("project = %v", tc.project)
	}

	req, err := tool.ParseRequirement("npm@9.6.7")
	if err != nil {
		t.Fatal(err)
	}
	spec, err := tc.resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	if spec.Kind != tool.Npm || spec.Version.String() != "9.6.7" {
		t.Errorf("resolve() = %s", spec)
	}
}

func TestVersionUsage(t *testing.T) {
	def := &platform.Spec{Node: semver.MustParse("20.0.0")}
	pinned := &platform.Spec{Node: semver.MustParse("20.0.0"), Yarn: semver.MustParse("1.22.19")}

	tests := []struct {
		kind    tool.Kind
		version string
		want    int
	}{
		{tool.Node, "20.0.0", 2},
		{tool.Node, "18.0.0", 0},
		{tool.Yarn, "1.22.19", 1},
		{tool.Npm, "9.0.0", 0},
	}
	for _, tt := range tests {
		got := versionUsage(tt.kind, semver.MustParse(tt.version), def, pinned)
		if len(got) != tt.want {
			t.Errorf("versionUsage(%s, %s) = %v", tt.kind, tt.version, got)
		}
	}
}
