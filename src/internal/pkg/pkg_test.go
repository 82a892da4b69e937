package pkg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/image"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/tool"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		manager tool.Kind
		args    []string
		want    *Intercept
	}{
		{"npm install -g", tool.Npm, []string{"install", "-g", "typescript"},
			&Intercept{Action: Install, Manager: tool.Npm, Packages: []string{"typescript"}}},
		{"npm i --global with registry", tool.Npm, []string{"--registry", "https://r.example.com", "i", "--global", "a", "b@2"},
			&Intercept{Action: Install, Manager: tool.Npm, Packages: []string{"a", "b@2"}}},
		{"npm rm --location=global", tool.Npm, []string{"rm", "--location=global", "a"},
			&Intercept{Action: Uninstall, Manager: tool.Npm, Packages: []string{"a"}}},
		{"npm update -g all", tool.Npm, []string{"update", "-g"},
			&Intercept{Action: Upgrade, Manager: tool.Npm, Packages: []string{}}},
		{"npm install local", tool.Npm, []string{"install", "typescript"}, nil},
		{"npm install -g cwd", tool.Npm, []string{"install", "-g"}, nil},
		{"npm ls -g", tool.Npm, []string{"ls", "-g"}, nil},
		{"yarn global add", tool.Yarn, []string{"global", "add", "@vue/cli"},
			&Intercept{Action: Install, Manager: tool.Yarn, Packages: []string{"@vue/cli"}}},
		{"yarn global remove", tool.Yarn, []string{"global", "remove", "x"},
			&Intercept{Action: Uninstall, Manager: tool.Yarn, Packages: []string{"x"}}},
		{"yarn global list", tool.Yarn, []string{"global", "list"}, nil},
		{"yarn add", tool.Yarn, []string{"add", "x"}, nil},
		{"pnpm add -g", tool.Pnpm, []string{"add", "-g", "x"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.manager, tt.args)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Detect(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestPackageName(t *testing.T) {
	tests := map[string]string{
		"typescript":          "typescript",
		"typescript@5.1.3":    "typescript",
		"@vue/cli":            "@vue/cli",
		"@vue/cli@latest":     "@vue/cli",
		"./local-pkg":         "",
		"https://x.com/a.tgz": "",
		"github:user/repo":    "",
		"@scope":              "",
	}
	for in, want := range tests {
		if got := PackageName(in); got != want {
			t.Errorf("PackageName(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeShims struct {
	created map[string]bool
}

func (f *fakeShims) CreateShim(name string) error {
	f.created[name] = true
	return nil
}

func (f *fakeShims) RemoveShim(name string) error {
	delete(f.created, name)
	return nil
}

type fakePackage struct {
	name    string
	version string
	bins    map[string]string
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

// fakeNpm lays out what `npm install --global --prefix <dir>` would create
func fakeNpm(t *testing.T, pkgs map[string]fakePackage) func(cmd *exec.Cmd) error {
	return func(cmd *exec.Cmd) error {
		var prefix, spec string
		for i, a := range cmd.Args {
			if a == "--prefix" {
				prefix = cmd.Args[i+1]
			}
		}
		spec = cmd.Args[len(cmd.Args)-1]
		p := pkgs[PackageName(spec)]

		dir := filepath.Join(prefix, "lib", "node_modules", filepath.FromSlash(p.name))
		bin := `{"name":"` + p.name + `","version":"` + p.version + `","bin":{`
		first := true
		for name, script := range p.bins {
			if !first {
				bin += ","
			}
			first = false
			bin += `"` + name + `":"` + script + `"`
			writeFile(t, filepath.Join(dir, script), "#!/usr/bin/env node\n", 0755)
			if err := os.MkdirAll(filepath.Join(prefix, "bin"), 0755); err != nil {
				return err
			}
			target := filepath.Join("..", "lib", "node_modules", p.name, script)
			if err := os.Symlink(target, filepath.Join(prefix, "bin", name)); err != nil {
				return err
			}
		}
		writeFile(t, filepath.Join(dir, "package.json"), bin+"}}", 0644)
		return nil
	}
}

func newTestInstaller(t *testing.T, pkgs map[string]fakePackage) (*Installer, *image.Image, *fakeShims, *config.Paths) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake npm layout is Unix-only")
	}

	paths := config.NewPaths(t.TempDir())
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	binDir := paths.NodeBinDir("18.16.0")
	writeFile(t, filepath.Join(binDir, "node"), "#!/bin/sh\n", 0755)
	writeFile(t, filepath.Join(binDir, "npm"), "#!/bin/sh\n", 0755)

	img, err := image.Checkout(paths, &platform.Platform{Spec: platform.Spec{Node: semver.MustParse("18.16.0")}})
	if err != nil {
		t.Fatal(err)
	}

	shims := &fakeShims{created: map[string]bool{}}
	in := NewInstaller(paths, shims)
	in.run = fakeNpm(t, pkgs)
	return in, img, shims, paths
}

func TestInstall(t *testing.T) {
	in, img, shims, paths := newTestInstaller(t, map[string]fakePackage{
		"typescript": {name: "typescript", version: "5.1.3", bins: map[string]string{"tsc": "bin/tsc", "tsserver": "bin/tsserver"}},
	})

	if err := in.Install(context.Background(), img, tool.Npm, "typescript@5"); err != nil {
		t.Fatalf("Install() error: %v", err)
	}

	pkgCfg, err := LoadPackageConfig(paths, "typescript")
	if err != nil || pkgCfg == nil {
		t.Fatalf("LoadPackageConfig() = %v, %v", pkgCfg, err)
	}
	if pkgCfg.Version != "5.1.3" || pkgCfg.Platform.Node.String() != "18.16.0" {
		t.Errorf("package config = %+v", pkgCfg)
	}
	if !reflect.DeepEqual(pkgCfg.Bins, []string{"tsc", "tsserver"}) {
		t.Errorf("Bins = %v", pkgCfg.Bins)
	}

	binCfg, err := LoadBinConfig(paths, "tsc")
	if err != nil || binCfg == nil {
		t.Fatalf("LoadBinConfig() = %v, %v", binCfg, err)
	}
	if binCfg.Package != "typescript" || binCfg.Manager != "npm" {
		t.Errorf("bin config = %+v", binCfg)
	}
	if binCfg.Loader == nil {
		t.Fatal("expected a node loader for a node script")
	}
	script := binCfg.ScriptArgs(paths)[0]
	if _, err := os.Stat(script); err != nil {
		t.Errorf("loader script %s missing: %v", script, err)
	}
	if exe, ok := binCfg.Executable(paths); !ok || filepath.Base(exe) != "tsc" {
		t.Errorf("Executable() = %q, %v", exe, ok)
	}

	if !shims.created["tsc"] || !shims.created["tsserver"] {
		t.Errorf("shims = %v", shims.created)
	}

	entries, _ := os.ReadDir(paths.Tmp)
	if len(entries) != 0 {
		t.Errorf("staging left behind: %v", entries)
	}
}

func TestInstall_Conflict(t *testing.T) {
	in, img, _, paths := newTestInstaller(t, map[string]fakePackage{
		"other-ts": {name: "other-ts", version: "1.0.0", bins: map[string]string{"tsc": "cli.js"}},
	})
	owner := &BinConfig{Name: "tsc", Package: "typescript", Version: "5.1.3"}
	if err := owner.Save(paths); err != nil {
		t.Fatal(err)
	}

	err := in.Install(context.Background(), img, tool.Npm, "other-ts")
	if errs.KindOf(err) != errs.Configuration {
		t.Fatalf("Install() error = %v, want Configuration", err)
	}
	if _, err := os.Stat(paths.PackageImageDir("other-ts")); !os.IsNotExist(err) {
		t.Error("conflicting package should not be moved into place")
	}
}

func TestInstall_ScopedAndUninstall(t *testing.T) {
	in, img, shims, paths := newTestInstaller(t, map[string]fakePackage{
		"@vue/cli": {name: "@vue/cli", version: "5.0.8", bins: map[string]string{"vue": "bin/vue.js"}},
	})
	ctx := context.Background()

	if err := in.Install(ctx, img, tool.Npm, "@vue/cli"); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if _, err := os.Stat(paths.PackageImageDir("@vue/cli")); err != nil {
		t.Fatalf("package image missing: %v", err)
	}

	if err := in.Uninstall(ctx, "@vue/cli"); err != nil {
		t.Fatalf("Uninstall() error: %v", err)
	}
	if shims.created["vue"] {
		t.Error("vue shim should be removed")
	}
	for _, p := range []string{paths.PackageImageDir("@vue/cli"), paths.PackageConfigFile("@vue/cli"), paths.BinConfigFile("vue")} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", p)
		}
	}

	// uninstalling again only warns
	if err := in.Uninstall(ctx, "@vue/cli"); err != nil {
		t.Errorf("second Uninstall() error: %v", err)
	}
}

func TestInstall_UpgradeDropsStaleBins(t *testing.T) {
	pkgs := map[string]fakePackage{
		"tool": {name: "tool", version: "1.0.0", bins: map[string]string{"tool": "a.js", "tool-old": "b.js"}},
	}
	in, img, shims, paths := newTestInstaller(t, pkgs)
	ctx := context.Background()

	if err := in.Install(ctx, img, tool.Npm, "tool@1"); err != nil {
		t.Fatal(err)
	}
	pkgs["tool"] = fakePackage{name: "tool", version: "2.0.0", bins: map[string]string{"tool": "a.js"}}

	if err := in.Run(ctx, img, &Intercept{Action: Upgrade, Manager: tool.Npm}); err != nil {
		t.Fatalf("Run(upgrade) error: %v", err)
	}

	cfg, _ := LoadPackageConfig(paths, "tool")
	if cfg.Version != "2.0.0" {
		t.Errorf("Version = %s, want 2.0.0", cfg.Version)
	}
	if shims.created["tool-old"] {
		t.Error("stale bin shim should be removed")
	}
	if bc, _ := LoadBinConfig(paths, "tool-old"); bc != nil {
		t.Error("stale bin config should be removed")
	}

	var names []string
	for n := range shims.created {
		names = append(names, n)
	}
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"tool"}) {
		t.Errorf("shims = %v", names)
	}
}
