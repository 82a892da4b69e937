package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/tool"
)

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func TestContains(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	inv := New(paths)

	spec := tool.NewSpec(tool.Node, semver.MustParse("18.16.0"))
	if inv.Contains(spec) {
		t.Error("Contains() = true before the image exists")
	}

	mkdir(t, paths.ImageDir("node", "18.16.0"))
	if !inv.Contains(spec) {
		t.Error("Contains() = false after the image exists")
	}

	pkg := tool.NewPackageSpec("@vue/cli", semver.MustParse("5.0.8"))
	mkdir(t, paths.PackageImageDir("@vue/cli"))
	if !inv.Contains(pkg) {
		t.Error("Contains() = false for an installed package")
	}
}

func TestVersions(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	for _, v := range []string{"16.20.0", "18.16.0", "18.2.0"} {
		mkdir(t, paths.ImageDir("node", v))
	}
	// Staging leftovers and junk are not versions
	mkdir(t, filepath.Join(paths.ImageRoot("node"), ".18.17.0.migrating"))
	mkdir(t, filepath.Join(paths.ImageRoot("node"), "not-a-version"))

	inv := New(paths)
	got := inv.Versions(tool.Node)
	want := []string{"18.16.0", "18.2.0", "16.20.0"}
	if len(got) != len(want) {
		t.Fatalf("Versions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("Versions()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	inv.Add(tool.NewSpec(tool.Node, semver.MustParse("20.0.0")))
	if latest := inv.Versions(tool.Node)[0]; latest.String() != "20.0.0" {
		t.Errorf("after Add() newest = %s, want 20.0.0", latest)
	}

	inv.Remove(tool.NewSpec(tool.Node, semver.MustParse("20.0.0")))
	if latest := inv.Versions(tool.Node)[0]; latest.String() != "18.16.0" {
		t.Errorf("after Remove() newest = %s, want 18.16.0", latest)
	}
}

func TestLatest(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	for _, v := range []string{"1.22.4", "1.22.19", "3.6.0"} {
		mkdir(t, paths.ImageDir("yarn", v))
	}
	inv := New(paths)

	spec, _ := tool.ParseVersionSpec("1")
	if got := inv.Latest(tool.Yarn, spec); got == nil || got.String() != "1.22.19" {
		t.Errorf("Latest(yarn, 1) = %v, want 1.22.19", got)
	}

	spec, _ = tool.ParseVersionSpec("2")
	if got := inv.Latest(tool.Yarn, spec); got != nil {
		t.Errorf("Latest(yarn, 2) = %v, want nil", got)
	}
}

func TestPackages(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	for _, name := range []string{"typescript", "@vue/cli"} {
		file := paths.PackageConfigFile(name)
		mkdir(t, filepath.Dir(file))
		if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got := New(paths).Packages()
	if len(got) != 2 || got[0] != "@vue/cli" || got[1] != "typescript" {
		t.Errorf("Packages() = %v", got)
	}
}
