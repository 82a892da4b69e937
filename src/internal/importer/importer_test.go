package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/tool"
)

type mockProvider struct {
	name     string
	present  bool
	versions []string
	err      error
}

func (m *mockProvider) Name() string                     { return m.name }
func (m *mockProvider) DisplayName() string              { return m.name }
func (m *mockProvider) IsPresent() bool                  { return m.present }
func (m *mockProvider) UninstallCommand(v string) string { return m.name + " uninstall " + v }
func (m *mockProvider) ManualInstructions() string       { return "remove it" }
func (m *mockProvider) DetectVersions() ([]DetectedVersion, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]DetectedVersion, 0, len(m.versions))
	for _, v := range m.versions {
		out = append(out, DetectedVersion{Version: semver.MustParse(v), Source: m.name})
	}
	return out, nil
}

type recordingFetcher struct {
	fetched []string
	failOn  string
}

func (f *recordingFetcher) EnsureFetched(ctx context.Context, spec tool.Spec) error {
	if spec.Version.String() == f.failOn {
		return errors.New("boom")
	}
	f.fetched = append(f.fetched, spec.Version.String())
	return nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockProvider{name: "nvm"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&mockProvider{name: "fnm"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&mockProvider{name: "nvm"}); err == nil {
		t.Error("Register() of a duplicate name should fail")
	}

	names := r.List()
	if len(names) != 2 || names[0] != "fnm" || names[1] != "nvm" {
		t.Errorf("List() = %v, want [fnm nvm]", names)
	}
	if _, err := r.Get("volta"); err == nil {
		t.Error("Get() of an unknown provider should fail")
	}
	if all := r.GetAll(); len(all) != 2 || all[0].Name() != "fnm" {
		t.Errorf("GetAll() = %v", all)
	}
}

func TestDetect(t *testing.T) {
	providers := []Provider{
		&mockProvider{name: "nvm", present: true, versions: []string{"16.20.0", "20.11.1"}},
		&mockProvider{name: "fnm", present: true, versions: []string{"20.11.1", "18.19.0"}},
		&mockProvider{name: "absent", versions: []string{"22.0.0"}},
		&mockProvider{name: "broken", present: true, err: errors.New("unreadable")},
	}

	got := Detect(providers)
	want := []string{"20.11.1", "18.19.0", "16.20.0"}
	if len(got) != len(want) {
		t.Fatalf("Detect() = %v, want %v", got, want)
	}
	for i, v := range got {
		if v.Version.String() != want[i] {
			t.Errorf("Detect()[%d] = %s, want %s", i, v.Version, want[i])
		}
	}
	if got[0].Source != "nvm" {
		t.Errorf("duplicate should keep the first provider, got %s", got[0].Source)
	}
}

func TestImport(t *testing.T) {
	versions := []DetectedVersion{
		{Version: semver.MustParse("20.11.1"), Source: "nvm"},
		{Version: semver.MustParse("18.19.0"), Source: "nvm"},
		{Version: semver.MustParse("16.20.0"), Source: "nvm"},
	}

	f := &recordingFetcher{}
	specs, err := Import(context.Background(), f, versions)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(specs) != 3 || specs[0].Kind != tool.Node {
		t.Errorf("Import() = %v", specs)
	}

	f = &recordingFetcher{failOn: "18.19.0"}
	specs, err = Import(context.Background(), f, versions)
	if err == nil {
		t.Fatal("Import() expected error")
	}
	if len(specs) != 1 || len(f.fetched) != 1 {
		t.Errorf("Import() should stop at the first failure, imported %v", specs)
	}
}
