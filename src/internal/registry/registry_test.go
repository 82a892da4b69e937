package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/tool"
)

const nodeIndexJSON = `[
	{"version":"v21.0.0-rc.1","npm":"10.2.0","lts":false,"files":["linux-x64","osx-arm64-tar","win-x64-zip"]},
	{"version":"v20.9.0","npm":"10.1.0","lts":"Iron","files":["linux-x64","osx-arm64-tar","win-x64-zip"]},
	{"version":"v20.8.1","npm":"10.1.0","lts":false,"files":["linux-x64","osx-arm64-tar","win-x64-zip"]},
	{"version":"v18.18.2","npm":"9.8.1","lts":"Hydrogen","files":["linux-x64","osx-arm64-tar","win-x64-zip"]},
	{"version":"v18.2.0","npm":"8.9.0","lts":false,"files":["linux-x64"]}
]`

const yarnMetadataJSON = `{
	"name":"yarn",
	"dist-tags":{"latest":"1.22.19","next":"1.22.19"},
	"versions":{"1.22.4":{},"1.22.19":{}}
}`

func nodeIndex(t *testing.T) *Index {
	t.Helper()
	index, err := ParseNodeIndex([]byte(nodeIndexJSON))
	if err != nil {
		t.Fatal(err)
	}
	return index
}

func TestIndexResolve_Node(t *testing.T) {
	index := nodeIndex(t)

	tests := []struct {
		spec        string
		platformKey string
		want        string
		wantErr     bool
	}{
		{spec: "", want: "20.9.0"},
		{spec: "lts", want: "20.9.0"},
		{spec: "latest", want: "20.9.0"},
		{spec: "hydrogen", want: "18.18.2"},
		{spec: "18", want: "18.18.2"},
		{spec: "^18.0.0", want: "18.18.2"},
		{spec: "18.2", platformKey: "linux-x64", want: "18.2.0"},
		{spec: "18.2", platformKey: "win-x64-zip", wantErr: true},
		{spec: "16", wantErr: true},
		{spec: "argon", wantErr: true},
		{spec: "12.0.0", want: "12.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.platformKey, func(t *testing.T) {
			spec, err := tool.ParseVersionSpec(tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			v, err := index.Resolve(tool.Node, "node", spec, tt.platformKey)
			if tt.wantErr {
				if !errs.IsVersionNotFound(err) {
					t.Errorf("Resolve(%q) = %v, %v; want version not found", tt.spec, v, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.spec, err)
			}
			if v.String() != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.spec, v, tt.want)
			}
		})
	}
}

func TestIndexResolve_Package(t *testing.T) {
	index, err := ParsePackageMetadata([]byte(yarnMetadataJSON))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		spec string
		want string
	}{
		{"", "1.22.19"},
		{"latest", "1.22.19"},
		{"1.22.4", "1.22.4"},
		{"~1.22.0", "1.22.19"},
	}
	for _, tt := range tests {
		spec, _ := tool.ParseVersionSpec(tt.spec)
		v, err := index.Resolve(tool.Yarn, "yarn", spec, "")
		if err != nil {
			t.Errorf("Resolve(%q) error: %v", tt.spec, err)
			continue
		}
		if v.String() != tt.want {
			t.Errorf("Resolve(%q) = %s, want %s", tt.spec, v, tt.want)
		}
	}

	spec, _ := tool.ParseVersionSpec("beta")
	if _, err := index.Resolve(tool.Yarn, "yarn", spec, ""); !errs.IsVersionNotFound(err) {
		t.Errorf("unknown tag error = %v, want version not found", err)
	}
}

func TestIndexMerge(t *testing.T) {
	index, _ := ParsePackageMetadata([]byte(yarnMetadataJSON))
	berry, _ := ParsePackageMetadata([]byte(`{"dist-tags":{"latest":"4.0.2"},"versions":{"4.0.2":{}}}`))
	index.Merge(berry)

	if index.Tags["latest"] != "4.0.2" {
		t.Errorf("latest = %q, want 4.0.2", index.Tags["latest"])
	}
	if index.Tags["next"] != "1.22.19" {
		t.Errorf("next = %q, want 1.22.19", index.Tags["next"])
	}
	if len(index.Versions()) != 3 {
		t.Errorf("Versions() = %v", index.Versions())
	}
}

func newTestSource(t *testing.T, hooks *config.Hooks) *HTTPSource {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/node/index.json":
			_, _ = w.Write([]byte(nodeIndexJSON))
		case "/registry/yarn":
			_, _ = w.Write([]byte(yarnMetadataJSON))
		case "/registry/@vue/cli":
			_, _ = w.Write([]byte(`{"dist-tags":{"latest":"5.0.8"},"versions":{"5.0.8":{}}}`))
		case "/registry/broken":
			_, _ = w.Write([]byte("not json"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	return NewHTTPSourceWithClient(hooks, server.URL+"/node/index.json", server.URL+"/registry", server.Client())
}

func TestHTTPSource(t *testing.T) {
	source := newTestSource(t, nil)
	ctx := context.Background()

	t.Run("node index", func(t *testing.T) {
		index, err := source.Index(ctx, tool.Node, "node")
		if err != nil {
			t.Fatalf("Index() error: %v", err)
		}
		if len(index.Entries) != 5 || index.Entries[1].LTS != "iron" || index.Entries[1].Npm != "10.1.0" {
			t.Errorf("Index() = %+v", index.Entries)
		}
	})

	t.Run("yarn merges berry when available", func(t *testing.T) {
		index, err := source.Index(ctx, tool.Yarn, "yarn")
		if err != nil {
			t.Fatalf("Index() error: %v", err)
		}
		if index.Tags["latest"] != "1.22.19" {
			t.Errorf("latest = %q", index.Tags["latest"])
		}
	})

	t.Run("scoped package", func(t *testing.T) {
		index, err := source.Index(ctx, tool.Package, "@vue/cli")
		if err != nil {
			t.Fatalf("Index() error: %v", err)
		}
		if index.Tags["latest"] != "5.0.8" {
			t.Errorf("latest = %q", index.Tags["latest"])
		}
	})

	t.Run("unknown package", func(t *testing.T) {
		_, err := source.Index(ctx, tool.Package, "no-such-package")
		if !errs.IsVersionNotFound(err) {
			t.Errorf("Index() = %v, want version not found", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := source.Index(ctx, tool.Package, "broken")
		if err == nil || errs.IsVersionNotFound(err) {
			t.Errorf("Index() = %v, want parse error", err)
		}
	})
}

func TestHTTPSource_IndexHook(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	source := newTestSource(t, nil)

	// The default node index is unreachable; only the hook finds the index
	if err := os.MkdirAll(paths.User, 0755); err != nil {
		t.Fatal(err)
	}
	content := "[node.index]\ntemplate = \"" + source.nodeURL + "\"\n"
	if err := os.WriteFile(paths.HooksFile(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	hooks, err := config.LoadHooks(paths, "")
	if err != nil {
		t.Fatal(err)
	}

	hooked := NewHTTPSourceWithClient(hooks, "http://127.0.0.1:1/unused", source.registryURL, source.httpClient)
	index, err := hooked.Index(context.Background(), tool.Node, "node")
	if err != nil {
		t.Fatalf("Index() with hook error: %v", err)
	}
	if len(index.Entries) != 5 {
		t.Errorf("Index() via hook returned %d entries", len(index.Entries))
	}
}

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Index(ctx context.Context, kind tool.Kind, name string) (*Index, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return ParsePackageMetadata([]byte(yarnMetadataJSON))
}

func TestCachedSource(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	inner := &countingSource{}
	source := NewCachedSource(inner, paths, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := source.Index(ctx, tool.Yarn, "yarn"); err != nil {
			t.Fatalf("Index() error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("underlying source called %d times, want 1", inner.calls)
	}

	if _, err := source.ForceRefresh(ctx, tool.Yarn, "yarn"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("ForceRefresh() should bypass the cache, calls = %d", inner.calls)
	}
}

func TestCachedSource_KeepsParsedIndexInMemory(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	inner := &countingSource{}
	source := NewCachedSource(inner, paths, time.Hour)
	ctx := context.Background()

	first, _ := tool.ParseRequirement("yarn@1.22")
	if _, err := Resolve(ctx, source, first); err != nil {
		t.Fatalf("Resolve(%s) error: %v", first, err)
	}

	// Later lookups in the same process never go back to disk
	if err := os.Remove(source.cachePath(tool.Yarn, "yarn")); err != nil {
		t.Fatal(err)
	}

	second, _ := tool.ParseRequirement("yarn@latest")
	spec, err := Resolve(ctx, source, second)
	if err != nil {
		t.Fatalf("Resolve(%s) error: %v", second, err)
	}
	if spec.Version.String() != "1.22.19" {
		t.Errorf("Resolve(%s) = %s, want 1.22.19", second, spec.Version)
	}
	if inner.calls != 1 {
		t.Errorf("underlying source called %d times, want 1", inner.calls)
	}
	if _, err := os.Stat(source.cachePath(tool.Yarn, "yarn")); !os.IsNotExist(err) {
		t.Error("memory hit should not rewrite the cache file")
	}

	if _, err := source.ForceRefresh(ctx, tool.Yarn, "yarn"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("ForceRefresh() should drop the in-memory index, calls = %d", inner.calls)
	}
}

func TestCachedSource_StaleOnNetworkError(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	inner := &countingSource{}
	ctx := context.Background()

	if _, err := NewCachedSource(inner, paths, time.Hour).Index(ctx, tool.Yarn, "yarn"); err != nil {
		t.Fatal(err)
	}

	// Expired cache plus an offline registry still resolves
	inner.err = errs.Wrap(errs.Network, errors.New("connection refused"), "could not fetch index")
	expired := NewCachedSource(inner, paths, 0)
	index, err := expired.Index(ctx, tool.Yarn, "yarn")
	if err != nil {
		t.Fatalf("Index() with stale cache error: %v", err)
	}
	if index.Tags["latest"] != "1.22.19" {
		t.Errorf("stale index latest = %q", index.Tags["latest"])
	}

	// Other failures are not masked
	inner.err = errs.New(errs.VersionNotFound, "gone")
	if _, err := expired.Index(ctx, tool.Yarn, "yarn"); !errs.IsVersionNotFound(err) {
		t.Errorf("Index() = %v, want version not found", err)
	}
}

func TestResolve_ExactSkipsNetwork(t *testing.T) {
	inner := &countingSource{err: errors.New("offline")}
	req, _ := tool.ParseRequirement("node@18.16.0")

	spec, err := Resolve(context.Background(), inner, req)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if spec.String() != "node@18.16.0" || inner.calls != 0 {
		t.Errorf("Resolve() = %s after %d index calls", spec, inner.calls)
	}
}

func TestDistroFor(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		req      string
		contains string
	}{
		{"node@18.16.0", "https://nodejs.org/dist/v18.16.0/node-v18.16.0-"},
		{"npm@9.6.7", "https://registry.npmjs.org/npm/-/npm-9.6.7.tgz"},
		{"pnpm@8.6.0", "https://registry.npmjs.org/pnpm/-/pnpm-8.6.0.tgz"},
		{"yarn@1.22.19", "https://registry.npmjs.org/yarn/-/yarn-1.22.19.tgz"},
		{"yarn@4.0.2", "https://registry.npmjs.org/@yarnpkg/cli-dist/-/cli-dist-4.0.2.tgz"},
	}

	for _, tt := range tests {
		t.Run(tt.req, func(t *testing.T) {
			req, _ := tool.ParseRequirement(tt.req)
			spec, _ := Resolve(ctx, &countingSource{}, req)
			d, err := DistroFor(ctx, nil, spec)
			if err != nil {
				t.Fatalf("DistroFor() error: %v", err)
			}
			if !strings.HasPrefix(d.URL, tt.contains) {
				t.Errorf("URL = %q, want prefix %q", d.URL, tt.contains)
			}
			if !strings.HasSuffix(d.URL, d.Filename) {
				t.Errorf("URL %q does not end with filename %q", d.URL, d.Filename)
			}
		})
	}
}
