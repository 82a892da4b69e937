package registry

import (
	"context"
	"net/http"
	"time"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/download"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// DefaultHTTPTimeout is the default timeout for index requests.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPSource fetches indexes from nodejs.org and the npm registry, or from
// the locations named by index hooks.
type HTTPSource struct {
	hooks       *config.Hooks
	nodeURL     string
	registryURL string
	httpClient  *http.Client
}

// NewHTTPSource creates a Source for the public indexes, honoring hooks.
func NewHTTPSource(hooks *config.Hooks) *HTTPSource {
	return NewHTTPSourceWithClient(hooks, DefaultNodeIndexURL, DefaultRegistryURL, &http.Client{
		Timeout: DefaultHTTPTimeout,
	})
}

// NewHTTPSourceWithClient creates an HTTPSource with custom endpoints and client.
// This is useful for testing or custom timeout/transport configuration.
func NewHTTPSourceWithClient(hooks *config.Hooks, nodeURL, registryURL string, client *http.Client) *HTTPSource {
	return &HTTPSource{
		hooks:       hooks,
		nodeURL:     nodeURL,
		registryURL: registryURL,
		httpClient:  client,
	}
}

// Index fetches and parses the index for a tool.
func (s *HTTPSource) Index(ctx context.Context, kind tool.Kind, name string) (*Index, error) {
	url, err := s.indexURL(ctx, kind, name)
	if err != nil {
		return nil, err
	}

	index, err := s.fetch(ctx, kind, url)
	if err != nil {
		return nil, err
	}

	// Yarn 2+ is published under a separate package
	if kind == tool.Yarn && s.hooks.For(tool.Yarn).Index == nil {
		berry, err := s.fetch(ctx, tool.Package, packageURL(s.registryURL, yarnBerryPackage))
		if err != nil {
			ui.Debug("Could not read %s index: %v", yarnBerryPackage, err)
		} else {
			index.Merge(berry)
		}
	}

	return index, nil
}

func (s *HTTPSource) indexURL(ctx context.Context, kind tool.Kind, name string) (string, error) {
	if kind != tool.Package {
		if hook := s.hooks.For(kind).Index; hook != nil {
			return hook.Resolve(ctx, config.HookVars{OS: NodeOS(), Arch: NodeArch()})
		}
	}
	if kind == tool.Node {
		return s.nodeURL, nil
	}
	return packageURL(s.registryURL, PackageName(kind, name)), nil
}

func (s *HTTPSource) fetch(ctx context.Context, kind tool.Kind, url string) (*Index, error) {
	ui.Debug("Fetching index %s", url)
	data, err := download.Get(ctx, s.httpClient, url)
	if err != nil {
		if errs.IsVersionNotFound(err) {
			return nil, errs.Wrap(errs.VersionNotFound, err, "no versions are published at %s", url)
		}
		return nil, err
	}

	var index *Index
	if kind == tool.Node {
		index, err = ParseNodeIndex(data)
	} else {
		index, err = ParsePackageMetadata(data)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Network, err, "invalid index at %s", url)
	}
	return index, nil
}
