package registry

import (
	"context"
	"net/url"
	"strings"

	"github.com/jsvm/jsvm/src/internal/tool"
)

// Source retrieves version indexes from a backend.
type Source interface {
	// Index returns the published versions of a tool. name is the package
	// name for tool.Package and ignored otherwise.
	Index(ctx context.Context, kind tool.Kind, name string) (*Index, error)
}

// Public index locations.
const (
	DefaultNodeIndexURL = "https://nodejs.org/dist/index.json"
	DefaultRegistryURL  = "https://registry.npmjs.org"
)

// yarnBerryPackage publishes Yarn 2 and later.
const yarnBerryPackage = "@yarnpkg/cli-dist"

// PackageName returns the npm registry package that publishes a tool.
func PackageName(kind tool.Kind, name string) string {
	switch kind {
	case tool.Npm:
		return "npm"
	case tool.Pnpm:
		return "pnpm"
	case tool.Yarn:
		return "yarn"
	}
	return name
}

// packageURL returns the registry metadata URL of a package. Scoped names
// keep their "@" but escape the slash, as the npm registry expects.
func packageURL(base, name string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.Replace(url.PathEscape(name), "%40", "@", 1)
}

// cacheKey names the on-disk cache entry for an index.
func cacheKey(kind tool.Kind, name string) string {
	if kind == tool.Package {
		return strings.ReplaceAll(name, "/", "__")
	}
	return kind.String()
}
