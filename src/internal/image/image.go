// Package image turns a fetched platform into the bin directories and PATH
// a tool runs with.
package image

import (
	"os"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/fetch"
	"github.com/jsvm/jsvm/src/internal/path"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// Image is a platform whose every tool is unpacked on disk.
type Image struct {
	Platform *platform.Platform
	// Bins are ordered npm, pnpm, yarn, node. Pinned package managers come
	// first so they shadow the npm and npx bundled in Node's bin directory.
	Bins []string

	paths *config.Paths
}

// Checkout builds the image of a platform. Every version must already
// be fetched.
func Checkout(paths *config.Paths, p *platform.Platform) (*Image, error) {
	if p == nil || p.Node == nil {
		return nil, errs.New(errs.NoPlatform, "no Node version is available")
	}

	img := &Image{Platform: p, paths: paths}
	var nodeDir string
	for _, spec := range p.Tools() {
		dir := binDir(paths, spec)
		if _, err := os.Stat(dir); err != nil {
			return nil, errs.Wrap(errs.FileSystem, err, "%s is not fetched", spec)
		}
		if spec.Kind == tool.Node {
			nodeDir = dir
			continue
		}
		img.Bins = append(img.Bins, dir)
	}
	img.Bins = append(img.Bins, nodeDir)
	return img, nil
}

func binDir(paths *config.Paths, spec tool.Spec) string {
	if spec.Kind == tool.Node {
		return paths.NodeBinDir(spec.Version.String())
	}
	return paths.ToolBinDir(spec.Kind.String(), spec.Version.String())
}

// Path returns PATH with jsvm's own directories removed and the image's
// bin directories in front.
func (img *Image) Path() string {
	return img.PathFrom(os.Getenv("PATH"))
}

// PathFrom is Path for an explicit base PATH value.
func (img *Image) PathFrom(base string) string {
	return path.Prepend(path.Strip(base, img.paths.OwnDirs()...), img.Bins...)
}

// NodeVersion returns the image's Node version.
func (img *Image) NodeVersion() string {
	return img.Platform.Node.String()
}

// NpmVersion returns the pinned npm, or the npm bundled with Node.
func (img *Image) NpmVersion() (string, error) {
	if img.Platform.Npm != nil {
		return img.Platform.Npm.String(), nil
	}
	return fetch.BundledNpm(img.paths, img.NodeVersion())
}

// SystemPath returns PATH with jsvm's own directories removed.
func SystemPath(paths *config.Paths) string {
	return path.Strip(os.Getenv("PATH"), paths.OwnDirs()...)
}
