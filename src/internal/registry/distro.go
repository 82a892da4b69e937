package registry

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// DefaultNodeDistURL is where Node release archives are published.
const DefaultNodeDistURL = "https://nodejs.org/dist"

// NodeOS returns the OS name used in Node's archive names.
func NodeOS() string {
	switch runtime.GOOS {
	case constants.OSWindows:
		return "win"
	case constants.OSDarwin:
		return "darwin"
	}
	return runtime.GOOS
}

// NodeArch returns the architecture name used in Node's archive names.
func NodeArch() string {
	switch runtime.GOARCH {
	case constants.ArchAMD64:
		return "x64"
	case constants.ArchARM64:
		return "arm64"
	case constants.Arch386:
		return "x86"
	case constants.ArchARM:
		return "armv7l"
	}
	return runtime.GOARCH
}

// NodeArchiveExt is .zip on Windows and .tar.gz elsewhere.
func NodeArchiveExt() string {
	if runtime.GOOS == constants.OSWindows {
		return ".zip"
	}
	return ".tar.gz"
}

// NodePlatformKey is the "files" entry of Node's index for this platform.
func NodePlatformKey() string {
	switch runtime.GOOS {
	case constants.OSWindows:
		return fmt.Sprintf("win-%s-zip", NodeArch())
	case constants.OSDarwin:
		return fmt.Sprintf("osx-%s-tar", NodeArch())
	}
	return fmt.Sprintf("%s-%s", NodeOS(), NodeArch())
}

// Distro is where one tool version is downloaded from.
type Distro struct {
	URL      string
	Filename string // default archive name, also the inventory cache name
}

// DistroFor returns the download location of spec, honoring distro hooks.
// Third-party packages are installed by a package manager, not downloaded.
func DistroFor(ctx context.Context, hooks *config.Hooks, spec tool.Spec) (Distro, error) {
	version := spec.Version.String()

	var d Distro
	switch spec.Kind {
	case tool.Node:
		d.Filename = fmt.Sprintf("node-v%s-%s-%s%s", version, NodeOS(), NodeArch(), NodeArchiveExt())
		d.URL = fmt.Sprintf("%s/v%s/%s", DefaultNodeDistURL, version, d.Filename)
	case tool.Npm, tool.Pnpm, tool.Yarn:
		pkg := PackageName(spec.Kind, spec.Name)
		if spec.Kind == tool.Yarn && spec.Version.Major() >= 2 {
			pkg = yarnBerryPackage
		}
		d = packageDistro(pkg, spec.Version)
	default:
		return Distro{}, fmt.Errorf("%s has no distribution archive", spec)
	}

	if hook := hooks.For(spec.Kind).Distro; hook != nil {
		url, err := hook.Resolve(ctx, config.HookVars{
			OS:       NodeOS(),
			Arch:     NodeArch(),
			Version:  version,
			Filename: d.Filename,
		})
		if err != nil {
			return Distro{}, err
		}
		d.URL = url
	}
	return d, nil
}

// packageDistro returns the public tarball of an npm package version:
// <registry>/<name>/-/<basename>-<version>.tgz.
func packageDistro(name string, version *semver.Version) Distro {
	base := name[strings.LastIndex(name, "/")+1:]
	filename := fmt.Sprintf("%s-%s.tgz", base, version)
	return Distro{
		URL:      fmt.Sprintf("%s/%s/-/%s", DefaultRegistryURL, name, filename),
		Filename: filename,
	}
}
