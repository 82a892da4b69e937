package registry

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// Resolve turns a requirement into a concrete tool version. Exact versions
// never touch the network.
func Resolve(ctx context.Context, src Source, req tool.Requirement) (tool.Spec, error) {
	if req.Version.Kind() == tool.SpecExact {
		return newSpec(req, req.Version.ExactVersion()), nil
	}

	index, err := src.Index(ctx, req.Kind, req.Name)
	if err != nil {
		return tool.Spec{}, err
	}

	v, err := index.Resolve(req.Kind, req.Name, req.Version, NodePlatformKey())
	if err != nil {
		return tool.Spec{}, err
	}

	ui.Debug("Resolved %s to %s", req, v)
	return newSpec(req, v), nil
}

func newSpec(req tool.Requirement, v *semver.Version) tool.Spec {
	if req.Kind == tool.Package {
		return tool.NewPackageSpec(req.Name, v)
	}
	return tool.NewSpec(req.Kind, v)
}
