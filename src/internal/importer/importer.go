package importer

import (
	"context"
	"sort"

	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// Fetcher makes a tool version present in the inventory.
type Fetcher interface {
	EnsureFetched(ctx context.Context, spec tool.Spec) error
}

// Detect runs every present provider and returns the versions found,
// newest first, with duplicates across providers removed.
func Detect(providers []Provider) []DetectedVersion {
	seen := make(map[string]bool)
	var all []DetectedVersion

	for _, p := range providers {
		if !p.IsPresent() {
			continue
		}
		versions, err := p.DetectVersions()
		if err != nil {
			ui.Warning("Could not read %s versions: %v", p.DisplayName(), err)
			continue
		}
		for _, v := range versions {
			key := v.Version.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, v)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Version.GreaterThan(all[j].Version)
	})
	return all
}

// Import fetches a fresh image for every detected version. Images are always
// downloaded again rather than copied, so each one matches the dist archive.
// It returns the specs that were fetched and stops at the first failure.
func Import(ctx context.Context, f Fetcher, versions []DetectedVersion) ([]tool.Spec, error) {
	var imported []tool.Spec
	for _, v := range versions {
		spec := tool.NewSpec(tool.Node, v.Version)
		ui.Progress("Importing %s from %s", spec, v.Source)
		if err := f.EnsureFetched(ctx, spec); err != nil {
			return imported, err
		}
		imported = append(imported, spec)
	}
	return imported, nil
}
