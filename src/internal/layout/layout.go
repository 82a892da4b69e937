// Package layout upgrades a jsvm root to the current on-disk schema.
//
// Each schema version is marked by a layout.v<N> file in the root. Migration
// walks an ordered table of steps from the detected version to Current; every
// step re-derives what is left to do from the filesystem, so an interrupted
// migration can simply be run again.
package layout

import (
	"context"
	"fmt"
	"os"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/lock"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// Version is an on-disk schema version.
type Version int

const (
	// Empty is a root with no marker at all
	Empty Version = iota - 1
	V0
	V1
	V2
	V3
)

// Current is the schema this build reads and writes.
const Current = V3

func (v Version) String() string {
	if v == Empty {
		return "empty"
	}
	return fmt.Sprintf("v%d", int(v))
}

// Step upgrades a root from one version to the next.
type Step struct {
	From  Version
	To    Version
	Apply func(paths *config.Paths) error
}

// Steps is the ordered migration table.
var Steps = []Step{
	{From: Empty, To: V0, Apply: emptyToV0},
	{From: V0, To: V1, Apply: v0ToV1},
	{From: V1, To: V2, Apply: v1ToV2},
	{From: V2, To: V3, Apply: v2ToV3},
}

// Detect returns the highest version marked in the root, Empty when none is.
func Detect(paths *config.Paths) Version {
	for v := Current; v >= V0; v-- {
		if _, err := os.Stat(paths.LayoutMarker(int(v))); err == nil {
			return v
		}
	}
	return Empty
}

// IsCurrent is the single marker check the shim performs on every invocation.
func IsCurrent(paths *config.Paths) bool {
	_, err := os.Stat(paths.LayoutMarker(int(Current)))
	return err == nil
}

// RequireCurrent fails with a migration error when the root is outdated.
func RequireCurrent(paths *config.Paths) error {
	if IsCurrent(paths) {
		return nil
	}
	return errs.New(errs.Migration,
		"jsvm's directory %s uses an older layout (%s); run `jsvm setup` to upgrade it",
		paths.Root, Detect(paths))
}

// Migrate brings the root up to Current while holding the root's lock.
func Migrate(ctx context.Context, paths *config.Paths) error {
	if IsCurrent(paths) {
		return nil
	}

	if err := os.MkdirAll(paths.Root, 0755); err != nil {
		return errs.Wrap(errs.Migration, err, "could not create %s", paths.Root)
	}

	lk, err := lock.Acquire(ctx, paths)
	if err != nil {
		return err
	}
	defer lk.Release()

	return migrateLocked(paths)
}

func migrateLocked(paths *config.Paths) error {
	current := Detect(paths)
	for _, step := range Steps {
		if step.From != current {
			continue
		}

		ui.Debug("Migrating %s from layout %s to %s", paths.Root, step.From, step.To)
		if err := step.Apply(paths); err != nil {
			return errs.Wrap(errs.Migration, err, "could not migrate %s from layout %s to %s",
				paths.Root, step.From, step.To)
		}
		if err := writeMarker(paths, step.To); err != nil {
			return errs.Wrap(errs.Migration, err, "could not record layout %s", step.To)
		}
		if step.From != Empty {
			removeMarker(paths, step.From)
		}
		current = step.To
	}

	if current != Current {
		return errs.New(errs.Migration, "no migration path from layout %s", current)
	}
	return nil
}

func writeMarker(paths *config.Paths, v Version) error {
	f, err := os.Create(paths.LayoutMarker(int(v)))
	if err != nil {
		return err
	}
	return f.Close()
}

func removeMarker(paths *config.Paths, v Version) {
	if err := os.Remove(paths.LayoutMarker(int(v))); err != nil && !os.IsNotExist(err) {
		ui.Debug("Could not remove old layout marker %s: %v", paths.LayoutMarker(int(v)), err)
	}
}
