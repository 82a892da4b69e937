package platform

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
)

// LoadDefault reads the user's default platform, nil when none is set.
func LoadDefault(paths *config.Paths) (*Spec, error) {
	file := paths.DefaultPlatformFile()
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not read default platform")
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "could not parse %s", file)
	}
	if spec.IsEmpty() {
		return nil, nil
	}
	return &spec, nil
}

// SaveDefault replaces the user's default platform.
func SaveDefault(paths *config.Paths, spec Spec) error {
	file := paths.DefaultPlatformFile()
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "could not encode default platform")
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create %s", filepath.Dir(file))
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not write default platform")
	}
	if err := os.Rename(tmp, file); err != nil {
		_ = os.Remove(tmp)
		return errs.Wrap(errs.FileSystem, err, "could not write default platform")
	}
	return nil
}
