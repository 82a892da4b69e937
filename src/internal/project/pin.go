package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// PinTool records an exact tool version under the "jsvm" key of the
// project manifest. Other keys keep their order and formatting.
func (p *Project) PinTool(spec tool.Spec) error {
	if spec.Kind == tool.Package {
		return errs.New(errs.Configuration, "only node, npm, pnpm and yarn can be pinned")
	}
	if spec.Kind != tool.Node && (p.Pin == nil || p.Pin.Node == nil) {
		return errs.New(errs.Configuration,
			"cannot pin %s because %s does not pin a Node version\nPin Node first with `jsvm pin node`", spec.Kind, p.ManifestFile)
	}

	data, err := os.ReadFile(p.ManifestFile)
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not read %s", p.ManifestFile)
	}

	doc, err := parseObject(data)
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "could not parse %s", p.ManifestFile)
	}

	pin := &object{values: make(map[string]json.RawMessage)}
	if existing, ok := doc.get(PinKey); ok && string(existing) != "null" {
		if pin, err = parseObject(existing); err != nil {
			return errs.Wrap(errs.Configuration, err, "the %q key in %s is not an object", PinKey, p.ManifestFile)
		}
	}

	value, _ := json.Marshal(spec.Version.String())
	pin.set(spec.Kind.String(), value)

	encoded, err := pin.MarshalJSON()
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "could not encode pin")
	}
	doc.set(PinKey, encoded)

	out, err := doc.format(detectIndent(data))
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "could not format %s", p.ManifestFile)
	}
	if err := writeAtomic(p.ManifestFile, out); err != nil {
		return err
	}

	if p.Pin == nil {
		p.Pin = &Pin{}
	}
	p.Pin.set(spec.Kind, spec.Version)
	return nil
}

// Unpin removes a tool from the project's pin
func (p *Project) Unpin(kind tool.Kind) error {
	data, err := os.ReadFile(p.ManifestFile)
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not read %s", p.ManifestFile)
	}
	doc, err := parseObject(data)
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "could not parse %s", p.ManifestFile)
	}

	existing, ok := doc.get(PinKey)
	if !ok || string(existing) == "null" {
		return nil
	}
	pin, err := parseObject(existing)
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "the %q key in %s is not an object", PinKey, p.ManifestFile)
	}
	pin.remove(kind.String())
	if pin.len() == 0 {
		doc.remove(PinKey)
	} else {
		encoded, err := pin.MarshalJSON()
		if err != nil {
			return errs.Wrap(errs.Configuration, err, "could not encode pin")
		}
		doc.set(PinKey, encoded)
	}

	out, err := doc.format(detectIndent(data))
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "could not format %s", p.ManifestFile)
	}
	if err := writeAtomic(p.ManifestFile, out); err != nil {
		return err
	}
	if p.Pin != nil {
		p.Pin.set(kind, nil)
	}
	return nil
}

func writeAtomic(file string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(file); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(file), ".package.json-*")
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not write %s", file)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Wrap(errs.FileSystem, err, "could not write %s", file)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not write %s", file)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not write %s", file)
	}
	if err := os.Rename(tmpName, file); err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not write %s", file)
	}
	return nil
}
