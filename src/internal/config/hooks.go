package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// Hook overrides one URL. Exactly one of Template, Prefix or Bin is set.
type Hook struct {
	Template string
	Prefix   string
	Bin      string

	baseDir string // directory of the hooks file, for relative Bin paths
}

// ToolHooks groups the overrides for a single tool.
type ToolHooks struct {
	Distro *Hook
	Index  *Hook
}

// Hooks holds the merged user and project overrides.
type Hooks struct {
	tools map[tool.Kind]ToolHooks
}

// HookVars are the values a hook can substitute.
type HookVars struct {
	OS       string
	Arch     string
	Version  string
	Filename string
}

type fileHook struct {
	Template string `toml:"template"`
	Prefix   string `toml:"prefix"`
	Bin      string `toml:"bin"`
}

type fileToolHooks struct {
	Distro fileHook `toml:"distro"`
	Index  fileHook `toml:"index"`
}

type fileHooks struct {
	Node fileToolHooks `toml:"node"`
	Npm  fileToolHooks `toml:"npm"`
	Pnpm fileToolHooks `toml:"pnpm"`
	Yarn fileToolHooks `toml:"yarn"`
}

// LoadHooks reads the user hooks file and, when projectRoot is set, the
// project's .jsvm/hooks.toml. Project hooks win over user hooks.
func LoadHooks(paths *Paths, projectRoot string) (*Hooks, error) {
	hooks := &Hooks{tools: make(map[tool.Kind]ToolHooks)}

	files := []string{paths.HooksFile()}
	if projectRoot != "" {
		files = append(files, filepath.Join(projectRoot, ProjectConfigDirName, HooksFileName))
	}

	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		if err := hooks.mergeFile(file); err != nil {
			return nil, err
		}
	}

	return hooks, nil
}

func (h *Hooks) mergeFile(path string) error {
	var raw fileHooks
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return errs.Wrap(errs.Configuration, err, "could not parse hooks file %s", path)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		ui.Warning("Ignoring unknown keys in %s: %v", path, undecoded)
	}

	baseDir := filepath.Dir(path)
	sections := []struct {
		kind tool.Kind
		key  string
		raw  fileToolHooks
	}{
		{tool.Node, "node", raw.Node},
		{tool.Npm, "npm", raw.Npm},
		{tool.Pnpm, "pnpm", raw.Pnpm},
		{tool.Yarn, "yarn", raw.Yarn},
	}

	for _, s := range sections {
		merged := h.tools[s.kind]
		if meta.IsDefined(s.key, "distro") {
			hook, err := buildHook(s.raw.Distro, baseDir, path, s.key+".distro")
			if err != nil {
				return err
			}
			merged.Distro = hook
		}
		if meta.IsDefined(s.key, "index") {
			hook, err := buildHook(s.raw.Index, baseDir, path, s.key+".index")
			if err != nil {
				return err
			}
			merged.Index = hook
		}
		h.tools[s.kind] = merged
	}

	return nil
}

func buildHook(raw fileHook, baseDir, file, section string) (*Hook, error) {
	set := 0
	for _, v := range []string{raw.Template, raw.Prefix, raw.Bin} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errs.New(errs.Configuration,
			"hook [%s] in %s must set exactly one of template, prefix or bin", section, file)
	}

	return &Hook{
		Template: strings.TrimSpace(raw.Template),
		Prefix:   strings.TrimSpace(raw.Prefix),
		Bin:      strings.TrimSpace(raw.Bin),
		baseDir:  baseDir,
	}, nil
}

// For returns the overrides for a tool, empty when none are configured.
func (h *Hooks) For(kind tool.Kind) ToolHooks {
	if h == nil {
		return ToolHooks{}
	}
	return h.tools[kind]
}

// Resolve computes the URL this hook yields for the given values.
func (h *Hook) Resolve(ctx context.Context, vars HookVars) (string, error) {
	switch {
	case h.Template != "":
		r := strings.NewReplacer(
			"{os}", vars.OS,
			"{arch}", vars.Arch,
			"{version}", vars.Version,
			"{filename}", vars.Filename,
		)
		return r.Replace(h.Template), nil

	case h.Prefix != "":
		return h.Prefix + vars.Filename, nil

	default:
		return h.runBin(ctx, vars)
	}
}

// runBin executes the hook command; its trimmed stdout is the URL. Distro
// hooks receive the version, os, arch and filename as arguments.
func (h *Hook) runBin(ctx context.Context, vars HookVars) (string, error) {
	fields := strings.Fields(h.Bin)
	command := fields[0]
	if !filepath.IsAbs(command) && strings.ContainsRune(command, filepath.Separator) {
		command = filepath.Join(h.baseDir, command)
	}

	args := append([]string{}, fields[1:]...)
	if vars.Version != "" {
		args = append(args, vars.Version, vars.OS, vars.Arch, vars.Filename)
	}

	ui.Debug("Running hook: %s %v", command, args)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = h.baseDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errs.Wrap(errs.Configuration, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
			"hook command %q failed", h.Bin)
	}

	url := strings.TrimSpace(stdout.String())
	if url == "" {
		return "", errs.New(errs.Configuration, "hook command %q produced no URL", h.Bin)
	}
	return url, nil
}
