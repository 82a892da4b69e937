package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// ToolBins lists the executables each package manager image must provide.
func ToolBins(kind tool.Kind) []string {
	switch kind {
	case tool.Node:
		return []string{"node"}
	case tool.Npm:
		return []string{"npm", "npx"}
	case tool.Pnpm:
		return []string{"pnpm", "pnpx"}
	case tool.Yarn:
		return []string{"yarn", "yarnpkg"}
	}
	return nil
}

// ensureLaunchers makes every expected bin of a package manager image
// runnable. Registry tarballs ship some bins only as .js/.cjs entry points,
// and do not reliably carry the executable bit.
func ensureLaunchers(binDir string, kind tool.Kind) error {
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return err
	}

	for _, name := range ToolBins(kind) {
		if runtime.GOOS == constants.OSWindows {
			if exists(filepath.Join(binDir, name+constants.ExtCmd)) {
				continue
			}
		} else if path := filepath.Join(binDir, name); exists(path) {
			if err := os.Chmod(path, 0755); err != nil {
				return err
			}
			continue
		}

		script := entryPoint(binDir, name)
		if script == "" {
			// yarnpkg is an alias of yarn
			if name == "yarnpkg" {
				script = entryPoint(binDir, "yarn")
			}
			if script == "" {
				continue
			}
		}
		if err := writeLauncher(binDir, name, script); err != nil {
			return err
		}
	}
	return nil
}

// entryPoint finds the JavaScript file that implements a bin.
func entryPoint(binDir, name string) string {
	for _, c := range []string{name + ".js", name + ".cjs", name + "-cli.js"} {
		if exists(filepath.Join(binDir, c)) {
			return c
		}
	}
	return ""
}

func writeLauncher(binDir, name, script string) error {
	if runtime.GOOS == constants.OSWindows {
		content := fmt.Sprintf("@node \"%%~dp0\\%s\" %%*\r\n", script)
		return os.WriteFile(filepath.Join(binDir, name+constants.ExtCmd), []byte(content), 0644)
	}
	content := fmt.Sprintf("#!/bin/sh\nexec node \"$(dirname \"$0\")/%s\" \"$@\"\n", script)
	return os.WriteFile(filepath.Join(binDir, name), []byte(content), 0755)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
