package run

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/tool"
)

// Target is what an invoked name runs: a toolchain tool or a binary
type Target struct {
	Kind tool.Kind
	// Name is the command as invoked, e.g. "npx" for Kind Npm
	Name string
}

var toolNames = map[string]tool.Kind{
	"node":    tool.Node,
	"npm":     tool.Npm,
	"npx":     tool.Npm,
	"pnpm":    tool.Pnpm,
	"pnpx":    tool.Pnpm,
	"yarn":    tool.Yarn,
	"yarnpkg": tool.Yarn,
}

// DetermineTool maps an invoked name to its target. Names that are not
// toolchain tools are binaries (Kind Package).
func DetermineTool(name string) Target {
	name = ShimName(name)
	if kind, ok := toolNames[name]; ok {
		return Target{Kind: kind, Name: name}
	}
	return Target{Kind: tool.Package, Name: name}
}

// ShimName returns the command name of the executable at path
func ShimName(path string) string {
	name := filepath.Base(path)
	if runtime.GOOS == constants.OSWindows {
		name = strings.TrimSuffix(strings.ToLower(name), constants.ExtExe)
	}
	return name
}
