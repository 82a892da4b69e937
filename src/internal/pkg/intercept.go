package pkg

import (
	"strings"

	"github.com/jsvm/jsvm/src/internal/tool"
)

// Action is a global package operation jsvm performs itself.
type Action int

const (
	Install Action = iota + 1
	Uninstall
	Upgrade
)

func (a Action) String() string {
	switch a {
	case Install:
		return "install"
	case Uninstall:
		return "uninstall"
	case Upgrade:
		return "upgrade"
	}
	return "unknown"
}

// Intercept is a package manager invocation that changes global packages.
type Intercept struct {
	Action   Action
	Manager  tool.Kind
	Packages []string
}

var npmActions = map[string]Action{
	"install": Install, "i": Install, "add": Install, "in": Install, "isntall": Install,
	"uninstall": Uninstall, "remove": Uninstall, "rm": Uninstall, "r": Uninstall, "un": Uninstall, "unlink": Uninstall,
	"update": Upgrade, "upgrade": Upgrade, "up": Upgrade, "udpate": Upgrade,
}

// npm flags whose value is the next argument.
var npmValueFlags = map[string]bool{
	"--registry": true, "--prefix": true, "--tag": true, "--cache": true,
	"--userconfig": true, "--loglevel": true, "--omit": true, "--include": true,
}

var yarnActions = map[string]Action{
	"add":     Install,
	"remove":  Uninstall,
	"upgrade": Upgrade,
}

// Detect returns the global package operation an npm or Yarn invocation
// performs, nil when it should run unchanged.
func Detect(manager tool.Kind, args []string) *Intercept {
	switch manager {
	case tool.Npm:
		return detectNpm(args)
	case tool.Yarn:
		return detectYarn(args)
	}
	return nil
}

func detectNpm(args []string) *Intercept {
	global := false
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-g" || arg == "--global" || arg == "--location=global":
			global = true
		case arg == "--location" && i+1 < len(args):
			global = global || args[i+1] == "global"
			i++
		case npmValueFlags[arg] && i+1 < len(args):
			i++
		case strings.HasPrefix(arg, "-"):
		default:
			positional = append(positional, arg)
		}
	}

	if !global || len(positional) == 0 {
		return nil
	}
	action, ok := npmActions[positional[0]]
	if !ok {
		return nil
	}
	packages := positional[1:]
	// npm install -g with no package installs the current directory
	if action != Upgrade && len(packages) == 0 {
		return nil
	}
	return &Intercept{Action: action, Manager: tool.Npm, Packages: packages}
}

func detectYarn(args []string) *Intercept {
	var positional []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
		}
	}

	if len(positional) < 2 || positional[0] != "global" {
		return nil
	}
	action, ok := yarnActions[positional[1]]
	if !ok {
		return nil
	}
	packages := positional[2:]
	if action != Upgrade && len(packages) == 0 {
		return nil
	}
	return &Intercept{Action: action, Manager: tool.Yarn, Packages: packages}
}

// PackageName strips the version from an install argument such as
// "typescript@5" or "@vue/cli@latest". It returns "" for arguments that do
// not name a registry package, such as tarballs and git URLs.
func PackageName(spec string) string {
	if strings.Contains(spec, "://") || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") ||
		strings.HasSuffix(spec, ".tgz") || strings.Contains(spec, ":") {
		return ""
	}

	name := spec
	if at := strings.LastIndex(spec, "@"); at > 0 {
		name = spec[:at]
	}
	if strings.HasPrefix(name, "@") && !strings.Contains(name, "/") {
		return ""
	}
	return name
}
