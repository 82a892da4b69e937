package image

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/path"
)

// Command prepares an executable to run with the given PATH value. Batch
// files on Windows run through cmd.exe.
func Command(bin string, args []string, pathValue string, extraEnv ...string) *exec.Cmd {
	var cmd *exec.Cmd
	ext := strings.ToLower(filepath.Ext(bin))
	if runtime.GOOS == constants.OSWindows && (ext == constants.ExtCmd || ext == constants.ExtBat) {
		cmd = exec.Command("cmd.exe", append([]string{"/C", bin}, args...)...)
	} else {
		cmd = exec.Command(bin, args...)
	}

	cmd.Env = Environ(pathValue, extraEnv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Environ returns the process environment with PATH replaced and extra
// KEY=VALUE entries applied.
func Environ(pathValue string, extra ...string) []string {
	overrides := append([]string{"PATH=" + pathValue}, extra...)

	var env []string
	for _, kv := range os.Environ() {
		if !overridden(kv, overrides) {
			env = append(env, kv)
		}
	}
	return append(env, overrides...)
}

func overridden(kv string, overrides []string) bool {
	key, _, _ := strings.Cut(kv, "=")
	for _, o := range overrides {
		oKey, _, _ := strings.Cut(o, "=")
		if key == oKey || (runtime.GOOS == constants.OSWindows && strings.EqualFold(key, oKey)) {
			return true
		}
	}
	return false
}

// Lookup finds a tool in the image. Bins already order a separately
// pinned npm, pnpm or Yarn ahead of copies bundled in the Node image.
func (img *Image) Lookup(name string) (string, error) {
	bin, ok := path.LookPath(name, path.Join(img.Bins))
	if !ok {
		return "", errs.New(errs.ToolNotFound, "%s was not found in the %s image", name, img.Platform.Spec)
	}
	return bin, nil
}

// Command prepares a tool from the image to run.
func (img *Image) Command(name string, args []string, extraEnv ...string) (*exec.Cmd, error) {
	bin, err := img.Lookup(name)
	if err != nil {
		return nil, err
	}
	return Command(bin, args, img.Path(), extraEnv...), nil
}
