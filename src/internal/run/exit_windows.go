//go:build windows

package run

import (
	"errors"
	"os/exec"
)

// exitCode returns the child's exit code
func exitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, false
	}
	return exitErr.ExitCode(), true
}
