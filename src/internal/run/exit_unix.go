//go:build !windows

package run

import (
	"errors"
	"os/exec"
	"syscall"
)

// exitCode returns the code a shell would report for a finished child;
// a child killed by signal N reports 128+N.
func exitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, false
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal()), true
	}
	return exitErr.ExitCode(), true
}
