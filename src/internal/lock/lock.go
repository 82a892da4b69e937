// Package lock provides the exclusive advisory lock that serializes
// mutations of a jsvm root across processes.
package lock

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// Lock is a held exclusive lock on <root>/jsvm.lock.
type Lock struct {
	file *os.File
}

// Acquire blocks until the root's lock is held. When another process
// holds it, a spinner tells the user why jsvm is waiting.
func Acquire(ctx context.Context, paths *config.Paths) (*Lock, error) {
	path := paths.LockFile()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not create %s", filepath.Dir(path))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.FileSystem, err, "could not open lock file %s", path)
	}

	ok, err := tryLock(f)
	if err != nil {
		_ = f.Close()
		return nil, errs.Wrap(errs.FileSystem, err, "could not lock %s", path)
	}
	if ok {
		ui.Debug("Acquired lock %s", path)
		return &Lock{file: f}, nil
	}

	s := ui.NewSpinner("Waiting for another jsvm process to finish")
	s.Start()
	defer s.Stop()

	done := make(chan error, 1)
	go func() { done <- lockBlocking(f) }()

	select {
	case err := <-done:
		if err != nil {
			_ = f.Close()
			return nil, errs.Wrap(errs.FileSystem, err, "could not lock %s", path)
		}
	case <-ctx.Done():
		// Closing the descriptor releases any lock the goroutine obtains.
		go func() {
			<-done
			_ = f.Close()
		}()
		return nil, errs.Wrap(errs.Interrupted, ctx.Err(), "interrupted while waiting for the lock")
	}

	ui.Debug("Acquired lock %s after waiting", path)
	return &Lock{file: f}, nil
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	if err := unlock(l.file); err != nil {
		ui.Debug("Failed to unlock %s: %v", l.file.Name(), err)
	}
	_ = l.file.Close()
	l.file = nil
}
