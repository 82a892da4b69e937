package run

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/jsvm/jsvm/src/internal/ui"
)

// Interrupts cancels a dispatch when the user interrupts jsvm before the
// child starts. Once the child has control, interrupts are left to it.
type Interrupts struct {
	signals chan os.Signal
	handed  atomic.Bool
	fired   atomic.Bool
	done    chan struct{}
}

// WatchInterrupts returns a context canceled by the first interrupt
// delivered before HandOff.
func WatchInterrupts(parent context.Context) (context.Context, *Interrupts, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	in := &Interrupts{
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(in.signals, os.Interrupt)

	go func() {
		for {
			select {
			case <-in.signals:
				if in.handed.Load() {
					continue
				}
				ui.Debug("Interrupted before the child started")
				in.fired.Store(true)
				cancel()
			case <-in.done:
				return
			}
		}
	}()

	stop := func() {
		signal.Stop(in.signals)
		close(in.done)
		cancel()
	}
	return ctx, in, stop
}

// HandOff gives the child control; later interrupts are ignored by jsvm
// and reach the child through the terminal.
func (in *Interrupts) HandOff() {
	if in != nil {
		in.handed.Store(true)
	}
}

// Fired reports whether an interrupt arrived before HandOff
func (in *Interrupts) Fired() bool {
	return in != nil && in.fired.Load()
}
