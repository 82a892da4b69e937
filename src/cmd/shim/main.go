// Package main implements the shim executable. Every tool name in the shims
// directory links to it; it dispatches on the name it was invoked as and
// takes no flags of its own.
package main

import (
	"context"
	"os"

	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/layout"
	"github.com/jsvm/jsvm/src/internal/run"
	"github.com/jsvm/jsvm/src/internal/ui"
)

func main() {
	os.Exit(runShim())
}

func runShim() int {
	ui.ConfigureFromEnv()
	defer ui.Sync()

	paths := config.DefaultPaths()
	if err := layout.RequireCurrent(paths); err != nil {
		return report(err)
	}

	ctx, interrupts, stop := run.WatchInterrupts(context.Background())
	defer stop()

	code, err := run.Run(ctx, run.Options{
		Paths:      paths,
		Name:       run.ShimName(os.Args[0]),
		Args:       os.Args[1:],
		Interrupts: interrupts,
	})
	if err != nil {
		return report(err)
	}
	return code
}

func report(err error) int {
	ui.Error("%s", errs.Summary(err))
	if ui.IsVerbose() {
		for _, cause := range errs.Causes(err) {
			ui.Progress("caused by: %s", cause)
		}
	}
	return errs.ExitCode(err)
}
