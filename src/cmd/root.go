// Package cmd implements the jsvm management commands
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/layout"
	"github.com/jsvm/jsvm/src/internal/tui"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var verbose bool

// exitCode is set by commands that delegate to a child process
var exitCode int

// skipMigrate marks commands that must not upgrade the root first
const skipMigrate = "skip-migrate"

var rootCmd = &cobra.Command{
	Use:           "jsvm",
	Short:         "JavaScript toolchain manager",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.ConfigureFromEnv()
		if verbose {
			ui.SetVerbose(true)
		}

		if _, ok := cmd.Annotations[skipMigrate]; ok {
			return nil
		}
		return layout.Migrate(cmd.Context(), rootPaths())
	},
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	// Check for --version or -v flag before Cobra parses
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			versionCmd.Run(versionCmd, nil)
			return 0
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	defer ui.Sync()
	if err != nil {
		return reportError(err)
	}
	return exitCode
}

// reportError prints one line for err, plus its causes when verbose
func reportError(err error) int {
	if ctxErr := context.Cause(rootCmd.Context()); ctxErr != nil && errs.KindOf(err) == errs.Unknown {
		err = errs.Wrap(errs.Interrupted, err, "interrupted")
	}

	ui.Error("%s", errs.Summary(err))
	if ui.IsVerbose() {
		for _, cause := range errs.Causes(err) {
			ui.Progress("caused by: %s", cause)
		}
	}
	ui.Debug("Exiting with %s (code %d)", errs.KindOf(err), errs.ExitCode(err))
	return errs.ExitCode(err)
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output for debugging")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			defaultHelp(cmd, args)
			return
		}
		_ = customUsage(cmd)
	})
}

func customUsage(cmd *cobra.Command) error {
	const tableWidth = 95

	header := tui.NewTable("")
	header.SetTitle(cmd.Short)
	header.HideHeader()
	header.SetMinWidth(tableWidth)
	header.AddRow("jsvm fetches Node, npm, pnpm and Yarn on demand and runs the versions each project pins,")
	header.AddRow("falling back to your default toolchain everywhere else.")

	fmt.Println(header.Render())
	fmt.Println()

	table := tui.NewTable("Command", "Description")
	table.SetTitle("Available Commands")
	table.SetMinWidth(tableWidth)
	for _, c := range cmd.Commands() {
		if c.Hidden || c.Name() == "completion" || c.Name() == "help" {
			continue
		}
		table.AddRow(c.Name(), c.Short)
	}
	fmt.Println(table.Render())

	return nil
}
