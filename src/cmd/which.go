package cmd

import (
	"fmt"

	"github.com/jsvm/jsvm/src/internal/run"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var whichCmd = &cobra.Command{
	Use:   "which <command>",
	Short: "Show the executable a command runs",
	Long: `Resolve a command the way its shim would from the current directory and
print the executable's path. Missing tool versions are fetched.

Examples:
  jsvm which node
  jsvm which tsc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := run.Which(cmd.Context(), run.Options{
			Paths: rootPaths(),
			Name:  args[0],
		})
		if err != nil {
			return err
		}

		fmt.Println(res.Executable)

		switch {
		case res.Package != "":
			ui.Info("From package %s, runs with %s", ui.Highlight(res.Package), res.Platform)
		case res.Platform != nil:
			ui.Info("%s platform: %s", res.Platform.Source, res.Platform)
		default:
			ui.Info("System %s, not managed by jsvm", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whichCmd)
}
