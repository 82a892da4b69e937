package cmd

import (
	"github.com/jsvm/jsvm/src/internal/layout"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade jsvm's directory to the current layout",
	Long: `Upgrade a directory written by an older jsvm release to the current
layout. Every other command does this automatically; shims refuse to run
until it has happened.

Example:
  jsvm migrate`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipMigrate: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := rootPaths()
		from := layout.Detect(paths)
		if layout.IsCurrent(paths) {
			ui.Info("%s already uses layout %s", paths.Root, from)
			return nil
		}

		err := ui.WithSpinner("Upgrading "+paths.Root, func() error {
			return layout.Migrate(cmd.Context(), paths)
		})
		if err != nil {
			return err
		}
		ui.Success("Upgraded %s from %s to %s", paths.Root, from, layout.Current)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
