package cmd

import (
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <tool[@version]>...",
	Short: "Download tools into the inventory without selecting them",
	Long: `Resolve and fetch tool versions so later runs need no download. Neither
the default toolchain nor any project pin changes.

Examples:
  jsvm fetch node@20 pnpm@8`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := parseTools(args, false)
		if err != nil {
			return err
		}

		tc, err := newToolchain()
		if err != nil {
			return err
		}

		for _, req := range reqs {
			spec, err := tc.fetch(cmd.Context(), req)
			if err != nil {
				return err
			}
			ui.Info("%s is available", spec)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
