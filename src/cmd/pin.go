package cmd

import (
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/project"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var pinRemove bool

var pinCmd = &cobra.Command{
	Use:   "pin <tool[@version]>...",
	Short: "Pin tool versions in the project's package.json",
	Long: `Resolve and fetch tool versions and record them under "jsvm" in the
nearest package.json. Everyone working on the project then runs the same
toolchain. Node must be pinned before a package manager.

Examples:
  jsvm pin node@20
  jsvm pin node@18.16.0 yarn@1.22
  jsvm pin --remove yarn`,
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
		if tc.project == nil {
			return errs.New(errs.Configuration,
				"no %s found in %s or its parents", project.ManifestName, tc.dir)
		}

		if pinRemove {
			for _, req := range reqs {
				if err := tc.project.Unpin(req.Kind); err != nil {
					return err
				}
				ui.Success("Unpinned %s in %s", req.Kind.DisplayName(), tc.project.ManifestFile)
			}
			return nil
		}

		for _, req := range nodeFirst(reqs) {
			spec, err := tc.fetch(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := tc.project.PinTool(spec); err != nil {
				return err
			}
			ui.Success("Pinned %s to %s in %s", spec.Kind.DisplayName(),
				ui.HighlightVersion(spec.Version.String()), tc.project.ManifestFile)
		}
		return nil
	},
}

func init() {
	pinCmd.Flags().BoolVar(&pinRemove, "remove", false, "Remove the pins instead of setting them")
	rootCmd.AddCommand(pinCmd)
}
