package cmd

import (
	"github.com/jsvm/jsvm/src/internal/path"
	"github.com/jsvm/jsvm/src/internal/shim"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var setupYes bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create jsvm's directories, shims and PATH entries",
	Long: `Prepare jsvm for use. This command:
  - Creates the ~/.jsvm directory structure (or $JSVM_HOME)
  - Upgrades an older directory layout
  - Creates the node, npm, npx, pnpm, pnpx, yarn and yarnpkg shims,
    plus shims for installed packages
  - Adds the shims directory to your PATH (with your permission)

Run it after installing jsvm, and again if shims go missing.

Example:
  jsvm setup`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := rootPaths()
		ui.Header("Setting up jsvm in %s", paths.Root)

		spinner := ui.NewSpinner("Creating directories...")
		spinner.Start()
		if err := paths.EnsureDirectories(); err != nil {
			spinner.Error("Failed to create directories")
			return err
		}
		spinner.Success("Directories created")

		manager, err := shim.NewManager(paths)
		if err != nil {
			return err
		}
		if err := manager.Rehash(); err != nil {
			return err
		}
		ui.Success("Shims created in %s", paths.Shims)

		if err := path.AddToPath(paths.Root, []string{paths.Shims, paths.Bin}, setupYes); err != nil {
			ui.Warning("Could not configure PATH: %v", err)
			ui.Info("Add %s to your PATH manually", paths.Shims)
			return nil
		}

		ui.Success("jsvm is ready")
		ui.Info("Restart your terminal, then run `jsvm install node`")
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVarP(&setupYes, "yes", "y", false, "Modify your shell profile without asking")
	rootCmd.AddCommand(setupCmd)
}
