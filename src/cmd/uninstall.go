package cmd

import (
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/pkg"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/shim"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <tool@version|package>",
	Short: "Remove a fetched tool version or a global package",
	Long: `Remove a fetched tool version from the inventory, or a globally installed
package together with its shims.

A tool version that is part of your default toolchain cannot be removed.
A project pinning a removed version fetches it again on its next run.

Examples:
  jsvm uninstall node@16.20.0
  jsvm uninstall typescript`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := parseTools(args, true)
		if err != nil {
			return err
		}
		req := reqs[0]
		paths := rootPaths()

		if req.Kind == tool.Package {
			if !req.Version.IsNone() {
				return errs.New(errs.Configuration, "uninstall %s without a version", req.Name)
			}
			shims, err := shim.NewManager(paths)
			if err != nil {
				return errs.Wrap(errs.FileSystem, err, "could not remove shims")
			}
			return pkg.NewInstaller(paths, shims).Uninstall(cmd.Context(), req.Name)
		}

		v := req.Version.ExactVersion()
		if v == nil {
			return errs.New(errs.Configuration,
				"specify the exact version to remove, e.g. `jsvm uninstall %s@1.2.3`", req.Name)
		}

		def, err := platform.LoadDefault(paths)
		if err != nil {
			return err
		}
		if def != nil && def.Get(req.Kind) != nil && def.Get(req.Kind).Equal(v) {
			return errs.New(errs.Configuration,
				"%s %s is your default\nInstall another version first with `jsvm install %s`",
				req.Kind.DisplayName(), v, req.Name)
		}

		if err := removeToolVersion(cmd.Context(), paths, req.Kind, v); err != nil {
			return err
		}
		ui.Success("Removed %s %s", req.Kind.DisplayName(), v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
