package cmd

import (
	"context"

	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/image"
	"github.com/jsvm/jsvm/src/internal/pkg"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/shim"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <tool[@version]>...",
	Short: "Install a tool or package as your default",
	Long: `Fetch a tool and make it part of your default toolchain, or install a
package globally with your default Node.

A version may be exact, a range, or a tag. Without one, node installs the
latest LTS release and the package managers their latest release.

Examples:
  jsvm install node           # latest LTS Node
  jsvm install node@18        # newest 18.x
  jsvm install yarn@1.22.19
  jsvm install typescript     # global package, runs with the default Node`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, err := parseTools(args, true)
		if err != nil {
			return err
		}

		tc, err := newToolchain()
		if err != nil {
			return err
		}

		for _, req := range nodeFirst(reqs) {
			if req.Kind == tool.Package {
				err = installPackage(cmd.Context(), tc, req)
			} else {
				err = installTool(cmd.Context(), tc, req)
			}
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func installTool(ctx context.Context, tc *toolchain, req tool.Requirement) error {
	ui.Debug("Installing %s as default", req)

	spec, err := tc.fetch(ctx, req)
	if err != nil {
		return err
	}
	if err := setDefault(tc.paths, spec); err != nil {
		return err
	}

	ui.Success("Default %s set to %s", spec.Kind.DisplayName(), ui.HighlightVersion(spec.Version.String()))

	if spec.Kind != tool.Node {
		if def, _ := platform.LoadDefault(tc.paths); def == nil || def.Node == nil {
			ui.Warning("No default Node is set; %s will only be used in projects that pin Node", spec.Kind.DisplayName())
			ui.Info("Run `jsvm install node` to set one")
		}
	}
	return nil
}

// installPackage installs a package globally with the default platform
func installPackage(ctx context.Context, tc *toolchain, req tool.Requirement) error {
	def, err := platform.LoadDefault(tc.paths)
	if err != nil {
		return err
	}
	if def == nil || def.Node == nil {
		return errs.New(errs.NoPlatform,
			"installing %s needs a default Node\nRun `jsvm install node` first", req.Name)
	}

	p := &platform.Platform{Spec: *def, Source: platform.Default}
	for _, spec := range p.Tools() {
		if err := tc.fetcher.EnsureFetched(ctx, spec); err != nil {
			return err
		}
	}
	img, err := image.Checkout(tc.paths, p)
	if err != nil {
		return err
	}

	shims, err := shim.NewManager(tc.paths)
	if err != nil {
		return errs.Wrap(errs.FileSystem, err, "could not create shims")
	}
	return pkg.NewInstaller(tc.paths, shims).Install(ctx, img, tool.Npm, req.String())
}
