package cmd

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/pkg"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/tui"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [tool|packages]",
	Short: "List fetched tools and installed packages",
	Long: `List the tool versions in the inventory and the globally installed
packages. The default toolchain and the current project's pins are marked.

Examples:
  jsvm list
  jsvm list node
  jsvm list packages`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := newToolchain()
		if err != nil {
			return err
		}

		kinds := tool.Kinds
		packages := true
		if len(args) == 1 {
			switch args[0] {
			case tool.Package.String():
				kinds, packages = nil, true
			default:
				kind, ok := tool.ParseKind(args[0])
				if !ok {
					return errs.New(errs.Configuration,
						"unknown tool %q; expected node, npm, pnpm, yarn or packages", args[0])
				}
				kinds, packages = []tool.Kind{kind}, false
			}
		}

		def, err := platform.LoadDefault(tc.paths)
		if err != nil {
			return err
		}
		var pinned platform.Spec
		if tc.project != nil && tc.project.Pin != nil {
			pinned = platform.Spec{Node: tc.project.Pin.Node, Npm: tc.project.Pin.Npm, Pnpm: tc.project.Pin.Pnpm, Yarn: tc.project.Pin.Yarn}
		}

		printed := false
		if len(kinds) > 0 {
			table := toolTable(tc, kinds, def, &pinned)
			if table.RowCount() > 0 {
				fmt.Println(table.Render())
				printed = true
			}
		}
		if packages {
			table, err := packageTable(tc.paths, tc.inventory.Packages())
			if err != nil {
				return err
			}
			if table.RowCount() > 0 {
				fmt.Println(table.Render())
				printed = true
			}
		}

		if !printed {
			ui.Info("Nothing installed yet")
			ui.Info("Run `jsvm install node` to get started")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func toolTable(tc *toolchain, kinds []tool.Kind, def, pinned *platform.Spec) *tui.Table {
	table := tui.NewTable("Tool", "Version", "Used by")
	table.SetTitle("Toolchain")

	for _, kind := range kinds {
		for _, v := range tc.inventory.Versions(kind) {
			usage := versionUsage(kind, v, def, pinned)
			cells := []string{tui.RenderTool(kind.String()), v.String(), strings.Join(usage, ", ")}
			if len(usage) > 0 {
				table.AddActiveRow(cells...)
			} else {
				table.AddRow(cells...)
			}
		}
	}
	return table
}

// versionUsage names where a fetched version is selected
func versionUsage(kind tool.Kind, v *semver.Version, def, pinned *platform.Spec) []string {
	var usage []string
	if def != nil {
		if d := def.Get(kind); d != nil && d.Equal(v) {
			usage = append(usage, "default")
		}
	}
	if pinned != nil {
		if p := pinned.Get(kind); p != nil && p.Equal(v) {
			usage = append(usage, "project")
		}
	}
	return usage
}

func packageTable(paths *config.Paths, names []string) (*tui.Table, error) {
	table := tui.NewTable("Package", "Version", "Platform", "Binaries")
	table.SetTitle("Packages")

	for _, name := range names {
		cfg, err := pkg.LoadPackageConfig(paths, name)
		if err != nil {
			return nil, err
		}
		if cfg == nil {
			continue
		}
		table.AddRow(tui.RenderTool(cfg.Name), cfg.Version, cfg.Platform.String(), strings.Join(cfg.Bins, ", "))
	}
	return table, nil
}
