package cmd

import (
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/run"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/spf13/cobra"
)

var runVersions = map[tool.Kind]*string{
	tool.Node: new(string),
	tool.Npm:  new(string),
	tool.Pnpm: new(string),
	tool.Yarn: new(string),
}

var runCmd = &cobra.Command{
	Use:   "run [--node <version>] [--npm <version>] [--pnpm <version>] [--yarn <version>] <command> [args...]",
	Short: "Run a command with specific tool versions",
	Long: `Run a command the way its shim would, with the given versions replacing
the project's pins or your defaults. Tools you don't name keep their
usual versions.

Examples:
  jsvm run --node 16 node --version
  jsvm run --node 20 --yarn 1.22 yarn test`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := newToolchain()
		if err != nil {
			return err
		}

		override, err := runOverride(cmd, tc)
		if err != nil {
			return err
		}

		ctx, interrupts, stop := run.WatchInterrupts(cmd.Context())
		defer stop()

		code, err := run.Run(ctx, run.Options{
			Paths:      tc.paths,
			Dir:        tc.dir,
			Name:       args[0],
			Args:       args[1:],
			Override:   override,
			Interrupts: interrupts,
		})
		if err != nil {
			return err
		}
		exitCode = code
		return nil
	},
}

func init() {
	for _, kind := range tool.Kinds {
		runCmd.Flags().StringVar(runVersions[kind], kind.String(), "", "Use this "+kind.DisplayName()+" version")
	}
	// Everything after the command belongs to it
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
}

// runOverride resolves the version flags the user passed
func runOverride(cmd *cobra.Command, tc *toolchain) (platform.Spec, error) {
	var override platform.Spec
	for _, kind := range tool.Kinds {
		if !cmd.Flags().Changed(kind.String()) {
			continue
		}
		vs, err := tool.ParseVersionSpec(*runVersions[kind])
		if err != nil {
			return override, errs.Wrap(errs.Configuration, err, "invalid --%s version", kind)
		}
		spec, err := tc.resolve(cmd.Context(), tool.Requirement{Kind: kind, Name: kind.String(), Version: vs})
		if err != nil {
			return override, err
		}
		override.Set(kind, spec.Version)
	}
	return override, nil
}
