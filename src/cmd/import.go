package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jsvm/jsvm/src/internal/constants"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/importer"
	"github.com/jsvm/jsvm/src/internal/platform"
	"github.com/jsvm/jsvm/src/internal/ui"
	"github.com/spf13/cobra"
)

var importYes bool

var importCmd = &cobra.Command{
	Use:   "import [nvm|fnm]...",
	Short: "Import Node versions installed by nvm or fnm",
	Long: `Detect the Node versions another version manager installed and fetch the
same versions into jsvm's inventory. When no default Node is set, the newest
imported version becomes the default.

Examples:
  jsvm import          # every version manager found
  jsvm import nvm
  jsvm import --yes fnm`,
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, err := importProviders(args)
		if err != nil {
			return err
		}

		spinner := ui.NewSpinner("Scanning for Node installations...")
		spinner.Start()
		detected := importer.Detect(providers)
		if len(detected) == 0 {
			spinner.Warning("No Node installations found")
			ui.Info("Use `jsvm install node` to install Node")
			return nil
		}
		spinner.Success(fmt.Sprintf("Found %d Node version(s)", len(detected)))

		for _, v := range detected {
			ui.Progress("%s", v)
		}
		if !importYes && !confirm("Fetch these versions into jsvm?") {
			ui.Info("Import cancelled")
			return nil
		}

		tc, err := newToolchain()
		if err != nil {
			return err
		}
		imported, err := importer.Import(cmd.Context(), tc.fetcher, detected)
		if err != nil {
			return err
		}
		ui.Success("Imported %d Node version(s)", len(imported))

		def, err := platform.LoadDefault(tc.paths)
		if err != nil {
			return err
		}
		if (def == nil || def.Node == nil) && len(imported) > 0 {
			if err := setDefault(tc.paths, imported[0]); err != nil {
				return err
			}
			ui.Success("Default Node set to %s", ui.HighlightVersion(imported[0].Version.String()))
		}

		fmt.Println()
		for _, p := range providers {
			if p.IsPresent() {
				ui.Info("%s", p.ManualInstructions())
			}
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(importCmd)
}

func importProviders(names []string) ([]importer.Provider, error) {
	if len(names) == 0 {
		return importer.GetAll(), nil
	}

	providers := make([]importer.Provider, 0, len(names))
	for _, name := range names {
		p, err := importer.Get(name)
		if err != nil {
			return nil, errs.Wrap(errs.Configuration, err,
				"cannot import from %s; supported: %s", name, strings.Join(importer.List(), ", "))
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// confirm asks a yes/no question on stdin, defaulting to no
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == constants.ResponseY || response == constants.ResponseYes
}
