package cmd

import (
	"fmt"

	"github.com/jsvm/jsvm/src/internal/tui"
	"github.com/spf13/cobra"
)

// Version can be set at build time using ldflags
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show the jsvm version",
	Long:        `Display the current version of jsvm.`,
	Annotations: map[string]string{skipMigrate: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		content := fmt.Sprintf("jsvm %s", tui.RenderVersion(Version))
		fmt.Println(tui.RenderInfoBox(content))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
