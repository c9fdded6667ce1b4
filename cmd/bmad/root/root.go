package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "bmad",
	Short:         "BMad, a local-first task load manager",
	Long:          "BMad models tasks as load against a daily capacity, with gamified feedback as you complete and reorganize work.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.AddCommand(
		newAddCmd(),
		newListCmd(),
		newEstimateCmd(),
		newDoneCmd(),
		newChopCmd(),
		newReorderCmd(),
		newRmCmd(),
		newArchiveCmd(),
		newStatusCmd(),
		newLogCmd(),
		newAchievementsCmd(),
		newSettingsCmd(),
		newTagCmd(),
		newEggCmd(),
		newBoardCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
