package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newAchievementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Show earned and locked achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			all := svc.Achievements().All()
			earned := svc.Achievements().UnlockedCount()
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconTrophy, fmt.Sprintf("Achievements (%d/%d)", earned, len(all))))
			for _, a := range all {
				if a.Unlocked {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s — %s\n", a.Emoji, ui.Gold.Render(a.Name), ui.Muted.Render(a.Description))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "🔒 %s — %s\n", ui.Muted.Render(a.Name), ui.Dim.Render(a.Description))
				}
			}
			return nil
		},
	}
	return cmd
}
