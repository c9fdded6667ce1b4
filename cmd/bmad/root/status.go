package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current load, limit and player state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			load := svc.Load()
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconChart, "Status"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Load", fmt.Sprintf("%.0f / %.0f", load.CurrentLoad(), load.DailyLimit())))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Meter", ui.LoadMeter(load.LoadPercentage(), 20)))
			if load.IsSystemOverloaded() {
				fmt.Fprintln(cmd.OutOrStdout(), ui.BadgeOverload+" "+ui.Muted.Render("add --force to override"))
			} else if load.OverrideActive() {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render("override active"))
			}

			player, err := svc.Player(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "")
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Energy", fmt.Sprintf("%.0f %s", player.Energy, ui.IconBolt)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Level", player.Level))

			tasks, err := svc.ActiveTasks(ctx)
			if err != nil {
				return err
			}
			unweighed := 0
			for _, t := range tasks {
				if t.Points == 0 {
					unweighed++
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Active tasks", fmt.Sprintf("%d (%d unweighed)", len(tasks), unweighed)))
			return nil
		},
	}
	return cmd
}
