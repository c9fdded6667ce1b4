package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate <id> <points>",
		Short: "Weigh a task in points",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("id and points are required")
			}
			if _, err := strconv.ParseFloat(args[1], 64); err != nil {
				return errors.New("points must be a number")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			points, _ := strconv.ParseFloat(args[1], 64)
			if err := svc.EstimateTask(ctx, args[0], points); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Estimated", fmt.Sprintf("%s at %.0f points", args[0], points)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Load", ui.LoadMeter(svc.Load().LoadPercentage(), 20)))
			return nil
		},
	}
	return cmd
}
