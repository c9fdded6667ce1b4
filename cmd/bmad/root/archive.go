package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Clear all completed tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := svc.ArchiveCompleted(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Archived", n))
			return nil
		},
	}
	return cmd
}
