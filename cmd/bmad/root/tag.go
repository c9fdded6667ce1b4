package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags and task labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconSparkle, "Tags"))
			for _, tag := range svc.Tags() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", tag.Emoji, tag.Name, ui.Dim.Render(tag.ID))
			}
			return nil
		},
	}

	cmd.AddCommand(newTagAddCmd(), newTagRmCmd(), newTagToggleCmd(), newTagOfCmd())
	return cmd
}

func newTagAddCmd() *cobra.Command {
	var color, emoji string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Define a new tag",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("tag name is required")
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

			tag, err := svc.AddTag(args[0], color, emoji)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Added", fmt.Sprintf("%s %s", tag.Emoji, tag.Name)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("id "+tag.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "#3b82f6", "Tag color (hex)")
	cmd.Flags().StringVar(&emoji, "emoji", "🏷️", "Tag emoji")
	return cmd
}

func newTagRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <tag-id>",
		Short: "Delete a tag and strip it from every task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("tag id is required")
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

			if err := svc.RemoveTag(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Removed", args[0]))
			return nil
		},
	}
}

func newTagToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <task-id> <tag-id>",
		Short: "Assign a tag to a task, or remove it if already assigned",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("task id and tag id are required")
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

			assigned, err := svc.ToggleTag(args[0], args[1])
			if err != nil {
				return err
			}
			if assigned {
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Tagged", args[0]))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Untagged", args[0]))
			}
			return nil
		},
	}
}

func newTagOfCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "of <task-id>",
		Short: "List the tags on a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("task id is required")
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

			tags := svc.TaskTags(args[0])
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("no tags"))
				return nil
			}
			for _, tag := range tags {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", tag.Emoji, tag.Name, ui.Dim.Render(tag.ID))
			}
			return nil
		},
	}
}
