package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bmad/internal/ui"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change app settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := svc.Settings(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconGear, "Settings"))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Daily limit", fmt.Sprintf("%.0f", st.DailyLimit)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Sound", onOff(st.SoundEnabled)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Haptics", onOff(st.HapticsEnabled)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Font size", st.FontSize))
			return nil
		},
	}

	cmd.AddCommand(newSettingsLimitCmd(), newSettingsSoundCmd(), newSettingsHapticsCmd(), newSettingsFontCmd())
	return cmd
}

func newSettingsLimitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "limit <points>",
		Short: "Set the daily capacity limit",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("points value is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid limit %q", args[0])
			}

			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.SetDailyLimit(ctx, limit); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Daily limit", fmt.Sprintf("%.0f", limit)))
			return nil
		},
	}
}

func newSettingsSoundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sound",
		Short: "Toggle sound effects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			enabled, err := svc.ToggleSound(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Sound", onOff(enabled)))
			return nil
		},
	}
}

func newSettingsHapticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "haptics",
		Short: "Toggle haptic feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			enabled, err := svc.ToggleHaptics(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Haptics", onOff(enabled)))
			return nil
		},
	}
}

func newSettingsFontCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "font <small|medium|large>",
		Short: "Set the UI font size",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("font size is required")
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

			if err := svc.SetFontSize(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Font size", args[0]))
			return nil
		},
	}
}

func onOff(enabled bool) string {
	if enabled {
		return ui.Good.Render("on")
	}
	return ui.Muted.Render("off")
}
