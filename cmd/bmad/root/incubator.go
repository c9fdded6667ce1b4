package root

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bmad/internal/engine"
	"bmad/internal/ui"
)

func newEggCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "egg",
		Short: "Manage the incubator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			eggs, err := svc.Eggs(ctx)
			if err != nil {
				return err
			}
			pets, err := svc.Pets(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconEgg, "Incubator"))
			if len(eggs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(fmt.Sprintf("no eggs. spawn one for %d %s", engine.SpawnEggCost, ui.IconBolt)))
			}
			now := time.Now()
			for _, e := range eggs {
				line := fmt.Sprintf("%s  %s %s", ui.Key.Render(shortID(e.ID)), ui.Gold.Render(e.Rarity), ui.Muted.Render(string(e.Status)))
				if e.Status == engine.EggIncubating {
					remaining := time.UnixMilli(e.HatchTime).Sub(now)
					if remaining > 0 {
						line += " " + ui.Dim.Render(fmt.Sprintf("hatches in %s", remaining.Round(time.Second)))
					} else {
						line += " " + ui.Good.Render("ready to mark")
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			if len(pets) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "")
				fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconPet, "Pets"))
				for _, p := range pets {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%s, %s)\n", ui.Key.Render(shortID(p.ID)), p.Name, p.Type, ui.Gold.Render(p.Rarity))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(newEggSpawnCmd(), newEggIncubateCmd(), newEggReadyCmd(), newEggFastForwardCmd(), newEggHatchCmd())
	return cmd
}

func newEggSpawnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawn",
		Short: fmt.Sprintf("Buy a new egg for %d energy", engine.SpawnEggCost),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			egg, err := svc.SpawnEgg(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s egg %s\n", ui.IconEgg, ui.Gold.Render(egg.Rarity), ui.Muted.Render(shortID(egg.ID)))
			return nil
		},
	}
}

func eggIDArg(args []string) error {
	if len(args) != 1 {
		return errors.New("egg id is required")
	}
	return nil
}

func newEggIncubateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "incubate <id>",
		Short: "Start incubating an egg",
		Args:  func(cmd *cobra.Command, args []string) error { return eggIDArg(args) },
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			egg, err := svc.IncubateEgg(ctx, args[0])
			if err != nil {
				return err
			}
			hatch := time.UnixMilli(egg.HatchTime)
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Incubating", fmt.Sprintf("%s, hatches %s", egg.Rarity, hatch.Format("15:04:05"))))
			return nil
		},
	}
}

func newEggReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready <id>",
		Short: "Mark an incubated egg as ready to hatch",
		Args:  func(cmd *cobra.Command, args []string) error { return eggIDArg(args) },
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			egg, err := svc.MarkReady(ctx, args[0])
			if err != nil {
				return err
			}
			if time.UnixMilli(egg.HatchTime).After(time.Now()) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render("marked early, the hatch timer had not expired"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Ready", shortID(egg.ID)))
			return nil
		},
	}
}

func newEggFastForwardCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "fast-forward <id>",
		Short:  "Skip the remaining incubation time",
		Hidden: true,
		Args:   func(cmd *cobra.Command, args []string) error { return eggIDArg(args) },
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.FastForwardEgg(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Fast-forwarded", shortID(args[0])))
			return nil
		},
	}
}

func newEggHatchCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "hatch <id>",
		Short: "Hatch a ready egg into a pet",
		Args:  func(cmd *cobra.Command, args []string) error { return eggIDArg(args) },
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			pet, err := svc.HatchEgg(ctx, args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s the %s (%s)\n", ui.IconPet, ui.Good.Render(pet.Name), pet.Type, ui.Gold.Render(pet.Rarity))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name for the new pet")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
