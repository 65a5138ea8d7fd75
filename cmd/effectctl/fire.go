package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/ui"
)

func newFireCmd(a *app) *cobra.Command {
	var (
		statePath string
		owner     string
	)

	cmd := &cobra.Command{
		Use:   "fire <trigger>",
		Short: "Fire the stored abilities bound to a trigger",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("trigger is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := a.reg.Trigger(args[0]); !ok {
				return fmt.Errorf("%w: %s", effect.ErrUnknownTrigger, args[0])
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := a.openSession(ctx, statePath, scannerLines(cmd.InOrStdin()), out)
			if err != nil {
				return err
			}
			defer s.close()

			ent, err := s.owner(owner)
			if err != nil {
				return err
			}

			ectx := engine.NewContext(nil)
			before := s.snapshots()
			n, fireErr := s.book.Fire(ctx, s.x, args[0], ent.ID(), ectx)

			fmt.Fprintln(out, ui.Heading(ui.IconTrigger, fmt.Sprintf("%s: %d binding(s) fired for %s", args[0], n, ent.Name())))
			printChanges(out, before, s.snapshots())
			printNarration(out, ectx.Narration)

			if err := s.save(ctx); err != nil {
				return err
			}
			return fireErr
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "encounter state file (YAML); demo encounter when empty")
	cmd.Flags().StringVar(&owner, "owner", "player", "binding owner: player, enemy or an entity id")
	return cmd
}
