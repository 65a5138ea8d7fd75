package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/ui"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		statePath string
		enemy     bool
		vars      []string
	)

	cmd := &cobra.Command{
		Use:   "run <effect>",
		Short: "Execute an effect string against an encounter",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("effect text is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			values, err := parseVars(vars)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s, err := a.openSession(ctx, statePath, scannerLines(cmd.InOrStdin()), out)
			if err != nil {
				return err
			}
			defer s.close()

			ectx := engine.NewContext(values)
			before := s.snapshots()
			runErr := s.x.ExecuteString(ctx, strings.Join(args, " "), !enemy, ectx)

			printChanges(out, before, s.snapshots())
			printNarration(out, ectx.Narration)
			if errors.Is(runErr, engine.ErrCancelled) {
				fmt.Fprintln(out, ui.Warn.Render("cancelled"))
				runErr = nil
			}

			if err := s.save(ctx); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "encounter state file (YAML); demo encounter when empty")
	cmd.Flags().BoolVar(&enemy, "enemy", false, "execute with the enemy as the source")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "context variable name=value (repeatable)")
	return cmd
}

// parseVars turns name=value pairs into context variables.
func parseVars(pairs []string) (map[string]float64, error) {
	vars := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("variable %q: want name=value", p)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		vars[name] = v
	}
	return vars, nil
}
