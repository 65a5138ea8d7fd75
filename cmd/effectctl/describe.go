package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udisondev/effectlang/internal/ui"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <effect>",
		Short: "Render an effect string as player-facing text",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("effect text is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			text := a.describer.String(strings.Join(args, " "))
			if text == "" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("(nothing to describe)"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Panel.Render(text))
			return nil
		},
	}
}
