package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/ui"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <effect>",
		Short: "Show the parsed form of an effect string",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("effect text is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.parser.Parse(strings.Join(args, " "))
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, ui.Heading(ui.IconEffect, fmt.Sprintf("%d expression(s)", len(res.Expressions))))
			for i, e := range res.Expressions {
				fmt.Fprintf(out, "%2d. %s\n", i+1, ui.H2.Render(e.String()))
				for _, line := range expressionFields(e) {
					fmt.Fprintln(out, "    "+line)
				}
			}

			if res.DroppedCount() > 0 {
				fmt.Fprintln(out, ui.Heading(ui.IconDrop, fmt.Sprintf("%d dropped", res.DroppedCount())))
				for _, d := range res.Dropped {
					fmt.Fprintf(out, "  %s %s\n", ui.Warn.Render(d.Raw), ui.Muted.Render(d.Err.Error()))
				}
			}
			return nil
		},
	}
}

func expressionFields(e *effect.Expression) []string {
	lines := []string{ui.LabelValue("kind", e.Kind)}
	if e.Kind == effect.KindConditional {
		lines = append(lines, ui.LabelValue("condition", e.Cond.Condition))
		lines = append(lines, ui.LabelValue("then", e.Cond.Then.Text))
		if e.Cond.Else != nil {
			lines = append(lines, ui.LabelValue("else", e.Cond.Else.Text))
		}
		return lines
	}

	lines = append(lines, ui.LabelValue("target", e.Target.Resolved()))
	if e.Trigger != "" {
		lines = append(lines, ui.LabelValue("trigger", e.Trigger))
	}
	if e.Attribute != "" {
		lines = append(lines, ui.LabelValue("attribute", e.Attribute))
	}
	if e.Selector != nil {
		lines = append(lines, ui.LabelValue("selector", e.Selector))
	}
	if e.Operator != "" {
		lines = append(lines, ui.LabelValue("operator", e.Operator))
	}
	if e.Value != nil {
		v := effect.ValueText(e.Value)
		if effect.IsDynamic(e.Value) {
			v += " " + ui.Muted.Render("(dynamic)")
		}
		lines = append(lines, ui.LabelValue("value", v))
	}
	if e.HasDuration() {
		lines = append(lines, ui.LabelValue("duration", fmt.Sprintf("%d turn(s)", e.Duration)))
	}
	for _, r := range e.Recovered {
		lines = append(lines, ui.LabelValue("recovered", ui.Warn.Render(string(r))))
	}
	return lines
}
