package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/ui"
)

var errQuit = errors.New("quit")

const replHelp = `effect text         execute with the player as the source
:enemy <effect>     execute with the enemy as the source
:describe <effect>  describe without executing
:set name=value     set a context variable for later effects
:fire <trigger> [player|enemy]
:end [player|enemy] tick statuses and timed abilities
:abilities [player|enemy]
:state              show both combatants
:save               write the encounter
:quit`

func newReplCmd(a *app) *cobra.Command {
	var statePath string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive effect session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.repl(cmd.Context(), statePath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "encounter state file (YAML); demo encounter when empty")
	return cmd
}

// repl runs the stdin reader and the executor loop under one errgroup.
// Interactive card choices read from the same line channel as commands.
func (a *app) repl(ctx context.Context, statePath string, in io.Reader, out io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan string)

	g.Go(func() error {
		return readLines(gctx, in, lines)
	})

	g.Go(func() error {
		next := channelLines(lines)
		s, err := a.openSession(gctx, statePath, next, out)
		if err != nil {
			return err
		}
		defer s.close()

		r := &replSession{session: s, out: out, vars: make(map[string]float64)}
		fmt.Fprintln(out, ui.Heading(ui.IconEffect, "effectctl repl")+" "+ui.Muted.Render("(:help for commands)"))
		for {
			fmt.Fprint(out, ui.Key.Render("> "))
			line, err := next(gctx)
			if err == io.EOF {
				line = ":quit"
			} else if err != nil {
				return err
			}
			if err := r.handle(gctx, a, strings.TrimSpace(line)); err != nil {
				return err
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// readLines forwards lines from in until EOF or cancellation. The scan runs
// in its own goroutine because a blocking read cannot be interrupted.
func readLines(ctx context.Context, in io.Reader, lines chan<- string) error {
	raw := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case raw <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(raw)
	}()

	defer close(lines)
	for {
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-raw:
			if !ok {
				return <-scanErr
			}
			select {
			case lines <- l:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

type replSession struct {
	*session
	out  io.Writer
	vars map[string]float64
}

// handle runs one input line. Only errQuit and context errors end the
// session; effect failures are printed.
func (r *replSession) handle(ctx context.Context, a *app, line string) error {
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, ":") {
		r.execute(ctx, line, true)
		return ctx.Err()
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "q", "quit", "exit":
		if err := r.save(ctx); err != nil {
			r.report(err)
		}
		return errQuit
	case "help":
		fmt.Fprintln(r.out, ui.Muted.Render(replHelp))
	case "enemy":
		r.execute(ctx, rest, false)
	case "describe":
		fmt.Fprintln(r.out, ui.Panel.Render(a.describer.String(rest)))
	case "set":
		vars, err := parseVars(strings.Fields(rest))
		if err != nil {
			r.report(err)
			return nil
		}
		for k, v := range vars {
			r.vars[k] = v
		}
	case "fire":
		trigger, owner, _ := strings.Cut(rest, " ")
		r.fire(ctx, trigger, strings.TrimSpace(owner))
	case "end":
		r.endTurn(ctx, rest)
	case "abilities":
		r.abilities(rest)
	case "state":
		snaps := r.snapshots()
		printChanges(r.out, snaps, snaps)
	case "save":
		if err := r.save(ctx); err != nil {
			r.report(err)
		}
	default:
		r.report(fmt.Errorf("unknown command :%s", cmd))
	}
	return ctx.Err()
}

func (r *replSession) context() *engine.Context {
	return engine.NewContext(r.vars)
}

func (r *replSession) execute(ctx context.Context, text string, sourceIsSelf bool) {
	ectx := r.context()
	before := r.snapshots()
	err := r.x.ExecuteString(ctx, text, sourceIsSelf, ectx)
	printChanges(r.out, before, r.snapshots())
	printNarration(r.out, ectx.Narration)
	if errors.Is(err, engine.ErrCancelled) {
		fmt.Fprintln(r.out, ui.Warn.Render("cancelled"))
		return
	}
	r.report(err)
}

func (r *replSession) fire(ctx context.Context, trigger, owner string) {
	ent, err := r.owner(owner)
	if err != nil {
		r.report(err)
		return
	}
	ectx := r.context()
	before := r.snapshots()
	n, err := r.book.Fire(ctx, r.x, trigger, ent.ID(), ectx)
	fmt.Fprintln(r.out, ui.Muted.Render(fmt.Sprintf("%d binding(s) fired", n)))
	printChanges(r.out, before, r.snapshots())
	printNarration(r.out, ectx.Narration)
	r.report(err)
}

func (r *replSession) endTurn(ctx context.Context, owner string) {
	ent, err := r.owner(owner)
	if err != nil {
		r.report(err)
		return
	}
	ectx := r.context()
	before := r.snapshots()
	expired, err := r.x.TickStatuses(ctx, ent.ID(), ectx)
	if err != nil {
		r.report(err)
		return
	}
	gone, err := r.book.EndTurn(ctx, ent.ID())
	if err != nil {
		r.report(err)
		return
	}
	printChanges(r.out, before, r.snapshots())
	printNarration(r.out, ectx.Narration)
	if len(expired) > 0 {
		fmt.Fprintln(r.out, ui.LabelValue("expired", strings.Join(expired, ", ")))
	}
	if len(gone) > 0 {
		fmt.Fprintln(r.out, ui.LabelValue("abilities expired", len(gone)))
	}
}

func (r *replSession) abilities(owner string) {
	ent, err := r.owner(owner)
	if err != nil {
		r.report(err)
		return
	}
	bindings := r.book.Bindings(ent.ID())
	if len(bindings) == 0 {
		fmt.Fprintln(r.out, ui.Muted.Render("no abilities"))
		return
	}
	for _, b := range bindings {
		line := ui.Key.Render(b.Trigger) + " " + b.Effect
		if b.RemainingTurns > 0 {
			line += ui.Muted.Render(fmt.Sprintf(" (%dt)", b.RemainingTurns))
		}
		fmt.Fprintln(r.out, "  "+line)
	}
}

func (r *replSession) report(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(r.out, ui.Bad.Render(ui.IconError+" "+err.Error()))
}
