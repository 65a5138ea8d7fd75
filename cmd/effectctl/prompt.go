package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/ui"
)

// lineSource yields the next line typed by the user.
type lineSource func(ctx context.Context) (string, error)

// scannerLines reads lines from r directly. Used outside the REPL.
func scannerLines(r io.Reader) lineSource {
	sc := bufio.NewScanner(r)
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return sc.Text(), nil
	}
}

// channelLines reads from the REPL's input channel.
func channelLines(lines <-chan string) lineSource {
	return func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return "", io.EOF
			}
			return l, nil
		}
	}
}

// promptChooser lists the candidates and reads 1-based card numbers. An
// empty answer or end of input cancels the effect.
type promptChooser struct {
	out  io.Writer
	next lineSource
}

func (c *promptChooser) Choose(ctx context.Context, prompt string, candidates []engine.Card, count int) ([]engine.Card, error) {
	fmt.Fprintln(c.out, ui.H2.Render(prompt))
	for i, card := range candidates {
		fmt.Fprintf(c.out, "  %s %s\n", ui.Key.Render(strconv.Itoa(i+1)+")"), card.Name)
	}

	for {
		fmt.Fprint(c.out, ui.Muted.Render("numbers (empty to cancel)> "))
		line, err := c.next(ctx)
		if err == io.EOF {
			return nil, engine.ErrCancelled
		}
		if err != nil {
			return nil, err
		}

		picked, err := pickCards(line, candidates, count)
		if err != nil {
			fmt.Fprintln(c.out, ui.Warn.Render(err.Error()))
			continue
		}
		if len(picked) == 0 {
			return nil, engine.ErrCancelled
		}
		return picked, nil
	}
}

func pickCards(line string, candidates []engine.Card, count int) ([]engine.Card, error) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) > count {
		return nil, fmt.Errorf("pick at most %d card(s)", count)
	}

	seen := make(map[int]bool, len(fields))
	out := make([]engine.Card, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(candidates) {
			return nil, fmt.Errorf("%q is not a card number", f)
		}
		if seen[n] {
			return nil, fmt.Errorf("card %d picked twice", n)
		}
		seen[n] = true
		out = append(out, candidates[n-1])
	}
	return out, nil
}

// echoNarrator returns the prompt itself as the narration.
type echoNarrator struct{}

func (echoNarrator) Narrate(_ context.Context, prompt string) (string, error) {
	return strings.TrimSpace(prompt), nil
}
