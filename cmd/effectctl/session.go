package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/model"
	"github.com/udisondev/effectlang/internal/ui"
)

// session is one loaded encounter with its executor and persistence.
type session struct {
	statePath string
	st        *encounterState
	enc       *engine.Encounter
	deck      *deck
	book      *engine.AbilityBook
	stores    *stores
	x         *engine.Executor
}

func (a *app) openSession(ctx context.Context, statePath string, next lineSource, out io.Writer) (*session, error) {
	st, err := loadState(statePath)
	if err != nil {
		return nil, err
	}
	s := &session{statePath: statePath, st: st, enc: st.encounter()}

	s.stores, err = openStores(ctx, a.cfg.Database, st)
	if err != nil {
		return nil, err
	}
	if s.stores.snapshots != nil {
		if err := restoreSnapshots(ctx, s.stores.snapshots, s.enc); err != nil {
			s.stores.close()
			return nil, fmt.Errorf("restoring snapshots: %w", err)
		}
	}

	s.book = engine.NewAbilityBook(s.stores.bindings)
	for _, id := range []string{s.enc.P.ID(), s.enc.E.ID()} {
		if err := s.book.Load(ctx, id); err != nil {
			s.stores.close()
			return nil, fmt.Errorf("loading abilities of %s: %w", id, err)
		}
	}

	s.deck = newDeck(st.Piles, uint64(time.Now().UnixNano()))
	st.Piles = s.deck.piles
	s.x = a.executor(s.enc,
		engine.WithPiles(s.deck),
		engine.WithChooser(&promptChooser{out: out, next: next}),
		engine.WithNarrator(echoNarrator{}),
		engine.WithAbilities(s.book),
	)
	return s, nil
}

// owner maps "player"/"enemy" or an entity id to the entity.
func (s *session) owner(name string) (*model.Entity, error) {
	switch name {
	case "", "player", "ME":
		return s.enc.P, nil
	case "enemy", "OP":
		return s.enc.E, nil
	}
	if ent, ok := engine.ByID(s.enc, name); ok {
		return ent, nil
	}
	return nil, fmt.Errorf("%w: %s", engine.ErrNoEntity, name)
}

func (s *session) snapshots() [2]model.Snapshot {
	return [2]model.Snapshot{s.enc.P.Snapshot(), s.enc.E.Snapshot()}
}

// save writes the encounter back to its file and, for database drivers,
// stores entity snapshots.
func (s *session) save(ctx context.Context) error {
	s.st.capture(s.enc)
	if s.stores.snapshots != nil {
		if err := saveSnapshots(ctx, s.stores.snapshots, s.enc); err != nil {
			return fmt.Errorf("saving snapshots: %w", err)
		}
	}
	if s.statePath == "" {
		return nil
	}
	return saveState(s.statePath, s.st)
}

func (s *session) close() {
	s.stores.close()
}

// printChanges renders every stat and status of both combatants, marking
// what changed since before.
func printChanges(out io.Writer, before, after [2]model.Snapshot) {
	for i := range after {
		b, a := before[i], after[i]
		fmt.Fprintln(out, ui.Heading(ui.IconHeart, a.Name+" "+ui.Muted.Render("("+a.ID+")")))

		names := slices.Sorted(maps.Keys(a.Stats))
		for _, k := range names {
			fmt.Fprintln(out, "  "+ui.LabelValue(k, ui.Delta(b.Stats[k], a.Stats[k])))
		}
		for _, k := range slices.Sorted(maps.Keys(a.Modifiers)) {
			fmt.Fprintln(out, "  "+ui.LabelValue(k, ui.Delta(b.Modifiers[k], a.Modifiers[k])))
		}
		if len(a.Statuses) > 0 {
			parts := make([]string, 0, len(a.Statuses))
			for _, st := range a.Statuses {
				p := st.ID + " x" + strconv.Itoa(st.Stacks)
				if !st.Permanent() {
					p += " (" + strconv.Itoa(st.Duration) + "t)"
				}
				parts = append(parts, p)
			}
			fmt.Fprintln(out, "  "+ui.LabelValue("statuses", strings.Join(parts, ", ")))
		}
	}
}

func printNarration(out io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(out, ui.Story.Render(ui.IconScroll+" "+l))
	}
}
