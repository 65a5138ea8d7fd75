package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/model"
)

// encounterState is the YAML encounter file: both combatants, their card
// piles and, for the memory driver, the registered abilities.
type encounterState struct {
	Player    model.Snapshot                           `yaml:"player"`
	Enemy     model.Snapshot                           `yaml:"enemy"`
	Piles     map[string]map[effect.Pile][]engine.Card `yaml:"piles,omitempty"`
	Abilities []engine.Binding                         `yaml:"abilities,omitempty"`
}

func demoState() *encounterState {
	return &encounterState{
		Player: model.Snapshot{
			ID:     "player",
			Name:   "Hero",
			Player: true,
			Stats: map[string]float64{
				"hp": 50, "max_hp": 80,
				"lust": 0, "max_lust": 100,
				"energy": 3, "max_energy": 3,
				"block": 0, "gold": 10,
			},
		},
		Enemy: model.Snapshot{
			ID:   "enemy",
			Name: "Slime",
			Stats: map[string]float64{
				"hp": 40, "max_hp": 40,
				"lust": 0, "max_lust": 60,
				"block": 0,
			},
		},
		Piles: map[string]map[effect.Pile][]engine.Card{
			"player": {
				effect.PileHand: {{ID: "strike", Name: "Strike"}, {ID: "defend", Name: "Defend"}},
				effect.PileDraw: {
					{ID: "strike", Name: "Strike"},
					{ID: "bash", Name: "Bash"},
					{ID: "defend", Name: "Defend"},
					{ID: "tease", Name: "Tease"},
				},
				effect.PileDiscard: {{ID: "wound", Name: "Wound"}},
			},
		},
	}
}

// loadState reads the encounter at path. An empty path or a missing file
// yields the demo encounter.
func loadState(path string) (*encounterState, error) {
	if path == "" {
		return demoState(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return demoState(), nil
		}
		return nil, fmt.Errorf("reading state %s: %w", path, err)
	}

	var st encounterState
	if err := yaml.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("parsing state %s: %w", path, err)
	}
	if st.Player.ID == "" || st.Enemy.ID == "" {
		return nil, fmt.Errorf("state %s: player and enemy ids are required", path)
	}
	if st.Player.ID == st.Enemy.ID {
		return nil, fmt.Errorf("state %s: player and enemy share id %q", path, st.Player.ID)
	}
	st.Player.Player = true
	st.Enemy.Player = false
	return &st, nil
}

func saveState(path string, st *encounterState) error {
	raw, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating state dir: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing state %s: %w", path, err)
	}
	return nil
}

// encounter builds live entities from the snapshots.
func (st *encounterState) encounter() *engine.Encounter {
	return &engine.Encounter{
		P: model.FromSnapshot(st.Player),
		E: model.FromSnapshot(st.Enemy),
	}
}

// capture copies the live entity state back into the file form.
func (st *encounterState) capture(enc *engine.Encounter) {
	st.Player = enc.P.Snapshot()
	st.Enemy = enc.E.Snapshot()
}

// stateBindings keeps abilities inside the encounter file. It backs the
// memory driver.
type stateBindings struct {
	st *encounterState
}

func (s stateBindings) SaveBinding(_ context.Context, b engine.Binding) error {
	i := slices.IndexFunc(s.st.Abilities, func(x engine.Binding) bool { return x.ID == b.ID })
	if i >= 0 {
		s.st.Abilities[i] = b
		return nil
	}
	s.st.Abilities = append(s.st.Abilities, b)
	return nil
}

func (s stateBindings) LoadBindings(_ context.Context, ownerID string) ([]engine.Binding, error) {
	var out []engine.Binding
	for _, b := range s.st.Abilities {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s stateBindings) DeleteBinding(_ context.Context, id string) error {
	i := slices.IndexFunc(s.st.Abilities, func(x engine.Binding) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", engine.ErrBindingNotFound, id)
	}
	s.st.Abilities = slices.Delete(s.st.Abilities, i, i+1)
	return nil
}

// restoreSnapshots overlays stored snapshots onto the encounter entities.
// Entities without a stored snapshot keep their file state.
func restoreSnapshots(ctx context.Context, store engine.SnapshotStore, enc *engine.Encounter) error {
	for _, ent := range []*model.Entity{enc.P, enc.E} {
		snap, err := store.LoadSnapshot(ctx, ent.ID())
		if errors.Is(err, engine.ErrSnapshotNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		snap.Player = ent.IsPlayer()
		ent.Restore(snap)
	}
	return nil
}

func saveSnapshots(ctx context.Context, store engine.SnapshotStore, enc *engine.Encounter) error {
	for _, ent := range []*model.Entity{enc.P, enc.E} {
		if err := store.SaveSnapshot(ctx, ent.Snapshot()); err != nil {
			return err
		}
	}
	return nil
}
