package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectlang/internal/engine"
)

func TestLoadState_DemoWhenMissing(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		st, err := loadState(path)
		require.NoError(t, err)
		assert.Equal(t, "player", st.Player.ID)
		assert.True(t, st.Player.Player)
		assert.Equal(t, "enemy", st.Enemy.ID)
	}
}

func TestLoadState_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	raw := `
player:
  id: p1
  name: Rogue
  stats: {hp: 30, max_hp: 30}
  statuses:
    - {id: poison, stacks: 2}
enemy:
  id: e1
  name: Bandit
  player: true
  stats: {hp: 20, max_hp: 20}
piles:
  p1:
    hand:
      - {id: strike, name: Strike}
abilities:
  - {id: b1, owner_id: p1, trigger: turn_start, effect: "ME.block + 1"}
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	st, err := loadState(path)
	require.NoError(t, err)
	assert.True(t, st.Player.Player)
	assert.False(t, st.Enemy.Player, "the enemy is never a player")
	assert.Equal(t, 2, st.Player.Statuses[0].Stacks)
	assert.Equal(t, "Strike", st.Piles["p1"]["hand"][0].Name)

	enc := st.encounter()
	assert.Equal(t, 30.0, enc.P.StatOr("hp", 0))
	assert.Equal(t, 2, enc.P.Statuses().Stacks("poison"))

	got, err := stateBindings{st: st}.LoadBindings(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []engine.Binding{{ID: "b1", OwnerID: "p1", Trigger: "turn_start", Effect: "ME.block + 1"}}, got)
}

func TestLoadState_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":  "player: [",
		"no ids":     "player: {name: A}\nenemy: {name: B}\n",
		"shared ids": "player: {id: x}\nenemy: {id: x}\n",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.yaml")
			require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
			_, err := loadState(path)
			require.Error(t, err)
		})
	}
}

func TestSaveState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	st := demoState()
	enc := st.encounter()
	enc.P.SetStat("hp", 12)
	enc.E.Statuses().Merge("weak", 1, 2)
	st.capture(enc)

	require.NoError(t, saveState(path, st))
	got, err := loadState(path)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.Player.Stats["hp"])
	assert.Equal(t, st.Enemy.Statuses, got.Enemy.Statuses)
	assert.Equal(t, st.Piles, got.Piles)
}

func TestStateBindings(t *testing.T) {
	ctx := context.Background()
	s := stateBindings{st: demoState()}

	b := engine.Binding{ID: "b1", OwnerID: "player", Trigger: "turn_end", Effect: "OP.hp - 1", RemainingTurns: 2}
	require.NoError(t, s.SaveBinding(ctx, b))
	b.RemainingTurns = 1
	require.NoError(t, s.SaveBinding(ctx, b))

	got, err := s.LoadBindings(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, []engine.Binding{b}, got)

	require.NoError(t, s.DeleteBinding(ctx, "b1"))
	require.ErrorIs(t, s.DeleteBinding(ctx, "b1"), engine.ErrBindingNotFound)
}
