package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/model"
)

func TestAbilityRepository_SaveLoadDelete(t *testing.T) {
	repo := NewAbilityRepository(pool(t))
	ctx := context.Background()

	first := engine.Binding{ID: "b1", OwnerID: "player", Trigger: "turn_start", Effect: "ME.block + 3"}
	second := engine.Binding{ID: "b2", OwnerID: "player", Trigger: "turn_end", Effect: "OP.hp - 1", RemainingTurns: 2}
	other := engine.Binding{ID: "b3", OwnerID: "enemy", Trigger: "turn_start", Effect: "ME.block + 1"}
	for _, b := range []engine.Binding{first, second, other} {
		require.NoError(t, repo.SaveBinding(ctx, b))
	}

	got, err := repo.LoadBindings(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, []engine.Binding{first, second}, got)

	second.RemainingTurns = 1
	require.NoError(t, repo.SaveBinding(ctx, second))
	got, err = repo.LoadBindings(ctx, "player")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second, got[1], "upsert keeps registration order")

	require.NoError(t, repo.DeleteBinding(ctx, "b1"))
	require.ErrorIs(t, repo.DeleteBinding(ctx, "b1"), engine.ErrBindingNotFound)

	got, err = repo.LoadBindings(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, []engine.Binding{second}, got)
}

func TestAbilityRepository_BacksAbilityBook(t *testing.T) {
	repo := NewAbilityRepository(pool(t))
	ctx := context.Background()

	book := engine.NewAbilityBook(repo)
	b, err := book.Register(ctx, engine.Binding{OwnerID: "player", Trigger: "card_played", Effect: "ME.energy + 1"})
	require.NoError(t, err)

	reloaded := engine.NewAbilityBook(repo)
	require.NoError(t, reloaded.Load(ctx, "player"))
	require.Len(t, reloaded.Bindings("player"), 1)
	assert.Equal(t, b, reloaded.Bindings("player")[0])
}

func TestEntityRepository_RoundTrip(t *testing.T) {
	repo := NewEntityRepository(pool(t))
	ctx := context.Background()

	e := model.NewEntity("enemy", "Slime", false, map[string]float64{"hp": 40, "max_hp": 40})
	e.SetModifier("damage_mult", 1.5)
	e.AddTimedModifier(model.StatModifier{Stat: "damage_mult", Type: model.ModMul, Value: 2, Remaining: 1})
	e.Statuses().Merge("poison", 3, 0)
	e.Statuses().Merge("weak", 1, 2)

	require.NoError(t, repo.SaveSnapshot(ctx, e.Snapshot()))

	got, err := repo.LoadSnapshot(ctx, "enemy")
	require.NoError(t, err)
	assert.Equal(t, e.Snapshot(), got)

	e.SetStat("hp", 12)
	require.NoError(t, repo.SaveSnapshot(ctx, e.Snapshot()))
	got, err = repo.LoadSnapshot(ctx, "enemy")
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.Stats["hp"])
}

func TestEntityRepository_NotFound(t *testing.T) {
	repo := NewEntityRepository(pool(t))

	_, err := repo.LoadSnapshot(context.Background(), "ghost")
	require.ErrorIs(t, err, engine.ErrSnapshotNotFound)
}

func TestEncodeSnapshot_EmptyCollections(t *testing.T) {
	row, err := EncodeSnapshot(model.Snapshot{ID: "x", Name: "X"})
	require.NoError(t, err)

	assert.JSONEq(t, `{}`, string(row.Stats))
	assert.JSONEq(t, `{}`, string(row.Modifiers))
	assert.JSONEq(t, `[]`, string(row.Timed))
	assert.JSONEq(t, `[]`, string(row.Statuses))

	s, err := row.Decode()
	require.NoError(t, err)
	assert.Equal(t, "x", s.ID)
	assert.Empty(t, s.Statuses)
}
