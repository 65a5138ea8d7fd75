package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/engine"
)

func cards(ids ...string) []engine.Card {
	out := make([]engine.Card, 0, len(ids))
	for _, id := range ids {
		out = append(out, engine.Card{ID: id, Name: id})
	}
	return out
}

func testDeck() *deck {
	return newDeck(map[string]map[effect.Pile][]engine.Card{
		"player": {
			effect.PileHand: cards("a", "b", "c"),
			effect.PileDraw: cards("d", "e", "f"),
		},
	}, 1)
}

func TestDeck_Apply(t *testing.T) {
	ctx := context.Background()
	sel := func(p effect.Pile, m effect.SelectMode) effect.PileSelector {
		return effect.PileSelector{Pile: p, Mode: m}
	}

	tests := []struct {
		name string
		op   engine.PileOp
		want map[effect.Pile][]engine.Card
	}{
		{
			name: "draw leftmost",
			op:   engine.PileOp{Kind: engine.PileDraw, Selector: sel(effect.PileDraw, effect.SelectLeftmost), Count: 2},
			want: map[effect.Pile][]engine.Card{
				effect.PileHand: cards("a", "b", "c", "d", "e"),
				effect.PileDraw: cards("f"),
			},
		},
		{
			name: "draw more than available",
			op:   engine.PileOp{Kind: engine.PileDraw, Selector: sel(effect.PileDraw, effect.SelectLeftmost), Count: 9},
			want: map[effect.Pile][]engine.Card{
				effect.PileHand: cards("a", "b", "c", "d", "e", "f"),
				effect.PileDraw: cards(),
			},
		},
		{
			name: "discard rightmost",
			op:   engine.PileOp{Kind: engine.PileDiscard, Selector: sel(effect.PileHand, effect.SelectRightmost), Count: 1},
			want: map[effect.Pile][]engine.Card{
				effect.PileHand:    cards("a", "b"),
				effect.PileDiscard: cards("c"),
			},
		},
		{
			name: "exhaust all",
			op:   engine.PileOp{Kind: engine.PileExhaust, Selector: sel(effect.PileHand, effect.SelectAll)},
			want: map[effect.Pile][]engine.Card{
				effect.PileHand: cards(),
				pileExhaust:     cards("a", "b", "c"),
			},
		},
		{
			name: "copy keeps the source",
			op:   engine.PileOp{Kind: engine.PileCopy, Selector: sel(effect.PileDraw, effect.SelectLeftmost), Count: 1},
			want: map[effect.Pile][]engine.Card{
				effect.PileHand: cards("a", "b", "c", "d"),
				effect.PileDraw: cards("d", "e", "f"),
			},
		},
		{
			name: "chosen cards win over the mode",
			op: engine.PileOp{
				Kind:     engine.PileDiscard,
				Selector: sel(effect.PileHand, effect.SelectChoose),
				Count:    1,
				Cards:    cards("b"),
			},
			want: map[effect.Pile][]engine.Card{
				effect.PileHand:    cards("a", "c"),
				effect.PileDiscard: cards("b"),
			},
		},
		{
			name: "add to hand with payload name",
			op:   engine.PileOp{Kind: engine.PileAddToHand, CardID: "smite", Payload: `{"id":"smite","name":"Smite"}`, Count: 2},
			want: map[effect.Pile][]engine.Card{
				effect.PileHand: append(cards("a", "b", "c"), engine.Card{ID: "smite", Name: "Smite"}, engine.Card{ID: "smite", Name: "Smite"}),
			},
		},
		{
			name: "add to deck",
			op:   engine.PileOp{Kind: engine.PileAddToDeck, CardID: "wound"},
			want: map[effect.Pile][]engine.Card{
				effect.PileDraw: cards("d", "e", "f", "wound"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDeck()
			tt.op.OwnerID = "player"
			require.NoError(t, d.Apply(ctx, tt.op))
			for pile, want := range tt.want {
				got, err := d.Candidates(ctx, "player", pile)
				require.NoError(t, err)
				assert.ElementsMatch(t, want, got, "pile %s", pile)
			}
		})
	}
}

func TestDeck_RandomPicksDistinctCards(t *testing.T) {
	d := testDeck()
	ctx := context.Background()

	op := engine.PileOp{
		Kind:     engine.PileDiscard,
		OwnerID:  "player",
		Selector: effect.PileSelector{Pile: effect.PileHand, Mode: effect.SelectRandom},
		Count:    2,
	}
	require.NoError(t, d.Apply(ctx, op))

	hand, _ := d.Candidates(ctx, "player", effect.PileHand)
	discard, _ := d.Candidates(ctx, "player", effect.PileDiscard)
	assert.Len(t, hand, 1)
	assert.Len(t, discard, 2)
	assert.NotContains(t, discard, hand[0])
}

func TestDeck_ReduceCost(t *testing.T) {
	d := testDeck()
	op := engine.PileOp{
		Kind:     engine.PileReduceCost,
		OwnerID:  "player",
		Selector: effect.PileSelector{Pile: effect.PileHand, Mode: effect.SelectLeftmost},
		Count:    1,
		Amount:   2,
	}
	require.NoError(t, d.Apply(context.Background(), op))
	assert.Equal(t, map[string]int{"a": 2}, d.costs)
}

func TestDeck_UnknownOwnerHasEmptyPiles(t *testing.T) {
	d := testDeck()
	got, err := d.Candidates(context.Background(), "enemy", effect.PileHand)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPickCards(t *testing.T) {
	cands := cards("a", "b", "c")

	got, err := pickCards("1, 3", cands, 2)
	require.NoError(t, err)
	assert.Equal(t, cards("a", "c"), got)

	got, err = pickCards("  ", cands, 2)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, bad := range []string{"1 2 3", "0", "4", "x", "2 2"} {
		_, err := pickCards(bad, cands, 2)
		assert.Error(t, err, bad)
	}
}
