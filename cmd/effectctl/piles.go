package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/engine"
)

var errUnknownPileOp = errors.New("unknown pile operation")

// deck is an in-memory engine.PileManager over the encounter file piles.
// Exhausted cards are kept in the "exhaust" pile; cost reductions are
// tracked per card id.
type deck struct {
	mu    sync.Mutex
	piles map[string]map[effect.Pile][]engine.Card
	costs map[string]int
	rng   *rand.Rand
}

const pileExhaust effect.Pile = "exhaust"

func newDeck(piles map[string]map[effect.Pile][]engine.Card, seed uint64) *deck {
	if piles == nil {
		piles = make(map[string]map[effect.Pile][]engine.Card)
	}
	return &deck{
		piles: piles,
		costs: make(map[string]int),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (d *deck) owner(id string) map[effect.Pile][]engine.Card {
	p, ok := d.piles[id]
	if !ok {
		p = make(map[effect.Pile][]engine.Card)
		d.piles[id] = p
	}
	return p
}

func (d *deck) Candidates(_ context.Context, ownerID string, pile effect.Pile) ([]engine.Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.owner(ownerID)[pile]), nil
}

func (d *deck) Apply(_ context.Context, op engine.PileOp) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	piles := d.owner(op.OwnerID)
	switch op.Kind {
	case engine.PileAddToHand, engine.PileAddToDeck:
		dst := effect.PileHand
		if op.Kind == engine.PileAddToDeck {
			dst = effect.PileDraw
		}
		card := engine.Card{ID: op.CardID, Name: op.CardID}
		if name := gjson.Get(op.Payload, "name"); name.Exists() {
			card.Name = name.String()
		}
		for range max(op.Count, 1) {
			piles[dst] = append(piles[dst], card)
		}
		slog.Debug("cards added", "owner", op.OwnerID, "pile", dst, "card", card.ID, "count", max(op.Count, 1))
		return nil
	}

	src := op.Selector.Pile
	picked := d.pick(piles, op)
	if len(picked) == 0 {
		return nil
	}

	switch op.Kind {
	case engine.PileDraw:
		piles[src] = without(piles[src], picked)
		piles[effect.PileHand] = append(piles[effect.PileHand], picked...)
	case engine.PileDiscard:
		piles[src] = without(piles[src], picked)
		piles[effect.PileDiscard] = append(piles[effect.PileDiscard], picked...)
	case engine.PileExhaust:
		piles[src] = without(piles[src], picked)
		piles[pileExhaust] = append(piles[pileExhaust], picked...)
	case engine.PileCopy:
		piles[effect.PileHand] = append(piles[effect.PileHand], picked...)
	case engine.PileReduceCost:
		for _, c := range picked {
			d.costs[c.ID] += op.Amount
		}
	case engine.PileTriggerEffect:
		for _, c := range picked {
			slog.Info("card effect triggered", "owner", op.OwnerID, "card", c.ID)
		}
	default:
		return fmt.Errorf("%w: %s", errUnknownPileOp, op.Kind)
	}
	slog.Debug("pile operation applied", "kind", op.Kind, "owner", op.OwnerID, "selector", op.Selector, "cards", len(picked))
	return nil
}

// pick selects the addressed cards of op's source pile. Cards chosen by the
// player win over the selector mode.
func (d *deck) pick(piles map[effect.Pile][]engine.Card, op engine.PileOp) []engine.Card {
	if len(op.Cards) > 0 {
		return op.Cards
	}
	cards := piles[op.Selector.Pile]
	n := op.Count
	if op.Selector.Mode == effect.SelectAll || n > len(cards) {
		n = len(cards)
	}

	switch op.Selector.Mode {
	case effect.SelectRightmost:
		return slices.Clone(cards[len(cards)-n:])
	case effect.SelectRandom:
		idx := d.rng.Perm(len(cards))[:n]
		out := make([]engine.Card, 0, n)
		for _, i := range idx {
			out = append(out, cards[i])
		}
		return out
	default:
		return slices.Clone(cards[:n])
	}
}

// without removes one occurrence of each picked card.
func without(cards, picked []engine.Card) []engine.Card {
	out := slices.Clone(cards)
	for _, p := range picked {
		if i := slices.Index(out, p); i >= 0 {
			out = slices.Delete(out, i, i+1)
		}
	}
	return out
}
