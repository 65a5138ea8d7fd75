package engine

import (
	"context"

	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/model"
)

// Entities resolves the two combatants of an encounter.
type Entities interface {
	Player() *model.Entity
	Enemy() *model.Entity
}

// Encounter is the plain Entities implementation.
type Encounter struct {
	P *model.Entity
	E *model.Entity
}

func (e *Encounter) Player() *model.Entity { return e.P }
func (e *Encounter) Enemy() *model.Entity  { return e.E }

// ByID returns the combatant with id.
func ByID(ents Entities, id string) (*model.Entity, bool) {
	if p := ents.Player(); p != nil && p.ID() == id {
		return p, true
	}
	if e := ents.Enemy(); e != nil && e.ID() == id {
		return e, true
	}
	return nil, false
}

// PileKind is the card-pile operation requested from the pile manager.
type PileKind string

const (
	PileDraw          PileKind = "draw"
	PileDiscard       PileKind = "discard"
	PileExhaust       PileKind = "exhaust"
	PileAddToHand     PileKind = "add_to_hand"
	PileAddToDeck     PileKind = "add_to_deck"
	PileReduceCost    PileKind = "reduce_cost"
	PileCopy          PileKind = "copy_card"
	PileTriggerEffect PileKind = "trigger_effect"
)

// Card is the pile manager's view of one card.
type Card struct {
	ID   string
	Name string
}

// PileOp is one delegated card-pile operation.
type PileOp struct {
	Kind     PileKind
	OwnerID  string
	Selector effect.PileSelector
	Operator effect.Operator // "=" asks for exactly Count cards
	Count    int             // cards addressed; 0 with SelectAll means every card
	Amount   int             // reduce_cost only
	CardID   string          // add_to_hand / add_to_deck
	Payload  string          // raw JSON payload, if any
	Cards    []Card          // cards picked by the player for the choose mode
}

// PileManager owns the card piles. The engine only describes what to do.
type PileManager interface {
	// Candidates lists the cards of a pile eligible for an interactive choice.
	Candidates(ctx context.Context, ownerID string, pile effect.Pile) ([]Card, error)
	Apply(ctx context.Context, op PileOp) error
}

// Chooser asks the player to pick up to count cards from candidates.
// Returning ErrCancelled aborts the rest of the batch.
type Chooser interface {
	Choose(ctx context.Context, prompt string, candidates []Card, count int) ([]Card, error)
}

// Narrator produces narrative text from a prompt.
type Narrator interface {
	Narrate(ctx context.Context, prompt string) (string, error)
}

// Binding is a registered trigger -> effect text ability.
type Binding struct {
	ID             string `yaml:"id" json:"id"`
	OwnerID        string `yaml:"owner_id" json:"owner_id"`
	Trigger        string `yaml:"trigger" json:"trigger"`
	Effect         string `yaml:"effect" json:"effect"`
	RemainingTurns int    `yaml:"remaining_turns,omitempty" json:"remaining_turns,omitempty"` // 0 = until removed
}

// AbilitySink records trigger bindings.
type AbilitySink interface {
	Register(ctx context.Context, b Binding) (Binding, error)
}

// BindingStore persists bindings between sessions.
type BindingStore interface {
	SaveBinding(ctx context.Context, b Binding) error
	LoadBindings(ctx context.Context, ownerID string) ([]Binding, error)
	DeleteBinding(ctx context.Context, id string) error
}

// SnapshotStore persists entity snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s model.Snapshot) error
	LoadSnapshot(ctx context.Context, id string) (model.Snapshot, error)
}
