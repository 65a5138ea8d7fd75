package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/engine"
)

// ErrSimulated is returned by collaborators configured to fail.
var ErrSimulated = errors.New("simulated collaborator failure")

// MockPiles: in-memory имплементация engine.PileManager.
// Records every operation and serves candidates per pile.
type MockPiles struct {
	mu         sync.Mutex
	ops        []engine.PileOp
	candidates map[effect.Pile][]engine.Card

	// Err, when set, is returned by Apply.
	Err error
}

// NewMockPiles creates a MockPiles with no cards.
func NewMockPiles() *MockPiles {
	return &MockPiles{candidates: make(map[effect.Pile][]engine.Card)}
}

// SetCards sets the cards returned for pile.
func (m *MockPiles) SetCards(pile effect.Pile, cards ...engine.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[pile] = cards
}

func (m *MockPiles) Candidates(_ context.Context, _ string, pile effect.Pile) ([]engine.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.Card(nil), m.candidates[pile]...), nil
}

func (m *MockPiles) Apply(_ context.Context, op engine.PileOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.ops = append(m.ops, op)
	return nil
}

// Ops returns a copy of the recorded operations.
func (m *MockPiles) Ops() []engine.PileOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.PileOp(nil), m.ops...)
}

// FirstChooser picks the first count candidates, or cancels when Cancel is set.
type FirstChooser struct {
	Cancel  bool
	Prompts []string
}

func (c *FirstChooser) Choose(_ context.Context, prompt string, candidates []engine.Card, count int) ([]engine.Card, error) {
	c.Prompts = append(c.Prompts, prompt)
	if c.Cancel {
		return nil, engine.ErrCancelled
	}
	return candidates[:min(count, len(candidates))], nil
}

// EchoNarrator returns the prompt wrapped in a fixed template.
type EchoNarrator struct {
	Prompts []string
}

func (n *EchoNarrator) Narrate(_ context.Context, prompt string) (string, error) {
	n.Prompts = append(n.Prompts, prompt)
	return fmt.Sprintf("~ %s ~", prompt), nil
}

// MemoryBindings: in-memory имплементация engine.BindingStore.
type MemoryBindings struct {
	mu       sync.RWMutex
	bindings map[string]engine.Binding
	order    []string
}

// NewMemoryBindings creates an empty store.
func NewMemoryBindings() *MemoryBindings {
	return &MemoryBindings{bindings: make(map[string]engine.Binding)}
}

func (m *MemoryBindings) SaveBinding(_ context.Context, b engine.Binding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[b.ID]; !ok {
		m.order = append(m.order, b.ID)
	}
	m.bindings[b.ID] = b
	return nil
}

func (m *MemoryBindings) LoadBindings(_ context.Context, ownerID string) ([]engine.Binding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Binding
	for _, id := range m.order {
		if b, ok := m.bindings[id]; ok && b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MemoryBindings) DeleteBinding(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[id]; !ok {
		return fmt.Errorf("%w: %s", engine.ErrBindingNotFound, id)
	}
	delete(m.bindings, id)
	return nil
}
