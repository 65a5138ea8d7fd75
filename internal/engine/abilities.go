package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// AbilityBook keeps trigger bindings per owner and fires them.
// It implements AbilitySink. Thread-safe for concurrent access.
type AbilityBook struct {
	mu sync.RWMutex

	// trigger → ownerID → bindings in registration order
	index map[string]map[string][]Binding

	store BindingStore
}

// NewAbilityBook creates an empty book. store may be nil for in-memory use.
func NewAbilityBook(store BindingStore) *AbilityBook {
	return &AbilityBook{
		index: make(map[string]map[string][]Binding, 16),
		store: store,
	}
}

// Register records b, assigning an ID when it has none, and persists it
// when a store is configured.
func (a *AbilityBook) Register(ctx context.Context, b Binding) (Binding, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if a.store != nil {
		if err := a.store.SaveBinding(ctx, b); err != nil {
			return Binding{}, fmt.Errorf("saving binding %s: %w", b.ID, err)
		}
	}

	a.mu.Lock()
	a.add(b)
	a.mu.Unlock()

	slog.Debug("binding registered",
		"bindingID", b.ID,
		"owner", b.OwnerID,
		"trigger", b.Trigger,
		"turns", b.RemainingTurns)
	return b, nil
}

func (a *AbilityBook) add(b Binding) {
	owners := a.index[b.Trigger]
	if owners == nil {
		owners = make(map[string][]Binding, 2)
		a.index[b.Trigger] = owners
	}
	owners[b.OwnerID] = append(owners[b.OwnerID], b)
}

// Load replaces the in-memory bindings of ownerID with the stored ones.
func (a *AbilityBook) Load(ctx context.Context, ownerID string) error {
	if a.store == nil {
		return nil
	}
	bindings, err := a.store.LoadBindings(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("loading bindings for %s: %w", ownerID, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.dropOwner(ownerID)
	for _, b := range bindings {
		a.add(b)
	}
	return nil
}

func (a *AbilityBook) dropOwner(ownerID string) {
	for _, owners := range a.index {
		delete(owners, ownerID)
	}
}

// Bindings returns every binding of ownerID, ordered by trigger then
// registration.
func (a *AbilityBook) Bindings(ownerID string) []Binding {
	a.mu.RLock()
	defer a.mu.RUnlock()

	triggers := make([]string, 0, len(a.index))
	for t := range a.index {
		triggers = append(triggers, t)
	}
	slices.Sort(triggers)

	var out []Binding
	for _, t := range triggers {
		out = append(out, a.index[t][ownerID]...)
	}
	return out
}

// Remove deletes a binding by ID.
func (a *AbilityBook) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	found := false
	for _, owners := range a.index {
		for owner, list := range owners {
			i := slices.IndexFunc(list, func(b Binding) bool { return b.ID == id })
			if i >= 0 {
				owners[owner] = slices.Delete(list, i, i+1)
				found = true
			}
		}
	}
	a.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s", ErrBindingNotFound, id)
	}
	if a.store != nil {
		if err := a.store.DeleteBinding(ctx, id); err != nil {
			return fmt.Errorf("deleting binding %s: %w", id, err)
		}
	}
	return nil
}

// Fire runs every binding of ownerID registered for trigger, once each and in
// registration order. Bindings registered while firing wait for the next
// event. A failing binding is logged and does not stop the others; a
// cancelled selection stops the round.
func (a *AbilityBook) Fire(ctx context.Context, x *Executor, trigger, ownerID string, ectx *Context) (int, error) {
	a.mu.RLock()
	bindings := slices.Clone(a.index[trigger][ownerID])
	a.mu.RUnlock()

	owner, ok := ByID(x.Entities(), ownerID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoEntity, ownerID)
	}

	fired := 0
	for _, b := range bindings {
		err := x.ExecuteString(ctx, b.Effect, owner.IsPlayer(), ectx)
		if errors.Is(err, ErrCancelled) {
			return fired, err
		}
		fired++
		if err != nil {
			slog.Warn("ability failed",
				"bindingID", b.ID,
				"trigger", trigger,
				"owner", ownerID,
				"error", err)
		}
	}
	return fired, ctx.Err()
}

// EndTurn counts down the timed bindings of ownerID and removes the expired
// ones. Returns the IDs removed.
func (a *AbilityBook) EndTurn(ctx context.Context, ownerID string) ([]string, error) {
	var expired []string
	var updated []Binding

	a.mu.Lock()
	for _, owners := range a.index {
		list := owners[ownerID]
		kept := list[:0]
		for _, b := range list {
			if b.RemainingTurns > 0 {
				b.RemainingTurns--
				if b.RemainingTurns == 0 {
					expired = append(expired, b.ID)
					continue
				}
				updated = append(updated, b)
			}
			kept = append(kept, b)
		}
		owners[ownerID] = kept
	}
	a.mu.Unlock()

	if a.store == nil {
		return expired, nil
	}
	for _, b := range updated {
		if err := a.store.SaveBinding(ctx, b); err != nil {
			return expired, fmt.Errorf("saving binding %s: %w", b.ID, err)
		}
	}
	for _, id := range expired {
		if err := a.store.DeleteBinding(ctx, id); err != nil {
			return expired, fmt.Errorf("deleting expired binding %s: %w", id, err)
		}
	}
	return expired, nil
}
