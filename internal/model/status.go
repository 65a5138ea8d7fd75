package model

import (
	"slices"
	"sync"
)

// StatusInstance is one active status on an entity.
// Duration counts remaining turns; 0 means the status does not expire.
type StatusInstance struct {
	ID       string `yaml:"id" json:"id"`
	Stacks   int    `yaml:"stacks" json:"stacks"`
	Duration int    `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// Permanent reports whether the instance never expires.
func (s StatusInstance) Permanent() bool {
	return s.Duration == 0
}

// StatusList tracks active statuses in application order.
//
// Thread-safe: all methods are protected by sync.RWMutex.
type StatusList struct {
	mu    sync.RWMutex
	items []*StatusInstance
}

// NewStatusList creates an empty StatusList.
func NewStatusList() *StatusList {
	return &StatusList{items: make([]*StatusInstance, 0, 8)}
}

// Merge adds stacks to the instance with the same ID, or creates it.
// Stack counts are additive; the longer duration wins and a non-expiring
// instance stays non-expiring. An instance left with no stacks is removed.
// Returns the resulting instance and whether it still exists.
func (l *StatusList) Merge(id string, stacks, duration int) (StatusInstance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.index(id); i >= 0 {
		existing := l.items[i]
		existing.Stacks += stacks
		existing.Duration = longerDuration(existing.Duration, duration)
		if existing.Stacks <= 0 {
			l.items = slices.Delete(l.items, i, i+1)
			return *existing, false
		}
		return *existing, true
	}

	if stacks <= 0 {
		return StatusInstance{ID: id}, false
	}
	inst := &StatusInstance{ID: id, Stacks: stacks, Duration: duration}
	l.items = append(l.items, inst)
	return *inst, true
}

// Set replaces the stack count and duration of id. A non-positive count
// removes the instance.
func (l *StatusList) Set(id string, stacks, duration int) (StatusInstance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if stacks <= 0 {
		if i >= 0 {
			l.items = slices.Delete(l.items, i, i+1)
		}
		return StatusInstance{ID: id}, false
	}
	if i >= 0 {
		l.items[i].Stacks = stacks
		l.items[i].Duration = duration
		return *l.items[i], true
	}
	inst := &StatusInstance{ID: id, Stacks: stacks, Duration: duration}
	l.items = append(l.items, inst)
	return *inst, true
}

// Remove deletes the instance regardless of its stacks.
// Returns false if the status was not present.
func (l *StatusList) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	return true
}

// RemoveWhere deletes every instance whose ID matches and returns the removed IDs.
func (l *StatusList) RemoveWhere(match func(id string) bool) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var removed []string
	kept := l.items[:0]
	for _, s := range l.items {
		if match(s.ID) {
			removed = append(removed, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	clear(l.items[len(kept):])
	l.items = kept
	return removed
}

// Get returns a copy of the instance.
func (l *StatusList) Get(id string) (StatusInstance, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.index(id); i >= 0 {
		return *l.items[i], true
	}
	return StatusInstance{}, false
}

// Stacks returns the stack count of id, 0 when absent.
func (l *StatusList) Stacks(id string) int {
	s, _ := l.Get(id)
	return s.Stacks
}

// Len returns the number of active statuses.
func (l *StatusList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// All returns copies of the active statuses in application order.
func (l *StatusList) All() []StatusInstance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]StatusInstance, 0, len(l.items))
	for _, s := range l.items {
		out = append(out, *s)
	}
	return out
}

// Tick decrements timed statuses by one turn and drops the ones that ran out.
// Returns the expired IDs.
func (l *StatusList) Tick() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var expired []string
	kept := l.items[:0]
	for _, s := range l.items {
		if !s.Permanent() {
			s.Duration--
			if s.Duration <= 0 {
				expired = append(expired, s.ID)
				continue
			}
		}
		kept = append(kept, s)
	}
	clear(l.items[len(kept):])
	l.items = kept
	return expired
}

// Replace swaps the whole list, used when restoring a snapshot.
func (l *StatusList) Replace(items []StatusInstance) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = l.items[:0]
	for _, s := range items {
		if s.Stacks <= 0 {
			continue
		}
		inst := s
		l.items = append(l.items, &inst)
	}
}

func (l *StatusList) index(id string) int {
	return slices.IndexFunc(l.items, func(s *StatusInstance) bool { return s.ID == id })
}

func longerDuration(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return max(a, b)
}
