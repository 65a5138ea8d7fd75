package engine

import (
	"github.com/udisondev/effectlang/internal/data"
	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/model"
)

// Context carries caller-supplied values for one execution, such as the
// energy spent to play the card, and collects narration produced on the way.
type Context struct {
	Vars      map[string]float64
	Narration []string

	depth int
}

// NewContext creates a Context with the given variables.
func NewContext(vars map[string]float64) *Context {
	if vars == nil {
		vars = make(map[string]float64)
	}
	return &Context{Vars: vars}
}

// Var returns a caller-supplied value.
func (c *Context) Var(name string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.Vars[name]
	return v, ok
}

// sides maps source-relative targets to entities for one execution.
type sides struct {
	self     *model.Entity
	opponent *model.Entity
	operand  *operand // shared by the per-side steps of an ALL expression
}

func (s sides) of(t effect.Target) *model.Entity {
	if t == effect.TargetOpponent {
		return s.opponent
	}
	return s.self
}

// targets returns the entities an expression addresses; ALL yields both.
func (s sides) targets(t effect.Target) []*model.Entity {
	switch t.Resolved() {
	case effect.TargetOpponent:
		return nonNil(s.opponent)
	case effect.TargetBoth:
		return nonNil(s.self, s.opponent)
	}
	return nonNil(s.self)
}

func nonNil(ents ...*model.Entity) []*model.Entity {
	out := ents[:0]
	for _, e := range ents {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// scope implements eval.Scope over live entities. Every call reads the
// entity again.
type scope struct {
	reg   *data.Registry
	sides sides
	ctx   *Context
}

func (s scope) Stat(side effect.Target, name string) (float64, bool) {
	ent := s.sides.of(side)
	if ent == nil {
		return 0, false
	}
	def, ok := s.reg.Attribute(name)
	if !ok || !def.Numeric() {
		if v, ok := ent.Stat(name); ok {
			return v, true
		}
		return 0, false
	}
	if def.Category == data.CategoryModifier {
		return ent.Modifier(name, def.Default), true
	}
	return ent.StatOr(name, def.Default), true
}

func (s scope) Stacks(side effect.Target, statusID string) float64 {
	ent := s.sides.of(side)
	if ent == nil {
		return 0
	}
	return float64(ent.Statuses().Stacks(statusID))
}

func (s scope) Var(name string) (float64, bool) {
	return s.ctx.Var(name)
}
