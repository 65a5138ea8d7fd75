package engine

import (
	"slices"

	"github.com/udisondev/effectlang/internal/data"
	"github.com/udisondev/effectlang/internal/effect"
)

type conflictKey struct {
	target effect.Target
	attr   string
}

// step is one expression bound to a single side. The two steps of an ALL
// expression share one operand, so its value is resolved once.
type step struct {
	e       *effect.Expression
	operand *operand
}

// operand caches the resolved value of an expression across its steps.
type operand struct {
	set bool
	v   float64
}

// order returns the batch in execution order. ALL mutations are split into a
// self step and an opponent step first. Steps that mutate the same attribute
// family on the same entity are sorted by ascending priority within the
// positions they already occupy; everything else keeps its place.
func order(reg *data.Registry, exprs []*effect.Expression) []step {
	steps := expand(exprs)
	out := slices.Clone(steps)

	groups := make(map[conflictKey][]int)
	var keys []conflictKey
	for i, st := range steps {
		e := st.e
		if e.Kind == effect.KindConditional || e.Attribute == "" {
			continue
		}
		k := conflictKey{target: e.Target.Resolved(), attr: reg.ConflictKey(e.Attribute)}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}

	for _, k := range keys {
		slots := groups[k]
		if len(slots) < 2 {
			continue
		}
		members := make([]step, len(slots))
		for j, i := range slots {
			members[j] = steps[i]
		}
		slices.SortStableFunc(members, func(a, b step) int {
			return priority(reg, a.e) - priority(reg, b.e)
		})
		for j, i := range slots {
			out[i] = members[j]
		}
	}
	return out
}

// expand splits every valid ALL expression into per-side copies.
func expand(exprs []*effect.Expression) []step {
	steps := make([]step, 0, len(exprs))
	for _, e := range exprs {
		if !e.Valid || e.Kind == effect.KindConditional || e.Kind == effect.KindNarrate || e.Target.Resolved() != effect.TargetBoth {
			steps = append(steps, step{e: e})
			continue
		}
		shared := &operand{}
		for _, t := range []effect.Target{effect.TargetSelf, effect.TargetOpponent} {
			c := *e
			c.Target = t
			steps = append(steps, step{e: &c, operand: shared})
		}
	}
	return steps
}

func priority(reg *data.Registry, e *effect.Expression) int {
	def, _ := reg.Attribute(e.Attribute)
	return def.Priority
}
