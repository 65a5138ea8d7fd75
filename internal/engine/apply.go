package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/udisondev/effectlang/internal/data"
	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/model"
)

// combine applies op to the current value. Division by zero keeps cur.
func combine(op effect.Operator, cur, v float64) float64 {
	switch op {
	case effect.OpAdd:
		return cur + v
	case effect.OpSub:
		return cur - v
	case effect.OpMul:
		return cur * v
	case effect.OpDiv:
		if v == 0 {
			return cur
		}
		return cur / v
	case effect.OpSet:
		return v
	}
	return cur
}

// resolve evaluates v, reusing the value already resolved by the other side
// of an ALL expression.
func (x *Executor) resolve(v effect.Value, s sides, ectx *Context) float64 {
	if s.operand != nil && s.operand.set {
		return s.operand.v
	}
	r := x.evaluator(s, ectx).Resolve(v)
	if s.operand != nil {
		s.operand.set, s.operand.v = true, r
	}
	return r
}

// numeric handles basic, maximum and modifier attributes.
// The operand is resolved once, before any target is touched.
func (x *Executor) numeric(e *effect.Expression, def data.AttributeDefinition, s sides, ectx *Context) error {
	amount := x.resolve(e.Value, s, ectx)

	for _, ent := range s.targets(e.Target) {
		if def.PlayerOnly && !ent.IsPlayer() {
			slog.Debug("player-only attribute skipped", "attribute", def.ID, "entity", ent.ID())
			continue
		}
		if def.Category == data.CategoryModifier {
			x.modifier(e, def, ent, amount)
			continue
		}
		if e.HasDuration() {
			slog.Debug("duration ignored", "attribute", def.ID, "duration", e.Duration)
		}

		cur := ent.StatOr(def.ID, def.Default)
		next := x.store(ent, def, def.Round(combine(e.Operator, cur, amount)))
		slog.Debug("stat changed",
			"entity", ent.ID(),
			"attribute", def.ID,
			"op", e.Operator,
			"from", cur,
			"to", next)
	}
	return nil
}

// store clamps v to the attribute bounds and the live value of its maximum,
// then re-clamps the attribute a maximum bounds.
func (x *Executor) store(ent *model.Entity, def data.AttributeDefinition, v float64) float64 {
	var dynMax float64
	var hasDynMax bool
	if def.MaxRef != "" {
		dynMax, hasDynMax = ent.Stat(def.MaxRef)
	}
	v = def.Clamp(v, dynMax, hasDynMax)
	ent.SetStat(def.ID, v)

	if def.Category != data.CategoryMaximum {
		return v
	}
	bounded, ok := x.reg.BoundedBy(def.ID)
	if !ok {
		return v
	}
	bdef, ok := x.reg.Attribute(bounded)
	if !ok {
		return v
	}
	if cur, ok := ent.Stat(bounded); ok && cur > v {
		ent.SetStat(bounded, bdef.Clamp(cur, v, true))
	}
	return v
}

// modifier changes a modifier-map entry. With a duration the change becomes a
// timed modifier instead of touching the base value; "=" always sets the base.
func (x *Executor) modifier(e *effect.Expression, def data.AttributeDefinition, ent *model.Entity, amount float64) {
	if e.HasDuration() && e.Operator != effect.OpSet {
		m := model.StatModifier{Stat: def.ID, Remaining: e.Duration}
		switch e.Operator {
		case effect.OpAdd:
			m.Type, m.Value = model.ModAdd, amount
		case effect.OpSub:
			m.Type, m.Value = model.ModAdd, -amount
		case effect.OpMul:
			m.Type, m.Value = model.ModMul, amount
		case effect.OpDiv:
			if amount == 0 {
				slog.Debug("timed division by zero skipped", "attribute", def.ID)
				return
			}
			m.Type, m.Value = model.ModMul, 1/amount
		}
		ent.AddTimedModifier(m)
		slog.Debug("timed modifier added", "entity", ent.ID(), "stat", m.Stat, "type", m.Type, "value", m.Value, "turns", m.Remaining)
		return
	}

	base, ok := ent.BaseModifier(def.ID)
	if !ok {
		base = def.Default
	}
	next := def.Clamp(def.Round(combine(e.Operator, base, amount)), 0, false)
	ent.SetModifier(def.ID, next)
	slog.Debug("modifier changed", "entity", ent.ID(), "stat", def.ID, "from", base, "to", next)
}

// status applies, sets or removes status instances.
func (x *Executor) status(e *effect.Expression, s sides, ectx *Context) error {
	op, ok := e.Value.(effect.StatusOperand)
	if !ok {
		return fail(e.Raw, fmt.Errorf("%w: status operand expected", effect.ErrMissingValue))
	}

	stacks := 0
	if op.Stacks != nil {
		stacks = int(math.Round(x.resolve(op.Stacks, s, ectx)))
	}

	for _, ent := range s.targets(e.Target) {
		list := ent.Statuses()
		switch {
		case op.Bulk != effect.BulkNone:
			removed := list.RemoveWhere(func(id string) bool { return x.bulkMatch(op.Bulk, id) })
			slog.Debug("statuses removed", "entity", ent.ID(), "bulk", op.Bulk, "removed", removed)
		case e.Operator == effect.OpRemove:
			list.Remove(op.ID)
			slog.Debug("status removed", "entity", ent.ID(), "status", op.ID)
		case e.Operator == effect.OpSet:
			inst, present := list.Set(op.ID, stacks, e.Duration)
			slog.Debug("status set", "entity", ent.ID(), "status", op.ID, "stacks", inst.Stacks, "present", present)
		default:
			inst, present := list.Merge(op.ID, stacks, e.Duration)
			slog.Debug("status applied", "entity", ent.ID(), "status", op.ID, "stacks", inst.Stacks, "present", present)
		}
	}
	return nil
}

func (x *Executor) bulkMatch(bulk effect.BulkRemoval, id string) bool {
	def, _ := x.reg.Status(id)
	switch bulk {
	case effect.BulkBuffs:
		return def.Polarity == data.PolarityBuff
	case effect.BulkDebuffs:
		return def.Polarity == data.PolarityDebuff
	case effect.BulkAll:
		return true
	}
	return false
}

// register hands ability bindings to the sink. The body is not executed.
func (x *Executor) register(ctx context.Context, e *effect.Expression, s sides) error {
	if x.abilities == nil {
		return fail(e.Raw, ErrNoAbilitySink)
	}
	body := effect.ValueText(e.Value)
	for _, ent := range s.targets(e.Target) {
		b, err := x.abilities.Register(ctx, Binding{
			OwnerID:        ent.ID(),
			Trigger:        e.Trigger,
			Effect:         body,
			RemainingTurns: e.Duration,
		})
		if err != nil {
			return fail(e.Raw, fmt.Errorf("register ability: %w", err))
		}
		slog.Debug("ability registered", "binding", b.ID, "owner", b.OwnerID, "trigger", b.Trigger)
	}
	return nil
}

// pile delegates a card-pile operation, resolving interactive choices first.
func (x *Executor) pile(ctx context.Context, e *effect.Expression, s sides, ectx *Context) error {
	if x.piles == nil {
		return fail(e.Raw, ErrNoPileManager)
	}
	def, _ := x.reg.Attribute(e.Attribute)

	n := 0
	if e.Kind != effect.KindPayload {
		n = int(math.Round(x.resolve(e.Value, s, ectx)))
	}

	for _, ent := range s.targets(e.Target) {
		if def.PlayerOnly && !ent.IsPlayer() {
			slog.Debug("player-only attribute skipped", "attribute", def.ID, "entity", ent.ID())
			continue
		}
		op := PileOp{Kind: PileKind(e.Attribute), OwnerID: ent.ID(), Operator: e.Operator}

		if e.Kind == effect.KindPayload {
			p, _ := e.Value.(effect.StructuredPayload)
			op.CardID, op.Payload, op.Count = p.CardID, p.Raw, p.Count
		} else {
			if e.Selector != nil {
				op.Selector = *e.Selector
			}
			all := op.Selector.Mode == effect.SelectAll
			if op.Kind == PileReduceCost {
				op.Amount = n
				op.Count = 1
			} else {
				op.Count = n
			}
			if all {
				op.Count = 0
			}
			if !all && op.Count <= 0 {
				slog.Debug("pile operation with no cards skipped", "attribute", e.Attribute, "count", op.Count)
				continue
			}
			if op.Selector.Interactive() {
				cards, err := x.choose(ctx, e, op)
				if err != nil {
					return err
				}
				if len(cards) == 0 {
					continue
				}
				op.Cards = cards
			}
		}

		if err := x.piles.Apply(ctx, op); err != nil {
			if errors.Is(err, ErrCancelled) {
				return err
			}
			return fail(e.Raw, fmt.Errorf("pile %s: %w", op.Kind, err))
		}
	}
	return nil
}

func (x *Executor) choose(ctx context.Context, e *effect.Expression, op PileOp) ([]Card, error) {
	candidates, err := x.piles.Candidates(ctx, op.OwnerID, op.Selector.Pile)
	if err != nil {
		return nil, fail(e.Raw, fmt.Errorf("list candidates: %w", err))
	}
	if len(candidates) == 0 {
		slog.Debug("no candidates to choose from", "pile", op.Selector.Pile)
		return nil, nil
	}
	if x.chooser == nil {
		return nil, fail(e.Raw, ErrNoChooser)
	}

	count := min(op.Count, len(candidates))
	prompt := fmt.Sprintf("Choose %d card(s) to %s", count, op.Kind)
	cards, err := x.chooser.Choose(ctx, prompt, candidates, count)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return nil, ErrCancelled
		}
		return nil, fail(e.Raw, fmt.Errorf("choose: %w", err))
	}
	return cards, nil
}

// narrate asks the narrator for text and records it on the context.
func (x *Executor) narrate(ctx context.Context, e *effect.Expression, ectx *Context) error {
	if x.narrator == nil {
		return fail(e.Raw, ErrNoNarrator)
	}
	prompt := effect.ValueText(e.Value)
	text, err := x.narrator.Narrate(ctx, prompt)
	if err != nil {
		return fail(e.Raw, fmt.Errorf("narrate: %w", err))
	}
	ectx.Narration = append(ectx.Narration, text)
	slog.Info("narration", "prompt", prompt, "text", text)
	return nil
}
