// Package engine applies parsed effects to live entities.
//
// The executor runs a batch in order (with priority reordering of
// conflicting mutations), merges statuses, registers abilities and delegates
// card piles, player choices and narration to injected collaborators.
// It performs no locking of its own: one Execute call expects exclusive
// access to the entities for its duration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/udisondev/effectlang/internal/data"
	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/effect/eval"
)

const tracerName = "github.com/udisondev/effectlang/internal/engine"

// DefaultMaxDepth bounds conditional nesting during execution.
const DefaultMaxDepth = 16

// Config tunes the executor.
type Config struct {
	// MaxDepth bounds nested conditional branches.
	MaxDepth int
	// Strict turns dropped clauses into execution errors instead of
	// silently skipping them.
	Strict bool
}

// Executor applies expressions to the entities of one encounter.
type Executor struct {
	reg    *data.Registry
	parser *effect.Parser
	ents   Entities
	cfg    Config

	piles     PileManager
	chooser   Chooser
	narrator  Narrator
	abilities AbilitySink

	tracer trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithConfig sets the executor configuration.
func WithConfig(cfg Config) Option {
	return func(x *Executor) { x.cfg = cfg }
}

// WithPiles sets the card-pile collaborator.
func WithPiles(p PileManager) Option {
	return func(x *Executor) { x.piles = p }
}

// WithChooser sets the interactive-selection collaborator.
func WithChooser(c Chooser) Option {
	return func(x *Executor) { x.chooser = c }
}

// WithNarrator sets the narration collaborator.
func WithNarrator(n Narrator) Option {
	return func(x *Executor) { x.narrator = n }
}

// WithAbilities sets where ability registrations go.
func WithAbilities(s AbilitySink) Option {
	return func(x *Executor) { x.abilities = s }
}

// WithTracerProvider sets where execution spans go. Defaults to the global
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(x *Executor) { x.tracer = tp.Tracer(tracerName) }
}

// New creates an Executor for the entities of one encounter.
func New(p *effect.Parser, ents Entities, opts ...Option) *Executor {
	x := &Executor{
		reg:    p.Registry(),
		parser: p,
		ents:   ents,
		cfg:    Config{MaxDepth: DefaultMaxDepth},
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.cfg.MaxDepth <= 0 {
		x.cfg.MaxDepth = DefaultMaxDepth
	}
	return x
}

// Parser returns the parser used for branches and abilities.
func (x *Executor) Parser() *effect.Parser {
	return x.parser
}

// Entities returns the encounter the executor works on.
func (x *Executor) Entities() Entities {
	return x.ents
}

// ExecuteString parses text and executes the valid clauses.
// In strict mode a dropped clause fails the whole call before anything runs.
func (x *Executor) ExecuteString(ctx context.Context, text string, sourceIsSelf bool, ectx *Context) error {
	res := x.parser.Parse(text)
	if res.DroppedCount() > 0 {
		if x.cfg.Strict {
			return &ExecError{Fragment: text, Err: fmt.Errorf("%w: %w", ErrParse, res.Err())}
		}
		slog.Debug("executing with dropped clauses", "effect", text, "dropped", res.DroppedCount())
	}
	return x.Execute(ctx, res.Expressions, sourceIsSelf, ectx)
}

// Execute applies exprs in order. sourceIsSelf tells whether the effect
// belongs to the player (ME = player) or to the enemy (ME = enemy).
//
// Execution stops at the first failure and returns an *ExecError naming the
// fragment; earlier mutations stay applied. A cancelled selection returns
// ErrCancelled and skips the rest of the batch.
func (x *Executor) Execute(ctx context.Context, exprs []*effect.Expression, sourceIsSelf bool, ectx *Context) error {
	if ectx == nil {
		ectx = NewContext(nil)
	}

	ctx, span := x.tracer.Start(ctx, "engine.Execute", trace.WithAttributes(
		attribute.Int("effect.count", len(exprs)),
		attribute.Bool("effect.source_is_self", sourceIsSelf),
	))
	defer span.End()

	err := x.execute(ctx, exprs, x.sides(sourceIsSelf), ectx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCancelled):
		span.AddEvent("selection cancelled")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (x *Executor) sides(sourceIsSelf bool) sides {
	if sourceIsSelf {
		return sides{self: x.ents.Player(), opponent: x.ents.Enemy()}
	}
	return sides{self: x.ents.Enemy(), opponent: x.ents.Player()}
}

func (x *Executor) execute(ctx context.Context, exprs []*effect.Expression, s sides, ectx *Context) error {
	for _, st := range order(x.reg, exprs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.operand = st.operand
		if err := x.apply(ctx, st.e, s, ectx); err != nil {
			return err
		}
	}
	return nil
}

func (x *Executor) apply(ctx context.Context, e *effect.Expression, s sides, ectx *Context) error {
	if !e.Valid {
		return fail(e.Raw, e.Err)
	}

	switch e.Kind {
	case effect.KindConditional:
		return x.conditional(ctx, e, s, ectx)
	case effect.KindAbility:
		return x.register(ctx, e, s)
	case effect.KindNarrate:
		return x.narrate(ctx, e, ectx)
	case effect.KindSelector, effect.KindPayload:
		return x.pile(ctx, e, s, ectx)
	}

	def, ok := x.reg.Attribute(e.Attribute)
	if !ok {
		return fail(e.Raw, fmt.Errorf("%w: %s", ErrUnknownAttribute, e.Attribute))
	}
	switch def.Category {
	case data.CategoryBasic, data.CategoryMaximum, data.CategoryModifier:
		return x.numeric(e, def, s, ectx)
	case data.CategoryStatus:
		return x.status(e, s, ectx)
	case data.CategoryPile:
		return x.pile(ctx, e, s, ectx)
	}
	return fail(e.Raw, fmt.Errorf("%w: %s cannot be applied directly", ErrUnknownAttribute, e.Attribute))
}

func (x *Executor) evaluator(s sides, ectx *Context) *eval.Evaluator {
	return eval.New(scope{reg: x.reg, sides: s, ctx: ectx})
}

func (x *Executor) conditional(ctx context.Context, e *effect.Expression, s sides, ectx *Context) error {
	outcome := x.evaluator(s, ectx).Condition(e.Cond.Condition)
	branch := e.Cond.Choose(outcome)
	slog.Debug("condition evaluated", "condition", e.Cond.Condition, "result", outcome)
	if branch == nil {
		return nil
	}

	ectx.depth++
	defer func() { ectx.depth-- }()
	if ectx.depth > x.cfg.MaxDepth {
		return fail(e.Raw, fmt.Errorf("%w: limit %d", ErrDepthExceeded, x.cfg.MaxDepth))
	}

	res := branch.Parse(x.parser)
	if res.DroppedCount() > 0 {
		if x.cfg.Strict {
			return fail(e.Raw, fmt.Errorf("%w: %w", ErrParse, res.Err()))
		}
		slog.Debug("branch clauses dropped", "branch", branch.Text, "dropped", res.DroppedCount())
	}

	if err := x.execute(ctx, res.Expressions, s, ectx); err != nil {
		return fail(e.Raw, err)
	}
	return nil
}
