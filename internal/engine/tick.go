package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// TickStatuses runs the tick effect of every status on the entity, then
// counts down status durations and timed modifiers. Tick effects read ME as
// the bearer. Returns the IDs of statuses that expired.
func (x *Executor) TickStatuses(ctx context.Context, entityID string, ectx *Context) ([]string, error) {
	ent, ok := ByID(x.ents, entityID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoEntity, entityID)
	}

	for _, inst := range ent.Statuses().All() {
		def, _ := x.reg.Status(inst.ID)
		if def.TickEffect == "" {
			continue
		}
		err := x.ExecuteString(ctx, def.TickEffect, ent.IsPlayer(), ectx)
		if errors.Is(err, ErrCancelled) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("ticking %s on %s: %w", inst.ID, entityID, err)
		}
	}

	expired := ent.Statuses().Tick()
	mods := ent.TickModifiers()
	if len(expired) > 0 || mods > 0 {
		slog.Debug("effects expired",
			"entity", entityID,
			"statuses", expired,
			"modifiers", mods)
	}
	return expired, nil
}
