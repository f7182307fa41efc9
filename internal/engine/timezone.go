package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/skilltree/internal/gamify"
	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/store"
)

// SetTimezone changes the zone a learner's streak days are counted in. A
// learner with no activity yet gets an initial state carrying tz, so the
// first completion already uses it. LastActivity keeps the date it was
// recorded with.
func (e *Engine) SetTimezone(ctx context.Context, p identity.Principal, learnerID, tz string) (st gamify.State, err error) {
	ctx, span := e.start(ctx, "SetTimezone",
		attribute.String("learner_id", learnerID), attribute.String("timezone", tz))
	defer func() { endSpan(span, err) }()

	if err := identity.RequireSelfOrStaff(p, learnerID, "set timezone"); err != nil {
		return gamify.State{}, err
	}
	if err := gamify.ValidateTimezone(tz); err != nil {
		return gamify.State{}, err
	}

	err = e.withRetry(learnerID, func() error {
		return e.fetch(ctx, "set timezone", func(ctx context.Context) error {
			return e.repo.InTx(ctx, func(r store.Repo) error {
				cur, ok, err := r.GamificationState(ctx, learnerID)
				if err != nil {
					return err
				}
				if !ok {
					cur = gamify.NewState(learnerID, tz)
				}
				cur.Timezone = tz
				st, err = r.SaveGamificationState(ctx, cur)
				return err
			})
		})
	})
	if err != nil {
		return gamify.State{}, err
	}
	e.log.Info("learner timezone set", "learner_id", learnerID, "timezone", tz, "actor", p.ID)
	return st, nil
}
