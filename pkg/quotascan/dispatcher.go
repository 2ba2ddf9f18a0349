package quotascan

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// NotificationThrottle remembers delivered notifications across scan
// cycles, so an entity staying over quota is not renotified on every
// cycle.
type NotificationThrottle interface {
	LastNotified(ctx context.Context, storage string, kind EntityKind, id string) (*time.Time, error)
	MarkNotified(ctx context.Context, storage string, kind EntityKind, id string, exceed ExceedKind, at time.Time) error
}

// Dispatcher emits one notification per exceeding entity through the
// delivery sink. In dry-run mode the sink is never invoked, but the
// dispatch is logged and counted exactly as in a live run.
type Dispatcher struct {
	sink   NotificationSink
	ids    IdentityResolver
	dryRun bool

	throttle NotificationThrottle
	cooldown time.Duration
	now      func() time.Time
}

func NewDispatcher(sink NotificationSink, ids IdentityResolver, dryRun bool) *Dispatcher {
	return &Dispatcher{sink: sink, ids: ids, dryRun: dryRun, now: time.Now}
}

// WithThrottle suppresses delivery to entities notified less than
// cooldown ago. Dry-run dispatches never update the history.
func (d *Dispatcher) WithThrottle(throttle NotificationThrottle, cooldown time.Duration) *Dispatcher {
	d.throttle = throttle
	d.cooldown = cooldown
	return d
}

// Dispatch delivers one notification per entity and returns the number
// of dispatches. Identity lookup happens here and nowhere earlier: the
// classifier only ever sees entity ids. Any resolver or delivery error
// is fatal for the scan cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, target StorageTarget, items []ExceedingEntity) (int, error) {
	logger := log.Ctx(ctx).With().Str("storage", target.Name).Str("filesystem", target.Filesystem).Logger()

	dispatched := 0
	for _, item := range items {
		displayName := item.ID
		if item.Record.Kind == KindUser && d.ids != nil {
			name, err := d.ids.UserName(ctx, item.ID)
			if err != nil {
				return dispatched, err
			}
			displayName = name
		}

		if d.throttle != nil {
			last, err := d.throttle.LastNotified(ctx, target.Name, item.Record.Kind, item.ID)
			if err != nil {
				return dispatched, err
			}
			if last != nil && d.now().Sub(*last) < d.cooldown {
				logger.Debug().Str("entity", item.ID).Time("last_notified", *last).
					Msg("Entity still within notification cooldown, not renotifying")
				continue
			}
		}

		n := Notification{
			Storage:     target.Name,
			Filesystem:  target.Filesystem,
			Kind:        item.Record.Kind,
			EntityID:    item.ID,
			DisplayName: displayName,
			Exceed:      item.Exceed,
			Record:      item.Record,
		}

		if d.dryRun {
			logger.Info().Str("entity", item.ID).Str("display_name", displayName).
				Str("kind", string(n.Kind)).Str("exceed", string(n.Exceed)).
				Msg("Dry run, not delivering quota notification")
			dispatched++
			continue
		}

		if err := d.sink.Notify(ctx, n); err != nil {
			return dispatched, err
		}
		if d.throttle != nil {
			if err := d.throttle.MarkNotified(ctx, target.Name, item.Record.Kind, item.ID, item.Exceed, d.now()); err != nil {
				return dispatched, err
			}
		}
		logger.Info().Str("entity", item.ID).Str("display_name", displayName).
			Str("kind", string(n.Kind)).Str("exceed", string(n.Exceed)).
			Msg("Delivered quota notification")
		dispatched++
	}
	return dispatched, nil
}
