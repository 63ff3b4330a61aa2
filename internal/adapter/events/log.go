package events

import (
	"context"

	"tuichain-backend/internal/domain/events"

	"github.com/rs/zerolog"
)

// Log writes events to the application log only.
type Log struct{ log zerolog.Logger }

var _ events.Publisher = (*Log)(nil)

func NewLog(log zerolog.Logger) *Log { return &Log{log: log} }

func (l *Log) Publish(_ context.Context, e events.Event) error {
	ev := l.log.Info().
		Str("event_id", e.ID).
		Str("type", string(e.Type)).
		Uint64("loan_id", e.LoanID).
		Uint64("actor_id", e.ActorID)
	if len(e.Attributes) > 0 {
		ev = ev.Interface("attributes", e.Attributes)
	}
	ev.Msg("event")
	return nil
}

// Multi publishes to every publisher and returns the first failure.
type Multi []events.Publisher

func (m Multi) Publish(ctx context.Context, e events.Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
