package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/koperasidigital/simpanpinjam/internal/application/dispatcher"
	"github.com/koperasidigital/simpanpinjam/internal/domain/event"
)

// LogSubscriber writes an audit line for every domain event the engine emits.
// It is the default subscriber; real senders (SMS gateway, member portal push)
// attach to the same dispatcher surface.
type LogSubscriber struct {
	logger *zap.Logger
}

// NewLogSubscriber creates a log subscriber
func NewLogSubscriber(logger *zap.Logger) *LogSubscriber {
	return &LogSubscriber{logger: logger}
}

// Register attaches the subscriber to every event type the engine emits
func (s *LogSubscriber) Register(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeRequestSubmitted,
		event.TypeStatusChanged,
		event.TypeRequestRevised,
		event.TypeDepositMatured,
	} {
		d.Subscribe(t, "notification-log", s.handle)
	}
}

func (s *LogSubscriber) handle(ctx context.Context, evt *event.Event) error {
	fields := []zap.Field{
		zap.String("event_id", evt.ID),
		zap.String("event_type", evt.Type.String()),
		zap.Int64("request_id", evt.RequestID),
		zap.String("request_number", evt.RequestNumber),
	}
	for k, v := range evt.Payload {
		fields = append(fields, zap.Any(k, v))
	}
	s.logger.Info("Domain event", fields...)
	return nil
}
