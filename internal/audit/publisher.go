package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rollcall/pkg/requestcontext"
)

// Publisher hands events to the background worker over a buffered channel.
// Emitters never block on the trail: if the buffer is full the event is
// dropped with a warning rather than stalling a check-in.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit stamps and enqueues an event. Request-scoped fields are filled from
// the context when the caller left them blank.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"event_id", event.EventID,
		)
	}
}

// Inbox is consumed by the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
