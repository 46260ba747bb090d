package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the publisher's channel and fans them out
// to the store and, when configured, Kafka. Sink failures are logged and the
// worker keeps draining so one failing sink does not stop the other.
type Worker struct {
	store    Store
	producer *KafkaProducer
	inbox    <-chan Event
	logger   *slog.Logger
}

func NewWorker(store Store, producer *KafkaProducer, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{
		store:    store,
		producer: producer,
		inbox:    inbox,
		logger:   logger,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
			if w.producer != nil {
				w.producer.Produce(ctx, event)
			}
		}
	}
}
