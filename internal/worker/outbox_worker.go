package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"bar-booking/internal/data/entity"
	"bar-booking/internal/data/repository"
	"bar-booking/pkg/utils"
)

// EventPublisher is what the outbox worker needs from the broker
// client.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// OutboxWorker polls pending outbox rows and publishes them. A row
// that keeps failing is parked as failed once it exhausts its
// attempts.
type OutboxWorker struct {
	outbox      repository.OutboxRepository
	publisher   EventPublisher
	interval    time.Duration
	batchSize   int
	maxAttempts int
	log         *zap.Logger
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func NewOutboxWorker(outbox repository.OutboxRepository, publisher EventPublisher, cfg utils.OutboxConfig, log *zap.Logger) *OutboxWorker {
	return &OutboxWorker{
		outbox:      outbox,
		publisher:   publisher,
		interval:    cfg.PollInterval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		log:         log.With(zap.String("worker", "outbox")),
		stopCh:      make(chan struct{}),
	}
}

func (w *OutboxWorker) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("outbox worker started", zap.Duration("poll_interval", w.interval))
}

func (w *OutboxWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox worker stopped")
}

func (w *OutboxWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Drain(context.Background())
		}
	}
}

// Drain publishes one batch of pending events and returns how many
// went out.
func (w *OutboxWorker) Drain(ctx context.Context) int {
	events, err := w.outbox.FindPending(ctx, w.batchSize)
	if err != nil {
		w.log.Error("find pending events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range events {
		if err := w.publish(ctx, event); err != nil {
			w.log.Error("publish event",
				zap.String("event_id", event.ID.String()),
				zap.String("event_type", string(event.EventType)),
				zap.Int("attempts", event.Attempts+1),
				zap.Error(err))
			if mfErr := w.outbox.MarkFailed(ctx, event.ID, err.Error(), w.maxAttempts); mfErr != nil {
				w.log.Error("mark event failed", zap.Error(mfErr))
			}
			continue
		}
		if err := w.outbox.MarkPublished(ctx, event.ID); err != nil {
			w.log.Error("mark event published", zap.Error(err))
			continue
		}
		published++
	}
	return published
}

func (w *OutboxWorker) publish(ctx context.Context, event *entity.OutboxEvent) error {
	// key by booking so consumers see one booking's events in order
	return w.publisher.Publish(ctx, event.BookingID.String(), event.Payload)
}
