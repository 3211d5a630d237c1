package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"bar-booking/internal/data/entity"
	"bar-booking/pkg/utils"
)

// OverdueMarker is the slice of the booking service the sweeper needs.
type OverdueMarker interface {
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
	MarkNoShow(ctx context.Context, booking *entity.Booking) (bool, error)
}

// NoShowSweeper periodically flips confirmed bookings whose check-in
// window has closed to no-show. Each transition is a compare-and-swap,
// so a sweep racing a late check-in or a second sweeper instance is
// harmless.
type NoShowSweeper struct {
	bookings  OverdueMarker
	interval  time.Duration
	batchSize int
	log       *zap.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func NewNoShowSweeper(bookings OverdueMarker, cfg utils.SweepConfig, log *zap.Logger) *NoShowSweeper {
	return &NoShowSweeper{
		bookings:  bookings,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		log:       log.With(zap.String("worker", "noshow-sweeper")),
		stopCh:    make(chan struct{}),
	}
}

func (w *NoShowSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("no-show sweeper started", zap.Duration("interval", w.interval))
}

func (w *NoShowSweeper) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("no-show sweeper stopped")
}

func (w *NoShowSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Sweep runs one pass and returns how many bookings it transitioned.
func (w *NoShowSweeper) Sweep(ctx context.Context) int {
	overdue, err := w.bookings.FindOverdue(ctx, time.Now(), w.batchSize)
	if err != nil {
		w.log.Error("find overdue bookings", zap.Error(err))
		return 0
	}
	if len(overdue) == 0 {
		return 0
	}

	marked := 0
	for _, booking := range overdue {
		ok, err := w.bookings.MarkNoShow(ctx, booking)
		if err != nil {
			w.log.Error("mark no-show",
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err))
			continue
		}
		if ok {
			marked++
		}
	}

	w.log.Info("sweep pass finished",
		zap.Int("overdue", len(overdue)),
		zap.Int("marked", marked))
	return marked
}
