package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bar-booking/internal/data/entity"
	"bar-booking/pkg/utils"
)

type memOutboxRepo struct {
	mu     sync.Mutex
	events []*entity.OutboxEvent
}

func (m *memOutboxRepo) Create(_ context.Context, event *entity.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memOutboxRepo) FindPending(_ context.Context, limit int) ([]*entity.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.OutboxEvent
	for _, e := range m.events {
		if e.Status == entity.OutboxStatusPending {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memOutboxRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			now := time.Now()
			e.Status = entity.OutboxStatusPublished
			e.PublishedAt = &now
		}
	}
	return nil
}

func (m *memOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string, maxAttempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Attempts++
			e.LastError = &reason
			if e.Attempts >= maxAttempts {
				e.Status = entity.OutboxStatusFailed
			}
		}
	}
	return nil
}

type stubPublisher struct {
	mu        sync.Mutex
	published []string
	failWith  error
}

func (s *stubPublisher) Publish(_ context.Context, key string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.published = append(s.published, key)
	return nil
}

func pendingEvent(eventType entity.OutboxEventType) *entity.OutboxEvent {
	return &entity.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		BookingID: uuid.New(),
		UserID:    uuid.New(),
		Payload:   []byte(`{"status":"confirmed"}`),
		Status:    entity.OutboxStatusPending,
	}
}

func TestOutboxWorker_DrainPublishesPending(t *testing.T) {
	repo := &memOutboxRepo{}
	publisher := &stubPublisher{}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, pendingEvent(entity.EventBookingConfirmed)))
	}

	w := NewOutboxWorker(repo, publisher, utils.OutboxConfig{
		PollInterval: time.Second,
		BatchSize:    10,
		MaxAttempts:  5,
	}, zap.NewNop())

	assert.Equal(t, 3, w.Drain(ctx))
	assert.Len(t, publisher.published, 3)

	for _, e := range repo.events {
		assert.Equal(t, entity.OutboxStatusPublished, e.Status)
		assert.NotNil(t, e.PublishedAt)
	}

	// nothing left to publish
	assert.Equal(t, 0, w.Drain(ctx))
}

func TestOutboxWorker_FailureParksEventAfterMaxAttempts(t *testing.T) {
	repo := &memOutboxRepo{}
	publisher := &stubPublisher{failWith: errors.New("broker unreachable")}
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, pendingEvent(entity.EventBookingCancelled)))

	w := NewOutboxWorker(repo, publisher, utils.OutboxConfig{
		PollInterval: time.Second,
		BatchSize:    10,
		MaxAttempts:  2,
	}, zap.NewNop())

	assert.Equal(t, 0, w.Drain(ctx))
	event := repo.events[0]
	assert.Equal(t, entity.OutboxStatusPending, event.Status)
	assert.Equal(t, 1, event.Attempts)
	require.NotNil(t, event.LastError)
	assert.Contains(t, *event.LastError, "broker unreachable")

	assert.Equal(t, 0, w.Drain(ctx))
	assert.Equal(t, entity.OutboxStatusFailed, event.Status)

	// parked events are not retried
	assert.Equal(t, 0, w.Drain(ctx))
	assert.Equal(t, 2, event.Attempts)
}

func TestOutboxWorker_RecoversWhenBrokerReturns(t *testing.T) {
	repo := &memOutboxRepo{}
	publisher := &stubPublisher{failWith: errors.New("timeout")}
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, pendingEvent(entity.EventBookingCompleted)))

	w := NewOutboxWorker(repo, publisher, utils.OutboxConfig{
		PollInterval: time.Second,
		BatchSize:    10,
		MaxAttempts:  5,
	}, zap.NewNop())

	assert.Equal(t, 0, w.Drain(ctx))

	publisher.failWith = nil
	assert.Equal(t, 1, w.Drain(ctx))
	assert.Equal(t, entity.OutboxStatusPublished, repo.events[0].Status)
}

func TestOutboxWorker_StartStop(t *testing.T) {
	repo := &memOutboxRepo{}
	publisher := &stubPublisher{}

	w := NewOutboxWorker(repo, publisher, utils.OutboxConfig{
		PollInterval: 5 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  5,
	}, zap.NewNop())

	require.NoError(t, repo.Create(context.Background(), pendingEvent(entity.EventBookingConfirmed)))

	w.Start()
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	assert.Equal(t, entity.OutboxStatusPublished, repo.events[0].Status)
}
