package repository

import (
	"context"
	"fmt"
	"time"

	"bar-booking/internal/data/entity"
	"bar-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	Create(ctx context.Context, event *entity.OutboxEvent) error
	FindPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed records the error and bumps the attempt counter. Rows
	// stay pending until maxAttempts so the next poll retries them.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) error
}

type outboxRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOutboxRepository(db database.PgxIface, log *zap.Logger) OutboxRepository {
	return &outboxRepository{
		db:  db,
		log: log.With(zap.String("repository", "outbox")),
	}
}

// outboxExecer is satisfied by both the pool and pgx.Tx, so lifecycle
// transitions can write their event row inside their own transaction.
type outboxExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertOutboxEvent(ctx context.Context, ex outboxExecer, event *entity.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, booking_id, user_id, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
	`

	event.CreatedAt = time.Now()
	_, err := ex.Exec(ctx, query,
		event.ID,
		event.EventType,
		event.BookingID,
		event.UserID,
		event.Payload,
		entity.OutboxStatusPending,
		event.CreatedAt,
	)
	return err
}

func (r *outboxRepository) Create(ctx context.Context, event *entity.OutboxEvent) error {
	err := insertOutboxEvent(ctx, r.db, event)
	if err != nil {
		r.log.Error("Failed to create outbox event",
			zap.Error(err),
			zap.String("event_type", string(event.EventType)),
			zap.String("booking_id", event.BookingID.String()),
		)
		return fmt.Errorf("create outbox event %s: %w", event.EventType, err)
	}

	return nil
}

func (r *outboxRepository) FindPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	query := `
		SELECT id, event_type, booking_id, user_id, payload, status, attempts, last_error, created_at, published_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, entity.OutboxStatusPending, limit)
	if err != nil {
		r.log.Error("Failed to find pending outbox events", zap.Error(err))
		return nil, fmt.Errorf("find pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []*entity.OutboxEvent
	for rows.Next() {
		var event entity.OutboxEvent
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.BookingID,
			&event.UserID,
			&event.Payload,
			&event.Status,
			&event.Attempts,
			&event.LastError,
			&event.CreatedAt,
			&event.PublishedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan outbox row", zap.Error(err))
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, &event)
	}

	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE outbox_events SET status = $2, published_at = NOW() WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, entity.OutboxStatusPublished)
	if err != nil {
		r.log.Error("Failed to mark outbox event published",
			zap.Error(err),
			zap.String("event_id", id.String()),
		)
		return fmt.Errorf("mark outbox event %s published: %w", id.String(), err)
	}

	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, maxAttempts int) error {
	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, reason, maxAttempts)
	if err != nil {
		r.log.Error("Failed to mark outbox event failed",
			zap.Error(err),
			zap.String("event_id", id.String()),
		)
		return fmt.Errorf("mark outbox event %s failed: %w", id.String(), err)
	}

	return nil
}
