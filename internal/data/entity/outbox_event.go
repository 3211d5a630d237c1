package entity

import (
	"time"

	"github.com/google/uuid"
)

type OutboxEventType string

const (
	EventBookingConfirmed OutboxEventType = "booking.confirmed"
	EventBookingCancelled OutboxEventType = "booking.cancelled"
	EventBookingCompleted OutboxEventType = "booking.completed"
	EventBookingNoShow    OutboxEventType = "booking.no_show"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxEvent is written in the same transaction as the lifecycle
// transition it reports and published asynchronously by the outbox
// worker.
type OutboxEvent struct {
	ID          uuid.UUID       `db:"id"`
	EventType   OutboxEventType `db:"event_type"`
	BookingID   uuid.UUID       `db:"booking_id"`
	UserID      uuid.UUID       `db:"user_id"`
	Payload     []byte          `db:"payload"`
	Status      OutboxStatus    `db:"status"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	PublishedAt *time.Time      `db:"published_at"`
}
