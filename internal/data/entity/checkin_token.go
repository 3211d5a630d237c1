package entity

import (
	"time"

	"github.com/google/uuid"
)

// CheckInToken is the single-use token behind the QR code. Exactly one
// unconsumed token exists per booking; re-issuing consumes the prior
// one.
type CheckInToken struct {
	ID        uuid.UUID `db:"id"`
	BookingID uuid.UUID `db:"booking_id"`
	Token     string    `db:"token"`
	IssuedAt  time.Time `db:"issued_at"`
	Consumed  bool      `db:"consumed"`
}
