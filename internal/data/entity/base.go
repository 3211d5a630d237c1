package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base covers entities that track updates. Bookings are never deleted,
// so there is no soft-delete column anywhere in this schema.
type Base struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
