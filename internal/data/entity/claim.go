package entity

import (
	"time"

	"github.com/google/uuid"
)

// TableClaim is an exclusive hold on inventory for a (date, slot).
// TABLE_LOCKED claims carry a table ID and are guarded by a partial
// unique index on (table_id, booking_date, time_slot) WHERE NOT
// released. ZONE_AUTO claims carry only the zone and count against the
// zone's capacity ledger.
type TableClaim struct {
	ID          uuid.UUID  `db:"id"`
	ZoneID      uuid.UUID  `db:"zone_id"`
	TableID     *uuid.UUID `db:"table_id"`
	BookingDate time.Time  `db:"booking_date"`
	Slot        TimeSlot   `db:"time_slot"`
	GuestCount  int        `db:"guest_count"`
	Released    bool       `db:"released"`
	CreatedAt   time.Time  `db:"created_at"`
}
