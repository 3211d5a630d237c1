package entity

import "github.com/google/uuid"

type Table struct {
	Base
	ZoneID      uuid.UUID `db:"zone_id"`
	TableNumber string    `db:"table_number"`
	Capacity    int       `db:"capacity"`
	IsActive    bool      `db:"is_active"`
}

func (t *Table) CanAccommodate(guestCount int) bool {
	return t.IsActive && t.Capacity >= guestCount
}
