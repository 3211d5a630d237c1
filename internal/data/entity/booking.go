package entity

import (
	"time"

	"github.com/google/uuid"
)

type AllocationMode string

const (
	ModeZoneAuto    AllocationMode = "zone_auto"    // system picks capacity in a zone
	ModeTableLocked AllocationMode = "table_locked" // customer locks a specific table
)

func (m AllocationMode) IsValid() bool {
	return m == ModeZoneAuto || m == ModeTableLocked
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCheckedIn BookingStatus = "checked_in"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// IsOccupying reports whether a booking in this status still holds its
// table/zone claim. At most one occupying booking may exist per
// (table, date, slot).
func (s BookingStatus) IsOccupying() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCheckedIn:
		return true
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

type Booking struct {
	Base
	OrderID         string         `db:"order_id"`
	UserID          uuid.UUID      `db:"user_id"`
	Mode            AllocationMode `db:"mode"`
	ZoneID          uuid.UUID      `db:"zone_id"`
	TableID         *uuid.UUID     `db:"table_id"`
	ClaimID         uuid.UUID      `db:"claim_id"`
	BookingDate     time.Time      `db:"booking_date"`
	Slot            TimeSlot       `db:"time_slot"`
	GuestCount      int            `db:"guest_count"`
	Fee             float64        `db:"fee"`
	Status          BookingStatus  `db:"status"`
	PaymentRef      *string        `db:"payment_ref"`
	CheckInDeadline time.Time      `db:"check_in_deadline"`
	CheckedInAt     *time.Time     `db:"checked_in_at"`
}

func (b *Booking) CanConfirm() bool {
	return b.Status == BookingStatusPending
}

func (b *Booking) CanCancel() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

func (b *Booking) CanCheckIn() bool {
	return b.Status == BookingStatusConfirmed
}

// IsConfirmedWith reports whether the booking is already confirmed with
// the same payment reference, making a repeated confirm a no-op.
func (b *Booking) IsConfirmedWith(paymentRef string) bool {
	if b.Status != BookingStatusConfirmed {
		return false
	}
	if b.Fee == 0 {
		// zero-fee bookings auto-confirm without a reference
		return true
	}
	return b.PaymentRef != nil && *b.PaymentRef == paymentRef
}

// PastDeadline reports whether the check-in grace window has elapsed.
func (b *Booking) PastDeadline(now time.Time) bool {
	return now.After(b.CheckInDeadline)
}
