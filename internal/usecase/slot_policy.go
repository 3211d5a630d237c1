package usecase

import (
	"time"

	"bar-booking/internal/data/entity"
	"bar-booking/pkg/utils"
)

// SlotPolicy is the pure fee and check-in-window lookup. No state, no
// side effects; every amount and window comes from configuration.
//
// Default policy: 20:00 is the free slot (zone bookings cost nothing,
// locking a specific table costs the lock deposit), 21:00 and 22:00
// are flat-fee slots regardless of mode. Only the free slot is subject
// to the no-show ban.
type SlotPolicy struct {
	grace       time.Duration
	freeSlot    entity.TimeSlot
	lockDeposit float64
	fees        map[entity.TimeSlot]float64
}

func NewSlotPolicy(cfg utils.BookingConfig) *SlotPolicy {
	return &SlotPolicy{
		grace:       time.Duration(cfg.GraceMinutes) * time.Minute,
		freeSlot:    entity.Slot2000,
		lockDeposit: cfg.LockDeposit,
		fees: map[entity.TimeSlot]float64{
			entity.Slot2000: 0,
			entity.Slot2100: cfg.Slot2100Fee,
			entity.Slot2200: cfg.Slot2200Fee,
		},
	}
}

// Fee returns the booking fee for a slot and allocation mode. Locking
// a table on the free slot costs the deposit; paid slots charge the
// same fee in both modes.
func (p *SlotPolicy) Fee(slot entity.TimeSlot, mode entity.AllocationMode) float64 {
	if slot == p.freeSlot && mode == entity.ModeTableLocked {
		return p.lockDeposit
	}
	return p.fees[slot]
}

func (p *SlotPolicy) IsFreeSlot(slot entity.TimeSlot) bool {
	return slot == p.freeSlot
}

// CheckInDeadline is the slot start plus the grace window on the given
// day.
func (p *SlotPolicy) CheckInDeadline(date time.Time, slot entity.TimeSlot) time.Time {
	return slot.StartAt(date).Add(p.grace)
}

func (p *SlotPolicy) Grace() time.Duration {
	return p.grace
}
