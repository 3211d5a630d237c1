package entity

import "time"

// TimeSlot is a fixed daily start time. The slot defines both the fee
// tier and the start of the check-in grace window.
type TimeSlot string

const (
	Slot2000 TimeSlot = "SLOT_20_00" // free slot
	Slot2100 TimeSlot = "SLOT_21_00"
	Slot2200 TimeSlot = "SLOT_22_00"
)

func (s TimeSlot) IsValid() bool {
	switch s {
	case Slot2000, Slot2100, Slot2200:
		return true
	}
	return false
}

func (s TimeSlot) Hour() int {
	switch s {
	case Slot2000:
		return 20
	case Slot2100:
		return 21
	case Slot2200:
		return 22
	}
	return 0
}

func (s TimeSlot) String() string {
	return string(s)
}

// StartAt returns the slot start time on the given calendar day.
func (s TimeSlot) StartAt(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), s.Hour(), 0, 0, 0, date.Location())
}
