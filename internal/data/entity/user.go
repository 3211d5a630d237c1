package entity

// User is owned by an external service. The core reads the ban flag
// and mutates only the no-show counter and the flag itself.
type User struct {
	Base
	Username           string `db:"username"`
	Email              string `db:"email"`
	NoShowCount        int    `db:"no_show_count"`
	BannedFromFreeSlot bool   `db:"banned_from_free_slot"`
	IsActive           bool   `db:"is_active"`
}

func (u *User) CanBookFreeSlot() bool {
	return !u.BannedFromFreeSlot
}
