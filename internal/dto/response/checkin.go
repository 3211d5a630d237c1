package response

import "time"

type CheckInTokenResponse struct {
	BookingID string    `json:"booking_id"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
}

type CheckInResponse struct {
	Booking     *BookingResponse `json:"booking"`
	CheckedInAt time.Time        `json:"checked_in_at"`
}
