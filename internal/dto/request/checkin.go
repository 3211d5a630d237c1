package request

type CheckInRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Token     string `json:"token" validate:"required"`
}
