package response

import (
	"time"

	"bar-booking/internal/data/entity"
)

type BookingResponse struct {
	ID              string     `json:"id"`
	OrderID         string     `json:"order_id"`
	UserID          string     `json:"user_id"`
	Mode            string     `json:"mode"`
	ZoneID          string     `json:"zone_id"`
	TableID         *string    `json:"table_id,omitempty"`
	Date            string     `json:"date"`
	Slot            string     `json:"slot"`
	GuestCount      int        `json:"guest_count"`
	Fee             float64    `json:"fee"`
	Status          string     `json:"status"`
	PaymentRef      *string    `json:"payment_ref,omitempty"`
	CheckInDeadline time.Time  `json:"check_in_deadline"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func NewBookingResponse(b *entity.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:              b.ID.String(),
		OrderID:         b.OrderID,
		UserID:          b.UserID.String(),
		Mode:            string(b.Mode),
		ZoneID:          b.ZoneID.String(),
		Date:            b.BookingDate.Format("2006-01-02"),
		Slot:            b.Slot.String(),
		GuestCount:      b.GuestCount,
		Fee:             b.Fee,
		Status:          string(b.Status),
		PaymentRef:      b.PaymentRef,
		CheckInDeadline: b.CheckInDeadline,
		CheckedInAt:     b.CheckedInAt,
		CreatedAt:       b.CreatedAt,
	}
	if b.TableID != nil {
		id := b.TableID.String()
		resp.TableID = &id
	}
	return resp
}

// CreatedBookingResponse adds the check-in token a zero-fee booking
// receives at creation.
type CreatedBookingResponse struct {
	BookingResponse
	CheckInToken string `json:"check_in_token,omitempty"`
}
