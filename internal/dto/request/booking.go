package request

type CreateBookingRequest struct {
	Mode       string `json:"mode" validate:"required,oneof=zone_auto table_locked"`
	ZoneID     string `json:"zone_id,omitempty" validate:"omitempty,uuid"`
	TableID    string `json:"table_id,omitempty" validate:"omitempty,uuid"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Slot       string `json:"slot" validate:"required,oneof=SLOT_20_00 SLOT_21_00 SLOT_22_00"`
	GuestCount int    `json:"guest_count" validate:"required,min=1"`
}

type ConfirmBookingRequest struct {
	PaymentRef string `json:"payment_ref" validate:"required"`
}
