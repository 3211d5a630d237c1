package adaptor

import (
	"bar-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking *BookingHandler
	CheckIn *CheckInHandler
	Table   *TableHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Booking, log),
		CheckIn: NewCheckInHandler(service.Booking, log),
		Table:   NewTableHandler(service.Table, log),
	}
}
