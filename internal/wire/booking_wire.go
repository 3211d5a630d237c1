package wire

import (
	"bar-booking/internal/adaptor"
	"bar-booking/pkg/middleware"
	"bar-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(config.JWT.Secret, log))

		// POST /api/bookings - Create a booking
		r.Post("/api/bookings", bookingHandler.CreateBooking)

		// POST /api/bookings/{id}/confirm - Attach a payment reference
		r.Post("/api/bookings/{id}/confirm", bookingHandler.ConfirmBooking)

		// POST /api/bookings/{id}/cancel - Cancel before the visit
		r.Post("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)

		// POST /api/bookings/{id}/complete - Close out a checked-in visit
		r.Post("/api/bookings/{id}/complete", bookingHandler.CompleteBooking)

		// GET /api/bookings/{id} - Booking details
		r.Get("/api/bookings/{id}", bookingHandler.GetBookingByID)

		// GET /api/user/bookings - Caller's booking history
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})
}
