package wire

import (
	"bar-booking/internal/adaptor"
	"bar-booking/pkg/middleware"
	"bar-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCheckIn(
	r chi.Router,
	checkInHandler *adaptor.CheckInHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// staff endpoints, same bearer-token identity as the rest
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(config.JWT.Secret, log))

		// POST /api/checkin - Consume a scanned token
		r.Post("/api/checkin", checkInHandler.CheckIn)

		// GET /api/checkin/{token} - Preview the booking behind a token
		r.Get("/api/checkin/{token}", checkInHandler.ResolveToken)
	})
}
