package adaptor

import (
	"encoding/json"
	"net/http"

	"bar-booking/internal/dto/request"
	"bar-booking/internal/usecase"
	"bar-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckInHandler serves the QR scan flow at the door.
type CheckInHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewCheckInHandler(service usecase.BookingService, log *zap.Logger) *CheckInHandler {
	return &CheckInHandler{
		service: service,
		log:     log.With(zap.String("handler", "checkin")),
	}
}

// CheckIn handles POST /api/checkin (protected)
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req request.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.CheckIn(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "check in")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// ResolveToken handles GET /api/checkin/{token} (protected). It shows
// staff which booking a scanned code belongs to without consuming it.
func (h *CheckInHandler) ResolveToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		utils.ResponseBadRequest(w, "Token is required", nil)
		return
	}

	booking, err := h.service.ResolveToken(r.Context(), token)
	if err != nil {
		h.handleServiceError(w, err, "resolve token")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

func (h *CheckInHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	h.log.Warn(operation+" failed",
		zap.Error(err),
		zap.String("operation", operation))
	respondDomainError(w, err)
}
