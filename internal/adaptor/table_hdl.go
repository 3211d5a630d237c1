package adaptor

import (
	"net/http"

	"bar-booking/internal/usecase"
	"bar-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TableHandler struct {
	service usecase.TableService
	log     *zap.Logger
}

func NewTableHandler(service usecase.TableService, log *zap.Logger) *TableHandler {
	return &TableHandler{
		service: service,
		log:     log.With(zap.String("handler", "table")),
	}
}

// ListZones handles GET /api/zones (public)
func (h *TableHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.service.ListZones(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list zones")
		return
	}

	utils.ResponseSuccess(w, "success", zones)
}

// ListTablesByZone handles GET /api/zones/{id}/tables (public)
func (h *TableHandler) ListTablesByZone(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "id")
	if zoneID == "" {
		utils.ResponseBadRequest(w, "Zone ID is required", nil)
		return
	}

	tables, err := h.service.ListTablesByZone(r.Context(), zoneID)
	if err != nil {
		h.handleServiceError(w, err, "list tables")
		return
	}

	utils.ResponseSuccess(w, "success", tables)
}

// GetAvailability handles GET /api/availability?zone_id=&date=&slot= (public)
func (h *TableHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	zoneID := query.Get("zone_id")
	date := query.Get("date")
	slot := query.Get("slot")
	if zoneID == "" || date == "" || slot == "" {
		utils.ResponseBadRequest(w, "zone_id, date and slot are required", nil)
		return
	}

	availability, err := h.service.GetAvailability(r.Context(), zoneID, date, slot)
	if err != nil {
		h.handleServiceError(w, err, "get availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}

func (h *TableHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	h.log.Warn(operation+" failed",
		zap.Error(err),
		zap.String("operation", operation))
	respondDomainError(w, err)
}
