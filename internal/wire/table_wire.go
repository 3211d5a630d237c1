package wire

import (
	"bar-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireTable(r chi.Router, tableHandler *adaptor.TableHandler) {
	// browse endpoints are public
	r.Get("/api/zones", tableHandler.ListZones)
	r.Get("/api/zones/{id}/tables", tableHandler.ListTablesByZone)
	r.Get("/api/availability", tableHandler.GetAvailability)
}
