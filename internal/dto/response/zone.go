package response

import "bar-booking/internal/data/entity"

type ZoneResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

func NewZoneResponse(z *entity.Zone) *ZoneResponse {
	return &ZoneResponse{
		ID:          z.ID.String(),
		Name:        z.Name,
		Description: z.Description,
		IsActive:    z.IsActive,
	}
}

type TableResponse struct {
	ID          string `json:"id"`
	ZoneID      string `json:"zone_id"`
	TableNumber string `json:"table_number"`
	Capacity    int    `json:"capacity"`
	IsActive    bool   `json:"is_active"`
}

func NewTableResponse(t *entity.Table) *TableResponse {
	return &TableResponse{
		ID:          t.ID.String(),
		ZoneID:      t.ZoneID.String(),
		TableNumber: t.TableNumber,
		Capacity:    t.Capacity,
		IsActive:    t.IsActive,
	}
}

// AvailabilityResponse reports how much of a zone is still bookable
// for a (date, slot) pair.
type AvailabilityResponse struct {
	ZoneID            string                   `json:"zone_id"`
	Date              string                   `json:"date"`
	Slot              string                   `json:"slot"`
	TotalCapacity     int                      `json:"total_capacity"`
	ClaimedGuests     int                      `json:"claimed_guests"`
	RemainingCapacity int                      `json:"remaining_capacity"`
	Tables            []TableAvailabilityEntry `json:"tables"`
}

type TableAvailabilityEntry struct {
	TableResponse
	Claimed bool `json:"claimed"`
}
