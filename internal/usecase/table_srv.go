package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bar-booking/internal/data/entity"
	"bar-booking/internal/data/repository"
	"bar-booking/internal/dto/response"
)

type TableService interface {
	ListZones(ctx context.Context) ([]*response.ZoneResponse, error)
	ListTablesByZone(ctx context.Context, zoneID string) ([]*response.TableResponse, error)
	GetAvailability(ctx context.Context, zoneID, date, slot string) (*response.AvailabilityResponse, error)
}

type tableService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewTableService(repo *repository.Repository, log *zap.Logger) TableService {
	return &tableService{
		repo: repo,
		log:  log.With(zap.String("service", "table")),
	}
}

func (s *tableService) ListZones(ctx context.Context) ([]*response.ZoneResponse, error) {
	zones, err := s.repo.Zone.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}

	result := make([]*response.ZoneResponse, 0, len(zones))
	for _, z := range zones {
		result = append(result, response.NewZoneResponse(z))
	}
	return result, nil
}

func (s *tableService) ListTablesByZone(ctx context.Context, zoneID string) ([]*response.TableResponse, error) {
	zid, err := uuid.Parse(zoneID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid zone id", entity.ErrValidation)
	}

	zone, err := s.repo.Zone.FindByID(ctx, zid)
	if err != nil {
		return nil, fmt.Errorf("find zone: %w", err)
	}
	if zone == nil {
		return nil, fmt.Errorf("%w: zone %s", entity.ErrNotFound, zoneID)
	}

	tables, err := s.repo.Table.FindActiveByZoneID(ctx, zid)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	result := make([]*response.TableResponse, 0, len(tables))
	for _, t := range tables {
		result = append(result, response.NewTableResponse(t))
	}
	return result, nil
}

func (s *tableService) GetAvailability(ctx context.Context, zoneID, date, slot string) (*response.AvailabilityResponse, error) {
	zid, err := uuid.Parse(zoneID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid zone id", entity.ErrValidation)
	}
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", entity.ErrValidation)
	}
	timeSlot := entity.TimeSlot(slot)
	if !timeSlot.IsValid() {
		return nil, fmt.Errorf("%w: invalid slot %q", entity.ErrValidation, slot)
	}

	zone, err := s.repo.Zone.FindByID(ctx, zid)
	if err != nil {
		return nil, fmt.Errorf("find zone: %w", err)
	}
	if zone == nil {
		return nil, fmt.Errorf("%w: zone %s", entity.ErrNotFound, zoneID)
	}

	capacity, err := s.repo.Table.TotalActiveCapacity(ctx, zid)
	if err != nil {
		return nil, fmt.Errorf("zone capacity: %w", err)
	}
	claimed, err := s.repo.Claim.ClaimedGuests(ctx, zid, day, timeSlot)
	if err != nil {
		return nil, fmt.Errorf("claimed guests: %w", err)
	}
	claimedTables, err := s.repo.Claim.ClaimedTableIDs(ctx, zid, day, timeSlot)
	if err != nil {
		return nil, fmt.Errorf("claimed tables: %w", err)
	}
	tables, err := s.repo.Table.FindActiveByZoneID(ctx, zid)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	taken := make(map[uuid.UUID]bool, len(claimedTables))
	for _, id := range claimedTables {
		taken[id] = true
	}

	entries := make([]response.TableAvailabilityEntry, 0, len(tables))
	for _, t := range tables {
		entries = append(entries, response.TableAvailabilityEntry{
			TableResponse: *response.NewTableResponse(t),
			Claimed:       taken[t.ID],
		})
	}

	remaining := capacity - claimed
	if remaining < 0 {
		remaining = 0
	}
	return &response.AvailabilityResponse{
		ZoneID:            zoneID,
		Date:              date,
		Slot:              slot,
		TotalCapacity:     capacity,
		ClaimedGuests:     claimed,
		RemainingCapacity: remaining,
		Tables:            entries,
	}, nil
}
