package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bar-booking/internal/data/entity"
	"bar-booking/internal/data/repository"
	"bar-booking/pkg/utils"
)

// AllocatorService hands out exclusive claims on tables and zone
// capacity. The database enforces exclusivity; this layer does the
// eligibility checks and translates the outcome into domain errors.
type AllocatorService interface {
	ReserveTable(ctx context.Context, tableID uuid.UUID, date time.Time, slot entity.TimeSlot, guestCount int) (*entity.TableClaim, error)
	ReserveZone(ctx context.Context, zoneID uuid.UUID, date time.Time, slot entity.TimeSlot, guestCount int) (*entity.TableClaim, error)
	Release(ctx context.Context, claimID uuid.UUID) error
}

type allocatorService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewAllocatorService(repo *repository.Repository, log *zap.Logger) AllocatorService {
	return &allocatorService{
		repo: repo,
		log:  log.With(zap.String("service", "allocator")),
	}
}

// ReserveTable claims one specific table. The partial unique index on
// live claims decides races; losing it surfaces as ErrConflict.
func (s *allocatorService) ReserveTable(ctx context.Context, tableID uuid.UUID, date time.Time, slot entity.TimeSlot, guestCount int) (*entity.TableClaim, error) {
	table, err := s.repo.Table.FindByID(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("find table: %w", err)
	}
	if table == nil {
		return nil, fmt.Errorf("%w: table %s", entity.ErrNotFound, tableID)
	}
	if !table.IsActive {
		return nil, fmt.Errorf("%w: table %s is not active", entity.ErrConflict, table.TableNumber)
	}
	if !table.CanAccommodate(guestCount) {
		return nil, fmt.Errorf("%w: table %s seats %d, requested %d",
			entity.ErrPolicyViolation, table.TableNumber, table.Capacity, guestCount)
	}

	claim := &entity.TableClaim{
		ID:          utils.GenerateUUID(),
		ZoneID:      table.ZoneID,
		TableID:     &table.ID,
		BookingDate: date,
		Slot:        slot,
		GuestCount:  guestCount,
	}
	if err := s.repo.Claim.CreateTableClaim(ctx, claim); err != nil {
		return nil, err
	}

	s.log.Info("table claimed",
		zap.String("claim_id", claim.ID.String()),
		zap.String("table_id", tableID.String()),
		zap.String("slot", slot.String()))
	return claim, nil
}

// ReserveZone claims guest capacity in a zone without binding a table.
// The repository serializes concurrent claims per (zone, date, slot)
// and rejects the insert when the capacity ledger would overflow.
func (s *allocatorService) ReserveZone(ctx context.Context, zoneID uuid.UUID, date time.Time, slot entity.TimeSlot, guestCount int) (*entity.TableClaim, error) {
	zone, err := s.repo.Zone.FindByID(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("find zone: %w", err)
	}
	if zone == nil {
		return nil, fmt.Errorf("%w: zone %s", entity.ErrNotFound, zoneID)
	}
	if !zone.IsActive {
		return nil, fmt.Errorf("%w: zone %s is not active", entity.ErrConflict, zone.Name)
	}

	capacity, err := s.repo.Table.TotalActiveCapacity(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("zone capacity: %w", err)
	}
	if capacity == 0 {
		return nil, fmt.Errorf("%w: zone %s has no active tables", entity.ErrConflict, zone.Name)
	}

	claim := &entity.TableClaim{
		ID:          utils.GenerateUUID(),
		ZoneID:      zoneID,
		BookingDate: date,
		Slot:        slot,
		GuestCount:  guestCount,
	}
	if err := s.repo.Claim.CreateZoneClaim(ctx, claim, capacity); err != nil {
		return nil, err
	}

	s.log.Info("zone capacity claimed",
		zap.String("claim_id", claim.ID.String()),
		zap.String("zone_id", zoneID.String()),
		zap.Int("guest_count", guestCount),
		zap.String("slot", slot.String()))
	return claim, nil
}

func (s *allocatorService) Release(ctx context.Context, claimID uuid.UUID) error {
	if err := s.repo.Claim.Release(ctx, claimID); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	s.log.Info("claim released", zap.String("claim_id", claimID.String()))
	return nil
}
