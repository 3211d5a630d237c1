package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bar-booking/internal/data/entity"
	"bar-booking/internal/data/repository"
	"bar-booking/pkg/utils"
)

// NoShowTracker escalates repeated no-shows into a free-slot ban. The
// counter covers every slot; whether a paid-slot no-show can trigger
// the ban is a policy switch.
type NoShowTracker interface {
	RecordNoShow(ctx context.Context, userID uuid.UUID, slot entity.TimeSlot) error
}

type noShowTracker struct {
	users         repository.UserRepository
	policy        *SlotPolicy
	banThreshold  int
	countAllSlots bool
	log           *zap.Logger
}

func NewNoShowTracker(users repository.UserRepository, policy *SlotPolicy, cfg utils.BookingConfig, log *zap.Logger) NoShowTracker {
	return &noShowTracker{
		users:         users,
		policy:        policy,
		banThreshold:  cfg.BanThreshold,
		countAllSlots: cfg.CountAllSlots,
		log:           log.With(zap.String("service", "noshow")),
	}
}

func (t *noShowTracker) RecordNoShow(ctx context.Context, userID uuid.UUID, slot entity.TimeSlot) error {
	count, err := t.users.IncrementNoShowCount(ctx, userID)
	if err != nil {
		return fmt.Errorf("increment no-show count: %w", err)
	}

	t.log.Info("no-show recorded",
		zap.String("user_id", userID.String()),
		zap.String("slot", slot.String()),
		zap.Int("no_show_count", count))

	if !t.countAllSlots && !t.policy.IsFreeSlot(slot) {
		return nil
	}
	if count < t.banThreshold {
		return nil
	}

	if err := t.users.SetFreeSlotBan(ctx, userID, true); err != nil {
		return fmt.Errorf("set free-slot ban: %w", err)
	}
	t.log.Warn("user banned from free slot",
		zap.String("user_id", userID.String()),
		zap.Int("no_show_count", count))
	return nil
}
