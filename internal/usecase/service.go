package usecase

import (
	"go.uber.org/zap"

	"bar-booking/internal/data/repository"
	"bar-booking/pkg/utils"
)

type Service struct {
	Allocator AllocatorService
	Booking   BookingService
	Token     TokenService
	Tracker   NoShowTracker
	Table     TableService
}

func NewService(repo *repository.Repository, cache TokenCache, config *utils.Config, log *zap.Logger) *Service {
	policy := NewSlotPolicy(config.Booking)
	allocator := NewAllocatorService(repo, log)
	tokens := NewTokenService(repo.Token, cache, log)
	tracker := NewNoShowTracker(repo.User, policy, config.Booking, log)
	booking := NewBookingService(repo, allocator, tokens, tracker, policy, config.Booking, log)
	table := NewTableService(repo, log)

	return &Service{
		Allocator: allocator,
		Booking:   booking,
		Token:     tokens,
		Tracker:   tracker,
		Table:     table,
	}
}
