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

// TokenCache is a fast lookup layer in front of the token table. It is
// advisory only; the database decides whether a token can be consumed.
type TokenCache interface {
	Set(ctx context.Context, token string, bookingID uuid.UUID) error
	Get(ctx context.Context, token string) (uuid.UUID, bool, error)
	Del(ctx context.Context, token string) error
}

type TokenService interface {
	// Issue creates a fresh single-use token for the booking and
	// invalidates any earlier unconsumed one.
	Issue(ctx context.Context, bookingID uuid.UUID) (*entity.CheckInToken, error)
	// Validate resolves a token to its booking without consuming it.
	Validate(ctx context.Context, token string) (uuid.UUID, error)
	// Consume atomically marks the token used. A second call with the
	// same token returns ErrInvalidToken.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

type tokenService struct {
	tokens repository.TokenRepository
	cache  TokenCache
	log    *zap.Logger
}

func NewTokenService(tokens repository.TokenRepository, cache TokenCache, log *zap.Logger) TokenService {
	return &tokenService{
		tokens: tokens,
		cache:  cache,
		log:    log.With(zap.String("service", "token")),
	}
}

func (s *tokenService) Issue(ctx context.Context, bookingID uuid.UUID) (*entity.CheckInToken, error) {
	token := &entity.CheckInToken{
		ID:        utils.GenerateUUID(),
		BookingID: bookingID,
		Token:     utils.GenerateCheckInToken(),
		IssuedAt:  time.Now(),
	}
	superseded, err := s.tokens.Create(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("issue check-in token: %w", err)
	}

	// Purge superseded tokens from the cache so a stale entry cannot
	// keep validating after re-issue.
	for _, old := range superseded {
		if err := s.cache.Del(ctx, old); err != nil {
			s.log.Warn("token cache evict failed", zap.Error(err))
		}
	}

	if err := s.cache.Set(ctx, token.Token, bookingID); err != nil {
		// cache is best effort, lookups fall back to the database
		s.log.Warn("token cache set failed", zap.Error(err))
	}

	s.log.Info("check-in token issued", zap.String("booking_id", bookingID.String()))
	return token, nil
}

func (s *tokenService) Validate(ctx context.Context, token string) (uuid.UUID, error) {
	bookingID, hit, err := s.cache.Get(ctx, token)
	if err != nil {
		s.log.Warn("token cache get failed", zap.Error(err))
	} else if hit {
		return bookingID, nil
	}

	stored, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("find token: %w", err)
	}
	if stored == nil || stored.Consumed {
		return uuid.Nil, entity.ErrInvalidToken
	}

	if err := s.cache.Set(ctx, token, stored.BookingID); err != nil {
		s.log.Warn("token cache backfill failed", zap.Error(err))
	}
	return stored.BookingID, nil
}

func (s *tokenService) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	bookingID, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.cache.Del(ctx, token); err != nil {
		s.log.Warn("token cache delete failed", zap.Error(err))
	}

	s.log.Info("check-in token consumed", zap.String("booking_id", bookingID.String()))
	return bookingID, nil
}
