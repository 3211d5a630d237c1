package repository

import (
	"bar-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User    UserRepository
	Zone    ZoneRepository
	Table   TableRepository
	Claim   ClaimRepository
	Booking BookingRepository
	Token   TokenRepository
	Outbox  OutboxRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(db, log),
		Zone:    NewZoneRepository(db, log),
		Table:   NewTableRepository(db, log),
		Claim:   NewClaimRepository(db, log),
		Booking: NewBookingRepository(db, log),
		Token:   NewTokenRepository(db, log),
		Outbox:  NewOutboxRepository(db, log),
	}
}
