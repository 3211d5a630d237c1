package repository

import (
	"context"
	"fmt"

	"bar-booking/internal/data/entity"
	"bar-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TokenRepository interface {
	// Create stores a fresh token for a booking. Any prior unconsumed
	// token for the same booking is consumed first in the same
	// transaction, so at most one live token exists per booking. The
	// superseded token values are returned so callers can evict them
	// from any lookup cache.
	Create(ctx context.Context, token *entity.CheckInToken) ([]string, error)

	FindByToken(ctx context.Context, token string) (*entity.CheckInToken, error)

	// Consume flips consumed exactly once and returns the booking ID.
	// A second concurrent consume loses the guarded update and gets
	// entity.ErrInvalidToken.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

type tokenRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTokenRepository(db database.PgxIface, log *zap.Logger) TokenRepository {
	return &tokenRepository{
		db:  db,
		log: log.With(zap.String("repository", "token")),
	}
}

func (r *tokenRepository) Create(ctx context.Context, token *entity.CheckInToken) ([]string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin token tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`UPDATE checkin_tokens SET consumed = true WHERE booking_id = $1 AND NOT consumed RETURNING token`,
		token.BookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate prior tokens for booking %s: %w", token.BookingID.String(), err)
	}

	var superseded []string
	for rows.Next() {
		var old string
		if err := rows.Scan(&old); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan superseded token: %w", err)
		}
		superseded = append(superseded, old)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read superseded tokens: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO checkin_tokens (id, booking_id, token, issued_at, consumed)
		VALUES ($1, $2, $3, $4, false)
	`, token.ID, token.BookingID, token.Token, token.IssuedAt)
	if err != nil {
		r.log.Error("Failed to create check-in token",
			zap.Error(err),
			zap.String("booking_id", token.BookingID.String()),
		)
		return nil, fmt.Errorf("create check-in token for booking %s: %w", token.BookingID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit token tx: %w", err)
	}

	return superseded, nil
}

func (r *tokenRepository) FindByToken(ctx context.Context, token string) (*entity.CheckInToken, error) {
	query := `
		SELECT id, booking_id, token, issued_at, consumed
		FROM checkin_tokens
		WHERE token = $1
	`

	var t entity.CheckInToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&t.ID,
		&t.BookingID,
		&t.Token,
		&t.IssuedAt,
		&t.Consumed,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find check-in token", zap.Error(err))
		return nil, fmt.Errorf("find check-in token: %w", err)
	}

	return &t, nil
}

func (r *tokenRepository) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		UPDATE checkin_tokens
		SET consumed = true
		WHERE token = $1 AND NOT consumed
		RETURNING booking_id
	`

	var bookingID uuid.UUID
	err := r.db.QueryRow(ctx, query, token).Scan(&bookingID)
	if err == pgx.ErrNoRows {
		return uuid.Nil, entity.ErrInvalidToken
	}
	if err != nil {
		r.log.Error("Failed to consume check-in token", zap.Error(err))
		return uuid.Nil, fmt.Errorf("consume check-in token: %w", err)
	}

	return bookingID, nil
}
