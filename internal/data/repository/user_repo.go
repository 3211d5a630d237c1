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

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// IncrementNoShowCount bumps the counter in a single atomic update
	// and returns the new value. Concurrent no-show events for the same
	// user must not lose increments, so this is never read-modify-write.
	IncrementNoShowCount(ctx context.Context, id uuid.UUID) (int, error)

	SetFreeSlotBan(ctx context.Context, id uuid.UUID, banned bool) error
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, username, email, no_show_count, banned_from_free_slot, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user entity.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.NoShowCount,
		&user.BannedFromFreeSlot,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return &user, nil
}

func (r *userRepository) IncrementNoShowCount(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET no_show_count = no_show_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING no_show_count
	`

	var count int
	err := r.db.QueryRow(ctx, query, id).Scan(&count)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("user %s: %w", id.String(), entity.ErrNotFound)
	}
	if err != nil {
		r.log.Error("Failed to increment no-show count",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return 0, fmt.Errorf("increment no-show count for user %s: %w", id.String(), err)
	}

	return count, nil
}

func (r *userRepository) SetFreeSlotBan(ctx context.Context, id uuid.UUID, banned bool) error {
	query := `UPDATE users SET banned_from_free_slot = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, banned)
	if err != nil {
		r.log.Error("Failed to set free-slot ban",
			zap.Error(err),
			zap.String("user_id", id.String()),
			zap.Bool("banned", banned),
		)
		return fmt.Errorf("set free-slot ban for user %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id.String(), entity.ErrNotFound)
	}

	return nil
}
