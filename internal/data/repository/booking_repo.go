package repository

import (
	"context"
	"fmt"
	"time"

	"bar-booking/internal/data/entity"
	"bar-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	// Create inserts the booking and, when an event is given, its
	// outbox row in the same transaction.
	Create(ctx context.Context, booking *entity.Booking, event *entity.OutboxEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// UpdateStatus flips the status only if the row still holds the
	// expected status. It returns false when the guard fails, which is
	// how every caller detects a lost transition race. When an event
	// is given it is written in the same transaction, and only when
	// the guard holds.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next entity.BookingStatus, event *entity.OutboxEvent) (bool, error)

	// Confirm transitions pending -> confirmed and records the payment
	// reference in the same guarded update. The event, when given,
	// commits with the transition.
	Confirm(ctx context.Context, id uuid.UUID, paymentRef string, event *entity.OutboxEvent) (bool, error)

	// SetCheckedIn transitions confirmed -> checked_in and stamps the
	// check-in time, guarded the same way.
	SetCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// FindExpiredConfirmed returns confirmed bookings whose check-in
	// deadline has passed without a check-in, for the no-show sweep.
	FindExpiredConfirmed(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, order_id, user_id, mode, zone_id, table_id, claim_id, booking_date, time_slot,
	guest_count, fee, status, payment_ref, check_in_deadline, checked_in_at, created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking, event *entity.OutboxEvent) error {
	query := `
		INSERT INTO bookings (id, order_id, user_id, mode, zone_id, table_id, claim_id, booking_date, time_slot,
			guest_count, fee, status, payment_ref, check_in_deadline, checked_in_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	_, err = tx.Exec(ctx, query,
		booking.ID,
		booking.OrderID,
		booking.UserID,
		booking.Mode,
		booking.ZoneID,
		booking.TableID,
		booking.ClaimID,
		booking.BookingDate,
		booking.Slot,
		booking.GuestCount,
		booking.Fee,
		booking.Status,
		booking.PaymentRef,
		booking.CheckInDeadline,
		booking.CheckedInAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.OrderID, err)
	}

	if event != nil {
		if err := insertOutboxEvent(ctx, tx, event); err != nil {
			return fmt.Errorf("create outbox event for booking %s: %w", booking.OrderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}

	return nil
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.OrderID,
		&booking.UserID,
		&booking.Mode,
		&booking.ZoneID,
		&booking.TableID,
		&booking.ClaimID,
		&booking.BookingDate,
		&booking.Slot,
		&booking.GuestCount,
		&booking.Fee,
		&booking.Status,
		&booking.PaymentRef,
		&booking.CheckInDeadline,
		&booking.CheckedInAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next entity.BookingStatus, event *entity.OutboxEvent) (bool, error) {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin status tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, query, id, expected, next)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("expected", string(expected)),
			zap.String("next", string(next)),
		)
		return false, fmt.Errorf("update booking %s status %s->%s: %w", id.String(), expected, next, err)
	}

	won := result.RowsAffected() > 0
	if won && event != nil {
		if err := insertOutboxEvent(ctx, tx, event); err != nil {
			return false, fmt.Errorf("create outbox event for booking %s: %w", id.String(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit status tx: %w", err)
	}

	return won, nil
}

func (r *bookingRepository) Confirm(ctx context.Context, id uuid.UUID, paymentRef string, event *entity.OutboxEvent) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $2, payment_ref = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin confirm tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, query, id, entity.BookingStatusConfirmed, paymentRef, entity.BookingStatusPending)
	if err != nil {
		r.log.Error("Failed to confirm booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("confirm booking %s: %w", id.String(), err)
	}

	won := result.RowsAffected() > 0
	if won && event != nil {
		if err := insertOutboxEvent(ctx, tx, event); err != nil {
			return false, fmt.Errorf("create outbox event for booking %s: %w", id.String(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit confirm tx: %w", err)
	}

	return won, nil
}

func (r *bookingRepository) SetCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $2, checked_in_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.Exec(ctx, query, id, entity.BookingStatusCheckedIn, at, entity.BookingStatusConfirmed)
	if err != nil {
		r.log.Error("Failed to set booking checked in",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("check in booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) FindExpiredConfirmed(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND check_in_deadline < $2 AND checked_in_at IS NULL
		ORDER BY check_in_deadline
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, entity.BookingStatusConfirmed, now, limit)
	if err != nil {
		r.log.Error("Failed to find expired confirmed bookings", zap.Error(err))
		return nil, fmt.Errorf("find expired confirmed bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}
