package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bar-booking/internal/data/entity"
	"bar-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClaimRepository grants and frees exclusive inventory claims.
//
// Exclusivity mechanism (documented per design): TABLE_LOCKED claims
// rely on the partial unique index
//
//	CREATE UNIQUE INDEX table_claims_exclusive
//	ON table_claims (table_id, booking_date, time_slot)
//	WHERE NOT released
//
// so of two racing inserts exactly one succeeds and the other gets a
// unique violation, mapped to entity.ErrConflict. ZONE_AUTO claims are
// capacity-based; the check-and-insert runs under a transaction-scoped
// advisory lock keyed by (zone, date, slot) so concurrent reserves for
// the same zone slot serialize while unrelated slots proceed.
type ClaimRepository interface {
	CreateTableClaim(ctx context.Context, claim *entity.TableClaim) error
	CreateZoneClaim(ctx context.Context, claim *entity.TableClaim, zoneCapacity int) error
	Release(ctx context.Context, claimID uuid.UUID) error
	FindByID(ctx context.Context, claimID uuid.UUID) (*entity.TableClaim, error)

	// ClaimedGuests sums guest counts of unreleased claims in a zone
	// for a (date, slot), for the availability read surface.
	ClaimedGuests(ctx context.Context, zoneID uuid.UUID, date time.Time, slot entity.TimeSlot) (int, error)

	// ClaimedTableIDs lists tables in a zone holding an unreleased
	// claim for a (date, slot).
	ClaimedTableIDs(ctx context.Context, zoneID uuid.UUID, date time.Time, slot entity.TimeSlot) ([]uuid.UUID, error)
}

type claimRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewClaimRepository(db database.PgxIface, log *zap.Logger) ClaimRepository {
	return &claimRepository{
		db:  db,
		log: log.With(zap.String("repository", "claim")),
	}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *claimRepository) CreateTableClaim(ctx context.Context, claim *entity.TableClaim) error {
	query := `
		INSERT INTO table_claims (id, zone_id, table_id, booking_date, time_slot, guest_count, released, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
	`

	claim.CreatedAt = time.Now()
	_, err := r.db.Exec(ctx, query,
		claim.ID,
		claim.ZoneID,
		claim.TableID,
		claim.BookingDate,
		claim.Slot,
		claim.GuestCount,
		claim.CreatedAt,
	)

	if isUniqueViolation(err) {
		return fmt.Errorf("table %s already claimed for %s %s: %w",
			claim.TableID.String(), claim.BookingDate.Format("2006-01-02"), claim.Slot, entity.ErrConflict)
	}
	if err != nil {
		r.log.Error("Failed to create table claim",
			zap.Error(err),
			zap.String("table_id", claim.TableID.String()),
			zap.String("slot", string(claim.Slot)),
		)
		return fmt.Errorf("create table claim: %w", err)
	}

	return nil
}

func (r *claimRepository) CreateZoneClaim(ctx context.Context, claim *entity.TableClaim, zoneCapacity int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin zone claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize capacity checks per (zone, date, slot). The lock is
	// released automatically at commit/rollback.
	lockKey := fmt.Sprintf("%s|%s|%s", claim.ZoneID, claim.BookingDate.Format("2006-01-02"), claim.Slot)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("acquire zone claim lock: %w", err)
	}

	var claimed int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(guest_count), 0)
		FROM table_claims
		WHERE zone_id = $1 AND booking_date = $2 AND time_slot = $3 AND NOT released
	`, claim.ZoneID, claim.BookingDate, claim.Slot).Scan(&claimed)
	if err != nil {
		return fmt.Errorf("sum zone claims: %w", err)
	}

	if claimed+claim.GuestCount > zoneCapacity {
		return fmt.Errorf("zone %s has %d of %d seats claimed for %s %s: %w",
			claim.ZoneID.String(), claimed, zoneCapacity,
			claim.BookingDate.Format("2006-01-02"), claim.Slot, entity.ErrConflict)
	}

	claim.CreatedAt = time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO table_claims (id, zone_id, table_id, booking_date, time_slot, guest_count, released, created_at)
		VALUES ($1, $2, NULL, $3, $4, $5, false, $6)
	`, claim.ID, claim.ZoneID, claim.BookingDate, claim.Slot, claim.GuestCount, claim.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create zone claim",
			zap.Error(err),
			zap.String("zone_id", claim.ZoneID.String()),
			zap.String("slot", string(claim.Slot)),
		)
		return fmt.Errorf("create zone claim: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit zone claim: %w", err)
	}

	return nil
}

// Release frees a claim. Releasing an already-released or unknown claim
// is a no-op so cancellation races stay harmless.
func (r *claimRepository) Release(ctx context.Context, claimID uuid.UUID) error {
	query := `UPDATE table_claims SET released = true WHERE id = $1 AND NOT released`

	_, err := r.db.Exec(ctx, query, claimID)
	if err != nil {
		r.log.Error("Failed to release claim",
			zap.Error(err),
			zap.String("claim_id", claimID.String()),
		)
		return fmt.Errorf("release claim %s: %w", claimID.String(), err)
	}

	return nil
}

func (r *claimRepository) FindByID(ctx context.Context, claimID uuid.UUID) (*entity.TableClaim, error) {
	query := `
		SELECT id, zone_id, table_id, booking_date, time_slot, guest_count, released, created_at
		FROM table_claims
		WHERE id = $1
	`

	var claim entity.TableClaim
	err := r.db.QueryRow(ctx, query, claimID).Scan(
		&claim.ID,
		&claim.ZoneID,
		&claim.TableID,
		&claim.BookingDate,
		&claim.Slot,
		&claim.GuestCount,
		&claim.Released,
		&claim.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find claim by ID",
			zap.Error(err),
			zap.String("claim_id", claimID.String()),
		)
		return nil, fmt.Errorf("find claim by ID %s: %w", claimID.String(), err)
	}

	return &claim, nil
}

func (r *claimRepository) ClaimedGuests(ctx context.Context, zoneID uuid.UUID, date time.Time, slot entity.TimeSlot) (int, error) {
	query := `
		SELECT COALESCE(SUM(guest_count), 0)
		FROM table_claims
		WHERE zone_id = $1 AND booking_date = $2 AND time_slot = $3 AND NOT released
	`

	var claimed int
	err := r.db.QueryRow(ctx, query, zoneID, date, slot).Scan(&claimed)
	if err != nil {
		r.log.Error("Failed to sum claimed guests",
			zap.Error(err),
			zap.String("zone_id", zoneID.String()),
		)
		return 0, fmt.Errorf("sum claimed guests for zone %s: %w", zoneID.String(), err)
	}

	return claimed, nil
}

func (r *claimRepository) ClaimedTableIDs(ctx context.Context, zoneID uuid.UUID, date time.Time, slot entity.TimeSlot) ([]uuid.UUID, error) {
	query := `
		SELECT table_id
		FROM table_claims
		WHERE zone_id = $1 AND booking_date = $2 AND time_slot = $3 AND table_id IS NOT NULL AND NOT released
	`

	rows, err := r.db.Query(ctx, query, zoneID, date, slot)
	if err != nil {
		r.log.Error("Failed to list claimed tables",
			zap.Error(err),
			zap.String("zone_id", zoneID.String()),
		)
		return nil, fmt.Errorf("list claimed tables for zone %s: %w", zoneID.String(), err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan claimed table row: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
