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

type TableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Table, error)
	FindActiveByZoneID(ctx context.Context, zoneID uuid.UUID) ([]*entity.Table, error)

	// TotalActiveCapacity is the zone's capacity ledger ceiling: the
	// sum of capacities of its active tables.
	TotalActiveCapacity(ctx context.Context, zoneID uuid.UUID) (int, error)
}

type tableRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTableRepository(db database.PgxIface, log *zap.Logger) TableRepository {
	return &tableRepository{
		db:  db,
		log: log.With(zap.String("repository", "table")),
	}
}

func (r *tableRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Table, error) {
	query := `
		SELECT id, zone_id, table_number, capacity, is_active, created_at, updated_at
		FROM tables
		WHERE id = $1
	`

	var table entity.Table
	err := r.db.QueryRow(ctx, query, id).Scan(
		&table.ID,
		&table.ZoneID,
		&table.TableNumber,
		&table.Capacity,
		&table.IsActive,
		&table.CreatedAt,
		&table.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find table by ID",
			zap.Error(err),
			zap.String("table_id", id.String()),
		)
		return nil, fmt.Errorf("find table by ID %s: %w", id.String(), err)
	}

	return &table, nil
}

func (r *tableRepository) FindActiveByZoneID(ctx context.Context, zoneID uuid.UUID) ([]*entity.Table, error) {
	query := `
		SELECT id, zone_id, table_number, capacity, is_active, created_at, updated_at
		FROM tables
		WHERE zone_id = $1 AND is_active
		ORDER BY table_number
	`

	rows, err := r.db.Query(ctx, query, zoneID)
	if err != nil {
		r.log.Error("Failed to find tables by zone ID",
			zap.Error(err),
			zap.String("zone_id", zoneID.String()),
		)
		return nil, fmt.Errorf("find tables by zone ID %s: %w", zoneID.String(), err)
	}
	defer rows.Close()

	var tables []*entity.Table
	for rows.Next() {
		var table entity.Table
		err := rows.Scan(
			&table.ID,
			&table.ZoneID,
			&table.TableNumber,
			&table.Capacity,
			&table.IsActive,
			&table.CreatedAt,
			&table.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan table row", zap.Error(err))
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, &table)
	}

	return tables, nil
}

func (r *tableRepository) TotalActiveCapacity(ctx context.Context, zoneID uuid.UUID) (int, error) {
	query := `SELECT COALESCE(SUM(capacity), 0) FROM tables WHERE zone_id = $1 AND is_active`

	var capacity int
	err := r.db.QueryRow(ctx, query, zoneID).Scan(&capacity)
	if err != nil {
		r.log.Error("Failed to sum zone capacity",
			zap.Error(err),
			zap.String("zone_id", zoneID.String()),
		)
		return 0, fmt.Errorf("sum capacity for zone %s: %w", zoneID.String(), err)
	}

	return capacity, nil
}
