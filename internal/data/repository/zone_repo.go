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

type ZoneRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Zone, error)
	FindAllActive(ctx context.Context) ([]*entity.Zone, error)
}

type zoneRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewZoneRepository(db database.PgxIface, log *zap.Logger) ZoneRepository {
	return &zoneRepository{
		db:  db,
		log: log.With(zap.String("repository", "zone")),
	}
}

func (r *zoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Zone, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM zones
		WHERE id = $1
	`

	var zone entity.Zone
	err := r.db.QueryRow(ctx, query, id).Scan(
		&zone.ID,
		&zone.Name,
		&zone.Description,
		&zone.IsActive,
		&zone.CreatedAt,
		&zone.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find zone by ID",
			zap.Error(err),
			zap.String("zone_id", id.String()),
		)
		return nil, fmt.Errorf("find zone by ID %s: %w", id.String(), err)
	}

	return &zone, nil
}

func (r *zoneRepository) FindAllActive(ctx context.Context) ([]*entity.Zone, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM zones
		WHERE is_active
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find active zones", zap.Error(err))
		return nil, fmt.Errorf("find active zones: %w", err)
	}
	defer rows.Close()

	var zones []*entity.Zone
	for rows.Next() {
		var zone entity.Zone
		err := rows.Scan(
			&zone.ID,
			&zone.Name,
			&zone.Description,
			&zone.IsActive,
			&zone.CreatedAt,
			&zone.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan zone row", zap.Error(err))
			return nil, fmt.Errorf("scan zone row: %w", err)
		}
		zones = append(zones, &zone)
	}

	return zones, nil
}
