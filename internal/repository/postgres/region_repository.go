package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/errors"
)

type regionRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewRegionRepository(db *DB) repository.RegionRepository {
	return &regionRepository{
		db:     db,
		logger: db.logger,
	}
}

type regionRow struct {
	ID       string         `db:"id"`
	Name     string         `db:"name"`
	Type     string         `db:"type"`
	ParentID sql.NullString `db:"parent_id"`
	Boundary []byte         `db:"boundary_json"`
}

func (row regionRow) toDomain() (*domain.Region, error) {
	region := &domain.Region{
		ID:       row.ID,
		Name:     row.Name,
		Type:     domain.RegionType(row.Type),
		ParentID: row.ParentID.String,
	}

	// ST_AsGeoJSON produces a Polygon; only the outer ring is kept.
	var geom struct {
		Coordinates [][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(row.Boundary, &geom); err != nil {
		return nil, err
	}
	if len(geom.Coordinates) > 0 {
		ring := geom.Coordinates[0]
		region.Boundary = make([]domain.Coordinates, 0, len(ring))
		for _, pt := range ring {
			if len(pt) == 2 {
				region.Boundary = append(region.Boundary, domain.Coordinates{Lat: pt[1], Lon: pt[0]})
			}
		}
	}
	return region, nil
}

func (r *regionRepository) GetByID(ctx context.Context, id string) (*domain.Region, error) {
	query := `
		SELECT id, name, type, parent_id,
			ST_AsGeoJSON(boundary) AS boundary_json
		FROM regions
		WHERE id = $1
	`

	var row regionRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrRegionNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get region by id", zap.String("id", id), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	region, err := row.toDomain()
	if err != nil {
		r.logger.Error("Failed to decode region boundary", zap.String("id", id), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	return region, nil
}

func (r *regionRepository) FindContaining(ctx context.Context, point domain.Coordinates) ([]*domain.Region, error) {
	query := `
		SELECT id, name, type, parent_id,
			ST_AsGeoJSON(boundary) AS boundary_json
		FROM regions
		WHERE ST_Contains(boundary, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY CASE type
			WHEN 'city' THEN 1
			WHEN 'district' THEN 2
			WHEN 'neighborhood' THEN 3
			ELSE 0
		END
	`

	return r.queryRegions(ctx, query, point.Lon, point.Lat)
}

func (r *regionRepository) FindIntersectingBounds(ctx context.Context, minLat, minLon, maxLat, maxLon float64) ([]*domain.Region, error) {
	query := `
		SELECT id, name, type, parent_id,
			ST_AsGeoJSON(boundary) AS boundary_json
		FROM regions
		WHERE boundary && ST_MakeEnvelope($1, $2, $3, $4, 4326)
	`

	return r.queryRegions(ctx, query, minLon, minLat, maxLon, maxLat)
}

func (r *regionRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM regions ORDER BY id`); err != nil {
		r.logger.Error("Failed to list region ids", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	return ids, nil
}

func (r *regionRepository) queryRegions(ctx context.Context, query string, args ...interface{}) ([]*domain.Region, error) {
	var rows []regionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error("Failed to query regions", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	regions := make([]*domain.Region, 0, len(rows))
	for _, row := range rows {
		region, err := row.toDomain()
		if err != nil {
			r.logger.Error("Failed to decode region boundary", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		regions = append(regions, region)
	}
	return regions, nil
}
