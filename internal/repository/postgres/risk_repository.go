package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/errors"
)

type riskRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewRiskRepository(db *DB) repository.RiskRepository {
	return &riskRepository{
		db:     db,
		logger: db.logger,
	}
}

type riskRow struct {
	RegionID          string    `db:"region_id"`
	Value             float64   `db:"value"`
	Factors           []byte    `db:"factors"`
	OccurrenceCount   int       `db:"occurrence_count"`
	DominantCrimeType string    `db:"dominant_crime_type"`
	CalculatedAt      time.Time `db:"calculated_at"`
}

func (r riskRow) toDomain() (*domain.RiskIndex, error) {
	index := &domain.RiskIndex{
		RegionID:          r.RegionID,
		Value:             r.Value,
		OccurrenceCount:   r.OccurrenceCount,
		DominantCrimeType: r.DominantCrimeType,
		CalculatedAt:      r.CalculatedAt,
	}
	if len(r.Factors) > 0 {
		if err := json.Unmarshal(r.Factors, &index.Factors); err != nil {
			return nil, errors.ErrInternalServer.WithDetails(map[string]interface{}{
				"region_id": r.RegionID,
				"error":     err.Error(),
			})
		}
	}
	return index, nil
}

func (r *riskRepository) GetByRegion(ctx context.Context, regionID string) (*domain.RiskIndex, error) {
	query := `
		SELECT region_id, value, factors, occurrence_count,
		       COALESCE(dominant_crime_type, '') AS dominant_crime_type, calculated_at
		FROM risk_indexes
		WHERE region_id = $1`

	var row riskRow
	if err := r.db.GetContext(ctx, &row, query, regionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("failed to get risk index", zap.String("region_id", regionID), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	return row.toDomain()
}

func (r *riskRepository) GetByRegions(ctx context.Context, regionIDs []string) (map[string]*domain.RiskIndex, error) {
	result := make(map[string]*domain.RiskIndex, len(regionIDs))
	if len(regionIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT region_id, value, factors, occurrence_count,
		       COALESCE(dominant_crime_type, '') AS dominant_crime_type, calculated_at
		FROM risk_indexes
		WHERE region_id = ANY($1)`

	var rows []riskRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(regionIDs)); err != nil {
		r.logger.Error("failed to get risk indexes", zap.Int("regions", len(regionIDs)), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	for _, row := range rows {
		index, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		result[index.RegionID] = index
	}
	return result, nil
}

func (r *riskRepository) ReplaceForRegion(ctx context.Context, index *domain.RiskIndex) error {
	factors, err := json.Marshal(index.Factors)
	if err != nil {
		return errors.ErrInternalServer.WithDetails(map[string]interface{}{"error": err.Error()})
	}

	query := `
		INSERT INTO risk_indexes (region_id, value, factors, occurrence_count, dominant_crime_type, calculated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (region_id) DO UPDATE SET
			value = EXCLUDED.value,
			factors = EXCLUDED.factors,
			occurrence_count = EXCLUDED.occurrence_count,
			dominant_crime_type = EXCLUDED.dominant_crime_type,
			calculated_at = EXCLUDED.calculated_at`

	_, err = r.db.ExecContext(ctx, query,
		index.RegionID, index.Value, factors,
		index.OccurrenceCount, index.DominantCrimeType, index.CalculatedAt,
	)
	if err != nil {
		r.logger.Error("failed to replace risk index", zap.String("region_id", index.RegionID), zap.Error(err))
		return errors.ErrDatabaseError
	}
	return nil
}
