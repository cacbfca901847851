package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/domain/repository"
	"github.com/saferoute-service/internal/pkg/errors"
)

type occurrenceRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewOccurrenceRepository(db *DB) repository.OccurrenceRepository {
	return &occurrenceRepository{
		db:     db,
		logger: db.logger,
	}
}

const occurrenceColumns = `
	id, occurred_at, ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lon,
	crime_type, severity, confidence_score, source,
	COALESCE(region_id, '') AS region_id, COALESCE(reporter_id, '') AS reporter_id,
	status, COALESCE(merged_into_id, '') AS merged_into_id, expires_at, created_at
`

type occurrenceRow struct {
	ID              string       `db:"id"`
	OccurredAt      time.Time    `db:"occurred_at"`
	Lat             float64      `db:"lat"`
	Lon             float64      `db:"lon"`
	CrimeType       string       `db:"crime_type"`
	Severity        string       `db:"severity"`
	ConfidenceScore int          `db:"confidence_score"`
	Source          string       `db:"source"`
	RegionID        string       `db:"region_id"`
	ReporterID      string       `db:"reporter_id"`
	Status          string       `db:"status"`
	MergedIntoID    string       `db:"merged_into_id"`
	ExpiresAt       sql.NullTime `db:"expires_at"`
	CreatedAt       time.Time    `db:"created_at"`
}

func (row occurrenceRow) toDomain() *domain.Occurrence {
	occ := &domain.Occurrence{
		ID:              row.ID,
		Timestamp:       row.OccurredAt,
		Location:        domain.Coordinates{Lat: row.Lat, Lon: row.Lon},
		CrimeType:       row.CrimeType,
		Severity:        domain.Severity(row.Severity),
		ConfidenceScore: row.ConfidenceScore,
		Source:          domain.OccurrenceSource(row.Source),
		RegionID:        row.RegionID,
		ReporterID:      row.ReporterID,
		Status:          domain.OccurrenceStatus(row.Status),
		MergedIntoID:    row.MergedIntoID,
		CreatedAt:       row.CreatedAt,
	}
	if row.ExpiresAt.Valid {
		t := row.ExpiresAt.Time
		occ.ExpiresAt = &t
	}
	return occ
}

func (r *occurrenceRepository) Create(ctx context.Context, occ *domain.Occurrence) error {
	query := `
		INSERT INTO occurrences (
			id, occurred_at, location, crime_type, severity, confidence_score,
			source, region_id, reporter_id, status, expires_at, created_at
		) VALUES (
			$1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
			$5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12, $13
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		occ.ID, occ.Timestamp, occ.Location.Lon, occ.Location.Lat,
		occ.CrimeType, string(occ.Severity), occ.ConfidenceScore,
		string(occ.Source), occ.RegionID, occ.ReporterID,
		string(occ.Status), occ.ExpiresAt, occ.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert occurrence", zap.String("id", occ.ID), zap.Error(err))
		return errors.ErrDatabaseError
	}
	return nil
}

func (r *occurrenceRepository) GetByID(ctx context.Context, id string) (*domain.Occurrence, error) {
	var row occurrenceRow
	err := r.db.GetContext(ctx, &row, `SELECT `+occurrenceColumns+` FROM occurrences WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrOccurrenceNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get occurrence", zap.String("id", id), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	return row.toDomain(), nil
}

func (r *occurrenceRepository) FindNear(ctx context.Context, point domain.Coordinates, radiusMeters float64, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error) {
	query := `
		SELECT ` + occurrenceColumns + `
		FROM occurrences
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	`
	args := []interface{}{point.Lon, point.Lat, radiusMeters}
	query, args = applyFilter(query, args, filter)

	return r.queryOccurrences(ctx, query, args...)
}

func (r *occurrenceRepository) FindInRegion(ctx context.Context, regionID string, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error) {
	query := `
		SELECT ` + occurrenceColumns + `
		FROM occurrences
		WHERE region_id = $1
	`
	args := []interface{}{regionID}
	query, args = applyFilter(query, args, filter)

	return r.queryOccurrences(ctx, query, args...)
}

func (r *occurrenceRepository) FindExpiredCandidates(ctx context.Context, now time.Time, limit int) ([]*domain.Occurrence, error) {
	query := `
		SELECT ` + occurrenceColumns + `
		FROM occurrences
		WHERE source = 'collaborative'
		  AND status = 'active'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2
	`
	return r.queryOccurrences(ctx, query, now, limit)
}

func (r *occurrenceRepository) UpdateStatus(ctx context.Context, id string, status domain.OccurrenceStatus, mergedIntoID string) error {
	query := `
		UPDATE occurrences
		SET status = $2, merged_into_id = NULLIF($3, '')
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, string(status), mergedIntoID)
	if err != nil {
		r.logger.Error("Failed to update occurrence status", zap.String("id", id), zap.Error(err))
		return errors.ErrDatabaseError
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrOccurrenceNotFound
	}
	return nil
}

func (r *occurrenceRepository) UpdateConfidence(ctx context.Context, id string, confidence int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE occurrences SET confidence_score = $2 WHERE id = $1`, id, confidence)
	if err != nil {
		r.logger.Error("Failed to update occurrence confidence", zap.String("id", id), zap.Error(err))
		return errors.ErrDatabaseError
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrOccurrenceNotFound
	}
	return nil
}

func (r *occurrenceRepository) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE occurrences SET expires_at = $2 WHERE id = $1`, id, until)
	if err != nil {
		r.logger.Error("Failed to extend occurrence expiry", zap.String("id", id), zap.Error(err))
		return errors.ErrDatabaseError
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrOccurrenceNotFound
	}
	return nil
}

func (r *occurrenceRepository) AddCorroboration(ctx context.Context, link domain.CorroborationLink) error {
	query := `
		INSERT INTO occurrence_corroborations (occurrence_id, corroborated_by, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, link.OccurrenceID, link.CorroboratedBy, link.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to record corroboration",
			zap.String("occurrence_id", link.OccurrenceID),
			zap.Error(err))
		return errors.ErrDatabaseError
	}
	return nil
}

func (r *occurrenceRepository) HasValidationRecord(ctx context.Context, occurrenceID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM occurrence_validations WHERE occurrence_id = $1)`, occurrenceID)
	if err != nil {
		r.logger.Error("Failed to check validation record",
			zap.String("occurrence_id", occurrenceID),
			zap.Error(err))
		return false, errors.ErrDatabaseError
	}
	return exists, nil
}

// applyFilter appends the optional filter clauses, numbering placeholders
// after the ones already in args.
func applyFilter(query string, args []interface{}, filter domain.OccurrenceFilter) (string, []interface{}) {
	n := len(args)

	if filter.CrimeType != "" {
		n++
		query += " AND crime_type = $" + strconv.Itoa(n)
		args = append(args, filter.CrimeType)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		n++
		query += " AND status = ANY($" + strconv.Itoa(n) + ")"
		args = append(args, pq.Array(statuses))
	}
	if !filter.Since.IsZero() {
		n++
		query += " AND occurred_at >= $" + strconv.Itoa(n)
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		n++
		query += " AND occurred_at <= $" + strconv.Itoa(n)
		args = append(args, filter.Until)
	}

	return query + " ORDER BY occurred_at DESC", args
}

func (r *occurrenceRepository) queryOccurrences(ctx context.Context, query string, args ...interface{}) ([]*domain.Occurrence, error) {
	var rows []occurrenceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error("Failed to query occurrences", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	occurrences := make([]*domain.Occurrence, 0, len(rows))
	for _, row := range rows {
		occurrences = append(occurrences, row.toDomain())
	}
	return occurrences, nil
}
