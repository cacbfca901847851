package repository

import (
	"context"
	"time"

	"github.com/saferoute-service/internal/domain"
)

// OccurrenceRepository persists occurrence records and their corroboration
// graph.
type OccurrenceRepository interface {
	// Create persists a new occurrence.
	Create(ctx context.Context, occ *domain.Occurrence) error

	// GetByID returns an occurrence by id.
	GetByID(ctx context.Context, id string) (*domain.Occurrence, error)

	// FindNear returns occurrences within radiusMeters of the point,
	// narrowed by the filter.
	FindNear(ctx context.Context, point domain.Coordinates, radiusMeters float64, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error)

	// FindInRegion returns occurrences assigned to the region.
	FindInRegion(ctx context.Context, regionID string, filter domain.OccurrenceFilter) ([]*domain.Occurrence, error)

	// FindExpiredCandidates returns collaborative occurrences past their
	// expiry that are still active.
	FindExpiredCandidates(ctx context.Context, now time.Time, limit int) ([]*domain.Occurrence, error)

	// UpdateStatus sets the status, and the merged-into pointer when the
	// status is merged.
	UpdateStatus(ctx context.Context, id string, status domain.OccurrenceStatus, mergedIntoID string) error

	// UpdateConfidence sets the confidence score.
	UpdateConfidence(ctx context.Context, id string, confidence int) error

	// ExtendExpiry pushes the expiry forward for preserved occurrences.
	ExtendExpiry(ctx context.Context, id string, until time.Time) error

	// AddCorroboration records a corroboration link between two occurrences.
	AddCorroboration(ctx context.Context, link domain.CorroborationLink) error

	// HasValidationRecord reports whether an official confirmation exists
	// for the occurrence.
	HasValidationRecord(ctx context.Context, occurrenceID string) (bool, error)
}
