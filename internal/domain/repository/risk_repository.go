package repository

import (
	"context"

	"github.com/saferoute-service/internal/domain"
)

// RiskRepository stores the current risk index per region. Writes replace
// the previous value atomically; readers always observe a complete index.
type RiskRepository interface {
	// GetByRegion returns the current index for a region, or nil when none
	// has been computed yet.
	GetByRegion(ctx context.Context, regionID string) (*domain.RiskIndex, error)

	// GetByRegions returns the current indexes for several regions keyed by
	// region id. Regions without an index are absent from the map.
	GetByRegions(ctx context.Context, regionIDs []string) (map[string]*domain.RiskIndex, error)

	// ReplaceForRegion upserts the region's index in one statement.
	ReplaceForRegion(ctx context.Context, index *domain.RiskIndex) error
}
