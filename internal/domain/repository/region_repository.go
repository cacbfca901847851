package repository

import (
	"context"

	"github.com/saferoute-service/internal/domain"
)

// RegionRepository is the geospatial store view over the region hierarchy.
type RegionRepository interface {
	// GetByID returns a region with its boundary ring.
	GetByID(ctx context.Context, id string) (*domain.Region, error)

	// FindContaining returns all regions whose polygon contains the point,
	// broad to narrow. Empty result means the point is outside coverage.
	FindContaining(ctx context.Context, point domain.Coordinates) ([]*domain.Region, error)

	// FindIntersectingBounds returns regions whose boundary intersects the
	// given lat/lon envelope. Used to prefetch candidates for a route.
	FindIntersectingBounds(ctx context.Context, minLat, minLon, maxLat, maxLon float64) ([]*domain.Region, error)

	// ListIDs returns every region id, for full risk sweeps.
	ListIDs(ctx context.Context) ([]string, error)
}
