package maps

import (
	"context"

	"github.com/saferoute-service/internal/domain"
)

// MaxGeocodeResults caps geocode responses regardless of how many matches
// the upstream provider returns.
const MaxGeocodeResults = 5

// RouteProvider is the uniform contract every external map provider adapter
// implements. Adapters normalize responses to the shared Route/Address
// shapes; callers never see provider wire formats.
type RouteProvider interface {
	// CalculateRoute computes a single route between two points.
	CalculateRoute(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions) (*domain.Route, error)

	// AlternativeRoutes returns up to count alternative routes.
	AlternativeRoutes(ctx context.Context, origin, destination domain.Coordinates, count int) ([]*domain.Route, error)

	// Geocode resolves a free-text query to at most MaxGeocodeResults
	// addresses. An empty slice is a valid "no results" answer.
	Geocode(ctx context.Context, query string) ([]domain.Address, error)

	// ReverseGeocode resolves coordinates to an address.
	ReverseGeocode(ctx context.Context, coords domain.Coordinates) (*domain.Address, error)

	// TrafficData returns current traffic along a route.
	TrafficData(ctx context.Context, route *domain.Route) (*domain.TrafficData, error)

	// Name returns the provider identifier used in routes and logs.
	Name() string

	// IsAvailable reports whether the provider can currently serve calls.
	IsAvailable(ctx context.Context) bool
}
