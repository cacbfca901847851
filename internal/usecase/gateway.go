package usecase

import (
	"context"

	"github.com/saferoute-service/internal/domain"
)

// MapGateway is the slice of the provider gateway the use cases depend on.
// Satisfied by *maps.Gateway; tests substitute a mock.
type MapGateway interface {
	CalculateRoute(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions) (*domain.Route, error)
	AlternativeRoutes(ctx context.Context, origin, destination domain.Coordinates, count int) ([]*domain.Route, error)
	Geocode(ctx context.Context, query string) ([]domain.Address, error)
	ReverseGeocode(ctx context.Context, coords domain.Coordinates) (*domain.Address, error)
	TrafficData(ctx context.Context, route *domain.Route) (*domain.TrafficData, error)
}
