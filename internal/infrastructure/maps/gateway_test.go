package maps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/pkg/errors"
)

// stubProvider counts calls and returns canned results per operation.
type stubProvider struct {
	name        string
	routeCalls  int
	altCalls    int
	unavailable bool
	routeFn     func() (*domain.Route, error)
	altFn       func() ([]*domain.Route, error)
}

func (s *stubProvider) CalculateRoute(_ context.Context, _, _ domain.Coordinates, _ domain.RouteOptions) (*domain.Route, error) {
	s.routeCalls++
	if s.routeFn != nil {
		return s.routeFn()
	}
	return &domain.Route{Provider: s.name}, nil
}

func (s *stubProvider) AlternativeRoutes(_ context.Context, _, _ domain.Coordinates, _ int) ([]*domain.Route, error) {
	s.altCalls++
	if s.altFn != nil {
		return s.altFn()
	}
	return []*domain.Route{{Provider: s.name}}, nil
}

func (s *stubProvider) Geocode(_ context.Context, _ string) ([]domain.Address, error) {
	return nil, errors.ErrGeocodeNotFound
}

func (s *stubProvider) ReverseGeocode(_ context.Context, _ domain.Coordinates) (*domain.Address, error) {
	return nil, errors.ErrGeocodeNotFound
}

func (s *stubProvider) TrafficData(_ context.Context, _ *domain.Route) (*domain.TrafficData, error) {
	return nil, errors.ErrProviderUnavailable
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) IsAvailable(_ context.Context) bool { return !s.unavailable }

func newTestGateway(primary, fallback *stubProvider, limit int) *Gateway {
	g := NewGateway(primary, fallback, NewQuotaTracker(limit, time.Hour), 3, zap.NewNop())
	g.backoffBase = time.Millisecond
	return g
}

func TestGatewayCalculateRoute(t *testing.T) {
	origin := domain.Coordinates{Lat: -23.55, Lon: -46.63}
	dest := domain.Coordinates{Lat: -23.56, Lon: -46.65}

	t.Run("primary success, fallback untouched", func(t *testing.T) {
		primary := &stubProvider{name: "mapbox"}
		fallback := &stubProvider{name: "here"}
		g := newTestGateway(primary, fallback, 1000)

		route, err := g.CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		require.NoError(t, err)
		assert.Equal(t, "mapbox", route.Provider)
		assert.Equal(t, 1, primary.routeCalls)
		assert.Zero(t, fallback.routeCalls)
	})

	t.Run("retries exhausted, fallback called exactly once", func(t *testing.T) {
		primary := &stubProvider{
			name:    "mapbox",
			routeFn: func() (*domain.Route, error) { return nil, errors.ErrProviderTimeout },
		}
		fallback := &stubProvider{name: "here"}
		g := newTestGateway(primary, fallback, 1000)

		route, err := g.CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		require.NoError(t, err)
		assert.Equal(t, "here", route.Provider)
		assert.Equal(t, 3, primary.routeCalls)
		assert.Equal(t, 1, fallback.routeCalls)
	})

	t.Run("non-retryable error skips remaining attempts", func(t *testing.T) {
		primary := &stubProvider{
			name:    "mapbox",
			routeFn: func() (*domain.Route, error) { return nil, errors.ErrProviderAuthFailed },
		}
		fallback := &stubProvider{name: "here"}
		g := newTestGateway(primary, fallback, 1000)

		route, err := g.CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		require.NoError(t, err)
		assert.Equal(t, "here", route.Provider)
		assert.Equal(t, 1, primary.routeCalls)
		assert.Equal(t, 1, fallback.routeCalls)
	})

	t.Run("not found is returned without fallback", func(t *testing.T) {
		primary := &stubProvider{
			name:    "mapbox",
			routeFn: func() (*domain.Route, error) { return nil, errors.ErrNoRouteFound },
		}
		fallback := &stubProvider{name: "here"}
		g := newTestGateway(primary, fallback, 1000)

		_, err := g.CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		assert.ErrorIs(t, err, errors.ErrNoRouteFound)
		assert.Equal(t, 1, primary.routeCalls)
		assert.Zero(t, fallback.routeCalls)
	})

	t.Run("both providers failing surfaces the fallback error", func(t *testing.T) {
		primary := &stubProvider{
			name:    "mapbox",
			routeFn: func() (*domain.Route, error) { return nil, errors.ErrProviderTimeout },
		}
		fallback := &stubProvider{
			name:    "here",
			routeFn: func() (*domain.Route, error) { return nil, errors.ErrProviderUnavailable },
		}
		g := newTestGateway(primary, fallback, 1000)

		_, err := g.CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		assert.ErrorIs(t, err, errors.ErrProviderUnavailable)
		assert.Equal(t, 1, fallback.routeCalls)
	})

	t.Run("missing fallback returns unavailable", func(t *testing.T) {
		primary := &stubProvider{
			name:    "mapbox",
			routeFn: func() (*domain.Route, error) { return nil, errors.ErrProviderTimeout },
		}
		g := NewGateway(primary, nil, NewQuotaTracker(1000, time.Hour), 2, zap.NewNop())
		g.backoffBase = time.Millisecond

		_, err := g.CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		assert.ErrorIs(t, err, errors.ErrProviderUnavailable)
	})
}

func TestGatewayAlternativeRoutes(t *testing.T) {
	origin := domain.Coordinates{Lat: -23.55, Lon: -46.63}
	dest := domain.Coordinates{Lat: -23.56, Lon: -46.65}

	t.Run("quota suppression returns empty without error", func(t *testing.T) {
		primary := &stubProvider{name: "mapbox"}
		fallback := &stubProvider{name: "here"}
		g := newTestGateway(primary, fallback, 10)

		// Burn the window to the shedding threshold.
		for i := 0; i < 8; i++ {
			require.True(t, g.quota.Allow("mapbox", true))
		}

		routes, err := g.AlternativeRoutes(context.Background(), origin, dest, 3)
		assert.NoError(t, err)
		assert.Nil(t, routes)
		assert.Zero(t, primary.altCalls)
		assert.Zero(t, fallback.altCalls)
	})

	t.Run("normal path returns provider alternatives", func(t *testing.T) {
		primary := &stubProvider{name: "mapbox"}
		g := newTestGateway(primary, &stubProvider{name: "here"}, 1000)

		routes, err := g.AlternativeRoutes(context.Background(), origin, dest, 3)
		require.NoError(t, err)
		require.Len(t, routes, 1)
		assert.Equal(t, "mapbox", routes[0].Provider)
	})
}

func TestGatewayProviderHealth(t *testing.T) {
	t.Run("reports each provider by name", func(t *testing.T) {
		primary := &stubProvider{name: "mapbox"}
		fallback := &stubProvider{name: "here", unavailable: true}
		g := newTestGateway(primary, fallback, 1000)

		health := g.ProviderHealth(context.Background())
		assert.Equal(t, map[string]bool{"mapbox": true, "here": false}, health)
	})

	t.Run("no fallback configured", func(t *testing.T) {
		primary := &stubProvider{name: "mapbox"}
		g := NewGateway(primary, nil, NewQuotaTracker(1000, time.Hour), 3, zap.NewNop())

		health := g.ProviderHealth(context.Background())
		assert.Equal(t, map[string]bool{"mapbox": true}, health)
	})
}
