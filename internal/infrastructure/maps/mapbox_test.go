package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/pkg/errors"
)

func newMapboxTestProvider(serverURL string) RouteProvider {
	return NewMapboxProvider(&config.MapsConfig{
		MapboxBaseURL:  serverURL,
		MapboxToken:    "test-token",
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())
}

const mapboxDirectionsBody = `{
	"code": "Ok",
	"routes": [{
		"distance": 5420.5,
		"duration": 780.2,
		"duration_typical": 700.0,
		"geometry": "_p~iF~ps|U_ulLnnqC",
		"legs": [{
			"steps": [{
				"maneuver": {
					"instruction": "Turn right onto Main Street",
					"location": [-120.2, 38.5]
				},
				"distance": 320.0
			}]
		}]
	}]
}`

func TestMapboxCalculateRoute(t *testing.T) {
	origin := domain.Coordinates{Lat: 38.5, Lon: -120.2}
	dest := domain.Coordinates{Lat: 40.7, Lon: -120.95}

	t.Run("normalizes the directions response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/directions/v5/mapbox/driving-traffic/")
			assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
			assert.Equal(t, "polyline", r.URL.Query().Get("geometries"))
			w.Write([]byte(mapboxDirectionsBody))
		}))
		defer server.Close()

		route, err := newMapboxTestProvider(server.URL).CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		require.NoError(t, err)

		assert.Equal(t, "mapbox", route.Provider)
		assert.Equal(t, 5420.5, route.Distance)
		assert.Equal(t, 780.2, route.Duration)
		assert.Equal(t, origin, route.Origin)
		assert.Equal(t, dest, route.Destination)

		path := route.Path()
		require.Len(t, path, 2)
		assert.InDelta(t, 38.5, path[0].Lat, 1e-5)

		require.Len(t, route.Instructions, 1)
		assert.Equal(t, "Turn right onto Main Street", route.Instructions[0].Text)
		assert.InDelta(t, 38.5, route.Instructions[0].Point.Lat, 1e-9)
		assert.Equal(t, 320.0, route.Instructions[0].Distance)
	})

	t.Run("avoid options map to exclude", func(t *testing.T) {
		var exclude string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			exclude = r.URL.Query().Get("exclude")
			w.Write([]byte(mapboxDirectionsBody))
		}))
		defer server.Close()

		_, err := newMapboxTestProvider(server.URL).CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{
			AvoidTolls:    true,
			AvoidHighways: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "toll,motorway", exclude)
	})

	t.Run("no route code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
		}))
		defer server.Close()

		_, err := newMapboxTestProvider(server.URL).CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		assert.ErrorIs(t, err, errors.ErrNoRouteFound)
	})

	t.Run("unexpected code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code": "InvalidInput", "routes": [{"distance": 1}]}`))
		}))
		defer server.Close()

		_, err := newMapboxTestProvider(server.URL).CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
		assert.ErrorIs(t, err, errors.ErrProviderUnavailable)
	})

	t.Run("http status classification", func(t *testing.T) {
		cases := []struct {
			status int
			want   error
		}{
			{http.StatusUnauthorized, errors.ErrProviderAuthFailed},
			{http.StatusTooManyRequests, errors.ErrQuotaExceeded},
			{http.StatusInternalServerError, errors.ErrProviderUnavailable},
		}
		for _, tc := range cases {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			_, err := newMapboxTestProvider(server.URL).CalculateRoute(context.Background(), origin, dest, domain.RouteOptions{})
			assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
			server.Close()
		}
	})
}

func TestMapboxAlternativeRoutes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("alternatives"))
		w.Write([]byte(`{
			"code": "Ok",
			"routes": [
				{"distance": 5000, "duration": 700, "geometry": "_p~iF~ps|U"},
				{"distance": 5600, "duration": 650, "geometry": "_p~iF~ps|U"},
				{"distance": 6100, "duration": 810, "geometry": "_p~iF~ps|U"}
			]
		}`))
	}))
	defer server.Close()

	routes, err := newMapboxTestProvider(server.URL).AlternativeRoutes(context.Background(),
		domain.Coordinates{Lat: 38.5, Lon: -120.2}, domain.Coordinates{Lat: 40.7, Lon: -120.95}, 2)
	require.NoError(t, err)
	assert.Len(t, routes, 2)
	assert.Equal(t, 5000.0, routes[0].Distance)
}

func TestMapboxGeocode(t *testing.T) {
	t.Run("maps context entries to address fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/geocoding/v5/mapbox.places/")
			w.Write([]byte(`{
				"features": [{
					"place_name": "Avenida Paulista, Bela Vista, Sao Paulo, Brazil",
					"center": [-46.6544, -23.5632],
					"text": "Avenida Paulista",
					"context": [
						{"id": "neighborhood.123", "text": "Bela Vista"},
						{"id": "place.456", "text": "Sao Paulo"},
						{"id": "region.789", "text": "SP"},
						{"id": "country.1", "text": "Brazil"},
						{"id": "postcode.2", "text": "01310-100"}
					]
				}]
			}`))
		}))
		defer server.Close()

		addresses, err := newMapboxTestProvider(server.URL).Geocode(context.Background(), "Avenida Paulista")
		require.NoError(t, err)
		require.Len(t, addresses, 1)

		addr := addresses[0]
		assert.Equal(t, "Avenida Paulista", addr.Street)
		assert.Equal(t, "Bela Vista", addr.Neighborhood)
		assert.Equal(t, "Sao Paulo", addr.City)
		assert.Equal(t, "SP", addr.State)
		assert.Equal(t, "Brazil", addr.Country)
		assert.Equal(t, "01310-100", addr.PostalCode)
		assert.InDelta(t, -23.5632, addr.Location.Lat, 1e-9)
	})

	t.Run("no results is an empty slice", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"features": []}`))
		}))
		defer server.Close()

		addresses, err := newMapboxTestProvider(server.URL).Geocode(context.Background(), "nowhere at all")
		require.NoError(t, err)
		assert.Empty(t, addresses)
	})
}

func TestMapboxReverseGeocode(t *testing.T) {
	t.Run("empty features is not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"features": []}`))
		}))
		defer server.Close()

		_, err := newMapboxTestProvider(server.URL).ReverseGeocode(context.Background(), domain.Coordinates{Lat: 0, Lon: 0})
		assert.ErrorIs(t, err, errors.ErrGeocodeNotFound)
	})
}

func TestMapboxTrafficData(t *testing.T) {
	route := &domain.Route{
		Origin:      domain.Coordinates{Lat: 38.5, Lon: -120.2},
		Destination: domain.Coordinates{Lat: 40.7, Lon: -120.95},
		Duration:    750,
	}

	t.Run("typical duration comes from the response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"code": "Ok",
				"routes": [{"distance": 5420.5, "duration": 900, "duration_typical": 600, "geometry": "_p~iF~ps|U"}]
			}`))
		}))
		defer server.Close()

		data, err := newMapboxTestProvider(server.URL).TrafficData(context.Background(), route)
		require.NoError(t, err)
		assert.Equal(t, 900.0, data.CurrentDuration)
		assert.Equal(t, 600.0, data.TypicalDuration)
		assert.InDelta(t, 0.5, data.DelayRatio, 1e-9)
		assert.Equal(t, domain.TrafficHeavy, data.Condition)
	})

	t.Run("falls back to the route duration", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"code": "Ok",
				"routes": [{"distance": 5420.5, "duration": 900, "geometry": "_p~iF~ps|U"}]
			}`))
		}))
		defer server.Close()

		data, err := newMapboxTestProvider(server.URL).TrafficData(context.Background(), route)
		require.NoError(t, err)
		assert.Equal(t, 750.0, data.TypicalDuration)
		assert.InDelta(t, 0.2, data.DelayRatio, 1e-9)
	})
}
