package maps

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/pkg/errors"
)

const (
	mapboxDrivingProfile = "mapbox/driving-traffic"
	mapboxGeocodeDataset = "mapbox.places"
)

type mapboxProvider struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      *zap.Logger
}

// NewMapboxProvider creates the Mapbox adapter.
func NewMapboxProvider(cfg *config.MapsConfig, logger *zap.Logger) RouteProvider {
	return &mapboxProvider{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:     cfg.MapboxBaseURL,
		accessToken: cfg.MapboxToken,
		logger:      logger,
	}
}

func (p *mapboxProvider) Name() string {
	return "mapbox"
}

type mapboxDirectionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance        float64 `json:"distance"`
		Duration        float64 `json:"duration"`
		DurationTypical float64 `json:"duration_typical"`
		Geometry        string  `json:"geometry"`
		Legs            []struct {
			Steps []struct {
				Maneuver struct {
					Instruction string    `json:"instruction"`
					Location    []float64 `json:"location"`
				} `json:"maneuver"`
				Distance float64 `json:"distance"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type mapboxContextEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type mapboxGeocodeResponse struct {
	Features []struct {
		PlaceName string               `json:"place_name"`
		Center    []float64            `json:"center"`
		Text      string               `json:"text"`
		Context   []mapboxContextEntry `json:"context"`
	} `json:"features"`
}

func (p *mapboxProvider) CalculateRoute(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions) (*domain.Route, error) {
	routes, err := p.directions(ctx, origin, destination, opts, false)
	if err != nil {
		return nil, err
	}
	return routes[0], nil
}

func (p *mapboxProvider) AlternativeRoutes(ctx context.Context, origin, destination domain.Coordinates, count int) ([]*domain.Route, error) {
	routes, err := p.directions(ctx, origin, destination, domain.RouteOptions{Alternatives: count}, true)
	if err != nil {
		return nil, err
	}
	if len(routes) > count {
		routes = routes[:count]
	}
	return routes, nil
}

func (p *mapboxProvider) directions(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions, alternatives bool) ([]*domain.Route, error) {
	resp, err := p.directionsRaw(ctx, origin, destination, opts, alternatives)
	if err != nil {
		return nil, err
	}

	routes := make([]*domain.Route, 0, len(resp.Routes))
	for _, r := range resp.Routes {
		route, err := domain.NewRoute(origin, destination, r.Distance, r.Duration, r.Geometry, p.Name())
		if err != nil {
			return nil, err
		}
		for _, leg := range r.Legs {
			for _, step := range leg.Steps {
				instr := domain.Instruction{
					Text:     step.Maneuver.Instruction,
					Distance: step.Distance,
				}
				if len(step.Maneuver.Location) == 2 {
					instr.Point = domain.Coordinates{Lat: step.Maneuver.Location[1], Lon: step.Maneuver.Location[0]}
				}
				route.Instructions = append(route.Instructions, instr)
			}
		}
		routes = append(routes, &route)
	}
	return routes, nil
}

func (p *mapboxProvider) directionsRaw(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions, alternatives bool) (*mapboxDirectionsResponse, error) {
	coords := fmt.Sprintf("%f,%f;%f,%f", origin.Lon, origin.Lat, destination.Lon, destination.Lat)

	params := url.Values{}
	params.Set("access_token", p.accessToken)
	params.Set("geometries", "polyline")
	params.Set("overview", "full")
	params.Set("steps", "true")
	if alternatives {
		params.Set("alternatives", "true")
	}
	var exclude []string
	if opts.AvoidTolls {
		exclude = append(exclude, "toll")
	}
	if opts.AvoidHighways {
		exclude = append(exclude, "motorway")
	}
	if len(exclude) > 0 {
		params.Set("exclude", strings.Join(exclude, ","))
	}

	endpoint := fmt.Sprintf("%s/directions/v5/%s/%s?%s", p.baseURL, mapboxDrivingProfile, coords, params.Encode())

	var resp mapboxDirectionsResponse
	if err := p.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if resp.Code == "NoRoute" || len(resp.Routes) == 0 {
		return nil, errors.ErrNoRouteFound
	}
	if resp.Code != "Ok" {
		p.logger.Error("Mapbox returned non-OK code", zap.String("code", resp.Code))
		return nil, errors.ErrProviderUnavailable.WithDetails(map[string]interface{}{
			"provider": p.Name(),
			"code":     resp.Code,
		})
	}

	return &resp, nil
}

func (p *mapboxProvider) Geocode(ctx context.Context, query string) ([]domain.Address, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/%s/%s.json?access_token=%s&limit=%d",
		p.baseURL, mapboxGeocodeDataset, url.PathEscape(query), p.accessToken, MaxGeocodeResults)

	var resp mapboxGeocodeResponse
	if err := p.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	addresses := make([]domain.Address, 0, len(resp.Features))
	for _, f := range resp.Features {
		if len(f.Center) != 2 {
			continue
		}
		addresses = append(addresses, p.toAddress(f.PlaceName, f.Text, f.Center, f.Context))
		if len(addresses) == MaxGeocodeResults {
			break
		}
	}
	return addresses, nil
}

func (p *mapboxProvider) ReverseGeocode(ctx context.Context, coords domain.Coordinates) (*domain.Address, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/%s/%f,%f.json?access_token=%s&limit=1",
		p.baseURL, mapboxGeocodeDataset, coords.Lon, coords.Lat, p.accessToken)

	var resp mapboxGeocodeResponse
	if err := p.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Features) == 0 {
		return nil, errors.ErrGeocodeNotFound
	}

	f := resp.Features[0]
	addr := p.toAddress(f.PlaceName, f.Text, f.Center, f.Context)
	return &addr, nil
}

func (p *mapboxProvider) toAddress(placeName, text string, center []float64, contexts []mapboxContextEntry) domain.Address {
	addr := domain.Address{
		Label:  placeName,
		Street: text,
	}
	if len(center) == 2 {
		addr.Location = domain.Coordinates{Lat: center[1], Lon: center[0]}
	}
	for _, c := range contexts {
		switch {
		case strings.HasPrefix(c.ID, "neighborhood"):
			addr.Neighborhood = c.Text
		case strings.HasPrefix(c.ID, "place"):
			addr.City = c.Text
		case strings.HasPrefix(c.ID, "region"):
			addr.State = c.Text
		case strings.HasPrefix(c.ID, "country"):
			addr.Country = c.Text
		case strings.HasPrefix(c.ID, "postcode"):
			addr.PostalCode = c.Text
		}
	}
	return addr
}

func (p *mapboxProvider) TrafficData(ctx context.Context, route *domain.Route) (*domain.TrafficData, error) {
	// The driving-traffic profile returns both the live and the typical
	// duration for the same geometry.
	resp, err := p.directionsRaw(ctx, route.Origin, route.Destination, domain.RouteOptions{}, false)
	if err != nil {
		return nil, err
	}

	live := resp.Routes[0]
	typical := live.DurationTypical
	if typical == 0 {
		typical = route.Duration
	}
	if typical == 0 {
		typical = live.Duration
	}

	data := domain.NewTrafficData(live.Duration, typical)
	return &data, nil
}

func (p *mapboxProvider) IsAvailable(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s/geocoding/v5/%s/0,0.json?access_token=%s&limit=1",
		p.baseURL, mapboxGeocodeDataset, p.accessToken)

	var resp mapboxGeocodeResponse
	return p.get(ctx, endpoint, &resp) == nil
}

func (p *mapboxProvider) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return errors.ErrProviderTimeout.WithDetails(map[string]interface{}{
				"provider": p.Name(),
			})
		}
		p.logger.Error("Mapbox request failed", zap.Error(err))
		return errors.ErrProviderUnavailable.WithDetails(map[string]interface{}{
			"provider": p.Name(),
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		p.logger.Error("Mapbox returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return classifyHTTPStatus(resp.StatusCode).WithDetails(map[string]interface{}{
			"provider": p.Name(),
			"status":   resp.StatusCode,
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		p.logger.Error("Failed to decode Mapbox response", zap.Error(err))
		return errors.ErrProviderUnavailable.WithDetails(map[string]interface{}{
			"provider": p.Name(),
			"reason":   "decode",
		})
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
