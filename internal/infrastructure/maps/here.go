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
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute-service/internal/config"
	"github.com/saferoute-service/internal/domain"
	"github.com/saferoute-service/internal/pkg/errors"
)

type hereProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewHereProvider creates the HERE routing adapter.
func NewHereProvider(cfg *config.MapsConfig, logger *zap.Logger) RouteProvider {
	return &hereProvider{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL: cfg.HereBaseURL,
		apiKey:  cfg.HereAPIKey,
		logger:  logger,
	}
}

func (p *hereProvider) Name() string {
	return "here"
}

type hereRoutingResponse struct {
	Routes []struct {
		Sections []struct {
			Polyline string `json:"polyline"`
			Summary  struct {
				Duration     float64 `json:"duration"`
				BaseDuration float64 `json:"baseDuration"`
				Length       float64 `json:"length"`
			} `json:"summary"`
			Actions []struct {
				Instruction string  `json:"instruction"`
				Length      float64 `json:"length"`
				Offset      int     `json:"offset"`
			} `json:"actions"`
		} `json:"sections"`
	} `json:"routes"`
}

type hereGeocodeResponse struct {
	Items []struct {
		Title    string `json:"title"`
		Position struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"position"`
		Address struct {
			Label       string `json:"label"`
			Street      string `json:"street"`
			District    string `json:"district"`
			City        string `json:"city"`
			State       string `json:"state"`
			CountryName string `json:"countryName"`
			PostalCode  string `json:"postalCode"`
		} `json:"address"`
	} `json:"items"`
}

func (p *hereProvider) CalculateRoute(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions) (*domain.Route, error) {
	routes, err := p.routes(ctx, origin, destination, opts, 0)
	if err != nil {
		return nil, err
	}
	return routes[0], nil
}

func (p *hereProvider) AlternativeRoutes(ctx context.Context, origin, destination domain.Coordinates, count int) ([]*domain.Route, error) {
	routes, err := p.routes(ctx, origin, destination, domain.RouteOptions{}, count)
	if err != nil {
		return nil, err
	}
	if len(routes) > count {
		routes = routes[:count]
	}
	return routes, nil
}

func (p *hereProvider) routes(ctx context.Context, origin, destination domain.Coordinates, opts domain.RouteOptions, alternatives int) ([]*domain.Route, error) {
	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("transportMode", "car")
	params.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lon))
	params.Set("destination", fmt.Sprintf("%f,%f", destination.Lat, destination.Lon))
	params.Set("return", "polyline,summary,actions")
	params.Set("departureTime", time.Now().Format(time.RFC3339))

	var avoid string
	if opts.AvoidTolls {
		avoid = "tollRoad"
	}
	if opts.AvoidHighways {
		if avoid != "" {
			avoid += ","
		}
		avoid += "controlledAccessHighway"
	}
	if avoid != "" {
		params.Set("avoid[features]", avoid)
	}
	if alternatives > 0 {
		params.Set("alternatives", strconv.Itoa(alternatives))
	}

	endpoint := fmt.Sprintf("%s/v8/routes?%s", p.baseURL, params.Encode())

	var resp hereRoutingResponse
	if err := p.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, errors.ErrNoRouteFound
	}

	routes := make([]*domain.Route, 0, len(resp.Routes))
	for _, r := range resp.Routes {
		var distance, duration float64
		var path []domain.Coordinates
		var instructions []domain.Instruction

		for _, section := range r.Sections {
			distance += section.Summary.Length
			duration += section.Summary.Duration

			points := decodeFlexiblePolyline(section.Polyline)
			path = append(path, points...)

			for _, a := range section.Actions {
				instr := domain.Instruction{
					Text:     a.Instruction,
					Distance: a.Length,
				}
				if a.Offset >= 0 && a.Offset < len(points) {
					instr.Point = points[a.Offset]
				}
				instructions = append(instructions, instr)
			}
		}

		// HERE's flexible polyline is re-encoded to the shared precision-5
		// format so downstream code never sees a provider-specific path.
		route, err := domain.NewRoute(origin, destination, distance, duration, domain.EncodePolyline(path), p.Name())
		if err != nil {
			return nil, err
		}
		route.Instructions = instructions
		routes = append(routes, &route)
	}
	return routes, nil
}

func (p *hereProvider) Geocode(ctx context.Context, query string) ([]domain.Address, error) {
	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(MaxGeocodeResults))

	endpoint := fmt.Sprintf("%s/v1/geocode?%s", geocodeBase(p.baseURL), params.Encode())

	var resp hereGeocodeResponse
	if err := p.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	addresses := make([]domain.Address, 0, len(resp.Items))
	for _, item := range resp.Items {
		addresses = append(addresses, domain.Address{
			Label:        item.Address.Label,
			Street:       item.Address.Street,
			Neighborhood: item.Address.District,
			City:         item.Address.City,
			State:        item.Address.State,
			Country:      item.Address.CountryName,
			PostalCode:   item.Address.PostalCode,
			Location:     domain.Coordinates{Lat: item.Position.Lat, Lon: item.Position.Lng},
		})
		if len(addresses) == MaxGeocodeResults {
			break
		}
	}
	return addresses, nil
}

func (p *hereProvider) ReverseGeocode(ctx context.Context, coords domain.Coordinates) (*domain.Address, error) {
	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("at", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
	params.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/v1/revgeocode?%s", geocodeBase(p.baseURL), params.Encode())

	var resp hereGeocodeResponse
	if err := p.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, errors.ErrGeocodeNotFound
	}

	item := resp.Items[0]
	return &domain.Address{
		Label:        item.Address.Label,
		Street:       item.Address.Street,
		Neighborhood: item.Address.District,
		City:         item.Address.City,
		State:        item.Address.State,
		Country:      item.Address.CountryName,
		PostalCode:   item.Address.PostalCode,
		Location:     domain.Coordinates{Lat: item.Position.Lat, Lon: item.Position.Lng},
	}, nil
}

func (p *hereProvider) TrafficData(ctx context.Context, route *domain.Route) (*domain.TrafficData, error) {
	routes, err := p.routes(ctx, route.Origin, route.Destination, domain.RouteOptions{}, 0)
	if err != nil {
		return nil, err
	}

	live := routes[0]
	typical := route.Duration
	if typical == 0 {
		typical = live.Duration
	}

	data := domain.NewTrafficData(live.Duration, typical)
	return &data, nil
}

func (p *hereProvider) IsAvailable(ctx context.Context) bool {
	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("q", "Berlin")
	params.Set("limit", "1")

	var resp hereGeocodeResponse
	return p.get(ctx, fmt.Sprintf("%s/v1/geocode?%s", geocodeBase(p.baseURL), params.Encode()), &resp) == nil
}

// geocodeBase rewrites the routing host to the geocoding host, unless a
// test server URL is configured, in which case it is used as-is.
func geocodeBase(base string) string {
	if base == "https://router.hereapi.com" {
		return "https://geocode.search.hereapi.com"
	}
	return base
}

func (p *hereProvider) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || isHereTimeout(err) {
			return errors.ErrProviderTimeout.WithDetails(map[string]interface{}{
				"provider": p.Name(),
			})
		}
		p.logger.Error("HERE request failed", zap.Error(err))
		return errors.ErrProviderUnavailable.WithDetails(map[string]interface{}{
			"provider": p.Name(),
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		p.logger.Error("HERE returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return classifyHTTPStatus(resp.StatusCode).WithDetails(map[string]interface{}{
			"provider": p.Name(),
			"status":   resp.StatusCode,
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		p.logger.Error("Failed to decode HERE response", zap.Error(err))
		return errors.ErrProviderUnavailable.WithDetails(map[string]interface{}{
			"provider": p.Name(),
			"reason":   "decode",
		})
	}
	return nil
}

func isHereTimeout(err error) bool {
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

const flexPolylineChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

var flexPolylineIndex = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i, c := range flexPolylineChars {
		table[c] = int8(i)
	}
	return table
}()

// decodeFlexiblePolyline decodes HERE's flexible polyline format into
// points, ignoring the elevation dimension when present. A malformed
// string yields the points decoded so far.
func decodeFlexiblePolyline(encoded string) []domain.Coordinates {
	pos := 0
	next := func() (uint64, bool) {
		var result uint64
		var shift uint
		for pos < len(encoded) {
			v := flexPolylineIndex[encoded[pos]]
			if v < 0 {
				return 0, false
			}
			pos++
			result |= uint64(v&0x1f) << shift
			if v&0x20 == 0 {
				return result, true
			}
			shift += 5
		}
		return 0, false
	}
	nextSigned := func() (int64, bool) {
		u, ok := next()
		if !ok {
			return 0, false
		}
		v := int64(u >> 1)
		if u&1 != 0 {
			v = ^v
		}
		return v, true
	}

	// Header: version varint, then precision and third-dimension flags.
	if _, ok := next(); !ok {
		return nil
	}
	header, ok := next()
	if !ok {
		return nil
	}
	precision := header & 0x0f
	thirdDim := (header >> 4) & 0x07

	factor := 1.0
	for i := uint64(0); i < precision; i++ {
		factor *= 10
	}

	var points []domain.Coordinates
	var lat, lon int64
	for {
		dLat, ok := nextSigned()
		if !ok {
			break
		}
		dLon, ok := nextSigned()
		if !ok {
			break
		}
		if thirdDim != 0 {
			if _, ok := nextSigned(); !ok {
				break
			}
		}
		lat += dLat
		lon += dLon
		points = append(points, domain.Coordinates{
			Lat: float64(lat) / factor,
			Lon: float64(lon) / factor,
		})
	}
	return points
}
