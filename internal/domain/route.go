package domain

import "github.com/saferoute-service/internal/pkg/errors"

// Route is the provider-normalized shape every adapter must produce,
// regardless of the upstream wire format.
type Route struct {
	Origin       Coordinates   `json:"origin"`
	Destination  Coordinates   `json:"destination"`
	Waypoints    []Coordinates `json:"waypoints,omitempty"`
	Distance     float64       `json:"distance"` // meters
	Duration     float64       `json:"duration"` // seconds
	EncodedPath  string        `json:"encoded_path"`
	Provider     string        `json:"provider"`
	Instructions []Instruction `json:"instructions,omitempty"`
}

func NewRoute(origin, destination Coordinates, distance, duration float64, encodedPath, provider string) (Route, error) {
	if distance < 0 || duration < 0 {
		return Route{}, errors.ErrValidation.WithDetails(map[string]interface{}{
			"distance": distance,
			"duration": duration,
		})
	}
	return Route{
		Origin:      origin,
		Destination: destination,
		Distance:    distance,
		Duration:    duration,
		EncodedPath: encodedPath,
		Provider:    provider,
	}, nil
}

// Path decodes the encoded polyline into the ordered point sequence.
func (r Route) Path() []Coordinates {
	return DecodePolyline(r.EncodedPath)
}

// Instruction is a single maneuver on the route.
type Instruction struct {
	Text     string      `json:"text"`
	Point    Coordinates `json:"point"`
	Distance float64     `json:"distance"` // meters until next maneuver
}

// RouteOptions carries calculation flags passed down to providers.
type RouteOptions struct {
	AvoidTolls    bool `json:"avoid_tolls"`
	AvoidHighways bool `json:"avoid_highways"`
	Alternatives  int  `json:"alternatives"`
}

// Address is the normalized geocoding result shape.
type Address struct {
	Label        string      `json:"label"`
	Street       string      `json:"street,omitempty"`
	Neighborhood string      `json:"neighborhood,omitempty"`
	City         string      `json:"city,omitempty"`
	State        string      `json:"state,omitempty"`
	Country      string      `json:"country,omitempty"`
	PostalCode   string      `json:"postal_code,omitempty"`
	Location     Coordinates `json:"location"`
}

// WarningRiskThreshold is the max-risk value at and above which a route
// carries a warning.
const WarningRiskThreshold = 50.0

// RouteWithRisk is a route annotated with the risk of the regions its
// polyline crosses.
type RouteWithRisk struct {
	Route           Route    `json:"route"`
	MaxRisk         float64  `json:"max_risk"`
	AvgRisk         float64  `json:"avg_risk"`
	CrossedRegions  []string `json:"crossed_regions"`
	RequiresWarning bool     `json:"requires_warning"`
	WarningMessage  string   `json:"warning_message,omitempty"`
	NoSaferFound    bool     `json:"no_safer_found,omitempty"`
}

// RouteRecalculationResult is returned from position updates and manual
// recalculations.
type RouteRecalculationResult struct {
	OriginalRoute     *RouteWithRisk `json:"original_route"`
	NewRoute          *RouteWithRisk `json:"new_route,omitempty"`
	RouteChanged      bool           `json:"route_changed"`
	RiskChanged       bool           `json:"risk_changed"`
	TimeChangePercent float64        `json:"time_change_percent"`
	RemainingDistance float64        `json:"remaining_distance"` // meters
	RemainingDuration float64        `json:"remaining_duration"` // seconds
	Message           string         `json:"message,omitempty"`
}
