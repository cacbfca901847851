package domain

import (
	"math"

	"github.com/saferoute-service/internal/pkg/errors"
)

const earthRadiusM = 6371000.0

// Coordinates is a validated geographic point. Construct with
// NewCoordinates; the zero value is the null island point.
type Coordinates struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

func NewCoordinates(lat, lon float64) (Coordinates, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coordinates{}, errors.ErrInvalidCoordinates.WithDetails(map[string]interface{}{
			"lat": lat,
			"lon": lon,
		})
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}

// DistanceTo returns the haversine distance to other in meters.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	dLat := (other.Lat - c.Lat) * math.Pi / 180.0
	dLon := (other.Lon - c.Lon) * math.Pi / 180.0

	lat1 := c.Lat * math.Pi / 180.0
	lat2 := other.Lat * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	h := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * h
}

// BearingTo returns the initial bearing from c to other in degrees [0,360).
func (c Coordinates) BearingTo(other Coordinates) float64 {
	lat1 := c.Lat * math.Pi / 180.0
	lat2 := other.Lat * math.Pi / 180.0
	dLon := (other.Lon - c.Lon) * math.Pi / 180.0

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := math.Atan2(y, x) * 180.0 / math.Pi
	return math.Mod(bearing+360.0, 360.0)
}

// CrossTrackDistance returns the perpendicular distance in meters from c to
// the great-circle segment between a and b. Points whose projection falls
// outside the segment are measured against the nearer endpoint.
func (c Coordinates) CrossTrackDistance(a, b Coordinates) float64 {
	d13 := a.DistanceTo(c) / earthRadiusM
	theta13 := a.BearingTo(c) * math.Pi / 180.0
	theta12 := a.BearingTo(b) * math.Pi / 180.0

	xt := math.Asin(math.Sin(d13) * math.Sin(theta13-theta12))

	// Along-track distance decides whether the projection lies on the
	// segment at all.
	at := math.Acos(math.Cos(d13) / math.Cos(xt))
	if math.IsNaN(at) {
		at = 0
	}
	segLen := a.DistanceTo(b) / earthRadiusM
	if at > segLen {
		return c.DistanceTo(b)
	}
	if math.Cos(theta13-theta12) < 0 {
		return c.DistanceTo(a)
	}

	return math.Abs(xt) * earthRadiusM
}

// DistanceToPath returns the minimum cross-track distance from c to a
// polyline given as an ordered point list.
func (c Coordinates) DistanceToPath(path []Coordinates) float64 {
	if len(path) == 0 {
		return math.Inf(1)
	}
	if len(path) == 1 {
		return c.DistanceTo(path[0])
	}

	min := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		if d := c.CrossTrackDistance(path[i], path[i+1]); d < min {
			min = d
		}
	}
	return min
}

// RemainingPathDistance returns the distance in meters from c to the end of
// the path: across to the end of the nearest segment, then along the
// remaining vertices.
func (c Coordinates) RemainingPathDistance(path []Coordinates) float64 {
	if len(path) == 0 {
		return 0
	}
	if len(path) == 1 {
		return c.DistanceTo(path[0])
	}

	nearest, min := 0, math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		if d := c.CrossTrackDistance(path[i], path[i+1]); d < min {
			nearest, min = i, d
		}
	}

	remaining := c.DistanceTo(path[nearest+1])
	for i := nearest + 1; i < len(path)-1; i++ {
		remaining += path[i].DistanceTo(path[i+1])
	}
	return remaining
}
