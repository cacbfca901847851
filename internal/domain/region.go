package domain

import (
	"github.com/golang/geo/s2"
)

type RegionType string

const (
	RegionCity         RegionType = "city"
	RegionDistrict     RegionType = "district"
	RegionNeighborhood RegionType = "neighborhood"
)

// Specificity orders region types from broad to narrow; higher wins when a
// point falls inside several nested regions.
func (t RegionType) Specificity() int {
	switch t {
	case RegionCity:
		return 1
	case RegionDistrict:
		return 2
	case RegionNeighborhood:
		return 3
	}
	return 0
}

// Region is a polygon-bounded area in the city > district > neighborhood
// hierarchy. Boundary is a simple ring; the first and last point need not
// repeat.
type Region struct {
	ID       string        `json:"id" db:"id"`
	Name     string        `json:"name" db:"name"`
	Type     RegionType    `json:"type" db:"type"`
	ParentID string        `json:"parent_id,omitempty" db:"parent_id"`
	Boundary []Coordinates `json:"boundary" db:"-"`

	loop *s2.Loop
}

// ContainsPoint tests point membership against the boundary ring using an
// s2 loop, lazily built and reused across calls.
func (r *Region) ContainsPoint(p Coordinates) bool {
	if len(r.Boundary) < 3 {
		return false
	}
	if r.loop == nil {
		points := make([]s2.Point, 0, len(r.Boundary))
		for _, c := range r.Boundary {
			points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon)))
		}
		loop := s2.LoopFromPoints(points)
		// LoopFromPoints treats the left side of the edges as interior; a
		// clockwise ring would claim nearly the whole sphere.
		if loop.Area() > 2*3.141592653589793 {
			loop.Invert()
		}
		r.loop = loop
	}
	return r.loop.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)))
}

// BoundingBox returns the lat/lon envelope of the boundary ring.
func (r *Region) BoundingBox() (minLat, minLon, maxLat, maxLon float64) {
	if len(r.Boundary) == 0 {
		return 0, 0, 0, 0
	}
	minLat, maxLat = r.Boundary[0].Lat, r.Boundary[0].Lat
	minLon, maxLon = r.Boundary[0].Lon, r.Boundary[0].Lon
	for _, c := range r.Boundary[1:] {
		if c.Lat < minLat {
			minLat = c.Lat
		}
		if c.Lat > maxLat {
			maxLat = c.Lat
		}
		if c.Lon < minLon {
			minLon = c.Lon
		}
		if c.Lon > maxLon {
			maxLon = c.Lon
		}
	}
	return minLat, minLon, maxLat, maxLon
}

// MostSpecific returns the narrowest region containing the point, or nil.
func MostSpecific(regions []*Region, p Coordinates) *Region {
	var best *Region
	for _, r := range regions {
		if !r.ContainsPoint(p) {
			continue
		}
		if best == nil || r.Type.Specificity() > best.Type.Specificity() {
			best = r
		}
	}
	return best
}
