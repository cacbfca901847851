package domain

import "math"

// EncodePolyline encodes a point sequence with the Google polyline algorithm
// at precision 5, the format every supported provider normalizes to.
func EncodePolyline(points []Coordinates) string {
	var buf []byte
	var prevLat, prevLon int64

	for _, p := range points {
		lat := int64(math.Round(p.Lat * 1e5))
		lon := int64(math.Round(p.Lon * 1e5))

		buf = appendPolylineValue(buf, lat-prevLat)
		buf = appendPolylineValue(buf, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(buf)
}

func appendPolylineValue(buf []byte, v int64) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte((0x20|(u&0x1f))+63))
		u >>= 5
	}
	return append(buf, byte(u+63))
}

// DecodePolyline decodes a precision-5 encoded polyline. Malformed trailing
// bytes terminate decoding rather than erroring, matching provider behavior
// on truncated payloads.
func DecodePolyline(encoded string) []Coordinates {
	var points []Coordinates
	var lat, lon int64
	idx := 0

	for idx < len(encoded) {
		dLat, n := decodePolylineValue(encoded[idx:])
		if n == 0 {
			break
		}
		idx += n
		lat += dLat

		dLon, n := decodePolylineValue(encoded[idx:])
		if n == 0 {
			break
		}
		idx += n
		lon += dLon

		points = append(points, Coordinates{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}

	return points
}

func decodePolylineValue(s string) (int64, int) {
	var result uint64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := uint64(s[i]) - 63
		result |= (b & 0x1f) << shift
		if b < 0x20 {
			v := int64(result >> 1)
			if result&1 != 0 {
				v = ^v
			}
			return v, i + 1
		}
		shift += 5
	}
	return 0, 0
}

// SamplePath returns points spaced at most stepMeters apart along the path,
// always including the first and last point. Used for region crossing tests
// and traffic segmentation.
func SamplePath(path []Coordinates, stepMeters float64) []Coordinates {
	if len(path) < 2 || stepMeters <= 0 {
		return path
	}

	sampled := []Coordinates{path[0]}
	carried := 0.0

	for i := 0; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		segLen := a.DistanceTo(b)
		if segLen == 0 {
			continue
		}

		pos := stepMeters - carried
		for pos < segLen {
			f := pos / segLen
			sampled = append(sampled, Coordinates{
				Lat: a.Lat + (b.Lat-a.Lat)*f,
				Lon: a.Lon + (b.Lon-a.Lon)*f,
			})
			pos += stepMeters
		}
		carried = math.Mod(carried+segLen, stepMeters)
	}

	last := path[len(path)-1]
	if sampled[len(sampled)-1] != last {
		sampled = append(sampled, last)
	}
	return sampled
}

// PathLength returns the cumulative haversine length of a path in meters.
func PathLength(path []Coordinates) float64 {
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		total += path[i].DistanceTo(path[i+1])
	}
	return total
}
