package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPoint indicates a coordinate pair that cannot be parsed or
	// falls outside the valid latitude/longitude ranges.
	ErrInvalidPoint = errors.New("invalid coordinates")

	// ErrInvalidRadius indicates a search radius outside the supported bands.
	ErrInvalidRadius = errors.New("unsupported search radius")
)

// RadiusBands lists the supported search radii in meters, 500 m through 100 km.
var RadiusBands = []int{500, 1000, 2000, 5000, 10000, 25000, 50000, 100000}

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// ParsePoint parses a "lat,lng" string, as entered manually when device
// location is unavailable. Both components are range-checked.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, ErrInvalidPoint
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, ErrInvalidPoint
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, ErrInvalidPoint
	}
	p := Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return Point{}, ErrInvalidPoint
	}
	return p, nil
}

// Valid reports whether the point lies within [-90,90] latitude and
// [-180,180] longitude.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm computes the great-circle distance between two points using the
// haversine formula.
func DistanceKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// ValidRadius reports whether meters is one of the supported bands.
func ValidRadius(meters int) bool {
	for _, band := range RadiusBands {
		if meters == band {
			return true
		}
	}
	return false
}
