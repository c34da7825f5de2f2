package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// NullIslandEpsilon is the radius (in degrees, per axis) around (0,0) treated as
// an "unset" sentinel in source data.
const NullIslandEpsilon = 0.0001

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// IsNullIsland reports whether the point is the degenerate near-(0,0) sentinel.
func IsNullIsland(lat, lon float64) bool {
	return math.Abs(lat) < NullIslandEpsilon && math.Abs(lon) < NullIslandEpsilon
}

// ToPoint validates a lat/lon pair and converts it to an orb.Point (lon, lat order).
// ok is false for NaN, out-of-range, or null-island coordinates.
func ToPoint(lat, lon float64) (orb.Point, bool) {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return orb.Point{}, false
	}
	if !ValidateCoordinates(lat, lon) || IsNullIsland(lat, lon) {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}
