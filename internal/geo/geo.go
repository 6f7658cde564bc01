// Package geo computes great-circle distances between reported
// locations. Pure functions, no state.
package geo

import (
	"math"

	"github.com/convoyapp/convoy/internal/domain"
)

const earthRadiusMeters = 6371000.0

// Distance returns the haversine great-circle distance between two
// locations in meters. Symmetric: Distance(a, b) == Distance(b, a).
func Distance(a, b domain.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
