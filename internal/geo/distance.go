// Package geo computes great-circle distances and answers radius queries
// over a fixed set of points.
package geo

import "math"

// EarthRadiusKM is the mean Earth radius used by the haversine model.
const EarthRadiusKM = 6371.0

// Distance returns the haversine great-circle distance in kilometers between
// two points given in decimal degrees.
func Distance(latA, lngA, latB, lngB float64) float64 {
	lat1 := toRadians(latA)
	lat2 := toRadians(latB)
	dLat := lat2 - lat1
	dLng := toRadians(lngB - lngA)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	// Rounding can push a slightly outside [0, 1] for antipodal points.
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
