// Package geo provides great-circle distance math for supplier proximity
// queries.
package geo

import "math"

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371

// Distance returns the haversine great-circle distance in kilometers between
// two coordinates given in decimal degrees. Coordinates are not range-checked;
// callers own validation.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusKM * c
}

// WithinRadius reports whether two coordinates are at most radiusKM apart.
func WithinRadius(lat1, lon1, lat2, lon2, radiusKM float64) bool {
	return Distance(lat1, lon1, lat2, lon2) <= radiusKM
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
