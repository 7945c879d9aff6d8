package domain

import "math"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lon float64
}

const earthRadiusMeters = 6371e3

// Distance returns the haversine distance between two points in meters.
// Either point being nil yields +Inf, so callers that score by distance
// naturally rank location-less candidates last without excluding them.
func Distance(a, b *Point) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}

	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}
