// Package geo holds the distance and line helpers shared by routing, the
// transit composer and the places store. Coordinates are orb.Point values in
// (lon, lat) order, WGS84 degrees.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the mean earth radius in meters used by Haversine.
const EarthRadius = 6371000.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance in meters between two lon/lat pairs.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// Distance returns the haversine distance in meters between a and b.
func Distance(a, b orb.Point) float64 {
	return Haversine(a.Lon(), a.Lat(), b.Lon(), b.Lat())
}

// LineLength returns the summed haversine length of a line string.
func LineLength(ls orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(ls); i++ {
		total += Distance(ls[i-1], ls[i])
	}
	return total
}

// StraightLine builds the two-point line used when no routed geometry exists.
func StraightLine(from, to orb.Point) orb.LineString {
	return orb.LineString{from, to}
}

// Round1 rounds to one decimal place, the precision of distance_m and duration_s.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
