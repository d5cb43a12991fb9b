package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Orb converts the point to an orb.Point (lon, lat order).
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Distance returns the great-circle (haversine) distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	return geo.DistanceHaversine(p1.Orb(), p2.Orb())
}

// DestinationPoint calculates the destination point from a start point, given distance (in meters) and bearing (in degrees).
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	const R = orb.EarthRadius
	lat1 := start.Lat * (math.Pi / 180.0)
	lon1 := start.Lon * (math.Pi / 180.0)
	brng := bearing * (math.Pi / 180.0)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(distMeters/R) +
		math.Cos(lat1)*math.Sin(distMeters/R)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(distMeters/R)*math.Cos(lat1),
		math.Cos(distMeters/R)-math.Sin(lat1)*math.Sin(lat2))

	return Point{
		Lat: lat2 * (180.0 / math.Pi),
		Lon: lon2 * (180.0 / math.Pi),
	}
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees.
func Bearing(p1, p2 Point) float64 {
	return math.Mod(geo.Bearing(p1.Orb(), p2.Orb())+360.0, 360.0)
}
