// Package geo provides the spherical-earth geometry used for guidance:
// forward azimuth between two coordinates and great-circle distance.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"github.com/relabs-tech/compass_nav/internal/angle"
)

// EarthRadiusMeters is the mean radius used for every distance.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p Point) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// Valid reports whether the point is finite and inside [-90,90] x [-180,180].
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.latLng().IsValid()
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lon)
}

// Bearing returns the initial great-circle course from -> to in [0, 360).
// For identical points the formula degenerates to 0.
func Bearing(from, to Point) float64 {
	lat1 := angle.Radians(from.Lat)
	lat2 := angle.Radians(to.Lat)
	dLon := angle.Radians(to.Lon - from.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return angle.Normalize(angle.Degrees(math.Atan2(y, x)))
}

// DistanceMeters returns the haversine distance between two points.
// It is exactly zero for identical points and exactly symmetric: s2 rounds
// differently depending on argument order, so the points are ordered first.
func DistanceMeters(from, to Point) float64 {
	if to.less(from) {
		from, to = to, from
	}
	return from.latLng().Distance(to.latLng()).Radians() * EarthRadiusMeters
}

func (p Point) less(q Point) bool {
	if p.Lat != q.Lat {
		return p.Lat < q.Lat
	}
	return p.Lon < q.Lon
}
