// Package geo validates that a reported position lies within a radius of a
// reference point using the haversine great-circle distance.
package geo

import "github.com/golang/geo/s2"

const (
	// EarthRadiusMeters is the mean Earth radius used by Distance.
	EarthRadiusMeters = 6371000.0

	// DefaultRadiusMeters is how far from the check-in point a field task may start.
	DefaultRadiusMeters = 5000.0

	// boundaryTolerance absorbs floating point noise so a point exactly on the
	// radius is always accepted.
	boundaryTolerance = 1e-6
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Distance returns the haversine distance in meters between two coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	angle := s2.LatLngFromDegrees(lat1, lon1).Distance(s2.LatLngFromDegrees(lat2, lon2))
	return angle.Radians() * EarthRadiusMeters
}

// WithinRadius reports whether point lies within radiusMeters of origin.
// The boundary is inclusive.
func WithinRadius(originLat, originLon, pointLat, pointLon, radiusMeters float64) bool {
	return Distance(originLat, originLon, pointLat, pointLon) <= radiusMeters+boundaryTolerance
}

// Fence is a radius around an optional origin. A Fence without an origin
// admits every point.
type Fence struct {
	Origin *Point
	Radius float64
}

// NewFence builds a Fence from nullable origin coordinates; the origin is only
// set when both are present.
func NewFence(lat, lon *float64, radius float64) Fence {
	if lat == nil || lon == nil {
		return Fence{Radius: radius}
	}
	return Fence{Origin: &Point{Lat: *lat, Lon: *lon}, Radius: radius}
}

// Check returns whether (lat, lon) is admitted and its distance from the
// origin. The distance is zero when the fence has no origin.
func (f Fence) Check(lat, lon float64) (bool, float64) {
	if f.Origin == nil {
		return true, 0
	}
	d := Distance(f.Origin.Lat, f.Origin.Lon, lat, lon)
	return d <= f.Radius+boundaryTolerance, d
}
