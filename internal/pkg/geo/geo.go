package geo

import "math"

const earthRadiusMeters = 6371000

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies in the WGS84 range.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Site is a work location with a circular geofence.
type Site struct {
	Center       Point
	RadiusMeters float64
}

// Result is the outcome of a geofence check.
type Result string

const (
	ResultUnknown Result = "unknown"
	ResultInside  Result = "inside"
	ResultOutside Result = "outside"
)

// Flagged reports whether the result should be surfaced for review.
func (r Result) Flagged() bool {
	return r != ResultInside
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// IsWithinGeofence checks point against a circle around center.
// A missing point or a non-positive radius yields ResultUnknown.
func IsWithinGeofence(point *Point, center Point, radiusMeters float64) Result {
	if point == nil || radiusMeters <= 0 {
		return ResultUnknown
	}
	if Distance(*point, center) <= radiusMeters {
		return ResultInside
	}
	return ResultOutside
}

// Check is IsWithinGeofence against a configured site. A nil site is unknown.
func (s *Site) Check(point *Point) Result {
	if s == nil {
		return ResultUnknown
	}
	return IsWithinGeofence(point, s.Center, s.RadiusMeters)
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
