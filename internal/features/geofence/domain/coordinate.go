package domain

import (
	"errors"
	"math"
	"time"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// ErrInvalidCoordinate is returned for NaN, infinite or out-of-range positions.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	// Lat is the latitude in degrees, within [-90, 90].
	Lat float64 `json:"lat"`
	// Lon is the longitude in degrees, within [-180, 180].
	Lon float64 `json:"lon"`
}

// Validate reports ErrInvalidCoordinate when the position cannot be used for distance math.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return ErrInvalidCoordinate
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// LocationUpdate is a single GPS fix received for a session.
type LocationUpdate struct {
	// Timestamp is the arrival time of the fix.
	Timestamp time.Time `json:"timestamp"`
	// Position is the reported coordinate.
	Position Coordinate `json:"position"`
	// Accuracy is the reported horizontal accuracy in meters, if the client sent one.
	Accuracy *float64 `json:"accuracy,omitempty"`
}
