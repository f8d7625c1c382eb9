package domain

import (
	"errors"
	"fmt"
)

// Zone is the named region a distance falls into.
type Zone string

const (
	ZoneArrival     Zone = "arrival"
	ZoneParking     Zone = "parking"
	ZoneDeparture   Zone = "departure"
	ZoneExit        Zone = "exit"
	ZoneApproaching Zone = "approaching"
	ZoneOutside     Zone = "outside"
)

// Status is the user-facing geofence status derived from a zone.
type Status string

const (
	StatusArrived      Status = "arrived"
	StatusParked       Status = "parked"
	StatusDeparting    Status = "departing"
	StatusExited       Status = "exited"
	StatusApproaching  Status = "approaching"
	StatusEnRoute      Status = "en_route"
	StatusAutoCheckout Status = "auto_checkout"
)

// Action tells the booking workflow what to do with an update.
type Action string

const (
	ActionCheckinRequired Action = "checkin_required"
	ActionMaintain        Action = "maintain"
	ActionCheckoutWarning Action = "checkout_warning"
	ActionTrack           Action = "track"
	ActionNotify          Action = "notify"
	ActionAutoCheckout    Action = "auto_checkout"
)

// ErrInvalidThresholds is returned when radii are non-positive or out of order.
var ErrInvalidThresholds = errors.New("invalid geofence thresholds")

// Thresholds holds the zone radii in meters.
type Thresholds struct {
	ArrivalRadius     float64 `json:"arrival_radius_m"`
	ParkingRadius     float64 `json:"parking_radius_m"`
	DepartureRadius   float64 `json:"departure_radius_m"`
	ExitRadius        float64 `json:"exit_radius_m"`
	ApproachingRadius float64 `json:"approaching_radius_m"`
}

// DefaultThresholds returns the production radii.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ArrivalRadius:     200,
		ParkingRadius:     300,
		DepartureRadius:   500,
		ExitRadius:        800,
		ApproachingRadius: 1000,
	}
}

// Validate checks that every radius is positive and the radii are nested.
func (t Thresholds) Validate() error {
	radii := []float64{t.ArrivalRadius, t.ParkingRadius, t.DepartureRadius, t.ExitRadius, t.ApproachingRadius}
	for i, r := range radii {
		if !(r > 0) {
			return fmt.Errorf("%w: radius %d must be positive, got %v", ErrInvalidThresholds, i, r)
		}
		if i > 0 && r < radii[i-1] {
			return fmt.Errorf("%w: radii must be non-decreasing from arrival to approaching", ErrInvalidThresholds)
		}
	}
	return nil
}

// GeoFenceStatus is the classification of a single position relative to a target.
type GeoFenceStatus struct {
	Zone     Zone    `json:"zone"`
	Status   Status  `json:"status"`
	Action   Action  `json:"action"`
	Distance float64 `json:"distance_m"`
}

// Classifier maps a distance to a zone using fixed thresholds.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier validates the thresholds and returns a Classifier.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: t}, nil
}

// Thresholds returns the radii the classifier was built with.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify returns the zone for distanceMeters. The first matching rule wins and
// the parking, departure and exit zones only exist for parked sessions.
func (c *Classifier) Classify(distanceMeters float64, parked bool) GeoFenceStatus {
	t := c.thresholds
	s := GeoFenceStatus{Distance: distanceMeters}

	switch {
	case distanceMeters <= t.ArrivalRadius:
		s.Zone, s.Status, s.Action = ZoneArrival, StatusArrived, ActionCheckinRequired
	case parked && distanceMeters <= t.ParkingRadius:
		s.Zone, s.Status, s.Action = ZoneParking, StatusParked, ActionMaintain
	case parked && distanceMeters <= t.DepartureRadius:
		s.Zone, s.Status, s.Action = ZoneDeparture, StatusDeparting, ActionCheckoutWarning
	case parked && distanceMeters > t.ExitRadius:
		s.Zone, s.Status, s.Action = ZoneExit, StatusExited, ActionTrack
	case distanceMeters <= t.ApproachingRadius:
		s.Zone, s.Status, s.Action = ZoneApproaching, StatusApproaching, ActionNotify
	default:
		s.Zone, s.Status, s.Action = ZoneOutside, StatusEnRoute, ActionTrack
	}
	return s
}
