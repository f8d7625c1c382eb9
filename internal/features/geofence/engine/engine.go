// Package engine runs the geofence update pipeline and session lifecycle on top
// of the session store. It performs no I/O: callers receive plain results and
// decide what to log, notify, persist or check out.
package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"geofence-tracker/internal/features/geofence/domain"
	"geofence-tracker/internal/features/geofence/store"

	"github.com/google/uuid"
)

var (
	// ErrMissingBookingID is returned when a lifecycle call has no booking id.
	ErrMissingBookingID = errors.New("booking id is required")
	// ErrAlreadyParked is returned when a tracking session is started for a booking
	// that is already checked in.
	ErrAlreadyParked = errors.New("booking already has a parking session")
	// ErrInvalidAccuracy is returned for negative or non-finite accuracy values.
	ErrInvalidAccuracy = errors.New("invalid accuracy")
)

// UpdateResult is what UpdateLocation hands back to the transport.
type UpdateResult struct {
	Session       domain.SessionSnapshot    `json:"session"`
	Status        domain.GeoFenceStatus     `json:"geofence_status"`
	Transition    domain.Transition         `json:"transition,omitempty"`
	Notifications []domain.NotificationKind `json:"notifications_to_send"`
	AutoCheckout  bool                      `json:"auto_checkout"`
	// CheckoutClaimed is true for exactly one update per pending checkout: the
	// caller holding it must call CompleteCheckout or ReleaseCheckout.
	CheckoutClaimed bool `json:"-"`
	// SessionEnded is set by the caller once the checkout removed the session.
	SessionEnded bool `json:"session_ended"`
}

// ParkingStart is the outcome of StartParkingSession.
type ParkingStart struct {
	Session domain.SessionSnapshot
	// Created is false when the booking was already checked in.
	Created bool
	// Promoted is the tracking session replaced by the check-in, if any.
	Promoted *EndResult
}

// EndResult describes a session that left the store through a lifecycle call.
type EndResult struct {
	Session domain.SessionSnapshot
	// Analytics is nil when the trajectory was too short or analysis failed.
	Analytics *domain.AnalyticsRecord
	// AnalyticsErr explains a nil Analytics.
	AnalyticsErr error
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// Engine is the geofence session-tracking engine.
type Engine struct {
	store      *store.SessionStore
	classifier *domain.Classifier
	now        func() time.Time
	newID      func() string
}

// New creates an Engine over st using classifier c.
func New(st *store.SessionStore, c *domain.Classifier, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		classifier: c,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the radii used for classification.
func (e *Engine) Thresholds() domain.Thresholds {
	return e.classifier.Thresholds()
}

// StartTrackingSession begins following a booking's journey. Starting a journey
// that is already tracked returns the existing session unchanged.
func (e *Engine) StartTrackingSession(bookingID string, target domain.Coordinate) (domain.SessionSnapshot, error) {
	if bookingID == "" {
		return domain.SessionSnapshot{}, ErrMissingBookingID
	}
	if err := target.Validate(); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("target: %w", err)
	}

	var (
		snap domain.SessionSnapshot
		err  error
	)
	e.store.With(bookingID, func(slot *store.Slot) {
		switch {
		case slot.Parking != nil:
			err = ErrAlreadyParked
		case slot.Tracking != nil:
			snap = slot.Tracking.Snapshot()
		default:
			slot.Tracking = domain.NewTrackingSession(e.newID(), bookingID, target, e.now())
			snap = slot.Tracking.Snapshot()
		}
	})
	return snap, err
}

// StartParkingSession checks a booking in. A tracking session for the booking
// is removed in the same critical section and returned as promoted. Checking in
// twice returns the existing parking session with its counters intact.
func (e *Engine) StartParkingSession(bookingID, ownerID string, target domain.Coordinate) (*ParkingStart, error) {
	if bookingID == "" {
		return nil, ErrMissingBookingID
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	now := e.now()
	start := &ParkingStart{}
	var promoted *domain.TrackingSession
	e.store.With(bookingID, func(slot *store.Slot) {
		if slot.Parking != nil {
			start.Session = slot.Parking.Snapshot()
			return
		}
		promoted, slot.Tracking = slot.Tracking, nil
		slot.Parking = domain.NewParkingSession(e.newID(), bookingID, ownerID, target, now)
		start.Session = slot.Parking.Snapshot()
		start.Created = true
	})

	if promoted != nil {
		start.Promoted = finish(promoted.Snapshot(), promoted.Trajectory(now))
	}
	return start, nil
}

// EndTrackingSession removes the booking's tracking session and analyses its
// trajectory. It returns nil when there was nothing to end.
func (e *Engine) EndTrackingSession(bookingID string) *EndResult {
	var ended *domain.TrackingSession
	e.store.With(bookingID, func(slot *store.Slot) {
		ended, slot.Tracking = slot.Tracking, nil
	})
	if ended == nil {
		return nil
	}
	return finish(ended.Snapshot(), ended.Trajectory(e.now()))
}

// EndParkingSession removes the booking's parking session and analyses its
// trajectory. It returns nil when there was nothing to end.
func (e *Engine) EndParkingSession(bookingID string) *EndResult {
	var ended *domain.ParkingSession
	e.store.With(bookingID, func(slot *store.Slot) {
		ended, slot.Parking = slot.Parking, nil
	})
	if ended == nil {
		return nil
	}
	return finish(ended.Snapshot(), ended.Trajectory(e.now()))
}

// UpdateLocation feeds one GPS fix through the pipeline. Invalid input is
// rejected before any session is touched. A nil result with a nil error means
// the booking has no live session and the update should be ignored.
func (e *Engine) UpdateLocation(bookingID string, pos domain.Coordinate, accuracy *float64) (*UpdateResult, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if accuracy != nil && (*accuracy < 0 || math.IsNaN(*accuracy) || math.IsInf(*accuracy, 0)) {
		return nil, ErrInvalidAccuracy
	}

	var res *UpdateResult
	e.store.With(bookingID, func(slot *store.Slot) {
		u := domain.LocationUpdate{Timestamp: e.now(), Position: pos, Accuracy: accuracy}

		switch {
		case slot.Parking != nil:
			status, transition, kinds := slot.Parking.Apply(u, e.classifier)
			res = &UpdateResult{
				Status:        status,
				Transition:    transition,
				Notifications: kinds,
				AutoCheckout:  status.Action == domain.ActionAutoCheckout,
			}
			if res.AutoCheckout && !slot.Parking.CheckoutPending {
				slot.Parking.CheckoutPending = true
				res.CheckoutClaimed = true
			}
			res.Session = slot.Parking.Snapshot()
		case slot.Tracking != nil:
			status, kinds := slot.Tracking.Apply(u, e.classifier)
			res = &UpdateResult{
				Session:       slot.Tracking.Snapshot(),
				Status:        status,
				Notifications: kinds,
			}
		}
	})
	return res, nil
}

// CompleteCheckout ends the parking session whose checkout succeeded. It
// returns nil if sessionID is no longer the booking's parking session.
func (e *Engine) CompleteCheckout(bookingID, sessionID string) *EndResult {
	var ended *domain.ParkingSession
	e.store.With(bookingID, func(slot *store.Slot) {
		if slot.Parking != nil && slot.Parking.ID == sessionID {
			ended, slot.Parking = slot.Parking, nil
		}
	})
	if ended == nil {
		return nil
	}
	return finish(ended.Snapshot(), ended.Trajectory(e.now()))
}

// ReleaseCheckout gives up a claimed checkout so a later update claims it again.
func (e *Engine) ReleaseCheckout(bookingID, sessionID string) {
	e.store.With(bookingID, func(slot *store.Slot) {
		if slot.Parking != nil && slot.Parking.ID == sessionID {
			slot.Parking.CheckoutPending = false
		}
	})
}

// Session returns the booking's live session, preferring the parking session.
func (e *Engine) Session(bookingID string) (domain.SessionSnapshot, bool) {
	var (
		snap domain.SessionSnapshot
		ok   bool
	)
	e.store.With(bookingID, func(slot *store.Slot) {
		switch {
		case slot.Parking != nil:
			snap, ok = slot.Parking.Snapshot(), true
		case slot.Tracking != nil:
			snap, ok = slot.Tracking.Snapshot(), true
		}
	})
	return snap, ok
}

// ActiveSessions returns the number of bookings with a live session.
func (e *Engine) ActiveSessions() int {
	return e.store.Len()
}

// finish analyses a trajectory that no other goroutine can reach any more.
func finish(snap domain.SessionSnapshot, t domain.Trajectory) (res *EndResult) {
	res = &EndResult{Session: snap}
	defer func() {
		if r := recover(); r != nil {
			res.Analytics = nil
			res.AnalyticsErr = fmt.Errorf("analytics panicked: %v", r)
		}
	}()
	res.Analytics, res.AnalyticsErr = domain.Analyze(t)
	return res
}
