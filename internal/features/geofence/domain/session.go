package domain

import "time"

// SessionKind distinguishes pre-arrival tracking from post check-in parking.
type SessionKind string

const (
	SessionKindTracking SessionKind = "tracking"
	SessionKindParking  SessionKind = "parking"
)

// TrackingSession follows a user on the way to a booked space.
type TrackingSession struct {
	ID         string
	BookingID  string
	Target     Coordinate
	CreatedAt  time.Time
	LastUpdate time.Time
	LastStatus Status
	Updates    []LocationUpdate
	Notified   NotificationSet
}

// NewTrackingSession creates an empty tracking session.
func NewTrackingSession(id, bookingID string, target Coordinate, now time.Time) *TrackingSession {
	return &TrackingSession{
		ID:         id,
		BookingID:  bookingID,
		Target:     target,
		CreatedAt:  now,
		LastStatus: StatusEnRoute,
		Notified:   NotificationSet{},
	}
}

// Apply appends the update and returns its classification and the notifications
// that became due.
func (s *TrackingSession) Apply(u LocationUpdate, c *Classifier) (GeoFenceStatus, []NotificationKind) {
	s.Updates = append(s.Updates, u)

	status := c.Classify(Distance(u.Position, s.Target), false)
	s.LastStatus = status.Status
	s.LastUpdate = u.Timestamp

	return status, debounce(s.Notified, trackingKinds, status.Status)
}

// Snapshot returns a copy safe to hand out of the store.
func (s *TrackingSession) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		Kind:        SessionKindTracking,
		ID:          s.ID,
		BookingID:   s.BookingID,
		Target:      s.Target,
		StartedAt:   s.CreatedAt,
		LastUpdate:  s.LastUpdate,
		LastStatus:  s.LastStatus,
		UpdateCount: len(s.Updates),
		Notified:    s.Notified.clone(),
	}
}

// ParkingSession follows a checked-in user until checkout.
type ParkingSession struct {
	ID                string
	BookingID         string
	OwnerID           string
	Target            Coordinate
	CheckedInAt       time.Time
	LastUpdate        time.Time
	LastStatus        Status
	Updates           []LocationUpdate
	Notified          NotificationSet
	EntryExit         EntryExitState
	DepartureWarnings int
	// CheckoutPending is set while one caller performs the external checkout.
	CheckoutPending bool
}

// NewParkingSession creates a parking session that starts inside the lot.
func NewParkingSession(id, bookingID, ownerID string, target Coordinate, now time.Time) *ParkingSession {
	return &ParkingSession{
		ID:          id,
		BookingID:   bookingID,
		OwnerID:     ownerID,
		Target:      target,
		CheckedInAt: now,
		LastUpdate:  now,
		LastStatus:  StatusParked,
		Notified:    NotificationSet{},
		EntryExit:   NewEntryExitState(now),
	}
}

// Apply appends the update, runs the entry/exit counter and returns the
// resulting status, the transition and the notifications that became due.
func (s *ParkingSession) Apply(u LocationUpdate, c *Classifier) (GeoFenceStatus, Transition, []NotificationKind) {
	s.Updates = append(s.Updates, u)

	status := c.Classify(Distance(u.Position, s.Target), true)
	status, transition := s.EntryExit.Observe(status, c.Thresholds().ParkingRadius)

	s.LastStatus = status.Status
	s.LastUpdate = u.Timestamp

	if status.Status == StatusDeparting && s.DepartureWarnings < MaxDepartureWarnings {
		s.DepartureWarnings++
	}
	return status, transition, debounce(s.Notified, parkingKinds, status.Status)
}

// Snapshot returns a copy safe to hand out of the store.
func (s *ParkingSession) Snapshot() SessionSnapshot {
	ee := s.EntryExit
	return SessionSnapshot{
		Kind:              SessionKindParking,
		ID:                s.ID,
		BookingID:         s.BookingID,
		OwnerID:           s.OwnerID,
		Target:            s.Target,
		StartedAt:         s.CheckedInAt,
		LastUpdate:        s.LastUpdate,
		LastStatus:        s.LastStatus,
		UpdateCount:       len(s.Updates),
		Notified:          s.Notified.clone(),
		EntryExit:         &ee,
		DepartureWarnings: s.DepartureWarnings,
		CheckoutPending:   s.CheckoutPending,
	}
}

// SessionSnapshot is a read-only view of a session at one point in time.
type SessionSnapshot struct {
	Kind              SessionKind     `json:"kind"`
	ID                string          `json:"session_id"`
	BookingID         string          `json:"booking_id"`
	OwnerID           string          `json:"owner_id,omitempty"`
	Target            Coordinate      `json:"target"`
	StartedAt         time.Time       `json:"started_at"`
	LastUpdate        time.Time       `json:"last_update,omitempty"`
	LastStatus        Status          `json:"last_status"`
	UpdateCount       int             `json:"update_count"`
	Notified          NotificationSet `json:"notified"`
	EntryExit         *EntryExitState `json:"entry_exit,omitempty"`
	DepartureWarnings int             `json:"departure_warnings,omitempty"`
	CheckoutPending   bool            `json:"checkout_pending,omitempty"`
}
