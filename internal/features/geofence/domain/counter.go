package domain

import "time"

// AutoCheckoutExitThreshold is the number of confirmed exits that ends a parking
// session. One exit may be GPS jitter or a short walk; the second is trusted.
const AutoCheckoutExitThreshold = 2

// Transition describes how a single update moved a parking session across the
// parking radius.
type Transition string

const (
	TransitionNone  Transition = ""
	TransitionEntry Transition = "entry"
	TransitionExit  Transition = "exit"
)

// EntryExitState counts crossings of the parking radius for a parking session.
type EntryExitState struct {
	EntryCount        int       `json:"entry_count"`
	ExitCount         int       `json:"exit_count"`
	InsideParkingZone bool      `json:"inside_parking_zone"`
	LastZone          Zone      `json:"last_zone"`
	StartedAt         time.Time `json:"started_at"`
}

// NewEntryExitState returns the state of a freshly checked-in session: the
// check-in itself counts as the first entry.
func NewEntryExitState(startedAt time.Time) EntryExitState {
	return EntryExitState{
		EntryCount:        1,
		InsideParkingZone: true,
		LastZone:          ZoneParking,
		StartedAt:         startedAt,
	}
}

// Observe records one classified position and returns the transition it caused.
// When the exit count reaches AutoCheckoutExitThreshold the returned status is
// overridden to auto_checkout.
func (s *EntryExitState) Observe(status GeoFenceStatus, parkingRadius float64) (GeoFenceStatus, Transition) {
	insideNow := status.Distance <= parkingRadius
	transition := TransitionNone

	switch {
	case insideNow && !s.InsideParkingZone:
		s.EntryCount++
		s.InsideParkingZone = true
		transition = TransitionEntry
	case !insideNow && s.InsideParkingZone:
		s.ExitCount++
		s.InsideParkingZone = false
		transition = TransitionExit
	}
	s.LastZone = status.Zone

	if s.ShouldAutoCheckout() {
		status.Status = StatusAutoCheckout
		status.Action = ActionAutoCheckout
	}
	return status, transition
}

// ShouldAutoCheckout reports whether enough exits were seen to end the session.
func (s EntryExitState) ShouldAutoCheckout() bool {
	return s.ExitCount >= AutoCheckoutExitThreshold
}
