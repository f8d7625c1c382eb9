package domain

import (
	"errors"
	"math"
	"time"
)

// ErrTooFewPoints is returned when a trajectory cannot yield analytics.
var ErrTooFewPoints = errors.New("trajectory needs at least two points")

// ErrDegenerateTrajectory is returned when the trajectory produces non-finite metrics.
var ErrDegenerateTrajectory = errors.New("trajectory produced non-finite metrics")

// AnalyticsRecord is the flat per-session summary handed to offline storage.
type AnalyticsRecord struct {
	SessionID       string      `json:"session_id"`
	BookingID       string      `json:"booking_id"`
	Kind            SessionKind `json:"kind"`
	StartedAt       time.Time   `json:"started_at"`
	EndedAt         time.Time   `json:"ended_at"`
	DurationSeconds float64     `json:"duration_s"`
	TotalDistanceM  float64     `json:"total_distance_m"`
	AverageSpeedMps float64     `json:"average_speed_mps"`
	RouteEfficiency float64     `json:"route_efficiency"`
	UpdateCount     int         `json:"update_count"`
	FinalStatus     Status      `json:"final_status"`
}

// Trajectory is the finalized input to Analyze.
type Trajectory struct {
	SessionID   string
	BookingID   string
	Kind        SessionKind
	Target      Coordinate
	StartedAt   time.Time
	EndedAt     time.Time
	Updates     []LocationUpdate
	FinalStatus Status
}

// Trajectory returns the finalized trajectory of the session ended at endedAt.
func (s *TrackingSession) Trajectory(endedAt time.Time) Trajectory {
	return Trajectory{
		SessionID:   s.ID,
		BookingID:   s.BookingID,
		Kind:        SessionKindTracking,
		Target:      s.Target,
		StartedAt:   s.CreatedAt,
		EndedAt:     endedAt,
		Updates:     s.Updates,
		FinalStatus: s.LastStatus,
	}
}

// Trajectory returns the finalized trajectory of the session ended at endedAt.
func (s *ParkingSession) Trajectory(endedAt time.Time) Trajectory {
	return Trajectory{
		SessionID:   s.ID,
		BookingID:   s.BookingID,
		Kind:        SessionKindParking,
		Target:      s.Target,
		StartedAt:   s.CheckedInAt,
		EndedAt:     endedAt,
		Updates:     s.Updates,
		FinalStatus: s.LastStatus,
	}
}

// Analyze derives path distance, average speed and route efficiency.
//
// Average speed uses the time between the first and last fix. Route efficiency
// is the straight line from the first fix to the target over the travelled path,
// capped at 1.0; a trajectory that never moved scores 0.
func Analyze(t Trajectory) (*AnalyticsRecord, error) {
	if len(t.Updates) < 2 {
		return nil, ErrTooFewPoints
	}

	var total float64
	for i := 1; i < len(t.Updates); i++ {
		total += Distance(t.Updates[i-1].Position, t.Updates[i].Position)
	}

	first, last := t.Updates[0], t.Updates[len(t.Updates)-1]

	var speed float64
	if elapsed := last.Timestamp.Sub(first.Timestamp).Seconds(); elapsed > 0 {
		speed = total / elapsed
	}

	var efficiency float64
	if total > 0 {
		efficiency = math.Min(Distance(first.Position, t.Target)/total, 1.0)
	}

	if math.IsNaN(total) || math.IsInf(total, 0) || math.IsNaN(efficiency) {
		return nil, ErrDegenerateTrajectory
	}

	return &AnalyticsRecord{
		SessionID:       t.SessionID,
		BookingID:       t.BookingID,
		Kind:            t.Kind,
		StartedAt:       t.StartedAt,
		EndedAt:         t.EndedAt,
		DurationSeconds: t.EndedAt.Sub(t.StartedAt).Seconds(),
		TotalDistanceM:  total,
		AverageSpeedMps: speed,
		RouteEfficiency: efficiency,
		UpdateCount:     len(t.Updates),
		FinalStatus:     t.FinalStatus,
	}, nil
}
