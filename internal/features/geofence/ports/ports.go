package ports

import (
	"context"
	"time"

	"geofence-tracker/internal/features/geofence/domain"
	"geofence-tracker/internal/features/geofence/engine"
)

// Notifier delivers due geofence notifications (push, email, ...).
type Notifier interface {
	// Notify delivers a single notification.
	Notify(ctx context.Context, n domain.Notification) error
}

// AnalyticsSink stores finished-session analytics for offline model training.
type AnalyticsSink interface {
	// Record stores one analytics record.
	Record(ctx context.Context, rec domain.AnalyticsRecord) error
}

// LiveStatus is the latest geofence status of a booking, published for the
// surrounding booking services.
type LiveStatus struct {
	BookingID  string             `json:"booking_id"`
	SessionID  string             `json:"session_id"`
	Kind       domain.SessionKind `json:"kind"`
	Zone       domain.Zone        `json:"zone"`
	Status     domain.Status      `json:"status"`
	Action     domain.Action      `json:"action"`
	DistanceM  float64            `json:"distance_m"`
	EntryCount int                `json:"entry_count,omitempty"`
	ExitCount  int                `json:"exit_count,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// StatusCache publishes the live status of bookings.
type StatusCache interface {
	// Publish stores the latest status of a booking.
	Publish(ctx context.Context, status LiveStatus) error
	// Get returns the latest status, or nil if none is published.
	Get(ctx context.Context, bookingID string) (*LiveStatus, error)
	// Remove drops the status of a booking whose session ended.
	Remove(ctx context.Context, bookingID string) error
}

// CheckoutRequest asks the booking workflow to check a booking out.
type CheckoutRequest struct {
	BookingID  string    `json:"booking_id"`
	OwnerID    string    `json:"owner_id,omitempty"`
	SessionID  string    `json:"session_id"`
	Reason     string    `json:"reason"`
	EntryCount int       `json:"entry_count"`
	ExitCount  int       `json:"exit_count"`
	DetectedAt time.Time `json:"detected_at"`
}

// CheckoutClient invokes the external checkout procedure, which computes
// billing and releases the space.
type CheckoutClient interface {
	// TriggerCheckout requests checkout of a booking.
	TriggerCheckout(ctx context.Context, req CheckoutRequest) error
}

// GeofenceService defines the primary port used by the HTTP transport.
type GeofenceService interface {
	StartTracking(ctx context.Context, bookingID string, target domain.Coordinate) (domain.SessionSnapshot, error)
	EndTracking(ctx context.Context, bookingID string) bool
	StartParking(ctx context.Context, bookingID, ownerID string, target domain.Coordinate) (domain.SessionSnapshot, error)
	EndParking(ctx context.Context, bookingID string) bool
	// UpdateLocation returns a nil result with a nil error for bookings without a live session.
	UpdateLocation(ctx context.Context, bookingID string, pos domain.Coordinate, accuracy *float64) (*engine.UpdateResult, error)
	Session(ctx context.Context, bookingID string) (domain.SessionSnapshot, bool)
	LiveStatus(ctx context.Context, bookingID string) (*LiveStatus, error)
}
