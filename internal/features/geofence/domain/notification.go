package domain

import "time"

// NotificationKind identifies a geofence notification.
type NotificationKind string

const (
	NotifyApproaching  NotificationKind = "approaching"
	NotifyArrived      NotificationKind = "arrived"
	NotifyDeparting    NotificationKind = "departing"
	NotifyAutoCheckout NotificationKind = "autoCheckout"
)

// MaxDepartureWarnings caps the informational departure warning counter.
const MaxDepartureWarnings = 3

// NotificationSet records which kinds already fired for a session.
type NotificationSet map[NotificationKind]bool

// Has reports whether kind already fired.
func (n NotificationSet) Has(kind NotificationKind) bool {
	return n[kind]
}

// Kinds returns the fired kinds in a stable order.
func (n NotificationSet) Kinds() []NotificationKind {
	var out []NotificationKind
	for _, k := range []NotificationKind{NotifyApproaching, NotifyArrived, NotifyDeparting, NotifyAutoCheckout} {
		if n[k] {
			out = append(out, k)
		}
	}
	return out
}

func (n NotificationSet) clone() NotificationSet {
	out := make(NotificationSet, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

// trackingKinds and parkingKinds map a status to the notification it can trigger.
var (
	trackingKinds = map[Status]NotificationKind{
		StatusApproaching: NotifyApproaching,
		StatusArrived:     NotifyArrived,
	}
	parkingKinds = map[Status]NotificationKind{
		StatusDeparting:    NotifyDeparting,
		StatusAutoCheckout: NotifyAutoCheckout,
	}
)

// debounce marks kind as fired and reports whether it is due now.
func debounce(fired NotificationSet, byStatus map[Status]NotificationKind, status Status) []NotificationKind {
	kind, ok := byStatus[status]
	if !ok || fired[kind] {
		return nil
	}
	fired[kind] = true
	return []NotificationKind{kind}
}

// Notification is a due notification handed to the delivery collaborator.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	BookingID string           `json:"booking_id"`
	OwnerID   string           `json:"owner_id,omitempty"`
	SessionID string           `json:"session_id"`
	Status    Status           `json:"status"`
	DistanceM float64          `json:"distance_m"`
	At        time.Time        `json:"at"`
}
