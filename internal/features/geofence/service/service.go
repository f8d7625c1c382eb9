package service

import (
	"context"

	"geofence-tracker/internal/features/geofence/domain"
	"geofence-tracker/internal/features/geofence/engine"
	"geofence-tracker/internal/features/geofence/ports"

	"go.uber.org/zap"
)

// CheckoutReasonExits is sent to the booking service when the second exit from
// the parking radius ends a session.
const CheckoutReasonExits = "auto_checkout_exits"

// GeofenceServiceImpl implements ports.GeofenceService. The engine decides, the
// service performs the resulting side effects.
type GeofenceServiceImpl struct {
	engine    *engine.Engine
	notifier  ports.Notifier
	analytics ports.AnalyticsSink
	status    ports.StatusCache
	checkout  ports.CheckoutClient
	logger    *zap.Logger
}

// NewGeofenceService creates a new GeofenceServiceImpl.
func NewGeofenceService(
	e *engine.Engine,
	notifier ports.Notifier,
	analytics ports.AnalyticsSink,
	status ports.StatusCache,
	checkout ports.CheckoutClient,
	logger *zap.Logger,
) *GeofenceServiceImpl {
	return &GeofenceServiceImpl{
		engine:    e,
		notifier:  notifier,
		analytics: analytics,
		status:    status,
		checkout:  checkout,
		logger:    logger,
	}
}

// StartTracking begins following a booking on its way to the space.
func (s *GeofenceServiceImpl) StartTracking(ctx context.Context, bookingID string, target domain.Coordinate) (domain.SessionSnapshot, error) {
	snap, err := s.engine.StartTrackingSession(bookingID, target)
	if err != nil {
		return snap, err
	}
	s.logger.Info("Tracking session active",
		zap.String("booking_id", bookingID),
		zap.String("session_id", snap.ID),
	)
	return snap, nil
}

// EndTracking stops tracking a booking. It reports false when nothing was tracked.
func (s *GeofenceServiceImpl) EndTracking(ctx context.Context, bookingID string) bool {
	res := s.engine.EndTrackingSession(bookingID)
	if res == nil {
		return false
	}
	s.finish(ctx, res, true)
	return true
}

// StartParking checks a booking in, promoting its tracking session if any.
// Checking in again leaves the published status untouched.
func (s *GeofenceServiceImpl) StartParking(ctx context.Context, bookingID, ownerID string, target domain.Coordinate) (domain.SessionSnapshot, error) {
	start, err := s.engine.StartParkingSession(bookingID, ownerID, target)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	snap := start.Session
	if start.Promoted != nil {
		s.logger.Info("Tracking session promoted to parking",
			zap.String("booking_id", bookingID),
			zap.String("tracking_session_id", start.Promoted.Session.ID),
		)
		s.finish(ctx, start.Promoted, false)
	}
	if !start.Created {
		return snap, nil
	}

	s.publish(ctx, snap, domain.GeoFenceStatus{
		Zone:   domain.ZoneParking,
		Status: snap.LastStatus,
		Action: domain.ActionMaintain,
	})
	s.logger.Info("Parking session active",
		zap.String("booking_id", bookingID),
		zap.String("session_id", snap.ID),
		zap.String("owner_id", ownerID),
	)
	return snap, nil
}

// EndParking checks a booking out. It reports false when nothing was parked.
func (s *GeofenceServiceImpl) EndParking(ctx context.Context, bookingID string) bool {
	res := s.engine.EndParkingSession(bookingID)
	if res == nil {
		return false
	}
	s.finish(ctx, res, true)
	return true
}

// UpdateLocation runs one GPS fix through the engine and performs the effects
// of the result.
func (s *GeofenceServiceImpl) UpdateLocation(ctx context.Context, bookingID string, pos domain.Coordinate, accuracy *float64) (*engine.UpdateResult, error) {
	res, err := s.engine.UpdateLocation(bookingID, pos, accuracy)
	if err != nil {
		return nil, err
	}
	if res == nil {
		s.logger.Debug("Ignoring location for booking without session", zap.String("booking_id", bookingID))
		return nil, nil
	}

	fields := []zap.Field{
		zap.String("booking_id", bookingID),
		zap.String("zone", string(res.Status.Zone)),
		zap.String("status", string(res.Status.Status)),
		zap.String("action", string(res.Status.Action)),
		zap.Float64("distance_m", res.Status.Distance),
	}
	if res.Transition != domain.TransitionNone {
		s.logger.Info("Parking zone crossed", append(fields, zap.String("transition", string(res.Transition)))...)
	} else {
		s.logger.Debug("Location classified", fields...)
	}

	s.publish(ctx, res.Session, res.Status)
	s.dispatch(ctx, res)

	if res.CheckoutClaimed {
		res.SessionEnded = s.autoCheckout(ctx, res.Session)
	}
	return res, nil
}

// Session returns the live session of a booking.
func (s *GeofenceServiceImpl) Session(ctx context.Context, bookingID string) (domain.SessionSnapshot, bool) {
	return s.engine.Session(bookingID)
}

// LiveStatus returns the last published status of a booking.
func (s *GeofenceServiceImpl) LiveStatus(ctx context.Context, bookingID string) (*ports.LiveStatus, error) {
	return s.status.Get(ctx, bookingID)
}

func (s *GeofenceServiceImpl) dispatch(ctx context.Context, res *engine.UpdateResult) {
	for _, kind := range res.Notifications {
		n := domain.Notification{
			Kind:      kind,
			BookingID: res.Session.BookingID,
			OwnerID:   res.Session.OwnerID,
			SessionID: res.Session.ID,
			Status:    res.Status.Status,
			DistanceM: res.Status.Distance,
			At:        res.Session.LastUpdate,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Error("Failed to deliver notification",
				zap.String("booking_id", n.BookingID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("Notification sent",
			zap.String("booking_id", n.BookingID),
			zap.String("kind", string(kind)),
		)
	}
}

// autoCheckout asks the booking service to check out, then ends the session.
// On failure the claim is released so the next ping retries. It reports whether
// the session was ended.
func (s *GeofenceServiceImpl) autoCheckout(ctx context.Context, snap domain.SessionSnapshot) bool {
	req := ports.CheckoutRequest{
		BookingID:  snap.BookingID,
		OwnerID:    snap.OwnerID,
		SessionID:  snap.ID,
		Reason:     CheckoutReasonExits,
		DetectedAt: snap.LastUpdate,
	}
	if snap.EntryExit != nil {
		req.EntryCount = snap.EntryExit.EntryCount
		req.ExitCount = snap.EntryExit.ExitCount
	}

	if err := s.checkout.TriggerCheckout(ctx, req); err != nil {
		s.engine.ReleaseCheckout(snap.BookingID, snap.ID)
		s.logger.Error("Auto checkout failed, keeping session",
			zap.String("booking_id", snap.BookingID),
			zap.Int("exit_count", req.ExitCount),
			zap.Error(err),
		)
		return false
	}
	s.logger.Info("Auto checkout triggered",
		zap.String("booking_id", snap.BookingID),
		zap.Int("entry_count", req.EntryCount),
		zap.Int("exit_count", req.ExitCount),
	)

	res := s.engine.CompleteCheckout(snap.BookingID, snap.ID)
	if res == nil {
		return false
	}
	s.finish(ctx, res, true)
	return true
}

// SessionsReaped drops the live status of bookings whose sessions expired.
func (s *GeofenceServiceImpl) SessionsReaped(ctx context.Context, reaped []domain.SessionSnapshot) {
	for _, snap := range reaped {
		if _, ok := s.engine.Session(snap.BookingID); ok {
			continue
		}
		if err := s.status.Remove(ctx, snap.BookingID); err != nil {
			s.logger.Warn("Failed to remove live status of expired session",
				zap.String("booking_id", snap.BookingID),
				zap.Error(err),
			)
		}
	}
}

func (s *GeofenceServiceImpl) publish(ctx context.Context, snap domain.SessionSnapshot, st domain.GeoFenceStatus) {
	live := ports.LiveStatus{
		BookingID: snap.BookingID,
		SessionID: snap.ID,
		Kind:      snap.Kind,
		Zone:      st.Zone,
		Status:    st.Status,
		Action:    st.Action,
		DistanceM: st.Distance,
		UpdatedAt: snap.LastUpdate,
	}
	if snap.EntryExit != nil {
		live.EntryCount = snap.EntryExit.EntryCount
		live.ExitCount = snap.EntryExit.ExitCount
	}
	if err := s.status.Publish(ctx, live); err != nil {
		s.logger.Warn("Failed to publish live status",
			zap.String("booking_id", snap.BookingID),
			zap.Error(err),
		)
	}
}

// finish records analytics of an ended session and, when the booking has no
// session left, drops its live status.
func (s *GeofenceServiceImpl) finish(ctx context.Context, res *engine.EndResult, clearStatus bool) {
	log := s.logger.With(
		zap.String("booking_id", res.Session.BookingID),
		zap.String("session_id", res.Session.ID),
		zap.String("kind", string(res.Session.Kind)),
	)

	if res.AnalyticsErr != nil {
		log.Info("No analytics for session", zap.Error(res.AnalyticsErr))
	} else if res.Analytics != nil {
		if err := s.analytics.Record(ctx, *res.Analytics); err != nil {
			log.Error("Failed to record session analytics", zap.Error(err))
		}
	}

	if clearStatus {
		if err := s.status.Remove(ctx, res.Session.BookingID); err != nil {
			log.Warn("Failed to remove live status", zap.Error(err))
		}
	}
	log.Info("Session ended", zap.Int("update_count", res.Session.UpdateCount))
}
