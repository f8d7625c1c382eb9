package engine

import (
	"context"
	"fmt"
	"time"

	"geofence-tracker/internal/features/geofence/domain"
	"geofence-tracker/internal/features/geofence/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweep removes tracking sessions created more than maxAge ago and parking
// sessions that have not received an update for maxAge. Reaped sessions get no
// analytics and no checkout.
func (e *Engine) Sweep(maxAge time.Duration) []domain.SessionSnapshot {
	cutoff := e.now().Add(-maxAge)

	var reaped []domain.SessionSnapshot
	for _, id := range e.store.Keys() {
		e.store.With(id, func(slot *store.Slot) {
			if slot.Tracking != nil && slot.Tracking.CreatedAt.Before(cutoff) {
				reaped = append(reaped, slot.Tracking.Snapshot())
				slot.Tracking = nil
			}
			if slot.Parking != nil && slot.Parking.LastUpdate.Before(cutoff) {
				reaped = append(reaped, slot.Parking.Snapshot())
				slot.Parking = nil
			}
		})
	}
	return reaped
}

// listenerTimeout bounds the cleanup listeners run after one sweep.
const listenerTimeout = 30 * time.Second

// SweepListener is told which sessions a sweep removed, so state kept outside
// the engine for those bookings can be dropped.
type SweepListener func(ctx context.Context, reaped []domain.SessionSnapshot)

// Reaper runs Sweep on a cron schedule.
type Reaper struct {
	engine    *Engine
	maxAge    time.Duration
	schedule  string
	cron      *cron.Cron
	logger    *zap.Logger
	listeners []SweepListener
}

// NewReaper creates a Reaper. schedule uses cron syntax such as "@every 10m".
func NewReaper(e *Engine, maxAge time.Duration, schedule string, logger *zap.Logger) (*Reaper, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("reaper max age must be positive, got %s", maxAge)
	}
	r := &Reaper{
		engine:   e,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce() }); err != nil {
		return nil, fmt.Errorf("invalid reaper schedule %q: %w", schedule, err)
	}
	return r, nil
}

// OnSweep registers fn to run after every sweep that removed sessions. It must
// be called before Start.
func (r *Reaper) OnSweep(fn SweepListener) {
	r.listeners = append(r.listeners, fn)
}

// RunOnce performs a single sweep, logs what it removed and notifies the
// listeners.
func (r *Reaper) RunOnce() int {
	reaped := r.engine.Sweep(r.maxAge)
	if len(reaped) > 0 && len(r.listeners) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), listenerTimeout)
		for _, fn := range r.listeners {
			fn(ctx, reaped)
		}
		cancel()
	}
	for _, s := range reaped {
		r.logger.Info("Reaped expired session",
			zap.String("booking_id", s.BookingID),
			zap.String("session_id", s.ID),
			zap.String("kind", string(s.Kind)),
			zap.Time("started_at", s.StartedAt),
		)
	}
	r.logger.Debug("Session sweep finished",
		zap.Int("reaped", len(reaped)),
		zap.Int("active", r.engine.ActiveSessions()),
	)
	return len(reaped)
}

// Start begins the schedule in its own goroutine.
func (r *Reaper) Start() {
	r.logger.Info("Starting session reaper",
		zap.String("schedule", r.schedule),
		zap.Duration("max_age", r.maxAge),
	)
	r.cron.Start()
}

// Stop halts the schedule and waits for a running sweep, or for ctx.
func (r *Reaper) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
