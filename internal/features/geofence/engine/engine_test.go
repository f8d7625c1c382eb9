package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"geofence-tracker/internal/features/geofence/domain"
	"geofence-tracker/internal/features/geofence/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var target = domain.Coordinate{Lat: 14.5995, Lon: 120.9822}

func north(metres float64) domain.Coordinate {
	return domain.Coordinate{Lat: target.Lat + metres/domain.EarthRadiusMeters*180/math.Pi, Lon: target.Lon}
}

// fakeClock advances by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func newTestEngine(t *testing.T) (*Engine, *fakeClock) {
	t.Helper()
	c, err := domain.NewClassifier(domain.DefaultThresholds())
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), step: 30 * time.Second}
	n := 0
	e := New(store.New(), c,
		WithClock(clock.Now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("session-%d", n) }),
	)
	return e, clock
}

func mustUpdate(t *testing.T, e *Engine, bookingID string, metres float64) *UpdateResult {
	t.Helper()
	res, err := e.UpdateLocation(bookingID, north(metres), nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

// TestEngine_AutoCheckoutAfterSecondExit is the reference four-update scenario.
func TestEngine_AutoCheckoutAfterSecondExit(t *testing.T) {
	e, _ := newTestEngine(t)
	start, err := e.StartParkingSession("b1", "owner-1", target)
	require.NoError(t, err)
	assert.True(t, start.Created)
	assert.Nil(t, start.Promoted)

	r1 := mustUpdate(t, e, "b1", 50)
	r2 := mustUpdate(t, e, "b1", 900)
	r3 := mustUpdate(t, e, "b1", 100)
	r4 := mustUpdate(t, e, "b1", 900)

	for _, r := range []*UpdateResult{r1, r2, r3} {
		assert.False(t, r.AutoCheckout)
		assert.NotEqual(t, domain.ActionAutoCheckout, r.Status.Action)
	}
	assert.Equal(t, domain.TransitionExit, r2.Transition)
	assert.Equal(t, domain.TransitionEntry, r3.Transition)

	assert.True(t, r4.AutoCheckout)
	assert.Equal(t, domain.ActionAutoCheckout, r4.Status.Action)
	assert.Equal(t, domain.StatusAutoCheckout, r4.Status.Status)
	assert.Equal(t, []domain.NotificationKind{domain.NotifyAutoCheckout}, r4.Notifications)
	require.NotNil(t, r4.Session.EntryExit)
	assert.Equal(t, 2, r4.Session.EntryExit.ExitCount)
	assert.Equal(t, 2, r4.Session.EntryExit.EntryCount)
	assert.True(t, r4.Session.Notified.Has(domain.NotifyAutoCheckout))
}

// TestEngine_CheckoutClaimedOnce sends concurrent pings past the second exit
// and checks that only one of them owns the checkout.
func TestEngine_CheckoutClaimedOnce(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.StartParkingSession("b1", "owner-1", target)
	require.NoError(t, err)
	for _, d := range []float64{50, 900, 100} {
		mustUpdate(t, e, "b1", d)
	}

	const pings = 8
	results := make(chan *UpdateResult, pings)
	var wg sync.WaitGroup
	for i := 0; i < pings; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.UpdateLocation("b1", north(900), nil)
			if err == nil {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	claimed := 0
	for res := range results {
		assert.True(t, res.AutoCheckout)
		assert.True(t, res.Session.CheckoutPending)
		if res.CheckoutClaimed {
			claimed++
		}
	}
	assert.Equal(t, 1, claimed)
}

func TestEngine_ReleaseAndCompleteCheckout(t *testing.T) {
	e, _ := newTestEngine(t)
	start, err := e.StartParkingSession("b1", "owner-1", target)
	require.NoError(t, err)
	for _, d := range []float64{900, 100} {
		mustUpdate(t, e, "b1", d)
	}

	first := mustUpdate(t, e, "b1", 900)
	require.True(t, first.CheckoutClaimed)
	assert.False(t, mustUpdate(t, e, "b1", 950).CheckoutClaimed, "checkout already in flight")

	e.ReleaseCheckout("b1", start.Session.ID)
	retry := mustUpdate(t, e, "b1", 950)
	assert.True(t, retry.CheckoutClaimed, "a released checkout is claimed by the next update")

	assert.Nil(t, e.CompleteCheckout("b1", "some-other-session"))
	_, ok := e.Session("b1")
	require.True(t, ok)

	ended := e.CompleteCheckout("b1", start.Session.ID)
	require.NotNil(t, ended)
	require.NoError(t, ended.AnalyticsErr)
	assert.Equal(t, 5, ended.Analytics.UpdateCount)
	assert.Zero(t, e.ActiveSessions())
}

func TestEngine_SingleExitDoesNotCheckOut(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.StartParkingSession("b1", "owner-1", target)
	require.NoError(t, err)

	var last *UpdateResult
	for _, d := range []float64{50, 900, 100} {
		last = mustUpdate(t, e, "b1", d)
		assert.False(t, last.AutoCheckout)
	}
	assert.Equal(t, 1, last.Session.EntryExit.ExitCount)
	assert.True(t, last.Session.EntryExit.InsideParkingZone)
}

func TestEngine_TrackingApproachingNotifiesOnce(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.StartTrackingSession("b1", target)
	require.NoError(t, err)

	r1 := mustUpdate(t, e, "b1", 1500)
	assert.Equal(t, domain.StatusEnRoute, r1.Status.Status)
	assert.Empty(t, r1.Notifications)

	r2 := mustUpdate(t, e, "b1", 700)
	assert.Equal(t, domain.StatusApproaching, r2.Status.Status)
	assert.Equal(t, []domain.NotificationKind{domain.NotifyApproaching}, r2.Notifications)

	r3 := mustUpdate(t, e, "b1", 700)
	assert.Equal(t, domain.StatusApproaching, r3.Status.Status)
	assert.Empty(t, r3.Notifications)
	assert.Equal(t, domain.SessionKindTracking, r3.Session.Kind)
	assert.Nil(t, r3.Session.EntryExit)
}

func TestEngine_UnknownBookingIgnored(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.UpdateLocation("nobody", north(10), nil)
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Zero(t, e.ActiveSessions())
}

func TestEngine_InvalidInputDoesNotMutate(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.StartTrackingSession("b1", target)
	require.NoError(t, err)

	_, err = e.UpdateLocation("b1", domain.Coordinate{Lat: math.NaN(), Lon: 0}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)

	_, err = e.UpdateLocation("b1", domain.Coordinate{Lat: 91, Lon: 0}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)

	bad := -3.0
	_, err = e.UpdateLocation("b1", north(10), &bad)
	assert.ErrorIs(t, err, ErrInvalidAccuracy)

	snap, ok := e.Session("b1")
	require.True(t, ok)
	assert.Zero(t, snap.UpdateCount)
	assert.Equal(t, domain.StatusEnRoute, snap.LastStatus)
}

func TestEngine_LifecycleMisuseIsNoop(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.Nil(t, e.EndParkingSession("missing"))
	assert.Nil(t, e.EndTrackingSession("missing"))

	_, err := e.StartTrackingSession("", target)
	assert.ErrorIs(t, err, ErrMissingBookingID)

	_, err = e.StartParkingSession("b1", "u1", domain.Coordinate{Lat: math.Inf(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
}

func TestEngine_StartIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)

	first, err := e.StartTrackingSession("b1", target)
	require.NoError(t, err)
	again, err := e.StartTrackingSession("b1", target)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	parked, err := e.StartParkingSession("b1", "u1", target)
	require.NoError(t, err)
	assert.True(t, parked.Created)
	mustUpdate(t, e, "b1", 900)

	reparked, err := e.StartParkingSession("b1", "u1", target)
	require.NoError(t, err)
	assert.False(t, reparked.Created)
	assert.Nil(t, reparked.Promoted)
	assert.Equal(t, parked.Session.ID, reparked.Session.ID)
	assert.Equal(t, 1, reparked.Session.EntryExit.ExitCount, "re-check-in must keep counters")

	_, err = e.StartTrackingSession("b1", target)
	assert.ErrorIs(t, err, ErrAlreadyParked)
}

// TestEngine_PromotionIsAtomic checks the tracking session disappears when the
// parking session appears and that its journey is analysed.
func TestEngine_PromotionIsAtomic(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.StartTrackingSession("b1", target)
	require.NoError(t, err)
	mustUpdate(t, e, "b1", 1200)
	mustUpdate(t, e, "b1", 600)
	mustUpdate(t, e, "b1", 100)

	start, err := e.StartParkingSession("b1", "u1", target)
	require.NoError(t, err)
	snap, promoted := start.Session, start.Promoted
	assert.Equal(t, domain.SessionKindParking, snap.Kind)
	assert.Equal(t, 1, snap.EntryExit.EntryCount)
	assert.True(t, snap.EntryExit.InsideParkingZone)

	require.NotNil(t, promoted)
	assert.Equal(t, domain.SessionKindTracking, promoted.Session.Kind)
	require.NoError(t, promoted.AnalyticsErr)
	assert.InDelta(t, 1100, promoted.Analytics.TotalDistanceM, 1e-6)
	assert.Equal(t, 3, promoted.Analytics.UpdateCount)
	assert.Equal(t, domain.StatusArrived, promoted.Analytics.FinalStatus)

	assert.Nil(t, e.EndTrackingSession("b1"), "tracking entry is gone after promotion")
	current, ok := e.Session("b1")
	require.True(t, ok)
	assert.Equal(t, snap.ID, current.ID)
	assert.Equal(t, 1, e.ActiveSessions())
}

func TestEngine_EndParkingSessionAnalytics(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.StartParkingSession("b1", "u1", target)
	require.NoError(t, err)

	ended := e.EndParkingSession("b1")
	require.NotNil(t, ended)
	assert.Nil(t, ended.Analytics)
	assert.ErrorIs(t, ended.AnalyticsErr, domain.ErrTooFewPoints)

	_, err = e.StartParkingSession("b2", "u2", target)
	require.NoError(t, err)
	mustUpdate(t, e, "b2", 0)
	mustUpdate(t, e, "b2", 300)

	ended = e.EndParkingSession("b2")
	require.NotNil(t, ended)
	require.NoError(t, ended.AnalyticsErr)
	assert.InDelta(t, 300, ended.Analytics.TotalDistanceM, 1e-6)
	assert.InDelta(t, 10, ended.Analytics.AverageSpeedMps, 1e-6, "300 m over one 30 s clock step")
	assert.Equal(t, domain.SessionKindParking, ended.Analytics.Kind)
	assert.Zero(t, e.ActiveSessions())
}

// TestEngine_ParallelBookings feeds many bookings concurrently and checks each
// booking ends with its own exact counts.
func TestEngine_ParallelBookings(t *testing.T) {
	e, _ := newTestEngine(t)
	const bookings = 20

	for i := 0; i < bookings; i++ {
		_, err := e.StartParkingSession(fmt.Sprintf("b%d", i), "u", target)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < bookings; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, d := range []float64{50, 900, 100, 900} {
				_, _ = e.UpdateLocation(id, north(d), nil)
			}
		}(fmt.Sprintf("b%d", i))
	}
	wg.Wait()

	for i := 0; i < bookings; i++ {
		snap, ok := e.Session(fmt.Sprintf("b%d", i))
		require.True(t, ok)
		assert.Equal(t, 2, snap.EntryExit.ExitCount)
		assert.Equal(t, domain.StatusAutoCheckout, snap.LastStatus)
	}
}

func TestEngine_Sweep(t *testing.T) {
	e, clock := newTestEngine(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	clock.Set(base.Add(-25 * time.Hour))
	_, err := e.StartTrackingSession("stale", target)
	require.NoError(t, err)

	clock.Set(base.Add(-1 * time.Hour))
	_, err = e.StartTrackingSession("fresh", target)
	require.NoError(t, err)

	clock.Set(base.Add(-30 * time.Hour))
	_, err = e.StartParkingSession("idle-parked", "u", target)
	require.NoError(t, err)

	clock.Set(base)
	reaped := e.Sweep(24 * time.Hour)

	var ids []string
	for _, s := range reaped {
		ids = append(ids, s.BookingID)
	}
	assert.ElementsMatch(t, []string{"stale", "idle-parked"}, ids)

	_, ok := e.Session("stale")
	assert.False(t, ok)
	_, ok = e.Session("fresh")
	assert.True(t, ok)
}

func TestReaper(t *testing.T) {
	e, clock := newTestEngine(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	clock.Set(base.Add(-48 * time.Hour))
	_, err := e.StartTrackingSession("stale", target)
	require.NoError(t, err)
	clock.Set(base)

	r, err := NewReaper(e, 24*time.Hour, "@every 1h", zap.NewNop())
	require.NoError(t, err)

	var notified [][]domain.SessionSnapshot
	r.OnSweep(func(ctx context.Context, reaped []domain.SessionSnapshot) {
		assert.NoError(t, ctx.Err())
		notified = append(notified, reaped)
	})

	assert.Equal(t, 1, r.RunOnce())
	assert.Zero(t, r.RunOnce())
	require.Len(t, notified, 1, "empty sweeps notify nobody")
	require.Len(t, notified[0], 1)
	assert.Equal(t, "stale", notified[0][0].BookingID)

	r.Start()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, r.Stop(ctx))

	_, err = NewReaper(e, 24*time.Hour, "not a schedule", zap.NewNop())
	assert.Error(t, err)
	_, err = NewReaper(e, 0, "@every 1h", zap.NewNop())
	assert.Error(t, err)
}
