package handler

import (
	"sync"

	"golang.org/x/time/rate"
)

// pingLimiter keeps one token bucket per booking.
type pingLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	byBooking map[string]*rate.Limiter
}

func newPingLimiter(perSecond float64, burst int) *pingLimiter {
	return &pingLimiter{
		limit:     rate.Limit(perSecond),
		burst:     burst,
		byBooking: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether bookingID may send another ping now.
func (l *pingLimiter) Allow(bookingID string) bool {
	l.mu.Lock()
	lim, ok := l.byBooking[bookingID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.byBooking[bookingID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Forget drops the bucket of a booking that has no session any more.
func (l *pingLimiter) Forget(bookingID string) {
	l.mu.Lock()
	delete(l.byBooking, bookingID)
	l.mu.Unlock()
}

func (l *pingLimiter) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byBooking)
}
