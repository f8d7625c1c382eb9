// Package store holds live geofence sessions in memory, keyed by booking id.
//
// Operations on the same booking are serialized by a per-booking mutex while
// different bookings proceed in parallel. The map itself is only locked long
// enough to find or create a slot.
package store

import (
	"sort"
	"sync"

	"geofence-tracker/internal/features/geofence/domain"
)

// Slot holds the sessions of one booking. At most one of each kind exists.
type Slot struct {
	Tracking *domain.TrackingSession
	Parking  *domain.ParkingSession
}

func (s *Slot) empty() bool {
	return s.Tracking == nil && s.Parking == nil
}

type entry struct {
	mu   sync.Mutex
	refs int
	slot Slot
}

// SessionStore owns every live session of the process.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty SessionStore.
func New() *SessionStore {
	return &SessionStore{entries: make(map[string]*entry)}
}

// acquire returns the locked entry for bookingID, creating it if needed.
func (s *SessionStore) acquire(bookingID string) *entry {
	s.mu.Lock()
	e, ok := s.entries[bookingID]
	if !ok {
		e = &entry{}
		s.entries[bookingID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return e
}

// release unlocks the entry and drops it from the map once nobody holds it and
// it carries no session.
func (s *SessionStore) release(bookingID string, e *entry) {
	empty := e.slot.empty()
	e.mu.Unlock()

	s.mu.Lock()
	e.refs--
	if e.refs == 0 && empty {
		if cur, ok := s.entries[bookingID]; ok && cur == e {
			delete(s.entries, bookingID)
		}
	}
	s.mu.Unlock()
}

// With runs fn with exclusive access to the booking's slot. Changes fn makes to
// the slot are kept; a slot left empty is removed.
func (s *SessionStore) With(bookingID string, fn func(slot *Slot)) {
	e := s.acquire(bookingID)
	defer s.release(bookingID, e)
	fn(&e.slot)
}

// Keys returns the booking ids currently holding a session, sorted.
func (s *SessionStore) Keys() []string {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Len returns the number of bookings holding a session. A booking with a call
// in flight is counted even if that call is about to empty its slot.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
