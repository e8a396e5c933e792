package prefs

import (
	"context"
	"sync"
	"time"

	"github.com/marketpadi/compare-service/internal/engine"
	"github.com/marketpadi/compare-service/internal/learning"
)

// MemoryStore is an in-memory preference store with per-user locking.
// It backs tests and single-node deployments without Postgres.
type MemoryStore struct {
	mu    sync.Mutex
	users map[int64]*userState
}

type userState struct {
	mu     sync.Mutex
	prefs  engine.Preferences
	events []SwitchingEvent
}

// NewMemoryStore creates an empty in-memory preference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]*userState)}
}

// user returns the state for a user, creating it with defaults.
func (s *MemoryStore) user(userID int64) *userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		u = &userState{prefs: engine.DefaultPreferences()}
		s.users[userID] = u
	}
	return u
}

// Get returns the user's preferences, creating defaults on first access.
func (s *MemoryStore) Get(_ context.Context, userID int64) (engine.Preferences, error) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.prefs, nil
}

// Put replaces the user's preferences.
func (s *MemoryStore) Put(_ context.Context, userID int64, p engine.Preferences) error {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prefs = p
	return nil
}

// RecordSwitchingEvent appends the event and applies the learner under
// the user's lock, so concurrent events cannot lose score updates.
func (s *MemoryStore) RecordSwitchingEvent(_ context.Context, ev SwitchingEvent, learner learning.Learner) (float64, error) {
	u := s.user(ev.UserID)
	u.mu.Lock()
	defer u.mu.Unlock()

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	u.events = append(u.events, ev)

	u.prefs.WillingnessToTravel = learner.Update(u.prefs.WillingnessToTravel, learning.Event{
		Accepted:       ev.Accepted,
		NetSavingShown: ev.NetSavingShown,
		DistanceKm:     ev.DistanceKm,
	})
	return u.prefs.WillingnessToTravel, nil
}

// Events returns a copy of the recorded events for a user, oldest first.
func (s *MemoryStore) Events(userID int64) []SwitchingEvent {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]SwitchingEvent, len(u.events))
	copy(out, u.events)
	return out
}
