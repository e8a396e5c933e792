// Package prefs maintains per-user preference profiles. Profiles are
// created lazily with the documented defaults on first access and are
// the only mutable shared state in the comparison service, so willingness
// updates are serialized per user by every implementation.
package prefs

import (
	"context"
	"time"

	"github.com/marketpadi/compare-service/internal/engine"
	"github.com/marketpadi/compare-service/internal/learning"
)

// SwitchingEvent is a write-once record of a past recommendation and
// whether the user acted on it. It is consumed by the preference learner
// and never mutated afterward.
type SwitchingEvent struct {
	UserID           int64
	FromStoreID      *int64
	ToStoreID        int64
	NetSavingShown   float64
	DistanceKm       float64
	TravelTimeMin    float64
	Accepted         bool
	BasketItemCount  int
	BasketTotalValue float64
	CreatedAt        time.Time
}

// Store is the per-user preference store. Get creates the profile with
// defaults when it does not exist yet. RecordSwitchingEvent persists the
// event and applies the learner to the willingness score atomically per
// user: concurrent events for the same user must not lose updates.
type Store interface {
	Get(ctx context.Context, userID int64) (engine.Preferences, error)
	Put(ctx context.Context, userID int64, p engine.Preferences) error
	RecordSwitchingEvent(ctx context.Context, ev SwitchingEvent, learner learning.Learner) (newScore float64, err error)
}
