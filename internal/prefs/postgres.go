package prefs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketpadi/compare-service/internal/engine"
	"github.com/marketpadi/compare-service/internal/learning"
)

// PostgresStore persists preference profiles in the user_preferences
// table and switching events in switching_events. Score updates run in a
// transaction with a row lock, so concurrent events for one user
// serialize while other users proceed independently.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a Postgres-backed preference store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: log.With().Str("component", "prefs_store").Logger(),
	}
}

const prefsColumns = `
	transport_mode, per_km_cost, base_trip_cost, value_of_time_per_min,
	preferred_store_id, loyalty_penalty, willingness_to_travel_score,
	alert_threshold_high, alert_threshold_low`

// Get returns the user's preferences, inserting the default profile on
// first access.
func (s *PostgresStore) Get(ctx context.Context, userID int64) (engine.Preferences, error) {
	p, err := s.fetch(ctx, s.pool, userID)
	if err == nil {
		return p, nil
	}
	if err != pgx.ErrNoRows {
		return engine.Preferences{}, fmt.Errorf("failed to load preferences for user %d: %w", userID, err)
	}

	if err := s.insertDefaults(ctx, userID); err != nil {
		return engine.Preferences{}, err
	}
	return engine.DefaultPreferences(), nil
}

// Put replaces the user's preferences, creating the row if needed.
func (s *PostgresStore) Put(ctx context.Context, userID int64, p engine.Preferences) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_preferences (
			user_id,`+prefsColumns+`
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			transport_mode = EXCLUDED.transport_mode,
			per_km_cost = EXCLUDED.per_km_cost,
			base_trip_cost = EXCLUDED.base_trip_cost,
			value_of_time_per_min = EXCLUDED.value_of_time_per_min,
			preferred_store_id = EXCLUDED.preferred_store_id,
			loyalty_penalty = EXCLUDED.loyalty_penalty,
			willingness_to_travel_score = EXCLUDED.willingness_to_travel_score,
			alert_threshold_high = EXCLUDED.alert_threshold_high,
			alert_threshold_low = EXCLUDED.alert_threshold_low,
			updated_at = NOW()
	`, userID, string(p.TransportMode), p.PerKmCost, p.BaseTripCost, p.ValueOfTimePerMin,
		p.PreferredStoreID, p.LoyaltyPenalty, p.WillingnessToTravel,
		p.AlertThresholdHigh, p.AlertThresholdLow)
	if err != nil {
		return fmt.Errorf("failed to save preferences for user %d: %w", userID, err)
	}
	return nil
}

// RecordSwitchingEvent inserts the event and applies the learner to the
// willingness score under a per-user row lock.
func (s *PostgresStore) RecordSwitchingEvent(ctx context.Context, ev SwitchingEvent, learner learning.Learner) (float64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Make sure the profile row exists before locking it.
	if err := s.insertDefaults(ctx, ev.UserID); err != nil {
		return 0, err
	}

	var score float64
	err = tx.QueryRow(ctx, `
		SELECT willingness_to_travel_score
		FROM user_preferences
		WHERE user_id = $1
		FOR UPDATE
	`, ev.UserID).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("failed to lock preferences for user %d: %w", ev.UserID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO switching_events (
			user_id, from_store_id, to_store_id, net_saving_shown,
			distance_km, travel_time_min, accepted,
			basket_item_count, basket_total_value, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()))
	`, ev.UserID, ev.FromStoreID, ev.ToStoreID, ev.NetSavingShown,
		ev.DistanceKm, ev.TravelTimeMin, ev.Accepted,
		ev.BasketItemCount, ev.BasketTotalValue, nullTime(ev))
	if err != nil {
		return 0, fmt.Errorf("failed to insert switching event: %w", err)
	}

	newScore := learner.Update(score, learning.Event{
		Accepted:       ev.Accepted,
		NetSavingShown: ev.NetSavingShown,
		DistanceKm:     ev.DistanceKm,
	})

	_, err = tx.Exec(ctx, `
		UPDATE user_preferences
		SET willingness_to_travel_score = $2, updated_at = NOW()
		WHERE user_id = $1
	`, ev.UserID, newScore)
	if err != nil {
		return 0, fmt.Errorf("failed to update willingness score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit switching event: %w", err)
	}

	s.logger.Debug().
		Int64("user", ev.UserID).
		Bool("accepted", ev.Accepted).
		Float64("score", newScore).
		Msg("Recorded switching event")
	return newScore, nil
}

func (s *PostgresStore) insertDefaults(ctx context.Context, userID int64) error {
	d := engine.DefaultPreferences()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_preferences (
			user_id,`+prefsColumns+`
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, string(d.TransportMode), d.PerKmCost, d.BaseTripCost, d.ValueOfTimePerMin,
		d.PreferredStoreID, d.LoyaltyPenalty, d.WillingnessToTravel,
		d.AlertThresholdHigh, d.AlertThresholdLow)
	if err != nil {
		return fmt.Errorf("failed to create default preferences for user %d: %w", userID, err)
	}
	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) fetch(ctx context.Context, q rowQuerier, userID int64) (engine.Preferences, error) {
	var (
		p    engine.Preferences
		mode string
	)
	err := q.QueryRow(ctx, `
		SELECT`+prefsColumns+`
		FROM user_preferences
		WHERE user_id = $1
	`, userID).Scan(
		&mode, &p.PerKmCost, &p.BaseTripCost, &p.ValueOfTimePerMin,
		&p.PreferredStoreID, &p.LoyaltyPenalty, &p.WillingnessToTravel,
		&p.AlertThresholdHigh, &p.AlertThresholdLow,
	)
	if err != nil {
		return engine.Preferences{}, err
	}
	p.TransportMode = engine.TransportMode(mode)
	return p, nil
}

func nullTime(ev SwitchingEvent) any {
	if ev.CreatedAt.IsZero() {
		return nil
	}
	return ev.CreatedAt
}
