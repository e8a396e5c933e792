package alerts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists alerts in the price_alerts table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed alert store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// List returns all alerts for a user, active first, newest first.
func (s *PostgresStore) List(ctx context.Context, userID int64) ([]Alert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, item_name, category_id, target_price,
		       min_net_saving, max_distance_km, is_active,
		       last_triggered_at, trigger_count
		FROM price_alerts
		WHERE user_id = $1
		ORDER BY is_active DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for user %d: %w", userID, err)
	}
	defer rows.Close()

	alerts := []Alert{}
	for rows.Next() {
		var a Alert
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.ItemName, &a.CategoryID, &a.TargetPrice,
			&a.MinNetSaving, &a.MaxDistanceKm, &a.IsActive,
			&a.LastTriggeredAt, &a.TriggerCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", rows.Err())
	}
	return alerts, nil
}

// Create inserts a new alert and fills in its generated ID.
func (s *PostgresStore) Create(ctx context.Context, a *Alert) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO price_alerts (
			user_id, item_name, category_id, target_price,
			min_net_saving, max_distance_km, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, a.UserID, a.ItemName, a.CategoryID, a.TargetPrice,
		a.MinNetSaving, a.MaxDistanceKm, a.IsActive).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// MarkTriggered stamps the alert's last trigger time and bumps its count.
func (s *PostgresStore) MarkTriggered(ctx context.Context, alertID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE price_alerts
		SET last_triggered_at = NOW(),
		    trigger_count = trigger_count + 1,
		    updated_at = NOW()
		WHERE id = $1
	`, alertID)
	if err != nil {
		return fmt.Errorf("failed to mark alert %d triggered: %w", alertID, err)
	}
	return nil
}
