package adapters

import (
	"context"
	"fmt"

	"geofence-tracker/internal/features/geofence/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the part of *pgxpool.Pool the sink needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const createAnalyticsTable = `
CREATE TABLE IF NOT EXISTS session_analytics (
	session_id        TEXT PRIMARY KEY,
	booking_id        TEXT NOT NULL,
	kind              TEXT NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL,
	ended_at          TIMESTAMPTZ NOT NULL,
	duration_s        DOUBLE PRECISION NOT NULL,
	total_distance_m  DOUBLE PRECISION NOT NULL,
	average_speed_mps DOUBLE PRECISION NOT NULL,
	route_efficiency  DOUBLE PRECISION NOT NULL,
	update_count      INTEGER NOT NULL,
	final_status      TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertAnalytics = `
INSERT INTO session_analytics (
	session_id, booking_id, kind, started_at, ended_at, duration_s,
	total_distance_m, average_speed_mps, route_efficiency, update_count, final_status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (session_id) DO NOTHING`

// PostgresAnalyticsSink stores analytics records in Postgres.
type PostgresAnalyticsSink struct {
	db Execer
}

// NewPostgresAnalyticsSink creates a PostgresAnalyticsSink.
func NewPostgresAnalyticsSink(db Execer) *PostgresAnalyticsSink {
	return &PostgresAnalyticsSink{db: db}
}

// EnsureSchema creates the analytics table if it does not exist.
func (p *PostgresAnalyticsSink) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createAnalyticsTable); err != nil {
		return fmt.Errorf("creating session_analytics table: %w", err)
	}
	return nil
}

// Record inserts one record. Recording the same session twice is a no-op.
func (p *PostgresAnalyticsSink) Record(ctx context.Context, rec domain.AnalyticsRecord) error {
	_, err := p.db.Exec(ctx, insertAnalytics,
		rec.SessionID, rec.BookingID, string(rec.Kind), rec.StartedAt, rec.EndedAt, rec.DurationSeconds,
		rec.TotalDistanceM, rec.AverageSpeedMps, rec.RouteEfficiency, rec.UpdateCount, string(rec.FinalStatus),
	)
	if err != nil {
		return fmt.Errorf("inserting analytics for session %s: %w", rec.SessionID, err)
	}
	return nil
}
