package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Venues, courts, price rows, instructors and blocks are owned by other
// services; the tables are created here so a fresh database is usable.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS courts (
		id BIGSERIAL PRIMARY KEY,
		venue_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS instructors (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS court_price_rows (
		id BIGSERIAL PRIMARY KEY,
		court_id BIGINT NOT NULL REFERENCES courts(id),
		normal_rate_cents BIGINT NOT NULL,
		lesson_rate_cents BIGINT,
		start_minute INT NOT NULL CHECK (start_minute >= 0 AND start_minute < 1440),
		end_minute INT NOT NULL CHECK (end_minute > 0 AND end_minute <= 1440),
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_blocks (
		id BIGSERIAL PRIMARY KEY,
		venue_id BIGINT NOT NULL,
		court_ids BIGINT[] NOT NULL DEFAULT '{}',
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		start_minute INT,
		end_minute INT,
		title TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGSERIAL PRIMARY KEY,
		court_id BIGINT NOT NULL REFERENCES courts(id),
		athlete_id BIGINT,
		customer_name TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		start_at TIMESTAMPTZ NOT NULL,
		duration_minutes INT NOT NULL CHECK (duration_minutes > 0),
		status TEXT NOT NULL,
		hourly_rate_cents BIGINT,
		computed_total_cents BIGINT,
		negotiated_total_cents BIGINT,
		notes TEXT NOT NULL DEFAULT '',
		is_lesson BOOLEAN NOT NULL DEFAULT FALSE,
		instructor_id BIGINT REFERENCES instructors(id),
		series_id UUID,
		recurrence JSONB,
		participants JSONB NOT NULL DEFAULT '[]',
		created_by BIGINT NOT NULL,
		updated_by BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_court_start ON bookings(court_id, start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_series_start ON bookings(series_id, start_at) WHERE series_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status_start ON bookings(status, start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_price_rows_court ON court_price_rows(court_id) WHERE active`,
	`CREATE INDEX IF NOT EXISTS idx_blocks_venue_dates ON schedule_blocks(venue_id, start_date, end_date) WHERE active`,
}

// Migrate creates missing tables and indexes.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
