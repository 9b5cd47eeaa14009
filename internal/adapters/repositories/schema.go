package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		login TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('admin', 'driver', 'kiosk'))
	);`,

	`CREATE TABLE IF NOT EXISTS vehicles (
		id BIGSERIAL PRIMARY KEY,
		plate_number TEXT NOT NULL UNIQUE,
		capacity INTEGER NOT NULL DEFAULT 0
	);`,

	`CREATE TABLE IF NOT EXISTS container_sizes (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		capacity INTEGER NOT NULL CHECK (capacity > 0)
	);`,

	`CREATE TABLE IF NOT EXISTS garbage_points (
		id BIGSERIAL PRIMARY KEY,
		address TEXT NOT NULL,
		lon DOUBLE PRECISION,
		lat DOUBLE PRECISION,
		capacity INTEGER NOT NULL DEFAULT 0,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		kiosk_id BIGINT REFERENCES users(id),
		admin_id BIGINT REFERENCES users(id)
	);`,

	`CREATE TABLE IF NOT EXISTS kiosk_orders (
		id BIGSERIAL PRIMARY KEY,
		garbage_point_id BIGINT NOT NULL REFERENCES garbage_points(id),
		container_size_id BIGINT NOT NULL REFERENCES container_sizes(id),
		weight DOUBLE PRECISION,
		status TEXT NOT NULL DEFAULT 'confirmed',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	`CREATE TABLE IF NOT EXISTS driver_shifts (
		id BIGSERIAL PRIMARY KEY,
		driver_id BIGINT NOT NULL REFERENCES users(id),
		vehicle_id BIGINT REFERENCES vehicles(id),
		opened_at TIMESTAMPTZ NOT NULL,
		closed_at TIMESTAMPTZ,
		status TEXT NOT NULL CHECK (status IN ('open', 'closed'))
	);`,

	`CREATE TABLE IF NOT EXISTS routes (
		id BIGSERIAL PRIMARY KEY,
		planned_date DATE NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('planned', 'in_progress', 'completed', 'cancelled')),
		driver_id BIGINT REFERENCES users(id),
		vehicle_id BIGINT REFERENCES vehicles(id),
		shift_id BIGINT REFERENCES driver_shifts(id),
		planned_start_at TIMESTAMPTZ,
		planned_end_at TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	`CREATE TABLE IF NOT EXISTS route_stops (
		id BIGSERIAL PRIMARY KEY,
		route_id BIGINT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		seq_no INTEGER NOT NULL CHECK (seq_no > 0),
		garbage_point_id BIGINT REFERENCES garbage_points(id),
		address TEXT,
		time_from TIMESTAMPTZ,
		time_to TIMESTAMPTZ,
		expected_capacity INTEGER,
		actual_capacity INTEGER,
		status TEXT NOT NULL,
		note TEXT,
		UNIQUE (route_id, seq_no) DEFERRABLE INITIALLY IMMEDIATE,
		CHECK ((garbage_point_id IS NULL) <> (address IS NULL))
	);`,

	`CREATE TABLE IF NOT EXISTS stop_events (
		id BIGSERIAL PRIMARY KEY,
		route_stop_id BIGINT NOT NULL REFERENCES route_stops(id) ON DELETE CASCADE,
		event_type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		photo_url TEXT,
		comment TEXT
	);`,

	`CREATE TABLE IF NOT EXISTS incidents (
		id BIGSERIAL PRIMARY KEY,
		route_stop_id BIGINT NOT NULL REFERENCES route_stops(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		description TEXT,
		photo_url TEXT,
		created_by BIGINT REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at TIMESTAMPTZ
	);`,

	`CREATE UNIQUE INDEX IF NOT EXISTS ux_driver_shifts_one_open
	ON driver_shifts(driver_id) WHERE status = 'open';`,

	`CREATE INDEX IF NOT EXISTS idx_kiosk_orders_point_status
	ON kiosk_orders(garbage_point_id, status);`,

	`CREATE INDEX IF NOT EXISTS idx_routes_driver_status
	ON routes(driver_id, status);`,

	`CREATE INDEX IF NOT EXISTS idx_stop_events_stop
	ON stop_events(route_stop_id, created_at);`,
}

// Create the dispatch schema. Safe to run repeatedly.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
