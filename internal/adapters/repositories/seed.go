package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"waste-dispatch-service/internal/adapters/fixtures"
)

// Upsert fixtures into the database. Existing rows with the same id are
// overwritten, except for the point lock which is left as is.
func Seed(ctx context.Context, db *sql.DB, f *fixtures.Fixtures, now time.Time) error {
	if db == nil {
		return errors.New("seed: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range f.Users {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, login, name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET login = EXCLUDED.login, name = EXCLUDED.name, role = EXCLUDED.role;
		`, u.ID, u.Login, u.Name, string(u.Role))
		if err != nil {
			return fmt.Errorf("seed: insert user id=%d: %w", u.ID, err)
		}
	}

	for _, v := range f.Vehicles {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO vehicles (id, plate_number, capacity)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET plate_number = EXCLUDED.plate_number, capacity = EXCLUDED.capacity;
		`, v.ID, v.PlateNumber, v.Capacity)
		if err != nil {
			return fmt.Errorf("seed: insert vehicle id=%d: %w", v.ID, err)
		}
	}

	for _, cs := range f.ContainerSizes {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO container_sizes (id, code, capacity)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, capacity = EXCLUDED.capacity;
		`, cs.ID, cs.Code, cs.Capacity)
		if err != nil {
			return fmt.Errorf("seed: insert container size id=%d: %w", cs.ID, err)
		}
	}

	for _, p := range f.DomainPoints() {
		var lon, lat *float64
		if p.Location != nil {
			lon, lat = &p.Location.Lon, &p.Location.Lat
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO garbage_points (id, address, lon, lat, capacity, kiosk_id, admin_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			address = EXCLUDED.address,
			lon = EXCLUDED.lon,
			lat = EXCLUDED.lat,
			capacity = EXCLUDED.capacity,
			kiosk_id = EXCLUDED.kiosk_id,
			admin_id = EXCLUDED.admin_id;
		`, p.ID, p.Address, lon, lat, p.Capacity, p.KioskID, p.AdminID)
		if err != nil {
			return fmt.Errorf("seed: insert point id=%d: %w", p.ID, err)
		}
	}

	for _, o := range f.Orders {
		created := now
		if o.CreatedAt != nil {
			created = *o.CreatedAt
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO kiosk_orders (id, garbage_point_id, container_size_id, weight, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			garbage_point_id = EXCLUDED.garbage_point_id,
			container_size_id = EXCLUDED.container_size_id,
			weight = EXCLUDED.weight,
			status = EXCLUDED.status;
		`, o.ID, o.PointID, o.ContainerSizeID, o.Weight, string(o.Status), created)
		if err != nil {
			return fmt.Errorf("seed: insert order id=%d: %w", o.ID, err)
		}
	}

	// Explicit ids leave the sequences behind.
	for _, table := range []string{"users", "vehicles", "container_sizes", "garbage_points", "kiosk_orders"} {
		q := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1));`, table, table)
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("seed: reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}
