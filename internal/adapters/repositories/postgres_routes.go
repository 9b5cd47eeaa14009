package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
)

const routeColumns = `
	id, planned_date, status, driver_id, vehicle_id, shift_id,
	planned_start_at, planned_end_at, started_at, finished_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (domain.Route, error) {
	var r domain.Route
	err := row.Scan(
		&r.ID, &r.PlannedDate, &r.Status, &r.DriverID, &r.VehicleID, &r.ShiftID,
		&r.PlannedStartAt, &r.PlannedEndAt, &r.StartedAt, &r.FinishedAt, &r.CreatedAt,
	)
	return r, err
}

type pgRoutes struct{ tx *sql.Tx }

func (s *pgRoutes) Create(ctx context.Context, r *domain.Route) error {
	query := `
	INSERT INTO routes (planned_date, status, driver_id, vehicle_id, shift_id,
		planned_start_at, planned_end_at, started_at, finished_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id;
	`
	err := s.tx.QueryRowContext(ctx, query,
		r.PlannedDate, string(r.Status), r.DriverID, r.VehicleID, r.ShiftID,
		r.PlannedStartAt, r.PlannedEndAt, r.StartedAt, r.FinishedAt, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("create route: %w", mapPgError(err))
	}
	return nil
}

func (s *pgRoutes) get(ctx context.Context, id int64, suffix string) (domain.Route, error) {
	query := `SELECT` + routeColumns + ` FROM routes WHERE id = $1` + suffix + `;`
	r, err := scanRoute(s.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, domain.NotFound("route", id)
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route %d: %w", id, err)
	}
	return r, nil
}

func (s *pgRoutes) Get(ctx context.Context, id int64) (domain.Route, error) {
	return s.get(ctx, id, "")
}

func (s *pgRoutes) GetForUpdate(ctx context.Context, id int64) (domain.Route, error) {
	return s.get(ctx, id, " FOR UPDATE")
}

func (s *pgRoutes) Update(ctx context.Context, r domain.Route) error {
	query := `
	UPDATE routes SET
		status = $2,
		driver_id = $3,
		vehicle_id = $4,
		shift_id = $5,
		planned_start_at = $6,
		planned_end_at = $7,
		started_at = $8,
		finished_at = $9,
		planned_date = $10
	WHERE id = $1;
	`
	res, err := s.tx.ExecContext(ctx, query,
		r.ID, string(r.Status), r.DriverID, r.VehicleID, r.ShiftID,
		r.PlannedStartAt, r.PlannedEndAt, r.StartedAt, r.FinishedAt, r.PlannedDate,
	)
	if err != nil {
		return fmt.Errorf("update route %d: %w", r.ID, mapPgError(err))
	}
	return expectOne(res, "route", r.ID)
}

func (s *pgRoutes) Delete(ctx context.Context, id int64) error {
	res, err := s.tx.ExecContext(ctx, `DELETE FROM routes WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete route %d: %w", id, mapPgError(err))
	}
	return expectOne(res, "route", id)
}

func (s *pgRoutes) List(ctx context.Context, f ports.RouteFilter) ([]domain.Route, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.DriverID != nil {
		args = append(args, *f.DriverID)
		where = append(where, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if f.PlannedDate != nil {
		args = append(args, f.PlannedDate.Format("2006-01-02"))
		where = append(where, fmt.Sprintf("planned_date = $%d::date", len(args)))
	}

	query := `SELECT` + routeColumns + ` FROM routes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY planned_date DESC, id;`

	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.Route, 0, 16)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}
	return routes, nil
}

func expectOne(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: rows affected: %w", entity, id, err)
	}
	if n == 0 {
		return domain.NotFound(entity, id)
	}
	return nil
}
