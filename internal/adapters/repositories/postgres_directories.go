package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"waste-dispatch-service/internal/domain"
)

type pgShifts struct{ tx *sql.Tx }

func (r *pgShifts) FindOpenShift(ctx context.Context, driverID int64) (domain.Shift, bool, error) {
	query := `
	SELECT id, driver_id, vehicle_id, opened_at, closed_at, status
	FROM driver_shifts
	WHERE driver_id = $1 AND status = 'open'
	FOR UPDATE;
	`
	var s domain.Shift
	err := r.tx.QueryRowContext(ctx, query, driverID).Scan(&s.ID, &s.DriverID, &s.VehicleID, &s.OpenedAt, &s.ClosedAt, &s.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shift{}, false, nil
	}
	if err != nil {
		return domain.Shift{}, false, fmt.Errorf("find open shift for driver %d: %w", driverID, err)
	}
	return s, true, nil
}

func (r *pgShifts) Create(ctx context.Context, s *domain.Shift) error {
	query := `
	INSERT INTO driver_shifts (driver_id, vehicle_id, opened_at, closed_at, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;
	`
	err := r.tx.QueryRowContext(ctx, query, s.DriverID, s.VehicleID, s.OpenedAt, s.ClosedAt, string(s.Status)).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create shift: %w", mapPgError(err))
	}
	return nil
}

func (r *pgShifts) Update(ctx context.Context, s domain.Shift) error {
	res, err := r.tx.ExecContext(ctx,
		`UPDATE driver_shifts SET vehicle_id = $2, closed_at = $3, status = $4 WHERE id = $1;`,
		s.ID, s.VehicleID, s.ClosedAt, string(s.Status))
	if err != nil {
		return fmt.Errorf("update shift %d: %w", s.ID, mapPgError(err))
	}
	return expectOne(res, "shift", s.ID)
}

type pgUsers struct{ tx *sql.Tx }

func (r *pgUsers) find(ctx context.Context, where string, arg any) (domain.User, error) {
	var u domain.User
	query := `SELECT id, login, name, role FROM users WHERE ` + where + ` = $1;`
	err := r.tx.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Login, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NotFound("user", arg)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user by %s: %w", where, err)
	}
	return u, nil
}

func (r *pgUsers) FindByLogin(ctx context.Context, login string) (domain.User, error) {
	return r.find(ctx, "login", login)
}

func (r *pgUsers) FindByID(ctx context.Context, id int64) (domain.User, error) {
	return r.find(ctx, "id", id)
}

type pgIncidents struct{ tx *sql.Tx }

const incidentColumns = `
	id, route_stop_id, type, description, photo_url, created_by,
	created_at, updated_at, resolved, resolved_at`

func scanIncident(row rowScanner) (domain.Incident, error) {
	var i domain.Incident
	err := row.Scan(&i.ID, &i.StopID, &i.Type, &i.Description, &i.PhotoURL, &i.CreatedBy,
		&i.CreatedAt, &i.UpdatedAt, &i.Resolved, &i.ResolvedAt)
	return i, err
}

func (r *pgIncidents) Create(ctx context.Context, i *domain.Incident) error {
	query := `
	INSERT INTO incidents (route_stop_id, type, description, photo_url, created_by,
		created_at, updated_at, resolved, resolved_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id;
	`
	err := r.tx.QueryRowContext(ctx, query, i.StopID, string(i.Type), i.Description, i.PhotoURL, i.CreatedBy,
		i.CreatedAt, i.UpdatedAt, i.Resolved, i.ResolvedAt).Scan(&i.ID)
	if err != nil {
		return fmt.Errorf("create incident: %w", mapPgError(err))
	}
	return nil
}

func (r *pgIncidents) Get(ctx context.Context, id int64) (domain.Incident, error) {
	query := `SELECT` + incidentColumns + ` FROM incidents WHERE id = $1 FOR UPDATE;`
	i, err := scanIncident(r.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Incident{}, domain.NotFound("incident", id)
	}
	if err != nil {
		return domain.Incident{}, fmt.Errorf("get incident %d: %w", id, err)
	}
	return i, nil
}

func (r *pgIncidents) Update(ctx context.Context, i domain.Incident) error {
	res, err := r.tx.ExecContext(ctx, `
	UPDATE incidents SET description = $2, photo_url = $3, updated_at = $4, resolved = $5, resolved_at = $6
	WHERE id = $1;
	`, i.ID, i.Description, i.PhotoURL, i.UpdatedAt, i.Resolved, i.ResolvedAt)
	if err != nil {
		return fmt.Errorf("update incident %d: %w", i.ID, mapPgError(err))
	}
	return expectOne(res, "incident", i.ID)
}

func (r *pgIncidents) List(ctx context.Context, unresolvedOnly bool) ([]domain.Incident, error) {
	query := `SELECT` + incidentColumns + ` FROM incidents`
	if unresolvedOnly {
		query += ` WHERE resolved = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC;`

	rows, err := r.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list incidents: query incidents table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Incident, 0, 16)
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("list incidents: scan row: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incidents: row iteration: %w", err)
	}
	return out, nil
}
