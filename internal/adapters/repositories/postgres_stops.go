package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"waste-dispatch-service/internal/domain"
)

const stopColumns = `
	id, route_id, seq_no, garbage_point_id, address, time_from, time_to,
	expected_capacity, actual_capacity, status, note`

func scanStop(row rowScanner) (domain.Stop, error) {
	var s domain.Stop
	err := row.Scan(
		&s.ID, &s.RouteID, &s.SeqNo, &s.PointID, &s.Address, &s.TimeFrom, &s.TimeTo,
		&s.ExpectedCapacity, &s.ActualCapacity, &s.Status, &s.Note,
	)
	return s, err
}

type pgStops struct{ tx *sql.Tx }

func (r *pgStops) CreateMany(ctx context.Context, stops []*domain.Stop) error {
	query := `
	INSERT INTO route_stops (route_id, seq_no, garbage_point_id, address, time_from, time_to,
		expected_capacity, actual_capacity, status, note)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id;
	`
	stmt, err := r.tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("create stops: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stops {
		err := stmt.QueryRowContext(ctx,
			s.RouteID, s.SeqNo, s.PointID, s.Address, s.TimeFrom, s.TimeTo,
			s.ExpectedCapacity, s.ActualCapacity, string(s.Status), s.Note,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("create stops: insert seq_no=%d: %w", s.SeqNo, mapPgError(err))
		}
	}
	return nil
}

func (r *pgStops) Get(ctx context.Context, id int64) (domain.Stop, error) {
	query := `SELECT` + stopColumns + ` FROM route_stops WHERE id = $1;`
	s, err := scanStop(r.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Stop{}, domain.NotFound("stop", id)
	}
	if err != nil {
		return domain.Stop{}, fmt.Errorf("get stop %d: %w", id, err)
	}
	return s, nil
}

func (r *pgStops) ListForRoute(ctx context.Context, routeID int64) ([]domain.Stop, error) {
	query := `SELECT` + stopColumns + ` FROM route_stops WHERE route_id = $1 ORDER BY seq_no;`
	rows, err := r.tx.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("list stops: query route_stops: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 16)
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("list stops: scan row: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: row iteration: %w", err)
	}
	return stops, nil
}

func (r *pgStops) Update(ctx context.Context, s domain.Stop) error {
	query := `
	UPDATE route_stops SET
		seq_no = $2,
		garbage_point_id = $3,
		address = $4,
		time_from = $5,
		time_to = $6,
		expected_capacity = $7,
		actual_capacity = $8,
		status = $9,
		note = $10
	WHERE id = $1;
	`
	res, err := r.tx.ExecContext(ctx, query,
		s.ID, s.SeqNo, s.PointID, s.Address, s.TimeFrom, s.TimeTo,
		s.ExpectedCapacity, s.ActualCapacity, string(s.Status), s.Note,
	)
	if err != nil {
		return fmt.Errorf("update stop %d: %w", s.ID, mapPgError(err))
	}
	return expectOne(res, "stop", s.ID)
}

func (r *pgStops) Delete(ctx context.Context, id int64) error {
	res, err := r.tx.ExecContext(ctx, `DELETE FROM route_stops WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete stop %d: %w", id, mapPgError(err))
	}
	return expectOne(res, "stop", id)
}

type pgStopEvents struct{ tx *sql.Tx }

func (r *pgStopEvents) Append(ctx context.Context, e *domain.StopEvent) error {
	query := `
	INSERT INTO stop_events (route_stop_id, event_type, created_at, photo_url, comment)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;
	`
	err := r.tx.QueryRowContext(ctx, query, e.StopID, string(e.Type), e.CreatedAt, e.PhotoURL, e.Comment).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("append stop event: %w", mapPgError(err))
	}
	return nil
}

func (r *pgStopEvents) ListForStop(ctx context.Context, stopID int64) ([]domain.StopEvent, error) {
	query := `
	SELECT id, route_stop_id, event_type, created_at, photo_url, comment
	FROM stop_events
	WHERE route_stop_id = $1
	ORDER BY created_at, id;
	`
	rows, err := r.tx.QueryContext(ctx, query, stopID)
	if err != nil {
		return nil, fmt.Errorf("list stop events: query stop_events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.StopEvent, 0, 8)
	for rows.Next() {
		var e domain.StopEvent
		if err := rows.Scan(&e.ID, &e.StopID, &e.Type, &e.CreatedAt, &e.PhotoURL, &e.Comment); err != nil {
			return nil, fmt.Errorf("list stop events: scan row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stop events: row iteration: %w", err)
	}
	return events, nil
}
