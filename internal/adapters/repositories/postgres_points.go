package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
)

type pgLedger struct{ tx *sql.Tx }

func (l *pgLedger) AggregateActiveByPoint(ctx context.Context) ([]ports.PointAggregate, error) {
	query := `
	SELECT
		ko.garbage_point_id,
		COALESCE(SUM(ko.weight) FILTER (WHERE ko.weight > 0), 0)::float8,
		COUNT(*),
		COUNT(*) FILTER (WHERE ko.weight > 0),
		COALESCE(SUM(cs.capacity), 0)::float8
	FROM kiosk_orders ko
	JOIN container_sizes cs ON cs.id = ko.container_size_id
	WHERE ko.status <> 'cancelled'
	GROUP BY ko.garbage_point_id
	ORDER BY ko.garbage_point_id;
	`
	rows, err := l.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: query kiosk_orders: %w", err)
	}
	defer rows.Close()

	out := make([]ports.PointAggregate, 0, 64)
	for rows.Next() {
		var a ports.PointAggregate
		if err := rows.Scan(&a.PointID, &a.TotalWeight, &a.ActiveOrderCount, &a.WeightedOrderCount, &a.TotalContainerCapacity); err != nil {
			return nil, fmt.Errorf("aggregate orders: scan row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate orders: row iteration: %w", err)
	}
	return out, nil
}

type pgPoints struct{ tx *sql.Tx }

func (p *pgPoints) FindForUpdate(ctx context.Context, ids []int64) (map[int64]domain.CollectionPoint, error) {
	out := make(map[int64]domain.CollectionPoint, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `
	SELECT id, address, lon, lat, capacity, locked, kiosk_id, admin_id
	FROM garbage_points
	WHERE id = ANY($1)
	ORDER BY id
	FOR UPDATE;
	`
	rows, err := p.tx.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find points: query garbage_points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cp       domain.CollectionPoint
			lon, lat *float64
		)
		if err := rows.Scan(&cp.ID, &cp.Address, &lon, &lat, &cp.Capacity, &cp.Locked, &cp.KioskID, &cp.AdminID); err != nil {
			return nil, fmt.Errorf("find points: scan row: %w", err)
		}
		if lon != nil && lat != nil {
			cp.Location = &domain.Coordinates{Lon: *lon, Lat: *lat}
		}
		out[cp.ID] = cp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find points: row iteration: %w", err)
	}
	return out, nil
}

func (p *pgPoints) Lock(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
	UPDATE garbage_points
	SET locked = TRUE
	WHERE id = ANY($1) AND locked = FALSE
	RETURNING id;
	`
	rows, err := p.tx.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lock points: %w", err)
	}
	defer rows.Close()

	flipped := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("lock points: scan id: %w", err)
		}
		flipped = append(flipped, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock points: row iteration: %w", err)
	}
	return flipped, nil
}

func (p *pgPoints) Unlock(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := p.tx.ExecContext(ctx, `UPDATE garbage_points SET locked = FALSE WHERE id = ANY($1);`, ids); err != nil {
		return fmt.Errorf("unlock points: %w", err)
	}
	return nil
}
