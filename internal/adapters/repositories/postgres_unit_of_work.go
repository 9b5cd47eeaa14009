package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL-backed implementation of the UnitOfWork port. Every repository
// handed to fn shares one *sql.Tx.
type PostgresUnitOfWork struct{ DB *sql.DB }

func NewPostgresUnitOfWork(db *sql.DB) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{DB: db}
}

func (u *PostgresUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	if u.DB == nil {
		return errors.New("postgres unit of work: DB is nil")
	}

	tx, err := u.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("postgres unit of work: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &pgRepos{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres unit of work: commit tx: %w", mapPgError(err))
	}
	return nil
}

type pgRepos struct{ tx *sql.Tx }

func (r *pgRepos) Ledger() ports.OrderLedger { return &pgLedger{r.tx} }
func (r *pgRepos) Points() ports.PointRepository { return &pgPoints{r.tx} }
func (r *pgRepos) Routes() ports.RouteRepository { return &pgRoutes{r.tx} }
func (r *pgRepos) Stops() ports.StopRepository { return &pgStops{r.tx} }
func (r *pgRepos) StopEvents() ports.StopEventRepository { return &pgStopEvents{r.tx} }
func (r *pgRepos) Shifts() ports.ShiftDirectory { return &pgShifts{r.tx} }
func (r *pgRepos) Users() ports.UserDirectory { return &pgUsers{r.tx} }
func (r *pgRepos) Incidents() ports.IncidentRepository { return &pgIncidents{r.tx} }

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Translate constraint violations into typed domain errors. Other errors pass
// through unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == "ux_driver_shifts_one_open" {
			return domain.ErrShiftAlreadyOpen
		}
		return &domain.Error{Kind: domain.ErrConflict, Code: "duplicate", Message: pgErr.Detail}
	case pgForeignKeyViolation:
		return &domain.Error{Kind: domain.ErrNotFound, Code: "reference_not_found", Message: pgErr.Detail}
	case pgCheckViolation:
		return &domain.Error{Kind: domain.ErrBadRequest, Code: "constraint_violation", Message: pgErr.ConstraintName}
	}
	return err
}
