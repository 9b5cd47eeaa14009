package repositories

import (
	"errors"
	"fmt"
	"testing"
	"waste-dispatch-service/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"open shift", &pgconn.PgError{Code: "23505", ConstraintName: "ux_driver_shifts_one_open"}, domain.ErrShiftAlreadyOpen},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "users_login_key"}, domain.ErrConflict},
		{"foreign key", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), domain.ErrNotFound},
		{"check", &pgconn.PgError{Code: "23514"}, domain.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapPgError(tt.err), tt.want)
		})
	}

	plain := errors.New("connection reset")
	assert.Same(t, plain, mapPgError(plain))
}
