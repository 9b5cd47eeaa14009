package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"waste-dispatch-service/internal/auth"
	"waste-dispatch-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "dispatchctl-test-secret"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE", "memory")
	t.Setenv("JWT_SECRET", testSecret)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := execute(t, "token", "--login", "ivanov", "--role", "driver")
	require.NoError(t, err)

	p, err := auth.NewTokenService(testSecret, time.Hour).Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ivanov", p.Login)
	assert.Equal(t, domain.RoleDriver, p.Role)
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	_, err := execute(t, "token", "--login", "ivanov", "--role", "root")
	assert.ErrorContains(t, err, "unknown role")
}

func TestGenerateRejectsBadDate(t *testing.T) {
	_, err := execute(t, "generate", "--date", "tomorrow")
	assert.ErrorContains(t, err, "--date must be YYYY-MM-DD")
}

func TestDatabaseCommandsNeedPostgres(t *testing.T) {
	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "DATABASE_URL is required")
}
