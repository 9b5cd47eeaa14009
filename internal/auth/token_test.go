package auth

import (
	"testing"
	"time"
	"waste-dispatch-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService(secret, time.Hour)

	token, err := svc.Issue("ivanov", domain.RoleDriver)
	require.NoError(t, err)

	p, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{Login: "ivanov", Role: domain.RoleDriver}, p)
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewTokenService(secret, time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.Issue("ivanov", domain.RoleDriver)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	svc := NewTokenService(secret, time.Hour)

	other := NewTokenService("another-secret-of-sufficient-len", time.Hour)
	token, err := other.Issue("ivanov", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: domain.RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(none)
	assert.Error(t, err)

	_, err = svc.Verify("not-a-token")
	assert.Error(t, err)

	_, err = svc.Issue("", domain.RoleAdmin)
	assert.Error(t, err)
}
