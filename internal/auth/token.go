package auth

import (
	"errors"
	"fmt"
	"time"
	"waste-dispatch-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "waste-dispatch"

// Claims carried by dispatch bearer tokens. The subject is the user login.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	Login string
	Role  domain.Role
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for login with the given role.
func (s *TokenService) Issue(login string, role domain.Role) (string, error) {
	if login == "" {
		return "", errors.New("issue token: empty login")
	}

	now := s.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the caller.
func (s *TokenService) Verify(token string) (Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Principal{}, fmt.Errorf("verify token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, errors.New("verify token: invalid claims")
	}
	if claims.Subject == "" {
		return Principal{}, errors.New("verify token: missing subject")
	}

	return Principal{Login: claims.Subject, Role: claims.Role}, nil
}
