// internal/pkg/auth/auth.go
package auth

import (
	"fmt"
	"time"

	xerrors "carlog-service/internal/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Manager issues and verifies the HMAC bearer tokens guarding the mutating
// command routes. An empty secret disables auth entirely (single-user local
// deployments).
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
	}
}

// Enabled reports whether tokens are required.
func (m *Manager) Enabled() bool {
	return len(m.secret) > 0
}

// Generate mints a token for the given subject.
func (m *Manager) Generate(subject string) (string, error) {
	if !m.Enabled() {
		return "", fmt.Errorf("auth is disabled: no secret configured")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a token, returning its subject.
func (m *Manager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", xerrors.Wrap(xerrors.ErrUnauthorized, "invalid token claims")
	}
	return claims.Subject, nil
}
