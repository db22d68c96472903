// Package auth verifies the bearer tokens issued by the identity provider.
package auth

import (
	"time"

	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the token claims this service cares about.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTManager verifies HS256 bearer tokens.
type JWTManager struct {
	secret []byte
}

// NewJWTManager creates a JWTManager with the given signing secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secret: []byte(secret)}
}

// Verify parses and validates a token string, returning its claims.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("unexpected token signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "missing or invalid authorization token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, apperr.Unauthorized("missing or invalid authorization token")
	}
	return claims, nil
}

// Generate issues a token for the given user. Used by tests and tooling;
// production tokens come from the identity provider sharing the secret.
func (m *JWTManager) Generate(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
