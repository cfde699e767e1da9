package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrEmptySecret = errors.New("jwt secret is empty")

type JWTTokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTTokenManager creates an HS256 token manager.
func NewJWTTokenManager(secret string, ttl time.Duration, issuer string) *JWTTokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTTokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (m *JWTTokenManager) WithClock(now func() time.Time) *JWTTokenManager {
	m.now = now
	return m
}

// Issue signs payload. A zero ExpiresAt gets the manager's default TTL.
func (m *JWTTokenManager) Issue(p TokenPayload) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrEmptySecret
	}

	issuedAt := m.now()
	expiresAt := p.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = issuedAt.Add(m.ttl)
	}

	claims := &Claims{
		UserID: p.UserID,
		Role:   p.Role,
		UCFSIN: p.UCFSIN,
		Email:  p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    m.issuer,
			Subject:   p.UserID,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify never returns an error: a bad signature, an expired or missing exp,
// a foreign algorithm, unknown role and plain garbage all yield nil.
func (m *JWTTokenManager) Verify(tokenString string) *TokenPayload {
	if tokenString == "" || len(m.secret) == 0 {
		return nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	role, ok := ParseRole(string(claims.Role))
	if !ok || claims.UserID == "" {
		return nil
	}

	return &TokenPayload{
		UserID:    claims.UserID,
		Role:      role,
		UCFSIN:    claims.UCFSIN,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}
