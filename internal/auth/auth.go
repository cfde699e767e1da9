package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of roles a bearer token may claim.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleForeman Role = "foreman"
	RoleUser    Role = "user"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleForeman, RoleUser:
		return Role(s), true
	}
	return "", false
}

// TokenPayload is the verified content of a bearer token.
type TokenPayload struct {
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	UCFSIN    string    `json:"ucfsin,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"-"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	UCFSIN string `json:"ucfsin,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier turns a raw bearer token into a payload, or nil when the
// token cannot be trusted for any reason.
type TokenVerifier interface {
	Verify(token string) *TokenPayload
}

// TokenIssuer mints signed bearer tokens.
type TokenIssuer interface {
	Issue(payload TokenPayload) (string, error)
}

type ctxKey string

const ContextPayloadKey ctxKey = "token_payload"

func PayloadFromContext(ctx context.Context) (*TokenPayload, bool) {
	p, ok := ctx.Value(ContextPayloadKey).(*TokenPayload)
	return p, ok && p != nil
}

func ContextWithPayload(ctx context.Context, p *TokenPayload) context.Context {
	return context.WithValue(ctx, ContextPayloadKey, p)
}
