package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the shortest HS512 key accepted, in bytes.
const MinSecretLen = 64

var (
	ErrInvalidSigningMethod = errors.New("jwt: unexpected signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 key must be at least 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

// Subject identifies whom a token is issued to.
type Subject struct {
	ID      int64
	Variant string // "user" or "admin"
	Role    int    // zero for users
}

// JWT issues and checks session tokens.
type JWT interface {
	Generate(sub Subject) (string, error)
	Verify(token string) (Claims, error)
}

type (
	clocker   interface{ Now() time.Time }
	generator interface{ Generate() string }
)

// Config holds the signer settings. Clock also drives expiry checks in Verify.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	UUID      generator
}

// Claims are the registered claims plus the principal they were issued for.
type Claims struct {
	jwt.RegisteredClaims

	PrincipalID int64  `json:"principal_id,string"`
	Variant     string `json:"variant"`
	Role        int    `json:"role,omitempty"`
}

// Principal returns the subject the claims were issued for.
func (c Claims) Principal() Subject {
	return Subject{ID: c.PrincipalID, Variant: c.Variant, Role: c.Role}
}

type authKey struct{}

// SetAuth stores verified claims in ctx.
func SetAuth(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, authKey{}, c)
}

// GetAuth returns the claims stored by SetAuth, or nil.
func GetAuth(ctx context.Context) *Claims {
	if c, ok := ctx.Value(authKey{}).(Claims); ok {
		return &c
	}
	return nil
}
