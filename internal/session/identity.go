package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var nameClaims = []string{"username", "preferred_username", "name", "email", "sub"}

// Identity is what the dashboard shows about the signed-in user.
type Identity struct {
	Name      string
	ExpiresAt time.Time
}

// ParseIdentity reads claims from a JWT access token without verifying it.
// The signature is the server's concern; opaque tokens yield an empty Identity.
func ParseIdentity(token string) Identity {
	if token == "" {
		return Identity{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}
	}
	var id Identity
	for _, key := range nameClaims {
		if v, ok := claims[key].(string); ok && v != "" {
			id.Name = v
			break
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id
}

// DisplayName returns the name or fallback when the token carries none.
func (id Identity) DisplayName(fallback string) string {
	if id.Name == "" {
		return fallback
	}
	return id.Name
}

// Expired reports whether the token's exp claim is in the past.
func (id Identity) Expired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}
