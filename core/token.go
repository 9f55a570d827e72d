package core

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is the decoded subset of a JWT that the invalidation registries key on.
type Token struct {
	jwt.RegisteredClaims
}

// InvalidationKey returns the registry key for the token: "<aud>:<jti>".
func (t Token) InvalidationKey() (string, error) {
	var aud string
	if len(t.Audience) > 0 {
		aud = t.Audience[0]
	}
	if t.ID == "" && aud == "" {
		return "", ErrInvalidToken
	}
	return aud + ":" + t.ID, nil
}

// TTL returns the remaining validity window of the token at now, truncated to
// whole seconds. A token without an expiry, or an expired one, yields zero.
func (t Token) TTL(now time.Time) time.Duration {
	if t.ExpiresAt == nil {
		return 0
	}
	ttl := t.ExpiresAt.Sub(now).Truncate(time.Second)
	if ttl < 0 {
		return 0
	}
	return ttl
}
