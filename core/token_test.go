package core

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_InvalidationKey(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.RegisteredClaims
		want    string
		wantErr error
	}{
		{
			name:   "audience and id",
			claims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{"foo-bar", "other"}, ID: "abc"},
			want:   "foo-bar:abc",
		},
		{
			name:   "id only",
			claims: jwt.RegisteredClaims{ID: "abc"},
			want:   ":abc",
		},
		{
			name:   "audience only",
			claims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{"foo-bar"}},
			want:   "foo-bar:",
		},
		{
			name:    "neither",
			claims:  jwt.RegisteredClaims{},
			wantErr: ErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Token{RegisteredClaims: tt.claims}.InvalidationKey()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestToken_TTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tok := Token{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(3600 * time.Second))}}
	assert.Equal(t, time.Hour, tok.TTL(now))
	assert.Equal(t, 3599*time.Second, tok.TTL(now.Add(500*time.Millisecond)))
	assert.Zero(t, tok.TTL(now.Add(2*time.Hour)))

	assert.Zero(t, Token{}.TTL(now))
}
