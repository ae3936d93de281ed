package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/hoteldesk/internal/client/storage"
	"github.com/iudanet/hoteldesk/internal/client/storage/memory"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestSession_Inspect(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.Now().Add(5 * time.Minute).Truncate(time.Second)

	token := signedToken(t, jwt.MapClaims{
		"token_type": "access",
		"exp":        expiresAt.Unix(),
		"user_id":    42,
		"sub":        "30111222",
	})

	store := memory.New(map[string]string{
		storage.KeyAccess:  token,
		storage.KeyRefresh: "r",
		storage.KeyToken:   "legacy",
	})
	s := NewSession(ctx, nil, store, nil, nil)

	info, err := s.Inspect(ctx)
	require.NoError(t, err)

	assert.False(t, info.Opaque)
	assert.False(t, info.Persistent)
	assert.True(t, info.Refresh)
	assert.Equal(t, "42", info.UserID)
	assert.Equal(t, "30111222", info.Subject)
	assert.True(t, info.ExpiresAt.Equal(expiresAt))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(expiresAt.Add(time.Second)))
}

func TestSession_InspectOpaqueLegacyToken(t *testing.T) {
	ctx := context.Background()
	store := memory.New(map[string]string{storage.KeyToken: "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"})
	s := NewSession(ctx, nil, store, nil, nil)

	info, err := s.Inspect(ctx)
	require.NoError(t, err)

	assert.True(t, info.Opaque)
	assert.True(t, info.Persistent)
	assert.False(t, info.Refresh)
	assert.True(t, info.ExpiresAt.IsZero())
	assert.False(t, info.Expired(time.Now()))
}

func TestSession_InspectNoToken(t *testing.T) {
	ctx := context.Background()
	s := NewSession(ctx, nil, memory.New(nil), nil, nil)

	_, err := s.Inspect(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestParseAccessClaims_ExpiredTokenStillParsed(t *testing.T) {
	token := signedToken(t, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		Subject:   "s",
	})

	claims, err := ParseAccessClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "s", claims.Subject)
	assert.True(t, claims.ExpiresAt.Before(time.Now()))
}
