package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/hoteldesk/internal/client/storage"
	"github.com/iudanet/hoteldesk/internal/client/storage/memory"
)

func TestSealedStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(nil)

	sealed, err := OpenSealedStore(ctx, inner, "front-desk", nil)
	require.NoError(t, err)

	require.NoError(t, sealed.Set(ctx, storage.KeyAccess, "access-token"))

	value, ok := sealed.Get(ctx, storage.KeyAccess)
	require.True(t, ok)
	assert.Equal(t, "access-token", value)

	raw := inner.Snapshot()
	assert.NotEqual(t, "access-token", raw[storage.KeyAccess], "value must be encrypted at rest")
	assert.Contains(t, raw, KeyStoreSalt)
}

func TestSealedStore_ReopenWithSamePassphrase(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(nil)

	first, err := OpenSealedStore(ctx, inner, "front-desk", nil)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, storage.KeyRefresh, "refresh-token"))

	second, err := OpenSealedStore(ctx, inner, "front-desk", nil)
	require.NoError(t, err)

	value, ok := second.Get(ctx, storage.KeyRefresh)
	require.True(t, ok)
	assert.Equal(t, "refresh-token", value)
}

func TestSealedStore_WrongPassphraseReadsAbsent(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(nil)

	first, err := OpenSealedStore(ctx, inner, "front-desk", nil)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, storage.KeyAccess, "access-token"))

	other, err := OpenSealedStore(ctx, inner, "another", nil)
	require.NoError(t, err)

	_, ok := other.Get(ctx, storage.KeyAccess)
	assert.False(t, ok)
}

func TestSealedStore_ClearKeepsSalt(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(nil)

	sealed, err := OpenSealedStore(ctx, inner, "front-desk", nil)
	require.NoError(t, err)
	require.NoError(t, sealed.Set(ctx, storage.KeyAccess, "a"))
	require.NoError(t, sealed.Set(ctx, storage.KeyToken, "t"))

	require.NoError(t, sealed.Clear(ctx, storage.AllCredentialKeys...))

	_, ok := sealed.Get(ctx, storage.KeyAccess)
	assert.False(t, ok)
	assert.Len(t, inner.Snapshot(), 1)
}

func TestOpenSealedStore_CorruptedSalt(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(map[string]string{KeyStoreSalt: "not base64!"})

	_, err := OpenSealedStore(ctx, inner, "front-desk", nil)
	assert.Error(t, err)
}
