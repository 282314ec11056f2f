// Copyright 2025 Certen Protocol

package blob

import (
	"context"
	"io"
	"testing"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePersistAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	staged, err := store.Stage(ctx)
	require.NoError(t, err)
	_, err = staged.Write([]byte("hello kepler"))
	require.NoError(t, err)

	hash, err := store.Persist(ctx, staged)
	require.NoError(t, err)
	assert.Equal(t, khash.Sum([]byte("hello kepler")), hash)

	ok, err := store.Contains(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	r, n, ok, err := store.Read(ctx, hash)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(len("hello kepler")), n)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello kepler", string(b))

	require.NoError(t, store.Remove(ctx, hash))
	ok, err = store.Contains(ctx, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistKeyedRejectsMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	staged, err := store.Stage(ctx)
	require.NoError(t, err)
	_, err = staged.Write([]byte("payload"))
	require.NoError(t, err)

	err = store.PersistKeyed(ctx, staged, khash.Sum([]byte("not the payload")))
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestPersistKeyedAcceptsMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	staged, err := store.Stage(ctx)
	require.NoError(t, err)
	_, err = staged.Write([]byte("payload"))
	require.NoError(t, err)

	expected := khash.Sum([]byte("payload"))
	require.NoError(t, store.PersistKeyed(ctx, staged, expected))
	ok, err := store.Contains(ctx, expected)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCometDBStorePersistAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewCometDBStore(dbm.NewMemDB())

	staged, err := store.Stage(ctx)
	require.NoError(t, err)
	_, err = staged.Write([]byte("hello cometdb"))
	require.NoError(t, err)

	hash, err := store.Persist(ctx, staged)
	require.NoError(t, err)
	assert.Equal(t, khash.Sum([]byte("hello cometdb")), hash)

	ok, err := store.Contains(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	r, n, ok, err := store.Read(ctx, hash)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(len("hello cometdb")), n)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello cometdb", string(b))

	require.NoError(t, store.Remove(ctx, hash))
	ok, err = store.Contains(ctx, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEitherFallsBackToSecondary(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	secondary := NewMemoryStore()

	staged, err := secondary.Stage(ctx)
	require.NoError(t, err)
	_, err = staged.Write([]byte("in secondary only"))
	require.NoError(t, err)
	hash, err := secondary.Persist(ctx, staged)
	require.NoError(t, err)

	combined := Either(primary, secondary)
	ok, err := combined.Contains(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	r, _, ok, err := combined.Read(ctx, hash)
	require.NoError(t, err)
	require.True(t, ok)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "in secondary only", string(b))
}
