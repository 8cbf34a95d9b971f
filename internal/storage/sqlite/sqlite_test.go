package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumator/internal/storage"
)

func openTemp(t *testing.T) (*Backend, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "sumator.db")
	b, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b, _ := openTemp(t)
	ctx := context.Background()

	_, found, err := b.Load(ctx, storage.RecordsKey)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Save(ctx, storage.RecordsKey, []byte(`{"version":1}`)))
	blob, found, err := b.Load(ctx, storage.RecordsKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"version":1}`, string(blob))
}

func TestSaveOverwrites(t *testing.T) {
	b, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "k", []byte("one")))
	require.NoError(t, b.Save(ctx, "k", []byte("two")))
	require.NoError(t, b.Save(ctx, "other", []byte("x")))

	blob, _, err := b.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(blob))
}

func TestReopenKeepsData(t *testing.T) {
	b, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, b.Save(ctx, storage.IdentityKey, []byte("Ala")))
	require.NoError(t, b.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	blob, found, err := reopened.Load(ctx, storage.IdentityKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Ala", string(blob))
}

func TestLoadCancelled(t *testing.T) {
	b, _ := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := b.Load(ctx, "k")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	b, path := openTemp(t)
	assert.Equal(t, uint(1), b.SchemaVersion())

	version, err := Migrate(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
