package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	b := New()
	ctx := context.Background()

	_, found, err := b.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	blob := []byte("abc")
	require.NoError(t, b.Save(ctx, "k", blob))
	blob[0] = 'x'

	got, found, err := b.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", string(got), "saved blob is copied")

	got[1] = 'y'
	again, _, _ := b.Load(ctx, "k")
	assert.Equal(t, "abc", string(again), "loaded blob is copied")
	assert.Equal(t, 1, b.Saves())
}
