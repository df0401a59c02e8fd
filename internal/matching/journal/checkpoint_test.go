package journal

import (
	"testing"

	"github.com/orbitcex/matchcore/internal/matching/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenCheckpointStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, _, _, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	bids := []book.LevelSnapshot{{Price: 100, Quantity: 10, Count: 2}}
	asks := []book.LevelSnapshot{{Price: 101, Quantity: 5, Count: 1}}
	require.NoError(t, store.Save(7, bids, asks))

	seq, gotBids, gotAsks, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(7), seq)
	assert.Equal(t, bids, gotBids)
	assert.Equal(t, asks, gotAsks)
}
