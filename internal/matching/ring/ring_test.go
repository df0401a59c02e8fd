package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoundsCapacityToPowerOfTwo(t *testing.T) {
	r := New[int](5)
	assert.Equal(t, 8, r.Capacity())
}

func TestPushPopFIFO(t *testing.T) {
	r := New[int](4)
	require.True(t, r.TryPush(1))
	require.True(t, r.TryPush(2))
	require.True(t, r.TryPush(3))

	v, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.TryPop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestPushFailsWhenFull(t *testing.T) {
	r := New[int](2)
	require.True(t, r.TryPush(1))
	require.True(t, r.TryPush(2))
	assert.False(t, r.TryPush(3))
}

func TestPopFailsWhenEmpty(t *testing.T) {
	r := New[int](2)
	_, ok := r.TryPop()
	assert.False(t, ok)
}

func TestSizeTracksPushesAndPops(t *testing.T) {
	r := New[int](8)
	assert.True(t, r.IsEmpty())
	r.TryPush(1)
	r.TryPush(2)
	assert.Equal(t, 2, r.Size())
	r.TryPop()
	assert.Equal(t, 1, r.Size())
}
