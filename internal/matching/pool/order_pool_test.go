package pool

import (
	"testing"

	"github.com/orbitcex/matchcore/internal/matching/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireReturnsPreallocatedRecords(t *testing.T) {
	p := New(2)
	assert.Equal(t, 2, p.Len())

	o1 := p.Acquire()
	require.NotNil(t, o1)
	assert.Equal(t, 1, p.Len())

	o2 := p.Acquire()
	require.NotNil(t, o2)
	assert.Equal(t, 0, p.Len())
}

func TestAcquireFallsBackToAllocationWhenExhausted(t *testing.T) {
	p := New(0)
	o := p.Acquire()
	require.NotNil(t, o)
}

func TestReleaseResetsAndRecyclesRecord(t *testing.T) {
	p := New(1)
	o := p.Acquire()
	o.ID = 42
	o.Residual = 0
	p.Release(o)

	assert.Equal(t, 1, p.Len())
	recycled := p.Acquire()
	assert.Equal(t, model.ID(0), recycled.ID)
}

func TestReleasePanicsOnNonZeroResidual(t *testing.T) {
	p := New(1)
	o := p.Acquire()
	o.Residual = 5
	assert.Panics(t, func() { p.Release(o) })
}

func TestReleaseBeyondCapacityIsDropped(t *testing.T) {
	p := New(1)
	o1 := p.Acquire()
	o2 := p.Acquire()
	o1.Residual, o2.Residual = 0, 0
	p.Release(o1)
	p.Release(o2)
	assert.Equal(t, 1, p.Len())
}
