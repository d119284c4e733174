package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAccounting(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 60))
	assert.Equal(t, int64(60), c.MemoryUsage())

	// Exceeds the limit, must not block-acquire.
	assert.False(t, c.TryAcquireMemory(50))

	assert.True(t, c.TryAcquireMemory(40))
	assert.Equal(t, int64(100), c.MemoryUsage())

	c.ReleaseMemory(100)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestMemoryAcquireBlocksUntilRelease(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	require.NoError(t, c.AcquireMemory(context.Background(), 10))

	done := make(chan error, 1)
	go func() {
		done <- c.AcquireMemory(context.Background(), 5)
	}()

	select {
	case <-done:
		t.Fatal("acquire should block while the limit is exhausted")
	case <-time.After(20 * time.Millisecond):
	}

	c.ReleaseMemory(10)
	require.NoError(t, <-done)
	c.ReleaseMemory(5)
}

func TestMemoryAcquireRespectsContext(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	require.NoError(t, c.AcquireMemory(context.Background(), 10))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.AcquireMemory(ctx, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	c.ReleaseMemory(10)
}

func TestUnlimitedMemoryOnlyTracks(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1<<40))
	assert.Equal(t, int64(1<<40), c.MemoryUsage())
	c.ReleaseMemory(1 << 40)
}

func TestQuerySlots(t *testing.T) {
	c := NewController(Config{MaxConcurrentQueries: 2})

	require.NoError(t, c.BeginQuery(context.Background()))
	require.NoError(t, c.BeginQuery(context.Background()))
	assert.False(t, c.TryBeginQuery())

	c.EndQuery()
	assert.True(t, c.TryBeginQuery())
	c.EndQuery()
	c.EndQuery()
}

func TestAcquireIO(t *testing.T) {
	// Unlimited: never blocks.
	c := NewController(Config{})
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
	assert.Nil(t, c.WriteLimiter())

	limited := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	require.NotNil(t, limited.WriteLimiter())
	require.NoError(t, limited.AcquireIO(context.Background(), 1024))
}

func TestNilController(t *testing.T) {
	var c *Controller

	assert.NoError(t, c.AcquireMemory(context.Background(), 10))
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.NoError(t, c.AcquireIO(context.Background(), 10))
	assert.Nil(t, c.WriteLimiter())
}
