package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLock(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLock()

	ok, err := l.Acquire(ctx, "brief:c1:planner", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "brief:c1:planner", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "brief:c1:planner"))
	ok, err = l.Acquire(ctx, "brief:c1:planner", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLockExpires(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLock()

	ok, _ := l.Acquire(ctx, "k", 20*time.Millisecond)
	require.True(t, ok)
	time.Sleep(40 * time.Millisecond)

	ok, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
