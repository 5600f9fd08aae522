package quota

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, limit int) (*gate, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quota.json")
	g := &gate{store: NewFileStore(path), limit: limit, now: time.Now}
	return g, path
}

func TestCheckAndConsume_PaidBypass(t *testing.T) {
	g, path := newTestGate(t, 1)

	for i := 0; i < 5; i++ {
		res, err := g.CheckAndConsume(context.Background(), "payer", true, 1)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 0, res.Used)
		assert.Equal(t, Unlimited, res.Limit)
	}

	// Paid usage performs no storage mutation at all.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckAndConsume_CountsUpToLimit(t *testing.T) {
	g, _ := newTestGate(t, 3)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		res, err := g.CheckAndConsume(ctx, "alice", false, 1)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, want, res.Used)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := g.CheckAndConsume(ctx, "alice", false, 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 3, res.Used)
	assert.Equal(t, 3, res.Limit)

	// The rejected attempt did not consume quota.
	res, err = g.CheckAndConsume(ctx, "alice", false, 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 3, res.Used)
}

func TestCheckAndConsume_Boundary(t *testing.T) {
	g, _ := newTestGate(t, 5)
	ctx := context.Background()

	// used == limit-1: one more page still succeeds and lands exactly on the limit.
	for i := 0; i < 4; i++ {
		_, err := g.CheckAndConsume(ctx, "bob", false, 1)
		require.NoError(t, err)
	}

	res, err := g.CheckAndConsume(ctx, "bob", false, 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 5, res.Used)

	res, err = g.CheckAndConsume(ctx, "bob", false, 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 5, res.Used)
}

func TestCheckAndConsume_UsersAreIndependent(t *testing.T) {
	g, _ := newTestGate(t, 1)
	ctx := context.Background()

	res, err := g.CheckAndConsume(ctx, "alice", false, 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = g.CheckAndConsume(ctx, "bob", false, 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = g.CheckAndConsume(ctx, "alice", false, 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestCheckAndConsume_DayRollover(t *testing.T) {
	g, _ := newTestGate(t, 1)
	ctx := context.Background()

	day1 := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	g.now = func() time.Time { return day1 }

	res, err := g.CheckAndConsume(ctx, "alice", false, 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = g.CheckAndConsume(ctx, "alice", false, 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// Two minutes later it is a new UTC day and the counter starts from zero.
	g.now = func() time.Time { return day1.Add(2 * time.Minute) }

	res, err = g.CheckAndConsume(ctx, "alice", false, 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Used)
}

func TestCheckAndConsume_Concurrent(t *testing.T) {
	const limit = 10
	g, _ := newTestGate(t, limit)
	ctx := context.Background()

	var wg sync.WaitGroup
	allowed := make([]bool, limit*3)
	for i := range allowed {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := g.CheckAndConsume(ctx, "alice", false, 1)
			require.NoError(t, err)
			allowed[i] = res.Allowed
		}(i)
	}
	wg.Wait()

	granted := 0
	for _, ok := range allowed {
		if ok {
			granted++
		}
	}
	assert.Equal(t, limit, granted, "concurrent consumes must never exceed the limit")
}

func TestDayKey(t *testing.T) {
	// Day keys are UTC, not local time.
	est := time.FixedZone("EST", -5*3600)
	at := time.Date(2025, 6, 1, 22, 0, 0, 0, est) // 03:00 June 2nd UTC
	assert.Equal(t, "2025-06-02", DayKey(at))
}
