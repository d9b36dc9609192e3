package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func TestTTLCache(t *testing.T) {
	ctx := context.Background()

	t.Run("second call within TTL does not recompute", func(t *testing.T) {
		clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		c := NewWithClock(clock.Now)

		calls := 0
		compute := func(context.Context) (int, error) {
			calls++
			return 42, nil
		}

		v, err := GetOrCompute(ctx, c, "metrics:test", time.Second, compute)
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		clock.Advance(999 * time.Millisecond)
		v, err = GetOrCompute(ctx, c, "metrics:test", time.Second, compute)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("recomputes after TTL elapses", func(t *testing.T) {
		clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		c := NewWithClock(clock.Now)

		calls := 0
		compute := func(context.Context) (int, error) {
			calls++
			return calls, nil
		}

		v, err := GetOrCompute(ctx, c, "metrics:test", time.Second, compute)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		clock.Advance(time.Second)
		v, err = GetOrCompute(ctx, c, "metrics:test", time.Second, compute)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
		assert.Equal(t, 2, calls)
	})

	t.Run("failed compute is not cached", func(t *testing.T) {
		c := New()

		calls := 0
		boom := errors.New("upstream unavailable")
		compute := func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", boom
			}
			return "recovered", nil
		}

		_, err := GetOrCompute(ctx, c, "metrics:flaky", time.Minute, compute)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, c.Len())

		v, err := GetOrCompute(ctx, c, "metrics:flaky", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, "recovered", v)
		assert.Equal(t, 2, calls)
	})

	t.Run("invalidate removes a single key", func(t *testing.T) {
		c := New()

		calls := 0
		compute := func(context.Context) (int, error) {
			calls++
			return calls, nil
		}

		_, err := GetOrCompute(ctx, c, "metrics:mrr", time.Hour, compute)
		require.NoError(t, err)

		c.Invalidate("metrics:mrr")

		v, err := GetOrCompute(ctx, c, "metrics:mrr", time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("invalidate prefix removes matching keys only", func(t *testing.T) {
		c := New()

		compute := func(context.Context) (int, error) { return 1, nil }
		for _, key := range []string{"metrics:mrr:all", "metrics:churn:weekly", "overview:billing"} {
			_, err := GetOrCompute(ctx, c, key, time.Hour, compute)
			require.NoError(t, err)
		}

		removed := c.InvalidatePrefix("metrics:")
		assert.Equal(t, 2, removed)
		assert.Equal(t, 1, c.Len())
	})
}
