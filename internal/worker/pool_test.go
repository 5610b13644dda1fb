package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Execute(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	pool := NewPool(3, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		if n == 3 {
			return 0, errors.New("three")
		}
		return n * n, nil
	})

	results := pool.Execute(context.Background(), []int{1, 2, 3, 4, 5})
	require.Len(t, results, 5)
	assert.EqualValues(t, 5, calls.Load())

	for i, r := range results {
		assert.Equal(t, i+1, r.Input)
		if r.Input == 3 {
			assert.EqualError(t, r.Err, "three")
			continue
		}
		assert.NoError(t, r.Err)
		assert.Equal(t, r.Input*r.Input, r.Output)
	}
}

func TestPool_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(0, func(_ context.Context, n int) (int, error) {
		return n, nil
	})

	results := pool.Execute(ctx, []int{1, 2, 3})
	require.Len(t, results, 3)
	for _, r := range results {
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
	}
}

func TestPool_Empty(t *testing.T) {
	t.Parallel()

	pool := NewPool(4, func(_ context.Context, n int) (int, error) { return n, nil })
	assert.Empty(t, pool.Execute(context.Background(), nil))
}
