package engine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
)

func TestRunVisitsEveryIndex(t *testing.T) {
	eng, err := engine.Open(3, nil)
	require.NoError(t, err)
	defer eng.Close()
	assert.Equal(t, 3, eng.Threads())

	out := make([]int, 50)
	err = eng.Run(context.Background(), len(out), func(_ context.Context, i int) error {
		out[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestRunLimitsConcurrency(t *testing.T) {
	eng, err := engine.Open(2, nil)
	require.NoError(t, err)
	defer eng.Close()

	var running, peak atomic.Int32
	err = eng.Run(context.Background(), 20, func(_ context.Context, _ int) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunReturnsFirstError(t *testing.T) {
	eng, err := engine.Open(1, nil)
	require.NoError(t, err)
	defer eng.Close()

	boom := errors.New("boom")
	err = eng.Run(context.Background(), 10, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestClosedEngine(t *testing.T) {
	eng, err := engine.Open(0, nil)
	require.NoError(t, err)
	assert.Positive(t, eng.Threads())
	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())

	err = eng.Run(context.Background(), 1, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, engine.ErrClosed)
}

func TestRunHonoursCancellation(t *testing.T) {
	eng, err := engine.Open(1, nil)
	require.NoError(t, err)
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = eng.Run(ctx, 5, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
