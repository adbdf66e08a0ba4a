package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter_ClampsCapacity(t *testing.T) {
	assert.Equal(t, 1, NewLimiter(0).Capacity())
	assert.Equal(t, 1, NewLimiter(-4).Capacity())
	assert.Equal(t, 7, NewLimiter(7).Capacity())
}

// TestLimiter_Bound verifies no more than Capacity tasks run at once.
func TestLimiter_Bound(t *testing.T) {
	const capacity = 3
	l := NewLimiter(capacity)

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Run(context.Background(), func(context.Context) error {
				n := active.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(capacity))
	assert.Equal(t, 0, l.InFlight())
}

// TestLimiter_FailureReleasesSlot verifies a failing task frees its slot and
// its error reaches only its own caller.
func TestLimiter_FailureReleasesSlot(t *testing.T) {
	l := NewLimiter(1)
	boom := errors.New("boom")

	err := l.Run(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, l.InFlight())

	got, err := Do(context.Background(), l, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestLimiter_PanicReleasesSlot(t *testing.T) {
	l := NewLimiter(1)

	assert.Panics(t, func() {
		_ = l.Run(context.Background(), func(context.Context) error { panic("worker exploded") })
	})
	assert.Equal(t, 0, l.InFlight())
	assert.NoError(t, l.Run(context.Background(), func(context.Context) error { return nil }))
}

// TestLimiter_FIFO verifies queued callers are admitted in submission order.
func TestLimiter_FIFO(t *testing.T) {
	l := NewLimiter(1)
	require.NoError(t, l.Acquire(context.Background()))

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Run(context.Background(), func(context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// Let goroutine i enqueue before i+1.
		time.Sleep(5 * time.Millisecond)
	}

	l.Release()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLimiter_CancelWhileQueued(t *testing.T) {
	l := NewLimiter(1)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	ran := false
	err := l.Run(ctx, func(context.Context) error {
		ran = true
		return nil
	})

	require.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
	assert.Equal(t, 1, l.InFlight())
}
