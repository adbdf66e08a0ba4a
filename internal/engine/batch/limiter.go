package batch

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of concurrently running tasks. Callers that find
// it full wait in FIFO order of their Acquire calls.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
	inFlight atomic.Int64
}

// NewLimiter creates a limiter admitting at most n concurrent tasks.
// Values below 1 are treated as 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{
		sem:      semaphore.NewWeighted(int64(n)),
		capacity: n,
	}
}

// Acquire blocks until a slot is free or ctx is done. A caller cancelled while
// queued never holds a slot.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}
	// Acquire may succeed even when ctx is already done.
	if ctx.Err() != nil {
		l.sem.Release(1)
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}
	l.inFlight.Add(1)
	return nil
}

// Release frees a slot obtained by Acquire.
func (l *Limiter) Release() {
	l.inFlight.Add(-1)
	l.sem.Release(1)
}

// Run executes task under the limit. The slot is released when task returns
// or panics; the task's error is returned to this caller only.
func (l *Limiter) Run(ctx context.Context, task func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return task(ctx)
}

// Do is the value-returning form of Limiter.Run.
func Do[R any](ctx context.Context, l *Limiter, task func(context.Context) (R, error)) (R, error) {
	var result R
	err := l.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = task(ctx)
		return err
	})
	return result, err
}

// InFlight returns the number of tasks currently holding a slot.
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

// Capacity returns the maximum number of concurrent tasks.
func (l *Limiter) Capacity() int {
	return l.capacity
}
