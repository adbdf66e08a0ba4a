package batch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	p := NewProgress(100, 10, 10)

	assert.Zero(t, p.PercentComplete())
	assert.False(t, p.IsComplete())
	assert.Zero(t, p.EstimatedTimeRemaining())

	assert.InDelta(t, 50.0, p.AddItems(50), 1e-9)
	p.CompleteBatch()

	snap := p.Snapshot()
	assert.Equal(t, 50, snap.CompletedItems)
	assert.Equal(t, 1, snap.CompletedBatches)
	assert.InDelta(t, 50.0, snap.PercentComplete, 1e-9)

	assert.Equal(t, 100.0, p.AddItems(50))
	assert.True(t, p.IsComplete())
	assert.Zero(t, p.EstimatedTimeRemaining())
}

// TestProgress_ExactHundred verifies the final percentage is exactly 100 for
// totals whose ratio is not exactly representable.
func TestProgress_ExactHundred(t *testing.T) {
	for _, total := range []int{3, 7, 49, 99} {
		p := NewProgress(total, 1, total)
		var last float64
		for range total {
			last = p.AddItems(1)
		}
		assert.Equal(t, 100.0, last, "total=%d", total)
	}
}

func TestProgress_Concurrent(t *testing.T) {
	p := NewProgress(1000, 1, 1000)
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				p.AddItems(1)
				_ = p.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, p.Snapshot().CompletedItems)
	assert.GreaterOrEqual(t, p.ItemsPerSecond(), 0.0)
}
