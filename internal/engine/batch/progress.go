package batch

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks one ProcessBatch run. It is safe for concurrent use.
type Progress struct {
	// TotalItems is the number of items in the run.
	TotalItems int

	// CompletedItems is the number of items whose worker succeeded.
	CompletedItems int

	// TotalBatches is the number of batches in the run.
	TotalBatches int

	// CompletedBatches is the number of batches fully processed.
	CompletedBatches int

	// BatchSize is the configured batch size.
	BatchSize int

	// StartTime is when the run started.
	StartTime time.Time

	// LastUpdateTime is when progress last changed.
	LastUpdateTime time.Time

	mu sync.RWMutex
}

// NewProgress creates a progress tracker for totalItems split into totalBatches.
func NewProgress(totalItems, totalBatches, batchSize int) *Progress {
	now := time.Now()
	return &Progress{
		TotalItems:     totalItems,
		TotalBatches:   totalBatches,
		BatchSize:      batchSize,
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// AddItems records n completed items and returns the new percentage.
func (p *Progress) AddItems(n int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CompletedItems += n
	p.LastUpdateTime = time.Now()
	return p.percentCompleteUnsafe()
}

// CompleteBatch records a finished batch.
func (p *Progress) CompleteBatch() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CompletedBatches++
	p.LastUpdateTime = time.Now()
}

// PercentComplete returns the completion percentage (0-100).
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.percentCompleteUnsafe()
}

// IsComplete returns true if all items have completed.
func (p *Progress) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.CompletedItems >= p.TotalItems
}

// EstimatedTimeRemaining extrapolates the remaining time from the average time
// per completed item. Returns 0 before the first item completes.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.etaUnsafe()
}

// ItemsPerSecond returns the completion rate.
func (p *Progress) ItemsPerSecond() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.itemsPerSecondUnsafe()
}

// Snapshot returns a copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProgressSnapshot{
		TotalItems:       p.TotalItems,
		CompletedItems:   p.CompletedItems,
		TotalBatches:     p.TotalBatches,
		CompletedBatches: p.CompletedBatches,
		BatchSize:        p.BatchSize,
		StartTime:        p.StartTime,
		LastUpdateTime:   p.LastUpdateTime,
		PercentComplete:  p.percentCompleteUnsafe(),
		ElapsedTime:      time.Since(p.StartTime),
		ItemsPerSecond:   p.itemsPerSecondUnsafe(),
		EstimatedRemain:  p.etaUnsafe(),
	}
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	TotalItems       int
	CompletedItems   int
	TotalBatches     int
	CompletedBatches int
	BatchSize        int
	StartTime        time.Time
	LastUpdateTime   time.Time
	PercentComplete  float64
	ElapsedTime      time.Duration
	ItemsPerSecond   float64
	EstimatedRemain  time.Duration
}

func (p *Progress) percentCompleteUnsafe() float64 {
	if p.TotalItems == 0 {
		return 0
	}
	if p.CompletedItems >= p.TotalItems {
		return percentMultiplier
	}
	return (float64(p.CompletedItems) / float64(p.TotalItems)) * percentMultiplier
}

func (p *Progress) itemsPerSecondUnsafe() float64 {
	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.CompletedItems) / elapsed
}

func (p *Progress) etaUnsafe() time.Duration {
	if p.CompletedItems == 0 {
		return 0
	}
	avg := time.Since(p.StartTime) / time.Duration(p.CompletedItems)
	return avg * time.Duration(max(p.TotalItems-p.CompletedItems, 0))
}
