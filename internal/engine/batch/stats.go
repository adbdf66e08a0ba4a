package batch

import "sync/atomic"

// Stats are cumulative counters over every run of a Processor.
type Stats struct {
	Attempts           int64
	Retries            int64
	RateLimitedRetries int64
	SucceededItems     int64
	FailedItems        int64
	Batches            int64
}

type stats struct {
	attempts    atomic.Int64
	retries     atomic.Int64
	rateLimited atomic.Int64
	succeeded   atomic.Int64
	failed      atomic.Int64
	batches     atomic.Int64
}

func (s *stats) snapshot() Stats {
	return Stats{
		Attempts:           s.attempts.Load(),
		Retries:            s.retries.Load(),
		RateLimitedRetries: s.rateLimited.Load(),
		SucceededItems:     s.succeeded.Load(),
		FailedItems:        s.failed.Load(),
		Batches:            s.batches.Load(),
	}
}
