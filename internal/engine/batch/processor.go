package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/bizcheck/internal/logging"
)

// Worker maps one item to one result. It is called once per attempt.
type Worker[T, R any] func(ctx context.Context, item T) (R, error)

// ProgressFunc receives the completion percentage (0-100) after each item.
// Calls are serialized and values never decrease.
type ProgressFunc func(percent float64)

// Hooks observes worker attempts. Implementations must be safe for concurrent use.
type Hooks interface {
	// OnAttempt is called before each worker invocation; attempt is 1-based.
	OnAttempt(index, attempt int)

	// OnRetry is called after a failed attempt that will be retried.
	OnRetry(index, attempt int, err error, delay time.Duration, rateLimited bool)

	// OnItemDone is called once per item with its final error, if any.
	OnItemDone(index int, elapsed time.Duration, err error)
}

// NoopHooks implements Hooks with no-ops.
type NoopHooks struct{}

func (NoopHooks) OnAttempt(int, int) {}

func (NoopHooks) OnRetry(int, int, error, time.Duration, bool) {}

func (NoopHooks) OnItemDone(int, time.Duration, error) {}

// Option configures a Processor.
type Option func(*settings)

type settings struct {
	hooks         Hooks
	observer      func(ProgressSnapshot)
	isRateLimited func(error) bool
}

// WithHooks installs attempt hooks, e.g. a metrics collector.
func WithHooks(h Hooks) Option {
	return func(s *settings) {
		if h != nil {
			s.hooks = h
		}
	}
}

// WithObserver installs a callback receiving a progress snapshot after each
// completed item. It is called right after the ProgressFunc.
func WithObserver(fn func(ProgressSnapshot)) Option {
	return func(s *settings) { s.observer = fn }
}

// WithRateLimitClassifier replaces IsRateLimitError for this processor.
func WithRateLimitClassifier(fn func(error) bool) Option {
	return func(s *settings) {
		if fn != nil {
			s.isRateLimited = fn
		}
	}
}

// Processor runs a Worker over items in paced batches with bounded concurrency.
// A Processor may be reused across runs and by concurrent runs, which then
// share its concurrency limit.
type Processor[T, R any] struct {
	cfg     Config
	limiter *Limiter
	opts    settings
	stats   stats
}

// NewProcessor creates a processor. An invalid cfg is rejected with a
// *ConfigurationError.
func NewProcessor[T, R any](cfg Config, opts ...Option) (*Processor[T, R], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := settings{
		hooks:         NoopHooks{},
		isRateLimited: IsRateLimitError,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Processor[T, R]{
		cfg:     cfg,
		limiter: NewLimiter(cfg.MaxConcurrent),
		opts:    s,
	}, nil
}

// NewProcessorWithDefaults creates a processor using DefaultConfig.
func NewProcessorWithDefaults[T, R any](opts ...Option) *Processor[T, R] {
	p, err := NewProcessor[T, R](DefaultConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("default batch config is invalid: %v", err))
	}
	return p
}

// Config returns the processor configuration.
func (p *Processor[T, R]) Config() Config {
	return p.cfg
}

// Stats returns cumulative counters over every run of p.
func (p *Processor[T, R]) Stats() Stats {
	return p.stats.snapshot()
}

// ProcessBatch applies worker to every item and returns the results in input
// order.
//
// Items are processed in batches of Config.BatchSize with at most
// Config.MaxConcurrent workers in flight, Config.RequestInterval between
// batches, and per-item retries. onProgress may be nil.
//
// The first item that fails after its retries stops the run: items not yet
// admitted are skipped, workers in flight finish, later batches never start,
// and ProcessBatch returns a nil slice and an *ItemError. Cancelling ctx stops
// the run the same way and returns an error wrapping ErrCancelled.
func (p *Processor[T, R]) ProcessBatch(
	ctx context.Context,
	items []T,
	worker Worker[T, R],
	onProgress ProgressFunc,
) ([]R, error) {
	if worker == nil {
		return nil, ErrNilWorker
	}
	if len(items) == 0 {
		return []R{}, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}

	log := logging.FromContext(ctx)
	batches := p.CalculateBatches(len(items))
	results := make([]R, len(items))
	run := &runState{
		progress:   NewProgress(len(items), len(batches), p.cfg.BatchSize),
		onProgress: onProgress,
		observer:   p.opts.observer,
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "batch").
		Str("operation", "process_batch").
		Int("items", len(items)).
		Int("batches", len(batches)).
		Int("max_concurrent", p.cfg.MaxConcurrent).
		Msg("starting batch run")

	for batchIndex, bounds := range batches {
		if batchIndex > 0 {
			if err := sleep(ctx, p.cfg.RequestInterval); err != nil {
				return nil, err
			}
		}

		if err := p.runBatch(ctx, items, bounds, worker, results, run); err != nil {
			log.Debug().
				Ctx(ctx).
				Str("component", "batch").
				Int("batch", batchIndex).
				Err(err).
				Msg("batch run stopped")
			return nil, err
		}

		run.progress.CompleteBatch()
		p.stats.batches.Add(1)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "batch").
		Dur("elapsed", run.progress.Snapshot().ElapsedTime).
		Msg("batch run complete")

	return results, nil
}

// runBatch processes items[bounds[0]:bounds[1]]. Slots are acquired in input
// order, so admission to the limiter is FIFO.
func (p *Processor[T, R]) runBatch(
	ctx context.Context,
	items []T,
	bounds [2]int,
	worker Worker[T, R],
	results []R,
	run *runState,
) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := bounds[0]; i < bounds[1]; i++ {
		if err := p.limiter.Acquire(gctx); err != nil {
			break
		}

		g.Go(func() error {
			defer p.limiter.Release()

			result, err := p.processItem(gctx, i, items[i], worker)
			if err != nil {
				return &ItemError{Index: i, Item: items[i], Err: err}
			}

			results[i] = result
			run.itemDone()
			return nil
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}
	return err
}

func (p *Processor[T, R]) processItem(ctx context.Context, index int, item T, worker Worker[T, R]) (R, error) {
	policy := p.cfg.RetryPolicy()
	policy.IsRateLimited = p.opts.isRateLimited
	policy.OnRetry = func(attempt int, err error, delay time.Duration, rateLimited bool) {
		p.stats.retries.Add(1)
		if rateLimited {
			p.stats.rateLimited.Add(1)
		}
		p.opts.hooks.OnRetry(index, attempt, err, delay, rateLimited)

		logging.FromContext(ctx).Debug().
			Ctx(ctx).
			Str("component", "batch").
			Int("index", index).
			Int("attempt", attempt).
			Bool("rate_limited", rateLimited).
			Dur("delay", delay).
			Err(err).
			Msg("retrying item")
	}

	start := time.Now()
	attempt := 0
	result, err := Retry(ctx, policy, func(ctx context.Context) (R, error) {
		attempt++
		p.stats.attempts.Add(1)
		p.opts.hooks.OnAttempt(index, attempt)

		if p.cfg.ItemTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.ItemTimeout)
			defer cancel()
		}
		return worker(ctx, item)
	})

	if err != nil {
		p.stats.failed.Add(1)
	} else {
		p.stats.succeeded.Add(1)
	}
	p.opts.hooks.OnItemDone(index, time.Since(start), err)

	return result, err
}

// CalculateBatches returns the [start, end) bounds of each batch for totalItems.
func (p *Processor[T, R]) CalculateBatches(totalItems int) [][2]int {
	return CalculateBatches(totalItems, p.cfg.BatchSize)
}

// CalculateBatches splits totalItems into ceil(totalItems/batchSize) batches
// and returns their [start, end) bounds.
func CalculateBatches(totalItems, batchSize int) [][2]int {
	if totalItems <= 0 || batchSize < 1 {
		return nil
	}

	totalBatches := (totalItems + batchSize - 1) / batchSize
	batches := make([][2]int, totalBatches)
	for i := range totalBatches {
		start := i * batchSize
		batches[i] = [2]int{start, min(start+batchSize, totalItems)}
	}
	return batches
}

// runState serializes progress reporting for one run.
type runState struct {
	mu         sync.Mutex
	progress   *Progress
	onProgress ProgressFunc
	observer   func(ProgressSnapshot)
}

func (s *runState) itemDone() {
	s.mu.Lock()
	defer s.mu.Unlock()

	percent := s.progress.AddItems(1)
	if s.onProgress != nil {
		s.onProgress(percent)
	}
	if s.observer != nil {
		s.observer(s.progress.Snapshot())
	}
}
