// Package metrics records batch run metrics in a Prometheus registry.
//
// The collector plugs into the batch processor as its hooks. A CLI run is
// short-lived, so metrics are written once at the end in the node-exporter
// textfile format rather than served over HTTP.
package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bizcheck"

// Label values.
const (
	ReasonRateLimited = "rate_limited"
	ReasonError       = "error"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector implements batch.Hooks on its own registry.
type Collector struct {
	registry *prometheus.Registry

	attempts     prometheus.Counter
	retries      *prometheus.CounterVec
	items        *prometheus.CounterVec
	itemDuration *prometheus.HistogramVec
	retryDelay   *prometheus.HistogramVec
	results      *prometheus.CounterVec
}

// NewCollector creates a collector. operation labels every series, e.g.
// "query" or "verify".
func NewCollector(operation string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"operation": operation}

	return &Collector{
		registry: reg,
		attempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "attempts_total",
			Help:        "Total number of worker invocations",
			ConstLabels: constLabels,
		}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "retries_total",
			Help:        "Total number of retried attempts by reason",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "items_total",
			Help:        "Total number of processed items by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		itemDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "item_duration_seconds",
			Help:        "Time from first attempt to final outcome per item",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"outcome"}),
		retryDelay: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "retry_delay_seconds",
			Help:        "Backoff waited before a retry",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.5, 2, 8),
		}, []string{"reason"}),
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "results_total",
			Help:        "Total number of result rows by status",
			ConstLabels: constLabels,
		}, []string{"status"}),
	}
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// OnAttempt counts a worker invocation.
func (c *Collector) OnAttempt(_, _ int) {
	c.attempts.Inc()
}

// OnRetry counts a retry and its delay.
func (c *Collector) OnRetry(_, _ int, _ error, delay time.Duration, rateLimited bool) {
	reason := ReasonError
	if rateLimited {
		reason = ReasonRateLimited
	}
	c.retries.WithLabelValues(reason).Inc()
	c.retryDelay.WithLabelValues(reason).Observe(delay.Seconds())
}

// OnItemDone records the outcome of one item.
func (c *Collector) OnItemDone(_ int, elapsed time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.items.WithLabelValues(outcome).Inc()
	c.itemDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordResult counts a result row by status, e.g. "verified" or "error".
// Items whose failure the caller folded into a row count as processor
// successes, so this is the per-row view.
func (c *Collector) RecordResult(status string) {
	c.results.WithLabelValues(status).Inc()
}

// WriteTextfile writes all metrics to path in the textfile collector format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
