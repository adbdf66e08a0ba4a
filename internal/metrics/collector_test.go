package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bizcheck/internal/engine/batch"
)

func TestCollector_Hooks(t *testing.T) {
	c := NewCollector("verify")

	c.OnAttempt(0, 1)
	c.OnRetry(0, 1, errors.New("throttled"), time.Second, true)
	c.OnAttempt(0, 2)
	c.OnItemDone(0, 1500*time.Millisecond, nil)
	c.OnAttempt(1, 1)
	c.OnRetry(1, 1, errors.New("boom"), time.Second, false)
	c.OnItemDone(1, time.Second, errors.New("boom"))

	assert.InDelta(t, 3, testutil.ToFloat64(c.attempts), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.retries.WithLabelValues(ReasonRateLimited)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.retries.WithLabelValues(ReasonError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.items.WithLabelValues(OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.items.WithLabelValues(OutcomeFailure)), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(c.itemDuration))
}

func TestCollector_RecordResult(t *testing.T) {
	c := NewCollector("query")

	c.RecordResult("found")
	c.RecordResult("found")
	c.RecordResult("error")

	assert.InDelta(t, 2, testutil.ToFloat64(c.results.WithLabelValues("found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.results.WithLabelValues("error")), 0)
}

func TestCollector_WithProcessor(t *testing.T) {
	c := NewCollector("query")
	cfg := batch.DefaultConfig()
	cfg.RequestInterval = 0
	cfg.InitialRetryDelay = time.Millisecond

	p, err := batch.NewProcessor[int, int](cfg, batch.WithHooks(c))
	require.NoError(t, err)

	calls := 0
	_, err = p.ProcessBatch(context.Background(), []int{1}, func(_ context.Context, n int) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return n, nil
	}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(c.attempts), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.retries.WithLabelValues(ReasonError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.items.WithLabelValues(OutcomeSuccess)), 0)
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector("verify")
	c.OnAttempt(0, 1)
	c.OnItemDone(0, time.Second, nil)

	path := filepath.Join(t.TempDir(), "textfile", "bizcheck.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `bizcheck_attempts_total{operation="verify"} 1`)
	assert.Contains(t, text, `bizcheck_items_total{operation="verify",outcome="success"} 1`)
	assert.True(t, strings.Contains(text, "# TYPE bizcheck_item_duration_seconds histogram"))

	require.Error(t, c.WriteTextfile(""))
}
