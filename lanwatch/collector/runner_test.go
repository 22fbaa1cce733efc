package collector

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingCollector struct {
	collects atomic.Int64
	stores   atomic.Int64
	err      error
}

func (c *countingCollector) Name() string { return "counting" }

func (c *countingCollector) Collect(ctx context.Context) (Snapshot, error) {
	c.collects.Add(1)
	if c.err != nil {
		return Snapshot{}, c.err
	}
	return Snapshot{Timestamp: time.Now(), Fields: map[string]any{"n": 1}}, nil
}

func (c *countingCollector) Store(ctx context.Context, snap Snapshot) error {
	c.stores.Add(1)
	return nil
}

func TestRunnerCollectsImmediatelyOnStart(t *testing.T) {
	t.Log("\n🔍 Testing immediate collection on Start...")

	c := &countingCollector{}
	r := NewRunner(c, time.Hour)
	r.Start()
	defer r.Stop()

	// Start runs the first collection synchronously.
	if got := c.collects.Load(); got != 1 {
		t.Errorf("❌ Expected 1 collect after Start, got %d", got)
	}
	if got := c.stores.Load(); got != 1 {
		t.Errorf("❌ Expected 1 store after Start, got %d", got)
	}

	t.Log("\n✅ Immediate collection test passed")
}

func TestRunnerStopReturnsWithinTick(t *testing.T) {
	c := &countingCollector{}
	r := NewRunner(c, time.Hour)
	r.tick = 10 * time.Millisecond
	r.Start()

	start := time.Now()
	r.Stop()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Stop took %v, expected well under the interval", elapsed)
	}
}

func TestRunnerNoCollectAfterStop(t *testing.T) {
	c := &countingCollector{}
	r := NewRunner(c, 5*time.Millisecond)
	r.tick = time.Millisecond
	r.Start()

	time.Sleep(30 * time.Millisecond)
	r.Stop()
	after := c.collects.Load()

	time.Sleep(30 * time.Millisecond)
	if got := c.collects.Load(); got != after {
		t.Errorf("collector ran %d more times after Stop", got-after)
	}
}

func TestRunnerStartAndStopAreIdempotent(t *testing.T) {
	c := &countingCollector{}
	r := NewRunner(c, time.Hour)

	r.Start()
	r.Start() // no-op, must not double-collect
	if got := c.collects.Load(); got != 1 {
		t.Errorf("second Start triggered collection, count = %d", got)
	}

	r.Stop()
	r.Stop() // no-op, must not panic on closed channel
}

func TestRunnerRespectsInterval(t *testing.T) {
	c := &countingCollector{}
	r := NewRunner(c, time.Hour)
	r.tick = time.Millisecond
	r.Start()
	defer r.Stop()

	time.Sleep(50 * time.Millisecond)
	// Only the initial synchronous collection qualifies inside an
	// hour-long interval.
	if got := c.collects.Load(); got != 1 {
		t.Errorf("expected no further collections within interval, got %d", got)
	}
}

func TestRunnerSkipIsNotAnError(t *testing.T) {
	c := &countingCollector{err: ErrSkip}
	r := NewRunner(c, time.Hour)
	r.Start()
	defer r.Stop()

	if got := c.stores.Load(); got != 0 {
		t.Errorf("ErrSkip must not reach Store, got %d calls", got)
	}
}
