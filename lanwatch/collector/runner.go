package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch/metrics"
)

// defaultTick is the polling resolution of the scheduling loop. Short
// relative to any collection interval so Stop responds promptly and a
// slow Collect does not accumulate drift beyond one interval.
const defaultTick = time.Second

// Runner executes one Collector on a fixed interval in its own goroutine.
// Runners are independent of each other; the only shared state between
// collectors is whatever their Storers write to.
type Runner struct {
	c        Collector
	interval time.Duration
	tick     time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc

	lastMu sync.Mutex
	last   time.Time
}

// NewRunner wraps c in a scheduler firing every interval.
func NewRunner(c Collector, interval time.Duration) *Runner {
	return &Runner{
		c:        c,
		interval: interval,
		tick:     defaultTick,
	}
}

// Name returns the wrapped collector's name.
func (r *Runner) Name() string {
	return r.c.Name()
}

// Start performs one immediate collection synchronously (best effort),
// then launches the background loop. Calling Start on a running Runner
// is a no-op with a warning.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		slog.Warn("collector already running", "collector", r.c.Name())
		return
	}
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	slog.Info("starting collector", "collector", r.c.Name(), "interval", r.interval)

	// Initial collection failure is logged, not fatal.
	if err := r.runOnce(ctx); err != nil {
		slog.Error("initial collection failed", "collector", r.c.Name(), "error", err)
	}

	go r.loop(ctx)
}

// Stop signals the loop to exit and waits up to the collection interval
// for it to drain. No Collect call is started after the signal is
// observed; an in-flight Collect sees its context cancelled. Calling Stop
// on a stopped Runner is a no-op with a warning.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		slog.Warn("collector is not running", "collector", r.c.Name())
		return
	}
	r.running = false
	close(r.stop)
	r.cancel()
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
		slog.Info("collector stopped", "collector", r.c.Name())
	case <-time.After(r.interval):
		slog.Warn("collector did not stop within interval", "collector", r.c.Name())
	}
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if time.Since(r.lastRun()) < r.interval {
				continue
			}
			// Re-check the stop signal so a tick racing Stop never
			// starts a new collection.
			select {
			case <-r.stop:
				return
			default:
			}
			if err := r.runOnce(ctx); err != nil {
				slog.Error("collection failed", "collector", r.c.Name(), "error", err)
			}
		}
	}
}

// runOnce executes one collect→process→store pipeline. The last-run
// timestamp advances only on full success, so a failed store retries on
// the next qualifying tick.
func (r *Runner) runOnce(ctx context.Context) error {
	snap, err := r.c.Collect(ctx)
	if errors.Is(err, ErrSkip) {
		r.setLastRun(time.Now())
		return nil
	}
	if err != nil {
		metrics.CollectorErrors.WithLabelValues(r.c.Name()).Inc()
		return err
	}

	if p, ok := r.c.(Processor); ok {
		snap = p.Process(snap)
	}

	if s, ok := r.c.(Storer); ok {
		if err := s.Store(ctx, snap); err != nil {
			metrics.CollectorErrors.WithLabelValues(r.c.Name()).Inc()
			return err
		}
	} else {
		slog.Debug("snapshot collected", "collector", r.c.Name(), "fields", len(snap.Fields))
	}

	r.setLastRun(time.Now())
	metrics.CollectorRuns.WithLabelValues(r.c.Name()).Inc()
	return nil
}

func (r *Runner) lastRun() time.Time {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()
	return r.last
}

func (r *Runner) setLastRun(t time.Time) {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()
	r.last = t
}
