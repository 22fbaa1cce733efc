// Package monitor ties the collectors and the analyzer into one
// supervised unit with a single Start/Stop lifecycle.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch/collector"
	"github.com/LanWatch/go-monitor/lanwatch/metrics"
	"github.com/LanWatch/go-monitor/lanwatch/security"
)

// Manager owns a set of collector runners and drives the security
// analyzer on its own coarser interval. Analyzer cycles are single-flight:
// the loop runs them synchronously, so a slow cycle delays the next one
// rather than overlapping it.
type Manager struct {
	runners  []*collector.Runner
	analyzer *security.Analyzer
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewManager builds a manager that analyzes every interval. analyzer may
// be nil to run collectors only.
func NewManager(analyzer *security.Analyzer, interval time.Duration) *Manager {
	return &Manager{analyzer: analyzer, interval: interval}
}

// AddCollector schedules c at the given interval once Start is called.
func (m *Manager) AddCollector(c collector.Collector, interval time.Duration) {
	m.runners = append(m.runners, collector.NewRunner(c, interval))
}

// Start launches every collector and the analyzer loop.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		slog.Warn("monitor already running")
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	for _, r := range m.runners {
		r.Start()
	}

	if m.analyzer == nil {
		close(m.done)
		return
	}
	go m.analyzeLoop(ctx)
}

// Stop halts the analyzer loop, then every collector.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		slog.Warn("monitor is not running")
		return
	}
	m.running = false
	close(m.stop)
	m.cancel()
	done := m.done
	m.mu.Unlock()

	<-done
	for _, r := range m.runners {
		r.Stop()
	}
	slog.Info("monitor stopped")
}

func (m *Manager) analyzeLoop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.analyzeOnce(ctx)
		}
	}
}

func (m *Manager) analyzeOnce(ctx context.Context) {
	start := time.Now()
	m.analyzer.Analyze(ctx)
	elapsed := time.Since(start)

	metrics.AnalyzerCycles.Inc()
	metrics.AnalyzerDuration.Observe(elapsed.Seconds())
	slog.Debug("analysis cycle complete", "duration", elapsed)
}
