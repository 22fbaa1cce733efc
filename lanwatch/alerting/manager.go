package alerting

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/metrics"
	"github.com/LanWatch/go-monitor/lanwatch/store"
)

const (
	// historyLimit bounds the in-memory alert history.
	historyLimit = 100

	// Throttle windows per severity. High severity is never throttled.
	mediumThrottle = 5 * time.Minute
	lowThrottle    = 30 * time.Minute
)

// Manager throttles and records alerts and dispatches notifications.
// It is safe for concurrent use: the analyzer triggers alerts while a
// reporting surface may read the history.
type Manager struct {
	mu        sync.Mutex
	history   []Alert
	lastAlert map[string]time.Time // keyed by event type

	notifier Notifier
	mirror   *store.Cache

	now func() time.Time
}

// NewManager creates a Manager dispatching through notifier. A nil
// notifier disables dispatch; alerts are still throttled and recorded.
func NewManager(notifier Notifier) *Manager {
	return &Manager{
		lastAlert: make(map[string]time.Time),
		notifier:  notifier,
		now:       time.Now,
	}
}

// AttachMirror makes the manager publish its recent history to the KV
// cache after every triggered alert, for sibling processes to read.
func (m *Manager) AttachMirror(c *store.Cache) {
	m.mu.Lock()
	m.mirror = c
	m.mu.Unlock()
}

// Trigger records and dispatches an alert unless it is throttled. The
// throttle key is the event type alone, not the device: a burst of
// same-type alerts from different devices collapses to one notification
// per window. Returns true when the alert was recorded.
func (m *Manager) Trigger(eventType, severity string, details map[string]any, source, target *lanwatch.Device) bool {
	m.mu.Lock()
	now := m.now()

	if !m.shouldSend(eventType, severity, now) {
		m.mu.Unlock()
		slog.Debug("throttling alert", "event_type", eventType, "severity", severity)
		metrics.AlertsThrottled.WithLabelValues(eventType).Inc()
		return false
	}

	alert := Alert{
		ID:           uuid.NewString(),
		EventType:    eventType,
		Severity:     severity,
		Timestamp:    now,
		Details:      details,
		SourceDevice: source,
		TargetDevice: target,
	}

	m.history = append(m.history, alert)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
	m.lastAlert[eventType] = now

	notifier := m.notifier
	mirror := m.mirror
	snapshot := make([]Alert, len(m.history))
	copy(snapshot, m.history)
	m.mu.Unlock()

	slog.Warn("security alert", "severity", severity, "event_type", eventType, "message", alert.Message())
	metrics.AlertsTriggered.WithLabelValues(eventType, severity).Inc()

	// Dispatch failures are logged only: the alert is already recorded
	// and the throttle clock already advanced.
	if notifier != nil && (severity == lanwatch.SeverityMedium || severity == lanwatch.SeverityHigh) {
		if err := notifier.Notify(alert); err != nil {
			slog.Error("alert notification failed", "event_type", eventType, "error", err)
		}
	}

	if mirror != nil {
		if err := mirror.SaveJSON(context.Background(), store.RecentAlertsKey, snapshot); err != nil {
			slog.Debug("alert mirror update failed", "error", err)
		}
	}

	return true
}

// shouldSend applies the throttling rules. Caller holds the lock.
func (m *Manager) shouldSend(eventType, severity string, now time.Time) bool {
	if severity == lanwatch.SeverityHigh {
		return true
	}
	last, ok := m.lastAlert[eventType]
	if !ok {
		return true
	}
	elapsed := now.Sub(last)
	switch severity {
	case lanwatch.SeverityMedium:
		return elapsed >= mediumThrottle
	case lanwatch.SeverityLow:
		return elapsed >= lowThrottle
	}
	return true
}

// RecentAlerts returns up to limit alerts, newest first, optionally
// filtered by severity ("" matches all).
func (m *Manager) RecentAlerts(limit int, severity string) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	alerts := make([]Alert, 0, len(m.history))
	for _, a := range m.history {
		if severity != "" && a.Severity != severity {
			continue
		}
		alerts = append(alerts, a)
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})

	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts
}
