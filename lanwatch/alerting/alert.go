// Package alerting dedupes, records, and dispatches the alerts raised by
// the security analyzer: severity-based throttling per event type, a
// bounded in-memory history, and pluggable notification channels.
package alerting

import (
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
)

// Alert is the transient representation of a triggered security event
// plus the context a notification needs.
type Alert struct {
	ID           string           `json:"id"`
	EventType    string           `json:"event_type"`
	Severity     string           `json:"severity"`
	Timestamp    time.Time        `json:"timestamp"`
	Details      map[string]any   `json:"details,omitempty"`
	SourceDevice *lanwatch.Device `json:"source_device,omitempty"`
	TargetDevice *lanwatch.Device `json:"target_device,omitempty"`
}

// Message returns the human-readable summary from the alert details.
func (a Alert) Message() string {
	if m, ok := a.Details["message"].(string); ok {
		return m
	}
	return ""
}

// Notifier delivers a formatted alert to one channel. Delivery failure
// must not affect the caller's bookkeeping.
type Notifier interface {
	Notify(alert Alert) error
}
