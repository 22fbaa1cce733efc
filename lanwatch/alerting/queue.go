package alerting

import (
	"encoding/json"
	"fmt"

	"github.com/LanWatch/go-monitor/lanwatch/queue"
)

// QueueNotifier publishes alerts as JSON to a RabbitMQ queue.
type QueueNotifier struct {
	URL   string
	Queue string
}

// Notify implements Notifier.
func (n *QueueNotifier) Notify(alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	return queue.Publish(n.URL, n.Queue, "application/json", body)
}

// MultiNotifier fans an alert out to several channels. Every channel is
// attempted; failures are collected.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(alert); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d notifiers failed: %v", len(errs), len(m), errs)
	}
	return nil
}
