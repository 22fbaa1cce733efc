// Package metrics exposes prometheus instrumentation for the collector
// framework, the security analyzer, and the alert manager.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CollectorRuns counts completed collect→process→store cycles.
	CollectorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netmon_collector_runs_total",
		Help: "Completed collection cycles per collector.",
	}, []string{"collector"})

	// CollectorErrors counts collection cycles that failed at any stage.
	CollectorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netmon_collector_errors_total",
		Help: "Failed collection cycles per collector.",
	}, []string{"collector"})

	// AnalyzerCycles counts completed security analysis cycles.
	AnalyzerCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netmon_analyzer_cycles_total",
		Help: "Completed security analysis cycles.",
	})

	// AnalyzerDuration observes wall time per analysis cycle.
	AnalyzerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netmon_analyzer_cycle_seconds",
		Help:    "Security analysis cycle duration.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	// AlertsTriggered counts alerts that passed throttling.
	AlertsTriggered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netmon_alerts_triggered_total",
		Help: "Alerts dispatched, by event type and severity.",
	}, []string{"event_type", "severity"})

	// AlertsThrottled counts alerts suppressed by the throttle window.
	AlertsThrottled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netmon_alerts_throttled_total",
		Help: "Alerts suppressed by throttling, by event type.",
	}, []string{"event_type"})

	// DevicesSeen tracks the device count from the most recent scan.
	DevicesSeen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netmon_devices_seen",
		Help: "Devices found by the most recent discovery scan.",
	})
)

// Handler returns the HTTP handler that serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
