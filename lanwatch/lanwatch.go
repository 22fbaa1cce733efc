// Package lanwatch defines the core domain types of the LanWatch
// home-network monitor: devices discovered on the LAN, the metric points
// collectors produce, the security events the analyzer raises, and the
// storage ports the rest of the module is built against.
package lanwatch

import (
	"context"
	"errors"
	"time"
)

// Severity levels for security events and alerts.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Device type classifications.
const (
	DeviceTypeRouter   = "router"
	DeviceTypeTV       = "tv"
	DeviceTypeMobile   = "mobile"
	DeviceTypeComputer = "computer"
	DeviceTypeIoT      = "iot"
	DeviceTypeGaming   = "gaming"
	DeviceTypeUnknown  = "unknown"
)

// Event types raised by the security analyzer.
const (
	EventTypeNewDevice          = "new_device"
	EventTypeHighBandwidth      = "high_bandwidth"
	EventTypePortScan           = "port_scan"
	EventTypeHighConnectionRate = "high_connection_rate"
	EventTypeSuspiciousConn     = "suspicious_connection"
	EventTypeHighCPUUsage       = "high_cpu_usage"
	EventTypeHighDNSQueryRate   = "high_dns_query_rate"
	EventTypeConnection         = "connection"
)

// Time-series measurement names shared by collectors and the analyzer.
const (
	MeasurementBandwidth   = "bandwidth"
	MeasurementPerformance = "performance"
	MeasurementDNS         = "dns"
	MeasurementDevices     = "device_count"
)

// ErrNotFound is returned by store lookups when no record matches.
var ErrNotFound = errors.New("lanwatch: not found")

// ErrNoData is returned by time-series queries that match no points.
var ErrNoData = errors.New("lanwatch: no data in range")

// IPRecord is one entry in a device's IP history. A device keeps exactly
// one record per distinct IP it has ever been seen with.
type IPRecord struct {
	IP        string    `json:"ip"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Device is the canonical registry record for a host on the network,
// keyed by MAC address.
type Device struct {
	MAC        string     `json:"mac"`
	IP         string     `json:"ip"`
	Hostname   string     `json:"hostname"`
	Vendor     string     `json:"vendor"`
	DeviceType string     `json:"device_type"`
	ScanMethod string     `json:"scan_method"`
	FirstSeen  time.Time  `json:"first_seen"`
	LastSeen   time.Time  `json:"last_seen"`
	IPHistory  []IPRecord `json:"ip_history"`
}

// ScanResult is a single raw sighting produced by one discovery method.
// Results are transient; they are merged into Device records and never
// stored directly.
type ScanResult struct {
	IP        string    `json:"ip"`
	MAC       string    `json:"mac"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
}

// Point is one time-series sample: a measurement name, optional tags,
// and a set of named numeric/string fields.
type Point struct {
	Measurement string            `json:"measurement"`
	Tags        map[string]string `json:"tags,omitempty"`
	Fields      map[string]any    `json:"fields"`
	Timestamp   time.Time         `json:"timestamp"`
}

// SecurityEvent is the persisted, append-only record of something the
// analyzer (or a collector) observed. Events survive alert throttling.
type SecurityEvent struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	Severity   string         `json:"severity"`
	Timestamp  time.Time      `json:"timestamp"`
	SourceIP   string         `json:"source_ip,omitempty"`
	SourceMAC  string         `json:"source_mac,omitempty"`
	TargetIP   string         `json:"target_ip,omitempty"`
	TargetPort int            `json:"target_port,omitempty"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
}

// EventFilter narrows a QueryEvents call. Zero values mean "any".
type EventFilter struct {
	EventType string
	Severity  string
	SourceMAC string
	Since     time.Time
}

// DocumentStore is the entity-store port: device registry and event log.
// Implementations must provide atomic upsert-by-MAC semantics so that
// concurrent writers to the same device record do not interleave.
type DocumentStore interface {
	UpsertDevice(ctx context.Context, d Device) error
	GetDeviceByMAC(ctx context.Context, mac string) (Device, error)
	GetAllDevices(ctx context.Context) ([]Device, error)
	GetActiveDevices(ctx context.Context, since time.Duration) ([]Device, error)
	CreateEvent(ctx context.Context, ev SecurityEvent) error
	QueryEvents(ctx context.Context, f EventFilter, limit int) ([]SecurityEvent, error)
}

// TimeSeries is the metric-store port. It must support concurrent writers;
// it is the serialization point between collectors and the analyzer.
type TimeSeries interface {
	WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]any, ts time.Time) error
	RangeQuery(ctx context.Context, measurement string, start, end time.Time, tags map[string]string) ([]Point, error)
	// MostRecent returns the newest point for measurement not older than
	// within. It returns ErrNoData when nothing qualifies.
	MostRecent(ctx context.Context, measurement string, within time.Duration) (Point, error)
}
