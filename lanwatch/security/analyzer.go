// Package security implements the heuristic analysis engine. One Analyzer
// instance owns all per-network state (known IPs, port-scan cache,
// bandwidth history); it is driven by a single periodic caller and must
// not be invoked concurrently with itself.
package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/alerting"
)

const (
	activeDeviceWindow  = time.Hour
	bandwidthWindow     = 15 * time.Minute
	connectionWindow    = time.Hour
	connectionRateSpan  = time.Minute
	cpuWindow           = 5 * time.Minute
	portScanAlertEvery  = time.Hour
	portScanRetention   = 24 * time.Hour
	bandwidthRetention  = 24 * time.Hour
	connectionEventsMax = 5000
)

// targetState tracks the distinct ports one device has contacted on one
// target IP.
type targetState struct {
	ports     map[int]struct{}
	firstSeen time.Time
}

// portScanState is the per-source-MAC scan bookkeeping.
type portScanState struct {
	targets   map[string]*targetState
	lastAlert time.Time
}

type destination struct {
	ip   string
	port int
}

type bandwidthSample struct {
	timestamp time.Time
	avg       float64
	peak      float64
}

// Analyzer reads recent telemetry from the storage ports and raises
// alerts through an alerting.Manager. Every alert is also persisted as a
// SecurityEvent so the audit log survives notification throttling.
type Analyzer struct {
	docs       lanwatch.DocumentStore
	ts         lanwatch.TimeSeries
	alerts     *alerting.Manager
	thresholds Thresholds

	knownIPs    map[string]struct{}
	deviceIPs   map[string]string
	commonDests map[string]map[destination]struct{}
	portScans   map[string]*portScanState
	bwHistory   []bandwidthSample

	now func() time.Time
}

// NewAnalyzer builds an analyzer with empty state. Pass zero-valued
// thresholds to use the defaults.
func NewAnalyzer(docs lanwatch.DocumentStore, ts lanwatch.TimeSeries, alerts *alerting.Manager, th Thresholds) *Analyzer {
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}
	return &Analyzer{
		docs:        docs,
		ts:          ts,
		alerts:      alerts,
		thresholds:  th,
		knownIPs:    make(map[string]struct{}),
		deviceIPs:   make(map[string]string),
		commonDests: make(map[string]map[destination]struct{}),
		portScans:   make(map[string]*portScanState),
		now:         time.Now,
	}
}

// Seed pre-loads the known-IP set from the device registry so a restart
// does not re-alert on every device already on the network.
func (a *Analyzer) Seed(ctx context.Context) error {
	devices, err := a.docs.GetAllDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed analyzer state: %w", err)
	}
	for _, d := range devices {
		if d.IP != "" {
			a.knownIPs[d.IP] = struct{}{}
		}
		a.deviceIPs[d.MAC] = d.IP
	}
	return nil
}

// Analyze runs one full analysis cycle. Each check fails independently:
// a storage read error means "no signal" for that check, never an
// aborted cycle.
func (a *Analyzer) Analyze(ctx context.Context) {
	a.checkNewDevices(ctx)
	a.checkBandwidth(ctx)
	a.checkConnectionPatterns(ctx)
	a.checkSystemPerformance(ctx)
	a.checkDNSRate(ctx)
	a.cleanup()
}

// checkNewDevices flags devices whose IP the analyzer has not seen
// before, escalating when the device looks like attack tooling or a
// known MAC shows up at a different address.
func (a *Analyzer) checkNewDevices(ctx context.Context) {
	devices, err := a.docs.GetActiveDevices(ctx, activeDeviceWindow)
	if err != nil {
		slog.Error("Could not load active devices", "error", err)
		return
	}
	for _, d := range devices {
		if d.IP == "" {
			continue
		}
		if _, ok := a.knownIPs[d.IP]; ok {
			continue
		}

		reasons := suspicionReasons(d)
		if prev, ok := a.deviceIPs[d.MAC]; ok && prev != "" && prev != d.IP {
			reasons = append(reasons, fmt.Sprintf("MAC previously seen at %s", prev))
		}

		severity := lanwatch.SeverityLow
		if len(reasons) > 0 {
			severity = lanwatch.SeverityMedium
		}
		details := map[string]any{
			"message":  fmt.Sprintf("New device on network: %s (%s)", deviceLabel(d), d.IP),
			"ip":       d.IP,
			"mac":      d.MAC,
			"hostname": d.Hostname,
			"vendor":   d.Vendor,
		}
		if len(reasons) > 0 {
			details["reasons"] = strings.Join(reasons, "; ")
		}
		dev := d
		a.emit(ctx, lanwatch.EventTypeNewDevice, severity, details, &dev, nil)

		a.knownIPs[d.IP] = struct{}{}
		a.deviceIPs[d.MAC] = d.IP
	}
}

func suspicionReasons(d lanwatch.Device) []string {
	var reasons []string
	if _, ok := suspiciousVendors[strings.ToLower(strings.TrimSpace(d.Vendor))]; ok {
		reasons = append(reasons, fmt.Sprintf("vendor %q", d.Vendor))
	}
	host := strings.ToLower(d.Hostname)
	for _, frag := range suspiciousHostnames {
		if host != "" && strings.Contains(host, frag) {
			reasons = append(reasons, fmt.Sprintf("hostname matches %q", frag))
			break
		}
	}
	return reasons
}

func deviceLabel(d lanwatch.Device) string {
	if d.Hostname != "" {
		return d.Hostname
	}
	return d.MAC
}

// checkBandwidth compares the last 15 minutes of throughput samples
// against the configured ceiling and keeps a 24h rolling history of
// per-cycle averages for trend context.
func (a *Analyzer) checkBandwidth(ctx context.Context) {
	now := a.now()
	points, err := a.ts.RangeQuery(ctx, lanwatch.MeasurementBandwidth, now.Add(-bandwidthWindow), now, nil)
	if err != nil {
		slog.Error("Could not query bandwidth points", "error", err)
		return
	}
	if len(points) == 0 {
		return
	}

	var sum, peak float64
	var count int
	for _, p := range points {
		mbps, ok := numericField(p.Fields, "total_mbps")
		if !ok {
			continue
		}
		sum += mbps
		count++
		if mbps > peak {
			peak = mbps
		}
	}
	if count == 0 {
		return
	}
	avg := sum / float64(count)

	a.bwHistory = append(a.bwHistory, bandwidthSample{timestamp: now, avg: avg, peak: peak})
	cutoff := now.Add(-bandwidthRetention)
	for len(a.bwHistory) > 0 && a.bwHistory[0].timestamp.Before(cutoff) {
		a.bwHistory = a.bwHistory[1:]
	}

	threshold := a.thresholds.BandwidthMbps
	if peak <= threshold {
		return
	}
	severity := lanwatch.SeverityLow
	switch {
	case peak > 2*threshold:
		severity = lanwatch.SeverityHigh
	case peak > 1.5*threshold:
		severity = lanwatch.SeverityMedium
	}
	a.emit(ctx, lanwatch.EventTypeHighBandwidth, severity, map[string]any{
		"message":        fmt.Sprintf("Bandwidth peak %.1f Mbps exceeds %.1f Mbps threshold", peak, threshold),
		"peak_mbps":      peak,
		"avg_mbps":       avg,
		"threshold_mbps": threshold,
	}, nil, nil)
}

// checkConnectionPatterns inspects the last hour of connection events per
// source device for port scans, connection-rate bursts, and contact with
// suspicious destination ports.
func (a *Analyzer) checkConnectionPatterns(ctx context.Context) {
	now := a.now()
	events, err := a.docs.QueryEvents(ctx, lanwatch.EventFilter{
		EventType: lanwatch.EventTypeConnection,
		Since:     now.Add(-connectionWindow),
	}, connectionEventsMax)
	if err != nil {
		slog.Error("Could not query connection events", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	byDevice := make(map[string][]lanwatch.SecurityEvent)
	for _, ev := range events {
		if ev.SourceMAC == "" {
			continue
		}
		byDevice[ev.SourceMAC] = append(byDevice[ev.SourceMAC], ev)
	}

	for mac, evs := range byDevice {
		a.checkPortScan(ctx, mac, evs, now)
		a.checkConnectionRate(ctx, mac, evs, now)
		a.checkUnusualDestinations(ctx, mac, evs)
	}
}

func (a *Analyzer) checkPortScan(ctx context.Context, mac string, events []lanwatch.SecurityEvent, now time.Time) {
	state, ok := a.portScans[mac]
	if !ok {
		state = &portScanState{targets: make(map[string]*targetState)}
		a.portScans[mac] = state
	}

	for _, ev := range events {
		if ev.TargetIP == "" || ev.TargetPort == 0 {
			continue
		}
		tgt, ok := state.targets[ev.TargetIP]
		if !ok {
			tgt = &targetState{ports: make(map[int]struct{}), firstSeen: ev.Timestamp}
			state.targets[ev.TargetIP] = tgt
		}
		tgt.ports[ev.TargetPort] = struct{}{}
	}

	// One alert per source MAC per hour, no matter how many targets or
	// how many more ports show up in between.
	if !state.lastAlert.IsZero() && now.Sub(state.lastAlert) < portScanAlertEvery {
		return
	}
	for ip, tgt := range state.targets {
		if len(tgt.ports) < a.thresholds.PortScanMinPorts {
			continue
		}
		state.lastAlert = now
		a.emit(ctx, lanwatch.EventTypePortScan, lanwatch.SeverityMedium, map[string]any{
			"message":    fmt.Sprintf("Possible port scan: %s contacted %d ports on %s", mac, len(tgt.ports), ip),
			"source_mac": mac,
			"target_ip":  ip,
			"port_count": len(tgt.ports),
		}, nil, nil)
		return
	}
}

func (a *Analyzer) checkConnectionRate(ctx context.Context, mac string, events []lanwatch.SecurityEvent, now time.Time) {
	cutoff := now.Add(-connectionRateSpan)
	recent := 0
	for _, ev := range events {
		if ev.Timestamp.After(cutoff) {
			recent++
		}
	}
	if recent <= a.thresholds.ConnectionRate {
		return
	}
	a.emit(ctx, lanwatch.EventTypeHighConnectionRate, lanwatch.SeverityMedium, map[string]any{
		"message":     fmt.Sprintf("Device %s opened %d connections in the last minute", mac, recent),
		"source_mac":  mac,
		"connections": recent,
		"threshold":   a.thresholds.ConnectionRate,
	}, nil, nil)
}

func (a *Analyzer) checkUnusualDestinations(ctx context.Context, mac string, events []lanwatch.SecurityEvent) {
	dests, ok := a.commonDests[mac]
	if !ok {
		dests = make(map[destination]struct{})
		a.commonDests[mac] = dests
	}

	for _, ev := range events {
		if ev.TargetIP == "" || ev.TargetPort == 0 {
			continue
		}
		dest := destination{ip: ev.TargetIP, port: ev.TargetPort}
		service, suspicious := suspiciousPorts[ev.TargetPort]
		if !suspicious {
			// Learn ordinary traffic as a baseline. The set grows
			// unbounded per device; cleanup only evicts scan state.
			dests[dest] = struct{}{}
			continue
		}
		if _, known := dests[dest]; known {
			continue
		}
		a.emit(ctx, lanwatch.EventTypeSuspiciousConn, lanwatch.SeverityMedium, map[string]any{
			"message":     fmt.Sprintf("Device %s contacted %s:%d (%s)", mac, ev.TargetIP, ev.TargetPort, service),
			"source_mac":  mac,
			"target_ip":   ev.TargetIP,
			"target_port": ev.TargetPort,
			"service":     service,
		}, nil, nil)
	}
}

// checkSystemPerformance alerts when the 5-minute average CPU usage
// crosses the configured threshold.
func (a *Analyzer) checkSystemPerformance(ctx context.Context) {
	now := a.now()
	points, err := a.ts.RangeQuery(ctx, lanwatch.MeasurementPerformance, now.Add(-cpuWindow), now, nil)
	if err != nil {
		slog.Error("Could not query performance points", "error", err)
		return
	}
	var sum float64
	var count int
	for _, p := range points {
		cpu, ok := numericField(p.Fields, "cpu_percent")
		if !ok {
			continue
		}
		sum += cpu
		count++
	}
	if count == 0 {
		return
	}
	avg := sum / float64(count)
	threshold := a.thresholds.CPUPercent
	if avg <= threshold {
		return
	}
	severity := lanwatch.SeverityMedium
	if avg > threshold+5 {
		severity = lanwatch.SeverityHigh
	}
	a.emit(ctx, lanwatch.EventTypeHighCPUUsage, severity, map[string]any{
		"message":           fmt.Sprintf("CPU usage averaged %.1f%% over the last 5 minutes", avg),
		"cpu_percent":       avg,
		"threshold_percent": threshold,
	}, nil, nil)
}

// checkDNSRate derives the average per-minute query rate from the
// resolver's daily total and alerts when it exceeds the threshold.
func (a *Analyzer) checkDNSRate(ctx context.Context) {
	point, err := a.ts.MostRecent(ctx, lanwatch.MeasurementDNS, time.Hour)
	if err != nil {
		if !errors.Is(err, lanwatch.ErrNoData) {
			slog.Error("Could not query DNS stats", "error", err)
		}
		return
	}
	queries, ok := numericField(point.Fields, "queries_today")
	if !ok {
		return
	}
	rate := queries / (24 * 60)
	if rate <= a.thresholds.DNSQueryRate {
		return
	}
	a.emit(ctx, lanwatch.EventTypeHighDNSQueryRate, lanwatch.SeverityMedium, map[string]any{
		"message":           fmt.Sprintf("DNS query rate %.1f/min exceeds %.1f/min", rate, a.thresholds.DNSQueryRate),
		"queries_per_min":   rate,
		"queries_today":     queries,
		"threshold_per_min": a.thresholds.DNSQueryRate,
	}, nil, nil)
}

// cleanup evicts stale port-scan state so the cache does not grow for
// devices that stopped scanning, or that were scanned once and left.
func (a *Analyzer) cleanup() {
	cutoff := a.now().Add(-portScanRetention)
	for mac, state := range a.portScans {
		for ip, tgt := range state.targets {
			if tgt.firstSeen.Before(cutoff) {
				delete(state.targets, ip)
			}
		}
		if len(state.targets) == 0 {
			delete(a.portScans, mac)
		}
	}
}

// emit routes an alert through the manager and persists it as an event.
// The event write is unconditional: the audit trail records everything
// the checks saw, even when notification was throttled or failed.
func (a *Analyzer) emit(ctx context.Context, eventType, severity string, details map[string]any, source, target *lanwatch.Device) {
	a.alerts.Trigger(eventType, severity, details, source, target)

	ev := lanwatch.SecurityEvent{
		EventType: eventType,
		Severity:  severity,
		Timestamp: a.now(),
		Message:   fmt.Sprint(details["message"]),
		Details:   details,
	}
	if source != nil {
		ev.SourceIP = source.IP
		ev.SourceMAC = source.MAC
	}
	if mac, ok := details["source_mac"].(string); ok && ev.SourceMAC == "" {
		ev.SourceMAC = mac
	}
	if ip, ok := details["target_ip"].(string); ok {
		ev.TargetIP = ip
	}
	if port, ok := details["target_port"].(int); ok {
		ev.TargetPort = port
	}
	if err := a.docs.CreateEvent(ctx, ev); err != nil {
		slog.Error("Could not persist security event", "event_type", eventType, "error", err)
	}
}

func numericField(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
