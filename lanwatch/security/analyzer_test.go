package security

import (
	"context"
	"testing"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/alerting"
)

// fakeDocs is an in-memory DocumentStore. Events written through
// CreateEvent land in created, so tests can count what the analyzer
// persisted independently of alert throttling.
type fakeDocs struct {
	devices []lanwatch.Device
	events  []lanwatch.SecurityEvent
	created []lanwatch.SecurityEvent
}

func (f *fakeDocs) UpsertDevice(ctx context.Context, d lanwatch.Device) error { return nil }

func (f *fakeDocs) GetDeviceByMAC(ctx context.Context, mac string) (lanwatch.Device, error) {
	for _, d := range f.devices {
		if d.MAC == mac {
			return d, nil
		}
	}
	return lanwatch.Device{}, lanwatch.ErrNotFound
}

func (f *fakeDocs) GetAllDevices(ctx context.Context) ([]lanwatch.Device, error) {
	return f.devices, nil
}

func (f *fakeDocs) GetActiveDevices(ctx context.Context, since time.Duration) ([]lanwatch.Device, error) {
	return f.devices, nil
}

func (f *fakeDocs) CreateEvent(ctx context.Context, ev lanwatch.SecurityEvent) error {
	f.created = append(f.created, ev)
	return nil
}

func (f *fakeDocs) QueryEvents(ctx context.Context, filter lanwatch.EventFilter, limit int) ([]lanwatch.SecurityEvent, error) {
	var out []lanwatch.SecurityEvent
	for _, ev := range f.events {
		if filter.EventType != "" && ev.EventType != filter.EventType {
			continue
		}
		if !filter.Since.IsZero() && !ev.Timestamp.After(filter.Since) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

type fakeTS struct {
	points map[string][]lanwatch.Point
}

func (f *fakeTS) WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]any, ts time.Time) error {
	if f.points == nil {
		f.points = make(map[string][]lanwatch.Point)
	}
	f.points[measurement] = append(f.points[measurement], lanwatch.Point{
		Measurement: measurement, Tags: tags, Fields: fields, Timestamp: ts,
	})
	return nil
}

func (f *fakeTS) RangeQuery(ctx context.Context, measurement string, start, end time.Time, tags map[string]string) ([]lanwatch.Point, error) {
	var out []lanwatch.Point
	for _, p := range f.points[measurement] {
		if p.Timestamp.After(start) && !p.Timestamp.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeTS) MostRecent(ctx context.Context, measurement string, within time.Duration) (lanwatch.Point, error) {
	pts := f.points[measurement]
	if len(pts) == 0 {
		return lanwatch.Point{}, lanwatch.ErrNoData
	}
	return pts[len(pts)-1], nil
}

func newTestAnalyzer(docs *fakeDocs, ts *fakeTS, t0 time.Time) (*Analyzer, *time.Time) {
	alerts := alerting.NewManager(nil)
	a := NewAnalyzer(docs, ts, alerts, Thresholds{})
	now := t0
	a.now = func() time.Time { return now }
	return a, &now
}

func countEvents(events []lanwatch.SecurityEvent, eventType string) int {
	n := 0
	for _, ev := range events {
		if ev.EventType == eventType {
			n++
		}
	}
	return n
}

func TestBandwidthSpikeRaisesHighAlert(t *testing.T) {
	t.Log("\n🔍 Testing bandwidth anomaly detection...")

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocs{}
	ts := &fakeTS{}

	// Peak at 3× the 50 Mbps threshold inside the 15-minute window.
	for i := 0; i < 5; i++ {
		_ = ts.WritePoint(context.Background(), lanwatch.MeasurementBandwidth, nil,
			map[string]any{"total_mbps": 20.0}, t0.Add(-time.Duration(10-i)*time.Minute))
	}
	_ = ts.WritePoint(context.Background(), lanwatch.MeasurementBandwidth, nil,
		map[string]any{"total_mbps": 150.0}, t0.Add(-time.Minute))

	a, _ := newTestAnalyzer(docs, ts, t0)
	a.Analyze(context.Background())

	if got := countEvents(docs.created, lanwatch.EventTypeHighBandwidth); got != 1 {
		t.Fatalf("❌ Expected exactly 1 high_bandwidth event, got %d", got)
	}
	ev := docs.created[len(docs.created)-1]
	if ev.Severity != lanwatch.SeverityHigh {
		t.Errorf("❌ Peak at 3× threshold should be high severity, got %s", ev.Severity)
	}

	t.Log("\n✅ Bandwidth anomaly test passed")
}

func TestBandwidthSeverityTiers(t *testing.T) {
	cases := []struct {
		peak float64
		want string
	}{
		{160, lanwatch.SeverityHigh},  // > 2× threshold
		{80, lanwatch.SeverityMedium}, // > 1.5× threshold
		{60, lanwatch.SeverityLow},    // above threshold only
	}
	for _, c := range cases {
		t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		docs := &fakeDocs{}
		ts := &fakeTS{}
		_ = ts.WritePoint(context.Background(), lanwatch.MeasurementBandwidth, nil,
			map[string]any{"total_mbps": c.peak}, t0.Add(-time.Minute))

		a, _ := newTestAnalyzer(docs, ts, t0)
		a.Analyze(context.Background())

		if len(docs.created) != 1 || docs.created[0].Severity != c.want {
			t.Errorf("peak %.0f: expected %s severity event, got %+v", c.peak, c.want, docs.created)
		}
	}
}

func TestPortScanAlertsOncePerHour(t *testing.T) {
	t.Log("\n🔍 Testing port-scan detection and suppression...")

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocs{}
	mac := "aa:bb:cc:dd:ee:01"
	for port := 8000; port < 8012; port++ {
		docs.events = append(docs.events, lanwatch.SecurityEvent{
			EventType:  lanwatch.EventTypeConnection,
			Timestamp:  t0.Add(-30 * time.Minute),
			SourceMAC:  mac,
			TargetIP:   "192.168.1.1",
			TargetPort: port,
		})
	}

	a, now := newTestAnalyzer(docs, &fakeTS{}, t0)
	a.Analyze(context.Background())
	if got := countEvents(docs.created, lanwatch.EventTypePortScan); got != 1 {
		t.Fatalf("❌ Expected 1 port_scan event from first cycle, got %d", got)
	}

	// More ports inside the hour: still no second alert.
	docs.events = append(docs.events, lanwatch.SecurityEvent{
		EventType: lanwatch.EventTypeConnection,
		Timestamp: t0.Add(10 * time.Minute),
		SourceMAC: mac, TargetIP: "192.168.1.1", TargetPort: 8050,
	})
	*now = t0.Add(30 * time.Minute)
	a.Analyze(context.Background())
	if got := countEvents(docs.created, lanwatch.EventTypePortScan); got != 1 {
		t.Fatalf("❌ Port scan re-alerted within the hour, got %d events", got)
	}

	// Past the hour the suppression lifts.
	docs.events = append(docs.events, lanwatch.SecurityEvent{
		EventType: lanwatch.EventTypeConnection,
		Timestamp: t0.Add(70 * time.Minute),
		SourceMAC: mac, TargetIP: "192.168.1.1", TargetPort: 8051,
	})
	*now = t0.Add(90 * time.Minute)
	a.Analyze(context.Background())
	if got := countEvents(docs.created, lanwatch.EventTypePortScan); got != 2 {
		t.Fatalf("❌ Expected second alert after an hour, got %d events", got)
	}

	t.Log("\n✅ Port-scan test passed")
}

func TestConnectionRateThreshold(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocs{}
	mac := "aa:bb:cc:dd:ee:02"
	for i := 0; i < 35; i++ {
		docs.events = append(docs.events, lanwatch.SecurityEvent{
			EventType:  lanwatch.EventTypeConnection,
			Timestamp:  t0.Add(-30 * time.Second),
			SourceMAC:  mac,
			TargetIP:   "10.0.0.5",
			TargetPort: 443,
		})
	}

	a, _ := newTestAnalyzer(docs, &fakeTS{}, t0)
	a.Analyze(context.Background())

	if got := countEvents(docs.created, lanwatch.EventTypeHighConnectionRate); got != 1 {
		t.Errorf("expected 1 high_connection_rate event, got %d", got)
	}
}

func TestSuspiciousDestinationPorts(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocs{}
	mac := "aa:bb:cc:dd:ee:03"
	docs.events = []lanwatch.SecurityEvent{
		// Telnet is in the suspicious table.
		{EventType: lanwatch.EventTypeConnection, Timestamp: t0.Add(-time.Minute), SourceMAC: mac, TargetIP: "10.0.0.9", TargetPort: 23},
		// 443 is ordinary and becomes a learned common destination.
		{EventType: lanwatch.EventTypeConnection, Timestamp: t0.Add(-time.Minute), SourceMAC: mac, TargetIP: "10.0.0.10", TargetPort: 443},
	}

	a, _ := newTestAnalyzer(docs, &fakeTS{}, t0)
	a.Analyze(context.Background())

	if got := countEvents(docs.created, lanwatch.EventTypeSuspiciousConn); got != 1 {
		t.Fatalf("expected 1 suspicious_connection event, got %d", got)
	}
	if _, known := a.commonDests[mac][destination{ip: "10.0.0.10", port: 443}]; !known {
		t.Error("ordinary destination was not learned")
	}
	if _, known := a.commonDests[mac][destination{ip: "10.0.0.9", port: 23}]; known {
		t.Error("suspicious destination must not become a common destination")
	}
}

func TestNewDeviceClassification(t *testing.T) {
	t.Log("\n🔍 Testing new-device detection...")

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocs{
		devices: []lanwatch.Device{
			{MAC: "aa:bb:cc:00:00:01", IP: "192.168.1.21", Hostname: "family-tablet", Vendor: "Apple", LastSeen: t0},
			{MAC: "aa:bb:cc:00:00:02", IP: "192.168.1.66", Hostname: "kali-box", Vendor: "RaspberryPi", LastSeen: t0},
		},
	}

	a, _ := newTestAnalyzer(docs, &fakeTS{}, t0)
	a.Analyze(context.Background())

	if got := countEvents(docs.created, lanwatch.EventTypeNewDevice); got != 2 {
		t.Fatalf("❌ Expected 2 new_device events, got %d", got)
	}
	bySrc := make(map[string]lanwatch.SecurityEvent)
	for _, ev := range docs.created {
		bySrc[ev.SourceMAC] = ev
	}
	if bySrc["aa:bb:cc:00:00:01"].Severity != lanwatch.SeverityLow {
		t.Errorf("❌ Ordinary device should be low severity, got %s", bySrc["aa:bb:cc:00:00:01"].Severity)
	}
	if bySrc["aa:bb:cc:00:00:02"].Severity != lanwatch.SeverityMedium {
		t.Errorf("❌ Suspicious hostname should be medium severity, got %s", bySrc["aa:bb:cc:00:00:02"].Severity)
	}

	// Second cycle: both IPs are known now, nothing new to report.
	before := len(docs.created)
	a.Analyze(context.Background())
	if got := countEvents(docs.created[before:], lanwatch.EventTypeNewDevice); got != 0 {
		t.Errorf("❌ Known devices re-alerted: %d events", got)
	}

	t.Log("\n✅ New-device test passed")
}

func TestKnownMACAtNewAddressIsSuspicious(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocs{
		devices: []lanwatch.Device{
			{MAC: "aa:bb:cc:00:00:05", IP: "192.168.1.30", Hostname: "printer", Vendor: "Hewlett-Packard", LastSeen: t0},
		},
	}
	a, _ := newTestAnalyzer(docs, &fakeTS{}, t0)
	a.Analyze(context.Background())

	docs.devices[0].IP = "192.168.1.99"
	a.Analyze(context.Background())

	last := docs.created[len(docs.created)-1]
	if last.EventType != lanwatch.EventTypeNewDevice || last.Severity != lanwatch.SeverityMedium {
		t.Fatalf("expected medium new_device event for address change, got %+v", last)
	}
}

func TestCPUSeverityTiers(t *testing.T) {
	run := func(cpu float64) []lanwatch.SecurityEvent {
		t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		docs := &fakeDocs{}
		ts := &fakeTS{}
		_ = ts.WritePoint(context.Background(), lanwatch.MeasurementPerformance, nil,
			map[string]any{"cpu_percent": cpu}, t0.Add(-time.Minute))
		a, _ := newTestAnalyzer(docs, ts, t0)
		a.Analyze(context.Background())
		return docs.created
	}

	if evs := run(85); len(evs) != 0 {
		t.Errorf("CPU below threshold should not alert, got %+v", evs)
	}
	if evs := run(93); len(evs) != 1 || evs[0].Severity != lanwatch.SeverityMedium {
		t.Errorf("CPU just above threshold should be medium, got %+v", evs)
	}
	if evs := run(98); len(evs) != 1 || evs[0].Severity != lanwatch.SeverityHigh {
		t.Errorf("CPU above threshold+5 should be high, got %+v", evs)
	}
}

func TestDNSQueryRate(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocs{}
	ts := &fakeTS{}
	// 200k queries/day ≈ 139/min, above the 100/min threshold.
	_ = ts.WritePoint(context.Background(), lanwatch.MeasurementDNS, nil,
		map[string]any{"queries_today": 200000.0}, t0.Add(-time.Minute))

	a, _ := newTestAnalyzer(docs, ts, t0)
	a.Analyze(context.Background())

	if got := countEvents(docs.created, lanwatch.EventTypeHighDNSQueryRate); got != 1 {
		t.Errorf("expected 1 high_dns_query_rate event, got %d", got)
	}
}

func TestCleanupEvictsStaleScanState(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a, now := newTestAnalyzer(&fakeDocs{}, &fakeTS{}, t0)

	a.portScans["aa:bb:cc:dd:ee:09"] = &portScanState{
		targets: map[string]*targetState{
			"10.0.0.1": {ports: map[int]struct{}{80: {}}, firstSeen: t0},
		},
	}

	*now = t0.Add(25 * time.Hour)
	a.cleanup()

	if _, ok := a.portScans["aa:bb:cc:dd:ee:09"]; ok {
		t.Error("stale port-scan state was not evicted")
	}
}

func TestSeedSuppressesExistingDevices(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := &fakeDocs{
		devices: []lanwatch.Device{
			{MAC: "aa:bb:cc:00:00:07", IP: "192.168.1.7", Hostname: "nas", Vendor: "Synology", LastSeen: t0},
		},
	}
	a, _ := newTestAnalyzer(docs, &fakeTS{}, t0)
	if err := a.Seed(context.Background()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	a.Analyze(context.Background())

	if got := countEvents(docs.created, lanwatch.EventTypeNewDevice); got != 0 {
		t.Errorf("seeded device re-alerted: %d events", got)
	}
}
