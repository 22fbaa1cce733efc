package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/discovery"
	"github.com/LanWatch/go-monitor/lanwatch/metrics"
	"github.com/LanWatch/go-monitor/lanwatch/store"
)

// DiscoveryProbe is one way of finding hosts on the network.
type DiscoveryProbe interface {
	Scan(ctx context.Context) ([]lanwatch.ScanResult, error)
}

// DeviceCollector sweeps the network with every configured probe, merges
// the sightings into device records, and reconciles them into the
// registry. Probe order matters: earlier probes win merge conflicts, so
// the most trustworthy method (ARP) goes first.
type DeviceCollector struct {
	probes   []DiscoveryProbe
	enricher *discovery.Enricher
	docs     lanwatch.DocumentStore
	ts       lanwatch.TimeSeries
	cache    *store.Cache
}

// NewDeviceCollector wires the discovery pipeline. cache may be nil.
func NewDeviceCollector(probes []DiscoveryProbe, enricher *discovery.Enricher, docs lanwatch.DocumentStore, ts lanwatch.TimeSeries, cache *store.Cache) *DeviceCollector {
	return &DeviceCollector{
		probes:   probes,
		enricher: enricher,
		docs:     docs,
		ts:       ts,
		cache:    cache,
	}
}

func (c *DeviceCollector) Name() string { return "devices" }

// Collect runs all probes, merges and enriches their results, and
// upserts each device. A single probe or device failure never aborts the
// rest of the sweep.
func (c *DeviceCollector) Collect(ctx context.Context) (Snapshot, error) {
	sets := make([][]lanwatch.ScanResult, 0, len(c.probes))
	for _, p := range c.probes {
		results, err := p.Scan(ctx)
		if err != nil {
			slog.Warn("discovery probe failed", "error", err)
			continue
		}
		sets = append(sets, results)
	}
	if len(sets) == 0 {
		return Snapshot{}, fmt.Errorf("all discovery probes failed")
	}

	merged := discovery.Merge(sets...)
	stored := 0
	for _, res := range merged {
		incoming := c.enricher.Enrich(ctx, res)

		var existing *lanwatch.Device
		if cur, err := c.docs.GetDeviceByMAC(ctx, incoming.MAC); err == nil {
			existing = &cur
		}
		device := discovery.Reconcile(incoming, existing)
		if err := c.docs.UpsertDevice(ctx, device); err != nil {
			slog.Error("failed to upsert device", "mac", device.MAC, "error", err)
			continue
		}
		stored++
	}

	return Snapshot{
		Timestamp: time.Now(),
		Fields: map[string]any{
			"device_count": stored,
			"discovered":   len(merged),
		},
	}, nil
}

// Store records the device count as a time-series point and mirrors the
// snapshot into the cache for the dashboard.
func (c *DeviceCollector) Store(ctx context.Context, snap Snapshot) error {
	count, _ := snap.Fields["device_count"].(int)
	metrics.DevicesSeen.Set(float64(count))

	if err := c.ts.WritePoint(ctx, lanwatch.MeasurementDevices, nil, snap.Fields, snap.Timestamp); err != nil {
		return fmt.Errorf("failed to store device count: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.SaveJSON(ctx, store.SnapshotKey(c.Name()), snap); err != nil {
			slog.Warn("failed to cache device snapshot", "error", err)
		}
	}
	return nil
}
