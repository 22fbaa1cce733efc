package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/probe"
	"github.com/LanWatch/go-monitor/lanwatch/store"
)

// PerformanceCollector samples host health: CPU, memory, disk, and
// (where available) SoC temperature.
type PerformanceCollector struct {
	reader *probe.SysStatReader
	ts     lanwatch.TimeSeries
	cache  *store.Cache
}

func NewPerformanceCollector(reader *probe.SysStatReader, ts lanwatch.TimeSeries, cache *store.Cache) *PerformanceCollector {
	return &PerformanceCollector{reader: reader, ts: ts, cache: cache}
}

func (c *PerformanceCollector) Name() string { return "performance" }

func (c *PerformanceCollector) Collect(ctx context.Context) (Snapshot, error) {
	stats, err := c.reader.Sample()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to sample system stats: %w", err)
	}
	fields := map[string]any{
		"cpu_percent":    stats.CPUPercent,
		"memory_percent": stats.MemoryPercent,
		"disk_percent":   stats.DiskPercent,
	}
	if stats.TemperatureC >= 0 {
		fields["temperature_c"] = stats.TemperatureC
	}
	return Snapshot{Timestamp: time.Now(), Fields: fields}, nil
}

func (c *PerformanceCollector) Store(ctx context.Context, snap Snapshot) error {
	if err := c.ts.WritePoint(ctx, lanwatch.MeasurementPerformance, nil, snap.Fields, snap.Timestamp); err != nil {
		return fmt.Errorf("failed to store performance point: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.SaveJSON(ctx, store.SnapshotKey(c.Name()), snap); err != nil {
			slog.Warn("failed to cache performance snapshot", "error", err)
		}
	}
	return nil
}
