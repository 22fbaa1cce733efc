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

// BandwidthCollector samples interface throughput and the established
// TCP connection count. The first tick after start establishes the
// counter baseline and stores nothing.
type BandwidthCollector struct {
	reader *probe.NetDevReader
	ts     lanwatch.TimeSeries
	cache  *store.Cache
}

func NewBandwidthCollector(reader *probe.NetDevReader, ts lanwatch.TimeSeries, cache *store.Cache) *BandwidthCollector {
	return &BandwidthCollector{reader: reader, ts: ts, cache: cache}
}

func (c *BandwidthCollector) Name() string { return "bandwidth" }

func (c *BandwidthCollector) Collect(ctx context.Context) (Snapshot, error) {
	tp, ok, err := c.reader.Sample()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to sample interface counters: %w", err)
	}
	if !ok {
		return Snapshot{}, ErrSkip
	}
	return Snapshot{
		Timestamp: time.Now(),
		Fields: map[string]any{
			"rx_mbps":     tp.RxMbps,
			"tx_mbps":     tp.TxMbps,
			"total_mbps":  tp.TotalMbps,
			"connections": tp.Connections,
		},
	}, nil
}

func (c *BandwidthCollector) Store(ctx context.Context, snap Snapshot) error {
	if err := c.ts.WritePoint(ctx, lanwatch.MeasurementBandwidth, nil, snap.Fields, snap.Timestamp); err != nil {
		return fmt.Errorf("failed to store bandwidth point: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.SaveJSON(ctx, store.SnapshotKey(c.Name()), snap); err != nil {
			slog.Warn("failed to cache bandwidth snapshot", "error", err)
		}
	}
	return nil
}
