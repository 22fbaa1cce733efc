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

// ResolverProbe reports the DNS resolver's daily counters. Satisfied by
// probe.PiholeClient.
type ResolverProbe interface {
	Summary(ctx context.Context) (probe.ResolverStats, error)
}

// DNSStatsCollector polls the resolver for query volume. The analyzer
// derives its per-minute query rate from these points.
type DNSStatsCollector struct {
	resolver ResolverProbe
	ts       lanwatch.TimeSeries
	cache    *store.Cache
}

func NewDNSStatsCollector(resolver ResolverProbe, ts lanwatch.TimeSeries, cache *store.Cache) *DNSStatsCollector {
	return &DNSStatsCollector{resolver: resolver, ts: ts, cache: cache}
}

func (c *DNSStatsCollector) Name() string { return "dns" }

func (c *DNSStatsCollector) Collect(ctx context.Context) (Snapshot, error) {
	stats, err := c.resolver.Summary(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch resolver stats: %w", err)
	}
	return Snapshot{
		Timestamp: time.Now(),
		Fields: map[string]any{
			"queries_today": stats.QueriesToday,
			"blocked_today": stats.BlockedToday,
			"block_percent": stats.BlockPercent,
			"clients":       stats.UniqueClients,
		},
	}, nil
}

func (c *DNSStatsCollector) Store(ctx context.Context, snap Snapshot) error {
	if err := c.ts.WritePoint(ctx, lanwatch.MeasurementDNS, nil, snap.Fields, snap.Timestamp); err != nil {
		return fmt.Errorf("failed to store DNS point: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.SaveJSON(ctx, store.SnapshotKey(c.Name()), snap); err != nil {
			slog.Warn("failed to cache DNS snapshot", "error", err)
		}
	}
	return nil
}
