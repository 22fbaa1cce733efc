package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/discovery"
	"github.com/LanWatch/go-monitor/lanwatch/probe"
)

// ConnectionProbe enumerates currently tracked TCP flows.
type ConnectionProbe interface {
	Connections(ctx context.Context) ([]probe.Connection, error)
}

// ARPResolver maps LAN IP addresses to MACs, usually via the ARP table.
type ARPResolver interface {
	Scan(ctx context.Context) ([]lanwatch.ScanResult, error)
}

// ConnectionCollector turns newly observed TCP flows into "connection"
// events in the document store; the security analyzer mines those for
// port scans, rate bursts, and suspicious destinations. Flows already
// seen on the previous tick are not re-logged.
type ConnectionCollector struct {
	tracker ConnectionProbe
	arp     ARPResolver
	docs    lanwatch.DocumentStore

	prev map[probe.Connection]struct{}
}

func NewConnectionCollector(tracker ConnectionProbe, arp ARPResolver, docs lanwatch.DocumentStore) *ConnectionCollector {
	return &ConnectionCollector{
		tracker: tracker,
		arp:     arp,
		docs:    docs,
		prev:    make(map[probe.Connection]struct{}),
	}
}

func (c *ConnectionCollector) Name() string { return "connections" }

func (c *ConnectionCollector) Collect(ctx context.Context) (Snapshot, error) {
	conns, err := c.tracker.Connections(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	macByIP := make(map[string]string)
	if c.arp != nil {
		if entries, err := c.arp.Scan(ctx); err != nil {
			slog.Debug("arp lookup for connection events failed", "error", err)
		} else {
			for _, e := range entries {
				macByIP[e.IP] = e.MAC
			}
		}
	}

	now := time.Now()
	cur := make(map[probe.Connection]struct{}, len(conns))
	logged := 0
	for _, conn := range conns {
		cur[conn] = struct{}{}
		if _, seen := c.prev[conn]; seen {
			continue
		}
		mac, ok := macByIP[conn.SourceIP]
		if !ok {
			// A flow we can't attribute to a device is useless to the
			// per-MAC heuristics.
			continue
		}
		ev := lanwatch.SecurityEvent{
			EventType:  lanwatch.EventTypeConnection,
			Severity:   lanwatch.SeverityLow,
			Timestamp:  now,
			SourceIP:   conn.SourceIP,
			SourceMAC:  discovery.NormalizeMAC(mac),
			TargetIP:   conn.TargetIP,
			TargetPort: conn.TargetPort,
			Message:    "tcp connection observed",
		}
		if err := c.docs.CreateEvent(ctx, ev); err != nil {
			slog.Warn("failed to log connection event", "error", err)
			continue
		}
		logged++
	}
	c.prev = cur

	return Snapshot{
		Timestamp: now,
		Fields: map[string]any{
			"tracked": len(conns),
			"new":     logged,
		},
	}, nil
}
