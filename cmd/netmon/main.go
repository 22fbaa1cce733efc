// Command netmon runs the LanWatch home-network monitor: periodic
// collectors feeding a gorm-backed store, a heuristic security analyzer,
// and alert dispatch over SMTP and AMQP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/alerting"
	"github.com/LanWatch/go-monitor/lanwatch/collector"
	"github.com/LanWatch/go-monitor/lanwatch/config"
	"github.com/LanWatch/go-monitor/lanwatch/discovery"
	"github.com/LanWatch/go-monitor/lanwatch/metrics"
	"github.com/LanWatch/go-monitor/lanwatch/monitor"
	"github.com/LanWatch/go-monitor/lanwatch/postgres"
	"github.com/LanWatch/go-monitor/lanwatch/probe"
	"github.com/LanWatch/go-monitor/lanwatch/security"
	"github.com/LanWatch/go-monitor/lanwatch/slogger"
	"github.com/LanWatch/go-monitor/lanwatch/store"
)

func main() {
	configFile := flag.String("config", "", "optional config file path")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slogger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := postgres.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("Failed to connect to database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	docs := postgres.NewDocumentStore(db)
	ts := postgres.NewTimeSeriesStore(db)

	var cache *store.Cache
	if cfg.ValkeyAddr != "" {
		kv, err := store.NewValkeyStore(cfg.ValkeyAddr)
		if err != nil {
			slog.Warn("Valkey unavailable, snapshot caching disabled", "addr", cfg.ValkeyAddr, "error", err)
		} else {
			defer kv.Close()
			cache = store.NewCache(kv, 300)
		}
	}

	alerts := alerting.NewManager(buildNotifier(cfg))
	if cache != nil {
		alerts.AttachMirror(cache)
	}

	analyzer := security.NewAnalyzer(docs, ts, alerts, security.Thresholds{
		BandwidthMbps: cfg.BandwidthThresholdMbps,
		CPUPercent:    cfg.CPUThresholdPercent,
	})
	if err := analyzer.Seed(context.Background()); err != nil {
		slog.Warn("Could not seed analyzer from registry", "error", err)
	}

	mgr := monitor.NewManager(analyzer, cfg.SecurityInterval)
	addCollectors(mgr, cfg, docs, ts, cache)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	mgr.Start()
	slog.Info("netmon started", "interface", cfg.Interface, "network", cfg.NetworkCIDR)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	slog.Info("shutting down", "signal", s.String())
	mgr.Stop()
}

func addCollectors(mgr *monitor.Manager, cfg *config.Config, docs lanwatch.DocumentStore, ts lanwatch.TimeSeries, cache *store.Cache) {
	arp := &probe.ARPScanner{}
	probes := []collector.DiscoveryProbe{
		arp,
		&probe.PingSweeper{CIDR: cfg.NetworkCIDR, ARP: arp},
	}
	mgr.AddCollector(collector.NewDeviceCollector(probes, discovery.NewEnricher(), docs, ts, cache), cfg.DeviceScanInterval)

	reader := &probe.NetDevReader{Interface: cfg.Interface}
	mgr.AddCollector(collector.NewBandwidthCollector(reader, ts, cache), cfg.BandwidthInterval)

	mgr.AddCollector(collector.NewPerformanceCollector(&probe.SysStatReader{}, ts, cache), cfg.PerformanceInterval)

	tracker := &probe.ConnTracker{LocalCIDR: cfg.NetworkCIDR}
	mgr.AddCollector(collector.NewConnectionCollector(tracker, arp, docs), cfg.ConnectionInterval)

	if cfg.PiholeEnabled {
		pihole := &probe.PiholeClient{BaseURL: cfg.PiholeAPIURL, Token: cfg.PiholeAPIKey}
		mgr.AddCollector(collector.NewDNSStatsCollector(pihole, ts, cache), cfg.DNSStatsInterval)
	}
}

// buildNotifier assembles the configured notification channels. With
// nothing configured the manager still records and throttles alerts; it
// just has nowhere to send them.
func buildNotifier(cfg *config.Config) alerting.Notifier {
	var channels alerting.MultiNotifier
	if cfg.SMTPServer != "" && cfg.AlertEmail != "" {
		channels = append(channels, &alerting.EmailNotifier{
			Server:   cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPUsername,
			To:       cfg.AlertEmail,
		})
	}
	if cfg.AMQPURL != "" {
		channels = append(channels, &alerting.QueueNotifier{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue})
	}
	if len(channels) == 0 {
		return nil
	}
	return channels
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	slog.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server failed", "error", err)
	}
}
