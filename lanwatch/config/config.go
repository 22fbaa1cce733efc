// Package config loads monitor settings from environment variables, an
// optional .env file, and an optional config file, with working defaults
// for a single-subnet home network.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable of the monitor process.
type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Network interface to sample bandwidth on and scan from.
	Interface string
	// Network CIDR swept by the ping prober.
	NetworkCIDR string

	// Document + time-series storage (gorm). Driver: "postgres" | "sqlite".
	DBDriver string
	DBDSN    string

	// Valkey snapshot/alert cache. Empty address disables caching.
	ValkeyAddr string

	// AMQP alert publication. Empty URL disables the queue notifier.
	AMQPURL   string
	AMQPQueue string

	// Pi-hole resolver statistics.
	PiholeEnabled bool
	PiholeAPIURL  string
	PiholeAPIKey  string

	// SMTP alert notifications. Empty server disables email.
	AlertEmail   string
	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Collection intervals.
	BandwidthInterval   time.Duration
	DeviceScanInterval  time.Duration
	PerformanceInterval time.Duration
	DNSStatsInterval    time.Duration
	ConnectionInterval  time.Duration
	SecurityInterval    time.Duration

	// Analyzer thresholds.
	BandwidthThresholdMbps float64
	CPUThresholdPercent    float64

	// Prometheus endpoint. Empty disables the listener.
	MetricsAddr string
}

// Load reads configuration from the environment (NETMON_* variables), an
// optional .env file in the working directory, and an optional config file
// path. Missing values fall back to defaults.
func Load(configFile string) (*Config, error) {
	// .env is a convenience for development; absence is not an error.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	v := viper.New()
	v.SetEnvPrefix("netmon")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),

		Interface:   v.GetString("interface"),
		NetworkCIDR: v.GetString("network.cidr"),

		DBDriver: v.GetString("db.driver"),
		DBDSN:    v.GetString("db.dsn"),

		ValkeyAddr: v.GetString("valkey.addr"),

		AMQPURL:   v.GetString("amqp.url"),
		AMQPQueue: v.GetString("amqp.queue"),

		PiholeEnabled: v.GetBool("pihole.enabled"),
		PiholeAPIURL:  v.GetString("pihole.api_url"),
		PiholeAPIKey:  v.GetString("pihole.api_key"),

		AlertEmail:   v.GetString("alert.email"),
		SMTPServer:   v.GetString("smtp.server"),
		SMTPPort:     v.GetInt("smtp.port"),
		SMTPUsername: v.GetString("smtp.username"),
		SMTPPassword: v.GetString("smtp.password"),

		BandwidthInterval:   v.GetDuration("interval.bandwidth"),
		DeviceScanInterval:  v.GetDuration("interval.devices"),
		PerformanceInterval: v.GetDuration("interval.performance"),
		DNSStatsInterval:    v.GetDuration("interval.dns"),
		ConnectionInterval:  v.GetDuration("interval.connections"),
		SecurityInterval:    v.GetDuration("interval.security"),

		BandwidthThresholdMbps: v.GetFloat64("threshold.bandwidth_mbps"),
		CPUThresholdPercent:    v.GetFloat64("threshold.cpu_percent"),

		MetricsAddr: v.GetString("metrics.addr"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("interface", "eth0")
	v.SetDefault("network.cidr", "192.168.1.0/24")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "netmon.db")

	v.SetDefault("valkey.addr", "")

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.queue", "netmon-alerts")

	v.SetDefault("pihole.enabled", false)
	v.SetDefault("pihole.api_url", "http://pi.hole")
	v.SetDefault("pihole.api_key", "")

	v.SetDefault("alert.email", "")
	v.SetDefault("smtp.server", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")

	v.SetDefault("interval.bandwidth", 5*time.Second)
	v.SetDefault("interval.devices", time.Minute)
	v.SetDefault("interval.performance", 30*time.Second)
	v.SetDefault("interval.dns", time.Minute)
	v.SetDefault("interval.connections", 30*time.Second)
	v.SetDefault("interval.security", 30*time.Minute)

	v.SetDefault("threshold.bandwidth_mbps", 50.0)
	v.SetDefault("threshold.cpu_percent", 90.0)

	v.SetDefault("metrics.addr", "")
}
