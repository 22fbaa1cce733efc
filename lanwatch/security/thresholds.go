package security

// Thresholds are the tunables of the heuristic checks.
type Thresholds struct {
	// BandwidthMbps is the peak-throughput alert threshold.
	BandwidthMbps float64
	// CPUPercent is the 5-minute average CPU alert threshold.
	CPUPercent float64
	// ConnectionRate is the per-minute connection-count alert threshold.
	ConnectionRate int
	// PortScanMinPorts is the distinct-port count that qualifies as a
	// port scan of one target.
	PortScanMinPorts int
	// DNSQueryRate is the per-minute DNS query-rate alert threshold.
	DNSQueryRate float64
}

// DefaultThresholds returns the stock heuristic tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BandwidthMbps:    50.0,
		CPUPercent:       90.0,
		ConnectionRate:   30,
		PortScanMinPorts: 10,
		DNSQueryRate:     100.0,
	}
}

// suspiciousPorts maps commonly exploited target ports to the service
// usually behind them.
var suspiciousPorts = map[int]string{
	22:   "SSH",
	23:   "Telnet",
	445:  "SMB",
	1433: "MSSQL",
	3306: "MySQL",
	3389: "RDP",
	4444: "Metasploit",
	5900: "VNC",
	8080: "HTTP alternate",
	8443: "HTTPS alternate",
	9100: "Printer",
}

// Vendors whose appearance on a home network warrants a closer look.
var suspiciousVendors = map[string]struct{}{
	"unknown":     {},
	"raspberrypi": {},
	"arduino":     {},
	"espressif":   {},
}

// Hostname fragments associated with attack tooling or throwaway hosts.
var suspiciousHostnames = []string{"kali", "parrot", "pentoo", "blackarch", "test", "admin"}
