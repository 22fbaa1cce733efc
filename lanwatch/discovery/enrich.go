package discovery

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
)

// HostnameResolver resolves an IP address back to a hostname.
type HostnameResolver interface {
	Hostname(ctx context.Context, ip string) (string, error)
}

// ReverseDNS is the built-in HostnameResolver. Lookups are best-effort
// and bounded by Timeout.
type ReverseDNS struct {
	Timeout time.Duration
}

// Hostname implements HostnameResolver via a PTR lookup.
func (r ReverseDNS) Hostname(ctx context.Context, ip string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return "", err
	}
	return strings.TrimSuffix(names[0], "."), nil
}

// Enricher attaches vendor, hostname, and device type to raw sightings.
// Each sub-lookup fails independently and degrades to a default value;
// enrichment never rejects a device record.
type Enricher struct {
	Vendors   VendorLookup
	Hostnames HostnameResolver
}

// NewEnricher creates an Enricher with the built-in OUI table and reverse
// DNS resolver.
func NewEnricher() *Enricher {
	return &Enricher{
		Vendors:   OUITable{},
		Hostnames: ReverseDNS{},
	}
}

// Enrich converts a merged scan result into a device sighting with vendor,
// hostname, and device type attached.
func (e *Enricher) Enrich(ctx context.Context, res lanwatch.ScanResult) lanwatch.Device {
	vendor := "Unknown"
	if e.Vendors != nil {
		v, err := e.Vendors.Vendor(res.MAC)
		if err != nil {
			slog.Debug("vendor lookup failed", "mac", res.MAC, "error", err)
		} else if v != "" {
			vendor = v
		}
	}

	hostname := ""
	if e.Hostnames != nil {
		h, err := e.Hostnames.Hostname(ctx, res.IP)
		if err != nil {
			slog.Debug("hostname lookup failed", "ip", res.IP, "error", err)
		} else {
			hostname = h
		}
	}

	return lanwatch.Device{
		MAC:        NormalizeMAC(res.MAC),
		IP:         res.IP,
		Hostname:   hostname,
		Vendor:     vendor,
		DeviceType: IdentifyDeviceType(hostname, vendor),
		ScanMethod: res.Method,
		FirstSeen:  res.Timestamp,
		LastSeen:   res.Timestamp,
	}
}
