package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
)

type fakeResolver struct {
	name string
	err  error
}

func (f fakeResolver) Hostname(ctx context.Context, ip string) (string, error) {
	return f.name, f.err
}

func TestEnrichAttachesMetadata(t *testing.T) {
	e := &Enricher{
		Vendors:   OUITable{},
		Hostnames: fakeResolver{name: "pi-hole"},
	}
	res := lanwatch.ScanResult{
		IP:        "192.168.1.2",
		MAC:       "B8:27:EB:AA:BB:CC",
		Timestamp: time.Now(),
		Method:    "arp",
	}

	d := e.Enrich(context.Background(), res)
	if d.MAC != "b8:27:eb:aa:bb:cc" {
		t.Errorf("MAC not normalized: %s", d.MAC)
	}
	if d.Vendor != "RaspberryPi" {
		t.Errorf("vendor lookup failed: %s", d.Vendor)
	}
	if d.Hostname != "pi-hole" {
		t.Errorf("hostname lookup failed: %s", d.Hostname)
	}
}

// A failed hostname lookup degrades to an empty hostname without
// rejecting the record.
func TestEnrichDegradesOnLookupFailure(t *testing.T) {
	e := &Enricher{
		Vendors:   OUITable{},
		Hostnames: fakeResolver{err: errors.New("nxdomain")},
	}
	d := e.Enrich(context.Background(), lanwatch.ScanResult{
		IP:        "192.168.1.200",
		MAC:       "de:ad:be:ef:00:01",
		Timestamp: time.Now(),
		Method:    "ping",
	})
	if d.Hostname != "" {
		t.Errorf("expected empty hostname on failure, got %q", d.Hostname)
	}
	if d.Vendor != "Unknown" {
		t.Errorf("expected Unknown vendor for unlisted OUI, got %q", d.Vendor)
	}
	if d.DeviceType != lanwatch.DeviceTypeUnknown {
		t.Errorf("expected unknown device type, got %q", d.DeviceType)
	}
}
