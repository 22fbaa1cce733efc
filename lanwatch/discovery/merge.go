// Package discovery merges raw network-scan sightings into the canonical
// device registry: MAC-keyed deduplication across scan methods, metadata
// enrichment (vendor, hostname, device type), and reconciliation against
// previously registered devices.
package discovery

import (
	"strings"

	"github.com/LanWatch/go-monitor/lanwatch"
)

// NormalizeMAC lowercases a MAC address and converts dash separators to
// colons so the same hardware always produces the same registry key.
func NormalizeMAC(mac string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}

// Merge dedupes scan results by MAC across discovery methods. Earlier
// result sets take precedence: when a MAC appears in several sets, the
// first sighting's IP and timestamp win and the scan method becomes the
// "+"-joined union (e.g. "arp+ping").
func Merge(sets ...[]lanwatch.ScanResult) []lanwatch.ScanResult {
	byMAC := make(map[string]*lanwatch.ScanResult)
	var order []string

	for _, set := range sets {
		for _, res := range set {
			mac := NormalizeMAC(res.MAC)
			if mac == "" {
				continue
			}
			existing, ok := byMAC[mac]
			if !ok {
				r := res
				r.MAC = mac
				byMAC[mac] = &r
				order = append(order, mac)
				continue
			}
			if !hasMethod(existing.Method, res.Method) {
				existing.Method = existing.Method + "+" + res.Method
			}
		}
	}

	merged := make([]lanwatch.ScanResult, 0, len(order))
	for _, mac := range order {
		merged = append(merged, *byMAC[mac])
	}
	return merged
}

func hasMethod(methods, method string) bool {
	for _, m := range strings.Split(methods, "+") {
		if m == method {
			return true
		}
	}
	return false
}
