package discovery

import (
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
)

// Reconcile folds a freshly enriched sighting into the existing registry
// record for the same MAC. existing == nil means first sighting.
//
// Invariants: FirstSeen never regresses; a known hostname, vendor, or
// device type is never overwritten by an empty/unknown value from a new
// sighting; IP history keeps exactly one entry per distinct IP.
func Reconcile(incoming lanwatch.Device, existing *lanwatch.Device) lanwatch.Device {
	if existing == nil {
		d := incoming
		d.FirstSeen = incoming.LastSeen
		d.IPHistory = []lanwatch.IPRecord{{
			IP:        incoming.IP,
			FirstSeen: incoming.LastSeen,
			LastSeen:  incoming.LastSeen,
		}}
		return d
	}

	d := *existing
	d.LastSeen = incoming.LastSeen
	d.IP = incoming.IP
	d.ScanMethod = incoming.ScanMethod

	if shouldReplace(d.Hostname, incoming.Hostname, "") {
		d.Hostname = incoming.Hostname
	}
	if shouldReplace(d.Vendor, incoming.Vendor, "Unknown") {
		d.Vendor = incoming.Vendor
	}
	if shouldReplace(d.DeviceType, incoming.DeviceType, lanwatch.DeviceTypeUnknown) {
		d.DeviceType = incoming.DeviceType
	}

	d.IPHistory = UpdateIPHistory(d.IPHistory, incoming.IP, incoming.LastSeen)
	return d
}

// shouldReplace reports whether a new metadata value may overwrite the
// current one: only when the current value carries no information and the
// new one does.
func shouldReplace(current, incoming, unknown string) bool {
	if incoming == "" || incoming == unknown {
		return false
	}
	return current == "" || current == unknown
}

// UpdateIPHistory bumps LastSeen on the matching entry or appends a new
// one. Entries are never removed.
func UpdateIPHistory(history []lanwatch.IPRecord, ip string, ts time.Time) []lanwatch.IPRecord {
	for i := range history {
		if history[i].IP == ip {
			if ts.After(history[i].LastSeen) {
				history[i].LastSeen = ts
			}
			return history
		}
	}
	return append(history, lanwatch.IPRecord{IP: ip, FirstSeen: ts, LastSeen: ts})
}
