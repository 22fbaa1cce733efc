package discovery

import (
	"strings"
)

// VendorLookup resolves a MAC address to a hardware vendor name.
type VendorLookup interface {
	Vendor(mac string) (string, error)
}

// ouiVendors maps MAC OUI prefixes (first three octets) to vendor names.
// A small built-in subset; swap in a full IEEE OUI database via the
// VendorLookup interface when one is available locally.
var ouiVendors = map[string]string{
	"00:00:0c": "Cisco",
	"00:1a:11": "Google",
	"00:17:c8": "Apple",
	"00:16:6c": "Samsung",
	"00:15:5d": "Microsoft",
	"00:18:dd": "Hewlett-Packard",
	"00:12:17": "Cisco-Linksys",
	"00:14:22": "Dell",
	"00:1c:c4": "Intel",
	"00:1f:e2": "Broadcom",
	"00:21:ff": "Asus",
	"00:24:36": "Sony",
	"00:25:00": "Netgear",
	"00:26:37": "LG Electronics",
	"00:a0:c6": "Qualcomm",
	"04:4b:ed": "Xiaomi",
	"44:65:0d": "Amazon",
	"b8:27:eb": "RaspberryPi",
	"dc:a6:32": "RaspberryPi",
	"ec:1a:59": "Belkin",
	"fc:f5:c4": "TP-Link",
}

// OUITable is the built-in VendorLookup: exact prefix match on the first
// three octets, "Unknown" otherwise.
type OUITable struct{}

// Vendor implements VendorLookup. It never returns an error; unmatched
// prefixes degrade to "Unknown".
func (OUITable) Vendor(mac string) (string, error) {
	mac = NormalizeMAC(mac)
	parts := strings.SplitN(mac, ":", 4)
	if len(parts) < 3 {
		return "Unknown", nil
	}
	oui := strings.Join(parts[:3], ":")
	if vendor, ok := ouiVendors[oui]; ok {
		return vendor, nil
	}
	return "Unknown", nil
}
