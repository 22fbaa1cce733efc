package discovery

import (
	"strings"

	"github.com/LanWatch/go-monitor/lanwatch"
)

// typePattern associates a device type with the substrings that identify
// it. Declaration order matters: the first matching entry wins.
type typePattern struct {
	deviceType string
	patterns   []string
}

var typePatterns = []typePattern{
	{lanwatch.DeviceTypeRouter, []string{"router", "gateway", "access point", "ubiquiti", "unifi", "mikrotik", "netgear"}},
	{lanwatch.DeviceTypeTV, []string{"tv", "television", "roku", "firestick", "appletv", "chromecast", "smarttv"}},
	{lanwatch.DeviceTypeMobile, []string{"iphone", "android", "smartphone", "mobile", "galaxy", "pixel", "oneplus"}},
	{lanwatch.DeviceTypeComputer, []string{"pc", "mac", "macbook", "desktop", "laptop", "server", "workstation", "windows", "linux"}},
	{lanwatch.DeviceTypeIoT, []string{"nest", "hue", "echo", "alexa", "ring", "smartthings", "thermostat", "doorbell", "camera", "sensor"}},
	{lanwatch.DeviceTypeGaming, []string{"playstation", "xbox", "nintendo", "switch", "ps4", "ps5", "gaming"}},
}

// IdentifyDeviceType classifies a device from its hostname and vendor.
// Matching is case-insensitive over "hostname vendor"; the first pattern
// in table order wins; no match yields "unknown".
func IdentifyDeviceType(hostname, vendor string) string {
	haystack := strings.ToLower(hostname + " " + vendor)
	for _, tp := range typePatterns {
		for _, pat := range tp.patterns {
			if strings.Contains(haystack, pat) {
				return tp.deviceType
			}
		}
	}
	return lanwatch.DeviceTypeUnknown
}
