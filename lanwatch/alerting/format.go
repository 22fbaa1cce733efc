package alerting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/LanWatch/go-monitor/lanwatch"
)

// Format renders an alert as plain text for notification channels.
func Format(a Alert) string {
	var b strings.Builder

	b.WriteString("LanWatch Security Alert\n\n")
	fmt.Fprintf(&b, "Time: %s\n", a.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Severity: %s\n", strings.ToUpper(a.Severity))
	fmt.Fprintf(&b, "Event Type: %s\n", a.EventType)

	if msg := a.Message(); msg != "" {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", msg)
	}

	keys := make([]string, 0, len(a.Details))
	for k := range a.Details {
		if k != "message" {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		b.WriteString("\nDetails:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, a.Details[k])
		}
	}

	if a.SourceDevice != nil {
		b.WriteString("\nSource Device:\n")
		writeDevice(&b, a.SourceDevice)
	}
	if a.TargetDevice != nil {
		b.WriteString("\nTarget Device:\n")
		writeDevice(&b, a.TargetDevice)
	}

	return b.String()
}

func writeDevice(b *strings.Builder, d *lanwatch.Device) {
	if d.Hostname != "" {
		fmt.Fprintf(b, "- hostname: %s\n", d.Hostname)
	}
	if d.IP != "" {
		fmt.Fprintf(b, "- ip: %s\n", d.IP)
	}
	if d.MAC != "" {
		fmt.Fprintf(b, "- mac: %s\n", d.MAC)
	}
	if d.Vendor != "" {
		fmt.Fprintf(b, "- vendor: %s\n", d.Vendor)
	}
	if d.DeviceType != "" {
		fmt.Fprintf(b, "- device_type: %s\n", d.DeviceType)
	}
}
