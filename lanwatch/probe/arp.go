// Package probe contains the low-level data sources the collectors poll:
// the kernel ARP and interface tables under /proc, an ICMP sweep, host
// statistics, and the Pi-hole resolver API. Every probe carries its own
// timeout; callers never need to wrap them.
package probe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
)

const arpTablePath = "/proc/net/arp"

// ARPScanner reads the kernel neighbour table. It only reports entries
// the kernel already resolved, so it is cheap but passive: pair it with
// an active sweep to find quiet hosts.
type ARPScanner struct {
	// Path overrides the table location, for tests.
	Path string
}

// Scan parses the ARP table and returns one result per complete entry.
func (s *ARPScanner) Scan(ctx context.Context) ([]lanwatch.ScanResult, error) {
	path := s.Path
	if path == "" {
		path = arpTablePath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ARP table: %w", err)
	}
	defer f.Close()

	now := time.Now()
	var results []lanwatch.ScanResult

	scanner := bufio.NewScanner(f)
	scanner.Scan() // header line
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields := strings.Fields(scanner.Text())
		// IP address, HW type, Flags, HW address, Mask, Device
		if len(fields) < 6 {
			continue
		}
		ip, flags, mac := fields[0], fields[2], fields[3]
		// 0x0 marks an incomplete entry; its MAC is all zeros.
		if flags == "0x0" || mac == "00:00:00:00:00:00" {
			continue
		}
		results = append(results, lanwatch.ScanResult{
			IP:        ip,
			MAC:       strings.ToLower(mac),
			Timestamp: now,
			Method:    "arp",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ARP table: %w", err)
	}
	return results, nil
}
