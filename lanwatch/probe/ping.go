package probe

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"sync"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
)

const (
	pingTimeout     = 2 * time.Second
	pingConcurrency = 32
)

// PingSweeper actively probes every host address in a CIDR with a single
// ICMP echo, then reads the ARP table to learn the MACs of responders.
// The sweep primes the neighbour cache, so hosts that ignore ICMP but
// answered recently still show up through the ARP pass.
type PingSweeper struct {
	CIDR string
	// ARP resolves the MAC addresses after the sweep. Defaults to the
	// kernel table.
	ARP *ARPScanner
}

// Scan pings the subnet and returns results for hosts that answered,
// tagged with method "ping".
func (s *PingSweeper) Scan(ctx context.Context) ([]lanwatch.ScanResult, error) {
	ips, err := hostAddrs(s.CIDR)
	if err != nil {
		return nil, err
	}

	alive := make(map[string]bool, len(ips))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, pingConcurrency)

	for _, ip := range ips {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			defer func() { <-sem }()
			if ping(ctx, ip) {
				mu.Lock()
				alive[ip] = true
				mu.Unlock()
			}
		}(ip)
	}
	wg.Wait()

	arp := s.ARP
	if arp == nil {
		arp = &ARPScanner{}
	}
	entries, err := arp.Scan(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var results []lanwatch.ScanResult
	for _, e := range entries {
		if alive[e.IP] {
			results = append(results, lanwatch.ScanResult{
				IP:        e.IP,
				MAC:       e.MAC,
				Timestamp: now,
				Method:    "ping",
			})
		}
	}
	return results, nil
}

func ping(ctx context.Context, ip string) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	// -c 1 -W 1: one echo, one-second reply wait. Exit status 0 means
	// the host answered.
	return exec.CommandContext(ctx, "ping", "-c", "1", "-W", "1", ip).Run() == nil
}

// hostAddrs expands a CIDR into its host addresses, skipping the network
// and broadcast addresses for IPv4 subnets.
func hostAddrs(cidr string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid network CIDR %q: %w", cidr, err)
	}
	var addrs []string
	for ip := ip.Mask(ipnet.Mask); ipnet.Contains(ip); incIP(ip) {
		addrs = append(addrs, ip.String())
	}
	if len(addrs) > 2 {
		addrs = addrs[1 : len(addrs)-1]
	}
	return addrs, nil
}

func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}
