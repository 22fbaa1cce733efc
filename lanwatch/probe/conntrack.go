package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

const conntrackPath = "/proc/net/nf_conntrack"

// Connection is one tracked TCP flow.
type Connection struct {
	SourceIP   string
	TargetIP   string
	TargetPort int
}

// ConnTracker reads the kernel's connection-tracking table and reports
// TCP flows originating from the monitored network. Requires the
// nf_conntrack module; a missing table is a probe failure, not a crash.
type ConnTracker struct {
	// Path overrides the table location, for tests.
	Path string
	// LocalCIDR filters flows to those originating inside the monitored
	// network. Empty keeps everything.
	LocalCIDR string
}

// Connections parses the table and returns one entry per tracked TCP
// flow, deduplicated by (source, target, port).
func (t *ConnTracker) Connections(ctx context.Context) ([]Connection, error) {
	path := t.Path
	if path == "" {
		path = conntrackPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open conntrack table: %w", err)
	}
	defer f.Close()

	var local *net.IPNet
	if t.LocalCIDR != "" {
		if _, local, err = net.ParseCIDR(t.LocalCIDR); err != nil {
			return nil, fmt.Errorf("invalid local CIDR %q: %w", t.LocalCIDR, err)
		}
	}

	seen := make(map[Connection]struct{})
	var conns []Connection

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if !strings.Contains(line, " tcp ") {
			continue
		}
		c, ok := parseConntrackLine(line)
		if !ok {
			continue
		}
		if local != nil {
			src := net.ParseIP(c.SourceIP)
			if src == nil || !local.Contains(src) {
				continue
			}
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		conns = append(conns, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conntrack table: %w", err)
	}
	return conns, nil
}

// parseConntrackLine extracts the originator's src/dst/dport from the
// first (request-direction) tuple of an nf_conntrack line.
func parseConntrackLine(line string) (Connection, bool) {
	var c Connection
	for _, field := range strings.Fields(line) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		switch key {
		case "src":
			if c.SourceIP == "" {
				c.SourceIP = value
			}
		case "dst":
			if c.TargetIP == "" {
				c.TargetIP = value
			}
		case "dport":
			if c.TargetPort == 0 {
				port, err := strconv.Atoi(value)
				if err != nil {
					return Connection{}, false
				}
				c.TargetPort = port
			}
		}
	}
	return c, c.SourceIP != "" && c.TargetIP != "" && c.TargetPort != 0
}
