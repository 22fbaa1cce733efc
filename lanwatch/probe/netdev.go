package probe

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	netDevPath = "/proc/net/dev"
	tcpPath    = "/proc/net/tcp"

	// tcpEstablished is the st column value for an established socket.
	tcpEstablished = "01"
)

// InterfaceCounters is one raw reading of an interface's byte counters.
type InterfaceCounters struct {
	RxBytes   uint64
	TxBytes   uint64
	Timestamp time.Time
}

// Throughput is the rate derived from two counter readings.
type Throughput struct {
	RxMbps      float64
	TxMbps      float64
	TotalMbps   float64
	Connections int
}

// NetDevReader samples per-interface byte counters and turns successive
// readings into throughput rates. It keeps the previous reading, so the
// first call after construction yields no rate.
type NetDevReader struct {
	Interface string
	// Paths override the /proc locations, for tests.
	DevPath string
	TCPPath string

	prev *InterfaceCounters
}

// Sample reads the counters, computes the rate since the previous sample,
// and counts established TCP connections. ok is false on the first call.
func (r *NetDevReader) Sample() (tp Throughput, ok bool, err error) {
	cur, err := r.readCounters()
	if err != nil {
		return Throughput{}, false, err
	}
	conns, err := r.countEstablished()
	if err != nil {
		return Throughput{}, false, err
	}

	prev := r.prev
	r.prev = &cur
	if prev == nil {
		return Throughput{}, false, nil
	}

	elapsed := cur.Timestamp.Sub(prev.Timestamp).Seconds()
	if elapsed <= 0 {
		return Throughput{}, false, nil
	}
	// Counters wrap or reset when an interface bounces; skip the sample.
	if cur.RxBytes < prev.RxBytes || cur.TxBytes < prev.TxBytes {
		return Throughput{}, false, nil
	}

	rx := float64(cur.RxBytes-prev.RxBytes) * 8 / elapsed / 1e6
	tx := float64(cur.TxBytes-prev.TxBytes) * 8 / elapsed / 1e6
	return Throughput{
		RxMbps:      rx,
		TxMbps:      tx,
		TotalMbps:   rx + tx,
		Connections: conns,
	}, true, nil
}

func (r *NetDevReader) readCounters() (InterfaceCounters, error) {
	path := r.DevPath
	if path == "" {
		path = netDevPath
	}
	f, err := os.Open(path)
	if err != nil {
		return InterfaceCounters{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		name, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.TrimSpace(name) != r.Interface {
			continue
		}
		fields := strings.Fields(rest)
		// rx: bytes packets errs drop fifo frame compressed multicast,
		// then the tx block starting at index 8.
		if len(fields) < 16 {
			return InterfaceCounters{}, fmt.Errorf("malformed %s line for %s", path, r.Interface)
		}
		rx, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return InterfaceCounters{}, fmt.Errorf("bad rx counter: %w", err)
		}
		tx, err := strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			return InterfaceCounters{}, fmt.Errorf("bad tx counter: %w", err)
		}
		return InterfaceCounters{RxBytes: rx, TxBytes: tx, Timestamp: time.Now()}, nil
	}
	if err := scanner.Err(); err != nil {
		return InterfaceCounters{}, err
	}
	return InterfaceCounters{}, fmt.Errorf("interface %s not found in %s", r.Interface, path)
}

func (r *NetDevReader) countEstablished() (int, error) {
	path := r.TCPPath
	if path == "" {
		path = tcpPath
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Scan() // header line
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 3 && fields[3] == tcpEstablished {
			count++
		}
	}
	return count, scanner.Err()
}
