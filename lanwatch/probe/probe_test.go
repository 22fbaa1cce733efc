package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const arpTable = `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         aa:bb:cc:dd:ee:01     *        eth0
192.168.1.50     0x1         0x2         AA:BB:CC:11:22:33     *        eth0
192.168.1.99     0x1         0x0         00:00:00:00:00:00     *        eth0
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestARPScannerParsesTable(t *testing.T) {
	t.Log("\n🔍 Testing ARP table parsing...")

	s := &ARPScanner{Path: writeTemp(t, "arp", arpTable)}
	results, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("❌ Scan failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("❌ Expected 2 complete entries, got %d", len(results))
	}
	if results[0].IP != "192.168.1.1" || results[0].MAC != "aa:bb:cc:dd:ee:01" {
		t.Errorf("❌ First entry wrong: %+v", results[0])
	}
	// MACs are normalized to lowercase at the probe boundary.
	if results[1].MAC != "aa:bb:cc:11:22:33" {
		t.Errorf("❌ MAC not lowercased: %s", results[1].MAC)
	}
	if results[0].Method != "arp" {
		t.Errorf("❌ Wrong method tag: %s", results[0].Method)
	}

	t.Log("\n✅ ARP parsing test passed")
}

const netDevFirst = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 1000       10    0    0    0     0          0         0     1000      10    0    0    0     0       0          0
  eth0: 1000000  1000    0    0    0     0          0         0   500000     800    0    0    0     0       0          0
`

const netDevSecond = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 1000       10    0    0    0     0          0         0     1000      10    0    0    0     0       0          0
  eth0: 3000000  2000    0    0    0     0          0         0   1500000    1600   0    0    0     0       0          0
`

const tcpTable = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 0100007F:0CEA 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 12345 1
   1: 0100007F:0CEA 0A00020F:D2F0 01 00000000:00000000 00:00000000 00000000  1000        0 12346 1
   2: 0100007F:0CEB 0A00020F:D2F1 01 00000000:00000000 00:00000000 00000000  1000        0 12347 1
`

func TestNetDevReaderComputesRates(t *testing.T) {
	t.Log("\n🔍 Testing interface counter deltas...")

	dir := t.TempDir()
	devPath := filepath.Join(dir, "dev")
	tcpPath := filepath.Join(dir, "tcp")
	if err := os.WriteFile(devPath, []byte(netDevFirst), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tcpPath, []byte(tcpTable), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &NetDevReader{Interface: "eth0", DevPath: devPath, TCPPath: tcpPath}

	// First sample only establishes the baseline.
	_, ok, err := r.Sample()
	if err != nil {
		t.Fatalf("❌ First sample failed: %v", err)
	}
	if ok {
		t.Fatal("❌ First sample must not report a rate")
	}

	if err := os.WriteFile(devPath, []byte(netDevSecond), 0o644); err != nil {
		t.Fatal(err)
	}
	tp, ok, err := r.Sample()
	if err != nil {
		t.Fatalf("❌ Second sample failed: %v", err)
	}
	if !ok {
		t.Fatal("❌ Second sample should report a rate")
	}
	if tp.RxMbps <= 0 || tp.TxMbps <= 0 {
		t.Errorf("❌ Expected positive rates, got rx=%.2f tx=%.2f", tp.RxMbps, tp.TxMbps)
	}
	if tp.TotalMbps != tp.RxMbps+tp.TxMbps {
		t.Errorf("❌ Total should be rx+tx, got %.2f", tp.TotalMbps)
	}
	if tp.Connections != 2 {
		t.Errorf("❌ Expected 2 established connections, got %d", tp.Connections)
	}

	t.Log("\n✅ Counter delta test passed")
}

func TestNetDevReaderUnknownInterface(t *testing.T) {
	dir := t.TempDir()
	devPath := filepath.Join(dir, "dev")
	tcpPath := filepath.Join(dir, "tcp")
	os.WriteFile(devPath, []byte(netDevFirst), 0o644)
	os.WriteFile(tcpPath, []byte(tcpTable), 0o644)

	r := &NetDevReader{Interface: "wlan9", DevPath: devPath, TCPPath: tcpPath}
	if _, _, err := r.Sample(); err == nil {
		t.Error("expected error for missing interface")
	}
}

const procStat = `cpu  1000 0 500 8000 100 0 0 0 0 0
cpu0 500 0 250 4000 50 0 0 0 0 0
`

const meminfo = `MemTotal:        8000000 kB
MemFree:         2000000 kB
MemAvailable:    4000000 kB
`

func TestSysStatReaderParsesProc(t *testing.T) {
	r := &SysStatReader{
		DiskPath:    "/",
		StatPath:    writeTemp(t, "stat", procStat),
		MeminfoPath: writeTemp(t, "meminfo", meminfo),
		ThermalPath: writeTemp(t, "temp", "45000\n"),
	}

	stats, err := r.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	// First sample has no CPU baseline.
	if stats.CPUPercent != 0 {
		t.Errorf("first sample CPU should be 0, got %.1f", stats.CPUPercent)
	}
	if stats.MemoryPercent != 50 {
		t.Errorf("expected 50%% memory used, got %.1f", stats.MemoryPercent)
	}
	if stats.TemperatureC != 45 {
		t.Errorf("expected 45°C, got %.1f", stats.TemperatureC)
	}
}

func TestSysStatReaderTemperatureDegrades(t *testing.T) {
	r := &SysStatReader{
		DiskPath:    "/",
		StatPath:    writeTemp(t, "stat", procStat),
		MeminfoPath: writeTemp(t, "meminfo", meminfo),
		ThermalPath: filepath.Join(t.TempDir(), "missing"),
	}
	stats, err := r.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if stats.TemperatureC != -1 {
		t.Errorf("missing thermal zone should yield -1, got %.1f", stats.TemperatureC)
	}
}

func TestPiholeClientSummary(t *testing.T) {
	t.Log("\n🔍 Testing Pi-hole summary client...")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/api.php" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("auth") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"dns_queries_today": 12345, "ads_blocked_today": 2300, "ads_percentage_today": 18.6, "unique_clients": 14}`))
	}))
	defer srv.Close()

	c := &PiholeClient{BaseURL: srv.URL, Token: "secret"}
	stats, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("❌ Summary failed: %v", err)
	}
	if stats.QueriesToday != 12345 {
		t.Errorf("❌ Wrong query count: %.0f", stats.QueriesToday)
	}
	if stats.UniqueClients != 14 {
		t.Errorf("❌ Wrong client count: %.0f", stats.UniqueClients)
	}

	bad := &PiholeClient{BaseURL: srv.URL, Token: "wrong"}
	if _, err := bad.Summary(context.Background()); err == nil {
		t.Error("❌ Expected error on unauthorized response")
	}

	t.Log("\n✅ Pi-hole client test passed")
}

func TestHostAddrsExpandsCIDR(t *testing.T) {
	addrs, err := hostAddrs("192.168.1.0/30")
	if err != nil {
		t.Fatal(err)
	}
	// /30 has 4 addresses; network and broadcast are dropped.
	if len(addrs) != 2 {
		t.Fatalf("expected 2 host addresses, got %d: %v", len(addrs), addrs)
	}
	if addrs[0] != "192.168.1.1" || addrs[1] != "192.168.1.2" {
		t.Errorf("unexpected addresses: %v", addrs)
	}

	if _, err := hostAddrs("not-a-cidr"); err == nil {
		t.Error("expected error for malformed CIDR")
	}
}
