package discovery

import (
	"testing"
	"time"

	"github.com/LanWatch/go-monitor/lanwatch"
)

func TestMergeDedupesByMAC(t *testing.T) {
	t.Log("\n🔍 Testing merge of ARP and ping scan results...")

	now := time.Now()
	arp := []lanwatch.ScanResult{
		{IP: "192.168.1.10", MAC: "aa:bb:cc:dd:ee:01", Timestamp: now, Method: "arp"},
		{IP: "192.168.1.11", MAC: "aa:bb:cc:dd:ee:02", Timestamp: now, Method: "arp"},
	}
	ping := []lanwatch.ScanResult{
		{IP: "192.168.1.99", MAC: "AA:BB:CC:DD:EE:01", Timestamp: now, Method: "ping"},
		{IP: "192.168.1.12", MAC: "aa:bb:cc:dd:ee:03", Timestamp: now, Method: "ping"},
	}

	merged := Merge(arp, ping)
	if len(merged) != 3 {
		t.Fatalf("❌ Expected 3 merged results, got %d", len(merged))
	}

	// ARP is the primary method: its IP wins, but the methods union.
	first := merged[0]
	if first.IP != "192.168.1.10" {
		t.Errorf("❌ Expected primary method's IP, got %s", first.IP)
	}
	if first.Method != "arp+ping" {
		t.Errorf("❌ Expected scan_method arp+ping, got %s", first.Method)
	}

	if merged[1].Method != "arp" {
		t.Errorf("❌ Expected arp-only method, got %s", merged[1].Method)
	}
	if merged[2].Method != "ping" {
		t.Errorf("❌ Expected ping-only method, got %s", merged[2].Method)
	}

	t.Log("\n✅ Merge test passed")
}

func TestMergeDoesNotDuplicateMethod(t *testing.T) {
	now := time.Now()
	a := []lanwatch.ScanResult{{IP: "10.0.0.1", MAC: "aa:bb:cc:00:00:01", Timestamp: now, Method: "arp"}}
	b := []lanwatch.ScanResult{{IP: "10.0.0.1", MAC: "aa:bb:cc:00:00:01", Timestamp: now, Method: "arp"}}

	merged := Merge(a, b)
	if len(merged) != 1 {
		t.Fatalf("expected 1 result, got %d", len(merged))
	}
	if merged[0].Method != "arp" {
		t.Errorf("expected method arp, got %s", merged[0].Method)
	}
}

func TestNormalizeMAC(t *testing.T) {
	cases := map[string]string{
		"AA:BB:CC:DD:EE:FF":   "aa:bb:cc:dd:ee:ff",
		"aa-bb-cc-dd-ee-ff":   "aa:bb:cc:dd:ee:ff",
		" b8:27:eb:01:02:03 ": "b8:27:eb:01:02:03",
	}
	for in, want := range cases {
		if got := NormalizeMAC(in); got != want {
			t.Errorf("NormalizeMAC(%q) = %q, want %q", in, got, want)
		}
	}
}
