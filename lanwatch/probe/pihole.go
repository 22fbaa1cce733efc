package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const piholeTimeout = 5 * time.Second

// ResolverStats is the subset of the Pi-hole summary the monitor uses.
type ResolverStats struct {
	QueriesToday  float64 `json:"dns_queries_today"`
	BlockedToday  float64 `json:"ads_blocked_today"`
	BlockPercent  float64 `json:"ads_percentage_today"`
	UniqueClients float64 `json:"unique_clients"`
}

// PiholeClient queries a Pi-hole instance's admin API for DNS statistics.
type PiholeClient struct {
	BaseURL string
	Token   string
	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client
}

// Summary fetches the raw daily counters.
func (c *PiholeClient) Summary(ctx context.Context) (ResolverStats, error) {
	q := url.Values{"summaryRaw": {""}}
	if c.Token != "" {
		q.Set("auth", c.Token)
	}
	endpoint := fmt.Sprintf("%s/admin/api.php?%s", c.BaseURL, q.Encode())

	ctx, cancel := context.WithTimeout(ctx, piholeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ResolverStats{}, fmt.Errorf("failed to build Pi-hole request: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return ResolverStats{}, fmt.Errorf("Pi-hole request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ResolverStats{}, fmt.Errorf("Pi-hole returned status %d", resp.StatusCode)
	}
	var stats ResolverStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return ResolverStats{}, fmt.Errorf("failed to decode Pi-hole summary: %w", err)
	}
	return stats, nil
}
