package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// RecentAlertsKey holds the alert manager's bounded history mirror.
const RecentAlertsKey = "netmon:alerts:recent"

// SnapshotKey returns the cache key for a collector's latest snapshot.
func SnapshotKey(collector string) string {
	return fmt.Sprintf("netmon:snapshot:%s", collector)
}

// Cache stores JSON documents in the KV store with a shared TTL. A nil
// *Cache is valid and all its methods are no-ops, so callers can wire it
// unconditionally.
type Cache struct {
	kv  KVStore
	ttl int // seconds; 0 means no expiry
}

// NewCache wraps kv. ttlSeconds bounds staleness of cached documents.
func NewCache(kv KVStore, ttlSeconds int) *Cache {
	return &Cache{kv: kv, ttl: ttlSeconds}
}

// SaveJSON marshals v and stores it under key.
func (c *Cache) SaveJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.kv == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if c.ttl > 0 {
		return c.kv.SetValueWithTTL(ctx, key, string(data), c.ttl)
	}
	return c.kv.SetValue(ctx, key, string(data))
}

// LoadJSON fetches key and unmarshals it into v.
func (c *Cache) LoadJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.kv == nil {
		return fmt.Errorf("cache not configured")
	}
	raw, err := c.kv.GetValue(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}
