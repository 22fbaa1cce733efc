// Package collector contains the periodic-collection framework and the
// concrete collectors built on it: device discovery, bandwidth, system
// performance, and DNS resolver statistics.
//
// A Collector produces one Snapshot per tick. The Runner owns the
// schedule; it fires collect→process→store whenever the configured
// interval has elapsed, isolating failures to the tick they occur in.
package collector

import (
	"context"
	"errors"
	"time"
)

// ErrSkip is returned by Collect when the tick produced nothing worth
// storing (e.g. a rate collector's first sample, which has no baseline).
// The Runner treats it as a quiet success, not a failure.
var ErrSkip = errors.New("collector: nothing to report")

// Snapshot is one timestamped bundle of fields produced by a single
// collection tick. Immutable once produced.
type Snapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields"`
}

// Collector is the minimal contract a probe adapter must satisfy.
type Collector interface {
	// Name identifies the collector in logs, metrics, and cache keys.
	Name() string
	// Collect gathers one snapshot. Failures are logged by the Runner
	// and leave previous state untouched.
	Collect(ctx context.Context) (Snapshot, error)
}

// Processor is an optional transform applied between Collect and Store.
// Collectors that do not implement it get the identity transform.
type Processor interface {
	Process(snap Snapshot) Snapshot
}

// Storer is an optional persistence hook. Collectors that do not
// implement it have their snapshots logged and dropped.
type Storer interface {
	Store(ctx context.Context, snap Snapshot) error
}
