// Package cache stores rendered charts keyed by their inputs.
//
// # Overview
//
// A [Cache] is a byte store with per-entry expiry. Three backends exist:
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing, for disabling caching
//
// Keys come from a [Keyer], which hashes every input that changes the
// rendered text: the dataset content, the role names, the chart kind and
// the chart options.
//
// # Usage
//
//	c, _ := cache.NewFileCache(dir)
//	key := cache.NewDefaultKeyer().ChartKey(datasetHash, cache.ChartKeyOpts{Kind: "dag"})
//	if data, hit, _ := c.Get(ctx, key); hit {
//	    return string(data)
//	}
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. Implementations are safe
// for concurrent use.
type Cache interface {
	// Get returns the entry for key and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Entry lifetimes.
const (
	// TTLChart is how long a rendered chart stays cached.
	TTLChart = 7 * 24 * time.Hour

	// TTLDataset is how long a loaded remote dataset stays cached.
	TTLDataset = time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// ChartKeyOpts holds every input of a render besides the dataset.
type ChartKeyOpts struct {
	Kind                  string   `json:"kind"`
	Primary               string   `json:"primary,omitempty"`
	Display               []string `json:"display,omitempty"`
	Breakdown             string   `json:"breakdown,omitempty"`
	Value                 string   `json:"value,omitempty"`
	Aggregate             string   `json:"aggregate,omitempty"`
	Width                 int      `json:"width,omitempty"`
	Bins                  int      `json:"bins,omitempty"`
	ShowAggregate         bool     `json:"show_aggregate,omitempty"`
	ShowAncestorAggregate bool     `json:"show_ancestor_aggregate,omitempty"`
	Abbreviate            bool     `json:"abbreviate,omitempty"`
	AbbreviateBreakdown   bool     `json:"abbreviate_breakdown,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ChartKey identifies a rendered chart.
	ChartKey(datasetHash string, opts ChartKeyOpts) string

	// DatasetKey identifies a dataset loaded from a remote source.
	DatasetKey(source string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ChartKey returns "chart:<hash>".
func (DefaultKeyer) ChartKey(datasetHash string, opts ChartKeyOpts) string {
	return hashKey("chart", datasetHash, opts)
}

// DatasetKey returns "dataset:<hash>".
func (DefaultKeyer) DatasetKey(source string) string {
	return hashKey("dataset", source)
}

// keyType returns the prefix of a key produced by a Keyer.
func keyType(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return "unknown"
}
