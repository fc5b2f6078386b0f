// Package cache provides content-addressed caching for datasets, layouts and
// rendered artifacts.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// shared server deployments and [NullCache] when caching is disabled. Keys
// come from a [Keyer] so that every entry point derives identical keys for
// identical work:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.LayoutKey(datasetHash, cache.LayoutKeyOpts{Mode: "circles", RootID: "Q729", Depth: 2})
//	if data, hit, err := c.Get(ctx, key); err == nil && hit {
//	    // use data
//	}
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored data and whether the key was present.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default entry lifetimes.
const (
	TTLDataset  = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// DatasetKeyOpts identifies a dataset snapshot taken from a remote source.
type DatasetKeyOpts struct {
	Query string `json:"query,omitempty"`
	Root  string `json:"root,omitempty"`
}

// LayoutKeyOpts identifies one layout of a dataset.
type LayoutKeyOpts struct {
	Mode   string   `json:"mode"`
	RootID string   `json:"root_id"`
	Depth  int      `json:"depth"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Path   []string `json:"path,omitempty"`
	Scale  string   `json:"scale,omitempty"`

	MapLeft  []string `json:"map_left,omitempty"`
	MapRight []string `json:"map_right,omitempty"`

	// Shape hashes the tree's expanded and collapsed nodes; Engine hashes
	// the spacing, padding and colour settings the layout was made with.
	Shape  string `json:"shape,omitempty"`
	Engine string `json:"engine,omitempty"`
}

// ArtifactKeyOpts identifies one rendering of a layout.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Labels bool   `json:"labels,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	DatasetKey(source string, opts DatasetKeyOpts) string
	LayoutKey(datasetHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components into "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DatasetKey keys a dataset snapshot by source location and query.
func (DefaultKeyer) DatasetKey(source string, opts DatasetKeyOpts) string {
	return hashKey("dataset", source, opts)
}

// LayoutKey keys a layout by dataset content and view parameters.
func (DefaultKeyer) LayoutKey(datasetHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", datasetHash, opts)
}

// ArtifactKey keys a rendered artifact. The format stays readable so
// artifacts of one layout sort together.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return fmt.Sprintf("artifact:%s:%s", opts.Format, hashKey("", layoutHash, opts)[1:])
}
