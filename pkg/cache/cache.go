// Package cache provides the caching layer shared by the CLI and the server.
//
// # Overview
//
// A [Cache] stores opaque byte values under string keys with a TTL. Three
// backends implement it:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a Redis server, for servers sharing one cache
//   - [NullCache]: stores nothing, used when caching is disabled
//
// A [Keyer] derives keys for each cached stage: loaded employee trees,
// rendered artifacts and fetched profile photos. Keys hash every option
// that changes the cached value, so differently configured runs never
// share an entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
)

// TTLs for the cached stages.
const (
	// TTLTree bounds how long a loaded hierarchy is reused. Directory
	// snapshots change a few times a day.
	TTLTree = time.Hour

	// TTLArtifact is the lifetime of rendered SVG/PNG/PDF/JSON output.
	TTLArtifact = 24 * time.Hour

	// TTLPhoto is the lifetime of a fetched profile photo.
	TTLPhoto = 7 * 24 * time.Hour
)

// Cache stores byte values by key.
type Cache interface {
	// Get returns the value for key. A miss returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// TreeKeyOpts holds the inputs that shape a loaded hierarchy.
type TreeKeyOpts struct {
	TopUserEmail      string `json:"top_user_email,omitempty"`
	NewEmployeeMonths int    `json:"new_employee_months,omitempty"`
	FiltersHash       string `json:"filters_hash,omitempty"`
}

// ArtifactKeyOpts holds the inputs that shape a rendered artifact.
type ArtifactKeyOpts struct {
	Format        string  `json:"format"`
	Orientation   string  `json:"orientation,omitempty"`
	CollapseLevel string  `json:"collapse_level,omitempty"`
	FullChart     bool    `json:"full_chart,omitempty"`
	Compact       bool    `json:"compact,omitempty"`
	Threshold     int     `json:"threshold,omitempty"`
	Avatars       bool    `json:"avatars,omitempty"`
	Departments   bool    `json:"departments,omitempty"`
	Scale         float64 `json:"scale,omitempty"`
	Hidden        string  `json:"hidden,omitempty"`
	PaletteHash   string  `json:"palette_hash,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey is the key of a fetched HTTP resource.
	HTTPKey(namespace, key string) string

	// TreeKey is the key of a hierarchy loaded from a source snapshot.
	TreeKey(sourceHash string, opts TreeKeyOpts) string

	// ArtifactKey is the key of an artifact rendered from a hierarchy.
	ArtifactKey(treeHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form "stage:hash".
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// TreeKey implements Keyer.
func (DefaultKeyer) TreeKey(sourceHash string, opts TreeKeyOpts) string {
	return hashKey("tree", sourceHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", treeHash, opts)
}

// Hash returns the hex SHA-256 of data. Source snapshots and trees are
// identified by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "stage:" followed by the hash of the JSON-encoded parts.
func hashKey(stage string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return stage + ":" + Hash(data)
}
