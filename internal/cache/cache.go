// Package cache is the optional on-disk cache wrapping the HTTP
// capability, per spec §4.I. Entries are addressed by a
// caller-supplied cacheKey (per-driver, not URL — a driver may cache its
// post-processed payload rather than a raw response) and carry a
// one-hour freshness window, the same TTL-comparison idiom the teacher's
// EnrichOpportunities applies to its `last_enriched_at < NOW() - ttl`
// staleness check, generalised here from a Postgres column comparison to
// the cachedAt timestamp recorded inside each entry.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFreshness is spec §4.I's fixed one-hour freshness window.
const DefaultFreshness = time.Hour

// entry is the on-disk shape: { cachedAt, data }.
type entry struct {
	CachedAt time.Time `json:"cachedAt"`
	Data     []byte    `json:"data"`
}

// Cache is a directory of cacheKey-addressed JSON entries. The zero
// value is not usable; construct with New.
type Cache struct {
	dir       string
	freshness time.Duration
}

// New builds a Cache rooted at dir. dir is created lazily, on first
// write, per spec §4.I ("missing cache directory is created on first
// write").
func New(dir string) *Cache {
	return &Cache{dir: dir, freshness: DefaultFreshness}
}

// sanitize maps an arbitrary cacheKey to a safe file name.
func sanitize(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, sanitize(key)+".json")
}

// Get returns the cached payload for key if it exists and is fresh
// (now - cachedAt < freshness). A miss or a stale entry returns
// (nil, false, nil); only an I/O or decode failure on an existing file
// returns a non-nil error.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if time.Since(e.CachedAt) >= c.freshness {
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Put writes data under key, overwriting any existing entry (stale or
// not), atomically (temp file + rename) so a concurrent reader never
// observes a torn write — the cache directory is spec §5's one shared
// writable resource across driver goroutines.
func (c *Cache) Put(key string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("ensure cache directory %s: %w", c.dir, err)
	}

	raw, err := json.Marshal(entry{CachedAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal cache entry %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(c.dir, ".entry-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	return os.Rename(tmpPath, c.pathFor(key))
}

// Clear removes the entire cache directory, backing the `cache --clear`
// subcommand.
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("clear cache directory %s: %w", c.dir, err)
	}
	return nil
}

// Fetch returns the fresh cached payload for key if one exists,
// otherwise calls fetch, caches its result, and returns that — spec
// §4.I's "stale entries are refetched and overwritten". The returned
// bool reports whether the payload came from cache, purely so a caller
// can tag model.DataQuality.Source; drivers must not otherwise branch
// on it, per spec §9's "cache is optional and transparent".
func (c *Cache) Fetch(key string, fetch func() ([]byte, error)) (data []byte, hit bool, err error) {
	if cached, ok, err := c.Get(key); err != nil {
		return nil, false, err
	} else if ok {
		return cached, true, nil
	}

	fresh, err := fetch()
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(key, fresh); err != nil {
		return fresh, false, err
	}
	return fresh, false, nil
}
