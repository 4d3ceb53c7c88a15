package lookup

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Stats summarizes a cache snapshot.
type Stats struct {
	// TotalCAS is the number of cached CAS numbers.
	TotalCAS int `json:"total_cas"`

	// Found is how many resolved to a CID.
	Found int `json:"found_cids"`

	// NotFound is how many ended with a definitive negative.
	NotFound int `json:"not_found"`
}

// snapshot is the on-disk cache layout.
type snapshot struct {
	Source     string            `json:"source,omitempty"`
	SourceHash string            `json:"source_hash,omitempty"`
	Created    time.Time         `json:"created"`
	Stats      Stats             `json:"stats"`
	Results    map[string]Result `json:"results"`
}

// Cache is a durable CAS→Result store backed by a single JSON file.
//
// A corrupt or missing file is treated as an empty cache: first run and
// corruption are indistinguishable and both recover by re-resolving.
// Writes are whole-file rewrites; the cache is bounded by inventory size.
type Cache struct {
	path string

	mu       sync.Mutex
	loadOnce sync.Once
	snap     *snapshot
}

// NewCache creates a cache backed by the given JSON file.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// load reads the cache file, degrading to empty on any failure.
func (c *Cache) load() {
	c.snap = &snapshot{Results: make(map[string]Result)}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read CID cache, starting empty: %v", err)
		}
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("Warning: CID cache is corrupt, starting empty: %v", err)
		return
	}
	if snap.Results == nil {
		snap.Results = make(map[string]Result)
	}
	c.snap = &snap
}

// Get returns the cached result for a CAS number, if present.
func (c *Cache) Get(cas string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadOnce.Do(c.load)
	r, ok := c.snap.Results[cas]
	return r, ok
}

// GetBatch returns cached results for every CAS in the batch that has one.
func (c *Cache) GetBatch(casNumbers []string) map[string]Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadOnce.Do(c.load)
	out := make(map[string]Result)
	for _, cas := range casNumbers {
		if r, ok := c.snap.Results[cas]; ok {
			out[cas] = r
		}
	}
	return out
}

// PutMany merges results into the cache and rewrites the file. Results
// that are not cacheable (transient errors) are dropped so a future run
// retries them through the tiers.
func (c *Cache) PutMany(results map[string]Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadOnce.Do(c.load)
	for cas, r := range results {
		if !r.Cacheable() {
			continue
		}
		c.snap.Results[cas] = r
	}
	return c.write()
}

// SetProvenance records the source inventory snapshot the cache was built
// from and rewrites the file.
func (c *Cache) SetProvenance(source, sourceHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadOnce.Do(c.load)
	c.snap.Source = source
	c.snap.SourceHash = sourceHash
	return c.write()
}

// Valid reports whether the cache was built from a source snapshot with
// the given hash. A mismatch means the inventory changed and the cache
// should be rebuilt.
func (c *Cache) Valid(sourceHash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadOnce.Do(c.load)
	return c.snap.SourceHash != "" && c.snap.SourceHash == sourceHash
}

// Stats returns the current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadOnce.Do(c.load)
	return computeStats(c.snap.Results)
}

// Results returns a copy of all cached results.
func (c *Cache) Results() map[string]Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadOnce.Do(c.load)
	out := make(map[string]Result, len(c.snap.Results))
	for cas, r := range c.snap.Results {
		out[cas] = r
	}
	return out
}

// Created returns the timestamp of the last write.
func (c *Cache) Created() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadOnce.Do(c.load)
	return c.snap.Created
}

// write rewrites the whole cache file. Callers must hold c.mu.
func (c *Cache) write() error {
	c.snap.Created = time.Now()
	c.snap.Stats = computeStats(c.snap.Results)
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(c.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal CID cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CID cache: %w", err)
	}
	return nil
}

func computeStats(results map[string]Result) Stats {
	s := Stats{TotalCAS: len(results)}
	for _, r := range results {
		if r.HasCID() {
			s.Found++
		} else {
			s.NotFound++
		}
	}
	return s
}
