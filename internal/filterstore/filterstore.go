/*
Package filterstore persists the outcomes of set-combination runs between
invocations, as three JSON files under the data directory:

	filter_results.json   combination results with their matching CIDs
	stale_searches.json   cache keys known to have expired remotely
	app_searches.json     cache keys this tool created itself

Unsaved filter results rotate out once more than keepUnsaved accumulate;
results the user marked saved are kept indefinitely. The stale and
app-search files are bounded FIFO lists so they cannot grow without limit.
*/
package filterstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	resultsFile = "filter_results.json"
	staleFile   = "stale_searches.json"
	appFile     = "app_searches.json"

	// keepUnsaved is how many unsaved results survive rotation.
	keepUnsaved = 10

	// maxStaleKeys bounds the stale blacklist.
	maxStaleKeys = 100

	// maxAppKeys bounds the app-search records.
	maxAppKeys = 50
)

// FilterResult is one completed set combination.
type FilterResult struct {
	ID           string    `json:"id"`
	SearchName   string    `json:"search_name"`
	Operation    string    `json:"operation"`
	MatchingCIDs []int     `json:"matching_cids"`
	MatchCount   int       `json:"match_count"`
	PubChemURL   string    `json:"pubchem_url"`
	Created      time.Time `json:"created"`
	Saved        bool      `json:"saved"`
}

// AppSearch records a cache key uploaded by this tool along with what
// produced it, so history views can tell it apart from browser searches.
type AppSearch struct {
	CacheKey  string `json:"cache_key"`
	Query     string `json:"query"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source"`
}

type appRecords struct {
	// CacheKeys holds keys of combined lists, which cannot be combined
	// again and are hidden from the default history view.
	CacheKeys []string    `json:"cache_keys"`
	Searches  []AppSearch `json:"searches"`
}

// Store owns the three persistence files. Safe for concurrent use.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a store rooted at dir. Files are created lazily.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// AddResult records a new combination result and rotates old unsaved ones
// out. The returned result carries the generated id.
func (s *Store) AddResult(searchName, operation string, cids []int, pubchemURL string) (FilterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := FilterResult{
		ID:           uuid.New().String()[:8],
		SearchName:   searchName,
		Operation:    operation,
		MatchingCIDs: cids,
		MatchCount:   len(cids),
		PubChemURL:   pubchemURL,
		Created:      time.Now().UTC(),
	}

	results, err := s.loadResults()
	if err != nil {
		return FilterResult{}, err
	}
	results = append(results, result)
	results = rotate(results)
	if err := s.writeJSON(resultsFile, results); err != nil {
		return FilterResult{}, err
	}
	return result, nil
}

// rotate keeps every saved result and the newest keepUnsaved unsaved ones,
// preserving order.
func rotate(results []FilterResult) []FilterResult {
	unsaved := 0
	for _, r := range results {
		if !r.Saved {
			unsaved++
		}
	}
	if unsaved <= keepUnsaved {
		return results
	}
	drop := unsaved - keepUnsaved
	kept := make([]FilterResult, 0, len(results)-drop)
	for _, r := range results {
		if !r.Saved && drop > 0 {
			drop--
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// Results returns all stored results, oldest first.
func (s *Store) Results() ([]FilterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadResults()
}

// Get returns the result with the given id.
func (s *Store) Get(id string) (FilterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.loadResults()
	if err != nil {
		return FilterResult{}, err
	}
	for _, r := range results {
		if r.ID == id {
			return r, nil
		}
	}
	return FilterResult{}, fmt.Errorf("no filter result with id %s", id)
}

// SetSaved pins or unpins a result.
func (s *Store) SetSaved(id string, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.loadResults()
	if err != nil {
		return err
	}
	for i := range results {
		if results[i].ID == id {
			results[i].Saved = saved
			return s.writeJSON(resultsFile, results)
		}
	}
	return fmt.Errorf("no filter result with id %s", id)
}

// DeleteResult removes a result by id.
func (s *Store) DeleteResult(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.loadResults()
	if err != nil {
		return err
	}
	for i, r := range results {
		if r.ID == id {
			return s.writeJSON(resultsFile, append(results[:i], results[i+1:]...))
		}
	}
	return fmt.Errorf("no filter result with id %s", id)
}

// MarkStale adds a cache key to the expired blacklist.
func (s *Store) MarkStale(cacheKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	if err := s.loadJSON(staleFile, &keys); err != nil {
		return err
	}
	for _, k := range keys {
		if k == cacheKey {
			return nil
		}
	}
	keys = append(keys, cacheKey)
	if len(keys) > maxStaleKeys {
		keys = keys[len(keys)-maxStaleKeys:]
	}
	return s.writeJSON(staleFile, keys)
}

// StaleKeys returns the blacklist as a set.
func (s *Store) StaleKeys() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	if err := s.loadJSON(staleFile, &keys); err != nil {
		return map[string]bool{}
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// RecordAppKey remembers a combined-list cache key created by this tool.
func (s *Store) RecordAppKey(cacheKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records appRecords
	if err := s.loadJSON(appFile, &records); err != nil {
		return err
	}
	records.CacheKeys = append(records.CacheKeys, cacheKey)
	if len(records.CacheKeys) > maxAppKeys {
		records.CacheKeys = records.CacheKeys[len(records.CacheKeys)-maxAppKeys:]
	}
	return s.writeJSON(appFile, records)
}

// RecordAppSearch remembers an upload this tool performed, with its query
// metadata.
func (s *Store) RecordAppSearch(search AppSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records appRecords
	if err := s.loadJSON(appFile, &records); err != nil {
		return err
	}
	records.Searches = append(records.Searches, search)
	if len(records.Searches) > maxAppKeys {
		records.Searches = records.Searches[len(records.Searches)-maxAppKeys:]
	}
	return s.writeJSON(appFile, records)
}

// AppKeys returns all cache keys this tool created, combined and uploaded
// alike, as a set.
func (s *Store) AppKeys() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records appRecords
	if err := s.loadJSON(appFile, &records); err != nil {
		return map[string]bool{}
	}
	set := make(map[string]bool, len(records.CacheKeys)+len(records.Searches))
	for _, k := range records.CacheKeys {
		set[k] = true
	}
	for _, search := range records.Searches {
		set[search.CacheKey] = true
	}
	return set
}

// AppSearches returns the recorded uploads, oldest first.
func (s *Store) AppSearches() ([]AppSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records appRecords
	if err := s.loadJSON(appFile, &records); err != nil {
		return nil, err
	}
	return records.Searches, nil
}

func (s *Store) loadResults() ([]FilterResult, error) {
	var results []FilterResult
	if err := s.loadJSON(resultsFile, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// loadJSON reads one store file into v, degrading to empty on a missing
// or corrupt file so one bad write does not wedge every later command.
func (s *Store) loadJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("Warning: %s is corrupt, starting empty: %v", name, err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
