/*
Package history reads PubChem search history out of local browser storage.
PubChem's web frontend records every search in the site's localStorage
under the key "history"; Firefox keeps localStorage in a per-site SQLite
database, Chrome in a LevelDB directory. Both stores are copied to a
temporary location before opening so a running browser holding locks never
blocks a read.

Reads are best effort. A missing browser, profile, or history key yields
an empty slice; only genuine read failures surface as errors, and callers
typically log them and continue with whatever the other browser produced.
*/
package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Source identifies which browser an entry came from.
const (
	SourceFirefox = "firefox"
	SourceChrome  = "chrome"
)

// Entry is one recorded PubChem search.
type Entry struct {
	CacheKey  string `json:"cache_key"`
	Name      string `json:"name"`
	ListSize  int    `json:"list_size"`
	Type      string `json:"type"`
	Domain    string `json:"domain"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
	Source    string `json:"source"`

	// AppGenerated marks cache keys this tool created itself, as opposed
	// to searches the user ran in the browser.
	AppGenerated bool `json:"app_generated,omitempty"`
}

// looseInt tolerates PubChem serializing list sizes as strings or numbers.
type looseInt int

func (l *looseInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*l = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*l = 0
		return nil
	}
	*l = looseInt(n)
	return nil
}

// parseHistory decodes the raw localStorage history value. Entries without
// a cache key are dropped: they cannot be dereferenced or combined.
func parseHistory(raw []byte, source string) ([]Entry, error) {
	var items []struct {
		Details struct {
			CacheKey string   `json:"cachekey"`
			Name     string   `json:"name"`
			ListSize looseInt `json:"listsize"`
			Type     string   `json:"type"`
			Domain   string   `json:"domain"`
		} `json:"details"`
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to parse history JSON: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Details.CacheKey == "" {
			continue
		}
		entries = append(entries, Entry{
			CacheKey:  item.Details.CacheKey,
			Name:      item.Details.Name,
			ListSize:  int(item.Details.ListSize),
			Type:      item.Details.Type,
			Domain:    item.Details.Domain,
			Timestamp: item.Timestamp,
			Source:    source,
		})
	}
	return entries, nil
}

// Merge combines entries from several sources, keeping the newest entry
// per cache key, sorted newest first.
func Merge(groups ...[]Entry) []Entry {
	byKey := make(map[string]Entry)
	for _, group := range groups {
		for _, e := range group {
			if prev, ok := byKey[e.CacheKey]; !ok || e.Timestamp > prev.Timestamp {
				byKey[e.CacheKey] = e
			}
		}
	}
	merged := make([]Entry, 0, len(byKey))
	for _, e := range byKey {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Timestamp != merged[j].Timestamp {
			return merged[i].Timestamp > merged[j].Timestamp
		}
		return merged[i].CacheKey < merged[j].CacheKey
	})
	return merged
}

// Filter drops entries on the stale blacklist, tags app-generated cache
// keys, and hides them unless includeApp is set.
func Filter(entries []Entry, stale map[string]bool, appKeys map[string]bool, includeApp bool) []Entry {
	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if stale[e.CacheKey] {
			continue
		}
		if appKeys[e.CacheKey] {
			if !includeApp {
				continue
			}
			e.AppGenerated = true
		}
		filtered = append(filtered, e)
	}
	return filtered
}
