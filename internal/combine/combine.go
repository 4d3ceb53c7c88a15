/*
Package combine intersects, unions, and subtracts the resolved inventory
CIDs against a PubChem search from the browser history.

The preferred path does the set operation on PubChem's servers: upload the
inventory CIDs, combine the resulting cache key with the search's key
remotely, and dereference the combined key. When the remote combination
fails the work falls back to local set algebra over the dereferenced
search, which still needs the search's cache key to be alive; a dead key
surfaces as a StaleSearchError so the caller can blacklist it.
*/
package combine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/mf-rug/rug-chemsearch-cl/internal/filterstore"
	"github.com/mf-rug/rug-chemsearch-cl/internal/history"
	"github.com/mf-rug/rug-chemsearch-cl/internal/pubchem"
)

// StaleSearchError means a history entry's cache key has expired on
// PubChem's side and can never be combined again.
type StaleSearchError struct {
	CacheKey string
	Name     string
}

func (e *StaleSearchError) Error() string {
	return fmt.Sprintf("search %q (key %s) has expired on PubChem; run the search again in your browser", e.Name, e.CacheKey)
}

// Combiner runs set operations and persists their results.
type Combiner struct {
	Client *pubchem.Client
	Store  *filterstore.Store
}

// New creates a combiner.
func New(client *pubchem.Client, store *filterstore.Store) *Combiner {
	return &Combiner{Client: client, Store: store}
}

// Combine applies op between the inventory CIDs and the search entry,
// persists a FilterResult (also for zero matches), and returns it.
func (c *Combiner) Combine(ctx context.Context, inventoryCIDs []int, entry history.Entry, op pubchem.Op) (filterstore.FilterResult, error) {
	if len(inventoryCIDs) == 0 {
		return filterstore.FilterResult{}, fmt.Errorf("no resolved inventory CIDs to combine")
	}

	inventoryKey, _, err := c.Client.UploadCIDs(ctx, inventoryCIDs)
	if err != nil {
		return filterstore.FilterResult{}, fmt.Errorf("failed to upload inventory list: %w", err)
	}
	c.recordUpload(inventoryKey, len(inventoryCIDs))

	matches, displayKey, err := c.remoteCombine(ctx, inventoryKey, entry.CacheKey, op)
	if err != nil {
		log.Printf("Warning: remote combination failed (%v), computing locally", err)
		matches, displayKey, err = c.localCombine(ctx, inventoryCIDs, entry, op)
		if err != nil {
			return filterstore.FilterResult{}, err
		}
	}

	if matches == nil {
		// A zero-match result still persists, with the same stored shape.
		matches = []int{}
	}
	url := resultURL(matches, displayKey)
	result, err := c.Store.AddResult(entry.Name, string(op), matches, url)
	if err != nil {
		return filterstore.FilterResult{}, fmt.Errorf("failed to persist filter result: %w", err)
	}
	return result, nil
}

// remoteCombine performs the operation on PubChem's servers. The inventory
// key is the first operand, so NOT means inventory minus search.
func (c *Combiner) remoteCombine(ctx context.Context, inventoryKey, searchKey string, op pubchem.Op) ([]int, string, error) {
	combinedKey, _, err := c.Client.CombineKeys(ctx, inventoryKey, searchKey, op)
	if err != nil {
		return nil, "", err
	}
	matches, err := c.Client.FetchCIDs(ctx, combinedKey)
	if err != nil {
		return nil, "", err
	}
	if err := c.Store.RecordAppKey(combinedKey); err != nil {
		log.Printf("Warning: failed to record combined cache key: %v", err)
	}
	return matches, combinedKey, nil
}

// localCombine dereferences the search and applies the operation here.
// A search key that no longer dereferences is reported as stale; the
// inventory side never is, its key was minted moments ago.
func (c *Combiner) localCombine(ctx context.Context, inventoryCIDs []int, entry history.Entry, op pubchem.Op) ([]int, string, error) {
	searchCIDs, err := c.Client.FetchCIDs(ctx, entry.CacheKey)
	if err != nil {
		return nil, "", &StaleSearchError{CacheKey: entry.CacheKey, Name: entry.Name}
	}

	matches := apply(inventoryCIDs, searchCIDs, op)
	if len(matches) == 0 {
		return matches, "", nil
	}

	displayKey, _, err := c.Client.UploadCIDs(ctx, matches)
	if err != nil {
		log.Printf("Warning: failed to upload combination result: %v", err)
		return matches, "", nil
	}
	if err := c.Store.RecordAppKey(displayKey); err != nil {
		log.Printf("Warning: failed to record combined cache key: %v", err)
	}
	return matches, displayKey, nil
}

// apply computes the set operation with the inventory as left operand.
func apply(inventoryCIDs, searchCIDs []int, op pubchem.Op) []int {
	inSearch := make(map[int]bool, len(searchCIDs))
	for _, cid := range searchCIDs {
		inSearch[cid] = true
	}

	seen := make(map[int]bool, len(inventoryCIDs))
	var matches []int
	add := func(cid int) {
		if !seen[cid] {
			seen[cid] = true
			matches = append(matches, cid)
		}
	}

	switch op {
	case pubchem.OpAND:
		for _, cid := range inventoryCIDs {
			if inSearch[cid] {
				add(cid)
			}
		}
	case pubchem.OpOR:
		for _, cid := range inventoryCIDs {
			add(cid)
		}
		for _, cid := range searchCIDs {
			add(cid)
		}
	case pubchem.OpNOT:
		for _, cid := range inventoryCIDs {
			if !inSearch[cid] {
				add(cid)
			}
		}
	}
	sort.Ints(matches)
	return matches
}

// resultURL prefers a permanent direct-CID URL when it fits the address
// bar, falling back to the (expiring) cache-key URL for large results.
func resultURL(matches []int, displayKey string) string {
	if len(matches) == 0 {
		return ""
	}
	if url, ok := pubchem.CIDListURL(matches); ok {
		return url
	}
	if displayKey != "" {
		return pubchem.KeyURL(displayKey)
	}
	return ""
}

func (c *Combiner) recordUpload(cacheKey string, count int) {
	err := c.Store.RecordAppSearch(filterstore.AppSearch{
		CacheKey:  cacheKey,
		Query:     fmt.Sprintf("%d inventory compounds", count),
		Count:     count,
		Timestamp: time.Now().UnixMilli(),
		Source:    "inventory",
	})
	if err != nil {
		log.Printf("Warning: failed to record inventory upload: %v", err)
	}
}
