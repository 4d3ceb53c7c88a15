package cli

import (
	"path/filepath"
	"testing"

	"github.com/mf-rug/rug-chemsearch-cl/internal/filterstore"
	"github.com/mf-rug/rug-chemsearch-cl/internal/history"
	"github.com/mf-rug/rug-chemsearch-cl/internal/inventory"
	"github.com/mf-rug/rug-chemsearch-cl/internal/lookup"
	"github.com/mf-rug/rug-chemsearch-cl/internal/repair"
)

func sampleTable() *inventory.Table {
	return &inventory.Table{
		Columns: []string{"Chemical name", "CAS", "CID"},
		Rows: [][]inventory.Cell{
			{"Ethanol", "64-17-5", "702"},
			{"Benzene", "71-43-2", ""},
			{"Mystery", "", ""},
			{"Dup ethanol", "64-17-5", "702"},
		},
	}
}

func TestResolvedMapping(t *testing.T) {
	mapping := resolvedMapping(sampleTable())
	if len(mapping) != 1 {
		t.Fatalf("expected 1 resolved entry, got %v", mapping)
	}
	if mapping["64-17-5"] != 702 {
		t.Errorf("unexpected mapping: %v", mapping)
	}
}

func TestResolvedCIDsFirstSeenOrder(t *testing.T) {
	table := &inventory.Table{
		Columns: []string{"Chemical name", "CAS"},
		Rows: [][]inventory.Cell{
			{"Ethanol", "64-17-5"},
			{"Benzene", "71-43-2"},
			{"Dup ethanol", "64-17-5"},
		},
	}
	mapping := map[string]int{"64-17-5": 702, "71-43-2": 241}
	cids := resolvedCIDs(table, mapping)
	if len(cids) != 2 || cids[0] != 702 || cids[1] != 241 {
		t.Errorf("expected CIDs in table row order, got %v", cids)
	}
}

func TestRepairCandidates(t *testing.T) {
	cache := lookup.NewCache(filepath.Join(t.TempDir(), "cache.json"))
	candidates := repairCandidates(sampleTable(), cache)

	byRow := make(map[int]repair.Candidate)
	for _, c := range candidates {
		byRow[c.Row] = c
	}
	// Row 0 and 3 already carry a CID; rows 1 and 2 are candidates.
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", candidates)
	}
	if byRow[1].Name != "Benzene" || byRow[1].CAS != "71-43-2" {
		t.Errorf("unexpected candidate for row 1: %+v", byRow[1])
	}
	if byRow[2].Name != "Mystery" || byRow[2].CAS != "" {
		t.Errorf("unexpected candidate for row 2: %+v", byRow[2])
	}
}

func TestRepairCandidatesSkipsCachedRepairs(t *testing.T) {
	cache := lookup.NewCache(filepath.Join(t.TempDir(), "cache.json"))
	if err := cache.PutMany(map[string]lookup.Result{
		"71-43-2": {Status: lookup.StatusRepaired, CID: 241},
	}); err != nil {
		t.Fatal(err)
	}
	candidates := repairCandidates(sampleTable(), cache)
	for _, c := range candidates {
		if c.CAS == "71-43-2" {
			t.Error("row with cached repair should not be a candidate")
		}
	}
}

func TestMappingRows(t *testing.T) {
	cache := lookup.NewCache(filepath.Join(t.TempDir(), "cache.json"))
	if err := cache.PutMany(map[string]lookup.Result{
		"71-43-2": {Status: lookup.StatusNoCID},
	}); err != nil {
		t.Fatal(err)
	}
	table := sampleTable()
	rows := mappingRows(table, resolvedMapping(table), cache)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	byCAS := make(map[string]inventory.MappingRow)
	for _, r := range rows {
		byCAS[r.CAS] = r
	}
	if r := byCAS["64-17-5"]; r.Status != "found" || r.CID != 702 {
		t.Errorf("unexpected resolved row: %+v", r)
	}
	if r := byCAS["71-43-2"]; r.Status != "no_cid" || r.CID != 0 {
		t.Errorf("unexpected unresolved row: %+v", r)
	}
}

func TestAppEntriesListedWithAll(t *testing.T) {
	store := filterstore.NewStore(t.TempDir())
	if err := store.RecordAppSearch(filterstore.AppSearch{
		CacheKey:  "upload-key-1",
		Query:     "37 inventory compounds",
		Count:     37,
		Timestamp: 1700000000000,
		Source:    "inventory",
	}); err != nil {
		t.Fatal(err)
	}

	entries := appEntries(store)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %v", entries)
	}
	e := entries[0]
	if e.CacheKey != "upload-key-1" || e.Name != "37 inventory compounds" || e.ListSize != 37 {
		t.Errorf("unexpected entry: %+v", e)
	}

	hidden := history.Filter(entries, store.StaleKeys(), store.AppKeys(), false)
	if len(hidden) != 0 {
		t.Errorf("app entries should be hidden by default, got %v", hidden)
	}
	shown := history.Filter(entries, store.StaleKeys(), store.AppKeys(), true)
	if len(shown) != 1 || !shown[0].AppGenerated {
		t.Errorf("app entries should appear tagged with --all, got %v", shown)
	}
}

func TestSelectRows(t *testing.T) {
	suggestions := map[int]repair.Suggestion{
		2: {Row: 2, Name: "Benzene", CID: 241},
		6: {Row: 6, Name: "Ethanol", CID: 702},
	}
	rows, err := selectRows("7, 3, 7", suggestions)
	if err != nil {
		t.Fatalf("selectRows failed: %v", err)
	}
	if len(rows) != 2 || rows[0] != 2 || rows[1] != 6 {
		t.Errorf("expected rows [2 6], got %v", rows)
	}

	if _, err := selectRows("5", suggestions); err == nil {
		t.Error("expected error for a row without a suggestion")
	}
	if _, err := selectRows("zero", suggestions); err == nil {
		t.Error("expected error for a non-numeric row")
	}
	if _, err := selectRows("", suggestions); err == nil {
		t.Error("expected error for an empty selection")
	}
}
