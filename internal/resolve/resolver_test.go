package resolve

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/dump"
	"github.com/mf-rug/rug-chemsearch-cl/internal/lookup"
	"github.com/mf-rug/rug-chemsearch-cl/internal/pubchem"
)

func writeDump(t *testing.T, rows map[int]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "CID-CAS.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create dump: %v", err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	defer gz.Close()
	w := bufio.NewWriter(gz)
	defer w.Flush()
	for cid, cas := range rows {
		fmt.Fprintf(w, "%d\t%s\n", cid, cas)
	}
	return path
}

func testLimits() config.Limits {
	return config.Limits{
		TranslationConcurrency: 4,
		CompoundConcurrency:    2,
		CompoundDelayMs:        1,
		RepairDelayMs:          1,
	}
}

func TestResolveBatchTierOrder(t *testing.T) {
	dumpPath := writeDump(t, map[int]string{702: "64-17-5"})
	idx := dump.New(dumpPath)

	cache := lookup.NewCache(filepath.Join(t.TempDir(), "cache.json"))
	if err := cache.PutMany(map[string]lookup.Result{
		"50-00-0": {Status: lookup.StatusFound, CID: 712, Detail: "compound"},
	}); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	cts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/71-43-2" {
			fmt.Fprint(w, `[{"results":["241"]}]`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer cts.Close()

	compound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/compound/name/67-56-1/cids/JSON" {
			fmt.Fprint(w, `{"IdentifierList":{"CID":[887]}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer compound.Close()

	r := New(idx, cache, NewCTSClient(cts.URL), pubchem.NewClient(compound.URL, "", "", ""), testLimits())
	results := r.ResolveBatch(context.Background(), []string{
		"64-17-5", // dump
		"50-00-0", // cache
		"71-43-2", // translation service
		"67-56-1", // compound API
		"99-99-9", // nowhere
	})

	want := map[string]struct {
		status lookup.Status
		cid    int
	}{
		"64-17-5": {lookup.StatusFound, 702},
		"50-00-0": {lookup.StatusFound, 712},
		"71-43-2": {lookup.StatusFound, 241},
		"67-56-1": {lookup.StatusFound, 887},
		"99-99-9": {lookup.StatusNotFound, 0},
	}
	for cas, expect := range want {
		res, ok := results[cas]
		if !ok {
			t.Fatalf("no result for %s", cas)
		}
		if res.Status != expect.status || res.CID != expect.cid {
			t.Errorf("%s: got %s/%d, want %s/%d", cas, res.Status, res.CID, expect.status, expect.cid)
		}
	}

	// Remote answers must land in the cache; dump hits must not.
	if res, ok := cache.Get("67-56-1"); !ok || res.CID != 887 {
		t.Error("compound result was not written back to cache")
	}
	if _, ok := cache.Get("64-17-5"); ok {
		t.Error("dump hit should not be cached")
	}
	if res, ok := cache.Get("99-99-9"); !ok || res.Status != lookup.StatusNotFound {
		t.Error("authoritative not-found should be cached")
	}
}

func TestResolveBatchNoCID(t *testing.T) {
	compound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"IdentifierList":{"CID":[]}}`)
	}))
	defer compound.Close()

	r := New(nil, nil, nil, pubchem.NewClient(compound.URL, "", "", ""), testLimits())
	results := r.ResolveBatch(context.Background(), []string{"64-17-5"})
	if results["64-17-5"].Status != lookup.StatusNoCID {
		t.Errorf("expected no_cid status, got %s", results["64-17-5"].Status)
	}
}

func TestResolveBatchRateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	compound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"IdentifierList":{"CID":[702]}}`)
	}))
	defer compound.Close()

	oldBackoff := rateLimitBackoff
	rateLimitBackoff = time.Millisecond
	defer func() { rateLimitBackoff = oldBackoff }()

	r := New(nil, nil, nil, pubchem.NewClient(compound.URL, "", "", ""), testLimits())
	results := r.ResolveBatch(context.Background(), []string{"64-17-5"})
	if res := results["64-17-5"]; res.Status != lookup.StatusFound || res.CID != 702 {
		t.Errorf("expected retry to succeed, got %+v", res)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestResolveBatchPersistentRateLimit(t *testing.T) {
	compound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer compound.Close()

	oldBackoff := rateLimitBackoff
	rateLimitBackoff = time.Millisecond
	defer func() { rateLimitBackoff = oldBackoff }()

	cache := lookup.NewCache(filepath.Join(t.TempDir(), "cache.json"))
	r := New(nil, cache, nil, pubchem.NewClient(compound.URL, "", "", ""), testLimits())
	results := r.ResolveBatch(context.Background(), []string{"64-17-5"})
	if results["64-17-5"].Status != lookup.StatusError {
		t.Errorf("expected error status, got %s", results["64-17-5"].Status)
	}
	if _, ok := cache.Get("64-17-5"); ok {
		t.Error("transient error must not be cached")
	}
}

func TestPartition(t *testing.T) {
	results := map[string]lookup.Result{
		"a": {Status: lookup.StatusFound, CID: 1},
		"b": {Status: lookup.StatusNotFound},
		"c": {Status: lookup.StatusNoCID},
		"d": {Status: lookup.StatusError},
	}
	found, notFound, failed := Partition(results)
	if len(found) != 1 || found[0] != "a" {
		t.Errorf("found = %v", found)
	}
	if len(notFound) != 2 {
		t.Errorf("notFound = %v", notFound)
	}
	if len(failed) != 1 || failed[0] != "d" {
		t.Errorf("failed = %v", failed)
	}
}
