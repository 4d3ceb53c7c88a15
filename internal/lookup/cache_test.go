package lookup

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestCache(t *testing.T) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cid_cache.json")
	return NewCache(path), path
}

func TestPutMany_RoundTrip(t *testing.T) {
	c, path := newTestCache(t)

	in := map[string]Result{
		"64-17-5":   {Status: StatusFound, CID: 702},
		"7732-18-5": {Status: StatusNotFound},
	}
	if err := c.PutMany(in); err != nil {
		t.Fatalf("PutMany: %v", err)
	}

	// Re-open from disk to prove durability.
	c2 := NewCache(path)
	r, ok := c2.Get("64-17-5")
	if !ok || r.CID != 702 || r.Status != StatusFound {
		t.Errorf("expected found/702, got %+v (ok=%v)", r, ok)
	}
	r, ok = c2.Get("7732-18-5")
	if !ok || r.Status != StatusNotFound {
		t.Errorf("expected not_found, got %+v (ok=%v)", r, ok)
	}
}

func TestPutMany_ExcludesTransientErrors(t *testing.T) {
	c, path := newTestCache(t)

	in := map[string]Result{
		"64-17-5": {Status: StatusFound, CID: 702},
		"50-00-0": {Status: StatusError, Detail: "http_500"},
	}
	if err := c.PutMany(in); err != nil {
		t.Fatalf("PutMany: %v", err)
	}

	c2 := NewCache(path)
	if _, ok := c2.Get("50-00-0"); ok {
		t.Error("transient-error result must not be retrievable from the cache")
	}
	if _, ok := c2.Get("64-17-5"); !ok {
		t.Error("definitive result missing from cache")
	}
}

func TestCorruptFileYieldsEmptyCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cid_cache.json")
	if err := os.WriteFile(path, []byte("{invalid json"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(path)
	if _, ok := c.Get("64-17-5"); ok {
		t.Error("corrupt cache must behave as empty")
	}

	// And it is fully rebuildable in the same run.
	if err := c.PutMany(map[string]Result{"64-17-5": {Status: StatusFound, CID: 702}}); err != nil {
		t.Fatalf("rebuild after corruption: %v", err)
	}
	if r, ok := NewCache(path).Get("64-17-5"); !ok || r.CID != 702 {
		t.Errorf("expected rebuilt entry, got %+v (ok=%v)", r, ok)
	}
}

func TestProvenanceValidation(t *testing.T) {
	c, path := newTestCache(t)
	if c.Valid("sha256:abc") {
		t.Error("empty cache must not validate against any hash")
	}
	if err := c.SetProvenance("table.json", "sha256:abc"); err != nil {
		t.Fatal(err)
	}

	c2 := NewCache(path)
	if !c2.Valid("sha256:abc") {
		t.Error("expected cache to validate against recorded hash")
	}
	if c2.Valid("sha256:other") {
		t.Error("cache must not validate against a different hash")
	}
}

func TestStats(t *testing.T) {
	c, _ := newTestCache(t)
	err := c.PutMany(map[string]Result{
		"64-17-5":   {Status: StatusFound, CID: 702},
		"7732-18-5": {Status: StatusFound, CID: 962},
		"50-00-0":   {Status: StatusNotFound},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := c.Stats()
	if s.TotalCAS != 3 || s.Found != 2 || s.NotFound != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
}
