/*
Package dump loads the PubChem CID→CAS TSV dump and serves CAS→CID lookups.

The dump is a large static asset (millions of rows), gzipped, one
"CID<TAB>CAS" pair per line. It is loaded lazily on first use and kept in
memory for the process lifetime; picking up a new dump requires a restart.
Malformed rows are skipped; the dump is best effort, not a contract.
*/
package dump

import (
	"bufio"
	"compress/gzip"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Index is an in-memory CAS→CID table built from the dump file.
//
// The zero value is not usable; construct with New. All methods are safe
// for concurrent use after the lazy load completes (the load itself is
// guarded by sync.Once).
type Index struct {
	path     string
	loadOnce sync.Once
	casToCID map[string]int
}

// New creates an index backed by the given dump file. The file is not
// touched until the first lookup.
func New(path string) *Index {
	return &Index{path: path}
}

// load reads the dump file into memory. A missing or unreadable file
// degrades to an empty index with a warning; lookups then miss for every
// CAS and later tiers take over.
func (ix *Index) load() {
	ix.casToCID = make(map[string]int)

	f, err := os.Open(ix.path)
	if err != nil {
		log.Printf("Warning: PubChem dump not available: %v", err)
		return
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		log.Printf("Warning: PubChem dump is not valid gzip: %v", err)
		return
	}
	defer zr.Close()

	start := time.Now()
	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		parts := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(parts) < 2 {
			continue
		}
		cid, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		ix.casToCID[parts[1]] = cid
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Warning: error reading PubChem dump (partial load kept): %v", err)
	}
	log.Printf("Loaded %d CAS→CID mappings from dump in %s", len(ix.casToCID), time.Since(start).Round(time.Millisecond))
}

// Lookup returns the CID for a CAS number, if the dump knows it.
func (ix *Index) Lookup(cas string) (int, bool) {
	ix.loadOnce.Do(ix.load)
	cid, ok := ix.casToCID[cas]
	return cid, ok
}

// ResolveBatch looks up every CAS in the batch and returns the hits.
func (ix *Index) ResolveBatch(casNumbers []string) map[string]int {
	ix.loadOnce.Do(ix.load)
	out := make(map[string]int)
	for _, cas := range casNumbers {
		if cid, ok := ix.casToCID[cas]; ok {
			out[cas] = cid
		}
	}
	return out
}

// ReverseLookup scans the index for a CAS number mapped to the given CID.
// First match wins. This is a linear scan over the whole dump; it is only
// called for the small unresolved tail during repair.
func (ix *Index) ReverseLookup(cid int) (string, bool) {
	ix.loadOnce.Do(ix.load)
	for cas, c := range ix.casToCID {
		if c == cid {
			return cas, true
		}
	}
	return "", false
}

// Size returns the number of loaded mappings.
func (ix *Index) Size() int {
	ix.loadOnce.Do(ix.load)
	return len(ix.casToCID)
}
