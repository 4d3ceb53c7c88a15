package history

import (
	"fmt"
	"log"
	"os"
)

// Reader aggregates history across both supported browsers.
type Reader struct {
	Firefox *FirefoxStore
	Chrome  *ChromeStore
}

// NewReader creates a reader with optional directory overrides; empty
// strings enable platform auto-detection.
func NewReader(firefoxProfilesDir, chromeLevelDBDir string) *Reader {
	return &Reader{
		Firefox: &FirefoxStore{ProfilesDir: firefoxProfilesDir},
		Chrome:  &ChromeStore{LevelDBDir: chromeLevelDBDir},
	}
}

// ReadAll reads both browsers and returns the merged, deduplicated history,
// newest first. A failure in one browser is logged and does not hide the
// other browser's entries.
func (r *Reader) ReadAll() []Entry {
	firefox, err := r.Firefox.Read()
	if err != nil {
		log.Printf("Warning: could not read Firefox history: %v", err)
	}
	chrome, err := r.Chrome.Read()
	if err != nil {
		log.Printf("Warning: could not read Chrome history: %v", err)
	}
	return Merge(firefox, chrome)
}

// Fingerprint captures the modification state of both browser stores so
// callers can skip re-reading when nothing changed. The value is opaque;
// only equality matters.
func (r *Reader) Fingerprint() string {
	return fmt.Sprintf("ff:%s|cr:%s",
		mtimeToken(r.Firefox.DatabasePath()),
		mtimeToken(r.Chrome.Dir()))
}

func mtimeToken(path string) string {
	if path == "" {
		return "none"
	}
	info, err := os.Stat(path)
	if err != nil {
		return "err"
	}
	return fmt.Sprintf("%d", info.ModTime().UnixNano())
}
