package history

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/syndtr/goleveldb/leveldb"
)

// writeLevelDB builds a Chrome localStorage LevelDB with the history key
// stored under the PubChem origin.
func writeLevelDB(t *testing.T, value []byte) string {
	t.Helper()
	dir := t.TempDir()
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		t.Fatalf("failed to create leveldb: %v", err)
	}
	defer db.Close()

	key := append([]byte(chromeOriginPrefix), 0x01)
	key = append(key, []byte("history")...)
	if err := db.Put(key, value, nil); err != nil {
		t.Fatalf("failed to write history key: %v", err)
	}
	// Unrelated origins and keys must be ignored.
	if err := db.Put([]byte("_https://example.com\x00\x01history"), append([]byte{0x01}, []byte(`[]`)...), nil); err != nil {
		t.Fatalf("failed to write decoy key: %v", err)
	}
	return dir
}

func TestChromeReadUTF8Value(t *testing.T) {
	dir := writeLevelDB(t, append([]byte{0x01}, []byte(sampleHistory)...))
	store := &ChromeStore{LevelDBDir: dir}

	entries, err := store.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Source != SourceChrome {
		t.Errorf("expected chrome source, got %s", entries[0].Source)
	}
}

func TestChromeReadUTF16Value(t *testing.T) {
	units := utf16.Encode([]rune(sampleHistory))
	payload := make([]byte, 1+len(units)*2)
	payload[0] = 0x00
	for i, u := range units {
		binary.LittleEndian.PutUint16(payload[1+i*2:], u)
	}

	dir := writeLevelDB(t, payload)
	store := &ChromeStore{LevelDBDir: dir}

	entries, err := store.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries from UTF-16 value, got %d", len(entries))
	}
}

func TestChromeReadMissingDir(t *testing.T) {
	store := &ChromeStore{LevelDBDir: "/nonexistent/leveldb"}
	entries, err := store.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}

func TestChromeReadLeavesOriginalIntact(t *testing.T) {
	dir := writeLevelDB(t, append([]byte{0x01}, []byte(sampleHistory)...))
	store := &ChromeStore{LevelDBDir: dir}
	if _, err := store.Read(); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	// The original store must still open after a read worked on a copy.
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		t.Fatalf("original leveldb no longer opens: %v", err)
	}
	db.Close()
}
