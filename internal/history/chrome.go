package history

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"unicode/utf16"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Chrome's localStorage LevelDB keys site records as
// "_<origin>\x00<encoded script key>".
const chromeOriginPrefix = "_https://pubchem.ncbi.nlm.nih.gov\x00"

// ChromeStore reads PubChem history from Chrome's localStorage LevelDB.
type ChromeStore struct {
	// LevelDBDir overrides the platform default Local Storage leveldb
	// directory; empty means auto-detect.
	LevelDBDir string
}

// DefaultChromeLevelDBDir returns the platform's Chrome localStorage
// directory for the default profile, or "" when unknown.
func DefaultChromeLevelDBDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "Local Storage", "leveldb")
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "Google", "Chrome", "User Data", "Default", "Local Storage", "leveldb")
		}
		return ""
	default:
		return filepath.Join(home, ".config", "google-chrome", "Default", "Local Storage", "leveldb")
	}
}

// Dir returns the LevelDB directory this store reads, or "" when Chrome
// has no localStorage on this machine.
func (s *ChromeStore) Dir() string {
	dir := s.LevelDBDir
	if dir == "" {
		dir = DefaultChromeLevelDBDir()
	}
	if dir == "" {
		return ""
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ""
	}
	return dir
}

// Read returns the PubChem searches recorded by Chrome, or an empty slice
// when Chrome or its PubChem storage is absent.
func (s *ChromeStore) Read() ([]Entry, error) {
	dir := s.Dir()
	if dir == "" {
		return nil, nil
	}

	// A running Chrome holds the LOCK file; work on a copy.
	tmpDir, err := copyDirToTemp(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to copy Chrome localStorage: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	db, err := leveldb.OpenFile(tmpDir, &opt.Options{ReadOnly: true, ErrorIfMissing: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open Chrome localStorage: %w", err)
	}
	defer db.Close()

	iter := db.NewIterator(util.BytesPrefix([]byte(chromeOriginPrefix)), nil)
	defer iter.Release()
	for iter.Next() {
		scriptKey, ok := decodeChromeKey(iter.Key())
		if !ok || scriptKey != "history" {
			continue
		}
		value, ok := decodeChromeValue(iter.Value())
		if !ok {
			continue
		}
		return parseHistory(value, SourceChrome)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan Chrome localStorage: %w", err)
	}
	return nil, nil
}

// decodeChromeKey strips the origin prefix and the script-key encoding
// byte. A leading 0x01 marks a UTF-8 key; other encodings are skipped.
func decodeChromeKey(key []byte) (string, bool) {
	rest := bytes.TrimPrefix(key, []byte(chromeOriginPrefix))
	if len(rest) < 2 || rest[0] != 0x01 {
		return "", false
	}
	return string(rest[1:]), true
}

// decodeChromeValue interprets the value's encoding byte: 0x01 is
// single-byte text, 0x00 is UTF-16LE.
func decodeChromeValue(value []byte) ([]byte, bool) {
	if len(value) == 0 {
		return nil, false
	}
	payload := value[1:]
	switch value[0] {
	case 0x01:
		return payload, true
	case 0x00:
		if len(payload)%2 != 0 {
			return nil, false
		}
		units := make([]uint16, len(payload)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(payload[i*2:])
		}
		return []byte(string(utf16.Decode(units))), true
	default:
		return nil, false
	}
}

func copyDirToTemp(dir string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "chemsearch-leveldb-*")
	if err != nil {
		return "", err
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	for _, entry := range files {
		if entry.IsDir() || entry.Name() == "LOCK" {
			continue
		}
		if err := copyFile(filepath.Join(dir, entry.Name()), filepath.Join(tmpDir, entry.Name())); err != nil {
			os.RemoveAll(tmpDir)
			return "", err
		}
	}
	return tmpDir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
