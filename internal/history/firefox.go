package history

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang/snappy"
	_ "modernc.org/sqlite"
)

// pubchemLSPath is where Firefox keeps pubchem.ncbi.nlm.nih.gov's
// localStorage inside a profile directory.
const pubchemLSPath = "storage/default/https+++pubchem.ncbi.nlm.nih.gov/ls/data.sqlite"

// FirefoxStore reads PubChem history from a Firefox profile.
type FirefoxStore struct {
	// ProfilesDir overrides the platform default Firefox profiles
	// directory; empty means auto-detect.
	ProfilesDir string
}

// DefaultFirefoxProfilesDir returns the platform's Firefox profiles
// directory, or "" when the platform has no known location.
func DefaultFirefoxProfilesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Mozilla", "Firefox", "Profiles")
		}
		return ""
	default:
		return filepath.Join(home, ".mozilla", "firefox")
	}
}

// DatabasePath locates a PubChem localStorage database. Every profile is
// considered: the default profile wins when it holds one, otherwise the
// first profile that does. An empty string means no Firefox installation
// or no PubChem storage exists, which is not an error.
func (s *FirefoxStore) DatabasePath() string {
	dir := s.ProfilesDir
	if dir == "" {
		dir = DefaultFirefoxProfilesDir()
	}
	if dir == "" {
		return ""
	}

	for _, profile := range profileDirs(dir) {
		dbPath := filepath.Join(profile, filepath.FromSlash(pubchemLSPath))
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath
		}
	}
	return ""
}

// profileDirs lists existing profile directories in preference order: the
// Default= assignment of an [Install...] section in profiles.ini, then a
// profile section carrying Default=1, then the remaining profiles as
// listed. Without a usable profiles.ini, every subdirectory is a
// candidate.
func profileDirs(profilesDir string) []string {
	var installDefault string
	var markedDefault string
	var listed []string

	if f, err := os.Open(filepath.Join(profilesDir, "profiles.ini")); err == nil {
		var sectionPath string
		var sectionIsDefault bool
		inProfile := false

		flush := func() {
			if sectionPath == "" {
				return
			}
			listed = append(listed, sectionPath)
			if sectionIsDefault && markedDefault == "" {
				markedDefault = sectionPath
			}
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case strings.HasPrefix(line, "["):
				if inProfile {
					flush()
				}
				inProfile = strings.HasPrefix(line, "[Profile")
				sectionPath = ""
				sectionIsDefault = false
			case strings.HasPrefix(line, "Default="):
				value := strings.TrimPrefix(line, "Default=")
				if inProfile {
					sectionIsDefault = value == "1"
				} else if installDefault == "" {
					installDefault = value
				}
			case inProfile && strings.HasPrefix(line, "Path="):
				sectionPath = strings.TrimPrefix(line, "Path=")
			}
		}
		if inProfile {
			flush()
		}
		f.Close()
	}

	var names []string
	if len(listed) == 0 && installDefault == "" {
		entries, err := os.ReadDir(profilesDir)
		if err != nil {
			return nil
		}
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}
	} else {
		names = append([]string{installDefault, markedDefault}, listed...)
	}

	seen := make(map[string]bool, len(names))
	var dirs []string
	for _, name := range names {
		if name == "" {
			continue
		}
		full := name
		if !filepath.IsAbs(full) {
			full = filepath.Join(profilesDir, name)
		}
		if seen[full] {
			continue
		}
		seen[full] = true
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			dirs = append(dirs, full)
		}
	}
	return dirs
}

// Read returns the PubChem searches recorded by Firefox, or an empty slice
// when no profile or history exists.
func (s *FirefoxStore) Read() ([]Entry, error) {
	dbPath := s.DatabasePath()
	if dbPath == "" {
		return nil, nil
	}

	// Firefox keeps the database locked while running; read a copy.
	tmpPath, err := copyToTemp(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to copy Firefox database: %w", err)
	}
	defer os.Remove(tmpPath)

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Firefox database: %w", err)
	}
	defer db.Close()

	var value []byte
	var compressionType int
	err = db.QueryRow(`SELECT value, compression_type FROM data WHERE key = 'history'`).Scan(&value, &compressionType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query Firefox localStorage: %w", err)
	}

	if compressionType == 1 {
		value, err = snappy.Decode(nil, value)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress history value: %w", err)
		}
	}
	return parseHistory(value, SourceFirefox)
}

func copyToTemp(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "chemsearch-ls-*.sqlite")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}
