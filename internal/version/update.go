package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	RepoOwner = "mf-rug"
	RepoName  = "rug-chemsearch-cl"
)

// UpdateURL is the GitHub releases endpoint; a variable so tests can
// point it at a local server.
var UpdateURL = "https://api.github.com/repos/" + RepoOwner + "/" + RepoName + "/releases/latest"

var checkMu sync.Mutex

// GitHubRelease represents a GitHub release API response.
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// UpdateCache stores update check state.
type UpdateCache struct {
	LastUpdateCheck  time.Time `json:"lastUpdateCheck"`
	LastKnownVersion string    `json:"lastKnownVersion"`
}

// CheckUpdate checks for a newer release (cached for 24h). Returns the
// latest version string when an update exists, "" otherwise.
func CheckUpdate(ctx context.Context) (string, error) {
	checkMu.Lock()
	defer checkMu.Unlock()

	cache, err := loadUpdateCache()
	if err == nil && time.Since(cache.LastUpdateCheck) < 24*time.Hour {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", UpdateURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	latestVersion := strings.TrimPrefix(release.TagName, "v")

	cache.LastUpdateCheck = time.Now()
	cache.LastKnownVersion = latestVersion
	if err := saveUpdateCache(cache); err != nil {
		log.Printf("Warning: failed to save update cache: %v", err)
	}

	if latestVersion != strings.TrimPrefix(Version, "v") {
		return latestVersion, nil
	}
	return "", nil
}

func updateCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chemsearch", "update_check.json"), nil
}

func loadUpdateCache() (UpdateCache, error) {
	var cache UpdateCache
	path, err := updateCachePath()
	if err != nil {
		return cache, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveUpdateCache(cache UpdateCache) error {
	path, err := updateCachePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
