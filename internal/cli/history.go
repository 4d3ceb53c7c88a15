package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/filterstore"
	"github.com/mf-rug/rug-chemsearch-cl/internal/history"
)

// NewHistoryCmd creates the 'history' command listing PubChem searches
// found in the local browsers.
func NewHistoryCmd() *cobra.Command {
	var jsonOutput bool
	var includeApp bool
	var refresh bool
	var showFingerprint bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List PubChem searches from your browser history",
		Long: `Read the PubChem search history stored by Firefox and Chrome, merged
and deduplicated, newest first. Entries this tool uploaded itself are
hidden unless --all is given; searches known to have expired on PubChem's
side are always hidden.`,
		Example: `  chemsearch history
  chemsearch history --all
  chemsearch history --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showFingerprint {
				return runHistoryFingerprint()
			}
			return runHistory(jsonOutput, includeApp, refresh)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVarP(&includeApp, "all", "a", false, "Include app-generated searches")
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Ignore the cached snapshot and re-read the browsers")
	cmd.Flags().BoolVar(&showFingerprint, "fingerprint", false, "Print the browser store fingerprint and exit")

	return cmd
}

func runHistoryFingerprint() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	reader := history.NewReader(cfg.FirefoxProfilesDir, cfg.ChromeLocalStorageDir)
	fmt.Println(reader.Fingerprint())
	return nil
}

func runHistory(jsonOutput, includeApp, refresh bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store := newFilterStore(cfg)
	entries := history.Merge(loadHistory(cfg, refresh), appEntries(store))
	visible := history.Filter(entries, store.StaleKeys(), store.AppKeys(), includeApp)

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(visible)
	}
	if len(visible) == 0 {
		fmt.Println("No PubChem searches found in your browsers.")
		fmt.Println("Search on https://pubchem.ncbi.nlm.nih.gov and try again.")
		return nil
	}

	fmt.Printf("PubChem searches (%d):\n\n", len(visible))
	for i, e := range visible {
		marker := ""
		if e.AppGenerated {
			marker = "  [chemsearch]"
		}
		when := time.UnixMilli(e.Timestamp).Format("2006-01-02 15:04")
		fmt.Printf("  %2d. %s%s\n", i+1, orDash(e.Name), marker)
		fmt.Printf("      %s  %d compounds  %s  (%s)\n", when, e.ListSize, e.CacheKey, e.Source)
	}
	fmt.Println("\nCombine one with your inventory: chemsearch combine <number> <AND|OR|NOT> <inventory.json>")
	return nil
}

// appEntries converts the store's recorded uploads into history entries
// so the tool's own searches can be listed and combined like browser ones.
func appEntries(store *filterstore.Store) []history.Entry {
	searches, err := store.AppSearches()
	if err != nil {
		log.Printf("Warning: failed to read recorded searches: %v", err)
		return nil
	}
	entries := make([]history.Entry, 0, len(searches))
	for _, s := range searches {
		entries = append(entries, history.Entry{
			CacheKey:  s.CacheKey,
			Name:      s.Query,
			ListSize:  s.Count,
			Timestamp: s.Timestamp,
			Source:    s.Source,
		})
	}
	return entries
}

// historySnapshot caches the merged history against a fingerprint of the
// browser stores, so unchanged stores skip the copy-and-parse work.
type historySnapshot struct {
	Fingerprint string          `json:"fingerprint"`
	Entries     []history.Entry `json:"entries"`
}

func loadHistory(cfg *config.Config, refresh bool) []history.Entry {
	reader := history.NewReader(cfg.FirefoxProfilesDir, cfg.ChromeLocalStorageDir)
	snapshotPath := cfg.DataPath("history_cache.json")
	fingerprint := reader.Fingerprint()

	if !refresh {
		if data, err := os.ReadFile(snapshotPath); err == nil {
			var snap historySnapshot
			if err := json.Unmarshal(data, &snap); err == nil && snap.Fingerprint == fingerprint {
				return snap.Entries
			}
		}
	}

	entries := reader.ReadAll()
	data, err := json.MarshalIndent(historySnapshot{Fingerprint: fingerprint, Entries: entries}, "", "  ")
	if err == nil {
		if err := os.MkdirAll(cfg.DataDir, 0755); err == nil {
			if err := os.WriteFile(snapshotPath, data, 0644); err != nil {
				log.Printf("Warning: failed to cache history snapshot: %v", err)
			}
		}
	}
	return entries
}
