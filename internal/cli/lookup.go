/*
Package cli implements the chemsearch commands.

Each command builds its pipeline from the JSON config in ~/.chemsearch and
the data directory next to it. Commands degrade gracefully: a missing bulk
dump or browser store produces a warning, not a failure.
*/
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/dump"
	"github.com/mf-rug/rug-chemsearch-cl/internal/inventory"
	"github.com/mf-rug/rug-chemsearch-cl/internal/lookup"
	"github.com/mf-rug/rug-chemsearch-cl/internal/resolve"
)

// NewLookupCmd creates the 'lookup' command that resolves an inventory's
// CAS numbers to PubChem CIDs.
func NewLookupCmd() *cobra.Command {
	var jsonOutput bool
	var dumpFile string

	cmd := &cobra.Command{
		Use:   "lookup <inventory.json>",
		Short: "Resolve CAS numbers in an inventory to PubChem CIDs",
		Long: `Resolve every CAS registry number in the inventory table to a PubChem
compound id, using the local bulk dump, the lookup cache, the Chemical
Translation Service, and the PubChem compound API, in that order. Results
are written back into a CID column of the inventory file.`,
		Example: `  chemsearch lookup inventory.json
  chemsearch lookup inventory.json --dump ~/Downloads/CID-CAS.gz
  chemsearch lookup inventory.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(args[0], dumpFile, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output results as JSON")
	cmd.Flags().StringVarP(&dumpFile, "dump", "d", "", "Path to the CID-CAS bulk dump (overrides config)")

	return cmd
}

func runLookup(inventoryPath, dumpFile string, jsonOutput bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	table, err := inventory.Load(inventoryPath)
	if err != nil {
		return err
	}
	casByRow := table.CASByRow()
	if len(casByRow) == 0 {
		return fmt.Errorf("no valid CAS numbers in %s", inventoryPath)
	}

	hash, err := inventory.HashFile(inventoryPath)
	if err != nil {
		return err
	}

	cachePath := cfg.DataPath("cid_cache.json")
	cache := lookup.NewCache(cachePath)
	if !cache.Valid(hash) {
		log.Printf("Warning: inventory changed since last run, discarding cached resolutions")
		if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to reset lookup cache: %w", err)
		}
		cache = lookup.NewCache(cachePath)
	}

	if dumpFile == "" {
		dumpFile = cfg.DumpFile
	}

	resolver := resolve.New(
		dump.New(dumpFile),
		cache,
		resolve.NewCTSClient(cfg.Endpoints.CTS),
		newPubChemClient(cfg),
		*cfg.Limits,
	)

	unique := table.CASOrdered()
	fmt.Printf("Resolving %d CAS numbers from %d inventory rows...\n", len(unique), len(table.Rows))

	results := resolver.ResolveBatch(context.Background(), unique)
	if err := cache.SetProvenance(inventoryPath, hash); err != nil {
		log.Printf("Warning: failed to record cache provenance: %v", err)
	}

	// Write resolved CIDs back into the table.
	cidByRow := make(map[int]string)
	for row, casNumber := range casByRow {
		if res, ok := results[casNumber]; ok && res.HasCID() {
			cidByRow[row] = strconv.Itoa(res.CID)
		}
	}
	table.SetColumn("CID", cidByRow)
	if err := table.Save(inventoryPath); err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	printLookupSummary(results)
	return nil
}

func printLookupSummary(results map[string]lookup.Result) {
	found, notFound, failed := resolve.Partition(results)
	fmt.Printf("\nResolved: %d  Not found: %d  Failed: %d\n", len(found), len(notFound), len(failed))
	if len(found) > 0 {
		fmt.Println("Run 'chemsearch export' to write the CID list and CAS mapping.")
	}

	if len(notFound) > 0 {
		sort.Strings(notFound)
		fmt.Println("\nNo PubChem CID for:")
		for _, casNumber := range notFound {
			fmt.Printf("  %s\n", casNumber)
		}
		fmt.Println("Run 'chemsearch repair' to search these by compound name.")
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		fmt.Println("\nTemporary failures (will retry next run):")
		for _, casNumber := range failed {
			fmt.Printf("  %s\n", casNumber)
		}
	}
}
