package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mf-rug/rug-chemsearch-cl/internal/combine"
	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/filterstore"
	"github.com/mf-rug/rug-chemsearch-cl/internal/history"
	"github.com/mf-rug/rug-chemsearch-cl/internal/pubchem"
)

// NewCombineCmd creates the 'combine' command that set-combines a browser
// search with the resolved inventory.
func NewCombineCmd() *cobra.Command {
	var includeApp bool

	cmd := &cobra.Command{
		Use:   "combine <search> <AND|OR|NOT> <inventory.json>",
		Short: "Combine a PubChem search with your inventory",
		Long: `Apply a set operation between your resolved inventory and a PubChem
search from the browser history. The search is given as its number in
'chemsearch history' output, or as a raw cache key.

  AND  compounds in both the inventory and the search
  OR   compounds in either
  NOT  inventory compounds absent from the search

The result is stored and listed by 'chemsearch results'.`,
		Example: `  chemsearch combine 1 AND inventory.json
  chemsearch combine 3 NOT inventory.json
  chemsearch combine a1b2c3d4e5 OR inventory.json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(args[0], args[1], args[2], includeApp)
		},
	}

	cmd.Flags().BoolVarP(&includeApp, "all", "a", false, "Number searches as 'history --all' does")

	return cmd
}

func runCombine(searchArg, opArg, inventoryPath string, includeApp bool) error {
	op, err := pubchem.ParseOp(opArg)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	table, mapping, err := loadResolvedTable(inventoryPath)
	if err != nil {
		return err
	}
	cids := resolvedCIDs(table, mapping)

	store := newFilterStore(cfg)
	entry, err := pickSearch(cfg, store, searchArg, includeApp)
	if err != nil {
		return err
	}

	fmt.Printf("Combining %d inventory compounds %s %q (%d compounds)...\n",
		len(cids), op, orDash(entry.Name), entry.ListSize)

	combiner := combine.New(newPubChemClient(cfg), store)
	result, err := combiner.Combine(context.Background(), cids, entry, op)

	var stale *combine.StaleSearchError
	if errors.As(err, &stale) {
		if markErr := store.MarkStale(stale.CacheKey); markErr != nil {
			log.Printf("Warning: failed to blacklist expired search: %v", markErr)
		}
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n%d matching compounds (result id %s)\n", result.MatchCount, result.ID)
	if result.PubChemURL != "" {
		fmt.Printf("View on PubChem: %s\n", result.PubChemURL)
	}
	fmt.Println("Keep it: chemsearch results save " + result.ID)
	return nil
}

// pickSearch resolves the search argument: an index into the visible
// history listing, or a literal cache key.
func pickSearch(cfg *config.Config, store *filterstore.Store, arg string, includeApp bool) (history.Entry, error) {
	entries := history.Merge(loadHistory(cfg, false), appEntries(store))
	visible := history.Filter(entries, store.StaleKeys(), store.AppKeys(), includeApp)

	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 1 || idx > len(visible) {
			return history.Entry{}, fmt.Errorf("search number %d out of range: history has %d entries", idx, len(visible))
		}
		return visible[idx-1], nil
	}
	for _, e := range entries {
		if e.CacheKey == arg {
			return e, nil
		}
	}
	// Unknown keys are accepted; they may come from another machine.
	return history.Entry{CacheKey: arg, Name: arg}, nil
}
