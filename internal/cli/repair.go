package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/dump"
	"github.com/mf-rug/rug-chemsearch-cl/internal/inventory"
	"github.com/mf-rug/rug-chemsearch-cl/internal/lookup"
	"github.com/mf-rug/rug-chemsearch-cl/internal/repair"
)

// NewRepairCmd creates the 'repair' command that recovers CIDs for rows
// whose CAS number did not resolve, by compound name search.
func NewRepairCmd() *cobra.Command {
	var apply bool
	var dumpFile string
	var rowsFlag string

	cmd := &cobra.Command{
		Use:   "repair <inventory.json>",
		Short: "Search unresolved inventory rows by compound name",
		Long: `Find inventory rows whose CAS number produced no PubChem CID and search
the compound name instead. Without --apply the suggestions are only
printed for review; with --apply they are written to the lookup cache and
the inventory's CID column. --rows restricts --apply to the listed row
numbers, accepting a subset of the suggestions.`,
		Example: `  chemsearch repair inventory.json
  chemsearch repair inventory.json --apply
  chemsearch repair inventory.json --apply --rows 3,7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(args[0], dumpFile, apply, rowsFlag)
		},
	}

	cmd.Flags().BoolVarP(&apply, "apply", "a", false, "Write accepted suggestions to cache and inventory")
	cmd.Flags().StringVarP(&dumpFile, "dump", "d", "", "Path to the CID-CAS bulk dump (overrides config)")
	cmd.Flags().StringVarP(&rowsFlag, "rows", "r", "", "Comma-separated row numbers to apply (default all)")

	return cmd
}

func runRepair(inventoryPath, dumpFile string, apply bool, rowsFlag string) error {
	if rowsFlag != "" && !apply {
		return fmt.Errorf("--rows requires --apply")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	table, err := inventory.Load(inventoryPath)
	if err != nil {
		return err
	}

	cache := lookup.NewCache(cfg.DataPath("cid_cache.json"))
	candidates := repairCandidates(table, cache)
	if len(candidates) == 0 {
		fmt.Println("Nothing to repair: every row with a name already has a CID.")
		return nil
	}
	fmt.Printf("Searching %d unresolved rows by compound name...\n", len(candidates))

	if dumpFile == "" {
		dumpFile = cfg.DumpFile
	}
	repairer := repair.New(newPubChemClient(cfg), dump.New(dumpFile), *cfg.Limits)
	suggestions := repairer.Suggest(context.Background(), candidates)
	if len(suggestions) == 0 {
		fmt.Println("No name matches found.")
		return nil
	}

	rows := make([]int, 0, len(suggestions))
	for row := range suggestions {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	fmt.Printf("\nFound %d suggestions:\n\n", len(suggestions))
	for _, row := range rows {
		sug := suggestions[row]
		fmt.Printf("  row %d: %s\n", row+1, sug.Name)
		fmt.Printf("    listed CAS: %s  ->  CID %d", orDash(sug.OriginalCAS), sug.CID)
		if sug.RealCAS != "" && sug.RealCAS != sug.OriginalCAS {
			fmt.Printf("  (registered CAS: %s)", sug.RealCAS)
		}
		fmt.Println()
	}

	if !apply {
		fmt.Println("\nRe-run with --apply to accept these suggestions,")
		fmt.Println("or --apply --rows 3,7 to accept only those rows.")
		return nil
	}

	if rowsFlag != "" {
		rows, err = selectRows(rowsFlag, suggestions)
		if err != nil {
			return err
		}
	}

	accepted := make([]repair.Suggestion, 0, len(rows))
	cidByRow := make(map[int]string)
	for _, row := range rows {
		sug := suggestions[row]
		cidByRow[row] = strconv.Itoa(sug.CID)
		if sug.OriginalCAS != "" {
			accepted = append(accepted, sug)
		}
	}
	if err := repair.Apply(cache, accepted); err != nil {
		return fmt.Errorf("failed to update lookup cache: %w", err)
	}

	// Preserve the CIDs already in the table; only fill repaired rows.
	existing := table.CIDColumn()
	for i := range table.Rows {
		if _, ok := cidByRow[i]; ok || existing < 0 || existing >= len(table.Rows[i]) {
			continue
		}
		if cell := string(table.Rows[i][existing]); cell != "" {
			cidByRow[i] = cell
		}
	}
	table.SetColumn("CID", cidByRow)
	if err := table.Save(inventoryPath); err != nil {
		return err
	}
	fmt.Printf("\nApplied %d repairs.\n", len(rows))
	return nil
}

// selectRows parses a comma-separated list of displayed row numbers into
// the subset of suggestion row indexes to apply, in ascending order.
func selectRows(flag string, suggestions map[int]repair.Suggestion) ([]int, error) {
	seen := make(map[int]bool)
	var rows []int
	for _, part := range strings.Split(flag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid row number %q", part)
		}
		row := n - 1
		if _, ok := suggestions[row]; !ok {
			return nil, fmt.Errorf("row %d has no suggestion", n)
		}
		if !seen[row] {
			seen[row] = true
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows selected")
	}
	sort.Ints(rows)
	return rows, nil
}

// repairCandidates selects rows that have a name but no usable CID: the
// CAS column is missing or malformed, or resolution ended without a CID.
func repairCandidates(table *inventory.Table, cache *lookup.Cache) []repair.Candidate {
	casByRow := table.CASByRow()
	nameByRow := table.NameByRow()
	cidCol := table.CIDColumn()

	var candidates []repair.Candidate
	for i := range table.Rows {
		name, ok := nameByRow[i]
		if !ok {
			continue
		}
		if cidCol >= 0 && cidCol < len(table.Rows[i]) && string(table.Rows[i][cidCol]) != "" {
			continue
		}
		casNumber := casByRow[i]
		if casNumber != "" {
			if res, ok := cache.Get(casNumber); ok && res.HasCID() {
				continue
			}
		}
		candidates = append(candidates, repair.Candidate{Row: i, Name: name, CAS: casNumber})
	}
	return candidates
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
