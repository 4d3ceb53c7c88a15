package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/inventory"
	"github.com/mf-rug/rug-chemsearch-cl/internal/lookup"
)

// NewExportCmd creates the 'export' command writing resolved CIDs to
// plain files for use outside chemsearch.
func NewExportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export <inventory.json>",
		Short: "Export resolved CIDs and the CAS mapping",
		Long: `Write two files from a resolved inventory:

  pubchem_cids.txt     one CID per line, for pasting into PubChem tools
  cas_to_pubchem.csv   the CAS to CID mapping with resolution status`,
		Example: `  chemsearch export inventory.json
  chemsearch export inventory.json --out ~/exports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(args[0], outDir)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write exports into")

	return cmd
}

func runExport(inventoryPath, outDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	table, mapping, err := loadResolvedTable(inventoryPath)
	if err != nil {
		return err
	}

	cidPath := filepath.Join(outDir, "pubchem_cids.txt")
	if err := inventory.ExportCIDs(cidPath, resolvedCIDs(table, mapping)); err != nil {
		return err
	}
	csvPath := filepath.Join(outDir, "cas_to_pubchem.csv")
	cache := lookup.NewCache(cfg.DataPath("cid_cache.json"))
	if err := inventory.ExportMapping(csvPath, mappingRows(table, mapping, cache)); err != nil {
		return err
	}

	fmt.Printf("Exported %d compounds:\n  %s\n  %s\n", len(mapping), cidPath, csvPath)
	return nil
}

// mappingRows covers every CAS number in the table, not just resolved
// ones, so the CSV records why a compound is missing from the CID list.
// Rows come out in the table's first-seen order.
func mappingRows(table *inventory.Table, mapping map[string]int, cache *lookup.Cache) []inventory.MappingRow {
	var rows []inventory.MappingRow
	for _, casNumber := range table.CASOrdered() {
		row := inventory.MappingRow{CAS: casNumber, CID: mapping[casNumber]}
		if res, ok := cache.Get(casNumber); ok {
			row.Status = string(res.Status)
		} else if row.CID > 0 {
			row.Status = string(lookup.StatusFound)
		} else {
			row.Status = string(lookup.StatusNotFound)
		}
		rows = append(rows, row)
	}
	return rows
}
