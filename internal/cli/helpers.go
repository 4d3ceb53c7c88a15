package cli

import (
	"fmt"
	"strconv"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/filterstore"
	"github.com/mf-rug/rug-chemsearch-cl/internal/inventory"
	"github.com/mf-rug/rug-chemsearch-cl/internal/pubchem"
)

// newPubChemClient builds the remote client from configured endpoints.
func newPubChemClient(cfg *config.Config) *pubchem.Client {
	return pubchem.NewClient(
		cfg.Endpoints.Pug,
		cfg.Endpoints.ListGateway,
		cfg.Endpoints.ListRefinement,
		cfg.Endpoints.SDQ,
	)
}

// newFilterStore opens the persistent result store in the data directory.
func newFilterStore(cfg *config.Config) *filterstore.Store {
	return filterstore.NewStore(cfg.DataDir)
}

// resolvedMapping reads the CID column a lookup run wrote into the table
// and pairs it with the normalized CAS per row.
func resolvedMapping(table *inventory.Table) map[string]int {
	col := table.CIDColumn()
	if col < 0 {
		return map[string]int{}
	}
	casByRow := table.CASByRow()
	mapping := make(map[string]int)
	for i := range table.Rows {
		casNumber, ok := casByRow[i]
		if !ok {
			continue
		}
		if col >= len(table.Rows[i]) {
			continue
		}
		cid, err := strconv.Atoi(string(table.Rows[i][col]))
		if err != nil || cid <= 0 {
			continue
		}
		mapping[casNumber] = cid
	}
	return mapping
}

// resolvedCIDs flattens a mapping into a deduplicated CID list, in the
// table's first-seen CAS order.
func resolvedCIDs(table *inventory.Table, mapping map[string]int) []int {
	seen := make(map[int]bool, len(mapping))
	var cids []int
	for _, casNumber := range table.CASOrdered() {
		cid := mapping[casNumber]
		if cid <= 0 || seen[cid] {
			continue
		}
		seen[cid] = true
		cids = append(cids, cid)
	}
	return cids
}

// loadResolvedTable loads an inventory and requires a prior lookup run.
func loadResolvedTable(path string) (*inventory.Table, map[string]int, error) {
	table, err := inventory.Load(path)
	if err != nil {
		return nil, nil, err
	}
	mapping := resolvedMapping(table)
	if len(mapping) == 0 {
		return nil, nil, fmt.Errorf("no resolved CIDs in %s; run 'chemsearch lookup %s' first", path, path)
	}
	return table, mapping, nil
}
