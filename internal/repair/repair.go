/*
Package repair recovers CIDs for inventory rows whose CAS number failed to
resolve, by searching the compound name instead. Name matches are
heuristic, so suggestions go through an explicit review step before
anything is written to the lookup cache.
*/
package repair

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/dump"
	"github.com/mf-rug/rug-chemsearch-cl/internal/lookup"
	"github.com/mf-rug/rug-chemsearch-cl/internal/pubchem"
)

// Candidate is an inventory row eligible for repair: its CAS number did
// not resolve but it carries a compound name worth searching.
type Candidate struct {
	Row  int
	Name string
	CAS  string
}

// Suggestion is a proposed fix for one row. RealCAS is the registry number
// the bulk dump associates with the found CID, when one exists; it lets
// the reviewer spot typos in the original CAS column.
type Suggestion struct {
	Row         int    `json:"row"`
	Name        string `json:"name"`
	OriginalCAS string `json:"original_cas"`
	CID         int    `json:"cid"`
	RealCAS     string `json:"real_cas,omitempty"`
}

// Repairer searches compound names and cross-checks hits against the dump.
type Repairer struct {
	Compound *pubchem.Client
	Dump     *dump.Index
	Limits   config.Limits
}

// New creates a repairer. The dump index may be nil; suggestions then
// carry no RealCAS.
func New(compound *pubchem.Client, idx *dump.Index, limits config.Limits) *Repairer {
	return &Repairer{Compound: compound, Dump: idx, Limits: limits}
}

// Suggest searches each candidate's name and returns suggestions keyed by
// row index. Rows with empty names, no match, or request failures are
// simply absent from the result.
func (r *Repairer) Suggest(ctx context.Context, candidates []Candidate) map[int]Suggestion {
	limiter := rate.NewLimiter(rate.Every(time.Duration(r.Limits.RepairDelayMs)*time.Millisecond), 1)
	var mu sync.Mutex
	suggestions := make(map[int]Suggestion)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Limits.CompoundConcurrency)
	for _, cand := range candidates {
		if cand.Name == "" {
			continue
		}
		cand := cand
		group.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return nil
			}
			cctx, cancel := context.WithTimeout(gctx, 10*time.Second)
			cids, err := r.Compound.CIDsByName(cctx, cand.Name)
			cancel()
			if err != nil || len(cids) == 0 {
				return nil
			}
			sug := Suggestion{
				Row:         cand.Row,
				Name:        cand.Name,
				OriginalCAS: cand.CAS,
				CID:         cids[0],
			}
			if r.Dump != nil {
				if realCAS, ok := r.Dump.ReverseLookup(cids[0]); ok {
					sug.RealCAS = realCAS
				}
			}
			mu.Lock()
			suggestions[cand.Row] = sug
			mu.Unlock()
			return nil
		})
	}
	group.Wait()
	return suggestions
}

// Apply records the accepted suggestions in the lookup cache so future
// resolutions answer locally. Each entry is keyed by the original CAS
// number and marked as repaired.
func Apply(cache *lookup.Cache, accepted []Suggestion) error {
	if len(accepted) == 0 {
		return nil
	}
	results := make(map[string]lookup.Result, len(accepted))
	for _, sug := range accepted {
		results[sug.OriginalCAS] = lookup.Result{
			Status:       lookup.StatusRepaired,
			CID:          sug.CID,
			Detail:       "name search",
			RepairSource: sug.Name,
			RealCAS:      sug.RealCAS,
		}
	}
	return cache.PutMany(results)
}
