/*
Package resolve turns CAS registry numbers into PubChem CIDs through a
tiered pipeline, cheapest source first:

 1. local bulk dump index
 2. persistent lookup cache from earlier runs
 3. Chemical Translation Service (best effort)
 4. PubChem compound API (authoritative for not-found)

The first tier that produces an answer wins; later tiers only see the
identifiers still unresolved. Results from tiers 3 and 4 are written back
to the cache, except transient errors, which stay retryable.
*/
package resolve

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
	"github.com/mf-rug/rug-chemsearch-cl/internal/dump"
	"github.com/mf-rug/rug-chemsearch-cl/internal/lookup"
	"github.com/mf-rug/rug-chemsearch-cl/internal/pubchem"
)

// rateLimitBackoff is how long to wait before the single retry after the
// compound API answers 429.
var rateLimitBackoff = 5 * time.Second

// Resolver drives the tiered CAS→CID pipeline.
type Resolver struct {
	Dump     *dump.Index
	Cache    *lookup.Cache
	CTS      *CTSClient
	Compound *pubchem.Client
	Limits   config.Limits
}

// New assembles a resolver over the given tiers. Dump, Cache, and CTS may
// be nil to skip their tiers.
func New(idx *dump.Index, cache *lookup.Cache, cts *CTSClient, compound *pubchem.Client, limits config.Limits) *Resolver {
	return &Resolver{
		Dump:     idx,
		Cache:    cache,
		CTS:      cts,
		Compound: compound,
		Limits:   limits,
	}
}

// ResolveBatch resolves every CAS number in the batch and returns a result
// per input, keyed by the CAS number. Inputs should already be normalized.
func (r *Resolver) ResolveBatch(ctx context.Context, casNumbers []string) map[string]lookup.Result {
	results := make(map[string]lookup.Result, len(casNumbers))
	remaining := casNumbers

	remaining = r.resolveFromDump(remaining, results)
	remaining = r.resolveFromCache(remaining, results)
	remaining = r.resolveFromCTS(ctx, remaining, results)
	remaining = r.resolveFromCompound(ctx, remaining, results)

	// Everything the tiers left behind is a transient failure.
	for _, cas := range remaining {
		results[cas] = lookup.Result{Status: lookup.StatusError, Detail: "all sources failed"}
	}

	r.writeBack(results)
	return results
}

func (r *Resolver) resolveFromDump(casNumbers []string, results map[string]lookup.Result) []string {
	if r.Dump == nil || len(casNumbers) == 0 {
		return casNumbers
	}
	hits := r.Dump.ResolveBatch(casNumbers)
	var remaining []string
	for _, cas := range casNumbers {
		if cid, ok := hits[cas]; ok {
			results[cas] = lookup.Result{Status: lookup.StatusFound, CID: cid, Detail: "dump"}
		} else {
			remaining = append(remaining, cas)
		}
	}
	return remaining
}

func (r *Resolver) resolveFromCache(casNumbers []string, results map[string]lookup.Result) []string {
	if r.Cache == nil || len(casNumbers) == 0 {
		return casNumbers
	}
	cached := r.Cache.GetBatch(casNumbers)
	var remaining []string
	for _, cas := range casNumbers {
		if res, ok := cached[cas]; ok {
			results[cas] = res
		} else {
			remaining = append(remaining, cas)
		}
	}
	return remaining
}

// resolveFromCTS runs the translation tier concurrently. Failures are not
// recorded; the identifier just stays in the remaining set.
func (r *Resolver) resolveFromCTS(ctx context.Context, casNumbers []string, results map[string]lookup.Result) []string {
	if r.CTS == nil || len(casNumbers) == 0 {
		return casNumbers
	}

	var mu sync.Mutex
	found := make(map[string]int)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Limits.TranslationConcurrency)
	for _, cas := range casNumbers {
		cas := cas
		group.Go(func() error {
			cid, err := r.CTS.Translate(ctx, cas)
			if err != nil {
				return nil
			}
			mu.Lock()
			found[cas] = cid
			mu.Unlock()
			return nil
		})
	}
	group.Wait()

	var remaining []string
	for _, cas := range casNumbers {
		if cid, ok := found[cas]; ok {
			results[cas] = lookup.Result{Status: lookup.StatusFound, CID: cid, Detail: "cts"}
		} else {
			remaining = append(remaining, cas)
		}
	}
	return remaining
}

// resolveFromCompound runs the final tier against the compound API, paced
// to stay under PubChem's request limits. A 429 gets one retry after a
// backoff; a second failure is recorded as an error result so the cache
// never learns it.
func (r *Resolver) resolveFromCompound(ctx context.Context, casNumbers []string, results map[string]lookup.Result) []string {
	if r.Compound == nil || len(casNumbers) == 0 {
		return casNumbers
	}

	limiter := rate.NewLimiter(rate.Every(time.Duration(r.Limits.CompoundDelayMs)*time.Millisecond), 1)
	var mu sync.Mutex
	resolved := make(map[string]lookup.Result)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Limits.CompoundConcurrency)
	for _, cas := range casNumbers {
		cas := cas
		group.Go(func() error {
			res := r.searchCompound(gctx, limiter, cas)
			mu.Lock()
			resolved[cas] = res
			mu.Unlock()
			return nil
		})
	}
	group.Wait()

	for _, cas := range casNumbers {
		if res, ok := resolved[cas]; ok {
			results[cas] = res
		}
	}
	return nil
}

func (r *Resolver) searchCompound(ctx context.Context, limiter *rate.Limiter, casNumber string) lookup.Result {
	if err := limiter.Wait(ctx); err != nil {
		return lookup.Result{Status: lookup.StatusError, Detail: "cancelled"}
	}

	cids, err := r.Compound.CIDsByName(ctx, casNumber)
	if pubchem.IsRateLimited(err) {
		log.Printf("Warning: rate limited by compound API, retrying %s in %v", casNumber, rateLimitBackoff)
		select {
		case <-time.After(rateLimitBackoff):
		case <-ctx.Done():
			return lookup.Result{Status: lookup.StatusError, Detail: "cancelled"}
		}
		cids, err = r.Compound.CIDsByName(ctx, casNumber)
	}

	switch {
	case errors.Is(err, pubchem.ErrNoMatch):
		return lookup.Result{Status: lookup.StatusNotFound, Detail: "compound"}
	case err != nil:
		return lookup.Result{Status: lookup.StatusError, Detail: err.Error()}
	case len(cids) == 0:
		return lookup.Result{Status: lookup.StatusNoCID, Detail: "compound"}
	default:
		return lookup.Result{Status: lookup.StatusFound, CID: cids[0], Detail: "compound"}
	}
}

// writeBack persists the cacheable remote results. Dump hits are skipped:
// they are already answered locally on every run.
func (r *Resolver) writeBack(results map[string]lookup.Result) {
	if r.Cache == nil {
		return
	}
	toCache := make(map[string]lookup.Result)
	for cas, res := range results {
		if res.Detail == "dump" || !res.Cacheable() {
			continue
		}
		toCache[cas] = res
	}
	if len(toCache) == 0 {
		return
	}
	if err := r.Cache.PutMany(toCache); err != nil {
		log.Printf("Warning: failed to update lookup cache: %v", err)
	}
}

// Partition splits batch results by status for reporting.
func Partition(results map[string]lookup.Result) (found, notFound, failed []string) {
	for cas, res := range results {
		switch {
		case res.HasCID():
			found = append(found, cas)
		case res.Status == lookup.StatusError:
			failed = append(failed, cas)
		default:
			notFound = append(notFound, cas)
		}
	}
	return found, notFound, failed
}
