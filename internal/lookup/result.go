/*
Package lookup defines CAS resolution results and the persistent CID cache.

A Result is produced by whichever resolution tier answered for a CAS
number. Terminal outcomes (found, not found, no CID) are cacheable;
transport errors are not, so a future run retries them instead of being
stuck with a false negative.
*/
package lookup

// Status classifies a resolution outcome.
type Status string

const (
	// StatusFound means the CAS resolved to a CID.
	StatusFound Status = "found"

	// StatusNotFound means the remote service definitively knows no match.
	StatusNotFound Status = "not_found"

	// StatusNoCID means the service matched the name but returned no CID.
	StatusNoCID Status = "no_cid"

	// StatusError means a transport-level failure; retry-eligible, never cached.
	StatusError Status = "error"

	// StatusRepaired means the CID came from a name-search repair the user
	// reviewed and applied.
	StatusRepaired Status = "repaired"
)

// Result is the outcome of resolving one CAS number.
type Result struct {
	// Status classifies the outcome.
	Status Status `json:"status"`

	// CID is the PubChem compound ID, 0 when none was found.
	CID int `json:"cid,omitempty"`

	// Detail carries extra context for error statuses (e.g. "http_429").
	Detail string `json:"detail,omitempty"`

	// RepairSource records how a repaired result was obtained
	// (e.g. "text_search:ethanol"). Only set for StatusRepaired.
	RepairSource string `json:"repair_source,omitempty"`

	// RealCAS is the registry number recovered by reverse lookup for a
	// repaired result, when the dump knows the matched CID.
	RealCAS string `json:"real_cas,omitempty"`
}

// HasCID reports whether the result carries a usable compound ID.
func (r Result) HasCID() bool {
	return r.CID > 0 && (r.Status == StatusFound || r.Status == StatusRepaired)
}

// Cacheable reports whether the result may be persisted. Transient
// transport errors are excluded so they stay retry-eligible.
func (r Result) Cacheable() bool {
	return r.Status != StatusError
}
