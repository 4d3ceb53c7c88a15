package pubchem

import (
	"strconv"
	"strings"

	"github.com/mf-rug/rug-chemsearch-cl/internal/config"
)

// KeyURL builds a browser URL that opens PubChem's search results for a
// cache key. The page resolves the key server-side, so the URL stays
// short regardless of list size, but breaks once the key expires.
func KeyURL(cacheKey string) string {
	return config.SearchURLPrefix + cacheKey
}

// CIDListURL builds a browser URL listing the CIDs directly. It never
// expires, but the browser address bar caps URL length; ok is false when
// the list does not fit and the caller should fall back to a key URL.
func CIDListURL(cids []int) (string, bool) {
	parts := make([]string, len(cids))
	for i, cid := range cids {
		parts[i] = strconv.Itoa(cid)
	}
	url := config.SearchURLPrefix + strings.Join(parts, ",")
	if len(url) > config.MaxDirectURLLength {
		return "", false
	}
	return url, true
}
