/*
Package cas validates and normalizes CAS registry numbers.

A CAS number has the form NNNNNNN-NN-N (1-7 digits, 2 digits, 1 digit).
The inventory system uses "00-00-0" as a placeholder for unknown numbers;
it is rejected along with anything that fails the pattern.
*/
package cas

import (
	"regexp"
	"strings"
)

// Pattern matches a syntactically valid CAS registry number.
var Pattern = regexp.MustCompile(`^\d{1,7}-\d{2}-\d$`)

// Placeholder is the inventory's sentinel for "no CAS number assigned".
const Placeholder = "00-00-0"

// Normalize trims whitespace from a raw registry-number string and reports
// whether the result is a valid CAS number. The returned string is only
// meaningful when ok is true.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == Placeholder {
		return "", false
	}
	if !Pattern.MatchString(s) {
		return "", false
	}
	if strings.Trim(s, "0-") == "" {
		// all-zero variants ("0-00-0" etc.) are placeholders too
		return "", false
	}
	return s, true
}

// Valid reports whether raw normalizes to a valid CAS number.
func Valid(raw string) bool {
	_, ok := Normalize(raw)
	return ok
}

// ExtractBatch normalizes a sequence of raw registry-number strings,
// dropping invalid entries and duplicates. First-seen order is preserved;
// it becomes the canonical order for downstream exports.
func ExtractBatch(raws []string) []string {
	seen := make(map[string]struct{}, len(raws))
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		c, ok := Normalize(raw)
		if !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
