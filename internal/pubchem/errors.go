package pubchem

import (
	"errors"
	"fmt"
)

// ErrNoMatch indicates the compound API found nothing for the query (404).
var ErrNoMatch = errors.New("no matching compound")

// HTTPError is a non-200 response from a PubChem endpoint.
type HTTPError struct {
	Status   int
	Endpoint string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s endpoint returned HTTP %d", e.Endpoint, e.Status)
}

// IsRateLimited reports whether err is an HTTP 429 from any endpoint.
func IsRateLimited(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == 429
}
