package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// CTSClient queries the Chemical Translation Service for CAS→CID mappings.
// CTS is best effort: any failure here just falls through to the next tier.
type CTSClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewCTSClient creates a translation client for the given base URL.
func NewCTSClient(baseURL string) *CTSClient {
	return &CTSClient{BaseURL: baseURL, HTTPClient: http.DefaultClient}
}

// Translate resolves a single CAS number to a CID. Any error, non-200
// status, or empty result set is reported as an error; callers treat all
// of them the same way.
func (c *CTSClient) Translate(ctx context.Context, casNumber string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+url.PathEscape(casNumber), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("translation service returned HTTP %d", resp.StatusCode)
	}

	var payload []struct {
		Results []string `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to parse translation response: %w", err)
	}
	if len(payload) == 0 || len(payload[0].Results) == 0 {
		return 0, fmt.Errorf("no translation for %s", casNumber)
	}
	cid, err := strconv.Atoi(payload[0].Results[0])
	if err != nil || cid <= 0 {
		return 0, fmt.Errorf("translation returned non-numeric CID %q", payload[0].Results[0])
	}
	return cid, nil
}
