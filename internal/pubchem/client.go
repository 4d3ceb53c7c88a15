/*
Package pubchem implements clients for the PubChem services the tool uses:
the PUG REST compound API (name→CID search), the list gateway (uploading a
CID list into PubChem's server-side cache), the list refinement endpoint
(combining two cache keys with a boolean operation), and the SDQ endpoint
(dereferencing a cache key back into a concrete CID list).

A cache key is an opaque token naming a set of CIDs materialized inside
PubChem. Keys expire server-side after an unknown interval (observed around
12 hours); every consumer must be prepared for dereference failures.
*/
package pubchem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Op is a boolean set operation understood by the list refinement endpoint.
type Op string

const (
	// OpAND keeps CIDs present in both lists.
	OpAND Op = "AND"

	// OpOR keeps CIDs present in either list.
	OpOR Op = "OR"

	// OpNOT keeps CIDs of the first list absent from the second.
	OpNOT Op = "NOT"
)

// ParseOp validates a user-supplied operation string.
func ParseOp(s string) (Op, error) {
	switch Op(strings.ToUpper(s)) {
	case OpAND:
		return OpAND, nil
	case OpOR:
		return OpOR, nil
	case OpNOT:
		return OpNOT, nil
	}
	return "", fmt.Errorf("invalid operation %q: use AND, OR, or NOT", s)
}

// Client talks to the PubChem endpoints. All methods honor the passed
// context and apply their own per-call timeout on top of it.
type Client struct {
	// PugBase is the PUG REST base URL.
	PugBase string

	// ListGatewayURL is the cache upload endpoint.
	ListGatewayURL string

	// ListRefinementURL is the cache-key combination endpoint.
	ListRefinementURL string

	// SDQURL is the cache-key dereference endpoint.
	SDQURL string

	// HTTPClient is the underlying transport; defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewClient creates a client for the given endpoints.
func NewClient(pugBase, listGateway, listRefinement, sdq string) *Client {
	return &Client{
		PugBase:           pugBase,
		ListGatewayURL:    listGateway,
		ListRefinementURL: listRefinement,
		SDQURL:            sdq,
		HTTPClient:        http.DefaultClient,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// CIDsByName searches the compound API by free-text name (CAS numbers also
// work as names) and returns the matching CIDs in remote relevance order.
// A 404 returns ErrNoMatch; an empty identifier list returns an empty
// slice with nil error; other non-200 statuses return *HTTPError.
func (c *Client) CIDsByName(ctx context.Context, name string) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reqURL := fmt.Sprintf("%s/compound/name/%s/cids/JSON", c.PugBase, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("compound name search failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNoMatch
	default:
		return nil, &HTTPError{Status: resp.StatusCode, Endpoint: "compound"}
	}

	var payload struct {
		IdentifierList struct {
			CID []int `json:"CID"`
		} `json:"IdentifierList"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse compound response: %w", err)
	}
	return payload.IdentifierList.CID, nil
}

// UploadCIDs posts a CID list to the list gateway and returns the cache
// key naming the materialized set.
func (c *Client) UploadCIDs(ctx context.Context, cids []int) (string, int, error) {
	if len(cids) == 0 {
		return "", 0, fmt.Errorf("no CIDs to upload")
	}
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	parts := make([]string, len(cids))
	for i, cid := range cids {
		parts[i] = strconv.Itoa(cid)
	}
	form := url.Values{"ids": {strings.Join(parts, ",")}}

	reqURL := c.ListGatewayURL + "?format=json&action=post_to_cache&id_type=cid"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("cache upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &HTTPError{Status: resp.StatusCode, Endpoint: "list_gateway"}
	}

	var payload struct {
		Response struct {
			CacheKey string  `json:"cache_key"`
			ListSize flexInt `json:"list_size"`
			Error    string  `json:"error"`
		} `json:"Response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, fmt.Errorf("failed to parse cache upload response: %w", err)
	}
	if payload.Response.Error != "" {
		return "", 0, fmt.Errorf("cache upload error: %s", payload.Response.Error)
	}
	if payload.Response.CacheKey == "" {
		return "", 0, fmt.Errorf("cache upload returned no cache key")
	}
	size := int(payload.Response.ListSize)
	if size == 0 {
		size = len(cids)
	}
	return payload.Response.CacheKey, size, nil
}

// CombineKeys asks the list refinement endpoint to combine two cache keys
// with a boolean operation, returning the resulting key and its size.
func (c *Client) CombineKeys(ctx context.Context, key1, key2 string, op Op) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	query := map[string]any{
		"Query": map[string]any{
			"Action": []any{
				map[string]any{"List": map[string]string{"CacheKey": key1}},
				map[string]any{"List": map[string]string{"CacheKey": key2}},
				map[string]any{"Operation": string(op)},
			},
			"Return": "CacheKey",
		},
	}
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal combine query: %w", err)
	}

	reqURL := c.ListRefinementURL + "?format=json&query=" + url.QueryEscape(string(queryJSON))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("combine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &HTTPError{Status: resp.StatusCode, Endpoint: "list_refinement"}
	}

	var payload struct {
		Response struct {
			List struct {
				CacheKey string `json:"CacheKey"`
			} `json:"List"`
			ListSize flexInt         `json:"ListSize"`
			Error    json.RawMessage `json:"Error"`
		} `json:"Response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, fmt.Errorf("failed to parse combine response: %w", err)
	}
	if len(payload.Response.Error) > 0 {
		return "", 0, fmt.Errorf("combine error: %s", string(payload.Response.Error))
	}
	if payload.Response.List.CacheKey == "" {
		return "", 0, fmt.Errorf("combine returned no cache key")
	}
	return payload.Response.List.CacheKey, int(payload.Response.ListSize), nil
}

// FetchCIDs dereferences a cache key into the concrete CID list via the
// SDQ endpoint. The payload shape varies; see payload.go.
func (c *Client) FetchCIDs(ctx context.Context, cacheKey string) ([]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	query := map[string]any{
		"download":         "*",
		"collection":       "compound",
		"order":            []string{"relevancescore,desc"},
		"start":            1,
		"limit":            10000000,
		"downloadfilename": "PubChem_compound_CID_" + cacheKey,
		"where": map[string]any{
			"ands": []any{
				map[string]any{
					"input": map[string]string{
						"type":   "netcachekey",
						"idtype": "cid",
						"key":    cacheKey,
					},
				},
			},
		},
	}
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SDQ query: %w", err)
	}

	params := url.Values{
		"infmt":  {"json"},
		"outfmt": {"json"},
		"query":  {string(queryJSON)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SDQURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("SDQ fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Status: resp.StatusCode, Endpoint: "sdq"}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read SDQ response: %w", err)
	}
	cids, err := ExtractCIDs(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SDQ payload: %w", err)
	}
	return cids, nil
}
