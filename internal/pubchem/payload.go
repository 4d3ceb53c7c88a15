package pubchem

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The SDQ endpoint has returned its download payload in several shapes over
// time. ExtractCIDs normalizes all of them:
//
//   - a bare JSON array of row objects, each with a "cid" field
//   - an object whose "result" (or "Result") holds such a row-object array
//   - a "result" holding a list of lists whose first row is a header
//     naming a "cid" column
//   - a "result" holding a headerless list of lists, CID in column 0
//
// The decoders are tried in that order; the first one that fits wins.

// flexInt decodes a JSON number or a numeric string. PubChem responses mix
// the two freely.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", string(data))
	}
	*f = flexInt(n)
	return nil
}

// ExtractCIDs parses an SDQ download payload into a CID list.
func ExtractCIDs(body []byte) ([]int, error) {
	var rows []json.RawMessage

	// Bare top-level array, or an envelope object carrying the rows.
	if err := json.Unmarshal(body, &rows); err != nil {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("payload is neither array nor object")
		}
		raw, ok := envelope["result"]
		if !ok {
			raw, ok = envelope["Result"]
		}
		if !ok {
			return nil, fmt.Errorf("payload has no result field")
		}
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("result field is not an array")
		}
	}
	if len(rows) == 0 {
		return []int{}, nil
	}

	if cids, ok := decodeRowObjects(rows); ok {
		return cids, nil
	}
	if cids, ok := decodeHeaderedTable(rows); ok {
		return cids, nil
	}
	if cids, ok := decodeHeaderlessTable(rows); ok {
		return cids, nil
	}
	return nil, fmt.Errorf("unrecognized result row shape")
}

// decodeRowObjects handles rows of the form {"cid": 123, ...}.
func decodeRowObjects(rows []json.RawMessage) ([]int, bool) {
	var first map[string]json.RawMessage
	if err := json.Unmarshal(rows[0], &first); err != nil {
		return nil, false
	}
	cids := make([]int, 0, len(rows))
	for _, raw := range rows {
		var row map[string]json.RawMessage
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		cell, ok := row["cid"]
		if !ok {
			continue
		}
		var cid flexInt
		if err := json.Unmarshal(cell, &cid); err == nil && cid > 0 {
			cids = append(cids, int(cid))
		}
	}
	return cids, true
}

// decodeHeaderedTable handles a list of lists whose first row is a header
// naming a "cid" column.
func decodeHeaderedTable(rows []json.RawMessage) ([]int, bool) {
	var header []string
	if err := json.Unmarshal(rows[0], &header); err != nil {
		return nil, false
	}
	col := -1
	for i, name := range header {
		if strings.EqualFold(name, "cid") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, false
	}
	cids := make([]int, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		if cid, ok := cellAt(raw, col); ok {
			cids = append(cids, cid)
		}
	}
	return cids, true
}

// decodeHeaderlessTable handles a list of lists with the CID in column 0.
func decodeHeaderlessTable(rows []json.RawMessage) ([]int, bool) {
	cids := make([]int, 0, len(rows))
	matched := false
	for _, raw := range rows {
		var cells []json.RawMessage
		if err := json.Unmarshal(raw, &cells); err != nil {
			continue
		}
		matched = true
		if cid, ok := cellAt(raw, 0); ok {
			cids = append(cids, cid)
		}
	}
	return cids, matched
}

// cellAt extracts column col of a JSON array row as a CID, tolerating
// quoted numbers and non-numeric sibling columns.
func cellAt(raw json.RawMessage, col int) (int, bool) {
	var cells []json.RawMessage
	if err := json.Unmarshal(raw, &cells); err != nil || col >= len(cells) {
		return 0, false
	}
	var cid flexInt
	if err := json.Unmarshal(cells[col], &cid); err != nil || cid <= 0 {
		return 0, false
	}
	return int(cid), true
}
