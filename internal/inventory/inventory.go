/*
Package inventory handles the user's chemical inventory table: a JSON
snapshot with named columns and string rows, typically exported from a
spreadsheet. The table is the source of truth for which CAS numbers need
resolving, and its content hash ties cached resolutions to the exact
snapshot they were computed from.
*/
package inventory

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mf-rug/rug-chemsearch-cl/internal/cas"
)

// Cell tolerates spreadsheet exports mixing strings, numbers, and nulls.
type Cell string

func (c *Cell) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Cell(s)
		return nil
	}
	trimmed := strings.Trim(string(data), `"`)
	if trimmed == "null" {
		*c = ""
		return nil
	}
	*c = Cell(trimmed)
	return nil
}

// Table is an inventory snapshot.
type Table struct {
	Created string   `json:"created"`
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// Load reads a table from disk.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}
	return &t, nil
}

// Save writes the table back to disk.
func (t *Table) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	return nil
}

// ColumnIndex finds a column whose name contains the given fragment,
// case-insensitively. Returns -1 when absent.
func (t *Table) ColumnIndex(fragment string) int {
	fragment = strings.ToLower(fragment)
	for i, name := range t.Columns {
		if strings.Contains(strings.ToLower(name), fragment) {
			return i
		}
	}
	return -1
}

// CASColumn locates the CAS number column.
func (t *Table) CASColumn() int {
	return t.ColumnIndex("cas")
}

// CIDColumn locates the CID column written by a lookup run. Exact name
// match only: a substring search would catch columns like "Acidity".
func (t *Table) CIDColumn() int {
	for i, name := range t.Columns {
		if strings.EqualFold(name, "CID") {
			return i
		}
	}
	return -1
}

// NameColumn locates the compound name column.
func (t *Table) NameColumn() int {
	if i := t.ColumnIndex("name"); i >= 0 {
		return i
	}
	return t.ColumnIndex("chemical")
}

// cell returns the value at (row, col), tolerating ragged rows.
func (t *Table) cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return string(t.Rows[row][col])
}

// CASByRow normalizes the CAS column into a map keyed by row index.
// Rows with empty, placeholder, or malformed values are absent.
func (t *Table) CASByRow() map[int]string {
	col := t.CASColumn()
	if col < 0 {
		return map[int]string{}
	}
	byRow := make(map[int]string)
	for i := range t.Rows {
		if normalized, ok := cas.Normalize(t.cell(i, col)); ok {
			byRow[i] = normalized
		}
	}
	return byRow
}

// CASOrdered returns the table's valid CAS numbers deduplicated in
// first-seen row order. That order is canonical for the exports.
func (t *Table) CASOrdered() []string {
	col := t.CASColumn()
	if col < 0 {
		return nil
	}
	raws := make([]string, 0, len(t.Rows))
	for i := range t.Rows {
		raws = append(raws, t.cell(i, col))
	}
	return cas.ExtractBatch(raws)
}

// NameByRow returns the compound name per row index, skipping blanks.
func (t *Table) NameByRow() map[int]string {
	col := t.NameColumn()
	if col < 0 {
		return map[int]string{}
	}
	byRow := make(map[int]string)
	for i := range t.Rows {
		if name := strings.TrimSpace(t.cell(i, col)); name != "" {
			byRow[i] = name
		}
	}
	return byRow
}

// SetColumn writes values into the named column, creating it when absent.
// Rows without a value get an empty cell; short rows are padded.
func (t *Table) SetColumn(name string, values map[int]string) {
	col := -1
	for i, existing := range t.Columns {
		if strings.EqualFold(existing, name) {
			col = i
			break
		}
	}
	if col < 0 {
		t.Columns = append(t.Columns, name)
		col = len(t.Columns) - 1
	}
	for i := range t.Rows {
		for len(t.Rows[i]) <= col {
			t.Rows[i] = append(t.Rows[i], "")
		}
		t.Rows[i][col] = Cell(values[i])
	}
}

// HashFile computes the hex SHA-256 of a file, used to bind cached
// resolutions to the inventory snapshot they came from.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ExportCIDs writes one CID per line, deduplicated, preserving the order
// given. Callers pass CIDs in first-seen row order so the export lines up
// with the inventory.
func ExportCIDs(path string, cids []int) error {
	seen := make(map[int]bool, len(cids))
	var b strings.Builder
	for _, cid := range cids {
		if seen[cid] {
			continue
		}
		seen[cid] = true
		b.WriteString(strconv.Itoa(cid))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write CID export: %w", err)
	}
	return nil
}

// MappingRow is one line of the CAS mapping export.
type MappingRow struct {
	CAS    string
	Status string
	CID    int
}

// ExportMapping writes a cas,status,cid CSV with a header row, in the
// order given. Rows without a CID get an empty cid cell.
func ExportMapping(path string, rows []MappingRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mapping export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"cas", "status", "cid"}); err != nil {
		return fmt.Errorf("failed to write mapping export: %w", err)
	}
	for _, row := range rows {
		cid := ""
		if row.CID > 0 {
			cid = strconv.Itoa(row.CID)
		}
		if err := w.Write([]string{row.CAS, row.Status, cid}); err != nil {
			return fmt.Errorf("failed to write mapping export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write mapping export: %w", err)
	}
	return f.Close()
}
