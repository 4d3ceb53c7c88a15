package inventory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTable = `{
  "created": "2026-01-15T10:00:00Z",
  "columns": ["Chemical name", "CAS Number", "Amount"],
  "rows": [
    ["Ethanol", "64-17-5", "500 mL"],
    ["Mystery solvent", "00-00-0", 2],
    ["Benzene", " 71-43-2 ", null],
    ["No CAS here", "", "1 g"]
  ]
}`

func writeTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte(sampleTable), 0644); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}
	return path
}

func TestLoadMixedCellTypes(t *testing.T) {
	table, err := Load(writeTable(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(table.Rows))
	}
	// Numeric and null cells come through as strings.
	if table.Rows[1][2] != "2" {
		t.Errorf("numeric cell = %q", table.Rows[1][2])
	}
	if table.Rows[2][2] != "" {
		t.Errorf("null cell = %q", table.Rows[2][2])
	}
}

func TestCASByRow(t *testing.T) {
	table, err := Load(writeTable(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	byRow := table.CASByRow()
	if len(byRow) != 2 {
		t.Fatalf("expected 2 valid CAS rows, got %d: %v", len(byRow), byRow)
	}
	if byRow[0] != "64-17-5" {
		t.Errorf("row 0 = %q", byRow[0])
	}
	// Whitespace is normalized away; placeholders and blanks are skipped.
	if byRow[2] != "71-43-2" {
		t.Errorf("row 2 = %q", byRow[2])
	}
}

func TestCASOrderedFirstSeen(t *testing.T) {
	table := &Table{
		Columns: []string{"Chemical name", "CAS"},
		Rows: [][]Cell{
			{"Benzene", "71-43-2"},
			{"Ethanol", "64-17-5"},
			{"Dup benzene", "71-43-2"},
			{"Unknown", "00-00-0"},
		},
	}
	ordered := table.CASOrdered()
	if len(ordered) != 2 || ordered[0] != "71-43-2" || ordered[1] != "64-17-5" {
		t.Errorf("expected first-seen row order, got %v", ordered)
	}
}

func TestNameByRow(t *testing.T) {
	table, err := Load(writeTable(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	names := table.NameByRow()
	if names[0] != "Ethanol" || names[3] != "No CAS here" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestSetColumnRoundTrip(t *testing.T) {
	path := writeTable(t)
	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	table.SetColumn("CID", map[int]string{0: "702", 2: "241"})
	if err := table.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	col := reloaded.CIDColumn()
	if col != 3 {
		t.Fatalf("expected CID column appended at 3, got %d", col)
	}
	if reloaded.Rows[0][col] != "702" || reloaded.Rows[1][col] != "" {
		t.Errorf("unexpected CID cells: %v", reloaded.Rows)
	}

	// Updating in place must not append a duplicate column.
	reloaded.SetColumn("cid", map[int]string{1: "887"})
	if len(reloaded.Columns) != 4 {
		t.Errorf("duplicate column created: %v", reloaded.Columns)
	}
	if reloaded.Rows[1][col] != "887" {
		t.Errorf("column not updated in place")
	}
}

func TestHashFileDetectsChange(t *testing.T) {
	path := writeTable(t)
	first, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected hex sha256, got %q", first)
	}
	if err := os.WriteFile(path, []byte(`{"columns":[],"rows":[]}`), 0644); err != nil {
		t.Fatal(err)
	}
	second, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if first == second {
		t.Error("hash did not change with content")
	}
}

func TestExports(t *testing.T) {
	dir := t.TempDir()

	cidPath := filepath.Join(dir, "pubchem_cids.txt")
	if err := ExportCIDs(cidPath, []int{702, 241, 702}); err != nil {
		t.Fatalf("ExportCIDs failed: %v", err)
	}
	data, err := os.ReadFile(cidPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "702\n241\n" {
		t.Errorf("expected CIDs in given order, got %q", data)
	}

	csvPath := filepath.Join(dir, "cas_to_pubchem.csv")
	rows := []MappingRow{
		{CAS: "71-43-2", Status: "found", CID: 241},
		{CAS: "64-17-5", Status: "found", CID: 702},
		{CAS: "99-99-9", Status: "not_found"},
	}
	if err := ExportMapping(csvPath, rows); err != nil {
		t.Fatalf("ExportMapping failed: %v", err)
	}
	csvData, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	if len(lines) != 4 || lines[0] != "cas,status,cid" || lines[1] != "71-43-2,found,241" {
		t.Errorf("expected rows in given order, got %q", csvData)
	}
	if lines[3] != "99-99-9,not_found," {
		t.Errorf("unexpected unresolved row: %q", lines[3])
	}
}
