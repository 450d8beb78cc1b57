package engine

import (
	"os"
	"strings"
	"testing"
)

func TestExecuteSelect(t *testing.T) {
	path := writeCSV(t, "name,age\nalice,30\nbob,40\n")
	df, err := FromCSV(path, ',')
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Execute("select name from t where age > 35", df)
	if err != nil {
		t.Fatal(err)
	}
	if ds.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", ds.RowCount())
	}
	col, err := ds.Column(0)
	if err != nil {
		t.Fatal(err)
	}
	if col.Get(0).AsText() != "bob" {
		t.Errorf("expected bob, got %v", col.Get(0))
	}
}

func TestExecuteSelectWithEmptyResult(t *testing.T) {
	path := writeCSV(t, "name,age\nalice,30\n")
	df, err := FromCSV(path, ',')
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Execute("select name from t where age > 1000", df)
	if err != nil {
		t.Fatal(err)
	}
	if ds.RowCount() != 0 {
		t.Errorf("expected 0 rows, got %d", ds.RowCount())
	}
	if ds.ColumnCount() != 1 {
		t.Errorf("expected the schema to still carry 1 column, got %d", ds.ColumnCount())
	}
}

func TestExecuteExplain(t *testing.T) {
	path := writeCSV(t, "name,age\nalice,30\n")
	df, err := FromCSV(path, ',')
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Execute("explain select name from t", df)
	if err != nil {
		t.Fatal(err)
	}
	if ds.RowCount() != 1 || ds.ColumnCount() != 1 {
		t.Fatalf("expected a single-row single-column plan description")
	}
	col, _ := ds.Column(0)
	if !strings.Contains(col.Get(0).String(), "Projection") {
		t.Errorf("expected the plan description to mention Projection, got %q", col.Get(0).String())
	}
}

func TestExecuteCopyToWritesFile(t *testing.T) {
	path := writeCSV(t, "name,age\nalice,30\n")
	df, err := FromCSV(path, ',')
	if err != nil {
		t.Fatal(err)
	}
	out := t.TempDir() + "/export.csv"
	_, err = Execute("copy select name from t to '"+out+"'", df)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("expected COPY TO to create %s: %v", out, err)
	}
}

func TestExecuteSurfacesParseErrors(t *testing.T) {
	path := writeCSV(t, "name,age\nalice,30\n")
	df, err := FromCSV(path, ',')
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Execute("select from", df); err == nil {
		t.Errorf("expected a parse error for malformed SQL")
	}
}
