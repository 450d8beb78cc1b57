package logical

import (
	"io"
	"testing"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/value"
)

type stubSource struct {
	schema column.Schema
}

func (s stubSource) Schema() column.Schema                 { return s.schema }
func (s stubSource) Next() (*column.RecordBatch, error)     { return nil, io.EOF }
func (s stubSource) Close() error                           { return nil }

func testScan() *Scan {
	return NewScan(stubSource{schema: testSchema()}, "test.csv")
}

func TestScanSchemaMatchesSource(t *testing.T) {
	scan := testScan()
	if len(scan.Schema().Fields) != 3 {
		t.Errorf("expected 3 fields, got %d", len(scan.Schema().Fields))
	}
	if scan.Children() != nil {
		t.Errorf("expected Scan to be a leaf")
	}
}

func TestNewProjectionValidatesExprs(t *testing.T) {
	scan := testScan()
	proj, err := NewProjection(scan, []Expr{Column{Name: "age"}, Column{Name: "name"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(proj.Schema().Fields) != 2 {
		t.Errorf("expected 2 output fields, got %d", len(proj.Schema().Fields))
	}

	if _, err := NewProjection(scan, []Expr{Column{Name: "nope"}}); err == nil {
		t.Errorf("expected an error referencing an unknown column")
	}
}

func TestNewFilterRequiresBooleanPredicate(t *testing.T) {
	scan := testScan()
	if _, err := NewFilter(scan, Column{Name: "age"}); err == nil {
		t.Errorf("expected error filtering on a non-boolean expression")
	}
	f, err := NewFilter(scan, Column{Name: "active"})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Schema().Fields) != 3 {
		t.Errorf("expected Filter to preserve the input schema")
	}
}

func TestNewLimitRejectsNegative(t *testing.T) {
	scan := testScan()
	if _, err := NewLimit(scan, -1); err == nil {
		t.Errorf("expected error for a negative limit")
	}
	if _, err := NewLimit(scan, 0); err != nil {
		t.Fatal(err)
	}
}

func TestNewSortRequiresAtLeastOneKey(t *testing.T) {
	scan := testScan()
	if _, err := NewSort(scan, nil); err == nil {
		t.Errorf("expected error for an empty sort key list")
	}
	s, err := NewSort(scan, []SortKey{{Expr: Column{Name: "age"}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Schema().Fields) != 3 {
		t.Errorf("expected Sort to preserve the input schema")
	}
}

func TestNewAggregateRequiresGroupByOrAggregate(t *testing.T) {
	scan := testScan()
	if _, err := NewAggregate(scan, nil, nil); err == nil {
		t.Errorf("expected error when neither group-by nor aggregates are given")
	}
}

func TestAggregateSchemaOrdersGroupByThenAggregates(t *testing.T) {
	scan := testScan()
	agg, err := NewAggregate(scan, []Expr{Column{Name: "name"}}, []AggregateExpr{{Func: AggSum, Arg: Column{Name: "age"}}})
	if err != nil {
		t.Fatal(err)
	}
	fields := agg.Schema().Fields
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Type != value.Text {
		t.Errorf("expected group-by key first, got %v", fields[0].Type)
	}
	if fields[1].Type != value.Number {
		t.Errorf("expected aggregate result second, got %v", fields[1].Type)
	}
}
