package sql

import (
	"testing"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/plan/logical"
	"github.com/tablestream-io/tablestream/src/value"
)

type stubPlan struct {
	schema column.Schema
}

func (s stubPlan) Schema() column.Schema { return s.schema }
func (s stubPlan) Children() []logical.Plan { return nil }
func (s stubPlan) String() string { return "Stub" }

func testInput() logical.Plan {
	return stubPlan{schema: column.NewSchema(
		column.Field{Name: "age", Type: value.Number},
		column.Field{Name: "name", Type: value.Text},
		column.Field{Name: "active", Type: value.Boolean},
	)}
}

func TestParseSimpleSelect(t *testing.T) {
	stmt, err := Parse("select age, name from t where age > 18", testInput())
	if err != nil {
		t.Fatal(err)
	}
	if stmt.Kind != StmtSelect {
		t.Errorf("expected StmtSelect")
	}
	if len(stmt.Plan.Schema().Fields) != 2 {
		t.Errorf("expected 2 projected fields, got %d", len(stmt.Plan.Schema().Fields))
	}
}

func TestParseSelectStarExpandsColumns(t *testing.T) {
	stmt, err := Parse("select * from t", testInput())
	if err != nil {
		t.Fatal(err)
	}
	if len(stmt.Plan.Schema().Fields) != 3 {
		t.Errorf("expected all 3 columns, got %d", len(stmt.Plan.Schema().Fields))
	}
}

func TestParseExplain(t *testing.T) {
	stmt, err := Parse("explain select age from t", testInput())
	if err != nil {
		t.Fatal(err)
	}
	if stmt.Kind != StmtExplain {
		t.Errorf("expected StmtExplain")
	}
}

func TestParseCopyTo(t *testing.T) {
	stmt, err := Parse("copy select age from t to '/tmp/out.csv'", testInput())
	if err != nil {
		t.Fatal(err)
	}
	if stmt.Kind != StmtCopyTo {
		t.Errorf("expected StmtCopyTo")
	}
	if stmt.Path != "/tmp/out.csv" {
		t.Errorf("unexpected path: %q", stmt.Path)
	}
}

func TestParseAggregateWithGroupByAndHaving(t *testing.T) {
	stmt, err := Parse("select name, count(*) as n from t group by name having count(*) > 1", testInput())
	if err != nil {
		t.Fatal(err)
	}
	fields := stmt.Plan.Schema().Fields
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[1].Name != "n" {
		t.Errorf("expected alias n on the count column, got %q", fields[1].Name)
	}
}

func TestParseOrderByWithNullsPlacement(t *testing.T) {
	stmt, err := Parse("select age from t order by age desc nulls last", testInput())
	if err != nil {
		t.Fatal(err)
	}
	if stmt.Plan == nil {
		t.Fatal("expected a non-nil plan")
	}
}

func TestParseLimit(t *testing.T) {
	stmt, err := Parse("select age from t limit 10", testInput())
	if err != nil {
		t.Fatal(err)
	}
	lim, ok := stmt.Plan.(*logical.Limit)
	if !ok {
		t.Fatalf("expected the outermost plan to be a Limit, got %T", stmt.Plan)
	}
	if lim.N != 10 {
		t.Errorf("expected limit 10, got %d", lim.N)
	}
}

func TestParseInAndNotIn(t *testing.T) {
	if _, err := Parse("select age from t where age in (1, 2, 3)", testInput()); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse("select age from t where age not in (1, 2, 3)", testInput()); err != nil {
		t.Fatal(err)
	}
}

func TestParseIsNull(t *testing.T) {
	if _, err := Parse("select age from t where name is null", testInput()); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse("select age from t where name is not null", testInput()); err != nil {
		t.Fatal(err)
	}
}

func TestParseNotPrecedenceBindsTighterThanAnd(t *testing.T) {
	// NOT active AND age > 18 should parse as (NOT active) AND (age > 18);
	// both groupings are well typed, so the test checks the string form of
	// the WHERE predicate to see which one the parser built.
	stmt, err := Parse("select age from t where not active and age > 18", testInput())
	if err != nil {
		t.Fatal(err)
	}
	f, ok := stmt.Plan.(*logical.Projection)
	if !ok {
		t.Fatalf("expected a Projection, got %T", stmt.Plan)
	}
	filter, ok := f.Input.(*logical.Filter)
	if !ok {
		t.Fatalf("expected a Filter under the Projection, got %T", f.Input)
	}
	if got, want := filter.Predicate.String(), "(NOT active AND (age > 18))"; got != want {
		t.Errorf("unexpected predicate grouping: got %q, want %q", got, want)
	}
}

func TestParseUnaryMinus(t *testing.T) {
	stmt, err := Parse("select age from t where age > -5", testInput())
	if err != nil {
		t.Fatal(err)
	}
	if stmt.Plan == nil {
		t.Fatal("expected a non-nil plan")
	}
}

func TestParseModuloOperator(t *testing.T) {
	stmt, err := Parse("select age % 2 from t", testInput())
	if err != nil {
		t.Fatal(err)
	}
	if len(stmt.Plan.Schema().Fields) != 1 {
		t.Errorf("expected a single projected field, got %d", len(stmt.Plan.Schema().Fields))
	}
}

func TestParseUnknownFunctionErrors(t *testing.T) {
	if _, err := Parse("select bogus(age) from t", testInput()); err == nil {
		t.Errorf("expected an error for an unknown function")
	}
}
