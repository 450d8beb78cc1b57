package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tablestream-io/tablestream/src/plan/logical"
	"github.com/tablestream-io/tablestream/src/value"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromCSVInfersSchema(t *testing.T) {
	path := writeCSV(t, "name,age\nalice,30\nbob,40\n")
	df, err := FromCSV(path, ',')
	if err != nil {
		t.Fatal(err)
	}
	if len(df.LogicalPlan().Schema().Fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(df.LogicalPlan().Schema().Fields))
	}
}

func TestDataframeBuilderChaining(t *testing.T) {
	path := writeCSV(t, "name,age\nalice,30\nbob,40\n")
	df, err := FromCSV(path, ',')
	if err != nil {
		t.Fatal(err)
	}
	filtered, err := df.Filter(logical.BinaryExpr{Op: logical.OpGt, Left: logical.Column{Name: "age"}, Right: logical.Literal{Value: value.NumberFromInt(35)}})
	if err != nil {
		t.Fatal(err)
	}
	projected, err := filtered.Projection(logical.Column{Name: "name"})
	if err != nil {
		t.Fatal(err)
	}
	if len(projected.LogicalPlan().Schema().Fields) != 1 {
		t.Errorf("expected 1 projected field, got %d", len(projected.LogicalPlan().Schema().Fields))
	}
	limited, err := projected.Limit(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := limited.LogicalPlan().(*logical.Limit); !ok {
		t.Errorf("expected the outermost plan to be a Limit, got %T", limited.LogicalPlan())
	}
}

func TestDataframeFilterRejectsNonBooleanPredicate(t *testing.T) {
	path := writeCSV(t, "name,age\nalice,30\n")
	df, err := FromCSV(path, ',')
	if err != nil {
		t.Fatal(err)
	}
	if _, err := df.Filter(logical.Column{Name: "age"}); err == nil {
		t.Errorf("expected an error filtering on a non-boolean column")
	}
}
