package physical

import (
	"testing"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/value"
)

func makeBatch(t *testing.T) *column.RecordBatch {
	t.Helper()
	schema := column.NewSchema(
		column.Field{Name: "age", Type: value.Number},
		column.Field{Name: "name", Type: value.Text},
	)
	cols := []column.Vector{
		column.NewDenseVector(value.Number, []value.Value{value.NumberFromInt(10), value.NumberFromInt(20), value.NullValue(value.Number)}),
		column.NewDenseVector(value.Text, []value.Value{value.TextValue("a"), value.TextValue("b"), value.TextValue("c")}),
	}
	batch, err := column.NewRecordBatch(schema, cols)
	if err != nil {
		t.Fatal(err)
	}
	return batch
}

func TestColumnRefEvaluate(t *testing.T) {
	batch := makeBatch(t)
	v, err := (ColumnRef{Index: 1, Name: "name"}).Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if v.Get(0).AsText() != "a" {
		t.Errorf("unexpected value: %v", v.Get(0))
	}
}

func TestColumnRefOutOfRange(t *testing.T) {
	batch := makeBatch(t)
	if _, err := (ColumnRef{Index: 5}).Evaluate(batch); err == nil {
		t.Errorf("expected out-of-range error")
	}
}

func TestLiteralExprBroadcasts(t *testing.T) {
	batch := makeBatch(t)
	v, err := (LiteralExpr{Value: value.NumberFromInt(7)}).Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if v.Len() != 3 || v.Get(0).String() != "7" || v.Get(2).String() != "7" {
		t.Errorf("expected literal to broadcast across all rows")
	}
}

func TestBinaryExprMod(t *testing.T) {
	batch := makeBatch(t)
	expr := BinaryExpr{Op: Mod, Left: ColumnRef{Index: 0, Name: "age"}, Right: LiteralExpr{Value: value.NumberFromInt(7)}, ResultType: value.Number}
	v, err := expr.Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if v.Get(0).String() != "3" {
		t.Errorf("expected 10 %% 7 = 3, got %v", v.Get(0))
	}
	if !v.Get(2).Null {
		t.Errorf("expected null propagation through modulo")
	}
}

func TestBinaryExprComparison(t *testing.T) {
	batch := makeBatch(t)
	expr := BinaryExpr{Op: Gt, Left: ColumnRef{Index: 0, Name: "age"}, Right: LiteralExpr{Value: value.NumberFromInt(15)}, ResultType: value.Boolean}
	v, err := expr.Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if v.Get(0).AsBool() != false || v.Get(1).AsBool() != true {
		t.Errorf("unexpected comparison results")
	}
	if v.Get(2).AsBool() != false {
		t.Errorf("expected a null operand to make the comparison false, not true")
	}
}

func TestIsNullExprEvaluate(t *testing.T) {
	batch := makeBatch(t)
	v, err := (IsNullExpr{Inner: ColumnRef{Index: 0, Name: "age"}}).Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if v.Get(0).AsBool() != false || v.Get(2).AsBool() != true {
		t.Errorf("expected IS NULL to be true only for the null row")
	}

	notNull, err := (IsNullExpr{Inner: ColumnRef{Index: 0, Name: "age"}, Negate: true}).Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if notNull.Get(0).AsBool() != true || notNull.Get(2).AsBool() != false {
		t.Errorf("expected IS NOT NULL to invert IS NULL")
	}
}

func TestInExprEvaluate(t *testing.T) {
	batch := makeBatch(t)
	expr := InExpr{
		Inner: ColumnRef{Index: 1, Name: "name"},
		List:  []Expr{LiteralExpr{Value: value.TextValue("a")}, LiteralExpr{Value: value.TextValue("c")}},
	}
	v, err := expr.Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if v.Get(0).AsBool() != true || v.Get(1).AsBool() != false || v.Get(2).AsBool() != true {
		t.Errorf("unexpected IN results")
	}

	negated := InExpr{Inner: expr.Inner, List: expr.List, Negate: true}
	nv, err := negated.Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if nv.Get(1).AsBool() != true {
		t.Errorf("expected NOT IN to be true for a value absent from the list")
	}
}

func TestNotExprEvaluate(t *testing.T) {
	batch := makeBatch(t)
	inner := BinaryExpr{Op: Gt, Left: ColumnRef{Index: 0, Name: "age"}, Right: LiteralExpr{Value: value.NumberFromInt(15)}, ResultType: value.Boolean}
	v, err := (NotExpr{Inner: inner}).Evaluate(batch)
	if err != nil {
		t.Fatal(err)
	}
	if v.Get(0).AsBool() != true || v.Get(1).AsBool() != false {
		t.Errorf("expected NOT to invert the inner comparison")
	}
}
