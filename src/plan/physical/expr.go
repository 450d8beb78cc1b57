// Package physical implements vectorized physical expression evaluation
// and the streaming physical plan operators that execute a query batch by
// batch.
package physical

import (
	"fmt"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/errkind"
	"github.com/tablestream-io/tablestream/src/value"
)

// Expr evaluates against a concrete RecordBatch and produces a Vector of
// the same length, the runtime counterpart of the logical package's Expr.
// Unlike logical.Expr it never consults a Schema for type information —
// by the time a logical plan reaches here, types have already been
// checked, matching the teacher's own evaluate-against-data closures in
// src/column/projections.go.
type Expr interface {
	Evaluate(batch *column.RecordBatch) (column.Vector, error)
	String() string
}

// ColumnRef reads a column straight out of the batch by position. Logical
// Column and ColumnIndex both compile down to this.
type ColumnRef struct {
	Index int
	Name  string
}

func (c ColumnRef) String() string { return c.Name }

func (c ColumnRef) Evaluate(batch *column.RecordBatch) (column.Vector, error) {
	if c.Index < 0 || c.Index >= len(batch.Columns) {
		return nil, fmt.Errorf("%w: physical: column index %d out of range", errkind.ErrInternal, c.Index)
	}
	return batch.Columns[c.Index], nil
}

// LiteralExpr evaluates to the same Value for every row of the batch.
type LiteralExpr struct {
	Value value.Value
}

func (l LiteralExpr) String() string { return l.Value.String() }

func (l LiteralExpr) Evaluate(batch *column.RecordBatch) (column.Vector, error) {
	return column.NewLiteralVector(l.Value, batch.RowCount()), nil
}

// BinOp is the runtime operator tag a BinaryExpr carries; it mirrors
// logical.BinaryOp but lives in this package to keep physical expression
// evaluation free of any dependency on the logical package.
type BinOp string

const (
	Add BinOp = "+"
	Sub BinOp = "-"
	Mul BinOp = "*"
	Div BinOp = "/"
	Mod BinOp = "%"
	Eq  BinOp = "="
	Neq BinOp = "!="
	Lt  BinOp = "<"
	Lte BinOp = "<="
	Gt  BinOp = ">"
	Gte BinOp = ">="
	And BinOp = "AND"
	Or  BinOp = "OR"
)

// BinaryExpr evaluates both operands over the batch and combines them
// element-wise using value's scalar operators.
type BinaryExpr struct {
	Op          BinOp
	Left, Right Expr
	ResultType  value.DataType
}

func (b BinaryExpr) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }

func (b BinaryExpr) Evaluate(batch *column.RecordBatch) (column.Vector, error) {
	left, err := b.Left.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	right, err := b.Right.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	n := batch.RowCount()
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		lv, rv := left.Get(i), right.Get(i)
		result, err := applyBinOp(b.Op, lv, rv)
		if err != nil {
			return nil, fmt.Errorf("physical: %s at row %d: %w", b, i, err)
		}
		out[i] = result
	}
	return column.NewDenseVector(b.ResultType, out), nil
}

func applyBinOp(op BinOp, l, r value.Value) (value.Value, error) {
	switch op {
	case Add:
		return value.Add(l, r)
	case Sub:
		return value.Sub(l, r)
	case Mul:
		return value.Mul(l, r)
	case Div:
		return value.Div(l, r)
	case Mod:
		return value.Mod(l, r)
	case And:
		return value.And(l, r)
	case Or:
		return value.Or(l, r)
	case Eq, Neq, Lt, Lte, Gt, Gte:
		return compare(op, l, r)
	default:
		return value.Value{}, fmt.Errorf("%w: physical: unknown operator %s", errkind.ErrInternal, op)
	}
}

func compare(op BinOp, l, r value.Value) (value.Value, error) {
	if op == Eq || op == Neq {
		eq, err := value.Eq(l, r)
		if err != nil {
			return value.Value{}, err
		}
		if op == Neq {
			eq = !eq
		}
		return value.BoolValue(eq), nil
	}
	if l.Null || r.Null {
		return value.BoolValue(false), nil
	}
	c, err := value.Compare(l, r)
	if err != nil {
		return value.Value{}, err
	}
	switch op {
	case Lt:
		return value.BoolValue(c < 0), nil
	case Lte:
		return value.BoolValue(c <= 0), nil
	case Gt:
		return value.BoolValue(c > 0), nil
	case Gte:
		return value.BoolValue(c >= 0), nil
	default:
		return value.Value{}, fmt.Errorf("%w: physical: unknown comparison operator %s", errkind.ErrInternal, op)
	}
}

// IsNullExpr implements IS NULL / IS NOT NULL over any operand type.
type IsNullExpr struct {
	Inner  Expr
	Negate bool
}

func (n IsNullExpr) String() string {
	if n.Negate {
		return fmt.Sprintf("%s IS NOT NULL", n.Inner)
	}
	return fmt.Sprintf("%s IS NULL", n.Inner)
}

func (n IsNullExpr) Evaluate(batch *column.RecordBatch) (column.Vector, error) {
	inner, err := n.Inner.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, batch.RowCount())
	for i := range out {
		isNull := inner.Get(i).Null
		if n.Negate {
			isNull = !isNull
		}
		out[i] = value.BoolValue(isNull)
	}
	return column.NewDenseVector(value.Boolean, out), nil
}

// InExpr implements [NOT] IN (list...) by testing equality against each
// list member in turn. The result is never null: as with Eq, a null operand
// matches nothing, so IN yields false and NOT IN yields true for it.
type InExpr struct {
	Inner  Expr
	List   []Expr
	Negate bool
}

func (in InExpr) String() string {
	op := "IN"
	if in.Negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (...)", in.Inner, op)
}

func (in InExpr) Evaluate(batch *column.RecordBatch) (column.Vector, error) {
	inner, err := in.Inner.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	list := make([]column.Vector, len(in.List))
	for i, item := range in.List {
		v, err := item.Evaluate(batch)
		if err != nil {
			return nil, err
		}
		list[i] = v
	}
	n := batch.RowCount()
	out := make([]value.Value, n)
	for row := 0; row < n; row++ {
		lv := inner.Get(row)
		found := false
		for _, v := range list {
			eq, err := value.Eq(lv, v.Get(row))
			if err != nil {
				return nil, err
			}
			if eq {
				found = true
				break
			}
		}
		if in.Negate {
			found = !found
		}
		out[row] = value.BoolValue(found)
	}
	return column.NewDenseVector(value.Boolean, out), nil
}

// NotExpr negates a boolean operand.
type NotExpr struct {
	Inner Expr
}

func (n NotExpr) String() string { return fmt.Sprintf("NOT %s", n.Inner) }

func (n NotExpr) Evaluate(batch *column.RecordBatch) (column.Vector, error) {
	inner, err := n.Inner.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, batch.RowCount())
	for i := range out {
		v, err := value.Not(inner.Get(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return column.NewDenseVector(value.Boolean, out), nil
}
