// Package logical implements the engine's schema-typed logical expression
// algebra and logical query plan, the output of the SQL front end and the
// input to the physical planner.
package logical

import (
	"fmt"
	"strings"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/errkind"
	"github.com/tablestream-io/tablestream/src/value"
)

var (
	errUnknownColumn   = fmt.Errorf("%w: logical: unknown column", errkind.ErrResolution)
	errNotAnAggregate  = fmt.Errorf("%w: logical: expression is not an aggregate", errkind.ErrResolution)
	errBadAggregateArg = fmt.Errorf("%w: logical: aggregate function received an incompatible argument type", errkind.ErrResolution)
)

// Expr is a node in the logical expression tree. Unlike its physical
// counterpart, a logical expression never touches data: ToField resolves
// its output name and DataType against an input Schema, the same role
// original_source's logical_expr.rs's Display/ReturnType play, generalised
// to Go's explicit-error idiom.
type Expr interface {
	fmt.Stringer
	ToField(schema column.Schema) (column.Field, error)
}

// Column references an input field by name.
type Column struct {
	Name string
}

func (c Column) String() string { return c.Name }

func (c Column) ToField(schema column.Schema) (column.Field, error) {
	idx := schema.IndexOf(c.Name)
	if idx < 0 {
		return column.Field{}, fmt.Errorf("%w: %q", errUnknownColumn, c.Name)
	}
	return schema.Fields[idx], nil
}

// ColumnIndex references an input field positionally. Produced by the
// aggregate-rewrite pass (see RewriteAggregateRefs) to let a Projection, a
// HAVING Filter, or a Sort refer to a group-by key or an aggregate result
// column that has no name of its own in the input plan.
type ColumnIndex struct {
	Index int
}

func (c ColumnIndex) String() string { return fmt.Sprintf("#%d", c.Index) }

func (c ColumnIndex) ToField(schema column.Schema) (column.Field, error) {
	if c.Index < 0 || c.Index >= len(schema.Fields) {
		return column.Field{}, fmt.Errorf("%w: index %d", errUnknownColumn, c.Index)
	}
	return schema.Fields[c.Index], nil
}

// Literal is a constant value, typed independently of any input schema.
type Literal struct {
	Value value.Value
}

func (l Literal) String() string { return l.Value.String() }

func (l Literal) ToField(column.Schema) (column.Field, error) {
	return column.Field{Name: l.Value.String(), Type: l.Value.Type}, nil
}

// BinaryOp enumerates the operators a BinaryExpr may carry.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"
	OpEq  BinaryOp = "="
	OpNeq BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpLte BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpGte BinaryOp = ">="
	OpAnd BinaryOp = "AND"
	OpOr  BinaryOp = "OR"
)

var comparisonOps = map[BinaryOp]bool{
	OpEq: true, OpNeq: true, OpLt: true, OpLte: true, OpGt: true, OpGte: true,
}
var arithmeticOps = map[BinaryOp]bool{OpAdd: true, OpSub: true, OpMul: true, OpDiv: true, OpMod: true}
var booleanOps = map[BinaryOp]bool{OpAnd: true, OpOr: true}

// BinaryExpr is a two-operand expression: arithmetic (Number only),
// comparison (same-typed, ordering ops restricted to Text/Number/Date), or
// boolean (AND/OR, Boolean only).
type BinaryExpr struct {
	Op          BinaryOp
	Left, Right Expr
}

func (b BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (b BinaryExpr) ToField(schema column.Schema) (column.Field, error) {
	lf, err := b.Left.ToField(schema)
	if err != nil {
		return column.Field{}, err
	}
	rf, err := b.Right.ToField(schema)
	if err != nil {
		return column.Field{}, err
	}
	name := b.String()
	switch {
	case comparisonOps[b.Op]:
		if lf.Type != rf.Type {
			return column.Field{}, fmt.Errorf("%w: logical: cannot compare %v with %v in %s", errkind.ErrResolution, lf.Type, rf.Type, name)
		}
		if (b.Op != OpEq && b.Op != OpNeq) && lf.Type == value.Boolean {
			return column.Field{}, fmt.Errorf("%w: logical: boolean is not orderable in %s", errkind.ErrResolution, name)
		}
		return column.Field{Name: name, Type: value.Boolean}, nil
	case arithmeticOps[b.Op]:
		if lf.Type != value.Number || rf.Type != value.Number {
			return column.Field{}, fmt.Errorf("%w: logical: arithmetic requires number operands in %s", errkind.ErrResolution, name)
		}
		return column.Field{Name: name, Type: value.Number}, nil
	case booleanOps[b.Op]:
		if lf.Type != value.Boolean || rf.Type != value.Boolean {
			return column.Field{}, fmt.Errorf("%w: logical: %s requires boolean operands in %s", errkind.ErrResolution, b.Op, name)
		}
		return column.Field{Name: name, Type: value.Boolean}, nil
	default:
		return column.Field{}, fmt.Errorf("%w: logical: unknown operator %s", errkind.ErrResolution, b.Op)
	}
}

// AggregateFunc enumerates the supported aggregate functions.
type AggregateFunc string

const (
	AggCount AggregateFunc = "count"
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// AggregateExpr wraps a single aggregate function call over an argument
// expression, evaluated once per group by the physical HashAggregate
// operator. count(*) is represented with Arg == nil.
type AggregateExpr struct {
	Func AggregateFunc
	Arg  Expr // nil for count(*)
}

func (a AggregateExpr) String() string {
	if a.Arg == nil {
		return fmt.Sprintf("%s(*)", a.Func)
	}
	return fmt.Sprintf("%s(%s)", a.Func, a.Arg)
}

func (a AggregateExpr) ToField(schema column.Schema) (column.Field, error) {
	if a.Func == AggCount {
		return column.Field{Name: a.String(), Type: value.Number}, nil
	}
	if a.Arg == nil {
		return column.Field{}, fmt.Errorf("%w: %s needs an argument", errNotAnAggregate, a.Func)
	}
	argField, err := a.Arg.ToField(schema)
	if err != nil {
		return column.Field{}, err
	}
	switch a.Func {
	case AggSum, AggAvg:
		if argField.Type != value.Number {
			return column.Field{}, fmt.Errorf("%w: %s over %v", errBadAggregateArg, a.Func, argField.Type)
		}
		return column.Field{Name: a.String(), Type: value.Number}, nil
	case AggMin, AggMax:
		return column.Field{Name: a.String(), Type: argField.Type}, nil
	default:
		return column.Field{}, fmt.Errorf("%w: logical: unknown aggregate function %s", errkind.ErrResolution, a.Func)
	}
}

// UnaryExpr currently only models logical NOT, kept distinct from
// BinaryExpr since it carries a single operand.
type UnaryExpr struct {
	Inner Expr
}

func (u UnaryExpr) String() string { return fmt.Sprintf("NOT %s", u.Inner) }

func (u UnaryExpr) ToField(schema column.Schema) (column.Field, error) {
	f, err := u.Inner.ToField(schema)
	if err != nil {
		return column.Field{}, err
	}
	if f.Type != value.Boolean {
		return column.Field{}, fmt.Errorf("%w: logical: NOT requires a boolean operand, got %v", errkind.ErrResolution, f.Type)
	}
	return column.Field{Name: u.String(), Type: value.Boolean}, nil
}

// IsNullExpr implements IS NULL / IS NOT NULL, valid over any DataType.
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

func (n IsNullExpr) ToField(schema column.Schema) (column.Field, error) {
	if _, err := n.Inner.ToField(schema); err != nil {
		return column.Field{}, err
	}
	return column.Field{Name: n.String(), Type: value.Boolean}, nil
}

// InExpr implements [NOT] IN (list...): Inner must match the type of every
// element of List, and the expression evaluates to Boolean.
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
	return fmt.Sprintf("%s %s (%s)", in.Inner, op, joinExprs(in.List))
}

func (in InExpr) ToField(schema column.Schema) (column.Field, error) {
	innerField, err := in.Inner.ToField(schema)
	if err != nil {
		return column.Field{}, err
	}
	for _, item := range in.List {
		itemField, err := item.ToField(schema)
		if err != nil {
			return column.Field{}, err
		}
		if itemField.Type != innerField.Type {
			return column.Field{}, fmt.Errorf("%w: logical: %s: %v does not match %v", errkind.ErrResolution, in, itemField.Type, innerField.Type)
		}
	}
	return column.Field{Name: in.String(), Type: value.Boolean}, nil
}

// AliasExpr renames an expression's output field without altering its
// value or type.
type AliasExpr struct {
	Inner Expr
	Alias string
}

func (a AliasExpr) String() string { return fmt.Sprintf("%s AS %s", a.Inner, a.Alias) }

func (a AliasExpr) ToField(schema column.Schema) (column.Field, error) {
	f, err := a.Inner.ToField(schema)
	if err != nil {
		return column.Field{}, err
	}
	f.Name = a.Alias
	return f, nil
}

// IsAggregate reports whether an expression is, or contains, an
// AggregateExpr anywhere in its tree. Used by the planner to decide
// whether a SELECT requires a HashAggregate at all.
func IsAggregate(e Expr) bool {
	switch t := e.(type) {
	case AggregateExpr:
		return true
	case BinaryExpr:
		return IsAggregate(t.Left) || IsAggregate(t.Right)
	case UnaryExpr:
		return IsAggregate(t.Inner)
	case IsNullExpr:
		return IsAggregate(t.Inner)
	case InExpr:
		if IsAggregate(t.Inner) {
			return true
		}
		for _, item := range t.List {
			if IsAggregate(item) {
				return true
			}
		}
		return false
	case AliasExpr:
		return IsAggregate(t.Inner)
	default:
		return false
	}
}

// ExtractAggregates walks an expression tree and returns every distinct
// AggregateExpr found in it, in encounter order, deduplicated by String()
// identity. This is the first half of the aggregate-rewrite pass: the
// planner extracts aggregates from the projection/HAVING/ORDER BY
// expressions, builds the HashAggregate's aggregate list from the
// deduplicated set, and then rewrites the original expressions to
// reference those results by ColumnIndex (see RewriteAggregateRefs).
func ExtractAggregates(exprs ...Expr) []AggregateExpr {
	var out []AggregateExpr
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch t := e.(type) {
		case AggregateExpr:
			key := t.String()
			if !seen[key] {
				seen[key] = true
				out = append(out, t)
			}
		case BinaryExpr:
			walk(t.Left)
			walk(t.Right)
		case UnaryExpr:
			walk(t.Inner)
		case IsNullExpr:
			walk(t.Inner)
		case InExpr:
			walk(t.Inner)
			for _, item := range t.List {
				walk(item)
			}
		case AliasExpr:
			walk(t.Inner)
		}
	}
	for _, e := range exprs {
		if e != nil {
			walk(e)
		}
	}
	return out
}

// ColumnNames walks expression trees and returns every distinct Column name
// referenced, in encounter order. The SQL front-end uses this to compute a
// Scan's projection pushdown before resolution locks the plan to the
// source's full schema.
func ColumnNames(exprs ...Expr) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch t := e.(type) {
		case Column:
			if !seen[t.Name] {
				seen[t.Name] = true
				out = append(out, t.Name)
			}
		case BinaryExpr:
			walk(t.Left)
			walk(t.Right)
		case UnaryExpr:
			walk(t.Inner)
		case IsNullExpr:
			walk(t.Inner)
		case InExpr:
			walk(t.Inner)
			for _, item := range t.List {
				walk(item)
			}
		case AliasExpr:
			walk(t.Inner)
		case AggregateExpr:
			if t.Arg != nil {
				walk(t.Arg)
			}
		}
	}
	for _, e := range exprs {
		if e != nil {
			walk(e)
		}
	}
	return out
}

// RewriteAggregateRefs replaces every AggregateExpr occurrence in expr with
// a ColumnIndex pointing into the HashAggregate's output schema: group-by
// keys occupy indices [0, len(groupBy)), and aggregates occupy indices
// [len(groupBy), len(groupBy)+len(aggregates)) in the same dedup order
// ExtractAggregates produced. Per spec.md §4.6 rule 4, this rewrite applies
// uniformly to the Projection list, a HAVING predicate, and ORDER BY keys.
func RewriteAggregateRefs(expr Expr, groupByLen int, aggregates []AggregateExpr) Expr {
	switch t := expr.(type) {
	case AggregateExpr:
		for i, agg := range aggregates {
			if agg.String() == t.String() {
				return ColumnIndex{Index: groupByLen + i}
			}
		}
		return t
	case BinaryExpr:
		return BinaryExpr{
			Op:    t.Op,
			Left:  RewriteAggregateRefs(t.Left, groupByLen, aggregates),
			Right: RewriteAggregateRefs(t.Right, groupByLen, aggregates),
		}
	case UnaryExpr:
		return UnaryExpr{Inner: RewriteAggregateRefs(t.Inner, groupByLen, aggregates)}
	case IsNullExpr:
		return IsNullExpr{Inner: RewriteAggregateRefs(t.Inner, groupByLen, aggregates), Negate: t.Negate}
	case InExpr:
		list := make([]Expr, len(t.List))
		for i, item := range t.List {
			list[i] = RewriteAggregateRefs(item, groupByLen, aggregates)
		}
		return InExpr{Inner: RewriteAggregateRefs(t.Inner, groupByLen, aggregates), List: list, Negate: t.Negate}
	case AliasExpr:
		return AliasExpr{Inner: RewriteAggregateRefs(t.Inner, groupByLen, aggregates), Alias: t.Alias}
	default:
		return expr
	}
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
