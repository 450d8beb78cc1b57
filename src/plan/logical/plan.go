package logical

import (
	"fmt"
	"strings"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/errkind"
	"github.com/tablestream-io/tablestream/src/table"
	"github.com/tablestream-io/tablestream/src/value"
)

var errFilterNotBoolean = fmt.Errorf("%w: logical: filter predicate must be boolean", errkind.ErrResolution)

var errLimitNegative = fmt.Errorf("%w: logical: limit must be non-negative", errkind.ErrResolution)
var errEmptySort = fmt.Errorf("%w: logical: sort requires at least one key", errkind.ErrResolution)
var errEmptyAggregate = fmt.Errorf("%w: logical: aggregate requires at least one group-by key or aggregate", errkind.ErrResolution)

// Plan is a node in the logical query plan tree. Every variant derives its
// output Schema purely from its input's Schema (and its own expressions),
// never by inspecting data, matching original_source's
// logical_plans/logical_plan.rs's LogicalPlan::schema() contract.
type Plan interface {
	fmt.Stringer
	Schema() column.Schema
	Children() []Plan
}

// Scan reads an entire table from a Source. It is always a leaf. Projection,
// when non-empty, names the columns this scan exposes — its schema becomes
// Source.Schema().Select(Projection) instead of the full source schema, and
// Build pushes it down into the source itself when the source supports it.
type Scan struct {
	Source     table.Source
	Path       string
	Projection []string
}

func NewScan(source table.Source, path string) *Scan {
	return &Scan{Source: source, Path: path}
}

// NewScanWithProjection is NewScan plus a column projection: the scan's
// schema narrows to source.Schema().Select(projection) instead of the
// source's full schema.
func NewScanWithProjection(source table.Source, path string, projection []string) *Scan {
	return &Scan{Source: source, Path: path, Projection: projection}
}

func (s *Scan) Schema() column.Schema {
	if len(s.Projection) == 0 {
		return s.Source.Schema()
	}
	return s.Source.Schema().Select(s.Projection)
}
func (s *Scan) Children() []Plan { return nil }
func (s *Scan) String() string {
	if len(s.Projection) == 0 {
		return fmt.Sprintf("Scan: %s", s.Path)
	}
	return fmt.Sprintf("Scan: %s, projection=[%s]", s.Path, strings.Join(s.Projection, ", "))
}

// Projection selects and computes a list of output expressions over its
// input.
type Projection struct {
	Input Plan
	Exprs []Expr
}

func NewProjection(input Plan, exprs []Expr) (*Projection, error) {
	if _, err := projectionSchema(input.Schema(), exprs); err != nil {
		return nil, err
	}
	return &Projection{Input: input, Exprs: exprs}, nil
}

func projectionSchema(in column.Schema, exprs []Expr) (column.Schema, error) {
	fields := make([]column.Field, len(exprs))
	for i, e := range exprs {
		f, err := e.ToField(in)
		if err != nil {
			return column.Schema{}, err
		}
		fields[i] = f
	}
	return column.NewSchema(fields...), nil
}

func (p *Projection) Schema() column.Schema {
	s, _ := projectionSchema(p.Input.Schema(), p.Exprs)
	return s
}
func (p *Projection) Children() []Plan { return []Plan{p.Input} }
func (p *Projection) String() string {
	return fmt.Sprintf("Projection: %s", joinExprs(p.Exprs))
}

// Filter keeps only the rows where Predicate evaluates true. Output schema
// equals input schema unchanged.
type Filter struct {
	Input     Plan
	Predicate Expr
}

func NewFilter(input Plan, predicate Expr) (*Filter, error) {
	f, err := predicate.ToField(input.Schema())
	if err != nil {
		return nil, err
	}
	if f.Type != value.Boolean {
		return nil, fmt.Errorf("%w: got %v", errFilterNotBoolean, f.Type)
	}
	return &Filter{Input: input, Predicate: predicate}, nil
}

func (f *Filter) Schema() column.Schema { return f.Input.Schema() }
func (f *Filter) Children() []Plan      { return []Plan{f.Input} }
func (f *Filter) String() string        { return fmt.Sprintf("Filter: %s", f.Predicate) }

// Limit caps the number of rows produced by its input.
type Limit struct {
	Input Plan
	N     int
}

func NewLimit(input Plan, n int) (*Limit, error) {
	if n < 0 {
		return nil, errLimitNegative
	}
	return &Limit{Input: input, N: n}, nil
}

func (l *Limit) Schema() column.Schema { return l.Input.Schema() }
func (l *Limit) Children() []Plan      { return []Plan{l.Input} }
func (l *Limit) String() string        { return fmt.Sprintf("Limit: %d", l.N) }

// SortKey pairs a sort expression with direction and null placement.
type SortKey struct {
	Expr       Expr
	Descending bool
	NullsFirst bool
}

func (k SortKey) String() string {
	dir := "asc"
	if k.Descending {
		dir = "desc"
	}
	nulls := "nulls last"
	if k.NullsFirst {
		nulls = "nulls first"
	}
	return fmt.Sprintf("%s %s %s", k.Expr, dir, nulls)
}

// Sort orders rows by one or more keys. Output schema equals input schema
// unchanged.
type Sort struct {
	Input Plan
	Keys  []SortKey
}

func NewSort(input Plan, keys []SortKey) (*Sort, error) {
	if len(keys) == 0 {
		return nil, errEmptySort
	}
	for _, k := range keys {
		switch k.Expr.(type) {
		case Column, ColumnIndex:
		default:
			return nil, fmt.Errorf("%w: logical: sort key %s is not a column reference", errkind.ErrResolution, k.Expr)
		}
		if _, err := k.Expr.ToField(input.Schema()); err != nil {
			return nil, err
		}
	}
	return &Sort{Input: input, Keys: keys}, nil
}

func (s *Sort) Schema() column.Schema { return s.Input.Schema() }
func (s *Sort) Children() []Plan      { return []Plan{s.Input} }
func (s *Sort) String() string {
	parts := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		parts[i] = k.String()
	}
	return fmt.Sprintf("Sort: keys=[%s]", strings.Join(parts, ", "))
}

// Aggregate groups rows by GroupBy keys and computes Aggregates per group.
// Its output schema is exactly [group-by fields..., aggregate fields...],
// in that order — the same layout RewriteAggregateRefs's ColumnIndex
// offsets assume.
type Aggregate struct {
	Input      Plan
	GroupBy    []Expr
	Aggregates []AggregateExpr
}

func NewAggregate(input Plan, groupBy []Expr, aggregates []AggregateExpr) (*Aggregate, error) {
	if len(groupBy) == 0 && len(aggregates) == 0 {
		return nil, errEmptyAggregate
	}
	in := input.Schema()
	for _, g := range groupBy {
		if _, err := g.ToField(in); err != nil {
			return nil, err
		}
	}
	for _, a := range aggregates {
		if _, err := a.ToField(in); err != nil {
			return nil, err
		}
	}
	return &Aggregate{Input: input, GroupBy: groupBy, Aggregates: aggregates}, nil
}

func (a *Aggregate) Schema() column.Schema {
	in := a.Input.Schema()
	fields := make([]column.Field, 0, len(a.GroupBy)+len(a.Aggregates))
	for _, g := range a.GroupBy {
		f, _ := g.ToField(in)
		fields = append(fields, f)
	}
	for _, agg := range a.Aggregates {
		f, _ := agg.ToField(in)
		fields = append(fields, f)
	}
	return column.NewSchema(fields...)
}
func (a *Aggregate) Children() []Plan { return []Plan{a.Input} }
func (a *Aggregate) String() string {
	return fmt.Sprintf("Aggregate: group_by=[%s], aggregate=[%s]", joinExprs(a.GroupBy), joinAggregates(a.Aggregates))
}

func joinAggregates(aggs []AggregateExpr) string {
	parts := make([]string, len(aggs))
	for i, a := range aggs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
