package physical

import (
	"fmt"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/errkind"
	"github.com/tablestream-io/tablestream/src/plan/logical"
	"github.com/tablestream-io/tablestream/src/table"
)

// Build compiles a logical.Plan into an executable physical.Plan, the
// engine's logical-to-physical planning step (spec.md component C6/C7).
// It walks the logical tree once, resolving every Column/ColumnIndex
// reference against its input's concrete Schema and every BinaryExpr's
// result type via the logical expression's own ToField, so no type
// decision is repeated at execution time.
func Build(lp logical.Plan) (Plan, error) {
	switch t := lp.(type) {
	case *logical.Scan:
		src := t.Source
		if len(t.Projection) > 0 {
			if ps, ok := src.(table.ProjectingSource); ok {
				src = ps.SelectColumns(t.Projection)
			}
		}
		return NewScanExec(src), nil

	case *logical.Projection:
		input, err := Build(t.Input)
		if err != nil {
			return nil, err
		}
		inSchema := t.Input.Schema()
		exprs := make([]Expr, len(t.Exprs))
		for i, e := range t.Exprs {
			pe, err := buildExpr(e, inSchema)
			if err != nil {
				return nil, err
			}
			exprs[i] = pe
		}
		return NewProjectionExec(input, exprs, t.Schema()), nil

	case *logical.Filter:
		input, err := Build(t.Input)
		if err != nil {
			return nil, err
		}
		pred, err := buildExpr(t.Predicate, t.Input.Schema())
		if err != nil {
			return nil, err
		}
		return NewFilterExec(input, pred), nil

	case *logical.Limit:
		input, err := Build(t.Input)
		if err != nil {
			return nil, err
		}
		return NewLimitExec(input, t.N), nil

	case *logical.Sort:
		input, err := Build(t.Input)
		if err != nil {
			return nil, err
		}
		inSchema := t.Input.Schema()
		keys := make([]SortKey, len(t.Keys))
		for i, k := range t.Keys {
			pe, err := buildExpr(k.Expr, inSchema)
			if err != nil {
				return nil, err
			}
			keys[i] = SortKey{Expr: pe, Descending: k.Descending, NullsFirst: k.NullsFirst}
		}
		return NewSortExec(input, keys), nil

	case *logical.Aggregate:
		input, err := Build(t.Input)
		if err != nil {
			return nil, err
		}
		inSchema := t.Input.Schema()
		groupBy := make([]Expr, len(t.GroupBy))
		for i, g := range t.GroupBy {
			pe, err := buildExpr(g, inSchema)
			if err != nil {
				return nil, err
			}
			groupBy[i] = pe
		}
		aggs := make([]aggregateSpec, len(t.Aggregates))
		for i, a := range t.Aggregates {
			spec := aggregateSpec{Func: string(a.Func)}
			if a.Arg != nil {
				pe, err := buildExpr(a.Arg, inSchema)
				if err != nil {
					return nil, err
				}
				spec.Arg = pe
			}
			aggs[i] = spec
		}
		return NewHashAggregateExec(input, groupBy, aggs, t.Schema()), nil

	default:
		return nil, fmt.Errorf("%w: physical: unsupported logical plan node %T", errkind.ErrInternal, lp)
	}
}

func buildExpr(e logical.Expr, schema column.Schema) (Expr, error) {
	switch t := e.(type) {
	case logical.Column:
		idx := schema.IndexOf(t.Name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: physical: unknown column %q", errkind.ErrResolution, t.Name)
		}
		return ColumnRef{Index: idx, Name: t.Name}, nil

	case logical.ColumnIndex:
		return ColumnRef{Index: t.Index, Name: fmt.Sprintf("#%d", t.Index)}, nil

	case logical.Literal:
		return LiteralExpr{Value: t.Value}, nil

	case logical.BinaryExpr:
		left, err := buildExpr(t.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := buildExpr(t.Right, schema)
		if err != nil {
			return nil, err
		}
		field, err := t.ToField(schema)
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: BinOp(t.Op), Left: left, Right: right, ResultType: field.Type}, nil

	case logical.UnaryExpr:
		inner, err := buildExpr(t.Inner, schema)
		if err != nil {
			return nil, err
		}
		return NotExpr{Inner: inner}, nil

	case logical.IsNullExpr:
		inner, err := buildExpr(t.Inner, schema)
		if err != nil {
			return nil, err
		}
		return IsNullExpr{Inner: inner, Negate: t.Negate}, nil

	case logical.InExpr:
		inner, err := buildExpr(t.Inner, schema)
		if err != nil {
			return nil, err
		}
		list := make([]Expr, len(t.List))
		for i, item := range t.List {
			pe, err := buildExpr(item, schema)
			if err != nil {
				return nil, err
			}
			list[i] = pe
		}
		return InExpr{Inner: inner, List: list, Negate: t.Negate}, nil

	case logical.AliasExpr:
		// an alias only renames the output field; it evaluates identically
		// to its inner expression.
		return buildExpr(t.Inner, schema)

	case logical.AggregateExpr:
		return nil, fmt.Errorf("%w: physical: aggregate expression %s reached expression compilation unrewritten", errkind.ErrInternal, t)

	default:
		return nil, fmt.Errorf("%w: physical: unsupported logical expression %T", errkind.ErrInternal, e)
	}
}
