// Package engine implements the embeddable query engine's programmatic
// surface: building a Dataframe, running a query against it, and
// collecting its result into a Datasink. It is the glue between the SQL
// front end (src/sql) and the logical/physical planners, grounded on
// original_source/src/logical_plans/dataframe.rs and src/execute.rs.
package engine

import (
	"github.com/tablestream-io/tablestream/src/plan/logical"
	"github.com/tablestream-io/tablestream/src/table"
)

// Dataframe wraps a logical.Plan and exposes the builder methods used both
// by programmatic callers and by the SQL binder (src/sql/parser.go) to
// grow a plan one clause at a time. Every method returns a new Dataframe;
// none mutate the receiver, matching the logical plan tree's own
// immutability.
type Dataframe struct {
	plan logical.Plan
}

func newDataframe(plan logical.Plan) *Dataframe { return &Dataframe{plan: plan} }

// FromCSV loads a local delimited file and returns a Dataframe scanning
// it, inferring a Schema from up to table.sampleRows sampled rows.
func FromCSV(path string, delimiter rune) (*Dataframe, error) {
	src, err := table.Open(path, delimiter)
	if err != nil {
		return nil, err
	}
	return newDataframe(logical.NewScan(src, path)), nil
}

// LogicalPlan exposes the underlying plan, e.g. for the SQL binder to seed
// a fresh parse, or for execute.go to hand off to the physical planner.
func (df *Dataframe) LogicalPlan() logical.Plan { return df.plan }

func (df *Dataframe) Projection(exprs ...logical.Expr) (*Dataframe, error) {
	p, err := logical.NewProjection(df.plan, exprs)
	if err != nil {
		return nil, err
	}
	return newDataframe(p), nil
}

func (df *Dataframe) Filter(predicate logical.Expr) (*Dataframe, error) {
	f, err := logical.NewFilter(df.plan, predicate)
	if err != nil {
		return nil, err
	}
	return newDataframe(f), nil
}

func (df *Dataframe) Limit(n int) (*Dataframe, error) {
	l, err := logical.NewLimit(df.plan, n)
	if err != nil {
		return nil, err
	}
	return newDataframe(l), nil
}

func (df *Dataframe) Sort(keys ...logical.SortKey) (*Dataframe, error) {
	s, err := logical.NewSort(df.plan, keys)
	if err != nil {
		return nil, err
	}
	return newDataframe(s), nil
}

func (df *Dataframe) Aggregate(groupBy []logical.Expr, aggregates []logical.AggregateExpr) (*Dataframe, error) {
	a, err := logical.NewAggregate(df.plan, groupBy, aggregates)
	if err != nil {
		return nil, err
	}
	return newDataframe(a), nil
}
