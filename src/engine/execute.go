package engine

import (
	"io"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/plan/physical"
	"github.com/tablestream-io/tablestream/src/sql"
	"github.com/tablestream-io/tablestream/src/value"
)

// Execute parses sqlText against df's current plan and runs the resulting
// statement to completion, matching original_source's execute.rs dispatch
// over Stmt::Select / Stmt::Explain / Stmt::CopyTo.
func Execute(sqlText string, df *Dataframe) (*Datasink, error) {
	stmt, err := sql.Parse(sqlText, df.LogicalPlan())
	if err != nil {
		return nil, err
	}
	switch stmt.Kind {
	case sql.StmtExplain:
		return executeExplain(stmt)
	case sql.StmtCopyTo:
		return executeCopyTo(stmt)
	default:
		return executeSelect(stmt)
	}
}

func executeSelect(stmt *sql.Statement) (*Datasink, error) {
	plan, err := physical.Build(stmt.Plan)
	if err != nil {
		return nil, err
	}
	batches, err := drain(plan)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return emptyDatasink(plan.Schema()), nil
	}
	return FromRecordBatches(batches)
}

func executeExplain(stmt *sql.Statement) (*Datasink, error) {
	planStr := stmt.Plan.String()
	v := column.NewLiteralVector(value.TextValue(planStr), 1)
	return NewLiteralDatasink("Query Plan", v), nil
}

func executeCopyTo(stmt *sql.Statement) (*Datasink, error) {
	ds, err := executeSelect(stmt)
	if err != nil {
		return nil, err
	}
	if err := ds.ToCSV(stmt.Path); err != nil {
		return nil, err
	}
	return ds, nil
}

func drain(plan physical.Plan) ([]*column.RecordBatch, error) {
	var batches []*column.RecordBatch
	for {
		rb, err := plan.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		batches = append(batches, rb)
	}
	return batches, nil
}

// emptyDatasink builds a zero-row Datasink carrying schema alone, the
// result of a query whose predicate matched nothing.
func emptyDatasink(schema column.Schema) *Datasink {
	data := make([]column.Vector, len(schema.Fields))
	for i, f := range schema.Fields {
		data[i] = column.NewDenseVector(f.Type, nil)
	}
	return &Datasink{schema: schema, data: data}
}
