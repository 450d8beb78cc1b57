package column

import (
	"fmt"

	"github.com/tablestream-io/tablestream/src/errkind"
)

// RecordBatch is a chunk of rows laid out column-major: Columns[i] holds
// Schema.Fields[i]'s values, and every column has the same length. Batches
// flow one at a time through the physical plan; there is no single
// in-memory table, matching spec.md's streaming execution model.
type RecordBatch struct {
	Schema  Schema
	Columns []Vector
}

var errColumnCountMismatch = fmt.Errorf("%w: column: record batch column count does not match schema field count", errkind.ErrInternal)
var errRowCountMismatch = fmt.Errorf("%w: column: record batch columns have inconsistent row counts", errkind.ErrInternal)

// NewRecordBatch validates and constructs a batch.
func NewRecordBatch(schema Schema, columns []Vector) (*RecordBatch, error) {
	if len(columns) != len(schema.Fields) {
		return nil, fmt.Errorf("%w: %d fields, %d columns", errColumnCountMismatch, len(schema.Fields), len(columns))
	}
	if len(columns) > 0 {
		n := columns[0].Len()
		for i, c := range columns {
			if c.Len() != n {
				return nil, fmt.Errorf("%w: column 0 has %d rows, column %d has %d", errRowCountMismatch, n, i, c.Len())
			}
		}
	}
	return &RecordBatch{Schema: schema, Columns: columns}, nil
}

// RowCount returns the number of rows in the batch, 0 for a batch with no
// columns.
func (rb *RecordBatch) RowCount() int {
	if len(rb.Columns) == 0 {
		return 0
	}
	return rb.Columns[0].Len()
}

// Column returns the vector for a named field.
func (rb *RecordBatch) Column(name string) (Vector, error) {
	idx := rb.Schema.IndexOf(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: column: no such field %q", errkind.ErrResolution, name)
	}
	return rb.Columns[idx], nil
}
