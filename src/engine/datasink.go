package engine

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/golang/snappy"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/errkind"
)

var errNoBatches = fmt.Errorf("%w: engine: cannot build a datasink from zero record batches", errkind.ErrInternal)
var errColumnIndexOutOfRange = fmt.Errorf("%w: engine: column index out of range", errkind.ErrInternal)

// Datasink is a fully materialised query result: one Schema and one Vector
// per field, built by concatenating every RecordBatch a physical.Plan
// produced. Unlike original_source's Datasink (which flat-maps every
// batch's columns into one long, schema-repeating slice), this
// concatenates same-named columns across batches so ColumnCount always
// equals the Schema's field count regardless of how many batches were
// pulled (see DESIGN.md's open-question resolution).
type Datasink struct {
	schema column.Schema
	data   []column.Vector
}

// FromRecordBatches assembles a Datasink out of every batch a physical
// plan produced, concatenating column by column.
func FromRecordBatches(batches []*column.RecordBatch) (*Datasink, error) {
	if len(batches) == 0 {
		return nil, errNoBatches
	}
	schema := batches[0].Schema
	cols := make([]*column.DenseVector, len(schema.Fields))
	for i := range cols {
		cols[i] = column.NewDenseVector(schema.Fields[i].Type, nil)
	}
	for _, rb := range batches {
		for i, v := range rb.Columns {
			dense, ok := v.(*column.DenseVector)
			if !ok {
				if lit, ok := v.(*column.LiteralVector); ok {
					dense = lit.Materialize()
				} else {
					return nil, fmt.Errorf("%w: engine: unsupported vector type %T", errkind.ErrInternal, v)
				}
			}
			merged, err := cols[i].Append(dense)
			if err != nil {
				return nil, err
			}
			cols[i] = merged
		}
	}
	data := make([]column.Vector, len(cols))
	for i, c := range cols {
		data[i] = c
	}
	return &Datasink{schema: schema, data: data}, nil
}

// NewLiteralDatasink builds a single-row, single-column datasink, used by
// EXPLAIN to report a query plan's string form.
func NewLiteralDatasink(fieldName string, v column.Vector) *Datasink {
	schema := column.NewSchema(column.Field{Name: fieldName, Type: v.Type()})
	return &Datasink{schema: schema, data: []column.Vector{v}}
}

func (ds *Datasink) Schema() column.Schema { return ds.schema }

func (ds *Datasink) RowCount() int {
	if len(ds.data) == 0 {
		return 0
	}
	return ds.data[0].Len()
}

func (ds *Datasink) ColumnCount() int { return len(ds.data) }

func (ds *Datasink) Column(index int) (column.Vector, error) {
	if index < 0 || index >= len(ds.data) {
		return nil, fmt.Errorf("%w: %d", errColumnIndexOutOfRange, index)
	}
	return ds.data[index], nil
}

// ToCSV writes the datasink as a delimited file with a header row.
func (ds *Datasink) ToCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: engine: %s", errkind.ErrIO, err)
	}
	defer f.Close()
	return ds.writeCSV(f)
}

// ToCSVCompressed writes the datasink as a snappy-framed CSV stream, the
// engine's compressed-export counterpart to ToCSV, grounded on the
// teacher's own snappy-framed loader cache format.
func (ds *Datasink) ToCSVCompressed(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: engine: %s", errkind.ErrIO, err)
	}
	defer f.Close()
	sw := snappy.NewBufferedWriter(f)
	defer sw.Close()
	return ds.writeCSV(sw)
}

func (ds *Datasink) writeCSV(w interface{ Write([]byte) (int, error) }) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(ds.schema.Fields))
	for i, f := range ds.schema.Fields {
		header[i] = f.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: engine: %s", errkind.ErrIO, err)
	}
	n := ds.RowCount()
	row := make([]string, len(ds.data))
	for i := 0; i < n; i++ {
		for c, vec := range ds.data {
			row[c] = vec.Get(i).String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("%w: engine: %s", errkind.ErrIO, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: engine: %s", errkind.ErrIO, err)
	}
	return nil
}
