package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/errkind"
	"github.com/tablestream-io/tablestream/src/value"
)

// sampleRows caps how many rows the loader reads to infer column types
// before rewinding and reading the file for real, in the teacher's own
// sample-then-load two-pass idiom (src/database/loader.go's
// LoadSampleData / CacheIncomingFile split, adapted to a single local file
// rather than an upload pipeline).
const sampleRows = 1000

// batchSize bounds how many rows each RecordBatch produced by Source.Next
// holds, matching the streaming execution model's requirement that the
// engine never needs to hold a whole table in memory at once.
const batchSize = 4096

var errEmptyFile = fmt.Errorf("%w: table: file has no header row", errkind.ErrCSV)

// Source is a lazily-pulled stream of record batches with a fixed schema,
// the engine's Scan operator's only dependency. Next returns io.EOF once
// exhausted; callers must not call Next again afterwards.
type Source interface {
	Schema() column.Schema
	Next() (*column.RecordBatch, error)
	Close() error
}

// ProjectingSource is implemented by sources that can restrict which
// columns they materialise per row, the scanner half of projection
// pushdown. Scan applies it when it carries a non-empty projection and the
// underlying source supports it; sources that don't implement it (e.g. a
// stub in a test) just keep scanning every column.
type ProjectingSource interface {
	Source
	SelectColumns(names []string) Source
}

// CSVSource reads delimited text from a local file, having already sampled
// it once to infer a Schema.
type CSVSource struct {
	f      *os.File
	r      *csv.Reader
	schema column.Schema
	keep   []int // indices into the sampled schema to materialise; nil means all
}

// Open reads the header and up to sampleRows data rows to infer a schema,
// then rewinds the file so Next starts from the first data row.
func Open(path string, delimiter rune) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: table: cannot open %s: %s", errkind.ErrIO, path, err)
	}

	schema, err := inferSchema(f, delimiter)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: table: %s", errkind.ErrIO, err)
	}

	r := newCSVReader(f, delimiter)
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: table: cannot re-read header of %s: %s", errkind.ErrCSV, path, err)
	}
	_ = header // already captured in schema field order

	return &CSVSource{f: f, r: r, schema: schema}, nil
}

func newCSVReader(r io.Reader, delimiter rune) *csv.Reader {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.ReuseRecord = true
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	return cr
}

func inferSchema(f *os.File, delimiter rune) (column.Schema, error) {
	r := newCSVReader(f, delimiter)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return column.Schema{}, errEmptyFile
		}
		return column.Schema{}, fmt.Errorf("%w: table: cannot read header: %s", errkind.ErrCSV, err)
	}
	names := make([]string, len(header))
	copy(names, header)

	guessers := make([]*TypeGuesser, len(names))
	for i := range guessers {
		guessers[i] = NewTypeGuesser()
	}

	for n := 0; n < sampleRows; n++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return column.Schema{}, fmt.Errorf("%w: table: cannot sample rows: %s", errkind.ErrCSV, err)
		}
		for i, field := range row {
			if i >= len(guessers) {
				break
			}
			guessers[i].AddValue(field)
		}
	}

	fields := make([]column.Field, len(names))
	for i, name := range names {
		dt, _ := guessers[i].InferredType()
		fields[i] = column.Field{Name: name, Type: dt}
	}
	return column.NewSchema(fields...), nil
}

// Schema returns the projected schema when SelectColumns has narrowed this
// source, the full sampled schema otherwise.
func (s *CSVSource) Schema() column.Schema {
	if s.keep == nil {
		return s.schema
	}
	fields := make([]column.Field, len(s.keep))
	for i, idx := range s.keep {
		fields[i] = s.schema.Fields[idx]
	}
	return column.NewSchema(fields...)
}

// SelectColumns returns a source that only materialises the named columns
// of each row from here on, implementing ProjectingSource. Unknown names
// are dropped, matching Schema.Select. The returned source shares this
// one's open file and cursor position — call it before the first Next.
func (s *CSVSource) SelectColumns(names []string) Source {
	keep := make([]int, 0, len(names))
	for _, name := range names {
		if i := s.schema.IndexOf(name); i >= 0 {
			keep = append(keep, i)
		}
	}
	return &CSVSource{f: s.f, r: s.r, schema: s.schema, keep: keep}
}

// Next reads up to batchSize rows and returns them as a RecordBatch. It
// returns io.EOF (with a nil batch) once the file is exhausted. A malformed
// row ends the scan with an ErrCSV error, and a cell that does not parse as
// its column's type ends it with that value's parse error.
func (s *CSVSource) Next() (*column.RecordBatch, error) {
	wanted := s.keep
	if wanted == nil {
		wanted = allIndices(len(s.schema.Fields))
	}
	schema := s.Schema()
	columns := make([][]value.Value, len(wanted))
	rowsRead := 0

	for rowsRead < batchSize {
		row, err := s.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: table: %s", errkind.ErrCSV, err)
		}
		for j, i := range wanted {
			var raw string
			if i < len(row) {
				raw = row[i]
			}
			var v value.Value
			if raw == "" {
				v = value.NullValue(s.schema.Fields[i].Type)
			} else {
				v, err = value.ParseValue(s.schema.Fields[i].Type, raw)
				if err != nil {
					return nil, fmt.Errorf("table: row %d, column %q: %w", rowsRead, s.schema.Fields[i].Name, err)
				}
			}
			columns[j] = append(columns[j], v)
		}
		rowsRead++
	}

	if rowsRead == 0 {
		return nil, io.EOF
	}

	vectors := make([]column.Vector, len(wanted))
	for j, col := range columns {
		vectors[j] = column.NewDenseVector(schema.Fields[j].Type, col)
	}
	return column.NewRecordBatch(schema, vectors)
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (s *CSVSource) Close() error { return s.f.Close() }
