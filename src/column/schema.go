// Package column implements the engine's columnar in-memory model: typed
// fields, column vectors (dense and literal), and the record batch that
// groups them.
package column

import "github.com/tablestream-io/tablestream/src/value"

// Field names and types a single column. Schemas are immutable once built;
// every plan node derives its output Field list from its input rather than
// mutating one in place.
type Field struct {
	Name string
	Type value.DataType
}

// Schema is an ordered list of Fields. Column order is significant:
// RecordBatch.Columns[i] always corresponds to Schema.Fields[i].
type Schema struct {
	Fields []Field
}

// NewSchema builds a Schema from Fields.
func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// IndexOf returns the position of a named field, or -1 if absent.
func (s Schema) IndexOf(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Select returns the subset of Fields named, in the order names lists them
// rather than the schema's own order. A name with no match is silently
// dropped — the scanner's projection pushdown relies on that to tolerate
// stray column references; expression resolution against the projected
// schema is what turns an unknown name into an error.
func (s Schema) Select(names []string) Schema {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		if i := s.IndexOf(name); i >= 0 {
			fields = append(fields, s.Fields[i])
		}
	}
	return Schema{Fields: fields}
}

func (s Schema) String() string {
	out := ""
	for i, f := range s.Fields {
		if i > 0 {
			out += ", "
		}
		out += f.Name + ":" + f.Type.String()
	}
	return out
}
