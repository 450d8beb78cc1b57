package column

import (
	"fmt"

	"github.com/tablestream-io/tablestream/src/bitmap"
	"github.com/tablestream-io/tablestream/src/errkind"
	"github.com/tablestream-io/tablestream/src/value"
)

// Vector is the engine's columnar data abstraction: a typed, indexable
// sequence of Values. Every physical expression evaluates to a Vector and
// every physical operator reads and writes RecordBatches built out of them.
//
// There are exactly two implementations, matching spec.md's ColumnVector /
// LiteralVector split: DenseVector holds one Value per row; LiteralVector
// holds a single Value logically repeated Len times (the result of a scalar
// literal, never materialised row by row).
type Vector interface {
	Type() value.DataType
	Len() int
	Get(i int) value.Value
	// Prune returns a new Vector containing only the rows where keep is set,
	// preserving relative order. Used by the Filter operator.
	Prune(keep *bitmap.Bitmap) Vector
}

// DenseVector stores one Value per row in a plain slice of value.Value;
// nullness is carried by each Value itself, so there is no separate
// nullability bitmap.
type DenseVector struct {
	dtype  value.DataType
	data   []value.Value
	length int
}

func NewDenseVector(dtype value.DataType, data []value.Value) *DenseVector {
	return &DenseVector{dtype: dtype, data: data, length: len(data)}
}

func (v *DenseVector) Type() value.DataType { return v.dtype }
func (v *DenseVector) Len() int             { return v.length }

func (v *DenseVector) Get(i int) value.Value {
	if i < 0 || i >= v.length {
		panic(fmt.Sprintf("column: index %d out of range for vector of length %d", i, v.length))
	}
	return v.data[i]
}

func (v *DenseVector) Prune(keep *bitmap.Bitmap) Vector {
	out := make([]value.Value, 0, keep.Count())
	for i := 0; i < v.length; i++ {
		if keep.Get(i) {
			out = append(out, v.data[i])
		}
	}
	return NewDenseVector(v.dtype, out)
}

// Append returns a new DenseVector with other's rows appended, used when a
// streaming operator needs to glue batches together (e.g. Datasink
// assembly in the engine package).
func (v *DenseVector) Append(other *DenseVector) (*DenseVector, error) {
	if v.dtype != other.dtype {
		return nil, fmt.Errorf("%w: column: cannot append vectors of dtype %v and %v", errkind.ErrInternal, v.dtype, other.dtype)
	}
	data := make([]value.Value, 0, v.length+other.length)
	data = append(data, v.data...)
	data = append(data, other.data...)
	return NewDenseVector(v.dtype, data), nil
}

// LiteralVector represents a single Value broadcast over Len rows without
// materialising it Len times. Produced by literal expressions and by
// EXPLAIN's single-row plan description.
type LiteralVector struct {
	dtype value.DataType
	val   value.Value
	ln    int
}

func NewLiteralVector(val value.Value, length int) *LiteralVector {
	return &LiteralVector{dtype: val.Type, val: val, ln: length}
}

func (v *LiteralVector) Type() value.DataType { return v.dtype }
func (v *LiteralVector) Len() int             { return v.ln }
func (v *LiteralVector) Get(i int) value.Value {
	if i < 0 || i >= v.ln {
		panic(fmt.Sprintf("column: index %d out of range for literal vector of length %d", i, v.ln))
	}
	return v.val
}

func (v *LiteralVector) Prune(keep *bitmap.Bitmap) Vector {
	return NewLiteralVector(v.val, keep.Count())
}

// Materialize returns a DenseVector holding Len copies of the literal
// value, used when a downstream operator needs per-row storage (e.g. when
// concatenating a literal column across record batches of varying length).
func (v *LiteralVector) Materialize() *DenseVector {
	data := make([]value.Value, v.ln)
	for i := range data {
		data[i] = v.val
	}
	return NewDenseVector(v.dtype, data)
}
