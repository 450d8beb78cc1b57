package physical

import (
	"sort"
	"strings"

	"github.com/tablestream-io/tablestream/src/bitmap"
	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/value"
)

func bitmapFromBoolVector(v column.Vector) *bitmap.Bitmap {
	bm := bitmap.NewBitmap(v.Len())
	for i := 0; i < v.Len(); i++ {
		val := v.Get(i)
		bm.Set(i, !val.Null && val.AsBool())
	}
	return bm
}

func newKeepFirstN(total, n int) *bitmap.Bitmap {
	bm := bitmap.NewBitmap(total)
	for i := 0; i < n && i < total; i++ {
		bm.Set(i, true)
	}
	return bm
}

func schemaDtypes(schema column.Schema) []value.DataType {
	out := make([]value.DataType, len(schema.Fields))
	for i, f := range schema.Fields {
		out[i] = f.Type
	}
	return out
}

// groupKey encodes a group-by key tuple into a string usable as a Go map
// key. Values are rendered with their type tag so that, say, the Number 1
// and the Text "1" never collide.
func groupKey(key []value.Value) string {
	var b strings.Builder
	for _, v := range key {
		b.WriteByte(byte(v.Type))
		if v.Null {
			b.WriteString("\x00N")
		} else {
			b.WriteString("\x00")
			b.WriteString(v.String())
		}
		b.WriteByte('\x01')
	}
	return b.String()
}

// sortRowsInPlace orders rows by the given keys using value.CompareNullable,
// honoring each key's direction and null placement.
func sortRowsInPlace(rows []sortRow, keys []SortKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for k, key := range keys {
			a, b := rows[i].keys[k], rows[j].keys[k]
			c := compareForSort(a, b, key.NullsFirst)
			if c == 0 {
				continue
			}
			// direction reverses the order of non-null values only; null
			// placement is fixed by NullsFirst.
			if key.Descending && !a.Null && !b.Null {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareForSort(a, b value.Value, nullsFirst bool) int {
	if a.Null && b.Null {
		return 0
	}
	if a.Null {
		if nullsFirst {
			return -1
		}
		return 1
	}
	if b.Null {
		if nullsFirst {
			return 1
		}
		return -1
	}
	return value.CompareNullable(a, b)
}
