package table

import (
	"github.com/tablestream-io/tablestream/src/value"
)

func isNull(s string) bool {
	return s == ""
}

// guessType inspects a single raw field and reports the narrowest DataType
// it conforms to. Order matters: Boolean and Date are checked before
// Number so that "true"/"2020-02-20" style values never get misread as
// text-that-happens-to-parse, and Number is checked before falling back to
// Text so that "1", "1.5" etc. are recognised as numeric.
func guessType(s string) value.DataType {
	if _, err := value.ParseValue(value.Boolean, s); err == nil {
		return value.Boolean
	}
	if _, err := value.ParseValue(value.Date, s); err == nil {
		return value.Date
	}
	if _, err := value.ParseValue(value.Number, s); err == nil {
		return value.Number
	}
	return value.Text
}

// TypeGuesser accumulates votes across a stream of raw field values and
// settles on a single column DataType, in the teacher's vote-counting
// style (src/column/schema.go's TypeGuesser) adapted to the engine's
// four-type closed set and its "sticky Text" rule: once a value forces
// Text, the column can never un-become Text, because Text is a superset
// of every other type's literal surface.
type TypeGuesser struct {
	nullable bool
	counts   [5]int // indexed by value.DataType
	rows     int
}

func NewTypeGuesser() *TypeGuesser { return &TypeGuesser{} }

func (tg *TypeGuesser) AddValue(s string) {
	tg.rows++
	if isNull(s) {
		tg.nullable = true
		return
	}
	if tg.counts[value.Text] > 0 {
		return
	}
	tg.counts[guessType(s)]++
}

// InferredType returns the best-guess DataType and whether the column
// contains (or, with no rows sampled, might contain) nulls.
func (tg *TypeGuesser) InferredType() (value.DataType, bool) {
	if tg.rows == 0 {
		return value.Text, true
	}

	seen := make(map[value.DataType]int, 4)
	for dt, n := range tg.counts {
		if n > 0 {
			seen[value.DataType(dt)] = n
		}
	}
	if len(seen) == 0 {
		// every sampled value was null
		return value.Text, true
	}
	if len(seen) == 1 {
		for dt := range seen {
			return dt, tg.nullable
		}
	}
	// Boolean, Date and Number never overlap in what they can parse (unlike
	// the teacher's int/float pair), so seeing more than one non-Text type
	// among sampled values means the column cannot honestly be typed more
	// narrowly than Text.
	return value.Text, tg.nullable
}
