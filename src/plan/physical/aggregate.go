package physical

import (
	"github.com/shopspring/decimal"
	"github.com/tablestream-io/tablestream/src/value"
)

// accumulator folds a stream of Values (one group's worth of a single
// aggregate column) into a single result Value, the runtime counterpart of
// the teacher's src/column/aggregations.go AggState/updateFuncs pattern,
// adapted to operate on value.Value instead of typed Go slices.
type accumulator interface {
	Update(v value.Value)
	Result() value.Value
}

// newAccumulator returns a fresh accumulator for the given aggregate
// function and its argument's DataType (ignored for count).
func newAccumulator(fn string, argType value.DataType) accumulator {
	switch fn {
	case "count":
		return &countAcc{}
	case "sum":
		return &sumAcc{}
	case "avg":
		return &avgAcc{}
	case "min":
		return &minMaxAcc{dtype: argType, wantMax: false}
	case "max":
		return &minMaxAcc{dtype: argType, wantMax: true}
	default:
		panic("physical: unknown aggregate function " + fn)
	}
}

// countAcc counts every row it sees, null or not: spec.md's count
// aggregate counts rows, not non-null values.
type countAcc struct{ n int64 }

func (a *countAcc) Update(value.Value) { a.n++ }
func (a *countAcc) Result() value.Value { return value.NumberFromInt(a.n) }

// sumAcc treats a null argument as zero, per spec.md's arithmetic-aggregate
// null rule.
type sumAcc struct{ sum decimal.Decimal }

func (a *sumAcc) Update(v value.Value) {
	if v.Null {
		return
	}
	a.sum = a.sum.Add(v.AsNumber())
}
func (a *sumAcc) Result() value.Value { return value.NumberValue(a.sum) }

// avgAcc divides a null-as-zero sum by the total row count seen (including
// rows with a null argument), matching sumAcc's null treatment.
type avgAcc struct {
	sum decimal.Decimal
	n   int64
}

func (a *avgAcc) Update(v value.Value) {
	a.n++
	if v.Null {
		return
	}
	a.sum = a.sum.Add(v.AsNumber())
}
func (a *avgAcc) Result() value.Value {
	if a.n == 0 {
		return value.NullValue(value.Number)
	}
	return value.NumberValue(a.sum.Div(decimal.NewFromInt(a.n)))
}

// minMaxAcc absorbs null operands (min/max(x, null) == x), per spec.md's
// min/max rule, using value.Min/value.Max directly.
type minMaxAcc struct {
	dtype   value.DataType
	wantMax bool
	cur     value.Value
	set     bool
}

func (a *minMaxAcc) Update(v value.Value) {
	if !a.set {
		a.cur = v
		a.set = true
		return
	}
	var err error
	if a.wantMax {
		a.cur, err = value.Max(a.cur, v)
	} else {
		a.cur, err = value.Min(a.cur, v)
	}
	if err != nil {
		panic(err)
	}
}

func (a *minMaxAcc) Result() value.Value {
	if !a.set {
		return value.NullValue(a.dtype)
	}
	return a.cur
}
