// Package value implements the closed scalar type system the query engine
// operates on: a fixed set of data types and a tagged, nullable value that
// carries one of them.
package value

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tablestream-io/tablestream/src/errkind"
)

// DataType enumerates the closed set of scalar types a column may hold.
// The set never grows at runtime; adding a type is a code change, not a
// configuration one.
type DataType uint8

const (
	Invalid DataType = iota
	Text
	Boolean
	Number
	Date
)

func (dt DataType) String() string {
	switch dt {
	case Text:
		return "text"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "invalid"
	}
}

// MarshalJSON renders a DataType as its string name so schemas serialise
// readably.
func (dt DataType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *DataType) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: value: malformed DataType json", errkind.ErrInternal)
	}
	switch string(data[1 : len(data)-1]) {
	case "text":
		*dt = Text
	case "boolean":
		*dt = Boolean
	case "number":
		*dt = Number
	case "date":
		*dt = Date
	default:
		return fmt.Errorf("%w: value: unknown DataType %q", errkind.ErrInternal, data)
	}
	return nil
}

var errTypeMismatch = fmt.Errorf("%w: value: type mismatch", errkind.ErrType)

// Value is a tagged, nullable scalar. The zero Value has the Invalid type
// and is not null; every Value stored in a column is produced by one of the
// constructors below, which always set Type.
type Value struct {
	Type DataType
	Null bool

	text    string
	boolean bool
	number  decimal.Decimal
	date    Day
}

func NullValue(dt DataType) Value { return Value{Type: dt, Null: true} }

func TextValue(s string) Value { return Value{Type: Text, text: s} }

func BoolValue(b bool) Value { return Value{Type: Boolean, boolean: b} }

func NumberValue(d decimal.Decimal) Value { return Value{Type: Number, number: d} }

func NumberFromInt(i int64) Value { return Value{Type: Number, number: decimal.NewFromInt(i)} }

func DateValue(d Day) Value { return Value{Type: Date, date: d} }

func (v Value) AsText() string            { return v.text }
func (v Value) AsBool() bool              { return v.boolean }
func (v Value) AsNumber() decimal.Decimal { return v.number }
func (v Value) AsDate() Day               { return v.date }

// String renders a value the way it would appear in printed output: empty
// for null, the bare representation otherwise.
func (v Value) String() string {
	if v.Null {
		return ""
	}
	switch v.Type {
	case Text:
		return v.text
	case Boolean:
		if v.boolean {
			return "true"
		}
		return "false"
	case Number:
		return v.number.String()
	case Date:
		return v.date.String()
	default:
		return ""
	}
}

// ParseValue parses a raw field string into a typed Value, used both by the
// CSV loader (against an already-inferred DataType) and by SQL literal
// parsing.
func ParseValue(dt DataType, raw string) (Value, error) {
	switch dt {
	case Text:
		return TextValue(raw), nil
	case Boolean:
		switch strings.ToLower(raw) {
		case "true", "t":
			return BoolValue(true), nil
		case "false", "f":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%w: value: %q is not a boolean", errkind.ErrValueParse, raw)
	case Number:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: value: %q is not a number: %s", errkind.ErrValueParse, raw, err)
		}
		return NumberValue(d), nil
	case Date:
		d, err := ParseDay(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: value: %q is not a date: %s", errkind.ErrValueParse, raw, err)
		}
		return DateValue(d), nil
	default:
		return Value{}, fmt.Errorf("%w: value: cannot parse into dtype %v", errkind.ErrInternal, dt)
	}
}

// Eq reports whether two values of the same type are equal. A comparison
// against a null operand is never true, per the engine's three-valued-ish
// but boolean-collapsing comparison semantics (spec's comparison rule:
// any comparison involving Null evaluates to false, never an error).
func Eq(a, b Value) (bool, error) {
	if a.Type != b.Type {
		return false, errTypeMismatch
	}
	if a.Null || b.Null {
		return false, nil
	}
	switch a.Type {
	case Text:
		return a.text == b.text, nil
	case Boolean:
		return a.boolean == b.boolean, nil
	case Number:
		return a.number.Equal(b.number), nil
	case Date:
		return a.date == b.date, nil
	default:
		return false, errTypeMismatch
	}
}

// Compare orders two non-null values of the same comparable type. Boolean
// is not ordered and returns an error: spec.md restricts ordering
// comparisons (<, <=, >, >=, ORDER BY) to Text, Number and Date.
func Compare(a, b Value) (int, error) {
	if a.Type != b.Type {
		return 0, errTypeMismatch
	}
	if a.Null || b.Null {
		// callers that need null-aware ordering use CompareNullable instead.
		return 0, fmt.Errorf("%w: value: cannot order a null value directly", errkind.ErrInternal)
	}
	switch a.Type {
	case Text:
		return strings.Compare(a.text, b.text), nil
	case Number:
		return a.number.Cmp(b.number), nil
	case Date:
		if a.date < b.date {
			return -1, nil
		}
		if a.date > b.date {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: value: dtype %v is not orderable", errkind.ErrType, a.Type)
	}
}

// CompareNullable orders two values of the same type where either may be
// null. Null sorts as the smallest value, matching spec.md's Sort rule.
func CompareNullable(a, b Value) int {
	if a.Null && b.Null {
		return 0
	}
	if a.Null {
		return -1
	}
	if b.Null {
		return 1
	}
	c, err := Compare(a, b)
	if err != nil {
		// unorderable types (Boolean) still need a stable, arbitrary order
		// for ORDER BY edge cases; treat equal values as equal and fall
		// back to a deterministic tiebreak on the bool channel.
		if a.Type == Boolean {
			if a.boolean == b.boolean {
				return 0
			}
			if !a.boolean {
				return -1
			}
			return 1
		}
		return 0
	}
	return c
}

// Add, Sub, Mul, Div implement arithmetic on Number values only. Per
// spec.md, arithmetic with a null operand produces a null Number result
// rather than an error; a dtype mismatch (including any non-Number operand)
// is an error.
func Add(a, b Value) (Value, error) { return arith(a, b, decimal.Decimal.Add) }
func Sub(a, b Value) (Value, error) { return arith(a, b, decimal.Decimal.Sub) }
func Mul(a, b Value) (Value, error) { return arith(a, b, decimal.Decimal.Mul) }

func Div(a, b Value) (Value, error) {
	if a.Type != Number || b.Type != Number {
		return Value{}, errTypeMismatch
	}
	if a.Null || b.Null {
		return NullValue(Number), nil
	}
	if b.number.IsZero() {
		return Value{}, fmt.Errorf("%w: value: division by zero", errkind.ErrType)
	}
	return NumberValue(a.number.Div(b.number)), nil
}

func Mod(a, b Value) (Value, error) {
	if a.Type != Number || b.Type != Number {
		return Value{}, errTypeMismatch
	}
	if a.Null || b.Null {
		return NullValue(Number), nil
	}
	if b.number.IsZero() {
		return Value{}, fmt.Errorf("%w: value: modulo by zero", errkind.ErrType)
	}
	return NumberValue(a.number.Mod(b.number)), nil
}

func arith(a, b Value, f func(decimal.Decimal, decimal.Decimal) decimal.Decimal) (Value, error) {
	if a.Type != Number || b.Type != Number {
		return Value{}, errTypeMismatch
	}
	if a.Null || b.Null {
		return NullValue(Number), nil
	}
	return NumberValue(f(a.number, b.number)), nil
}

// And, Or, Not implement three-valued-collapsing boolean logic restricted
// to Boolean operands. A null operand yields a null Boolean, except where
// short-circuiting still determines the result (false AND null = false,
// true OR null = true), mirroring standard SQL tri-valued logic.
func And(a, b Value) (Value, error) {
	if a.Type != Boolean || b.Type != Boolean {
		return Value{}, errTypeMismatch
	}
	if !a.Null && !a.boolean {
		return BoolValue(false), nil
	}
	if !b.Null && !b.boolean {
		return BoolValue(false), nil
	}
	if a.Null || b.Null {
		return NullValue(Boolean), nil
	}
	return BoolValue(true), nil
}

func Or(a, b Value) (Value, error) {
	if a.Type != Boolean || b.Type != Boolean {
		return Value{}, errTypeMismatch
	}
	if !a.Null && a.boolean {
		return BoolValue(true), nil
	}
	if !b.Null && b.boolean {
		return BoolValue(true), nil
	}
	if a.Null || b.Null {
		return NullValue(Boolean), nil
	}
	return BoolValue(false), nil
}

func Not(a Value) (Value, error) {
	if a.Type != Boolean {
		return Value{}, errTypeMismatch
	}
	if a.Null {
		return NullValue(Boolean), nil
	}
	return BoolValue(!a.boolean), nil
}

// Min and Max pick the smaller/larger of two values of the same type,
// absorbing Null: per spec.md, min/max treat a Null operand as absent
// rather than as the smallest/largest value, so min(x, null) == x.
func Min(a, b Value) (Value, error) {
	if a.Type != b.Type {
		return Value{}, errTypeMismatch
	}
	if a.Null {
		return b, nil
	}
	if b.Null {
		return a, nil
	}
	c, err := Compare(a, b)
	if err != nil {
		return Value{}, err
	}
	if c <= 0 {
		return a, nil
	}
	return b, nil
}

func Max(a, b Value) (Value, error) {
	if a.Type != b.Type {
		return Value{}, errTypeMismatch
	}
	if a.Null {
		return b, nil
	}
	if b.Null {
		return a, nil
	}
	c, err := Compare(a, b)
	if err != nil {
		return Value{}, err
	}
	if c >= 0 {
		return a, nil
	}
	return b, nil
}

// ParseNumber is a thin convenience wrapper kept for call sites that only
// ever see Number, e.g. the parser's numeric-literal path.
func ParseNumber(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(raw)
}
