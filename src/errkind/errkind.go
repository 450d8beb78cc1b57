// Package errkind defines the small set of error-kind sentinels the rest
// of the engine wraps its own errors around with fmt.Errorf("%w: ...", ...),
// so a caller can classify a failure with errors.Is/errors.As instead of
// matching on message text, in the teacher's own style of a single
// exported sentinel per failure mode (src/column/date.go's errInvalidDate,
// src/query/expr/expression.go's errTypeMismatch) generalised to a shared
// taxonomy every package participates in.
package errkind

import "errors"

var (
	// ErrParse marks a SQL statement the tokeniser or parser could not
	// make sense of: bad syntax, an unsupported clause or operator.
	ErrParse = errors.New("parse error")
	// ErrResolution marks a logical plan that doesn't type-check against
	// its input schema: an unknown column, a type mismatch inside an
	// expression, an aggregate where one isn't allowed, a non-column sort
	// key.
	ErrResolution = errors.New("resolution error")
	// ErrType marks a runtime operator/operand mismatch or an arithmetic
	// fault such as divide-by-zero, discovered while evaluating a batch
	// rather than while planning it.
	ErrType = errors.New("type error")
	// ErrIO marks a failure opening, reading, or writing a file or a
	// remote object.
	ErrIO = errors.New("io error")
	// ErrCSV marks malformed delimited input: a row the csv.Reader itself
	// rejects.
	ErrCSV = errors.New("csv error")
	// ErrValueParse marks a single field's text that doesn't parse as its
	// column's inferred type (or as a SQL literal's probed type).
	ErrValueParse = errors.New("value parse error")
	// ErrInternal marks an invariant violation: a code path the rest of
	// the engine's own validation should have made unreachable.
	ErrInternal = errors.New("internal error")
)
