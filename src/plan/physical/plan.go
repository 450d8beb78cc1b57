package physical

import (
	"io"

	"github.com/tablestream-io/tablestream/src/column"
	"github.com/tablestream-io/tablestream/src/table"
	"github.com/tablestream-io/tablestream/src/value"
)

// Plan is a node in the physical plan: a pull-based, single-logical-thread
// iterator over record batches. Calling Next repeatedly drives execution;
// there is no separate "run" step and no background goroutine per
// operator, matching spec.md's lazily-sequenced streaming execution model.
// Next returns (nil, io.EOF) once exhausted.
type Plan interface {
	Schema() column.Schema
	Next() (*column.RecordBatch, error)
}

// ScanExec pulls batches directly from a table.Source, unchanged.
type ScanExec struct {
	source table.Source
}

func NewScanExec(source table.Source) *ScanExec { return &ScanExec{source: source} }

func (s *ScanExec) Schema() column.Schema              { return s.source.Schema() }
func (s *ScanExec) Next() (*column.RecordBatch, error) { return s.source.Next() }

// ProjectionExec evaluates a fixed list of expressions over each input
// batch, a pure per-batch transducer: it never buffers more than one batch.
type ProjectionExec struct {
	input  Plan
	exprs  []Expr
	schema column.Schema
}

func NewProjectionExec(input Plan, exprs []Expr, schema column.Schema) *ProjectionExec {
	return &ProjectionExec{input: input, exprs: exprs, schema: schema}
}

func (p *ProjectionExec) Schema() column.Schema { return p.schema }

func (p *ProjectionExec) Next() (*column.RecordBatch, error) {
	batch, err := p.input.Next()
	if err != nil {
		return nil, err
	}
	cols := make([]column.Vector, len(p.exprs))
	for i, e := range p.exprs {
		v, err := e.Evaluate(batch)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}
	return column.NewRecordBatch(p.schema, cols)
}

// FilterExec keeps only rows where predicate evaluates true, skipping
// batches that filter down to zero rows rather than emitting empty
// batches, since an empty batch would trip RecordBatch's zero-column-count
// row accounting for schemas with no columns.
type FilterExec struct {
	input     Plan
	predicate Expr
	schema    column.Schema
}

func NewFilterExec(input Plan, predicate Expr) *FilterExec {
	return &FilterExec{input: input, predicate: predicate, schema: input.Schema()}
}

func (f *FilterExec) Schema() column.Schema { return f.schema }

func (f *FilterExec) Next() (*column.RecordBatch, error) {
	for {
		batch, err := f.input.Next()
		if err != nil {
			return nil, err
		}
		mask, err := f.predicate.Evaluate(batch)
		if err != nil {
			return nil, err
		}
		keep := bitmapFromBoolVector(mask)
		if keep.Count() == 0 {
			continue
		}
		cols := make([]column.Vector, len(batch.Columns))
		for i, c := range batch.Columns {
			cols[i] = c.Prune(keep)
		}
		return column.NewRecordBatch(f.schema, cols)
	}
}

// LimitExec caps total output rows at N across the whole stream, trimming
// the final batch as needed and then reporting io.EOF on every subsequent
// call.
type LimitExec struct {
	input   Plan
	n       int
	emitted int
	done    bool
}

func NewLimitExec(input Plan, n int) *LimitExec {
	return &LimitExec{input: input, n: n}
}

func (l *LimitExec) Schema() column.Schema { return l.input.Schema() }

func (l *LimitExec) Next() (*column.RecordBatch, error) {
	if l.n == 0 {
		if l.done {
			return nil, io.EOF
		}
		l.done = true
		schema := l.input.Schema()
		cols := make([]column.Vector, len(schema.Fields))
		for i, f := range schema.Fields {
			cols[i] = column.NewDenseVector(f.Type, nil)
		}
		return column.NewRecordBatch(schema, cols)
	}
	if l.done || l.emitted >= l.n {
		return nil, io.EOF
	}
	batch, err := l.input.Next()
	if err != nil {
		return nil, err
	}
	remaining := l.n - l.emitted
	if batch.RowCount() <= remaining {
		l.emitted += batch.RowCount()
		return batch, nil
	}
	l.done = true
	l.emitted = l.n
	keep := newKeepFirstN(batch.RowCount(), remaining)
	cols := make([]column.Vector, len(batch.Columns))
	for i, c := range batch.Columns {
		cols[i] = c.Prune(keep)
	}
	return column.NewRecordBatch(l.input.Schema(), cols)
}

// SortExec is a blocking operator: its first Next() call drains the entire
// input, sorts it in memory, and buffers the result; subsequent calls
// drain that buffer one batch at a time. Unlike Scan/Projection/Filter/
// Limit it cannot start emitting before it has seen every input row.
type sortRow struct {
	data []value.Value
	keys []value.Value
}

type SortExec struct {
	input    Plan
	keys     []SortKey
	rows     []sortRow
	schema   column.Schema
	prepared bool
	cursor   int
}

// SortKey pairs a physical expression with ordering direction and null
// placement, the compiled form of logical.SortKey.
type SortKey struct {
	Expr       Expr
	Descending bool
	NullsFirst bool
}

func NewSortExec(input Plan, keys []SortKey) *SortExec {
	return &SortExec{input: input, keys: keys, schema: input.Schema()}
}

func (s *SortExec) Schema() column.Schema { return s.schema }

const sortOutputBatchSize = 4096

func (s *SortExec) Next() (*column.RecordBatch, error) {
	if !s.prepared {
		if err := s.prepare(); err != nil {
			return nil, err
		}
		s.prepared = true
	}
	if s.cursor >= len(s.rows) {
		return nil, io.EOF
	}
	end := s.cursor + sortOutputBatchSize
	if end > len(s.rows) {
		end = len(s.rows)
	}
	chunk := s.rows[s.cursor:end]
	s.cursor = end

	ncols := len(s.schema.Fields)
	cols := make([][]value.Value, ncols)
	for _, row := range chunk {
		for i := 0; i < ncols; i++ {
			cols[i] = append(cols[i], row.data[i])
		}
	}
	vectors := make([]column.Vector, ncols)
	for i, dt := range schemaDtypes(s.schema) {
		vectors[i] = column.NewDenseVector(dt, cols[i])
	}
	return column.NewRecordBatch(s.schema, vectors)
}

func (s *SortExec) prepare() error {
	for {
		batch, err := s.input.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		keyVecs := make([]column.Vector, len(s.keys))
		for i, k := range s.keys {
			v, err := k.Expr.Evaluate(batch)
			if err != nil {
				return err
			}
			keyVecs[i] = v
		}
		for r := 0; r < batch.RowCount(); r++ {
			data := make([]value.Value, len(batch.Columns))
			for c := range batch.Columns {
				data[c] = batch.Columns[c].Get(r)
			}
			keys := make([]value.Value, len(s.keys))
			for i := range s.keys {
				keys[i] = keyVecs[i].Get(r)
			}
			s.rows = append(s.rows, sortRow{data: data, keys: keys})
		}
	}
	sortRowsInPlace(s.rows, s.keys)
	return nil
}

// HashAggregateExec is a blocking operator: its first Next() call drains
// the entire input, groups rows by the group-by key tuple, and folds each
// group's aggregate arguments through per-group accumulators, then returns
// the whole result as a single batch; the call after that reports io.EOF.
type HashAggregateExec struct {
	input      Plan
	groupBy    []Expr
	aggregates []aggregateSpec
	schema     column.Schema
	prepared   bool
	result     *column.RecordBatch
	emitted    bool
}

// aggregateSpec binds a compiled aggregate function name and argument
// expression (nil argument means count(*)).
type aggregateSpec struct {
	Func string
	Arg  Expr // nil for count(*)
}

func NewHashAggregateExec(input Plan, groupBy []Expr, aggregates []aggregateSpec, schema column.Schema) *HashAggregateExec {
	return &HashAggregateExec{input: input, groupBy: groupBy, aggregates: aggregates, schema: schema}
}

func (h *HashAggregateExec) Schema() column.Schema { return h.schema }

func (h *HashAggregateExec) Next() (*column.RecordBatch, error) {
	if !h.prepared {
		if err := h.run(); err != nil {
			return nil, err
		}
		h.prepared = true
	}
	if h.emitted {
		return nil, io.EOF
	}
	h.emitted = true
	return h.result, nil
}

type groupState struct {
	key  []value.Value
	accs []accumulator
}

func (h *HashAggregateExec) run() error {
	groups := make(map[string]*groupState)
	var order []string

	for {
		batch, err := h.input.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		groupVecs := make([]column.Vector, len(h.groupBy))
		for i, g := range h.groupBy {
			v, err := g.Evaluate(batch)
			if err != nil {
				return err
			}
			groupVecs[i] = v
		}
		argVecs := make([]column.Vector, len(h.aggregates))
		for i, a := range h.aggregates {
			if a.Arg == nil {
				continue
			}
			v, err := a.Arg.Evaluate(batch)
			if err != nil {
				return err
			}
			argVecs[i] = v
		}

		for r := 0; r < batch.RowCount(); r++ {
			key := make([]value.Value, len(h.groupBy))
			for i := range h.groupBy {
				key[i] = groupVecs[i].Get(r)
			}
			k := groupKey(key)
			gs, ok := groups[k]
			if !ok {
				gs = &groupState{key: key, accs: make([]accumulator, len(h.aggregates))}
				for i, a := range h.aggregates {
					argType := value.Number
					if argVecs[i] != nil {
						argType = argVecs[i].Type()
					}
					gs.accs[i] = newAccumulator(a.Func, argType)
				}
				groups[k] = gs
				order = append(order, k)
			}
			for i, a := range h.aggregates {
				if a.Func == "count" && a.Arg == nil {
					gs.accs[i].Update(value.Value{})
					continue
				}
				gs.accs[i].Update(argVecs[i].Get(r))
			}
		}
	}

	ncols := len(h.groupBy) + len(h.aggregates)
	cols := make([][]value.Value, ncols)
	for _, k := range order {
		gs := groups[k]
		for i, v := range gs.key {
			cols[i] = append(cols[i], v)
		}
		for i, acc := range gs.accs {
			cols[len(h.groupBy)+i] = append(cols[len(h.groupBy)+i], acc.Result())
		}
	}
	dtypes := schemaDtypes(h.schema)
	vectors := make([]column.Vector, ncols)
	for i := range vectors {
		vectors[i] = column.NewDenseVector(dtypes[i], cols[i])
	}
	rb, err := column.NewRecordBatch(h.schema, vectors)
	if err != nil {
		return err
	}
	h.result = rb
	return nil
}
