package sql

import (
	"fmt"
	"strconv"

	"github.com/tablestream-io/tablestream/src/errkind"
	"github.com/tablestream-io/tablestream/src/plan/logical"
	"github.com/tablestream-io/tablestream/src/value"
)

var (
	errUnexpectedToken = fmt.Errorf("%w: sql: unexpected token", errkind.ErrParse)
	errUnexpectedEOF   = fmt.Errorf("%w: sql: unexpected end of input", errkind.ErrParse)
	errUnknownFunction = fmt.Errorf("%w: sql: unknown function", errkind.ErrParse)
)

// StatementKind distinguishes the three top-level forms execute() accepts,
// matching original_source's Stmt enum (Select / Explain / CopyTo).
type StatementKind uint8

const (
	StmtSelect StatementKind = iota
	StmtExplain
	StmtCopyTo
)

// Statement is the parser's output: a fully lowered logical.Plan plus the
// statement kind (and a destination path for COPY TO).
type Statement struct {
	Kind StatementKind
	Plan logical.Plan
	Path string
}

type parser struct {
	tokens []token
	pos    int
}

// Parse tokenises and parses a single SQL statement against an input
// logical plan (the already-resolved FROM target, produced by loading a
// table). It lowers WHERE, GROUP BY/aggregates, HAVING, ORDER BY,
// projection and LIMIT onto the logical plan in that fixed order.
func Parse(sqlText string, input logical.Plan) (*Statement, error) {
	toks, err := tokenise(sqlText)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: toks}
	return p.parseStatement(input)
}

func (p *parser) cur() token {
	if p.pos >= len(p.tokens) {
		return token{ttype: tokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return token{ttype: tokenEOF}
	}
	return p.tokens[idx]
}

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) expect(tt tokenType) (token, error) {
	if p.cur().ttype != tt {
		if p.cur().ttype == tokenEOF {
			return token{}, fmt.Errorf("%w: expected token %v", errUnexpectedEOF, tt)
		}
		return token{}, fmt.Errorf("%w: %v", errUnexpectedToken, p.cur())
	}
	return p.advance(), nil
}

func (p *parser) parseStatement(input logical.Plan) (*Statement, error) {
	switch p.cur().ttype {
	case tokenExplain:
		p.advance()
		plan, err := p.parseSelect(input)
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtExplain, Plan: plan}, nil
	case tokenCopy:
		p.advance()
		plan, err := p.parseSelect(input)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenTo); err != nil {
			return nil, err
		}
		pathTok, err := p.expect(tokenLiteralString)
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtCopyTo, Plan: plan, Path: string(pathTok.value)}, nil
	default:
		plan, err := p.parseSelect(input)
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: StmtSelect, Plan: plan}, nil
	}
}

type selectItem struct {
	expr  logical.Expr
	alias string
	star  bool
}

// parseSelect implements the SELECT grammar and the clause-lowering order:
// WHERE -> GROUP BY/aggregate extraction -> HAVING -> ORDER BY -> projection
// -> LIMIT. This mirrors original_source's sql/parser.rs create_df, with
// the aggregate rewrite (logical.ExtractAggregates / RewriteAggregateRefs)
// applied to the select list, HAVING predicate and ORDER BY keys alike.
func (p *parser) parseSelect(input logical.Plan) (logical.Plan, error) {
	if _, err := p.expect(tokenSelect); err != nil {
		return nil, err
	}
	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokenFrom); err != nil {
		return nil, err
	}
	// the table name itself was already resolved by the caller into `input`;
	// we only need to consume the identifier token(s) here.
	if p.cur().ttype == tokenIdentifier || p.cur().ttype == tokenIdentifierQuoted {
		p.advance()
	}

	plan := input

	var whereExpr logical.Expr
	if p.cur().ttype == tokenWhere {
		p.advance()
		whereExpr, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if logical.IsAggregate(whereExpr) {
			return nil, fmt.Errorf("%w: sql: aggregate functions are not allowed in WHERE", errkind.ErrResolution)
		}
	}

	// Projection pushdown: when the query is a plain SELECT [+ WHERE] with
	// no GROUP BY/HAVING/ORDER BY to widen the column set later, narrow the
	// Scan to exactly the columns the select list and WHERE predicate
	// reference before resolving anything against it. Skipped for `SELECT
	// *` (needs every column) and whenever a later clause might reference
	// columns outside the select list.
	if scan, ok := plan.(*logical.Scan); ok && len(scan.Projection) == 0 {
		noStar := true
		for _, it := range items {
			if it.star {
				noStar = false
				break
			}
		}
		widensLater := p.cur().ttype == tokenGroup || p.cur().ttype == tokenHaving || p.cur().ttype == tokenOrder
		if noStar && !widensLater {
			exprs := make([]logical.Expr, 0, len(items)+1)
			for _, it := range items {
				exprs = append(exprs, it.expr)
			}
			if whereExpr != nil {
				exprs = append(exprs, whereExpr)
			}
			if names := logical.ColumnNames(exprs...); len(names) > 0 {
				plan = logical.NewScanWithProjection(scan.Source, scan.Path, names)
			}
		}
	}

	if whereExpr != nil {
		plan, err = logical.NewFilter(plan, whereExpr)
		if err != nil {
			return nil, err
		}
	}

	var groupBy []logical.Expr
	if p.cur().ttype == tokenGroup {
		p.advance()
		if _, err := p.expect(tokenBy); err != nil {
			return nil, err
		}
		groupBy, err = p.parseExprList()
		if err != nil {
			return nil, err
		}
	}

	var havingExpr logical.Expr
	if p.cur().ttype == tokenHaving {
		p.advance()
		havingExpr, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}

	var orderKeys []logical.SortKey
	var orderExprsRaw []logical.Expr
	type rawOrder struct {
		expr       logical.Expr
		descending bool
		nullsFirst bool
	}
	var rawOrders []rawOrder
	if p.cur().ttype == tokenOrder {
		p.advance()
		if _, err := p.expect(tokenBy); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			descending := false
			if p.cur().ttype == tokenAsc {
				p.advance()
			} else if p.cur().ttype == tokenDesc {
				descending = true
				p.advance()
			}
			nullsFirst := !descending
			if p.cur().ttype == tokenNulls {
				p.advance()
				if p.cur().ttype == tokenFirst {
					nullsFirst = true
					p.advance()
				} else if p.cur().ttype == tokenLast {
					nullsFirst = false
					p.advance()
				} else {
					return nil, fmt.Errorf("%w: expected FIRST or LAST after NULLS", errUnexpectedToken)
				}
			}
			rawOrders = append(rawOrders, rawOrder{expr: e, descending: descending, nullsFirst: nullsFirst})
			orderExprsRaw = append(orderExprsRaw, e)
			if p.cur().ttype == tokenComma {
				p.advance()
				continue
			}
			break
		}
	}

	var limit *int
	if p.cur().ttype == tokenLimit {
		p.advance()
		tok, err := p.expect(tokenLiteralInt)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(string(tok.value))
		if err != nil {
			return nil, fmt.Errorf("%w: sql: invalid LIMIT value: %s", errkind.ErrParse, err)
		}
		limit = &n
	}

	// Expand a bare `*` select item against the plan's current schema now
	// that WHERE has been applied (WHERE never changes the schema).
	projExprs := make([]logical.Expr, 0, len(items))
	for _, it := range items {
		if it.star {
			for _, f := range plan.Schema().Fields {
				projExprs = append(projExprs, logical.Column{Name: f.Name})
			}
			continue
		}
		if it.alias != "" {
			projExprs = append(projExprs, logical.AliasExpr{Inner: it.expr, Alias: it.alias})
		} else {
			projExprs = append(projExprs, it.expr)
		}
	}

	needsAggregate := len(groupBy) > 0
	if !needsAggregate {
		for _, e := range projExprs {
			if logical.IsAggregate(e) {
				needsAggregate = true
				break
			}
		}
	}
	if !needsAggregate && havingExpr != nil {
		needsAggregate = true
	}

	if needsAggregate {
		extractFrom := append(append([]logical.Expr{}, projExprs...), orderExprsRaw...)
		if havingExpr != nil {
			extractFrom = append(extractFrom, havingExpr)
		}
		aggs := logical.ExtractAggregates(extractFrom...)

		plan, err = logical.NewAggregate(plan, groupBy, aggs)
		if err != nil {
			return nil, err
		}

		for i, e := range projExprs {
			projExprs[i] = logical.RewriteAggregateRefs(e, len(groupBy), aggs)
		}
		if havingExpr != nil {
			havingExpr = logical.RewriteAggregateRefs(havingExpr, len(groupBy), aggs)
		}
		for i := range rawOrders {
			rawOrders[i].expr = logical.RewriteAggregateRefs(rawOrders[i].expr, len(groupBy), aggs)
		}
	}

	if havingExpr != nil {
		plan, err = logical.NewFilter(plan, havingExpr)
		if err != nil {
			return nil, err
		}
	}

	if len(rawOrders) > 0 {
		orderKeys = make([]logical.SortKey, len(rawOrders))
		for i, o := range rawOrders {
			orderKeys[i] = logical.SortKey{Expr: o.expr, Descending: o.descending, NullsFirst: o.nullsFirst}
		}
		plan, err = logical.NewSort(plan, orderKeys)
		if err != nil {
			return nil, err
		}
	}

	plan, err = logical.NewProjection(plan, projExprs)
	if err != nil {
		return nil, err
	}

	if limit != nil {
		plan, err = logical.NewLimit(plan, *limit)
		if err != nil {
			return nil, err
		}
	}

	return plan, nil
}

func (p *parser) parseSelectList() ([]selectItem, error) {
	var items []selectItem
	for {
		if p.cur().ttype == tokenMul {
			p.advance()
			items = append(items, selectItem{star: true})
		} else {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			item := selectItem{expr: e}
			if p.cur().ttype == tokenAs {
				p.advance()
				name, err := p.parseIdentName()
				if err != nil {
					return nil, err
				}
				item.alias = name
			}
			items = append(items, item)
		}
		if p.cur().ttype == tokenComma {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *parser) parseExprList() ([]logical.Expr, error) {
	var exprs []logical.Expr
	for {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.cur().ttype == tokenComma {
			p.advance()
			continue
		}
		break
	}
	return exprs, nil
}

func (p *parser) parseIdentName() (string, error) {
	t := p.cur()
	if t.ttype != tokenIdentifier && t.ttype != tokenIdentifierQuoted {
		return "", fmt.Errorf("%w: expected identifier, got %v", errUnexpectedToken, t)
	}
	p.advance()
	return string(t.value), nil
}

// operator precedence, low to high: OR, AND, comparison/IS/IN, additive,
// multiplicative. Unary minus binds at the primary level; NOT parses its
// operand at comparison level, so it binds tighter than AND/OR and looser
// than comparisons.
var precedence = map[tokenType]int{
	tokenOr:  1,
	tokenAnd: 2,
	tokenEq:  3,
	tokenNeq: 3,
	tokenLt:  3,
	tokenLte: 3,
	tokenGt:  3,
	tokenGte: 3,
	tokenAdd: 4,
	tokenSub: 4,
	tokenMul: 5,
	tokenQuo: 5,
	tokenMod: 5,
}

// isNotPrec is the precedence level IS/IS NOT/IN/NOT IN bind at; handled
// outside the generic binOpFor table since they aren't simple BinaryExpr
// operators.
const isNotPrec = 3

func binOpFor(tt tokenType) logical.BinaryOp {
	switch tt {
	case tokenAnd:
		return logical.OpAnd
	case tokenOr:
		return logical.OpOr
	case tokenEq:
		return logical.OpEq
	case tokenNeq:
		return logical.OpNeq
	case tokenLt:
		return logical.OpLt
	case tokenLte:
		return logical.OpLte
	case tokenGt:
		return logical.OpGt
	case tokenGte:
		return logical.OpGte
	case tokenAdd:
		return logical.OpAdd
	case tokenSub:
		return logical.OpSub
	case tokenMul:
		return logical.OpMul
	case tokenQuo:
		return logical.OpDiv
	case tokenMod:
		return logical.OpMod
	default:
		panic(fmt.Sprintf("sql: no binary operator for token %v", tt))
	}
}

// parseExpr implements precedence-climbing (a generalisation of Pratt
// parsing restricted to left-associative binary operators, which is all
// this grammar needs).
func (p *parser) parseExpr(minPrec int) (logical.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.cur().ttype

		if tt == tokenIs {
			if isNotPrec < minPrec {
				break
			}
			p.advance()
			negate := false
			if p.cur().ttype == tokenNot {
				negate = true
				p.advance()
			}
			if _, err := p.expect(tokenNull); err != nil {
				return nil, err
			}
			left = logical.IsNullExpr{Inner: left, Negate: negate}
			continue
		}

		if tt == tokenIn || (tt == tokenNot && p.peekAt(1).ttype == tokenIn) {
			if isNotPrec < minPrec {
				break
			}
			negate := false
			if tt == tokenNot {
				negate = true
				p.advance() // NOT
			}
			p.advance() // IN
			list, err := p.parseInList()
			if err != nil {
				return nil, err
			}
			left = logical.InExpr{Inner: left, List: list, Negate: negate}
			continue
		}

		prec, ok := precedence[tt]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = logical.BinaryExpr{Op: binOpFor(tt), Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseInList() ([]logical.Expr, error) {
	if _, err := p.expect(tokenLparen); err != nil {
		return nil, err
	}
	var list []logical.Expr
	for {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if p.cur().ttype == tokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokenRparen); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *parser) parseUnary() (logical.Expr, error) {
	if p.cur().ttype == tokenNot {
		p.advance()
		inner, err := p.parseExpr(isNotPrec) // binds tighter than AND/OR, looser than comparisons
		if err != nil {
			return nil, err
		}
		return logical.UnaryExpr{Inner: inner}, nil
	}
	if p.cur().ttype == tokenSub {
		p.advance()
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return logical.BinaryExpr{Op: logical.OpSub, Left: logical.Literal{Value: value.NumberFromInt(0)}, Right: inner}, nil
	}
	return p.parsePrimary()
}

var aggregateFuncs = map[string]logical.AggregateFunc{
	"count": logical.AggCount,
	"sum":   logical.AggSum,
	"avg":   logical.AggAvg,
	"min":   logical.AggMin,
	"max":   logical.AggMax,
}

func (p *parser) parsePrimary() (logical.Expr, error) {
	t := p.cur()
	switch t.ttype {
	case tokenLparen:
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRparen); err != nil {
			return nil, err
		}
		return e, nil
	case tokenLiteralInt, tokenLiteralFloat:
		p.advance()
		d, err := value.ParseNumber(string(t.value))
		if err != nil {
			return nil, err
		}
		return logical.Literal{Value: value.NumberValue(d)}, nil
	case tokenLiteralString:
		p.advance()
		return logical.Literal{Value: probeStringLiteral(string(t.value))}, nil
	case tokenTrue:
		p.advance()
		return logical.Literal{Value: value.BoolValue(true)}, nil
	case tokenFalse:
		p.advance()
		return logical.Literal{Value: value.BoolValue(false)}, nil
	case tokenNull:
		p.advance()
		return logical.Literal{Value: value.NullValue(value.Text)}, nil
	case tokenIdentifier, tokenIdentifierQuoted:
		name := string(t.value)
		p.advance()
		if p.cur().ttype == tokenLparen {
			return p.parseFunctionCall(name)
		}
		return logical.Column{Name: name}, nil
	default:
		return nil, fmt.Errorf("%w: %v", errUnexpectedToken, t)
	}
}

// probeStringLiteral infers the type of a quoted SQL literal by trying
// Date, then Number, then Boolean in order, falling back to Text — the
// tokenizer hands every quoted literal through as a bare string, so a
// clause like `WHERE d = '2023-06-06'` only type-checks against a Date
// column if the literal is recognised as one here rather than defaulting
// straight to Text.
func probeStringLiteral(s string) value.Value {
	if v, err := value.ParseValue(value.Date, s); err == nil {
		return v
	}
	if v, err := value.ParseValue(value.Number, s); err == nil {
		return v
	}
	if v, err := value.ParseValue(value.Boolean, s); err == nil {
		return v
	}
	return value.TextValue(s)
}

func (p *parser) parseFunctionCall(name string) (logical.Expr, error) {
	if _, err := p.expect(tokenLparen); err != nil {
		return nil, err
	}
	fn, ok := aggregateFuncs[lowerASCII(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownFunction, name)
	}
	if fn == logical.AggCount && p.cur().ttype == tokenMul {
		p.advance()
		if _, err := p.expect(tokenRparen); err != nil {
			return nil, err
		}
		return logical.AggregateExpr{Func: logical.AggCount}, nil
	}
	arg, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRparen); err != nil {
		return nil, err
	}
	return logical.AggregateExpr{Func: fn, Arg: arg}, nil
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
