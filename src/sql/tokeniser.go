// Package sql implements the SQL front end: a hand-rolled tokeniser, a
// precedence-climbing expression parser, and a SELECT-clause binder that
// lowers parsed clauses onto the logical plan's Dataframe-style builder
// calls.
package sql

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/tablestream-io/tablestream/src/errkind"
)

var (
	errUnknownToken      = fmt.Errorf("%w: sql: unknown token", errkind.ErrParse)
	errInvalidInteger    = fmt.Errorf("%w: sql: invalid integer literal", errkind.ErrParse)
	errInvalidFloat      = fmt.Errorf("%w: sql: invalid floating point literal", errkind.ErrParse)
	errInvalidString     = fmt.Errorf("%w: sql: invalid string literal", errkind.ErrParse)
	errInvalidIdentifier = fmt.Errorf("%w: sql: invalid identifier", errkind.ErrParse)
)

type tokenType uint8

const (
	tokenInvalid tokenType = iota
	tokenIdentifier
	tokenIdentifierQuoted
	// keywords
	tokenSelect
	tokenFrom
	tokenWhere
	tokenGroup
	tokenHaving
	tokenBy
	tokenOrder
	tokenAsc
	tokenDesc
	tokenNulls
	tokenFirst
	tokenLast
	tokenLimit
	tokenAnd
	tokenOr
	tokenNot
	tokenAs
	tokenTrue
	tokenFalse
	tokenNull
	tokenIn
	tokenIs
	tokenExplain
	tokenCopy
	tokenTo
	// operators and punctuation
	tokenAdd
	tokenSub
	tokenMul
	tokenQuo
	tokenMod
	tokenEq
	tokenNeq
	tokenGt
	tokenLt
	tokenGte
	tokenLte
	tokenLparen
	tokenRparen
	tokenComma
	tokenStar
	tokenLiteralInt
	tokenLiteralFloat
	tokenLiteralString
	tokenEOF
)

var keywords = map[string]tokenType{
	"select":  tokenSelect,
	"from":    tokenFrom,
	"where":   tokenWhere,
	"group":   tokenGroup,
	"having":  tokenHaving,
	"by":      tokenBy,
	"order":   tokenOrder,
	"asc":     tokenAsc,
	"desc":    tokenDesc,
	"nulls":   tokenNulls,
	"first":   tokenFirst,
	"last":    tokenLast,
	"limit":   tokenLimit,
	"and":     tokenAnd,
	"or":      tokenOr,
	"not":     tokenNot,
	"as":      tokenAs,
	"true":    tokenTrue,
	"false":   tokenFalse,
	"null":    tokenNull,
	"in":      tokenIn,
	"is":      tokenIs,
	"explain": tokenExplain,
	"copy":    tokenCopy,
	"to":      tokenTo,
}

type token struct {
	ttype tokenType
	value []byte
}

func (t token) String() string {
	if t.value != nil {
		return string(t.value)
	}
	for kw, tt := range keywords {
		if tt == t.ttype {
			return strings.ToUpper(kw)
		}
	}
	switch t.ttype {
	case tokenAdd:
		return "+"
	case tokenSub:
		return "-"
	case tokenMul, tokenStar:
		return "*"
	case tokenQuo:
		return "/"
	case tokenEq:
		return "="
	case tokenNeq:
		return "!="
	case tokenGt:
		return ">"
	case tokenLt:
		return "<"
	case tokenGte:
		return ">="
	case tokenLte:
		return "<="
	case tokenLparen:
		return "("
	case tokenRparen:
		return ")"
	case tokenComma:
		return ","
	case tokenEOF:
		return "EOF"
	default:
		return "?"
	}
}

type tokenScanner struct {
	code     []byte
	position int
}

func newTokenScanner(s string) *tokenScanner {
	return &tokenScanner{code: []byte(s)}
}

func tokenise(s string) ([]token, error) {
	ts := newTokenScanner(s)
	var tokens []token
	for {
		tok, err := ts.scan()
		if err != nil {
			return nil, err
		}
		if tok.ttype == tokenEOF {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func (ts *tokenScanner) peek(n int) []byte {
	end := ts.position + n
	if end > len(ts.code) {
		end = len(ts.code)
	}
	ret := make([]byte, n)
	copy(ret, ts.code[ts.position:end])
	return ret
}

func (ts *tokenScanner) peekOne() byte {
	if ts.position >= len(ts.code) {
		return 0
	}
	return ts.code[ts.position]
}

func (ts *tokenScanner) scan() (token, error) {
	if ts.position >= len(ts.code) {
		return token{ttype: tokenEOF}, nil
	}
	char := ts.code[ts.position]
	switch char {
	case ' ', '\t', '\n', '\r':
		ts.position++
		return ts.scan()
	case ',':
		ts.position++
		return token{ttype: tokenComma}, nil
	case '+':
		ts.position++
		return token{ttype: tokenAdd}, nil
	case '-':
		if bytes.Equal(ts.peek(2), []byte("--")) {
			nl := bytes.IndexByte(ts.code[ts.position:], '\n')
			if nl == -1 {
				ts.position = len(ts.code)
			} else {
				ts.position += nl
			}
			return ts.scan()
		}
		ts.position++
		return token{ttype: tokenSub}, nil
	case '*':
		ts.position++
		return token{ttype: tokenMul}, nil
	case '/':
		ts.position++
		return token{ttype: tokenQuo}, nil
	case '%':
		ts.position++
		return token{ttype: tokenMod}, nil
	case '=':
		ts.position++
		return token{ttype: tokenEq}, nil
	case '(':
		ts.position++
		return token{ttype: tokenLparen}, nil
	case ')':
		ts.position++
		return token{ttype: tokenRparen}, nil
	case '>':
		if bytes.Equal(ts.peek(2), []byte(">=")) {
			ts.position += 2
			return token{ttype: tokenGte}, nil
		}
		ts.position++
		return token{ttype: tokenGt}, nil
	case '<':
		if bytes.Equal(ts.peek(2), []byte("<=")) {
			ts.position += 2
			return token{ttype: tokenLte}, nil
		}
		if bytes.Equal(ts.peek(2), []byte("<>")) {
			ts.position += 2
			return token{ttype: tokenNeq}, nil
		}
		ts.position++
		return token{ttype: tokenLt}, nil
	case '!':
		if bytes.Equal(ts.peek(2), []byte("!=")) {
			ts.position += 2
			return token{ttype: tokenNeq}, nil
		}
		ts.position++
		return token{}, errUnknownToken
	case '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return ts.consumeNumber()
	case '\'':
		return ts.consumeStringLiteral()
	default:
		ident, err := ts.consumeIdentifier()
		if err != nil {
			return token{}, err
		}
		if ident.ttype == tokenIdentifier {
			if kw, ok := keywords[strings.ToLower(string(ident.value))]; ok {
				return token{ttype: kw}, nil
			}
		}
		return ident, nil
	}
}

func (ts *tokenScanner) consumeNumber() (token, error) {
	var seenDot, seenExp bool
	start := ts.position
	if ts.code[ts.position] == '.' {
		seenDot = true
	}
	ts.position++
	ts.skipDigits()

scan:
	for {
		switch ts.peekOne() {
		case '.':
			if seenDot {
				break scan
			}
			seenDot = true
			ts.position++
			ts.skipDigits()
		case 'e', 'E':
			if seenExp {
				break scan
			}
			seenExp = true
			ts.position++
			if ts.peekOne() == '-' || ts.peekOne() == '+' {
				ts.position++
			}
			ts.skipDigits()
			break scan
		default:
			break scan
		}
	}

	val := ts.code[start:ts.position]
	if seenDot || seenExp {
		if _, err := strconv.ParseFloat(string(val), 64); err != nil {
			return token{}, fmt.Errorf("%w: %s", errInvalidFloat, val)
		}
		return token{ttype: tokenLiteralFloat, value: val}, nil
	}
	if _, err := strconv.ParseInt(string(val), 10, 64); err != nil {
		return token{}, fmt.Errorf("%w: %s", errInvalidInteger, val)
	}
	return token{ttype: tokenLiteralInt, value: val}, nil
}

func (ts *tokenScanner) skipDigits() {
	for ts.position < len(ts.code) && ts.code[ts.position] >= '0' && ts.code[ts.position] <= '9' {
		ts.position++
	}
}

func isIdentChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func (ts *tokenScanner) consumeIdentifier() (token, error) {
	if ts.peekOne() == '"' {
		ts.position++
		start := ts.position
		end := bytes.IndexByte(ts.code[ts.position:], '"')
		if end == -1 {
			return token{}, fmt.Errorf("%w: unterminated quoted identifier", errInvalidIdentifier)
		}
		if end == 0 {
			return token{}, fmt.Errorf("%w: empty quoted identifier", errInvalidIdentifier)
		}
		ts.position += end + 1
		return token{ttype: tokenIdentifierQuoted, value: ts.code[start : start+end]}, nil
	}

	start := ts.position
	for ts.position < len(ts.code) && isIdentChar(ts.code[ts.position]) {
		ts.position++
	}
	if ts.position == start {
		ts.position++
		return token{}, fmt.Errorf("%w: unexpected character %q", errInvalidIdentifier, string(rune(ts.code[start])))
	}
	return token{ttype: tokenIdentifier, value: ts.code[start:ts.position]}, nil
}

const apostrophe = '\''

func (ts *tokenScanner) consumeStringLiteral() (token, error) {
	var out []byte
	for {
		idx := bytes.IndexByte(ts.code[ts.position+1:], apostrophe)
		if idx == -1 {
			return token{}, errInvalidString
		}
		chunk := ts.code[ts.position+1 : ts.position+1+idx]
		if bytes.IndexByte(chunk, '\n') > -1 {
			return token{}, fmt.Errorf("%w: newline in string literal", errInvalidString)
		}
		out = append(out, chunk...)
		ts.position += idx + 1
		if bytes.Equal(ts.peek(2), []byte("''")) {
			out = append(out, apostrophe)
			ts.position++
			continue
		}
		break
	}
	ts.position++
	return token{ttype: tokenLiteralString, value: out}, nil
}
