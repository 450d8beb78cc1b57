package sql

import "testing"

func TestTokeniseOperators(t *testing.T) {
	toks, err := tokenise("+ - * / % = != > < >= <= ( ) ,")
	if err != nil {
		t.Fatal(err)
	}
	want := []tokenType{
		tokenAdd, tokenSub, tokenMul, tokenQuo, tokenMod, tokenEq, tokenNeq,
		tokenGt, tokenLt, tokenGte, tokenLte, tokenLparen, tokenRparen, tokenComma,
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(toks))
	}
	for i, tt := range want {
		if toks[i].ttype != tt {
			t.Errorf("token %d: expected %v, got %v", i, tt, toks[i].ttype)
		}
	}
}

func TestTokeniseKeywordsCaseInsensitive(t *testing.T) {
	toks, err := tokenise("SELECT select Select")
	if err != nil {
		t.Fatal(err)
	}
	for i, tok := range toks {
		if tok.ttype != tokenSelect {
			t.Errorf("token %d: expected tokenSelect, got %v", i, tok.ttype)
		}
	}
}

func TestTokeniseIntegerAndFloatLiterals(t *testing.T) {
	toks, err := tokenise("42 3.14 .5 1e10")
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].ttype != tokenLiteralInt || string(toks[0].value) != "42" {
		t.Errorf("unexpected integer token: %+v", toks[0])
	}
	if toks[1].ttype != tokenLiteralFloat {
		t.Errorf("expected float token for 3.14, got %v", toks[1].ttype)
	}
	if toks[2].ttype != tokenLiteralFloat {
		t.Errorf("expected float token for .5, got %v", toks[2].ttype)
	}
	if toks[3].ttype != tokenLiteralFloat {
		t.Errorf("expected float token for 1e10, got %v", toks[3].ttype)
	}
}

func TestTokeniseStringLiteralWithEscapedQuote(t *testing.T) {
	toks, err := tokenise("'it''s here'")
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 1 || toks[0].ttype != tokenLiteralString {
		t.Fatalf("expected a single string literal token, got %+v", toks)
	}
	if string(toks[0].value) != "it's here" {
		t.Errorf("expected escaped quote to unescape, got %q", toks[0].value)
	}
}

func TestTokeniseUnterminatedStringErrors(t *testing.T) {
	if _, err := tokenise("'oops"); err == nil {
		t.Errorf("expected an error for an unterminated string literal")
	}
}

func TestTokeniseQuotedIdentifier(t *testing.T) {
	toks, err := tokenise(`"my column"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 1 || toks[0].ttype != tokenIdentifierQuoted {
		t.Fatalf("expected a quoted identifier token, got %+v", toks)
	}
	if string(toks[0].value) != "my column" {
		t.Errorf("unexpected quoted identifier contents: %q", toks[0].value)
	}
}

func TestTokeniseLineComment(t *testing.T) {
	toks, err := tokenise("select 1 -- trailing comment\nfrom t")
	if err != nil {
		t.Fatal(err)
	}
	var sawFrom bool
	for _, tok := range toks {
		if tok.ttype == tokenFrom {
			sawFrom = true
		}
	}
	if !sawFrom {
		t.Errorf("expected FROM to survive past the line comment")
	}
}

func TestTokeniseNotEqualVariants(t *testing.T) {
	toks, err := tokenise("a != b")
	if err != nil {
		t.Fatal(err)
	}
	if toks[1].ttype != tokenNeq {
		t.Errorf("expected != to tokenise as tokenNeq, got %v", toks[1].ttype)
	}

	toks2, err := tokenise("a <> b")
	if err != nil {
		t.Fatal(err)
	}
	if toks2[1].ttype != tokenNeq {
		t.Errorf("expected <> to tokenise as tokenNeq, got %v", toks2[1].ttype)
	}
}
