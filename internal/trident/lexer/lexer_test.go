package lexer

import (
	"testing"

	"github.com/tridentlang/trident/internal/trident/diag"
)

func TestTokenizeFnSignature(t *testing.T) {
	var bag diag.Bag
	toks := New("t.tri", []byte(`fn add(a: Field, b: Field) -> Field {`), &bag).Tokenize()

	want := []string{"fn", "add", "(", "a", ":", "Field", ",", "b", ":", "Field", ")", "->", "Field", "{"}
	if len(toks) != len(want)+1 { // +1 for EOF
		t.Fatalf("got %d tokens, want %d (+EOF): %+v", len(toks), len(want)+1, toks)
	}
	for i, w := range want {
		if toks[i].Text != w {
			t.Fatalf("token %d = %q, want %q", i, toks[i].Text, w)
		}
	}
	if toks[len(toks)-1].Kind != TokEOF {
		t.Fatalf("last token is not EOF: %+v", toks[len(toks)-1])
	}
}

func TestTokenizeIntegerAndKeywords(t *testing.T) {
	var bag diag.Bag
	toks := New("t.tri", []byte(`let x = 42; if true { return 7 }`), &bag).Tokenize()

	if toks[0].Kind != TokKeyword || toks[0].Text != "let" {
		t.Fatalf("token 0 = %+v, want keyword let", toks[0])
	}
	var intTok *Token
	for i := range toks {
		if toks[i].Kind == TokInt {
			intTok = &toks[i]
			break
		}
	}
	if intTok == nil || intTok.Int != 42 {
		t.Fatalf("expected an integer token with value 42, got %+v", intTok)
	}
}

func TestTokenizeMultiCharSymbolsNotSplit(t *testing.T) {
	var bag diag.Bag
	toks := New("t.tri", []byte(`a != b == c /% d -> e`), &bag).Tokenize()
	var symbols []string
	for _, tok := range toks {
		if tok.Kind == TokSymbol {
			symbols = append(symbols, tok.Text)
		}
	}
	want := []string{"!=", "==", "/%", "->"}
	if len(symbols) != len(want) {
		t.Fatalf("symbols = %v, want %v", symbols, want)
	}
	for i, w := range want {
		if symbols[i] != w {
			t.Fatalf("symbol %d = %q, want %q", i, symbols[i], w)
		}
	}
}

func TestTokenizeLineComment(t *testing.T) {
	var bag diag.Bag
	toks := New("t.tri", []byte("let x = 1 // trailing comment\nlet y = 2"), &bag).Tokenize()
	count := 0
	for _, tok := range toks {
		if tok.Kind != TokEOF {
			count++
		}
	}
	if count != 8 {
		t.Fatalf("got %d non-EOF tokens, want 8 (comment should be skipped): %+v", count, toks)
	}
}

func TestTokenizeUnterminatedStringReportsDiagnostic(t *testing.T) {
	var bag diag.Bag
	New("t.tri", []byte(`asm { target "triton }`), &bag).Tokenize()
	if !bag.HasErrors() {
		t.Fatalf("expected an error diagnostic for an unterminated string")
	}
}
