// Package lexer tokenizes Trident source text into the token stream
// internal/trident/parser consumes.
package lexer

import (
	"strings"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/diag"
)

// TokenKind enumerates lexical token kinds.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokKeyword
	TokSymbol  // punctuation / operators, Text holds the exact symbol
	TokString  // only used inside asm{} tag parsing
)

// Token is one lexed token with its source span.
type Token struct {
	Kind TokenKind
	Text string
	Int  uint64
	Span ast.Span
}

var keywords = map[string]bool{
	"fn": true, "struct": true, "const": true, "event": true,
	"let": true, "if": true, "else": true, "for": true, "in": true,
	"bounded": true, "return": true, "match": true, "emit": true,
	"seal": true, "asm": true, "true": true, "false": true, "mut": true,
}

// Lexer scans one source file into a flat token slice.
type Lexer struct {
	file  string
	src   []byte
	pos   int
	diags *diag.Bag
}

// New returns a Lexer over src, attributing diagnostics to file.
func New(file string, src []byte, diags *diag.Bag) *Lexer {
	return &Lexer{file: file, src: src, diags: diags}
}

// Tokenize scans the entire source into tokens, terminated by a TokEOF.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		l.skipTrivia()
		if l.pos >= len(l.src) {
			toks = append(toks, Token{Kind: TokEOF, Span: l.spanAt(l.pos, l.pos)})
			return toks
		}
		start := l.pos
		c := l.src[l.pos]
		switch {
		case isDigit(c):
			toks = append(toks, l.lexNumber(start))
		case isIdentStart(c):
			toks = append(toks, l.lexIdentOrKeyword(start))
		case c == '"':
			toks = append(toks, l.lexString(start))
		default:
			toks = append(toks, l.lexSymbol(start))
		}
	}
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) lexNumber(start int) Token {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	var n uint64
	for _, c := range text {
		n = n*10 + uint64(c-'0')
	}
	return Token{Kind: TokInt, Text: text, Int: n, Span: l.spanAt(start, l.pos)}
}

// extensionFieldOps are the two extension-field multiplication operators;
// they read as a letter pair immediately followed by '*' ("xx*", "xb*")
// and would otherwise lex as an identifier plus a separate '*' symbol.
var extensionFieldOps = map[string]bool{"xx": true, "xb": true}

func (l *Lexer) lexIdentOrKeyword(start int) Token {
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if extensionFieldOps[text] && l.pos < len(l.src) && l.src[l.pos] == '*' {
		l.pos++
		return Token{Kind: TokSymbol, Text: text + "*", Span: l.spanAt(start, l.pos)}
	}
	if keywords[text] {
		return Token{Kind: TokKeyword, Text: text, Span: l.spanAt(start, l.pos)}
	}
	return Token{Kind: TokIdent, Text: text, Span: l.spanAt(start, l.pos)}
}

func (l *Lexer) lexString(start int) Token {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos++
		}
		sb.WriteByte(l.src[l.pos])
		l.pos++
	}
	if l.pos < len(l.src) {
		l.pos++ // closing quote
	} else {
		l.diags.Add(diag.Diagnostic{
			Severity: diag.Error,
			Span:     l.spanAt(start, l.pos),
			Message:  "unterminated string literal",
		})
	}
	return Token{Kind: TokString, Text: sb.String(), Span: l.spanAt(start, l.pos)}
}

// multiCharSymbols are checked longest-first so e.g. "/%" isn't split
// into "/" and "%".
var multiCharSymbols = []string{"..", "==", "!=", "->", "=>", "&&", "||", "/%", "::"}

func (l *Lexer) lexSymbol(start int) Token {
	rest := string(l.src[l.pos:min(l.pos+2, len(l.src))])
	for _, sym := range multiCharSymbols {
		if strings.HasPrefix(rest, sym) {
			l.pos += len(sym)
			return Token{Kind: TokSymbol, Text: sym, Span: l.spanAt(start, l.pos)}
		}
	}
	c := l.src[l.pos]
	l.pos++
	return Token{Kind: TokSymbol, Text: string(c), Span: l.spanAt(start, l.pos)}
}

func (l *Lexer) spanAt(start, end int) ast.Span {
	return ast.Span{File: l.file, Start: start, End: end}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
