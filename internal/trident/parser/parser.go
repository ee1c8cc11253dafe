// Package parser turns a lexer.Token stream into an ast.File. A parse
// error is recorded and parsing continues from the current token, so a
// single pass can report more than one problem; Parse returns the
// partially-built file alongside the diagnostic bag.
package parser

import (
	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/lexer"
)

// Parser holds the token cursor and diagnostic bag for one file.
type Parser struct {
	file     string
	toks     []lexer.Token
	pos      int
	diags    *diag.Bag
	noStruct bool // true while parsing a for/match scrutinee; see parseExprNoStruct
}

// Parse lexes and parses src into an ast.File, collecting diagnostics
// into diags. Even if diags.HasErrors() afterward, the returned File
// is usable as a best-effort partial tree.
func Parse(file string, src []byte, diags *diag.Bag) *ast.File {
	toks := lexer.New(file, src, diags).Tokenize()
	p := &Parser{file: file, toks: toks, diags: diags}
	return p.parseFile()
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.TokEOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) lexer.Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return lexer.Token{Kind: lexer.TokEOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool {
	return p.cur().Kind == lexer.TokEOF
}

func (p *Parser) atSymbol(s string) bool {
	return p.cur().Kind == lexer.TokSymbol && p.cur().Text == s
}

func (p *Parser) atKeyword(kw string) bool {
	return p.cur().Kind == lexer.TokKeyword && p.cur().Text == kw
}

func (p *Parser) eatSymbol(s string) bool {
	if p.atSymbol(s) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) eatKeyword(kw string) bool {
	if p.atKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectSymbol(s string) bool {
	if p.eatSymbol(s) {
		return true
	}
	p.errorf("expected %q, found %q", s, p.cur().Text)
	return false
}

func (p *Parser) expectKeyword(kw string) bool {
	if p.eatKeyword(kw) {
		return true
	}
	p.errorf("expected keyword %q, found %q", kw, p.cur().Text)
	return false
}

func (p *Parser) expectIdent() string {
	if p.cur().Kind == lexer.TokIdent {
		return p.advance().Text
	}
	p.errorf("expected an identifier, found %q", p.cur().Text)
	return ""
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.diags.Errorf(p.cur().Span, format, args...)
}

// recover skips tokens until a statement-terminating ';' or a block
// boundary ('{'/'}'), so one bad statement doesn't prevent parsing the
// rest of the file.
func (p *Parser) recover() {
	for !p.atEOF() {
		if p.atSymbol(";") {
			p.advance()
			return
		}
		if p.atSymbol("}") || p.atSymbol("{") {
			return
		}
		p.advance()
	}
}

func (p *Parser) span(start lexer.Token) ast.Span {
	return ast.Span{File: p.file, Start: start.Span.Start, End: p.cur().Span.Start}
}
