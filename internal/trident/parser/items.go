package parser

import (
	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/lexer"
)

func (p *Parser) parseFile() *ast.File {
	f := &ast.File{Name: p.file}
	for !p.atEOF() {
		start := p.pos
		item := p.parseItem()
		if item != nil {
			f.Items = append(f.Items, item)
		}
		if p.pos == start {
			// parseItem made no progress (an unrecognized token at file
			// scope); skip it so tokenization errors don't infinite-loop.
			p.errorf("expected an item (fn, struct, const, event), found %q", p.cur().Text)
			p.advance()
		}
	}
	return f
}

func (p *Parser) parseItem() ast.Item {
	attrs := p.parseAttributes()
	switch {
	case p.atKeyword("fn"):
		return p.parseFnDef(attrs)
	case p.atKeyword("struct"):
		return p.parseStructDef()
	case p.atKeyword("const"):
		return p.parseConstDef()
	case p.atKeyword("event"):
		return p.parseEventDef()
	default:
		return nil
	}
}

// parseAttributes consumes zero or more #[name] / #[name(arg)] attributes.
func (p *Parser) parseAttributes() []ast.Attribute {
	var attrs []ast.Attribute
	for p.atSymbol("#") {
		p.advance()
		p.expectSymbol("[")
		name := p.expectIdent()
		arg := ""
		if p.eatSymbol("(") {
			if p.cur().Kind == lexer.TokIdent || p.cur().Kind == lexer.TokKeyword {
				arg = p.advance().Text
			} else if p.cur().Kind == lexer.TokInt {
				arg = p.advance().Text
			}
			p.expectSymbol(")")
		}
		p.expectSymbol("]")
		attrs = append(attrs, ast.Attribute{Name: name, Arg: arg})
	}
	return attrs
}

func (p *Parser) parseFnDef(attrs []ast.Attribute) *ast.FnDef {
	start := p.cur()
	p.expectKeyword("fn")
	fn := &ast.FnDef{Attrs: attrs}
	fn.Name = p.expectIdent()

	if p.eatSymbol("<") {
		for !p.atSymbol(">") && !p.atEOF() {
			fn.SizeParams = append(fn.SizeParams, p.expectIdent())
			if !p.eatSymbol(",") {
				break
			}
		}
		p.expectSymbol(">")
	}

	p.expectSymbol("(")
	for !p.atSymbol(")") && !p.atEOF() {
		name := p.expectIdent()
		p.expectSymbol(":")
		ty := p.parseType()
		fn.Params = append(fn.Params, ast.Param{Name: name, Type: ty})
		if !p.eatSymbol(",") {
			break
		}
	}
	p.expectSymbol(")")

	if p.eatSymbol("->") {
		ret := p.parseType()
		fn.Return = &ret
	}

	if p.atSymbol("{") {
		fn.Body = p.parseBlock()
	} else {
		p.expectSymbol(";")
	}
	fn.Span = p.span(start)
	return fn
}

func (p *Parser) parseStructDef() *ast.StructDef {
	start := p.cur()
	p.expectKeyword("struct")
	s := &ast.StructDef{Name: p.expectIdent()}
	p.expectSymbol("{")
	for !p.atSymbol("}") && !p.atEOF() {
		name := p.expectIdent()
		p.expectSymbol(":")
		ty := p.parseType()
		s.Fields = append(s.Fields, ast.Param{Name: name, Type: ty})
		if !p.eatSymbol(",") {
			break
		}
	}
	p.expectSymbol("}")
	s.Span = p.span(start)
	return s
}

func (p *Parser) parseConstDef() *ast.ConstDef {
	start := p.cur()
	p.expectKeyword("const")
	c := &ast.ConstDef{Name: p.expectIdent()}
	p.expectSymbol(":")
	c.Type = p.parseType()
	p.expectSymbol("=")
	c.Value = p.parseExpr()
	p.expectSymbol(";")
	c.Span = p.span(start)
	return c
}

func (p *Parser) parseEventDef() *ast.EventDef {
	start := p.cur()
	p.expectKeyword("event")
	e := &ast.EventDef{Name: p.expectIdent()}
	p.expectSymbol("{")
	for !p.atSymbol("}") && !p.atEOF() {
		name := p.expectIdent()
		p.expectSymbol(":")
		ty := p.parseType()
		e.Fields = append(e.Fields, ast.Param{Name: name, Type: ty})
		if !p.eatSymbol(",") {
			break
		}
	}
	p.expectSymbol("}")
	e.Span = p.span(start)
	return e
}

// parseType parses a type reference: a bare name, an array "[T; N]" or
// "[T; Name]" (size-generic), or a tuple "(T1, T2, ...)".
func (p *Parser) parseType() ast.Type {
	switch {
	case p.eatSymbol("["):
		elem := p.parseType()
		p.expectSymbol(";")
		t := ast.Type{Array: &elem}
		if p.cur().Kind == lexer.TokInt {
			t.ArrayLen = int(p.advance().Int)
		} else {
			t.SizeArg = p.expectIdent()
		}
		p.expectSymbol("]")
		return t
	case p.eatSymbol("("):
		var elems []ast.Type
		for !p.atSymbol(")") && !p.atEOF() {
			elems = append(elems, p.parseType())
			if !p.eatSymbol(",") {
				break
			}
		}
		p.expectSymbol(")")
		return ast.Type{Tuple: elems}
	default:
		return ast.Type{Name: p.expectIdent()}
	}
}
