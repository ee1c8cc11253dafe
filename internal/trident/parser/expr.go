package parser

import (
	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/lexer"
)

// noStructInit suppresses `Ident { ... }` struct-literal parsing while
// parsing a for-loop range or match scrutinee, where the '{' instead
// opens the loop/match body. Saved and restored around such callsites.
func (p *Parser) parseExprNoStruct() ast.Expr {
	prev := p.noStruct
	p.noStruct = true
	e := p.parseExpr()
	p.noStruct = prev
	return e
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(0)
}

// precedence tables, lowest-binding first.
var precedence = map[string]int{
	"==": 1, "!=": 1, "<": 1,
	"&": 2, "^": 2,
	"+": 3, "-": 3,
	"*": 4, "/%": 4, "xx*": 4, "xb*": 4,
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	lhs := p.parseUnary()
	for {
		tok := p.cur()
		if tok.Kind != lexer.TokSymbol {
			break
		}
		prec, ok := precedence[tok.Text]
		if !ok || prec < minPrec {
			break
		}
		op := tok.Text
		start := tok
		p.advance()
		rhs := p.parseBinary(prec + 1)
		lhs = &ast.BinaryExpr{Op: ast.BinOp(op), Lhs: lhs, Rhs: rhs, Span: p.span(start)}
	}
	return lhs
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.cur()
	switch {
	case p.atSymbol("-"):
		p.advance()
		return &ast.UnaryExpr{Op: ast.OpNeg, Value: p.parseUnary(), Span: p.span(start)}
	case p.atSymbol("!"):
		p.advance()
		return &ast.UnaryExpr{Op: ast.OpInvert, Value: p.parseUnary(), Span: p.span(start)}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		start := p.cur()
		switch {
		case p.eatSymbol("."):
			field := p.expectIdent()
			e = &ast.FieldAccessExpr{Base: e, Field: field, Span: p.span(start)}
		case p.eatSymbol("["):
			idx := p.parseExpr()
			p.expectSymbol("]")
			e = &ast.IndexExpr{Base: e, Index: idx, Span: p.span(start)}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur()
	switch {
	case p.cur().Kind == lexer.TokInt:
		v := p.advance().Int
		return &ast.LiteralExpr{Value: v, Span: p.span(start)}

	case p.atKeyword("true"), p.atKeyword("false"):
		v := p.advance().Text == "true"
		return &ast.BoolExpr{Value: v, Span: p.span(start)}

	case p.atKeyword("if"):
		return p.parseIfExpr()

	case p.atSymbol("("):
		p.advance()
		if p.atSymbol(")") {
			p.advance()
			return &ast.TupleInitExpr{Span: p.span(start)}
		}
		first := p.parseExpr()
		if p.eatSymbol(",") {
			elems := []ast.Expr{first}
			for !p.atSymbol(")") && !p.atEOF() {
				elems = append(elems, p.parseExpr())
				if !p.eatSymbol(",") {
					break
				}
			}
			p.expectSymbol(")")
			return &ast.TupleInitExpr{Elements: elems, Span: p.span(start)}
		}
		p.expectSymbol(")")
		return first

	case p.atSymbol("["):
		p.advance()
		var elems []ast.Expr
		for !p.atSymbol("]") && !p.atEOF() {
			elems = append(elems, p.parseExpr())
			if !p.eatSymbol(",") {
				break
			}
		}
		p.expectSymbol("]")
		return &ast.ArrayInitExpr{Elements: elems, Span: p.span(start)}

	case p.atSymbol("{"):
		b := p.parseBlock()
		return &ast.BlockExpr{Block: b, Span: p.span(start)}

	case p.cur().Kind == lexer.TokIdent:
		name := p.advance().Text
		var sizeArgs []int
		if p.atSymbol("::") && p.peekAt(1).Kind == lexer.TokSymbol && p.peekAt(1).Text == "<" {
			p.advance() // "::"
			p.advance() // "<"
			for !p.atSymbol(">") && !p.atEOF() {
				sizeArgs = append(sizeArgs, int(p.advance().Int))
				if !p.eatSymbol(",") {
					break
				}
			}
			p.expectSymbol(">")
		}
		switch {
		case p.atSymbol("("):
			call := p.parseCallTail(name, start)
			call.(*ast.CallExpr).SizeArgs = sizeArgs
			return call
		case p.atSymbol("{") && !p.noStruct:
			fields := p.parseFieldInits()
			return &ast.StructInitExpr{TypeName: name, Fields: fields, Span: p.span(start)}
		default:
			return &ast.NameExpr{Name: name, Span: p.span(start)}
		}

	default:
		p.errorf("unexpected token %q in expression", p.cur().Text)
		p.advance()
		return &ast.LiteralExpr{Value: 0, Span: p.span(start)}
	}
}

func (p *Parser) parseCallTail(callee string, start lexer.Token) ast.Expr {
	p.expectSymbol("(")
	call := &ast.CallExpr{Callee: callee}
	for !p.atSymbol(")") && !p.atEOF() {
		call.Args = append(call.Args, p.parseExpr())
		if !p.eatSymbol(",") {
			break
		}
	}
	p.expectSymbol(")")
	call.Span = p.span(start)
	return call
}

func (p *Parser) parseIfExpr() ast.Expr {
	start := p.cur()
	p.expectKeyword("if")
	cond := p.parseExprNoStruct()
	then := p.parseBlock()
	p.expectKeyword("else")
	els := p.parseBlock()
	return &ast.IfExpr{Cond: cond, Then: then, Else: els, Span: p.span(start)}
}
