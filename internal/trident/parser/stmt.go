package parser

import (
	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/lexer"
)

func (p *Parser) parseBlock() *ast.Block {
	start := p.cur()
	p.expectSymbol("{")
	b := &ast.Block{}
	for !p.atSymbol("}") && !p.atEOF() {
		if p.looksLikeTailExpr() {
			exprStart := p.cur()
			e := p.parseExpr()
			if p.atSymbol("}") {
				b.Tail = e
				break
			}
			// Not actually a tail: it was an expression statement.
			p.expectSymbol(";")
			b.Stmts = append(b.Stmts, &ast.ExprStmt{Value: e, Span: p.span(exprStart)})
			continue
		}
		stmt := p.parseStmt()
		if stmt != nil {
			b.Stmts = append(b.Stmts, stmt)
		}
	}
	p.expectSymbol("}")
	b.Span = p.span(start)
	return b
}

// looksLikeTailExpr is a cheap lookahead: a statement starting with a
// keyword (let/if/for/return/match/emit/seal/asm) is never a tail
// expression candidate at this grammar's top level; anything else is
// parsed as an expression first and only turned into an ExprStmt if a
// ';' follows instead of the closing brace.
func (p *Parser) looksLikeTailExpr() bool {
	switch {
	case p.atKeyword("let"), p.atKeyword("for"), p.atKeyword("return"),
		p.atKeyword("match"), p.atKeyword("emit"), p.atKeyword("seal"),
		p.atKeyword("asm"), p.atKeyword("if"):
		return false
	default:
		return true
	}
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.cur()
	var stmt ast.Stmt
	switch {
	case p.atKeyword("let"):
		stmt = p.parseLetStmt()
	case p.atKeyword("for"):
		stmt = p.parseForStmt()
	case p.atKeyword("return"):
		stmt = p.parseReturnStmt()
	case p.atKeyword("match"):
		stmt = p.parseMatchStmt()
	case p.atKeyword("emit"):
		stmt = p.parseEmitOrSeal(false)
	case p.atKeyword("seal"):
		stmt = p.parseEmitOrSeal(true)
	case p.atKeyword("asm"):
		stmt = p.parseAsmStmt()
	case p.atKeyword("if"):
		stmt = p.parseIfStmt()
	default:
		// AssignStmt or ExprStmt; both start with an expression.
		e := p.parseExpr()
		if p.eatSymbol("=") {
			value := p.parseExpr()
			p.expectSymbol(";")
			stmt = &ast.AssignStmt{Target: e, Value: value, Span: p.span(start)}
		} else {
			p.expectSymbol(";")
			stmt = &ast.ExprStmt{Value: e, Span: p.span(start)}
		}
	}
	if stmt == nil {
		p.recover()
	}
	return stmt
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.cur()
	p.expectKeyword("let")
	p.eatKeyword("mut")
	pat := p.parsePattern()
	var ty *ast.Type
	if p.eatSymbol(":") {
		t := p.parseType()
		ty = &t
	}
	p.expectSymbol("=")
	value := p.parseExpr()
	p.expectSymbol(";")
	return &ast.LetStmt{Pattern: pat, Type: ty, Value: value, Span: p.span(start)}
}

func (p *Parser) parsePattern() ast.Pattern {
	if p.eatSymbol("(") {
		var names []string
		for !p.atSymbol(")") && !p.atEOF() {
			names = append(names, p.expectIdent())
			if !p.eatSymbol(",") {
				break
			}
		}
		p.expectSymbol(")")
		return ast.Pattern{Tuple: names}
	}
	return ast.Pattern{Name: p.expectIdent()}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.cur()
	p.expectKeyword("if")
	cond := p.parseExprNoStruct()
	then := p.parseBlock()
	var els *ast.Block
	if p.eatKeyword("else") {
		els = p.parseBlock()
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Span: p.span(start)}
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.cur()
	p.expectKeyword("for")
	f := &ast.ForStmt{Var: p.expectIdent()}
	p.expectKeyword("in")
	f.Start = p.parseExprNoStruct()
	p.expectSymbol("..")
	f.End = p.parseExprNoStruct()
	if p.eatKeyword("bounded") {
		f.Bounded = p.parseExprNoStruct()
	}
	f.Body = p.parseBlock()
	f.Span = p.span(start)
	return f
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.cur()
	p.expectKeyword("return")
	r := &ast.ReturnStmt{}
	if !p.atSymbol(";") {
		r.Value = p.parseExpr()
	}
	p.expectSymbol(";")
	r.Span = p.span(start)
	return r
}

func (p *Parser) parseMatchStmt() ast.Stmt {
	start := p.cur()
	p.expectKeyword("match")
	m := &ast.MatchStmt{Scrutinee: p.parseExprNoStruct()}
	p.expectSymbol("{")
	for !p.atSymbol("}") && !p.atEOF() {
		m.Arms = append(m.Arms, p.parseMatchArm())
		p.eatSymbol(",")
	}
	p.expectSymbol("}")
	m.Span = p.span(start)
	return m
}

func (p *Parser) parseMatchArm() ast.MatchArm {
	var arm ast.MatchArm
	switch {
	case p.cur().Kind == lexer.TokIdent && p.cur().Text == "_":
		p.advance()
		arm.Wildcard = true
	case p.cur().Kind == lexer.TokIdent && p.peekAt(1).Kind == lexer.TokSymbol && p.peekAt(1).Text == "{":
		arm.StructPattern = p.parseStructPattern()
	default:
		arm.Literal = p.parsePrimary()
	}
	p.expectSymbol("=>")
	arm.Body = p.parseBlock()
	return arm
}

func (p *Parser) parseStructPattern() *ast.StructPattern {
	sp := &ast.StructPattern{TypeName: p.expectIdent()}
	p.expectSymbol("{")
	for !p.atSymbol("}") && !p.atEOF() {
		name := p.expectIdent()
		fp := ast.FieldPattern{Name: name}
		if p.eatSymbol(":") {
			if p.cur().Kind == lexer.TokInt || p.atKeyword("true") || p.atKeyword("false") {
				fp.Literal = p.parsePrimary()
			} else {
				fp.Bind = p.expectIdent()
			}
		} else {
			fp.Bind = name
		}
		sp.Fields = append(sp.Fields, fp)
		if !p.eatSymbol(",") {
			break
		}
	}
	p.expectSymbol("}")
	return sp
}

func (p *Parser) parseEmitOrSeal(seal bool) ast.Stmt {
	start := p.cur()
	if seal {
		p.expectKeyword("seal")
	} else {
		p.expectKeyword("emit")
	}
	name := p.expectIdent()
	fields := p.parseFieldInits()
	p.expectSymbol(";")
	if seal {
		return &ast.SealStmt{EventName: name, Fields: fields, Span: p.span(start)}
	}
	return &ast.EmitStmt{EventName: name, Fields: fields, Span: p.span(start)}
}

func (p *Parser) parseFieldInits() []ast.FieldInit {
	var fields []ast.FieldInit
	p.expectSymbol("{")
	for !p.atSymbol("}") && !p.atEOF() {
		name := p.expectIdent()
		p.expectSymbol(":")
		value := p.parseExpr()
		fields = append(fields, ast.FieldInit{Name: name, Value: value})
		if !p.eatSymbol(",") {
			break
		}
	}
	p.expectSymbol("}")
	return fields
}

func (p *Parser) parseAsmStmt() ast.Stmt {
	start := p.cur()
	p.expectKeyword("asm")
	a := &ast.AsmStmt{}
	p.expectSymbol("(")
	if p.cur().Kind == lexer.TokInt {
		a.Effect = int(p.advance().Int)
	}
	p.expectSymbol(")")
	if p.eatSymbol("[") {
		a.Target = p.expectIdent()
		p.expectSymbol("]")
	}
	p.expectSymbol("{")
	for !p.atSymbol("}") && !p.atEOF() {
		line := p.advance().Text
		a.Lines = append(a.Lines, line)
	}
	p.expectSymbol("}")
	a.Span = p.span(start)
	return a
}
