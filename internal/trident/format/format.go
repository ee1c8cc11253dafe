// Package format implements Trident's canonical source formatter (the
// `trident fmt` subcommand, §6.1). It re-renders a parsed ast.File back
// to source text with fixed indentation and spacing, the same
// pretty-printer shape as gofmt/go-printer but hand-written: a fixed
// grammar over a small language doesn't need a templating engine, and
// this package's own assembly generation (internal/trident/backend,
// internal/trident/lowering) is hand-rolled string assembly the same
// way. Format is idempotent: formatting already-formatted output
// reproduces it byte for byte.
package format

import (
	"fmt"
	"strings"

	"github.com/tridentlang/trident/internal/trident/ast"
)

const indentUnit = "    "

// File renders f as canonical Trident source text.
func File(f *ast.File) string {
	var b strings.Builder
	for i, item := range f.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		writeItem(&b, item)
	}
	return b.String()
}

func writeItem(b *strings.Builder, item ast.Item) {
	switch it := item.(type) {
	case *ast.FnDef:
		writeFn(b, it)
	case *ast.StructDef:
		writeStruct(b, it)
	case *ast.ConstDef:
		writeConst(b, it)
	case *ast.EventDef:
		writeEvent(b, it)
	}
}

func writeAttrs(b *strings.Builder, indent string, attrs []ast.Attribute) {
	for _, a := range attrs {
		b.WriteString(indent)
		if a.Arg == "" {
			fmt.Fprintf(b, "#[%s]\n", a.Name)
		} else {
			fmt.Fprintf(b, "#[%s(%s)]\n", a.Name, a.Arg)
		}
	}
}

func writeFn(b *strings.Builder, fn *ast.FnDef) {
	writeAttrs(b, "", fn.Attrs)
	b.WriteString("fn ")
	b.WriteString(fn.Name)
	if len(fn.SizeParams) > 0 {
		b.WriteString("<")
		b.WriteString(strings.Join(fn.SizeParams, ", "))
		b.WriteString(">")
	}
	b.WriteString("(")
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s: %s", p.Name, typeString(p.Type))
	}
	b.WriteString(")")
	if fn.Return != nil {
		b.WriteString(" -> ")
		b.WriteString(typeString(*fn.Return))
	}
	if fn.Body == nil {
		b.WriteString(";\n")
		return
	}
	b.WriteString(" {\n")
	writeBlockBody(b, fn.Body, indentUnit)
	b.WriteString("}\n")
}

func writeStruct(b *strings.Builder, sd *ast.StructDef) {
	fmt.Fprintf(b, "struct %s {\n", sd.Name)
	for _, f := range sd.Fields {
		fmt.Fprintf(b, "%s%s: %s,\n", indentUnit, f.Name, typeString(f.Type))
	}
	b.WriteString("}\n")
}

func writeConst(b *strings.Builder, c *ast.ConstDef) {
	fmt.Fprintf(b, "const %s: %s = %s;\n", c.Name, typeString(c.Type), exprString(c.Value))
}

func writeEvent(b *strings.Builder, ev *ast.EventDef) {
	fmt.Fprintf(b, "event %s {\n", ev.Name)
	for _, f := range ev.Fields {
		fmt.Fprintf(b, "%s%s: %s,\n", indentUnit, f.Name, typeString(f.Type))
	}
	b.WriteString("}\n")
}

func typeString(t ast.Type) string {
	switch {
	case t.Array != nil:
		if t.SizeArg != "" {
			return fmt.Sprintf("[%s; %s]", typeString(*t.Array), t.SizeArg)
		}
		return fmt.Sprintf("[%s; %d]", typeString(*t.Array), t.ArrayLen)
	case t.Tuple != nil:
		parts := make([]string, len(t.Tuple))
		for i, sub := range t.Tuple {
			parts[i] = typeString(sub)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return t.Name
	}
}

func writeBlockBody(b *strings.Builder, blk *ast.Block, indent string) {
	for _, s := range blk.Stmts {
		writeStmt(b, s, indent)
	}
	if blk.Tail != nil {
		b.WriteString(indent)
		b.WriteString(exprString(blk.Tail))
		b.WriteString("\n")
	}
}

func writeStmt(b *strings.Builder, s ast.Stmt, indent string) {
	switch st := s.(type) {
	case *ast.LetStmt:
		b.WriteString(indent)
		b.WriteString("let ")
		b.WriteString(patternString(st.Pattern))
		if st.Type != nil {
			b.WriteString(": ")
			b.WriteString(typeString(*st.Type))
		}
		b.WriteString(" = ")
		b.WriteString(exprString(st.Value))
		b.WriteString(";\n")

	case *ast.AssignStmt:
		fmt.Fprintf(b, "%s%s = %s;\n", indent, exprString(st.Target), exprString(st.Value))

	case *ast.IfStmt:
		fmt.Fprintf(b, "%sif %s {\n", indent, exprString(st.Cond))
		writeBlockBody(b, st.Then, indent+indentUnit)
		if st.Else != nil {
			fmt.Fprintf(b, "%s} else {\n", indent)
			writeBlockBody(b, st.Else, indent+indentUnit)
		}
		fmt.Fprintf(b, "%s}\n", indent)

	case *ast.ForStmt:
		bound := ""
		if st.Bounded != nil {
			bound = " bounded " + exprString(st.Bounded)
		}
		fmt.Fprintf(b, "%sfor %s in %s..%s%s {\n", indent, st.Var, exprString(st.Start), exprString(st.End), bound)
		writeBlockBody(b, st.Body, indent+indentUnit)
		fmt.Fprintf(b, "%s}\n", indent)

	case *ast.ExprStmt:
		fmt.Fprintf(b, "%s%s;\n", indent, exprString(st.Value))

	case *ast.ReturnStmt:
		if st.Value == nil {
			fmt.Fprintf(b, "%sreturn;\n", indent)
		} else {
			fmt.Fprintf(b, "%sreturn %s;\n", indent, exprString(st.Value))
		}

	case *ast.MatchStmt:
		fmt.Fprintf(b, "%smatch %s {\n", indent, exprString(st.Scrutinee))
		for _, arm := range st.Arms {
			fmt.Fprintf(b, "%s%s => {\n", indent+indentUnit, armPatternString(arm))
			writeBlockBody(b, arm.Body, indent+indentUnit+indentUnit)
			fmt.Fprintf(b, "%s}\n", indent+indentUnit)
		}
		fmt.Fprintf(b, "%s}\n", indent)

	case *ast.EmitStmt:
		fmt.Fprintf(b, "%semit %s;\n", indent, fieldInitsString(st.EventName, st.Fields))

	case *ast.SealStmt:
		fmt.Fprintf(b, "%sseal %s;\n", indent, fieldInitsString(st.EventName, st.Fields))

	case *ast.AsmStmt:
		target := ""
		if st.Target != "" {
			target = " [" + st.Target + "]"
		}
		fmt.Fprintf(b, "%sasm(%d)%s {\n", indent, st.Effect, target)
		for _, line := range st.Lines {
			fmt.Fprintf(b, "%s%s\n", indent+indentUnit, line)
		}
		fmt.Fprintf(b, "%s}\n", indent)
	}
}

func armPatternString(arm ast.MatchArm) string {
	switch {
	case arm.Wildcard:
		return "_"
	case arm.StructPattern != nil:
		parts := make([]string, len(arm.StructPattern.Fields))
		for i, f := range arm.StructPattern.Fields {
			switch {
			case f.Bind != "":
				parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Bind)
			case f.Literal != nil:
				parts[i] = fmt.Sprintf("%s: %s", f.Name, exprString(f.Literal))
			default:
				parts[i] = f.Name
			}
		}
		return fmt.Sprintf("%s { %s }", arm.StructPattern.TypeName, strings.Join(parts, ", "))
	default:
		return exprString(arm.Literal)
	}
}

func fieldInitsString(name string, fields []ast.FieldInit) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, exprString(f.Value))
	}
	return fmt.Sprintf("%s { %s }", name, strings.Join(parts, ", "))
}

func patternString(p ast.Pattern) string {
	if p.Tuple != nil {
		return "(" + strings.Join(p.Tuple, ", ") + ")"
	}
	return p.Name
}

func exprString(e ast.Expr) string {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		return fmt.Sprintf("%d", ex.Value)
	case *ast.BoolExpr:
		if ex.Value {
			return "true"
		}
		return "false"
	case *ast.NameExpr:
		return ex.Name
	case *ast.BinaryExpr:
		return fmt.Sprintf("%s %s %s", exprString(ex.Lhs), string(ex.Op), exprString(ex.Rhs))
	case *ast.UnaryExpr:
		return fmt.Sprintf("%s%s", string(ex.Op), exprString(ex.Value))
	case *ast.CallExpr:
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = exprString(a)
		}
		sizeArgs := ""
		if len(ex.SizeArgs) > 0 {
			parts := make([]string, len(ex.SizeArgs))
			for i, v := range ex.SizeArgs {
				parts[i] = fmt.Sprintf("%d", v)
			}
			sizeArgs = "::<" + strings.Join(parts, ", ") + ">"
		}
		return fmt.Sprintf("%s%s(%s)", ex.Callee, sizeArgs, strings.Join(args, ", "))
	case *ast.StructInitExpr:
		return fieldInitsString(ex.TypeName, ex.Fields)
	case *ast.TupleInitExpr:
		parts := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			parts[i] = exprString(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.ArrayInitExpr:
		parts := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			parts[i] = exprString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.FieldAccessExpr:
		return fmt.Sprintf("%s.%s", exprString(ex.Base), ex.Field)
	case *ast.IndexExpr:
		return fmt.Sprintf("%s[%s]", exprString(ex.Base), exprString(ex.Index))
	case *ast.IfExpr:
		return fmt.Sprintf("if %s { %s } else { %s }", exprString(ex.Cond), blockInline(ex.Then), blockInline(ex.Else))
	case *ast.BlockExpr:
		return blockInline(ex.Block)
	default:
		return ""
	}
}

// blockInline renders a block compactly for use inside an expression
// (an if-expression's arms): one statement per segment, joined by "; ".
func blockInline(blk *ast.Block) string {
	if blk == nil {
		return ""
	}
	var parts []string
	for _, s := range blk.Stmts {
		var one strings.Builder
		writeStmt(&one, s, "")
		parts = append(parts, strings.TrimSuffix(strings.TrimSpace(one.String()), ";"))
	}
	if blk.Tail != nil {
		parts = append(parts, exprString(blk.Tail))
	}
	return strings.Join(parts, "; ")
}
