// Package docgen renders a compiled Trident file to markdown with cost
// annotations (the `trident doc` subcommand, §6.1). One section per
// function, struct, event and constant; a function section lists its
// signature and attributes and, when an internal/trident/cost.Report
// with that function is supplied, its per-table cost vector. Padded
// height, totals and hints appear once, in a program-totals section, not
// per function. Trident source carries no doc-comment nodes in its ast,
// so this package documents signatures and measured cost, not prose.
package docgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/cost"
	"github.com/tridentlang/trident/internal/trident/format"
)

// File renders f as a markdown document. report may be nil, in which
// case no cost section is emitted for any function.
func File(name string, f *ast.File, report *cost.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)

	for _, item := range f.Items {
		switch it := item.(type) {
		case *ast.FnDef:
			writeFn(&b, it, report)
		case *ast.StructDef:
			writeStruct(&b, it)
		case *ast.EventDef:
			writeEvent(&b, it)
		case *ast.ConstDef:
			writeConst(&b, it)
		}
	}

	if report != nil {
		writeSummary(&b, report)
	}
	return b.String()
}

func writeFn(b *strings.Builder, fn *ast.FnDef, report *cost.Report) {
	fmt.Fprintf(b, "## fn %s\n\n", fn.Name)
	tmp := &ast.File{Items: []ast.Item{&ast.FnDef{
		Name: fn.Name, Params: fn.Params, Return: fn.Return, SizeParams: fn.SizeParams,
	}}}
	fmt.Fprintf(b, "```\n%s```\n\n", format.File(tmp))

	if len(fn.Attrs) > 0 {
		var names []string
		for _, a := range fn.Attrs {
			if a.Arg == "" {
				names = append(names, "#["+a.Name+"]")
			} else {
				names = append(names, fmt.Sprintf("#[%s(%s)]", a.Name, a.Arg))
			}
		}
		fmt.Fprintf(b, "Attributes: %s\n\n", strings.Join(names, ", "))
	}

	if report == nil {
		return
	}
	v, ok := report.FunctionCosts[fn.Name]
	if !ok {
		return
	}
	b.WriteString("Cost:\n\n")
	b.WriteString("| table | rows |\n|---|---|\n")
	for _, k := range sortedKeys(v) {
		fmt.Fprintf(b, "| %s | %d |\n", k, v[k])
	}
	b.WriteString("\n")
}

func writeStruct(b *strings.Builder, sd *ast.StructDef) {
	fmt.Fprintf(b, "## struct %s\n\n", sd.Name)
	b.WriteString("| field | type |\n|---|---|\n")
	for _, f := range sd.Fields {
		fmt.Fprintf(b, "| %s | %s |\n", f.Name, typeName(f.Type))
	}
	b.WriteString("\n")
}

func writeEvent(b *strings.Builder, ev *ast.EventDef) {
	fmt.Fprintf(b, "## event %s\n\n", ev.Name)
	b.WriteString("| field | type |\n|---|---|\n")
	for _, f := range ev.Fields {
		fmt.Fprintf(b, "| %s | %s |\n", f.Name, typeName(f.Type))
	}
	b.WriteString("\n")
}

func writeConst(b *strings.Builder, c *ast.ConstDef) {
	fmt.Fprintf(b, "## const %s: %s\n\n", c.Name, typeName(c.Type))
}

func writeSummary(b *strings.Builder, report *cost.Report) {
	b.WriteString("## Program totals\n\n")
	fmt.Fprintf(b, "Padded height: %d\n\n", report.PaddedHeight)
	b.WriteString("| table | rows |\n|---|---|\n")
	for _, k := range sortedKeys(report.Total) {
		fmt.Fprintf(b, "| %s | %d |\n", k, report.Total[k])
	}
	b.WriteString("\n")
	if len(report.Hints) == 0 {
		return
	}
	b.WriteString("### Hints\n\n")
	for _, h := range report.Hints {
		fmt.Fprintf(b, "- `%s`: %s\n", h.Code, h.Message)
	}
	b.WriteString("\n")
}

func sortedKeys(v cost.Vector) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func typeName(t ast.Type) string {
	switch {
	case t.Array != nil:
		if t.SizeArg != "" {
			return fmt.Sprintf("[%s; %s]", typeName(*t.Array), t.SizeArg)
		}
		return fmt.Sprintf("[%s; %d]", typeName(*t.Array), t.ArrayLen)
	case t.Tuple != nil:
		parts := make([]string, len(t.Tuple))
		for i, sub := range t.Tuple {
			parts[i] = typeName(sub)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return t.Name
	}
}
