// Command trident is the compiler's command-line entry point (§6.1):
// init/build/check/fmt/test/doc/verify/hash/bench/lsp, all dispatched
// by hand off os.Args rather than pulling in a flags/subcommand
// library, using only the standard library's flag package per
// subcommand and writing progress straight to stderr with
// fmt.Fprintln/fmt.Fprintf.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/docgen"
	"github.com/tridentlang/trident/internal/trident/format"
	"github.com/tridentlang/trident/internal/trident/lsp"
	"github.com/tridentlang/trident/internal/trident/manifest"
	"github.com/tridentlang/trident/internal/trident/parser"
	"github.com/tridentlang/trident/internal/trident/project"
	"github.com/tridentlang/trident/internal/trident/verify"
	"github.com/tridentlang/trident/pkg/trident"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "init":
		err = runInit(args)
	case "build":
		err = runBuild(args)
	case "check":
		err = runCheck(args)
	case "fmt":
		err = runFmt(args)
	case "test":
		err = runTest(args)
	case "doc":
		err = runDoc(args)
	case "verify":
		err = runVerifyCmd(args)
	case "hash":
		err = runHash(args)
	case "bench":
		err = runBench(args)
	case "lsp":
		err = runLsp(args)
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fatal(err.Error())
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: trident <init|build|check|fmt|test|doc|verify|hash|bench|lsp> [args]")
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "trident:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}

// sourceFile resolves a CLI "file or dir" argument to one source path:
// a direct .tri path is used as-is, a directory is resolved through
// its trident.toml entry (falling back to project.DefaultEntry).
func sourceFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}
	if _, err := os.Stat(filepath.Join(path, project.ManifestFileName)); err == nil {
		m, err := project.Load(path)
		if err != nil {
			return "", err
		}
		return m.EntryPath(), nil
	}
	return filepath.Join(path, project.DefaultEntry), nil
}

func parseFile(path string) (*ast.File, []byte, *diag.Bag, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	bag := &diag.Bag{}
	file := parser.Parse(path, src, bag)
	return file, src, bag, nil
}

func reportDiagnostics(bag *diag.Bag) {
	for _, d := range bag.All() {
		logStderr(d.Error())
	}
}

// --- init ---

const mainTriTemplate = `fn main() {
}
`

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.Parse(args)

	name := "trident-project"
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}

	var toml strings.Builder
	fmt.Fprintf(&toml, "[project]\nname = %q\nentry = %q\n", name, project.DefaultEntry)

	if err := os.WriteFile(project.ManifestFileName, []byte(toml.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", project.ManifestFileName, err)
	}
	if err := os.WriteFile(project.DefaultEntry, []byte(mainTriTemplate), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", project.DefaultEntry, err)
	}
	logStderr(fmt.Sprintf("created %s and %s", project.ManifestFileName, project.DefaultEntry))
	return nil
}

// --- build ---

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("output", "", "assembly output path (default <entry>.tasm)")
	target := fs.String("target", "triton", "backend target name")
	showCosts := fs.Bool("costs", false, "print the per-table cost report to stderr")
	showHotspots := fs.Bool("hotspots", false, "print the most expensive functions to stderr")
	showHints := fs.Bool("hints", false, "print static cost diagnostic hints to stderr")
	annotate := fs.Bool("annotate", false, "prepend a cost summary comment block to the assembly output")
	saveCosts := fs.String("save-costs", "", "write the cost report as JSON to this path")
	compare := fs.String("compare", "", "diff the generated assembly against a previous cost JSON's padded height")
	speculative := fs.Bool("speculative", false, "run the C4 neural lowering path and report candidates (never changes the emitted assembly)")
	_ = fs.String("profile", "", "active [targets.<PROFILE>] cfg profile (reserved)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("build: missing file or project dir argument")
	}
	path, err := sourceFile(fs.Arg(0))
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	needCosts := *showCosts || *showHotspots || *showHints || *annotate || *saveCosts != ""
	result, err := trident.Compile(path, src, trident.Options{Target: *target, ComputeCosts: needCosts, Speculative: *speculative})
	if err != nil {
		if ce, ok := err.(*trident.CompileError); ok {
			for _, d := range ce.Diagnostics {
				logStderr(d)
			}
		}
		return err
	}

	out := *output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".tasm"
	}

	asm := result.Assembly
	if *annotate && result.Cost != nil {
		asm = append(annotationComments(result.Cost), asm...)
	}
	if err := os.WriteFile(out, []byte(strings.Join(asm, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	logStderr(fmt.Sprintf("wrote %s", out))

	if *speculative {
		printNeuralReports(result.NeuralReports)
	}

	if result.Cost != nil {
		if *showCosts {
			printCostTable(result.Cost.Total)
		}
		if *showHotspots {
			printHotspots(result.Cost)
		}
		if *showHints {
			for _, h := range result.Cost.Hints {
				logStderr(fmt.Sprintf("%s: %s", h.Code, h.Message))
			}
		}
		if *saveCosts != "" {
			doc := manifest.BuildCostDocument(*result.Cost)
			data, err := doc.Encode()
			if err != nil {
				return fmt.Errorf("encoding cost document: %w", err)
			}
			if err := os.WriteFile(*saveCosts, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", *saveCosts, err)
			}
		}
		if *compare != "" {
			baseline, err := os.ReadFile(*compare)
			if err != nil {
				return fmt.Errorf("reading baseline %s: %w", *compare, err)
			}
			prev, err := manifest.DecodeCostDocument(baseline)
			if err != nil {
				return fmt.Errorf("decoding baseline %s: %w", *compare, err)
			}
			deltaPaddedHeight(prev, *result.Cost)
		}
	}
	return nil
}

func annotationComments(report *trident.CostReport) []string {
	lines := []string{fmt.Sprintf("// padded_height: %d", report.PaddedHeight)}
	for _, k := range sortedCostKeys(report.Total) {
		lines = append(lines, fmt.Sprintf("// cost.%s: %d", k, report.Total[k]))
	}
	return lines
}

func printNeuralReports(reports map[string]*trident.NeuralReport) {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := reports[name]
		if r.Selected < 0 {
			logStderr(fmt.Sprintf("speculative %s: no cheaper equivalent candidate (%d tried)", name, len(r.Candidates)))
			continue
		}
		best := r.Candidates[r.Selected]
		logStderr(fmt.Sprintf("speculative %s: candidate #%d scores cheaper and equivalent (not substituted)", name, best.Rank))
	}
}

func printCostTable(v trident.CostVector) {
	for _, k := range sortedCostKeys(v) {
		logStderr(fmt.Sprintf("%s: %d", k, v[k]))
	}
}

func printHotspots(report *trident.CostReport) {
	type row struct {
		name  string
		total uint64
	}
	var rows []row
	for name, v := range report.FunctionCosts {
		var sum uint64
		for _, n := range v {
			sum += n
		}
		rows = append(rows, row{name, sum})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].total > rows[j].total })
	for i, r := range rows {
		if i >= 10 {
			break
		}
		logStderr(fmt.Sprintf("hotspot: %s (%d rows)", r.name, r.total))
	}
}

func sortedCostKeys(v trident.CostVector) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func deltaPaddedHeight(prev manifest.CostDocument, cur trident.CostReport) {
	old := prev.PaddedHeight
	if cur.PaddedHeight > old {
		logStderr(fmt.Sprintf("padded height regressed: %d -> %d", old, cur.PaddedHeight))
	} else if cur.PaddedHeight < old {
		logStderr(fmt.Sprintf("padded height improved: %d -> %d", old, cur.PaddedHeight))
	} else {
		logStderr(fmt.Sprintf("padded height unchanged: %d", cur.PaddedHeight))
	}
}

// --- check ---

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("check: missing file or project dir argument")
	}
	path, err := sourceFile(fs.Arg(0))
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if _, err := trident.Compile(path, src, trident.Options{}); err != nil {
		if ce, ok := err.(*trident.CompileError); ok {
			for _, d := range ce.Diagnostics {
				logStderr(d)
			}
		}
		return err
	}
	logStderr(fmt.Sprintf("%s: ok", path))
	return nil
}

// --- fmt ---

func runFmt(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	checkOnly := fs.Bool("check", false, "report whether reformatting is needed without writing")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("fmt: missing file or dir argument")
	}

	paths, err := triFiles(fs.Arg(0))
	if err != nil {
		return err
	}

	dirty := false
	for _, path := range paths {
		file, src, bag, err := parseFile(path)
		if err != nil {
			return err
		}
		if bag.HasErrors() {
			reportDiagnostics(bag)
			return fmt.Errorf("fmt: %s has parse errors", path)
		}
		formatted := format.File(file)
		if formatted == string(src) {
			continue
		}
		dirty = true
		if *checkOnly {
			logStderr(fmt.Sprintf("%s: needs formatting", path))
			continue
		}
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		logStderr(fmt.Sprintf("formatted %s", path))
	}
	if *checkOnly && dirty {
		return fmt.Errorf("fmt --check: one or more files need formatting")
	}
	return nil
}

func triFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".tri") {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// --- test ---

// runTest compiles the file and symbolically executes every #[test]
// function (§4.3.1's executor is the nearest thing this compiler has
// to a concrete interpreter): a function whose constraint system comes
// back Safe under static+random+BMC verification passes, anything else
// fails and is reported with its violating severity.
func runTest(args []string) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("test: missing file or project dir argument")
	}
	path, err := sourceFile(fs.Arg(0))
	if err != nil {
		return err
	}
	file, _, bag, err := parseFile(path)
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		reportDiagnostics(bag)
		return fmt.Errorf("test: %s has parse errors", path)
	}

	var testNames []string
	for _, item := range file.Items {
		if fn, ok := item.(*ast.FnDef); ok && ast.HasAttr(fn.Attrs, "test") {
			testNames = append(testNames, fn.Name)
		}
	}
	if len(testNames) == 0 {
		logStderr("no #[test] functions found")
		return nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	result, err := trident.Compile(path, src, trident.Options{Target: "triton", RunVerify: true})
	if err != nil {
		if ce, ok := err.(*trident.CompileError); ok {
			for _, d := range ce.Diagnostics {
				logStderr(d)
			}
		}
		return err
	}

	failures := 0
	for _, name := range testNames {
		v, ok := result.Verdicts[name]
		if !ok {
			logStderr(fmt.Sprintf("FAIL %s: could not build a constraint system", name))
			failures++
			continue
		}
		if v.Severity == verify.Safe {
			logStderr(fmt.Sprintf("PASS %s", name))
		} else {
			logStderr(fmt.Sprintf("FAIL %s: %s", name, v.Severity))
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("test: %d of %d tests failed", failures, len(testNames))
	}
	return nil
}

// --- doc ---

func runDoc(args []string) error {
	fs := flag.NewFlagSet("doc", flag.ExitOnError)
	output := fs.String("output", "", "markdown output path (default stdout)")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("doc: missing file or project dir argument")
	}
	path, err := sourceFile(fs.Arg(0))
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	result, err := trident.Compile(path, src, trident.Options{ComputeCosts: true})
	if err != nil {
		if ce, ok := err.(*trident.CompileError); ok {
			for _, d := range ce.Diagnostics {
				logStderr(d)
			}
		}
		return err
	}
	bag := &diag.Bag{}
	file := parser.Parse(path, src, bag)
	md := docgen.File(filepath.Base(path), file, result.Cost)

	if *output == "" {
		fmt.Print(md)
		return nil
	}
	return os.WriteFile(*output, []byte(md), 0o644)
}

// --- verify ---

func runVerifyCmd(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("verify: missing file or project dir argument")
	}
	path, err := sourceFile(fs.Arg(0))
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	result, err := trident.Compile(path, src, trident.Options{RunVerify: true})
	if err != nil {
		if ce, ok := err.(*trident.CompileError); ok {
			for _, d := range ce.Diagnostics {
				logStderr(d)
			}
		}
		return err
	}

	names := make([]string, 0, len(result.Verdicts))
	for name := range result.Verdicts {
		names = append(names, name)
	}
	sort.Strings(names)

	unsafe := 0
	for _, name := range names {
		v := result.Verdicts[name]
		logStderr(fmt.Sprintf("%s: %s", name, v.Severity))
		if v.Severity != verify.Safe {
			unsafe++
		}
	}
	if unsafe > 0 {
		return fmt.Errorf("verify: %d of %d functions failed verification", unsafe, len(names))
	}
	return nil
}

// --- hash ---

func runHash(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("hash: missing file or project dir argument")
	}
	path, err := sourceFile(fs.Arg(0))
	if err != nil {
		return err
	}
	file, _, bag, err := parseFile(path)
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		reportDiagnostics(bag)
		return fmt.Errorf("hash: %s has parse errors", path)
	}
	canonical := []byte(format.File(file))
	fmt.Printf("source_hash %s\n", manifest.SourceHash(canonical))

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	result, err := trident.Compile(path, src, trident.Options{})
	if err != nil {
		return err
	}
	fmt.Printf("program_digest %s\n", manifest.ProgramDigest([]byte(strings.Join(result.Assembly, "\n"))))
	return nil
}

// --- bench ---

func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("bench: missing directory argument")
	}
	dir := fs.Arg(0)
	paths, err := triFiles(dir)
	if err != nil {
		return err
	}
	regressions := 0
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		result, err := trident.Compile(path, src, trident.Options{})
		if err != nil {
			logStderr(fmt.Sprintf("%s: compile failed: %v", path, err))
			regressions++
			continue
		}
		baselinePath := strings.TrimSuffix(path, filepath.Ext(path)) + ".tasm"
		baseline, err := os.ReadFile(baselinePath)
		if err != nil {
			logStderr(fmt.Sprintf("%s: no baseline at %s, skipping", path, baselinePath))
			continue
		}
		got := strings.Join(result.Assembly, "\n") + "\n"
		if got != string(baseline) {
			logStderr(fmt.Sprintf("%s: assembly differs from baseline", path))
			regressions++
		} else {
			logStderr(fmt.Sprintf("%s: matches baseline", path))
		}
	}
	if regressions > 0 {
		return fmt.Errorf("bench: %d file(s) differ from their baseline", regressions)
	}
	return nil
}

// --- lsp ---

func runLsp(args []string) error {
	fs := flag.NewFlagSet("lsp", flag.ExitOnError)
	fs.Parse(args)
	server := lsp.New(os.Stdin, os.Stdout)
	logStderr(fmt.Sprintf("lsp server starting at %s", time.Now().UTC().Format(time.RFC3339)))
	return server.Serve()
}
