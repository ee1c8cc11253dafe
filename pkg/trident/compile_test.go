package trident

import (
	"strings"
	"testing"
)

func TestCompileSimpleFunctionProducesAssembly(t *testing.T) {
	src := `
fn main() {
    let a = 2;
    let b = 3;
    let c = a + b;
    write_io(c);
}
`
	result, err := Compile("main.tri", []byte(src), Options{Target: "triton", ComputeCosts: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(result.Assembly) == 0 {
		t.Fatal("expected non-empty assembly output")
	}
	joined := strings.Join(result.Assembly, "\n")
	if !strings.Contains(joined, "call main") {
		t.Fatalf("missing entry-point call in:\n%s", joined)
	}
	if result.Cost == nil {
		t.Fatal("expected a cost report when ComputeCosts is set")
	}
	if result.File.FunctionCount != 1 {
		t.Fatalf("FunctionCount = %d, want 1", result.File.FunctionCount)
	}
}

func TestCompileReportsParseErrorsAsCompileError(t *testing.T) {
	src := `fn main( { broken`
	_, err := Compile("bad.tri", []byte(src), Options{})
	if err == nil {
		t.Fatal("expected a parse error")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("error type = %T, want *CompileError", err)
	}
	if ce.Code != ErrParse {
		t.Fatalf("Code = %v, want ErrParse", ce.Code)
	}
}

func TestCompileRejectsUnknownTarget(t *testing.T) {
	src := `fn main() { let a = 1; }`
	_, err := Compile("main.tri", []byte(src), Options{Target: "nonexistent"})
	if err == nil {
		t.Fatal("expected an unsupported-target error")
	}
	ce, ok := err.(*CompileError)
	if !ok || ce.Code != ErrUnsupportedTarget {
		t.Fatalf("err = %v, want *CompileError{Code: ErrUnsupportedTarget}", err)
	}
}

func TestCompileRunsSpeculativeLoweringWhenRequested(t *testing.T) {
	src := `
fn main() {
    let a = 2;
    let b = 3;
    let c = a + b;
    write_io(c);
}
`
	result, err := Compile("main.tri", []byte(src), Options{Target: "triton", Speculative: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.NeuralReports == nil {
		t.Fatal("expected NeuralReports to be populated")
	}
	if _, ok := result.NeuralReports["main"]; !ok {
		t.Fatalf("expected a neural report for function main, got %v", result.NeuralReports)
	}
}

func TestCompileRunsVerifyWhenRequested(t *testing.T) {
	src := `
fn f(a: Field) -> Field {
    assert(a == 7);
    a
}
fn main() {
}
`
	result, err := Compile("main.tri", []byte(src), Options{Target: "triton", RunVerify: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.Verdicts == nil {
		t.Fatal("expected Verdicts to be populated")
	}
	if _, ok := result.Verdicts["f"]; !ok {
		t.Fatalf("expected a verdict for function f, got %v", result.Verdicts)
	}
}
