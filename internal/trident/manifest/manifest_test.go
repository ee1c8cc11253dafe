package manifest

import (
	"testing"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/cost"
)

func TestCivilTimestampKnownEpoch(t *testing.T) {
	// 2024-01-01T00:00:00Z is 19723 days after the epoch.
	got := civilTimestamp(19723 * 86400)
	want := "2024-01-01T00:00:00Z"
	if got != want {
		t.Fatalf("civilTimestamp = %q, want %q", got, want)
	}
}

func TestCivilTimestampMidDay(t *testing.T) {
	got := civilTimestamp(19723*86400 + 3661)
	want := "2024-01-01T01:01:01Z"
	if got != want {
		t.Fatalf("civilTimestamp = %q, want %q", got, want)
	}
}

func TestProgramDigestIsDeterministic(t *testing.T) {
	assembly := []byte("push 1 push 2 add halt")
	a := ProgramDigest(assembly)
	b := ProgramDigest(assembly)
	if a != b {
		t.Fatalf("ProgramDigest not deterministic: %q vs %q", a, b)
	}
	if ProgramDigest([]byte("push 1 push 3 add halt")) == a {
		t.Fatalf("ProgramDigest collided on different input")
	}
}

func TestSourceHashIsDeterministic(t *testing.T) {
	src := []byte("fn main() {}")
	if SourceHash(src) != SourceHash(src) {
		t.Fatalf("SourceHash not deterministic")
	}
	if SourceHash(src) == SourceHash([]byte("fn other() {}")) {
		t.Fatalf("SourceHash collided on different input")
	}
}

func TestBuildRequiresNameAndEntryPoint(t *testing.T) {
	if _, err := Build(Params{EntryPoint: "main"}); err == nil {
		t.Fatalf("Build: expected an error for a missing name")
	}
	if _, err := Build(Params{Name: "demo"}); err == nil {
		t.Fatalf("Build: expected an error for a missing entry_point")
	}
}

func TestBuildIncludesPaddedHeightInCost(t *testing.T) {
	m, err := Build(Params{
		Name:             "demo",
		EntryPoint:       "main",
		VMTarget:         "triton",
		Architecture:     "stack",
		Cost:             cost.Report{Total: cost.Vector{"processor": 10}, PaddedHeight: 16},
		CompilerVersion:  "0.1.0",
		BuildUnixSeconds: 0,
	})
	if err != nil {
		t.Fatalf("Build: unexpected error %v", err)
	}
	if m.Cost["padded_height"] != 16 || m.Cost["processor"] != 10 {
		t.Fatalf("Build: wrong cost map %+v", m.Cost)
	}
	if m.BuiltAt != "1970-01-01T00:00:00Z" {
		t.Fatalf("Build: wrong built_at %q", m.BuiltAt)
	}
}

func TestFunctionSignatureRendersParamsAndReturn(t *testing.T) {
	ret := ast.Type{Name: "Field"}
	fn := &ast.FnDef{
		Name: "add",
		Params: []ast.Param{
			{Name: "a", Type: ast.Type{Name: "Field"}},
			{Name: "b", Type: ast.Type{Name: "Field"}},
		},
		Return: &ret,
	}
	got := FunctionSignature(fn)
	want := "fn add(a: Field, b: Field) -> Field"
	if got != want {
		t.Fatalf("FunctionSignature = %q, want %q", got, want)
	}
}

func TestCostDocumentRoundTripsUnknownColumns(t *testing.T) {
	doc := CostDocument{
		Total:        map[string]uint64{"processor": 5, "some_future_column": 7},
		PaddedHeight: 8,
		PerFunction:  map[string]map[string]uint64{"main": {"processor": 5}},
	}
	encoded, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode: unexpected error %v", err)
	}
	decoded, err := DecodeCostDocument(encoded)
	if err != nil {
		t.Fatalf("DecodeCostDocument: unexpected error %v", err)
	}
	if decoded.Total["some_future_column"] != 7 {
		t.Fatalf("DecodeCostDocument dropped an unknown column: %+v", decoded.Total)
	}
}
