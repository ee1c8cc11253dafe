package tomlkit

import (
	"strings"
	"testing"
)

func TestParseSectionsAndScalars(t *testing.T) {
	doc, err := Parse(strings.NewReader(`
# a comment
[project]
name = "demo"
retries = 3
strict = true

[project.nested]
flag = false
`))
	if err != nil {
		t.Fatalf("Parse: unexpected error %v", err)
	}
	if got := doc.GetString("project", "name", ""); got != "demo" {
		t.Fatalf("GetString(name) = %q, want demo", got)
	}
	if got := doc.GetInt("project", "retries", -1); got != 3 {
		t.Fatalf("GetInt(retries) = %d, want 3", got)
	}
	if got := doc.GetBool("project", "strict", false); !got {
		t.Fatalf("GetBool(strict) = false, want true")
	}
	if got := doc.GetBool("project.nested", "flag", true); got {
		t.Fatalf("GetBool(project.nested.flag) = true, want false")
	}
}

func TestParseStringArray(t *testing.T) {
	doc, err := Parse(strings.NewReader(`
[targets.release]
flags = ["opt", "no_debug_asserts"]
`))
	if err != nil {
		t.Fatalf("Parse: unexpected error %v", err)
	}
	flags := doc.GetStringArray("targets.release", "flags")
	if len(flags) != 2 || flags[0] != "opt" || flags[1] != "no_debug_asserts" {
		t.Fatalf("GetStringArray(flags) = %v, want [opt no_debug_asserts]", flags)
	}
}

func TestParseLargeUnsignedIntegerOverflowingInt64(t *testing.T) {
	doc, err := Parse(strings.NewReader(`
[field]
prime = 18446744069414584321
`))
	if err != nil {
		t.Fatalf("Parse: unexpected error %v", err)
	}
	if got := doc.GetUint64("field", "prime", 0); got != 18446744069414584321 {
		t.Fatalf("GetUint64(prime) = %d, want the Goldilocks prime", got)
	}
}

func TestParseRejectsUnterminatedSection(t *testing.T) {
	if _, err := Parse(strings.NewReader("[project\nname = \"x\"\n")); err == nil {
		t.Fatalf("Parse: expected an error for an unterminated section header")
	}
}

func TestParseRejectsMissingEquals(t *testing.T) {
	if _, err := Parse(strings.NewReader("[project]\njust-a-word\n")); err == nil {
		t.Fatalf("Parse: expected an error for a line with no '='")
	}
}

func TestParseArrayRespectsQuotedCommas(t *testing.T) {
	doc, err := Parse(strings.NewReader(`
[x]
vals = ["a,b", "c"]
`))
	if err != nil {
		t.Fatalf("Parse: unexpected error %v", err)
	}
	vals := doc.GetStringArray("x", "vals")
	if len(vals) != 2 || vals[0] != "a,b" {
		t.Fatalf("GetStringArray(vals) = %v, want [a,b c]", vals)
	}
}
