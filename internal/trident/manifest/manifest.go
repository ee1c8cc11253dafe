// Package manifest builds and serializes the deploy manifest (§6.4)
// and the standalone cost JSON document (§6.5) a `trident build
// --save-costs` run emits.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/cost"
)

// TargetInfo names the VM, OS, and architecture a program was built
// for. OS is nil for target-independent programs (the normal case:
// Trident programs run inside a VM, not a host OS).
type TargetInfo struct {
	VM           string  `json:"vm"`
	OS           *string `json:"os"`
	Architecture string  `json:"architecture"`
}

// FunctionInfo describes one compiled function in the deploy manifest.
type FunctionInfo struct {
	Name      string `json:"name"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// Manifest is the deploy manifest written to <name>.deploy/manifest.json.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	ProgramDigest   string            `json:"program_digest"`
	SourceHash      string            `json:"source_hash"`
	Target          TargetInfo        `json:"target"`
	Cost            map[string]uint64 `json:"cost"`
	Functions       []FunctionInfo    `json:"functions"`
	EntryPoint      string            `json:"entry_point"`
	BuiltAt         string            `json:"built_at"`
	CompilerVersion string            `json:"compiler_version"`
}

// Params bundles everything needed to build one deploy manifest.
type Params struct {
	Name            string
	Version         string
	Assembly        []byte
	CanonicalSource []byte
	VMTarget        string
	OS              *string
	Architecture    string
	Cost            cost.Report
	Functions       []FunctionInfo
	EntryPoint      string
	CompilerVersion string
	// BuildUnixSeconds is the Unix timestamp to stamp built_at with.
	// Taking it as a parameter (rather than calling time.Now internally)
	// keeps manifest-building a pure function, which is what the
	// content-hash-determinism property in §8.1 needs: the same program
	// built twice must be comparable byte-for-byte modulo this one field.
	BuildUnixSeconds int64
}

// Build assembles a Manifest from Params.
func Build(p Params) (*Manifest, error) {
	if p.Name == "" {
		return nil, errors.New("manifest: name must not be empty")
	}
	if p.EntryPoint == "" {
		return nil, errors.New("manifest: entry_point must not be empty")
	}

	costMap := make(map[string]uint64, len(p.Cost.Total)+1)
	for k, v := range p.Cost.Total {
		costMap[k] = v
	}
	costMap["padded_height"] = p.Cost.PaddedHeight

	return &Manifest{
		Name:            p.Name,
		Version:         p.Version,
		ProgramDigest:   ProgramDigest(p.Assembly),
		SourceHash:      SourceHash(p.CanonicalSource),
		Target:          TargetInfo{VM: p.VMTarget, OS: p.OS, Architecture: p.Architecture},
		Cost:            costMap,
		Functions:       p.Functions,
		EntryPoint:      p.EntryPoint,
		BuiltAt:         civilTimestamp(p.BuildUnixSeconds),
		CompilerVersion: p.CompilerVersion,
	}, nil
}

// MarshalJSON-ready encoding helper: indent for human-readable manifests.
func (m *Manifest) Encode() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "manifest: encoding")
	}
	return b, nil
}

// Decode parses a deploy manifest back from JSON.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "manifest: decoding")
	}
	return &m, nil
}

// FunctionSignature renders a Rust-like signature string for a function
// definition, the form recorded in FunctionInfo.Signature.
func FunctionSignature(fn *ast.FnDef) string {
	var sb strings.Builder
	sb.WriteString("fn ")
	sb.WriteString(fn.Name)
	if len(fn.SizeParams) > 0 {
		sb.WriteString("<")
		sb.WriteString(strings.Join(fn.SizeParams, ", "))
		sb.WriteString(">")
	}
	sb.WriteString("(")
	for i, p := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(typeString(p.Type))
	}
	sb.WriteString(")")
	if fn.Return != nil {
		sb.WriteString(" -> ")
		sb.WriteString(typeString(*fn.Return))
	}
	return sb.String()
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

// CostDocument is the standalone cost JSON shape (§6.5) written by
// `--save-costs` and read back by `--compare`. It is strictly tolerant
// of unknown columns: both the per-function and total maps are plain
// string-keyed maps, so a column this version of the compiler doesn't
// know about round-trips unchanged instead of causing a decode error.
type CostDocument struct {
	Total         map[string]uint64            `json:"total"`
	PaddedHeight  uint64                        `json:"padded_height"`
	PerFunction   map[string]map[string]uint64  `json:"per_function"`
}

// BuildCostDocument converts a cost.Report into its JSON shape.
func BuildCostDocument(r cost.Report) CostDocument {
	doc := CostDocument{
		Total:        map[string]uint64(r.Total),
		PaddedHeight: r.PaddedHeight,
		PerFunction:  make(map[string]map[string]uint64, len(r.FunctionCosts)),
	}
	for name, v := range r.FunctionCosts {
		doc.PerFunction[name] = map[string]uint64(v)
	}
	return doc
}

// Encode serializes a cost document.
func (c CostDocument) Encode() ([]byte, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "manifest: encoding cost document")
	}
	return b, nil
}

// DecodeCostDocument parses a cost document, tolerating unknown columns.
func DecodeCostDocument(data []byte) (CostDocument, error) {
	var c CostDocument
	if err := json.Unmarshal(data, &c); err != nil {
		return CostDocument{}, errors.Wrap(err, "manifest: decoding cost document")
	}
	return c, nil
}
