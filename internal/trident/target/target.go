// Package target loads the target descriptor that tells the compiler
// which backend architecture to lower to, what the field and proof
// table layout looks like, and how deep the operand stack runs. A
// target is resolved by name through a fixed search order: the
// built-in "triton" target, then a per-project vm/NAME/target.toml,
// then (for older project layouts) a legacy vm/NAME.toml file.
package target

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/tridentlang/trident/internal/trident/tomlkit"
)

// BuiltinName is the name of the target every project can resolve
// without a vm/ directory at all.
const BuiltinName = "triton"

// Architecture is the shape of the machine a backend lowers to.
type Architecture int

const (
	ArchStack Architecture = iota
	ArchRegister
	ArchTree
)

func parseArchitecture(s string) (Architecture, error) {
	switch s {
	case "", "stack":
		return ArchStack, nil
	case "register":
		return ArchRegister, nil
	case "tree":
		return ArchTree, nil
	default:
		return 0, errors.Errorf("target: unknown architecture %q (want stack, register, or tree)", s)
	}
}

func (a Architecture) String() string {
	switch a {
	case ArchRegister:
		return "register"
	case ArchTree:
		return "tree"
	default:
		return "stack"
	}
}

// EmulatedField describes one [emulated_field.<name>] section: a field
// extension simulated on top of the target's native field, for
// intrinsics that need a wider modulus than the native one provides.
type EmulatedField struct {
	Name  string
	Bits  int
	Limbs int
}

// Warrior describes an optional external prover/runner crate a target
// delegates proving or execution to, when the target isn't self-hosted.
type Warrior struct {
	Name   string
	Crate  string
	Runner bool
	Prover bool
}

// Descriptor describes one compilation target: a plain struct of typed
// fields, a Default constructor, and a Validate method, sourced from a
// TOML file instead of hardcoded.
type Descriptor struct {
	Name             string
	DisplayName      string
	Architecture     Architecture
	OutputExtension  string

	FieldPrime uint64
	FieldBits  int
	FieldLimbs int

	StackDepth   int
	SpillRAMBase uint64

	DigestWidth int
	HashRate    int

	ExtensionFieldDegree int

	CostTables []string

	Warrior        *Warrior
	EmulatedFields []EmulatedField

	// SourcePath is empty for the built-in target, otherwise the file it
	// was loaded from (used only for diagnostics).
	SourcePath string
}

// DefaultDescriptor returns the built-in "triton" target: a 16-deep
// stack machine over the Goldilocks field (p = 2^64 - 2^32 + 1) with a
// 5-element digest and a 3-element extension field.
func DefaultDescriptor() *Descriptor {
	return &Descriptor{
		Name:            BuiltinName,
		DisplayName:     "Triton VM",
		Architecture:    ArchStack,
		OutputExtension: "tasm",

		FieldPrime: 0xFFFFFFFF00000001,
		FieldBits:  64,
		FieldLimbs: 1,

		StackDepth:   16,
		SpillRAMBase: 1 << 32,

		DigestWidth: 5,
		HashRate:    10,

		ExtensionFieldDegree: 3,

		CostTables: []string{"processor", "hash", "u32", "op_stack", "ram", "jump_stack"},
	}
}

// Validate checks the descriptor's fields are internally consistent.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("target: name must not be empty")
	}
	if d.StackDepth <= 0 {
		return errors.Errorf("target %q: stack.depth must be positive, got %d", d.Name, d.StackDepth)
	}
	if d.FieldPrime == 0 {
		return errors.Errorf("target %q: field.prime must not be zero", d.Name)
	}
	if d.DigestWidth <= 0 {
		return errors.Errorf("target %q: hash.digest_width must be positive, got %d", d.Name, d.DigestWidth)
	}
	if d.ExtensionFieldDegree <= 0 {
		return errors.Errorf("target %q: extension_field.degree must be positive, got %d", d.Name, d.ExtensionFieldDegree)
	}
	if len(d.CostTables) == 0 {
		return errors.Errorf("target %q: cost.tables must declare at least one proof table", d.Name)
	}
	for _, ef := range d.EmulatedFields {
		if ef.Bits <= 0 || ef.Limbs <= 0 {
			return errors.Errorf("target %q: emulated_field.%s must have positive bits and limbs", d.Name, ef.Name)
		}
	}
	return nil
}

// Resolve finds a target by name, following the resolution order: the
// built-in target (if name matches it or name is empty), then
// <projectRoot>/vm/<name>/target.toml, then the legacy
// <projectRoot>/vm/<name>.toml.
func Resolve(projectRoot, name string) (*Descriptor, error) {
	if name == "" || name == BuiltinName {
		return DefaultDescriptor(), nil
	}
	if err := rejectTraversal(name); err != nil {
		return nil, err
	}

	modernPath := filepath.Join(projectRoot, "vm", name, "target.toml")
	if d, err := loadIfExists(modernPath, name); err != nil {
		return nil, err
	} else if d != nil {
		return d, nil
	}

	legacyPath := filepath.Join(projectRoot, "vm", name+".toml")
	if d, err := loadIfExists(legacyPath, name); err != nil {
		return nil, err
	} else if d != nil {
		return d, nil
	}

	return nil, errors.Errorf("target: no descriptor found for %q (checked built-in, %s, %s)", name, modernPath, legacyPath)
}

func loadIfExists(path, name string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "target: opening %s", path)
	}
	defer f.Close()

	doc, err := tomlkit.Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "target: parsing %s", path)
	}

	d := DefaultDescriptor()
	d.Name = doc.GetString("target", "name", name)
	d.DisplayName = doc.GetString("target", "display_name", d.DisplayName)
	d.OutputExtension = doc.GetString("target", "output_extension", d.OutputExtension)
	d.SourcePath = path

	arch, err := parseArchitecture(doc.GetString("target", "architecture", d.Architecture.String()))
	if err != nil {
		return nil, err
	}
	d.Architecture = arch

	d.FieldBits = int(doc.GetInt("field", "bits", int64(d.FieldBits)))
	d.FieldLimbs = int(doc.GetInt("field", "limbs", int64(d.FieldLimbs)))
	d.FieldPrime = doc.GetUint64("field", "prime", d.FieldPrime)

	d.StackDepth = int(doc.GetInt("stack", "depth", int64(d.StackDepth)))
	d.SpillRAMBase = doc.GetUint64("stack", "spill_ram_base", d.SpillRAMBase)

	d.DigestWidth = int(doc.GetInt("hash", "digest_width", int64(d.DigestWidth)))
	d.HashRate = int(doc.GetInt("hash", "rate", int64(d.HashRate)))

	d.ExtensionFieldDegree = int(doc.GetInt("extension_field", "degree", int64(d.ExtensionFieldDegree)))

	if tables := doc.GetStringArray("cost", "tables"); len(tables) > 0 {
		d.CostTables = tables
	}

	if _, ok := doc.Sections["warrior"]; ok {
		d.Warrior = &Warrior{
			Name:   doc.GetString("warrior", "name", ""),
			Crate:  doc.GetString("warrior", "crate", ""),
			Runner: doc.GetBool("warrior", "runner", false),
			Prover: doc.GetBool("warrior", "prover", false),
		}
	}

	for _, section := range doc.Order {
		const prefix = "emulated_field."
		if !strings.HasPrefix(section, prefix) {
			continue
		}
		efName := strings.TrimPrefix(section, prefix)
		d.EmulatedFields = append(d.EmulatedFields, EmulatedField{
			Name:  efName,
			Bits:  int(doc.GetInt(section, "bits", 0)),
			Limbs: int(doc.GetInt(section, "limbs", 0)),
		})
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// rejectTraversal rejects a target name containing ".." path
// components before it's ever joined into a filesystem path, so a
// malicious or malformed target name can't escape the project root.
func rejectTraversal(name string) error {
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return errors.Errorf("target: name %q escapes the project root", name)
		}
	}
	return nil
}
