package target

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveBuiltinForEmptyOrTritonName(t *testing.T) {
	for _, name := range []string{"", BuiltinName} {
		d, err := Resolve("/does/not/exist", name)
		if err != nil {
			t.Fatalf("Resolve(%q): unexpected error %v", name, err)
		}
		if d.Name != BuiltinName || d.SourcePath != "" {
			t.Fatalf("Resolve(%q) = %+v, want the built-in descriptor", name, d)
		}
	}
}

func TestResolveModernPathTakesPrecedenceOverLegacy(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "vm", "custom", "target.toml"), `
[target]
name = "custom"
architecture = "stack"

[stack]
depth = 8

[hash]
digest_width = 4

[extension_field]
degree = 2

[cost]
tables = ["processor", "hash"]
`)
	mustWriteFile(t, filepath.Join(root, "vm", "custom.toml"), `
[stack]
depth = 99
`)

	d, err := Resolve(root, "custom")
	if err != nil {
		t.Fatalf("Resolve: unexpected error %v", err)
	}
	if d.StackDepth != 8 || d.DigestWidth != 4 || d.ExtensionFieldDegree != 2 {
		t.Fatalf("Resolve loaded wrong descriptor: %+v", d)
	}
}

func TestResolveFallsBackToLegacyPath(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "vm", "legacyonly.toml"), `
[stack]
depth = 12
`)

	d, err := Resolve(root, "legacyonly")
	if err != nil {
		t.Fatalf("Resolve: unexpected error %v", err)
	}
	if d.StackDepth != 12 {
		t.Fatalf("Resolve did not load the legacy descriptor: %+v", d)
	}
}

func TestResolveParsesEmulatedFieldAndWarriorSections(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "vm", "exotic", "target.toml"), `
[target]
name = "exotic"

[warrior]
name = "co-processor"
crate = "exotic-warrior"
runner = true
prover = false

[emulated_field.bn254]
bits = 254
limbs = 4
`)

	d, err := Resolve(root, "exotic")
	if err != nil {
		t.Fatalf("Resolve: unexpected error %v", err)
	}
	if d.Warrior == nil || d.Warrior.Crate != "exotic-warrior" || !d.Warrior.Runner || d.Warrior.Prover {
		t.Fatalf("Resolve did not parse the warrior section correctly: %+v", d.Warrior)
	}
	if len(d.EmulatedFields) != 1 || d.EmulatedFields[0].Name != "bn254" || d.EmulatedFields[0].Bits != 254 {
		t.Fatalf("Resolve did not parse the emulated_field section correctly: %+v", d.EmulatedFields)
	}
}

func TestResolveRejectsPathTraversal(t *testing.T) {
	root := t.TempDir()
	if _, err := Resolve(root, "../../etc/passwd"); err == nil {
		t.Fatalf("Resolve: expected an error for a traversing target name")
	}
}

func TestResolveUnknownTargetErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := Resolve(root, "nope"); err == nil {
		t.Fatalf("Resolve: expected an error for an unresolvable target")
	}
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
