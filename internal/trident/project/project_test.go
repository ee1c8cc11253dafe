package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesFullManifest(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, ManifestFileName), `
# a sample project
[project]
name = "demo"
version = "0.1.0"
entry = "lib.tri"
target = "triton"

[targets.release]
flags = ["opt", "no_debug_asserts"]

[targets.debug]
flags = ["debug_asserts"]

[dependencies]
merkle-utils = "1.2.0"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: unexpected error %v", err)
	}
	if m.Name != "demo" || m.Version != "0.1.0" || m.Entry != "lib.tri" || m.Target != "triton" {
		t.Fatalf("Load parsed wrong top-level fields: %+v", m)
	}
	if len(m.Profiles["release"]) != 2 || m.Profiles["release"][0] != "opt" {
		t.Fatalf("Load parsed wrong release profile: %+v", m.Profiles["release"])
	}
	if len(m.Profiles["debug"]) != 1 {
		t.Fatalf("Load parsed wrong debug profile: %+v", m.Profiles["debug"])
	}
	if m.Dependencies["merkle-utils"] != "1.2.0" {
		t.Fatalf("Load parsed wrong dependency table: %+v", m.Dependencies)
	}
}

func TestLoadDefaultsEntryWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, ManifestFileName), `
[project]
name = "demo"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: unexpected error %v", err)
	}
	if m.Entry != DefaultEntry {
		t.Fatalf("Load entry = %q, want default %q", m.Entry, DefaultEntry)
	}
}

func TestLoadRequiresName(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, ManifestFileName), `
[project]
version = "0.1.0"
`)

	if _, err := Load(dir); err == nil {
		t.Fatalf("Load: expected an error for a missing [project].name")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := Default("demo")
	m.Profiles["release"] = []string{"opt"}
	m.Dependencies["x"] = "1.0.0"

	clone := m.Clone()
	clone.Profiles["release"][0] = "mutated"
	clone.Dependencies["x"] = "2.0.0"

	if m.Profiles["release"][0] != "opt" {
		t.Fatalf("Clone shared the Profiles slice with the original")
	}
	if m.Dependencies["x"] != "1.0.0" {
		t.Fatalf("Clone shared the Dependencies map with the original")
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
