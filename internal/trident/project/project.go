// Package project loads a project's trident.toml manifest: the name,
// entry file, default VM target, per-profile cfg flags, and the
// opaque dependency table passed through to the registry client
// untouched.
package project

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tridentlang/trident/internal/trident/tomlkit"
)

// DefaultEntry is the entry file name used when trident.toml omits one.
const DefaultEntry = "main.tri"

// ManifestFileName is the name a project manifest is always loaded from.
const ManifestFileName = "trident.toml"

// Manifest is the parsed contents of a trident.toml file.
type Manifest struct {
	Name    string
	Version string
	Entry   string
	Target  string

	// Profiles maps a [targets.<PROFILE>] section name to the cfg
	// flags active under that profile.
	Profiles map[string][]string

	// Dependencies is opaque to the core compiler: each value is
	// handed to the registry client verbatim.
	Dependencies map[string]string

	// Dir is the project root the manifest was loaded from.
	Dir string
}

// Default returns a manifest for a freshly initialized project (the
// shape `trident init <name>` writes out).
func Default(name string) *Manifest {
	return &Manifest{
		Name:         name,
		Entry:        DefaultEntry,
		Target:       "",
		Profiles:     map[string][]string{},
		Dependencies: map[string]string{},
	}
}

// Validate checks the manifest's required fields are present.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return errors.New("project: trident.toml: [project].name is required")
	}
	if m.Entry == "" {
		return errors.New("project: trident.toml: [project].entry must not be empty")
	}
	return nil
}

// WithVersion sets the manifest's version and returns the manifest for
// chaining.
func (m *Manifest) WithVersion(v string) *Manifest {
	m.Version = v
	return m
}

// WithTarget sets the manifest's default VM target and returns the
// manifest for chaining.
func (m *Manifest) WithTarget(t string) *Manifest {
	m.Target = t
	return m
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	out := *m
	out.Profiles = make(map[string][]string, len(m.Profiles))
	for k, v := range m.Profiles {
		out.Profiles[k] = append([]string(nil), v...)
	}
	out.Dependencies = make(map[string]string, len(m.Dependencies))
	for k, v := range m.Dependencies {
		out.Dependencies[k] = v
	}
	return &out
}

// EntryPath resolves the manifest's entry file relative to Dir.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Entry)
}

// Load reads and parses trident.toml from projectDir.
func Load(projectDir string) (*Manifest, error) {
	path := filepath.Join(projectDir, ManifestFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "project: opening %s", path)
	}
	defer f.Close()

	doc, err := tomlkit.Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "project: parsing %s", path)
	}

	m := &Manifest{
		Dir:          projectDir,
		Entry:        DefaultEntry,
		Profiles:     map[string][]string{},
		Dependencies: map[string]string{},
	}
	m.Name = doc.GetString("project", "name", "")
	m.Version = doc.GetString("project", "version", "")
	if entry := doc.GetString("project", "entry", ""); entry != "" {
		m.Entry = entry
	}
	m.Target = doc.GetString("project", "target", "")

	for _, section := range doc.Order {
		if profile, ok := profileName(section); ok {
			m.Profiles[profile] = doc.GetStringArray(section, "flags")
		}
	}

	if deps, ok := doc.Sections["dependencies"]; ok {
		for key, v := range deps {
			m.Dependencies[key] = dependencyString(v)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func profileName(section string) (string, bool) {
	const prefix = "targets."
	if len(section) <= len(prefix) || section[:len(prefix)] != prefix {
		return "", false
	}
	return section[len(prefix):], true
}

// dependencyString renders an opaque dependency table value back to a
// plain string for pass-through to the registry client, which expects
// a version string or similar short descriptor rather than a
// tomlkit.Value.
func dependencyString(v tomlkit.Value) string {
	switch v.Kind {
	case tomlkit.KindString:
		return v.Str
	case tomlkit.KindInt:
		return itoa(v.Int)
	case tomlkit.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
