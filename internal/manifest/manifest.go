// Package manifest provides the project manifest for a wasmlet package: the
// wasmlet.yaml file that names the package, its root source file, and the
// search paths its `extern mod` items resolve against. Grounded on the
// teacher's internal/manifest/manifest.go (Load/Save/Validate over a
// versioned schema, defaulted via New), scaled from AILANG's JSON example
// manifest to a YAML project manifest — wasmlet.yaml is hand-edited by a
// package author rather than machine-generated, so YAML's comments and bare
// scalars fit the job better than AILANG's machine-written JSON.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is the manifest format this package reads and writes.
const SchemaVersion = "wasmlet.manifest/v1"

// DefaultFileName is the manifest file CompileRoot-driving tools look for
// in a project directory when no path is given explicitly.
const DefaultFileName = "wasmlet.yaml"

// Manifest describes a wasmlet package's compilation inputs.
type Manifest struct {
	Schema string `yaml:"schema"`

	// Name is the package's bare name, passed to loader.CompileRoot and
	// used as the extern name other packages refer to it by.
	Name string `yaml:"name"`

	// Root is the package's entry source file, relative to the manifest's
	// own directory.
	Root string `yaml:"root"`

	// SearchPaths lists directories (relative to the manifest's own
	// directory, unless absolute) checked for NAME.wl when resolving an
	// `extern mod NAME;` item, in order. Mirrors
	// loader.PackageLoader.searchPaths directly.
	SearchPaths []string `yaml:"search_paths,omitempty"`

	// NoStdlib records the standard-library toggle. It is stored and
	// serialized only: ResolvedSearchPaths does not read it, and no stdlib
	// search path is prepended whatever its value.
	NoStdlib bool `yaml:"no_stdlib,omitempty"`

	// dir is the directory the manifest was loaded from, used to resolve
	// Root and SearchPaths to absolute paths. Not serialized.
	dir string
}

// New returns a Manifest with the current schema version and no other
// defaults; callers fill in Name/Root themselves.
func New(name, root string) *Manifest {
	return &Manifest{
		Schema: SchemaVersion,
		Name:   name,
		Root:   root,
	}
}

// Load reads and validates a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	m.dir = filepath.Dir(path)

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}
	return &m, nil
}

// LoadDir loads DefaultFileName from dir.
func LoadDir(dir string) (*Manifest, error) {
	return Load(filepath.Join(dir, DefaultFileName))
}

// Save writes the manifest to path as YAML.
func (m *Manifest) Save(path string) error {
	if m.Schema == "" {
		m.Schema = SchemaVersion
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the manifest for the fields a driver needs before it can
// call loader.NewPackageLoader/CompileRoot.
func (m *Manifest) Validate() error {
	if m.Schema != "" && m.Schema != SchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected %s)", m.Schema, SchemaVersion)
	}
	if m.Name == "" {
		return fmt.Errorf("missing name")
	}
	if m.Root == "" {
		return fmt.Errorf("missing root")
	}
	return nil
}

// RootPath returns the package's entry file as an absolute path.
func (m *Manifest) RootPath() string {
	if filepath.IsAbs(m.Root) {
		return m.Root
	}
	return filepath.Join(m.dir, m.Root)
}

// ResolvedSearchPaths returns SearchPaths resolved to absolute paths
// (relative to the manifest's directory), with the manifest's own
// directory always included first so sibling .wl files resolve without
// being listed explicitly.
func (m *Manifest) ResolvedSearchPaths() []string {
	paths := []string{m.dir}
	for _, p := range m.SearchPaths {
		if filepath.IsAbs(p) {
			paths = append(paths, p)
			continue
		}
		paths = append(paths, filepath.Join(m.dir, p))
	}
	return paths
}
