package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewManifest(t *testing.T) {
	m := New("app", "main.wl")

	if m.Schema != SchemaVersion {
		t.Errorf("Schema = %s, want %s", m.Schema, SchemaVersion)
	}
	if m.Name != "app" {
		t.Errorf("Name = %s, want app", m.Name)
	}
	if m.Root != "main.wl" {
		t.Errorf("Root = %s, want main.wl", m.Root)
	}
}

func TestManifestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Manifest)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid manifest",
			modify:  func(m *Manifest) {},
			wantErr: false,
		},
		{
			name: "invalid schema version",
			modify: func(m *Manifest) {
				m.Schema = "wasmlet.manifest/v2"
			},
			wantErr: true,
			errMsg:  "unsupported schema version",
		},
		{
			name: "missing name",
			modify: func(m *Manifest) {
				m.Name = ""
			},
			wantErr: true,
			errMsg:  "missing name",
		},
		{
			name: "missing root",
			modify: func(m *Manifest) {
				m.Root = ""
			},
			wantErr: true,
			errMsg:  "missing root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("app", "main.wl")
			tt.modify(m)
			err := m.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.wl"), []byte(`function main(): Int = 0;`), 0o644)

	m := New("app", "main.wl")
	m.SearchPaths = []string{"vendor", "../shared"}
	path := filepath.Join(dir, DefaultFileName)
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if loaded.Name != "app" || loaded.Root != "main.wl" {
		t.Fatalf("unexpected round trip: %+v", loaded)
	}
	if len(loaded.SearchPaths) != 2 || loaded.SearchPaths[0] != "vendor" {
		t.Fatalf("unexpected search paths: %v", loaded.SearchPaths)
	}
}

func TestRootPathAndResolvedSearchPaths(t *testing.T) {
	dir := t.TempDir()
	m := New("app", "main.wl")
	m.SearchPaths = []string{"vendor"}
	path := filepath.Join(dir, DefaultFileName)
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if want := filepath.Join(dir, "main.wl"); loaded.RootPath() != want {
		t.Errorf("RootPath() = %s, want %s", loaded.RootPath(), want)
	}

	paths := loaded.ResolvedSearchPaths()
	if len(paths) != 2 || paths[0] != dir || paths[1] != filepath.Join(dir, "vendor") {
		t.Errorf("ResolvedSearchPaths() = %v", paths)
	}
}

func TestValidateAcceptsMissingSchema(t *testing.T) {
	m := &Manifest{Name: "app", Root: "main.wl"}
	if err := m.Validate(); err != nil {
		t.Errorf("empty schema should default-accept, got: %v", err)
	}
}
