package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompileWritesWat(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "main.wl")
	if err := os.WriteFile(root, []byte(`function add(a: Int, b: Int): Int = a + b;`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out := filepath.Join(dir, "out.wat")

	if err := compile(root, "main", []string{dir}, out, make(debugFlags)); err != nil {
		t.Fatalf("compile: %v", err)
	}

	wat, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading generated output: %v", err)
	}
	if !strings.Contains(string(wat), "(func $add") {
		t.Fatalf("expected generated WAT to contain function add, got:\n%s", wat)
	}
}

func TestCompileReportsTypeErrors(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "main.wl")
	if err := os.WriteFile(root, []byte(`function bad(): Int = "not an int";`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out := filepath.Join(dir, "out.wat")

	if err := compile(root, "main", []string{dir}, out, make(debugFlags)); err == nil {
		t.Fatalf("expected a type error, got none")
	}
}

func TestResolveInputsDefaultsNameFromFile(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "foo.wl")
	os.WriteFile(root, []byte(`function main(): Int = 0;`), 0o644)

	gotRoot, gotName, _, err := resolveInputs(root, "", "", nil, false)
	if err != nil {
		t.Fatalf("resolveInputs: %v", err)
	}
	if gotRoot != root {
		t.Errorf("root = %s, want %s", gotRoot, root)
	}
	if gotName != "foo" {
		t.Errorf("name = %s, want foo", gotName)
	}
}

func TestResolveInputsPrefersManifest(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "main.wl"), []byte(`function main(): Int = 0;`), 0o644)

	manifestContent := "schema: wasmlet.manifest/v1\nname: fromManifest\nroot: main.wl\n"
	os.WriteFile(filepath.Join(dir, "wasmlet.yaml"), []byte(manifestContent), 0o644)

	arg := filepath.Join(dir, "main.wl")
	_, gotName, _, err := resolveInputs(arg, "", "", nil, false)
	if err != nil {
		t.Fatalf("resolveInputs: %v", err)
	}
	if gotName != "fromManifest" {
		t.Errorf("name = %s, want fromManifest (manifest should win)", gotName)
	}
}

func TestDebugFlagsRejectsUnknownStage(t *testing.T) {
	d := make(debugFlags)
	if err := d.Set("bogus"); err == nil {
		t.Fatalf("expected an error for an unknown debug stage")
	}
	if err := d.Set("tokens,wat"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !d["tokens"] || !d["wat"] {
		t.Fatalf("expected both stages set, got %v", d)
	}
}
