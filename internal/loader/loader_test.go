package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
)

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestCompileRootSimpleFunction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.wl", `function main(): Int = 1;`)

	sink := errors.NewSink()
	l := NewPackageLoader(sink, []string{dir})
	pkg, err := l.CompileRoot("main", filepath.Join(dir, "main.wl"))
	if err != nil {
		t.Fatalf("CompileRoot: %v", err)
	}
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	if pkg.Phase != ast.Typecked {
		t.Fatalf("got phase %v, want Typecked", pkg.Phase)
	}
}

func TestLoadPackageMemoizes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "helper.wl", `function id(x: Int): Int = x;`)

	sink := errors.NewSink()
	l := NewPackageLoader(sink, []string{dir})

	first, err := l.LoadPackage("helper", ast.Span{})
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}
	second, err := l.LoadPackage("helper", ast.Span{})
	if err != nil {
		t.Fatalf("LoadPackage (second): %v", err)
	}
	if first != second {
		t.Fatalf("expected memoized package to be returned by reference")
	}
}

func TestLoadPackageNotFound(t *testing.T) {
	dir := t.TempDir()
	sink := errors.NewSink()
	l := NewPackageLoader(sink, []string{dir})

	if _, err := l.LoadPackage("missing", ast.Span{}); err == nil {
		t.Fatalf("expected an error loading a nonexistent package")
	}
	if !sink.HasErrors() || sink.Reports()[0].Code != errors.MOD002 {
		t.Fatalf("expected %s, got %v", errors.MOD002, sink.Reports())
	}
}

func TestLoadPackageCycleDetected(t *testing.T) {
	dir := t.TempDir()
	sink := errors.NewSink()
	l := NewPackageLoader(sink, []string{dir})

	l.loading["a"] = true
	l.loadStack = []string{"a"}

	if _, err := l.LoadPackage("a", ast.Span{}); err == nil {
		t.Fatalf("expected a cycle error")
	}
	if !sink.HasErrors() || sink.Reports()[0].Code != errors.MOD003 {
		t.Fatalf("expected %s, got %v", errors.MOD003, sink.Reports())
	}
}

func TestExpandFileBasedModsSplicesSiblingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.wl", `mod sub;
function main(): Int = sub.one();`)
	writeFile(t, dir, "sub.wl", `function one(): Int = 1;`)

	sink := errors.NewSink()
	l := NewPackageLoader(sink, []string{dir})
	pkg, err := l.CompileRoot("main", filepath.Join(dir, "main.wl"))
	if err != nil {
		t.Fatalf("CompileRoot: %v", err)
	}
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	if pkg.Phase != ast.Typecked {
		t.Fatalf("got phase %v, want Typecked", pkg.Phase)
	}
}

func TestExpandFileBasedModsMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.wl", `mod sub;
function main(): Int = 1;`)

	sink := errors.NewSink()
	l := NewPackageLoader(sink, []string{dir})
	if _, err := l.CompileRoot("main", filepath.Join(dir, "main.wl")); err == nil {
		t.Fatalf("expected an error for the missing sub.wl")
	}
	if !sink.HasErrors() || sink.Reports()[0].Code != errors.MOD002 {
		t.Fatalf("expected %s, got %v", errors.MOD002, sink.Reports())
	}
}

func TestExternLoadsThroughSharedResolveContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "other.wl", `function double(x: Int): Int = x + x;`)
	writeFile(t, dir, "main.wl", `extern mod other;
function main(): Int = other.double(21);`)

	sink := errors.NewSink()
	l := NewPackageLoader(sink, []string{dir})
	pkg, err := l.CompileRoot("main", filepath.Join(dir, "main.wl"))
	if err != nil {
		t.Fatalf("CompileRoot: %v", err)
	}
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	if pkg.Phase != ast.Typecked {
		t.Fatalf("got phase %v, want Typecked", pkg.Phase)
	}
	if l.ResolveContext().Packages["other"] == nil {
		t.Fatalf("expected the extern package to be registered in the shared resolve context")
	}
}
