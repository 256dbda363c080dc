// Package loader drives the lex -> parse -> build -> resolve -> typecheck
// pipeline for every package in one compilation: the root package the CLI
// was invoked on, plus every `extern mod NAME;` dependency it (transitively)
// references. Grounded on the teacher's internal/module/loader.go (a cache
// keyed by module identity plus a load-stack for cycle detection) and
// internal/loader/loader.go (mapping a bare module name to a file on disk),
// both scaled down to wasmlet's flat, single-file-per-package model.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/build"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/lexer"
	"github.com/wasmlet/wasmlet/internal/parser"
	"github.com/wasmlet/wasmlet/internal/resolve"
	"github.com/wasmlet/wasmlet/internal/typeck"
)

// PackageLoader satisfies resolve.Loader. It memoizes package loads by
// name, detects load cycles, and shares one resolve.Context/typeck.Context
// across every package it drives so cross-package lookups (an extern whose
// own items reference a further extern, or a dependency's exported
// signatures) see every package loaded so far in this compilation.
type PackageLoader struct {
	sink        *errors.Sink
	searchPaths []string

	resolveCtx *resolve.Context
	typeckCtx  *typeck.Context

	nextPkgID ids.PkgID
	cache     map[string]*ast.Package
	loading   map[string]bool
	loadStack []string
}

// NewPackageLoader returns a PackageLoader that resolves extern package
// names against searchPaths: each directory is checked for NAME.wl. sink
// collects every diagnostic raised while driving a dependency through the
// pipeline, alongside whatever the caller's own root-package compilation
// reports.
func NewPackageLoader(sink *errors.Sink, searchPaths []string) *PackageLoader {
	l := &PackageLoader{
		sink:        sink,
		searchPaths: searchPaths,
		cache:       make(map[string]*ast.Package),
		loading:     make(map[string]bool),
		nextPkgID:   1,
	}
	l.resolveCtx = resolve.NewContext(sink, l)
	l.typeckCtx = typeck.NewContext(sink)
	return l
}

// ResolveContext returns the resolve.Context shared by every package this
// loader drives, so a caller can resolve its own root package against the
// same extern cache rather than starting a disconnected one.
func (l *PackageLoader) ResolveContext() *resolve.Context { return l.resolveCtx }

// TypeckContext returns the typeck.Context shared by every package this
// loader drives.
func (l *PackageLoader) TypeckContext() *typeck.Context { return l.typeckCtx }

// CompileRoot drives path (the package the CLI was invoked on) through the
// full pipeline under pkgID 0, the id reserved for a compilation's root
// package. It shares this loader's resolveCtx/typeckCtx, so any `extern
// mod` items inside path resolve through LoadPackage below.
func (l *PackageLoader) CompileRoot(name, path string) (*ast.Package, error) {
	return l.loadAndElaborate(0, name, path)
}

// LoadPackage satisfies resolve.Loader. name is the extern package's bare
// name; span is the referencing extern item's span, used only to anchor
// the not-found/cycle diagnostics below.
func (l *PackageLoader) LoadPackage(name string, span ast.Span) (*ast.Package, error) {
	if pkg, ok := l.cache[name]; ok {
		return pkg, nil
	}
	if l.loading[name] {
		cycle := append(append([]string{}, l.loadStack...), name)
		l.sink.Add(errors.New(errors.MOD003, span, "circular module dependency: %s", strings.Join(cycle, " -> ")))
		return nil, fmt.Errorf("circular dependency loading %q", name)
	}

	path, err := l.resolvePackagePath(name)
	if err != nil {
		l.sink.Add(errors.New(errors.MOD002, span, "module %q not found: %v", name, err))
		return nil, err
	}

	l.loading[name] = true
	l.loadStack = append(l.loadStack, name)
	pkgID := l.nextPkgID
	l.nextPkgID++
	pkg, err := l.loadAndElaborate(pkgID, name, path)
	l.loadStack = l.loadStack[:len(l.loadStack)-1]
	delete(l.loading, name)
	if err != nil {
		return nil, err
	}

	l.cache[name] = pkg
	return pkg, nil
}

// resolvePackagePath finds the source file for a bare package name by
// checking name+".wl" under each search path in order.
func (l *PackageLoader) resolvePackagePath(name string) (string, error) {
	for _, dir := range l.searchPaths {
		candidate := filepath.Join(dir, name+".wl")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no %s.wl under search paths %v", name, l.searchPaths)
}

// loadAndElaborate reads path, expands any file-based submodules it
// contains, and drives the result through build, resolve, and typecheck,
// returning a fully Typecked package.
func (l *PackageLoader) loadAndElaborate(pkgID ids.PkgID, name, path string) (*ast.Package, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	tokens, _ := lexer.Tokenize(l.sink, path, src)
	items := parser.ParseFile(l.sink, path, tokens)

	if err := l.expandFileBasedMods(filepath.Dir(path), items); err != nil {
		return nil, err
	}

	built := build.Build(pkgID, name, path, items)
	resolved := resolve.Resolve(l.resolveCtx, built)
	return typeck.Check(l.typeckCtx, resolved), nil
}

// expandFileBasedMods walks items, replacing every FileBased ModItem's
// empty Items with the parsed contents of its sibling source file (a
// `mod sub;` in foo.wl maps to sub.wl next to it, matching the teacher's
// internal/module/loader.go name-to-path convention), before build ever
// sees the tree. internal/resolve has no knowledge of file-based-ness at
// all — by the time it runs, every ModItem looks identical.
func (l *PackageLoader) expandFileBasedMods(dir string, items []ast.Item) error {
	for _, it := range items {
		m, ok := it.(*ast.ModItem)
		if !ok {
			continue
		}
		if m.FileBased {
			childPath := filepath.Join(dir, m.Name+".wl")
			src, err := os.ReadFile(childPath)
			if err != nil {
				l.sink.Add(errors.New(errors.MOD002, m.Span, "module file for `mod %s;` not found: %s", m.Name, childPath))
				return fmt.Errorf("module file for %q not found: %w", m.Name, err)
			}
			tokens, _ := lexer.Tokenize(l.sink, childPath, src)
			m.Items = parser.ParseFile(l.sink, childPath, tokens)
			m.FileBased = false
		}
		if err := l.expandFileBasedMods(dir, m.Items); err != nil {
			return err
		}
	}
	return nil
}
