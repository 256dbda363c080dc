// Package build implements the parsed→built fold: assigning every item a
// stable package-scoped identifier and every loop a stable identifier.
// Grounded on the teacher's internal/sid/sid.go (single-pass stable-id
// assignment) and the "one pass over a File" shape of
// internal/elaborate/elaborate.go.
package build

import (
	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/ids"
)

// Builder assigns ItemIDs (from 1; 0 is reserved for the package root
// module) and LoopIDs (from 0), both per package, by folding the Parsed
// AST into the Built AST.
type Builder struct {
	ast.DefaultFolder

	pkgID    ids.PkgID
	nextItem int
	nextLoop ids.LoopID
	seen     map[ids.ItemID]bool
}

// NewBuilder creates a Builder for the given package id.
func NewBuilder(pkgID ids.PkgID) *Builder {
	b := &Builder{pkgID: pkgID, nextItem: 1, seen: make(map[ids.ItemID]bool)}
	b.Self = b
	return b
}

// FoldItem assigns a fresh ItemID to it (after recursing into any nested
// items, e.g. a ModItem's contents, which receive ids from the same
// counter in source order).
func (b *Builder) FoldItem(it ast.Item) ast.Item {
	id := ids.ItemID{Pkg: b.pkgID, Idx: b.nextItem}
	b.nextItem++
	newIt := ast.SuperFoldItem(b, it)
	newIt.Base().ID = id
	if b.seen[id] {
		panic("wasmlet: build: duplicate item id " + id.String())
	}
	b.seen[id] = true
	return newIt
}

// FoldExpr assigns a fresh LoopID to every LoopExpr encountered.
func (b *Builder) FoldExpr(e ast.Expr) ast.Expr {
	loop, ok := e.(*ast.LoopExpr)
	if !ok {
		return ast.SuperFoldExpr(b, e)
	}
	id := b.nextLoop
	b.nextLoop++
	newLoop := ast.SuperFoldExpr(b, loop).(*ast.LoopExpr)
	newLoop.ID = ast.LoopIDRef{ID: id, Valid: true}
	return newLoop
}

// Build folds a Parsed-phase item list into a Built-phase *ast.Package.
// The package root module itself is never represented as a node — its
// reserved id is ids.ItemID{Pkg: pkgID, Idx: 0} — so rootItems are the
// package's direct children, each receiving ids from 1.
func Build(pkgID ids.PkgID, name, rootFile string, rootItems []ast.Item) *ast.Package {
	parsed := &ast.Package{PkgID: pkgID, Name: name, RootFile: rootFile, Phase: ast.Parsed, Root: rootItems}
	b := NewBuilder(pkgID)
	return ast.FoldPackage(b, parsed, ast.Built)
}
