package ast

import (
	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/types"
)

// FatalMarker records that a package failed to parse/build past recovery;
// later phases see it and skip, per spec.md §7's fatal-parse-error channel.
type FatalMarker struct {
	Message string
	Span    Span
}

// Package is one compilation unit: a package identifier, a name, a root
// source file, its root items, an item lookup table, an optional fatal
// marker, and — once Phase == Typecked — per-item signatures and
// per-function typed bodies.
type Package struct {
	PkgID    ids.PkgID
	Name     string
	RootFile string
	Phase    Phase
	Root     []Item
	ByID     map[ids.ItemID]Item
	Fatal    *FatalMarker

	// Populated only once Phase == Typecked.
	Sigs   map[ids.ItemID]types.Ty
	Bodies map[ids.ItemID]Expr
}

// MustAtLeast panics if the package has not reached phase p. Used at
// package boundaries to turn "accessed a slot before its phase populated
// it" into a loud failure rather than a silent zero value.
func (pkg *Package) MustAtLeast(p Phase) {
	if pkg.Phase < p {
		panic("wasmlet: package " + pkg.Name + " is phase " + pkg.Phase.String() + ", need at least " + p.String())
	}
}

// NewByIDTable builds the ByID lookup table for a root item list, walking
// into module contents.
func NewByIDTable(root []Item) map[ids.ItemID]Item {
	byID := make(map[ids.ItemID]Item)
	WalkItems(root, func(it Item) {
		byID[it.Base().ID] = it
	})
	return byID
}
