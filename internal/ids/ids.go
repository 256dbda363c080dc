// Package ids holds the small set of identity types shared by the ast and
// types packages. They live here, rather than in either, so that ast can
// carry resolved-type information and types can carry item identities
// without the two packages importing each other.
package ids

import "fmt"

// PkgID identifies a package within a single compilation.
type PkgID int

// ItemID is a pair (package, item index) that is globally unique and
// stable across phases. Idx 0 is reserved for a package's root module.
type ItemID struct {
	Pkg PkgID
	Idx int
}

func (id ItemID) String() string { return fmt.Sprintf("%d.%d", id.Pkg, id.Idx) }

// IsRoot reports whether id names a package's root module item.
func (id ItemID) IsRoot() bool { return id.Idx == 0 }

// LoopID identifies a loop expression, unique per package.
type LoopID uint32
