// Package ast is the phase-indexed AST: a single family of node types
// shared by every pipeline stage from the parser's output through the
// type-checker's output. Node shape (Pos/Span pair, String()/Position()
// method pair) is grounded on the teacher's internal/ast/ast.go; the
// "same node shape, progressively more elaboration populated" idea is
// grounded on the teacher's internal/core/core.go, whose CoreNode embeds
// both a CoreSpan and an OrigSpan for exactly that reason.
package ast

import (
	"fmt"

	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/types"
)

// Pos is a single position in a source file.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Span is a range in source code.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string { return s.Start.String() }

// Phase tags how far a *Package has been elaborated. Go has no dependent
// types, so phase discipline is enforced by this tag plus the Must*
// assertions below rather than by the type system refusing to compile —
// see SPEC_FULL.md §4.1 for why this is the chosen encoding.
type Phase int

const (
	Parsed Phase = iota
	Built
	Resolved
	Typecked
)

func (p Phase) String() string {
	switch p {
	case Parsed:
		return "parsed"
	case Built:
		return "built"
	case Resolved:
		return "resolved"
	case Typecked:
		return "typecked"
	default:
		return "unknown-phase"
	}
}

// Final is an alias for Typecked, matching spec.md's "Typecked (= Final)".
const Final = Typecked

// Node is the base interface implemented by every AST node.
type Node interface {
	Position() Span
}

// ResKind enumerates the possible outcomes of name resolution.
type ResKind int

const (
	// ResNone means resolution has not happened yet (Parsed/Built phase).
	ResNone ResKind = iota
	ResLocal
	ResItem
	ResBuiltin
	ResTyParam
	ResError
)

// Resolution is the outcome of resolving an identifier occurrence.
type Resolution struct {
	Kind ResKind

	// ResLocal
	LocalIndex int

	// ResItem
	Item ids.ItemID

	// ResBuiltin
	Builtin string

	// ResTyParam
	TyParamIndex int
	TyParamName  string

	// ResError
	ErrorToken string
}

func (r Resolution) String() string {
	switch r.Kind {
	case ResLocal:
		return fmt.Sprintf("local{%d}", r.LocalIndex)
	case ResItem:
		return fmt.Sprintf("item{%s}", r.Item)
	case ResBuiltin:
		return fmt.Sprintf("builtin{%s}", r.Builtin)
	case ResTyParam:
		return fmt.Sprintf("tyParam{%d,%s}", r.TyParamIndex, r.TyParamName)
	case ResError:
		return "error"
	default:
		return "unresolved"
	}
}

// ItemKindLookup reports whether a resolved item-kind resolution points
// at something that denotes a namespace (a Mod or Extern item), used by the
// resolver's module-path-collapsing rule. The caller supplies the lookup
// since ast itself does not know how to find items.
type ItemKindLookup func(ids.ItemID) (isModuleLike bool)

// ExprCommon is embedded by every Expr node. Ty is nil until the
// type-checker populates it (Typecked phase); per spec.md §3's invariant,
// every expression's Ty is non-nil and non-Var once type-checking
// completes without a diagnostic against that sub-expression.
type ExprCommon struct {
	Span Span
	Ty   types.Ty
}

func (e ExprCommon) Position() Span { return e.Span }

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
	Type() types.Ty
	SetType(types.Ty)
}

func (e *ExprCommon) Type() types.Ty     { return e.Ty }
func (e *ExprCommon) SetType(t types.Ty) { e.Ty = t }
