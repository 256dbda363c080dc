// Package types is the semantic type representation and the
// Hindley-Milner-style inference engine used by internal/typeck.
//
// The unifier's dispatch-by-concrete-Go-type and its shallow
// resolveIfPossible chase are grounded on the teacher's
// internal/types/unification.go; the per-kind Ty variants mirror the
// teacher's TCon/TFunc2/TList/TTuple family in internal/types/types_v2.go,
// trimmed down to the primitives spec.md §3 actually names.
package types

import (
	"fmt"
	"strings"

	"github.com/wasmlet/wasmlet/internal/ids"
)

// Ty is a resolved semantic type.
type Ty interface {
	fmt.Stringer
	tyNode()
}

// PrimKind enumerates the primitive types.
type PrimKind int

const (
	Bool PrimKind = iota
	String
	Unit
	Int  // 64-bit
	I32  // 32-bit
	Never
)

func (k PrimKind) String() string {
	switch k {
	case Bool:
		return "Bool"
	case String:
		return "String"
	case Unit:
		return "()"
	case Int:
		return "Int"
	case I32:
		return "I32"
	case Never:
		return "!"
	default:
		return "<bad-prim>"
	}
}

// Prim is a primitive type.
type Prim struct{ Kind PrimKind }

func (Prim) tyNode()          {}
func (p Prim) String() string { return p.Kind.String() }

// IsPrim reports whether t is the primitive of the given kind.
func IsPrim(t Ty, k PrimKind) bool {
	p, ok := t.(Prim)
	return ok && p.Kind == k
}

// Fn is a function type.
type Fn struct {
	Params []Ty
	Ret    Ty
}

func (Fn) tyNode() {}
func (f Fn) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), f.Ret)
}

// StructField is one field of a struct type.
type StructField struct {
	Name string
	Type Ty
}

// Struct is a nominal struct type; two Structs are the same type iff their
// Item identities match (structural field equality is not enough — a
// struct's identity is the declaring item, per spec.md's "struct: identity
// (same underlying item)" unification rule).
type Struct struct {
	Item   ids.ItemID
	Name   string
	Fields []StructField
}

func (Struct) tyNode()          {}
func (s Struct) String() string { return s.Name }

// FieldIndex returns the declared index of a field name, or -1.
func (s Struct) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Tuple is a tuple type.
type Tuple struct{ Elems []Ty }

func (Tuple) tyNode() {}
func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// RawPtr is a raw pointer type.
type RawPtr struct{ Inner Ty }

func (RawPtr) tyNode()          {}
func (r RawPtr) String() string { return "*" + r.Inner.String() }

// Var is a unification variable, identified by a sequential integer.
type Var struct{ ID int }

func (Var) tyNode()          {}
func (v Var) String() string { return fmt.Sprintf("'t%d", v.ID) }

// TyParam is a reference to a function/type's own generic type parameter,
// by index. Generic parameters are parsed but, per spec.md's non-goals,
// never monomorphized — they are opaque to the checker beyond this.
type TyParam struct {
	Index int
	Name  string
}

func (TyParam) tyNode()          {}
func (p TyParam) String() string { return p.Name }

// Error is the error sentinel type: it silently absorbs further
// unification so that one diagnostic does not cascade into many.
type Error struct{}

func (Error) tyNode()        {}
func (Error) String() string { return "<error>" }

// IsError reports whether t is the error sentinel.
func IsError(t Ty) bool {
	_, ok := t.(Error)
	return ok
}
