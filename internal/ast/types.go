package ast

// Type is an AST-level (unelaborated) type expression, as written by the
// programmer. internal/typeck's lowerAstTy turns these into types.Ty.
type Type interface {
	Node
	typeNode()
}

// TypeCommon is embedded by every Type node.
type TypeCommon struct {
	Span Span
}

func (t TypeCommon) Position() Span { return t.Span }

// IdentType is a named type reference, optionally with generic arguments:
// `Int`, `Bool`, `Pair[Int]`.
type IdentType struct {
	TypeCommon
	Name string
	Args []Type
	Res  Resolution // populated by the resolver
}

func (*IdentType) typeNode() {}

// TupleType is `(T, U, ...)`; `()` is represented as TupleType{Elems: nil}.
type TupleType struct {
	TypeCommon
	Elems []Type
}

func (*TupleType) typeNode() {}

// RawPtrType is `*T`.
type RawPtrType struct {
	TypeCommon
	Inner Type
}

func (*RawPtrType) typeNode() {}

// NeverType is the empty type `!`.
type NeverType struct {
	TypeCommon
}

func (*NeverType) typeNode() {}

// ErrorType is an error sentinel at the AST-type level.
type ErrorType struct {
	TypeCommon
	Token string
}

func (*ErrorType) typeNode() {}
