package ast

import (
	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/types"
)

// EmptyExpr is `()`-as-no-op — an expression position with nothing in it
// (not to be confused with the unit tuple literal). Its type is always
// Unit.
type EmptyExpr struct{ ExprCommon }

func (*EmptyExpr) exprNode() {}

// LocalInfo is a single local-binding record: a name plus, post-typecheck,
// its inferred type. LetExpr.Info and the enclosing BlockExpr's Locals
// entry for that binding are the SAME pointer, so the resolver appending
// to Locals and the type-checker later filling in Type are visible from
// both the binder and the block that owns the binder's lifetime.
type LocalInfo struct {
	Name string
	Pos  Pos
	Type types.Ty
}

// LetExpr is `let NAME [: T] = RHS`. Its own expression type is always
// Unit; its purpose is introducing a binding visible in the rest of the
// enclosing block.
type LetExpr struct {
	ExprCommon
	Name     string
	Ascribed Type // nil if no `: T` annotation
	Rhs      Expr
	Info     *LocalInfo // populated by the resolver
}

func (*LetExpr) exprNode() {}

// AssignExpr is `LHS = RHS`.
type AssignExpr struct {
	ExprCommon
	Lhs, Rhs Expr
}

func (*AssignExpr) exprNode() {}

// BlockExpr is `(e1; e2; ...; en)`. Its type is its last element's type, or
// Unit if empty.
type BlockExpr struct {
	ExprCommon
	Exprs  []Expr
	Locals []*LocalInfo
}

func (*BlockExpr) exprNode() {}

// LitKind enumerates literal forms. Integer literals carry one of two
// literal integer subtypes, selected by an explicit `_I32` suffix or
// defaulting to Int.
type LitKind int

const (
	LitString LitKind = iota
	LitIntDefault
	LitIntI32
)

// LiteralExpr is a string or integer literal.
type LiteralExpr struct {
	ExprCommon
	Kind  LitKind
	Str   string
	Int   int64
}

func (*LiteralExpr) exprNode() {}

// IdentExpr is a single-name reference.
type IdentExpr struct {
	ExprCommon
	Name string
	Res  Resolution
}

func (*IdentExpr) exprNode() {}

// PathExpr is a dotted reference `a.b.c` where `a` denotes a module or
// extern package. Only ever produced by the resolver, never the parser.
type PathExpr struct {
	ExprCommon
	Segments []string
	Res      Resolution
}

func (*PathExpr) exprNode() {}

// BinaryExpr is `LHS OP RHS`.
type BinaryExpr struct {
	ExprCommon
	Op          string
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is `OP operand`.
type UnaryExpr struct {
	ExprCommon
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	ExprCommon
	Callee Expr
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// FieldAccessExpr is `base.field`. FieldIdx is -1 until the type-checker
// resolves it against the base's struct/tuple type; folds must preserve
// it once set (spec.md §9's first Open Question).
type FieldAccessExpr struct {
	ExprCommon
	Base     Expr
	Field    string
	FieldIdx int
}

func (*FieldAccessExpr) exprNode() {}

// IfExpr is `if COND then THEN [else ELSE]`.
type IfExpr struct {
	ExprCommon
	Cond, Then, Else Expr // Else is nil when absent
}

func (*IfExpr) exprNode() {}

// LoopExpr is `loop BODY`. LoopID is assigned by the builder and is unique
// per package.
type LoopExpr struct {
	ExprCommon
	ID       LoopIDRef
	Body     Expr
	HasBreak bool // set by the type-checker: did any Break target this loop?
}

func (*LoopExpr) exprNode() {}

// BreakExpr is `break`. Target is set by the type-checker to the innermost
// enclosing loop's id; empty (zero value, Target.Valid == false) and a
// diagnostic if break occurs outside any loop.
type BreakExpr struct {
	ExprCommon
	Target LoopIDRef
}

func (*BreakExpr) exprNode() {}

// FieldInit is one `name: value` pair inside a struct literal.
type FieldInit struct {
	Name  string
	Value Expr
	Index int // -1 until the type-checker resolves it
	Pos   Pos
}

// StructLiteralExpr is `Name { field: expr, ... }`.
type StructLiteralExpr struct {
	ExprCommon
	Name   string
	Res    Resolution // resolves to the struct's Type item
	Fields []*FieldInit
}

func (*StructLiteralExpr) exprNode() {}

// TupleLiteralExpr is `(a, b, ...)`; `(x,)` is a 1-tuple, `()` is NOT this
// node (it is EmptyExpr / the unit type).
type TupleLiteralExpr struct {
	ExprCommon
	Elems []Expr
}

func (*TupleLiteralExpr) exprNode() {}

// AsmExpr carries inline codegen instructions straight through to the code
// generator; its type is supplied directly by the writer.
type AsmExpr struct {
	ExprCommon
	Instrs []string
}

func (*AsmExpr) exprNode() {}

// ErrorExpr is an error placeholder carrying the emitted-error token.
type ErrorExpr struct {
	ExprCommon
	Token string
}

func (*ErrorExpr) exprNode() {}

// LoopIDRef wraps ids.LoopID with a validity flag, since 0 is a legitimate
// loop id and Go has no built-in "optional integer".
type LoopIDRef struct {
	ID    ids.LoopID
	Valid bool
}
