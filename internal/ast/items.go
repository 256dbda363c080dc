package ast

import (
	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/types"
)

// ItemCommon is embedded by every Item variant. ID is the zero ItemID until
// the builder assigns one; DefPath is nil until the resolver populates it.
type ItemCommon struct {
	Span    Span
	ID      ids.ItemID
	Name    string
	DefPath []string
}

func (c ItemCommon) Position() Span { return c.Span }

// Item is one of Function/Type/Import/Module/Extern/Global/Use/Error.
type Item interface {
	Node
	itemNode()
	Base() *ItemCommon
}

// Param is a function or import parameter: a name plus a declared type.
type Param struct {
	Name string
	Type Type
	Pos  Pos
}

// FuncItem is a function item.
type FuncItem struct {
	ItemCommon
	TypeParams []string
	Params     []*Param
	ReturnType Type // nil means unit
	Body       Expr
	Sig        *types.Fn // populated by signature lowering
}

func (*FuncItem) itemNode()             {}
func (f *FuncItem) Base() *ItemCommon   { return &f.ItemCommon }

// TypeDef is either a StructDef or an AliasDef.
type TypeDef interface {
	typeDefNode()
}

// FieldDecl is one named field of a struct declaration.
type FieldDecl struct {
	Name string
	Type Type
	Pos  Pos
}

// StructDef is `struct { field: T, ... }`.
type StructDef struct {
	Fields []*FieldDecl
}

func (*StructDef) typeDefNode() {}

// AliasDef is `= SomeType`.
type AliasDef struct {
	Target Type
}

func (*AliasDef) typeDefNode() {}

// TypeItem is a `type` item: either a struct definition or an alias.
type TypeItem struct {
	ItemCommon
	TypeParams []string
	Def        TypeDef
}

func (*TypeItem) itemNode()           {}
func (t *TypeItem) Base() *ItemCommon { return &t.ItemCommon }

// ImportItem is a foreign-function declaration: `import ("mod" "func") sig;`
type ImportItem struct {
	ItemCommon
	ModuleStr  string
	FuncStr    string
	Params     []*Param
	ReturnType Type // nil means unit
}

func (*ImportItem) itemNode()           {}
func (i *ImportItem) Base() *ItemCommon { return &i.ItemCommon }

// ModItem is `mod NAME ( ... );` or the file-based `mod NAME;` form. Both
// carry the same shape once loaded: an ordered list of contained items.
// FileBased distinguishes the two at parse time, before the loader has had
// a chance to fill Items in from the referenced file — an inline `mod NAME
// ()` with a genuinely empty body must not be mistaken for one still
// pending a file load.
type ModItem struct {
	ItemCommon
	Items      []Item
	FileBased  bool
}

func (*ModItem) itemNode()           {}
func (m *ModItem) Base() *ItemCommon { return &m.ItemCommon }

// ExternItem is `extern mod NAME;` — an opaque reference to another
// package by name, eagerly resolved at resolve time.
type ExternItem struct {
	ItemCommon
	PkgName string
}

func (*ExternItem) itemNode()           {}
func (e *ExternItem) Base() *ItemCommon { return &e.ItemCommon }

// GlobalItem is `global [mut] NAME: T = EXPR;`. Mut is the Open-Question
// resolution recorded in DESIGN.md: assignment requires an explicit marker.
type GlobalItem struct {
	ItemCommon
	Mut  bool
	Type Type
	Init Expr
}

func (*GlobalItem) itemNode()           {}
func (g *GlobalItem) Base() *ItemCommon { return &g.ItemCommon }

// UseItem is `use a.b.c;`. Name equals the last segment's name per
// spec.md's invariant; Res is populated by the resolver and points at the
// final segment's resolution.
type UseItem struct {
	ItemCommon
	Segments []string
	Res      Resolution
}

func (*UseItem) itemNode()           {}
func (u *UseItem) Base() *ItemCommon { return &u.ItemCommon }

// ErrorItem is an error placeholder carrying the emitted-error token.
type ErrorItem struct {
	ItemCommon
	Token string
}

func (*ErrorItem) itemNode()           {}
func (e *ErrorItem) Base() *ItemCommon { return &e.ItemCommon }

// WalkItems visits every item reachable from items, recursing into ModItem
// contents, in source order. Used to populate a Package's ByID map, which
// is keyed by every item in the tree, not just the roots.
func WalkItems(items []Item, visit func(Item)) {
	for _, it := range items {
		visit(it)
		if m, ok := it.(*ModItem); ok {
			WalkItems(m.Items, visit)
		}
	}
}
