package ast

// Folder maps every item, expression, and AST type from one phase to the
// next. Concrete folders (the builder, and the resolver/type-checker where
// they reuse the scaffold) embed DefaultFolder and override only the node
// kinds they care about; SuperFold* reconstructs everything else by
// recursing through the Folder interface, so an override sees its own
// overridden logic applied to every descendant too.
//
// This interface + the Self-holding DefaultFolder is original scaffolding
// required by spec.md §4.1 — the teacher lowers ast.File to core.Program
// with one hand-written pass rather than a generic fold framework, so
// there is no direct teacher file this mirrors line for line. It follows
// the node shape (Pos/Span-first, kind-switch dispatch) the teacher uses
// everywhere else.
type Folder interface {
	FoldItem(Item) Item
	FoldExpr(Expr) Expr
	FoldType(Type) Type
}

// DefaultFolder is an identity fold: embed it and set Self to the outer
// folder so SuperFold's recursive calls dispatch back through any
// overrides the outer type defines.
type DefaultFolder struct {
	Self Folder
}

func (d *DefaultFolder) FoldItem(it Item) Item { return SuperFoldItem(d.Self, it) }
func (d *DefaultFolder) FoldExpr(e Expr) Expr  { return SuperFoldExpr(d.Self, e) }
func (d *DefaultFolder) FoldType(t Type) Type  { return SuperFoldType(d.Self, t) }

// FoldPackage applies f to every root item of pkg and returns a brand-new
// *Package at the given phase with a freshly built ByID table. The
// returned package shares no mutable node with pkg — each phase's tree is
// a distinct value from the one it was folded from.
func FoldPackage(f Folder, pkg *Package, newPhase Phase) *Package {
	newRoot := make([]Item, len(pkg.Root))
	for i, it := range pkg.Root {
		newRoot[i] = f.FoldItem(it)
	}
	return &Package{
		PkgID:    pkg.PkgID,
		Name:     pkg.Name,
		RootFile: pkg.RootFile,
		Phase:    newPhase,
		Root:     newRoot,
		ByID:     NewByIDTable(newRoot),
		Fatal:    pkg.Fatal,
	}
}

func foldParam(f Folder, p *Param) *Param {
	return &Param{Name: p.Name, Type: f.FoldType(p.Type), Pos: p.Pos}
}

func foldParams(f Folder, ps []*Param) []*Param {
	out := make([]*Param, len(ps))
	for i, p := range ps {
		out[i] = foldParam(f, p)
	}
	return out
}

// SuperFoldItem recurses structurally into an item's parameter types,
// body, return type, struct fields, alias target, and module contents.
func SuperFoldItem(f Folder, it Item) Item {
	switch v := it.(type) {
	case *FuncItem:
		var ret Type
		if v.ReturnType != nil {
			ret = f.FoldType(v.ReturnType)
		}
		return &FuncItem{
			ItemCommon: v.ItemCommon,
			TypeParams: v.TypeParams,
			Params:     foldParams(f, v.Params),
			ReturnType: ret,
			Body:       f.FoldExpr(v.Body),
			Sig:        v.Sig,
		}

	case *TypeItem:
		var def TypeDef
		switch d := v.Def.(type) {
		case *StructDef:
			fields := make([]*FieldDecl, len(d.Fields))
			for i, fd := range d.Fields {
				fields[i] = &FieldDecl{Name: fd.Name, Type: f.FoldType(fd.Type), Pos: fd.Pos}
			}
			def = &StructDef{Fields: fields}
		case *AliasDef:
			def = &AliasDef{Target: f.FoldType(d.Target)}
		}
		return &TypeItem{ItemCommon: v.ItemCommon, TypeParams: v.TypeParams, Def: def}

	case *ImportItem:
		var ret Type
		if v.ReturnType != nil {
			ret = f.FoldType(v.ReturnType)
		}
		return &ImportItem{
			ItemCommon: v.ItemCommon,
			ModuleStr:  v.ModuleStr,
			FuncStr:    v.FuncStr,
			Params:     foldParams(f, v.Params),
			ReturnType: ret,
		}

	case *ModItem:
		items := make([]Item, len(v.Items))
		for i, sub := range v.Items {
			items[i] = f.FoldItem(sub)
		}
		return &ModItem{ItemCommon: v.ItemCommon, Items: items, FileBased: v.FileBased}

	case *ExternItem:
		return &ExternItem{ItemCommon: v.ItemCommon, PkgName: v.PkgName}

	case *GlobalItem:
		return &GlobalItem{
			ItemCommon: v.ItemCommon,
			Mut:        v.Mut,
			Type:       f.FoldType(v.Type),
			Init:       f.FoldExpr(v.Init),
		}

	case *UseItem:
		return &UseItem{ItemCommon: v.ItemCommon, Segments: v.Segments, Res: v.Res}

	case *ErrorItem:
		return &ErrorItem{ItemCommon: v.ItemCommon, Token: v.Token}

	default:
		panic("wasmlet: SuperFoldItem: unhandled item kind")
	}
}

// SuperFoldExpr recurses into every sub-expression and type of e,
// preserving elaborated metadata (resolution, field index, loop id) that
// the fold itself is not responsible for changing.
func SuperFoldExpr(f Folder, e Expr) Expr {
	switch v := e.(type) {
	case *EmptyExpr:
		return &EmptyExpr{ExprCommon: v.ExprCommon}

	case *LetExpr:
		var asc Type
		if v.Ascribed != nil {
			asc = f.FoldType(v.Ascribed)
		}
		return &LetExpr{ExprCommon: v.ExprCommon, Name: v.Name, Ascribed: asc, Rhs: f.FoldExpr(v.Rhs), Info: v.Info}

	case *AssignExpr:
		return &AssignExpr{ExprCommon: v.ExprCommon, Lhs: f.FoldExpr(v.Lhs), Rhs: f.FoldExpr(v.Rhs)}

	case *BlockExpr:
		exprs := make([]Expr, len(v.Exprs))
		for i, sub := range v.Exprs {
			exprs[i] = f.FoldExpr(sub)
		}
		return &BlockExpr{ExprCommon: v.ExprCommon, Exprs: exprs, Locals: v.Locals}

	case *LiteralExpr:
		return &LiteralExpr{ExprCommon: v.ExprCommon, Kind: v.Kind, Str: v.Str, Int: v.Int}

	case *IdentExpr:
		return &IdentExpr{ExprCommon: v.ExprCommon, Name: v.Name, Res: v.Res}

	case *PathExpr:
		return &PathExpr{ExprCommon: v.ExprCommon, Segments: v.Segments, Res: v.Res}

	case *BinaryExpr:
		return &BinaryExpr{ExprCommon: v.ExprCommon, Op: v.Op, Left: f.FoldExpr(v.Left), Right: f.FoldExpr(v.Right)}

	case *UnaryExpr:
		return &UnaryExpr{ExprCommon: v.ExprCommon, Op: v.Op, Operand: f.FoldExpr(v.Operand)}

	case *CallExpr:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = f.FoldExpr(a)
		}
		return &CallExpr{ExprCommon: v.ExprCommon, Callee: f.FoldExpr(v.Callee), Args: args}

	case *FieldAccessExpr:
		// FieldIdx is preserved across the fold: spec.md §9's first Open
		// Question resolution. Losing it here would silently un-resolve
		// every field access on each phase transition.
		return &FieldAccessExpr{ExprCommon: v.ExprCommon, Base: f.FoldExpr(v.Base), Field: v.Field, FieldIdx: v.FieldIdx}

	case *IfExpr:
		var els Expr
		if v.Else != nil {
			els = f.FoldExpr(v.Else)
		}
		return &IfExpr{ExprCommon: v.ExprCommon, Cond: f.FoldExpr(v.Cond), Then: f.FoldExpr(v.Then), Else: els}

	case *LoopExpr:
		return &LoopExpr{ExprCommon: v.ExprCommon, ID: v.ID, Body: f.FoldExpr(v.Body), HasBreak: v.HasBreak}

	case *BreakExpr:
		return &BreakExpr{ExprCommon: v.ExprCommon, Target: v.Target}

	case *StructLiteralExpr:
		fields := make([]*FieldInit, len(v.Fields))
		for i, fi := range v.Fields {
			fields[i] = &FieldInit{Name: fi.Name, Value: f.FoldExpr(fi.Value), Index: fi.Index, Pos: fi.Pos}
		}
		return &StructLiteralExpr{ExprCommon: v.ExprCommon, Name: v.Name, Res: v.Res, Fields: fields}

	case *TupleLiteralExpr:
		elems := make([]Expr, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = f.FoldExpr(el)
		}
		return &TupleLiteralExpr{ExprCommon: v.ExprCommon, Elems: elems}

	case *AsmExpr:
		return &AsmExpr{ExprCommon: v.ExprCommon, Instrs: v.Instrs}

	case *ErrorExpr:
		return &ErrorExpr{ExprCommon: v.ExprCommon, Token: v.Token}

	default:
		panic("wasmlet: SuperFoldExpr: unhandled expr kind")
	}
}

// SuperFoldType recurses into tuple elements, generic arguments, and
// raw-pointer pointees.
func SuperFoldType(f Folder, t Type) Type {
	switch v := t.(type) {
	case *IdentType:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = f.FoldType(a)
		}
		return &IdentType{TypeCommon: v.TypeCommon, Name: v.Name, Args: args, Res: v.Res}

	case *TupleType:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = f.FoldType(e)
		}
		return &TupleType{TypeCommon: v.TypeCommon, Elems: elems}

	case *RawPtrType:
		return &RawPtrType{TypeCommon: v.TypeCommon, Inner: f.FoldType(v.Inner)}

	case *NeverType:
		return &NeverType{TypeCommon: v.TypeCommon}

	case *ErrorType:
		return &ErrorType{TypeCommon: v.TypeCommon, Token: v.Token}

	default:
		panic("wasmlet: SuperFoldType: unhandled type kind")
	}
}
