// Package resolve implements the built→resolved fold: it pairs every
// identifier occurrence with a Resolution, assigns each item its
// definition path, and collapses module-qualified field-access chains
// into path expressions. Grounded on the teacher's internal/link package
// (module scoping and on-demand cross-module lookup) and
// internal/types/env.go (scope-stack shape).
package resolve

import (
	"strings"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/ids"
)

// Loader loads and fully elaborates a dependency package by name, used to
// satisfy extern declarations. A small, locally-scoped interface rather
// than a direct import of internal/loader — the loader drives this
// package, so importing it back here would cycle. internal/loader's
// PackageLoader satisfies this structurally.
type Loader interface {
	LoadPackage(name string, span ast.Span) (*ast.Package, error)
}

// builtins is the closed set of names the compiler implements itself
// rather than resolving to user code, per spec.md's Glossary.
var builtins = map[string]bool{
	"print": true, "String": true, "Int": true, "I32": true, "Bool": true,
	"true": true, "false": true, "trap": true, "__NULL": true,
	"__i32_store": true, "__i64_store": true, "__i32_load": true, "__i64_load": true,
	"__i32_extend_to_i64_u": true, "___transmute": true, "___asm": true, "__locals": true,
}

// Context is shared across every package resolved in one compilation: the
// diagnostic sink, the dependency loader, and the set of dependency
// packages already finalized and visible by name.
type Context struct {
	Sink             *errors.Sink
	Loader           Loader
	Packages         map[string]*ast.Package     // dependency name -> finalized package
	PackagesByPkgID  map[ids.PkgID]*ast.Package  // same packages, keyed by id
	ExternContents   map[ids.ItemID]map[string]ids.ItemID // extern item id -> member name -> id
}

// NewContext returns an empty Context ready to resolve one package.
func NewContext(sink *errors.Sink, loader Loader) *Context {
	return &Context{
		Sink:            sink,
		Loader:          loader,
		Packages:        make(map[string]*ast.Package),
		PackagesByPkgID: make(map[ids.PkgID]*ast.Package),
		ExternContents:  make(map[ids.ItemID]map[string]ids.ItemID),
	}
}

// Resolver folds one package from Built to Resolved. It is not reusable
// across packages: construct a fresh one per call to Resolve.
type Resolver struct {
	ast.DefaultFolder

	ctx        *Context
	pkgID      ids.PkgID
	selfName   string
	selfByID   map[ids.ItemID]ast.Item
	moduleTops []map[string]ids.ItemID
	defPath       []string
	locals        []string
	typeParams    []string
	pendingLocals []*ast.LocalInfo
}

// Resolve resolves pkg (which must be at phase Built) against ctx,
// returning a new package at phase Resolved. ctx.Packages is updated in
// place with any extern packages loaded along the way.
func Resolve(ctx *Context, pkg *ast.Package) *ast.Package {
	pkg.MustAtLeast(ast.Built)

	r := &Resolver{
		ctx:      ctx,
		pkgID:    pkg.PkgID,
		selfName: pkg.Name,
		selfByID: pkg.ByID,
	}
	r.Self = r
	ctx.Packages[pkg.Name] = pkg
	ctx.PackagesByPkgID[pkg.PkgID] = pkg

	r.pushModule(pkg.Root)
	out := ast.FoldPackage(r, pkg, ast.Resolved)
	r.popModule()

	ctx.Packages[pkg.Name] = out
	ctx.PackagesByPkgID[pkg.PkgID] = out
	return out
}

func (r *Resolver) pushModule(items []ast.Item) {
	m := make(map[string]ids.ItemID, len(items))
	for _, it := range items {
		base := it.Base()
		if _, dup := m[base.Name]; dup {
			r.ctx.Sink.Add(errors.New(errors.MOD001, base.Span, "duplicate item name %q in module", base.Name))
			continue
		}
		m[base.Name] = base.ID
	}
	r.moduleTops = append(r.moduleTops, m)
}

func (r *Resolver) popModule() {
	r.moduleTops = r.moduleTops[:len(r.moduleTops)-1]
}

func (r *Resolver) currentModule() map[string]ids.ItemID {
	return r.moduleTops[len(r.moduleTops)-1]
}

func (r *Resolver) pushLocal(name string) { r.locals = append(r.locals, name) }

func (r *Resolver) lookupLocal(name string) (int, bool) {
	for i := len(r.locals) - 1; i >= 0; i-- {
		if r.locals[i] == name {
			return (len(r.locals) - 1) - i, true
		}
	}
	return 0, false
}

func (r *Resolver) pushTypeParams(names []string) {
	r.typeParams = append(r.typeParams, names...)
}

func (r *Resolver) popTypeParams() {
	// Type parameter lists do not nest (items are not nested inside items
	// other than modules, which carry none of their own), so the stack
	// frame pushed by pushTypeParams is always the tail of the slice.
	r.typeParams = r.typeParams[:0]
}

func (r *Resolver) lookupTypeParam(name string) (int, bool) {
	for i, n := range r.typeParams {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (r *Resolver) pushDefPath(name string) { r.defPath = append(r.defPath, name) }

func (r *Resolver) popDefPath() { r.defPath = r.defPath[:len(r.defPath)-1] }

func (r *Resolver) currentDefPath() []string {
	out := make([]string, len(r.defPath))
	copy(out, r.defPath)
	return out
}

// FoldItem dispatches to the per-kind handling that needs scope
// management (modules, functions, externs, uses); everything else falls
// through to the structural super-fold with a definition path attached.
func (r *Resolver) FoldItem(it ast.Item) ast.Item {
	switch v := it.(type) {
	case *ast.ModItem:
		r.pushDefPath(v.Name)
		r.pushModule(v.Items)
		out := ast.SuperFoldItem(r, v).(*ast.ModItem)
		r.popModule()
		out.DefPath = r.currentDefPath()
		r.popDefPath()
		return out

	case *ast.FuncItem:
		r.pushDefPath(v.Name)
		r.pushTypeParams(v.TypeParams)
		for _, p := range v.Params {
			r.pushLocal(p.Name)
		}
		out := ast.SuperFoldItem(r, v).(*ast.FuncItem)
		r.locals = r.locals[:len(r.locals)-len(v.Params)]
		r.popTypeParams()
		out.DefPath = r.currentDefPath()
		r.popDefPath()
		return out

	case *ast.TypeItem:
		r.pushDefPath(v.Name)
		r.pushTypeParams(v.TypeParams)
		out := ast.SuperFoldItem(r, v).(*ast.TypeItem)
		r.popTypeParams()
		out.DefPath = r.currentDefPath()
		r.popDefPath()
		return out

	case *ast.ExternItem:
		r.pushDefPath(v.Name)
		out := &ast.ExternItem{ItemCommon: v.ItemCommon, PkgName: v.PkgName}
		out.DefPath = r.currentDefPath()
		r.popDefPath()
		r.loadExtern(out)
		return out

	case *ast.UseItem:
		r.pushDefPath(v.Name)
		res := r.resolveSegments(v.Segments, v.Span)
		out := &ast.UseItem{ItemCommon: v.ItemCommon, Segments: v.Segments, Res: res}
		out.DefPath = r.currentDefPath()
		r.popDefPath()
		return out

	default:
		r.pushDefPath(it.Base().Name)
		out := ast.SuperFoldItem(r, it)
		out.Base().DefPath = r.currentDefPath()
		r.popDefPath()
		return out
	}
}

// FoldExpr handles every expression form that touches scope (idents,
// lets, blocks, field-access collapsing); other forms recurse structurally
// unchanged.
func (r *Resolver) FoldExpr(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case *ast.IdentExpr:
		return &ast.IdentExpr{ExprCommon: v.ExprCommon, Name: v.Name, Res: r.resolveName(v.Name, v.Span)}

	case *ast.LetExpr:
		var asc ast.Type
		if v.Ascribed != nil {
			asc = r.FoldType(v.Ascribed)
		}
		rhs := r.FoldExpr(v.Rhs)
		r.pushLocal(v.Name)
		info := &ast.LocalInfo{Name: v.Name, Pos: v.Span.Start}
		r.pendingLocals = append(r.pendingLocals, info)
		return &ast.LetExpr{ExprCommon: v.ExprCommon, Name: v.Name, Ascribed: asc, Rhs: rhs, Info: info}

	case *ast.BlockExpr:
		depth := len(r.locals)
		localsDepth := len(r.pendingLocals)
		exprs := make([]ast.Expr, len(v.Exprs))
		for i, sub := range v.Exprs {
			exprs[i] = r.FoldExpr(sub)
		}
		locals := append([]*ast.LocalInfo{}, r.pendingLocals[localsDepth:]...)
		r.pendingLocals = r.pendingLocals[:localsDepth]
		r.locals = r.locals[:depth]
		return &ast.BlockExpr{ExprCommon: v.ExprCommon, Exprs: exprs, Locals: locals}

	case *ast.FieldAccessExpr:
		return r.foldFieldAccess(v)

	case *ast.StructLiteralExpr:
		fields := make([]*ast.FieldInit, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = &ast.FieldInit{Name: f.Name, Value: r.FoldExpr(f.Value), Index: f.Index, Pos: f.Pos}
		}
		return &ast.StructLiteralExpr{ExprCommon: v.ExprCommon, Name: v.Name, Res: r.resolveTypeName(v.Name, v.Span), Fields: fields}

	default:
		return ast.SuperFoldExpr(r, e)
	}
}

// FoldType resolves IdentType names (type parameters, type items, builtin
// type names) the same way FoldExpr resolves value identifiers; every
// other AST type form recurses structurally unchanged.
func (r *Resolver) FoldType(t ast.Type) ast.Type {
	id, ok := t.(*ast.IdentType)
	if !ok {
		return ast.SuperFoldType(r, t)
	}
	args := make([]ast.Type, len(id.Args))
	for i, a := range id.Args {
		args[i] = r.FoldType(a)
	}
	return &ast.IdentType{TypeCommon: id.TypeCommon, Name: id.Name, Args: args, Res: r.resolveTypeName(id.Name, id.Span)}
}

// resolveTypeName resolves a type-level identifier: type parameters first,
// then the current module's items, then the fixed builtin type names.
func (r *Resolver) resolveTypeName(name string, span ast.Span) ast.Resolution {
	if idx, ok := r.lookupTypeParam(name); ok {
		return ast.Resolution{Kind: ast.ResTyParam, TyParamIndex: idx, TyParamName: name}
	}
	if id, ok := r.currentModule()[name]; ok {
		return ast.Resolution{Kind: ast.ResItem, Item: id}
	}
	if builtins[name] {
		return ast.Resolution{Kind: ast.ResBuiltin, Builtin: name}
	}
	r.ctx.Sink.Add(errors.New(errors.RES005, span, "unknown type %q", name))
	return ast.Resolution{Kind: ast.ResError}
}

// resolveName implements the five-step lookup order from spec.md §4.3:
// locals, current module, in-scope package name, builtin, then error.
func (r *Resolver) resolveName(name string, span ast.Span) ast.Resolution {
	if idx, ok := r.lookupLocal(name); ok {
		return ast.Resolution{Kind: ast.ResLocal, LocalIndex: idx}
	}
	if id, ok := r.currentModule()[name]; ok {
		return ast.Resolution{Kind: ast.ResItem, Item: id}
	}
	if name == r.selfName {
		return ast.Resolution{Kind: ast.ResItem, Item: ids.ItemID{Pkg: r.pkgID, Idx: 0}}
	}
	if pkg, ok := r.ctx.Packages[name]; ok {
		return ast.Resolution{Kind: ast.ResItem, Item: ids.ItemID{Pkg: pkg.PkgID, Idx: 0}}
	}
	if builtins[name] {
		return ast.Resolution{Kind: ast.ResBuiltin, Builtin: name}
	}
	r.ctx.Sink.Add(errors.New(errors.RES001, span, "cannot find %q in this scope", name))
	return ast.Resolution{Kind: ast.ResError}
}

// resolveSegments resolves a use-declaration's dotted path by walking
// each segment as a nested member lookup, reusing the same module/extern
// member resolution as field-access collapsing.
func (r *Resolver) resolveSegments(segments []string, span ast.Span) ast.Resolution {
	if len(segments) == 0 {
		return ast.Resolution{Kind: ast.ResError}
	}
	res := r.resolveName(segments[0], span)
	for _, seg := range segments[1:] {
		if res.Kind != ast.ResItem {
			r.ctx.Sink.Add(errors.New(errors.RES002, span, "cannot access %q: preceding segment did not resolve to an item", seg))
			return ast.Resolution{Kind: ast.ResError}
		}
		target, ok := r.lookupItem(res.Item)
		if !ok {
			r.ctx.Sink.Add(errors.New(errors.RES002, span, "cannot find member %q", seg))
			return ast.Resolution{Kind: ast.ResError}
		}
		memberID, found := r.lookupMember(target, seg)
		if !found {
			r.ctx.Sink.Add(errors.New(errors.RES002, span, "cannot find member %q", seg))
			return ast.Resolution{Kind: ast.ResError}
		}
		res = ast.Resolution{Kind: ast.ResItem, Item: memberID}
	}
	return res
}

// foldFieldAccess implements spec.md §4.3's module-path collapsing: an
// access whose resolved left side denotes a Mod or Extern item becomes a
// Path expression instead of a FieldAccess.
func (r *Resolver) foldFieldAccess(v *ast.FieldAccessExpr) ast.Expr {
	base := r.FoldExpr(v.Base)

	var segments []string
	var res ast.Resolution
	switch b := base.(type) {
	case *ast.IdentExpr:
		segments, res = []string{b.Name}, b.Res
	case *ast.PathExpr:
		segments, res = append([]string{}, b.Segments...), b.Res
	default:
		return &ast.FieldAccessExpr{ExprCommon: v.ExprCommon, Base: base, Field: v.Field, FieldIdx: v.FieldIdx}
	}

	if res.Kind != ast.ResItem {
		return &ast.FieldAccessExpr{ExprCommon: v.ExprCommon, Base: base, Field: v.Field, FieldIdx: v.FieldIdx}
	}

	target, ok := r.lookupItem(res.Item)
	if !ok || !isModuleLike(target) {
		return &ast.FieldAccessExpr{ExprCommon: v.ExprCommon, Base: base, Field: v.Field, FieldIdx: v.FieldIdx}
	}

	newSegments := append(segments, v.Field)
	memberID, found := r.lookupMember(target, v.Field)
	if !found {
		r.ctx.Sink.Add(errors.New(errors.RES002, v.Span, "module %q has no member %q", strings.Join(segments, "."), v.Field))
		return &ast.PathExpr{ExprCommon: v.ExprCommon, Segments: newSegments, Res: ast.Resolution{Kind: ast.ResError}}
	}
	return &ast.PathExpr{ExprCommon: v.ExprCommon, Segments: newSegments, Res: ast.Resolution{Kind: ast.ResItem, Item: memberID}}
}

func isModuleLike(it ast.Item) bool {
	switch it.(type) {
	case *ast.ModItem, *ast.ExternItem:
		return true
	default:
		return false
	}
}

func (r *Resolver) lookupMember(target ast.Item, name string) (ids.ItemID, bool) {
	switch tv := target.(type) {
	case *ast.ModItem:
		for _, it := range tv.Items {
			if it.Base().Name == name {
				return it.Base().ID, true
			}
		}
		return ids.ItemID{}, false
	case *ast.ExternItem:
		members, ok := r.ctx.ExternContents[tv.ID]
		if !ok {
			return ids.ItemID{}, false
		}
		id, ok := members[name]
		return id, ok
	default:
		return ids.ItemID{}, false
	}
}

func (r *Resolver) lookupItem(id ids.ItemID) (ast.Item, bool) {
	if id.Pkg == r.pkgID {
		it, ok := r.selfByID[id]
		return it, ok
	}
	if pkg, ok := r.ctx.PackagesByPkgID[id.Pkg]; ok {
		it, ok := pkg.ByID[id]
		return it, ok
	}
	return nil, false
}

// loadExtern eagerly resolves ext's target package so that later path
// references through it can see its exports, per spec.md §4.3.
func (r *Resolver) loadExtern(ext *ast.ExternItem) {
	pkg, ok := r.ctx.Packages[ext.PkgName]
	if !ok {
		if r.ctx.Loader == nil {
			r.ctx.Sink.Add(errors.New(errors.MOD004, ext.Span, "unknown extern package %q", ext.PkgName))
			return
		}
		loaded, err := r.ctx.Loader.LoadPackage(ext.PkgName, ext.Span)
		if err != nil {
			r.ctx.Sink.Add(errors.New(errors.MOD004, ext.Span, "cannot load extern package %q: %v", ext.PkgName, err))
			return
		}
		pkg = loaded
		r.ctx.Packages[ext.PkgName] = pkg
		r.ctx.PackagesByPkgID[pkg.PkgID] = pkg
	}
	contents := make(map[string]ids.ItemID, len(pkg.Root))
	for _, it := range pkg.Root {
		contents[it.Base().Name] = it.Base().ID
	}
	r.ctx.ExternContents[ext.ID] = contents
}
