// Package typeck implements the resolved→typecked fold: signature
// lowering for every item and Hindley-Milner-style body checking for
// function and global initializers. Grounded on the teacher's
// internal/types/typechecker_core.go (per-expression-form dispatch, one
// method per AST node kind) and internal/types/typechecker_operators.go
// (the operator-to-result-type table), both scaled down from ailang's
// type-class/dictionary-passing machinery to spec.md §4.4's plain
// monomorphic unification.
package typeck

import (
	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/types"
)

// Context is shared across every package type-checked in one compilation.
type Context struct {
	Sink     *errors.Sink
	Packages map[ids.PkgID]*ast.Package // finalized (Typecked) dependency packages
}

// NewContext returns an empty Context.
func NewContext(sink *errors.Sink) *Context {
	return &Context{Sink: sink, Packages: make(map[ids.PkgID]*ast.Package)}
}

// lookupItem finds an item by id in the package currently being checked or
// in an already-finalized dependency package.
func (c *Checker) lookupItem(id ids.ItemID) (ast.Item, bool) {
	if id.Pkg == c.pkg.PkgID {
		it, ok := c.pkg.ByID[id]
		return it, ok
	}
	if pkg, ok := c.ctx.Packages[id.Pkg]; ok {
		it, ok := pkg.ByID[id]
		return it, ok
	}
	return nil, false
}

// typeOfItem computes (and memoizes) the value type of a Function, Import,
// Global, or Use item. Struct/alias Type items are not value-typed here —
// see typeOfTypeItem.
func (c *Checker) typeOfItem(id ids.ItemID) types.Ty {
	if t, ok := c.sigCache[id]; ok {
		return t
	}
	it, ok := c.lookupItem(id)
	if !ok {
		return types.Error{}
	}

	var t types.Ty
	switch v := it.(type) {
	case *ast.FuncItem:
		t = c.checkFuncItem(v)
	case *ast.ImportItem:
		t = c.lowerFnSig(v.Params, v.ReturnType)
	case *ast.GlobalItem:
		t = c.lowerAstTy(v.Type)
	case *ast.UseItem:
		if v.Res.Kind == ast.ResItem {
			t = c.typeOfItem(v.Res.Item)
		} else {
			t = types.Error{}
		}
	default:
		// Mod/Extern/TypeDef/Error items have no value type.
		t = types.Error{}
	}

	c.sigCache[id] = t
	return t
}

func (c *Checker) lowerFnSig(params []*ast.Param, ret ast.Type) types.Fn {
	paramTys := make([]types.Ty, len(params))
	for i, p := range params {
		paramTys[i] = c.lowerAstTy(p.Type)
	}
	var retTy types.Ty = types.Prim{Kind: types.Unit}
	if ret != nil {
		retTy = c.lowerAstTy(ret)
	}
	return types.Fn{Params: paramTys, Ret: retTy}
}

// typeOfTypeItem computes (and memoizes) the semantic type named by a Type
// item: a nominal Struct, or the lowered target of an alias. Alias lowering
// detects cycles via aliasVisiting, per spec.md §4.4/§5's mandatory cycle
// check.
func (c *Checker) typeOfTypeItem(id ids.ItemID) types.Ty {
	if t, ok := c.sigCache[id]; ok {
		return t
	}
	it, ok := c.lookupItem(id)
	if !ok {
		return types.Error{}
	}
	ti, ok := it.(*ast.TypeItem)
	if !ok {
		return types.Error{}
	}

	switch def := ti.Def.(type) {
	case *ast.StructDef:
		fields := make([]types.StructField, len(def.Fields))
		for i, fd := range def.Fields {
			fields[i] = types.StructField{Name: fd.Name, Type: c.lowerAstTy(fd.Type)}
		}
		t := types.Struct{Item: id, Name: ti.Name, Fields: fields}
		c.sigCache[id] = t
		return t

	case *ast.AliasDef:
		if c.aliasVisiting[id] {
			c.ctx.Sink.Add(errors.New(errors.TC009, ti.Span, "alias cycle detected at %q", ti.Name))
			c.sigCache[id] = types.Error{}
			return types.Error{}
		}
		c.aliasVisiting[id] = true
		t := c.lowerAstTy(def.Target)
		delete(c.aliasVisiting, id)
		c.sigCache[id] = t
		return t

	default:
		return types.Error{}
	}
}

// lowerAstTy maps an AST type expression to its semantic type, consuming
// the Resolution the resolver already attached to IdentType nodes.
func (c *Checker) lowerAstTy(t ast.Type) types.Ty {
	switch v := t.(type) {
	case *ast.IdentType:
		return c.lowerIdentType(v)
	case *ast.TupleType:
		elems := make([]types.Ty, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = c.lowerAstTy(e)
		}
		return types.Tuple{Elems: elems}
	case *ast.RawPtrType:
		return types.RawPtr{Inner: c.lowerAstTy(v.Inner)}
	case *ast.NeverType:
		return types.Prim{Kind: types.Never}
	case *ast.ErrorType:
		return types.Error{}
	default:
		return types.Error{}
	}
}

func (c *Checker) lowerIdentType(v *ast.IdentType) types.Ty {
	switch v.Res.Kind {
	case ast.ResItem:
		return c.typeOfTypeItem(v.Res.Item)
	case ast.ResTyParam:
		return types.TyParam{Index: v.Res.TyParamIndex, Name: v.Res.TyParamName}
	case ast.ResBuiltin:
		if prim, ok := builtinPrim(v.Res.Builtin); ok {
			return prim
		}
		c.ctx.Sink.Add(errors.New(errors.TC004, v.Span, "%q does not name a type", v.Res.Builtin))
		return types.Error{}
	default:
		return types.Error{}
	}
}

// builtinPrim maps the builtin names usable in type position to their
// primitive type.
func builtinPrim(name string) (types.Prim, bool) {
	switch name {
	case "Bool":
		return types.Prim{Kind: types.Bool}, true
	case "String":
		return types.Prim{Kind: types.String}, true
	case "Int":
		return types.Prim{Kind: types.Int}, true
	case "I32":
		return types.Prim{Kind: types.I32}, true
	default:
		return types.Prim{}, false
	}
}
