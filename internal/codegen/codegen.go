// Package codegen lowers a Typecked wasmlet package into WebAssembly text
// format: one `(func ...)` per source function, a `(import ...)` per
// foreign declaration (source-level or auto-generated for an extern
// dependency's function), and a linear-memory layout for every struct and
// tuple value per spec.md §8's layout rule. Deliberately the thinnest
// package in the repo — a consumer of the typed AST, not a design surface
// this project curates — grounded in posture (walk a finished program,
// print text, nothing more) on the teacher's cmd/wasm entry point.
package codegen

import (
	"fmt"
	"strings"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/ids"
	"github.com/wasmlet/wasmlet/internal/types"
)

// bumpStart is the linear-memory address the toy bump allocator starts
// handing out from; spec.md's non-goals explicitly exclude "a usable
// memory allocator", so wasmlet's allocator never frees.
const bumpStart = 16

// Generator holds the state shared across one package's WAT emission: the
// package being compiled, any dependency packages its externs reference
// (for cross-module calls and signatures), and the struct-layout and
// extern-import caches built up as it walks function bodies.
type Generator struct {
	pkg  *ast.Package
	deps map[ids.PkgID]*ast.Package
	sink *errors.Sink

	layouts    map[ids.ItemID]Layout
	externSeen map[ids.ItemID]bool
	externImp  []string
	printDone  bool

	loopLabels  map[ids.LoopID]string
	nextLoopTag int
}

// Generate renders pkg (which must be at phase Typecked) as one WAT
// module. deps supplies any dependency packages pkg's `extern mod` items
// reference, so cross-package calls can be lowered to wasm imports; pass
// nil for a package with no externs.
func Generate(sink *errors.Sink, pkg *ast.Package, deps map[ids.PkgID]*ast.Package) string {
	pkg.MustAtLeast(ast.Typecked)
	g := &Generator{
		pkg:        pkg,
		deps:       deps,
		sink:       sink,
		layouts:    make(map[ids.ItemID]Layout),
		externSeen: make(map[ids.ItemID]bool),
		loopLabels: make(map[ids.LoopID]string),
	}

	var items []ast.Item
	ast.WalkItems(pkg.Root, func(it ast.Item) { items = append(items, it) })

	var imports, globals, funcs []string
	for _, it := range items {
		switch v := it.(type) {
		case *ast.ImportItem:
			imports = append(imports, g.renderImport(v))
		case *ast.GlobalItem:
			globals = append(globals, g.renderGlobal(v))
		case *ast.FuncItem:
			funcs = append(funcs, g.renderFunc(v))
		}
	}

	var out strings.Builder
	out.WriteString("(module\n")
	out.WriteString("  (memory $memory 1)\n")
	out.WriteString("  (export \"memory\" (memory $memory))\n")
	fmt.Fprintf(&out, "  (global $__bump (mut i32) (i32.const %d))\n", bumpStart)
	for _, s := range g.externImp {
		out.WriteString(s)
	}
	for _, s := range imports {
		out.WriteString(s)
	}
	for _, s := range globals {
		out.WriteString(s)
	}
	for _, s := range funcs {
		out.WriteString(s)
	}
	out.WriteString(")\n")
	return out.String()
}

func wasmName(it ast.Item) string { return "$" + strings.Join(it.Base().DefPath, ".") }

func isUnit(t types.Ty) bool {
	p, ok := t.(types.Prim)
	return ok && p.Kind == types.Unit
}

func isI64(t types.Ty) bool {
	p, ok := t.(types.Prim)
	return ok && p.Kind == types.Int
}

func wasmIntTy(i64 bool) string {
	if i64 {
		return "i64"
	}
	return "i32"
}

// wasmValType maps a semantic type to the one wasm value type it occupies.
// Int is the sole 64-bit value; every other scalar and every struct/tuple
// reference is a 4-byte wasm32 i32 (a raw value or a refcounted pointer).
func wasmValType(t types.Ty) string {
	if isI64(t) {
		return "i64"
	}
	return "i32"
}

func (g *Generator) layoutFor(st types.Struct) Layout {
	if l, ok := g.layouts[st.Item]; ok {
		return l
	}
	l := ComputeStructLayout(st)
	g.layouts[st.Item] = l
	return l
}

func (g *Generator) renderImport(imp *ast.ImportItem) string {
	sig, _ := g.pkg.Sigs[imp.ID].(types.Fn)
	var b strings.Builder
	fmt.Fprintf(&b, "  (import %q %q (func %s", imp.ModuleStr, imp.FuncStr, wasmName(imp))
	for i, p := range sig.Params {
		fmt.Fprintf(&b, " (param $p%d %s)", i, wasmValType(p))
	}
	if !isUnit(sig.Ret) {
		fmt.Fprintf(&b, " (result %s)", wasmValType(sig.Ret))
	}
	b.WriteString("))\n")
	return b.String()
}

// renderGlobal emits a global's declaration. wasm globals require a
// constant initializer; anything other than an integer literal is flagged GEN001
// and defaulted to zero.
func (g *Generator) renderGlobal(gl *ast.GlobalItem) string {
	ty := g.pkg.Sigs[gl.ID]
	valTy := wasmValType(ty)
	constExpr := fmt.Sprintf("(%s.const 0)", valTy)
	if lit, ok := gl.Init.(*ast.LiteralExpr); ok && lit.Kind != ast.LitString {
		constExpr = fmt.Sprintf("(%s.const %d)", valTy, lit.Int)
	} else {
		g.sink.Add(errors.New(errors.GEN001, gl.Span, "global %q's initializer is not a constant; defaulting to zero", gl.Name))
	}
	mutKw := ""
	if gl.Mut {
		mutKw = "mut "
	}
	return fmt.Sprintf("  (global %s (%s%s) %s)\n", wasmName(gl), mutKw, valTy, constExpr)
}

func (g *Generator) renderFunc(fn *ast.FuncItem) string {
	fc := &funcCtx{gen: g}
	for _, p := range fn.Sig.Params {
		fc.pushParam(wasmValType(p))
	}
	paramCount := len(fn.Sig.Params)

	var body strings.Builder
	fc.out = &body
	fc.emitExpr(g.pkg.Bodies[fn.ID])

	var b strings.Builder
	b.WriteString("  (func " + wasmName(fn))
	for i, p := range fn.Sig.Params {
		fmt.Fprintf(&b, " (param $p%d %s)", i, wasmValType(p))
	}
	if !isUnit(fn.Sig.Ret) {
		fmt.Fprintf(&b, " (result %s)", wasmValType(fn.Sig.Ret))
	}
	b.WriteString("\n")
	for i := paramCount; i < len(fc.slotTypes); i++ {
		fmt.Fprintf(&b, "    (local $l%d %s)\n", i, fc.slotTypes[i])
	}
	b.WriteString(body.String())
	b.WriteString("  )\n")
	if len(fn.DefPath) == 1 {
		fmt.Fprintf(&b, "  (export %q (func %s))\n", fn.Name, wasmName(fn))
	}
	return b.String()
}

// callTarget resolves id to a callable wasm function name, auto-declaring
// a host-style import the first time a dependency-package function is
// called (wasmlet links separately-compiled packages the way two wasm
// modules link: across an import boundary, never by inlining).
func (g *Generator) callTarget(id ids.ItemID, span ast.Span) string {
	if id.Pkg == g.pkg.PkgID {
		it, ok := g.pkg.ByID[id]
		if !ok {
			g.sink.Add(errors.New(errors.GEN001, span, "item %s not found in codegen", id))
			return "$__missing"
		}
		return wasmName(it)
	}
	dep, ok := g.deps[id.Pkg]
	if !ok {
		g.sink.Add(errors.New(errors.GEN001, span, "dependency package %d not available to codegen", id.Pkg))
		return "$__missing"
	}
	it, ok := dep.ByID[id]
	if !ok {
		g.sink.Add(errors.New(errors.GEN001, span, "item %s not found in dependency %s", id, dep.Name))
		return "$__missing"
	}
	name := "$extern." + dep.Name + "." + it.Base().Name
	if !g.externSeen[id] {
		g.externSeen[id] = true
		sig, _ := dep.Sigs[id].(types.Fn)
		var b strings.Builder
		fmt.Fprintf(&b, "  (import %q %q (func %s", dep.Name, it.Base().Name, name)
		for i, p := range sig.Params {
			fmt.Fprintf(&b, " (param $p%d %s)", i, wasmValType(p))
		}
		if !isUnit(sig.Ret) {
			fmt.Fprintf(&b, " (result %s)", wasmValType(sig.Ret))
		}
		b.WriteString("))\n")
		g.externImp = append(g.externImp, b.String())
	}
	return name
}

func (g *Generator) printImport() string {
	if !g.printDone {
		g.printDone = true
		g.externImp = append(g.externImp, "  (import \"env\" \"print\" (func $env.print (param i32)))\n")
	}
	return "$env.print"
}

// lookupItem finds an item by id in the package being compiled.
// Cross-package value references (reading a dependency's global) go
// through deps instead.
func (g *Generator) lookupItem(id ids.ItemID) (ast.Item, bool) {
	if id.Pkg == g.pkg.PkgID {
		it, ok := g.pkg.ByID[id]
		return it, ok
	}
	if dep, ok := g.deps[id.Pkg]; ok {
		it, ok := dep.ByID[id]
		return it, ok
	}
	return nil, false
}
