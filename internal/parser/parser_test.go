package parser

import (
	"testing"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/lexer"
)

func parseSrc(t *testing.T, src string) ([]ast.Item, *errors.Sink) {
	t.Helper()
	sink := errors.NewSink()
	tokens, ok := lexer.Tokenize(sink, "t.wl", []byte(src))
	if !ok {
		t.Fatalf("lex errors: %v", sink.Reports())
	}
	return ParseFile(sink, "t.wl", tokens), sink
}

func TestParseScenario1LetBlock(t *testing.T) {
	items, sink := parseSrc(t, `function main() = (let a: Int = 1; a);`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	fn, ok := items[0].(*ast.FuncItem)
	if !ok {
		t.Fatalf("got %T, want *ast.FuncItem", items[0])
	}
	if fn.Name != "main" || fn.ReturnType != nil || len(fn.Params) != 0 {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	block, ok := fn.Body.(*ast.BlockExpr)
	if !ok || len(block.Exprs) != 2 {
		t.Fatalf("got body %#v, want a 2-element block", fn.Body)
	}
	let, ok := block.Exprs[0].(*ast.LetExpr)
	if !ok || let.Name != "a" {
		t.Fatalf("got %#v, want a let binding `a`", block.Exprs[0])
	}
	ascribed, ok := let.Ascribed.(*ast.IdentType)
	if !ok || ascribed.Name != "Int" {
		t.Fatalf("got ascription %#v, want Int", let.Ascribed)
	}
	lit, ok := let.Rhs.(*ast.LiteralExpr)
	if !ok || lit.Kind != ast.LitIntDefault || lit.Int != 1 {
		t.Fatalf("got rhs %#v, want literal int 1", let.Rhs)
	}
	ident, ok := block.Exprs[1].(*ast.IdentExpr)
	if !ok || ident.Name != "a" {
		t.Fatalf("got %#v, want ident `a`", block.Exprs[1])
	}
}

func TestParseStructLiteralMissingField(t *testing.T) {
	items, sink := parseSrc(t, `type Pair = struct { x: Int, y: Int }; function f() = Pair { x: 1 };`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	ty, ok := items[0].(*ast.TypeItem)
	if !ok {
		t.Fatalf("got %T, want *ast.TypeItem", items[0])
	}
	def, ok := ty.Def.(*ast.StructDef)
	if !ok || len(def.Fields) != 2 || def.Fields[0].Name != "x" || def.Fields[1].Name != "y" {
		t.Fatalf("unexpected struct def: %+v", def)
	}
	fn := items[1].(*ast.FuncItem)
	lit, ok := fn.Body.(*ast.StructLiteralExpr)
	if !ok || lit.Name != "Pair" || len(lit.Fields) != 1 || lit.Fields[0].Name != "x" {
		t.Fatalf("unexpected struct literal: %#v", fn.Body)
	}
}

func TestParseModAndCall(t *testing.T) {
	items, sink := parseSrc(t, `mod m (function g() = (););
function main() = m.g();`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	mod, ok := items[0].(*ast.ModItem)
	if !ok || mod.Name != "m" || mod.FileBased || len(mod.Items) != 1 {
		t.Fatalf("unexpected mod item: %+v", mod)
	}
	fn := items[1].(*ast.FuncItem)
	call, ok := fn.Body.(*ast.CallExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.CallExpr", fn.Body)
	}
	access, ok := call.Callee.(*ast.FieldAccessExpr)
	if !ok || access.Field != "g" {
		t.Fatalf("got callee %#v, want field access `.g`", call.Callee)
	}
	base, ok := access.Base.(*ast.IdentExpr)
	if !ok || base.Name != "m" {
		t.Fatalf("got base %#v, want ident `m`", access.Base)
	}
}

func TestParseFileBasedMod(t *testing.T) {
	items, sink := parseSrc(t, `mod sub;`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	mod := items[0].(*ast.ModItem)
	if !mod.FileBased || mod.Items != nil {
		t.Fatalf("got %+v, want FileBased with no items", mod)
	}
}

func TestParseLoopAndBreak(t *testing.T) {
	items, sink := parseSrc(t, `function main() = loop ( break );`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	fn := items[0].(*ast.FuncItem)
	loop, ok := fn.Body.(*ast.LoopExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.LoopExpr", fn.Body)
	}
	if _, ok := loop.Body.(*ast.BreakExpr); !ok {
		t.Fatalf("got loop body %#v, want break", loop.Body)
	}
}

func TestParseTupleAndUnit(t *testing.T) {
	items, sink := parseSrc(t, `function f() = (1, 2, 3);
function g() = ();
function h() = (1,);
function k() = (1);`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	tup := items[0].(*ast.FuncItem).Body.(*ast.TupleLiteralExpr)
	if len(tup.Elems) != 3 {
		t.Fatalf("got %d elems, want 3", len(tup.Elems))
	}
	if _, ok := items[1].(*ast.FuncItem).Body.(*ast.EmptyExpr); !ok {
		t.Fatalf("got %#v, want EmptyExpr", items[1].(*ast.FuncItem).Body)
	}
	singleton := items[2].(*ast.FuncItem).Body.(*ast.TupleLiteralExpr)
	if len(singleton.Elems) != 1 {
		t.Fatalf("got %d elems, want 1 (trailing-comma singleton)", len(singleton.Elems))
	}
	if _, ok := items[3].(*ast.FuncItem).Body.(*ast.LiteralExpr); !ok {
		t.Fatalf("got %#v, want a bare grouped literal, not a tuple", items[3].(*ast.FuncItem).Body)
	}
}

func TestParseMixedPrecedenceClassDiagnosed(t *testing.T) {
	_, sink := parseSrc(t, `function f() = 1 + 2 * 3;`)
	if !sink.HasErrors() {
		t.Fatalf("expected PAR006 for mixing additive and multiplicative without parens")
	}
	if sink.Reports()[0].Code != errors.PAR006 {
		t.Errorf("got code %s, want %s", sink.Reports()[0].Code, errors.PAR006)
	}
}

func TestParseSameClassChainNotDiagnosed(t *testing.T) {
	items, sink := parseSrc(t, `function f() = 1 + 2 - 3;`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors for same-class chain: %v", sink.Reports())
	}
	fn := items[0].(*ast.FuncItem)
	outer, ok := fn.Body.(*ast.BinaryExpr)
	if !ok || outer.Op != "-" {
		t.Fatalf("got %#v, want left-associative (1+2)-3", fn.Body)
	}
	if _, ok := outer.Left.(*ast.BinaryExpr); !ok {
		t.Fatalf("got left %#v, want nested binary 1+2", outer.Left)
	}
}

func TestParseParenthesizedMixResolvesCleanly(t *testing.T) {
	_, sink := parseSrc(t, `function f() = 1 + (2 * 3);`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
}

func TestParseRawPtrAndAliasTypes(t *testing.T) {
	items, sink := parseSrc(t, `type IntPtr = *Int;`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	alias := items[0].(*ast.TypeItem).Def.(*ast.AliasDef)
	ptr, ok := alias.Target.(*ast.RawPtrType)
	if !ok {
		t.Fatalf("got %#v, want *ast.RawPtrType", alias.Target)
	}
	if _, ok := ptr.Inner.(*ast.IdentType); !ok {
		t.Fatalf("got inner %#v, want IdentType Int", ptr.Inner)
	}
}

func TestParseGenericStruct(t *testing.T) {
	items, sink := parseSrc(t, `type Box[T] = struct { value: T };`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	ty := items[0].(*ast.TypeItem)
	if len(ty.TypeParams) != 1 || ty.TypeParams[0] != "T" {
		t.Fatalf("got type params %v, want [T]", ty.TypeParams)
	}
}

func TestParseImportItem(t *testing.T) {
	items, sink := parseSrc(t, `import ("env" "log") (x: Int): Int;`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	imp := items[0].(*ast.ImportItem)
	if imp.ModuleStr != "env" || imp.FuncStr != "log" || len(imp.Params) != 1 {
		t.Fatalf("unexpected import shape: %+v", imp)
	}
	ret, ok := imp.ReturnType.(*ast.IdentType)
	if !ok || ret.Name != "Int" {
		t.Fatalf("got return type %#v, want Int", imp.ReturnType)
	}
}

func TestParseGlobalMut(t *testing.T) {
	items, sink := parseSrc(t, `global mut counter: Int = 0;`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	g := items[0].(*ast.GlobalItem)
	if !g.Mut || g.Name != "counter" {
		t.Fatalf("unexpected global shape: %+v", g)
	}
}

func TestParseUseItem(t *testing.T) {
	items, sink := parseSrc(t, `use a.b.c;`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	use := items[0].(*ast.UseItem)
	if use.Name != "c" || len(use.Segments) != 3 {
		t.Fatalf("unexpected use shape: %+v", use)
	}
}

func TestParseExternItem(t *testing.T) {
	items, sink := parseSrc(t, `extern mod other;`)
	if sink.HasErrors() {
		t.Fatalf("unexpected errors: %v", sink.Reports())
	}
	ext := items[0].(*ast.ExternItem)
	if ext.PkgName != "other" {
		t.Fatalf("unexpected extern shape: %+v", ext)
	}
}

func TestParseUnexpectedTokenRecovers(t *testing.T) {
	items, sink := parseSrc(t, `) function main() = ();`)
	if !sink.HasErrors() {
		t.Fatalf("expected a diagnostic for the stray `)`")
	}
	if sink.Reports()[0].Code != errors.PAR001 {
		t.Errorf("got code %s, want %s", sink.Reports()[0].Code, errors.PAR001)
	}
	found := false
	for _, it := range items {
		if fn, ok := it.(*ast.FuncItem); ok && fn.Name == "main" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected parsing to recover and still parse `main`, got %+v", items)
	}
}
