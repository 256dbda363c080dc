// Package printer renders wasmlet's AST back into the concrete syntax
// internal/parser accepts, for any phase. Grounded on the teacher's
// internal/ast/print.go "deterministic output for golden/round-trip
// testing" intent, but printing real concrete syntax instead of JSON:
// `spec.md` §8's round-trip property requires the output to be
// re-parseable, not merely diffable.
package printer

import (
	"fmt"
	"strings"

	"github.com/wasmlet/wasmlet/internal/ast"
)

// Print renders a full item list (a package's Root, or a mod's Items), one
// item per top-level line.
func Print(items []ast.Item) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(PrintItem(it))
		b.WriteString("\n")
	}
	return b.String()
}

// PrintItem renders a single item.
func PrintItem(it ast.Item) string {
	switch v := it.(type) {
	case *ast.FuncItem:
		return printFuncItem(v)
	case *ast.TypeItem:
		return printTypeItem(v)
	case *ast.ImportItem:
		return printImportItem(v)
	case *ast.ExternItem:
		return fmt.Sprintf("extern mod %s;", v.PkgName)
	case *ast.ModItem:
		return printModItem(v)
	case *ast.GlobalItem:
		return printGlobalItem(v)
	case *ast.UseItem:
		return fmt.Sprintf("use %s;", strings.Join(v.Segments, "."))
	case *ast.ErrorItem:
		return fmt.Sprintf("/* error: %s */", v.Token)
	default:
		return fmt.Sprintf("/* unsupported item %T */", it)
	}
}

func printTypeParams(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func printParams(params []*ast.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, PrintType(p.Type))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func printReturnType(ret ast.Type) string {
	if ret == nil {
		return ""
	}
	return ": " + PrintType(ret)
}

func printFuncItem(v *ast.FuncItem) string {
	return fmt.Sprintf("function %s%s%s%s = %s;",
		v.Name, printTypeParams(v.TypeParams), printParams(v.Params), printReturnType(v.ReturnType), PrintExpr(v.Body))
}

func printTypeItem(v *ast.TypeItem) string {
	var def string
	switch d := v.Def.(type) {
	case *ast.StructDef:
		fields := make([]string, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = fmt.Sprintf("%s: %s", f.Name, PrintType(f.Type))
		}
		def = "struct { " + strings.Join(fields, ", ") + " }"
	case *ast.AliasDef:
		def = PrintType(d.Target)
	}
	return fmt.Sprintf("type %s%s = %s;", v.Name, printTypeParams(v.TypeParams), def)
}

func printImportItem(v *ast.ImportItem) string {
	return fmt.Sprintf("import (%q %q)%s%s;", v.ModuleStr, v.FuncStr, printParams(v.Params), printReturnType(v.ReturnType))
}

func printModItem(v *ast.ModItem) string {
	if v.FileBased {
		return fmt.Sprintf("mod %s;", v.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "mod %s (\n", v.Name)
	for _, it := range v.Items {
		for _, line := range strings.Split(PrintItem(it), "\n") {
			if line == "" {
				continue
			}
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString(");")
	return b.String()
}

func printGlobalItem(v *ast.GlobalItem) string {
	mut := ""
	if v.Mut {
		mut = "mut "
	}
	return fmt.Sprintf("global %s%s: %s = %s;", mut, v.Name, PrintType(v.Type), PrintExpr(v.Init))
}

// PrintType renders a type expression.
func PrintType(t ast.Type) string {
	switch v := t.(type) {
	case *ast.IdentType:
		if len(v.Args) == 0 {
			return v.Name
		}
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = PrintType(a)
		}
		return v.Name + "[" + strings.Join(args, ", ") + "]"
	case *ast.TupleType:
		if len(v.Elems) == 0 {
			return "()"
		}
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = PrintType(e)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.RawPtrType:
		return "*" + PrintType(v.Inner)
	case *ast.NeverType:
		return "!"
	case *ast.ErrorType:
		return v.Token
	default:
		return fmt.Sprintf("/* unsupported type %T */", t)
	}
}
