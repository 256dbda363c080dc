package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wasmlet/wasmlet/internal/ast"
)

// PrintExpr renders an expression. wasmlet's grammar gives every binary
// operator the same precedence (parser_expr.go's single BINARY level), so
// a left-nested BinaryExpr of the same operator class needs no parens to
// reproduce itself — but a right-nested one does, since unparenthesized
// input always parses left-associatively, and a left-nested one of a
// different class does too, since the parser rejects a flat chain that
// mixes classes (PAR006). The parenthesization rules
// below follow directly from tracing parser_expr.go's Pratt loop, not
// from a generic operator-precedence table.
func PrintExpr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.EmptyExpr:
		return "()"
	case *ast.LiteralExpr:
		return printLiteral(v)
	case *ast.IdentExpr:
		return v.Name
	case *ast.PathExpr:
		return strings.Join(v.Segments, ".")
	case *ast.BinaryExpr:
		return printBinary(v)
	case *ast.UnaryExpr:
		return printUnary(v)
	case *ast.LetExpr:
		return printLet(v)
	case *ast.AssignExpr:
		return fmt.Sprintf("%s = %s", PrintExpr(v.Lhs), PrintExpr(v.Rhs))
	case *ast.BlockExpr:
		parts := make([]string, len(v.Exprs))
		for i, sub := range v.Exprs {
			parts[i] = PrintExpr(sub)
		}
		return "(" + strings.Join(parts, "; ") + ")"
	case *ast.IfExpr:
		return printIf(v)
	case *ast.LoopExpr:
		return "loop " + PrintExpr(v.Body)
	case *ast.BreakExpr:
		return "break"
	case *ast.CallExpr:
		return printCall(v)
	case *ast.FieldAccessExpr:
		return printFieldAccess(v)
	case *ast.StructLiteralExpr:
		return printStructLiteral(v)
	case *ast.TupleLiteralExpr:
		return printTupleLiteral(v)
	case *ast.AsmExpr:
		// No surface syntax produces AsmExpr today — internal/parser never
		// builds one — so this form is not re-parseable; it exists for
		// inspection (debug dumps) rather than the round-trip property.
		return "___asm(" + strings.Join(v.Instrs, ", ") + ")"
	case *ast.ErrorExpr:
		return fmt.Sprintf("/* error: %s */", v.Token)
	default:
		return fmt.Sprintf("/* unsupported expr %T */", e)
	}
}

func printLiteral(v *ast.LiteralExpr) string {
	switch v.Kind {
	case ast.LitString:
		return strconv.Quote(v.Str)
	case ast.LitIntI32:
		return fmt.Sprintf("%d_I32", v.Int)
	default:
		return fmt.Sprintf("%d", v.Int)
	}
}

// needsParensAsBinaryOperand reports whether e must be wrapped in parens
// to appear as a BinaryExpr's right operand: only another BinaryExpr,
// since that is the only expression form the Pratt loop would otherwise
// fold into the wrong (left-associative) shape.
func needsParensAsBinaryOperand(e ast.Expr) bool {
	_, ok := e.(*ast.BinaryExpr)
	return ok
}

func printBinary(v *ast.BinaryExpr) string {
	class := func(op string) int {
		switch op {
		case "&", "|":
			return 1
		case "==", "!=", "<", ">", "<=", ">=":
			return 2
		case "+", "-":
			return 3
		default:
			return 4
		}
	}
	left := PrintExpr(v.Left)
	right := PrintExpr(v.Right)
	if l, ok := v.Left.(*ast.BinaryExpr); ok && class(l.Op) != class(v.Op) {
		left = "(" + left + ")"
	}
	if needsParensAsBinaryOperand(v.Right) {
		right = "(" + right + ")"
	}
	return fmt.Sprintf("%s %s %s", left, v.Op, right)
}

func printUnary(v *ast.UnaryExpr) string {
	operand := PrintExpr(v.Operand)
	switch v.Operand.(type) {
	case *ast.BinaryExpr, *ast.AssignExpr:
		operand = "(" + operand + ")"
	}
	return v.Op + operand
}

func printLet(v *ast.LetExpr) string {
	ascribed := ""
	if v.Ascribed != nil {
		ascribed = ": " + PrintType(v.Ascribed)
	}
	return fmt.Sprintf("let %s%s = %s", v.Name, ascribed, PrintExpr(v.Rhs))
}

func printIf(v *ast.IfExpr) string {
	s := fmt.Sprintf("if %s then %s", PrintExpr(v.Cond), PrintExpr(v.Then))
	if v.Else != nil {
		s += " else " + PrintExpr(v.Else)
	}
	return s
}

// needsParensAsChainHead reports whether e must be wrapped in parens to
// serve as the base of a call or field-access chain: the parser's postfix
// loop attaches `(...)`/`.x` directly onto whatever parsePrefix returned,
// so only a form the Pratt loop would otherwise have already consumed
// further left needs protecting — concretely, anything that is not
// itself already self-delimiting (an identifier, a path, a prior call, or
// a prior field access).
func needsParensAsChainHead(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IdentExpr, *ast.PathExpr, *ast.CallExpr, *ast.FieldAccessExpr:
		return false
	default:
		return true
	}
}

func printCall(v *ast.CallExpr) string {
	callee := PrintExpr(v.Callee)
	if needsParensAsChainHead(v.Callee) {
		callee = "(" + callee + ")"
	}
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = PrintExpr(a)
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

func printFieldAccess(v *ast.FieldAccessExpr) string {
	base := PrintExpr(v.Base)
	if needsParensAsChainHead(v.Base) {
		base = "(" + base + ")"
	}
	return base + "." + v.Field
}

func printStructLiteral(v *ast.StructLiteralExpr) string {
	fields := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, PrintExpr(f.Value))
	}
	return v.Name + " { " + strings.Join(fields, ", ") + " }"
}

func printTupleLiteral(v *ast.TupleLiteralExpr) string {
	parts := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		parts[i] = PrintExpr(e)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
