// Package errors provides wasmlet's structured diagnostic taxonomy: one
// short code per distinct failure, grouped by the phase that raises it.
// Grounded on the teacher's internal/errors/codes.go.
package errors

// Lexer errors (LEX###).
const (
	LEX001 = "LEX001" // invalid UTF-8 or unsupported byte in source
	LEX002 = "LEX002" // unterminated string literal
	LEX003 = "LEX003" // invalid numeric literal
)

// Parser errors (PAR###).
const (
	PAR001 = "PAR001" // unexpected token
	PAR002 = "PAR002" // missing closing delimiter
	PAR003 = "PAR003" // invalid function declaration
	PAR004 = "PAR004" // invalid type declaration
	PAR005 = "PAR005" // invalid import declaration
	PAR006 = "PAR006" // mixed-precedence-class expression requires parentheses
)

// Module/loader errors (MOD###).
const (
	MOD001 = "MOD001" // duplicate item name in module
	MOD002 = "MOD002" // module file not found
	MOD003 = "MOD003" // circular module dependency
	MOD004 = "MOD004" // unknown extern package
)

// Resolver errors (RES###).
const (
	RES001 = "RES001" // unbound identifier
	RES002 = "RES002" // unbound path segment
	RES003 = "RES003" // break outside any enclosing loop
	RES004 = "RES004" // duplicate local binding shadowing is allowed; this flags illegal redeclaration contexts
	RES005 = "RES005" // unknown type name
)

// Type-checking errors (TC###).
const (
	TC001 = "TC001" // type mismatch
	TC002 = "TC002" // unbound type variable at end of inference
	TC003 = "TC003" // occurs check failed (infinite type)
	TC004 = "TC004" // unknown type name
	TC005 = "TC005" // wrong argument count in call
	TC006 = "TC006" // assignment to non-mutable global
	TC007 = "TC007" // missing or extra struct literal fields
	TC008 = "TC008" // unknown struct field
	TC009 = "TC009" // alias cycle detected
	TC010 = "TC010" // arity mismatch instantiating a generic type
)

// Codegen errors (GEN###).
const (
	GEN001 = "GEN001" // unsupported construct reached codegen
)

// Info describes one error code's phase and short description, used by the
// CLI to group and by tests to assert phase membership.
type Info struct {
	Code        string
	Phase       string
	Description string
}

// Registry maps every code above to its Info.
var Registry = map[string]Info{
	LEX001: {LEX001, "lex", "invalid byte in source"},
	LEX002: {LEX002, "lex", "unterminated string literal"},
	LEX003: {LEX003, "lex", "invalid numeric literal"},

	PAR001: {PAR001, "parse", "unexpected token"},
	PAR002: {PAR002, "parse", "missing closing delimiter"},
	PAR003: {PAR003, "parse", "invalid function declaration"},
	PAR004: {PAR004, "parse", "invalid type declaration"},
	PAR005: {PAR005, "parse", "invalid import declaration"},
	PAR006: {PAR006, "parse", "ambiguous mixed-precedence expression"},

	MOD001: {MOD001, "build", "duplicate item name"},
	MOD002: {MOD002, "loader", "module file not found"},
	MOD003: {MOD003, "loader", "circular module dependency"},
	MOD004: {MOD004, "loader", "unknown extern package"},

	RES001: {RES001, "resolve", "unbound identifier"},
	RES002: {RES002, "resolve", "unbound path segment"},
	RES003: {RES003, "resolve", "break outside loop"},
	RES004: {RES004, "resolve", "illegal redeclaration"},
	RES005: {RES005, "resolve", "unknown type name"},

	TC001: {TC001, "typecheck", "type mismatch"},
	TC002: {TC002, "typecheck", "cannot infer type"},
	TC003: {TC003, "typecheck", "infinite type"},
	TC004: {TC004, "typecheck", "unknown type"},
	TC005: {TC005, "typecheck", "argument count mismatch"},
	TC006: {TC006, "typecheck", "assignment to immutable global"},
	TC007: {TC007, "typecheck", "struct literal field mismatch"},
	TC008: {TC008, "typecheck", "unknown struct field"},
	TC009: {TC009, "typecheck", "alias cycle"},
	TC010: {TC010, "typecheck", "generic arity mismatch"},

	GEN001: {GEN001, "codegen", "unsupported construct"},
}

// Phase returns the phase that raises code, or "" if code is unknown.
func Phase(code string) string {
	return Registry[code].Phase
}
