// Package lexer tokenizes wasmlet source into a flat token stream. Grounded
// on the teacher's internal/lexer/lexer.go and token.go: a hand-rolled,
// rune-at-a-time scanner with its own TokenType enum and keyword table,
// scaled down from ailang's much larger surface (no quasiquotes, no
// channels/effects/match) to spec.md §6's grammar.
package lexer

import "fmt"

// Kind enumerates token kinds.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	IDENT
	INT // integer literal; Token.I32 distinguishes the two literal subtypes
	STRING

	// Keywords
	FUNCTION
	TYPE
	STRUCT
	IMPORT
	EXTERN
	MOD
	GLOBAL
	MUT
	USE
	LET
	IF
	THEN
	ELSE
	LOOP
	BREAK

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQEQ
	NEQ
	LT
	GT
	LE
	GE
	AMP
	PIPE
	BANG
	ASSIGN

	// Delimiters
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	COLON
	SEMI
	DOT
)

var names = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENT: "IDENT", INT: "INT", STRING: "STRING",

	FUNCTION: "function", TYPE: "type", STRUCT: "struct", IMPORT: "import",
	EXTERN: "extern", MOD: "mod", GLOBAL: "global", MUT: "mut", USE: "use",
	LET: "let", IF: "if", THEN: "then", ELSE: "else", LOOP: "loop", BREAK: "break",

	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	EQEQ: "==", NEQ: "!=", LT: "<", GT: ">", LE: "<=", GE: ">=",
	AMP: "&", PIPE: "|", BANG: "!", ASSIGN: "=",

	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]", COMMA: ",", COLON: ":", SEMI: ";", DOT: ".",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

var keywords = map[string]Kind{
	"function": FUNCTION, "type": TYPE, "struct": STRUCT, "import": IMPORT,
	"extern": EXTERN, "mod": MOD, "global": GLOBAL, "mut": MUT, "use": USE,
	"let": LET, "if": IF, "then": THEN, "else": ELSE, "loop": LOOP, "break": BREAK,
}

// LookupIdent reports whether ident is a keyword, returning its Kind.
func LookupIdent(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// Token is one lexical token: a kind, its literal text (identifier name,
// string contents, or digit run), and the source span it occupies.
type Token struct {
	Kind    Kind
	Literal string
	I32     bool // INT only: true if the literal carried the `_I32` suffix
	Line    int
	Column  int
	Offset  int
	File    string
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s:%d:%d", t.Kind, t.Literal, t.File, t.Line, t.Column)
}
