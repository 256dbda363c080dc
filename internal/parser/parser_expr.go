package parser

import (
	"strconv"

	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/lexer"
)

// Precedence levels, loosest to tightest. Grounded in shape on the
// teacher's precedence-climbing parser, but deliberately collapsed: every
// binary operator class (bitwise/logical, comparison, additive,
// multiplicative) shares one precedence level, BINARY. Mathematical
// precedence among *different* classes does not exist in this grammar —
// spec.md §4.4 requires parentheses to mix classes at all, so giving
// `*` a tighter binding than `+` would silently parse `a + b * c`
// instead of flagging it. A single shared level keeps a flat operator
// chain in one Pratt loop frame, where the class-mismatch check below
// can actually see every operator in the chain; real precedence-climbing
// would absorb a tighter-binding operator into a nested call before the
// check ever saw it.
const (
	LOWEST = iota
	ASSIGNPREC
	BINARY
	UNARY
	CALL
	FIELD
)

// opClass enumerates the parenthesisless-mixing classes spec.md §4.4
// describes; PAR006 fires when a flat (unparenthesized) operator chain
// crosses from one class into another.
type opClass int

const (
	classNone opClass = iota
	classBitwise
	classCompare
	classAdditive
	classMultiplicative
)

func (c opClass) String() string {
	switch c {
	case classBitwise:
		return "bitwise"
	case classCompare:
		return "comparison"
	case classAdditive:
		return "additive"
	case classMultiplicative:
		return "multiplicative"
	default:
		return "none"
	}
}

type opInfo struct {
	prec     int
	class    opClass
	isBinary bool
}

var infixInfo = map[lexer.Kind]opInfo{
	lexer.AMP:     {BINARY, classBitwise, true},
	lexer.PIPE:    {BINARY, classBitwise, true},
	lexer.EQEQ:    {BINARY, classCompare, true},
	lexer.NEQ:     {BINARY, classCompare, true},
	lexer.LT:      {BINARY, classCompare, true},
	lexer.GT:      {BINARY, classCompare, true},
	lexer.LE:      {BINARY, classCompare, true},
	lexer.GE:      {BINARY, classCompare, true},
	lexer.PLUS:    {BINARY, classAdditive, true},
	lexer.MINUS:   {BINARY, classAdditive, true},
	lexer.STAR:    {BINARY, classMultiplicative, true},
	lexer.SLASH:   {BINARY, classMultiplicative, true},
	lexer.PERCENT: {BINARY, classMultiplicative, true},
	lexer.ASSIGN:  {ASSIGNPREC, classNone, false},
	lexer.LPAREN:  {CALL, classNone, false},
	lexer.DOT:     {FIELD, classNone, false},
}

// parseExpr is the Pratt loop. A flat chain of binary operators spanning
// more than one class without intervening parentheses is diagnosed once
// per chain (PAR006) but parsing continues, building the tree left to
// right exactly as precedence dictates — recovery, not rejection.
func (p *Parser) parseExpr(precedence int) ast.Expr {
	left := p.parsePrefix()

	frameClass := classNone
	mixFlagged := false

	for {
		info, ok := infixInfo[p.cur.Kind]
		if !ok || precedence >= info.prec {
			break
		}
		if info.isBinary {
			if frameClass == classNone {
				frameClass = info.class
			} else if info.class != frameClass && !mixFlagged {
				p.errorf(errors.PAR006, "mixing %s and %s operators requires parentheses", frameClass, info.class)
				mixFlagged = true
			}
		}

		switch p.cur.Kind {
		case lexer.LPAREN:
			left = p.parseCallExpr(left)
		case lexer.DOT:
			left = p.parseFieldAccessExpr(left)
		case lexer.ASSIGN:
			left = p.parseAssignExpr(left)
		default:
			left = p.parseBinaryExpr(left, info.prec)
		}
	}
	return left
}

func (p *Parser) parseBinaryExpr(left ast.Expr, prec int) ast.Expr {
	op := p.cur.Literal
	start := left.Position().Start
	p.advance()
	right := p.parseExpr(prec)
	return &ast.BinaryExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Op: op, Left: left, Right: right}
}

func (p *Parser) parseAssignExpr(left ast.Expr) ast.Expr {
	start := left.Position().Start
	p.advance() // `=`
	right := p.parseExpr(LOWEST)
	return &ast.AssignExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Lhs: left, Rhs: right}
}

func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	start := callee.Position().Start
	p.advance() // `(`
	var args []ast.Expr
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		args = append(args, p.parseExpr(LOWEST))
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)
	return &ast.CallExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Callee: callee, Args: args}
}

func (p *Parser) parseFieldAccessExpr(base ast.Expr) ast.Expr {
	start := base.Position().Start
	p.advance() // `.`
	var field string
	switch p.cur.Kind {
	case lexer.IDENT:
		field = p.cur.Literal
		p.advance()
	case lexer.INT:
		field = p.cur.Literal
		p.advance()
	default:
		p.errorf(errors.PAR001, "expected field name or tuple index after `.`, found %s %q", p.cur.Kind, p.cur.Literal)
	}
	return &ast.FieldAccessExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Base: base, Field: field, FieldIdx: -1}
}

func (p *Parser) parsePrefix() ast.Expr {
	start := p.startPos()
	switch p.cur.Kind {
	case lexer.INT:
		return p.parseIntLiteral()
	case lexer.STRING:
		tok := p.cur
		p.advance()
		return &ast.LiteralExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Kind: ast.LitString, Str: tok.Literal}
	case lexer.IDENT:
		return p.parseIdentOrStructLiteral()
	case lexer.LPAREN:
		return p.parseParenExpr(start)
	case lexer.MINUS, lexer.BANG:
		op := p.cur.Literal
		p.advance()
		operand := p.parseExpr(UNARY)
		return &ast.UnaryExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Op: op, Operand: operand}
	case lexer.LET:
		return p.parseLetExpr(start)
	case lexer.IF:
		return p.parseIfExpr(start)
	case lexer.LOOP:
		p.advance()
		body := p.parseExpr(LOWEST)
		return &ast.LoopExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Body: body}
	case lexer.BREAK:
		p.advance()
		return &ast.BreakExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}}
	default:
		tok := p.cur
		p.errorf(errors.PAR001, "unexpected token %s %q in expression", tok.Kind, tok.Literal)
		p.advance()
		return &ast.ErrorExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Token: tok.Literal}
	}
}

func (p *Parser) parseIntLiteral() ast.Expr {
	start := p.startPos()
	tok := p.cur
	p.advance()
	n, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.errorf(errors.LEX003, "invalid integer literal %q", tok.Literal)
	}
	kind := ast.LitIntDefault
	if tok.I32 {
		kind = ast.LitIntI32
	}
	return &ast.LiteralExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Kind: kind, Int: n}
}

// parseIdentOrStructLiteral disambiguates `Name` from `Name { ... }`: the
// two delimiters never collide with block syntax, which only ever opens
// with `(`, so an IDENT immediately followed by `{` is always a struct
// literal.
func (p *Parser) parseIdentOrStructLiteral() ast.Expr {
	start := p.startPos()
	nameTok := p.cur
	p.advance()
	if !p.curIs(lexer.LBRACE) {
		return &ast.IdentExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Name: nameTok.Literal}
	}
	p.advance() // `{`
	var fields []*ast.FieldInit
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fieldPos := p.startPos()
		fieldTok, ok := p.expect(lexer.IDENT)
		if !ok {
			p.skipTo(lexer.COMMA, lexer.RBRACE, lexer.EOF)
		} else {
			p.expect(lexer.COLON)
			value := p.parseExpr(LOWEST)
			fields = append(fields, &ast.FieldInit{Name: fieldTok.Literal, Value: value, Index: -1, Pos: fieldPos})
		}
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE)
	return &ast.StructLiteralExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Name: nameTok.Literal, Fields: fields}
}

func (p *Parser) parseLetExpr(start ast.Pos) ast.Expr {
	p.advance() // `let`
	nameTok, _ := p.expect(lexer.IDENT)
	var ascribed ast.Type
	if p.curIs(lexer.COLON) {
		p.advance()
		ascribed = p.parseType()
	}
	p.expect(lexer.ASSIGN)
	rhs := p.parseExpr(LOWEST)
	return &ast.LetExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Name: nameTok.Literal, Ascribed: ascribed, Rhs: rhs}
}

func (p *Parser) parseIfExpr(start ast.Pos) ast.Expr {
	p.advance() // `if`
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.THEN)
	then := p.parseExpr(LOWEST)
	var els ast.Expr
	if p.curIs(lexer.ELSE) {
		p.advance()
		els = p.parseExpr(LOWEST)
	}
	return &ast.IfExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Cond: cond, Then: then, Else: els}
}

// parseParenExpr disambiguates the four meanings of a leading `(`:
// `()` empty/unit, `(e)` a grouped expression (returned bare, not
// wrapped), `(e,)`/`(e1, e2, ...)` a tuple literal, `(e1; e2; ...)` a
// block. The separator seen after the first element decides the mode;
// wasmlet's grammar never mixes `;` and `,` within one set of
// parentheses.
func (p *Parser) parseParenExpr(start ast.Pos) ast.Expr {
	p.advance() // `(`
	if p.curIs(lexer.RPAREN) {
		p.advance()
		return &ast.EmptyExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}}
	}

	first := p.parseExpr(LOWEST)

	switch p.cur.Kind {
	case lexer.RPAREN:
		p.advance()
		return first

	case lexer.COMMA:
		elems := []ast.Expr{first}
		for p.curIs(lexer.COMMA) {
			p.advance()
			if p.curIs(lexer.RPAREN) {
				break // trailing comma
			}
			elems = append(elems, p.parseExpr(LOWEST))
		}
		p.expect(lexer.RPAREN)
		return &ast.TupleLiteralExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Elems: elems}

	case lexer.SEMI:
		exprs := []ast.Expr{first}
		for p.curIs(lexer.SEMI) {
			p.advance()
			if p.curIs(lexer.RPAREN) {
				break // trailing semicolon
			}
			exprs = append(exprs, p.parseExpr(LOWEST))
		}
		p.expect(lexer.RPAREN)
		return &ast.BlockExpr{ExprCommon: ast.ExprCommon{Span: p.spanFrom(start)}, Exprs: exprs}

	default:
		p.errorf(errors.PAR002, "expected `)`, `,`, or `;`, found %s %q", p.cur.Kind, p.cur.Literal)
		p.skipTo(lexer.RPAREN, lexer.SEMI, lexer.EOF)
		if p.curIs(lexer.RPAREN) {
			p.advance()
		}
		return first
	}
}
