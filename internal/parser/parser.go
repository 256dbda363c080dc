// Package parser turns a wasmlet token stream into a Parsed-phase AST.
// Grounded in shape on the teacher's internal/parser/parser.go: a
// recursive-descent parser carrying curToken/peekToken plus an advance
// method, with Pratt-style binary-operator parsing for expressions
// (parser_expr.go) scaled down to spec.md §6's smaller grammar — no
// pattern matching, no quasiquotes, no effect rows.
package parser

import (
	"github.com/wasmlet/wasmlet/internal/ast"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/lexer"
)

// Parser walks a fixed token slice produced by lexer.Tokenize. EOF is
// always the last token, so peek past the end of the slice is never
// needed — it is read from the stored EOF token instead.
type Parser struct {
	file   string
	tokens []lexer.Token
	pos    int
	sink   *errors.Sink

	cur, peek lexer.Token
}

// New constructs a Parser over tokens, which must end with an EOF token
// (as lexer.Tokenize always produces).
func New(sink *errors.Sink, file string, tokens []lexer.Token) *Parser {
	p := &Parser{file: file, tokens: tokens, sink: sink}
	if len(tokens) > 0 {
		p.cur = tokens[0]
	}
	if len(tokens) > 1 {
		p.peek = tokens[1]
	} else {
		p.peek = p.cur
	}
	return p
}

func (p *Parser) advance() {
	p.pos++
	p.cur = p.peek
	next := p.pos + 1
	if next < len(p.tokens) {
		p.peek = p.tokens[next]
	} else if len(p.tokens) > 0 {
		p.peek = p.tokens[len(p.tokens)-1] // EOF
	}
}

func (p *Parser) curIs(k lexer.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k lexer.Kind) bool { return p.peek.Kind == k }

// expect consumes cur if it matches k, else emits PAR001 and leaves the
// cursor in place so callers can attempt recovery.
func (p *Parser) expect(k lexer.Kind) (lexer.Token, bool) {
	if p.curIs(k) {
		tok := p.cur
		p.advance()
		return tok, true
	}
	p.errorf(errors.PAR001, "expected %s, found %s %q", k, p.cur.Kind, p.cur.Literal)
	return p.cur, false
}

func (p *Parser) span() ast.Span {
	pos := ast.Pos{File: p.cur.File, Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	return ast.Span{Start: pos, End: pos}
}

func (p *Parser) spanFrom(start ast.Pos) ast.Span {
	prevEnd := ast.Pos{File: p.cur.File, Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	return ast.Span{Start: start, End: prevEnd}
}

func (p *Parser) startPos() ast.Pos {
	return ast.Pos{File: p.cur.File, Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
}

func (p *Parser) errorf(code string, format string, args ...interface{}) {
	p.sink.Add(errors.New(code, p.span(), format, args...))
}

// skipTo advances past tokens until it reaches one of the given kinds or
// EOF, used to resynchronize after a malformed item/statement.
func (p *Parser) skipTo(kinds ...lexer.Kind) {
	for !p.curIs(lexer.EOF) {
		for _, k := range kinds {
			if p.curIs(k) {
				return
			}
		}
		p.advance()
	}
}

// ParseFile parses every item in the token stream until EOF, the entry
// point satisfying spec.md §4.5's parser collaborator interface.
func ParseFile(sink *errors.Sink, file string, tokens []lexer.Token) []ast.Item {
	p := New(sink, file, tokens)
	var items []ast.Item
	for !p.curIs(lexer.EOF) {
		items = append(items, p.parseItem())
	}
	return items
}

func (p *Parser) parseItem() ast.Item {
	switch p.cur.Kind {
	case lexer.FUNCTION:
		return p.parseFuncItem()
	case lexer.TYPE:
		return p.parseTypeItem()
	case lexer.IMPORT:
		return p.parseImportItem()
	case lexer.EXTERN:
		return p.parseExternItem()
	case lexer.MOD:
		return p.parseModItem()
	case lexer.GLOBAL:
		return p.parseGlobalItem()
	case lexer.USE:
		return p.parseUseItem()
	default:
		start := p.startPos()
		tok := p.cur
		p.errorf(errors.PAR001, "unexpected token %s %q at item position", tok.Kind, tok.Literal)
		p.advance()
		p.skipTo(lexer.FUNCTION, lexer.TYPE, lexer.IMPORT, lexer.EXTERN, lexer.MOD, lexer.GLOBAL, lexer.USE, lexer.EOF)
		return &ast.ErrorItem{ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: tok.Literal}, Token: tok.Literal}
	}
}

func (p *Parser) parseTypeParams() []string {
	if !p.curIs(lexer.LBRACKET) {
		return nil
	}
	p.advance()
	var names []string
	for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
		if tok, ok := p.expect(lexer.IDENT); ok {
			names = append(names, tok.Literal)
		}
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACKET)
	return names
}

func (p *Parser) parseParams() []*ast.Param {
	p.expect(lexer.LPAREN)
	var params []*ast.Param
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		pos := p.startPos()
		nameTok, ok := p.expect(lexer.IDENT)
		if !ok {
			p.skipTo(lexer.COMMA, lexer.RPAREN, lexer.EOF)
		} else {
			p.expect(lexer.COLON)
			ty := p.parseType()
			params = append(params, &ast.Param{Name: nameTok.Literal, Type: ty, Pos: pos})
		}
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)
	return params
}

// parseOptionalReturnType parses an optional `: Type` ascription, the
// convention spec.md's `global NAME: T = EXPR` also uses — wasmlet's
// grammar gives no separate arrow syntax for function/import returns.
func (p *Parser) parseOptionalReturnType() ast.Type {
	if !p.curIs(lexer.COLON) {
		return nil
	}
	p.advance()
	return p.parseType()
}

func (p *Parser) parseFuncItem() ast.Item {
	start := p.startPos()
	p.advance() // `function`
	nameTok, ok := p.expect(lexer.IDENT)
	if !ok {
		p.errorf(errors.PAR003, "invalid function declaration: expected name")
		p.skipTo(lexer.SEMI, lexer.EOF)
		p.advance()
		return &ast.ErrorItem{ItemCommon: ast.ItemCommon{Span: p.spanFrom(start)}, Token: "function"}
	}
	typeParams := p.parseTypeParams()
	params := p.parseParams()
	ret := p.parseOptionalReturnType()
	p.expect(lexer.ASSIGN)
	body := p.parseExpr(LOWEST)
	p.expect(lexer.SEMI)
	return &ast.FuncItem{
		ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: nameTok.Literal},
		TypeParams: typeParams,
		Params:     params,
		ReturnType: ret,
		Body:       body,
	}
}

func (p *Parser) parseStructDef() *ast.StructDef {
	p.expect(lexer.LBRACE)
	var fields []*ast.FieldDecl
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		pos := p.startPos()
		nameTok, ok := p.expect(lexer.IDENT)
		if !ok {
			p.skipTo(lexer.COMMA, lexer.RBRACE, lexer.EOF)
		} else {
			p.expect(lexer.COLON)
			ty := p.parseType()
			fields = append(fields, &ast.FieldDecl{Name: nameTok.Literal, Type: ty, Pos: pos})
		}
		if p.curIs(lexer.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBRACE)
	return &ast.StructDef{Fields: fields}
}

func (p *Parser) parseTypeItem() ast.Item {
	start := p.startPos()
	p.advance() // `type`
	nameTok, ok := p.expect(lexer.IDENT)
	if !ok {
		p.errorf(errors.PAR004, "invalid type declaration: expected name")
		p.skipTo(lexer.SEMI, lexer.EOF)
		p.advance()
		return &ast.ErrorItem{ItemCommon: ast.ItemCommon{Span: p.spanFrom(start)}, Token: "type"}
	}
	typeParams := p.parseTypeParams()
	p.expect(lexer.ASSIGN)
	var def ast.TypeDef
	if p.curIs(lexer.STRUCT) {
		p.advance()
		def = p.parseStructDef()
	} else {
		def = &ast.AliasDef{Target: p.parseType()}
	}
	p.expect(lexer.SEMI)
	return &ast.TypeItem{
		ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: nameTok.Literal},
		TypeParams: typeParams,
		Def:        def,
	}
}

func (p *Parser) parseImportItem() ast.Item {
	start := p.startPos()
	p.advance() // `import`
	if !p.curIs(lexer.LPAREN) {
		p.errorf(errors.PAR005, "invalid import declaration: expected (\"mod\" \"func\")")
		p.skipTo(lexer.SEMI, lexer.EOF)
		p.advance()
		return &ast.ErrorItem{ItemCommon: ast.ItemCommon{Span: p.spanFrom(start)}, Token: "import"}
	}
	p.advance() // `(`
	modTok, ok1 := p.expect(lexer.STRING)
	funcTok, ok2 := p.expect(lexer.STRING)
	p.expect(lexer.RPAREN)
	if !ok1 || !ok2 {
		p.errorf(errors.PAR005, "invalid import declaration: expected two string literals")
	}
	params := p.parseParams()
	ret := p.parseOptionalReturnType()
	p.expect(lexer.SEMI)
	return &ast.ImportItem{
		ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: funcTok.Literal},
		ModuleStr:  modTok.Literal,
		FuncStr:    funcTok.Literal,
		Params:     params,
		ReturnType: ret,
	}
}

func (p *Parser) parseExternItem() ast.Item {
	start := p.startPos()
	p.advance() // `extern`
	p.expect(lexer.MOD)
	nameTok, _ := p.expect(lexer.IDENT)
	p.expect(lexer.SEMI)
	return &ast.ExternItem{
		ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: nameTok.Literal},
		PkgName:    nameTok.Literal,
	}
}

// parseModItem handles both the inline `mod NAME ( items... );` form and
// the file-based `mod NAME;` form, distinguished by whether a `(`
// immediately follows the name. internal/loader expands FileBased mods
// into their sibling-file contents before internal/build runs.
func (p *Parser) parseModItem() ast.Item {
	start := p.startPos()
	p.advance() // `mod`
	nameTok, _ := p.expect(lexer.IDENT)
	if p.curIs(lexer.SEMI) {
		p.advance()
		return &ast.ModItem{
			ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: nameTok.Literal},
			FileBased:  true,
		}
	}
	p.expect(lexer.LPAREN)
	var items []ast.Item
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		items = append(items, p.parseItem())
	}
	p.expect(lexer.RPAREN)
	p.expect(lexer.SEMI)
	return &ast.ModItem{
		ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: nameTok.Literal},
		Items:      items,
	}
}

func (p *Parser) parseGlobalItem() ast.Item {
	start := p.startPos()
	p.advance() // `global`
	mut := false
	if p.curIs(lexer.MUT) {
		mut = true
		p.advance()
	}
	nameTok, _ := p.expect(lexer.IDENT)
	p.expect(lexer.COLON)
	ty := p.parseType()
	p.expect(lexer.ASSIGN)
	init := p.parseExpr(LOWEST)
	p.expect(lexer.SEMI)
	return &ast.GlobalItem{
		ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: nameTok.Literal},
		Mut:        mut,
		Type:       ty,
		Init:       init,
	}
}

func (p *Parser) parseUseItem() ast.Item {
	start := p.startPos()
	p.advance() // `use`
	var segments []string
	tok, ok := p.expect(lexer.IDENT)
	if ok {
		segments = append(segments, tok.Literal)
	}
	for p.curIs(lexer.DOT) {
		p.advance()
		tok, ok := p.expect(lexer.IDENT)
		if ok {
			segments = append(segments, tok.Literal)
		}
	}
	p.expect(lexer.SEMI)
	name := ""
	if len(segments) > 0 {
		name = segments[len(segments)-1]
	}
	return &ast.UseItem{
		ItemCommon: ast.ItemCommon{Span: p.spanFrom(start), Name: name},
		Segments:   segments,
	}
}

// parseType parses a type expression: `*T`, `!`, `Name[Args...]`, or a
// parenthesized tuple/grouped form mirroring parseParenExpr's
// disambiguation (`()` unit, `(T)` grouped, `(T,)` 1-tuple, `(T,U)` tuple).
func (p *Parser) parseType() ast.Type {
	start := p.startPos()
	switch p.cur.Kind {
	case lexer.STAR:
		p.advance()
		inner := p.parseType()
		return &ast.RawPtrType{TypeCommon: ast.TypeCommon{Span: p.spanFrom(start)}, Inner: inner}
	case lexer.BANG:
		p.advance()
		return &ast.NeverType{TypeCommon: ast.TypeCommon{Span: p.spanFrom(start)}}
	case lexer.IDENT:
		tok := p.cur
		p.advance()
		var args []ast.Type
		if p.curIs(lexer.LBRACKET) {
			p.advance()
			for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
				args = append(args, p.parseType())
				if p.curIs(lexer.COMMA) {
					p.advance()
					continue
				}
				break
			}
			p.expect(lexer.RBRACKET)
		}
		return &ast.IdentType{TypeCommon: ast.TypeCommon{Span: p.spanFrom(start)}, Name: tok.Literal, Args: args}
	case lexer.LPAREN:
		return p.parseParenType(start)
	default:
		tok := p.cur
		p.errorf(errors.PAR004, "invalid type declaration: unexpected token %s %q", tok.Kind, tok.Literal)
		p.advance()
		return &ast.ErrorType{TypeCommon: ast.TypeCommon{Span: p.spanFrom(start)}, Token: tok.Literal}
	}
}

func (p *Parser) parseParenType(start ast.Pos) ast.Type {
	p.advance() // `(`
	if p.curIs(lexer.RPAREN) {
		p.advance()
		return &ast.TupleType{TypeCommon: ast.TypeCommon{Span: p.spanFrom(start)}}
	}
	first := p.parseType()
	if p.curIs(lexer.RPAREN) {
		p.advance()
		return first // grouped, not a 1-tuple
	}
	elems := []ast.Type{first}
	sawComma := false
	for p.curIs(lexer.COMMA) {
		sawComma = true
		p.advance()
		if p.curIs(lexer.RPAREN) {
			break // trailing comma
		}
		elems = append(elems, p.parseType())
	}
	p.expect(lexer.RPAREN)
	if !sawComma {
		p.errorf(errors.PAR004, "invalid type declaration: expected `,` or `)`")
	}
	return &ast.TupleType{TypeCommon: ast.TypeCommon{Span: p.spanFrom(start)}, Elems: elems}
}
