// Package parser implements a recursive-descent parser producing an
// ast.Program from a lexer.Token stream, in the teacher's
// current/peek/advance/expect idiom (adapted from its assembler parser).
package parser

import (
	"fmt"
	"strconv"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/lexer"
)

// Parser holds the token slice, current position, and a diagnostic context.
// A zero-value token slice is valid — there is no partially-constructed
// state.
type Parser struct {
	tokens []lexer.Token
	pos    int
	ctx    *diag.Context
}

// New returns a Parser ready to consume tokens. ctx receives one Error entry
// per recovered syntax error; it may be nil.
func New(tokens []lexer.Token, ctx *diag.Context) *Parser {
	return &Parser{tokens: tokens, ctx: ctx}
}

// Parse runs the parser to completion and returns the resulting Program.
// Syntax errors are recorded on the diagnostic context and recovered from by
// skipping to the next newline; Parse always returns a Program, even a
// partial one, so the caller can decide whether ctx.HasErrors() should abort
// the pipeline.
func Parse(tokens []lexer.Token, ctx *diag.Context) *ast.Program {
	p := New(tokens, ctx)
	return p.parseProgram()
}

// --- token consumption ---

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.KindEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return lexer.Token{Kind: lexer.KindEOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool { return p.current().Kind == lexer.KindEOF }

func (p *Parser) isKeyword(word string) bool {
	t := p.current()
	return t.Kind == lexer.KindKeyword && t.Text == word
}

func (p *Parser) isPunct(text string) bool {
	t := p.current()
	return (t.Kind == lexer.KindPunct || t.Kind == lexer.KindOperator) && t.Text == text
}

func (p *Parser) acceptKeyword(word string) bool {
	if p.isKeyword(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) acceptPunct(text string) bool {
	if p.isPunct(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(word string) {
	if !p.acceptKeyword(word) {
		p.errorf("expected %s, got %q", word, p.current().Text)
	}
}

func (p *Parser) expectPunct(text string) {
	if !p.acceptPunct(text) {
		p.errorf("expected %q, got %q", text, p.current().Text)
	}
}

func (p *Parser) errorf(format string, args ...any) {
	if p.ctx != nil {
		tok := p.current()
		p.ctx.Error(p.ctx.Loc(tok.Line, tok.Column), fmt.Sprintf(format, args...))
	}
	p.recover()
}

// recover skips tokens until the next statement boundary (newline or ':')
// so one malformed statement does not cascade into every statement after it.
func (p *Parser) recover() {
	for !p.atEnd() && p.current().Kind != lexer.KindNewline && !p.isPunct(":") {
		p.advance()
	}
}

// skipSeparators consumes any run of newlines and ':' statement separators.
func (p *Parser) skipSeparators() {
	for p.current().Kind == lexer.KindNewline || p.isPunct(":") {
		p.advance()
	}
}

// ---------------------------------------------------------------------------
// Program / top level
// ---------------------------------------------------------------------------

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	p.skipSeparators()
	for !p.atEnd() {
		if p.isKeyword("SUB") || p.isKeyword("FUNCTION") {
			prog.Procedures = append(prog.Procedures, p.parseProcedureDecl())
		} else {
			prog.Main = append(prog.Main, p.parseStatement())
		}
		p.skipSeparators()
	}
	return prog
}

func (p *Parser) parseProcedureDecl() *ast.ProcedureDecl {
	line := p.current().Line
	isSub := p.acceptKeyword("SUB")
	if !isSub {
		p.expectKeyword("FUNCTION")
	}
	name := p.advance().Text

	decl := &ast.ProcedureDecl{Name: name, IsSub: isSub, Line: line}
	p.expectPunct("(")
	for !p.isPunct(")") && !p.atEnd() {
		decl.Params = append(decl.Params, p.parseParam())
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	if !isSub && p.acceptKeyword("AS") {
		decl.ReturnType = p.parseTypeSigil()
	}
	p.skipSeparators()
	endWord := "END FUNCTION"
	if isSub {
		endWord = "END SUB"
	}
	decl.Body = p.parseStatementsUntil(func() bool {
		return p.isKeyword("END") && (p.peek().Text == "SUB" || p.peek().Text == "FUNCTION")
	}, endWord)
	p.expectKeyword("END")
	if isSub {
		p.expectKeyword("SUB")
	} else {
		p.expectKeyword("FUNCTION")
	}
	return decl
}

func (p *Parser) parseParam() ast.Param {
	name := p.advance().Text
	param := ast.Param{Name: name}
	if p.acceptKeyword("AS") {
		param.Type = p.parseTypeSigil()
	}
	return param
}

func (p *Parser) parseTypeSigil() ast.TypeSigil {
	switch p.advance().Text {
	case "INTEGER":
		return ast.TypeInteger32
	case "LONG":
		return ast.TypeInteger64
	case "SINGLE":
		return ast.TypeSingle
	case "DOUBLE":
		return ast.TypeDouble
	case "STRING":
		return ast.TypeString
	default:
		return ast.TypeUDT
	}
}

// parseStatementsUntil parses statements into a slice until stop() reports
// true or the token stream ends.
func (p *Parser) parseStatementsUntil(stop func() bool, context string) []ast.Statement {
	var stmts []ast.Statement
	p.skipSeparators()
	for !p.atEnd() && !stop() {
		stmts = append(stmts, p.parseStatement())
		p.skipSeparators()
	}
	return stmts
}

// parseJumpTarget parses a GOTO/GOSUB/ON-x destination: a bare numeric line
// or a textual label name.
func (p *Parser) parseJumpTarget() ast.JumpTarget {
	if p.current().Kind == lexer.KindIntLiteral {
		return ast.JumpTarget{Line: p.parseIntLiteral()}
	}
	return ast.JumpTarget{Label: p.advance().Text}
}

// parseIntLiteral parses a bare (possibly negative) integer literal, used
// for GOTO/GOSUB/RESTORE line-number operands and CATCH code lists.
func (p *Parser) parseIntLiteral() int {
	neg := p.acceptPunct("-")
	tok := p.advance()
	n, _ := strconv.Atoi(tok.Text)
	if neg {
		n = -n
	}
	return n
}
