package parser

import (
	"strconv"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/lexer"
)

// precedence climbing, lowest to highest: OR/XOR, AND, NOT (unary),
// comparisons, +/-, * / \ MOD, unary minus, ^ (right-assoc).

func (p *Parser) parseExpr() ast.Expression { return p.parseOr() }

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.isKeyword("OR") || p.isKeyword("XOR") {
		op := p.advance().Text
		right := p.parseAnd()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Line: left.ExpressionLine()}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseNot()
	for p.isKeyword("AND") {
		p.advance()
		right := p.parseNot()
		left = &ast.BinaryExpr{Op: "AND", Left: left, Right: right, Line: left.ExpressionLine()}
	}
	return left
}

func (p *Parser) parseNot() ast.Expression {
	if p.isKeyword("NOT") {
		line := p.current().Line
		p.advance()
		return &ast.UnaryExpr{Op: "NOT", Operand: p.parseNot(), Line: line}
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{
	"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	for p.current().Kind == lexer.KindOperator && comparisonOps[p.current().Text] {
		op := p.advance().Text
		right := p.parseAdditive()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Line: left.ExpressionLine()}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseTerm()
	for p.isPunct("+") || p.isPunct("-") {
		op := p.advance().Text
		right := p.parseTerm()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Line: left.ExpressionLine()}
	}
	return left
}

func (p *Parser) parseTerm() ast.Expression {
	left := p.parseUnary()
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("\\") || p.isKeyword("MOD") {
		op := p.advance().Text
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Line: left.ExpressionLine()}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.isPunct("-") {
		line := p.current().Line
		p.advance()
		return &ast.UnaryExpr{Op: "-", Operand: p.parseUnary(), Line: line}
	}
	return p.parsePower()
}

// parsePower handles right-associative exponentiation.
func (p *Parser) parsePower() ast.Expression {
	base := p.parsePostfix()
	if p.isPunct("^") {
		p.advance()
		exp := p.parseUnary()
		return &ast.BinaryExpr{Op: "^", Left: base, Right: exp, Line: base.ExpressionLine()}
	}
	return base
}

// parsePostfix handles trailing field-access ('.') chains on a primary
// expression.
func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for p.isPunct(".") {
		line := p.current().Line
		p.advance()
		field := p.advance().Text
		expr = &ast.FieldAccess{Base: expr, Field: field, Line: line}
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current()
	switch {
	case tok.Kind == lexer.KindIntLiteral:
		p.advance()
		n, _ := strconv.ParseInt(tok.Text, 10, 64)
		return &ast.IntLit{Value: n, Line: tok.Line}
	case tok.Kind == lexer.KindFloatLiteral:
		p.advance()
		f, _ := strconv.ParseFloat(tok.Text, 64)
		return &ast.FloatLit{Value: f, Line: tok.Line}
	case tok.Kind == lexer.KindStringLiteral:
		p.advance()
		return &ast.StringLit{Value: tok.Text, Line: tok.Line}
	case p.isPunct("("):
		p.advance()
		inner := p.parseExpr()
		p.expectPunct(")")
		return inner
	case tok.Kind == lexer.KindIdentifier:
		return p.parseIdentifierExpr()
	case tok.Kind == lexer.KindKeyword && tok.Text == "NOT":
		return p.parseNot()
	default:
		p.errorf("unexpected token %q in expression", tok.Text)
		p.advance()
		return &ast.IntLit{Value: 0, Line: tok.Line}
	}
}

func (p *Parser) parseIdentifierExpr() ast.Expression {
	tok := p.advance()
	name := tok.Text
	switch name {
	case "ERR":
		if p.acceptPunct("(") {
			p.expectPunct(")")
		}
		return &ast.ErrExpr{Line: tok.Line}
	case "ERL":
		if p.acceptPunct("(") {
			p.expectPunct(")")
		}
		return &ast.ErlExpr{Line: tok.Line}
	}

	if !p.isPunct("(") {
		return &ast.VarRef{Name: name, Line: tok.Line}
	}
	p.advance() // '('
	var args []ast.Expression
	for !p.isPunct(")") && !p.atEnd() {
		args = append(args, p.parseExpr())
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	// Array indexing and function/FN calls share this syntax; the semantic
	// analyzer disambiguates against the SymbolTable and may rewrite this
	// CallExpr into an ArrayRef.
	return &ast.CallExpr{Name: name, Args: args, Line: tok.Line}
}
