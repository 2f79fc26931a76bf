package parser

import (
	"strconv"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/lexer"
)

// parseStatement dispatches on the current token to one statement parser.
// A leading integer literal is a BASIC line number; it is returned as a
// LabelStmt of its own, so GOTO/GOSUB target it like a named label.
func (p *Parser) parseStatement() ast.Statement {
	line := p.current().Line
	if p.current().Kind == lexer.KindIntLiteral {
		// A bare leading integer at start-of-line is a classic line-number
		// label; GOTO/GOSUB target it like any named LabelStmt.
		name := p.advance().Text
		return &ast.LabelStmt{Name: name, Line: line}
	}

	if p.current().Kind != lexer.KindKeyword && p.current().Kind != lexer.KindIdentifier {
		p.errorf("unexpected token %q", p.current().Text)
		return &ast.RemStmt{Text: "", Line: line}
	}

	if p.current().Kind == lexer.KindKeyword {
		switch p.current().Text {
		case "IF":
			return p.parseIf()
		case "SELECT":
			return p.parseSelectCase()
		case "FOR":
			return p.parseFor()
		case "WHILE":
			return p.parseWhile()
		case "REPEAT":
			return p.parseRepeat()
		case "DO":
			return p.parseDo()
		case "EXIT":
			return p.parseExit()
		case "GOTO":
			p.advance()
			return &ast.GotoStmt{Target: p.parseJumpTarget(), Line: line}
		case "GOSUB":
			p.advance()
			return &ast.GosubStmt{Target: p.parseJumpTarget(), Line: line}
		case "RETURN":
			p.advance()
			return &ast.ReturnStmt{Line: line}
		case "ON":
			return p.parseOn()
		case "CALL":
			return p.parseCall()
		case "TRY":
			return p.parseTry()
		case "THROW":
			p.advance()
			return &ast.ThrowStmt{Code: p.parseExpr(), Line: line}
		case "DIM":
			return p.parseDim()
		case "REDIM":
			return p.parseRedim()
		case "ERASE":
			p.advance()
			return &ast.EraseStmt{Name: p.advance().Text, Line: line}
		case "LET":
			p.advance()
			return p.parseLetBody(line)
		case "INPUT":
			return p.parseInput()
		case "PRINT":
			return p.parsePrint()
		case "DATA":
			return p.parseData()
		case "READ":
			return p.parseRead()
		case "RESTORE":
			return p.parseRestore()
		case "SWAP":
			p.advance()
			a := p.parsePrimaryTarget()
			p.expectPunct(",")
			b := p.parsePrimaryTarget()
			return &ast.SwapStmt{A: a, B: b, Line: line}
		case "INC":
			p.advance()
			return &ast.IncStmt{Target: p.parsePrimaryTarget(), Line: line}
		case "DEC":
			p.advance()
			return &ast.DecStmt{Target: p.parsePrimaryTarget(), Line: line}
		case "CONST":
			p.advance()
			name := p.advance().Text
			p.expectPunct("=")
			return &ast.ConstStmt{Name: name, Value: p.parseExpr(), Line: line}
		case "TYPE":
			return p.parseTypeDecl()
		case "OPTION":
			return p.parseOption()
		case "INCLUDE":
			return p.parseInclude()
		case "REM":
			tok := p.advance()
			return &ast.RemStmt{Text: tok.Text, Line: line}
		}
	}

	// An identifier (optionally followed by ':' for a label, or '=' for an
	// implicit LET) falls through here.
	if p.current().Kind == lexer.KindIdentifier && p.peek().Kind == lexer.KindPunct && p.peek().Text == ":" {
		name := p.advance().Text
		p.advance() // consume ':'
		return &ast.LabelStmt{Name: name, Line: line}
	}
	return p.parseLetBody(line)
}

func (p *Parser) parseLetBody(line int) ast.Statement {
	target := p.parsePrimaryTarget()
	p.expectPunct("=")
	value := p.parseExpr()
	return &ast.LetStmt{Target: target, Value: value, Line: line}
}

// parsePrimaryTarget parses an assignment/INC/DEC/SWAP/READ target: a bare
// variable, an array element, or a record field chain.
func (p *Parser) parsePrimaryTarget() ast.Expression {
	return p.parseUnary()
}

func (p *Parser) parseIf() ast.Statement {
	line := p.current().Line
	p.advance() // IF
	cond := p.parseExpr()
	p.expectKeyword("THEN")

	stmt := &ast.IfStmt{Cond: cond, Line: line}
	p.skipSeparators()
	stmt.Then = p.parseStatementsUntil(func() bool {
		return p.isKeyword("ELSEIF") || p.isKeyword("ELSE") || (p.isKeyword("END") && p.peek().Text == "IF")
	}, "END IF")

	for p.isKeyword("ELSEIF") {
		p.advance()
		eCond := p.parseExpr()
		p.expectKeyword("THEN")
		p.skipSeparators()
		body := p.parseStatementsUntil(func() bool {
			return p.isKeyword("ELSEIF") || p.isKeyword("ELSE") || (p.isKeyword("END") && p.peek().Text == "IF")
		}, "END IF")
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIfClause{Cond: eCond, Body: body})
	}
	if p.acceptKeyword("ELSE") {
		p.skipSeparators()
		stmt.Else = p.parseStatementsUntil(func() bool {
			return p.isKeyword("END") && p.peek().Text == "IF"
		}, "END IF")
	}
	p.expectKeyword("END")
	p.expectKeyword("IF")
	return stmt
}

func (p *Parser) parseSelectCase() ast.Statement {
	line := p.current().Line
	p.advance() // SELECT
	p.expectKeyword("CASE")
	selector := p.parseExpr()
	stmt := &ast.SelectCaseStmt{Selector: selector, Line: line}
	p.skipSeparators()

	isEnd := func() bool { return p.isKeyword("END") && p.peek().Text == "SELECT" }
	for p.isKeyword("CASE") && !p.atEnd() {
		p.advance()
		if p.acceptKeyword("ELSE") {
			p.skipSeparators()
			stmt.ElseBody = p.parseStatementsUntil(func() bool { return p.isKeyword("CASE") || isEnd() }, "END SELECT")
			continue
		}
		clause := p.parseCaseClause()
		p.skipSeparators()
		clause.Body = p.parseStatementsUntil(func() bool { return p.isKeyword("CASE") || isEnd() }, "END SELECT")
		stmt.Cases = append(stmt.Cases, clause)
	}
	p.expectKeyword("END")
	p.expectKeyword("SELECT")
	return stmt
}

func (p *Parser) parseCaseClause() ast.CaseClause {
	if p.acceptKeyword("IS") {
		op := p.advance().Text
		return ast.CaseClause{Kind: ast.CaseRelational, RelOp: op, RelValue: p.parseExpr()}
	}
	first := p.parseExpr()
	if p.acceptKeyword("TO") {
		high := p.parseExpr()
		return ast.CaseClause{Kind: ast.CaseRange, RangeLow: first, RangeHigh: high}
	}
	values := []ast.Expression{first}
	for p.acceptPunct(",") {
		values = append(values, p.parseExpr())
	}
	if len(values) == 1 {
		return ast.CaseClause{Kind: ast.CaseValue, Values: values}
	}
	return ast.CaseClause{Kind: ast.CaseValueList, Values: values}
}

func (p *Parser) parseFor() ast.Statement {
	line := p.current().Line
	p.advance() // FOR
	name := p.advance().Text
	p.expectPunct("=")
	start := p.parseExpr()
	p.expectKeyword("TO")
	end := p.parseExpr()
	var step ast.Expression
	if p.acceptKeyword("STEP") {
		step = p.parseExpr()
	}
	stmt := &ast.ForStmt{Var: name, Start: start, End: end, Step: step, Line: line}
	p.skipSeparators()
	stmt.Body = p.parseStatementsUntil(func() bool { return p.isKeyword("NEXT") }, "NEXT")
	p.expectKeyword("NEXT")
	if p.current().Kind == lexer.KindIdentifier {
		p.advance() // optional loop-variable echo
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	line := p.current().Line
	p.advance() // WHILE
	cond := p.parseExpr()
	stmt := &ast.WhileStmt{Cond: cond, Line: line}
	p.skipSeparators()
	stmt.Body = p.parseStatementsUntil(func() bool { return p.isKeyword("WEND") }, "WEND")
	p.expectKeyword("WEND")
	return stmt
}

func (p *Parser) parseRepeat() ast.Statement {
	line := p.current().Line
	p.advance() // REPEAT
	stmt := &ast.RepeatStmt{Line: line}
	p.skipSeparators()
	stmt.Body = p.parseStatementsUntil(func() bool { return p.isKeyword("UNTIL") }, "UNTIL")
	p.expectKeyword("UNTIL")
	stmt.Until = p.parseExpr()
	return stmt
}

func (p *Parser) parseDo() ast.Statement {
	line := p.current().Line
	p.advance() // DO
	stmt := &ast.DoStmt{Kind: ast.DoForever, Line: line}
	if p.isKeyword("WHILE") || p.isKeyword("UNTIL") {
		negate := p.current().Text == "UNTIL"
		p.advance()
		stmt.Cond = p.parseExpr()
		if negate {
			stmt.Kind = ast.DoUntilPre
		} else {
			stmt.Kind = ast.DoWhilePre
		}
	}
	p.skipSeparators()
	stmt.Body = p.parseStatementsUntil(func() bool { return p.isKeyword("LOOP") }, "LOOP")
	p.expectKeyword("LOOP")
	if p.isKeyword("WHILE") || p.isKeyword("UNTIL") {
		negate := p.current().Text == "UNTIL"
		p.advance()
		stmt.Cond = p.parseExpr()
		if negate {
			stmt.Kind = ast.DoUntilPost
		} else {
			stmt.Kind = ast.DoWhilePost
		}
	}
	return stmt
}

func (p *Parser) parseExit() ast.Statement {
	line := p.current().Line
	p.advance() // EXIT
	kind := ast.ExitFor
	switch p.advance().Text {
	case "FOR":
		kind = ast.ExitFor
	case "WHILE":
		kind = ast.ExitWhile
	case "DO":
		kind = ast.ExitDo
	case "SELECT":
		kind = ast.ExitSelect
	}
	return &ast.ExitStmt{Kind: kind, Line: line}
}

func (p *Parser) parseOn() ast.Statement {
	line := p.current().Line
	p.advance() // ON
	selector := p.parseExpr()
	switch {
	case p.acceptKeyword("GOTO"):
		var targets []ast.JumpTarget
		targets = append(targets, p.parseJumpTarget())
		for p.acceptPunct(",") {
			targets = append(targets, p.parseJumpTarget())
		}
		return &ast.OnGotoStmt{Selector: selector, Targets: targets, Line: line}
	case p.acceptKeyword("GOSUB"):
		var targets []ast.JumpTarget
		targets = append(targets, p.parseJumpTarget())
		for p.acceptPunct(",") {
			targets = append(targets, p.parseJumpTarget())
		}
		return &ast.OnGosubStmt{Selector: selector, Targets: targets, Line: line}
	case p.acceptKeyword("CALL"):
		var targets []string
		targets = append(targets, p.advance().Text)
		for p.acceptPunct(",") {
			targets = append(targets, p.advance().Text)
		}
		return &ast.OnCallStmt{Selector: selector, Targets: targets, Line: line}
	default:
		p.errorf("expected GOTO, GOSUB, or CALL after ON <expr>")
		return &ast.RemStmt{Line: line}
	}
}

func (p *Parser) parseCall() ast.Statement {
	line := p.current().Line
	p.advance() // CALL
	name := p.advance().Text
	stmt := &ast.CallStmt{Name: name, Line: line}
	if p.acceptPunct("(") {
		for !p.isPunct(")") && !p.atEnd() {
			stmt.Args = append(stmt.Args, p.parseExpr())
			if !p.acceptPunct(",") {
				break
			}
		}
		p.expectPunct(")")
	}
	return stmt
}

func (p *Parser) parseTry() ast.Statement {
	line := p.current().Line
	p.advance() // TRY
	stmt := &ast.TryStmt{Line: line}
	p.skipSeparators()
	isBoundary := func() bool {
		return p.isKeyword("CATCH") || p.isKeyword("FINALLY") || (p.isKeyword("END") && p.peek().Text == "TRY")
	}
	stmt.Body = p.parseStatementsUntil(isBoundary, "END TRY")
	for p.isKeyword("CATCH") {
		p.advance()
		clause := ast.CatchClause{}
		if !p.isKeyword("FINALLY") && !(p.isKeyword("END") && p.peek().Text == "TRY") &&
			p.current().Kind == lexer.KindIntLiteral {
			clause.Codes = append(clause.Codes, p.parseIntLiteral())
			for p.acceptPunct(",") {
				clause.Codes = append(clause.Codes, p.parseIntLiteral())
			}
		}
		p.skipSeparators()
		clause.Body = p.parseStatementsUntil(isBoundary, "END TRY")
		stmt.Catches = append(stmt.Catches, clause)
	}
	if p.acceptKeyword("FINALLY") {
		p.skipSeparators()
		stmt.Finally = p.parseStatementsUntil(func() bool {
			return p.isKeyword("END") && p.peek().Text == "TRY"
		}, "END TRY")
	}
	p.expectKeyword("END")
	p.expectKeyword("TRY")
	return stmt
}

func (p *Parser) parseDim() ast.Statement {
	line := p.current().Line
	p.advance() // DIM
	name := p.advance().Text
	stmt := &ast.DimStmt{Name: name, Line: line}
	if p.acceptPunct("(") {
		stmt.Dims = p.parseDimExprList()
		p.expectPunct(")")
	}
	if p.acceptKeyword("AS") {
		if p.current().Kind == lexer.KindIdentifier {
			stmt.ElementType = ast.TypeUDT
			stmt.UDTName = p.advance().Text
		} else {
			stmt.ElementType = p.parseTypeSigil()
		}
	}
	return stmt
}

func (p *Parser) parseRedim() ast.Statement {
	line := p.current().Line
	p.advance() // REDIM
	preserve := p.acceptKeyword("PRESERVE")
	name := p.advance().Text
	stmt := &ast.RedimStmt{Name: name, Preserve: preserve, Line: line}
	p.expectPunct("(")
	stmt.Dims = p.parseDimExprList()
	p.expectPunct(")")
	// An AS clause is accepted and not recorded: the array keeps the element
	// type its DIM declared.
	if p.acceptKeyword("AS") {
		p.advance()
	}
	return stmt
}

func (p *Parser) parseDimExprList() []ast.DimExpr {
	var dims []ast.DimExpr
	for {
		first := p.parseExpr()
		if p.acceptKeyword("TO") {
			second := p.parseExpr()
			dims = append(dims, ast.DimExpr{Lower: first, Upper: second})
		} else {
			dims = append(dims, ast.DimExpr{Upper: first})
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	return dims
}

func (p *Parser) parseInput() ast.Statement {
	line := p.current().Line
	p.advance() // INPUT
	stmt := &ast.InputStmt{Line: line}
	if p.current().Kind == lexer.KindStringLiteral {
		stmt.Prompt = p.advance().Text
		p.expectPunct(";")
	}
	stmt.Targets = append(stmt.Targets, p.parsePrimaryTarget())
	for p.acceptPunct(",") {
		stmt.Targets = append(stmt.Targets, p.parsePrimaryTarget())
	}
	return stmt
}

func (p *Parser) parsePrint() ast.Statement {
	line := p.current().Line
	p.advance() // PRINT
	stmt := &ast.PrintStmt{Line: line}
	for !p.atEnd() && p.current().Kind != lexer.KindNewline && !p.isPunct(":") {
		item := ast.PrintItem{Value: p.parseExpr()}
		if p.acceptPunct(";") {
			item.Sep = ';'
		} else if p.acceptPunct(",") {
			item.Sep = ','
		}
		stmt.Items = append(stmt.Items, item)
		if item.Sep == 0 {
			break
		}
	}
	return stmt
}

func (p *Parser) parseData() ast.Statement {
	line := p.current().Line
	p.advance() // DATA
	stmt := &ast.DataStmt{Line: line}
	for {
		stmt.Values = append(stmt.Values, p.parseDataLiteral())
		if !p.acceptPunct(",") {
			break
		}
	}
	return stmt
}

func (p *Parser) parseDataLiteral() ast.DataLiteral {
	if p.current().Kind == lexer.KindStringLiteral {
		return ast.DataLiteral{IsString: true, StrVal: p.advance().Text}
	}
	neg := p.acceptPunct("-")
	tok := p.advance()
	if tok.Kind == lexer.KindFloatLiteral {
		f, _ := strconv.ParseFloat(tok.Text, 64)
		if neg {
			f = -f
		}
		return ast.DataLiteral{IsFloat: true, FloatVal: f}
	}
	n, _ := strconv.ParseInt(tok.Text, 10, 64)
	if neg {
		n = -n
	}
	return ast.DataLiteral{IntVal: n}
}

func (p *Parser) parseRead() ast.Statement {
	line := p.current().Line
	p.advance() // READ
	stmt := &ast.ReadStmt{Line: line}
	stmt.Targets = append(stmt.Targets, p.parsePrimaryTarget())
	for p.acceptPunct(",") {
		stmt.Targets = append(stmt.Targets, p.parsePrimaryTarget())
	}
	return stmt
}

func (p *Parser) parseRestore() ast.Statement {
	line := p.current().Line
	p.advance() // RESTORE
	stmt := &ast.RestoreStmt{Line: line}
	if p.current().Kind == lexer.KindIntLiteral {
		stmt.TargetLine = p.parseIntLiteral()
	} else if p.current().Kind == lexer.KindIdentifier {
		stmt.Label = p.advance().Text
	}
	return stmt
}

func (p *Parser) parseTypeDecl() ast.Statement {
	line := p.current().Line
	p.advance() // TYPE
	name := p.advance().Text
	decl := &ast.TypeDecl{Name: name, Line: line}
	p.skipSeparators()
	for !p.atEnd() && !(p.isKeyword("END") && p.peek().Text == "TYPE") {
		fname := p.advance().Text
		p.expectKeyword("AS")
		decl.Fields = append(decl.Fields, ast.FieldDecl{Name: fname, Type: p.parseTypeSigil()})
		p.skipSeparators()
	}
	p.expectKeyword("END")
	p.expectKeyword("TYPE")
	return decl
}

func (p *Parser) parseOption() ast.Statement {
	line := p.current().Line
	p.advance() // OPTION
	stmt := &ast.OptionStmt{Line: line}
	switch p.advance().Text {
	case "BASE":
		stmt.Kind = ast.OptionBase
		stmt.IntValue = p.parseIntLiteral()
	case "EXPLICIT":
		stmt.Kind = ast.OptionExplicit
	case "UNICODE":
		stmt.Kind = ast.OptionStringMode
		stmt.StringValue = "UNICODE"
	case "ASCII":
		stmt.Kind = ast.OptionStringMode
		stmt.StringValue = "ASCII"
	case "DETECTSTRING":
		stmt.Kind = ast.OptionStringMode
		stmt.StringValue = "DETECTSTRING"
	case "BITWISE":
		stmt.Kind = ast.OptionBitwiseOrLogical
		stmt.StringValue = "BITWISE"
	case "LOGICAL":
		stmt.Kind = ast.OptionBitwiseOrLogical
		stmt.StringValue = "LOGICAL"
	}
	return stmt
}

func (p *Parser) parseInclude() ast.Statement {
	line := p.current().Line
	p.advance() // INCLUDE
	once := p.acceptKeyword("ONCE")
	path := p.advance().Text
	return &ast.IncludeStmt{Path: path, Once: once, Line: line}
}
