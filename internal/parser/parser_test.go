package parser

import (
	"testing"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	ctx := diag.New("test.bas")
	prog := Parse(lexer.Tokens(src), ctx)
	if ctx.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", ctx.Errors())
	}
	return prog
}

func TestParse_LetAndPrint(t *testing.T) {
	prog := parse(t, "LET x% = 1 + 2\nPRINT x%\n")
	if len(prog.Main) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Main))
	}
	let, ok := prog.Main[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("expected *ast.LetStmt, got %T", prog.Main[0])
	}
	bin, ok := let.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected 1 + 2 BinaryExpr, got %#v", let.Value)
	}
}

func TestParse_IfElseIfElse(t *testing.T) {
	src := "IF x% = 1 THEN\nPRINT 1\nELSEIF x% = 2 THEN\nPRINT 2\nELSE\nPRINT 3\nEND IF\n"
	prog := parse(t, src)
	ifStmt, ok := prog.Main[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Main[0])
	}
	if len(ifStmt.ElseIfs) != 1 || len(ifStmt.Else) != 1 || len(ifStmt.Then) != 1 {
		t.Fatalf("unexpected shape: %+v", ifStmt)
	}
}

func TestParse_ForLoop(t *testing.T) {
	prog := parse(t, "FOR i% = 1 TO 10 STEP 2\nPRINT i%\nNEXT i%\n")
	forStmt, ok := prog.Main[0].(*ast.ForStmt)
	if !ok || forStmt.Var != "i%" || forStmt.Step == nil {
		t.Fatalf("unexpected shape: %#v", prog.Main[0])
	}
}

func TestParse_TryCatchFinally(t *testing.T) {
	src := "TRY\nTHROW 11\nCATCH 9, 11\nPRINT ERR()\nFINALLY\nPRINT \"cleanup\"\nEND TRY\n"
	prog := parse(t, src)
	tryStmt, ok := prog.Main[0].(*ast.TryStmt)
	if !ok {
		t.Fatalf("expected TryStmt, got %T", prog.Main[0])
	}
	if len(tryStmt.Catches) != 1 || len(tryStmt.Catches[0].Codes) != 2 || tryStmt.Finally == nil {
		t.Fatalf("unexpected shape: %+v", tryStmt)
	}
}

func TestParse_SelectCaseFourForms(t *testing.T) {
	src := "SELECT CASE i%\nCASE 1.5\nPRINT 1\nCASE 2 TO 5\nPRINT 2\nCASE IS > 100\nPRINT 3\nCASE ELSE\nPRINT 4\nEND SELECT\n"
	prog := parse(t, src)
	sel, ok := prog.Main[0].(*ast.SelectCaseStmt)
	if !ok || len(sel.Cases) != 3 || sel.ElseBody == nil {
		t.Fatalf("unexpected shape: %#v", prog.Main[0])
	}
	if sel.Cases[0].Kind != ast.CaseValue || sel.Cases[1].Kind != ast.CaseRange || sel.Cases[2].Kind != ast.CaseRelational {
		t.Fatalf("unexpected case kinds: %+v", sel.Cases)
	}
}

func TestParse_FunctionDecl(t *testing.T) {
	src := "FUNCTION Test(m AS INTEGER, n AS INTEGER) AS INTEGER\nTest = m + n\nEND FUNCTION\n"
	prog := parse(t, src)
	if len(prog.Procedures) != 1 {
		t.Fatalf("expected 1 procedure, got %d", len(prog.Procedures))
	}
	fn := prog.Procedures[0]
	if fn.IsSub || len(fn.Params) != 2 || fn.ReturnType != ast.TypeInteger32 {
		t.Fatalf("unexpected shape: %+v", fn)
	}
}

func TestParse_GotoLineLabel(t *testing.T) {
	prog := parse(t, "10 PRINT 1\nGOTO 10\n")
	if _, ok := prog.Main[0].(*ast.LabelStmt); !ok {
		t.Fatalf("expected LabelStmt, got %T", prog.Main[0])
	}
	goTo, ok := prog.Main[2].(*ast.GotoStmt)
	if !ok || goTo.Target.Line != 10 {
		t.Fatalf("unexpected shape: %#v", prog.Main[2])
	}
}

func TestParse_ArrayIndexCallAmbiguity(t *testing.T) {
	prog := parse(t, "LET x% = A(1, 2)\n")
	let := prog.Main[0].(*ast.LetStmt)
	call, ok := let.Value.(*ast.CallExpr)
	if !ok || call.Name != "A" || len(call.Args) != 2 {
		t.Fatalf("expected CallExpr A(1,2), got %#v", let.Value)
	}
}
