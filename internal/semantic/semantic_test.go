package semantic

import (
	"testing"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/lexer"
	"github.com/keurnel/basicqbe/internal/parser"
	"github.com/keurnel/basicqbe/internal/symbols"
	"github.com/keurnel/basicqbe/internal/types"
)

func analyze(t *testing.T, src string) (*ast.Program, *symbols.Table) {
	t.Helper()
	ctx := diag.New("test.bas")
	prog := parser.Parse(lexer.Tokens(src), ctx)
	if ctx.HasErrors() {
		t.Fatalf("parse errors: %+v", ctx.Errors())
	}
	table := Analyze(prog, ctx)
	return prog, table
}

func TestAnalyze_GlobalDimSigilType(t *testing.T) {
	_, table := analyze(t, "DIM m%\n")
	v, ok := table.Globals["m%"]
	if !ok || v.Descriptor.Base != types.Integer32 {
		t.Fatalf("expected global m%% as integer32, got %+v (ok=%v)", v, ok)
	}
}

func TestAnalyze_ProcedureLocalShadowsGlobal(t *testing.T) {
	src := "DIM m%\nFUNCTION Test(m AS INTEGER, n AS INTEGER) AS INTEGER\nTest = m + n\nEND FUNCTION\n"
	_, table := analyze(t, src)
	resolved := table.Resolve("Test", "m")
	if resolved.Kind != symbols.ResolvedParam {
		t.Fatalf("expected parameter m to resolve first, got %+v", resolved)
	}
}

func TestAnalyze_ArrayIndexRewrittenFromCallExpr(t *testing.T) {
	src := "DIM A(10)\nLET x% = A(3)\n"
	prog, _ := analyze(t, src)
	let := prog.Main[len(prog.Main)-1].(*ast.LetStmt)
	if _, ok := let.Value.(*ast.ArrayRef); !ok {
		t.Fatalf("expected ArrayRef after rewrite, got %T", let.Value)
	}
}

func TestAnalyze_UnresolvedCallStaysCallExpr(t *testing.T) {
	src := "LET x% = Test(3)\nFUNCTION Test(n AS INTEGER) AS INTEGER\nTest = n\nEND FUNCTION\n"
	prog, _ := analyze(t, src)
	let := prog.Main[0].(*ast.LetStmt)
	if _, ok := let.Value.(*ast.CallExpr); !ok {
		t.Fatalf("expected CallExpr to remain, got %T", let.Value)
	}
}

func TestAnalyze_DataFlattenedInOrder(t *testing.T) {
	_, table := analyze(t, "DATA 1, 2.5, \"x\"\n")
	if len(table.Data) != 3 {
		t.Fatalf("expected 3 data values, got %d", len(table.Data))
	}
	if table.Data[0].Kind != types.Integer64 || table.Data[1].Kind != types.Double || table.Data[2].Kind != types.StringASCII {
		t.Fatalf("unexpected kinds: %+v", table.Data)
	}
}

func TestAnalyze_LineNumberAndLabelSeparated(t *testing.T) {
	_, table := analyze(t, "10 PRINT 1\nloopTop:\nPRINT 2\nGOTO loopTop\n")
	if _, ok := table.LineNumbers[10]; !ok {
		t.Fatal("expected line number 10 registered")
	}
	if _, ok := table.Labels["loopTop"]; !ok {
		t.Fatal("expected label loopTop registered")
	}
}

func TestAnalyze_OptionBaseAndExplicit(t *testing.T) {
	_, table := analyze(t, "OPTION BASE 1\nOPTION EXPLICIT\n")
	if table.Options.ArrayBase != 1 || !table.Options.OptionExplicit {
		t.Fatalf("unexpected options: %+v", table.Options)
	}
}
