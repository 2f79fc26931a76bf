package cfg

import (
	"testing"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/lexer"
	"github.com/keurnel/basicqbe/internal/parser"
	"github.com/keurnel/basicqbe/internal/semantic"
)

func buildMain(t *testing.T, src string) *Graph {
	t.Helper()
	ctx := diag.New("test.bas")
	prog := parser.Parse(lexer.Tokens(src), ctx)
	if ctx.HasErrors() {
		t.Fatalf("unexpected parse errors: %+v", ctx.Errors())
	}
	table := semantic.Analyze(prog, ctx)
	if ctx.HasErrors() {
		t.Fatalf("unexpected semantic errors: %+v", ctx.Errors())
	}
	p := Build(prog, table, ctx)
	return p.Main
}

// every non-entry block is the To of at least one edge, and every From/To
// of every edge names a block that actually exists (P1).
func assertWellFormed(t *testing.T, g *Graph) {
	t.Helper()
	ids := map[int]bool{}
	for _, b := range g.Blocks {
		ids[b.ID] = true
	}
	for _, e := range g.Edges {
		if !ids[e.From] {
			t.Errorf("edge %+v has unknown From block", e)
		}
		if !ids[e.To] {
			t.Errorf("edge %+v has unknown To block", e)
		}
	}
}

func TestIfElse_ConditionalDuality(t *testing.T) {
	g := buildMain(t, "IF x% = 1 THEN\nPRINT 1\nELSE\nPRINT 2\nEND IF\nPRINT 3\n")
	assertWellFormed(t, g)

	var condBlock *Block
	for _, b := range g.Blocks {
		if b.Cond != nil {
			condBlock = b
		}
	}
	if condBlock == nil {
		t.Fatal("expected a block carrying the IF condition")
	}
	var trueEdges, falseEdges int
	for _, e := range g.Edges {
		if e.From != condBlock.ID {
			continue
		}
		switch e.Kind {
		case ConditionalTrue:
			trueEdges++
		case ConditionalFalse:
			falseEdges++
		}
	}
	if trueEdges != 1 || falseEdges != 1 {
		t.Fatalf("expected exactly one true and one false edge, got true=%d false=%d", trueEdges, falseEdges)
	}
}

func TestForLoop_BackEdgeIsImmediate(t *testing.T) {
	g := buildMain(t, "FOR i% = 1 TO 10\nPRINT i%\nNEXT i%\n")
	assertWellFormed(t, g)

	var header *Block
	for _, b := range g.Blocks {
		if b.IsLoopHeader {
			header = b
		}
	}
	if header == nil {
		t.Fatal("expected a loop header block")
	}
	// The body's fallthrough edge must land directly on the header, not on
	// some intermediate block.
	found := false
	for _, e := range g.Edges {
		if e.To == header.ID && e.Kind == Sequential && e.From != g.EntryBlock {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an immediate back-edge into the loop header")
	}
}

func TestEveryBlock_Terminated(t *testing.T) {
	g := buildMain(t, "IF x% = 1 THEN\nPRINT 1\nEND IF\nFOR i% = 1 TO 3\nPRINT i%\nNEXT i%\nPRINT \"done\"\n")
	for _, b := range g.Blocks {
		if !b.IsTerminated {
			t.Errorf("block %d never terminated: %+v", b.ID, b.Stmts)
		}
	}
}

func TestGoto_ResolvesForwardLabel(t *testing.T) {
	g := buildMain(t, "GOTO skip\nPRINT 1\nskip:\nPRINT 2\n")
	assertWellFormed(t, g)

	skipID, ok := g.LabelToBlock["skip"]
	if !ok {
		t.Fatal("expected label 'skip' to be registered")
	}
	found := false
	for _, e := range g.Edges {
		if e.Kind == Jump && e.To == skipID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a Jump edge targeting the forward label")
	}
}

func TestExitReachability_DeadCodeAfterGoto(t *testing.T) {
	g := buildMain(t, "GOTO skip\nPRINT 1\nskip:\nPRINT 2\n")
	reachable := g.Reachable()
	// The block holding `PRINT 1` is unreachable, but it must still exist
	// in g.Blocks — P2 only says it isn't a reachability-set member.
	foundUnreachable := false
	for _, b := range g.Blocks {
		if !reachable[b.ID] {
			foundUnreachable = true
		}
	}
	if !foundUnreachable {
		t.Fatal("expected at least one unreachable block after the unconditional GOTO")
	}
	if !reachable[g.EntryBlock] {
		t.Fatal("entry block must always be reachable from itself")
	}
}

func TestGosubReturn_LandsAtEachCallSite(t *testing.T) {
	src := "GOSUB greet\nPRINT \"a\"\nGOSUB greet\nPRINT \"b\"\nGOTO stop\ngreet:\nPRINT \"hi\"\nRETURN\nstop:\nPRINT \"done\"\n"
	g := buildMain(t, src)
	assertWellFormed(t, g)

	if len(g.GosubReturnBlocks) != 2 {
		t.Fatalf("expected 2 GOSUB landing blocks, got %d", len(g.GosubReturnBlocks))
	}

	var returnBlock int = -1
	for _, b := range g.Blocks {
		if len(b.Stmts) > 0 {
			if _, ok := b.Stmts[len(b.Stmts)-1].(*ast.ReturnStmt); ok {
				returnBlock = b.ID
			}
		}
	}
	if returnBlock == -1 {
		t.Fatal("expected a block ending in RETURN")
	}

	returnEdges := 0
	for _, e := range g.Edges {
		if e.From == returnBlock && e.Kind == Return {
			returnEdges++
		}
	}
	if returnEdges != 2 {
		t.Fatalf("expected the single RETURN to fan out to both call sites, got %d Return edges", returnEdges)
	}
}

func TestTryCatchFinally_StructureRecorded(t *testing.T) {
	src := "TRY\nTHROW 11\nCATCH 11\nPRINT ERR()\nFINALLY\nPRINT \"cleanup\"\nEND TRY\n"
	g := buildMain(t, src)
	assertWellFormed(t, g)

	if len(g.TryCatchStructure) != 1 {
		t.Fatalf("expected 1 TryInfo entry, got %d", len(g.TryCatchStructure))
	}
	info := g.TryCatchStructure[0]
	if len(info.Catches) != 1 || info.Finally == -1 {
		t.Fatalf("unexpected TryInfo shape: %+v", info)
	}

	throwBlock := -1
	for _, b := range g.Blocks {
		for _, s := range b.Stmts {
			if _, ok := s.(*ast.ThrowStmt); ok {
				throwBlock = b.ID
			}
		}
	}
	if throwBlock == -1 {
		t.Fatal("expected a block containing the THROW statement")
	}
	hasDispatchEdge := false
	for _, e := range g.Edges {
		if e.From == throwBlock && e.Kind == ExceptionDispatch && e.To == info.Dispatch {
			hasDispatchEdge = true
		}
	}
	if !hasDispatchEdge {
		t.Fatal("expected an ExceptionDispatch edge from the THROW block to the TRY's dispatch block")
	}
}

func TestNestedRepeatInsideIfElse_BackEdgeStillImmediate(t *testing.T) {
	// Historically-broken shape (S6): a REPEAT nested in an ELSE branch must
	// still back-edge directly to its own body entry, not to some outer
	// merge block introduced by the enclosing IF.
	src := "IF x% = 1 THEN\nPRINT 1\nELSE\nREPEAT\nPRINT 2\nUNTIL y% = 1\nEND IF\n"
	g := buildMain(t, src)
	assertWellFormed(t, g)

	// Two blocks carry a Cond in this program: the IF's condition and the
	// REPEAT's UNTIL test. The REPEAT is nested inside the ELSE branch, so
	// its blocks are allocated after the IF's — take the higher-ID match.
	var untilBlock *Block
	for _, b := range g.Blocks {
		if b.Cond != nil && (untilBlock == nil || b.ID > untilBlock.ID) {
			untilBlock = b
		}
	}
	if untilBlock == nil {
		t.Fatal("expected a block carrying the REPEAT...UNTIL condition")
	}
	backEdgeFound := false
	for _, e := range g.Edges {
		if e.From == untilBlock.ID && e.Kind == ConditionalFalse {
			target := g.Block(e.To)
			if len(target.Stmts) > 0 {
				backEdgeFound = true
			}
		}
	}
	if !backEdgeFound {
		t.Fatal("expected the UNTIL-false edge to loop back directly into the REPEAT body")
	}
}

func TestOnGoto_DefaultEdgeIsFallthrough(t *testing.T) {
	g := buildMain(t, "ON n% GOTO a, b\nPRINT \"fallthrough\"\na:\nPRINT \"a\"\nGOTO done\nb:\nPRINT \"b\"\ndone:\nPRINT \"done\"\n")
	assertWellFormed(t, g)

	var dispatch *Block
	for _, b := range g.Blocks {
		for _, s := range b.Stmts {
			if _, ok := s.(*ast.OnGotoStmt); ok {
				dispatch = b
			}
		}
	}
	if dispatch == nil {
		t.Fatal("expected a block containing the ON GOTO statement")
	}
	var caseEdges, defaultEdges int
	for _, e := range g.Edges {
		if e.From != dispatch.ID {
			continue
		}
		switch e.Kind {
		case CaseN:
			caseEdges++
		case Default:
			defaultEdges++
		}
	}
	if caseEdges != 2 || defaultEdges != 1 {
		t.Fatalf("expected 2 CaseN edges and 1 Default edge, got case=%d default=%d", caseEdges, defaultEdges)
	}
}
