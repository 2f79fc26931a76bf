// Package cfg implements the CFG Builder: a single-pass, recursive,
// context-threaded lowering of an AST into a ProgramCFG of BasicBlocks
// wired by typed CFGEdges. The builder never relies on block ordering for
// control-flow correctness — only edges carry meaning (SPEC_FULL.md §4.1).
package cfg

import "github.com/keurnel/basicqbe/internal/ast"

// EdgeKind classifies a CFGEdge. Block numbering carries no semantic
// meaning; edges are the only source of truth for control flow.
type EdgeKind int

const (
	Sequential EdgeKind = iota
	ConditionalTrue
	ConditionalFalse
	Jump
	Call
	Return
	ExceptionDispatch
	CaseN
	Default
)

// String renders an EdgeKind for diagnostics and CFG dumps.
func (k EdgeKind) String() string {
	switch k {
	case Sequential:
		return "Sequential"
	case ConditionalTrue:
		return "ConditionalTrue"
	case ConditionalFalse:
		return "ConditionalFalse"
	case Jump:
		return "Jump"
	case Call:
		return "Call"
	case Return:
		return "Return"
	case ExceptionDispatch:
		return "ExceptionDispatch"
	case CaseN:
		return "CaseN"
	case Default:
		return "Default"
	default:
		return "Unknown"
	}
}

// Edge is one directed CFGEdge. CaseValue is meaningful only for Kind ==
// CaseN (the nth SELECT/ON-GOTO/ON-GOSUB branch, among that one statement's
// own target list; on an edge leaving a TRY's dispatch block, the literal
// CATCH exception code). GosubSite is meaningful only on a GOSUB/ON GOSUB entry
// edge (Kind == Call or a CaseN edge from an ON GOSUB dispatch block) and on
// the Return edges finalizeGosubReturns fans out: it is the call site's
// position in build order, shared by exactly one entry edge and every
// Return edge that lands back at its call site, letting the emitter
// implement a dynamic "return address" the way the built executable would.
type Edge struct {
	From, To  int
	Kind      EdgeKind
	CaseValue int
	GosubSite int
	Label     string
}

// Block is a BasicBlock: an ordered run of statement references plus the
// emitter-specialization flags the CFG builder sets while wiring exception
// handling.
type Block struct {
	ID                  int
	Label               string
	Stmts               []ast.Statement
	IsTerminated         bool
	IsLoopHeader         bool
	IsExceptionDispatch  bool
	IsTrySetup           bool
	IsFinally            bool
	IsCatch              bool

	// Cond is the boolean expression this block tests when it ends in a
	// ConditionalTrue/ConditionalFalse edge pair (IF/ELSEIF conditions, WHILE
	// and pre/post-test DO conditions, REPEAT's UNTIL). Nil otherwise.
	Cond ast.Expression

	// ForLoop is set on a FOR loop's header block, carrying the var/start/
	// end/step the emitter needs to synthesize the bound test and increment
	// — information a bare Cond expression cannot hold.
	ForLoop *ast.ForStmt

	// Select is set on a SELECT CASE's dispatch block. Each CaseN edge
	// leaving it has CaseValue equal to an index into Select.Cases; the
	// Default edge corresponds to CASE ELSE (or to the implicit fallthrough
	// when there is none).
	Select *ast.SelectCaseStmt
}

// AddStmt appends s to the block's statement list. A no-op on a terminated
// block — once a block's last statement unconditionally transfers control,
// it accepts no further statements (§4.1 "termination flag discipline").
func (b *Block) AddStmt(s ast.Statement) {
	if b.IsTerminated {
		return
	}
	b.Stmts = append(b.Stmts, s)
}
