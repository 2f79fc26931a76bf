package emitter

import (
	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/cfg"
	"github.com/keurnel/basicqbe/internal/qbe"
	"github.com/keurnel/basicqbe/internal/types"
)

// emitTerminator lowers block id's outgoing control transfer, classifying
// purely by edge Kind and the block's own flags (§4.2 "edge-directed
// terminator selection") — never by block order. A block that ended in a
// THROW already got its one and only instruction (a NoReturn call) from
// emitBlockBody; nothing may follow it.
func (fc *funcCtx) emitTerminator(id int) {
	if fc.blockEndsInThrow(id) {
		return
	}
	blk := fc.blockByID(id)
	edges := fc.g.OutEdges(id)

	if blk.IsTrySetup {
		fc.emitTrySetup(id, edges)
		return
	}
	if blk.IsExceptionDispatch {
		fc.emitExceptionDispatch(edges)
		return
	}

	if len(edges) == 0 {
		fc.emitReturn()
		return
	}

	if t, f, ok := classifyBoolBranch(edges); ok {
		fc.emitBoolBranch(blk, t, f)
		return
	}

	if len(edges) == 1 {
		fc.emitPlainJump(id, edges[0])
		return
	}

	fc.emitDenseDispatch(id, blk, edges)
}

// classifyBoolBranch reports whether edges is a boolean branch — identified
// by the PRESENCE of a ConditionalTrue/ConditionalFalse pair, not by count
// (this also covers a DO FOREVER's single back-edge correctly: it carries
// neither Kind, so it falls through to the plain-jump/dense-dispatch cases
// below instead).
func classifyBoolBranch(edges []*cfg.Edge) (t, f *cfg.Edge, ok bool) {
	for _, e := range edges {
		switch e.Kind {
		case cfg.ConditionalTrue:
			t = e
		case cfg.ConditionalFalse:
			f = e
		}
	}
	return t, f, t != nil && f != nil
}

func (fc *funcCtx) emitReturn() {
	if fc.hasRet {
		qt := toQ(fc.e.tmgr.QBEType(fc.proc.ReturnType))
		fc.b.Return(fc.b.Load(qt, fc.retSlot))
		return
	}
	fc.b.Return(qbe.Value{})
}

// emitBoolBranch lowers a two-way branch. A FOR loop's header carries no
// Cond — buildFor never synthesizes the bound-test AST — so the
// sign-of-Step-aware branchless test is synthesized here instead.
func (fc *funcCtx) emitBoolBranch(blk *cfg.Block, t, f *cfg.Edge) {
	var cond qbe.Value
	if blk.IsLoopHeader && blk.ForLoop != nil {
		cond = fc.forBoundTest(blk.ForLoop)
	} else {
		cond = fc.toBool(blk.Cond)
	}
	fc.b.Branch(cond, fc.label(t.To), fc.label(f.To))
}

func (fc *funcCtx) toBool(expr ast.Expression) qbe.Value {
	val, desc := fc.evalExpr(expr)
	wv := fc.coerce(val, desc.Base, types.Integer32)
	return fc.b.Compare("cnew", wv, qbe.ConstInt(qbe.Word, 0))
}

func (fc *funcCtx) emitPlainJump(fromID int, e *cfg.Edge) {
	fc.prepareForEdge(fromID, e)
	fc.b.Jump(fc.label(e.To))
}

// prepareForEdge emits the pre-jump work a transfer into e.To requires
// before the jmp itself: a FOR loop header's init-on-entry/increment-on-
// back-edge (distinguished via forInitSrc, never by block order), and a
// GOSUB/ON GOSUB entry edge's call-site index store into the synthetic
// return-address slot.
func (fc *funcCtx) prepareForEdge(fromID int, e *cfg.Edge) {
	if target := fc.blockByID(e.To); target != nil && target.IsLoopHeader && target.ForLoop != nil {
		if fc.forInitSrc[e.To] == fromID {
			fc.emitForInit(target.ForLoop)
		} else {
			fc.emitForIncrement(target.ForLoop)
		}
	}
	if fc.isGosubEntryEdge(fromID, e) {
		fc.b.Store(qbe.Word, fc.gosubRet, qbe.ConstInt(qbe.Word, int64(e.GosubSite)))
	}
}

// isGosubEntryEdge decides whether e is the one edge leaving a GOSUB/ON
// GOSUB statement that actually transfers to the subroutine (as opposed to,
// say, an ON GOSUB Default edge, which falls through without calling
// anything) — dispatched on the source block's own terminal statement kind,
// since GosubSite's zero value is indistinguishable from "unset" by itself.
func (fc *funcCtx) isGosubEntryEdge(fromID int, e *cfg.Edge) bool {
	blk := fc.blockByID(fromID)
	if blk == nil || len(blk.Stmts) == 0 {
		return false
	}
	switch blk.Stmts[len(blk.Stmts)-1].(type) {
	case *ast.GosubStmt:
		return e.Kind == cfg.Call
	case *ast.OnGosubStmt:
		return e.Kind == cfg.CaseN
	}
	return false
}

func (fc *funcCtx) lastStmtOf(blk *cfg.Block) ast.Statement {
	if len(blk.Stmts) == 0 {
		return nil
	}
	return blk.Stmts[len(blk.Stmts)-1]
}

// emitDenseDispatch lowers every multi-edge terminator that is not a
// boolean branch: SELECT CASE, ON GOTO, ON GOSUB, and a multi-site
// GOSUB/RETURN fan-out. Which cascade applies is read off the block's own
// Select field or its last statement's kind — never inferred from edge
// count alone, since all four shapes can have an arbitrary number of edges.
func (fc *funcCtx) emitDenseDispatch(id int, blk *cfg.Block, edges []*cfg.Edge) {
	switch v := fc.lastStmtOf(blk).(type) {
	case *ast.OnGotoStmt:
		fc.emitOnGotoCascade(v, edges)
		return
	case *ast.OnGosubStmt:
		fc.emitOnGosubCascade(v, edges)
		return
	}
	if blk.Select != nil {
		fc.emitSelectCascade(blk, edges)
		return
	}
	fc.emitGosubReturnCascade(edges)
}

// emitOnGotoCascade lowers ON <selector> GOTO: each CaseN edge's CaseValue
// is its zero-based position in the statement's own Targets list, so the
// comparison is against CaseValue+1 (ON GOTO's 1-based selector).
func (fc *funcCtx) emitOnGotoCascade(v *ast.OnGotoStmt, edges []*cfg.Edge) {
	selVal := fc.toWord(v.Selector)
	var defaultEdge *cfg.Edge
	for _, e := range edges {
		if e.Kind == cfg.Default {
			defaultEdge = e
			continue
		}
		if e.Kind != cfg.CaseN {
			continue
		}
		matchVal := qbe.ConstInt(qbe.Word, int64(e.CaseValue+1))
		cond := fc.b.Compare("ceqw", selVal, matchVal)
		next := fc.b.MakeLabel("ongoto.next")
		fc.b.Branch(cond, fc.label(e.To), next)
		fc.b.Label(next)
	}
	if defaultEdge != nil {
		fc.b.Jump(fc.label(defaultEdge.To))
	}
}

// emitOnGosubCascade lowers ON <selector> GOSUB. Unlike ON GOTO, a matching
// branch must store its own call-site index before transferring control, so
// each match gets its own small thunk block (a plain jnz can't interleave a
// store between the test and the jump).
func (fc *funcCtx) emitOnGosubCascade(v *ast.OnGosubStmt, edges []*cfg.Edge) {
	selVal := fc.toWord(v.Selector)
	var defaultEdge *cfg.Edge
	for _, e := range edges {
		if e.Kind == cfg.Default {
			defaultEdge = e
			continue
		}
		if e.Kind != cfg.CaseN {
			continue
		}
		matchVal := qbe.ConstInt(qbe.Word, int64(e.CaseValue+1))
		cond := fc.b.Compare("ceqw", selVal, matchVal)
		thunk := fc.b.MakeLabel("ongosub.site")
		next := fc.b.MakeLabel("ongosub.next")
		fc.b.Branch(cond, thunk, next)

		fc.b.Label(thunk)
		fc.b.Store(qbe.Word, fc.gosubRet, qbe.ConstInt(qbe.Word, int64(e.GosubSite)))
		fc.b.Jump(fc.label(e.To))

		fc.b.Label(next)
	}
	if defaultEdge != nil {
		fc.b.Jump(fc.label(defaultEdge.To))
	}
}

// emitSelectCascade lowers a SELECT CASE dispatch block. Each CaseN edge's
// CaseValue is an index into blk.Select.Cases, requiring the full
// CaseClause to be evaluated (value/list/range/relational) — unlike ON
// GOTO/ON GOSUB's literal-position comparison or TRY's literal-code
// comparison.
func (fc *funcCtx) emitSelectCascade(blk *cfg.Block, edges []*cfg.Edge) {
	selVal, selDesc := fc.evalExpr(blk.Select.Selector)
	var defaultEdge *cfg.Edge
	for _, e := range edges {
		if e.Kind == cfg.Default {
			defaultEdge = e
			continue
		}
		if e.Kind != cfg.CaseN || e.CaseValue < 0 || e.CaseValue >= len(blk.Select.Cases) {
			continue
		}
		clause := blk.Select.Cases[e.CaseValue]
		cond := fc.evalCaseClause(clause, selVal, selDesc)
		next := fc.b.MakeLabel("select.next")
		fc.b.Branch(cond, fc.label(e.To), next)
		fc.b.Label(next)
	}
	if defaultEdge != nil {
		fc.b.Jump(fc.label(defaultEdge.To))
	}
}

// evalCaseClause evaluates one SELECT CASE clause against the already-
// evaluated selector, returning a word-valued 0/1 boolean. Every clause
// value is coerced toward the SELECTOR's own type, never the reverse
// (§8 S5): a CASE 1.5 against an INTEGER selector compares as an integer,
// and a CASE value that is already the selector's type is a no-op coerce,
// never a spurious double→double conversion.
func (fc *funcCtx) evalCaseClause(c ast.CaseClause, selVal qbe.Value, selDesc types.Descriptor) qbe.Value {
	qt := toQ(fc.e.tmgr.QBEType(selDesc))
	switch c.Kind {
	case ast.CaseValue, ast.CaseValueList:
		var acc qbe.Value
		for i, ve := range c.Values {
			v, d := fc.evalExpr(ve)
			eq := fc.compareEq(selVal, selDesc, v, d)
			if i == 0 {
				acc = eq
				continue
			}
			acc = fc.b.Binary("or", qbe.Word, acc, eq)
		}
		return acc

	case ast.CaseRange:
		lo, ld := fc.evalExpr(c.RangeLow)
		hi, hd := fc.evalExpr(c.RangeHigh)
		loC := fc.coerce(lo, ld.Base, selDesc.Base)
		hiC := fc.coerce(hi, hd.Base, selDesc.Base)
		geLo := fc.b.Compare(cmpOp(">=", qt), selVal, loC)
		leHi := fc.b.Compare(cmpOp("<=", qt), selVal, hiC)
		return fc.b.Binary("and", qbe.Word, geLo, leHi)

	case ast.CaseRelational:
		rv, rd := fc.evalExpr(c.RelValue)
		rC := fc.coerce(rv, rd.Base, selDesc.Base)
		return fc.b.Compare(cmpOp(c.RelOp, qt), selVal, rC)
	}
	return qbe.ConstInt(qbe.Word, 0)
}

// compareEq compares the selector against one CASE value for equality,
// coercing the CASE value toward the selector's own type (never the
// reverse — see evalCaseClause), and routing strings through
// StringCompare the same way evalBinary's "=" case does.
func (fc *funcCtx) compareEq(selVal qbe.Value, selDesc types.Descriptor, val qbe.Value, valDesc types.Descriptor) qbe.Value {
	if selDesc.Base.IsString() && valDesc.Base.IsString() {
		cmp := fc.e.lib.StringCompare(fc.b, selVal, val)
		return fc.b.Compare("ceqw", cmp, qbe.ConstInt(qbe.Word, 0))
	}
	qt := toQ(fc.e.tmgr.QBEType(selDesc))
	vc := fc.coerce(val, valDesc.Base, selDesc.Base)
	return fc.b.Compare(cmpOp("=", qt), selVal, vc)
}

// emitGosubReturnCascade lowers a RETURN block reached from more than one
// GOSUB/ON GOSUB call site: the synthetic return-address slot (stored by
// prepareForEdge at each call site) is compared against every Return edge's
// own GosubSite. The last edge needs no comparison — by construction
// exactly one site must match.
func (fc *funcCtx) emitGosubReturnCascade(edges []*cfg.Edge) {
	siteVal := fc.b.Load(qbe.Word, fc.gosubRet)
	for i, e := range edges {
		if i == len(edges)-1 {
			fc.b.Jump(fc.label(e.To))
			return
		}
		matchVal := qbe.ConstInt(qbe.Word, int64(e.GosubSite))
		cond := fc.b.Compare("ceqw", siteVal, matchVal)
		next := fc.b.MakeLabel("gosub.return.next")
		fc.b.Branch(cond, fc.label(e.To), next)
		fc.b.Label(next)
	}
}

// emitForInit stores the loop variable's Start value on the loop's unique
// entry edge — synthesized here because buildFor never adds an init
// assignment AST node to any block.
func (fc *funcCtx) emitForInit(fl *ast.ForStmt) {
	val, desc := fc.evalExpr(fl.Start)
	fc.assignTo(&ast.VarRef{Name: fl.Var}, val, desc)
}

// emitForIncrement advances the loop variable by Step (default 1) on the
// loop's back edge.
func (fc *funcCtx) emitForIncrement(fl *ast.ForStmt) {
	cur, desc := fc.evalExpr(&ast.VarRef{Name: fl.Var})
	var step qbe.Value
	var stepDesc types.Descriptor
	if fl.Step != nil {
		step, stepDesc = fc.evalExpr(fl.Step)
	} else {
		step, stepDesc = qbe.ConstInt(qbe.Word, 1), types.Scalar(types.Integer32)
	}
	sum, sumDesc := fc.arith("add", desc, stepDesc, cur, step)
	fc.assignTo(&ast.VarRef{Name: fl.Var}, sum, sumDesc)
}

// forBoundTest synthesizes the branchless, sign-of-Step-aware loop bound
// test buildFor never attaches as a Cond: (Step >= 0 AND Var <= End) OR
// (Step < 0 AND Var >= End).
func (fc *funcCtx) forBoundTest(fl *ast.ForStmt) qbe.Value {
	cur, varDesc := fc.evalExpr(&ast.VarRef{Name: fl.Var})
	endVal, endDesc := fc.evalExpr(fl.End)
	var stepVal qbe.Value
	var stepDesc types.Descriptor
	if fl.Step != nil {
		stepVal, stepDesc = fc.evalExpr(fl.Step)
	} else {
		stepVal, stepDesc = qbe.ConstInt(qbe.Word, 1), types.Scalar(types.Integer32)
	}

	promoted, err := fc.e.tmgr.Promote(varDesc.Base, endDesc.Base)
	if err != nil {
		promoted = varDesc.Base
	}
	qt := toQ(fc.e.tmgr.QBEType(types.Scalar(promoted)))
	curC := fc.coerce(cur, varDesc.Base, promoted)
	endC := fc.coerce(endVal, endDesc.Base, promoted)

	stepPromoted, err := fc.e.tmgr.Promote(stepDesc.Base, types.Integer32)
	if err != nil {
		stepPromoted = types.Integer32
	}
	stepQt := toQ(fc.e.tmgr.QBEType(types.Scalar(stepPromoted)))
	stepC := fc.coerce(stepVal, stepDesc.Base, stepPromoted)

	stepNonNeg := fc.b.Compare(cmpOp(">=", stepQt), stepC, zeroValue(stepQt))
	leTest := fc.b.Compare(cmpOp("<=", qt), curC, endC)
	geTest := fc.b.Compare(cmpOp(">=", qt), curC, endC)

	notStepNonNeg := fc.b.Binary("xor", qbe.Word, stepNonNeg, qbe.ConstInt(qbe.Word, 1))
	ascOK := fc.b.Binary("and", qbe.Word, stepNonNeg, leTest)
	descOK := fc.b.Binary("and", qbe.Word, notStepNonNeg, geTest)
	return fc.b.Binary("or", qbe.Word, ascOK, descOK)
}
