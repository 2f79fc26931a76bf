package emitter

import (
	"github.com/keurnel/basicqbe/internal/cfg"
	"github.com/keurnel/basicqbe/internal/qbe"
)

// emitTrySetup lowers a TRY block's save point (§4.2 TRY/CATCH/FINALLY
// save-restore emission). A TrySetup block has exactly one static CFG edge
// — Sequential into the try body — because the "exception unwound back to
// this save point" control transfer is not representable as a static edge
// at all: it is a second, non-local return from the very same
// basic_exception_save call, setjmp-style. That restore path is
// synthesized here by branching on the save's result instead of relying on
// any edge the CFG builder produced.
func (fc *funcCtx) emitTrySetup(id int, edges []*cfg.Edge) {
	info := fc.findTryInfo(id)
	if info == nil || len(edges) == 0 {
		return
	}
	ctxPtr := fc.b.Alloc(8, 8)
	fc.e.lib.ExceptionPush(fc.b, ctxPtr)
	save := fc.e.lib.ExceptionSave(fc.b)
	cond := fc.b.Compare("ceqw", save, qbe.ConstInt(qbe.Word, 0))
	fc.b.Branch(cond, fc.label(edges[0].To), fc.label(info.Dispatch))
}

// findTryInfo returns the TryInfo whose TrySetup block is trySetupID.
func (fc *funcCtx) findTryInfo(trySetupID int) *cfg.TryInfo {
	for _, info := range fc.g.TryCatchStructure {
		if info.TrySetup == trySetupID {
			return info
		}
	}
	return nil
}

// emitExceptionDispatch lowers a TRY's dispatch block: each CATCH's CaseN
// edges carry the literal exception code to compare basic_err against
// directly (unlike ON GOTO/SELECT CASE, no indirection through a clause
// list). Falling through every coded catch jumps to the catch-all CATCH when
// the Default edge targets one; otherwise it rethrows — regardless of
// whether the Default edge's static target is the function's exit block or
// an outer TRY's own dispatch block, since that target exists purely for
// CFG reachability bookkeeping, not for control flow this emitter follows.
func (fc *funcCtx) emitExceptionDispatch(edges []*cfg.Edge) {
	errVal := fc.e.lib.Err(fc.b)
	for _, e := range edges {
		if e.Kind != cfg.CaseN {
			continue
		}
		matchVal := qbe.ConstInt(qbe.Word, int64(e.CaseValue))
		cond := fc.b.Compare("ceqw", errVal, matchVal)
		next := fc.b.MakeLabel("catch.next")
		fc.b.Branch(cond, fc.label(e.To), next)
		fc.b.Label(next)
	}
	for _, e := range edges {
		if e.Kind == cfg.Default && fc.blockByID(e.To).IsCatch {
			fc.b.Jump(fc.label(e.To))
			return
		}
	}
	fc.e.lib.Rethrow(fc.b)
}
