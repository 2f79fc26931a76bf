package emitter

import (
	"fmt"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/qbe"
	"github.com/keurnel/basicqbe/internal/types"
)

// emitBlockBody emits id's own label line, pops the exception context first
// if this is a CATCH body's entry block (§4.2 TRY/CATCH/FINALLY save-
// restore discipline), then lowers each of its statements in order. A block
// whose last statement is a ThrowStmt stops there — basic_throw never
// returns, so no instruction may follow it (blockEndsInThrow keeps
// emitTerminator from adding one either).
func (fc *funcCtx) emitBlockBody(id int) {
	blk := fc.blockByID(id)
	fc.b.Label(fc.label(id))
	if blk.IsCatch {
		fc.e.lib.ExceptionPop(fc.b)
	}
	for _, s := range blk.Stmts {
		fc.emitStmt(s)
		if _, thrown := s.(*ast.ThrowStmt); thrown {
			break
		}
	}
}

// blockEndsInThrow reports whether id's last lowered statement was a THROW
// — emitTerminator must not emit any control transfer for such a block, the
// NoReturn basic_throw call already ended it.
func (fc *funcCtx) blockEndsInThrow(id int) bool {
	blk := fc.blockByID(id)
	if len(blk.Stmts) == 0 {
		return false
	}
	_, ok := blk.Stmts[len(blk.Stmts)-1].(*ast.ThrowStmt)
	return ok
}

// emitStmt dispatches one AST statement to its lowering. GOTO, GOSUB, ON
// GOTO, ON GOSUB, RETURN, EXIT, LABEL, and the purely-declarative statements
// (CONST, REM, OPTION, INCLUDE, DATA, TYPE) are no-ops here: the first group
// is entirely edge/terminator-driven (emitTerminator reads the very same
// blk.Stmts entry to classify the block), and the second group was already
// consumed during semantic analysis / the literal-pool collection sweep.
func (fc *funcCtx) emitStmt(s ast.Statement) {
	switch v := s.(type) {
	case *ast.LetStmt:
		fc.emitLet(v)
	case *ast.PrintStmt:
		fc.emitPrint(v)
	case *ast.InputStmt:
		fc.emitInput(v)
	case *ast.SwapStmt:
		fc.emitSwap(v)
	case *ast.IncStmt:
		fc.emitIncDec(v.Target, "add")
	case *ast.DecStmt:
		fc.emitIncDec(v.Target, "sub")
	case *ast.DimStmt:
		fc.emitDim(v)
	case *ast.RedimStmt:
		fc.emitRedim(v)
	case *ast.EraseStmt:
		fc.emitErase(v)
	case *ast.ReadStmt:
		fc.emitRead(v)
	case *ast.RestoreStmt:
		fc.emitRestore(v)
	case *ast.CallStmt:
		fc.emitCallStmt(v)
	case *ast.OnCallStmt:
		fc.emitOnCall(v)
	case *ast.ThrowStmt:
		fc.emitThrow(v)
	}
}

// assignTo stores val (of valDesc's base type) into the storage target
// refers to, coercing to the target's own declared type. A string-typed
// VarRef target releases its previous value first — StringRelease is a
// no-op on a borrowed literal pointer by the runtime's own contract, so
// this never needs to distinguish a literal from a heap-allocated string at
// the call site.
func (fc *funcCtx) assignTo(target ast.Expression, val qbe.Value, valDesc types.Descriptor) {
	switch t := target.(type) {
	case *ast.VarRef:
		ptr, desc, cst, ok := fc.resolveAddr(t.Name)
		if !ok || cst != nil {
			return
		}
		qt := toQ(fc.e.tmgr.QBEType(desc))
		if desc.Base.IsString() {
			old := fc.b.Load(qt, ptr)
			fc.e.lib.StringRelease(fc.b, old)
		}
		coerced := fc.coerce(val, valDesc.Base, desc.Base)
		fc.b.Store(qt, ptr, coerced)

	case *ast.ArrayRef:
		slot, elemType := fc.resolveArrayAddr(t.Name)
		descPtr := fc.b.Load(qbe.Long, slot)
		indices := make([]qbe.Value, len(t.Indices))
		for i, ix := range t.Indices {
			indices[i] = fc.toWord(ix)
		}
		qt := toQ(fc.e.tmgr.QBEType(elemType))
		coerced := fc.coerce(val, valDesc.Base, elemType.Base)
		fc.e.lib.ArraySet(fc.b, qt, descPtr, indices, coerced)

	case *ast.FieldAccess:
		baseVal, baseDesc := fc.evalExpr(t.Base)
		rt := fc.e.tmgr.RecordType(baseDesc.UDTID)
		if rt == nil {
			return
		}
		field, ok := rt.FieldByName(t.Field)
		if !ok {
			return
		}
		ptr := fc.fieldPointer(baseVal, field)
		qt := toQ(fc.e.tmgr.QBEType(field.Descriptor))
		coerced := fc.coerce(val, valDesc.Base, field.Descriptor.Base)
		fc.b.Store(qt, ptr, coerced)
	}
}

// lvalueDescriptor resolves a storage target's declared type without
// evaluating it as an rvalue, for INPUT/READ to pick the right runtime call
// before a value to assign even exists.
func (fc *funcCtx) lvalueDescriptor(t ast.Expression) types.Descriptor {
	switch v := t.(type) {
	case *ast.VarRef:
		_, desc, _, _ := fc.resolveAddr(v.Name)
		return desc
	case *ast.ArrayRef:
		r := fc.e.table.Resolve(fc.procName, v.Name)
		if r.Array != nil {
			return r.Array.ElementType
		}
	case *ast.FieldAccess:
		if base, ok := v.Base.(*ast.VarRef); ok {
			_, bd, _, _ := fc.resolveAddr(base.Name)
			if rt := fc.e.tmgr.RecordType(bd.UDTID); rt != nil {
				if f, ok := rt.FieldByName(v.Field); ok {
					return f.Descriptor
				}
			}
		}
	}
	return types.Scalar(types.Integer32)
}

func (fc *funcCtx) emitLet(v *ast.LetStmt) {
	val, desc := fc.evalExpr(v.Value)
	fc.assignTo(v.Target, val, desc)
}

// printValue dispatches one PRINT item's evaluated value to the matching
// runtime I/O call — PrintInt takes a word, so a Long-typed value is
// narrowed first.
func (fc *funcCtx) printValue(val qbe.Value, desc types.Descriptor) {
	switch desc.Base {
	case types.Integer64:
		fc.e.lib.PrintInt(fc.b, fc.coerce(val, types.Integer64, types.Integer32))
	case types.Single:
		fc.e.lib.PrintDouble(fc.b, fc.coerce(val, types.Single, types.Double))
	case types.Double:
		fc.e.lib.PrintDouble(fc.b, val)
	case types.StringASCII, types.StringUTF32:
		fc.e.lib.PrintString(fc.b, val)
	default:
		fc.e.lib.PrintInt(fc.b, val)
	}
}

func (fc *funcCtx) printTab() {
	fc.e.lib.PrintString(fc.b, qbe.Global("sep_tab"))
}

// emitPrint lowers a PRINT list per PrintItem.Sep's documented contract: ','
// emits a tab, ';' emits nothing extra, and a trailing newline follows
// unless the final item's separator was ';'.
func (fc *funcCtx) emitPrint(v *ast.PrintStmt) {
	if len(v.Items) == 0 {
		fc.e.lib.PrintNewline(fc.b)
		return
	}
	for i, it := range v.Items {
		val, desc := fc.evalExpr(it.Value)
		fc.printValue(val, desc)
		switch it.Sep {
		case ',':
			fc.printTab()
		case ';':
			continue
		}
		if i == len(v.Items)-1 {
			fc.e.lib.PrintNewline(fc.b)
		}
	}
}

func (fc *funcCtx) emitInput(v *ast.InputStmt) {
	if v.Prompt != "" {
		idx := fc.e.strIndex[v.Prompt]
		fc.e.lib.PrintString(fc.b, qbe.Global(fmt.Sprintf("s.%d", idx)))
	}
	for _, t := range v.Targets {
		desc := fc.lvalueDescriptor(t)
		switch {
		case desc.Base.IsString():
			fc.assignTo(t, fc.e.lib.InputString(fc.b), desc)
		case desc.Base == types.Single || desc.Base == types.Double:
			fc.assignTo(t, fc.e.lib.InputDouble(fc.b), types.Scalar(types.Double))
		default:
			fc.assignTo(t, fc.e.lib.InputInt(fc.b), types.Scalar(types.Integer32))
		}
	}
}

func (fc *funcCtx) emitSwap(v *ast.SwapStmt) {
	av, ad := fc.evalExpr(v.A)
	bv, bd := fc.evalExpr(v.B)
	fc.assignTo(v.A, bv, bd)
	fc.assignTo(v.B, av, ad)
}

func (fc *funcCtx) emitIncDec(target ast.Expression, op string) {
	v, d := fc.evalExpr(target)
	one := qbe.ConstInt(qbe.Word, 1)
	oneDesc := types.Scalar(types.Integer32)
	if d.Base == types.Single || d.Base == types.Double {
		one = qbe.ConstFloat(qbe.Double, 1)
		oneDesc = types.Scalar(types.Double)
	}
	sum, sumDesc := fc.arith(op, d, oneDesc, v, one)
	fc.assignTo(target, sum, sumDesc)
}

// emitRead lowers READ per target's declared type. A string target reads a
// Long-valued slot (this dialect's DATA segment interns string literals
// into the same pool the runtime's data-segment reader walks, so the raw
// basic_read_l value is already a valid string pointer) — the runtime ABI
// exposes no separate basic_read_s entry point.
func (fc *funcCtx) emitRead(v *ast.ReadStmt) {
	for _, t := range v.Targets {
		desc := fc.lvalueDescriptor(t)
		switch desc.Base {
		case types.Integer64:
			fc.assignTo(t, fc.e.lib.ReadLong(fc.b), types.Scalar(types.Integer64))
		case types.Single, types.Double:
			fc.assignTo(t, fc.e.lib.ReadDouble(fc.b), types.Scalar(types.Double))
		case types.StringASCII, types.StringUTF32:
			fc.assignTo(t, fc.e.lib.ReadLong(fc.b), desc)
		default:
			fc.assignTo(t, fc.e.lib.ReadWord(fc.b), types.Scalar(types.Integer32))
		}
	}
}

// emitRestore dispatches to basic_restore (numeric line, including 0 for
// "rewind to the start of the DATA stream") or basic_restore_label (a
// textual label, passed as the interned string literal collectLiterals
// reserved for it via walkStmtLabels).
func (fc *funcCtx) emitRestore(v *ast.RestoreStmt) {
	if v.Label != "" {
		idx := fc.e.strIndex[v.Label]
		fc.e.lib.RestoreLabel(fc.b, qbe.Global(fmt.Sprintf("s.%d", idx)))
		return
	}
	fc.e.lib.Restore(fc.b, qbe.ConstInt(qbe.Word, int64(v.TargetLine)))
}

func (fc *funcCtx) emitCallStmt(v *ast.CallStmt) {
	proc, ok := fc.e.table.Procedures[v.Name]
	if !ok {
		return
	}
	args := fc.marshalArgs(proc, v.Args)
	name := fc.e.mapper.ProcedureName(v.Name, proc.IsSub)
	retType := toQ(fc.e.tmgr.QBEType(proc.ReturnType))
	fc.b.Call(retType, !proc.IsSub, name, args)
}

// emitOnCall lowers ON <selector> CALL p1, p2, ... — not CFG-structural
// (processStatementRange's switch has no special case for it), so the
// 1-based selector cascade is synthesized entirely here as a chain of
// conditional calls that always falls through to the next statement
// afterward, regardless of which (if any) target matched.
func (fc *funcCtx) emitOnCall(v *ast.OnCallStmt) {
	selVal := fc.toWord(v.Selector)
	after := fc.b.MakeLabel("oncall.after")
	for i, name := range v.Targets {
		matchVal := qbe.ConstInt(qbe.Word, int64(i+1))
		cond := fc.b.Compare("ceqw", selVal, matchVal)
		callLabel := fc.b.MakeLabel("oncall.target")
		next := fc.b.MakeLabel("oncall.next")
		fc.b.Branch(cond, callLabel, next)

		fc.b.Label(callLabel)
		if proc, ok := fc.e.table.Procedures[name]; ok {
			args := fc.marshalArgs(proc, nil)
			pname := fc.e.mapper.ProcedureName(name, proc.IsSub)
			retType := toQ(fc.e.tmgr.QBEType(proc.ReturnType))
			fc.b.Call(retType, !proc.IsSub, pname, args)
		}
		fc.b.Jump(after)

		fc.b.Label(next)
	}
	fc.b.Label(after)
}

func (fc *funcCtx) emitThrow(v *ast.ThrowStmt) {
	codeVal := fc.toWord(v.Code)
	fc.e.lib.Throw(fc.b, codeVal, qbe.ConstInt(qbe.Word, int64(v.Line)))
}
