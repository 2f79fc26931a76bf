package emitter

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/qbe"
	"github.com/keurnel/basicqbe/internal/symbols"
	"github.com/keurnel/basicqbe/internal/types"
)

// toQ narrows a TypeManager QBEType letter to the qbe package's own Type —
// both are string-based over the identical letters, but distinct named
// types, so every boundary crossing into internal/qbe goes through here.
func toQ(t types.QBEType) qbe.Type { return qbe.Type(t) }

// resolveAddr returns the address slot bound to name in this function's
// scope (§4.4 resolution order: param, local, global), or ok == false with
// cst set if name names a CONST — a constant has no IL identifier of its
// own and must be inlined by the caller, per Mapper.ResolvedName's own
// contract.
func (fc *funcCtx) resolveAddr(name string) (ptr qbe.Value, desc types.Descriptor, cst *symbols.Constant, ok bool) {
	if fc.proc != nil && !fc.proc.IsSub && name == fc.procName {
		return fc.retSlot, fc.proc.ReturnType, nil, true
	}
	r := fc.e.table.Resolve(fc.procName, name)
	switch r.Kind {
	case symbols.ResolvedConstant:
		return qbe.Value{}, r.Constant.Descriptor, r.Constant, false
	case symbols.ResolvedNone:
		return qbe.Value{}, types.Descriptor{}, nil, false
	}
	mangled, d, err := fc.e.mapper.ResolvedName(fc.procName, name)
	if err != nil {
		return qbe.Value{}, types.Descriptor{}, nil, false
	}
	return fc.slots[mangled], d, nil, true
}

// resolveArrayAddr returns the slot holding an array's descriptor pointer.
func (fc *funcCtx) resolveArrayAddr(name string) (slot qbe.Value, elemType types.Descriptor) {
	r := fc.e.table.Resolve(fc.procName, name)
	var arr *symbols.Array
	switch r.Kind {
	case symbols.ResolvedLocalArray, symbols.ResolvedGlobalArray:
		arr = r.Array
	}
	if arr == nil {
		return qbe.Value{}, types.Descriptor{}
	}
	mangled := fc.e.mapper.Array(name, arr.ElementType)
	return fc.slots[mangled], arr.ElementType
}

// constValue inlines a CONST's literal, per the exact BaseType it was
// declared with. A string-valued constant is not inlined as text — it
// resolves to whatever s.N slot collectLiterals interned for it when it
// walked the ConstStmt that declared it.
func (e *Emitter) constValue(c *symbols.Constant) (qbe.Value, types.Descriptor) {
	switch c.Descriptor.Base {
	case types.Integer32:
		return qbe.ConstInt(qbe.Word, c.IntValue), c.Descriptor
	case types.Integer64:
		return qbe.ConstInt(qbe.Long, c.IntValue), c.Descriptor
	case types.Single:
		return qbe.ConstFloat(qbe.Single, c.FloatValue), c.Descriptor
	case types.Double:
		return qbe.ConstFloat(qbe.Double, c.FloatValue), c.Descriptor
	default:
		idx := e.strIndex[c.StrValue]
		return qbe.Global(fmt.Sprintf("s.%d", idx)), c.Descriptor
	}
}

// evalExpr lowers expr to a value and its static type, per SPEC_FULL.md
// §4.2's expression-visitor contract: every expression emits zero or more
// instructions and returns exactly one (ssa_temp, TypeDescriptor) pair.
func (fc *funcCtx) evalExpr(expr ast.Expression) (qbe.Value, types.Descriptor) {
	e := fc.e
	switch v := expr.(type) {
	case *ast.IntLit:
		if v.Value >= math.MinInt32 && v.Value <= math.MaxInt32 {
			return qbe.ConstInt(qbe.Word, v.Value), types.Scalar(types.Integer32)
		}
		return qbe.ConstInt(qbe.Long, v.Value), types.Scalar(types.Integer64)

	case *ast.FloatLit:
		idx := e.fltIndex[v.Value]
		val := fc.b.Load(qbe.Double, qbe.Global(fmt.Sprintf("fp.%d", idx)))
		return val, types.Scalar(types.Double)

	case *ast.StringLit:
		idx := e.strIndex[v.Value]
		desc := types.Scalar(fc.stringLitBase(v.Value))
		return qbe.Global(fmt.Sprintf("s.%d", idx)), desc

	case *ast.VarRef:
		ptr, desc, cst, ok := fc.resolveAddr(v.Name)
		if !ok && cst != nil {
			return e.constValue(cst)
		}
		if !ok {
			return qbe.Value{}, types.Descriptor{}
		}
		qt := toQ(e.tmgr.QBEType(desc))
		return fc.b.Load(qt, ptr), desc

	case *ast.ArrayRef:
		slot, elemType := fc.resolveArrayAddr(v.Name)
		descPtr := fc.b.Load(qbe.Long, slot)
		indices := make([]qbe.Value, len(v.Indices))
		for i, ix := range v.Indices {
			indices[i] = fc.toWord(ix)
		}
		qt := toQ(e.tmgr.QBEType(elemType))
		return e.lib.ArrayGet(fc.b, qt, descPtr, indices), elemType

	case *ast.FieldAccess:
		baseVal, baseDesc := fc.evalExpr(v.Base)
		rt := e.tmgr.RecordType(baseDesc.UDTID)
		if rt == nil {
			return qbe.Value{}, types.Descriptor{}
		}
		field, ok := rt.FieldByName(v.Field)
		if !ok {
			return qbe.Value{}, types.Descriptor{}
		}
		ptr := fc.fieldPointer(baseVal, field)
		qt := toQ(e.tmgr.QBEType(field.Descriptor))
		return fc.b.Load(qt, ptr), field.Descriptor

	case *ast.UnaryExpr:
		return fc.evalUnary(v)

	case *ast.BinaryExpr:
		return fc.evalBinary(v)

	case *ast.CallExpr:
		return fc.evalCall(v)

	case *ast.ErrExpr:
		return e.lib.Err(fc.b), types.Scalar(types.Integer32)

	case *ast.ErlExpr:
		return e.lib.Erl(fc.b), types.Scalar(types.Integer32)
	}
	return qbe.Value{}, types.Descriptor{}
}

// fieldPointer returns the address of one record field given the record's
// own base pointer value.
func (fc *funcCtx) fieldPointer(base qbe.Value, field types.Field) qbe.Value {
	if field.ByteOffset == 0 {
		return base
	}
	return fc.b.Binary("add", qbe.Long, base, qbe.ConstInt(qbe.Long, int64(field.ByteOffset)))
}

// toWord evaluates expr and coerces it to a word-typed value, the type
// every array index and dense-dispatch selector must be per the runtime
// ABI's array_get_*/array_set_* and the CaseN comparison cascade.
func (fc *funcCtx) toWord(expr ast.Expression) qbe.Value {
	val, desc := fc.evalExpr(expr)
	return fc.coerce(val, desc.Base, types.Integer32)
}

// coerce converts val (of base type from) to base type to, routing through
// TypeManager.ConversionOp so every implicit numeric widening/narrowing in
// the emitted IL agrees with §4.3's promotion lattice.
func (fc *funcCtx) coerce(val qbe.Value, from, to types.BaseType) qbe.Value {
	if from == to {
		return val
	}
	op, err := fc.e.tmgr.ConversionOp(from, to)
	if err != nil {
		return val
	}
	toQT := toQ(fc.e.tmgr.QBEType(types.Scalar(to)))
	return fc.b.Convert(op, toQT, val)
}

// stringLitBase classifies a string literal's BaseType under OPTION
// STRING_MODE (§6): forced ASCII/UTF-32, or AUTO's per-literal detection
// (any codepoint above ASCII forces UTF-32 for that literal).
func (fc *funcCtx) stringLitBase(s string) types.BaseType {
	switch fc.e.table.Options.StringMode {
	case symbols.StringModeASCII:
		return types.StringASCII
	case symbols.StringModeUTF32:
		return types.StringUTF32
	default:
		for _, r := range s {
			if r > 127 {
				return types.StringUTF32
			}
		}
		return types.StringASCII
	}
}

// evalUnary lowers "-" and "NOT" per §4.2/§9: NOT's bitwise-vs-boolean
// reading depends on OPTION BITWISE-OR-LOGICAL (AND/OR/XOR/NOT share one
// switch, never decided per-operator).
func (fc *funcCtx) evalUnary(v *ast.UnaryExpr) (qbe.Value, types.Descriptor) {
	val, desc := fc.evalExpr(v.Operand)
	qt := toQ(fc.e.tmgr.QBEType(desc))
	switch v.Op {
	case "-":
		zero := qbe.ConstInt(qt, 0)
		if qt == qbe.Single || qt == qbe.Double {
			zero = qbe.ConstFloat(qt, 0)
		}
		return fc.b.Binary("sub", qt, zero, val), desc
	case "NOT":
		if fc.e.table.Options.BitwiseOrLogical {
			mask := qbe.ConstInt(qt, -1)
			return fc.b.Binary("xor", qt, val, mask), desc
		}
		eq := fc.b.Compare("ceq"+string(qt), val, qbe.ConstInt(qt, 0))
		return eq, types.Scalar(types.Integer32)
	}
	return val, desc
}

// cmpOp maps a BASIC relational operator and a QBE base type to the
// mnemonic QBE's `c...` comparison family uses for it.
func cmpOp(op string, qt qbe.Type) string {
	t := string(qt)
	switch qt {
	case qbe.Single, qbe.Double:
		switch op {
		case "=":
			return "ceq" + t
		case "<>":
			return "cne" + t
		case "<":
			return "clt" + t
		case "<=":
			return "cle" + t
		case ">":
			return "cgt" + t
		case ">=":
			return "cge" + t
		}
	default:
		switch op {
		case "=":
			return "ceq" + t
		case "<>":
			return "cne" + t
		case "<":
			return "cslt" + t
		case "<=":
			return "csle" + t
		case ">":
			return "csgt" + t
		case ">=":
			return "csge" + t
		}
	}
	return "ceq" + t
}

// evalBinary lowers every BinaryExpr.Op: arithmetic with the §4.2
// peephole strength reductions, string concat/compare via RuntimeLibrary,
// and AND/OR/XOR under the bitwise-vs-logical OPTION switch.
func (fc *funcCtx) evalBinary(v *ast.BinaryExpr) (qbe.Value, types.Descriptor) {
	e := fc.e
	lval, ldesc := fc.evalExpr(v.Left)
	rval, rdesc := fc.evalExpr(v.Right)

	switch v.Op {
	case "=", "<>", "<", "<=", ">", ">=":
		if ldesc.Base.IsString() && rdesc.Base.IsString() {
			cmp := e.lib.StringCompare(fc.b, lval, rval)
			return fc.b.Compare(cmpOp(v.Op, qbe.Word), cmp, qbe.ConstInt(qbe.Word, 0)), types.Scalar(types.Integer32)
		}
		promoted, err := e.tmgr.Promote(ldesc.Base, rdesc.Base)
		if err != nil {
			promoted = ldesc.Base
		}
		lc := fc.coerce(lval, ldesc.Base, promoted)
		rc := fc.coerce(rval, rdesc.Base, promoted)
		qt := toQ(e.tmgr.QBEType(types.Scalar(promoted)))
		return fc.b.Compare(cmpOp(v.Op, qt), lc, rc), types.Scalar(types.Integer32)

	case "+":
		if ldesc.Base.IsString() || rdesc.Base.IsString() {
			resBase, err := e.tmgr.Promote(ldesc.Base, rdesc.Base)
			if err != nil {
				resBase = types.StringASCII
			}
			return e.lib.StringConcat(fc.b, lval, rval), types.Scalar(resBase)
		}
		return fc.arith("add", ldesc, rdesc, lval, rval)

	case "-":
		return fc.arith("sub", ldesc, rdesc, lval, rval)

	case "*":
		if red, ok := fc.peepholeMultiply(ldesc, rdesc, lval, rval, v); ok {
			return red, promotedDesc(e, ldesc, rdesc)
		}
		return fc.arith("mul", ldesc, rdesc, lval, rval)

	case "/":
		return fc.arithFloat("div", ldesc, rdesc, lval, rval)

	case "\\":
		if red, ok := fc.peepholeIntDiv(ldesc, rdesc, lval, rval, v); ok {
			return red, types.Scalar(types.Integer32)
		}
		return fc.arithInt("div", ldesc, rdesc, lval, rval)

	case "MOD":
		if red, ok := fc.peepholeMod(ldesc, rdesc, lval, rval, v); ok {
			return red, types.Scalar(types.Integer32)
		}
		return fc.arithInt("rem", ldesc, rdesc, lval, rval)

	case "^":
		return fc.evalPower(lval, ldesc, rval, rdesc, v)

	case "AND", "OR", "XOR":
		qt := toQ(e.tmgr.QBEType(types.Scalar(types.Integer32)))
		op := map[string]string{"AND": "and", "OR": "or", "XOR": "xor"}[v.Op]
		lc := fc.coerce(lval, ldesc.Base, types.Integer32)
		rc := fc.coerce(rval, rdesc.Base, types.Integer32)
		if !e.table.Options.BitwiseOrLogical {
			lb := fc.b.Compare("cne"+string(qt), lc, qbe.ConstInt(qt, 0))
			rb := fc.b.Compare("cne"+string(qt), rc, qbe.ConstInt(qt, 0))
			return fc.b.Binary(op, qt, lb, rb), types.Scalar(types.Integer32)
		}
		return fc.b.Binary(op, qt, lc, rc), types.Scalar(types.Integer32)
	}
	return lval, ldesc
}

func promotedDesc(e *Emitter, l, r types.Descriptor) types.Descriptor {
	b, err := e.tmgr.Promote(l.Base, r.Base)
	if err != nil {
		b = l.Base
	}
	return types.Scalar(b)
}

// arith promotes both operands to their common numeric type and emits op.
func (fc *funcCtx) arith(op string, ldesc, rdesc types.Descriptor, lval, rval qbe.Value) (qbe.Value, types.Descriptor) {
	e := fc.e
	promoted, err := e.tmgr.Promote(ldesc.Base, rdesc.Base)
	if err != nil {
		promoted = ldesc.Base
	}
	lc := fc.coerce(lval, ldesc.Base, promoted)
	rc := fc.coerce(rval, rdesc.Base, promoted)
	qt := e.tmgr.QBEType(types.Scalar(promoted))
	return fc.b.Binary(op, qt, lc, rc), types.Scalar(promoted)
}

// arithFloat is arith but always promotes to Double first — BASIC's "/" is
// always real division, even integer / integer.
func (fc *funcCtx) arithFloat(op string, ldesc, rdesc types.Descriptor, lval, rval qbe.Value) (qbe.Value, types.Descriptor) {
	lc := fc.coerce(lval, ldesc.Base, types.Double)
	rc := fc.coerce(rval, rdesc.Base, types.Double)
	return fc.b.Binary(op, qbe.Double, lc, rc), types.Scalar(types.Double)
}

// arithInt is arith but always demotes to Integer32 first — "\" and MOD are
// always truncating integer operations in this dialect.
func (fc *funcCtx) arithInt(op string, ldesc, rdesc types.Descriptor, lval, rval qbe.Value) (qbe.Value, types.Descriptor) {
	lc := fc.coerce(lval, ldesc.Base, types.Integer32)
	rc := fc.coerce(rval, rdesc.Base, types.Integer32)
	return fc.b.Binary(op, qbe.Word, lc, rc), types.Scalar(types.Integer32)
}

// peepholeMultiply implements §4.2 (i): a multiply by a compile-time
// power-of-two integer constant lowers to a left shift.
func (fc *funcCtx) peepholeMultiply(ldesc, rdesc types.Descriptor, lval, rval qbe.Value, v *ast.BinaryExpr) (qbe.Value, bool) {
	shiftAmt, base, ok := powerOfTwoOperand(v.Right, v.Left)
	if !ok {
		return qbe.Value{}, false
	}
	if !ldesc.Base.IsNumeric() || !rdesc.Base.IsNumeric() || ldesc.Base.IsString() {
		return qbe.Value{}, false
	}
	qt := toQ(fc.e.tmgr.QBEType(promotedDesc(fc.e, ldesc, rdesc)))
	if qt == qbe.Single || qt == qbe.Double {
		return qbe.Value{}, false
	}
	baseVal, baseDesc := lval, ldesc
	if base == v.Right {
		baseVal, baseDesc = rval, rdesc
	}
	baseVal = fc.coerce(baseVal, baseDesc.Base, promotedDesc(fc.e, ldesc, rdesc).Base)
	return fc.b.Binary("shl", qt, baseVal, qbe.ConstInt(qt, int64(shiftAmt))), true
}

// peepholeIntDiv implements §4.2 (iii): BASIC's truncating "\" divided by a
// compile-time power-of-two constant lowers to a biased arithmetic shift
// right that matches truncation-toward-zero instead of floor division:
// for a negative dividend, add (2^k - 1) before shifting.
func (fc *funcCtx) peepholeIntDiv(ldesc, rdesc types.Descriptor, lval, rval qbe.Value, v *ast.BinaryExpr) (qbe.Value, bool) {
	k, isPow2 := constPowerOfTwo(v.Right)
	if !isPow2 || k == 0 {
		return qbe.Value{}, false
	}
	l := fc.coerce(lval, ldesc.Base, types.Integer32)
	bias := (int64(1) << uint(k)) - 1
	isNeg := fc.b.Compare("cslt"+string(qbe.Word), l, qbe.ConstInt(qbe.Word, 0))
	negMask := fc.b.Binary("sub", qbe.Word, qbe.ConstInt(qbe.Word, 0), isNeg)
	biasVal := fc.b.Binary("and", qbe.Word, negMask, qbe.ConstInt(qbe.Word, bias))
	biased := fc.b.Binary("add", qbe.Word, l, biasVal)
	return fc.b.Binary("sar", qbe.Word, biased, qbe.ConstInt(qbe.Word, int64(k))), true
}

// peepholeMod implements §4.2 (ii): MOD by a compile-time power-of-two
// constant lowers to a bitwise AND with (2^k - 1).
func (fc *funcCtx) peepholeMod(ldesc, rdesc types.Descriptor, lval, rval qbe.Value, v *ast.BinaryExpr) (qbe.Value, bool) {
	k, isPow2 := constPowerOfTwo(v.Right)
	if !isPow2 {
		return qbe.Value{}, false
	}
	l := fc.coerce(lval, ldesc.Base, types.Integer32)
	mask := (int64(1) << uint(k)) - 1
	return fc.b.Binary("and", qbe.Word, l, qbe.ConstInt(qbe.Word, mask)), true
}

// evalPower lowers "^". QBE has no power opcode and this runtime exposes
// no pow()/exp()/log() hook, so a non-negative compile-time integer
// exponent unrolls into a straight-line multiply chain (the common case:
// X^2, X^3); a runtime-valued exponent instead emits a small counted
// multiply loop over a truncated non-negative integer view of it.
// Negative or fractional exponents are not representable by either path —
// a documented limitation of this dialect's "^" rather than a bug.
func (fc *funcCtx) evalPower(lval qbe.Value, ldesc types.Descriptor, rval qbe.Value, rdesc types.Descriptor, v *ast.BinaryExpr) (qbe.Value, types.Descriptor) {
	base := fc.coerce(lval, ldesc.Base, types.Double)
	if n, ok := constNonNegInt(v.Right); ok {
		return fc.unrollPower(base, n), types.Scalar(types.Double)
	}
	return fc.runtimePower(base, rval, rdesc), types.Scalar(types.Double)
}

func constNonNegInt(expr ast.Expression) (int64, bool) {
	lit, ok := expr.(*ast.IntLit)
	if !ok || lit.Value < 0 {
		return 0, false
	}
	return lit.Value, true
}

// unrollPower emits n-1 multiplies against base, starting from the
// identity (n == 0 yields 1.0, the BASIC convention for X^0).
func (fc *funcCtx) unrollPower(base qbe.Value, n int64) qbe.Value {
	if n == 0 {
		return qbe.ConstFloat(qbe.Double, 1)
	}
	acc := base
	for i := int64(1); i < n; i++ {
		acc = fc.b.Binary("mul", qbe.Double, acc, base)
	}
	return acc
}

// runtimePower emits a counted multiply loop for a runtime-valued
// exponent, truncated to a non-negative word-sized integer count.
func (fc *funcCtx) runtimePower(base, expVal qbe.Value, expDesc types.Descriptor) qbe.Value {
	n := fc.coerce(expVal, expDesc.Base, types.Integer32)

	accPtr := fc.b.Alloc(8, 8)
	fc.b.Store(qbe.Double, accPtr, qbe.ConstFloat(qbe.Double, 1))
	iPtr := fc.b.Alloc(4, 4)
	fc.b.Store(qbe.Word, iPtr, qbe.ConstInt(qbe.Word, 0))

	head := fc.b.MakeLabel("pow.head")
	body := fc.b.MakeLabel("pow.body")
	done := fc.b.MakeLabel("pow.done")

	fc.b.Jump(head)
	fc.b.Label(head)
	iv := fc.b.Load(qbe.Word, iPtr)
	cond := fc.b.Compare("cslt"+string(qbe.Word), iv, n)
	fc.b.Branch(cond, body, done)

	fc.b.Label(body)
	av := fc.b.Load(qbe.Double, accPtr)
	nacc := fc.b.Binary("mul", qbe.Double, av, base)
	fc.b.Store(qbe.Double, accPtr, nacc)
	niv := fc.b.Binary("add", qbe.Word, iv, qbe.ConstInt(qbe.Word, 1))
	fc.b.Store(qbe.Word, iPtr, niv)
	fc.b.Jump(head)

	fc.b.Label(done)
	return fc.b.Load(qbe.Double, accPtr)
}

// constPowerOfTwo reports whether expr is a compile-time non-negative
// integer literal that is an exact power of two, returning log2 of it.
func constPowerOfTwo(expr ast.Expression) (int, bool) {
	lit, ok := expr.(*ast.IntLit)
	if !ok || lit.Value <= 0 {
		return 0, false
	}
	n := uint64(lit.Value)
	if bits.OnesCount64(n) != 1 {
		return 0, false
	}
	return bits.TrailingZeros64(n), true
}

// powerOfTwoOperand reports whether exactly one side of a "*" is a
// compile-time power-of-two literal, returning the shift amount and which
// side was the non-constant operand.
func powerOfTwoOperand(right, left ast.Expression) (int, ast.Expression, bool) {
	if k, ok := constPowerOfTwo(right); ok {
		return k, left, true
	}
	if k, ok := constPowerOfTwo(left); ok {
		return k, right, true
	}
	return 0, nil, false
}

// evalCall lowers a genuine SUB/FUNCTION call expression: by-reference
// arguments are passed the callee's own storage address; by-value
// arguments are passed the evaluated value, marshaled to the declared
// parameter type.
func (fc *funcCtx) evalCall(v *ast.CallExpr) (qbe.Value, types.Descriptor) {
	e := fc.e
	proc, ok := e.table.Procedures[v.Name]
	if !ok {
		return qbe.Value{}, types.Descriptor{}
	}
	args := fc.marshalArgs(proc, v.Args)
	name := e.mapper.ProcedureName(v.Name, proc.IsSub)
	retType := toQ(e.tmgr.QBEType(proc.ReturnType))
	result := fc.b.Call(retType, !proc.IsSub, name, args)
	return result, proc.ReturnType
}

// marshalArgs builds the QBE call-argument list for a SUB/FUNCTION call,
// honoring each declared parameter's BYREF/BYVAL passing convention.
func (fc *funcCtx) marshalArgs(proc *symbols.Procedure, argExprs []ast.Expression) []qbe.Arg {
	args := make([]qbe.Arg, 0, len(argExprs))
	for i, argExpr := range argExprs {
		if i >= len(proc.Params) {
			break
		}
		p := proc.Params[i]
		if p.ByRef {
			addr, _ := fc.lvalueAddr(argExpr)
			args = append(args, qbe.Arg{Type: qbe.Long, Value: addr})
			continue
		}
		val, desc := fc.evalExpr(argExpr)
		val = fc.coerce(val, desc.Base, p.Descriptor.Base)
		args = append(args, qbe.Arg{Type: toQ(fc.e.tmgr.QBEType(p.Descriptor)), Value: val})
	}
	return args
}

// lvalueAddr returns the address a BYREF argument or assignment target
// refers to, without loading through it.
func (fc *funcCtx) lvalueAddr(expr ast.Expression) (qbe.Value, types.Descriptor) {
	switch v := expr.(type) {
	case *ast.VarRef:
		ptr, desc, cst, ok := fc.resolveAddr(v.Name)
		if !ok || cst != nil {
			return qbe.Value{}, desc
		}
		return ptr, desc
	case *ast.ArrayRef:
		slot, elemType := fc.resolveArrayAddr(v.Name)
		descPtr := fc.b.Load(qbe.Long, slot)
		indices := make([]qbe.Value, len(v.Indices))
		for i, ix := range v.Indices {
			indices[i] = fc.toWord(ix)
		}
		return fc.e.lib.ArrayElementPointer(fc.b, descPtr, indices), elemType
	case *ast.FieldAccess:
		baseVal, baseDesc := fc.evalExpr(v.Base)
		rt := fc.e.tmgr.RecordType(baseDesc.UDTID)
		if rt == nil {
			return qbe.Value{}, types.Descriptor{}
		}
		field, ok := rt.FieldByName(v.Field)
		if !ok {
			return qbe.Value{}, types.Descriptor{}
		}
		return fc.fieldPointer(baseVal, field), field.Descriptor
	}
	return qbe.Value{}, types.Descriptor{}
}
