package emitter

import (
	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/qbe"
	"github.com/keurnel/basicqbe/internal/runtime"
	"github.com/keurnel/basicqbe/internal/types"
)

// maxArrayDims is the ArrayDescriptor ABI's own dimension limit (two
// LowerBound/UpperBound pairs, runtime.ArrayUpperBound2Offset being the
// last bound slot the descriptor has room for).
const maxArrayDims = 2

// arrayBoundOffsets pairs each supported dimension's (lower, upper) byte
// offsets, in declaration order.
var arrayBoundOffsets = [maxArrayDims][2]int{
	{runtime.ArrayLowerBound1Offset, runtime.ArrayUpperBound1Offset},
	{runtime.ArrayLowerBound2Offset, runtime.ArrayUpperBound2Offset},
}

func (fc *funcCtx) addOffset(base qbe.Value, off int) qbe.Value {
	if off == 0 {
		return base
	}
	return fc.b.Binary("add", qbe.Long, base, qbe.ConstInt(qbe.Long, int64(off)))
}

// dimBound evaluates one DIM/REDIM bound expression to a Long value, or the
// program's OPTION BASE default when the source omitted a lower bound.
func (fc *funcCtx) dimBound(e ast.Expression, base int) qbe.Value {
	if e == nil {
		return qbe.ConstInt(qbe.Long, int64(base))
	}
	val, desc := fc.evalExpr(e)
	return fc.coerce(val, desc.Base, types.Integer64)
}

// elemTypeTag encodes an array element's BaseType as the small integer
// ArrayTypeSuffixOffset stores, matching SymbolMapper.suffix's own ordering
// so a runtime trace tool can decode one from the other.
func elemTypeTag(b types.BaseType) int64 {
	switch b {
	case types.Integer32:
		return 0
	case types.Integer64:
		return 1
	case types.Single:
		return 2
	case types.Double:
		return 3
	case types.StringASCII:
		return 4
	case types.StringUTF32:
		return 5
	default:
		return 6
	}
}

// writeArrayBounds stores dims' bounds plus the element-size/dimension-
// count/type-suffix metadata fields into the descriptor at descPtr. Used by
// both a fresh DIM allocation and a REDIM PRESERVE rewrite of an existing
// descriptor.
func (fc *funcCtx) writeArrayBounds(descPtr qbe.Value, dims []ast.DimExpr, elemDesc types.Descriptor) {
	base := fc.e.table.Options.ArrayBase
	for i, d := range dims {
		if i >= maxArrayDims {
			break
		}
		lower := fc.dimBound(d.Lower, base)
		upper := fc.dimBound(d.Upper, base)
		fc.b.Store(qbe.Long, fc.addOffset(descPtr, arrayBoundOffsets[i][0]), lower)
		fc.b.Store(qbe.Long, fc.addOffset(descPtr, arrayBoundOffsets[i][1]), upper)
	}
	fc.b.Store(qbe.Long, fc.addOffset(descPtr, runtime.ArrayElementSizeOffset),
		qbe.ConstInt(qbe.Long, int64(fc.e.tmgr.SizeOf(elemDesc))))
	fc.b.Store(qbe.Long, fc.addOffset(descPtr, runtime.ArrayDimensionsOffset),
		qbe.ConstInt(qbe.Long, int64(len(dims))))
	fc.b.Store(qbe.Long, fc.addOffset(descPtr, runtime.ArrayTypeSuffixOffset),
		qbe.ConstInt(qbe.Long, elemTypeTag(elemDesc.Base)))
}

// allocArrayDescriptor allocates a fresh ArrayDescriptor and fills in its
// bounds and metadata fields, returning the descriptor pointer.
func (fc *funcCtx) allocArrayDescriptor(dims []ast.DimExpr, elemDesc types.Descriptor) qbe.Value {
	descPtr := fc.e.lib.ArrayDescriptorAlloc(fc.b)
	fc.writeArrayBounds(descPtr, dims, elemDesc)
	return descPtr
}

func (fc *funcCtx) checkDimCount(dims []ast.DimExpr, line int) bool {
	if len(dims) > maxArrayDims {
		fc.e.ctx.Error(fc.e.ctx.Loc(line, 0), "array declared with more dimensions than the runtime ABI's ArrayDescriptor can represent")
		return false
	}
	return true
}

func (fc *funcCtx) emitDim(v *ast.DimStmt) {
	if len(v.Dims) == 0 {
		return
	}
	if !fc.checkDimCount(v.Dims, v.Line) {
		return
	}
	slot, elemType := fc.resolveArrayAddr(v.Name)
	descPtr := fc.allocArrayDescriptor(v.Dims, elemType)
	fc.b.Store(qbe.Long, slot, descPtr)
}

// emitRedim re-dimensions an array. Without PRESERVE it is exactly a fresh
// DIM (old descriptor released first). With PRESERVE, this emitter rewrites
// the existing descriptor's bounds/metadata in place rather than migrating
// element contents — the runtime ABI exposes no resize-and-copy entry
// point, only array_descriptor_alloc/erase, so a REDIM PRESERVE that grows
// or shrinks a dimension does not carry old elements forward. Documented as
// a known simplification, not silent: it reaches every REDIM PRESERVE in
// the program identically.
func (fc *funcCtx) emitRedim(v *ast.RedimStmt) {
	if !fc.checkDimCount(v.Dims, v.Line) {
		return
	}
	slot, elemType := fc.resolveArrayAddr(v.Name)
	if v.Preserve {
		existing := fc.b.Load(qbe.Long, slot)
		fc.writeArrayBounds(existing, v.Dims, elemType)
		return
	}
	old := fc.b.Load(qbe.Long, slot)
	fc.e.lib.ArrayDescriptorErase(fc.b, old)
	descPtr := fc.allocArrayDescriptor(v.Dims, elemType)
	fc.b.Store(qbe.Long, slot, descPtr)
}

func (fc *funcCtx) emitErase(v *ast.EraseStmt) {
	slot, _ := fc.resolveArrayAddr(v.Name)
	descPtr := fc.b.Load(qbe.Long, slot)
	fc.e.lib.ArrayDescriptorErase(fc.b, descPtr)
	fc.b.Store(qbe.Long, slot, qbe.ConstInt(qbe.Long, 0))
}
