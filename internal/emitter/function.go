package emitter

import (
	"fmt"
	"strings"

	"github.com/keurnel/basicqbe/internal/cfg"
	"github.com/keurnel/basicqbe/internal/qbe"
	"github.com/keurnel/basicqbe/internal/symbols"
)

// funcCtx holds everything specific to the ONE function currently being
// lowered: its Builder, its procedure frame (nil for the main program),
// the slot map from Mapper identifier to bound address Value, and the
// scratch state the FOR-loop and GOSUB dense-dispatch cascades need.
type funcCtx struct {
	e        *Emitter
	b        *qbe.Builder
	procName string
	proc     *symbols.Procedure
	g        *cfg.Graph

	slots map[string]qbe.Value

	retSlot qbe.Value
	hasRet  bool

	gosubRet    qbe.Value
	hasGosubRet bool

	// forInitSrc maps a FOR header block ID to the ID of the block whose
	// edge into it is the loop's unique entry (as opposed to its back
	// edge) — the first Sequential/Jump edge appended into that header in
	// build order, per cfg.Builder.buildFor's own traversal order.
	forInitSrc map[int]int
}

func (e *Emitter) emitFunction(out *strings.Builder, procName string, g *cfg.Graph) {
	fc := &funcCtx{
		e:          e,
		b:          qbe.NewBuilder(),
		procName:   procName,
		g:          g,
		slots:      make(map[string]qbe.Value),
		forInitSrc: make(map[int]int),
	}
	if procName != "" {
		fc.proc = e.table.Procedures[procName]
	}
	fc.precomputeForInitSources()

	fc.bindGlobals()
	var paramDecls []string
	if fc.proc != nil {
		paramDecls = fc.bindParams()
		fc.bindLocals()
		if !fc.proc.IsSub {
			fc.bindReturnSlot()
		}
	}
	if len(g.GosubReturnBlocks) > 0 {
		fc.bindGosubReturnSlot()
	}

	for _, id := range fc.blockOrder() {
		fc.emitBlockBody(id)
		fc.emitTerminator(id)
	}

	name := "$main"
	retDecl := ""
	if fc.proc != nil {
		name = e.mapper.ProcedureName(procName, fc.proc.IsSub)
		if !fc.proc.IsSub {
			retDecl = string(toQ(e.tmgr.QBEType(fc.proc.ReturnType))) + " "
		}
	}
	fmt.Fprintf(out, "function %s%s(%s) {\n", retDecl, name, strings.Join(paramDecls, ", "))
	out.WriteString(fc.b.String())
	out.WriteString("\n}\n\n")
}

// blockOrder returns every block ID with the graph's EntryBlock first —
// the prologue falls straight through into whatever block is emitted
// immediately after it, with no intervening jmp, so the entry block MUST
// come first in the output. Every other transfer of control in this
// emitter is an explicit jmp/jnz, so the relative order of the remaining
// blocks carries no semantic weight.
func (fc *funcCtx) blockOrder() []int {
	order := make([]int, 0, len(fc.g.Blocks))
	order = append(order, fc.g.EntryBlock)
	for _, b := range fc.g.Blocks {
		if b.ID != fc.g.EntryBlock {
			order = append(order, b.ID)
		}
	}
	return order
}

func (fc *funcCtx) label(id int) string {
	return strings.TrimPrefix(fc.e.mapper.Block(id), "@")
}

// sizeAlign returns the (align, size) byte pair alloc4/alloc8 need for a
// scalar of QBE type qt.
func sizeAlign(qt qbe.Type) (int, int) {
	if qt == qbe.Word || qt == qbe.Single {
		return 4, 4
	}
	return 8, 8
}

func zeroValue(qt qbe.Type) qbe.Value {
	switch qt {
	case qbe.Single, qbe.Double:
		return qbe.ConstFloat(qt, 0)
	default:
		return qbe.ConstInt(qt, 0)
	}
}

// shadowedByProc reports whether name names a parameter or local of the
// current procedure — such a global is never bound at all (see
// bindGlobals): every reference inside this procedure resolves to the
// shadowing param/local instead (§4.4 resolution order), so binding the
// global's own alias here would be both dead and, for a same-typed
// shadowing param, a second SSA assignment to the identical mangled name.
func (fc *funcCtx) shadowedByProc(name string) bool {
	if fc.proc == nil {
		return false
	}
	for _, p := range fc.proc.Params {
		if p.Name == name {
			return true
		}
	}
	if _, ok := fc.proc.Locals[name]; ok {
		return true
	}
	if _, ok := fc.proc.LocalArrays[name]; ok {
		return true
	}
	return false
}

// bindGlobals binds every global scalar and array this function does not
// itself shadow to a per-function alias pointing at the module-level data
// symbol, per §4.4's "every function re-binds every global it might touch"
// convention — each SUB/FUNCTION is its own separately emitted QBE function
// with no shared lexical frame.
func (fc *funcCtx) bindGlobals() {
	e := fc.e
	for _, name := range sortedKeys(e.table.Globals) {
		if fc.shadowedByProc(name) {
			continue
		}
		v := e.table.Globals[name]
		mangled := e.mapper.Variable(name, v.Descriptor)
		ptr := fc.b.Bind(mangled, qbe.Long, "copy $"+globalTail(mangled))
		fc.slots[mangled] = ptr
	}
	for _, name := range sortedKeys(e.table.GlobalArrays) {
		if fc.shadowedByProc(name) {
			continue
		}
		a := e.table.GlobalArrays[name]
		mangled := e.mapper.Array(name, a.ElementType)
		ptr := fc.b.Bind(mangled, qbe.Long, "copy $"+globalTail(mangled))
		fc.slots[mangled] = ptr
	}
}

// bindParams binds every parameter of the current procedure. A BYREF
// parameter's slot IS the caller's own address — no local storage, no
// initial store. A BYVAL parameter gets a fresh stack slot initialized
// from the incoming value, so later assignments to the parameter name
// behave exactly like an ordinary local.
func (fc *funcCtx) bindParams() []string {
	e := fc.e
	decls := make([]string, 0, len(fc.proc.Params))
	for _, p := range fc.proc.Params {
		eff := p.Descriptor
		if p.ByRef {
			eff = eff.ByRef()
		}
		mangled := e.mapper.Variable(p.Name, eff)
		argName := "%arg_" + globalTail(mangled)
		if p.ByRef {
			decls = append(decls, fmt.Sprintf("%s %s", qbe.Long, argName))
			ptr := fc.b.Bind(mangled, qbe.Long, "copy "+argName)
			fc.slots[mangled] = ptr
			continue
		}
		qt := toQ(e.tmgr.QBEType(p.Descriptor))
		decls = append(decls, fmt.Sprintf("%s %s", qt, argName))
		align, size := sizeAlign(qt)
		ptr := fc.b.Bind(mangled, qbe.Long, fmt.Sprintf("alloc%d %d", align, size))
		fc.b.Store(qt, ptr, qbe.Value{Name: argName, Type: qt})
		fc.slots[mangled] = ptr
	}
	return decls
}

// bindLocals allocates and zero-initializes every local scalar and local
// array slot of the current procedure.
func (fc *funcCtx) bindLocals() {
	e := fc.e
	for _, name := range sortedKeys(fc.proc.Locals) {
		v := fc.proc.Locals[name]
		mangled := e.mapper.Variable(name, v.Descriptor)
		qt := toQ(e.tmgr.QBEType(v.Descriptor))
		align, size := sizeAlign(qt)
		ptr := fc.b.Bind(mangled, qbe.Long, fmt.Sprintf("alloc%d %d", align, size))
		fc.b.Store(qt, ptr, zeroValue(qt))
		fc.slots[mangled] = ptr
	}
	for _, name := range sortedKeys(fc.proc.LocalArrays) {
		a := fc.proc.LocalArrays[name]
		mangled := e.mapper.Array(name, a.ElementType)
		ptr := fc.b.Bind(mangled, qbe.Long, "alloc8 8")
		fc.b.Store(qbe.Long, ptr, qbe.ConstInt(qbe.Long, 0))
		fc.slots[mangled] = ptr
	}
}

// bindReturnSlot allocates the implicit accumulator FUNCTION's own name
// addresses: classic BASIC's "assign to the function name to set the
// return value" convention, modeled as one more ordinary local that
// happens to feed the final `ret`.
func (fc *funcCtx) bindReturnSlot() {
	e := fc.e
	mangled := e.mapper.Variable(fc.procName, fc.proc.ReturnType)
	qt := toQ(e.tmgr.QBEType(fc.proc.ReturnType))
	align, size := sizeAlign(qt)
	ptr := fc.b.Bind(mangled, qbe.Long, fmt.Sprintf("alloc%d %d", align, size))
	fc.b.Store(qt, ptr, zeroValue(qt))
	fc.slots[mangled] = ptr
	fc.retSlot = ptr
	fc.hasRet = true
}

// bindGosubReturnSlot allocates the synthetic word-valued "return address"
// local a multi-site GOSUB/RETURN fan-out needs: one physical RETURN
// statement landing point can be reached from more than one call site,
// each needing to resume at its own distinct afterBlock.
func (fc *funcCtx) bindGosubReturnSlot() {
	ptr := fc.b.Bind("%gosub_ret_slot", qbe.Long, "alloc4 4")
	fc.b.Store(qbe.Word, ptr, qbe.ConstInt(qbe.Word, 0))
	fc.gosubRet = ptr
	fc.hasGosubRet = true
}

// precomputeForInitSources records, for every FOR loop header block, which
// of its incoming Sequential/Jump edges is the unique entry edge (as
// opposed to the back edge from the loop body) — cfg.Builder.buildFor
// always wires the entry edge before it recurses into the body, so the
// FIRST such edge appended to g.Edges targeting a given header is always
// the entry.
func (fc *funcCtx) precomputeForInitSources() {
	for _, e := range fc.g.Edges {
		blk := fc.blockByID(e.To)
		if blk == nil || blk.ForLoop == nil || !blk.IsLoopHeader {
			continue
		}
		if (e.Kind == cfg.Sequential || e.Kind == cfg.Jump) && e.From != e.To {
			if _, seen := fc.forInitSrc[e.To]; !seen {
				fc.forInitSrc[e.To] = e.From
			}
		}
	}
}

func (fc *funcCtx) blockByID(id int) *cfg.Block {
	for _, b := range fc.g.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}
