// Package emitter implements the CFGEmitter/ASTEmitter core (SPEC_FULL.md
// §4.2): it lowers a cfg.Program plus the symbol table semantic analysis
// produced into one UTF-8 text stream of QBE SSA IL. It is the one package
// that calls into every other core package at once — internal/types,
// internal/symbols, internal/runtime, and internal/qbe — exactly the shape
// SPEC_FULL.md §2's dependency graph draws with CFGEmitter at the top.
package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/keurnel/basicqbe/internal/cfg"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/qbe"
	"github.com/keurnel/basicqbe/internal/runtime"
	"github.com/keurnel/basicqbe/internal/symbols"
	"github.com/keurnel/basicqbe/internal/types"
)

// Emitter holds everything shared read-only across every function body it
// emits: the symbol table, the type/name/runtime-call helpers, and the
// literal pool accumulated during the first collection sweep. One Emitter
// lowers exactly one Program.
type Emitter struct {
	table  *symbols.Table
	tmgr   *types.Manager
	mapper *symbols.Mapper
	lib    *runtime.Library
	ctx    *diag.Context

	strPool  []string
	strIndex map[string]int
	fltPool  []float64
	fltIndex map[float64]int
}

// New builds an Emitter over table. ctx receives a diag.Context entry for
// any condition the emitter cannot express as a hard compiler defect (a
// BASIC array declared with more dimensions than the runtime ABI's
// ArrayDescriptor can represent — see checkDimCount).
func New(table *symbols.Table, ctx *diag.Context) *Emitter {
	return &Emitter{
		table:    table,
		tmgr:     types.NewManager(table.TypesByID),
		mapper:   symbols.NewMapper(table),
		lib:      runtime.NewLibrary(),
		ctx:      ctx,
		strIndex: make(map[string]int),
		fltIndex: make(map[float64]int),
	}
}

// Emit lowers program into one QBE IL text stream: `type` records for every
// user-defined TYPE, `data` declarations for every global and the interned
// literal pool, then one `function` definition per procedure (main first,
// then every SUB/FUNCTION in a fixed, sorted order so the output is
// deterministic — SPEC_FULL.md §8 P8).
func (e *Emitter) Emit(program *cfg.Program) string {
	e.collectLiterals(program.Main)
	procNames := sortedProcedureNames(program.Procedures)
	for _, name := range procNames {
		e.collectLiterals(program.Procedures[name])
	}

	var out strings.Builder
	e.emitRecordTypes(&out)
	e.emitGlobals(&out)
	e.emitLiteralPool(&out)

	e.emitFunction(&out, "", program.Main)
	for _, name := range procNames {
		e.emitFunction(&out, name, program.Procedures[name])
	}
	return out.String()
}

func sortedProcedureNames(procs map[string]*cfg.Graph) []string {
	names := make([]string, 0, len(procs))
	for name := range procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// emitRecordTypes emits one `type $T = align 8 { ... }` record per
// user-defined TYPE, in TypeID order (assigned once by the semantic
// analyzer and stable thereafter).
func (e *Emitter) emitRecordTypes(out *strings.Builder) {
	ids := make([]int, 0, len(e.table.TypesByID))
	for id := range e.table.TypesByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		rt := e.table.TypesByID[id]
		fmt.Fprintf(out, "type $udt_%d = align 8 { ", id)
		fields := make([]string, len(rt.Fields))
		for i, f := range rt.Fields {
			fields[i] = string(e.tmgr.QBEType(f.Descriptor))
		}
		out.WriteString(strings.Join(fields, ", "))
		out.WriteString(" }\n")
	}
	if len(ids) > 0 {
		out.WriteString("\n")
	}
}

// emitGlobals emits one zero-initialized `data` declaration per global
// scalar and global array descriptor slot, in sorted name order. A global
// array's slot holds only the ArrayDescriptor pointer (null until a DIM
// statement executes and allocates the descriptor); the scalar backing
// store for the descriptor's own fields lives entirely on the runtime side.
func (e *Emitter) emitGlobals(out *strings.Builder) {
	for _, name := range sortedKeys(e.table.Globals) {
		v := e.table.Globals[name]
		tail := globalTail(e.mapper.Variable(name, v.Descriptor))
		qt := e.tmgr.QBEType(v.Descriptor)
		fmt.Fprintf(out, "data $%s = { %s 0 }\n", tail, qt)
	}
	for _, name := range sortedKeys(e.table.GlobalArrays) {
		a := e.table.GlobalArrays[name]
		tail := globalTail(e.mapper.Array(name, a.ElementType))
		fmt.Fprintf(out, "data $%s = { l 0 }\n", tail)
	}
	if len(e.table.Globals) > 0 || len(e.table.GlobalArrays) > 0 {
		out.WriteString("\n")
	}
}

// emitLiteralPool emits one `data` declaration per interned string/float
// literal. String literals are NUL-terminated byte blobs; the ASCII/UTF-32
// distinction a DimStmt's STRING variable carries is a runtime encoding
// concern (string_concat auto-promotes), not something the literal pool
// itself needs to track — a literal's bytes are whatever the source wrote.
func (e *Emitter) emitLiteralPool(out *strings.Builder) {
	out.WriteString("data $sep_tab = { b \"\\t\", b 0 }\n")
	for i, s := range e.strPool {
		fmt.Fprintf(out, "data $s.%d = { b %s, b 0 }\n", i, qbeStringLiteral(s))
	}
	for i, f := range e.fltPool {
		fmt.Fprintf(out, "data $fp.%d = { d %s }\n", i, formatFloatLiteral(f))
	}
	if len(e.strPool) > 0 || len(e.fltPool) > 0 {
		out.WriteString("\n")
	}
}

// globalTail strips SymbolMapper's leading sigil ('%' for a variable/array
// identifier) to get the bare name used both as the per-function bound
// local alias and as the module-level `data` symbol's own name (in the `$`
// namespace, distinct from `%`, so the two never collide).
func globalTail(mangled string) string {
	return strings.TrimPrefix(mangled, "%")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// qbeStringLiteral renders s as a QBE data-section byte string, escaping
// backslashes, double quotes, and control characters QBE's string syntax
// cannot carry literally.
func qbeStringLiteral(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// formatFloatLiteral renders f as a plain-decimal data-section literal
// (distinct from qbe.ConstFloat's s_/d_ instruction-operand syntax).
func formatFloatLiteral(f float64) string {
	return fmt.Sprintf("%g", f)
}
