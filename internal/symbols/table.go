package symbols

import "github.com/keurnel/basicqbe/internal/types"

// Table is the SymbolTable from SPEC_FULL.md §3: read-only to the core once
// semantic analysis (internal/semantic) has built it. The zero value is not
// meant to be used directly — construct with NewTable.
type Table struct {
	Globals      map[string]*Variable
	GlobalArrays map[string]*Array
	Procedures   map[string]*Procedure
	Types        map[string]*types.RecordType
	TypesByID    map[int]*types.RecordType
	Constants    map[string]*Constant
	LineNumbers  map[int]*LineNumberSymbol
	Labels       map[string]*LabelSymbol
	Data         DataSegment
	Options      Options
}

// NewTable returns an empty, fully initialised Table. It is infallible.
func NewTable() *Table {
	return &Table{
		Globals:      make(map[string]*Variable),
		GlobalArrays: make(map[string]*Array),
		Procedures:   make(map[string]*Procedure),
		Types:        make(map[string]*types.RecordType),
		TypesByID:    make(map[int]*types.RecordType),
		Constants:    make(map[string]*Constant),
		LineNumbers:  make(map[int]*LineNumberSymbol),
		Labels:       make(map[string]*LabelSymbol),
		Data:         make(DataSegment, 0),
		Options:      DefaultOptions(),
	}
}

// ResolvedKind tags what a name resolved to, for the emitter and mapper.
type ResolvedKind int

const (
	ResolvedNone ResolvedKind = iota
	ResolvedParam
	ResolvedLocal
	ResolvedLocalArray
	ResolvedGlobal
	ResolvedGlobalArray
	ResolvedConstant
)

// Resolved is the result of Table.Resolve.
type Resolved struct {
	Kind     ResolvedKind
	Variable *Variable
	Array    *Array
	Param    *Param
	Constant *Constant
}

// Resolve looks up an unqualified identifier the way SPEC_FULL.md §4.4
// requires: parameter of the enclosing procedure, then local of the
// enclosing procedure, then shared/global, then a named constant. This
// order must never be inverted — checking globals before locals is a real
// historical bug (a global of the same name would shadow a parameter and
// the emitter would read the wrong SSA slot). procName == "" means "at
// global/main scope"; no procedure frame is consulted.
func (t *Table) Resolve(procName, name string) Resolved {
	if procName != "" {
		if proc, ok := t.Procedures[procName]; ok {
			for i := range proc.Params {
				if proc.Params[i].Name == name {
					return Resolved{Kind: ResolvedParam, Param: &proc.Params[i]}
				}
			}
			if v, ok := proc.Locals[name]; ok {
				return Resolved{Kind: ResolvedLocal, Variable: v}
			}
			if a, ok := proc.LocalArrays[name]; ok {
				return Resolved{Kind: ResolvedLocalArray, Array: a}
			}
		}
	}
	if v, ok := t.Globals[name]; ok {
		return Resolved{Kind: ResolvedGlobal, Variable: v}
	}
	if a, ok := t.GlobalArrays[name]; ok {
		return Resolved{Kind: ResolvedGlobalArray, Array: a}
	}
	if c, ok := t.Constants[name]; ok {
		return Resolved{Kind: ResolvedConstant, Constant: c}
	}
	return Resolved{Kind: ResolvedNone}
}

// DefineProcedure registers a new, empty Procedure frame for name. It is a
// no-op (returning the existing frame) if one is already registered, so
// callers may call it idempotently while streaming statements.
func (t *Table) DefineProcedure(name string, isSub bool, returnType types.Descriptor) *Procedure {
	if p, ok := t.Procedures[name]; ok {
		return p
	}
	p := &Procedure{
		Name:        name,
		IsSub:       isSub,
		ReturnType:  returnType,
		Locals:      make(map[string]*Variable),
		LocalArrays: make(map[string]*Array),
	}
	t.Procedures[name] = p
	return p
}
