package symbols

import (
	"fmt"

	"github.com/keurnel/basicqbe/internal/types"
)

// Mapper is a pure function over a Table: SymbolMapper from SPEC_FULL.md
// §4.4. It produces stable IL identifiers from BASIC names. Mapper holds
// no mutable state of its own — scope() counters live in the emitter, not
// here — so one Mapper can be shared freely across every function in a
// program.
type Mapper struct {
	table *Table
}

// NewMapper creates a Mapper bound to table.
func NewMapper(table *Table) *Mapper {
	return &Mapper{table: table}
}

// suffix encodes the declared type and disambiguates sigil-only
// differences, per §4.4: `X%` vs `X#` vs `X$` are three distinct
// variables because their SUFFIX differs.
func suffix(d types.Descriptor) string {
	switch d.Base {
	case types.Integer32:
		return "i32"
	case types.Integer64:
		return "i64"
	case types.Single:
		return "sgl"
	case types.Double:
		return "dbl"
	case types.StringASCII:
		return "strA"
	case types.StringUTF32:
		return "strW"
	case types.UserDefined:
		return fmt.Sprintf("udt%d", d.UDTID)
	default:
		return "void"
	}
}

// Variable produces the IL identifier for a scalar variable:
// `%var_<name>_<SUFFIX>`.
func (m *Mapper) Variable(name string, d types.Descriptor) string {
	return fmt.Sprintf("%%var_%s_%s", name, suffix(d))
}

// Array produces the IL identifier for an array (the value is an
// ArrayDescriptor pointer): `%arr_<name>_<SUFFIX>`.
func (m *Mapper) Array(name string, elementType types.Descriptor) string {
	return fmt.Sprintf("%%arr_%s_%s", name, suffix(elementType))
}

// ProcedureName produces the IL identifier for a top-level procedure.
// SUBs get the `$sub_<name>` prefix; FUNCTIONs get plain `$<name>`. Every
// call site MUST go through this method (not reconstruct the prefix
// itself) so that a renaming of one side is never missed on the other —
// §9 Q3 flags a mismatch here as a real historical bug.
func (m *Mapper) ProcedureName(name string, isSub bool) string {
	if isSub {
		return fmt.Sprintf("$sub_%s", name)
	}
	return fmt.Sprintf("$%s", name)
}

// Label produces the IL identifier for a user-declared BASIC label.
func (m *Mapper) Label(name string) string {
	return fmt.Sprintf("@label_%s", name)
}

// Block produces the IL identifier for a CFG block by id.
func (m *Mapper) Block(id int) string {
	return fmt.Sprintf("@block_%d", id)
}

// ResolvedName returns the IL identifier for whatever name resolved to in
// procName's scope, following the same resolution order as Table.Resolve.
func (m *Mapper) ResolvedName(procName, name string) (string, types.Descriptor, error) {
	r := m.table.Resolve(procName, name)
	switch r.Kind {
	case ResolvedParam:
		d := r.Param.Descriptor
		if r.Param.ByRef {
			d = d.ByRef()
		}
		return m.Variable(r.Param.Name, d), d, nil
	case ResolvedLocal:
		return m.Variable(r.Variable.Name, r.Variable.Descriptor), r.Variable.Descriptor, nil
	case ResolvedLocalArray:
		d := r.Array.Descriptor()
		return m.Array(r.Array.Name, r.Array.ElementType), d, nil
	case ResolvedGlobal:
		return m.Variable(r.Variable.Name, r.Variable.Descriptor), r.Variable.Descriptor, nil
	case ResolvedGlobalArray:
		d := r.Array.Descriptor()
		return m.Array(r.Array.Name, r.Array.ElementType), d, nil
	case ResolvedConstant:
		return "", r.Constant.Descriptor, fmt.Errorf("symbols: %q is a constant; callers must inline its literal value, not look up an IL name", name)
	default:
		return "", types.Descriptor{}, fmt.Errorf("symbols: undefined identifier %q in scope %q", name, procName)
	}
}
