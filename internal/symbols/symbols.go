// Package symbols implements the read-only SymbolTable the CFG builder and
// IL emitter consume (SPEC_FULL.md §3), and the SymbolMapper that turns
// BASIC names into stable IL identifiers (SPEC_FULL.md §4.4).
package symbols

import "github.com/keurnel/basicqbe/internal/types"

// Variable is a scalar variable declaration (VariableSymbol, §3).
type Variable struct {
	Name       string
	Descriptor types.Descriptor
}

// Array is an array declaration (ArraySymbol, §3). Bounds are parallel to
// Descriptor.Dims; LowerBounds[i]/UpperBounds[i] hold the resolved static
// bounds. A dimension is dynamic (Descriptor().Dims[i].Extent == -1) when
// UpperBounds[i] < LowerBounds[i]; the semantic analyser records a
// dimension declared without an upper bound with UpperBounds[i] == -1.
type Array struct {
	Name        string
	ElementType types.Descriptor
	LowerBounds []int
	UpperBounds []int
}

// Descriptor returns the array's full Descriptor (element type + AttrArray
// + the dimensions derived from LowerBounds/UpperBounds).
func (a *Array) Descriptor() types.Descriptor {
	dims := make([]types.Dimension, len(a.LowerBounds))
	for i := range a.LowerBounds {
		if a.UpperBounds[i] < a.LowerBounds[i] {
			dims[i] = types.Dimension{Extent: -1}
			continue
		}
		dims[i] = types.Dimension{Extent: a.UpperBounds[i] - a.LowerBounds[i] + 1}
	}
	d := types.Array(a.ElementType.Base, dims)
	if a.ElementType.Base == types.UserDefined {
		d.UDTID = a.ElementType.UDTID
	}
	return d
}

// Param is one SUB/FUNCTION parameter: name, type, and whether it is
// passed BYREF.
type Param struct {
	Name       string
	Descriptor types.Descriptor
	ByRef      bool
}

// Procedure is a user-defined SUB or FUNCTION (FunctionSymbol, §3).
type Procedure struct {
	Name       string
	IsSub      bool // true for SUB, false for FUNCTION.
	Params     []Param
	ReturnType types.Descriptor // Void for SUB.
	Locals     map[string]*Variable
	LocalArrays map[string]*Array
}

// Constant is a CONST declaration (ConstantSymbol, §3).
type Constant struct {
	Name       string
	Descriptor types.Descriptor
	IntValue   int64
	FloatValue float64
	StrValue   string
}

// LineNumberSymbol marks a line number that exists in the program and can be
// the target of GOTO/GOSUB/ON-GOTO/ON-GOSUB.
type LineNumberSymbol struct {
	Line int
}

// LabelSymbol marks a textual label (as opposed to a bare line number) that
// can be the target of GOTO/GOSUB.
type LabelSymbol struct {
	Name string
	Line int
}

// DataValue is one literal value flattened from a DATA statement.
type DataValue struct {
	Kind   types.BaseType // Integer64, Double, or StringASCII/StringUTF32.
	Int    int64
	Float  float64
	String string
}

// DataSegment is the ordered sequence of literal values accessible via
// READ, built by the semantic analyzer from every DATA statement in
// program order (§3).
type DataSegment []DataValue
