package symbols

import (
	"testing"

	"github.com/keurnel/basicqbe/internal/types"
)

func TestMapper_SigilsProduceDistinctNames(t *testing.T) {
	m := NewMapper(NewTable())

	i := m.Variable("X", types.Scalar(types.Integer32))
	d := m.Variable("X", types.Scalar(types.Double))
	s := m.Variable("X", types.Scalar(types.StringASCII))

	if i == d || d == s || i == s {
		t.Errorf("expected distinct IL names for X%%, X#, X$; got %q, %q, %q", i, d, s)
	}
}

func TestMapper_ProcedureNamePrefix(t *testing.T) {
	m := NewMapper(NewTable())

	if got := m.ProcedureName("Add", false); got != "$Add" {
		t.Errorf("FUNCTION name = %q, want $Add", got)
	}
	if got := m.ProcedureName("Greet", true); got != "$sub_Greet" {
		t.Errorf("SUB name = %q, want $sub_Greet", got)
	}
}

func TestTable_ResolveOrder_ParamShadowsGlobal(t *testing.T) {
	table := NewTable()
	table.Globals["m"] = &Variable{Name: "m", Descriptor: types.Scalar(types.Integer32)}

	proc := table.DefineProcedure("Test", false, types.Scalar(types.Integer32))
	proc.Params = append(proc.Params, Param{Name: "m", Descriptor: types.Scalar(types.Integer32)})

	resolved := table.Resolve("Test", "m")
	if resolved.Kind != ResolvedParam {
		t.Fatalf("expected parameter m to shadow the global, got kind %v", resolved.Kind)
	}
}

func TestTable_ResolveOrder_LocalBeforeGlobal(t *testing.T) {
	table := NewTable()
	table.Globals["n"] = &Variable{Name: "n", Descriptor: types.Scalar(types.Integer32)}

	proc := table.DefineProcedure("Test", false, types.Scalar(types.Void))
	proc.Locals["n"] = &Variable{Name: "n", Descriptor: types.Scalar(types.Double)}

	resolved := table.Resolve("Test", "n")
	if resolved.Kind != ResolvedLocal {
		t.Fatalf("expected local n to shadow the global, got kind %v", resolved.Kind)
	}
}

func TestTable_ResolveOrder_FallsBackToGlobal(t *testing.T) {
	table := NewTable()
	table.Globals["g"] = &Variable{Name: "g", Descriptor: types.Scalar(types.Integer32)}

	resolved := table.Resolve("Test", "g")
	if resolved.Kind != ResolvedGlobal {
		t.Fatalf("expected fallback to global, got kind %v", resolved.Kind)
	}
}

func TestArray_DescriptorDynamicDimension(t *testing.T) {
	a := &Array{
		Name:        "Items",
		ElementType: types.Scalar(types.Integer32),
		LowerBounds: []int{0},
		UpperBounds: []int{-1}, // dynamic: upper < lower
	}
	d := a.Descriptor()
	if !d.IsArray() {
		t.Fatal("expected array descriptor")
	}
	if !d.Dims[0].IsDynamic() {
		t.Errorf("expected dynamic dimension, got %+v", d.Dims[0])
	}
}
