package runtime

import (
	"github.com/keurnel/basicqbe/internal/qbe"
	xgxerror "github.com/xgx-io/xgx-error"
)

// ArrayDescriptor byte offsets, fixed by the runtime ABI (SPEC_FULL.md
// §4.5). Any change here breaks the external runtime; the emitter MUST use
// these constants rather than hand-written integer literals, the exact
// discipline that would have prevented the historical bug where
// elementSize was read from offset 24 (lowerBound2) instead of 40.
const (
	ArrayDataPointerOffset  = 0
	ArrayLowerBound1Offset  = 8
	ArrayUpperBound1Offset  = 16
	ArrayLowerBound2Offset  = 24
	ArrayUpperBound2Offset  = 32
	ArrayElementSizeOffset  = 40
	ArrayDimensionsOffset   = 48
	ArrayTypeSuffixOffset   = 56
)

// Library is the RuntimeLibrary: a signature table plus typed helper
// methods so the emitter never hand-writes a call string. Library holds no
// mutable state; one instance is shared across every function in a
// program.
type Library struct {
	sigs map[string]Signature
}

// NewLibrary builds the Library with every runtime entry point declared in
// SPEC_FULL.md §4.5. ERR()/ERL() are declared with Result: qbe.Word — §9
// Q4 calls out a misclassification to qbe.Long as a real historical bug
// that produces ill-typed IL the backend rejects.
func NewLibrary() *Library {
	l := &Library{sigs: make(map[string]Signature)}
	for _, s := range []Signature{
		// I/O
		{Name: "basic_print_int", Params: []qbe.Type{qbe.Word}},
		{Name: "basic_print_double", Params: []qbe.Type{qbe.Double}},
		{Name: "basic_print_string", Params: []qbe.Type{qbe.Long}},
		{Name: "basic_print_newline"},
		{Name: "basic_input_int", Result: qbe.Word, HasResult: true},
		{Name: "basic_input_double", Result: qbe.Double, HasResult: true},
		{Name: "basic_input_string", Result: qbe.Long, HasResult: true},

		// Strings
		{Name: "string_concat", Params: []qbe.Type{qbe.Long, qbe.Long}, Result: qbe.Long, HasResult: true},
		{Name: "string_compare", Params: []qbe.Type{qbe.Long, qbe.Long}, Result: qbe.Word, HasResult: true},
		{Name: "string_len", Params: []qbe.Type{qbe.Long}, Result: qbe.Word, HasResult: true},
		{Name: "string_substr", Params: []qbe.Type{qbe.Long, qbe.Word, qbe.Word}, Result: qbe.Long, HasResult: true},
		{Name: "string_release", Params: []qbe.Type{qbe.Long}},

		// Arrays
		{Name: "array_descriptor_alloc", Result: qbe.Long, HasResult: true},
		{Name: "array_descriptor_erase", Params: []qbe.Type{qbe.Long}},
		{Name: "array_get_w", Result: qbe.Word, HasResult: true},
		{Name: "array_get_l", Result: qbe.Long, HasResult: true},
		{Name: "array_get_s", Result: qbe.Single, HasResult: true},
		{Name: "array_get_d", Result: qbe.Double, HasResult: true},
		{Name: "array_set_w"},
		{Name: "array_set_l"},
		{Name: "array_set_s"},
		{Name: "array_set_d"},
		{Name: "array_element_ptr", Result: qbe.Long, HasResult: true},

		// Exceptions
		{Name: "basic_exception_push", Params: []qbe.Type{qbe.Long}},
		{Name: "basic_exception_pop"},
		{Name: "basic_exception_save", Result: qbe.Word, HasResult: true},
		{Name: "basic_throw", Params: []qbe.Type{qbe.Word, qbe.Word}, NoReturn: true},
		{Name: "basic_err", Result: qbe.Word, HasResult: true},
		{Name: "basic_erl", Result: qbe.Word, HasResult: true},
		{Name: "basic_rethrow", NoReturn: true},

		// Math
		{Name: "basic_abs_d", Params: []qbe.Type{qbe.Double}, Result: qbe.Double, HasResult: true},
		{Name: "basic_sqrt", Params: []qbe.Type{qbe.Double}, Result: qbe.Double, HasResult: true},

		// Data segment
		{Name: "basic_read_w", Result: qbe.Word, HasResult: true},
		{Name: "basic_read_d", Result: qbe.Double, HasResult: true},
		{Name: "basic_read_l", Result: qbe.Long, HasResult: true},
		{Name: "basic_restore", Params: []qbe.Type{qbe.Word}},
		{Name: "basic_restore_label", Params: []qbe.Type{qbe.Long}},
	} {
		l.sigs[s.Name] = s
	}
	l.assertErrErlWordTyped()
	return l
}

// assertErrErlWordTyped guards the §9 Q4 historical bug at construction
// time rather than only in tests: ERR()/ERL() MUST come back qbe.Word, not
// qbe.Long, or every downstream comparison against them is silently
// ill-typed. A failure here is a compiler defect, not a malformed BASIC
// program, so it panics with an xgxerror.Defect rather than recording a
// diag.Context entry.
func (l *Library) assertErrErlWordTyped() {
	for _, name := range []string{"basic_err", "basic_erl"} {
		sig, ok := l.sigs[name]
		if !ok || sig.Result != qbe.Word {
			panic(xgxerror.Defect(nil).
				Ctx("runtime library misdeclared", "function", name, "result", sig.Result).
				WithStack())
		}
	}
}

// Signature returns the declared Signature for a runtime function name.
func (l *Library) Signature(name string) (Signature, bool) {
	s, ok := l.sigs[name]
	return s, ok
}

// call is the route every fixed-arity typed helper takes, so a mismatch
// between such a helper's hand-written arg list and the declared Signature
// panics loudly at emission time instead of producing silently ill-typed
// IL. ArrayElementPointer, ArrayGet and ArraySet take a variable number of
// indices and call b.Call directly; their arguments are not checked
// against the table.
func (l *Library) call(b *qbe.Builder, name string, args ...qbe.Value) qbe.Value {
	sig, ok := l.sigs[name]
	if !ok {
		panic(xgxerror.Defect(nil).Ctx("no such runtime signature", "name", name).WithStack())
	}
	if len(args) != len(sig.Params) {
		panic(xgxerror.Defect(nil).
			Ctx("arity mismatch calling runtime function", "name", name, "want", len(sig.Params), "got", len(args)).
			WithStack())
	}
	qargs := make([]qbe.Arg, len(args))
	for i, a := range args {
		qargs[i] = qbe.Arg{Type: sig.Params[i], Value: a}
	}
	return b.Call(sig.Result, sig.HasResult, "$"+sig.Name, qargs)
}

// --- I/O ---

func (l *Library) PrintInt(b *qbe.Builder, v qbe.Value) { l.call(b, "basic_print_int", v) }
func (l *Library) PrintDouble(b *qbe.Builder, v qbe.Value) { l.call(b, "basic_print_double", v) }
func (l *Library) PrintString(b *qbe.Builder, v qbe.Value) { l.call(b, "basic_print_string", v) }
func (l *Library) PrintNewline(b *qbe.Builder) { l.call(b, "basic_print_newline") }
func (l *Library) InputInt(b *qbe.Builder) qbe.Value { return l.call(b, "basic_input_int") }
func (l *Library) InputDouble(b *qbe.Builder) qbe.Value { return l.call(b, "basic_input_double") }
func (l *Library) InputString(b *qbe.Builder) qbe.Value { return l.call(b, "basic_input_string") }

// --- Strings ---

func (l *Library) StringConcat(b *qbe.Builder, a, c qbe.Value) qbe.Value {
	return l.call(b, "string_concat", a, c)
}
func (l *Library) StringCompare(b *qbe.Builder, a, c qbe.Value) qbe.Value {
	return l.call(b, "string_compare", a, c)
}
func (l *Library) StringLen(b *qbe.Builder, s qbe.Value) qbe.Value {
	return l.call(b, "string_len", s)
}
func (l *Library) StringSubstr(b *qbe.Builder, s, start, length qbe.Value) qbe.Value {
	return l.call(b, "string_substr", s, start, length)
}
func (l *Library) StringRelease(b *qbe.Builder, s qbe.Value) { l.call(b, "string_release", s) }

// --- Arrays ---

func (l *Library) ArrayDescriptorAlloc(b *qbe.Builder) qbe.Value {
	return l.call(b, "array_descriptor_alloc")
}
func (l *Library) ArrayDescriptorErase(b *qbe.Builder, desc qbe.Value) {
	l.call(b, "array_descriptor_erase", desc)
}

// ArrayElementPointer returns the address of one array element, given the
// descriptor pointer and the ordered index values (word-typed); the
// emitter then loads or stores the element at the correct QBE type.
func (l *Library) ArrayElementPointer(b *qbe.Builder, desc qbe.Value, indices []qbe.Value) qbe.Value {
	args := []qbe.Arg{{Type: qbe.Long, Value: desc}}
	for _, ix := range indices {
		args = append(args, qbe.Arg{Type: qbe.Word, Value: ix})
	}
	return b.Call(qbe.Long, true, "$array_element_ptr", args)
}

// ArrayGet emits a bounds-checked array_get_<type> call for the given QBE
// element type and returns the loaded element. Declared separately from
// array_element_ptr so a runtime that wants to fuse the bounds check and
// the load into one call can do so without the emitter caring.
func (l *Library) ArrayGet(b *qbe.Builder, elemType qbe.Type, desc qbe.Value, indices []qbe.Value) qbe.Value {
	args := []qbe.Arg{{Type: qbe.Long, Value: desc}}
	for _, ix := range indices {
		args = append(args, qbe.Arg{Type: qbe.Word, Value: ix})
	}
	return b.Call(elemType, true, "$array_get_"+string(elemType), args)
}

// ArraySet emits a bounds-checked array_set_<type> call storing val.
func (l *Library) ArraySet(b *qbe.Builder, elemType qbe.Type, desc qbe.Value, indices []qbe.Value, val qbe.Value) {
	args := []qbe.Arg{{Type: qbe.Long, Value: desc}}
	for _, ix := range indices {
		args = append(args, qbe.Arg{Type: qbe.Word, Value: ix})
	}
	args = append(args, qbe.Arg{Type: elemType, Value: val})
	b.Call("", false, "$array_set_"+string(elemType), args)
}

// --- Exceptions ---

func (l *Library) ExceptionPush(b *qbe.Builder, ctx qbe.Value) { l.call(b, "basic_exception_push", ctx) }
func (l *Library) ExceptionPop(b *qbe.Builder)                  { l.call(b, "basic_exception_pop") }

// ExceptionSave emits the save-state primitive call. It returns zero on the
// initial save and the error code on a later restore; SPEC_FULL.md §4.2
// requires the very next instruction to branch on this value with no
// intervening computation.
func (l *Library) ExceptionSave(b *qbe.Builder) qbe.Value { return l.call(b, "basic_exception_save") }

// Throw emits a noreturn call; the emitter must not emit a successor
// instruction afterward.
func (l *Library) Throw(b *qbe.Builder, code, line qbe.Value) { l.call(b, "basic_throw", code, line) }
func (l *Library) Rethrow(b *qbe.Builder)                      { l.call(b, "basic_rethrow") }
func (l *Library) Err(b *qbe.Builder) qbe.Value                { return l.call(b, "basic_err") }
func (l *Library) Erl(b *qbe.Builder) qbe.Value                { return l.call(b, "basic_erl") }

// --- Math ---

func (l *Library) AbsDouble(b *qbe.Builder, v qbe.Value) qbe.Value { return l.call(b, "basic_abs_d", v) }
func (l *Library) Sqrt(b *qbe.Builder, v qbe.Value) qbe.Value      { return l.call(b, "basic_sqrt", v) }

// --- Data segment ---

func (l *Library) ReadWord(b *qbe.Builder) qbe.Value   { return l.call(b, "basic_read_w") }
func (l *Library) ReadLong(b *qbe.Builder) qbe.Value   { return l.call(b, "basic_read_l") }
func (l *Library) ReadDouble(b *qbe.Builder) qbe.Value { return l.call(b, "basic_read_d") }
func (l *Library) Restore(b *qbe.Builder, line qbe.Value)        { l.call(b, "basic_restore", line) }
func (l *Library) RestoreLabel(b *qbe.Builder, label qbe.Value)  { l.call(b, "basic_restore_label", label) }
