package runtime

import (
	"strings"
	"testing"

	"github.com/keurnel/basicqbe/internal/qbe"
	xgxerror "github.com/xgx-io/xgx-error"
)

func TestLibrary_ErrAndErlAreWordTyped(t *testing.T) {
	// §9 Q4: a misclassification of ERR()/ERL() to `l` produces ill-typed
	// IL the backend rejects. Guard the declared signatures directly.
	lib := NewLibrary()

	errSig, ok := lib.Signature("basic_err")
	if !ok || errSig.Result != qbe.Word {
		t.Fatalf("basic_err must return w, got %+v (ok=%v)", errSig, ok)
	}
	erlSig, ok := lib.Signature("basic_erl")
	if !ok || erlSig.Result != qbe.Word {
		t.Fatalf("basic_erl must return w, got %+v (ok=%v)", erlSig, ok)
	}
}

func TestLibrary_ThrowAndRethrowAreNoReturn(t *testing.T) {
	lib := NewLibrary()
	throwSig, _ := lib.Signature("basic_throw")
	rethrowSig, _ := lib.Signature("basic_rethrow")
	if !throwSig.NoReturn || !rethrowSig.NoReturn {
		t.Fatal("basic_throw and basic_rethrow must be declared NoReturn")
	}
}

func TestLibrary_PrintIntEmitsCall(t *testing.T) {
	lib := NewLibrary()
	b := qbe.NewBuilder()
	lib.PrintInt(b, qbe.ConstInt(qbe.Word, 42))

	if !strings.Contains(b.String(), "call $basic_print_int(w 42)") {
		t.Errorf("unexpected IL: %q", b.String())
	}
}

func TestLibrary_ArrayElementPointerUsesWordIndices(t *testing.T) {
	lib := NewLibrary()
	b := qbe.NewBuilder()
	desc := qbe.Value{Name: "%arr_A_i32", Type: qbe.Long}
	idx := qbe.ConstInt(qbe.Word, 3)
	lib.ArrayElementPointer(b, desc, []qbe.Value{idx})

	if !strings.Contains(b.String(), "call $array_element_ptr(l %arr_A_i32, w 3)") {
		t.Errorf("unexpected IL: %q", b.String())
	}
}

func TestLibrary_UnknownSignaturePanicsAsDefect(t *testing.T) {
	lib := NewLibrary()
	b := qbe.NewBuilder()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic calling an undeclared runtime function")
		}
		xe, ok := r.(xgxerror.Error)
		if !ok {
			t.Fatalf("expected an xgxerror.Error panic value, got %T", r)
		}
		if xe.CodeVal() != xgxerror.CodeDefect {
			t.Errorf("expected CodeDefect, got %q", xe.CodeVal())
		}
	}()
	lib.call(b, "basic_does_not_exist")
}

func TestArrayDescriptorOffsets_ElementSizeNotLowerBound2(t *testing.T) {
	if ArrayElementSizeOffset == ArrayLowerBound2Offset {
		t.Fatal("ArrayElementSizeOffset must not alias ArrayLowerBound2Offset")
	}
	if ArrayElementSizeOffset != 40 {
		t.Errorf("ArrayElementSizeOffset = %d, want 40", ArrayElementSizeOffset)
	}
}
