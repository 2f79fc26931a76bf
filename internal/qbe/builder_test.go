package qbe

import "testing"

func TestAllocTemp_MonotonicAndNeverReused(t *testing.T) {
	b := NewBuilder()
	t1 := b.AllocTemp(Word)
	t2 := b.AllocTemp(Word)
	if t1.Name == t2.Name {
		t.Fatalf("expected distinct temp names, got %q twice", t1.Name)
	}
}

func TestBinary_EmitsExpectedLine(t *testing.T) {
	b := NewBuilder()
	lhs := ConstInt(Word, 3)
	rhs := ConstInt(Word, 4)
	result := b.Binary("add", Word, lhs, rhs)

	lines := b.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	want := result.Name + " =w add 3, 4"
	if lines[0] != want {
		t.Errorf("got %q, want %q", lines[0], want)
	}
}

func TestConvert_EmptyOpIsIdentity(t *testing.T) {
	b := NewBuilder()
	v := ConstInt(Word, 5)
	result := b.Convert("", Word, v)
	if result != v {
		t.Errorf("expected identity conversion to return the same value, got %+v", result)
	}
	if len(b.Lines()) != 0 {
		t.Errorf("expected no lines emitted for identity conversion, got %v", b.Lines())
	}
}

func TestConvert_CopyNarrowsToWord(t *testing.T) {
	b := NewBuilder()
	v := Value{Name: "%t1", Type: Long}
	result := b.Convert("copy", Word, v)
	if result.Type != Word {
		t.Errorf("expected narrowed type word, got %s", result.Type)
	}
}

func TestBranch_EmitsJnz(t *testing.T) {
	b := NewBuilder()
	cond := Value{Name: "%cond", Type: Word}
	b.Branch(cond, "then", "else")
	want := "jnz %cond, @then, @else"
	if b.Lines()[0] != want {
		t.Errorf("got %q, want %q", b.Lines()[0], want)
	}
}

func TestCall_VoidAndValued(t *testing.T) {
	b := NewBuilder()
	b.Call("", false, "$basic_print_newline", nil)
	if b.Lines()[0] != "call $basic_print_newline()" {
		t.Errorf("got %q", b.Lines()[0])
	}

	b2 := NewBuilder()
	arg := Arg{Type: Word, Value: ConstInt(Word, 7)}
	result := b2.Call(Word, true, "$basic_input_int", nil)
	_ = arg
	if result.Type != Word {
		t.Errorf("expected word-typed result")
	}
}

func TestReturn_VoidVsValue(t *testing.T) {
	b := NewBuilder()
	b.Return(Value{})
	if b.Lines()[0] != "ret" {
		t.Errorf("got %q, want ret", b.Lines()[0])
	}

	b2 := NewBuilder()
	b2.Return(ConstInt(Word, 1))
	if b2.Lines()[0] != "ret 1" {
		t.Errorf("got %q, want ret 1", b2.Lines()[0])
	}
}

func TestMakeLabel_Distinct(t *testing.T) {
	b := NewBuilder()
	l1 := b.MakeLabel("while")
	l2 := b.MakeLabel("while")
	if l1 == l2 {
		t.Fatalf("expected distinct labels, got %q twice", l1)
	}
}
