package types

import "testing"

func TestDescriptor_EqualityIgnoresDimensions(t *testing.T) {
	a := Array(Integer32, []Dimension{{Extent: 10}})
	b := Array(Integer32, []Dimension{{Extent: 20}, {Extent: 5}})

	if !a.Equal(b) {
		t.Fatal("expected descriptors to be equal ignoring dimensions")
	}

	c := Array(Integer64, []Dimension{{Extent: 10}})
	if a.Equal(c) {
		t.Fatal("expected descriptors with different base types to differ")
	}
}

func TestManager_QBEType(t *testing.T) {
	m := NewManager(nil)
	cases := []struct {
		d    Descriptor
		want QBEType
	}{
		{Scalar(Integer32), QBEWord},
		{Scalar(Integer64), QBELong},
		{Scalar(Single), QBESingle},
		{Scalar(Double), QBEDouble},
		{Scalar(StringASCII), QBELong},
		{Scalar(StringUTF32), QBELong},
		{Record(1), QBELong},
		{Array(Integer32, nil), QBELong},
	}
	for _, c := range cases {
		if got := m.QBEType(c.d); got != c.want {
			t.Errorf("QBEType(%+v) = %s, want %s", c.d, got, c.want)
		}
	}
}

func TestManager_Promote(t *testing.T) {
	m := NewManager(nil)

	got, err := m.Promote(Integer32, Double)
	if err != nil || got != Double {
		t.Errorf("Promote(integer32, double) = %v, %v; want double, nil", got, err)
	}

	got, err = m.Promote(StringASCII, StringUTF32)
	if err != nil || got != StringUTF32 {
		t.Errorf("Promote(ascii, utf32) = %v, %v; want utf32, nil", got, err)
	}

	if _, err := m.Promote(Integer32, StringASCII); err == nil {
		t.Error("expected error promoting across numeric/string boundary")
	}
}

func TestManager_ConversionOp(t *testing.T) {
	m := NewManager(nil)

	op, err := m.ConversionOp(Integer32, Integer64)
	if err != nil || op != "extsw" {
		t.Errorf("ConversionOp(i32,i64) = %q, %v; want extsw, nil", op, err)
	}

	op, err = m.ConversionOp(Double, Integer32)
	if err != nil || op != "dtosi" {
		t.Errorf("ConversionOp(double,i32) = %q, %v; want dtosi, nil", op, err)
	}

	if _, err := m.ConversionOp(Integer32, StringASCII); err == nil {
		t.Error("expected error converting integer to string implicitly")
	}

	op, err = m.ConversionOp(Integer32, Integer32)
	if err != nil || op != "" {
		t.Errorf("ConversionOp(i32,i32) = %q, %v; want \"\", nil", op, err)
	}
}

func TestRecordType_SizeUsesLastFieldOffset(t *testing.T) {
	m := NewManager(nil)
	rt := &RecordType{
		Name:   "Point",
		TypeID: 1,
		Fields: []Field{
			{Name: "X", Descriptor: Scalar(Integer32), ByteOffset: 0},
			{Name: "Y", Descriptor: Scalar(Integer32), ByteOffset: 4},
		},
	}
	if got := rt.Size(m); got != 8 {
		t.Errorf("Size() = %d, want 8", got)
	}
}
