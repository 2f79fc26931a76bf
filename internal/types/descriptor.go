// Package types implements the type-and-symbol discipline shared by the CFG
// builder, the IL emitter, and the exception lowering: a descriptor-based
// type model distinguishing scalars, arrays, and user-defined records, with
// promotion rules and QBE-type mapping.
package types

// BaseType enumerates the primitive classification of a TypeDescriptor.
type BaseType int

const (
	Void BaseType = iota
	Integer32
	Integer64
	Single
	Double
	StringASCII
	StringUTF32
	UserDefined
)

// String renders a BaseType for diagnostics and name mangling.
func (b BaseType) String() string {
	switch b {
	case Void:
		return "void"
	case Integer32:
		return "integer32"
	case Integer64:
		return "integer64"
	case Single:
		return "single"
	case Double:
		return "double"
	case StringASCII:
		return "string-ascii"
	case StringUTF32:
		return "string-utf32"
	case UserDefined:
		return "user-defined"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether b participates in the numeric promotion lattice.
func (b BaseType) IsNumeric() bool {
	switch b {
	case Integer32, Integer64, Single, Double:
		return true
	default:
		return false
	}
}

// IsString reports whether b is one of the two string encodings.
func (b BaseType) IsString() bool {
	return b == StringASCII || b == StringUTF32
}

// Attribute is a single bit in a TypeDescriptor's attribute bitset.
type Attribute uint8

const (
	AttrArray Attribute = 1 << iota
	AttrByRef
	AttrConst
	AttrPointer
)

// Has reports whether the bitset contains attr.
func (a Attribute) Has(attr Attribute) bool { return a&attr != 0 }

// Dimension describes one array axis: Extent is the declared size, or -1 for
// a dynamic (runtime-resized) dimension.
type Dimension struct {
	Extent int
}

// IsDynamic reports whether this dimension is resolved at runtime.
func (d Dimension) IsDynamic() bool { return d.Extent == -1 }

// Descriptor is the composable compile-time type tag used throughout the
// core: TypeDescriptor from SPEC_FULL.md §3. Equality is structural over
// (Base, Attrs, UDTID) only — Dims is metadata, not part of type identity,
// per spec.
type Descriptor struct {
	Base  BaseType
	Attrs Attribute
	UDTID int // Unique positive integer; nonzero iff Base == UserDefined.
	Dims  []Dimension
}

// Equal implements the structural-equality rule from SPEC_FULL.md §3:
// dimensions are metadata and are not compared.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.Base == other.Base && d.Attrs == other.Attrs && d.UDTID == other.UDTID
}

// IsArray reports whether this descriptor is an array type.
func (d Descriptor) IsArray() bool { return d.Attrs.Has(AttrArray) }

// Scalar constructs a non-array, non-UDT descriptor for base.
func Scalar(base BaseType) Descriptor {
	return Descriptor{Base: base}
}

// Array constructs an array descriptor over an element base type with the
// given dimensions.
func Array(base BaseType, dims []Dimension) Descriptor {
	return Descriptor{Base: base, Attrs: AttrArray, Dims: dims}
}

// Record constructs a descriptor referring to user-defined type udtID.
func Record(udtID int) Descriptor {
	return Descriptor{Base: UserDefined, UDTID: udtID}
}

// ByRef returns a copy of d with AttrByRef set — used for SUB/FUNCTION
// parameters passed by reference.
func (d Descriptor) ByRef() Descriptor {
	d.Attrs |= AttrByRef
	return d
}
