package types

import "fmt"

// QBEType is one of the four QBE base-type letters the emitter ever needs:
// w (word/32-bit int), l (long/64-bit int or pointer), s (single), d
// (double).
type QBEType string

const (
	QBEWord   QBEType = "w"
	QBELong   QBEType = "l"
	QBESingle QBEType = "s"
	QBEDouble QBEType = "d"
)

// Manager answers type queries for the emitter: QBE-type mapping,
// promotion, coercion sequences, and byte sizes. It holds a read-only
// reference to the program's record types (for field/size lookups) and has
// no other state — it is safe to share across all functions in a program.
type Manager struct {
	records map[int]*RecordType
}

// NewManager creates a Manager over the given record-type table, keyed by
// TypeID. A nil map is treated as empty.
func NewManager(records map[int]*RecordType) *Manager {
	if records == nil {
		records = make(map[int]*RecordType)
	}
	return &Manager{records: records}
}

// RecordType returns the record type registered under udtID, or nil.
func (m *Manager) RecordType(udtID int) *RecordType {
	return m.records[udtID]
}

// QBEType maps a BaseType to its QBE type-letter per SPEC_FULL.md §4.3:
// integer32→w, integer64→l, single→s, double→d, strings/pointers/UDTs→l.
func (m *Manager) QBEType(d Descriptor) QBEType {
	if d.IsArray() || d.Attrs.Has(AttrPointer) {
		return QBELong
	}
	switch d.Base {
	case Integer32:
		return QBEWord
	case Integer64:
		return QBELong
	case Single:
		return QBESingle
	case Double:
		return QBEDouble
	case StringASCII, StringUTF32, UserDefined:
		return QBELong
	default:
		return QBEWord
	}
}

// SizeOf returns the in-memory byte size of a scalar, array-descriptor
// pointer, or record-pointer type. Arrays and UDTs are always referenced
// through an 8-byte pointer (the ArrayDescriptor / record address); only a
// RecordType's own Size() computes the size of the bytes it points to.
func (m *Manager) SizeOf(d Descriptor) int {
	if d.IsArray() {
		return 8
	}
	switch d.Base {
	case Integer32, Single:
		return 4
	case Integer64, Double, StringASCII, StringUTF32, UserDefined:
		return 8
	default:
		return 8
	}
}

// rank implements the numeric promotion lattice integer32 ≤ integer64 ≤
// single ≤ double from SPEC_FULL.md §4.3. Higher rank wins promotion.
func rank(b BaseType) int {
	switch b {
	case Integer32:
		return 0
	case Integer64:
		return 1
	case Single:
		return 2
	case Double:
		return 3
	default:
		return -1
	}
}

// Promote returns the promoted BaseType for a binary operation between two
// numeric operands, or an error if either operand is not numeric or the
// two bases are on different lattices (numeric vs. string).
func (m *Manager) Promote(a, b BaseType) (BaseType, error) {
	if a.IsString() && b.IsString() {
		if a == StringUTF32 || b == StringUTF32 {
			return StringUTF32, nil
		}
		return StringASCII, nil
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return Void, fmt.Errorf("types: cannot promote %s and %s: not both numeric or both string", a, b)
	}
	if rank(a) >= rank(b) {
		return a, nil
	}
	return b, nil
}

// ConversionOp returns the QBE instruction mnemonic needed to convert a
// value of type `from` to type `to`, or "" if no conversion is needed
// (identical types). Returns an error for any attempted conversion across
// the string/numeric boundary — those must be explicit in BASIC source
// (e.g. via STR$/VAL), never implicit, per SPEC_FULL.md §4.3.
func (m *Manager) ConversionOp(from, to BaseType) (string, error) {
	if from == to {
		return "", nil
	}
	if from.IsString() != to.IsString() {
		return "", fmt.Errorf("types: illegal implicit conversion between %s and %s across the string/numeric boundary", from, to)
	}
	if from.IsString() && to.IsString() {
		// ASCII <-> UTF-32 conversion is a runtime concern (promotion on
		// concat), not a QBE-level numeric conversion.
		return "", nil
	}

	switch {
	case from == Integer32 && to == Integer64:
		return "extsw", nil
	case from == Integer64 && to == Integer32:
		return "copy", nil // truncation by register width; no QBE op needed for a downward word view
	case from == Integer32 && to == Single:
		return "swtof", nil
	case from == Integer32 && to == Double:
		return "swtof", nil
	case from == Integer64 && to == Single:
		return "sltof", nil
	case from == Integer64 && to == Double:
		return "sltof", nil
	case from == Single && to == Integer32, from == Single && to == Integer64:
		return "stosi", nil
	case from == Double && to == Integer32, from == Double && to == Integer64:
		return "dtosi", nil
	case from == Single && to == Double:
		return "exts", nil
	case from == Double && to == Single:
		return "truncd", nil
	default:
		return "", fmt.Errorf("types: no conversion path from %s to %s", from, to)
	}
}
