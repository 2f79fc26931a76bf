// Package runtime is a thin, table-driven mapping from high-level BASIC
// operations to calls into the external C runtime ABI: RuntimeLibrary from
// SPEC_FULL.md §4.5. The emitter never needs to know the implementation —
// only the call signatures — so this package declares them as data, the
// same way the teacher's architecture package declares one
// architecture.Instruction per x86_64 mnemonic instead of hand-writing
// encode logic at every call site.
package runtime

import "github.com/keurnel/basicqbe/internal/qbe"

// Signature describes one runtime entry point: its mangled C name, its
// parameter types in order, and its result (if any). NoReturn marks a call
// that never returns control to the caller (basic_throw, basic_rethrow) —
// the emitter must not emit a terminator after one.
type Signature struct {
	Name       string
	Params     []qbe.Type
	Result     qbe.Type
	HasResult  bool
	NoReturn   bool
}
