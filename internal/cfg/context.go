package cfg

import "github.com/keurnel/basicqbe/internal/ast"

// LoopContext, SelectContext, and TryContext form linked-list "stacks" via
// their Outer pointer, threaded through processStatementRange as ordinary
// parameters. The builder never keeps a mutable builder-level stack for
// these — context threading through recursion is the design decision that
// makes arbitrary nesting correct (§4.1).

// LoopContext names the header/exit pair EXIT and the implicit back-edge
// target for the nearest enclosing FOR/WHILE/REPEAT/DO.
type LoopContext struct {
	HeaderID int
	ExitID   int
	Kind     ast.ExitKind
	Outer    *LoopContext
}

// findLoop scans outward for the nearest LoopContext matching kind; if none
// matches, it falls back to the nearest LoopContext of any kind, matching
// the dialect's permissive EXIT-from-any-compatible-construct rule.
func findLoop(l *LoopContext, kind ast.ExitKind) *LoopContext {
	for c := l; c != nil; c = c.Outer {
		if c.Kind == kind {
			return c
		}
	}
	return l
}

// SelectContext names the exit (merge) block of the nearest enclosing
// SELECT CASE.
type SelectContext struct {
	ExitID int
	Outer  *SelectContext
}

// TryContext names the exception-dispatch block of the nearest enclosing
// TRY body. CATCH and FINALLY bodies are built with the OUTER TryContext
// (the one in effect before the TRY started), not this one — a THROW
// inside a CATCH propagates past its own TRY to the next enclosing one,
// never back into itself (§4.1).
type TryContext struct {
	DispatchID int
	Outer      *TryContext
}

// SubroutineContext names the enclosing procedure (or "" for the main
// program), threaded so RETURN and FUNCTION-name assignment can be told
// apart from an ordinary GOSUB/variable without a symbol-table lookup at
// every step.
type SubroutineContext struct {
	ProcName string
	Outer    *SubroutineContext
}
