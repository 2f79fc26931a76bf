// Package semantic builds the read-only symbols.Table the CFG builder and
// emitter consume: name resolution, DATA-segment flattening, array-vs-call
// disambiguation, and structural validation ahead of CFG construction
// (adapted from the teacher's semantic.go Analyser/SemanticError idiom).
package semantic

import (
	"fmt"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/symbols"
)

// Analyser walks a parsed Program and produces its symbols.Table. A zero
// value is not meant to be used directly — construct with New.
type Analyser struct {
	ctx   *diag.Context
	table *symbols.Table
}

// New returns an Analyser recording diagnostics into ctx.
func New(ctx *diag.Context) *Analyser {
	return &Analyser{ctx: ctx, table: symbols.NewTable()}
}

// Analyze runs every pass over prog and returns the resulting Table. The
// caller should check ctx.HasErrors() before handing the Table to the CFG
// builder.
func Analyze(prog *ast.Program, ctx *diag.Context) *symbols.Table {
	a := New(ctx)
	ctx.SetPhase("semantic-analysis")

	a.collectOptions(prog.Main)
	a.collectDeclarations(prog)
	a.collectData(prog)
	a.collectLabels(prog)
	a.resolveCallAmbiguity(prog)

	return a.table
}

func (a *Analyser) errorf(line int, format string, args ...any) {
	a.ctx.Error(a.ctx.Loc(line, 0), fmt.Sprintf(format, args...))
}
