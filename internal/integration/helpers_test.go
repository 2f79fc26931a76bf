// Package integration drives the full preprocess→lexer→parser→semantic→
// cfg→emitter pipeline against literal BASIC source, per SPEC_FULL.md §8's
// S1-S6 end-to-end scenarios and the P7-P9 IL-level invariants. Since no Go
// toolchain or QBE binary runs in this environment, every assertion here is
// a structural pattern check against the emitted IL text, not an execution
// of it — the "small behavioral IL-pattern checker" §8 calls for.
package integration

import (
	"testing"

	"github.com/keurnel/basicqbe/internal/cfg"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/emitter"
	"github.com/keurnel/basicqbe/internal/lexer"
	"github.com/keurnel/basicqbe/internal/parser"
	"github.com/keurnel/basicqbe/internal/semantic"
	"github.com/keurnel/basicqbe/internal/symbols"
)

// compile runs src through the whole pipeline and returns the emitted IL
// text, failing the test on any diagnostic collected along the way.
func compile(t *testing.T, src string) string {
	t.Helper()
	il, ctx := compileAllowErrors(t, src)
	if ctx.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", ctx.Errors())
	}
	return il
}

// compileAllowErrors is compile without the error-free assertion, for tests
// that need the diag.Context itself.
func compileAllowErrors(t *testing.T, src string) (string, *diag.Context) {
	t.Helper()
	ctx := diag.New("integration.bas")
	tokens := lexer.Tokens(src)
	prog := parser.Parse(tokens, ctx)
	if ctx.HasErrors() {
		return "", ctx
	}
	table := semantic.Analyze(prog, ctx)
	if ctx.HasErrors() {
		return "", ctx
	}
	program := cfg.Build(prog, table, ctx)
	if ctx.HasErrors() {
		return "", ctx
	}
	il := emitter.New(table, ctx).Emit(program)
	return il, ctx
}

// compileWithTable is compile but also returns the symbols.Table and
// cfg.Program, for tests that need to cross-reference IL text against the
// symbol table's own naming (array bounds, procedure names).
func compileWithTable(t *testing.T, src string) (string, *symbols.Table, *cfg.Program) {
	t.Helper()
	ctx := diag.New("integration.bas")
	tokens := lexer.Tokens(src)
	prog := parser.Parse(tokens, ctx)
	if ctx.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", ctx.Errors())
	}
	table := semantic.Analyze(prog, ctx)
	if ctx.HasErrors() {
		t.Fatalf("unexpected semantic diagnostics: %+v", ctx.Errors())
	}
	program := cfg.Build(prog, table, ctx)
	if ctx.HasErrors() {
		t.Fatalf("unexpected cfg diagnostics: %+v", ctx.Errors())
	}
	il := emitter.New(table, ctx).Emit(program)
	if ctx.HasErrors() {
		t.Fatalf("unexpected emitter diagnostics: %+v", ctx.Errors())
	}
	return il, table, program
}

// reEmit runs a second, independent Emitter over the identical
// cfg.Program/symbols.Table pair an earlier compileWithTable call already
// produced, for P8's byte-identical-output-across-invocations check.
func reEmit(t *testing.T, table *symbols.Table, program *cfg.Program) string {
	t.Helper()
	ctx := diag.New("integration.bas")
	return emitter.New(table, ctx).Emit(program)
}
