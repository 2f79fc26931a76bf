package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/keurnel/basicqbe/internal/cfg"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/emitter"
	"github.com/keurnel/basicqbe/internal/lexer"
	"github.com/keurnel/basicqbe/internal/parser"
	"github.com/keurnel/basicqbe/internal/preprocess"
	"github.com/keurnel/basicqbe/internal/semantic"
	"github.com/keurnel/basicqbe/internal/symbols"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:     "compile <source-file>",
	GroupID: "pipeline",
	Short:   "Compile a BASIC source file to QBE SSA IL",
	Long: `compile resolves INCLUDEs, lexes, parses, and semantically analyzes a
BASIC source file, builds its control-flow graph, and lowers it through
CFGEmitter/ASTEmitter into one QBE SSA IL text stream. It reports every
diag.Context entry collected along the way.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().IntVar(&compileOpts.ArrayBase, "array-base", -1, "override ARRAY_BASE (0 or 1)")
	compileCmd.Flags().StringVar(&compileOpts.StringMode, "string-mode", "", "override STRING_MODE (ASCII, UNICODE, AUTO)")
	compileCmd.Flags().BoolVar(&compileOpts.OptionExplicit, "option-explicit", false, "force OPTION EXPLICIT on")
	compileCmd.Flags().StringVar(&compileOpts.BitwiseOrLogical, "bitwise-or-logical", "", "override AND/OR/XOR/NOT semantics (BITWISE or LOGICAL)")
	compileCmd.Flags().BoolVar(&compileOpts.EmitILOnly, "emit-il-only", false, "print only the generated IL, no diagnostics")
	compileCmd.Flags().StringVarP(&compileOpts.OutputPath, "output", "o", "", "write output to this path instead of stdout")
}

// cliOptions mirrors SPEC_FULL.md §6's CompilerOptions surface, plus the
// sentinel zero values ("" or -1) that mean "leave the source's own OPTION
// statements, or the documented default, in place."
type cliOptions struct {
	ArrayBase        int
	StringMode       string
	OptionExplicit   bool
	BitwiseOrLogical string
	EmitILOnly       bool
	OutputPath       string
}

var compileOpts cliOptions

func runCompile(cmd *cobra.Command, args []string) error {
	path := args[0]
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("reading source file: %w", err)
	}

	expanded, err := preprocess.Expand(absPath, string(raw))
	if err != nil {
		return fmt.Errorf("preprocessing: %w", err)
	}

	ctx := diag.New(absPath)
	ctx.SetPhase("lexing")
	tokens := lexer.Tokens(expanded.Source)

	ctx.SetPhase("parsing")
	prog := parser.Parse(tokens, ctx)
	if ctx.HasErrors() {
		return reportAndFail(cmd, ctx)
	}

	table := semantic.Analyze(prog, ctx)
	applyCLIOverrides(table)
	if ctx.HasErrors() {
		return reportAndFail(cmd, ctx)
	}

	program := cfg.Build(prog, table, ctx)
	if ctx.HasErrors() {
		return reportAndFail(cmd, ctx)
	}

	out := os.Stdout
	if compileOpts.OutputPath != "" {
		f, err := os.Create(compileOpts.OutputPath)
		if err != nil {
			return fmt.Errorf("opening output path: %w", err)
		}
		defer f.Close()
		out = f
	}

	if !compileOpts.EmitILOnly {
		for _, e := range ctx.Entries() {
			fmt.Fprintln(cmd.ErrOrStderr(), e.String())
		}
	}

	ctx.SetPhase("emitting")
	il := emitter.New(table, ctx).Emit(program)
	if ctx.HasErrors() {
		return reportAndFail(cmd, ctx)
	}
	fmt.Fprint(out, il)
	return nil
}

// applyCLIOverrides applies explicitly-set CLI flags over the options the
// source's own OPTION statements (or their documented defaults) produced.
// An explicit flag wins; an unset flag (sentinel "" or -1) leaves the
// source's declaration alone.
func applyCLIOverrides(table *symbols.Table) {
	if compileOpts.ArrayBase == 0 || compileOpts.ArrayBase == 1 {
		table.Options.ArrayBase = compileOpts.ArrayBase
	}
	switch compileOpts.StringMode {
	case "ASCII":
		table.Options.StringMode = symbols.StringModeASCII
	case "UNICODE":
		table.Options.StringMode = symbols.StringModeUTF32
	case "AUTO":
		table.Options.StringMode = symbols.StringModeAuto
	}
	if compileOpts.OptionExplicit {
		table.Options.OptionExplicit = true
	}
	switch compileOpts.BitwiseOrLogical {
	case "BITWISE":
		table.Options.BitwiseOrLogical = true
	case "LOGICAL":
		table.Options.BitwiseOrLogical = false
	}
}

func reportAndFail(cmd *cobra.Command, ctx *diag.Context) error {
	for _, e := range ctx.Entries() {
		fmt.Fprintln(cmd.ErrOrStderr(), e.String())
	}
	return fmt.Errorf("compilation failed with %d error(s)", len(ctx.Errors()))
}
