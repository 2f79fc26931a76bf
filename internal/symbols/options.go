package symbols

// StringMode selects how the compiler classifies string literals.
type StringMode int

const (
	StringModeASCII StringMode = iota
	StringModeUTF32
	StringModeAuto
)

// Options is CompilerOptions from SPEC_FULL.md §6: program-wide flags
// threaded from the CLI through semantic analysis to the emitter.
type Options struct {
	ArrayBase         int // 0 or 1.
	StringMode        StringMode
	OptionExplicit    bool
	BitwiseOrLogical  bool
	EmitILOnly        bool
	OutputPath        string
}

// DefaultOptions returns the language's documented defaults: ARRAY_BASE 0,
// STRING_MODE AUTO, OPTION EXPLICIT off, logical operators
// (BitwiseOrLogical false).
func DefaultOptions() Options {
	return Options{ArrayBase: 0, StringMode: StringModeAuto}
}
