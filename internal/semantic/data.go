package semantic

import (
	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/symbols"
	"github.com/keurnel/basicqbe/internal/types"
)

// collectData flattens every DATA statement, in program order, into the
// program-wide DataSegment (§3). DATA is a whole-program construct in this
// dialect: both Main and every procedure body are scanned.
func (a *Analyser) collectData(prog *ast.Program) {
	var walk func(stmts []ast.Statement)
	walk = func(stmts []ast.Statement) {
		for _, s := range stmts {
			if d, ok := s.(*ast.DataStmt); ok {
				for _, v := range d.Values {
					a.table.Data = append(a.table.Data, dataValueFromLiteral(v))
				}
			}
			forEachBody(s, walk)
		}
	}
	walk(prog.Main)
	for _, proc := range prog.Procedures {
		walk(proc.Body)
	}
}

func dataValueFromLiteral(v ast.DataLiteral) symbols.DataValue {
	switch {
	case v.IsString:
		kind := types.StringASCII
		if classifyString(v.StrVal) == types.StringUTF32 {
			kind = types.StringUTF32
		}
		return symbols.DataValue{Kind: kind, String: v.StrVal}
	case v.IsFloat:
		return symbols.DataValue{Kind: types.Double, Float: v.FloatVal}
	default:
		return symbols.DataValue{Kind: types.Integer64, Int: v.IntVal}
	}
}
