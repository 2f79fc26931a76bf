package semantic

import (
	"strconv"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/symbols"
)

// collectLabels registers every LabelStmt as either a LineNumberSymbol (a
// purely numeric name, the classic BASIC line-number form) or a
// LabelSymbol, so the CFG builder's GOTO/GOSUB resolution (P6) has a
// complete target index before it starts building.
func (a *Analyser) collectLabels(prog *ast.Program) {
	var walk func(stmts []ast.Statement)
	walk = func(stmts []ast.Statement) {
		for _, s := range stmts {
			if l, ok := s.(*ast.LabelStmt); ok {
				if n, err := strconv.Atoi(l.Name); err == nil {
					a.table.LineNumbers[n] = &symbols.LineNumberSymbol{Line: l.Line}
				} else {
					a.table.Labels[l.Name] = &symbols.LabelSymbol{Name: l.Name, Line: l.Line}
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
