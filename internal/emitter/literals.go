package emitter

import (
	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/cfg"
)

// walkExpr visits e and every expression nested inside it, in a fixed
// left-to-right order so the literal pool it feeds is built deterministically
// (P8: emitted IL must be identical across runs on the same input).
func walkExpr(e ast.Expression, visit func(ast.Expression)) {
	if e == nil {
		return
	}
	visit(e)
	switch v := e.(type) {
	case *ast.ArrayRef:
		for _, ix := range v.Indices {
			walkExpr(ix, visit)
		}
	case *ast.FieldAccess:
		walkExpr(v.Base, visit)
	case *ast.UnaryExpr:
		walkExpr(v.Operand, visit)
	case *ast.BinaryExpr:
		walkExpr(v.Left, visit)
		walkExpr(v.Right, visit)
	case *ast.CallExpr:
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	}
}

// walkStmtExprs visits every expression directly reachable from s (not
// recursing into a control construct's nested statement lists — those are
// already distributed across other blocks by the CFG builder and are walked
// when that block is visited in turn).
func walkStmtExprs(s ast.Statement, visit func(ast.Expression)) {
	switch v := s.(type) {
	case *ast.LetStmt:
		walkExpr(v.Target, visit)
		walkExpr(v.Value, visit)
	case *ast.PrintStmt:
		for _, it := range v.Items {
			walkExpr(it.Value, visit)
		}
	case *ast.InputStmt:
		for _, t := range v.Targets {
			walkExpr(t, visit)
		}
	case *ast.SwapStmt:
		walkExpr(v.A, visit)
		walkExpr(v.B, visit)
	case *ast.IncStmt:
		walkExpr(v.Target, visit)
	case *ast.DecStmt:
		walkExpr(v.Target, visit)
	case *ast.ConstStmt:
		walkExpr(v.Value, visit)
	case *ast.DimStmt:
		for _, d := range v.Dims {
			walkExpr(d.Lower, visit)
			walkExpr(d.Upper, visit)
		}
	case *ast.RedimStmt:
		for _, d := range v.Dims {
			walkExpr(d.Lower, visit)
			walkExpr(d.Upper, visit)
		}
	case *ast.ReadStmt:
		for _, t := range v.Targets {
			walkExpr(t, visit)
		}
	case *ast.OnGotoStmt:
		walkExpr(v.Selector, visit)
	case *ast.OnGosubStmt:
		walkExpr(v.Selector, visit)
	case *ast.OnCallStmt:
		walkExpr(v.Selector, visit)
	case *ast.CallStmt:
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ast.ThrowStmt:
		walkExpr(v.Code, visit)
	}
}

// walkStmtLabels visits every textual label name s references directly, so
// RESTORE <label> can resolve to an interned string the runtime looks up by
// name (distinct from RESTORE <line>, which needs no literal pool entry).
func walkStmtLabels(s ast.Statement, intern func(string)) {
	if r, ok := s.(*ast.RestoreStmt); ok && r.Label != "" {
		intern(r.Label)
	}
}

// internString interns s into the string literal pool, returning its index
// (the data section name is "s.<index>").
func (e *Emitter) internString(s string) int {
	if i, ok := e.strIndex[s]; ok {
		return i
	}
	i := len(e.strPool)
	e.strPool = append(e.strPool, s)
	e.strIndex[s] = i
	return i
}

// internFloat interns f into the double literal pool, returning its index
// (the data section name is "fp.<index>").
func (e *Emitter) internFloat(f float64) int {
	if i, ok := e.fltIndex[f]; ok {
		return i
	}
	i := len(e.fltPool)
	e.fltPool = append(e.fltPool, f)
	e.fltIndex[f] = i
	return i
}

// collectLiterals walks every block of g, interning every StringLit and
// FloatLit it finds so the literal pool is complete before any function body
// is emitted (a literal referenced by procedure B must resolve even if B is
// emitted before the block in procedure A that first introduced it).
func (e *Emitter) collectLiterals(g *cfg.Graph) {
	visit := func(expr ast.Expression) {
		switch v := expr.(type) {
		case *ast.StringLit:
			e.internString(v.Value)
		case *ast.FloatLit:
			e.internFloat(v.Value)
		}
	}
	for _, b := range g.Blocks {
		walkExpr(b.Cond, visit)
		if b.ForLoop != nil {
			walkExpr(b.ForLoop.Start, visit)
			walkExpr(b.ForLoop.End, visit)
			walkExpr(b.ForLoop.Step, visit)
		}
		if b.Select != nil {
			walkExpr(b.Select.Selector, visit)
			for _, c := range b.Select.Cases {
				for _, val := range c.Values {
					walkExpr(val, visit)
				}
				walkExpr(c.RangeLow, visit)
				walkExpr(c.RangeHigh, visit)
				walkExpr(c.RelValue, visit)
			}
		}
		for _, s := range b.Stmts {
			walkStmtExprs(s, visit)
			walkStmtLabels(s, e.internString)
			if in, ok := s.(*ast.InputStmt); ok && in.Prompt != "" {
				e.internString(in.Prompt)
			}
		}
	}
}
