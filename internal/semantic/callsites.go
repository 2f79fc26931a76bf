package semantic

import (
	"github.com/keurnel/basicqbe/internal/ast"
)

// resolveCallAmbiguity rewrites every CallExpr that actually names a
// declared array (local or global) into an ArrayRef, since the parser
// cannot distinguish `A(1,2)` array indexing from a function call until the
// SymbolTable exists.
func (a *Analyser) resolveCallAmbiguity(prog *ast.Program) {
	a.rewriteBody("", prog.Main)
	for _, proc := range prog.Procedures {
		a.rewriteBody(proc.Name, proc.Body)
	}
}

func (a *Analyser) isArrayName(procName, name string) bool {
	if procName != "" {
		if proc, ok := a.table.Procedures[procName]; ok {
			if _, ok := proc.LocalArrays[name]; ok {
				return true
			}
		}
	}
	_, ok := a.table.GlobalArrays[name]
	return ok
}

// rewriteExpr recursively rewrites e and everything it contains, returning
// the (possibly new) root expression.
func (a *Analyser) rewriteExpr(procName string, e ast.Expression) ast.Expression {
	switch v := e.(type) {
	case *ast.CallExpr:
		for i, arg := range v.Args {
			v.Args[i] = a.rewriteExpr(procName, arg)
		}
		if a.isArrayName(procName, v.Name) {
			return &ast.ArrayRef{Name: v.Name, Indices: v.Args, Line: v.Line}
		}
		return v
	case *ast.ArrayRef:
		for i, idx := range v.Indices {
			v.Indices[i] = a.rewriteExpr(procName, idx)
		}
		return v
	case *ast.BinaryExpr:
		v.Left = a.rewriteExpr(procName, v.Left)
		v.Right = a.rewriteExpr(procName, v.Right)
		return v
	case *ast.UnaryExpr:
		v.Operand = a.rewriteExpr(procName, v.Operand)
		return v
	case *ast.FieldAccess:
		v.Base = a.rewriteExpr(procName, v.Base)
		return v
	default:
		return e
	}
}

func (a *Analyser) rewriteExprSlice(procName string, exprs []ast.Expression) {
	for i, e := range exprs {
		exprs[i] = a.rewriteExpr(procName, e)
	}
}

// rewriteBody walks stmts (and every nested body) rewriting every
// expression-carrying field in place.
func (a *Analyser) rewriteBody(procName string, stmts []ast.Statement) {
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.LetStmt:
			v.Target = a.rewriteExpr(procName, v.Target)
			v.Value = a.rewriteExpr(procName, v.Value)
		case *ast.PrintStmt:
			for i := range v.Items {
				v.Items[i].Value = a.rewriteExpr(procName, v.Items[i].Value)
			}
		case *ast.InputStmt:
			a.rewriteExprSlice(procName, v.Targets)
		case *ast.IfStmt:
			v.Cond = a.rewriteExpr(procName, v.Cond)
			for i := range v.ElseIfs {
				v.ElseIfs[i].Cond = a.rewriteExpr(procName, v.ElseIfs[i].Cond)
			}
		case *ast.SelectCaseStmt:
			v.Selector = a.rewriteExpr(procName, v.Selector)
			for i := range v.Cases {
				c := &v.Cases[i]
				a.rewriteExprSlice(procName, c.Values)
				if c.RangeLow != nil {
					c.RangeLow = a.rewriteExpr(procName, c.RangeLow)
				}
				if c.RangeHigh != nil {
					c.RangeHigh = a.rewriteExpr(procName, c.RangeHigh)
				}
				if c.RelValue != nil {
					c.RelValue = a.rewriteExpr(procName, c.RelValue)
				}
			}
		case *ast.ForStmt:
			v.Start = a.rewriteExpr(procName, v.Start)
			v.End = a.rewriteExpr(procName, v.End)
			if v.Step != nil {
				v.Step = a.rewriteExpr(procName, v.Step)
			}
		case *ast.WhileStmt:
			v.Cond = a.rewriteExpr(procName, v.Cond)
		case *ast.RepeatStmt:
			v.Until = a.rewriteExpr(procName, v.Until)
		case *ast.DoStmt:
			if v.Cond != nil {
				v.Cond = a.rewriteExpr(procName, v.Cond)
			}
		case *ast.OnGotoStmt:
			v.Selector = a.rewriteExpr(procName, v.Selector)
		case *ast.OnGosubStmt:
			v.Selector = a.rewriteExpr(procName, v.Selector)
		case *ast.OnCallStmt:
			v.Selector = a.rewriteExpr(procName, v.Selector)
		case *ast.CallStmt:
			a.rewriteExprSlice(procName, v.Args)
		case *ast.ThrowStmt:
			v.Code = a.rewriteExpr(procName, v.Code)
		case *ast.SwapStmt:
			v.A = a.rewriteExpr(procName, v.A)
			v.B = a.rewriteExpr(procName, v.B)
		case *ast.IncStmt:
			v.Target = a.rewriteExpr(procName, v.Target)
		case *ast.DecStmt:
			v.Target = a.rewriteExpr(procName, v.Target)
		case *ast.ConstStmt:
			v.Value = a.rewriteExpr(procName, v.Value)
		case *ast.ReadStmt:
			a.rewriteExprSlice(procName, v.Targets)
		}
		forEachBody(s, func(body []ast.Statement) { a.rewriteBody(procName, body) })
	}
}
