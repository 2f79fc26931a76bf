package semantic

import (
	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/symbols"
	"github.com/keurnel/basicqbe/internal/types"
)

// inferSigilType derives a scalar BaseType from a BASIC variable name's
// trailing sigil: % integer32, & integer64, ! single, # double, $ string.
// An un-sigiled name defaults to single, the documented dialect default.
func inferSigilType(name string) types.BaseType {
	if name == "" {
		return types.Single
	}
	switch name[len(name)-1] {
	case '%':
		return types.Integer32
	case '&':
		return types.Integer64
	case '!':
		return types.Single
	case '#':
		return types.Double
	case '$':
		return types.StringASCII
	default:
		return types.Single
	}
}

func sigilTypeToDescriptor(t ast.TypeSigil, name string, a *Analyser) types.Descriptor {
	switch t {
	case ast.TypeInteger32:
		return types.Scalar(types.Integer32)
	case ast.TypeInteger64:
		return types.Scalar(types.Integer64)
	case ast.TypeSingle:
		return types.Scalar(types.Single)
	case ast.TypeDouble:
		return types.Scalar(types.Double)
	case ast.TypeString:
		return types.Scalar(types.StringASCII)
	default:
		return types.Scalar(inferSigilType(name))
	}
}

// collectOptions scans top-level OPTION statements (they are a whole-program
// declaration in this dialect, so only Main is scanned).
func (a *Analyser) collectOptions(stmts []ast.Statement) {
	for _, s := range stmts {
		opt, ok := s.(*ast.OptionStmt)
		if !ok {
			continue
		}
		switch opt.Kind {
		case ast.OptionBase:
			a.table.Options.ArrayBase = opt.IntValue
		case ast.OptionExplicit:
			a.table.Options.OptionExplicit = true
		case ast.OptionStringMode:
			switch opt.StringValue {
			case "ASCII":
				a.table.Options.StringMode = symbols.StringModeASCII
			case "UNICODE":
				a.table.Options.StringMode = symbols.StringModeUTF32
			default:
				a.table.Options.StringMode = symbols.StringModeAuto
			}
		case ast.OptionBitwiseOrLogical:
			a.table.Options.BitwiseOrLogical = opt.StringValue == "BITWISE"
		}
	}
}

// collectDeclarations registers every TYPE, global DIM/CONST, and procedure
// frame (with its own local DIM/CONST), recursing into nested statement
// bodies so a DIM inside an IF/FOR/etc. is still registered.
func (a *Analyser) collectDeclarations(prog *ast.Program) {
	nextUDTID := 1
	var walkTypes func(stmts []ast.Statement)
	walkTypes = func(stmts []ast.Statement) {
		for _, s := range stmts {
			if td, ok := s.(*ast.TypeDecl); ok {
				rt := &types.RecordType{Name: td.Name, TypeID: nextUDTID}
				offset := 0
				for _, f := range td.Fields {
					fd := sigilTypeToDescriptor(f.Type, f.Name, a)
					rt.Fields = append(rt.Fields, types.Field{Name: f.Name, Descriptor: fd, ByteOffset: offset})
					offset += 8 // conservative fixed-width slot; UDT fields are word/long/single/double/string-pointer sized, all ≤ 8 bytes
				}
				a.table.Types[td.Name] = rt
				a.table.TypesByID[rt.TypeID] = rt
				nextUDTID++
			}
			forEachBody(s, walkTypes)
		}
	}
	walkTypes(prog.Main)
	for _, proc := range prog.Procedures {
		walkTypes(proc.Body)
	}

	a.walkDeclBody("", prog.Main)
	for _, proc := range prog.Procedures {
		retType := types.Scalar(types.Void)
		if !proc.IsSub {
			retType = sigilTypeToDescriptor(proc.ReturnType, proc.Name, a)
		}
		sym := a.table.DefineProcedure(proc.Name, proc.IsSub, retType)
		for _, p := range proc.Params {
			sym.Params = append(sym.Params, symbols.Param{
				Name:       p.Name,
				Descriptor: sigilTypeToDescriptor(p.Type, p.Name, a),
				ByRef:      p.ByRef,
			})
		}
		a.walkDeclBody(proc.Name, proc.Body)
	}
}

// walkDeclBody registers every DIM/CONST appearing (at any nesting depth)
// within stmts into the global or per-procedure scope named by procName
// ("" means global).
func (a *Analyser) walkDeclBody(procName string, stmts []ast.Statement) {
	for _, s := range stmts {
		switch v := s.(type) {
		case *ast.DimStmt:
			a.defineDim(procName, v)
		case *ast.ConstStmt:
			a.defineConst(procName, v)
		}
		forEachBody(s, func(body []ast.Statement) { a.walkDeclBody(procName, body) })
	}
}

func (a *Analyser) defineDim(procName string, d *ast.DimStmt) {
	elemDesc := types.Scalar(inferSigilType(d.Name))
	if d.ElementType != ast.TypeInferred {
		elemDesc = sigilTypeToDescriptor(d.ElementType, d.Name, a)
		if d.ElementType == ast.TypeUDT {
			if rt, ok := a.table.Types[d.UDTName]; ok {
				elemDesc = types.Record(rt.TypeID)
			}
		}
	}

	if len(d.Dims) == 0 {
		v := &symbols.Variable{Name: d.Name, Descriptor: elemDesc}
		a.defineVariable(procName, v)
		return
	}

	arr := &symbols.Array{Name: d.Name, ElementType: elemDesc}
	for _, dim := range d.Dims {
		lower := a.table.Options.ArrayBase
		upper := -1
		if dim.Lower != nil {
			lower = intLiteralValue(dim.Lower)
		}
		if dim.Upper != nil {
			upper = intLiteralValue(dim.Upper)
		}
		arr.LowerBounds = append(arr.LowerBounds, lower)
		arr.UpperBounds = append(arr.UpperBounds, upper)
	}
	a.defineArray(procName, arr)
}

func (a *Analyser) defineVariable(procName string, v *symbols.Variable) {
	if procName == "" {
		a.table.Globals[v.Name] = v
		return
	}
	proc, ok := a.table.Procedures[procName]
	if !ok {
		proc = a.table.DefineProcedure(procName, true, types.Scalar(types.Void))
	}
	proc.Locals[v.Name] = v
}

func (a *Analyser) defineArray(procName string, arr *symbols.Array) {
	if procName == "" {
		a.table.GlobalArrays[arr.Name] = arr
		return
	}
	proc, ok := a.table.Procedures[procName]
	if !ok {
		proc = a.table.DefineProcedure(procName, true, types.Scalar(types.Void))
	}
	proc.LocalArrays[arr.Name] = arr
}

func (a *Analyser) defineConst(procName string, c *ast.ConstStmt) {
	con := &symbols.Constant{Name: c.Name}
	switch v := c.Value.(type) {
	case *ast.IntLit:
		con.Descriptor = types.Scalar(types.Integer32)
		con.IntValue = v.Value
	case *ast.FloatLit:
		con.Descriptor = types.Scalar(types.Double)
		con.FloatValue = v.Value
	case *ast.StringLit:
		con.Descriptor = types.Scalar(types.StringASCII)
		if classifyString(v.Value) == types.StringUTF32 {
			con.Descriptor = types.Scalar(types.StringUTF32)
		}
		con.StrValue = v.Value
	default:
		con.Descriptor = types.Scalar(inferSigilType(c.Name))
	}
	// CONST is program-wide regardless of lexical position in this dialect.
	_ = procName
	a.table.Constants[c.Name] = con
}

// classifyString implements the AUTO string-encoding policy (§4.2): any
// code point ≥ 128 tags the literal UTF-32.
func classifyString(s string) types.BaseType {
	for _, r := range s {
		if r > 127 {
			return types.StringUTF32
		}
	}
	return types.StringASCII
}

func intLiteralValue(e ast.Expression) int {
	switch v := e.(type) {
	case *ast.IntLit:
		return int(v.Value)
	case *ast.UnaryExpr:
		if v.Op == "-" {
			return -intLiteralValue(v.Operand)
		}
	}
	return 0
}

// forEachBody invokes fn once per nested statement-list a control construct
// carries, covering every recursive shape the CFG builder must also walk.
func forEachBody(s ast.Statement, fn func([]ast.Statement)) {
	switch v := s.(type) {
	case *ast.IfStmt:
		fn(v.Then)
		for _, e := range v.ElseIfs {
			fn(e.Body)
		}
		fn(v.Else)
	case *ast.SelectCaseStmt:
		for _, c := range v.Cases {
			fn(c.Body)
		}
		fn(v.ElseBody)
	case *ast.ForStmt:
		fn(v.Body)
	case *ast.WhileStmt:
		fn(v.Body)
	case *ast.RepeatStmt:
		fn(v.Body)
	case *ast.DoStmt:
		fn(v.Body)
	case *ast.TryStmt:
		fn(v.Body)
		for _, c := range v.Catches {
			fn(c.Body)
		}
		fn(v.Finally)
	}
}
