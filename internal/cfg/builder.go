package cfg

import (
	"fmt"
	"strconv"

	"github.com/keurnel/basicqbe/internal/ast"
	"github.com/keurnel/basicqbe/internal/diag"
	"github.com/keurnel/basicqbe/internal/symbols"
)

// Build lowers a whole ast.Program into a ProgramCFG: one Graph for the
// implicit main body and one per declared SUB/FUNCTION. table is accepted
// for signature parity with the rest of the pipeline (a later pass may
// want symbol information alongside block structure) but the builder
// itself only needs the AST — name resolution is the emitter's concern.
func Build(prog *ast.Program, table *symbols.Table, ctx *diag.Context) *Program {
	result := &Program{Procedures: make(map[string]*Graph)}
	result.Main = buildGraph("", prog.Main, table, ctx)
	for _, proc := range prog.Procedures {
		result.Procedures[proc.Name] = buildGraph(proc.Name, proc.Body, table, ctx)
	}
	return result
}

// gosubSite is one GOSUB/ON GOSUB call site recorded during the main
// build pass: the block the call jumps into, and the block execution
// should land in once the called code RETURNs.
type gosubSite struct {
	calleeBlock int
	afterBlock  int
}

// Builder holds the mutable state of a single Graph under construction.
// Everything else — which loop/select/try/procedure a statement list is
// nested inside — is threaded through processStatementRange as ordinary
// parameters, never kept here (§4.1).
type Builder struct {
	g       *Graph
	ctx     *diag.Context
	nextID  int
	sink    int
	sinkSet bool

	labelBlocks map[string]int
	lineBlocks  map[int]int
	gosubSites  []gosubSite
}

func buildGraph(procName string, body []ast.Statement, table *symbols.Table, ctx *diag.Context) *Graph {
	b := &Builder{
		g:           newGraph(),
		ctx:         ctx,
		labelBlocks: make(map[string]int),
		lineBlocks:  make(map[int]int),
	}
	b.prescanLabels(body)

	entry := b.newBlock()
	b.g.EntryBlock = entry
	exit := b.newBlock()
	b.g.ExitBlock = exit
	// The procedure's sink never accepts statements; mark it done up front
	// rather than leaving every ordinary path's final wiring responsible
	// for remembering to terminate it.
	b.terminate(exit)

	sub := &SubroutineContext{ProcName: procName}
	final := b.processStatementRange(body, entry, nil, nil, nil, sub)
	if !b.isTerminated(final) {
		b.addEdge(final, exit, Sequential)
		b.terminate(final)
	}
	b.finalizeGosubReturns()
	return b.g
}

// ---------------------------------------------------------------------------
// block/edge primitives
// ---------------------------------------------------------------------------

func (b *Builder) newBlock() int {
	id := b.nextID
	b.nextID++
	b.g.Blocks = append(b.g.Blocks, &Block{ID: id})
	return id
}

func (b *Builder) block(id int) *Block { return b.g.Block(id) }

func (b *Builder) isTerminated(id int) bool { return b.block(id).IsTerminated }

func (b *Builder) terminate(id int) { b.block(id).IsTerminated = true }

func (b *Builder) addEdge(from, to int, kind EdgeKind) *Edge {
	e := &Edge{From: from, To: to, Kind: kind}
	b.g.Edges = append(b.g.Edges, e)
	return e
}

func (b *Builder) addCaseEdge(from, to int, kind EdgeKind, caseValue int) *Edge {
	e := &Edge{From: from, To: to, Kind: kind, CaseValue: caseValue}
	b.g.Edges = append(b.g.Edges, e)
	return e
}

// deadSink lazily allocates a single terminated block that absorbs edges
// to unresolved jump targets, so a name-resolution failure degrades to a
// diagnostic rather than an ill-formed graph.
func (b *Builder) deadSink() int {
	if !b.sinkSet {
		b.sink = b.newBlock()
		b.terminate(b.sink)
		b.sinkSet = true
	}
	return b.sink
}

// ---------------------------------------------------------------------------
// jump-target prescan
// ---------------------------------------------------------------------------

// prescanLabels walks stmts (recursing into every nested body) and
// allocates a block up front for every LabelStmt, so a forward GOTO/GOSUB
// to a label not yet visited by the main pass still resolves.
func (b *Builder) prescanLabels(stmts []ast.Statement) {
	for _, s := range stmts {
		if lbl, ok := s.(*ast.LabelStmt); ok {
			id := b.newBlock()
			if n, err := strconv.Atoi(lbl.Name); err == nil {
				b.lineBlocks[n] = id
				b.g.LineNumberToBlock[n] = id
			} else {
				b.labelBlocks[lbl.Name] = id
				b.g.LabelToBlock[lbl.Name] = id
			}
		}
		forEachBody(s, b.prescanLabels)
	}
}

// forEachBody invokes fn once per nested statement-list a control
// construct carries. Mirrors internal/semantic's traversal of the same
// shape; duplicated here because the two packages share no common
// AST-walking dependency.
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

func (b *Builder) labelBlockFor(lbl *ast.LabelStmt) int {
	if n, err := strconv.Atoi(lbl.Name); err == nil {
		if id, ok := b.lineBlocks[n]; ok {
			return id
		}
	}
	if id, ok := b.labelBlocks[lbl.Name]; ok {
		return id
	}
	return b.deadSink()
}

func (b *Builder) resolveJumpTarget(t ast.JumpTarget) int {
	if t.Label != "" {
		if id, ok := b.labelBlocks[t.Label]; ok {
			return id
		}
	} else if id, ok := b.lineBlocks[t.Line]; ok {
		return id
	}
	if b.ctx != nil {
		b.ctx.Error(b.ctx.Loc(0, 0), fmt.Sprintf("undefined jump target %v", t))
	}
	return b.deadSink()
}

// ---------------------------------------------------------------------------
// main recursive pass
// ---------------------------------------------------------------------------

// processStatementRange lowers stmts into the graph, appending into the
// already-open block `incoming` and returning the block execution falls
// through to once every statement in stmts has been processed. loop/sel/
// try_/sub are the context chains in effect for this range; control
// constructs extend them (via Outer) only for their own nested bodies.
func (b *Builder) processStatementRange(stmts []ast.Statement, incoming int, loop *LoopContext, sel *SelectContext, try_ *TryContext, sub *SubroutineContext) int {
	cur := incoming
	for _, s := range stmts {
		if b.isTerminated(cur) {
			cur = b.newBlock()
		}
		switch v := s.(type) {
		case *ast.LabelStmt:
			id := b.labelBlockFor(v)
			b.addEdge(cur, id, Sequential)
			b.terminate(cur)
			cur = id
			b.block(cur).AddStmt(v)

		case *ast.IfStmt:
			cur = b.buildIf(v, cur, loop, sel, try_, sub)

		case *ast.SelectCaseStmt:
			cur = b.buildSelectCase(v, cur, loop, sel, try_, sub)

		case *ast.ForStmt:
			cur = b.buildFor(v, cur, loop, sel, try_, sub)

		case *ast.WhileStmt:
			cur = b.buildWhile(v, cur, loop, sel, try_, sub)

		case *ast.RepeatStmt:
			cur = b.buildRepeat(v, cur, loop, sel, try_, sub)

		case *ast.DoStmt:
			cur = b.buildDo(v, cur, loop, sel, try_, sub)

		case *ast.TryStmt:
			cur = b.buildTry(v, cur, loop, sel, try_, sub)

		case *ast.GotoStmt:
			b.block(cur).AddStmt(v)
			target := b.resolveJumpTarget(v.Target)
			b.addEdge(cur, target, Jump)
			b.terminate(cur)

		case *ast.OnGotoStmt:
			cur = b.buildOnGoto(v, cur)

		case *ast.GosubStmt:
			cur = b.buildGosub(v, cur)

		case *ast.OnGosubStmt:
			cur = b.buildOnGosub(v, cur)

		case *ast.ReturnStmt:
			b.block(cur).AddStmt(v)
			b.terminate(cur)

		case *ast.ExitStmt:
			cur = b.buildExit(v, cur, loop, sel)

		case *ast.ThrowStmt:
			b.block(cur).AddStmt(v)
			if try_ != nil {
				b.addEdge(cur, try_.DispatchID, ExceptionDispatch)
			} else {
				b.addEdge(cur, b.g.ExitBlock, ExceptionDispatch)
			}
			b.terminate(cur)

		default:
			b.block(cur).AddStmt(s)
		}
	}
	return cur
}

// ---------------------------------------------------------------------------
// IF / ELSEIF / ELSE
// ---------------------------------------------------------------------------

type ifBranch struct {
	Cond ast.Expression
	Body []ast.Statement
}

func (b *Builder) buildIf(v *ast.IfStmt, incoming int, loop *LoopContext, sel *SelectContext, try_ *TryContext, sub *SubroutineContext) int {
	exit := b.newBlock()
	branches := []ifBranch{{v.Cond, v.Then}}
	for _, ei := range v.ElseIfs {
		branches = append(branches, ifBranch{ei.Cond, ei.Body})
	}

	cur := incoming
	for i, br := range branches {
		b.block(cur).Cond = br.Cond
		b.terminate(cur)

		thenEntry := b.newBlock()
		b.addEdge(cur, thenEntry, ConditionalTrue)
		thenExit := b.processStatementRange(br.Body, thenEntry, loop, sel, try_, sub)
		if !b.isTerminated(thenExit) {
			b.addEdge(thenExit, exit, Sequential)
			b.terminate(thenExit)
		}

		if i < len(branches)-1 {
			next := b.newBlock()
			b.addEdge(cur, next, ConditionalFalse)
			cur = next
			continue
		}

		if len(v.Else) > 0 {
			elseEntry := b.newBlock()
			b.addEdge(cur, elseEntry, ConditionalFalse)
			elseExit := b.processStatementRange(v.Else, elseEntry, loop, sel, try_, sub)
			if !b.isTerminated(elseExit) {
				b.addEdge(elseExit, exit, Sequential)
				b.terminate(elseExit)
			}
		} else {
			b.addEdge(cur, exit, ConditionalFalse)
		}
	}
	return exit
}

// ---------------------------------------------------------------------------
// SELECT CASE
// ---------------------------------------------------------------------------

func (b *Builder) buildSelectCase(v *ast.SelectCaseStmt, incoming int, loop *LoopContext, sel *SelectContext, try_ *TryContext, sub *SubroutineContext) int {
	exit := b.newBlock()
	dispatch := incoming
	b.block(dispatch).Select = v
	b.terminate(dispatch)

	innerSel := &SelectContext{ExitID: exit, Outer: sel}
	for i, c := range v.Cases {
		bodyEntry := b.newBlock()
		b.addCaseEdge(dispatch, bodyEntry, CaseN, i)
		bodyExit := b.processStatementRange(c.Body, bodyEntry, loop, innerSel, try_, sub)
		if !b.isTerminated(bodyExit) {
			b.addEdge(bodyExit, exit, Sequential)
			b.terminate(bodyExit)
		}
	}

	if len(v.ElseBody) > 0 {
		elseEntry := b.newBlock()
		b.addEdge(dispatch, elseEntry, Default)
		elseExit := b.processStatementRange(v.ElseBody, elseEntry, loop, innerSel, try_, sub)
		if !b.isTerminated(elseExit) {
			b.addEdge(elseExit, exit, Sequential)
			b.terminate(elseExit)
		}
	} else {
		b.addEdge(dispatch, exit, Default)
	}
	return exit
}

// ---------------------------------------------------------------------------
// FOR
// ---------------------------------------------------------------------------

func (b *Builder) buildFor(v *ast.ForStmt, incoming int, loop *LoopContext, sel *SelectContext, try_ *TryContext, sub *SubroutineContext) int {
	header := b.newBlock()
	b.addEdge(incoming, header, Sequential)
	b.terminate(incoming)

	b.block(header).ForLoop = v
	b.block(header).IsLoopHeader = true
	exit := b.newBlock()
	bodyEntry := b.newBlock()
	b.addEdge(header, bodyEntry, ConditionalTrue)
	b.addEdge(header, exit, ConditionalFalse)
	b.terminate(header)

	loopCtx := &LoopContext{HeaderID: header, ExitID: exit, Kind: ast.ExitFor, Outer: loop}
	bodyExit := b.processStatementRange(v.Body, bodyEntry, loopCtx, sel, try_, sub)
	if !b.isTerminated(bodyExit) {
		b.addEdge(bodyExit, header, Sequential)
		b.terminate(bodyExit)
	}
	return exit
}

// ---------------------------------------------------------------------------
// WHILE
// ---------------------------------------------------------------------------

func (b *Builder) buildWhile(v *ast.WhileStmt, incoming int, loop *LoopContext, sel *SelectContext, try_ *TryContext, sub *SubroutineContext) int {
	header := b.newBlock()
	b.addEdge(incoming, header, Sequential)
	b.terminate(incoming)

	b.block(header).Cond = v.Cond
	b.block(header).IsLoopHeader = true
	exit := b.newBlock()
	bodyEntry := b.newBlock()
	b.addEdge(header, bodyEntry, ConditionalTrue)
	b.addEdge(header, exit, ConditionalFalse)
	b.terminate(header)

	loopCtx := &LoopContext{HeaderID: header, ExitID: exit, Kind: ast.ExitWhile, Outer: loop}
	bodyExit := b.processStatementRange(v.Body, bodyEntry, loopCtx, sel, try_, sub)
	if !b.isTerminated(bodyExit) {
		b.addEdge(bodyExit, header, Sequential)
		b.terminate(bodyExit)
	}
	return exit
}

// ---------------------------------------------------------------------------
// REPEAT ... UNTIL
// ---------------------------------------------------------------------------

func (b *Builder) buildRepeat(v *ast.RepeatStmt, incoming int, loop *LoopContext, sel *SelectContext, try_ *TryContext, sub *SubroutineContext) int {
	bodyEntry := b.newBlock()
	b.addEdge(incoming, bodyEntry, Sequential)
	b.terminate(incoming)

	exit := b.newBlock()
	// REPEAT has no dedicated EXIT keyword in this dialect; EXIT DO is the
	// closest construct and is accepted here as a permissive fallback.
	loopCtx := &LoopContext{HeaderID: bodyEntry, ExitID: exit, Kind: ast.ExitDo, Outer: loop}
	bodyExit := b.processStatementRange(v.Body, bodyEntry, loopCtx, sel, try_, sub)
	if !b.isTerminated(bodyExit) {
		b.block(bodyExit).Cond = v.Until
		b.terminate(bodyExit)
		b.addEdge(bodyExit, exit, ConditionalTrue)
		b.addEdge(bodyExit, bodyEntry, ConditionalFalse)
	}
	return exit
}

// ---------------------------------------------------------------------------
// DO variants
// ---------------------------------------------------------------------------

func (b *Builder) buildDo(v *ast.DoStmt, incoming int, loop *LoopContext, sel *SelectContext, try_ *TryContext, sub *SubroutineContext) int {
	exit := b.newBlock()

	switch v.Kind {
	case ast.DoWhilePre, ast.DoUntilPre:
		header := b.newBlock()
		b.addEdge(incoming, header, Sequential)
		b.terminate(incoming)
		b.block(header).Cond = v.Cond
		b.block(header).IsLoopHeader = true

		bodyEntry := b.newBlock()
		if v.Kind == ast.DoWhilePre {
			b.addEdge(header, bodyEntry, ConditionalTrue)
			b.addEdge(header, exit, ConditionalFalse)
		} else {
			b.addEdge(header, exit, ConditionalTrue)
			b.addEdge(header, bodyEntry, ConditionalFalse)
		}
		b.terminate(header)

		loopCtx := &LoopContext{HeaderID: header, ExitID: exit, Kind: ast.ExitDo, Outer: loop}
		bodyExit := b.processStatementRange(v.Body, bodyEntry, loopCtx, sel, try_, sub)
		if !b.isTerminated(bodyExit) {
			b.addEdge(bodyExit, header, Sequential)
			b.terminate(bodyExit)
		}

	case ast.DoWhilePost, ast.DoUntilPost:
		bodyEntry := b.newBlock()
		b.addEdge(incoming, bodyEntry, Sequential)
		b.terminate(incoming)

		loopCtx := &LoopContext{HeaderID: bodyEntry, ExitID: exit, Kind: ast.ExitDo, Outer: loop}
		bodyExit := b.processStatementRange(v.Body, bodyEntry, loopCtx, sel, try_, sub)
		if !b.isTerminated(bodyExit) {
			b.block(bodyExit).Cond = v.Cond
			b.terminate(bodyExit)
			if v.Kind == ast.DoWhilePost {
				b.addEdge(bodyExit, bodyEntry, ConditionalTrue)
				b.addEdge(bodyExit, exit, ConditionalFalse)
			} else {
				b.addEdge(bodyExit, exit, ConditionalTrue)
				b.addEdge(bodyExit, bodyEntry, ConditionalFalse)
			}
		}

	default: // ast.DoForever
		header := b.newBlock()
		b.addEdge(incoming, header, Sequential)
		b.terminate(incoming)
		b.block(header).IsLoopHeader = true

		loopCtx := &LoopContext{HeaderID: header, ExitID: exit, Kind: ast.ExitDo, Outer: loop}
		bodyExit := b.processStatementRange(v.Body, header, loopCtx, sel, try_, sub)
		if !b.isTerminated(bodyExit) {
			b.addEdge(bodyExit, header, Sequential)
			b.terminate(bodyExit)
		}
	}
	return exit
}

// ---------------------------------------------------------------------------
// EXIT FOR/WHILE/DO/SELECT
// ---------------------------------------------------------------------------

func (b *Builder) buildExit(v *ast.ExitStmt, incoming int, loop *LoopContext, sel *SelectContext) int {
	b.block(incoming).AddStmt(v)
	if v.Kind == ast.ExitSelect {
		if sel != nil {
			b.addEdge(incoming, sel.ExitID, Jump)
			b.terminate(incoming)
		}
		return incoming
	}
	if target := findLoop(loop, v.Kind); target != nil {
		b.addEdge(incoming, target.ExitID, Jump)
		b.terminate(incoming)
	}
	return incoming
}

// ---------------------------------------------------------------------------
// GOSUB / ON GOSUB / RETURN
// ---------------------------------------------------------------------------

func (b *Builder) buildGosub(v *ast.GosubStmt, incoming int) int {
	b.block(incoming).AddStmt(v)
	target := b.resolveJumpTarget(v.Target)
	after := b.newBlock()
	siteIndex := len(b.gosubSites)
	e := b.addEdge(incoming, target, Call)
	e.GosubSite = siteIndex
	b.terminate(incoming)
	b.gosubSites = append(b.gosubSites, gosubSite{calleeBlock: target, afterBlock: after})
	b.g.GosubReturnBlocks[after] = true
	return after
}

func (b *Builder) buildOnGosub(v *ast.OnGosubStmt, incoming int) int {
	b.block(incoming).AddStmt(v)
	after := b.newBlock()
	for i, t := range v.Targets {
		target := b.resolveJumpTarget(t)
		siteIndex := len(b.gosubSites)
		e := b.addCaseEdge(incoming, target, CaseN, i)
		e.GosubSite = siteIndex
		b.gosubSites = append(b.gosubSites, gosubSite{calleeBlock: target, afterBlock: after})
	}
	b.addEdge(incoming, after, Default)
	b.g.GosubReturnBlocks[after] = true
	b.terminate(incoming)
	return after
}

// finalizeGosubReturns runs once the edge graph is otherwise complete. A
// physical RETURN statement can be the dynamic return point for more than
// one GOSUB call site, so each call site's target is BFS-walked over the
// finished graph to find every block it can reach that ends in a RETURN,
// wiring a Return edge from each back to that call site's landing block.
func (b *Builder) finalizeGosubReturns() {
	for siteIndex, site := range b.gosubSites {
		seen := map[int]bool{site.calleeBlock: true}
		queue := []int{site.calleeBlock}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			blk := b.block(id)
			if blk != nil && len(blk.Stmts) > 0 {
				if _, ok := blk.Stmts[len(blk.Stmts)-1].(*ast.ReturnStmt); ok {
					// GosubSite carries the call-site index: a RETURN
					// reachable from more than one GOSUB site needs it to
					// dispatch back to the right landing block (the
					// emitter's gosub return-address slot).
					e := b.addEdge(id, site.afterBlock, Return)
					e.GosubSite = siteIndex
				}
			}
			for _, e := range b.g.OutEdges(id) {
				if !seen[e.To] {
					seen[e.To] = true
					queue = append(queue, e.To)
				}
			}
		}
	}
}

// ---------------------------------------------------------------------------
// GOTO / ON GOTO
// ---------------------------------------------------------------------------

func (b *Builder) buildOnGoto(v *ast.OnGotoStmt, incoming int) int {
	b.block(incoming).AddStmt(v)
	next := b.newBlock()
	for i, t := range v.Targets {
		target := b.resolveJumpTarget(t)
		b.addCaseEdge(incoming, target, CaseN, i)
	}
	b.addEdge(incoming, next, Default)
	b.terminate(incoming)
	return next
}

// ---------------------------------------------------------------------------
// TRY / CATCH / FINALLY
// ---------------------------------------------------------------------------

func (b *Builder) buildTry(v *ast.TryStmt, incoming int, loop *LoopContext, sel *SelectContext, try_ *TryContext, sub *SubroutineContext) int {
	trySetup := incoming
	b.block(trySetup).IsTrySetup = true

	tryBodyEntry := b.newBlock()
	b.addEdge(trySetup, tryBodyEntry, Sequential)
	b.terminate(trySetup)

	dispatch := b.newBlock()
	b.block(dispatch).IsExceptionDispatch = true
	exit := b.newBlock()

	var finallyEntry int = -1
	normalTarget := exit
	if v.Finally != nil {
		finallyEntry = b.newBlock()
		b.block(finallyEntry).IsFinally = true
		normalTarget = finallyEntry
	}

	innerTry := &TryContext{DispatchID: dispatch, Outer: try_}
	tryBodyExit := b.processStatementRange(v.Body, tryBodyEntry, loop, sel, innerTry, sub)
	if !b.isTerminated(tryBodyExit) {
		b.addEdge(tryBodyExit, normalTarget, Sequential)
		b.terminate(tryBodyExit)
	}

	// CATCH and FINALLY bodies run under the OUTER try context: a THROW
	// inside either propagates past this TRY, not back into its own
	// dispatch block.
	var catchIDs []int
	hasCatchAll := false
	for _, c := range v.Catches {
		catchEntry := b.newBlock()
		b.block(catchEntry).IsCatch = true
		catchIDs = append(catchIDs, catchEntry)
		if len(c.Codes) == 0 {
			hasCatchAll = true
			b.addEdge(dispatch, catchEntry, Default)
		} else {
			for _, code := range c.Codes {
				b.addCaseEdge(dispatch, catchEntry, CaseN, code)
			}
		}
		catchExit := b.processStatementRange(c.Body, catchEntry, loop, sel, try_, sub)
		if !b.isTerminated(catchExit) {
			b.addEdge(catchExit, normalTarget, Sequential)
			b.terminate(catchExit)
		}
	}
	if !hasCatchAll {
		// An unmatched code propagates to the next enclosing TRY's dispatch,
		// or — with none — aborts the procedure, NOT the normal post-TRY
		// continuation: an uncaught exception must never silently rejoin
		// the success path.
		outerTarget := b.g.ExitBlock
		if try_ != nil {
			outerTarget = try_.DispatchID
		}
		b.addEdge(dispatch, outerTarget, Default)
	}
	b.terminate(dispatch)

	if v.Finally != nil {
		finallyExit := b.processStatementRange(v.Finally, finallyEntry, loop, sel, try_, sub)
		if !b.isTerminated(finallyExit) {
			b.addEdge(finallyExit, exit, Sequential)
			b.terminate(finallyExit)
		}
	}

	b.g.TryCatchStructure = append(b.g.TryCatchStructure, &TryInfo{
		TrySetup: trySetup,
		TryBody:  tryBodyEntry,
		Dispatch: dispatch,
		Catches:  catchIDs,
		Finally:  finallyEntry,
		Exit:     exit,
		AST:      v,
	})
	return exit
}
