package cfg

import "github.com/keurnel/basicqbe/internal/ast"

// TryInfo is one entry in a Graph's TryCatchStructure index: the full set
// of blocks the builder allocated for a single TRY/CATCH/FINALLY
// construct, recorded so the emitter can cross-reference without
// re-deriving the shape from edges.
type TryInfo struct {
	TrySetup int
	TryBody  int
	Dispatch int
	Catches  []int
	Finally  int // -1 if the construct has no FINALLY.
	Exit     int
	AST      *ast.TryStmt
}

// Graph is a ControlFlowGraph: one per procedure (including the implicit
// main program), produced by Build and treated as read-only by the emitter.
type Graph struct {
	EntryBlock int
	ExitBlock  int
	Blocks     []*Block
	Edges      []*Edge

	LineNumberToBlock map[int]int
	LabelToBlock      map[string]int
	TryCatchStructure []*TryInfo

	// GosubReturnBlocks is the set of blocks that act as landing points
	// after a GOSUB/ON GOSUB returns (§3).
	GosubReturnBlocks map[int]bool
}

func newGraph() *Graph {
	return &Graph{
		LineNumberToBlock: make(map[int]int),
		LabelToBlock:      make(map[string]int),
		GosubReturnBlocks: make(map[int]bool),
	}
}

// Block returns the block with the given id, or nil if none exists.
func (g *Graph) Block(id int) *Block {
	for _, b := range g.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// OutEdges returns every edge leaving block id, in the order they were
// added.
func (g *Graph) OutEdges(id int) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Reachable runs a BFS from EntryBlock and returns the set of live block
// ids (P2/reachability, §4.1). Unreachable blocks are retained in g.Blocks
// — they may be indirect GOSUB/ON-GOTO/ON-GOSUB targets — but are not
// members of this set.
func (g *Graph) Reachable() map[int]bool {
	seen := map[int]bool{g.EntryBlock: true}
	queue := []int{g.EntryBlock}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.OutEdges(id) {
			if !seen[e.To] {
				seen[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return seen
}

// Program is a ProgramCFG: the main graph plus one graph per user-defined
// procedure, sharing the SymbolTable.
type Program struct {
	Main       *Graph
	Procedures map[string]*Graph
}
