package depgraph

// Edge is a directed dependency from one source file to another, created by
// an INCLUDE or INCLUDE ONCE statement.
type Edge struct {
	kind string // "include" | "include-once"
	from *Node
	to   *Node
}

// EdgeNew creates an Edge of the given kind between two nodes.
func EdgeNew(kind string, from, to *Node) *Edge {
	return &Edge{kind: kind, from: from, to: to}
}

// Node represents one source file in the INCLUDE dependency graph.
type Node struct {
	// name is the resolved absolute path of the file.
	name string
	// source is the file's raw text.
	source string
	// edges lists every INCLUDE this file performs, in source order.
	edges []*Edge
}

// NodeNew creates a Node for the given resolved path and source text.
func NodeNew(name, source string) *Node {
	return &Node{name: name, source: source, edges: make([]*Edge, 0)}
}

// Name returns the node's resolved file path.
func (n *Node) Name() string { return n.name }

// Source returns the node's raw source text.
func (n *Node) Source() string { return n.source }

// Edges returns the node's outgoing INCLUDE edges in source order.
func (n *Node) Edges() []*Edge { return n.edges }

// AddEdge appends an outgoing edge to this node.
func (n *Node) AddEdge(e *Edge) {
	n.edges = append(n.edges, e)
}
