// Package depgraph builds and inspects the INCLUDE dependency graph of a
// BASIC program. It is the graph half of internal/preprocess's INCLUDE
// resolution: preprocess.Expand scans source text for INCLUDE / INCLUDE
// ONCE statements and asks an Instance to track which files have been
// visited and whether doing so would close a cycle.
package depgraph

import (
	"fmt"
	"os"
)

// OsStat and OsReadFile are indirected for testability, matching the
// teacher's convention of package-level var hooks over os functions.
var (
	OsStat     = os.Stat
	OsReadFile = os.ReadFile
)

// Instance is the INCLUDE dependency graph for one compilation. Nodes are
// keyed by resolved absolute path; the root source file is always present
// as a node (even though it was never INCLUDEd) so that a cycle routed
// back through the root is reported starting from it.
type Instance struct {
	cwd          string
	rootFilePath string
	nodes        map[string]*Node
}

// New creates an Instance rooted at rootFilePath with the given source text
// and a cwd used to resolve relative INCLUDE paths. Pass an empty
// rootFilePath to build a graph programmatically (e.g. in tests) without a
// root node.
func New(rootSource, cwd, rootFilePath string) *Instance {
	inst := &Instance{cwd: cwd, rootFilePath: rootFilePath, nodes: make(map[string]*Node)}
	if rootFilePath != "" {
		inst.nodes[rootFilePath] = NodeNew(rootFilePath, rootSource)
	}
	return inst
}

// Nodes returns the nodes currently in the graph, keyed by resolved path.
func (i *Instance) Nodes() map[string]*Node {
	return i.nodes
}

// Root returns the root node, or nil if this Instance has none.
func (i *Instance) Root() *Node {
	if i.rootFilePath == "" {
		return nil
	}
	return i.nodes[i.rootFilePath]
}

// Resolve returns the node for path if it has already been loaded.
func (i *Instance) Resolve(path string) (*Node, bool) {
	n, ok := i.nodes[path]
	return n, ok
}

// Load reads path from disk (via OsReadFile), registers a Node for it if one
// does not already exist, and returns the node. Returns an error if the
// file cannot be read.
func (i *Instance) Load(path string) (*Node, error) {
	if n, ok := i.nodes[path]; ok {
		return n, nil
	}
	content, err := OsReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("depgraph: failed to read included file %q: %w", path, err)
	}
	n := NodeNew(path, string(content))
	i.nodes[path] = n
	return n, nil
}

// LinkInclude records an INCLUDE (or INCLUDE ONCE) edge from `from` to `to`.
func (i *Instance) LinkInclude(kind string, from, to *Node) {
	from.AddEdge(EdgeNew(kind, from, to))
}

// Acyclic reports whether the graph contains no INCLUDE cycles.
func (i *Instance) Acyclic() bool {
	return i.CyclePath() == nil
}

// CyclePath returns the ordered list of node names forming the first
// INCLUDE cycle found via depth-first search, or nil if the graph is
// acyclic. The last element closes the cycle back to the first.
func (i *Instance) CyclePath() []string {
	visited := make(map[string]bool, len(i.nodes))
	recStack := make(map[string]bool, len(i.nodes))

	for name := range i.nodes {
		if !visited[name] {
			if path := i.cyclicWithPath(name, visited, recStack, nil); path != nil {
				return path
			}
		}
	}
	return nil
}

func (i *Instance) cyclicWithPath(name string, visited, recStack map[string]bool, path []string) []string {
	visited[name] = true
	recStack[name] = true
	path = append(path, name)

	node, ok := i.nodes[name]
	if !ok {
		recStack[name] = false
		return nil
	}

	for _, edge := range node.edges {
		target := edge.to.name
		if recStack[target] {
			cycleStart := -1
			for idx, n := range path {
				if n == target {
					cycleStart = idx
					break
				}
			}
			if cycleStart == -1 {
				return append(append([]string{}, path...), target)
			}
			cycle := append([]string{}, path[cycleStart:]...)
			return append(cycle, target)
		}
		if !visited[target] {
			if found := i.cyclicWithPath(target, visited, recStack, path); found != nil {
				return found
			}
		}
	}

	recStack[name] = false
	return nil
}
