package depgraph

import "testing"

func TestInstance_AcyclicGraph(t *testing.T) {
	inst := New("", "", "")

	root := NodeNew("main.bas", "")
	lib := NodeNew("lib.bas", "")
	inst.nodes["main.bas"] = root
	inst.nodes["lib.bas"] = lib

	inst.LinkInclude("include", root, lib)

	if !inst.Acyclic() {
		t.Fatal("expected graph to be acyclic")
	}
	if inst.CyclePath() != nil {
		t.Fatalf("expected no cycle path, got %v", inst.CyclePath())
	}
}

func TestInstance_DetectsCycle(t *testing.T) {
	inst := New("", "", "")

	a := NodeNew("a.bas", "")
	b := NodeNew("b.bas", "")
	inst.nodes["a.bas"] = a
	inst.nodes["b.bas"] = b

	inst.LinkInclude("include", a, b)
	inst.LinkInclude("include", b, a)

	if inst.Acyclic() {
		t.Fatal("expected graph to contain a cycle")
	}
	path := inst.CyclePath()
	if len(path) < 2 {
		t.Fatalf("expected a non-trivial cycle path, got %v", path)
	}
}

func TestInstance_RootNode(t *testing.T) {
	inst := New("PRINT 1", "/src", "/src/main.bas")

	root := inst.Root()
	if root == nil {
		t.Fatal("expected a root node")
	}
	if root.Source() != "PRINT 1" {
		t.Errorf("expected root source 'PRINT 1', got %q", root.Source())
	}
}

func TestInstance_LoadCaches(t *testing.T) {
	inst := New("", "/src", "/src/main.bas")
	inst.nodes["/src/lib.bas"] = NodeNew("/src/lib.bas", "cached")

	n, err := inst.Load("/src/lib.bas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Source() != "cached" {
		t.Errorf("expected cached node to be returned unmodified, got %q", n.Source())
	}
}
