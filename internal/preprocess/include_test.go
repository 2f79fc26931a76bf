package preprocess

import (
	"os"
	"strings"
	"testing"
)

func TestExpand_NoIncludes(t *testing.T) {
	res, err := Expand("/src/main.bas", "10 PRINT \"hi\"\n20 END")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != "10 PRINT \"hi\"\n20 END" {
		t.Errorf("expected source unchanged, got %q", res.Source)
	}
	if len(res.Origins) != 2 {
		t.Fatalf("expected 2 origin entries, got %d", len(res.Origins))
	}
	if res.Origin(1) != 1 || res.Origin(2) != 2 {
		t.Errorf("unexpected origins: %+v", res.Origins)
	}
}

func TestParseIncludeLine(t *testing.T) {
	cases := []struct {
		in, kind, target string
		ok               bool
	}{
		{`INCLUDE "lib.bas"`, "include", "lib.bas", true},
		{`  include once "util.bas"  `, "include-once", "util.bas", true},
		{`PRINT "INCLUDE fake"`, "", "", false},
		{`INCLUDE lib.bas`, "", "", false},
	}
	for _, c := range cases {
		kind, target, ok := parseIncludeLine(c.in)
		if ok != c.ok || kind != c.kind || target != c.target {
			t.Errorf("parseIncludeLine(%q) = (%q, %q, %v); want (%q, %q, %v)", c.in, kind, target, ok, c.kind, c.target, c.ok)
		}
	}
}

func TestExpand_CycleDetected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/a.bas", "10 INCLUDE \"b.bas\"")
	writeFile(t, dir+"/b.bas", "10 INCLUDE \"a.bas\"")

	_, err := Expand(dir+"/a.bas", "10 INCLUDE \"b.bas\"")
	if err == nil {
		t.Fatal("expected an INCLUDE cycle error")
	}
}

func TestExpand_IncludeOnceDeduplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/util.bas", "100 PRINT \"util\"")

	root := "10 INCLUDE ONCE \"util.bas\"\n20 INCLUDE ONCE \"util.bas\"\n30 END"
	res, err := Expand(dir+"/main.bas", root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := strings.Count(res.Source, "PRINT \"util\""); count != 1 {
		t.Errorf("expected util.bas to be inlined exactly once, got %d times in %q", count, res.Source)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
