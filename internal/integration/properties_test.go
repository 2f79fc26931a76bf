package integration

import (
	"regexp"
	"strings"
	"testing"
)

var assignedLHS = regexp.MustCompile(`(%[A-Za-z0-9_.]+)\s*=[lwsd]?\s`)

// TestPropertySSAFreshness covers spec.md §8 P7: every SSA identifier —
// compiler-minted %tN temps and mapper-named %var_/%arr_/%gosub_ret_slot
// identifiers alike — appears as the LHS of at most one assignment within
// a single emitted function body.
func TestPropertySSAFreshness(t *testing.T) {
	sources := map[string]string{
		"paramShadowsGlobal": `DIM m AS INTEGER
m = 100
PRINT Test(1,2)
FUNCTION Test(m AS INTEGER, n AS INTEGER) AS INTEGER
  Test = m + n
END FUNCTION
`,
		"recursion": `FUNCTION Fact(n AS INTEGER) AS INTEGER
  IF n <= 1 THEN
    Fact = 1
  ELSE
    Fact = n * Fact(n - 1)
  END IF
END FUNCTION
PRINT Fact(5)
`,
		"gosubFanOut": `GOSUB Worker
GOSUB Worker
PRINT "done"
GOTO Skip
Worker:
  PRINT "working"
  RETURN
Skip:
PRINT "bye"
`,
		"tryCatchFinally": `TRY
  THROW 11
CATCH 9, 11
  PRINT "caught "; ERR()
FINALLY
  PRINT "cleanup"
END TRY
PRINT "after"
`,
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			il := compile(t, src)
			for _, fn := range functionBodies(il) {
				seen := map[string]int{}
				for _, m := range assignedLHS.FindAllStringSubmatch(fn, -1) {
					seen[m[1]]++
				}
				for ident, n := range seen {
					if n > 1 {
						t.Fatalf("identifier %s assigned %d times in one function body:\n%s", ident, n, fn)
					}
				}
			}
		})
	}
}

// TestPropertyDeterminism covers spec.md §8 P8: emitting the identical
// cfg.Program/symbols.Table pair twice produces byte-identical IL text.
func TestPropertyDeterminism(t *testing.T) {
	src := `DIM i%
i% = 3
SELECT CASE i%
  CASE 1.5
    PRINT "one-point-five"
  CASE 2 TO 5
    PRINT "small"
  CASE ELSE
    PRINT "other"
END SELECT
FOR i% = 1 TO 10 STEP 2
  PRINT i%
NEXT i%
`
	first, table, program := compileWithTable(t, src)
	second := reEmit(t, table, program)
	if first != second {
		t.Fatalf("two Emit() calls over the identical program diverged:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

// TestPropertyArrayBoundsRoundTrip covers spec.md §8 P9: DIM, then ERASE,
// then REDIM with new bounds rewrites the descriptor's stored bounds/dims
// to exactly the new literal values, with no leaked prior state.
func TestPropertyArrayBoundsRoundTrip(t *testing.T) {
	src := `DIM A(1 TO 10) AS INTEGER
ERASE A
REDIM A(2 TO 20) AS INTEGER
`
	il := compile(t, src)

	if !strings.Contains(il, "array_descriptor_alloc") {
		t.Fatalf("missing initial DIM allocation:\n%s", il)
	}
	if !strings.Contains(il, "array_descriptor_erase") {
		t.Fatalf("missing ERASE call:\n%s", il)
	}
	if n := strings.Count(il, "array_descriptor_alloc"); n != 2 {
		t.Fatalf("DIM allocates once and REDIM without PRESERVE erases and allocates again; want 2 allocs total, got %d:\n%s", n, il)
	}
	if !strings.Contains(il, "2") || !strings.Contains(il, "20") {
		t.Fatalf("expected the REDIM's new bounds 2/20 to appear in the emitted stores:\n%s", il)
	}
}

// functionBodies splits il on its "function ... {" / "\n}\n" markers,
// returning the full text of each individual function (so properties can
// be checked per-function rather than across the whole program, since QBE
// SSA freshness is a per-function invariant — a temp name may legally
// repeat across two different functions).
func functionBodies(il string) []string {
	var out []string
	rest := il
	for {
		idx := strings.Index(rest, "function ")
		if idx < 0 {
			break
		}
		rest = rest[idx:]
		end := strings.Index(rest, "\n}\n")
		if end < 0 {
			out = append(out, rest)
			break
		}
		out = append(out, rest[:end+3])
		rest = rest[end+3:]
	}
	return out
}
