package diag

import "testing"

func TestNewContext(t *testing.T) {
	t.Run("creates context with file path and empty state", func(t *testing.T) {
		ctx := New("main.bas")

		if ctx == nil {
			t.Fatal("expected non-nil Context")
		}
		if ctx.FilePath() != "main.bas" {
			t.Errorf("expected file path 'main.bas', got '%s'", ctx.FilePath())
		}
		if ctx.Phase() != "" {
			t.Errorf("expected empty phase, got '%s'", ctx.Phase())
		}
		if ctx.Count() != 0 {
			t.Errorf("expected 0 entries, got %d", ctx.Count())
		}
	})
}

func TestContext_Phases(t *testing.T) {
	t.Run("SetPhase and Phase", func(t *testing.T) {
		ctx := New("main.bas")

		ctx.SetPhase("cfg-build")
		if ctx.Phase() != "cfg-build" {
			t.Errorf("expected phase 'cfg-build', got '%s'", ctx.Phase())
		}

		ctx.SetPhase("emit")
		if ctx.Phase() != "emit" {
			t.Errorf("expected phase 'emit', got '%s'", ctx.Phase())
		}
	})

	t.Run("entries inherit the current phase", func(t *testing.T) {
		ctx := New("main.bas")

		ctx.SetPhase("semantic-analysis")
		ctx.Error(ctx.Loc(1, 0), "undefined GOTO target")

		ctx.SetPhase("cfg-build")
		ctx.Warning(ctx.Loc(5, 3), "unreachable block")

		entries := ctx.Entries()
		if entries[0].Phase() != "semantic-analysis" {
			t.Errorf("expected first entry phase 'semantic-analysis', got '%s'", entries[0].Phase())
		}
		if entries[1].Phase() != "cfg-build" {
			t.Errorf("expected second entry phase 'cfg-build', got '%s'", entries[1].Phase())
		}
	})
}

func TestContext_Location(t *testing.T) {
	ctx := New("main.bas")
	loc := ctx.Loc(10, 5)
	if loc.FilePath() != "main.bas" || loc.Line() != 10 || loc.Column() != 5 {
		t.Errorf("unexpected location: %+v", loc)
	}

	included := ctx.LocIn("lib.bas", 2, 1)
	if included.FilePath() != "lib.bas" {
		t.Errorf("expected included file path 'lib.bas', got '%s'", included.FilePath())
	}
}

func TestContext_Filtering(t *testing.T) {
	ctx := New("main.bas")
	ctx.Error(ctx.Loc(1, 1), "boom")
	ctx.Warning(ctx.Loc(2, 1), "hmm")
	ctx.Info(ctx.Loc(3, 1), "fyi")
	ctx.Trace(ctx.Loc(4, 1), "trace")

	if !ctx.HasErrors() {
		t.Fatal("expected HasErrors to be true")
	}
	if len(ctx.Errors()) != 1 {
		t.Errorf("expected 1 error entry, got %d", len(ctx.Errors()))
	}
	if len(ctx.Warnings()) != 1 {
		t.Errorf("expected 1 warning entry, got %d", len(ctx.Warnings()))
	}
	if ctx.Count() != 4 {
		t.Errorf("expected 4 total entries, got %d", ctx.Count())
	}
}

func TestEntry_Chaining(t *testing.T) {
	ctx := New("main.bas")
	e := ctx.Error(ctx.Loc(7, 2), "division by zero").
		WithSnippet("PRINT 1/0").
		WithHint("guard the divisor before dividing")

	if e.Snippet() != "PRINT 1/0" {
		t.Errorf("expected snippet to be set, got '%s'", e.Snippet())
	}
	if e.Hint() == "" {
		t.Error("expected hint to be set")
	}
	if e.String() == "" {
		t.Error("expected non-empty String() representation")
	}
}
