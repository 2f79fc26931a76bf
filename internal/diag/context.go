package diag

import "sync"

// Context is a passive, append-only data structure that accumulates
// diagnostic entries as the compiler pipeline progresses. It is
// thread-safe for concurrent writes, although the core itself (§5 of
// SPEC_FULL.md) never writes concurrently — the lock exists so a future
// parallel front-end (multi-file INCLUDE resolution, say) can share one
// Context safely.
//
// Create a Context exclusively through New(). It is passed through the
// pipeline by reference — every stage (lexer, parser, semantic analyzer,
// CFG builder, emitter) records entries into the same context.
//
// The context does not perform I/O or formatting. cmd/basicqbe renders the
// entries to stderr.
type Context struct {
	filePath string
	phase    string
	entries  []*Entry
	mu       sync.Mutex
}

// New returns a *Context initialised with the primary source file path, an
// empty entry list, and no active phase.
func New(filePath string) *Context {
	return &Context{filePath: filePath, entries: make([]*Entry, 0)}
}

// SetPhase sets the current pipeline phase. Subsequent entries are tagged
// with this phase until it is changed again. Conventional phase names:
// "lex", "parse", "semantic-analysis", "cfg-build", "emit".
func (c *Context) SetPhase(name string) {
	c.mu.Lock()
	c.phase = name
	c.mu.Unlock()
}

// Phase returns the current pipeline phase name.
func (c *Context) Phase() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Loc creates a Location using the primary file path from the context.
func (c *Context) Loc(line, column int) Location {
	return Loc(c.filePath, line, column)
}

// LocIn creates a Location with an explicit file path, used for positions
// that originate in an INCLUDEd file.
func (c *Context) LocIn(filePath string, line, column int) Location {
	return Loc(filePath, line, column)
}

func (c *Context) record(severity string, location Location, message string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &Entry{severity: severity, phase: c.phase, message: message, location: location}
	c.entries = append(c.entries, entry)
	return entry
}

// Error records an entry with severity "error" and returns the *Entry for
// optional chaining (WithSnippet, WithHint).
func (c *Context) Error(location Location, message string) *Entry {
	return c.record(SeverityError, location, message)
}

// Warning records an entry with severity "warning".
func (c *Context) Warning(location Location, message string) *Entry {
	return c.record(SeverityWarning, location, message)
}

// Info records an entry with severity "info".
func (c *Context) Info(location Location, message string) *Entry {
	return c.record(SeverityInfo, location, message)
}

// Trace records an entry with severity "trace".
func (c *Context) Trace(location Location, message string) *Entry {
	return c.record(SeverityTrace, location, message)
}

// Entries returns all recorded entries in insertion order.
func (c *Context) Entries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*Entry, len(c.entries))
	copy(result, c.entries)
	return result
}

// Errors returns only entries with severity "error".
func (c *Context) Errors() []*Entry {
	return c.filter(SeverityError)
}

// Warnings returns only entries with severity "warning".
func (c *Context) Warnings() []*Entry {
	return c.filter(SeverityWarning)
}

// HasErrors returns true if at least one "error" entry exists. This is the
// primary check cmd/basicqbe uses to decide the process exit code.
func (c *Context) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the total number of entries.
func (c *Context) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// FilePath returns the primary source file path.
func (c *Context) FilePath() string {
	return c.filePath
}

func (c *Context) filter(severity string) []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result []*Entry
	for _, e := range c.entries {
		if e.severity == severity {
			result = append(result, e)
		}
	}
	return result
}
