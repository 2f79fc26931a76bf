// Package preprocess resolves INCLUDE and INCLUDE ONCE statements before a
// BASIC source file reaches the lexer. It is the BASIC analogue of the
// teacher's %include pre-processing pass, rebuilt around internal/depgraph
// for cycle detection instead of the teacher's inline DFS.
package preprocess

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/keurnel/basicqbe/internal/depgraph"
)

// Origin records where one line of flattened, post-INCLUDE source came from.
type Origin struct {
	File string
	Line int // 1-based line number in File.
}

// Result is the output of Expand: the flattened source text ready for the
// lexer, plus an origin for every line so diagnostics can point back at the
// file the user actually wrote.
type Result struct {
	Source  string
	Origins []Origin // Origins[i] is the origin of line i+1 of Source.
}

// Origin returns the 1-based original line number for the given 1-based
// flattened line number. It satisfies the LineMapper contract the semantic
// analyzer (internal/semantic) depends on. Returns -1 for an out-of-range
// line.
func (r *Result) Origin(line int) int {
	if line < 1 || line > len(r.Origins) {
		return -1
	}
	return r.Origins[line-1].Line
}

// OriginFile returns the source file a flattened line originated from.
func (r *Result) OriginFile(line int) string {
	if line < 1 || line > len(r.Origins) {
		return ""
	}
	return r.Origins[line-1].File
}

// Expand reads rootPath, resolves every INCLUDE / INCLUDE ONCE statement it
// (transitively) contains, and returns the flattened source with an origin
// trail. INCLUDE ONCE files are expanded at most once per compilation,
// regardless of how many files name them; a plain INCLUDE re-expands every
// time it is reached, matching a textual-substitution semantics.
//
// An INCLUDE cycle (directly or transitively including the file currently
// being expanded) is reported as an error rather than looping forever.
func Expand(rootPath, rootSource string) (*Result, error) {
	cwd := filepath.Dir(rootPath)
	graph := depgraph.New(rootSource, cwd, rootPath)

	onceSeen := make(map[string]bool)
	inProgress := make(map[string]bool)
	inProgress[rootPath] = true

	lines, origins, err := expandSource(graph, rootPath, rootSource, cwd, onceSeen, inProgress)
	if err != nil {
		return nil, err
	}
	return &Result{Source: strings.Join(lines, "\n"), Origins: origins}, nil
}

func expandSource(graph *depgraph.Instance, file, source, cwd string, onceSeen, inProgress map[string]bool) ([]string, []Origin, error) {
	var outLines []string
	var outOrigins []Origin

	srcLines := strings.Split(source, "\n")
	for lineNo, raw := range srcLines {
		kind, target, ok := parseIncludeLine(raw)
		if !ok {
			outLines = append(outLines, raw)
			outOrigins = append(outOrigins, Origin{File: file, Line: lineNo + 1})
			continue
		}

		resolved := target
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(cwd, target)
		}

		if kind == "include-once" && onceSeen[resolved] {
			continue
		}

		if inProgress[resolved] {
			return nil, nil, fmt.Errorf("preprocess: INCLUDE cycle detected: %s includes %s which is already being expanded", file, resolved)
		}

		node, err := graph.Load(resolved)
		if err != nil {
			return nil, nil, err
		}
		fromNode, _ := graph.Resolve(file)
		if fromNode == nil {
			fromNode = depgraph.NodeNew(file, source)
		}
		graph.LinkInclude(kind, fromNode, node)

		if cyclePath := graph.CyclePath(); cyclePath != nil {
			return nil, nil, fmt.Errorf("preprocess: INCLUDE cycle detected: %s", strings.Join(cyclePath, " -> "))
		}

		onceSeen[resolved] = true
		inProgress[resolved] = true
		childLines, childOrigins, err := expandSource(graph, resolved, node.Source(), filepath.Dir(resolved), onceSeen, inProgress)
		delete(inProgress, resolved)
		if err != nil {
			return nil, nil, err
		}

		outLines = append(outLines, childLines...)
		outOrigins = append(outOrigins, childOrigins...)
	}

	return outLines, outOrigins, nil
}

// parseIncludeLine recognizes:
//
//	INCLUDE "path"
//	INCLUDE ONCE "path"
//
// case-insensitively, with arbitrary leading whitespace and an optional
// leading line number (which is not carried into the expanded source).
// Returns ok == false for any other line, which is passed through unchanged.
func parseIncludeLine(raw string) (kind, target string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimSpace(strings.TrimLeft(trimmed, "0123456789"))
	upper := strings.ToUpper(trimmed)

	kind = "include"
	rest := ""
	switch {
	case strings.HasPrefix(upper, "INCLUDE ONCE "):
		kind = "include-once"
		rest = strings.TrimSpace(trimmed[len("INCLUDE ONCE "):])
	case strings.HasPrefix(upper, "INCLUDE "):
		rest = strings.TrimSpace(trimmed[len("INCLUDE "):])
	default:
		return "", "", false
	}

	target, quoted := unquote(rest)
	if !quoted {
		return "", "", false
	}
	return kind, target, true
}

func unquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' {
		return "", false
	}
	end := strings.LastIndexByte(s, '"')
	if end <= 0 {
		return "", false
	}
	val, err := strconv.Unquote(s[:end+1])
	if err != nil {
		return s[1:end], true
	}
	return val, true
}
