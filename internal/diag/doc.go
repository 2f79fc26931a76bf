// Package diag provides a passive, append-only data structure that
// accumulates diagnostic entries (errors, warnings, info, traces) as the
// compiler pipeline progresses. It does not perform I/O or formatting — a
// separate renderer (cmd/basicqbe) consumes the entries to produce output.
package diag
