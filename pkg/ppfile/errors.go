// Package ppfile parses the line-oriented PEST-style input files of the
// factor engine: pilot points, mesh nodes, zone assignments, zone-structure
// mappings and the nested STRUCTURE/VARIOGRAM definition file. Every parser
// takes a file path and returns fully-typed records or a *ParseError; no
// parser ever returns partial or sentineled data.
package ppfile

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed or unreadable input file. Line is 1-based
// and zero when the failure is not tied to a specific line (e.g. the file
// could not be opened).
type ParseError struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// isComment reports whether a line is blank or starts with one of the
// given comment prefixes. Prefixes are matched case-sensitively against
// the first non-blank character.
func isComment(line string, prefixes string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	return strings.ContainsRune(prefixes, rune(trimmed[0]))
}
