package source

import (
	"fmt"
)

// Span locates an AST node inside a file: 1-based line and column plus the
// length of the region in bytes. The frontend resolves byte offsets before
// handing the tree over, so the analyzer never re-scans source text.
type Span struct {
	File FileID
	Line uint32
	Col  uint32
	Len  uint32
}

func (s Span) Empty() bool {
	return s.Len == 0
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d:%d+%d", s.File, s.Line, s.Col, s.Len)
}

// Before reports whether s starts strictly before other.
// Spans from different files are ordered by FileID.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Col < other.Col
}
