package models

import (
	"fmt"
	"go/token"
)

// Span identifies a region of a source file. Lines and columns are 1-based.
type Span struct {
	File      string // path of the file the span belongs to
	Line      int    // first line
	Column    int    // first column
	EndLine   int    // last line
	EndColumn int    // column just past the last character
}

// SpanFromPositions builds a span from two token positions.
func SpanFromPositions(start, end token.Position) Span {
	return Span{
		File:      start.Filename,
		Line:      start.Line,
		Column:    start.Column,
		EndLine:   end.Line,
		EndColumn: end.Column,
	}
}

// SpanAt returns a span starting at file:line:column covering width columns.
func SpanAt(file string, line, column, width int) Span {
	return Span{
		File:      file,
		Line:      line,
		Column:    column,
		EndLine:   line,
		EndColumn: column + width,
	}
}

// String returns the span formatted as file:line:column.
func (s Span) String() string {
	if s.File == "" {
		return "unknown location"
	}
	if s.Line == 0 {
		return s.File
	}
	if s.Column == 0 {
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsZero reports whether the span carries no location at all.
func (s Span) IsZero() bool {
	return s == Span{}
}

// Before orders spans by file, then line, then column.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Column < other.Column
}

// Width returns the number of columns covered by a single-line span.
func (s Span) Width() int {
	if s.EndLine != s.Line || s.EndColumn <= s.Column {
		return 1
	}
	return s.EndColumn - s.Column
}
