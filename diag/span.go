// Package diag carries source positions and the diagnostics produced by the
// schema pipeline. Every error points back into the original source text via a
// byte-offset span so editors can underline the offending range.
package diag

import "fmt"

// Span is a half-open byte range [Start, End) into the source text. Spans are
// attached to syntax nodes for diagnostics only and never influence semantics.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// EmptySpan is used for nodes synthesized after parsing, which have no
// corresponding source text.
func EmptySpan() Span {
	return Span{}
}

func (s Span) ContainsOffset(offset int) bool {
	return offset >= s.Start && offset < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d - %d]", s.Start, s.End)
}

// LineAndColumn converts the span start into a 1-based line and column pair
// for the given source text.
func (s Span) LineAndColumn(text string) (line, column int) {
	line, column = 1, 1
	for i := 0; i < s.Start && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
