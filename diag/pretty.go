package diag

import (
	"fmt"
	"io"
	"strings"
)

// PrettyPrint renders the error with source context and a caret underline,
// in the style of compiler output:
//
//	error: Attribute "@id" is defined twice.
//	  -->  schema.file:3
//	   |
//	 2 |  model User {
//	 3 |    id Int @id @id
//	   |               ^^^
func (e Error) PrettyPrint(w io.Writer, fileName, text string) error {
	lines := strings.Split(text, "\n")
	startLine, startCol := e.span.LineAndColumn(text)

	if _, err := fmt.Fprintf(w, "error: %s\n", e.msg); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  -->  %s:%d\n", fileName, startLine); err != nil {
		return err
	}

	gutter := len(fmt.Sprintf("%d", startLine))
	pad := strings.Repeat(" ", gutter)
	if _, err := fmt.Fprintf(w, "%s | \n", pad); err != nil {
		return err
	}
	if startLine >= 2 {
		if err := printSourceLine(w, gutter, startLine-1, lines[startLine-2]); err != nil {
			return err
		}
	}
	if startLine-1 < len(lines) {
		if err := printSourceLine(w, gutter, startLine, lines[startLine-1]); err != nil {
			return err
		}
		width := e.span.End - e.span.Start
		if width < 1 {
			width = 1
		}
		lineText := lines[startLine-1]
		if remaining := len(lineText) - (startCol - 1); width > remaining && remaining > 0 {
			width = remaining
		}
		underline := strings.Repeat(" ", startCol-1) + strings.Repeat("^", width)
		if _, err := fmt.Fprintf(w, "%s | %s\n", pad, underline); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s | \n", pad)
	return err
}

func printSourceLine(w io.Writer, gutter, number int, line string) error {
	_, err := fmt.Fprintf(w, "%*d | %s\n", gutter, number, line)
	return err
}

func (c *ErrorCollection) PrettyPrint(w io.Writer, fileName, text string) error {
	for _, e := range c.Errors {
		if err := e.PrettyPrint(w, fileName, text); err != nil {
			return err
		}
	}
	return nil
}
