// Package parser turns schema source text into the syntax tree defined in
// the ast package. Tokenization is grammar-driven; parsing is a hand-written
// recursive descent that accumulates diagnostics instead of stopping at the
// first problem.
package parser

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/datamodel-lang/go-datamodel/diag"
)

// Token rules for the schema language. Keywords are not lexed specially:
// `model`, `enum` and friends are ordinary identifiers recognized by
// position, so a field may legally be named `type`. The number pattern stops
// at a word boundary so that a name like `2fast` lexes as one identifier and
// gets the proper naming diagnostic later.
var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "DocComment", Pattern: `///[^\n]*`},
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "BlockAttr", Pattern: `@@`},
	{Name: "FieldAttr", Pattern: `@`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Equal", Pattern: `=`},
	{Name: "Question", Pattern: `\?`},
	{Name: "Exclaim", Pattern: `!`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?\b`},
	{Name: "Ident", Pattern: `[\p{L}\p{N}][\p{L}\p{N}_-]*`},
	{Name: "Newline", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var symbols = schemaLexer.Symbols()

var (
	tokDocComment = symbols["DocComment"]
	tokComment    = symbols["Comment"]
	tokBlockAttr  = symbols["BlockAttr"]
	tokFieldAttr  = symbols["FieldAttr"]
	tokLBrace     = symbols["LBrace"]
	tokRBrace     = symbols["RBrace"]
	tokLParen     = symbols["LParen"]
	tokRParen     = symbols["RParen"]
	tokLBracket   = symbols["LBracket"]
	tokRBracket   = symbols["RBracket"]
	tokColon      = symbols["Colon"]
	tokComma      = symbols["Comma"]
	tokDot        = symbols["Dot"]
	tokEqual      = symbols["Equal"]
	tokQuestion   = symbols["Question"]
	tokExclaim    = symbols["Exclaim"]
	tokString     = symbols["String"]
	tokNumber     = symbols["Number"]
	tokIdent      = symbols["Ident"]
	tokNewline    = symbols["Newline"]
	tokWhitespace = symbols["Whitespace"]
)

// tokenize lexes the whole source, dropping whitespace and plain comments.
// Doc comments survive so the parser can attach documentation.
func tokenize(source string) ([]lexer.Token, error) {
	lx, err := schemaLexer.LexString("", source)
	if err != nil {
		return nil, lexFailure(err)
	}
	all, err := lexer.ConsumeAll(lx)
	if err != nil {
		return nil, lexFailure(err)
	}
	out := make([]lexer.Token, 0, len(all))
	for _, tok := range all {
		if tok.Type == tokWhitespace || tok.Type == tokNewline || tok.Type == tokComment {
			continue
		}
		if tok.EOF() {
			continue
		}
		out = append(out, tok)
	}
	return out, nil
}

func lexFailure(err error) diag.Error {
	type positioned interface {
		Position() lexer.Position
		Message() string
	}
	if perr, ok := err.(positioned); ok {
		offset := perr.Position().Offset
		return diag.NewParserError([]string{"valid token"}, diag.NewSpan(offset, offset+1))
	}
	return diag.NewParserError([]string{"valid token"}, diag.NewSpan(0, 0))
}

func spanForToken(tok lexer.Token) diag.Span {
	return diag.NewSpan(tok.Pos.Offset, tok.Pos.Offset+len(tok.Value))
}

// unquoteString resolves the escapes in a raw string token, quotes included.
func unquoteString(raw string) string {
	if s, err := strconv.Unquote(raw); err == nil {
		return s
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(raw, "\""), "\"")
	replacer := strings.NewReplacer(`\"`, `"`, `\n`, "\n", `\\`, `\`)
	return replacer.Replace(trimmed)
}

// docText strips the comment markers from a doc comment token.
func docText(raw string) string {
	text := strings.TrimPrefix(raw, "///")
	return strings.TrimPrefix(text, " ")
}
