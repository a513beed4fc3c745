package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
)

var topLevelLabels = []string{
	"model declaration",
	"enum declaration",
	"source definition",
	"generator definition",
	"type alias",
	"end of input",
}

// Parse consumes the full source text once and builds the syntax tree. On
// failure the returned error is a *diag.ErrorCollection holding every
// diagnostic found; a syntax error inside one block does not abort the
// remaining blocks.
func Parse(source string) (*ast.SchemaAst, error) {
	tokens, err := tokenize(source)
	if err != nil {
		errs := diag.NewCollection()
		errs.PushError(err)
		return nil, errs
	}
	p := &parser{tokens: tokens, end: len(source), errs: diag.NewCollection()}
	schema := p.parseSchema()
	if p.errs.HasErrors() {
		return nil, p.errs
	}
	return schema, nil
}

type parser struct {
	tokens []lexer.Token
	pos    int
	end    int
	errs   *diag.ErrorCollection
}

func (p *parser) parseSchema() *ast.SchemaAst {
	schema := &ast.SchemaAst{}
	for !p.atEnd() {
		doc := p.collectDocs()
		if p.atEnd() {
			break
		}
		tok := p.current()
		if tok.Type != tokIdent {
			p.errs.Push(diag.NewParserError(topLevelLabels, spanForToken(tok)))
			p.recoverTop()
			continue
		}
		switch tok.Value {
		case "model":
			schema.Tops = append(schema.Tops, p.parseModel(doc))
		case "enum":
			schema.Tops = append(schema.Tops, p.parseEnum(doc))
		case "datasource":
			schema.Tops = append(schema.Tops, p.parseSourceConfig(doc))
		case "generator":
			schema.Tops = append(schema.Tops, p.parseGeneratorConfig(doc))
		case "type":
			schema.Tops = append(schema.Tops, p.parseTypeAlias(doc))
		default:
			p.errs.Push(diag.NewValidationError(
				fmt.Sprintf("Unknown top-level declaration `%s`. Expected one of: model, enum, datasource, generator, type.", tok.Value),
				spanForToken(tok)))
			p.advance()
			p.recoverTop()
		}
	}
	return schema
}

func (p *parser) parseModel(doc *ast.Comment) *ast.Model {
	start := p.advanceTok()
	model := &ast.Model{Documentation: doc}
	nameTok, ok := p.expect(tokIdent, "model name")
	if ok {
		model.Name = identFrom(nameTok)
	}
	if _, ok := p.expect(tokLBrace, "`{`"); !ok {
		p.recoverTop()
		model.Span = diag.NewSpan(start.Pos.Offset, p.lastEnd())
		return model
	}
	for !p.atEnd() && !p.is(tokRBrace) {
		fieldDoc := p.collectDocs()
		switch {
		case p.is(tokBlockAttr):
			p.advance()
			if attr := p.parseAttributeBody(); attr != nil {
				model.Attributes = append(model.Attributes, attr)
			}
		case p.is(tokIdent):
			model.Fields = append(model.Fields, p.parseField(fieldDoc))
		case p.is(tokRBrace) || p.atEnd():
		default:
			p.errs.Push(diag.NewParserError([]string{"field declaration", "block attribute", "end of model block"}, spanForToken(p.current())))
			p.advance()
		}
	}
	closing, _ := p.expect(tokRBrace, "`}`")
	model.Span = diag.NewSpan(start.Pos.Offset, closing.Pos.Offset+len(closing.Value))
	return model
}

func (p *parser) parseField(doc *ast.Comment) *ast.Field {
	nameTok := p.advanceTok()
	field := &ast.Field{Name: identFrom(nameTok), Documentation: doc}

	// Legacy `name: Type` declarations still parse, with a migration hint.
	if p.is(tokColon) {
		colon := p.advanceTok()
		p.errs.Push(diag.NewLegacyParserError("Field declarations don't require a `:`.", spanForToken(colon)))
	}

	switch {
	case p.is(tokLBracket):
		open := p.advanceTok()
		typeTok, ok := p.expect(tokIdent, "type name")
		if !ok {
			field.Span = diag.NewSpan(nameTok.Pos.Offset, p.lastEnd())
			return field
		}
		closing, _ := p.expect(tokRBracket, "`]`")
		p.errs.Push(diag.NewLegacyParserError("To specify a list, please use `Type[]` instead of `[Type]`.",
			diag.NewSpan(open.Pos.Offset, closing.Pos.Offset+len(closing.Value))))
		field.FieldType = identFrom(typeTok)
		field.Arity = ast.List
	case p.is(tokIdent):
		typeTok := p.advanceTok()
		field.FieldType = identFrom(typeTok)
		if p.is(tokLBracket) {
			p.advance()
			p.expect(tokRBracket, "`]`")
			field.Arity = ast.List
		} else if p.is(tokQuestion) {
			p.advance()
			field.Arity = ast.Optional
		}
	default:
		p.errs.Push(diag.NewParserError([]string{"field type"}, spanForToken(p.current())))
		field.Span = diag.NewSpan(nameTok.Pos.Offset, p.lastEnd())
		return field
	}

	if p.is(tokExclaim) {
		mark := p.advanceTok()
		p.errs.Push(diag.NewLegacyParserError("Fields are required by default, `!` is no longer required.", spanForToken(mark)))
	}

	for p.is(tokFieldAttr) {
		p.advance()
		if attr := p.parseAttributeBody(); attr != nil {
			field.Attributes = append(field.Attributes, attr)
		}
	}
	field.Span = diag.NewSpan(nameTok.Pos.Offset, p.lastEnd())
	return field
}

func (p *parser) parseEnum(doc *ast.Comment) *ast.Enum {
	start := p.advanceTok()
	enum := &ast.Enum{Documentation: doc}
	nameTok, ok := p.expect(tokIdent, "enum name")
	if ok {
		enum.Name = identFrom(nameTok)
	}
	if _, ok := p.expect(tokLBrace, "`{`"); !ok {
		p.recoverTop()
		enum.Span = diag.NewSpan(start.Pos.Offset, p.lastEnd())
		return enum
	}
	for !p.atEnd() && !p.is(tokRBrace) {
		valueDoc := p.collectDocs()
		switch {
		case p.is(tokBlockAttr):
			p.advance()
			if attr := p.parseAttributeBody(); attr != nil {
				enum.Attributes = append(enum.Attributes, attr)
			}
		case p.is(tokIdent):
			valueTok := p.advanceTok()
			value := &ast.EnumValue{
				Name:          identFrom(valueTok),
				Documentation: valueDoc,
				Span:          spanForToken(valueTok),
			}
			for p.is(tokFieldAttr) {
				p.advance()
				if attr := p.parseAttributeBody(); attr != nil {
					value.Attributes = append(value.Attributes, attr)
				}
			}
			// A doc comment on the same line documents this value.
			if p.is(tokDocComment) && p.current().Pos.Line == valueTok.Pos.Line {
				value.Documentation = appendDoc(value.Documentation, docText(p.advanceTok().Value))
			}
			enum.Values = append(enum.Values, value)
		default:
			p.errs.Push(diag.NewParserError([]string{"enum value", "block attribute", "end of enum block"}, spanForToken(p.current())))
			p.advance()
		}
	}
	closing, _ := p.expect(tokRBrace, "`}`")
	enum.Span = diag.NewSpan(start.Pos.Offset, closing.Pos.Offset+len(closing.Value))
	return enum
}

func (p *parser) parseSourceConfig(doc *ast.Comment) *ast.SourceConfig {
	start := p.advanceTok()
	source := &ast.SourceConfig{Documentation: doc}
	nameTok, ok := p.expect(tokIdent, "datasource name")
	if ok {
		source.Name = identFrom(nameTok)
	}
	source.Properties = p.parseConfigBody()
	source.Span = diag.NewSpan(start.Pos.Offset, p.lastEnd())
	return source
}

func (p *parser) parseGeneratorConfig(doc *ast.Comment) *ast.GeneratorConfig {
	start := p.advanceTok()
	generator := &ast.GeneratorConfig{Documentation: doc}
	nameTok, ok := p.expect(tokIdent, "generator name")
	if ok {
		generator.Name = identFrom(nameTok)
	}
	generator.Properties = p.parseConfigBody()
	generator.Span = diag.NewSpan(start.Pos.Offset, p.lastEnd())
	return generator
}

func (p *parser) parseConfigBody() []*ast.ConfigProperty {
	if _, ok := p.expect(tokLBrace, "`{`"); !ok {
		p.recoverTop()
		return nil
	}
	var props []*ast.ConfigProperty
	for !p.atEnd() && !p.is(tokRBrace) {
		p.collectDocs()
		if !p.is(tokIdent) {
			if p.is(tokRBrace) || p.atEnd() {
				break
			}
			p.errs.Push(diag.NewParserError([]string{"key-value pair", "end of block"}, spanForToken(p.current())))
			p.advance()
			continue
		}
		keyTok := p.advanceTok()
		if _, ok := p.expect(tokEqual, "`=`"); !ok {
			p.advance()
			continue
		}
		value := p.parseExpression()
		if value == nil {
			p.advance()
			continue
		}
		props = append(props, &ast.ConfigProperty{
			Name:  identFrom(keyTok),
			Value: value,
			Span:  diag.NewSpan(keyTok.Pos.Offset, value.ExprSpan().End),
		})
	}
	p.expect(tokRBrace, "`}`")
	return props
}

func (p *parser) parseTypeAlias(doc *ast.Comment) *ast.TypeAlias {
	start := p.advanceTok()
	alias := &ast.TypeAlias{Field: ast.Field{Documentation: doc}}
	nameTok, ok := p.expect(tokIdent, "type alias name")
	if ok {
		alias.Name = identFrom(nameTok)
	}
	if _, ok := p.expect(tokEqual, "`=`"); !ok {
		p.recoverTop()
		alias.Span = diag.NewSpan(start.Pos.Offset, p.lastEnd())
		return alias
	}
	baseTok, ok := p.expect(tokIdent, "base type")
	if ok {
		alias.FieldType = identFrom(baseTok)
	}
	for p.is(tokFieldAttr) {
		p.advance()
		if attr := p.parseAttributeBody(); attr != nil {
			alias.Attributes = append(alias.Attributes, attr)
		}
	}
	alias.Span = diag.NewSpan(start.Pos.Offset, p.lastEnd())
	return alias
}

// parseAttributeBody parses the attribute after its `@` or `@@` sigil has
// been consumed. Attribute names may be dotted for connector namespaces.
func (p *parser) parseAttributeBody() *ast.Attribute {
	nameTok, ok := p.expect(tokIdent, "attribute name")
	if !ok {
		return nil
	}
	name := nameTok.Value
	nameEnd := nameTok.Pos.Offset + len(nameTok.Value)
	for p.is(tokDot) {
		p.advance()
		part, ok := p.expect(tokIdent, "attribute name")
		if !ok {
			break
		}
		name += "." + part.Value
		nameEnd = part.Pos.Offset + len(part.Value)
	}
	attr := &ast.Attribute{Name: ast.Identifier{Name: name, Span: diag.NewSpan(nameTok.Pos.Offset, nameEnd)}}
	if !p.is(tokLParen) {
		attr.Span = attr.Name.Span
		return attr
	}
	p.advance()
	for !p.atEnd() && !p.is(tokRParen) {
		arg := p.parseArgument()
		if arg == nil {
			p.advance()
			continue
		}
		attr.Arguments = append(attr.Arguments, arg)
		if p.is(tokComma) {
			p.advance()
			continue
		}
		if !p.is(tokRParen) {
			p.errs.Push(diag.NewParserError([]string{"`,`", "`)`"}, spanForToken(p.current())))
			p.advance()
		}
	}
	closing, _ := p.expect(tokRParen, "`)`")
	attr.Span = diag.NewSpan(nameTok.Pos.Offset, closing.Pos.Offset+len(closing.Value))
	return attr
}

func (p *parser) parseArgument() *ast.Argument {
	arg := &ast.Argument{}
	startOffset := p.current().Pos.Offset
	if p.is(tokIdent) && p.peekIs(tokColon) {
		nameTok := p.advanceTok()
		p.advance()
		arg.Name = identFrom(nameTok)
	}
	value := p.parseExpression()
	if value == nil {
		return nil
	}
	arg.Value = value
	arg.Span = diag.NewSpan(startOffset, value.ExprSpan().End)
	return arg
}

func (p *parser) parseExpression() ast.Expression {
	tok := p.current()
	switch {
	case tok.Type == tokString:
		p.advance()
		return &ast.StringValue{Value: unquoteString(tok.Value), Span: spanForToken(tok)}
	case tok.Type == tokNumber:
		p.advance()
		return &ast.NumericValue{Value: tok.Value, Span: spanForToken(tok)}
	case tok.Type == tokLBracket:
		return p.parseArrayExpression()
	case tok.Type == tokIdent && p.peekIs(tokLParen):
		return p.parseFunctionExpression()
	case tok.Type == tokIdent:
		p.advance()
		if tok.Value == "true" || tok.Value == "false" {
			return &ast.BooleanValue{Value: tok.Value, Span: spanForToken(tok)}
		}
		return &ast.ConstantValue{Value: tok.Value, Span: spanForToken(tok)}
	default:
		p.errs.Push(diag.NewParserError([]string{"expression"}, spanForToken(tok)))
		return nil
	}
}

func (p *parser) parseFunctionExpression() ast.Expression {
	nameTok := p.advanceTok()
	p.advance()
	fn := &ast.Function{Name: nameTok.Value}
	for !p.atEnd() && !p.is(tokRParen) {
		arg := p.parseExpression()
		if arg == nil {
			p.advance()
			continue
		}
		fn.Args = append(fn.Args, arg)
		if p.is(tokComma) {
			p.advance()
		}
	}
	closing, _ := p.expect(tokRParen, "`)`")
	fn.Span = diag.NewSpan(nameTok.Pos.Offset, closing.Pos.Offset+len(closing.Value))
	return fn
}

func (p *parser) parseArrayExpression() ast.Expression {
	open := p.advanceTok()
	arr := &ast.Array{}
	for !p.atEnd() && !p.is(tokRBracket) {
		el := p.parseExpression()
		if el == nil {
			p.advance()
			continue
		}
		arr.Elements = append(arr.Elements, el)
		if p.is(tokComma) {
			p.advance()
		}
	}
	closing, _ := p.expect(tokRBracket, "`]`")
	arr.Span = diag.NewSpan(open.Pos.Offset, closing.Pos.Offset+len(closing.Value))
	return arr
}

// recoverTop skips ahead to the next plausible top-level declaration so one
// malformed block does not cascade into the rest of the document.
func (p *parser) recoverTop() {
	depth := 0
	for !p.atEnd() {
		tok := p.current()
		switch {
		case tok.Type == tokLBrace:
			depth++
		case tok.Type == tokRBrace:
			if depth <= 1 {
				p.advance()
				return
			}
			depth--
		case depth == 0 && tok.Type == tokIdent && isTopKeyword(tok.Value):
			return
		}
		p.advance()
	}
}

func isTopKeyword(word string) bool {
	switch word {
	case "model", "enum", "datasource", "generator", "type":
		return true
	}
	return false
}

func (p *parser) collectDocs() *ast.Comment {
	var lines []string
	for p.is(tokDocComment) {
		lines = append(lines, docText(p.advanceTok().Value))
	}
	if lines == nil {
		return nil
	}
	return &ast.Comment{Text: strings.Join(lines, "\n")}
}

func appendDoc(doc *ast.Comment, line string) *ast.Comment {
	if doc == nil {
		return &ast.Comment{Text: line}
	}
	return &ast.Comment{Text: doc.Text + "\n" + line}
}

func identFrom(tok lexer.Token) ast.Identifier {
	return ast.Identifier{Name: tok.Value, Span: spanForToken(tok)}
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) current() lexer.Token {
	if p.atEnd() {
		return lexer.Token{Type: lexer.EOF, Pos: lexer.Position{Offset: p.end}}
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.Token {
	if p.pos+1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF, Pos: lexer.Position{Offset: p.end}}
	}
	return p.tokens[p.pos+1]
}

func (p *parser) is(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

func (p *parser) peekIs(tt lexer.TokenType) bool {
	return p.peek().Type == tt
}

func (p *parser) advance() {
	if !p.atEnd() {
		p.pos++
	}
}

func (p *parser) advanceTok() lexer.Token {
	tok := p.current()
	p.advance()
	return tok
}

// lastEnd is the end offset of the most recently consumed token.
func (p *parser) lastEnd() int {
	if p.pos == 0 {
		return 0
	}
	prev := p.tokens[p.pos-1]
	return prev.Pos.Offset + len(prev.Value)
}

// expect consumes a token of the wanted type or records a positional error
// naming the construct that would have been legal. The cursor does not move
// on failure; recovery is the caller's decision.
func (p *parser) expect(tt lexer.TokenType, label string) (lexer.Token, bool) {
	if p.is(tt) {
		return p.advanceTok(), true
	}
	p.errs.Push(diag.NewParserError([]string{label}, spanForToken(p.current())))
	return p.current(), false
}
