// Package ast defines the syntax tree produced by parsing schema source
// text. Nodes are created once by the parser and never mutated; every node
// carries the byte span it was read from.
package ast

import (
	"github.com/datamodel-lang/go-datamodel/diag"
)

// Top is a top-level item in a schema file: a model, enum, datasource,
// generator, or type alias declaration.
type Top interface {
	NodeName() string
	NodeSpan() diag.Span
	topNode()
}

// SchemaAst is an ordered sequence of top-level items, in document order.
type SchemaAst struct {
	Tops []Top
}

// Comment is accumulated documentation text, without the comment markers.
type Comment struct {
	Text string
}

// Identifier is a name with the span it was read from.
type Identifier struct {
	Name string
	Span diag.Span
}

// Argument is one attribute argument or function argument. An empty Name
// means the argument was passed positionally.
type Argument struct {
	Name  Identifier
	Value Expression
	Span  diag.Span
}

func (a *Argument) IsUnnamed() bool {
	return a.Name.Name == ""
}

// Attribute is an `@name(args)` or `@@name(args)` annotation. Field-level
// and block-level attributes share this node; scope is determined by where
// the attribute is attached.
type Attribute struct {
	Name      Identifier
	Arguments []*Argument
	Span      diag.Span
}

func NewAttribute(name string, args ...*Argument) *Attribute {
	return &Attribute{Name: Identifier{Name: name}, Arguments: args}
}

// FieldArity is a field's declared cardinality.
type FieldArity int

const (
	Required FieldArity = iota
	Optional
	List
)

func (a FieldArity) String() string {
	switch a {
	case Optional:
		return "optional"
	case List:
		return "list"
	default:
		return "required"
	}
}

// Field is one field declaration inside a model, or the payload of a type
// alias. FieldType holds the unresolved type name; resolution happens during
// validation.
type Field struct {
	Name          Identifier
	FieldType     Identifier
	Arity         FieldArity
	Attributes    []*Attribute
	Documentation *Comment
	Span          diag.Span
	CommentedOut  bool
}

func (f *Field) NodeName() string             { return f.Name.Name }
func (f *Field) NodeSpan() diag.Span          { return f.Span }
func (f *Field) NodeAttributes() []*Attribute { return f.Attributes }
func (f *Field) NodeDocumentation() string    { return commentText(f.Documentation) }

// Model is a `model Name { ... }` block.
type Model struct {
	Name          Identifier
	Fields        []*Field
	Attributes    []*Attribute
	Documentation *Comment
	Span          diag.Span
	CommentedOut  bool
}

func (m *Model) NodeName() string             { return m.Name.Name }
func (m *Model) NodeSpan() diag.Span          { return m.Span }
func (m *Model) NodeAttributes() []*Attribute { return m.Attributes }
func (m *Model) NodeDocumentation() string    { return commentText(m.Documentation) }
func (m *Model) topNode()                     {}

func (m *Model) FindField(name string) *Field {
	for _, f := range m.Fields {
		if f.Name.Name == name {
			return f
		}
	}
	return nil
}

// EnumValue is one member of an enum block.
type EnumValue struct {
	Name          Identifier
	Attributes    []*Attribute
	Documentation *Comment
	Span          diag.Span
	CommentedOut  bool
}

func (v *EnumValue) NodeName() string             { return v.Name.Name }
func (v *EnumValue) NodeSpan() diag.Span          { return v.Span }
func (v *EnumValue) NodeAttributes() []*Attribute { return v.Attributes }
func (v *EnumValue) NodeDocumentation() string    { return commentText(v.Documentation) }

// Enum is an `enum Name { ... }` block.
type Enum struct {
	Name          Identifier
	Values        []*EnumValue
	Attributes    []*Attribute
	Documentation *Comment
	Span          diag.Span
}

func (e *Enum) NodeName() string             { return e.Name.Name }
func (e *Enum) NodeSpan() diag.Span          { return e.Span }
func (e *Enum) NodeAttributes() []*Attribute { return e.Attributes }
func (e *Enum) NodeDocumentation() string    { return commentText(e.Documentation) }
func (e *Enum) topNode()                     {}

// ConfigProperty is one `key = value` line in a datasource or generator
// block.
type ConfigProperty struct {
	Name  Identifier
	Value Expression
	Span  diag.Span
}

// SourceConfig is a `datasource Name { ... }` block.
type SourceConfig struct {
	Name          Identifier
	Properties    []*ConfigProperty
	Documentation *Comment
	Span          diag.Span
}

func (s *SourceConfig) NodeName() string          { return s.Name.Name }
func (s *SourceConfig) NodeSpan() diag.Span       { return s.Span }
func (s *SourceConfig) NodeDocumentation() string { return commentText(s.Documentation) }
func (s *SourceConfig) topNode()                  {}

// GeneratorConfig is a `generator Name { ... }` block.
type GeneratorConfig struct {
	Name          Identifier
	Properties    []*ConfigProperty
	Documentation *Comment
	Span          diag.Span
}

func (g *GeneratorConfig) NodeName() string          { return g.Name.Name }
func (g *GeneratorConfig) NodeSpan() diag.Span       { return g.Span }
func (g *GeneratorConfig) NodeDocumentation() string { return commentText(g.Documentation) }
func (g *GeneratorConfig) topNode()                  {}

// TypeAlias is a `type Name = Base @attrs` declaration, carried as a field
// node at the top level.
type TypeAlias struct {
	Field
}

func (t *TypeAlias) topNode() {}

func commentText(c *Comment) string {
	if c == nil {
		return ""
	}
	return c.Text
}

// DescribeTop names the kind of a top-level item for diagnostics.
func DescribeTop(top Top) string {
	switch top.(type) {
	case *Model:
		return "model"
	case *Enum:
		return "enum"
	case *SourceConfig:
		return "source"
	case *GeneratorConfig:
		return "generator"
	case *TypeAlias:
		return "type"
	default:
		return "item"
	}
}
