package ast

import (
	"strings"

	"github.com/datamodel-lang/go-datamodel/diag"
)

// Expression is the value side of arguments and config properties: a
// literal, constant, function call, or array. The concrete type records the
// syntactic kind; coercion to semantic values happens in the value package.
type Expression interface {
	ExprSpan() diag.Span
	// String renders the expression back to schema syntax.
	String() string
	expressionNode()
}

// NumericValue is an integer or floating point literal, kept as raw text.
type NumericValue struct {
	Value string
	Span  diag.Span
}

// StringValue is a quoted string literal, with escapes already resolved.
type StringValue struct {
	Value string
	Span  diag.Span
}

// BooleanValue is a `true` or `false` literal, kept as raw text.
type BooleanValue struct {
	Value string
	Span  diag.Span
}

// ConstantValue is a bare identifier used as a value, e.g. an enum member
// reference or a datasource provider constant.
type ConstantValue struct {
	Value string
	Span  diag.Span
}

// Function is a call expression such as env("URL") or autoincrement().
type Function struct {
	Name string
	Args []Expression
	Span diag.Span
}

// Array is a bracketed expression list.
type Array struct {
	Elements []Expression
	Span     diag.Span
}

// AnyValue is raw text the parser could not classify further. It survives so
// later stages can still point a diagnostic at it.
type AnyValue struct {
	Value string
	Span  diag.Span
}

func (e *NumericValue) ExprSpan() diag.Span  { return e.Span }
func (e *StringValue) ExprSpan() diag.Span   { return e.Span }
func (e *BooleanValue) ExprSpan() diag.Span  { return e.Span }
func (e *ConstantValue) ExprSpan() diag.Span { return e.Span }
func (e *Function) ExprSpan() diag.Span      { return e.Span }
func (e *Array) ExprSpan() diag.Span         { return e.Span }
func (e *AnyValue) ExprSpan() diag.Span      { return e.Span }

func (e *NumericValue) expressionNode()  {}
func (e *StringValue) expressionNode()   {}
func (e *BooleanValue) expressionNode()  {}
func (e *ConstantValue) expressionNode() {}
func (e *Function) expressionNode()      {}
func (e *Array) expressionNode()         {}
func (e *AnyValue) expressionNode()      {}

func (e *NumericValue) String() string  { return e.Value }
func (e *BooleanValue) String() string  { return e.Value }
func (e *ConstantValue) String() string { return e.Value }
func (e *AnyValue) String() string      { return e.Value }

func (e *StringValue) String() string {
	return "\"" + escapeString(e.Value) + "\""
}

func (e *Function) String() string {
	parts := make([]string, len(e.Args))
	for i, arg := range e.Args {
		parts[i] = arg.String()
	}
	return e.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (e *Array) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// DescribeValueType names the syntactic kind of an expression for
// type-mismatch diagnostics.
func DescribeValueType(expr Expression) string {
	switch expr.(type) {
	case *NumericValue:
		return "numeric"
	case *StringValue:
		return "string"
	case *BooleanValue:
		return "boolean"
	case *ConstantValue:
		return "literal"
	case *Function:
		return "functional"
	case *Array:
		return "array"
	default:
		return "any"
	}
}

// RawText returns the text a human wrote for the expression, without string
// quoting. Used in diagnostics.
func RawText(expr Expression) string {
	if s, ok := expr.(*StringValue); ok {
		return s.Value
	}
	return expr.String()
}
