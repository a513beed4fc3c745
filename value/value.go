// Package value coerces AST expressions to semantic scalar values.
//
// A Validator wraps one expression together with an environment lookup.
// Coercion resolves env() calls first, so a value sourced from the
// environment behaves like the literal it replaces while diagnostics keep
// pointing at the env() call in the source.
package value

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
)

// EnvLookup resolves an environment variable reference. Callers pass a
// snapshot so one validation run sees one consistent environment.
type EnvLookup func(name string) (string, bool)

// Validator wraps one expression for coercion. A nil lookup behaves like an
// empty environment.
type Validator struct {
	expr ast.Expression
	env  EnvLookup
}

func New(expr ast.Expression, env EnvLookup) *Validator {
	return &Validator{expr: expr, env: env}
}

// Expr returns the wrapped expression.
func (v *Validator) Expr() ast.Expression { return v.expr }

// Span returns the source span of the wrapped expression.
func (v *Validator) Span() diag.Span { return v.expr.ExprSpan() }

// IsFromEnv reports whether the value is an env() call, so consumers can
// represent "deferred to runtime" instead of coercing eagerly.
func (v *Validator) IsFromEnv() bool {
	fn, ok := v.expr.(*ast.Function)
	return ok && fn.Name == "env"
}

// EnvVarName returns the referenced variable name without resolving it.
// The second return is false when the value is not a well-formed env() call.
func (v *Validator) EnvVarName() (string, bool) {
	fn, ok := v.expr.(*ast.Function)
	if !ok || fn.Name != "env" || len(fn.Args) != 1 {
		return "", false
	}
	s, ok := fn.Args[0].(*ast.StringValue)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func (v *Validator) lookup(name string) (string, bool) {
	if v.env == nil {
		return "", false
	}
	return v.env(name)
}

func envVarName(fn *ast.Function) (string, error) {
	if len(fn.Args) != 1 {
		return "", diag.NewFunctionalEvaluationError("Exactly one string parameter must be passed to the env function.", fn.Span)
	}
	s, ok := fn.Args[0].(*ast.StringValue)
	if !ok {
		return "", diag.NewFunctionalEvaluationError("Expected this to be a string literal.", fn.Args[0].ExprSpan())
	}
	return s.Value, nil
}

// resolved substitutes an env() call with the string literal it evaluates
// to. Every other expression passes through untouched. The substitute keeps
// the call's span.
func (v *Validator) resolved() (ast.Expression, error) {
	fn, ok := v.expr.(*ast.Function)
	if !ok || fn.Name != "env" {
		return v.expr, nil
	}
	name, err := envVarName(fn)
	if err != nil {
		return nil, err
	}
	val, found := v.lookup(name)
	if !found {
		return nil, diag.NewEnvironmentMissingError(name, fn.Span)
	}
	return &ast.StringValue{Value: val, Span: fn.Span}, nil
}

func mismatch(expected string, expr ast.Expression) error {
	return diag.NewTypeMismatchError(expected, ast.DescribeValueType(expr), ast.RawText(expr), expr.ExprSpan())
}

func (v *Validator) AsInt() (int64, error) {
	expr, err := v.resolved()
	if err != nil {
		return 0, err
	}
	num, ok := expr.(*ast.NumericValue)
	if !ok {
		return 0, mismatch("numeric", expr)
	}
	n, perr := strconv.ParseInt(num.Value, 10, 64)
	if perr != nil {
		return 0, diag.NewValueParserError("numeric", num.Value, perr.Error(), num.Span)
	}
	return n, nil
}

func (v *Validator) AsFloat() (float64, error) {
	expr, err := v.resolved()
	if err != nil {
		return 0, err
	}
	num, ok := expr.(*ast.NumericValue)
	if !ok {
		return 0, mismatch("numeric", expr)
	}
	f, perr := strconv.ParseFloat(num.Value, 64)
	if perr != nil {
		return 0, diag.NewValueParserError("numeric", num.Value, perr.Error(), num.Span)
	}
	return f, nil
}

// AsDecimal accepts numeric literals and, to preserve precision beyond
// float64, string literals.
func (v *Validator) AsDecimal() (decimal.Decimal, error) {
	expr, err := v.resolved()
	if err != nil {
		return decimal.Decimal{}, err
	}
	var raw string
	var span diag.Span
	switch e := expr.(type) {
	case *ast.NumericValue:
		raw, span = e.Value, e.Span
	case *ast.StringValue:
		raw, span = e.Value, e.Span
	default:
		return decimal.Decimal{}, mismatch("numeric", expr)
	}
	d, perr := decimal.NewFromString(raw)
	if perr != nil {
		return decimal.Decimal{}, diag.NewValueParserError("numeric", raw, perr.Error(), span)
	}
	return d, nil
}

// AsBool additionally accepts string sources because env()-sourced booleans
// arrive as strings.
func (v *Validator) AsBool() (bool, error) {
	expr, err := v.resolved()
	if err != nil {
		return false, err
	}
	switch e := expr.(type) {
	case *ast.BooleanValue:
		return parseBool(e.Value, e.Span)
	case *ast.StringValue:
		return parseBool(e.Value, e.Span)
	}
	return false, mismatch("boolean", expr)
}

func parseBool(raw string, span diag.Span) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, diag.NewValueParserError("boolean", raw, "provided string was not `true` or `false`", span)
}

func (v *Validator) AsString() (string, error) {
	expr, err := v.resolved()
	if err != nil {
		return "", err
	}
	s, ok := expr.(*ast.StringValue)
	if !ok {
		return "", mismatch("String", expr)
	}
	return s.Value, nil
}

// AsStringFromEnv returns the coerced string plus the environment variable
// name it was read from. envVar is empty for plain literals.
func (v *Validator) AsStringFromEnv() (envVar, val string, err error) {
	fn, ok := v.expr.(*ast.Function)
	if !ok || fn.Name != "env" {
		val, err = v.AsString()
		return "", val, err
	}
	name, err := envVarName(fn)
	if err != nil {
		return "", "", err
	}
	val, found := v.lookup(name)
	if !found {
		return "", "", diag.NewEnvironmentMissingError(name, fn.Span)
	}
	return name, val, nil
}

// AsDateTime parses an RFC 3339 timestamp from a string literal.
func (v *Validator) AsDateTime() (time.Time, error) {
	expr, err := v.resolved()
	if err != nil {
		return time.Time{}, err
	}
	s, ok := expr.(*ast.StringValue)
	if !ok {
		return time.Time{}, mismatch("dateTime", expr)
	}
	t, perr := time.Parse(time.RFC3339, s.Value)
	if perr != nil {
		return time.Time{}, diag.NewValueParserError("dateTime", s.Value, perr.Error(), s.Span)
	}
	return t, nil
}

// AsConstant returns a bare identifier used as a value, e.g. an enum member
// name. Boolean literals count as constants.
func (v *Validator) AsConstant() (string, error) {
	expr, err := v.resolved()
	if err != nil {
		return "", err
	}
	switch e := expr.(type) {
	case *ast.ConstantValue:
		return e.Value, nil
	case *ast.BooleanValue:
		return e.Value, nil
	}
	return "", mismatch("constant literal", expr)
}

// AsArray splits an array into element validators. A non-array value
// becomes a one-element slice, so `fields: id` behaves like `fields: [id]`.
func (v *Validator) AsArray() []*Validator {
	arr, ok := v.expr.(*ast.Array)
	if !ok {
		return []*Validator{v}
	}
	out := make([]*Validator, len(arr.Elements))
	for i, el := range arr.Elements {
		out[i] = New(el, v.env)
	}
	return out
}

// AsType coerces to the scalar value matching the declared field type.
// Json and Bytes carry their raw text as string values.
func (v *Validator) AsType(t dml.ScalarType) (dml.ScalarValue, error) {
	switch t {
	case dml.Int, dml.BigInt:
		n, err := v.AsInt()
		if err != nil {
			return nil, err
		}
		return dml.IntValue(n), nil
	case dml.Float:
		f, err := v.AsFloat()
		if err != nil {
			return nil, err
		}
		return dml.FloatValue(f), nil
	case dml.Decimal:
		d, err := v.AsDecimal()
		if err != nil {
			return nil, err
		}
		return dml.DecimalValue{Value: d}, nil
	case dml.Boolean:
		b, err := v.AsBool()
		if err != nil {
			return nil, err
		}
		return dml.BooleanValue(b), nil
	case dml.String, dml.Json, dml.Bytes:
		s, err := v.AsString()
		if err != nil {
			return nil, err
		}
		return dml.StringValue(s), nil
	case dml.DateTime:
		ts, err := v.AsDateTime()
		if err != nil {
			return nil, err
		}
		return dml.DateTimeValue{Value: ts}, nil
	}
	panic("unhandled scalar type " + t.String())
}

// AsDefaultValue interprets the expression as a field default: a literal
// becomes a SingleDefault of the field's type, a known generator call an
// ExpressionDefault. dbgenerated() accepts any field type and carries its
// raw arguments.
func (v *Validator) AsDefaultValue(fieldType dml.ScalarType) (dml.DefaultValue, error) {
	fn, ok := v.expr.(*ast.Function)
	if !ok || fn.Name == "env" {
		val, err := v.AsType(fieldType)
		if err != nil {
			return nil, err
		}
		return dml.SingleDefault{Value: val}, nil
	}

	returnType, anyType, known := dml.GeneratorReturnType(fn.Name)
	if !known {
		return nil, diag.NewFunctionNotKnownError(fn.Name, fn.Span)
	}
	switch {
	case anyType:
		returnType = fieldType
	case returnType != fieldType:
		return nil, diag.NewFunctionalEvaluationError(
			fmt.Sprintf("The function `%s()` cannot be used on fields of type `%s`.", fn.Name, fieldType), fn.Span)
	}
	if fn.Name != dml.GeneratorDbGenerated && len(fn.Args) > 0 {
		return nil, diag.NewArgumentCountMismatchError(fn.Name, 0, len(fn.Args), fn.Span)
	}

	args := make([]dml.ScalarValue, 0, len(fn.Args))
	for _, arg := range fn.Args {
		s, err := New(arg, v.env).AsString()
		if err != nil {
			return nil, err
		}
		args = append(args, dml.StringValue(s))
	}
	return dml.ExpressionDefault{Name: fn.Name, ReturnType: returnType, Args: args}, nil
}
