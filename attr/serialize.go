package attr

import (
	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/dml"
)

func namedArg(name string, expr ast.Expression) *ast.Argument {
	return &ast.Argument{Name: ast.Identifier{Name: name}, Value: expr}
}

func unnamedArg(expr ast.Expression) *ast.Argument {
	return &ast.Argument{Value: expr}
}

func constantArrayExpr(names []string) ast.Expression {
	elements := make([]ast.Expression, len(names))
	for i, n := range names {
		elements[i] = &ast.ConstantValue{Value: n}
	}
	return &ast.Array{Elements: elements}
}

// expressionForValue renders a semantic scalar back to expression syntax.
func expressionForValue(v dml.ScalarValue) ast.Expression {
	switch val := v.(type) {
	case dml.IntValue:
		return &ast.NumericValue{Value: val.String()}
	case dml.FloatValue:
		return &ast.NumericValue{Value: val.String()}
	case dml.DecimalValue:
		return &ast.NumericValue{Value: val.String()}
	case dml.BooleanValue:
		return &ast.BooleanValue{Value: val.String()}
	case dml.StringValue:
		return &ast.StringValue{Value: string(val)}
	case dml.DateTimeValue:
		return &ast.StringValue{Value: val.String()}
	case dml.ConstantValue:
		return &ast.ConstantValue{Value: string(val)}
	}
	return &ast.AnyValue{Value: v.String()}
}

func expressionForDefault(dv dml.DefaultValue) ast.Expression {
	switch d := dv.(type) {
	case dml.SingleDefault:
		return expressionForValue(d.Value)
	case dml.ExpressionDefault:
		args := make([]ast.Expression, len(d.Args))
		for i, a := range d.Args {
			args[i] = expressionForValue(a)
		}
		return &ast.Function{Name: d.Name, Args: args}
	}
	panic(stateError)
}
