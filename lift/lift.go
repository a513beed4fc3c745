// Package lift turns a parsed schema AST into the semantic datamodel. Name
// prechecks run first; then each model and enum is lifted with its field
// types resolved and its attributes applied through the attribute framework.
// The caller receives either a complete datamodel or the full diagnostic
// list, never both.
package lift

import (
	"errors"
	"fmt"
	"strings"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/attr"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/value"
)

type lifter struct {
	schema *ast.SchemaAst
	env    value.EnvLookup

	field     *attr.List[*dml.Field]
	model     *attr.List[*dml.Model]
	enum      *attr.List[*dml.Enum]
	enumValue *attr.List[*dml.EnumValue]
}

// Lift converts the AST to a datamodel. Precheck failures short-circuit
// before any lifting; lifting itself accumulates across every model, field
// and enum so one pass reports all problems.
func Lift(schema *ast.SchemaAst, env value.EnvLookup) (*dml.Datamodel, []diag.Error) {
	if errs := precheck(schema); len(errs) > 0 {
		return nil, errs
	}

	l := &lifter{
		schema:    schema,
		env:       env,
		field:     attr.FieldValidators(),
		model:     attr.ModelValidators(),
		enum:      attr.EnumValidators(),
		enumValue: attr.EnumValueValidators(),
	}

	dm := dml.NewDatamodel()
	var errs []diag.Error
	for _, top := range schema.Tops {
		switch t := top.(type) {
		case *ast.Model:
			m, merrs := l.liftModel(t)
			errs = append(errs, merrs...)
			dm.AddModel(m)
		case *ast.Enum:
			e, eerrs := l.liftEnum(t)
			errs = append(errs, eerrs...)
			dm.AddEnum(e)
		}
		// Datasource and generator blocks are config, handled by the
		// config loader. Type aliases resolve inline at their use sites.
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return dm, nil
}

func (l *lifter) liftModel(am *ast.Model) (*dml.Model, []diag.Error) {
	m := dml.NewModel(am.Name.Name)
	m.Documentation = am.NodeDocumentation()
	m.IsCommentedOut = am.CommentedOut

	var errs []diag.Error
	for _, af := range am.Fields {
		f, ferrs := l.liftField(af)
		errs = append(errs, ferrs...)
		if f != nil {
			m.AddField(f)
		}
	}
	errs = append(errs, l.model.ValidateAndApply(am.Attributes, m, l.env)...)
	return m, errs
}

func (l *lifter) liftField(af *ast.Field) (*dml.Field, []diag.Error) {
	fieldType, aliasAttrs, err := l.resolveFieldType(af)
	if err != nil {
		var de diag.Error
		errors.As(err, &de)
		return nil, []diag.Error{de}
	}

	f := dml.NewField(af.Name.Name, fieldType)
	f.Arity = liftArity(af.Arity)
	f.Documentation = af.NodeDocumentation()
	f.IsCommentedOut = af.CommentedOut

	// The field's own attributes come first so duplicate diagnostics
	// anchor at the field, not inside an alias declaration.
	attrs := af.Attributes
	if len(aliasAttrs) > 0 {
		attrs = append(append([]*ast.Attribute{}, af.Attributes...), aliasAttrs...)
	}
	return f, l.field.ValidateAndApply(attrs, f, l.env)
}

// resolveFieldType maps a type name to its semantic type, following type
// alias chains. Attributes declared on traversed aliases are collected so
// they apply to the field as if written on it.
func (l *lifter) resolveFieldType(af *ast.Field) (dml.FieldType, []*ast.Attribute, error) {
	name := af.FieldType.Name
	var aliasAttrs []*ast.Attribute
	var path []string
	for {
		if st, ok := dml.ParseScalarType(name); ok {
			return dml.ScalarFieldType{Type: st}, aliasAttrs, nil
		}
		if l.schema.FindEnum(name) != nil {
			return dml.EnumFieldType{Enum: name}, aliasAttrs, nil
		}
		if l.schema.FindModel(name) != nil {
			return dml.RelationFieldType{Info: dml.NewRelationInfo(name)}, aliasAttrs, nil
		}
		alias := l.schema.FindTypeAlias(name)
		if alias == nil {
			return nil, nil, diag.NewTypeNotFoundError(name, af.FieldType.Span)
		}
		for _, seen := range path {
			if seen == name {
				return nil, nil, diag.NewValidationError(
					fmt.Sprintf("Recursive type definitions are not allowed. Recursive path was: %s -> %s.", strings.Join(path, " -> "), name),
					af.FieldType.Span)
			}
		}
		path = append(path, name)
		aliasAttrs = append(aliasAttrs, alias.Attributes...)
		name = alias.FieldType.Name
	}
}

func (l *lifter) liftEnum(ae *ast.Enum) (*dml.Enum, []diag.Error) {
	e := &dml.Enum{Name: ae.Name.Name}
	e.Documentation = ae.NodeDocumentation()

	var errs []diag.Error
	for _, av := range ae.Values {
		v := &dml.EnumValue{Name: av.Name.Name, Documentation: av.NodeDocumentation()}
		errs = append(errs, l.enumValue.ValidateAndApply(av.Attributes, v, l.env)...)
		e.AddValue(v)
	}
	errs = append(errs, l.enum.ValidateAndApply(ae.Attributes, e, l.env)...)
	return e, errs
}

func liftArity(a ast.FieldArity) dml.FieldArity {
	switch a {
	case ast.Optional:
		return dml.Optional
	case ast.List:
		return dml.List
	default:
		return dml.Required
	}
}
