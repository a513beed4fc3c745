package attr

import (
	"fmt"
	"strings"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
)

// ModelValidators returns the validator set for block-level model attributes.
func ModelValidators() *List[*dml.Model] {
	return NewList[*dml.Model](
		modelIDValidator{},
		modelIndexValidator{indexType: dml.UniqueIndex},
		modelIndexValidator{indexType: dml.NormalIndex},
		mapModelValidator{},
	)
}

type modelIDValidator struct{}

func (modelIDValidator) Name() string           { return "id" }
func (modelIDValidator) DuplicateAllowed() bool { return false }

func (modelIDValidator) ValidateAndApply(args *Args, m *dml.Model) error {
	arg, err := args.DefaultArg("fields")
	if err != nil {
		return err
	}
	names, err := constantArray(arg)
	if err != nil {
		return wrapAttributeError(err, "id")
	}
	if len(names) == 0 {
		return diag.NewAttributeValidationError(
			"The list of fields in an `@@id()` attribute cannot be empty. Please specify at least one field.",
			"id", args.Span())
	}

	var undefined, relation, optional []string
	for _, name := range names {
		f := m.FindField(name)
		switch {
		case f == nil:
			undefined = append(undefined, name)
		case f.IsRelation():
			relation = append(relation, name)
		case f.Arity == dml.Optional:
			optional = append(optional, name)
		}
	}
	if len(undefined) > 0 {
		return diag.NewModelValidationError(
			fmt.Sprintf("The multi field id declaration refers to the unknown fields %s.", strings.Join(undefined, ", ")),
			m.Name, args.Span())
	}
	if len(relation) > 0 {
		return diag.NewModelValidationError(
			fmt.Sprintf("The id definition refers to the relation fields %s. ID definitions must reference only scalar fields.", strings.Join(relation, ", ")),
			m.Name, args.Span())
	}
	if len(optional) > 0 {
		return diag.NewModelValidationError(
			fmt.Sprintf("The id definition refers to the optional fields %s. ID definitions must reference only required fields.", strings.Join(optional, ", ")),
			m.Name, args.Span())
	}

	m.IDFields = names
	return nil
}

func (modelIDValidator) Serialize(m *dml.Model, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if len(m.IDFields) == 0 {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("id", unnamedArg(constantArrayExpr(m.IDFields)))}, nil
}

// modelIndexValidator backs both @@unique and @@index, which differ only in
// the index type they declare.
type modelIndexValidator struct {
	indexType dml.IndexType
}

func (v modelIndexValidator) Name() string {
	if v.indexType == dml.UniqueIndex {
		return "unique"
	}
	return "index"
}

func (modelIndexValidator) DuplicateAllowed() bool { return true }

func (v modelIndexValidator) ValidateAndApply(args *Args, m *dml.Model) error {
	arg, err := args.DefaultArg("fields")
	if err != nil {
		return err
	}
	names, err := constantArray(arg)
	if err != nil {
		return wrapAttributeError(err, v.Name())
	}
	if len(names) == 0 {
		return diag.NewAttributeValidationError(
			"The list of fields in an index cannot be empty. Please specify at least one field.",
			v.Name(), args.Span())
	}

	index := &dml.IndexDefinition{Fields: names, Type: v.indexType}
	if nameArg := args.OptionalArg("name"); nameArg != nil {
		name, err := nameArg.AsString()
		if err != nil {
			return wrapAttributeError(err, v.Name())
		}
		index.Name = name
	}

	prefix := ""
	if v.indexType == dml.UniqueIndex {
		prefix = "unique "
	}

	var undefined, relation, suggested []string
	for _, name := range names {
		f := m.FindField(name)
		switch {
		case f == nil:
			undefined = append(undefined, name)
		case f.IsRelation():
			relation = append(relation, name)
			suggested = append(suggested, f.RelationInfo().Fields...)
		}
	}
	if len(undefined) > 0 {
		return diag.NewModelValidationError(
			fmt.Sprintf("The %sindex definition refers to the unknown fields %s.", prefix, strings.Join(undefined, ", ")),
			m.Name, args.Span())
	}
	if len(relation) > 0 {
		suggestion := ""
		if len(suggested) > 0 {
			suggestion = fmt.Sprintf(" Did you mean `@@%s([%s])`?", v.Name(), strings.Join(suggested, ", "))
		}
		return diag.NewModelValidationError(
			fmt.Sprintf("The %sindex definition refers to the relation fields %s. Index definitions must reference only scalar fields.%s", prefix, strings.Join(relation, ", "), suggestion),
			m.Name, args.Span())
	}

	m.AddIndex(index)
	return nil
}

func (v modelIndexValidator) Serialize(m *dml.Model, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	var attrs []*ast.Attribute
	for _, idx := range m.Indices {
		if idx.Type != v.indexType {
			continue
		}
		arguments := []*ast.Argument{unnamedArg(constantArrayExpr(idx.Fields))}
		if idx.Name != "" {
			arguments = append(arguments, namedArg("name", &ast.StringValue{Value: idx.Name}))
		}
		attrs = append(attrs, ast.NewAttribute(v.Name(), arguments...))
	}
	return attrs, nil
}

type mapModelValidator struct{}

func (mapModelValidator) Name() string           { return "map" }
func (mapModelValidator) DuplicateAllowed() bool { return false }

func (mapModelValidator) ValidateAndApply(args *Args, m *dml.Model) error {
	name, err := mapName(args)
	if err != nil {
		return err
	}
	m.DatabaseName = name
	return nil
}

func (mapModelValidator) Serialize(m *dml.Model, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if m.DatabaseName == "" {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("map", unnamedArg(&ast.StringValue{Value: m.DatabaseName}))}, nil
}
