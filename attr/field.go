package attr

import (
	"fmt"
	"strings"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
)

// FieldValidators returns the validator set for model fields. Registration
// order is the order attributes render in when lowering.
func FieldValidators() *List[*dml.Field] {
	return NewList[*dml.Field](
		idValidator{},
		uniqueValidator{},
		defaultValidator{},
		updatedAtValidator{},
		mapFieldValidator{},
		relationValidator{},
	)
}

type idValidator struct{}

func (idValidator) Name() string           { return "id" }
func (idValidator) DuplicateAllowed() bool { return false }

func (idValidator) ValidateAndApply(args *Args, f *dml.Field) error {
	if f.IsRelation() {
		return diag.NewAttributeValidationError(
			fmt.Sprintf("The field `%s` is a relation field and cannot be marked with `@id`. Only scalar fields can be declared as id.", f.Name),
			"id", args.Span())
	}
	if f.Arity != dml.Required {
		return diag.NewAttributeValidationError("Fields that are marked as id must be required.", "id", args.Span())
	}
	f.IsID = true
	return nil
}

func (idValidator) Serialize(f *dml.Field, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if !f.IsID {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("id")}, nil
}

type uniqueValidator struct{}

func (uniqueValidator) Name() string           { return "unique" }
func (uniqueValidator) DuplicateAllowed() bool { return false }

func (uniqueValidator) ValidateAndApply(args *Args, f *dml.Field) error {
	if rel := f.RelationInfo(); rel != nil {
		suggestion := ""
		switch len(rel.Fields) {
		case 0:
		case 1:
			suggestion = fmt.Sprintf(" Did you mean to put it on `%s`?", rel.Fields[0])
		default:
			suggestion = fmt.Sprintf(" Did you mean to provide `@@unique([%s])`?", strings.Join(rel.Fields, ", "))
		}
		return diag.NewAttributeValidationError(
			fmt.Sprintf("The field `%s` is a relation field and cannot be marked with `unique`. Only scalar fields can be made unique.%s", f.Name, suggestion),
			"unique", args.Span())
	}
	f.IsUnique = true
	return nil
}

func (uniqueValidator) Serialize(f *dml.Field, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if !f.IsUnique {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("unique")}, nil
}

type defaultValidator struct{}

func (defaultValidator) Name() string           { return "default" }
func (defaultValidator) DuplicateAllowed() bool { return false }

func (defaultValidator) ValidateAndApply(args *Args, f *dml.Field) error {
	arg, err := args.DefaultArg("value")
	if err != nil {
		return err
	}
	if f.IsRelation() {
		return diag.NewAttributeValidationError("Cannot set a default value on a relation field.", "default", args.Span())
	}
	if f.Arity == dml.List {
		return diag.NewAttributeValidationError("Cannot set a default value on list field.", "default", args.Span())
	}
	switch t := f.FieldType.(type) {
	case dml.ScalarFieldType:
		dv, err := arg.AsDefaultValue(t.Type)
		if err != nil {
			return wrapAttributeError(err, "default")
		}
		f.DefaultValue = dv
	case dml.EnumFieldType:
		name, err := arg.AsConstant()
		if err != nil {
			return wrapAttributeError(err, "default")
		}
		f.DefaultValue = dml.SingleDefault{Value: dml.ConstantValue(name)}
	}
	return nil
}

func (defaultValidator) Serialize(f *dml.Field, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if f.DefaultValue == nil {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("default", unnamedArg(expressionForDefault(f.DefaultValue)))}, nil
}

type updatedAtValidator struct{}

func (updatedAtValidator) Name() string           { return "updatedAt" }
func (updatedAtValidator) DuplicateAllowed() bool { return false }

func (updatedAtValidator) ValidateAndApply(args *Args, f *dml.Field) error {
	if st, ok := f.ScalarType(); !ok || st != dml.DateTime {
		return diag.NewAttributeValidationError("Fields that are marked with @updatedAt must be of type DateTime.", "updatedAt", args.Span())
	}
	if f.Arity == dml.List {
		return diag.NewAttributeValidationError("Fields that are marked with @updatedAt can not be list fields.", "updatedAt", args.Span())
	}
	f.IsUpdatedAt = true
	return nil
}

func (updatedAtValidator) Serialize(f *dml.Field, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if !f.IsUpdatedAt {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("updatedAt")}, nil
}

type mapFieldValidator struct{}

func (mapFieldValidator) Name() string           { return "map" }
func (mapFieldValidator) DuplicateAllowed() bool { return false }

func (mapFieldValidator) ValidateAndApply(args *Args, f *dml.Field) error {
	if f.IsRelation() {
		return diag.NewAttributeValidationError("The attribute `@map` cannot be used on relation fields.", "map", args.Span())
	}
	name, err := mapName(args)
	if err != nil {
		return err
	}
	f.DatabaseName = name
	return nil
}

func (mapFieldValidator) Serialize(f *dml.Field, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if f.DatabaseName == "" {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("map", unnamedArg(&ast.StringValue{Value: f.DatabaseName}))}, nil
}

// mapName reads the single name argument shared by @map and @@map.
func mapName(args *Args) (string, error) {
	arg, err := args.DefaultArg("name")
	if err != nil {
		return "", err
	}
	name, err := arg.AsString()
	if err != nil {
		return "", wrapAttributeError(err, "map")
	}
	if name == "" {
		return "", diag.NewAttributeValidationError("The `map` argument cannot be an empty string.", "map", args.Span())
	}
	return name, nil
}

type relationValidator struct{}

func (relationValidator) Name() string           { return "relation" }
func (relationValidator) DuplicateAllowed() bool { return false }

func (relationValidator) ValidateAndApply(args *Args, f *dml.Field) error {
	rel := f.RelationInfo()
	if rel == nil {
		// Not a relation field. Leaving the arguments unconsumed
		// surfaces them through the unused-argument check.
		return nil
	}

	nameArg, found, err := args.OptionalDefaultArg("name")
	if err != nil {
		return err
	}
	if found {
		name, err := nameArg.AsString()
		if err != nil {
			return wrapAttributeError(err, "relation")
		}
		if name == "" {
			return diag.NewAttributeValidationError("A relation cannot have an empty name.", "relation", args.Span())
		}
		rel.Name = name
	}

	if fieldsArg := args.OptionalArg("fields"); fieldsArg != nil {
		names, err := constantArray(fieldsArg)
		if err != nil {
			return wrapAttributeError(err, "relation")
		}
		rel.Fields = names
	}

	if referencesArg := args.OptionalArg("references"); referencesArg != nil {
		names, err := constantArray(referencesArg)
		if err != nil {
			return wrapAttributeError(err, "relation")
		}
		rel.ToFields = names
	}

	if onDelete := args.OptionalArg("onDelete"); onDelete != nil {
		name, err := onDelete.AsConstant()
		if err != nil {
			return wrapAttributeError(err, "relation")
		}
		strategy, ok := dml.ParseOnDelete(name)
		if !ok {
			return wrapAttributeError(diag.NewLiteralParserError("onDeleteStrategy", name, onDelete.Span()), "relation")
		}
		rel.OnDelete = strategy
	}
	return nil
}

func (relationValidator) Serialize(f *dml.Field, dm *dml.Datamodel) ([]*ast.Attribute, error) {
	rel := f.RelationInfo()
	if rel == nil {
		return nil, nil
	}
	parent := dm.FindModelByField(f)
	if parent == nil {
		panic(stateError)
	}

	var arguments []*ast.Argument
	if rel.Name != "" && rel.Name != dml.NameForUnambiguousRelation(rel.To, parent.Name) {
		arguments = append(arguments, unnamedArg(&ast.StringValue{Value: rel.Name}))
	}
	if len(rel.Fields) > 0 {
		arguments = append(arguments, namedArg("fields", constantArrayExpr(rel.Fields)))
	}
	if len(rel.ToFields) > 0 {
		arguments = append(arguments, namedArg("references", constantArrayExpr(rel.ToFields)))
	}
	if rel.OnDelete != dml.OnDeleteNone {
		arguments = append(arguments, namedArg("onDelete", &ast.ConstantValue{Value: rel.OnDelete.String()}))
	}
	if len(arguments) == 0 {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("relation", arguments...)}, nil
}
