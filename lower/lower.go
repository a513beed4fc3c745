// Package lower turns a semantic datamodel back into a syntax tree. It is
// the reverse of lift: every attribute list is regenerated through the same
// validator set that read it, so a schema surviving the pipeline renders in
// the exact shape the validators accept.
package lower

import (
	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/attr"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
)

// Lower reconstructs syntax from dm. Generated models and fields are
// skipped, so inferred back relations disappear and the output stays close
// to what a user would write; synthesized foreign key columns are regular
// fields and survive, together with the filled relation arguments that make
// the schema self-describing.
func Lower(dm *dml.Datamodel) (*ast.SchemaAst, error) {
	schema := &ast.SchemaAst{}
	errs := &diag.ErrorCollection{}

	fields := attr.FieldValidators()
	models := attr.ModelValidators()
	enums := attr.EnumValidators()
	enumValues := attr.EnumValueValidators()

	for _, model := range dm.Models {
		if model.IsGenerated {
			continue
		}
		lowered, err := lowerModel(model, dm, models, fields)
		if err != nil {
			errs.PushError(err)
			continue
		}
		schema.Tops = append(schema.Tops, lowered)
	}

	for _, enum := range dm.Enums {
		lowered, err := lowerEnum(enum, dm, enums, enumValues)
		if err != nil {
			errs.PushError(err)
			continue
		}
		schema.Tops = append(schema.Tops, lowered)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return schema, nil
}

func lowerModel(model *dml.Model, dm *dml.Datamodel, models *attr.List[*dml.Model], fields *attr.List[*dml.Field]) (*ast.Model, error) {
	lowered := &ast.Model{
		Name:          ast.Identifier{Name: model.Name},
		Documentation: comment(model.Documentation),
		CommentedOut:  model.IsCommentedOut,
	}

	for _, field := range model.Fields {
		if field.IsGenerated {
			continue
		}
		attrs, err := fields.Serialize(field, dm)
		if err != nil {
			return nil, err
		}
		lowered.Fields = append(lowered.Fields, &ast.Field{
			Name:          ast.Identifier{Name: field.Name},
			FieldType:     ast.Identifier{Name: field.FieldType.TypeName()},
			Arity:         lowerArity(field.Arity),
			Attributes:    attrs,
			Documentation: comment(field.Documentation),
			CommentedOut:  field.IsCommentedOut,
		})
	}

	attrs, err := models.Serialize(model, dm)
	if err != nil {
		return nil, err
	}
	lowered.Attributes = attrs
	return lowered, nil
}

func lowerEnum(enum *dml.Enum, dm *dml.Datamodel, enums *attr.List[*dml.Enum], values *attr.List[*dml.EnumValue]) (*ast.Enum, error) {
	lowered := &ast.Enum{
		Name:          ast.Identifier{Name: enum.Name},
		Documentation: comment(enum.Documentation),
	}

	for _, value := range enum.Values {
		attrs, err := values.Serialize(value, dm)
		if err != nil {
			return nil, err
		}
		lowered.Values = append(lowered.Values, &ast.EnumValue{
			Name:          ast.Identifier{Name: value.Name},
			Attributes:    attrs,
			Documentation: comment(value.Documentation),
		})
	}

	attrs, err := enums.Serialize(enum, dm)
	if err != nil {
		return nil, err
	}
	lowered.Attributes = attrs
	return lowered, nil
}

func lowerArity(arity dml.FieldArity) ast.FieldArity {
	switch arity {
	case dml.Optional:
		return ast.Optional
	case dml.List:
		return ast.List
	default:
		return ast.Required
	}
}

func comment(text string) *ast.Comment {
	if text == "" {
		return nil
	}
	return &ast.Comment{Text: text}
}
