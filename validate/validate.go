// Package validate holds the whole-document checks that run between lifting
// and standardisation plus the relation argument checks that only make sense
// afterwards. Checks accumulate diagnostics across models rather than
// stopping at the first one.
package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
)

const stateError = "Failed lookup of model, field or optional property during internal processing. This means that the internal representation was mutated incorrectly."

// Validate checks a freshly lifted datamodel before standardisation: name
// hygiene, id criteria, relation ambiguity and the declared halves of
// `fields` and `references`. Ambiguity reports at most one error per model,
// everything else accumulates.
func Validate(schema *ast.SchemaAst, dm *dml.Datamodel) []diag.Error {
	errs := validateNames(schema)

	for _, model := range dm.Models {
		astModel := schema.FindModel(model.Name)
		if astModel == nil {
			panic(stateError)
		}
		errs = append(errs, validateModelHasID(astModel, model)...)
		errs = append(errs, validateRelationsNotAmbiguous(schema, model)...)
		errs = append(errs, validateBaseFieldsForRelation(astModel, model)...)
		errs = append(errs, validateReferencedFieldsForRelation(dm, astModel, model)...)
	}
	return errs
}

func validateNames(schema *ast.SchemaAst) []diag.Error {
	var errs []diag.Error

	for _, model := range schema.Models() {
		errs = append(errs, checkName(model.Name, "Model")...)
		errs = append(errs, checkAttributeNames(model.Attributes)...)
		for _, field := range model.Fields {
			errs = append(errs, checkName(field.Name, "Field")...)
			errs = append(errs, checkAttributeNames(field.Attributes)...)
		}
	}

	for _, enum := range schema.Enums() {
		errs = append(errs, checkName(enum.Name, "Enum")...)
		errs = append(errs, checkAttributeNames(enum.Attributes)...)
		for _, value := range enum.Values {
			errs = append(errs, checkName(value.Name, "Enum Value")...)
			errs = append(errs, checkAttributeNames(value.Attributes)...)
		}
	}
	return errs
}

// checkName rejects names the tokenizer admits but the language does not.
func checkName(id ast.Identifier, item string) []diag.Error {
	first, _ := utf8.DecodeRuneInString(id.Name)
	switch {
	case id.Name == "":
		return []diag.Error{diag.NewValidationError(fmt.Sprintf("The name of a %s must not be empty.", item), id.Span)}
	case unicode.IsNumber(first):
		return []diag.Error{diag.NewValidationError(fmt.Sprintf("The name of a %s must not start with a number.", item), id.Span)}
	case strings.Contains(id.Name, "-"):
		return []diag.Error{diag.NewValidationError(fmt.Sprintf("The character `-` is not allowed in %s names.", item), id.Span)}
	}
	return nil
}

func checkAttributeNames(attrs []*ast.Attribute) []diag.Error {
	var errs []diag.Error
	for _, attr := range attrs {
		errs = append(errs, checkName(attr.Name, "Attribute")...)
	}
	return errs
}

func validateModelHasID(astModel *ast.Model, model *dml.Model) []diag.Error {
	singularIDs := model.SingularIDFields()
	hasMultiFieldID := len(model.IDFields) > 0

	hasSingleUnique := false
	for _, f := range model.Fields {
		if f.IsUnique {
			hasSingleUnique = true
		}
	}
	hasMultiUnique := false
	for _, idx := range model.Indices {
		if idx.Type == dml.UniqueIndex {
			hasMultiUnique = true
		}
	}

	modelError := func(message string) []diag.Error {
		return []diag.Error{diag.NewModelValidationError(message, model.Name, astModel.Span)}
	}

	switch {
	case len(singularIDs) > 1:
		return modelError("At most one field must be marked as the id field with the `@id` attribute.")
	case len(singularIDs) > 0 && hasMultiFieldID:
		return modelError("Each model must have at most one id criteria. You can't have `@id` and `@@id` at the same time.")
	case len(singularIDs) > 0 || hasMultiFieldID || hasSingleUnique || hasMultiUnique:
		return nil
	}
	return modelError("Each model must have at least one unique criteria. Either mark a single field with `@id`, `@unique` or add a multi field criterion with `@@id([])` or `@@unique([])` to the model.")
}

// validateRelationsNotAmbiguous reports the first pair of relation fields on
// a model that cannot be told apart: two unnamed or same-named fields to the
// same foreign model, or self relation fields that cannot be paired up.
func validateRelationsNotAmbiguous(schema *ast.SchemaAst, model *dml.Model) []diag.Error {
	modelError := func(message string, anchor *dml.Field) []diag.Error {
		return []diag.Error{diag.NewModelValidationError(message, model.Name, mustFieldSpan(schema, model.Name, anchor.Name))}
	}

	for _, fieldA := range model.Fields {
		relA := fieldA.RelationInfo()
		if relA == nil {
			continue
		}
		for _, fieldB := range model.Fields {
			relB := fieldB.RelationInfo()
			if fieldB == fieldA || relB == nil {
				continue
			}

			if relA.To != model.Name && relB.To != model.Name {
				if relA.To == relB.To && relA.Name == relB.Name {
					if relA.Name == "" {
						return modelError(fmt.Sprintf("Ambiguous relation detected. The fields `%s` and `%s` in model `%s` both refer to `%s`. Please provide different relation names for them by adding `@relation(<name>).", fieldA.Name, fieldB.Name, model.Name, relA.To), fieldA)
					}
					return modelError(fmt.Sprintf("Wrongly named relation detected. The fields `%s` and `%s` in model `%s` both use the same relation name. Please provide different relation names for them through `@relation(<name>).", fieldA.Name, fieldB.Name, model.Name), fieldA)
				}
				continue
			}

			if relA.To == model.Name && relB.To == model.Name {
				// A self relation pairs at most two fields per name; a third
				// with the same name can never find its partner.
				for _, fieldC := range model.Fields {
					relC := fieldC.RelationInfo()
					if fieldC == fieldA || fieldC == fieldB || relC == nil {
						continue
					}
					if relC.To == model.Name && relA.Name == relB.Name && relA.Name == relC.Name {
						if relA.Name == "" {
							return modelError(fmt.Sprintf("Unnamed self relation detected. The fields `%s`, `%s` and `%s` in model `%s` have no relation name. Please provide a relation name for one of them by adding `@relation(<name>).", fieldA.Name, fieldB.Name, fieldC.Name, model.Name), fieldA)
						}
						return modelError(fmt.Sprintf("Wrongly named self relation detected. The fields `%s`, `%s` and `%s` in model `%s` have the same relation name. At most two relation fields can belong to the same relation and therefore have the same name. Please assign a different relation name to one of them.", fieldA.Name, fieldB.Name, fieldC.Name, model.Name), fieldA)
					}
				}

				if relA.Name == "" && relB.Name == "" {
					return modelError(fmt.Sprintf("Ambiguous self relation detected. The fields `%s` and `%s` in model `%s` both refer to `%s`. If they are part of the same relation add the same relation name for them with `@relation(<name>)`.", fieldA.Name, fieldB.Name, model.Name, relA.To), fieldA)
				}
			}
		}
	}
	return nil
}

func mustFieldSpan(schema *ast.SchemaAst, model, field string) diag.Span {
	f := schema.FindField(model, field)
	if f == nil {
		panic(stateError)
	}
	return f.Span
}
