package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
)

// validateBaseFieldsForRelation checks the `fields` argument of every
// relation field on the model: the named fields must exist on this model,
// must be scalar, and the relation field arity must agree with theirs.
func validateBaseFieldsForRelation(astModel *ast.Model, model *dml.Model) []diag.Error {
	var errs []diag.Error

	for _, field := range model.Fields {
		rel := field.RelationInfo()
		if rel == nil {
			continue
		}
		span := astFieldSpan(astModel, field.Name)

		var unknown, relationRefs []string
		for _, name := range rel.Fields {
			base := model.FindField(name)
			switch {
			case base == nil:
				unknown = append(unknown, name)
			case base.IsRelation():
				relationRefs = append(relationRefs, name)
			}
		}

		if len(unknown) > 0 {
			errs = append(errs, diag.NewValidationError(fmt.Sprintf("The argument fields must refer only to existing fields. The following fields do not exist in this model: %s", strings.Join(unknown, ", ")), span))
		}
		if len(relationRefs) > 0 {
			errs = append(errs, diag.NewValidationError(fmt.Sprintf("The argument fields must refer only to scalar fields. But it is referencing the following relation fields: %s", strings.Join(relationRefs, ", ")), span))
		}

		atLeastOneRequired := false
		allOptional := len(rel.Fields) > 0
		for _, name := range rel.Fields {
			base := model.FindField(name)
			if base == nil {
				allOptional = false
				continue
			}
			if base.Arity.IsRequired() {
				atLeastOneRequired = true
			}
			if !base.Arity.IsOptional() {
				allOptional = false
			}
		}

		if atLeastOneRequired && !field.Arity.IsRequired() {
			errs = append(errs, diag.NewValidationError(fmt.Sprintf("The relation field `%s` uses the scalar fields %s. At least one of those fields is required. Hence the relation field must be required as well.", field.Name, strings.Join(rel.Fields, ", ")), span))
		}
		if allOptional && field.Arity.IsRequired() {
			errs = append(errs, diag.NewValidationError(fmt.Sprintf("The relation field `%s` uses the scalar fields %s. All those fields are optional. Hence the relation field must be optional as well.", field.Name, strings.Join(rel.Fields, ", ")), span))
		}
	}
	return errs
}

// validateReferencedFieldsForRelation checks the `references` argument: the
// named fields must exist on the related model, be scalar, form a unique
// criterion there, and pair up with `fields` in count and type. The criterion
// and type checks stay quiet while another relation error on the model is
// pending, so the user sees the root cause first.
func validateReferencedFieldsForRelation(dm *dml.Datamodel, astModel *ast.Model, model *dml.Model) []diag.Error {
	var errs []diag.Error

	for _, field := range model.Fields {
		rel := field.RelationInfo()
		if rel == nil {
			continue
		}
		span := astFieldSpan(astModel, field.Name)

		relatedModel := dm.FindModel(rel.To)
		if relatedModel == nil {
			panic(stateError)
		}

		var unknown, relationRefs []string
		for _, name := range rel.ToFields {
			ref := relatedModel.FindField(name)
			switch {
			case ref == nil:
				unknown = append(unknown, name)
			case ref.IsRelation():
				relationRefs = append(relationRefs, name)
			}
		}

		var wrongType []diag.Error
		for i, baseName := range rel.Fields {
			if i >= len(rel.ToFields) {
				break
			}
			base := model.FindField(baseName)
			ref := relatedModel.FindField(rel.ToFields[i])
			if base == nil || ref == nil {
				continue
			}
			if !dml.CompatibleTypes(base.FieldType, ref.FieldType) {
				wrongType = append(wrongType, diag.NewAttributeValidationError(fmt.Sprintf("The type of the field `%s` in the model `%s` is not matching the type of the referenced field `%s` in model `%s`.", base.Name, model.Name, ref.Name, relatedModel.Name), "relation", span))
			}
		}

		if len(unknown) > 0 {
			errs = append(errs, diag.NewValidationError(fmt.Sprintf("The argument `references` must refer only to existing fields in the related model `%s`. The following fields do not exist in the related model: %s", relatedModel.Name, strings.Join(unknown, ", ")), span))
		}
		if len(relationRefs) > 0 {
			errs = append(errs, diag.NewValidationError(fmt.Sprintf("The argument `references` must refer only to scalar fields in the related model `%s`. But it is referencing the following relation fields: %s", relatedModel.Name, strings.Join(relationRefs, ", ")), span))
		}

		if len(rel.ToFields) > 0 && len(errs) == 0 {
			if !referencesUniqueCriterion(relatedModel, rel.ToFields) {
				errs = append(errs, diag.NewValidationError(fmt.Sprintf("The argument `references` must refer to a unique criteria in the related model `%s`. But it is referencing the following fields that are not a unique criteria: %s", relatedModel.Name, strings.Join(rel.ToFields, ", ")), span))
			}
		}

		if len(rel.Fields) > 0 && len(rel.ToFields) > 0 && len(rel.Fields) != len(rel.ToFields) {
			errs = append(errs, diag.NewAttributeValidationError("You must specify the same number of fields in `fields` and `references`.", "relation", span))
		}

		if len(wrongType) > 0 && len(errs) == 0 {
			errs = append(errs, wrongType...)
		}
	}
	return errs
}

func referencesUniqueCriterion(model *dml.Model, toFields []string) bool {
	want := append([]string(nil), toFields...)
	sort.Strings(want)

	for _, criterion := range model.LooseUniqueCriteria() {
		if len(criterion) != len(want) {
			continue
		}
		names := make([]string, len(criterion))
		for i, f := range criterion {
			names[i] = f.Name
		}
		sort.Strings(names)

		match := true
		for i := range names {
			if names[i] != want[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// PostStandardise checks the relation argument placement rules that only
// hold once every relation has both of its fields: the singular side of a
// one to many carries `fields` and `references`, the list side carries
// neither, and a one to one places both arguments on exactly one side.
// Run it after standardisation.
func PostStandardise(schema *ast.SchemaAst, dm *dml.Datamodel) []diag.Error {
	var all []diag.Error
	for _, model := range dm.Models {
		all = append(all, validateRelationArguments(schema, dm, model)...)
	}
	return all
}

func validateRelationArguments(schema *ast.SchemaAst, dm *dml.Datamodel, model *dml.Model) []diag.Error {
	var errs []diag.Error

	for _, field := range model.Fields {
		rel := field.RelationInfo()
		if rel == nil {
			continue
		}
		// Generated back relation fields have no source location.
		span := fieldSpanOrEmpty(schema, model.Name, field.Name)

		relatedModel := dm.FindModel(rel.To)
		if relatedModel == nil {
			panic(stateError)
		}
		relatedField := dm.FindRelatedField(model.Name, rel, field.Name)
		if relatedField == nil {
			panic(stateError)
		}
		relatedRel := relatedField.RelationInfo()
		if relatedRel == nil {
			panic(stateError)
		}

		if field.Arity.IsSingular() && relatedField.Arity.IsList() {
			if len(rel.Fields) == 0 {
				errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation field `%s` on Model `%s` must specify the `fields` argument in the @relation attribute.", field.Name, model.Name), "relation", span))
			}
			if len(rel.ToFields) == 0 {
				errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation field `%s` on Model `%s` must specify the `references` argument in the @relation attribute.", field.Name, model.Name), "relation", span))
			}
		}

		if field.Arity.IsList() && relatedField.Arity.IsSingular() {
			if len(rel.Fields) > 0 || len(rel.ToFields) > 0 {
				errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation field `%s` on Model `%s` must not specify the `fields` or `references` argument in the @relation attribute. You must only specify it on the opposite field `%s` on model `%s`.", field.Name, model.Name, relatedField.Name, relatedModel.Name), "relation", span))
			}
		}

		if relatedModel.Name == model.Name && field.Arity.IsRequired() && relatedField.Arity.IsRequired() {
			errs = append(errs, diag.NewFieldValidationError(fmt.Sprintf("The relation fields `%s` and `%s` on Model `%s` are both required. This is not allowed for a self relation because it would not be possible to create a record.", field.Name, relatedField.Name, model.Name), model.Name, field.Name, span))
		}

		if field.Arity.IsSingular() && relatedField.Arity.IsSingular() {
			if len(rel.Fields) == 0 && len(relatedRel.Fields) == 0 {
				errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation fields `%s` on Model `%s` and `%s` on Model `%s` do not provide the `fields` argument in the @relation attribute. You have to provide it on one of the two fields.", field.Name, model.Name, relatedField.Name, relatedModel.Name), "relation", span))
			}
			if len(rel.ToFields) == 0 && len(relatedRel.ToFields) == 0 {
				errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation fields `%s` on Model `%s` and `%s` on Model `%s` do not provide the `references` argument in the @relation attribute. You have to provide it on one of the two fields.", field.Name, model.Name, relatedField.Name, relatedModel.Name), "relation", span))
			}
			if len(rel.ToFields) > 0 && len(relatedRel.ToFields) > 0 {
				errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation fields `%s` on Model `%s` and `%s` on Model `%s` both provide the `references` argument in the @relation attribute. You have to provide it only on one of the two fields.", field.Name, model.Name, relatedField.Name, relatedModel.Name), "relation", span))
			}
			if len(rel.Fields) > 0 && len(relatedRel.Fields) > 0 {
				errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation fields `%s` on Model `%s` and `%s` on Model `%s` both provide the `fields` argument in the @relation attribute. You have to provide it only on one of the two fields.", field.Name, model.Name, relatedField.Name, relatedModel.Name), "relation", span))
			}

			// Crossed arguments are only reported when the sides are
			// otherwise clean, the errors above already explain the rest.
			if len(errs) == 0 {
				if len(rel.Fields) > 0 && len(relatedRel.ToFields) > 0 {
					errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation field `%s` on Model `%s` provides the `fields` argument in the @relation attribute. And the related field `%s` on Model `%s` provides the `references` argument. You must provide both arguments on the same side.", field.Name, model.Name, relatedField.Name, relatedModel.Name), "relation", span))
				}
				if len(rel.ToFields) > 0 && len(relatedRel.Fields) > 0 {
					errs = append(errs, diag.NewAttributeValidationError(fmt.Sprintf("The relation field `%s` on Model `%s` provides the `references` argument in the @relation attribute. And the related field `%s` on Model `%s` provides the `fields` argument. You must provide both arguments on the same side.", field.Name, model.Name, relatedField.Name, relatedModel.Name), "relation", span))
				}
			}
		}
	}
	return errs
}

func astFieldSpan(astModel *ast.Model, name string) diag.Span {
	for _, f := range astModel.Fields {
		if f.Name.Name == name {
			return f.Span
		}
	}
	panic(stateError)
}

func fieldSpanOrEmpty(schema *ast.SchemaAst, model, field string) diag.Span {
	if f := schema.FindField(model, field); f != nil {
		return f.Span
	}
	return diag.EmptySpan()
}
