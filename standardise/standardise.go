// Package standardise makes a validated datamodel consistent with itself.
// Relation inference runs in three passes: unnamed relations are assigned
// generated names, then every relation field missing its opposite gets a
// generated back-relation field on the related model, then relations without
// explicit foreign keys are anchored to a unique criterion on exactly one
// side.
package standardise

import (
	"fmt"
	"strings"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
)

const stateError = "Failed lookup of model, field or optional property during internal processing. This means that the internal representation was mutated incorrectly."

// Standardise mutates dm in place, running the three inference passes in
// order. Passes only ever add fields. User-written relation names, fields and
// references take precedence over inference, and errors from an earlier pass
// stop the later ones.
func Standardise(schema *ast.SchemaAst, dm *dml.Datamodel) []diag.Error {
	nameUnnamedRelations(dm)
	if errs := addMissingBackRelations(schema, dm); len(errs) > 0 {
		return errs
	}
	return embedMissingForeignKeys(schema, dm)
}

func nameUnnamedRelations(dm *dml.Datamodel) {
	for _, model := range dm.Models {
		for _, field := range model.RelationFields() {
			rel := field.RelationInfo()
			if rel.Name == "" {
				rel.Name = dml.NameForUnambiguousRelation(model.Name, rel.To)
			}
		}
	}
}

// backRelationField is a planned insertion: the generated opposite of a
// relation field that has none, plus any foreign key columns it needs on the
// target model.
type backRelationField struct {
	model            string
	field            *dml.Field
	relatedModel     string
	relatedField     string
	underlyingFields []*dml.Field
}

// addMissingBackRelations completes 1:1 and 1:n relations that were written
// on one side only. Insertions are collected over the unmodified datamodel
// first and applied afterwards, so that inference for one model never
// observes fields generated for another.
func addMissingBackRelations(schema *ast.SchemaAst, dm *dml.Datamodel) []diag.Error {
	var missing []*backRelationField
	for _, model := range dm.Models {
		found, errs := findMissingBackRelations(model, dm, schema)
		if len(errs) > 0 {
			return errs
		}
		missing = append(missing, found...)
	}

	var errs []diag.Error
	for _, back := range missing {
		model := dm.FindModel(back.model)
		if model == nil {
			panic(stateError)
		}
		if model.HasField(back.field.Name) {
			errs = append(errs, diag.NewFieldValidationError(
				"Automatic related field generation would cause a naming conflict. Please add an explicit opposite relation field.",
				back.relatedModel, back.relatedField,
				fieldSpan(schema, back.relatedModel, back.relatedField)))
			continue
		}
		model.AddField(back.field)
		for _, f := range back.underlyingFields {
			if !model.HasField(f.Name) {
				model.AddField(f)
			}
		}
	}
	return errs
}

func findMissingBackRelations(model *dml.Model, dm *dml.Datamodel, schema *ast.SchemaAst) ([]*backRelationField, []diag.Error) {
	var errs []diag.Error
	var result []*backRelationField

	for _, field := range model.RelationFields() {
		rel := field.RelationInfo()
		relatedModel := dm.FindModel(rel.To)
		if relatedModel == nil {
			panic(stateError)
		}
		if dm.FindRelatedField(model.Name, rel, field.Name) != nil {
			continue
		}

		if field.Arity.IsSingular() {
			// The foreign key stays on the originating side. The back
			// field is a plain list with no columns of its own.
			back := dml.NewRelationField(model.Name, &dml.RelationInfo{To: model.Name, Name: rel.Name})
			back.Arity = dml.List
			back.IsGenerated = true
			result = append(result, &backRelationField{
				model:        rel.To,
				field:        back,
				relatedModel: model.Name,
				relatedField: field.Name,
			})
			continue
		}

		// A to-list field without an opposite: the foreign key must live on
		// the related model and reference this model's loose unique
		// criterion.
		criterion := looseCriterion(model)
		var refNames []string
		for _, f := range criterion {
			refNames = append(refNames, f.Name)
		}

		underlying := underlyingFields(criterion, model.Name, dml.Optional)
		for _, f := range underlying {
			existing := relatedModel.FindField(f.Name)
			if existing != nil && !dml.CompatibleTypes(existing.FieldType, f.FieldType) {
				f.Name = f.Name + "_" + rel.Name
			}
		}

		var fieldNames []string
		var toAdd []*dml.Field
		for _, f := range underlying {
			fieldNames = append(fieldNames, f.Name)
			existing := relatedModel.FindField(f.Name)
			switch {
			case existing == nil:
				toAdd = append(toAdd, f)
			case dml.CompatibleTypes(existing.FieldType, f.FieldType):
				// Compatible column already there, reuse it.
			default:
				errs = append(errs, diag.NewModelValidationError(
					fmt.Sprintf("Automatic underlying field generation tried to add the field `%s` in model `%s` for the back relation field of `%s` in `%s`. A field with that name exists already and has an incompatible type for the relation. Please add the back relation manually.",
						f.Name, relatedModel.Name, field.Name, model.Name),
					relatedModel.Name,
					modelSpan(schema, relatedModel.Name)))
			}
		}

		back := dml.NewRelationField(model.Name, &dml.RelationInfo{
			To:       model.Name,
			Fields:   fieldNames,
			ToFields: refNames,
			Name:     rel.Name,
		})
		back.Arity = dml.Optional
		back.IsGenerated = true
		result = append(result, &backRelationField{
			model:            rel.To,
			field:            back,
			relatedModel:     model.Name,
			relatedField:     field.Name,
			underlyingFields: toAdd,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return result, nil
}

// embedMissingForeignKeys fills in references and foreign key columns for
// relations that declare neither, choosing the embedding side by arity and
// falling back to lexical order for 1:1 relations. Decisions are taken over
// the unmodified datamodel and applied afterwards; both halves of a
// many-to-many relation therefore see the other side as empty and each fill
// in their own references.
func embedMissingForeignKeys(schema *ast.SchemaAst, dm *dml.Datamodel) []diag.Error {
	type relPlan struct {
		rel      *dml.RelationInfo
		toFields []string
		fields   []string
	}
	type modelPlan struct {
		model *dml.Model
		rels  []relPlan
		toAdd []*dml.Field
		// impliedBy records which relation fields asked for each
		// synthesized column. More than one means a collision.
		impliedBy map[string][]string
	}

	var plans []*modelPlan
	for _, model := range dm.Models {
		plan := &modelPlan{model: model, impliedBy: map[string][]string{}}
		for _, field := range model.RelationFields() {
			rel := field.RelationInfo()
			relatedModel := dm.FindModel(rel.To)
			if relatedModel == nil {
				panic(stateError)
			}
			relatedField := dm.FindRelatedField(model.Name, rel, field.Name)
			if relatedField == nil {
				panic(stateError)
			}
			if !embedsHere(model, field, relatedModel, relatedField) {
				continue
			}
			relatedRel := relatedField.RelationInfo()
			isM2M := field.Arity.IsList() && relatedField.Arity.IsList()

			p := relPlan{rel: rel}
			if len(rel.ToFields) == 0 && len(relatedRel.ToFields) == 0 {
				criterion, ok := relatedModel.FirstUniqueCriterion()
				if !ok {
					panic(stateError)
				}
				for _, f := range criterion {
					p.toFields = append(p.toFields, f.Name)
				}
			}
			if !isM2M && len(rel.Fields) == 0 && len(relatedRel.Fields) == 0 {
				for _, uf := range underlyingFields(looseCriterion(relatedModel), relatedModel.Name, field.Arity) {
					p.fields = append(p.fields, uf.Name)
					plan.impliedBy[uf.Name] = append(plan.impliedBy[uf.Name], field.Name)
					if !containsField(plan.toAdd, uf) {
						plan.toAdd = append(plan.toAdd, uf)
					}
				}
			}
			if p.toFields != nil || p.fields != nil {
				plan.rels = append(plan.rels, p)
			}
		}
		plans = append(plans, plan)
	}

	var errs []diag.Error
	for _, plan := range plans {
		for _, p := range plan.rels {
			if p.toFields != nil {
				p.rel.ToFields = p.toFields
			}
			if p.fields != nil {
				p.rel.Fields = p.fields
			}
		}
		for _, f := range plan.toAdd {
			if implied := plan.impliedBy[f.Name]; len(implied) > 1 {
				var missingNames []string
				for _, name := range implied {
					missingNames = append(missingNames, dml.CamelCase(name)+"Id")
				}
				errs = append(errs, diag.NewModelValidationError(
					fmt.Sprintf("Colliding implicit relations. Please add scalar types %s.", strings.Join(missingNames, ", and ")),
					plan.model.Name,
					modelSpan(schema, plan.model.Name)))
				continue
			}
			plan.model.AddField(f)
		}
	}
	return errs
}

// embedsHere decides which half of a relation carries the foreign key.
// Many-to-many embeds on both sides, one-to-many on the non-list side. A 1:1
// relation is broken by model name, a 1:1 self relation by field name.
func embedsHere(model *dml.Model, field *dml.Field, relatedModel *dml.Model, relatedField *dml.Field) bool {
	switch {
	case relatedField.Arity.IsList():
		return true
	case field.Arity.IsList():
		return false
	case model.Name != relatedModel.Name:
		return model.Name < relatedModel.Name
	default:
		return field.Name < relatedField.Name
	}
}

// looseCriterion is the highest-precedence unique criterion with optional
// fields permitted. Validation guarantees every model has one.
func looseCriterion(m *dml.Model) []*dml.Field {
	criteria := m.LooseUniqueCriteria()
	if len(criteria) == 0 {
		panic(stateError)
	}
	return criteria[0]
}

// underlyingFields builds the foreign key columns mirroring a unique
// criterion, named after the model the criterion belongs to.
func underlyingFields(criterion []*dml.Field, modelName string, arity dml.FieldArity) []*dml.Field {
	var out []*dml.Field
	for _, f := range criterion {
		uf := dml.NewField(dml.CamelCase(modelName)+dml.PascalCase(f.Name), f.FieldType)
		uf.Arity = arity
		out = append(out, uf)
	}
	return out
}

func containsField(fields []*dml.Field, f *dml.Field) bool {
	for _, other := range fields {
		if other.Name == f.Name && other.Arity == f.Arity && other.FieldType == f.FieldType {
			return true
		}
	}
	return false
}

func modelSpan(schema *ast.SchemaAst, name string) diag.Span {
	m := schema.FindModel(name)
	if m == nil {
		panic(stateError)
	}
	return m.Span
}

func fieldSpan(schema *ast.SchemaAst, model, field string) diag.Span {
	f := schema.FindField(model, field)
	if f == nil {
		panic(stateError)
	}
	return f.Span
}
