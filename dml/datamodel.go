// Package dml defines the semantic datamodel produced by validating a parsed
// schema: models, enums, relations, indexes and default values, decoupled
// from the surface syntax they were written in.
package dml

// Datamodel is the root of the semantic model.
type Datamodel struct {
	Models []*Model
	Enums  []*Enum
}

func NewDatamodel() *Datamodel {
	return &Datamodel{}
}

// FindModel returns the model with the given name, or nil.
func (d *Datamodel) FindModel(name string) *Model {
	for _, m := range d.Models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FindEnum returns the enum with the given name, or nil.
func (d *Datamodel) FindEnum(name string) *Enum {
	for _, e := range d.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (d *Datamodel) AddModel(m *Model) {
	d.Models = append(d.Models, m)
}

func (d *Datamodel) AddEnum(e *Enum) {
	d.Enums = append(d.Enums, e)
}

func (d *Datamodel) HasModel(name string) bool {
	return d.FindModel(name) != nil
}

func (d *Datamodel) HasEnum(name string) bool {
	return d.FindEnum(name) != nil
}

// FindField returns the named field on the named model, or nil.
func (d *Datamodel) FindField(model, field string) *Field {
	m := d.FindModel(model)
	if m == nil {
		return nil
	}
	return m.FindField(field)
}

// FindRelatedField returns the opposite side of a relation: the field on the
// model named rel.To that points back at fromModel under the same relation
// name. On self-relations excludeField names the field that is looking for
// its partner, so it cannot be matched with itself.
func (d *Datamodel) FindRelatedField(fromModel string, rel *RelationInfo, excludeField string) *Field {
	target := d.FindModel(rel.To)
	if target == nil {
		return nil
	}
	for _, f := range target.Fields {
		info := f.RelationInfo()
		if info == nil || info.To != fromModel || info.Name != rel.Name {
			continue
		}
		if fromModel == rel.To && f.Name == excludeField {
			continue
		}
		return f
	}
	return nil
}

// FindModelByField returns the model that holds exactly this field value.
func (d *Datamodel) FindModelByField(field *Field) *Model {
	for _, m := range d.Models {
		for _, f := range m.Fields {
			if f == field {
				return m
			}
		}
	}
	return nil
}
