package dml

// Builder provides a fluent API for constructing datamodels in code.
type Builder struct {
	dm *Datamodel

	// Track current element for modifier methods
	currentModel *Model
	currentEnum  *Enum
	currentField *Field
}

// Build creates a new datamodel builder.
func Build() *Builder {
	return &Builder{dm: NewDatamodel()}
}

// Model starts a new model. Field and modifier calls apply to it until the
// next Model or Enum call.
func (b *Builder) Model(name string) *Builder {
	b.currentField = nil
	b.currentEnum = nil
	b.currentModel = NewModel(name)
	b.dm.AddModel(b.currentModel)
	return b
}

// Enum adds an enum with the given values.
func (b *Builder) Enum(name string, values ...string) *Builder {
	b.currentField = nil
	b.currentModel = nil
	b.currentEnum = NewEnum(name, values...)
	b.dm.AddEnum(b.currentEnum)
	return b
}

// Field adds a required scalar field to the current model.
func (b *Builder) Field(name string, t ScalarType) *Builder {
	return b.addField(NewScalarField(name, t))
}

// EnumField adds a required enum-typed field to the current model.
func (b *Builder) EnumField(name, enum string) *Builder {
	return b.addField(NewField(name, EnumFieldType{Enum: enum}))
}

// Relation adds a required relation field pointing at the named model.
func (b *Builder) Relation(name, to string) *Builder {
	return b.addField(NewRelationField(name, NewRelationInfo(to)))
}

func (b *Builder) addField(f *Field) *Builder {
	if b.currentModel != nil {
		b.currentModel.AddField(f)
		b.currentField = f
	}
	return b
}

// Optional makes the current field optional.
func (b *Builder) Optional() *Builder {
	if b.currentField != nil {
		b.currentField.Arity = Optional
	}
	return b
}

// List makes the current field a list.
func (b *Builder) List() *Builder {
	if b.currentField != nil {
		b.currentField.Arity = List
	}
	return b
}

// ID marks the current field as the model id.
func (b *Builder) ID() *Builder {
	if b.currentField != nil {
		b.currentField.IsID = true
	}
	return b
}

// Unique marks the current field unique.
func (b *Builder) Unique() *Builder {
	if b.currentField != nil {
		b.currentField.IsUnique = true
	}
	return b
}

// UpdatedAt marks the current field as an update timestamp.
func (b *Builder) UpdatedAt() *Builder {
	if b.currentField != nil {
		b.currentField.IsUpdatedAt = true
	}
	return b
}

// Generated marks the current field as standardiser-generated.
func (b *Builder) Generated() *Builder {
	if b.currentField != nil {
		b.currentField.IsGenerated = true
	}
	return b
}

// Default sets the current field's default value.
func (b *Builder) Default(v DefaultValue) *Builder {
	if b.currentField != nil {
		b.currentField.DefaultValue = v
	}
	return b
}

// Named sets the relation name of the current relation field.
func (b *Builder) Named(relationName string) *Builder {
	if b.currentField != nil {
		if info := b.currentField.RelationInfo(); info != nil {
			info.Name = relationName
		}
	}
	return b
}

// FKFields sets the foreign key columns of the current relation field.
func (b *Builder) FKFields(fields ...string) *Builder {
	if b.currentField != nil {
		if info := b.currentField.RelationInfo(); info != nil {
			info.Fields = fields
		}
	}
	return b
}

// References sets the referenced columns of the current relation field.
func (b *Builder) References(fields ...string) *Builder {
	if b.currentField != nil {
		if info := b.currentField.RelationInfo(); info != nil {
			info.ToFields = fields
		}
	}
	return b
}

// Map sets the database name of the current field, or of the current model
// or enum when no field is in progress.
func (b *Builder) Map(databaseName string) *Builder {
	switch {
	case b.currentField != nil:
		b.currentField.DatabaseName = databaseName
	case b.currentModel != nil:
		b.currentModel.DatabaseName = databaseName
	case b.currentEnum != nil:
		b.currentEnum.DatabaseName = databaseName
	}
	return b
}

// Docs sets documentation on the current field, model or enum.
func (b *Builder) Docs(text string) *Builder {
	switch {
	case b.currentField != nil:
		b.currentField.Documentation = text
	case b.currentModel != nil:
		b.currentModel.Documentation = text
	case b.currentEnum != nil:
		b.currentEnum.Documentation = text
	}
	return b
}

// CompositeID declares a compound primary key on the current model.
func (b *Builder) CompositeID(fields ...string) *Builder {
	if b.currentModel != nil {
		b.currentModel.IDFields = fields
	}
	return b
}

// Index adds a plain index over the given fields to the current model.
func (b *Builder) Index(fields ...string) *Builder {
	return b.addIndex(&IndexDefinition{Fields: fields, Type: NormalIndex})
}

// UniqueIndex adds a unique index over the given fields to the current model.
func (b *Builder) UniqueIndex(fields ...string) *Builder {
	return b.addIndex(&IndexDefinition{Fields: fields, Type: UniqueIndex})
}

func (b *Builder) addIndex(idx *IndexDefinition) *Builder {
	if b.currentModel != nil {
		b.currentModel.AddIndex(idx)
	}
	return b
}

// Datamodel returns the built datamodel.
func (b *Builder) Datamodel() *Datamodel {
	return b.dm
}
