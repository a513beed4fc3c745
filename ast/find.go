package ast

// FindModel returns the model with the given name, or nil.
func (s *SchemaAst) FindModel(name string) *Model {
	for _, top := range s.Tops {
		if m, ok := top.(*Model); ok && m.Name.Name == name {
			return m
		}
	}
	return nil
}

// FindEnum returns the enum with the given name, or nil.
func (s *SchemaAst) FindEnum(name string) *Enum {
	for _, top := range s.Tops {
		if e, ok := top.(*Enum); ok && e.Name.Name == name {
			return e
		}
	}
	return nil
}

// FindTypeAlias returns the type alias with the given name, or nil.
func (s *SchemaAst) FindTypeAlias(name string) *TypeAlias {
	for _, top := range s.Tops {
		if t, ok := top.(*TypeAlias); ok && t.Name.Name == name {
			return t
		}
	}
	return nil
}

// FindField returns the named field on the named model, or nil.
func (s *SchemaAst) FindField(model, field string) *Field {
	m := s.FindModel(model)
	if m == nil {
		return nil
	}
	return m.FindField(field)
}

// Models returns the models in document order.
func (s *SchemaAst) Models() []*Model {
	var out []*Model
	for _, top := range s.Tops {
		if m, ok := top.(*Model); ok {
			out = append(out, m)
		}
	}
	return out
}

// Enums returns the enums in document order.
func (s *SchemaAst) Enums() []*Enum {
	var out []*Enum
	for _, top := range s.Tops {
		if e, ok := top.(*Enum); ok {
			out = append(out, e)
		}
	}
	return out
}

// Sources returns the datasource blocks in document order.
func (s *SchemaAst) Sources() []*SourceConfig {
	var out []*SourceConfig
	for _, top := range s.Tops {
		if c, ok := top.(*SourceConfig); ok {
			out = append(out, c)
		}
	}
	return out
}

// Generators returns the generator blocks in document order.
func (s *SchemaAst) Generators() []*GeneratorConfig {
	var out []*GeneratorConfig
	for _, top := range s.Tops {
		if g, ok := top.(*GeneratorConfig); ok {
			out = append(out, g)
		}
	}
	return out
}
