package dml

// IndexType distinguishes plain lookup indexes from unique constraints.
type IndexType int

const (
	NormalIndex IndexType = iota
	UniqueIndex
)

// IndexDefinition is a table index declared on a model.
type IndexDefinition struct {
	Name   string
	Fields []string
	Type   IndexType
}

// Model is one declared object type with its fields, id and indexes.
type Model struct {
	Name string

	Fields []*Field

	// IDFields holds the field names of a compound primary key. Empty when
	// the id is a single field carrying IsID.
	IDFields []string

	Indices []*IndexDefinition

	DatabaseName   string
	Documentation  string
	IsGenerated    bool
	IsCommentedOut bool
}

func NewModel(name string) *Model {
	return &Model{Name: name}
}

// FindField returns the field with the given name, or nil.
func (m *Model) FindField(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (m *Model) HasField(name string) bool {
	return m.FindField(name) != nil
}

func (m *Model) AddField(f *Field) {
	m.Fields = append(m.Fields, f)
}

func (m *Model) AddIndex(idx *IndexDefinition) {
	m.Indices = append(m.Indices, idx)
}

// RelationFields returns the fields whose type points at another model.
func (m *Model) RelationFields() []*Field {
	var out []*Field
	for _, f := range m.Fields {
		if f.IsRelation() {
			out = append(out, f)
		}
	}
	return out
}

// SingularIDFields returns the fields marked with IsID.
func (m *Model) SingularIDFields() []*Field {
	var out []*Field
	for _, f := range m.Fields {
		if f.IsID {
			out = append(out, f)
		}
	}
	return out
}

// UniqueCriteria returns every candidate set of fields that uniquely
// identifies a record, ordered by precedence: the compound id, a singular id
// field, unique indexes whose fields are all required, then single unique
// required fields. Criteria containing commented-out fields are dropped.
func (m *Model) UniqueCriteria() [][]*Field {
	return m.uniqueCriteria(false)
}

// LooseUniqueCriteria is UniqueCriteria with optional fields permitted.
// Relations may reference a loose criterion; an id may not contain one.
func (m *Model) LooseUniqueCriteria() [][]*Field {
	return m.uniqueCriteria(true)
}

func (m *Model) uniqueCriteria(allowOptional bool) [][]*Field {
	var criteria [][]*Field

	eligible := func(fields []*Field) bool {
		for _, f := range fields {
			if f == nil || f.IsCommentedOut {
				return false
			}
			if f.Arity == Optional && !allowOptional {
				return false
			}
			if f.Arity == List {
				return false
			}
		}
		return len(fields) > 0
	}

	if len(m.IDFields) > 0 {
		var fields []*Field
		for _, name := range m.IDFields {
			fields = append(fields, m.FindField(name))
		}
		if eligible(fields) {
			criteria = append(criteria, fields)
		}
	}

	for _, f := range m.Fields {
		if f.IsID && eligible([]*Field{f}) {
			criteria = append(criteria, []*Field{f})
		}
	}

	for _, idx := range m.Indices {
		if idx.Type != UniqueIndex {
			continue
		}
		var fields []*Field
		for _, name := range idx.Fields {
			fields = append(fields, m.FindField(name))
		}
		if eligible(fields) {
			criteria = append(criteria, fields)
		}
	}

	for _, f := range m.Fields {
		if f.IsUnique && !f.IsID && eligible([]*Field{f}) {
			criteria = append(criteria, []*Field{f})
		}
	}

	return criteria
}

// FirstUniqueCriterion returns the highest-precedence unique criterion,
// preferring strict (all-required) criteria and falling back to loose ones.
// The second return is false when the model has none at all.
func (m *Model) FirstUniqueCriterion() ([]*Field, bool) {
	if criteria := m.UniqueCriteria(); len(criteria) > 0 {
		return criteria[0], true
	}
	if criteria := m.LooseUniqueCriteria(); len(criteria) > 0 {
		return criteria[0], true
	}
	return nil, false
}
