package dml

// FieldArity is the cardinality of a field.
type FieldArity int

const (
	Required FieldArity = iota
	Optional
	List
)

func (a FieldArity) IsRequired() bool { return a == Required }
func (a FieldArity) IsOptional() bool { return a == Optional }
func (a FieldArity) IsList() bool     { return a == List }

// IsSingular reports whether the arity holds at most one value.
func (a FieldArity) IsSingular() bool { return a != List }

// FieldType is the closed set of semantic field types.
type FieldType interface {
	fieldType()

	// TypeName is the schema-level name of the type: the scalar name, the
	// enum name, or the related model name.
	TypeName() string
}

// ScalarFieldType is a built-in scalar such as Int or DateTime.
type ScalarFieldType struct {
	Type ScalarType
}

// EnumFieldType references a declared enum by name.
type EnumFieldType struct {
	Enum string
}

// RelationFieldType points at another model.
type RelationFieldType struct {
	Info *RelationInfo
}

func (ScalarFieldType) fieldType()   {}
func (EnumFieldType) fieldType()     {}
func (RelationFieldType) fieldType() {}

func (t ScalarFieldType) TypeName() string   { return t.Type.String() }
func (t EnumFieldType) TypeName() string     { return t.Enum }
func (t RelationFieldType) TypeName() string { return t.Info.To }

// CompatibleTypes reports whether two field types can be joined in a
// relation, i.e. a foreign key column of type a can reference a column of
// type b. Relation types never join.
func CompatibleTypes(a, b FieldType) bool {
	switch at := a.(type) {
	case ScalarFieldType:
		bt, ok := b.(ScalarFieldType)
		return ok && at.Type == bt.Type
	case EnumFieldType:
		bt, ok := b.(EnumFieldType)
		return ok && at.Enum == bt.Enum
	default:
		return false
	}
}

// Field is a single field on a model. Scalar, enum and relation fields share
// the struct and are discriminated by FieldType.
type Field struct {
	Name      string
	Arity     FieldArity
	FieldType FieldType

	DatabaseName string
	DefaultValue DefaultValue

	IsID        bool
	IsUnique    bool
	IsUpdatedAt bool

	// IsGenerated marks fields synthesized during standardisation rather
	// than written by the user. Generated fields are dropped when lowering
	// back to syntax.
	IsGenerated    bool
	IsCommentedOut bool

	Documentation string
}

func NewField(name string, t FieldType) *Field {
	return &Field{Name: name, Arity: Required, FieldType: t}
}

func NewScalarField(name string, t ScalarType) *Field {
	return NewField(name, ScalarFieldType{Type: t})
}

func NewRelationField(name string, info *RelationInfo) *Field {
	return NewField(name, RelationFieldType{Info: info})
}

// RelationInfo returns the relation metadata, or nil for non-relation fields.
func (f *Field) RelationInfo() *RelationInfo {
	if t, ok := f.FieldType.(RelationFieldType); ok {
		return t.Info
	}
	return nil
}

func (f *Field) IsRelation() bool {
	return f.RelationInfo() != nil
}

// ScalarType returns the scalar type of the field, false for enum and
// relation fields.
func (f *Field) ScalarType() (ScalarType, bool) {
	if t, ok := f.FieldType.(ScalarFieldType); ok {
		return t.Type, true
	}
	return 0, false
}

// FinalDatabaseName is the physical column name: the mapped name when set,
// the field name otherwise.
func (f *Field) FinalDatabaseName() string {
	if f.DatabaseName != "" {
		return f.DatabaseName
	}
	return f.Name
}

// RelationInfo describes one side of a relation between two models.
type RelationInfo struct {
	// To is the name of the related model.
	To string

	// Fields holds the foreign key columns on this model.
	Fields []string

	// ToFields holds the referenced columns on the related model.
	ToFields []string

	// Name disambiguates multiple relations between the same pair of
	// models. Empty until the standardiser assigns the generated name.
	Name string

	OnDelete OnDeleteStrategy
}

func NewRelationInfo(to string) *RelationInfo {
	return &RelationInfo{To: to}
}

// OnDeleteStrategy is the referential action on deletion of the related row.
type OnDeleteStrategy int

const (
	OnDeleteNone OnDeleteStrategy = iota
	OnDeleteSetNull
	OnDeleteCascade
)

func (s OnDeleteStrategy) String() string {
	switch s {
	case OnDeleteSetNull:
		return "SET_NULL"
	case OnDeleteCascade:
		return "CASCADE"
	default:
		return "NONE"
	}
}

// ParseOnDelete maps the schema constant to the strategy.
func ParseOnDelete(s string) (OnDeleteStrategy, bool) {
	switch s {
	case "NONE":
		return OnDeleteNone, true
	case "SET_NULL":
		return OnDeleteSetNull, true
	case "CASCADE":
		return OnDeleteCascade, true
	}
	return OnDeleteNone, false
}
