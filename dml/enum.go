package dml

// Enum is a declared enumeration type.
type Enum struct {
	Name          string
	Values        []*EnumValue
	DatabaseName  string
	Documentation string
}

type EnumValue struct {
	Name          string
	DatabaseName  string
	Documentation string
}

func NewEnum(name string, values ...string) *Enum {
	e := &Enum{Name: name}
	for _, v := range values {
		e.Values = append(e.Values, &EnumValue{Name: v})
	}
	return e
}

// FindValue returns the value with the given name, or nil.
func (e *Enum) FindValue(name string) *EnumValue {
	for _, v := range e.Values {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (e *Enum) HasValue(name string) bool {
	return e.FindValue(name) != nil
}

func (e *Enum) AddValue(v *EnumValue) {
	e.Values = append(e.Values, v)
}
