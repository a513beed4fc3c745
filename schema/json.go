package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datamodel-lang/go-datamodel/dml"
)

// The JSON form of a datamodel, consumed by code generators that do not link
// against this module. Field kinds are "scalar", "enum" or "relation"; for a
// relation field the type is the related model and the relation object
// carries the key columns:
//
//	{
//	  "models": [
//	    {
//	      "name": "Post",
//	      "fields": [
//	        {"name": "id", "kind": "scalar", "type": "Int", "arity": "required", "isId": true},
//	        {"name": "author", "kind": "relation", "type": "User", "arity": "required",
//	         "relation": {"fields": ["authorId"], "references": ["id"], "name": "PostToUser"}}
//	      ]
//	    }
//	  ],
//	  "enums": [
//	    {"name": "Role", "values": [{"name": "ADMIN"}]}
//	  ]
//	}

type jsonDatamodel struct {
	Models []jsonModel `json:"models"`
	Enums  []jsonEnum  `json:"enums,omitempty"`
}

type jsonModel struct {
	Name           string      `json:"name"`
	DBName         string      `json:"dbName,omitempty"`
	Documentation  string      `json:"documentation,omitempty"`
	IsGenerated    bool        `json:"isGenerated,omitempty"`
	IsCommentedOut bool        `json:"isCommentedOut,omitempty"`
	IDFields       []string    `json:"idFields,omitempty"`
	Fields         []jsonField `json:"fields"`
	Indices        []jsonIndex `json:"indices,omitempty"`
}

type jsonField struct {
	Name           string        `json:"name"`
	Kind           string        `json:"kind"`
	Type           string        `json:"type"`
	Arity          string        `json:"arity"`
	DBName         string        `json:"dbName,omitempty"`
	IsID           bool          `json:"isId,omitempty"`
	IsUnique       bool          `json:"isUnique,omitempty"`
	IsUpdatedAt    bool          `json:"isUpdatedAt,omitempty"`
	IsGenerated    bool          `json:"isGenerated,omitempty"`
	IsCommentedOut bool          `json:"isCommentedOut,omitempty"`
	Documentation  string        `json:"documentation,omitempty"`
	Default        *jsonDefault  `json:"default,omitempty"`
	Relation       *jsonRelation `json:"relation,omitempty"`
}

type jsonRelation struct {
	Fields     []string `json:"fields,omitempty"`
	References []string `json:"references,omitempty"`
	Name       string   `json:"name,omitempty"`
	OnDelete   string   `json:"onDelete,omitempty"`
}

type jsonDefault struct {
	Kind  string   `json:"kind"`
	Type  string   `json:"type,omitempty"`
	Value string   `json:"value,omitempty"`
	Name  string   `json:"name,omitempty"`
	Args  []string `json:"args,omitempty"`
}

type jsonIndex struct {
	Name   string   `json:"name,omitempty"`
	Fields []string `json:"fields"`
	Type   string   `json:"type"`
}

type jsonEnum struct {
	Name          string          `json:"name"`
	DBName        string          `json:"dbName,omitempty"`
	Documentation string          `json:"documentation,omitempty"`
	Values        []jsonEnumValue `json:"values"`
}

type jsonEnumValue struct {
	Name          string `json:"name"`
	DBName        string `json:"dbName,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// ToJSON serializes a datamodel to its JSON form.
func ToJSON(dm *dml.Datamodel) ([]byte, error) {
	out := jsonDatamodel{}
	for _, model := range dm.Models {
		jm := jsonModel{
			Name:           model.Name,
			DBName:         model.DatabaseName,
			Documentation:  model.Documentation,
			IsGenerated:    model.IsGenerated,
			IsCommentedOut: model.IsCommentedOut,
			IDFields:       model.IDFields,
		}
		for _, field := range model.Fields {
			jf, err := fieldToJSON(field)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", model.Name, err)
			}
			jm.Fields = append(jm.Fields, jf)
		}
		for _, idx := range model.Indices {
			jm.Indices = append(jm.Indices, jsonIndex{Name: idx.Name, Fields: idx.Fields, Type: indexTypeName(idx.Type)})
		}
		out.Models = append(out.Models, jm)
	}
	for _, enum := range dm.Enums {
		je := jsonEnum{Name: enum.Name, DBName: enum.DatabaseName, Documentation: enum.Documentation}
		for _, v := range enum.Values {
			je.Values = append(je.Values, jsonEnumValue{Name: v.Name, DBName: v.DatabaseName, Documentation: v.Documentation})
		}
		out.Enums = append(out.Enums, je)
	}
	return json.Marshal(out)
}

// FromJSON rebuilds a datamodel from its JSON form.
func FromJSON(data []byte) (*dml.Datamodel, error) {
	var in jsonDatamodel
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	dm := dml.NewDatamodel()
	for _, jm := range in.Models {
		model := &dml.Model{
			Name:           jm.Name,
			DatabaseName:   jm.DBName,
			Documentation:  jm.Documentation,
			IsGenerated:    jm.IsGenerated,
			IsCommentedOut: jm.IsCommentedOut,
			IDFields:       jm.IDFields,
		}
		for _, jf := range jm.Fields {
			field, err := fieldFromJSON(jf)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", jm.Name, err)
			}
			model.Fields = append(model.Fields, field)
		}
		for _, ji := range jm.Indices {
			tpe, err := parseIndexType(ji.Type)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", jm.Name, err)
			}
			model.Indices = append(model.Indices, &dml.IndexDefinition{Name: ji.Name, Fields: ji.Fields, Type: tpe})
		}
		dm.Models = append(dm.Models, model)
	}
	for _, je := range in.Enums {
		enum := &dml.Enum{Name: je.Name, DatabaseName: je.DBName, Documentation: je.Documentation}
		for _, jv := range je.Values {
			enum.Values = append(enum.Values, &dml.EnumValue{Name: jv.Name, DatabaseName: jv.DBName, Documentation: jv.Documentation})
		}
		dm.Enums = append(dm.Enums, enum)
	}
	return dm, nil
}

func fieldToJSON(field *dml.Field) (jsonField, error) {
	jf := jsonField{
		Name:           field.Name,
		Type:           field.FieldType.TypeName(),
		Arity:          arityName(field.Arity),
		DBName:         field.DatabaseName,
		IsID:           field.IsID,
		IsUnique:       field.IsUnique,
		IsUpdatedAt:    field.IsUpdatedAt,
		IsGenerated:    field.IsGenerated,
		IsCommentedOut: field.IsCommentedOut,
		Documentation:  field.Documentation,
	}

	switch t := field.FieldType.(type) {
	case dml.ScalarFieldType:
		jf.Kind = "scalar"
	case dml.EnumFieldType:
		jf.Kind = "enum"
	case dml.RelationFieldType:
		jf.Kind = "relation"
		jf.Relation = &jsonRelation{
			Fields:     t.Info.Fields,
			References: t.Info.ToFields,
			Name:       t.Info.Name,
		}
		if t.Info.OnDelete != dml.OnDeleteNone {
			jf.Relation.OnDelete = t.Info.OnDelete.String()
		}
	default:
		return jsonField{}, fmt.Errorf("field %s has no serializable type", field.Name)
	}

	if field.DefaultValue != nil {
		jd, err := defaultToJSON(field.DefaultValue)
		if err != nil {
			return jsonField{}, fmt.Errorf("field %s: %w", field.Name, err)
		}
		jf.Default = jd
	}
	return jf, nil
}

func fieldFromJSON(jf jsonField) (*dml.Field, error) {
	arity, err := parseArity(jf.Arity)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", jf.Name, err)
	}

	var fieldType dml.FieldType
	switch jf.Kind {
	case "scalar":
		t, ok := dml.ParseScalarType(jf.Type)
		if !ok {
			return nil, fmt.Errorf("field %s: unknown scalar type %q", jf.Name, jf.Type)
		}
		fieldType = dml.ScalarFieldType{Type: t}
	case "enum":
		fieldType = dml.EnumFieldType{Enum: jf.Type}
	case "relation":
		info := dml.NewRelationInfo(jf.Type)
		if jf.Relation != nil {
			info.Fields = jf.Relation.Fields
			info.ToFields = jf.Relation.References
			info.Name = jf.Relation.Name
			if jf.Relation.OnDelete != "" {
				onDelete, ok := dml.ParseOnDelete(jf.Relation.OnDelete)
				if !ok {
					return nil, fmt.Errorf("field %s: unknown onDelete strategy %q", jf.Name, jf.Relation.OnDelete)
				}
				info.OnDelete = onDelete
			}
		}
		fieldType = dml.RelationFieldType{Info: info}
	default:
		return nil, fmt.Errorf("field %s: unknown field kind %q", jf.Name, jf.Kind)
	}

	field := &dml.Field{
		Name:           jf.Name,
		Arity:          arity,
		FieldType:      fieldType,
		DatabaseName:   jf.DBName,
		IsID:           jf.IsID,
		IsUnique:       jf.IsUnique,
		IsUpdatedAt:    jf.IsUpdatedAt,
		IsGenerated:    jf.IsGenerated,
		IsCommentedOut: jf.IsCommentedOut,
		Documentation:  jf.Documentation,
	}
	if jf.Default != nil {
		dv, err := defaultFromJSON(jf.Default)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", jf.Name, err)
		}
		field.DefaultValue = dv
	}
	return field, nil
}

func defaultToJSON(dv dml.DefaultValue) (*jsonDefault, error) {
	switch d := dv.(type) {
	case dml.SingleDefault:
		kind, err := scalarValueKind(d.Value)
		if err != nil {
			return nil, err
		}
		return &jsonDefault{Kind: "literal", Type: kind, Value: d.Value.String()}, nil
	case dml.ExpressionDefault:
		jd := &jsonDefault{Kind: "expression", Name: d.Name, Type: d.ReturnType.String()}
		for _, arg := range d.Args {
			jd.Args = append(jd.Args, arg.String())
		}
		return jd, nil
	}
	return nil, fmt.Errorf("unknown default value kind %T", dv)
}

func defaultFromJSON(jd *jsonDefault) (dml.DefaultValue, error) {
	switch jd.Kind {
	case "literal":
		val, err := parseScalarValue(jd.Type, jd.Value)
		if err != nil {
			return nil, err
		}
		return dml.SingleDefault{Value: val}, nil
	case "expression":
		returnType, ok := dml.ParseScalarType(jd.Type)
		if !ok {
			return nil, fmt.Errorf("unknown scalar type %q", jd.Type)
		}
		args := make([]dml.ScalarValue, 0, len(jd.Args))
		for _, arg := range jd.Args {
			args = append(args, dml.StringValue(arg))
		}
		return dml.ExpressionDefault{Name: jd.Name, ReturnType: returnType, Args: args}, nil
	}
	return nil, fmt.Errorf("unknown default kind %q", jd.Kind)
}

func scalarValueKind(v dml.ScalarValue) (string, error) {
	switch v.(type) {
	case dml.IntValue:
		return "Int", nil
	case dml.FloatValue:
		return "Float", nil
	case dml.DecimalValue:
		return "Decimal", nil
	case dml.BooleanValue:
		return "Boolean", nil
	case dml.StringValue:
		return "String", nil
	case dml.DateTimeValue:
		return "DateTime", nil
	case dml.ConstantValue:
		return "Constant", nil
	}
	return "", fmt.Errorf("unknown scalar value kind %T", v)
}

func parseScalarValue(kind, raw string) (dml.ScalarValue, error) {
	switch kind {
	case "Int":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Int literal %q", raw)
		}
		return dml.IntValue(n), nil
	case "Float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Float literal %q", raw)
		}
		return dml.FloatValue(f), nil
	case "Decimal":
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid Decimal literal %q", raw)
		}
		return dml.DecimalValue{Value: d}, nil
	case "Boolean":
		switch raw {
		case "true":
			return dml.BooleanValue(true), nil
		case "false":
			return dml.BooleanValue(false), nil
		}
		return nil, fmt.Errorf("invalid Boolean literal %q", raw)
	case "String":
		return dml.StringValue(raw), nil
	case "DateTime":
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DateTime literal %q", raw)
		}
		return dml.DateTimeValue{Value: t}, nil
	case "Constant":
		return dml.ConstantValue(raw), nil
	}
	return nil, fmt.Errorf("unknown literal type %q", kind)
}

func arityName(a dml.FieldArity) string {
	switch a {
	case dml.Optional:
		return "optional"
	case dml.List:
		return "list"
	default:
		return "required"
	}
}

func parseArity(s string) (dml.FieldArity, error) {
	switch s {
	case "required":
		return dml.Required, nil
	case "optional":
		return dml.Optional, nil
	case "list":
		return dml.List, nil
	}
	return 0, fmt.Errorf("unknown arity %q", s)
}

func indexTypeName(t dml.IndexType) string {
	if t == dml.UniqueIndex {
		return "unique"
	}
	return "normal"
}

func parseIndexType(s string) (dml.IndexType, error) {
	switch s {
	case "unique":
		return dml.UniqueIndex, nil
	case "normal":
		return dml.NormalIndex, nil
	}
	return 0, fmt.Errorf("unknown index type %q", s)
}
