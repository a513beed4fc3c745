package attr

import (
	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/dml"
)

// EnumValidators returns the validator set for block-level enum attributes.
func EnumValidators() *List[*dml.Enum] {
	return NewList[*dml.Enum](mapEnumValidator{})
}

// EnumValueValidators returns the validator set for enum value attributes.
func EnumValueValidators() *List[*dml.EnumValue] {
	return NewList[*dml.EnumValue](mapEnumValueValidator{})
}

type mapEnumValidator struct{}

func (mapEnumValidator) Name() string           { return "map" }
func (mapEnumValidator) DuplicateAllowed() bool { return false }

func (mapEnumValidator) ValidateAndApply(args *Args, e *dml.Enum) error {
	name, err := mapName(args)
	if err != nil {
		return err
	}
	e.DatabaseName = name
	return nil
}

func (mapEnumValidator) Serialize(e *dml.Enum, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if e.DatabaseName == "" {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("map", unnamedArg(&ast.StringValue{Value: e.DatabaseName}))}, nil
}

type mapEnumValueValidator struct{}

func (mapEnumValueValidator) Name() string           { return "map" }
func (mapEnumValueValidator) DuplicateAllowed() bool { return false }

func (mapEnumValueValidator) ValidateAndApply(args *Args, v *dml.EnumValue) error {
	name, err := mapName(args)
	if err != nil {
		return err
	}
	v.DatabaseName = name
	return nil
}

func (mapEnumValueValidator) Serialize(v *dml.EnumValue, _ *dml.Datamodel) ([]*ast.Attribute, error) {
	if v.DatabaseName == "" {
		return nil, nil
	}
	return []*ast.Attribute{ast.NewAttribute("map", unnamedArg(&ast.StringValue{Value: v.DatabaseName}))}, nil
}
