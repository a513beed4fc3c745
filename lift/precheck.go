package lift

import (
	"fmt"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
)

// precheck verifies document-level name sanity before anything is lifted:
// reserved scalar names, duplicate top-level names, duplicate fields, enum
// values and config keys. Models, enums and type aliases share one
// namespace; datasources and generators each have their own.
func precheck(schema *ast.SchemaAst) []diag.Error {
	var errs []diag.Error

	typeNames := make(map[string]ast.Top)
	sourceNames := make(map[string]ast.Top)
	generatorNames := make(map[string]ast.Top)

	checkUnique := func(ns map[string]ast.Top, top ast.Top, name ast.Identifier) {
		if existing, ok := ns[name.Name]; ok {
			errs = append(errs, diag.NewDuplicateTopError(ast.DescribeTop(top), name.Name, ast.DescribeTop(existing), name.Span))
			return
		}
		ns[name.Name] = top
	}
	checkReserved := func(name ast.Identifier) {
		if dml.IsReservedTypeName(name.Name) {
			errs = append(errs, diag.NewReservedScalarTypeError(name.Name, name.Span))
		}
	}

	for _, top := range schema.Tops {
		switch t := top.(type) {
		case *ast.Model:
			checkReserved(t.Name)
			checkUnique(typeNames, t, t.Name)
			errs = append(errs, precheckFields(t)...)
		case *ast.Enum:
			checkReserved(t.Name)
			checkUnique(typeNames, t, t.Name)
			errs = append(errs, precheckEnumValues(t)...)
		case *ast.TypeAlias:
			checkReserved(t.Name)
			checkUnique(typeNames, t, t.Name)
		case *ast.SourceConfig:
			checkUnique(sourceNames, t, t.Name)
			errs = append(errs, precheckProperties(t.Properties, fmt.Sprintf("datasource configuration %q", t.Name.Name))...)
		case *ast.GeneratorConfig:
			checkUnique(generatorNames, t, t.Name)
			errs = append(errs, precheckProperties(t.Properties, fmt.Sprintf("generator configuration %q", t.Name.Name))...)
		}
	}
	return errs
}

func precheckFields(m *ast.Model) []diag.Error {
	var errs []diag.Error
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if f.CommentedOut {
			continue
		}
		if seen[f.Name.Name] {
			errs = append(errs, diag.NewDuplicateFieldError(m.Name.Name, f.Name.Name, f.Name.Span))
			continue
		}
		seen[f.Name.Name] = true
	}
	return errs
}

func precheckEnumValues(e *ast.Enum) []diag.Error {
	var errs []diag.Error
	seen := make(map[string]bool, len(e.Values))
	for _, v := range e.Values {
		if v.CommentedOut {
			continue
		}
		if seen[v.Name.Name] {
			errs = append(errs, diag.NewDuplicateEnumValueError(e.Name.Name, v.Name.Name, v.Name.Span))
			continue
		}
		seen[v.Name.Name] = true
	}
	return errs
}

func precheckProperties(props []*ast.ConfigProperty, block string) []diag.Error {
	var errs []diag.Error
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		if seen[p.Name.Name] {
			errs = append(errs, diag.NewDuplicateConfigKeyError(p.Name.Name, block, p.Name.Span))
			continue
		}
		seen[p.Name.Name] = true
	}
	return errs
}
