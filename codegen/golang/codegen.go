// Package golang generates Go source from a validated datamodel.
package golang

import (
	"fmt"
	"go/format"
	"strings"
	"unicode"

	"github.com/datamodel-lang/go-datamodel/dml"
)

// Generate produces one Go source file declaring a struct per model and a
// string type per enum. pkg names the target package, "models" when empty.
// The output is gofmt formatted.
func Generate(dm *dml.Datamodel, pkg string) (string, error) {
	if dm == nil {
		return "", fmt.Errorf("nil datamodel")
	}
	if pkg == "" {
		pkg = "models"
	}
	g := &generator{dm: dm, pkg: pkg}
	src, err := format.Source([]byte(g.generate()))
	if err != nil {
		return "", fmt.Errorf("format generated source: %w", err)
	}
	return string(src), nil
}

type generator struct {
	dm  *dml.Datamodel
	pkg string
}

func (g *generator) generate() string {
	var b strings.Builder

	b.WriteString("// Code generated by datamodel. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", g.pkg)

	b.WriteString(g.generateImports())

	// Enums first, models reference them.
	for _, enum := range g.dm.Enums {
		b.WriteString(g.generateEnum(enum))
	}
	for _, model := range g.dm.Models {
		b.WriteString(g.generateModel(model))
	}

	return b.String()
}

func (g *generator) generateImports() string {
	var std, ext []string
	for _, model := range g.dm.Models {
		for _, field := range model.Fields {
			scalar, ok := field.FieldType.(dml.ScalarFieldType)
			if !ok {
				continue
			}
			switch scalar.Type {
			case dml.DateTime:
				std = appendOnce(std, "time")
			case dml.Json:
				std = appendOnce(std, "encoding/json")
			case dml.Decimal:
				ext = appendOnce(ext, "github.com/shopspring/decimal")
			}
		}
	}
	if len(std)+len(ext) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("import (\n")
	for _, path := range std {
		fmt.Fprintf(&b, "\t%q\n", path)
	}
	if len(std) > 0 && len(ext) > 0 {
		b.WriteString("\n")
	}
	for _, path := range ext {
		fmt.Fprintf(&b, "\t%q\n", path)
	}
	b.WriteString(")\n\n")
	return b.String()
}

func appendOnce(paths []string, path string) []string {
	for _, p := range paths {
		if p == path {
			return paths
		}
	}
	return append(paths, path)
}

func (g *generator) generateEnum(enum *dml.Enum) string {
	var b strings.Builder

	writeDoc(&b, "", enum.Documentation)
	fmt.Fprintf(&b, "type %s string\n\n", enum.Name)

	if len(enum.Values) == 0 {
		return b.String()
	}

	consts := make([]string, 0, len(enum.Values))
	b.WriteString("const (\n")
	for _, value := range enum.Values {
		writeDoc(&b, "\t", value.Documentation)
		name := enum.Name + enumValueName(value.Name)
		consts = append(consts, name)
		fmt.Fprintf(&b, "\t%s %s = %q\n", name, enum.Name, value.Name)
	}
	b.WriteString(")\n\n")

	fmt.Fprintf(&b, "// Valid reports whether v is a declared %s value.\n", enum.Name)
	fmt.Fprintf(&b, "func (v %s) Valid() bool {\n", enum.Name)
	b.WriteString("\tswitch v {\n")
	fmt.Fprintf(&b, "\tcase %s:\n", strings.Join(consts, ", "))
	b.WriteString("\t\treturn true\n")
	b.WriteString("\t}\n")
	b.WriteString("\treturn false\n")
	b.WriteString("}\n\n")

	return b.String()
}

func (g *generator) generateModel(model *dml.Model) string {
	var b strings.Builder

	writeDoc(&b, "", model.Documentation)
	fmt.Fprintf(&b, "type %s struct {\n", model.Name)
	for _, field := range model.Fields {
		if field.IsCommentedOut {
			continue
		}
		writeDoc(&b, "\t", field.Documentation)
		fmt.Fprintf(&b, "\t%s %s `json:%q`\n", goFieldName(field.Name), goType(field), jsonTag(field))
	}
	b.WriteString("}\n\n")

	return b.String()
}

func writeDoc(b *strings.Builder, indent, doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		fmt.Fprintf(b, "%s// %s\n", indent, line)
	}
}

// goType maps a field to its Go type. Singular relations become pointers so
// mutually referencing structs stay representable.
func goType(field *dml.Field) string {
	base := baseType(field.FieldType)
	_, isRelation := field.FieldType.(dml.RelationFieldType)
	switch {
	case field.Arity.IsList():
		return "[]" + base
	case isRelation:
		return "*" + base
	case field.Arity.IsOptional() && !nilable(base):
		return "*" + base
	default:
		return base
	}
}

func baseType(t dml.FieldType) string {
	switch t := t.(type) {
	case dml.ScalarFieldType:
		return scalarGoType(t.Type)
	case dml.EnumFieldType:
		return t.Enum
	case dml.RelationFieldType:
		return t.Info.To
	default:
		return "any"
	}
}

func scalarGoType(t dml.ScalarType) string {
	switch t {
	case dml.Int:
		return "int"
	case dml.BigInt:
		return "int64"
	case dml.Float:
		return "float64"
	case dml.Decimal:
		return "decimal.Decimal"
	case dml.Boolean:
		return "bool"
	case dml.String:
		return "string"
	case dml.DateTime:
		return "time.Time"
	case dml.Json:
		return "json.RawMessage"
	case dml.Bytes:
		return "[]byte"
	default:
		return "any"
	}
}

// nilable reports whether the type already has a useful zero of nil, so an
// optional field does not need an extra pointer.
func nilable(goType string) bool {
	return goType == "[]byte" || goType == "json.RawMessage"
}

func jsonTag(field *dml.Field) string {
	tag := field.Name
	if field.Arity.IsOptional() || field.Arity.IsList() {
		tag += ",omitempty"
	} else if _, isRelation := field.FieldType.(dml.RelationFieldType); isRelation {
		tag += ",omitempty"
	}
	return tag
}

var commonInitialisms = map[string]string{
	"api":  "API",
	"http": "HTTP",
	"id":   "ID",
	"ip":   "IP",
	"json": "JSON",
	"sql":  "SQL",
	"uid":  "UID",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
}

// goFieldName converts a schema field name like authorId to an exported Go
// name like AuthorID.
func goFieldName(name string) string {
	var b strings.Builder
	for _, word := range splitWords(name) {
		if up, ok := commonInitialisms[strings.ToLower(word)]; ok {
			b.WriteString(up)
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(word[1:])
	}
	return b.String()
}

// enumValueName converts an enum value like ORDER_SHIPPED to OrderShipped.
func enumValueName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		part = strings.ToLower(part)
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// splitWords breaks an identifier on underscores and lower-to-upper case
// boundaries.
func splitWords(name string) []string {
	runes := []rune(name)
	var words []string
	start := 0
	for i := 1; i <= len(runes); i++ {
		boundary := i == len(runes) ||
			runes[i] == '_' ||
			(unicode.IsUpper(runes[i]) && !unicode.IsUpper(runes[i-1]))
		if !boundary {
			continue
		}
		if start < i {
			words = append(words, string(runes[start:i]))
		}
		start = i
		if i < len(runes) && runes[i] == '_' {
			start = i + 1
		}
	}
	return words
}
