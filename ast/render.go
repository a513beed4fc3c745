package ast

import (
	"sort"
	"strings"
)

const renderIndent = "  "

// Render turns a schema tree back into formatted source text. Fields inside
// a model are column-aligned, attributes are emitted in a canonical order,
// and doc comments are preserved.
func Render(schema *SchemaAst) string {
	var out strings.Builder
	for i, top := range schema.Tops {
		if i > 0 {
			// Consecutive type aliases group together without a
			// separating blank line.
			_, prevAlias := schema.Tops[i-1].(*TypeAlias)
			_, curAlias := top.(*TypeAlias)
			if !prevAlias || !curAlias {
				out.WriteString("\n")
			}
		}
		switch t := top.(type) {
		case *Model:
			renderModel(&out, t)
		case *Enum:
			renderEnum(&out, t)
		case *SourceConfig:
			renderConfigBlock(&out, "datasource", t.Name.Name, t.Documentation, t.Properties)
		case *GeneratorConfig:
			renderConfigBlock(&out, "generator", t.Name.Name, t.Documentation, t.Properties)
		case *TypeAlias:
			renderTypeAlias(&out, t)
		}
	}
	return out.String()
}

func renderDocumentation(out *strings.Builder, doc *Comment, indent string) {
	if doc == nil {
		return
	}
	for _, line := range strings.Split(doc.Text, "\n") {
		out.WriteString(indent)
		out.WriteString("/// ")
		out.WriteString(line)
		out.WriteString("\n")
	}
}

func renderModel(out *strings.Builder, model *Model) {
	renderDocumentation(out, model.Documentation, "")
	out.WriteString("model ")
	out.WriteString(model.Name.Name)
	out.WriteString(" {\n")

	rows := make([]fieldRow, 0, len(model.Fields))
	for _, field := range model.Fields {
		rows = append(rows, newFieldRow(field))
	}
	renderFieldRows(out, rows)

	if len(model.Attributes) > 0 {
		out.WriteString("\n")
		for _, attr := range sortAttributes(model.Attributes, false) {
			out.WriteString(renderIndent)
			out.WriteString("@@")
			renderAttributeBody(out, attr)
			out.WriteString("\n")
		}
	}
	out.WriteString("}\n")
}

type fieldRow struct {
	doc       *Comment
	name      string
	fieldType string
	attrs     string
}

func newFieldRow(field *Field) fieldRow {
	prefix := ""
	if field.CommentedOut {
		prefix = "// "
	}
	return fieldRow{
		doc:       field.Documentation,
		name:      prefix + field.Name.Name,
		fieldType: field.FieldType.Name + aritySuffix(field.Arity),
		attrs:     renderFieldAttributes(field.Attributes),
	}
}

func renderFieldRows(out *strings.Builder, rows []fieldRow) {
	nameWidth, typeWidth := 0, 0
	for _, row := range rows {
		if len(row.name) > nameWidth {
			nameWidth = len(row.name)
		}
		if len(row.fieldType) > typeWidth {
			typeWidth = len(row.fieldType)
		}
	}
	for _, row := range rows {
		renderDocumentation(out, row.doc, renderIndent)
		out.WriteString(renderIndent)
		line := pad(row.name, nameWidth) + " " + pad(row.fieldType, typeWidth)
		if row.attrs != "" {
			line = line + " " + row.attrs
		}
		out.WriteString(strings.TrimRight(line, " "))
		out.WriteString("\n")
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func aritySuffix(arity FieldArity) string {
	switch arity {
	case Optional:
		return "?"
	case List:
		return "[]"
	default:
		return ""
	}
}

func renderFieldAttributes(attrs []*Attribute) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, attr := range sortAttributes(attrs, true) {
		var one strings.Builder
		one.WriteString("@")
		renderAttributeBody(&one, attr)
		parts = append(parts, one.String())
	}
	return strings.Join(parts, " ")
}

func renderAttributeBody(out *strings.Builder, attr *Attribute) {
	out.WriteString(attr.Name.Name)
	if len(attr.Arguments) == 0 {
		return
	}
	out.WriteString("(")
	for i, arg := range attr.Arguments {
		if i > 0 {
			out.WriteString(", ")
		}
		if !arg.IsUnnamed() {
			out.WriteString(arg.Name.Name)
			out.WriteString(": ")
		}
		out.WriteString(arg.Value.String())
	}
	out.WriteString(")")
}

func renderEnum(out *strings.Builder, enum *Enum) {
	renderDocumentation(out, enum.Documentation, "")
	out.WriteString("enum ")
	out.WriteString(enum.Name.Name)
	out.WriteString(" {\n")
	for _, value := range enum.Values {
		renderDocumentation(out, value.Documentation, renderIndent)
		out.WriteString(renderIndent)
		if value.CommentedOut {
			out.WriteString("// ")
		}
		out.WriteString(value.Name.Name)
		if attrs := renderFieldAttributes(value.Attributes); attrs != "" {
			out.WriteString(" ")
			out.WriteString(attrs)
		}
		out.WriteString("\n")
	}
	if len(enum.Attributes) > 0 {
		out.WriteString("\n")
		for _, attr := range sortAttributes(enum.Attributes, false) {
			out.WriteString(renderIndent)
			out.WriteString("@@")
			renderAttributeBody(out, attr)
			out.WriteString("\n")
		}
	}
	out.WriteString("}\n")
}

func renderConfigBlock(out *strings.Builder, keyword, name string, doc *Comment, props []*ConfigProperty) {
	renderDocumentation(out, doc, "")
	out.WriteString(keyword)
	out.WriteString(" ")
	out.WriteString(name)
	out.WriteString(" {\n")
	nameWidth := 0
	for _, prop := range props {
		if len(prop.Name.Name) > nameWidth {
			nameWidth = len(prop.Name.Name)
		}
	}
	for _, prop := range props {
		out.WriteString(renderIndent)
		out.WriteString(pad(prop.Name.Name, nameWidth))
		out.WriteString(" = ")
		out.WriteString(prop.Value.String())
		out.WriteString("\n")
	}
	out.WriteString("}\n")
}

func renderTypeAlias(out *strings.Builder, alias *TypeAlias) {
	renderDocumentation(out, alias.Documentation, "")
	out.WriteString("type ")
	out.WriteString(alias.Name.Name)
	out.WriteString(" = ")
	out.WriteString(alias.FieldType.Name)
	if attrs := renderFieldAttributes(alias.Attributes); attrs != "" {
		out.WriteString(" ")
		out.WriteString(attrs)
	}
	out.WriteString("\n")
}

// Attribute rendering order is canonical, not source order, so round-tripped
// schemas come out stable.
func sortAttributes(attrs []*Attribute, fieldScope bool) []*Attribute {
	sorted := make([]*Attribute, len(attrs))
	copy(sorted, attrs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return attributeSortIndex(sorted[i].Name.Name, fieldScope) < attributeSortIndex(sorted[j].Name.Name, fieldScope)
	})
	return sorted
}

func attributeSortIndex(name string, fieldScope bool) int {
	var order []string
	if fieldScope {
		order = []string{"id", "unique", "default", "updatedAt", "map", "relation"}
	} else {
		order = []string{"id", "unique", "index", "map"}
	}
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return len(order)
}
