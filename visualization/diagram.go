// Package visualization renders a datamodel as an SVG entity diagram.
package visualization

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/datamodel-lang/go-datamodel/dml"
)

// DiagramOptions controls entity diagram rendering
type DiagramOptions struct {
	ModelWidth        float64
	HeaderHeight      float64
	RowHeight         float64
	SpacingX          float64
	SpacingY          float64
	Padding           float64
	ShowTypes         bool
	ShowAttributes    bool
	ShowRelationNames bool
	Title             string
}

// DefaultDiagramOptions returns sensible defaults
func DefaultDiagramOptions() *DiagramOptions {
	return &DiagramOptions{
		ModelWidth:     200,
		HeaderHeight:   28,
		RowHeight:      20,
		SpacingX:       300,
		SpacingY:       40,
		Padding:        50,
		ShowTypes:      true,
		ShowAttributes: true,
	}
}

// RenderDiagram converts a datamodel to SVG format. Models referenced by a
// foreign key sit left of the models holding it, enums right of the models
// using them.
func RenderDiagram(dm *dml.Datamodel, opts *DiagramOptions) (string, error) {
	if dm == nil {
		return "", fmt.Errorf("nil datamodel")
	}
	if opts == nil {
		opts = DefaultDiagramOptions()
	}

	levels := assignLevels(dm)
	boxes := calculateBoxes(dm, levels, opts)

	minX, minY, maxX, maxY := calculateBounds(boxes)
	minX -= opts.Padding
	minY -= opts.Padding
	maxX += opts.Padding
	maxY += opts.Padding

	width := maxX - minX
	height := maxY - minY

	if width < 200 {
		width = 200
	}
	if height < 100 {
		height = 100
	}

	var buf bytes.Buffer

	// SVG header
	buf.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`,
		minX, minY, width, height, width, height))
	buf.WriteString("\n")

	// Background rectangle for visibility on dark themes
	buf.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#f8f9fa" rx="8"/>`,
		minX, minY, width, height))
	buf.WriteString("\n")

	// Styles
	buf.WriteString(`<defs>`)
	buf.WriteString(`<style>`)
	buf.WriteString(`.model-body { fill: #ffffff; stroke: #1976d2; stroke-width: 1.5; }`)
	buf.WriteString(`.model-header { fill: #e3f2fd; stroke: #1976d2; stroke-width: 1.5; }`)
	buf.WriteString(`.enum-body { fill: #ffffff; stroke: #7b1fa2; stroke-width: 1.5; }`)
	buf.WriteString(`.enum-header { fill: #f3e5f5; stroke: #7b1fa2; stroke-width: 1.5; }`)
	buf.WriteString(`.entity-name { font-family: system-ui, Arial; font-size: 13px; font-weight: bold; fill: #333; text-anchor: middle; dominant-baseline: middle; }`)
	buf.WriteString(`.field-name { font-family: ui-monospace, Menlo, monospace; font-size: 11px; fill: #333; dominant-baseline: middle; }`)
	buf.WriteString(`.field-type { font-family: ui-monospace, Menlo, monospace; font-size: 11px; fill: #888; text-anchor: end; dominant-baseline: middle; }`)
	buf.WriteString(`.field-attr { fill: #1976d2; }`)
	buf.WriteString(`.relation { stroke: #666; stroke-width: 1.5; fill: none; }`)
	buf.WriteString(`.enum-ref { stroke: #7b1fa2; stroke-width: 1; stroke-dasharray: 5,3; fill: none; }`)
	buf.WriteString(`.relation-label { font-family: system-ui, Arial; font-size: 9px; fill: #999; text-anchor: middle; }`)
	buf.WriteString(`.diagram-title { font-family: system-ui, Arial; font-size: 14px; font-weight: bold; fill: #333; }`)
	buf.WriteString(`.arrowhead { fill: #666; }`)
	buf.WriteString(`</style>`)

	// Arrowhead marker
	buf.WriteString(`<marker id="arrowhead" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">`)
	buf.WriteString(`<polygon points="0 0, 10 3.5, 0 7" class="arrowhead"/>`)
	buf.WriteString(`</marker>`)
	buf.WriteString(`</defs>`)
	buf.WriteString("\n")

	// Title
	if opts.Title != "" {
		buf.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="diagram-title">%s</text>`,
			minX+10, minY+20, escapeXML(opts.Title)))
		buf.WriteString("\n")
	}

	// Draw edges first (so they appear behind entities)
	drawRelations(&buf, dm, boxes, opts)

	// Draw entities
	for _, model := range dm.Models {
		drawModel(&buf, model, boxes[model.Name], opts)
	}
	for _, enum := range dm.Enums {
		drawEnum(&buf, enum, boxes[enum.Name], opts)
	}

	buf.WriteString("</svg>\n")

	return buf.String(), nil
}

// SaveDiagram renders a datamodel to SVG and saves it to a file.
func SaveDiagram(dm *dml.Datamodel, filename string, opts *DiagramOptions) error {
	svgString, err := RenderDiagram(dm, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(svgString), 0644)
}

// box holds the rectangle of one entity
type box struct {
	x, y, w, h float64
}

// displayFields returns the fields drawn for a model. Generated
// back-relation fields stay out of the diagram.
func displayFields(m *dml.Model) []*dml.Field {
	fields := make([]*dml.Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.IsGenerated || f.IsCommentedOut {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// assignLevels assigns a column to every entity. A model holding a foreign
// key is placed right of the model it references.
func assignLevels(dm *dml.Datamodel) map[string]int {
	levels := make(map[string]int)
	for _, m := range dm.Models {
		levels[m.Name] = 0
	}

	// Forward relation fields only. Back-relations would make every
	// relation a cycle.
	predecessors := make(map[string][]string)
	for _, m := range dm.Models {
		for _, f := range m.Fields {
			rel, ok := f.FieldType.(dml.RelationFieldType)
			if !ok || len(rel.Info.Fields) == 0 || rel.Info.To == m.Name {
				continue
			}
			if _, known := levels[rel.Info.To]; !known {
				continue
			}
			predecessors[m.Name] = append(predecessors[m.Name], rel.Info.To)
		}
	}

	// One pass per model bounds level growth, so mutual references
	// terminate.
	for pass := 0; pass < len(dm.Models); pass++ {
		changed := false
		for _, m := range dm.Models {
			maxPredLevel := -1
			for _, pred := range predecessors[m.Name] {
				if levels[pred] > maxPredLevel {
					maxPredLevel = levels[pred]
				}
			}
			if next := maxPredLevel + 1; next > levels[m.Name] {
				levels[m.Name] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// Enums go one column right of their widest user.
	for _, e := range dm.Enums {
		level := 0
		for _, m := range dm.Models {
			for _, f := range m.Fields {
				if et, ok := f.FieldType.(dml.EnumFieldType); ok && et.Enum == e.Name {
					if levels[m.Name]+1 > level {
						level = levels[m.Name] + 1
					}
				}
			}
		}
		levels[e.Name] = level
	}

	return levels
}

// calculateBoxes assigns a rectangle to every entity, stacking each column
// top to bottom.
func calculateBoxes(dm *dml.Datamodel, levels map[string]int, opts *DiagramOptions) map[string]box {
	heights := make(map[string]float64)
	for _, m := range dm.Models {
		heights[m.Name] = opts.HeaderHeight + float64(len(displayFields(m)))*opts.RowHeight + 6
	}
	for _, e := range dm.Enums {
		heights[e.Name] = opts.HeaderHeight + float64(len(e.Values))*opts.RowHeight + 6
	}

	byLevel := make(map[int][]string)
	maxLevel := 0
	for name, level := range levels {
		byLevel[level] = append(byLevel[level], name)
		if level > maxLevel {
			maxLevel = level
		}
	}

	// Sort entities within each column for consistent ordering
	for level := range byLevel {
		sort.Strings(byLevel[level])
	}

	boxes := make(map[string]box)
	for level := 0; level <= maxLevel; level++ {
		y := 0.0
		for _, name := range byLevel[level] {
			boxes[name] = box{
				x: float64(level) * opts.SpacingX,
				y: y,
				w: opts.ModelWidth,
				h: heights[name],
			}
			y += heights[name] + opts.SpacingY
		}
	}

	return boxes
}

// calculateBounds returns the bounding box of all entities
func calculateBounds(boxes map[string]box) (minX, minY, maxX, maxY float64) {
	first := true
	for _, b := range boxes {
		if first {
			minX, maxX = b.x, b.x+b.w
			minY, maxY = b.y, b.y+b.h
			first = false
			continue
		}
		if b.x < minX {
			minX = b.x
		}
		if b.x+b.w > maxX {
			maxX = b.x + b.w
		}
		if b.y < minY {
			minY = b.y
		}
		if b.y+b.h > maxY {
			maxY = b.y + b.h
		}
	}
	return
}

// drawModel renders one model box with a row per field
func drawModel(buf *bytes.Buffer, m *dml.Model, b box, opts *DiagramOptions) {
	buf.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" class="model-body" rx="4"/>`,
		b.x, b.y, b.w, b.h))
	buf.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" class="model-header" rx="4"/>`,
		b.x, b.y, b.w, opts.HeaderHeight))
	buf.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="entity-name">%s</text>`,
		b.x+b.w/2, b.y+opts.HeaderHeight/2, escapeXML(m.Name)))
	buf.WriteString("\n")

	for i, f := range displayFields(m) {
		rowY := b.y + opts.HeaderHeight + float64(i)*opts.RowHeight + opts.RowHeight/2

		name := escapeXML(f.Name)
		if opts.ShowAttributes {
			if marks := fieldMarkers(m, f); marks != "" {
				name += fmt.Sprintf(` <tspan class="field-attr">%s</tspan>`, escapeXML(marks))
			}
		}
		buf.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="field-name">%s</text>`,
			b.x+8, rowY, name))

		if opts.ShowTypes {
			buf.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="field-type">%s</text>`,
				b.x+b.w-8, rowY, escapeXML(typeLabel(f))))
		}
		buf.WriteString("\n")
	}
}

// drawEnum renders one enum box with a row per value
func drawEnum(buf *bytes.Buffer, e *dml.Enum, b box, opts *DiagramOptions) {
	buf.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" class="enum-body" rx="4"/>`,
		b.x, b.y, b.w, b.h))
	buf.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" class="enum-header" rx="4"/>`,
		b.x, b.y, b.w, opts.HeaderHeight))
	buf.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="entity-name">%s</text>`,
		b.x+b.w/2, b.y+opts.HeaderHeight/2, escapeXML(e.Name)))
	buf.WriteString("\n")

	for i, v := range e.Values {
		rowY := b.y + opts.HeaderHeight + float64(i)*opts.RowHeight + opts.RowHeight/2
		buf.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="field-name">%s</text>`,
			b.x+8, rowY, escapeXML(v.Name)))
		buf.WriteString("\n")
	}
}

// drawRelations renders foreign key edges and enum reference edges
func drawRelations(buf *bytes.Buffer, dm *dml.Datamodel, boxes map[string]box, opts *DiagramOptions) {
	for _, m := range dm.Models {
		source, ok := boxes[m.Name]
		if !ok {
			continue
		}
		for _, f := range displayFields(m) {
			switch t := f.FieldType.(type) {
			case dml.RelationFieldType:
				// Forward side only, the one holding the foreign key.
				if len(t.Info.Fields) == 0 {
					continue
				}
				target, ok := boxes[t.Info.To]
				if !ok {
					continue
				}
				label := ""
				if opts.ShowRelationNames {
					label = t.Info.Name
				}
				drawEdge(buf, source, fieldRowY(m, f, source, opts), target, "relation", label, opts)
			case dml.EnumFieldType:
				target, ok := boxes[t.Enum]
				if !ok {
					continue
				}
				drawEdge(buf, source, fieldRowY(m, f, source, opts), target, "enum-ref", "", opts)
			}
		}
	}
}

// drawEdge renders one curve from a field row to the target header
func drawEdge(buf *bytes.Buffer, source box, sourceY float64, target box, class, label string, opts *DiagramOptions) {
	targetY := target.y + opts.HeaderHeight/2

	if source == target {
		// Self-relation: loop out of the right edge.
		x := source.x + source.w
		buf.WriteString(fmt.Sprintf(`<path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" class="%s" marker-end="url(#arrowhead)"/>`,
			x, sourceY, x+50, sourceY, x+50, targetY, x, targetY, class))
		buf.WriteString("\n")
		return
	}

	sx := source.x + source.w
	tx := target.x
	if target.x < source.x {
		sx = source.x
		tx = target.x + target.w
	}
	midX := (sx + tx) / 2

	buf.WriteString(fmt.Sprintf(`<path d="M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f" class="%s" marker-end="url(#arrowhead)"/>`,
		sx, sourceY, midX, sourceY, midX, targetY, tx, targetY, class))
	buf.WriteString("\n")

	if label != "" {
		buf.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" class="relation-label">%s</text>`,
			midX, (sourceY+targetY)/2-4, escapeXML(label)))
		buf.WriteString("\n")
	}
}

// fieldRowY returns the vertical center of a field's row
func fieldRowY(m *dml.Model, f *dml.Field, b box, opts *DiagramOptions) float64 {
	for i, df := range displayFields(m) {
		if df == f {
			return b.y + opts.HeaderHeight + float64(i)*opts.RowHeight + opts.RowHeight/2
		}
	}
	return b.y + opts.HeaderHeight/2
}

// fieldMarkers returns the attribute annotations shown next to a field name
func fieldMarkers(m *dml.Model, f *dml.Field) string {
	var marks []string
	if f.IsID || contains(m.IDFields, f.Name) {
		marks = append(marks, "@id")
	}
	if f.IsUnique {
		marks = append(marks, "@unique")
	}
	if f.IsUpdatedAt {
		marks = append(marks, "@updatedAt")
	}
	return strings.Join(marks, " ")
}

// typeLabel renders a field type with its arity suffix
func typeLabel(f *dml.Field) string {
	name := f.FieldType.TypeName()
	switch {
	case f.Arity.IsOptional():
		return name + "?"
	case f.Arity.IsList():
		return name + "[]"
	}
	return name
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

func contains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
