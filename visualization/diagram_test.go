package visualization

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/schema"
)

func compileSchema(t *testing.T, source string) *dml.Datamodel {
	t.Helper()
	dm, err := schema.ParseAndValidate(source)
	if err != nil {
		t.Fatalf("ParseAndValidate failed: %v", err)
	}
	return dm
}

func TestRenderDiagram_BasicSchema(t *testing.T) {
	dm := compileSchema(t, `
model User {
  id    Int    @id
  email String @unique
  role  Role
  posts Post[]
}

model Post {
  id       Int    @id
  title    String
  author   User   @relation(fields: [authorId], references: [id])
  authorId Int
}

enum Role {
  ADMIN
  MEMBER
}
`)

	svg, err := RenderDiagram(dm, nil)
	if err != nil {
		t.Fatalf("RenderDiagram failed: %v", err)
	}

	// Check SVG structure
	if !strings.HasPrefix(svg, "<svg") {
		t.Error("SVG should start with <svg tag")
	}
	if !strings.HasSuffix(strings.TrimSpace(svg), "</svg>") {
		t.Error("SVG should end with </svg> tag")
	}

	// Check entity names and rows
	for _, want := range []string{"User", "Post", "Role", "ADMIN", "email", "title"} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG should contain %q", want)
		}
	}

	// Check styling classes
	if !strings.Contains(svg, "model-header") {
		t.Error("SVG should contain model header style")
	}
	if !strings.Contains(svg, "enum-header") {
		t.Error("SVG should contain enum header style")
	}

	// Check edges
	if !strings.Contains(svg, `class="relation"`) {
		t.Error("SVG should contain a relation edge")
	}
	if !strings.Contains(svg, `class="enum-ref"`) {
		t.Error("SVG should contain an enum reference edge")
	}
	if !strings.Contains(svg, "marker-end") {
		t.Error("SVG edges should carry arrowheads")
	}

	// Check attribute markers and arity suffixes
	if !strings.Contains(svg, "@unique") {
		t.Error("SVG should annotate unique fields")
	}
	if !strings.Contains(svg, "Post[]") {
		t.Error("SVG should render list arity")
	}
}

func TestRenderDiagram_HidesGeneratedFields(t *testing.T) {
	// No back-relation in the source, so the standardiser generates one on
	// User. The User box keeps a single row.
	dm := compileSchema(t, `
model User {
  id Int @id
}

model Post {
  id       Int  @id
  author   User @relation(fields: [authorId], references: [id])
  authorId Int
}
`)

	svg, err := RenderDiagram(dm, nil)
	if err != nil {
		t.Fatalf("RenderDiagram failed: %v", err)
	}

	// One row: header 28 + row 20 + 6.
	if !strings.Contains(svg, `height="54.0" class="model-body"`) {
		t.Error("User box should only count the declared field")
	}
}

func TestRenderDiagram_SelfRelation(t *testing.T) {
	dm := compileSchema(t, `
model Employee {
  id        Int        @id
  manager   Employee?  @relation("Management", fields: [managerId], references: [id])
  managerId Int?
  reports   Employee[] @relation("Management")
}
`)

	svg, err := RenderDiagram(dm, nil)
	if err != nil {
		t.Fatalf("RenderDiagram failed: %v", err)
	}

	if !strings.Contains(svg, "Employee") {
		t.Error("SVG should contain the model name")
	}
	if !strings.Contains(svg, `class="relation"`) {
		t.Error("SVG should contain the self-relation edge")
	}
}

func TestRenderDiagram_Empty(t *testing.T) {
	svg, err := RenderDiagram(dml.NewDatamodel(), nil)
	if err != nil {
		t.Fatalf("RenderDiagram failed: %v", err)
	}
	if !strings.HasPrefix(svg, "<svg") {
		t.Error("empty datamodel should still render an SVG")
	}

	if _, err := RenderDiagram(nil, nil); err == nil {
		t.Error("nil datamodel should be rejected")
	}
}

func TestRenderDiagram_EscapesTitle(t *testing.T) {
	opts := DefaultDiagramOptions()
	opts.Title = `orders <& "fulfilment">`

	svg, err := RenderDiagram(dml.NewDatamodel(), opts)
	if err != nil {
		t.Fatalf("RenderDiagram failed: %v", err)
	}

	if !strings.Contains(svg, "&lt;&amp; &quot;fulfilment&quot;&gt;") {
		t.Error("title should be XML-escaped")
	}
	if strings.Contains(svg, `<& "fulfilment">`) {
		t.Error("raw title must not appear in the SVG")
	}
}

func TestAssignLevels(t *testing.T) {
	user := dml.NewModel("User")
	user.AddField(dml.NewField("id", dml.ScalarFieldType{Type: dml.Int}))

	post := dml.NewModel("Post")
	post.AddField(dml.NewField("author", dml.RelationFieldType{
		Info: &dml.RelationInfo{To: "User", Fields: []string{"authorId"}, ToFields: []string{"id"}},
	}))

	role := dml.NewEnum("Role", "ADMIN")
	user.AddField(dml.NewField("role", dml.EnumFieldType{Enum: "Role"}))

	dm := dml.NewDatamodel()
	dm.Models = append(dm.Models, user, post)
	dm.Enums = append(dm.Enums, role)

	levels := assignLevels(dm)

	if levels["User"] != 0 {
		t.Errorf("User level = %d, want 0", levels["User"])
	}
	if levels["Post"] != 1 {
		t.Errorf("Post level = %d, want 1", levels["Post"])
	}
	if levels["Role"] != 1 {
		t.Errorf("Role level = %d, want 1", levels["Role"])
	}
}

func TestSaveDiagram(t *testing.T) {
	dm := compileSchema(t, `
model Item {
  id Int @id
}
`)

	path := filepath.Join(t.TempDir(), "diagram.svg")
	if err := SaveDiagram(dm, path, nil); err != nil {
		t.Fatalf("SaveDiagram failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read diagram: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("saved file should contain SVG markup")
	}
}
