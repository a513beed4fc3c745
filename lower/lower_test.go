package lower

import (
	"reflect"
	"testing"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/lift"
	"github.com/datamodel-lang/go-datamodel/parser"
	"github.com/datamodel-lang/go-datamodel/standardise"
	"github.com/datamodel-lang/go-datamodel/validate"
)

// pipeline runs source through every stage up to the post-standardise
// checks and fails the test on any diagnostic.
func pipeline(t *testing.T, source string) *dml.Datamodel {
	t.Helper()
	schema, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dm, errs := lift.Lift(schema, nil)
	if len(errs) > 0 {
		t.Fatalf("lift: %v", errs)
	}
	if errs := validate.Validate(schema, dm); len(errs) > 0 {
		t.Fatalf("validate: %v", errs)
	}
	if errs := standardise.Standardise(schema, dm); len(errs) > 0 {
		t.Fatalf("standardise: %v", errs)
	}
	if errs := validate.PostStandardise(schema, dm); len(errs) > 0 {
		t.Fatalf("post standardise: %v", errs)
	}
	return dm
}

func lowerOK(t *testing.T, dm *dml.Datamodel) *ast.SchemaAst {
	t.Helper()
	schema, err := Lower(dm)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return schema
}

func astField(t *testing.T, schema *ast.SchemaAst, model, field string) *ast.Field {
	t.Helper()
	f := schema.FindField(model, field)
	if f == nil {
		t.Fatalf("field %s.%s missing from lowered schema", model, field)
	}
	return f
}

func TestLowerRendersCanonicalText(t *testing.T) {
	dm := pipeline(t, `
model User {
	id Int @id
	email String @unique
}

enum Role {
	ADMIN
	USER
}
`)
	got := ast.Render(lowerOK(t, dm))
	want := `model User {
  id    Int    @id
  email String @unique
}

enum Role {
  ADMIN
  USER
}
`
	if got != want {
		t.Errorf("rendered schema =\n%s\nwant:\n%s", got, want)
	}
}

func TestLowerSkipsGeneratedFields(t *testing.T) {
	dm := pipeline(t, `
model Post {
	id Int @id
	author Author
}

model Author {
	id Int @id
}
`)
	schema := lowerOK(t, dm)

	author := schema.FindModel("Author")
	if author == nil {
		t.Fatal("Author missing from lowered schema")
	}
	if len(author.Fields) != 1 || author.Fields[0].Name.Name != "id" {
		t.Errorf("the inferred back relation field must not be lowered, got %d fields", len(author.Fields))
	}

	post := schema.FindModel("Post")
	var names []string
	for _, f := range post.Fields {
		names = append(names, f.Name.Name)
	}
	if !reflect.DeepEqual(names, []string{"id", "author", "authorId"}) {
		t.Errorf("Post fields = %v, want the synthesized foreign key kept", names)
	}
}

func TestLowerRelationArguments(t *testing.T) {
	dm := pipeline(t, `
model User {
	id Int @id
	posts Post[]
}

model Post {
	id Int @id
	authorId Int
	author User @relation(fields: [authorId], references: [id])
}
`)
	schema := lowerOK(t, dm)

	author := astField(t, schema, "Post", "author")
	if len(author.Attributes) != 1 || author.Attributes[0].Name.Name != "relation" {
		t.Fatalf("author attributes = %v, want a single @relation", author.Attributes)
	}
	args := author.Attributes[0].Arguments
	if len(args) != 2 {
		t.Fatalf("relation argument count = %d, want fields and references only", len(args))
	}
	if args[0].Name.Name != "fields" || args[0].Value.String() != "[authorId]" {
		t.Errorf("first argument = %s: %s", args[0].Name.Name, args[0].Value.String())
	}
	if args[1].Name.Name != "references" || args[1].Value.String() != "[id]" {
		t.Errorf("second argument = %s: %s", args[1].Name.Name, args[1].Value.String())
	}

	// The generated pair name and the empty argument lists collapse to no
	// attribute at all on the list side.
	posts := astField(t, schema, "User", "posts")
	if len(posts.Attributes) != 0 {
		t.Errorf("posts attributes = %v, want none", posts.Attributes)
	}
}

func TestLowerKeepsUserRelationNames(t *testing.T) {
	dm := pipeline(t, `
model User {
	id Int @id
	posts Post[] @relation("Written")
}

model Post {
	id Int @id
	authorId Int
	author User @relation("Written", fields: [authorId], references: [id])
}
`)
	schema := lowerOK(t, dm)

	posts := astField(t, schema, "User", "posts")
	if len(posts.Attributes) != 1 {
		t.Fatalf("posts attributes = %v, want @relation(\"Written\")", posts.Attributes)
	}
	args := posts.Attributes[0].Arguments
	if len(args) != 1 || !args[0].IsUnnamed() || args[0].Value.String() != `"Written"` {
		t.Errorf("posts relation arguments = %v", args)
	}

	author := astField(t, schema, "Post", "author")
	args = author.Attributes[0].Arguments
	if len(args) != 3 || !args[0].IsUnnamed() || args[0].Value.String() != `"Written"` {
		t.Errorf("author relation must keep the user-chosen name first, got %v", args)
	}
}

func TestLowerEnumAttributes(t *testing.T) {
	dm := pipeline(t, `
model User {
	id Int @id
	role Role @default(ADMIN)
}

enum Role {
	ADMIN @map("admin")
	USER

	@@map("roles")
}
`)
	schema := lowerOK(t, dm)

	enum := schema.FindEnum("Role")
	if enum == nil {
		t.Fatal("Role missing from lowered schema")
	}
	if len(enum.Attributes) != 1 || enum.Attributes[0].Arguments[0].Value.String() != `"roles"` {
		t.Errorf("enum attributes = %v, want @@map(\"roles\")", enum.Attributes)
	}
	admin := enum.Values[0]
	if len(admin.Attributes) != 1 || admin.Attributes[0].Arguments[0].Value.String() != `"admin"` {
		t.Errorf("ADMIN attributes = %v, want @map(\"admin\")", admin.Attributes)
	}
	if len(enum.Values[1].Attributes) != 0 {
		t.Errorf("USER must carry no attributes, got %v", enum.Values[1].Attributes)
	}

	role := astField(t, schema, "User", "role")
	if role.FieldType.Name != "Role" {
		t.Errorf("role type = %s, want Role", role.FieldType.Name)
	}
	if len(role.Attributes) != 1 || role.Attributes[0].Arguments[0].Value.String() != "ADMIN" {
		t.Errorf("role attributes = %v, want @default(ADMIN)", role.Attributes)
	}
}

func TestLowerCarriesDocumentation(t *testing.T) {
	dm := pipeline(t, `
/// The account of a person.
model User {
	/// Stable numeric handle.
	id Int @id
}
`)
	schema := lowerOK(t, dm)

	user := schema.FindModel("User")
	if user.Documentation == nil || user.Documentation.Text != "The account of a person." {
		t.Errorf("model documentation = %v", user.Documentation)
	}
	id := astField(t, schema, "User", "id")
	if id.Documentation == nil || id.Documentation.Text != "Stable numeric handle." {
		t.Errorf("field documentation = %v", id.Documentation)
	}
}

// withoutGenerated strips inferred models and fields so two datamodels can
// be compared on what the user declared.
func withoutGenerated(dm *dml.Datamodel) *dml.Datamodel {
	out := &dml.Datamodel{Enums: dm.Enums}
	for _, m := range dm.Models {
		if m.IsGenerated {
			continue
		}
		clone := *m
		clone.Fields = nil
		for _, f := range m.Fields {
			if f.IsGenerated {
				continue
			}
			clone.Fields = append(clone.Fields, f)
		}
		out.Models = append(out.Models, &clone)
	}
	return out
}

func TestLowerIsRightInverseOfLift(t *testing.T) {
	sources := []string{
		`
model User {
	id Int @id
	posts Post[]
}

model Post {
	id Int @id
	authorId Int
	author User @relation(fields: [authorId], references: [id])
}
`,
		`
model Post {
	id Int @id
	author Author
}

model Author {
	id Int @id
}
`,
		`
model Post {
	id Int @id
	categories Category[]
}

model Category {
	id Int @id
	posts Post[]
}
`,
		`
model Person {
	id Int @id
	husband Person? @relation("Marriage")
	wife Person? @relation("Marriage")
}
`,
		`
model User {
	id Int @id
	role Role @default(USER)
	createdAt DateTime @default(now())
}

enum Role {
	ADMIN
	USER

	@@map("roles")
}
`,
		`
model Account {
	provider String
	providerId String
	email String @unique

	@@id([provider, providerId])
	@@index([email, provider], name: "lookup")
}
`,
	}
	for _, source := range sources {
		dm := pipeline(t, source)
		rendered := ast.Render(lowerOK(t, dm))
		again := pipeline(t, rendered)
		if !reflect.DeepEqual(withoutGenerated(dm), withoutGenerated(again)) {
			t.Errorf("round trip changed the datamodel\nrendered:\n%s", rendered)
		}
	}
}
