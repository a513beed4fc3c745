package lift

import (
	"strings"
	"testing"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/parser"
)

func parse(t *testing.T, source string) *ast.SchemaAst {
	t.Helper()
	schema, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return schema
}

func liftOK(t *testing.T, source string) *dml.Datamodel {
	t.Helper()
	dm, errs := Lift(parse(t, source), nil)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	return dm
}

func liftErrs(t *testing.T, source string) []diag.Error {
	t.Helper()
	dm, errs := Lift(parse(t, source), nil)
	if dm != nil {
		t.Fatal("datamodel must be nil when diagnostics are returned")
	}
	if len(errs) == 0 {
		t.Fatal("expected errors")
	}
	return errs
}

func TestLiftBasicModel(t *testing.T) {
	dm := liftOK(t, `
model User {
	id Int @id
	name String
	nick String?
	tags String[]
}
`)
	if len(dm.Models) != 1 {
		t.Fatalf("model count = %d, want 1", len(dm.Models))
	}
	m := dm.Models[0]
	if m.Name != "User" {
		t.Errorf("name = %q", m.Name)
	}
	id := m.FindField("id")
	if !id.IsID || id.Arity != dml.Required {
		t.Errorf("id = %+v, want required @id", id)
	}
	if st, _ := id.ScalarType(); st != dml.Int {
		t.Errorf("id type = %v, want Int", st)
	}
	if name := m.FindField("name"); name.Arity != dml.Required {
		t.Errorf("name arity = %v", name.Arity)
	}
	if nick := m.FindField("nick"); nick.Arity != dml.Optional {
		t.Errorf("nick arity = %v", nick.Arity)
	}
	if tags := m.FindField("tags"); tags.Arity != dml.List {
		t.Errorf("tags arity = %v", tags.Arity)
	}
}

func TestLiftEnum(t *testing.T) {
	dm := liftOK(t, `
enum Color {
	RED @map("red")
	GREEN

	@@map("COLORS")
}
`)
	e := dm.FindEnum("Color")
	if e == nil {
		t.Fatal("enum not lifted")
	}
	if e.DatabaseName != "COLORS" {
		t.Errorf("DatabaseName = %q, want COLORS", e.DatabaseName)
	}
	if red := e.FindValue("RED"); red == nil || red.DatabaseName != "red" {
		t.Errorf("RED = %+v", red)
	}
	if !e.HasValue("GREEN") {
		t.Error("GREEN missing")
	}
}

func TestLiftRelationField(t *testing.T) {
	dm := liftOK(t, `
model Post {
	id Int @id
	authorId Int
	author User @relation("PostAuthor", fields: [authorId], references: [id])
}

model User {
	id Int @id
}
`)
	author := dm.FindField("Post", "author")
	rel := author.RelationInfo()
	if rel == nil {
		t.Fatal("author is not a relation field")
	}
	if rel.To != "User" || rel.Name != "PostAuthor" {
		t.Errorf("rel = %+v", rel)
	}
	if strings.Join(rel.Fields, ",") != "authorId" || strings.Join(rel.ToFields, ",") != "id" {
		t.Errorf("fields = %v, references = %v", rel.Fields, rel.ToFields)
	}
}

func TestLiftEnumTypedField(t *testing.T) {
	dm := liftOK(t, `
model User {
	id Int @id
	role Role @default(ADMIN)
}

enum Role {
	ADMIN
	CUSTOMER
}
`)
	role := dm.FindField("User", "role")
	if _, ok := role.FieldType.(dml.EnumFieldType); !ok {
		t.Fatalf("role type = %#v, want enum", role.FieldType)
	}
	if single, ok := role.DefaultValue.(dml.SingleDefault); !ok || single.Value != dml.ConstantValue("ADMIN") {
		t.Errorf("default = %#v", role.DefaultValue)
	}
}

func TestLiftTypeAlias(t *testing.T) {
	dm := liftOK(t, `
type Login = String @unique

model User {
	id Int @id
	email Login
}
`)
	email := dm.FindField("User", "email")
	if st, ok := email.ScalarType(); !ok || st != dml.String {
		t.Errorf("email type = %#v, want String", email.FieldType)
	}
	if !email.IsUnique {
		t.Error("alias attribute @unique not applied")
	}
}

func TestLiftAliasChain(t *testing.T) {
	dm := liftOK(t, `
type Username = Login
type Login = String @map("login")

model User {
	id Int @id
	name Username
}
`)
	name := dm.FindField("User", "name")
	if st, ok := name.ScalarType(); !ok || st != dml.String {
		t.Errorf("name type = %#v, want String", name.FieldType)
	}
	if name.DatabaseName != "login" {
		t.Errorf("DatabaseName = %q, want login", name.DatabaseName)
	}
}

func TestLiftRecursiveAlias(t *testing.T) {
	errs := liftErrs(t, `
type A = B
type B = A

model User {
	id Int @id
	broken A
}
`)
	want := "Recursive type definitions are not allowed. Recursive path was: A -> B -> A."
	if len(errs) != 1 || errs[0].Error() != want {
		t.Errorf("errs = %v, want %q", errs, want)
	}
}

func TestLiftTypeNotFound(t *testing.T) {
	source := `
model User {
	id Int @id
	pet Animal
}
`
	errs := liftErrs(t, source)
	want := `Type "Animal" is neither a built-in type, nor refers to another model, custom type, or enum.`
	if len(errs) != 1 || errs[0].Error() != want {
		t.Fatalf("errs = %v, want %q", errs, want)
	}
	offset := strings.Index(source, "Animal")
	if span := errs[0].Span(); span.Start != offset || span.End != offset+len("Animal") {
		t.Errorf("span = %v, want the type name at %d", span, offset)
	}
}

func TestPrecheckDuplicateTops(t *testing.T) {
	errs := liftErrs(t, `
model User {
	id Int @id
}

enum User {
	A
}
`)
	want := `The enum "User" cannot be defined because a model with that name already exists.`
	if len(errs) != 1 || errs[0].Error() != want {
		t.Errorf("errs = %v, want %q", errs, want)
	}
}

func TestPrecheckReservedName(t *testing.T) {
	errs := liftErrs(t, `
model String {
	id Int @id
}
`)
	want := `"String" is a reserved scalar type name and can not be used.`
	if len(errs) != 1 || errs[0].Error() != want {
		t.Errorf("errs = %v, want %q", errs, want)
	}
}

func TestPrecheckDuplicateFieldsAndValues(t *testing.T) {
	errs := liftErrs(t, `
model User {
	id Int @id
	name String
	name String
}

enum Role {
	ADMIN
	ADMIN
}
`)
	wantMessages := []string{
		`Field "name" is already defined on model "User".`,
		`Value "ADMIN" is already defined on enum "Role".`,
	}
	if len(errs) != len(wantMessages) {
		t.Fatalf("errs = %v, want %d", errs, len(wantMessages))
	}
	for i, want := range wantMessages {
		if errs[i].Error() != want {
			t.Errorf("errs[%d] = %q, want %q", i, errs[i].Error(), want)
		}
	}
}

func TestPrecheckDuplicateConfigKeys(t *testing.T) {
	errs := liftErrs(t, `
datasource db {
	provider = "postgresql"
	provider = "sqlite"
}
`)
	want := `Key "provider" is already defined in datasource configuration "db".`
	if len(errs) != 1 || errs[0].Error() != want {
		t.Errorf("errs = %v, want %q", errs, want)
	}
}

func TestLiftAccumulatesAcrossModels(t *testing.T) {
	errs := liftErrs(t, `
model A {
	id Int @id
	v String @updatedAt
}

model B {
	id Int @id
	w String @default(now())
}
`)
	wantMessages := []string{
		`Error parsing attribute "@updatedAt": Fields that are marked with @updatedAt must be of type DateTime.`,
		"Error parsing attribute \"@default\": The function `now()` cannot be used on fields of type `String`.",
	}
	if len(errs) != len(wantMessages) {
		t.Fatalf("errs = %v, want %d errors", errs, len(wantMessages))
	}
	for i, want := range wantMessages {
		if errs[i].Error() != want {
			t.Errorf("errs[%d] = %q, want %q", i, errs[i].Error(), want)
		}
	}
}

func TestLiftAttributeOrderIndependence(t *testing.T) {
	for _, source := range []string{
		"model User {\n\tid Int @id @default(autoincrement())\n}\n",
		"model User {\n\tid Int @default(autoincrement()) @id\n}\n",
	} {
		dm := liftOK(t, source)
		id := dm.FindField("User", "id")
		if !id.IsID {
			t.Errorf("%q: IsID not set", source)
		}
		if expr, ok := id.DefaultValue.(dml.ExpressionDefault); !ok || expr.Name != "autoincrement" {
			t.Errorf("%q: default = %#v", source, id.DefaultValue)
		}
	}
}

func TestLiftDuplicateAttributeReportedOnce(t *testing.T) {
	errs := liftErrs(t, `
model X {
	v Int @id @id
}
`)
	want := `Attribute "@id" is defined twice.`
	if len(errs) != 1 || errs[0].Error() != want {
		t.Errorf("errs = %v, want exactly one %q", errs, want)
	}
}

func TestLiftDocumentation(t *testing.T) {
	dm := liftOK(t, `
/// The registered account.
model User {
	/// Primary key.
	id Int @id
}

/// Access levels.
enum Role {
	ADMIN
}
`)
	if doc := dm.FindModel("User").Documentation; doc != "The registered account." {
		t.Errorf("model doc = %q", doc)
	}
	if doc := dm.FindField("User", "id").Documentation; doc != "Primary key." {
		t.Errorf("field doc = %q", doc)
	}
	if doc := dm.FindEnum("Role").Documentation; doc != "Access levels." {
		t.Errorf("enum doc = %q", doc)
	}
}

func TestLiftEnvThreading(t *testing.T) {
	env := func(name string) (string, bool) {
		if name == "DEFAULT_REGION" {
			return "eu-west-1", true
		}
		return "", false
	}
	schema := parse(t, `
model Account {
	id Int @id
	region String @default(env("DEFAULT_REGION"))
}
`)
	dm, errs := Lift(schema, env)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	region := dm.FindField("Account", "region")
	if single, ok := region.DefaultValue.(dml.SingleDefault); !ok || single.Value != dml.StringValue("eu-west-1") {
		t.Errorf("default = %#v, want env-resolved string", region.DefaultValue)
	}

	_, errs = Lift(schema, nil)
	want := `Error parsing attribute "@default": Environment variable not found: DEFAULT_REGION.`
	if len(errs) != 1 || errs[0].Error() != want {
		t.Errorf("errs = %v, want %q", errs, want)
	}
}
