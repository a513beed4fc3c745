package standardise

import (
	"strings"
	"testing"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/lift"
	"github.com/datamodel-lang/go-datamodel/parser"
)

func prepare(t *testing.T, source string) (*ast.SchemaAst, *dml.Datamodel) {
	t.Helper()
	schema, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dm, errs := lift.Lift(schema, nil)
	if len(errs) > 0 {
		t.Fatalf("lift: %v", errs)
	}
	return schema, dm
}

func standardiseOK(t *testing.T, source string) *dml.Datamodel {
	t.Helper()
	schema, dm := prepare(t, source)
	if errs := Standardise(schema, dm); len(errs) > 0 {
		t.Fatalf("standardise: %v", errs)
	}
	return dm
}

func joined(names []string) string {
	return strings.Join(names, " ")
}

func TestNamesUnnamedRelations(t *testing.T) {
	dm := standardiseOK(t, `
model User {
	id Int @id
	posts Post[]
}

model Post {
	id Int @id
	author User
}
`)
	posts := dm.FindField("User", "posts").RelationInfo()
	author := dm.FindField("Post", "author").RelationInfo()
	if posts.Name != "PostToUser" {
		t.Errorf("posts relation name = %q, want PostToUser", posts.Name)
	}
	if author.Name != "PostToUser" {
		t.Errorf("author relation name = %q, want PostToUser", author.Name)
	}

	dm = standardiseOK(t, `
model User {
	id Int @id
	posts Post[] @relation("Written")
}

model Post {
	id Int @id
	author User @relation("Written")
}
`)
	if name := dm.FindField("User", "posts").RelationInfo().Name; name != "Written" {
		t.Errorf("explicit relation name = %q, want Written", name)
	}
}

func TestBackRelationForToOneField(t *testing.T) {
	dm := standardiseOK(t, `
model Post {
	id Int @id
	author Author
}

model Author {
	id Int @id
}
`)
	back := dm.FindField("Author", "Post")
	if back == nil {
		t.Fatal("Author must gain a back relation field named Post")
	}
	if !back.IsGenerated {
		t.Error("back relation field must be generated")
	}
	if back.Arity != dml.List {
		t.Errorf("back relation arity = %v, want list", back.Arity)
	}
	rel := back.RelationInfo()
	if rel == nil || rel.To != "Post" {
		t.Fatalf("back relation info = %+v, want relation to Post", rel)
	}
	if rel.Name != "AuthorToPost" {
		t.Errorf("back relation name = %q, want AuthorToPost", rel.Name)
	}
	if len(rel.Fields) != 0 || len(rel.ToFields) != 0 {
		t.Errorf("back relation must not carry fields, got %v / %v", rel.Fields, rel.ToFields)
	}

	// The foreign key is embedded on the originating side.
	post := dm.FindModel("Post")
	if len(post.Fields) != 3 {
		t.Fatalf("Post field count = %d, want id, author and the foreign key", len(post.Fields))
	}
	authorRel := post.FindField("author").RelationInfo()
	if joined(authorRel.Fields) != "authorId" || joined(authorRel.ToFields) != "id" {
		t.Errorf("author relation columns = %v / %v, want [authorId] / [id]", authorRel.Fields, authorRel.ToFields)
	}
	fk := post.FindField("authorId")
	if fk == nil {
		t.Fatal("Post must gain the authorId column")
	}
	if st, ok := fk.ScalarType(); !ok || st != dml.Int {
		t.Errorf("authorId type = %v, want Int", fk.FieldType)
	}
	if fk.Arity != dml.Required {
		t.Errorf("authorId arity = %v, want required", fk.Arity)
	}
	if fk.IsGenerated {
		t.Error("synthesized columns are plain fields, not generated ones")
	}
}

func TestBackRelationForToListField(t *testing.T) {
	dm := standardiseOK(t, `
model User {
	id Int @id
	posts Post[]
}

model Post {
	id Int @id
}
`)
	back := dm.FindField("Post", "User")
	if back == nil {
		t.Fatal("Post must gain a back relation field named User")
	}
	if !back.IsGenerated || back.Arity != dml.Optional {
		t.Errorf("back field generated=%v arity=%v, want a generated optional field", back.IsGenerated, back.Arity)
	}
	rel := back.RelationInfo()
	if joined(rel.Fields) != "userId" || joined(rel.ToFields) != "id" {
		t.Errorf("back relation columns = %v / %v, want [userId] / [id]", rel.Fields, rel.ToFields)
	}
	fk := dm.FindField("Post", "userId")
	if fk == nil {
		t.Fatal("Post must gain the userId column")
	}
	if st, ok := fk.ScalarType(); !ok || st != dml.Int || fk.Arity != dml.Optional {
		t.Errorf("userId = %v %v, want optional Int", fk.FieldType, fk.Arity)
	}

	// The list side itself stays untouched.
	posts := dm.FindField("User", "posts").RelationInfo()
	if len(posts.Fields) != 0 || len(posts.ToFields) != 0 {
		t.Errorf("list side columns = %v / %v, want none", posts.Fields, posts.ToFields)
	}
}

func TestBackRelationReusesCompatibleField(t *testing.T) {
	dm := standardiseOK(t, `
model User {
	id Int @id
	posts Post[]
}

model Post {
	id Int @id
	userId Int
}
`)
	post := dm.FindModel("Post")
	count := 0
	for _, f := range post.Fields {
		if f.Name == "userId" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("userId declared %d times, the existing column must be reused", count)
	}
	if post.FindField("userId").Arity != dml.Required {
		t.Error("the user written column must not be altered")
	}
	if rel := dm.FindField("Post", "User").RelationInfo(); joined(rel.Fields) != "userId" {
		t.Errorf("back relation fields = %v, want [userId]", rel.Fields)
	}
}

func TestBackRelationRenamesIncompatibleField(t *testing.T) {
	dm := standardiseOK(t, `
model User {
	id Int @id
	posts Post[]
}

model Post {
	id Int @id
	userId String
}
`)
	post := dm.FindModel("Post")
	renamed := post.FindField("userId_PostToUser")
	if renamed == nil {
		t.Fatal("conflicting column must be added under the relation suffixed name")
	}
	if st, ok := renamed.ScalarType(); !ok || st != dml.Int || renamed.Arity != dml.Optional {
		t.Errorf("renamed column = %v %v, want optional Int", renamed.FieldType, renamed.Arity)
	}
	if st, ok := post.FindField("userId").ScalarType(); !ok || st != dml.String {
		t.Error("the user written column must keep its type")
	}
	if rel := dm.FindField("Post", "User").RelationInfo(); joined(rel.Fields) != "userId_PostToUser" {
		t.Errorf("back relation fields = %v, want the renamed column", rel.Fields)
	}
}

func TestBackRelationIncompatibleTypeError(t *testing.T) {
	source := `
model User {
	id Int @id
	posts Post[]
}

model Post {
	id Int @id
	userId String
	userId_PostToUser String
}
`
	schema, dm := prepare(t, source)
	errs := Standardise(schema, dm)
	if len(errs) != 1 {
		t.Fatalf("error count = %d, want 1: %v", len(errs), errs)
	}
	want := "Error validating model \"Post\": Automatic underlying field generation tried to add the field `userId_PostToUser` in model `Post` for the back relation field of `posts` in `User`. A field with that name exists already and has an incompatible type for the relation. Please add the back relation manually."
	if errs[0].Error() != want {
		t.Errorf("message = %q, want %q", errs[0].Error(), want)
	}
	if errs[0].Span() != schema.FindModel("Post").Span {
		t.Errorf("error span = %v, want the Post model span", errs[0].Span())
	}
}

func TestBackRelationNamingConflict(t *testing.T) {
	source := `
model Post {
	id Int @id
	author Author
}

model Author {
	id Int @id
	Post String
}
`
	schema, dm := prepare(t, source)
	errs := Standardise(schema, dm)
	if len(errs) != 1 {
		t.Fatalf("error count = %d, want 1: %v", len(errs), errs)
	}
	want := "Error validating field `author` in model `Post`: Automatic related field generation would cause a naming conflict. Please add an explicit opposite relation field."
	if errs[0].Error() != want {
		t.Errorf("message = %q, want %q", errs[0].Error(), want)
	}
	if errs[0].Span() != schema.FindField("Post", "author").Span {
		t.Errorf("error span = %v, want the author field span", errs[0].Span())
	}
}

func TestBackRelationConflictBetweenTwoRelations(t *testing.T) {
	// Both fields are missing an opposite and both would generate a back
	// field named Post. The first wins, the second reports the conflict.
	schema, dm := prepare(t, `
model Post {
	id Int @id
	author User @relation("Writing")
	editor User @relation("Editing")
}

model User {
	id Int @id
}
`)
	errs := Standardise(schema, dm)
	if len(errs) != 1 {
		t.Fatalf("error count = %d, want 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "field `editor` in model `Post`") {
		t.Errorf("conflict must be reported on the second field, got %q", errs[0].Error())
	}
	if got := len(dm.FindModel("User").Fields); got != 2 {
		t.Errorf("User field count = %d, want id plus one generated back field", got)
	}
}

func TestEmbeddingSideOneToOne(t *testing.T) {
	for _, source := range []string{
		`
model A {
	id Int @id
	b B
}

model B {
	id Int @id
	a A
}
`,
		`
model B {
	id Int @id
	a A
}

model A {
	id Int @id
	b B
}
`,
	} {
		dm := standardiseOK(t, source)
		bRel := dm.FindField("A", "b").RelationInfo()
		if joined(bRel.Fields) != "bId" || joined(bRel.ToFields) != "id" {
			t.Errorf("lexically smaller model must embed, got %v / %v", bRel.Fields, bRel.ToFields)
		}
		aRel := dm.FindField("B", "a").RelationInfo()
		if len(aRel.Fields) != 0 || len(aRel.ToFields) != 0 {
			t.Errorf("opposite side must stay empty, got %v / %v", aRel.Fields, aRel.ToFields)
		}
		if dm.FindField("A", "bId") == nil {
			t.Error("A must gain the bId column")
		}
		if got := len(dm.FindModel("B").Fields); got != 2 {
			t.Errorf("B field count = %d, want 2", got)
		}
	}
}

func TestEmbeddingSideSelfRelation(t *testing.T) {
	dm := standardiseOK(t, `
model Person {
	id Int @id
	husband Person? @relation("Marriage")
	wife Person? @relation("Marriage")
}
`)
	husband := dm.FindField("Person", "husband").RelationInfo()
	if joined(husband.Fields) != "personId" || joined(husband.ToFields) != "id" {
		t.Errorf("lexically smaller field must embed, got %v / %v", husband.Fields, husband.ToFields)
	}
	wife := dm.FindField("Person", "wife").RelationInfo()
	if len(wife.Fields) != 0 || len(wife.ToFields) != 0 {
		t.Errorf("opposite side must stay empty, got %v / %v", wife.Fields, wife.ToFields)
	}
	fk := dm.FindField("Person", "personId")
	if fk == nil {
		t.Fatal("Person must gain the personId column")
	}
	if fk.Arity != dml.Optional {
		t.Errorf("personId arity = %v, want optional like the relation field", fk.Arity)
	}
}

func TestManyToManyFillsBothReferences(t *testing.T) {
	dm := standardiseOK(t, `
model Post {
	id Int @id
	categories Category[]
}

model Category {
	id Int @id
	posts Post[]
}
`)
	categories := dm.FindField("Post", "categories").RelationInfo()
	posts := dm.FindField("Category", "posts").RelationInfo()
	if joined(categories.ToFields) != "id" || joined(posts.ToFields) != "id" {
		t.Errorf("both sides must reference the id, got %v and %v", categories.ToFields, posts.ToFields)
	}
	if len(categories.Fields) != 0 || len(posts.Fields) != 0 {
		t.Error("many to many relations must not gain foreign key columns")
	}
	if len(dm.FindModel("Post").Fields) != 2 || len(dm.FindModel("Category").Fields) != 2 {
		t.Error("many to many models must not gain fields")
	}
}

func TestUserSuppliedFieldsTakePrecedence(t *testing.T) {
	dm := standardiseOK(t, `
model B {
	id Int @id
	a A @relation(fields: [aId], references: [id])
	aId Int
}

model A {
	id Int @id
	b B
}
`)
	// A would be the embedding side, but B already declares the columns.
	bRel := dm.FindField("A", "b").RelationInfo()
	if len(bRel.Fields) != 0 || len(bRel.ToFields) != 0 {
		t.Errorf("inference must defer to the declared side, got %v / %v", bRel.Fields, bRel.ToFields)
	}
	if got := len(dm.FindModel("A").Fields); got != 2 {
		t.Errorf("A field count = %d, want 2", got)
	}
	aRel := dm.FindField("B", "a").RelationInfo()
	if joined(aRel.Fields) != "aId" || joined(aRel.ToFields) != "id" {
		t.Errorf("declared columns changed: %v / %v", aRel.Fields, aRel.ToFields)
	}
}

func TestCollidingImplicitRelations(t *testing.T) {
	source := `
model User {
	id Int @id
	assigned Todo[] @relation("AssignedTodos")
	reviewed Todo[] @relation("ReviewedTodos")
}

model Todo {
	id Int @id
	assignedTo User @relation("AssignedTodos")
	reviewedBy User @relation("ReviewedTodos")
}
`
	schema, dm := prepare(t, source)
	errs := Standardise(schema, dm)
	if len(errs) != 1 {
		t.Fatalf("error count = %d, want 1: %v", len(errs), errs)
	}
	want := "Error validating model \"Todo\": Colliding implicit relations. Please add scalar types assignedToId, and reviewedById."
	if errs[0].Error() != want {
		t.Errorf("message = %q, want %q", errs[0].Error(), want)
	}
	if errs[0].Span() != schema.FindModel("Todo").Span {
		t.Errorf("error span = %v, want the Todo model span", errs[0].Span())
	}
	if got := len(dm.FindModel("Todo").Fields); got != 3 {
		t.Errorf("Todo field count = %d, the colliding column must not be added", got)
	}
}

func TestSelfToListBackRelation(t *testing.T) {
	dm := standardiseOK(t, `
model Employee {
	id Int @id
	reports Employee[]
}
`)
	employee := dm.FindModel("Employee")
	back := employee.FindField("Employee")
	if back == nil {
		t.Fatal("Employee must gain its own back relation field")
	}
	if !back.IsGenerated || back.Arity != dml.Optional {
		t.Errorf("back field generated=%v arity=%v, want a generated optional field", back.IsGenerated, back.Arity)
	}
	rel := back.RelationInfo()
	if rel.To != "Employee" || rel.Name != "EmployeeToEmployee" {
		t.Errorf("back relation = %+v, want a named self relation", rel)
	}
	if joined(rel.Fields) != "employeeId" || joined(rel.ToFields) != "id" {
		t.Errorf("back relation columns = %v / %v, want [employeeId] / [id]", rel.Fields, rel.ToFields)
	}
	if fk := employee.FindField("employeeId"); fk == nil || fk.Arity != dml.Optional {
		t.Fatal("Employee must gain an optional employeeId column")
	}
	if got := len(employee.Fields); got != 4 {
		t.Errorf("Employee field count = %d, want 4", got)
	}
}

func TestBackRelationCompoundCriterion(t *testing.T) {
	dm := standardiseOK(t, `
model User {
	a Int
	b Int
	posts Post[]
	@@id([a, b])
}

model Post {
	id Int @id
}
`)
	rel := dm.FindField("Post", "User").RelationInfo()
	if joined(rel.Fields) != "userA userB" || joined(rel.ToFields) != "a b" {
		t.Errorf("back relation columns = %v / %v, want [userA userB] / [a b]", rel.Fields, rel.ToFields)
	}
	for _, name := range []string{"userA", "userB"} {
		f := dm.FindField("Post", name)
		if f == nil {
			t.Fatalf("Post must gain the %s column", name)
		}
		if st, ok := f.ScalarType(); !ok || st != dml.Int || f.Arity != dml.Optional {
			t.Errorf("%s = %v %v, want optional Int", name, f.FieldType, f.Arity)
		}
	}
}
