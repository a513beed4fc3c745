package dml

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestScalarTypeNames(t *testing.T) {
	tests := []struct {
		t    ScalarType
		name string
	}{
		{Int, "Int"},
		{BigInt, "BigInt"},
		{Float, "Float"},
		{Decimal, "Decimal"},
		{Boolean, "Boolean"},
		{String, "String"},
		{DateTime, "DateTime"},
		{Json, "Json"},
		{Bytes, "Bytes"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		parsed, ok := ParseScalarType(tt.name)
		if !ok || parsed != tt.t {
			t.Errorf("ParseScalarType(%q) = %v, %v", tt.name, parsed, ok)
		}
		if !IsReservedTypeName(tt.name) {
			t.Errorf("%q should be reserved", tt.name)
		}
	}
	if _, ok := ParseScalarType("User"); ok {
		t.Error("User should not parse as a scalar type")
	}
	if IsReservedTypeName("User") {
		t.Error("User should not be reserved")
	}
}

func TestFieldArity(t *testing.T) {
	if !Required.IsRequired() || !Required.IsSingular() {
		t.Error("Required misbehaves")
	}
	if !Optional.IsOptional() || !Optional.IsSingular() {
		t.Error("Optional misbehaves")
	}
	if !List.IsList() || List.IsSingular() {
		t.Error("List misbehaves")
	}
}

func TestUniqueCriteriaPrecedence(t *testing.T) {
	model := NewModel("User")
	id := NewScalarField("id", Int)
	id.IsID = true
	email := NewScalarField("email", String)
	email.IsUnique = true
	handle := NewScalarField("handle", String)
	model.AddField(id)
	model.AddField(email)
	model.AddField(handle)
	model.AddIndex(&IndexDefinition{Fields: []string{"handle"}, Type: UniqueIndex})

	criteria := model.UniqueCriteria()
	if len(criteria) != 3 {
		t.Fatalf("criteria = %d, want 3", len(criteria))
	}
	if criteria[0][0].Name != "id" {
		t.Errorf("first criterion = %q, want id", criteria[0][0].Name)
	}
	if criteria[1][0].Name != "handle" {
		t.Errorf("second criterion = %q, want handle (unique index)", criteria[1][0].Name)
	}
	if criteria[2][0].Name != "email" {
		t.Errorf("third criterion = %q, want email", criteria[2][0].Name)
	}
}

func TestUniqueCriteriaCompositeID(t *testing.T) {
	model := NewModel("Membership")
	model.AddField(NewScalarField("userId", Int))
	model.AddField(NewScalarField("groupId", Int))
	model.IDFields = []string{"userId", "groupId"}

	first, ok := model.FirstUniqueCriterion()
	if !ok {
		t.Fatal("expected a criterion")
	}
	if len(first) != 2 || first[0].Name != "userId" || first[1].Name != "groupId" {
		t.Errorf("criterion = %v", first)
	}
}

func TestUniqueCriteriaStrictSkipsOptional(t *testing.T) {
	model := NewModel("User")
	email := NewScalarField("email", String)
	email.Arity = Optional
	email.IsUnique = true
	model.AddField(email)

	if got := model.UniqueCriteria(); len(got) != 0 {
		t.Errorf("strict criteria = %d, want 0", len(got))
	}
	if got := model.LooseUniqueCriteria(); len(got) != 1 {
		t.Errorf("loose criteria = %d, want 1", len(got))
	}
	first, ok := model.FirstUniqueCriterion()
	if !ok || first[0].Name != "email" {
		t.Errorf("fallback criterion = %v, %v", first, ok)
	}
}

func TestFindRelatedField(t *testing.T) {
	dm := Build().
		Model("User").
		Field("id", Int).ID().
		Relation("posts", "Post").List().Named("PostAuthor").
		Model("Post").
		Field("id", Int).ID().
		Relation("author", "User").Named("PostAuthor").
		Datamodel()

	posts := dm.FindField("User", "posts")
	back := dm.FindRelatedField("User", posts.RelationInfo(), "posts")
	if back == nil || back.Name != "author" {
		t.Fatalf("related field = %v", back)
	}
	author := dm.FindField("Post", "author")
	if f := dm.FindRelatedField("Post", author.RelationInfo(), "author"); f == nil || f.Name != "posts" {
		t.Fatalf("reverse lookup = %v", f)
	}
}

func TestFindRelatedFieldSelfRelation(t *testing.T) {
	dm := Build().
		Model("Employee").
		Field("id", Int).ID().
		Relation("manager", "Employee").Optional().Named("Reports").
		Relation("reports", "Employee").List().Named("Reports").
		Datamodel()

	manager := dm.FindField("Employee", "manager")
	partner := dm.FindRelatedField("Employee", manager.RelationInfo(), "manager")
	if partner == nil || partner.Name != "reports" {
		t.Fatalf("self-relation partner = %v", partner)
	}
}

func TestFindModelByField(t *testing.T) {
	dm := Build().
		Model("A").Field("x", Int).
		Model("B").Field("y", Int).
		Datamodel()

	y := dm.FindField("B", "y")
	if m := dm.FindModelByField(y); m == nil || m.Name != "B" {
		t.Errorf("model = %v", m)
	}
	if m := dm.FindModelByField(NewScalarField("stray", Int)); m != nil {
		t.Errorf("stray field should not resolve, got %v", m)
	}
}

func TestCompatibleTypes(t *testing.T) {
	tests := []struct {
		a, b FieldType
		want bool
	}{
		{ScalarFieldType{Int}, ScalarFieldType{Int}, true},
		{ScalarFieldType{Int}, ScalarFieldType{String}, false},
		{EnumFieldType{"Role"}, EnumFieldType{"Role"}, true},
		{EnumFieldType{"Role"}, EnumFieldType{"Color"}, false},
		{ScalarFieldType{Int}, EnumFieldType{"Role"}, false},
		{RelationFieldType{NewRelationInfo("User")}, RelationFieldType{NewRelationInfo("User")}, false},
	}
	for _, tt := range tests {
		if got := CompatibleTypes(tt.a, tt.b); got != tt.want {
			t.Errorf("CompatibleTypes(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNameHelpers(t *testing.T) {
	if got := CamelCase("User"); got != "user" {
		t.Errorf("CamelCase = %q", got)
	}
	if got := PascalCase("id"); got != "Id" {
		t.Errorf("PascalCase = %q", got)
	}
	if got := CamelCase(""); got != "" {
		t.Errorf("CamelCase empty = %q", got)
	}
	if got := NameForUnambiguousRelation("Post", "User"); got != "PostToUser" {
		t.Errorf("relation name = %q", got)
	}
	if got := NameForUnambiguousRelation("User", "Post"); got != "PostToUser" {
		t.Errorf("relation name should sort, got %q", got)
	}
	if got := NameForUnambiguousRelation("User", "User"); got != "UserToUser" {
		t.Errorf("self relation name = %q", got)
	}
}

func TestBuilder(t *testing.T) {
	dm := Build().
		Model("User").Docs("A person.").Map("users").
		Field("id", Int).ID().Default(ExpressionDefault{Name: GeneratorAutoincrement, ReturnType: Int}).
		Field("email", String).Unique().
		EnumField("role", "Role").
		Relation("posts", "Post").List().
		UniqueIndex("email", "role").
		Model("Post").
		Field("id", Int).ID().
		Relation("author", "User").FKFields("authorId").References("id").
		Field("authorId", Int).
		Enum("Role", "ADMIN", "USER").Docs("Access levels.").
		Datamodel()

	user := dm.FindModel("User")
	if user == nil || user.DatabaseName != "users" || user.Documentation != "A person." {
		t.Fatalf("user model misbuilt: %+v", user)
	}
	if len(user.Fields) != 4 || len(user.Indices) != 1 {
		t.Fatalf("user shape wrong: %d fields, %d indices", len(user.Fields), len(user.Indices))
	}
	if !user.FindField("id").IsID {
		t.Error("id not marked")
	}
	if _, ok := user.FindField("id").DefaultValue.(ExpressionDefault); !ok {
		t.Error("default not set")
	}
	author := dm.FindField("Post", "author")
	info := author.RelationInfo()
	if info == nil || info.To != "User" || info.Fields[0] != "authorId" || info.ToFields[0] != "id" {
		t.Fatalf("relation info = %+v", info)
	}
	role := dm.FindEnum("Role")
	if role == nil || !role.HasValue("ADMIN") || role.Documentation != "Access levels." {
		t.Fatalf("enum misbuilt: %+v", role)
	}
}

func TestGeneratorReturnTypes(t *testing.T) {
	tests := []struct {
		name    string
		want    ScalarType
		anyType bool
		known   bool
	}{
		{"now", DateTime, false, true},
		{"cuid", String, false, true},
		{"uuid", String, false, true},
		{"autoincrement", Int, false, true},
		{"dbgenerated", 0, true, true},
		{"fancy", 0, false, false},
	}
	for _, tt := range tests {
		got, anyType, known := GeneratorReturnType(tt.name)
		if known != tt.known || anyType != tt.anyType || (known && !anyType && got != tt.want) {
			t.Errorf("GeneratorReturnType(%q) = %v, %v, %v", tt.name, got, anyType, known)
		}
	}
}

func TestGeneratorPreviews(t *testing.T) {
	v, ok := ExpressionDefault{Name: GeneratorUUID, ReturnType: String}.Preview()
	if !ok {
		t.Fatal("uuid should preview")
	}
	if _, err := uuid.Parse(v.String()); err != nil {
		t.Errorf("uuid preview %q invalid: %v", v.String(), err)
	}

	v, ok = ExpressionDefault{Name: GeneratorCuid, ReturnType: String}.Preview()
	if !ok || !strings.HasPrefix(v.String(), "c") || len(v.String()) < 10 {
		t.Errorf("cuid preview = %q, %v", v, ok)
	}

	v, ok = ExpressionDefault{Name: GeneratorNow, ReturnType: DateTime}.Preview()
	if !ok {
		t.Fatal("now should preview")
	}
	when, ok := v.(DateTimeValue)
	if !ok || time.Since(when.Value) > time.Minute {
		t.Errorf("now preview = %v", v)
	}

	if _, ok := (ExpressionDefault{Name: GeneratorAutoincrement, ReturnType: Int}).Preview(); ok {
		t.Error("autoincrement should not preview")
	}
}

func TestOnDeleteStrategy(t *testing.T) {
	for _, name := range []string{"NONE", "SET_NULL", "CASCADE"} {
		s, ok := ParseOnDelete(name)
		if !ok || s.String() != name {
			t.Errorf("ParseOnDelete(%q) = %v, %v", name, s, ok)
		}
	}
	if _, ok := ParseOnDelete("RESTRICT"); ok {
		t.Error("RESTRICT should be unknown")
	}
}

func TestScalarValueStrings(t *testing.T) {
	if got := IntValue(42).String(); got != "42" {
		t.Errorf("IntValue = %q", got)
	}
	if got := FloatValue(-1.5).String(); got != "-1.5" {
		t.Errorf("FloatValue = %q", got)
	}
	if got := BooleanValue(true).String(); got != "true" {
		t.Errorf("BooleanValue = %q", got)
	}
	if got := StringValue("hi").String(); got != "hi" {
		t.Errorf("StringValue = %q", got)
	}
	if got := ConstantValue("ADMIN").String(); got != "ADMIN" {
		t.Errorf("ConstantValue = %q", got)
	}
	when := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := (DateTimeValue{Value: when}).String(); got != "2021-03-04T05:06:07Z" {
		t.Errorf("DateTimeValue = %q", got)
	}
}
