package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	dm := compile(t, `
model User {
	id        Int      @id @default(autoincrement())
	email     String   @unique @map("email_address")
	role      Role     @default(USER)
	createdAt DateTime @default(now())
	posts     Post[]
}

model Post {
	id       Int    @id
	author   User   @relation(fields: [authorId], references: [id])
	authorId Int
	title    String

	@@index([title], name: "byTitle")
}

enum Role {
	USER
	ADMIN

	@@map("roles")
}
`)

	data, err := ToJSON(dm)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	again, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if !reflect.DeepEqual(again, dm) {
		t.Errorf("datamodel changed across the JSON round trip\nbefore: %+v\nafter:  %+v", dm, again)
	}
}

func TestJSONWireFormat(t *testing.T) {
	dm := compile(t, `
model Post {
	id       Int  @id
	author   User @relation(fields: [authorId], references: [id])
	authorId Int
}

model User {
	id    Int    @id
	posts Post[]
}
`)
	data, err := ToJSON(dm)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var doc struct {
		Models []struct {
			Name   string `json:"name"`
			Fields []struct {
				Name     string `json:"name"`
				Kind     string `json:"kind"`
				Type     string `json:"type"`
				Arity    string `json:"arity"`
				IsID     bool   `json:"isId"`
				Relation *struct {
					Fields     []string `json:"fields"`
					References []string `json:"references"`
					Name       string   `json:"name"`
				} `json:"relation"`
			} `json:"fields"`
		} `json:"models"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(doc.Models) != 2 || doc.Models[0].Name != "Post" {
		t.Fatalf("models = %+v", doc.Models)
	}
	id := doc.Models[0].Fields[0]
	if id.Kind != "scalar" || id.Type != "Int" || id.Arity != "required" || !id.IsID {
		t.Errorf("id field = %+v", id)
	}
	author := doc.Models[0].Fields[1]
	if author.Kind != "relation" || author.Type != "User" {
		t.Errorf("author field = %+v", author)
	}
	if author.Relation == nil || !reflect.DeepEqual(author.Relation.References, []string{"id"}) {
		t.Errorf("author relation = %+v", author.Relation)
	}
	if author.Relation.Name != "PostToUser" {
		t.Errorf("relation name = %q, want PostToUser", author.Relation.Name)
	}
}

func TestFromJSONRejectsMalformedDocuments(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{
			name: "invalid json",
			data: `{`,
			want: "invalid JSON",
		},
		{
			name: "unknown field kind",
			data: `{"models":[{"name":"A","fields":[{"name":"x","kind":"vector","type":"Int","arity":"required"}]}]}`,
			want: `unknown field kind "vector"`,
		},
		{
			name: "unknown arity",
			data: `{"models":[{"name":"A","fields":[{"name":"x","kind":"scalar","type":"Int","arity":"sometimes"}]}]}`,
			want: `unknown arity "sometimes"`,
		},
		{
			name: "unknown scalar type",
			data: `{"models":[{"name":"A","fields":[{"name":"x","kind":"scalar","type":"Whatever","arity":"required"}]}]}`,
			want: `unknown scalar type "Whatever"`,
		},
		{
			name: "unknown index type",
			data: `{"models":[{"name":"A","fields":[],"indices":[{"fields":["x"],"type":"spatial"}]}]}`,
			want: `unknown index type "spatial"`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := FromJSON([]byte(c.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("error = %q, want it to mention %q", err, c.want)
			}
		})
	}
}
