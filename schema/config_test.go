package schema

import (
	"reflect"
	"testing"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
)

func parseSchema(t *testing.T, source string) *ast.SchemaAst {
	t.Helper()
	schemaAst, err := Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return schemaAst
}

func TestLoadConfigReadsBlocks(t *testing.T) {
	schemaAst := parseSchema(t, `
/// Main database.
datasource db {
	provider = "sqlite"
	url      = "file:dev.db"
}

generator client {
	provider    = "go-client"
	output      = "./gen"
	packageName = "models"
}
`)
	cfg, err := LoadConfig(schemaAst, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if len(cfg.Datasources) != 1 || len(cfg.Generators) != 1 {
		t.Fatalf("got %d datasources and %d generators, want 1 each", len(cfg.Datasources), len(cfg.Generators))
	}
	ds := cfg.Datasources[0]
	if ds.Name != "db" || ds.Provider != "sqlite" || ds.URL != "file:dev.db" {
		t.Errorf("datasource = %+v", ds)
	}
	if ds.FromEnvVar != "" {
		t.Errorf("literal url recorded env var %q", ds.FromEnvVar)
	}
	if ds.Documentation != "Main database." {
		t.Errorf("documentation = %q", ds.Documentation)
	}

	gen := cfg.Generators[0]
	if gen.Name != "client" || gen.Provider != "go-client" || gen.Output != "./gen" {
		t.Errorf("generator = %+v", gen)
	}
	if want := map[string]string{"packageName": "models"}; !reflect.DeepEqual(gen.Config, want) {
		t.Errorf("generator config = %v, want %v", gen.Config, want)
	}
}

func TestLoadConfigResolvesEnvURL(t *testing.T) {
	schemaAst := parseSchema(t, `
datasource db {
	provider = "postgresql"
	url      = env("DATABASE_URL")
}
`)

	cfg, err := LoadConfig(schemaAst, mapEnv(map[string]string{"DATABASE_URL": "postgresql://localhost/app"}))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	ds := cfg.Datasources[0]
	if ds.URL != "postgresql://localhost/app" {
		t.Errorf("url = %q", ds.URL)
	}
	if ds.FromEnvVar != "DATABASE_URL" {
		t.Errorf("env var = %q, want DATABASE_URL", ds.FromEnvVar)
	}

	_, err = LoadConfig(schemaAst, mapEnv(nil))
	if err == nil {
		t.Fatal("expected an error for the missing variable")
	}
	assertCollection(t, diag.AsCollection(err), []string{"Environment variable not found: DATABASE_URL."})
}

func TestLoadConfigErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "missing provider",
			source: "datasource db {\n\turl = \"file:dev.db\"\n}",
			want:   `Argument "provider" is missing in data source block "db".`,
		},
		{
			name:   "missing url",
			source: "datasource db {\n\tprovider = \"sqlite\"\n}",
			want:   `Argument "url" is missing in data source block "db".`,
		},
		{
			name:   "unknown provider",
			source: "datasource db {\n\tprovider = \"mongodb\"\n\turl = \"mongodb://localhost\"\n}",
			want:   `Datasource provider not known: "mongodb".`,
		},
		{
			name:   "env provider",
			source: "datasource db {\n\tprovider = env(\"DB_PROVIDER\")\n\turl = \"postgresql://localhost\"\n}",
			want:   "A datasource must not use the env() function in the provider argument.",
		},
		{
			name:   "generator without provider",
			source: "generator client {\n\toutput = \"./gen\"\n}",
			want:   `Argument "provider" is missing in generator block "client".`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg, err := LoadConfig(parseSchema(t, c.source), nil)
			if err == nil {
				t.Fatalf("loaded without error: %+v", cfg)
			}
			assertCollection(t, diag.AsCollection(err), []string{c.want})
		})
	}
}

func TestLoadConfigAccumulatesAcrossBlocks(t *testing.T) {
	_, err := LoadConfig(parseSchema(t, `
datasource db {
	provider = "sqlite"
}

generator client {
	output = "./gen"
}
`), nil)
	if err == nil {
		t.Fatal("expected errors")
	}
	assertCollection(t, diag.AsCollection(err), []string{
		`Argument "url" is missing in data source block "db".`,
		`Argument "provider" is missing in generator block "client".`,
	})
}

func TestLoadConfigSkipsModels(t *testing.T) {
	cfg, err := LoadConfig(parseSchema(t, `
model User {
	id Int @id
}
`), nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Datasources) != 0 || len(cfg.Generators) != 0 {
		t.Errorf("config = %+v, want empty", cfg)
	}
}
