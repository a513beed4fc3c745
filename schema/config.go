package schema

import (
	"errors"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/value"
)

// Known datasource providers. postgres is accepted as an alias of
// postgresql.
var knownProviders = map[string]bool{
	"sqlite":     true,
	"postgresql": true,
	"postgres":   true,
	"mysql":      true,
}

// Config holds the datasource and generator blocks of a document.
type Config struct {
	Datasources []*Datasource
	Generators  []*Generator
}

// Datasource is one `datasource name { ... }` block.
type Datasource struct {
	Name     string
	Provider string

	// URL is the resolved connection string. Empty when the url comes from
	// env() and resolution is off.
	URL string

	// FromEnvVar names the environment variable the url is read from, empty
	// for a literal url.
	FromEnvVar string

	Documentation string
}

// Generator is one `generator name { ... }` block.
type Generator struct {
	Name     string
	Provider string
	Output   string

	// Config carries the remaining key = value properties.
	Config map[string]string

	Documentation string
}

// LoadConfig reads the datasource and generator blocks of a parsed document.
// env resolves env() calls in url values; nil behaves like an empty
// environment. A non-nil error is a *diag.ErrorCollection.
func LoadConfig(schemaAst *ast.SchemaAst, env value.EnvLookup) (*Config, error) {
	cfg, cfgErrs := loadConfig(schemaAst, env, true)
	if len(cfgErrs) > 0 {
		errs := diag.NewCollection()
		pushAll(errs, cfgErrs)
		return nil, errs
	}
	return cfg, nil
}

func loadConfig(schemaAst *ast.SchemaAst, env value.EnvLookup, resolveEnv bool) (*Config, []diag.Error) {
	var errs []diag.Error
	cfg := &Config{}
	for _, src := range schemaAst.Sources() {
		ds, srcErrs := loadDatasource(src, env, resolveEnv)
		if len(srcErrs) > 0 {
			errs = append(errs, srcErrs...)
			continue
		}
		cfg.Datasources = append(cfg.Datasources, ds)
	}
	for _, gen := range schemaAst.Generators() {
		g, genErrs := loadGenerator(gen, env)
		if len(genErrs) > 0 {
			errs = append(errs, genErrs...)
			continue
		}
		cfg.Generators = append(cfg.Generators, g)
	}
	return cfg, errs
}

func loadDatasource(src *ast.SourceConfig, env value.EnvLookup, resolveEnv bool) (*Datasource, []diag.Error) {
	var errs []diag.Error
	ds := &Datasource{Name: src.Name.Name, Documentation: src.NodeDocumentation()}

	if prop := findProperty(src.Properties, "provider"); prop == nil {
		errs = append(errs, diag.NewSourceArgumentNotFoundError("provider", src.Name.Name, src.Span))
	} else {
		v := value.New(prop.Value, env)
		switch provider, err := v.AsString(); {
		case v.IsFromEnv():
			errs = append(errs, diag.NewFunctionalEvaluationError(
				"A datasource must not use the env() function in the provider argument.", src.Span))
		case err != nil:
			errs = appendDiag(errs, err)
		case !knownProviders[provider]:
			errs = append(errs, diag.NewDatasourceProviderNotKnownError(provider, prop.Value.ExprSpan()))
		default:
			ds.Provider = provider
		}
	}

	if prop := findProperty(src.Properties, "url"); prop == nil {
		errs = append(errs, diag.NewSourceArgumentNotFoundError("url", src.Name.Name, src.Span))
	} else {
		v := value.New(prop.Value, env)
		if !resolveEnv && v.IsFromEnv() {
			ds.FromEnvVar, _ = v.EnvVarName()
		} else if envVar, url, err := v.AsStringFromEnv(); err != nil {
			errs = appendDiag(errs, err)
		} else {
			ds.FromEnvVar = envVar
			ds.URL = url
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return ds, nil
}

func loadGenerator(gen *ast.GeneratorConfig, env value.EnvLookup) (*Generator, []diag.Error) {
	var errs []diag.Error
	g := &Generator{
		Name:          gen.Name.Name,
		Config:        make(map[string]string),
		Documentation: gen.NodeDocumentation(),
	}

	if prop := findProperty(gen.Properties, "provider"); prop == nil {
		errs = append(errs, diag.NewGeneratorArgumentNotFoundError("provider", gen.Name.Name, gen.Span))
	} else if provider, err := value.New(prop.Value, env).AsString(); err != nil {
		errs = appendDiag(errs, err)
	} else {
		g.Provider = provider
	}

	for _, prop := range gen.Properties {
		if prop.Name.Name == "provider" {
			continue
		}
		val, err := value.New(prop.Value, env).AsString()
		if err != nil {
			errs = appendDiag(errs, err)
			continue
		}
		if prop.Name.Name == "output" {
			g.Output = val
			continue
		}
		g.Config[prop.Name.Name] = val
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return g, nil
}

// findProperty returns the first property with the given key. Duplicate keys
// are already rejected during lifting.
func findProperty(props []*ast.ConfigProperty, name string) *ast.ConfigProperty {
	for _, prop := range props {
		if prop.Name.Name == name {
			return prop
		}
	}
	return nil
}

func appendDiag(errs []diag.Error, err error) []diag.Error {
	var de diag.Error
	if errors.As(err, &de) {
		return append(errs, de)
	}
	return append(errs, diag.NewValidationError(err.Error(), diag.EmptySpan()))
}
