// Package schema is the front door of the compiler. It wires the pipeline
// stages together: parse source text into a syntax tree, lift it into a
// semantic datamodel, validate, standardise relations, and run the
// post-standardisation relation checks. The reverse direction lowers a
// datamodel back to canonical source text.
//
// Each stage runs only when the stage before it produced no errors, and a
// caller always gets either a complete datamodel or the full list of
// diagnostics, never both.
package schema

import (
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/lift"
	"github.com/datamodel-lang/go-datamodel/lower"
	"github.com/datamodel-lang/go-datamodel/parser"
	"github.com/datamodel-lang/go-datamodel/standardise"
	"github.com/datamodel-lang/go-datamodel/validate"
	"github.com/datamodel-lang/go-datamodel/value"
)

// Option adjusts how a document is compiled.
type Option func(*options)

type options struct {
	env        value.EnvLookup
	resolveEnv bool
	logger     zerolog.Logger
}

// WithEnvLookup replaces the process environment for env() resolution.
// Tests pass a map-backed lookup so validation never depends on the real
// environment.
func WithEnvLookup(env value.EnvLookup) Option {
	return func(o *options) { o.env = env }
}

// WithoutEnvResolution records env()-sourced datasource URLs by variable
// name only. The variable does not have to be present, so tooling can
// process a schema outside its deployment environment.
func WithoutEnvResolution() Option {
	return func(o *options) { o.resolveEnv = false }
}

// WithLogger attaches a logger for compile traces. Diagnostics are always
// returned to the caller, never logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{env: snapshotEnv(), resolveEnv: true, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// snapshotEnv captures the process environment once, so every env() call in
// one compile run sees the same values.
func snapshotEnv() value.EnvLookup {
	vars := make(map[string]string, len(os.Environ()))
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// Parse turns source text into a syntax tree without semantic checking.
// A non-nil error is a *diag.ErrorCollection.
func Parse(source string) (*ast.SchemaAst, error) {
	return parser.Parse(source)
}

// ParseAndValidate compiles a document into a validated datamodel. Datasource
// and generator blocks are checked in the same run, so one call surfaces
// configuration problems alongside datamodel problems.
func ParseAndValidate(source string, opts ...Option) (*dml.Datamodel, error) {
	o := buildOptions(opts)

	schemaAst, err := parser.Parse(source)
	if err != nil {
		o.logger.Debug().Err(err).Msg("schema parse failed")
		return nil, err
	}

	dm, err := validateAst(schemaAst, o)
	if err != nil {
		o.logger.Debug().Int("errors", len(diag.AsCollection(err).Errors)).Msg("schema rejected")
		return nil, err
	}
	o.logger.Debug().Int("models", len(dm.Models)).Int("enums", len(dm.Enums)).Msg("schema validated")
	return dm, nil
}

func validateAst(schemaAst *ast.SchemaAst, o options) (*dml.Datamodel, error) {
	errs := diag.NewCollection()

	_, cfgErrs := loadConfig(schemaAst, o.env, o.resolveEnv)
	pushAll(errs, cfgErrs)

	dm, liftErrs := lift.Lift(schemaAst, o.env)
	if len(liftErrs) > 0 {
		pushAll(errs, liftErrs)
		return nil, errs.Err()
	}
	if stageErrs := validate.Validate(schemaAst, dm); len(stageErrs) > 0 {
		pushAll(errs, stageErrs)
		return nil, errs.Err()
	}
	if stageErrs := standardise.Standardise(schemaAst, dm); len(stageErrs) > 0 {
		pushAll(errs, stageErrs)
		return nil, errs.Err()
	}
	if stageErrs := validate.PostStandardise(schemaAst, dm); len(stageErrs) > 0 {
		pushAll(errs, stageErrs)
		return nil, errs.Err()
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return dm, nil
}

func pushAll(errs *diag.ErrorCollection, list []diag.Error) {
	for _, e := range list {
		errs.Push(e)
	}
}

// Render lowers a datamodel back to canonical source text. Generated models
// and fields are dropped, so the output stays close to what a user would
// write.
func Render(dm *dml.Datamodel) (string, error) {
	schemaAst, err := lower.Lower(dm)
	if err != nil {
		return "", err
	}
	return ast.Render(schemaAst), nil
}

// Reformat re-renders source text in canonical formatting without semantic
// checking. Source that does not parse comes back unchanged.
func Reformat(source string) (string, error) {
	schemaAst, err := parser.Parse(source)
	if err != nil {
		return source, err
	}
	return ast.Render(schemaAst), nil
}
