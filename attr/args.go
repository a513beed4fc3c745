package attr

import (
	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/value"
)

// Args is a cursor over one attribute's argument list. Accessors mark the
// arguments they consume; CheckForUnusedArguments reports the rest.
type Args struct {
	attribute string
	span      diag.Span
	args      []*ast.Argument
	used      []bool
	env       value.EnvLookup
}

// NewArgs builds the cursor for one attribute occurrence. A repeated named
// argument or a second unnamed argument is fatal for the whole attribute.
func NewArgs(attribute *ast.Attribute, env value.EnvLookup) (*Args, error) {
	seen := make(map[string]bool, len(attribute.Arguments))
	for _, arg := range attribute.Arguments {
		name := arg.Name.Name
		if seen[name] {
			return nil, diag.NewDuplicateArgumentError(name, arg.Span)
		}
		seen[name] = true
	}
	return &Args{
		attribute: attribute.Name.Name,
		span:      attribute.Span,
		args:      attribute.Arguments,
		used:      make([]bool, len(attribute.Arguments)),
		env:       env,
	}, nil
}

// Attribute returns the name of the attribute the cursor was built for.
func (a *Args) Attribute() string { return a.attribute }

// Span returns the whole attribute's span, used for diagnostics about
// arguments that are missing rather than wrong.
func (a *Args) Span() diag.Span { return a.span }

func (a *Args) find(name string) (int, *ast.Argument) {
	for i, arg := range a.args {
		if arg.Name.Name == name {
			return i, arg
		}
	}
	return -1, nil
}

func (a *Args) take(i int, arg *ast.Argument) *value.Validator {
	a.used[i] = true
	return value.New(arg.Value, a.env)
}

// Arg returns the named argument, consuming it.
func (a *Args) Arg(name string) (*value.Validator, error) {
	if i, arg := a.find(name); arg != nil {
		return a.take(i, arg), nil
	}
	return nil, diag.NewAttributeArgumentNotFoundError(name, a.attribute, a.span)
}

// OptionalArg returns the named argument, or nil when absent.
func (a *Args) OptionalArg(name string) *value.Validator {
	if i, arg := a.find(name); arg != nil {
		return a.take(i, arg)
	}
	return nil
}

// DefaultArg returns the argument either named as given or passed unnamed.
func (a *Args) DefaultArg(name string) (*value.Validator, error) {
	v, found, err := a.OptionalDefaultArg(name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, diag.NewAttributeArgumentNotFoundError(name, a.attribute, a.span)
	}
	return v, nil
}

// OptionalDefaultArg is DefaultArg for arguments that may be absent. Passing
// both the named and the unnamed form at once is an error.
func (a *Args) OptionalDefaultArg(name string) (*value.Validator, bool, error) {
	ni, named := a.find(name)
	ui, unnamed := a.find("")
	switch {
	case named != nil && unnamed != nil:
		return nil, false, diag.NewDuplicateDefaultArgumentError(name, a.span)
	case named != nil:
		return a.take(ni, named), true, nil
	case unnamed != nil:
		return a.take(ui, unnamed), true, nil
	}
	return nil, false, nil
}

// CheckForUnusedArguments reports every argument no accessor consumed. The
// framework runs it only after the validator succeeded, so arguments skipped
// because of an earlier error are not double-reported.
func (a *Args) CheckForUnusedArguments() []diag.Error {
	var errs []diag.Error
	for i, arg := range a.args {
		if !a.used[i] {
			errs = append(errs, diag.NewUnusedArgumentError(arg.Span))
		}
	}
	return errs
}
