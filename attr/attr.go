// Package attr implements the attribute validation framework. Each target
// kind (field, model, enum, enum value) has a closed list of validators; an
// attribute occurrence is checked against its validator's argument contract
// and applied to the semantic object, and the same validator serializes the
// object's state back to attribute syntax when lowering. Errors accumulate
// across attributes so one schema pass surfaces every problem at once.
package attr

import (
	"errors"
	"strings"

	"github.com/datamodel-lang/go-datamodel/ast"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/value"
)

const stateError = "Failed lookup of model, field or optional property during internal processing. This means that the internal representation was mutated incorrectly."

// Validator checks and applies one attribute kind to one target object.
// Serialize is the dual used when lowering a datamodel back to syntax.
type Validator[T any] interface {
	Name() string
	ValidateAndApply(args *Args, obj T) error
	Serialize(obj T, dm *dml.Datamodel) ([]*ast.Attribute, error)
	DuplicateAllowed() bool
}

// List is the closed validator set for one target kind. Registration order
// is the canonical serialization order.
type List[T any] struct {
	known map[string]Validator[T]
	order []string
}

func NewList[T any](validators ...Validator[T]) *List[T] {
	l := &List[T]{known: make(map[string]Validator[T], len(validators))}
	for _, v := range validators {
		l.known[v.Name()] = v
		l.order = append(l.order, v.Name())
	}
	return l
}

// ValidateAndApply runs every attribute on one object through its validator
// and returns all diagnostics. Attributes validate in dependency order, not
// document order: a field written `@id @default(...)` behaves exactly like
// `@default(...) @id`.
func (l *List[T]) ValidateAndApply(attrs []*ast.Attribute, obj T, env value.EnvLookup) []diag.Error {
	byName := make(map[string][]*ast.Attribute)
	names := make([]string, 0, len(attrs))
	for _, attribute := range attrs {
		name := attribute.Name.Name
		if _, ok := byName[name]; !ok {
			names = append(names, name)
		}
		byName[name] = append(byName[name], attribute)
	}

	var errs []diag.Error
	for _, name := range sortNames(names) {
		occurrences := byName[name]
		validator, known := l.known[name]
		if !known {
			// Names with a namespace separator are reserved for
			// connector extensions and pass through unchecked.
			if strings.Contains(name, ".") {
				continue
			}
			for _, attribute := range occurrences {
				errs = append(errs, diag.NewAttributeNotKnownError(name, attribute.Span))
			}
			continue
		}

		if len(occurrences) > 1 && !validator.DuplicateAllowed() {
			errs = append(errs, diag.NewDuplicateAttributeError(name, occurrences[0].Span))
		}

		for _, attribute := range occurrences {
			args, err := NewArgs(attribute, env)
			if err != nil {
				errs = appendError(errs, err)
				continue
			}
			if err := validator.ValidateAndApply(args, obj); err != nil {
				errs = appendError(errs, err)
				continue
			}
			errs = append(errs, args.CheckForUnusedArguments()...)
		}
	}
	return errs
}

// Serialize regenerates the object's attribute list in canonical order.
func (l *List[T]) Serialize(obj T, dm *dml.Datamodel) ([]*ast.Attribute, error) {
	var out []*ast.Attribute
	for _, name := range l.order {
		attrs, err := l.known[name].Serialize(obj, dm)
		if err != nil {
			return nil, err
		}
		out = append(out, attrs...)
	}
	return out, nil
}

// orderEdges lists the hard validation-order constraints: the key validates
// before each of its values. An id strategy decision may depend on an
// already attached default generator, and map needs resolved relation info.
var orderEdges = map[string][]string{
	"default":  {"id"},
	"relation": {"map"},
}

// sortNames returns the attribute names in validation order: lexical by
// name, with the orderEdges constraints honored. Edges only bind when both
// endpoints are present.
func sortNames(names []string) []string {
	indegree := make(map[string]int, len(names))
	for _, n := range names {
		indegree[n] = 0
	}
	for from, tos := range orderEdges {
		if _, ok := indegree[from]; !ok {
			continue
		}
		for _, to := range tos {
			if _, ok := indegree[to]; ok {
				indegree[to]++
			}
		}
	}

	out := make([]string, 0, len(names))
	for len(indegree) > 0 {
		next := ""
		for n, d := range indegree {
			if d == 0 && (next == "" || n < next) {
				next = n
			}
		}
		if next == "" {
			// The static edge set is acyclic, so every round has a
			// ready name.
			for n := range indegree {
				if next == "" || n < next {
					next = n
				}
			}
		}
		delete(indegree, next)
		out = append(out, next)
		for _, to := range orderEdges[next] {
			if _, ok := indegree[to]; ok {
				indegree[to]--
			}
		}
	}
	return out
}

func appendError(errs []diag.Error, err error) []diag.Error {
	var de diag.Error
	if errors.As(err, &de) {
		return append(errs, de)
	}
	return append(errs, diag.NewValidationError(err.Error(), diag.EmptySpan()))
}

// wrapAttributeError reframes a value-layer error as an attribute parse
// error, keeping the inner span.
func wrapAttributeError(err error, attribute string) error {
	var de diag.Error
	if errors.As(err, &de) {
		return diag.NewAttributeValidationError(de.Error(), attribute, de.Span())
	}
	return err
}

// constantArray reads a list of bare identifiers, e.g. `fields: [a, b]`.
func constantArray(v *value.Validator) ([]string, error) {
	parts := v.AsArray()
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name, err := p.AsConstant()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
