package diag

import (
	"fmt"
	"strings"
)

// Kind classifies a diagnostic. Message text is fixed at construction; the
// kind exists so callers can branch without string matching.
type Kind string

const (
	KindParser               Kind = "parser"
	KindLegacyParser         Kind = "legacy-parser"
	KindFunctionalEvaluation Kind = "functional-evaluation"
	KindEnvironmentMissing   Kind = "environment-missing"
	KindTypeMismatch         Kind = "type-mismatch"
	KindValueParser          Kind = "value-parser"
	KindLiteralParser        Kind = "literal-parser"
	KindValidation           Kind = "validation"
	KindModelValidation      Kind = "model-validation"
	KindFieldValidation      Kind = "field-validation"
	KindEnumValidation       Kind = "enum-validation"
	KindSourceValidation     Kind = "source-validation"
	KindAttributeValidation  Kind = "attribute-validation"
	KindDuplicateAttribute   Kind = "duplicate-attribute"
	KindAttributeNotKnown    Kind = "attribute-not-known"
	KindFunctionNotKnown     Kind = "function-not-known"
	KindProviderNotKnown     Kind = "provider-not-known"
	KindReservedScalarType   Kind = "reserved-scalar-type"
	KindDuplicateTop         Kind = "duplicate-top"
	KindDuplicateConfigKey   Kind = "duplicate-config-key"
	KindDuplicateArgument    Kind = "duplicate-argument"
	KindUnusedArgument       Kind = "unused-argument"
	KindDuplicateField       Kind = "duplicate-field"
	KindDuplicateEnumValue   Kind = "duplicate-enum-value"
	KindArgumentNotFound     Kind = "argument-not-found"
	KindTypeNotFound         Kind = "type-not-found"
)

// Error is one schema diagnostic: a classified, pre-formatted message plus
// the source span it refers to. It is a value type; collections copy freely.
type Error struct {
	kind Kind
	msg  string
	span Span
}

func (e Error) Error() string { return e.msg }
func (e Error) Kind() Kind    { return e.kind }
func (e Error) Span() Span    { return e.span }

func newError(kind Kind, span Span, format string, args ...any) Error {
	return Error{kind: kind, msg: fmt.Sprintf(format, args...), span: span}
}

// NewParserError reports a hard grammar failure. expected holds the
// human-readable labels of the constructs that would have been legal.
func NewParserError(expected []string, span Span) Error {
	return newError(KindParser, span, "Unexpected token. Expected one of: %s", strings.Join(expected, ", "))
}

// NewLegacyParserError reports a recognized deprecated syntax form together
// with a migration hint. The message is used verbatim.
func NewLegacyParserError(message string, span Span) Error {
	return newError(KindLegacyParser, span, "%s", message)
}

func NewFunctionalEvaluationError(message string, span Span) Error {
	return newError(KindFunctionalEvaluation, span, "%s", message)
}

func NewEnvironmentMissingError(varName string, span Span) Error {
	return newError(KindEnvironmentMissing, span, "Environment variable not found: %s.", varName)
}

func NewTypeMismatchError(expectedType, receivedType, rawValue string, span Span) Error {
	return newError(KindTypeMismatch, span, "Expected a %s value, but received %s value \"%s\".", expectedType, receivedType, rawValue)
}

func NewValueParserError(expectedType, rawValue, parserError string, span Span) Error {
	return newError(KindValueParser, span, "Expected a %s value, but failed while parsing \"%s\": %s.", expectedType, rawValue, parserError)
}

func NewLiteralParserError(literalType, rawValue string, span Span) Error {
	return newError(KindLiteralParser, span, "\"%s\" is not a valid value for %s.", rawValue, literalType)
}

func NewValidationError(message string, span Span) Error {
	return newError(KindValidation, span, "Error validating: %s", message)
}

func NewModelValidationError(message, model string, span Span) Error {
	return newError(KindModelValidation, span, "Error validating model \"%s\": %s", model, message)
}

func NewFieldValidationError(message, model, field string, span Span) Error {
	return newError(KindFieldValidation, span, "Error validating field `%s` in model `%s`: %s", field, model, message)
}

func NewEnumValidationError(message, enum string, span Span) Error {
	return newError(KindEnumValidation, span, "Error validating enum `%s`: %s", enum, message)
}

func NewSourceValidationError(message, source string, span Span) Error {
	return newError(KindSourceValidation, span, "Error validating source `%s`: %s", source, message)
}

func NewAttributeValidationError(message, attribute string, span Span) Error {
	return newError(KindAttributeValidation, span, "Error parsing attribute \"@%s\": %s", attribute, message)
}

func NewDuplicateAttributeError(attribute string, span Span) Error {
	return newError(KindDuplicateAttribute, span, "Attribute \"@%s\" is defined twice.", attribute)
}

func NewAttributeNotKnownError(attribute string, span Span) Error {
	return newError(KindAttributeNotKnown, span, "Attribute not known: \"@%s\".", attribute)
}

func NewFunctionNotKnownError(function string, span Span) Error {
	return newError(KindFunctionNotKnown, span, "Function not known: \"%s\".", function)
}

func NewDatasourceProviderNotKnownError(provider string, span Span) Error {
	return newError(KindProviderNotKnown, span, "Datasource provider not known: \"%s\".", provider)
}

func NewReservedScalarTypeError(typeName string, span Span) Error {
	return newError(KindReservedScalarType, span, "\"%s\" is a reserved scalar type name and can not be used.", typeName)
}

// NewDuplicateTopError reports a top-level name clash, e.g. a model and an
// enum sharing a name. existingType names the kind of the earlier winner.
func NewDuplicateTopError(topType, name, existingType string, span Span) Error {
	return newError(KindDuplicateTop, span, "The %s \"%s\" cannot be defined because a %s with that name already exists.", topType, name, existingType)
}

func NewDuplicateConfigKeyError(key, block string, span Span) Error {
	return newError(KindDuplicateConfigKey, span, "Key \"%s\" is already defined in %s.", key, block)
}

func NewDuplicateArgumentError(argument string, span Span) Error {
	return newError(KindDuplicateArgument, span, "Argument \"%s\" is already specified.", argument)
}

func NewDuplicateDefaultArgumentError(argument string, span Span) Error {
	return newError(KindDuplicateArgument, span, "Argument \"%s\" is already specified as unnamed argument.", argument)
}

func NewUnusedArgumentError(span Span) Error {
	return newError(KindUnusedArgument, span, "No such argument.")
}

func NewDuplicateFieldError(model, field string, span Span) Error {
	return newError(KindDuplicateField, span, "Field \"%s\" is already defined on model \"%s\".", field, model)
}

func NewDuplicateEnumValueError(enum, value string, span Span) Error {
	return newError(KindDuplicateEnumValue, span, "Value \"%s\" is already defined on enum \"%s\".", value, enum)
}

func NewArgumentNotFoundError(argument string, span Span) Error {
	return newError(KindArgumentNotFound, span, "Argument \"%s\" is missing.", argument)
}

func NewArgumentCountMismatchError(function string, required, given int, span Span) Error {
	return newError(KindArgumentNotFound, span, "Function \"%s\" takes %d arguments, but received %d.", function, required, given)
}

func NewAttributeArgumentNotFoundError(argument, attribute string, span Span) Error {
	return newError(KindArgumentNotFound, span, "Argument \"%s\" is missing in attribute \"@%s\".", argument, attribute)
}

func NewSourceArgumentNotFoundError(argument, source string, span Span) Error {
	return newError(KindArgumentNotFound, span, "Argument \"%s\" is missing in data source block \"%s\".", argument, source)
}

func NewGeneratorArgumentNotFoundError(argument, generator string, span Span) Error {
	return newError(KindArgumentNotFound, span, "Argument \"%s\" is missing in generator block \"%s\".", argument, generator)
}

func NewTypeNotFoundError(typeName string, span Span) Error {
	return newError(KindTypeNotFound, span, "Type \"%s\" is neither a built-in type, nor refers to another model, custom type, or enum.", typeName)
}

func NewScalarTypeNotFoundError(typeName string, span Span) Error {
	return newError(KindTypeNotFound, span, "Type \"%s\" is not a built-in type.", typeName)
}
