package dml

import (
	"time"

	"github.com/google/uuid"
	"github.com/lucsky/cuid"
)

// Known generator function names usable in defaults.
const (
	GeneratorNow           = "now"
	GeneratorCuid          = "cuid"
	GeneratorUUID          = "uuid"
	GeneratorAutoincrement = "autoincrement"
	GeneratorDbGenerated   = "dbgenerated"
)

// DefaultValue is either a literal or a generator expression.
type DefaultValue interface {
	defaultValue()
}

// SingleDefault is a literal default, e.g. @default(0).
type SingleDefault struct {
	Value ScalarValue
}

// ExpressionDefault is a generator call default, e.g. @default(uuid()).
type ExpressionDefault struct {
	Name       string
	ReturnType ScalarType
	Args       []ScalarValue
}

func (SingleDefault) defaultValue()     {}
func (ExpressionDefault) defaultValue() {}

// GeneratorReturnType reports the declared return type of a known generator
// function. dbgenerated has no fixed return type and reports anyType true.
func GeneratorReturnType(name string) (returnType ScalarType, anyType, known bool) {
	switch name {
	case GeneratorNow:
		return DateTime, false, true
	case GeneratorCuid, GeneratorUUID:
		return String, false, true
	case GeneratorAutoincrement:
		return Int, false, true
	case GeneratorDbGenerated:
		return 0, true, true
	}
	return 0, false, false
}

// Preview produces a sample value for client-side generators, used by
// tooling to show what a generated default will look like. Database-side
// generators (autoincrement, dbgenerated) have none.
func (e ExpressionDefault) Preview() (ScalarValue, bool) {
	switch e.Name {
	case GeneratorNow:
		return DateTimeValue{Value: time.Now().UTC()}, true
	case GeneratorUUID:
		return StringValue(uuid.NewString()), true
	case GeneratorCuid:
		return StringValue(cuid.New()), true
	}
	return nil, false
}
