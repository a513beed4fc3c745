package dml

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ScalarType is one of the built-in schema scalar types.
type ScalarType int

const (
	Int ScalarType = iota
	BigInt
	Float
	Decimal
	Boolean
	String
	DateTime
	Json
	Bytes
)

var scalarTypeNames = [...]string{
	Int:      "Int",
	BigInt:   "BigInt",
	Float:    "Float",
	Decimal:  "Decimal",
	Boolean:  "Boolean",
	String:   "String",
	DateTime: "DateTime",
	Json:     "Json",
	Bytes:    "Bytes",
}

func (t ScalarType) String() string {
	if int(t) < len(scalarTypeNames) {
		return scalarTypeNames[t]
	}
	return "Unknown"
}

// ParseScalarType resolves a schema type name to its scalar type.
func ParseScalarType(name string) (ScalarType, bool) {
	for t, n := range scalarTypeNames {
		if n == name {
			return ScalarType(t), true
		}
	}
	return 0, false
}

// IsReservedTypeName reports whether name is a built-in scalar name, which
// cannot be reused for models, enums or type aliases.
func IsReservedTypeName(name string) bool {
	_, ok := ParseScalarType(name)
	return ok
}

// ScalarValue is a concrete literal value, as carried by defaults.
type ScalarValue interface {
	scalarValue()

	// String renders the value the way it appears in schema source, without
	// string quoting.
	String() string
}

type IntValue int64

type FloatValue float64

type DecimalValue struct {
	Value decimal.Decimal
}

type BooleanValue bool

type StringValue string

type DateTimeValue struct {
	Value time.Time
}

// ConstantValue is a bare identifier literal, e.g. an enum member name.
type ConstantValue string

func (IntValue) scalarValue()      {}
func (FloatValue) scalarValue()    {}
func (DecimalValue) scalarValue()  {}
func (BooleanValue) scalarValue()  {}
func (StringValue) scalarValue()   {}
func (DateTimeValue) scalarValue() {}
func (ConstantValue) scalarValue() {}

func (v IntValue) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v FloatValue) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v DecimalValue) String() string { return v.Value.String() }
func (v BooleanValue) String() string { return strconv.FormatBool(bool(v)) }
func (v StringValue) String() string  { return string(v) }
func (v DateTimeValue) String() string {
	return v.Value.UTC().Format(time.RFC3339)
}
func (v ConstantValue) String() string { return string(v) }
