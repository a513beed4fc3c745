package dml

import (
	"unicode"
	"unicode/utf8"
)

// CamelCase lowercases the first rune. Generated foreign key field names are
// built from camel-cased model names.
func CamelCase(s string) string {
	return mapFirst(s, unicode.ToLower)
}

// PascalCase uppercases the first rune.
func PascalCase(s string) string {
	return mapFirst(s, unicode.ToUpper)
}

func mapFirst(s string, f func(rune) rune) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(f(r)) + s[size:]
}

// NameForUnambiguousRelation is the generated name for the only relation
// between two models: both model names in alphabetical order joined by "To".
// A self-relation uses the single model name twice.
func NameForUnambiguousRelation(modelA, modelB string) string {
	if modelA < modelB {
		return modelA + "To" + modelB
	}
	return modelB + "To" + modelA
}
