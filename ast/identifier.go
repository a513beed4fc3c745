package ast

import (
	"fmt"
	"unicode"

	"github.com/datamodel-lang/go-datamodel/diag"
)

// Validate checks the naming rules shared by every named schema item: the
// name must be non-empty, must not start with a digit, and must not contain
// a hyphen. schemaItem names the kind being validated, e.g. "Model" or
// "Field".
func (id Identifier) Validate(schemaItem string) error {
	if id.Name == "" {
		return diag.NewValidationError(fmt.Sprintf("The name of a %s must not be empty.", schemaItem), id.Span)
	}
	runes := []rune(id.Name)
	if unicode.IsDigit(runes[0]) {
		return diag.NewValidationError(fmt.Sprintf("The name of a %s must not start with a number.", schemaItem), id.Span)
	}
	for _, r := range runes {
		if r == '-' {
			return diag.NewValidationError(fmt.Sprintf("The character `-` is not allowed in %s names.", schemaItem), id.Span)
		}
	}
	return nil
}
