package diag

import (
	"errors"
	"strings"
)

// ErrorCollection accumulates diagnostics in discovery order. Pipeline stages
// push every error they find instead of stopping at the first, so one run
// over a schema surfaces all problems at once.
type ErrorCollection struct {
	Errors []Error
}

func NewCollection() *ErrorCollection {
	return &ErrorCollection{}
}

func (c *ErrorCollection) Push(err Error) {
	c.Errors = append(c.Errors, err)
}

// Append moves all errors from other into c, preserving order.
func (c *ErrorCollection) Append(other *ErrorCollection) {
	if other == nil {
		return
	}
	c.Errors = append(c.Errors, other.Errors...)
}

// PushError folds a plain error into the collection: an Error or
// ErrorCollection keeps its diagnostics, anything else becomes a generic
// validation error without a span.
func (c *ErrorCollection) PushError(err error) {
	if err == nil {
		return
	}
	var single Error
	if errors.As(err, &single) {
		c.Push(single)
		return
	}
	var coll *ErrorCollection
	if errors.As(err, &coll) {
		c.Append(coll)
		return
	}
	c.Push(NewValidationError(err.Error(), EmptySpan()))
}

func (c *ErrorCollection) HasErrors() bool {
	return len(c.Errors) > 0
}

// Err returns the collection as an error, or nil when empty. Callers must use
// this instead of returning c directly to avoid a non-nil interface wrapping
// an empty collection.
func (c *ErrorCollection) Err() error {
	if c.HasErrors() {
		return c
	}
	return nil
}

func (c *ErrorCollection) Error() string {
	msgs := make([]string, len(c.Errors))
	for i, e := range c.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// AsCollection unwraps err into an ErrorCollection. A bare Error becomes a
// one-element collection; nil stays nil.
func AsCollection(err error) *ErrorCollection {
	if err == nil {
		return nil
	}
	var coll *ErrorCollection
	if errors.As(err, &coll) {
		return coll
	}
	out := NewCollection()
	out.PushError(err)
	return out
}
