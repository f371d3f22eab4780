package tokenfind

import (
	"errors"
	"fmt"
)

// ErrNoMatch is returned when a valid pattern does not occur in the text,
// or its capturing group did not take part in the match.
var ErrNoMatch = errors.New("pattern did not match")

// ErrNoCell is returned by Table accessors for rows or columns that do not exist.
var ErrNoCell = errors.New("table cell does not exist")

type PatternError struct {
	Pattern string
	Err     error
}

func (p *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", p.Pattern, p.Err)
}

func (p *PatternError) Unwrap() error {
	return p.Err
}

func (p *PatternError) Is(e error) bool {
	_, ok := e.(*PatternError)
	return ok
}

// ConversionError means the field was found but its text could not be turned into the requested type.
type ConversionError struct {
	Value string
	Err   error
}

func (c *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q: %v", c.Value, c.Err)
}

func (c *ConversionError) Unwrap() error {
	return c.Err
}

func (c *ConversionError) Is(e error) bool {
	_, ok := e.(*ConversionError)
	return ok
}

// FieldError tags a batch failure with the name of the field it belongs to.
type FieldError struct {
	Field string
	Err   error
}

func (f *FieldError) Error() string {
	return f.Field + ": " + f.Err.Error()
}

func (f *FieldError) Unwrap() error {
	return f.Err
}
