package points

import "fmt"

// MalformedInputError reports a receipt field that is present but cannot be
// parsed by the rule that reads it.
type MalformedInputError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func malformed(field, value string, err error) error {
	return &MalformedInputError{Field: field, Value: value, Err: err}
}
