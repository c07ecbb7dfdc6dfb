package hop

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when no hop exists for an identifier.
var ErrNotFound = errors.New("hop not found")

// FieldError is a single violated rule on one input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries every field-level violation found in one input.
// Nothing is persisted when it is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "hop validation failed: " + strings.Join(parts, "; ")
}

// Messages returns the user-facing messages in field order.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Message)
	}
	return out
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Messages extracts flashable messages from err. Validation errors yield one
// message per field; anything else yields its own text.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages()
	}
	return []string{err.Error()}
}
