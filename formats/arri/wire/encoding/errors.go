package encoding

import (
	"errors"
	"fmt"

	"github.com/ozontech/arriwire/formats/model"
)

var (
	ErrMalformedFrame          = errors.New("arriwire: malformed frame")
	ErrUnrecognizedMessageKind = errors.New("arriwire: unrecognized message kind")
	ErrMalformedHeader         = errors.New("arriwire: malformed header")
	ErrInvalidHeaderValue      = errors.New("arriwire: invalid header value")
	ErrMissingRequiredField    = errors.New("arriwire: missing required field")
	ErrFrameTooLarge           = errors.New("arriwire: frame too large")
	ErrInvalidMessage          = errors.New("arriwire: invalid message")
)

// MissingFieldError reports a header the variant requires that was absent from the frame.
type MissingFieldError struct {
	Kind  model.Kind
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("arriwire: %s frame missing required field %q", e.Kind, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// HeaderError locates a header line that failed to parse. Line is 1-based and
// counts the status line.
type HeaderError struct {
	Line int
	Name string
	Err  error
}

func (e *HeaderError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: header %q: %v", e.Line, e.Name, e.Err)
}

func (e *HeaderError) Unwrap() error { return e.Err }

// InvalidFieldError reports a message field that cannot be written to a frame
// without changing how the frame decodes.
type InvalidFieldError struct {
	Kind   model.Kind
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("arriwire: %s message field %q %s", e.Kind, e.Field, e.Reason)
}

func (e *InvalidFieldError) Is(target error) bool {
	return target == ErrInvalidMessage
}
