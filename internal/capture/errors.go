package capture

import (
	"errors"
	"fmt"
)

// ErrMissingField is the kind of every MissingFieldError.
var ErrMissingField = errors.New("missing required field")

// MissingFieldError reports a required key absent from a capture entry.
// It aborts the run: a partial graph is unsafe to order.
type MissingFieldError struct {
	Index int    // entry position in the capture
	URL   string // entry URL when known
	Field string // dotted path of the missing key
}

func (e *MissingFieldError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("entry %d (%s): %s %q", e.Index, e.URL, ErrMissingField, e.Field)
	}
	return fmt.Sprintf("entry %d: %s %q", e.Index, ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// IsMissingField returns true if err is or wraps a MissingFieldError.
func IsMissingField(err error) bool {
	var mf *MissingFieldError
	return errors.As(err, &mf)
}

// FormatError reports a capture that is not valid JSON or has an
// unrecognised top-level shape.
type FormatError struct {
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture: %s: %v", e.Message, e.Err)
	}
	return "capture: " + e.Message
}

func (e *FormatError) Unwrap() error { return e.Err }
