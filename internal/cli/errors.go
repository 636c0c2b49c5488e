package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/pushorder/internal/capture"
	"github.com/roach88/pushorder/internal/config"
	"github.com/roach88/pushorder/internal/graph"
	"github.com/roach88/pushorder/internal/order"
	"github.com/roach88/pushorder/internal/store"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E002" // Path not found
	ErrCodeCaptureFormat = "E003" // Capture is not a log or HAR
	ErrCodeMissingField  = "E004" // Capture entry lacks a required field
	ErrCodeDangling      = "E005" // Dependency names no fetched resource
	ErrCodeCycle         = "E006" // Dependency cycle
	ErrCodeInvalidGraph  = "E007" // Malformed graph input
	ErrCodeProperty      = "E008" // Produced order failed a structural check
	ErrCodeConfig        = "E009" // Invalid config
	ErrCodeStore         = "E010" // Archive database error
	ErrCodeRunNotFound   = "E011" // No archived run with that id
	ErrCodeWriteFailed   = "E012" // File write error
	ErrCodeNoScenarios   = "E013" // Scenario directory missing
)

// ErrorCode maps an error to its CLI code.
func ErrorCode(err error) string {
	var fe *capture.FormatError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case errors.As(err, &fe):
		return ErrCodeCaptureFormat
	case capture.IsMissingField(err):
		return ErrCodeMissingField
	case graph.IsDanglingError(err):
		return ErrCodeDangling
	case graph.IsCycleError(err):
		return ErrCodeCycle
	case errors.Is(err, graph.ErrInvalidGraph):
		return ErrCodeInvalidGraph
	case errors.Is(err, order.ErrPropertyViolation):
		return ErrCodeProperty
	case errors.Is(err, config.ErrInvalidConfig):
		return ErrCodeConfig
	case errors.Is(err, store.ErrRunNotFound):
		return ErrCodeRunNotFound
	}
	return ErrCodeGeneric
}

// errorDetails returns structured context for typed errors.
func errorDetails(err error) any {
	var (
		mf *capture.MissingFieldError
		de *graph.DanglingDependencyError
		ce *graph.GraphCycleError
		pe *order.PropertyError
	)
	switch {
	case errors.As(err, &mf):
		return map[string]any{"index": mf.Index, "url": mf.URL, "field": mf.Field}
	case errors.As(err, &de):
		return map[string]any{"resource": de.Resource, "dependency": de.Dependency}
	case errors.As(err, &ce):
		return map[string]any{"cycle": ce.Cycle, "unresolved": ce.Unresolved}
	case errors.As(err, &pe):
		return pe.Violations
	}
	return nil
}

// commandError reports err through the formatter and returns the
// matching command error (exit code 2). code overrides the derived code
// when non-empty.
func commandError(f *OutputFormatter, code, message string, err error) error {
	if code == "" {
		code = ErrorCode(err)
	}
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %v", message, err)
	}
	_ = f.Error(code, msg, errorDetails(err))
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}
