package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failures
	ExitCommandError = 2 // Command error (bad input, ordering failure, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an
// ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool

	styles *styles
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// styles renders text output. The renderer is bound to the formatter's
// writer so colour is only emitted to terminals.
type styles struct {
	ok      lipgloss.Style
	fail    lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	r := lipgloss.NewRenderer(w)
	return &styles{
		ok:      r.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		fail:    r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		heading: r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}

func (f *OutputFormatter) style() *styles {
	if f.styles == nil {
		f.styles = newStyles(f.Writer)
	}
	return f.styles
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "%s %s\n", f.style().fail.Render(fmt.Sprintf("Error [%s]:", code)), message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Pass writes a "✓ message" line.
func (f *OutputFormatter) Pass(format string, args ...any) {
	fmt.Fprintf(f.Writer, "%s %s\n", f.style().ok.Render("✓"), fmt.Sprintf(format, args...))
}

// Fail writes a "✗ message" line.
func (f *OutputFormatter) Fail(format string, args ...any) {
	fmt.Fprintf(f.Writer, "%s %s\n", f.style().fail.Render("✗"), fmt.Sprintf(format, args...))
}

// Heading writes a section title.
func (f *OutputFormatter) Heading(title string) {
	fmt.Fprintln(f.Writer, f.style().heading.Render(title))
}

// Field writes an indented "label: value" line.
func (f *OutputFormatter) Field(label string, value any) {
	fmt.Fprintf(f.Writer, "  %s %v\n", f.style().label.Render(label+":"), value)
}

// Note writes a de-emphasised line.
func (f *OutputFormatter) Note(format string, args ...any) {
	fmt.Fprintln(f.Writer, f.style().dim.Render(fmt.Sprintf(format, args...)))
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
