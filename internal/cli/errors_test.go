package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pushorder/internal/capture"
	"github.com/roach88/pushorder/internal/config"
	"github.com/roach88/pushorder/internal/graph"
	"github.com/roach88/pushorder/internal/order"
	"github.com/roach88/pushorder/internal/store"
)

func TestErrorCode(t *testing.T) {
	_, notFound := os.Open("/nonexistent/capture.json")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", notFound, ErrCodeNotFound},
		{"format", &capture.FormatError{Message: `missing top-level "log" key`}, ErrCodeCaptureFormat},
		{"missing field", fmt.Errorf("extract dependencies: %w", &capture.MissingFieldError{Index: 2, Field: "initiator"}), ErrCodeMissingField},
		{"dangling", fmt.Errorf("build graph: %w", &graph.DanglingDependencyError{Resource: "a.js", Dependency: "b.js"}), ErrCodeDangling},
		{"cycle", fmt.Errorf("assign layers: %w", &graph.GraphCycleError{Unresolved: []string{"a.js"}}), ErrCodeCycle},
		{"invalid graph", fmt.Errorf("build graph: %w", graph.ErrInvalidGraph), ErrCodeInvalidGraph},
		{"property", &order.PropertyError{}, ErrCodeProperty},
		{"config", fmt.Errorf("%w: cache_size", config.ErrInvalidConfig), ErrCodeConfig},
		{"run not found", fmt.Errorf("%w: x", store.ErrRunNotFound), ErrCodeRunNotFound},
		{"unknown", errors.New("unknown"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorDetails(t *testing.T) {
	details := errorDetails(&graph.DanglingDependencyError{Resource: "a.js", Dependency: "b.js"})
	assert.Equal(t, map[string]any{"resource": "a.js", "dependency": "b.js"}, details)

	details = errorDetails(&graph.GraphCycleError{Unresolved: []string{"a.js", "b.js"}, Cycle: []string{"a.js", "b.js", "a.js"}})
	assert.Equal(t, map[string]any{
		"cycle":      []string{"a.js", "b.js", "a.js"},
		"unresolved": []string{"a.js", "b.js"},
	}, details)

	assert.Nil(t, errorDetails(errors.New("plain")))
}

func TestCommandError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	cause := &graph.DanglingDependencyError{Resource: "a.js", Dependency: "b.js"}
	err := commandError(f, "", "ordering failed", cause)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, graph.ErrDanglingDependency)
	assert.Contains(t, err.Error(), "E005: ordering failed")
	assert.Contains(t, buf.String(), "Error [E005]: ordering failed: dangling dependency")

	buf.Reset()
	err = commandError(f, ErrCodeWriteFailed, "failed to write artifact", nil)
	assert.Equal(t, "E012: failed to write artifact", err.Error())
	assert.Contains(t, buf.String(), "Error [E012]: failed to write artifact")
}
