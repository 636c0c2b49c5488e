package harness

import (
	"errors"

	"github.com/roach88/pushorder/internal/artifact"
	"github.com/roach88/pushorder/internal/capture"
	"github.com/roach88/pushorder/internal/graph"
	"github.com/roach88/pushorder/internal/order"
)

// Error kinds a scenario can expect.
const (
	KindMissingField       = "missing_field"
	KindDanglingDependency = "dangling_dependency"
	KindGraphCycle         = "graph_cycle"
	KindInvalidGraph       = "invalid_graph"
	KindPropertyViolation  = "property_violation"
	KindOther              = "other"
)

func knownKind(kind string) bool {
	switch kind {
	case KindMissingField, KindDanglingDependency, KindGraphCycle,
		KindInvalidGraph, KindPropertyViolation, KindOther:
		return true
	}
	return false
}

// ErrorKind classifies an ordering error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case capture.IsMissingField(err):
		return KindMissingField
	case graph.IsDanglingError(err):
		return KindDanglingDependency
	case graph.IsCycleError(err):
		return KindGraphCycle
	case errors.Is(err, graph.ErrInvalidGraph):
		return KindInvalidGraph
	case errors.Is(err, order.ErrPropertyViolation):
		return KindPropertyViolation
	}
	return KindOther
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// FinalOrder is the dependency order. Empty on error or for the
	// static policy.
	FinalOrder []string `json:"final_order"`

	// Layers maps ids to layers (dependency policy).
	Layers map[string]int `json:"layers,omitempty"`

	// Dropped lists ids dropped for an unclassifiable initiator.
	Dropped []string `json:"dropped,omitempty"`

	// Priority is the static order (static policy).
	Priority *artifact.PriorityOrder `json:"priority,omitempty"`

	// Err is the run error, if the policy failed.
	Err error `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// verify holds the structural check of FinalOrder.
	verify error
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		FinalOrder: []string{},
		Errors:     []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Order returns the produced order: the dependency order, or the
// flattened priority buckets for the static policy.
func (r *Result) Order() []string {
	if r.Priority != nil {
		return r.Priority.Flatten()
	}
	return r.FinalOrder
}
