package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDanglingDependency is the kind of every DanglingDependencyError.
	ErrDanglingDependency = errors.New("dangling dependency")

	// ErrGraphCycle is the kind of every GraphCycleError.
	ErrGraphCycle = errors.New("dependency cycle")

	// ErrInvalidGraph reports malformed builder input: no root, an empty or
	// duplicate resource id.
	ErrInvalidGraph = errors.New("invalid dependency graph")
)

// DanglingDependencyError reports a dependency id that is not a node of the
// graph. Ordering cannot proceed on a graph with holes.
type DanglingDependencyError struct {
	Resource   string // node whose dependency list holds the reference
	Dependency string // the missing id
}

func (e *DanglingDependencyError) Error() string {
	return fmt.Sprintf("%s: %q depends on unknown resource %q", ErrDanglingDependency, e.Resource, e.Dependency)
}

func (e *DanglingDependencyError) Unwrap() error { return ErrDanglingDependency }

// GraphCycleError reports that layering stopped making progress with
// resources still unresolved: no topological order exists.
type GraphCycleError struct {
	// Unresolved lists every resource left without a layer, in capture order.
	Unresolved []string

	// Cycle is one witness path through a cycle among the unresolved
	// resources, following dependency edges and ending where it started.
	// Empty when no cycle could be isolated.
	Cycle []string
}

func (e *GraphCycleError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("%s: %s (%d unresolved)", ErrGraphCycle, strings.Join(e.Cycle, " -> "), len(e.Unresolved))
	}
	return fmt.Sprintf("%s: %d unresolved resource(s)", ErrGraphCycle, len(e.Unresolved))
}

func (e *GraphCycleError) Unwrap() error { return ErrGraphCycle }

// IsCycleError returns true if err is or wraps a GraphCycleError.
func IsCycleError(err error) bool {
	var ce *GraphCycleError
	return errors.As(err, &ce)
}

// IsDanglingError returns true if err is or wraps a DanglingDependencyError.
func IsDanglingError(err error) bool {
	var de *DanglingDependencyError
	return errors.As(err, &de)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGraph, fmt.Sprintf(format, args...))
}
