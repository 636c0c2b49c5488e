package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pushorder/internal/graph"
)

// Property names reported by Verify.
const (
	PropUniqueness   = "uniqueness"
	PropCompleteness = "completeness"
	PropPrecedence   = "precedence"
	PropRootFirst    = "root-first"
	PropLayering     = "monotonic-layering"
)

// ErrPropertyViolation is the kind of every PropertyError.
var ErrPropertyViolation = errors.New("order property violated")

// Violation is one broken property of an order.
type Violation struct {
	Property string `json:"property"`
	Detail   string `json:"detail"`
}

// PropertyError lists every violation Verify found.
type PropertyError struct {
	Violations []Violation
}

func (e *PropertyError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Property + ": " + v.Detail
	}
	return fmt.Sprintf("%s: %s", ErrPropertyViolation, strings.Join(parts, "; "))
}

func (e *PropertyError) Unwrap() error { return ErrPropertyViolation }

// Verify checks a final order against the layered graph it came from:
// every node appears exactly once, every dependency precedes its
// dependent, the root comes first when anything references it, and layers
// grow along every edge.
func Verify(g *graph.Graph, final []string) error {
	var vs []Violation
	add := func(prop, format string, args ...any) {
		vs = append(vs, Violation{Property: prop, Detail: fmt.Sprintf(format, args...)})
	}

	pos := make(map[string]int, len(final))
	for i, id := range final {
		if _, dup := pos[id]; dup {
			add(PropUniqueness, "%q appears more than once", id)
			continue
		}
		pos[id] = i
		if _, ok := g.Node(id); !ok {
			add(PropCompleteness, "%q is not a resource", id)
		}
	}

	root := g.Root()
	for _, n := range g.Nodes() {
		p, ok := pos[n.ID]
		if !ok {
			add(PropCompleteness, "%q is missing", n.ID)
			continue
		}
		if n.ID == root {
			continue
		}
		for _, dep := range n.Dependencies {
			d, ok := g.Node(dep)
			if !ok {
				continue
			}
			if dp, ok := pos[dep]; ok && dp > p {
				add(PropPrecedence, "%q comes before its dependency %q", n.ID, dep)
			}
			if d.Layer >= n.Layer {
				add(PropLayering, "%q (layer %d) depends on %q (layer %d)", n.ID, n.Layer, dep, d.Layer)
			}
		}
	}

	if rn, ok := g.Node(root); ok && rn.Indegree > 0 && len(final) > 0 && final[0] != root {
		add(PropRootFirst, "%q is first instead of %q", final[0], root)
	}

	if len(vs) > 0 {
		return &PropertyError{Violations: vs}
	}
	return nil
}
