// Package graph builds the resource dependency graph and assigns
// topological layers.
//
// Edges point from a resource to the resources it depends on. Indegree is
// counted in the opposite sense from the textbook one: a node's Indegree is
// the number of references to it from other nodes' dependency lists, i.e.
// how many resources need it.
//
// Layers: the root document is layer 0; every other node sits one layer
// below the deepest of its dependencies. For every edge
// dependency -> dependent, layer(dependency) < layer(dependent), except the
// root's reference to itself.
package graph

import (
	"github.com/roach88/pushorder/internal/capture"
)

// Unassigned is the layer of a node that has not been resolved.
const Unassigned = -1

// Node is the working state of one resource.
type Node struct {
	ID           string
	MimeType     string
	Size         int64
	Type         capture.ResourceType
	Dependencies []string

	// Indegree counts references to this node from dependency lists.
	Indegree int

	Layer    int
	Resolved bool

	// Index is the node's position among the builder's records.
	Index int
}

// Graph is the node table of one ordering run.
type Graph struct {
	root  string
	nodes map[string]*Node
	order []*Node // capture order

	// dependents maps an id to the distinct nodes that list it, in capture order.
	dependents map[string][]*Node
	maxLayer   int
}

// Build creates the node table from extracted records.
//
// Every dependency id must name a record; the first violation fails with
// *DanglingDependencyError. The root node is seeded at layer 0 and resolved
// regardless of its own dependency list. Every other node starts
// unassigned.
func Build(root string, records []capture.Record) (*Graph, error) {
	if root == "" {
		return nil, invalidf("no root document")
	}

	g := &Graph{
		root:       root,
		nodes:      make(map[string]*Node, len(records)),
		order:      make([]*Node, 0, len(records)),
		dependents: make(map[string][]*Node, len(records)),
		maxLayer:   Unassigned,
	}

	for i, r := range records {
		if r.ID == "" {
			return nil, invalidf("record %d has an empty id", i)
		}
		if _, exists := g.nodes[r.ID]; exists {
			return nil, invalidf("duplicate resource %q", r.ID)
		}
		deps := make([]string, len(r.Dependencies))
		copy(deps, r.Dependencies)

		n := &Node{
			ID:           r.ID,
			MimeType:     r.MimeType,
			Size:         r.Size,
			Type:         r.Type,
			Dependencies: deps,
			Layer:        Unassigned,
			Index:        i,
		}
		g.nodes[r.ID] = n
		g.order = append(g.order, n)
	}

	rootNode, ok := g.nodes[root]
	if !ok {
		return nil, invalidf("root document %q is not a resource", root)
	}

	for _, n := range g.order {
		listed := make(map[string]struct{}, len(n.Dependencies))
		for _, dep := range n.Dependencies {
			target, ok := g.nodes[dep]
			if !ok {
				return nil, &DanglingDependencyError{Resource: n.ID, Dependency: dep}
			}
			target.Indegree++

			if _, dup := listed[dep]; dup {
				continue
			}
			listed[dep] = struct{}{}
			g.dependents[dep] = append(g.dependents[dep], n)
		}
	}

	rootNode.Layer = 0
	rootNode.Resolved = true
	g.maxLayer = 0

	return g, nil
}

// Root returns the root document id.
func (g *Graph) Root() string { return g.root }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the nodes in capture order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	copy(out, g.order)
	return out
}

// Dependents returns the distinct nodes that list id as a dependency, in
// capture order.
func (g *Graph) Dependents(id string) []*Node {
	deps := g.dependents[id]
	out := make([]*Node, len(deps))
	copy(out, deps)
	return out
}

// MaxLayer returns the deepest assigned layer.
func (g *Graph) MaxLayer() int { return g.maxLayer }

// Layers groups resolved nodes by layer. Members of each layer keep
// capture order.
func (g *Graph) Layers() [][]*Node {
	if g.maxLayer < 0 {
		return nil
	}
	layers := make([][]*Node, g.maxLayer+1)
	for _, n := range g.order {
		if n.Resolved {
			layers[n.Layer] = append(layers[n.Layer], n)
		}
	}
	return layers
}

// LayerOf returns the layer of every resolved node.
func (g *Graph) LayerOf() map[string]int {
	out := make(map[string]int, len(g.order))
	for _, n := range g.order {
		if n.Resolved {
			out[n.ID] = n.Layer
		}
	}
	return out
}
