// Package order turns a layered dependency graph into a transmission
// order.
//
// Within each layer, resources nothing else depends on (leaves) are sorted
// by type and size. Resources with dependents are ordered bottom-up: the
// deepest layer's dependency references decide the order of the layer
// above it, and so on up to layer 1. Each layer's result is an immutable
// LayerPlan handed to the next shallower layer.
package order

import (
	"cmp"
	"slices"
	"sync"

	"github.com/roach88/pushorder/internal/capture"
	"github.com/roach88/pushorder/internal/graph"
)

// LayerPlan is the ordering of one layer.
type LayerPlan struct {
	Layer int `json:"layer"`

	// HasSuccessor holds the ids of nodes other resources depend on, in
	// transmission order. Layer 0 always starts with the root.
	HasSuccessor []string `json:"has_successor"`

	// Leaves holds the ids of nodes nothing depends on, sorted by type
	// and size.
	Leaves []string `json:"leaves"`

	// Order is the layer's merged transmission order: the ids its nodes
	// reference, used to order the has-successor nodes one layer up.
	Order []string `json:"order"`
}

// leafBucket ranks a leaf's type: document, stylesheet, font, then
// everything else.
func leafBucket(t capture.ResourceType) int {
	switch t {
	case capture.TypeDocument:
		return 0
	case capture.TypeStylesheet:
		return 1
	case capture.TypeFont:
		return 2
	default:
		return 3
	}
}

// SortLeaves returns nodes sorted by type bucket, then ascending size.
// Equal keys keep their input order. The input is not modified.
func SortLeaves(nodes []*graph.Node) []*graph.Node {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b *graph.Node) int {
		if c := cmp.Compare(leafBucket(a.Type), leafBucket(b.Type)); c != 0 {
			return c
		}
		return cmp.Compare(a.Size, b.Size)
	})
	return out
}

// TransmissionOrder collects the dependency ids referenced by nodes, in
// scan order, each once. The root is left out of the scan and, when any
// node references it, put first.
func TransmissionOrder(nodes []*graph.Node, root string) []string {
	var (
		out       []string
		seen      = make(map[string]bool)
		refToRoot bool
	)
	for _, n := range nodes {
		for _, dep := range n.Dependencies {
			if dep == root {
				refToRoot = true
				continue
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
		}
	}
	if refToRoot {
		out = append([]string{root}, out...)
	}
	return out
}

// MergeOrders concatenates the has-successor and leaf transmission orders,
// dropping the root and repeated ids.
func MergeOrders(hasSuccessor, leaves []string, root string) []string {
	out := make([]string, 0, len(hasSuccessor)+len(leaves))
	seen := make(map[string]bool, cap(out))
	for _, list := range [][]string{hasSuccessor, leaves} {
		for _, id := range list {
			if id == root || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Reorder arranges nodes to follow the order their ids appear in ref.
// Ids are matched exactly. Nodes ref does not mention follow in their
// original relative order.
func Reorder(nodes []*graph.Node, ref []string) []*graph.Node {
	rank := make(map[string]int, len(ref))
	for i, id := range ref {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}

	out := make([]*graph.Node, 0, len(nodes))
	var rest []*graph.Node
	for _, n := range nodes {
		if _, ok := rank[n.ID]; ok {
			out = append(out, n)
		} else {
			rest = append(rest, n)
		}
	}
	slices.SortStableFunc(out, func(a, b *graph.Node) int {
		return cmp.Compare(rank[a.ID], rank[b.ID])
	})
	return append(out, rest...)
}

type layerGroups struct {
	hasSuccessor []*graph.Node
	leaves       []*graph.Node
}

// OrderLayers orders every layer of a layered graph. The graph must have
// been through AssignLayers without error.
//
// Leaf sorting runs concurrently across layers. The has-successor
// propagation runs from the deepest layer up to layer 1, one layer at a
// time. Layer 0 keeps the root first and the rest in capture order.
func OrderLayers(g *graph.Graph) []LayerPlan {
	layers := g.Layers()
	if len(layers) == 0 {
		return nil
	}
	root := g.Root()

	groups := make([]layerGroups, len(layers))
	for i, nodes := range layers {
		var rootNode *graph.Node
		for _, n := range nodes {
			switch {
			case n.ID == root:
				rootNode = n
			case n.Indegree > 0:
				groups[i].hasSuccessor = append(groups[i].hasSuccessor, n)
			default:
				groups[i].leaves = append(groups[i].leaves, n)
			}
		}
		if rootNode != nil {
			groups[i].hasSuccessor = append([]*graph.Node{rootNode}, groups[i].hasSuccessor...)
		}
	}

	var wg sync.WaitGroup
	for i := range groups {
		if len(groups[i].leaves) < 2 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			groups[i].leaves = SortLeaves(groups[i].leaves)
		}()
	}
	wg.Wait()

	plans := make([]LayerPlan, len(groups))
	var deeper *LayerPlan
	for i := len(groups) - 1; i >= 0; i-- {
		hs := groups[i].hasSuccessor
		if deeper != nil && i > 0 {
			hs = Reorder(hs, deeper.Order)
		}
		plans[i] = newPlan(i, hs, groups[i].leaves, root)
		deeper = &plans[i]
	}
	return plans
}

func newPlan(layer int, hasSuccessor, leaves []*graph.Node, root string) LayerPlan {
	return LayerPlan{
		Layer:        layer,
		HasSuccessor: ids(hasSuccessor),
		Leaves:       ids(leaves),
		Order: MergeOrders(
			TransmissionOrder(hasSuccessor, root),
			TransmissionOrder(leaves, root),
			root,
		),
	}
}

func ids(nodes []*graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
