package graph

// AssignLayers resolves every node to a layer using Kahn's algorithm.
//
// Each unresolved node tracks how many of its distinct dependencies are
// still unresolved. The queue starts with the root and any node without
// dependencies; resolving a node decrements its dependents' counters, and a
// dependent whose counter reaches zero is placed one layer below its
// deepest dependency and queued. Layers only ever grow.
//
// When the queue drains with nodes still unresolved the graph contains a
// cycle (or nodes that depend on one) and AssignLayers fails with
// *GraphCycleError. Nodes resolved before the failure keep their layers.
func (g *Graph) AssignLayers() error {
	pending := make(map[string]int, len(g.order))
	queue := make([]*Node, 0, len(g.order))

	for _, n := range g.order {
		if n.Resolved {
			queue = append(queue, n)
			continue
		}
		count := distinctCount(n.Dependencies)
		if count == 0 {
			g.resolve(n)
			queue = append(queue, n)
			continue
		}
		pending[n.ID] = count
	}

	for head := 0; head < len(queue); head++ {
		for _, d := range g.dependents[queue[head].ID] {
			if d.Resolved {
				continue
			}
			pending[d.ID]--
			if pending[d.ID] == 0 {
				g.resolve(d)
				queue = append(queue, d)
			}
		}
	}

	var unresolved []string
	for _, n := range g.order {
		if !n.Resolved {
			unresolved = append(unresolved, n.ID)
		}
	}
	if len(unresolved) > 0 {
		return &GraphCycleError{
			Unresolved: unresolved,
			Cycle:      g.findCycle(),
		}
	}
	return nil
}

// resolve places n one layer below its deepest dependency, or at layer 0
// when it has none. All of n's dependencies must be resolved.
func (g *Graph) resolve(n *Node) {
	layer := 0
	for _, dep := range n.Dependencies {
		if l := g.nodes[dep].Layer + 1; l > layer {
			layer = l
		}
	}
	n.Layer = layer
	n.Resolved = true
	if layer > g.maxLayer {
		g.maxLayer = layer
	}
}

func distinctCount(ids []string) int {
	if len(ids) < 2 {
		return len(ids)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
