package graph

// findCycle returns one witness cycle among the unresolved nodes, or nil.
//
// The algorithm:
//  1. Restrict the graph to unresolved nodes and their dependency edges
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Take the first component with more than one node or a self-loop
//  4. Walk the shortest path from its earliest-captured member back to itself
//
// Every step iterates in capture order, so the witness is deterministic.
func (g *Graph) findCycle() []string {
	sub := make(map[string][]string)
	var nodes []string
	for _, n := range g.order {
		if n.Resolved {
			continue
		}
		nodes = append(nodes, n.ID)
		edges := []string{}
		for _, dep := range n.Dependencies {
			if target := g.nodes[dep]; !target.Resolved {
				edges = append(edges, dep)
			}
		}
		sub[n.ID] = edges
	}

	for _, scc := range tarjanSCC(nodes, sub) {
		if len(scc) > 1 || hasSelfLoop(scc[0], sub) {
			return g.cyclePath(scc, sub)
		}
	}
	return nil
}

func hasSelfLoop(node string, edges map[string][]string) bool {
	for _, neighbor := range edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of node ids.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(nodes []string, edges map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of an SCC: pop it
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cyclePath returns the shortest closed walk through the SCC that starts
// and ends at its earliest-captured member: [a, b, ..., a].
func (g *Graph) cyclePath(scc []string, edges map[string][]string) []string {
	member := make(map[string]bool, len(scc))
	start := scc[0]
	for _, id := range scc {
		member[id] = true
		if g.nodes[id].Index < g.nodes[start].Index {
			start = id
		}
	}

	parent := make(map[string]string)
	visited := map[string]bool{}
	queue := []string{start}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		for _, next := range edges[cur] {
			if !member[next] {
				continue
			}
			if next == start {
				path := []string{start}
				for at := cur; at != start; at = parent[at] {
					path = append(path, at)
				}
				path = append(path, start)
				// path was collected backwards after the leading start
				for i, j := 1, len(path)-2; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return nil
}
