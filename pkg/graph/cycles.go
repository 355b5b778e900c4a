package graph

import "sort"

// detectCycles finds circular imports using DFS. Roots are visited in
// sorted order and each root contributes at most the first cycle found
// beneath it, so the result is deterministic but not exhaustive.
func detectCycles(g *ImportGraph) [][]string {
	cycles := make([][]string, 0)
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	adjList := make(map[string][]string, len(g.adj))
	for from, tos := range g.adj {
		sorted := append([]string(nil), tos...)
		sort.Strings(sorted)
		adjList[from] = sorted
	}

	var dfs func(node string, path []string) bool
	dfs = func(node string, path []string) bool {
		visited[node] = true
		recStack[node] = true
		defer func() { recStack[node] = false }()
		path = append(path, node)

		for _, neighbor := range adjList[node] {
			if !visited[neighbor] {
				if dfs(neighbor, path) {
					return true
				}
			} else if recStack[neighbor] {
				// Cycle runs from the neighbor's position on the path back to it
				for i, p := range path {
					if p == neighbor {
						cycle := make([]string, 0, len(path)-i+1)
						cycle = append(cycle, path[i:]...)
						cycle = append(cycle, neighbor)
						cycles = append(cycles, cycle)
						break
					}
				}
				return true
			}
		}
		return false
	}

	for _, node := range g.Nodes {
		if !visited[node.ID] {
			dfs(node.ID, []string{})
		}
	}

	return cycles
}

// markCycleEdges marks edges that are part of a reported cycle. The cycle
// repeats its first module at the end.
func markCycleEdges(edges []*ImportEdge, cycle []string) {
	for i := 0; i+1 < len(cycle); i++ {
		from, to := cycle[i], cycle[i+1]
		for _, edge := range edges {
			if edge.From == from && edge.To == to {
				edge.IsCycle = true
			}
		}
	}
}

// inferLayers assigns layer depths using topological sorting. Modules
// that import nothing sit at layer 0; cycle edges are ignored.
func inferLayers(g *ImportGraph) {
	dependents := make(map[string][]string)
	inDegree := make(map[string]int, len(g.Nodes))

	for _, node := range g.Nodes {
		node.Layer = 0
		inDegree[node.ID] = 0
	}
	g.Layers = make(map[string]int, len(g.Nodes))

	for _, edge := range g.Edges {
		if !edge.IsCycle {
			dependents[edge.To] = append(dependents[edge.To], edge.From)
			inDegree[edge.From]++
		}
	}

	queue := make([]string, 0)
	for _, node := range g.Nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
			g.Layers[node.ID] = 0
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		currentLayer := g.nodeMap[current].Layer

		for _, dependent := range dependents[current] {
			inDegree[dependent]--

			if node := g.nodeMap[dependent]; node.Layer < currentLayer+1 {
				node.Layer = currentLayer + 1
				g.Layers[dependent] = currentLayer + 1
			}

			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
}
