package graph

import (
	"github.com/mkanzari/pipectl/internal/pipeline"
)

// ExecutionOrder returns a topological ordering of the graph's tasks using
// Kahn's algorithm. When several tasks are ready at once the tie is broken by
// registration order (the ready queue is FIFO and seeded in node order), so
// the result is identical across runs.
//
// If the graph contains a cycle no partial order is returned; the error
// carries the cycle path.
func (g *Graph) ExecutionOrder() ([]*pipeline.Task, error) {
	indeg := make([]int, len(g.nodes))
	for idx := range g.nodes {
		indeg[idx] = len(g.incoming[idx])
	}

	queue := make([]int, 0, len(g.nodes))
	for idx := range g.nodes {
		if indeg[idx] == 0 {
			queue = append(queue, idx)
		}
	}

	order := make([]*pipeline.Task, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, g.nodes[current])

		for _, edgeIdx := range g.outgoing[current] {
			toIdx := g.indexByName[g.edges[edgeIdx].To.Name()]
			indeg[toIdx]--
			if indeg[toIdx] == 0 {
				queue = append(queue, toIdx)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, &CycleError{Path: g.FindCycle()}
	}
	return order, nil
}

// ExecutionLevels partitions the topological order into groups of tasks that
// are safe to run concurrently. Level 0 holds every task with no
// dependencies; a task's level is one past the deepest of its direct
// dependencies, so all dependencies of a level-k task sit strictly in levels
// below k. Concatenating the levels reproduces a valid topological order.
func (g *Graph) ExecutionLevels() ([][]*pipeline.Task, error) {
	order, err := g.ExecutionOrder()
	if err != nil {
		return nil, err
	}

	level := make([]int, len(g.nodes))
	var levels [][]*pipeline.Task
	for _, t := range order {
		idx := g.indexByName[t.Name()]

		l := 0
		for _, edgeIdx := range g.incoming[idx] {
			fromIdx := g.indexByName[g.edges[edgeIdx].From.Name()]
			if level[fromIdx]+1 > l {
				l = level[fromIdx] + 1
			}
		}
		level[idx] = l

		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], t)
	}
	return levels, nil
}

// HasCycle reports whether the derived edge set contains a cycle.
func (g *Graph) HasCycle() bool {
	return g.FindCycle() != nil
}

// FindCycle returns one cycle as a task-name path with the repeated task at
// both ends (for example [a b c a]), or nil if the graph is acyclic. The
// traversal is a three-state depth-first search over every component,
// visiting nodes and successors in registration/edge order so the witness is
// stable across runs.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)

	state := make([]int, len(g.nodes))
	parent := make([]int, len(g.nodes))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int

	var visit func(u int) bool
	visit = func(u int) bool {
		state[u] = onStack
		for _, edgeIdx := range g.outgoing[u] {
			v := g.indexByName[g.edges[edgeIdx].To.Name()]
			switch state[v] {
			case unvisited:
				parent[v] = u
				if visit(v) {
					return true
				}
			case onStack:
				// Back edge u -> v closes a cycle; walk parents back to v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		state[u] = done
		return false
	}

	for idx := range g.nodes {
		if state[idx] == unvisited && visit(idx) {
			break
		}
	}

	if cycle == nil {
		return nil
	}

	// The parent walk collected the path in reverse; emit it forward.
	path := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		path = append(path, g.nodes[cycle[i]].Name())
	}
	return path
}
