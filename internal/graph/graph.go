package graph

import (
	"fmt"

	"github.com/mkanzari/pipectl/internal/pipeline"
)

// Edge is a derived directed link from a producing task to a consuming task.
// It records which dataset connects the pair and which consumer parameter the
// dataset satisfies. Edges are never user-declared; they exist only as the
// result of matching input declarations against the producer index.
type Edge struct {
	From    *pipeline.Task
	To      *pipeline.Task
	Dataset *pipeline.Dataset
	Param   string
}

// Graph is the immutable dependency graph inferred from a task list. It is
// built once by Build and safe for concurrent read access afterwards; a
// changed task list requires building a new graph.
type Graph struct {
	name string

	nodes       []*pipeline.Task // registration order, deduplicated
	indexByName map[string]int

	producers     map[string]*pipeline.Task // dataset name -> producing task
	producedOrder []string                  // dataset names in claim order

	edges    []Edge
	outgoing [][]int // node index -> edge indices, in edge order
	incoming [][]int

	externals []string // consumed datasets with no producer, discovery order
}

// Build constructs the dependency graph for an ordered task list.
//
// Construction is a pure function of the list and its order: the producer
// index is filled in a first pass (a second claim on a dataset fails with
// MultipleProducersError), then edges are derived in a second pass by looking
// up a producer for every input declaration. An input without a producer is
// an external input, not an error. A task consuming its own output fails with
// SelfDependencyError.
func Build(name string, tasks []*pipeline.Task) (*Graph, error) {
	g := &Graph{
		name:        name,
		indexByName: make(map[string]int, len(tasks)),
		producers:   make(map[string]*pipeline.Task),
	}

	for _, t := range tasks {
		if t == nil {
			return nil, fmt.Errorf("task list contains a nil task")
		}
		if idx, exists := g.indexByName[t.Name()]; exists {
			if g.nodes[idx] == t {
				// Same task registered twice: keep the first occurrence.
				continue
			}
			return nil, fmt.Errorf("duplicate task name %q", t.Name())
		}
		g.indexByName[t.Name()] = len(g.nodes)
		g.nodes = append(g.nodes, t)
	}

	// First pass: claim every declared output in the producer index.
	for _, t := range g.nodes {
		for _, out := range t.Outputs() {
			if prev, claimed := g.producers[out.Name()]; claimed {
				return nil, &MultipleProducersError{
					Dataset: out.Name(),
					First:   prev.Name(),
					Second:  t.Name(),
				}
			}
			g.producers[out.Name()] = t
			g.producedOrder = append(g.producedOrder, out.Name())
		}
	}

	// Second pass: derive edges from input declarations.
	g.outgoing = make([][]int, len(g.nodes))
	g.incoming = make([][]int, len(g.nodes))
	seenExternal := make(map[string]struct{})

	for toIdx, t := range g.nodes {
		for _, in := range t.Inputs() {
			producer, found := g.producers[in.Dataset.Name()]
			if !found {
				if _, seen := seenExternal[in.Dataset.Name()]; !seen {
					seenExternal[in.Dataset.Name()] = struct{}{}
					g.externals = append(g.externals, in.Dataset.Name())
				}
				continue
			}
			if producer == t {
				return nil, &SelfDependencyError{Task: t.Name(), Dataset: in.Dataset.Name()}
			}

			fromIdx := g.indexByName[producer.Name()]
			edgeIdx := len(g.edges)
			g.edges = append(g.edges, Edge{
				From:    producer,
				To:      t,
				Dataset: in.Dataset,
				Param:   in.Param,
			})
			g.outgoing[fromIdx] = append(g.outgoing[fromIdx], edgeIdx)
			g.incoming[toIdx] = append(g.incoming[toIdx], edgeIdx)
		}
	}

	return g, nil
}

// Name returns the graph's cosmetic name.
func (g *Graph) Name() string {
	return g.name
}

// Size returns the number of tasks in the graph.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Nodes returns the tasks in registration order.
func (g *Graph) Nodes() []*pipeline.Task {
	out := make([]*pipeline.Task, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the derived edges in construction order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Producer returns the task producing the named dataset, if any.
func (g *Graph) Producer(dataset string) (*pipeline.Task, bool) {
	t, ok := g.producers[dataset]
	return t, ok
}

// ProducedDatasets returns the names of all produced datasets in the order
// they were claimed during construction.
func (g *Graph) ProducedDatasets() []string {
	out := make([]string, len(g.producedOrder))
	copy(out, g.producedOrder)
	return out
}

// ExternalInputs returns the names of datasets consumed by some task but
// produced by none, in discovery order. External inputs are valid graph
// members' inputs; they simply contribute no edge.
func (g *Graph) ExternalInputs() []string {
	out := make([]string, len(g.externals))
	copy(out, g.externals)
	return out
}

// lookup resolves a task to its node index, rejecting stale references from
// other graphs: the task must be the exact registered instance, not merely
// share a name with one.
func (g *Graph) lookup(t *pipeline.Task) (int, error) {
	if t == nil {
		return 0, &UnknownTaskError{Task: "<nil>"}
	}
	idx, ok := g.indexByName[t.Name()]
	if !ok || g.nodes[idx] != t {
		return 0, &UnknownTaskError{Task: t.Name()}
	}
	return idx, nil
}

// Dependencies returns the direct predecessors of a task: every task whose
// output satisfies one of its inputs. No transitive closure.
func (g *Graph) Dependencies(t *pipeline.Task) ([]*pipeline.Task, error) {
	idx, err := g.lookup(t)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var deps []*pipeline.Task
	for _, edgeIdx := range g.incoming[idx] {
		from := g.edges[edgeIdx].From
		if _, dup := seen[from.Name()]; dup {
			continue
		}
		seen[from.Name()] = struct{}{}
		deps = append(deps, from)
	}
	return deps, nil
}

// Consumers returns the direct successors of a task: every task consuming
// one of its outputs.
func (g *Graph) Consumers(t *pipeline.Task) ([]*pipeline.Task, error) {
	idx, err := g.lookup(t)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var consumers []*pipeline.Task
	for _, edgeIdx := range g.outgoing[idx] {
		to := g.edges[edgeIdx].To
		if _, dup := seen[to.Name()]; dup {
			continue
		}
		seen[to.Name()] = struct{}{}
		consumers = append(consumers, to)
	}
	return consumers, nil
}

// SourceTasks returns the tasks with no incoming edges, in registration
// order. Orphan tasks with no edges at all are sources too.
func (g *Graph) SourceTasks() []*pipeline.Task {
	var sources []*pipeline.Task
	for idx, t := range g.nodes {
		if len(g.incoming[idx]) == 0 {
			sources = append(sources, t)
		}
	}
	return sources
}

// SinkTasks returns the tasks with no outgoing edges, in registration order.
func (g *Graph) SinkTasks() []*pipeline.Task {
	var sinks []*pipeline.Task
	for idx, t := range g.nodes {
		if len(g.outgoing[idx]) == 0 {
			sinks = append(sinks, t)
		}
	}
	return sinks
}

// Validate checks the structural invariants that must hold before execution.
// Multi-producer conflicts and self-dependencies are already rejected by
// Build, so the remaining check is acyclicity. Errors always propagate;
// nothing is auto-corrected.
func (g *Graph) Validate() error {
	if path := g.FindCycle(); path != nil {
		return &CycleError{Path: path}
	}
	return nil
}
