package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// InputInfo describes one input declaration for serialization.
type InputInfo struct {
	Param   string `json:"param"`
	Dataset string `json:"dataset"`
}

// NodeInfo contains information about a task node for serialization.
type NodeInfo struct {
	Name    string      `json:"name"`
	Inputs  []InputInfo `json:"inputs,omitempty"`
	Outputs []string    `json:"outputs,omitempty"`
}

// EdgeInfo contains information about a derived edge for serialization.
type EdgeInfo struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Dataset string `json:"dataset"`
	Param   string `json:"param"`
}

// GraphStats contains structural statistics about the graph.
type GraphStats struct {
	TaskCount          int `json:"taskCount"`
	EdgeCount          int `json:"edgeCount"`
	DatasetCount       int `json:"datasetCount"`
	ExternalInputCount int `json:"externalInputCount"`
	SourceCount        int `json:"sourceCount"`
	SinkCount          int `json:"sinkCount"`
}

// GraphInfo is the full plain-structure projection of a graph, suitable for
// JSON export and the analyze/visualize commands.
type GraphInfo struct {
	Name           string     `json:"name"`
	Nodes          []NodeInfo `json:"nodes"`
	Edges          []EdgeInfo `json:"edges"`
	ExternalInputs []string   `json:"externalInputs,omitempty"`
	Stats          GraphStats `json:"stats"`
}

// Info builds the plain nested representation of the graph. It is a pure
// projection of already-constructed state; nothing is recomputed or mutated.
func (g *Graph) Info() *GraphInfo {
	nodes := make([]NodeInfo, 0, len(g.nodes))
	datasets := make(map[string]struct{})

	for _, t := range g.nodes {
		node := NodeInfo{Name: t.Name()}
		for _, in := range t.Inputs() {
			node.Inputs = append(node.Inputs, InputInfo{Param: in.Param, Dataset: in.Dataset.Name()})
			datasets[in.Dataset.Name()] = struct{}{}
		}
		for _, out := range t.Outputs() {
			node.Outputs = append(node.Outputs, out.Name())
			datasets[out.Name()] = struct{}{}
		}
		nodes = append(nodes, node)
	}

	edges := make([]EdgeInfo, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, EdgeInfo{
			From:    e.From.Name(),
			To:      e.To.Name(),
			Dataset: e.Dataset.Name(),
			Param:   e.Param,
		})
	}

	return &GraphInfo{
		Name:           g.name,
		Nodes:          nodes,
		Edges:          edges,
		ExternalInputs: g.ExternalInputs(),
		Stats: GraphStats{
			TaskCount:          len(g.nodes),
			EdgeCount:          len(g.edges),
			DatasetCount:       len(datasets),
			ExternalInputCount: len(g.externals),
			SourceCount:        len(g.SourceTasks()),
			SinkCount:          len(g.SinkTasks()),
		},
	}
}

// ToJSON renders the graph structure as indented JSON.
func (g *Graph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g.Info(), "", "  ")
}

// ExportJSON writes the JSON rendering to a file.
func (g *Graph) ExportJSON(filename string) error {
	data, err := g.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// DOT renders the graph in Graphviz DOT format. Edges are labeled with the
// connecting dataset; external inputs are drawn as dashed ellipse nodes
// feeding their consumers.
func (g *Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("digraph %q {\n", g.name))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=filled, fillcolor=lightblue];\n")
	sb.WriteString(fmt.Sprintf("  label=%q;\n", g.name))
	sb.WriteString("  labelloc=\"t\";\n\n")

	for _, t := range g.nodes {
		sb.WriteString(fmt.Sprintf("  %q;\n", t.Name()))
	}

	sb.WriteString("\n")
	for _, e := range g.edges {
		sb.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", e.From.Name(), e.To.Name(), e.Dataset.Name()))
	}

	if len(g.externals) > 0 {
		sb.WriteString("\n  // External inputs\n")
		for _, name := range g.externals {
			sb.WriteString(fmt.Sprintf("  %q [shape=ellipse, style=dashed, fillcolor=white];\n", "dataset:"+name))
		}
		for _, t := range g.nodes {
			for _, in := range t.Inputs() {
				if _, produced := g.producers[in.Dataset.Name()]; !produced {
					sb.WriteString(fmt.Sprintf("  %q -> %q [label=%q, style=dashed];\n",
						"dataset:"+in.Dataset.Name(), t.Name(), in.Param))
				}
			}
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// ExportDOT writes the DOT rendering to a file.
func (g *Graph) ExportDOT(filename string) error {
	return os.WriteFile(filename, []byte(g.DOT()), 0644)
}

// TextSummary renders a human-readable description of the graph: stats, the
// node list with each task's inputs and outputs, and the annotated edge list.
func (g *Graph) TextSummary() string {
	info := g.Info()
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Pipeline: %s\n", info.Name))
	sb.WriteString(fmt.Sprintf("  Tasks: %d  Edges: %d  Datasets: %d\n",
		info.Stats.TaskCount, info.Stats.EdgeCount, info.Stats.DatasetCount))
	sb.WriteString(fmt.Sprintf("  Sources: %d  Sinks: %d  External inputs: %d\n\n",
		info.Stats.SourceCount, info.Stats.SinkCount, info.Stats.ExternalInputCount))

	sb.WriteString("Tasks:\n")
	for _, node := range info.Nodes {
		sb.WriteString(fmt.Sprintf("  %s\n", node.Name))
		for _, in := range node.Inputs {
			sb.WriteString(fmt.Sprintf("    <- %s (param %s)\n", in.Dataset, in.Param))
		}
		for _, out := range node.Outputs {
			sb.WriteString(fmt.Sprintf("    -> %s\n", out))
		}
	}

	if len(info.Edges) > 0 {
		sb.WriteString("\nEdges:\n")
		for _, e := range info.Edges {
			sb.WriteString(fmt.Sprintf("  %s -> %s via %s (param %s)\n", e.From, e.To, e.Dataset, e.Param))
		}
	}

	if len(info.ExternalInputs) > 0 {
		sb.WriteString("\nExternal inputs:\n")
		for _, name := range info.ExternalInputs {
			sb.WriteString(fmt.Sprintf("  %s\n", name))
		}
	}

	return sb.String()
}
