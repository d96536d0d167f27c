package graph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkanzari/pipectl/internal/pipeline"
)

func TestInfo(t *testing.T) {
	extract, transform, load := etlTasks()
	g, err := Build("etl", []*pipeline.Task{extract, transform, load})
	require.NoError(t, err)

	info := g.Info()
	assert.Equal(t, "etl", info.Name)
	require.Len(t, info.Nodes, 3)
	assert.Equal(t, "extract", info.Nodes[0].Name)
	assert.Empty(t, info.Nodes[0].Inputs)
	assert.Equal(t, []string{"raw"}, info.Nodes[0].Outputs)
	assert.Equal(t, []InputInfo{{Param: "source", Dataset: "raw"}}, info.Nodes[1].Inputs)

	require.Len(t, info.Edges, 2)
	assert.Equal(t, EdgeInfo{From: "extract", To: "transform", Dataset: "raw", Param: "source"}, info.Edges[0])

	assert.Equal(t, GraphStats{
		TaskCount:    3,
		EdgeCount:    2,
		DatasetCount: 3,
		SourceCount:  1,
		SinkCount:    1,
	}, info.Stats)
}

func TestToJSON(t *testing.T) {
	extract, transform, load := etlTasks()
	g, err := Build("etl", []*pipeline.Task{extract, transform, load})
	require.NoError(t, err)

	data, err := g.ToJSON()
	require.NoError(t, err)

	var decoded GraphInfo
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "etl", decoded.Name)
	assert.Equal(t, g.Info().Nodes, decoded.Nodes)
	assert.Equal(t, g.Info().Edges, decoded.Edges)
	assert.Equal(t, g.Info().Stats, decoded.Stats)
}

func TestExportJSON(t *testing.T) {
	extract, transform, load := etlTasks()
	g, err := Build("etl", []*pipeline.Task{extract, transform, load})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, g.ExportJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded GraphInfo
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "etl", decoded.Name)
}

func TestDOT(t *testing.T) {
	extract, transform, load := etlTasks()
	g, err := Build("etl", []*pipeline.Task{extract, transform, load})
	require.NoError(t, err)

	dot := g.DOT()
	assert.Contains(t, dot, `digraph "etl" {`)
	assert.Contains(t, dot, `"extract";`)
	assert.Contains(t, dot, `"extract" -> "transform" [label="raw"];`)
	assert.Contains(t, dot, `"transform" -> "load" [label="clean"];`)
	assert.NotContains(t, dot, "External inputs")
}

func TestDOT_ExternalInputs(t *testing.T) {
	task := pipeline.MustTask("ingest",
		[]pipeline.Input{{Param: "files", Dataset: pipeline.NewDataset("landing")}},
		[]*pipeline.Dataset{pipeline.NewDataset("processed")}, nil)

	g, err := Build("ext", []*pipeline.Task{task})
	require.NoError(t, err)

	dot := g.DOT()
	assert.Contains(t, dot, `"dataset:landing" [shape=ellipse, style=dashed, fillcolor=white];`)
	assert.Contains(t, dot, `"dataset:landing" -> "ingest" [label="files", style=dashed];`)
}

func TestExportDOT(t *testing.T) {
	extract, transform, load := etlTasks()
	g, err := Build("etl", []*pipeline.Task{extract, transform, load})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "graph.dot")
	require.NoError(t, g.ExportDOT(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.DOT(), string(data))
}

func TestTextSummary(t *testing.T) {
	extract, transform, load := etlTasks()
	g, err := Build("etl", []*pipeline.Task{extract, transform, load})
	require.NoError(t, err)

	text := g.TextSummary()
	assert.Contains(t, text, "Pipeline: etl")
	assert.Contains(t, text, "Tasks: 3  Edges: 2  Datasets: 3")
	assert.Contains(t, text, "<- raw (param source)")
	assert.Contains(t, text, "extract -> transform via raw (param source)")
}
