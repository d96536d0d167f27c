package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkanzari/pipectl/internal/errors"
	"github.com/mkanzari/pipectl/internal/graph"
	"github.com/mkanzari/pipectl/internal/logger"
	"github.com/mkanzari/pipectl/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the structure of a pipeline dependency graph",
	Long: `Builds the dependency graph for a pipeline manifest and reports its
execution order, parallel execution levels, source and sink tasks, and any
datasets that must be supplied externally.

Example:
pipectl analyze -f pipeline.yaml
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

func init() {
	addManifestFlag(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(manifestFile, "analyze")
	if err != nil {
		return reportError(err)
	}

	order, err := g.ExecutionOrder()
	if err != nil {
		return reportError(errors.FromGraphError(err, "analyze"))
	}
	levels, err := g.ExecutionLevels()
	if err != nil {
		return reportError(errors.FromGraphError(err, "analyze"))
	}

	stats := g.Info().Stats
	logger.User.Infof("Pipeline %q: %d tasks, %d edges, %d datasets", g.Name(), stats.TaskCount, stats.EdgeCount, stats.DatasetCount)
	logger.User.Info("")
	logger.User.Infof("Execution order: %s", strings.Join(taskNames(order), " -> "))
	logger.User.Info("")
	logger.User.Info("Execution levels:")
	for i, level := range levels {
		logger.User.Infof("  level %d: %s", i+1, strings.Join(taskNames(level), ", "))
	}
	logger.User.Info("")
	logger.User.Infof("Source tasks: %s", strings.Join(taskNames(g.SourceTasks()), ", "))
	logger.User.Infof("Sink tasks:   %s", strings.Join(taskNames(g.SinkTasks()), ", "))

	if ext := g.ExternalInputs(); len(ext) > 0 {
		logger.User.Info("")
		logger.User.Infof("External inputs: %s", strings.Join(ext, ", "))
	}

	reportFanOut(g)
	return nil
}

func taskNames(tasks []*pipeline.Task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name()
	}
	return names
}

// reportFanOut logs consumer counts for produced datasets on the op log,
// useful when deciding where to add caching or materialization.
func reportFanOut(g *graph.Graph) {
	counts := make(map[string]int)
	for _, e := range g.Edges() {
		counts[e.Dataset.Name()]++
	}
	for _, name := range g.ProducedDatasets() {
		if n := counts[name]; n > 1 {
			logger.Op.WithFields(map[string]interface{}{
				"dataset":   name,
				"consumers": n,
			}).Debug(fmt.Sprintf("Dataset %q is consumed by %d tasks", name, n))
		}
	}
}
