package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkanzari/pipectl/internal/errors"
	"github.com/mkanzari/pipectl/internal/graph"
	"github.com/mkanzari/pipectl/internal/logger"
	"github.com/mkanzari/pipectl/internal/manifest"
)

var manifestFile string

// addManifestFlag registers the shared --file flag on a command.
func addManifestFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&manifestFile, "file", "f", "", "Path to the pipeline manifest (required)")
	cmd.MarkFlagRequired("file")
}

// loadGraph loads the manifest named by --file and builds its dependency
// graph. Errors are already wrapped for CLI display.
func loadGraph(path string, operation string) (*graph.Graph, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, errors.NewManifestError(errors.CodeManifestParse, "Failed to load pipeline manifest", operation).
			WithContext("file", path).
			WithOriginalError(err).
			WithTroubleshooting(
				"Check that the file exists and is valid YAML",
				"Every task needs a name; inputs need param and dataset fields",
			)
	}

	tasks, err := m.Pipeline()
	if err != nil {
		return nil, errors.NewManifestError(errors.CodeManifestInvalid, "Pipeline manifest declarations are invalid", operation).
			WithContext("file", path).
			WithOriginalError(err).
			WithTroubleshooting(
				"Declare every referenced dataset in the datasets section",
				"Task and dataset names must be unique",
			)
	}

	g, err := graph.Build(m.Name, tasks)
	if err != nil {
		return nil, errors.FromGraphError(err, operation)
	}

	logger.Op.WithFields(map[string]interface{}{
		"pipeline": g.Name(),
		"tasks":    g.Size(),
		"edges":    len(g.Edges()),
	}).Debug("Pipeline graph constructed")

	return g, nil
}

// reportError renders a structured error and returns it so cobra exits
// non-zero. Cobra's own error printing is silenced on these commands.
func reportError(err error) error {
	fmt.Println(errors.FormatForCLI(err))
	logger.Op.Error(errors.DisplayErrorSummary(err))
	return err
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

// warnExternalInputs logs datasets no task produces. These are expected
// for pipelines fed from outside, so they are warnings rather than errors.
func warnExternalInputs(g *graph.Graph) {
	for _, name := range g.ExternalInputs() {
		logger.User.Warnf("Dataset %q has no producing task and must be supplied externally", name)
	}
}
