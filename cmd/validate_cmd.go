package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mkanzari/pipectl/internal/errors"
	"github.com/mkanzari/pipectl/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a pipeline manifest and its dependency graph",
	Long: `Loads the pipeline manifest, builds the dependency graph and checks it for
structural problems: duplicate producers for a dataset, tasks that depend on
their own output, and dependency cycles.

Datasets that no task produces are reported as warnings; they are treated as
external inputs the pipeline expects to be supplied at run time.

Example:
pipectl validate -f pipeline.yaml
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runValidate,
}

func init() {
	addManifestFlag(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger.User.Startingf("Validating pipeline manifest %s", manifestFile)

	g, err := loadGraph(manifestFile, "validate")
	if err != nil {
		return reportError(err)
	}

	warnExternalInputs(g)

	if cycleErr := g.Validate(); cycleErr != nil {
		return reportError(errors.FromGraphError(cycleErr, "validate"))
	}

	stats := g.Info().Stats
	logger.User.Infof("Pipeline %q: %d tasks, %d edges, %d datasets", g.Name(), stats.TaskCount, stats.EdgeCount, stats.DatasetCount)
	logger.User.Success("Pipeline is valid")
	return nil
}
