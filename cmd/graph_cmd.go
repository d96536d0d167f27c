package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkanzari/pipectl/internal/logger"
)

var (
	graphFormat string
	graphOutput string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Render a pipeline dependency graph",
	Long: `Renders the dependency graph of a pipeline manifest in one of three
formats: a Graphviz DOT document, a JSON description of nodes and edges, or a
human-readable text summary.

With --output the rendering is written to a file, otherwise it is printed to
stdout.

Example:
pipectl graph -f pipeline.yaml --format dot -o pipeline.dot
pipectl graph -f pipeline.yaml --format json
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE:       validateGraphFlags,
	RunE:          runGraph,
}

func init() {
	addManifestFlag(graphCmd)
	graphCmd.Flags().StringVar(&graphFormat, "format", "text", "Output format: dot, json or text")
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "", "Write the rendering to a file instead of stdout")
}

func validateGraphFlags(cmd *cobra.Command, args []string) error {
	switch graphFormat {
	case "dot", "json", "text":
		return nil
	default:
		return fmt.Errorf("invalid format: %s. Expected dot, json or text", graphFormat)
	}
}

func runGraph(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(manifestFile, "graph")
	if err != nil {
		return reportError(err)
	}

	if graphOutput != "" {
		switch graphFormat {
		case "dot":
			err = g.ExportDOT(graphOutput)
		case "json":
			err = g.ExportJSON(graphOutput)
		case "text":
			err = writeFile(graphOutput, g.TextSummary())
		}
		if err != nil {
			return reportError(err)
		}
		logger.User.Successf("Graph written to %s", graphOutput)
		return nil
	}

	switch graphFormat {
	case "dot":
		fmt.Print(g.DOT())
	case "json":
		data, err := g.ToJSON()
		if err != nil {
			return reportError(err)
		}
		fmt.Println(string(data))
	case "text":
		fmt.Print(g.TextSummary())
	}
	return nil
}
