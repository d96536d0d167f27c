package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkanzari/pipectl/internal/errors"
	"github.com/mkanzari/pipectl/internal/executor"
	"github.com/mkanzari/pipectl/internal/logger"
	"github.com/mkanzari/pipectl/internal/report"
)

var (
	runParallel int
	runTimeout  time.Duration
	runDryRun   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a pipeline on the local machine",
	Long: `Executes the tasks of a pipeline manifest in dependency order. Tasks within
the same execution level run concurrently, bounded by --parallel. Tasks whose
dependencies failed are skipped.

With --dry-run the executor walks the graph and logs what it would run
without executing any task commands.

Example:
pipectl run -f pipeline.yaml --parallel 8 --timeout 5m
pipectl run -f pipeline.yaml --dry-run
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE:       validateRunFlags,
	RunE:          runRun,
}

func init() {
	addManifestFlag(runCmd)
	runCmd.Flags().IntVar(&runParallel, "parallel", 4, "Maximum number of tasks to run concurrently (1-64)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "Per-task execution timeout")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Walk the graph without executing task commands")
}

func validateRunFlags(cmd *cobra.Command, args []string) error {
	if runParallel < 1 || runParallel > 64 {
		return fmt.Errorf("--parallel must be between 1 and 64, got %d", runParallel)
	}
	if runTimeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %s", runTimeout)
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(manifestFile, "run")
	if err != nil {
		return reportError(err)
	}

	warnExternalInputs(g)

	exec := executor.New(g, &executor.Config{
		MaxParallelTasks: runParallel,
		TaskTimeout:      runTimeout,
		DryRun:           runDryRun,
	})

	result, err := exec.Execute(cmd.Context())
	if err != nil {
		return reportError(errors.FromGraphError(err, "run"))
	}

	fmt.Println(report.RunSummary(g, result))

	if !result.Success {
		code := errors.CodeExecutionFailed
		message := "Pipeline run finished with failed tasks"
		if stderrors.Is(result.Error, context.DeadlineExceeded) {
			code = errors.CodeExecutionTimeout
			message = "Pipeline run finished with timed-out tasks"
		}
		return reportError(errors.NewExecutionError(code, message, "run").
			WithContext("run_id", result.RunID).
			WithContext("pipeline", result.Pipeline).
			WithOriginalError(result.Error).
			WithTroubleshooting(
				"Re-run with --verbose to see task command output",
				"Fix the failing task and re-run; skipped tasks will run once their dependencies succeed",
			))
	}

	logger.User.Successf("Pipeline %q completed in %s (run %s)", result.Pipeline, result.ExecutionTime.Round(time.Millisecond), result.RunID)
	return nil
}
