package report

import (
	"sort"
	"time"

	"github.com/mkanzari/pipectl/internal/executor"
	"github.com/mkanzari/pipectl/internal/graph"
)

// RunSummary renders one pipeline run as a per-task status table. Tasks are
// listed in execution order so the table reads top to bottom the way the run
// happened; tasks the graph could not order (it should not happen for a run
// that started) fall back to name order.
func RunSummary(g *graph.Graph, result *executor.Result) string {
	table := NewTable([]string{"TASK", "STATUS", "DURATION", "ERROR"})

	ordered := make([]string, 0, len(result.TaskResults))
	if order, err := g.ExecutionOrder(); err == nil {
		for _, t := range order {
			ordered = append(ordered, t.Name())
		}
	} else {
		for name := range result.TaskResults {
			ordered = append(ordered, name)
		}
		sort.Strings(ordered)
	}

	for _, name := range ordered {
		taskResult, ok := result.TaskResults[name]
		if !ok {
			continue
		}

		duration := "-"
		if taskResult.Duration > 0 {
			duration = taskResult.Duration.Round(time.Millisecond).String()
		}

		errMsg := ""
		if taskResult.Error != nil {
			errMsg = truncate(taskResult.Error.Error(), 60)
		}

		table.AddRow([]string{name, taskResult.Status.String(), duration, errMsg})
	}

	return table.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
