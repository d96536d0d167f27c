package graph

import (
	"fmt"
	"strings"
)

// MultipleProducersError reports two tasks claiming the same dataset as an
// output. Construction stops at the first conflict; the producer index is
// never left in a corrupted state.
type MultipleProducersError struct {
	Dataset string
	First   string
	Second  string
}

func (e *MultipleProducersError) Error() string {
	return fmt.Sprintf("dataset %q is produced by multiple tasks: %q and %q", e.Dataset, e.First, e.Second)
}

// SelfDependencyError reports a task whose own output also appears as one of
// its inputs. This is rejected during edge building rather than deferred to
// cycle detection, since a one-node cycle is a declaration mistake.
type SelfDependencyError struct {
	Task    string
	Dataset string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("task %q depends on its own output dataset %q", e.Task, e.Dataset)
}

// CycleError reports a dependency cycle. Path holds the offending task names
// with the repeated task at both ends, e.g. [a b c a].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "pipeline graph contains a cycle"
	}
	return fmt.Sprintf("pipeline graph contains a cycle: %s", strings.Join(e.Path, " -> "))
}

// UnknownTaskError reports a query for a task that is not part of the
// graph's node set. This indicates a caller bug, typically a stale task
// reference from a different graph.
type UnknownTaskError struct {
	Task string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("task %q is not part of this graph", e.Task)
}
