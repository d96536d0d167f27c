package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/mkanzari/pipectl/internal/graph"
	"github.com/mkanzari/pipectl/internal/pipeline"
)

// NewMultipleProducersUserError wraps a multi-producer conflict for display.
func NewMultipleProducersUserError(err *graph.MultipleProducersError, operation string) *PipelineError {
	return NewGraphError(CodeGraphMultipleProducers,
		fmt.Sprintf("Dataset '%s' is produced by both task '%s' and task '%s'", err.Dataset, err.First, err.Second),
		operation).
		WithContext("dataset", err.Dataset).
		WithContext("first_producer", err.First).
		WithContext("second_producer", err.Second).
		WithOriginalError(err).
		WithTroubleshooting(
			"Every dataset may have exactly one producing task",
			"Rename one of the output datasets, or merge the two tasks",
			"Run 'pipectl analyze' on the corrected manifest to inspect the graph",
		)
}

// NewCycleUserError wraps a dependency cycle for display.
func NewCycleUserError(err *graph.CycleError, operation string) *PipelineError {
	return NewGraphError(CodeGraphCycle,
		fmt.Sprintf("Tasks form a dependency cycle: %s", strings.Join(err.Path, " -> ")),
		operation).
		WithContext("cycle", strings.Join(err.Path, " -> ")).
		WithOriginalError(err).
		WithTroubleshooting(
			"A task cannot transitively depend on its own output",
			"Break the cycle by removing one of the listed input declarations",
			"Use 'pipectl graph --format dot' to visualize the dependencies",
		)
}

// NewSelfDependencyUserError wraps a self-dependency for display.
func NewSelfDependencyUserError(err *graph.SelfDependencyError, operation string) *PipelineError {
	return NewGraphError(CodeGraphSelfDependency,
		fmt.Sprintf("Task '%s' consumes its own output dataset '%s'", err.Task, err.Dataset),
		operation).
		WithContext("task", err.Task).
		WithContext("dataset", err.Dataset).
		WithOriginalError(err).
		WithTroubleshooting(
			"A task's inputs must not include any of its own outputs",
			"Split the task in two, or read the upstream dataset instead",
		)
}

// NewTaskDefinitionUserError wraps a task declaration error for display.
func NewTaskDefinitionUserError(err *pipeline.TaskDefinitionError, operation string) *PipelineError {
	return NewGraphError(CodeGraphDefinition,
		fmt.Sprintf("Task '%s' is declared incorrectly: %s", err.Task, err.Reason),
		operation).
		WithContext("task", err.Task).
		WithOriginalError(err).
		WithTroubleshooting(
			"Check the task's inputs and outputs in the manifest",
			"Each input needs a parameter name and an existing dataset",
		)
}

// FromGraphError maps any engine error to a structured CLI error. Errors the
// mapping does not recognize are wrapped generically so the category and
// exit behavior stay consistent.
func FromGraphError(err error, operation string) *PipelineError {
	var multi *graph.MultipleProducersError
	if stderrors.As(err, &multi) {
		return NewMultipleProducersUserError(multi, operation)
	}
	var cycle *graph.CycleError
	if stderrors.As(err, &cycle) {
		return NewCycleUserError(cycle, operation)
	}
	var self *graph.SelfDependencyError
	if stderrors.As(err, &self) {
		return NewSelfDependencyUserError(self, operation)
	}
	var unknown *graph.UnknownTaskError
	if stderrors.As(err, &unknown) {
		return NewGraphError(CodeGraphUnknownTask,
			fmt.Sprintf("Task '%s' is not part of the pipeline graph", unknown.Task),
			operation).
			WithOriginalError(err)
	}
	var def *pipeline.TaskDefinitionError
	if stderrors.As(err, &def) {
		return NewTaskDefinitionUserError(def, operation)
	}

	return NewGraphError(CodeGraphDefinition, "Pipeline graph construction failed", operation).
		WithOriginalError(err)
}
