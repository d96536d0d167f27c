package pipeline

import (
	"context"
	"fmt"
)

// Input pairs a task parameter name with the dataset that satisfies it.
type Input struct {
	Param   string
	Dataset *Dataset
}

// RunFunc is the unit of work wrapped by a task. Inputs are keyed by
// parameter name; the returned values are matched positionally against the
// task's declared outputs.
type RunFunc func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error)

// TaskConfig carries execution configuration for a task. It is stored on the
// task but never interpreted during graph construction; only the executor and
// generators downstream read it.
type TaskConfig struct {
	ComputeTarget string
	Schedule      string
	Command       string
	Extra         map[string]interface{}
}

// Task is a declared unit of work: a name, an ordered list of input
// declarations, an ordered list of produced datasets, and an optional run
// function. Tasks are immutable after construction.
type Task struct {
	name    string
	inputs  []Input
	outputs []*Dataset
	run     RunFunc
	config  *TaskConfig
}

// TaskDefinitionError reports a task declaration that cannot be used for
// graph inference. It is always fatal at construction time: a task that
// silently loses inputs or outputs corrupts the graph without any signal.
type TaskDefinitionError struct {
	Task   string
	Reason string
}

func (e *TaskDefinitionError) Error() string {
	return fmt.Sprintf("invalid task definition %q: %s", e.Task, e.Reason)
}

// NewTask builds a task from explicit input and output declarations.
//
// It rejects:
//   - an empty task name
//   - empty or duplicate parameter names
//   - a nil dataset reference in any input or output position
//   - the same dataset declared as an output more than once
//
// A dataset appearing in both the inputs and the outputs is not rejected
// here: whether that is a self dependency is a graph-level question, answered
// during edge derivation once the producer index exists.
func NewTask(name string, inputs []Input, outputs []*Dataset, run RunFunc) (*Task, error) {
	if name == "" {
		return nil, &TaskDefinitionError{Task: name, Reason: "task name is required"}
	}

	seenParams := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		if in.Param == "" {
			return nil, &TaskDefinitionError{Task: name, Reason: fmt.Sprintf("input %d has no parameter name", i)}
		}
		if _, dup := seenParams[in.Param]; dup {
			return nil, &TaskDefinitionError{Task: name, Reason: fmt.Sprintf("duplicate parameter %q", in.Param)}
		}
		seenParams[in.Param] = struct{}{}
		if in.Dataset == nil {
			return nil, &TaskDefinitionError{Task: name, Reason: fmt.Sprintf("parameter %q references a nil dataset", in.Param)}
		}
	}

	seenOutputs := make(map[string]struct{}, len(outputs))
	for i, out := range outputs {
		if out == nil {
			return nil, &TaskDefinitionError{Task: name, Reason: fmt.Sprintf("output position %d is not a dataset", i)}
		}
		if _, dup := seenOutputs[out.Name()]; dup {
			return nil, &TaskDefinitionError{Task: name, Reason: fmt.Sprintf("dataset %q declared as output more than once", out.Name())}
		}
		seenOutputs[out.Name()] = struct{}{}
	}

	t := &Task{
		name:    name,
		inputs:  make([]Input, len(inputs)),
		outputs: make([]*Dataset, len(outputs)),
		run:     run,
	}
	copy(t.inputs, inputs)
	copy(t.outputs, outputs)
	return t, nil
}

// MustTask is NewTask that panics on a definition error. Intended for
// statically-declared pipelines and tests.
func MustTask(name string, inputs []Input, outputs []*Dataset, run RunFunc) *Task {
	t, err := NewTask(name, inputs, outputs, run)
	if err != nil {
		panic(err)
	}
	return t
}

// WithConfig attaches execution configuration. Returns the task for
// declaration-site chaining; the config itself is opaque to the graph.
func (t *Task) WithConfig(config *TaskConfig) *Task {
	t.config = config
	return t
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Inputs returns the ordered input declarations.
func (t *Task) Inputs() []Input {
	out := make([]Input, len(t.inputs))
	copy(out, t.inputs)
	return out
}

// Outputs returns the ordered output datasets.
func (t *Task) Outputs() []*Dataset {
	out := make([]*Dataset, len(t.outputs))
	copy(out, t.outputs)
	return out
}

// Run returns the task's run function, or nil if the task is declarative
// only (for example a manifest task executed as a shell command).
func (t *Task) Run() RunFunc {
	return t.run
}

// Config returns the execution configuration, if any.
func (t *Task) Config() *TaskConfig {
	return t.config
}
