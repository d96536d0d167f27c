package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkanzari/pipectl/internal/graph"
	"github.com/mkanzari/pipectl/internal/logger"
	"github.com/mkanzari/pipectl/internal/pipeline"
)

// TaskStatus represents the execution status of a task within one run.
type TaskStatus int

const (
	// StatusPending indicates the task has not started yet
	StatusPending TaskStatus = iota
	// StatusRunning indicates the task is currently executing
	StatusRunning
	// StatusSucceeded indicates the task completed successfully
	StatusSucceeded
	// StatusFailed indicates the task failed
	StatusFailed
	// StatusSkipped indicates the task was skipped because a dependency failed
	StatusSkipped
)

// String returns a string representation of the TaskStatus
func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Config contains configuration for the local executor.
type Config struct {
	// MaxParallelTasks bounds concurrency within one execution level.
	MaxParallelTasks int

	// TaskTimeout is the timeout applied to each individual task.
	TaskTimeout time.Duration

	// DryRun logs what would execute without running anything.
	DryRun bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxParallelTasks: 4,
		TaskTimeout:      10 * time.Minute,
	}
}

// TaskResult contains the result of a single task execution.
type TaskResult struct {
	Task      string
	Status    TaskStatus
	Error     error
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Result contains the results of one pipeline run.
type Result struct {
	RunID         string
	Pipeline      string
	Success       bool
	TaskResults   map[string]*TaskResult
	ExecutionTime time.Duration

	// Error is the first task error encountered during the run.
	Error error
}

// Executor runs a pipeline graph locally, level by level. Tasks within one
// level run concurrently up to MaxParallelTasks; a level completes before the
// next starts, which is exactly the safety contract the level partition
// provides. Failure of a task skips its downstream dependents but leaves
// unrelated branches running.
type Executor struct {
	graph  *graph.Graph
	config *Config
	store  *ValueStore

	mutex   sync.RWMutex
	results map[string]*TaskResult
}

// New creates an executor for the given graph.
func New(g *graph.Graph, config *Config) *Executor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Executor{
		graph:   g,
		config:  config,
		store:   NewValueStore(),
		results: make(map[string]*TaskResult),
	}
}

// Seed pre-populates dataset values, typically for external inputs.
func (e *Executor) Seed(values map[string]interface{}) {
	e.store.Seed(values)
}

// Values returns the run's dataset value store.
func (e *Executor) Values() *ValueStore {
	return e.store
}

// Execute runs the pipeline to completion.
func (e *Executor) Execute(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()

	if err := e.graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline graph: %w", err)
	}

	levels, err := e.graph.ExecutionLevels()
	if err != nil {
		return nil, err
	}

	e.mutex.Lock()
	for _, t := range e.graph.Nodes() {
		e.results[t.Name()] = &TaskResult{Task: t.Name(), Status: StatusPending}
	}
	e.mutex.Unlock()

	logger.User.Startingf("Running pipeline %s (%d tasks, %d levels, max %d parallel)",
		e.graph.Name(), e.graph.Size(), len(levels), e.config.MaxParallelTasks)
	logger.Op.WithFields(map[string]interface{}{
		"run_id":   runID,
		"pipeline": e.graph.Name(),
	}).Debug("Execution started")

	workers := make(chan struct{}, e.config.MaxParallelTasks)

	for levelIdx, level := range levels {
		if ctx.Err() != nil {
			e.skipRemaining(ctx.Err())
			break
		}

		logger.Op.Debugf("Starting level %d with %d tasks", levelIdx, len(level))

		var wg sync.WaitGroup
		for _, t := range level {
			if skip, depErr := e.failedDependency(t); skip {
				e.setSkipped(t.Name(), depErr)
				logger.User.Warnf("Skipping task %s: %v", t.Name(), depErr)
				continue
			}

			if e.config.DryRun {
				e.setFinished(t.Name(), StatusSucceeded, nil)
				logger.User.Infof("[dry-run] would run task %s", t.Name())
				continue
			}

			wg.Add(1)
			go func(t *pipeline.Task) {
				defer wg.Done()

				select {
				case workers <- struct{}{}:
					defer func() { <-workers }()
				case <-ctx.Done():
					e.setSkipped(t.Name(), ctx.Err())
					return
				}

				e.runTask(ctx, t)
			}(t)
		}
		wg.Wait()
	}

	result := e.buildResult(runID, startTime)
	e.logSummary(result)
	return result, nil
}

// runTask executes one task and records its result.
func (e *Executor) runTask(ctx context.Context, t *pipeline.Task) {
	e.setStarted(t.Name())
	logger.User.Infof("Starting task: %s", t.Name())

	taskCtx, cancel := context.WithTimeout(ctx, e.config.TaskTimeout)
	defer cancel()

	inputs := make(map[string]interface{}, len(t.Inputs()))
	for _, in := range t.Inputs() {
		v, _ := e.store.Get(in.Dataset.Name())
		inputs[in.Param] = v
	}

	err := e.invoke(taskCtx, t, inputs)

	if err != nil {
		e.setFinished(t.Name(), StatusFailed, err)
		logger.User.Errorf("Task failed: %s - %v", t.Name(), err)
		return
	}

	e.setFinished(t.Name(), StatusSucceeded, nil)
	logger.User.Successf("Task completed: %s", t.Name())
}

// invoke dispatches to the task's run function or shell command and
// materializes the produced dataset values.
func (e *Executor) invoke(ctx context.Context, t *pipeline.Task, inputs map[string]interface{}) error {
	outputs := t.Outputs()

	if run := t.Run(); run != nil {
		values, err := run(ctx, inputs)
		if err != nil {
			return err
		}
		if len(values) != len(outputs) {
			return fmt.Errorf("task %q returned %d values for %d declared outputs", t.Name(), len(values), len(outputs))
		}
		for i, out := range outputs {
			if err := e.store.Put(out.Name(), values[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if cfg := t.Config(); cfg != nil && cfg.Command != "" {
		stdout, err := runCommand(ctx, t, cfg.Command)
		if err != nil {
			return err
		}
		for _, out := range outputs {
			if err := e.store.Put(out.Name(), stdout); err != nil {
				return err
			}
		}
		return nil
	}

	// Declarative-only task: mark outputs produced without a value.
	for _, out := range outputs {
		if err := e.store.Put(out.Name(), nil); err != nil {
			return err
		}
	}
	return nil
}

// failedDependency reports whether any direct dependency did not succeed.
func (e *Executor) failedDependency(t *pipeline.Task) (bool, error) {
	deps, err := e.graph.Dependencies(t)
	if err != nil {
		return true, err
	}

	e.mutex.RLock()
	defer e.mutex.RUnlock()
	for _, dep := range deps {
		result := e.results[dep.Name()]
		if result == nil || result.Status != StatusSucceeded {
			return true, fmt.Errorf("dependency %q did not succeed", dep.Name())
		}
	}
	return false, nil
}

func (e *Executor) setStarted(name string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if result, exists := e.results[name]; exists {
		result.Status = StatusRunning
		result.StartTime = time.Now()
	}
}

func (e *Executor) setFinished(name string, status TaskStatus, err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if result, exists := e.results[name]; exists {
		now := time.Now()
		if result.StartTime.IsZero() {
			result.StartTime = now
		}
		result.EndTime = now
		result.Duration = now.Sub(result.StartTime)
		result.Status = status
		result.Error = err
	}
}

func (e *Executor) setSkipped(name string, cause error) {
	e.setFinished(name, StatusSkipped, fmt.Errorf("skipped: %w", cause))
}

// skipRemaining marks every still-pending task as skipped, used when the
// run context is cancelled between levels.
func (e *Executor) skipRemaining(cause error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	for _, result := range e.results {
		if result.Status == StatusPending {
			result.Status = StatusSkipped
			result.Error = fmt.Errorf("skipped: %w", cause)
		}
	}
}

func (e *Executor) buildResult(runID string, startTime time.Time) *Result {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	result := &Result{
		RunID:         runID,
		Pipeline:      e.graph.Name(),
		Success:       true,
		TaskResults:   make(map[string]*TaskResult, len(e.results)),
		ExecutionTime: time.Since(startTime),
	}

	for name, taskResult := range e.results {
		copied := *taskResult
		result.TaskResults[name] = &copied

		if taskResult.Status != StatusSucceeded {
			result.Success = false
			if result.Error == nil && taskResult.Error != nil {
				result.Error = fmt.Errorf("task %s failed: %w", name, taskResult.Error)
			}
		}
	}

	return result
}

func (e *Executor) logSummary(result *Result) {
	succeeded, failed, skipped := 0, 0, 0
	for _, r := range result.TaskResults {
		switch r.Status {
		case StatusSucceeded:
			succeeded++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}

	elapsed := result.ExecutionTime.Round(time.Millisecond)
	if result.Success {
		logger.User.Successf("Pipeline completed: %d/%d tasks successful in %v",
			succeeded, len(result.TaskResults), elapsed)
	} else {
		logger.User.Errorf("Pipeline finished with errors: %d succeeded, %d failed, %d skipped in %v",
			succeeded, failed, skipped, elapsed)
	}
}
