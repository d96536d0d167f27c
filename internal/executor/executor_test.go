package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkanzari/pipectl/internal/graph"
	"github.com/mkanzari/pipectl/internal/pipeline"
)

func testConfig() *Config {
	return &Config{
		MaxParallelTasks: 4,
		TaskTimeout:      5 * time.Second,
	}
}

// recorder tracks task completion order across goroutines.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func recordingRun(rec *recorder, name string, outputs int) pipeline.RunFunc {
	return func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error) {
		rec.record(name)
		values := make([]interface{}, outputs)
		for i := range values {
			values[i] = name
		}
		return values, nil
	}
}

func TestExecute_ChainRunsInDependencyOrder(t *testing.T) {
	rec := &recorder{}

	raw := pipeline.NewDataset("raw")
	clean := pipeline.NewDataset("clean")
	report := pipeline.NewDataset("report")

	extract := pipeline.MustTask("extract", nil, []*pipeline.Dataset{raw}, recordingRun(rec, "extract", 1))
	transform := pipeline.MustTask("transform",
		[]pipeline.Input{{Param: "source", Dataset: raw}},
		[]*pipeline.Dataset{clean}, recordingRun(rec, "transform", 1))
	load := pipeline.MustTask("load",
		[]pipeline.Input{{Param: "data", Dataset: clean}},
		[]*pipeline.Dataset{report}, recordingRun(rec, "load", 1))

	g, err := graph.Build("etl", []*pipeline.Task{extract, transform, load})
	require.NoError(t, err)

	result, err := New(g, testConfig()).Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "etl", result.Pipeline)
	assert.Equal(t, []string{"extract", "transform", "load"}, rec.names())

	for _, name := range []string{"extract", "transform", "load"} {
		require.Contains(t, result.TaskResults, name)
		assert.Equal(t, StatusSucceeded, result.TaskResults[name].Status)
	}
}

func TestExecute_InputsArriveByParamName(t *testing.T) {
	numbers := pipeline.NewDataset("numbers")
	doubled := pipeline.NewDataset("doubled")

	produce := pipeline.MustTask("produce", nil, []*pipeline.Dataset{numbers},
		func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error) {
			return []interface{}{21}, nil
		})

	var got map[string]interface{}
	double := pipeline.MustTask("double",
		[]pipeline.Input{{Param: "n", Dataset: numbers}},
		[]*pipeline.Dataset{doubled},
		func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error) {
			got = inputs
			return []interface{}{inputs["n"].(int) * 2}, nil
		})

	g, err := graph.Build("math", []*pipeline.Task{produce, double})
	require.NoError(t, err)

	exec := New(g, testConfig())
	result, err := exec.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, map[string]interface{}{"n": 21}, got)
	v, ok := exec.Values().Get("doubled")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestExecute_SeededExternalInput(t *testing.T) {
	landing := pipeline.NewDataset("landing")
	processed := pipeline.NewDataset("processed")

	ingest := pipeline.MustTask("ingest",
		[]pipeline.Input{{Param: "path", Dataset: landing}},
		[]*pipeline.Dataset{processed},
		func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error) {
			return []interface{}{inputs["path"]}, nil
		})

	g, err := graph.Build("ext", []*pipeline.Task{ingest})
	require.NoError(t, err)

	exec := New(g, testConfig())
	exec.Seed(map[string]interface{}{"landing": "/data/in"})

	result, err := exec.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)

	v, ok := exec.Values().Get("processed")
	require.True(t, ok)
	assert.Equal(t, "/data/in", v)
}

func TestExecute_FailureSkipsDependents(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")

	seed := pipeline.NewDataset("seed")
	da := pipeline.NewDataset("da")
	db := pipeline.NewDataset("db")
	final := pipeline.NewDataset("final")

	start := pipeline.MustTask("start", nil, []*pipeline.Dataset{seed}, recordingRun(rec, "start", 1))
	failing := pipeline.MustTask("failing",
		[]pipeline.Input{{Param: "in", Dataset: seed}},
		[]*pipeline.Dataset{da},
		func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error) {
			return nil, boom
		})
	healthy := pipeline.MustTask("healthy",
		[]pipeline.Input{{Param: "in", Dataset: seed}},
		[]*pipeline.Dataset{db}, recordingRun(rec, "healthy", 1))
	merge := pipeline.MustTask("merge",
		[]pipeline.Input{
			{Param: "a", Dataset: da},
			{Param: "b", Dataset: db},
		},
		[]*pipeline.Dataset{final}, recordingRun(rec, "merge", 1))

	g, err := graph.Build("diamond", []*pipeline.Task{start, failing, healthy, merge})
	require.NoError(t, err)

	result, err := New(g, testConfig()).Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, StatusSucceeded, result.TaskResults["start"].Status)
	assert.Equal(t, StatusFailed, result.TaskResults["failing"].Status)
	assert.ErrorIs(t, result.TaskResults["failing"].Error, boom)
	// The unrelated branch still ran.
	assert.Equal(t, StatusSucceeded, result.TaskResults["healthy"].Status)
	assert.Equal(t, StatusSkipped, result.TaskResults["merge"].Status)
	assert.NotContains(t, rec.names(), "merge")
	assert.Error(t, result.Error)
}

func TestExecute_OutputCountMismatch(t *testing.T) {
	out := pipeline.NewDataset("out")
	task := pipeline.MustTask("bad", nil, []*pipeline.Dataset{out},
		func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error) {
			return []interface{}{1, 2}, nil
		})

	g, err := graph.Build("bad", []*pipeline.Task{task})
	require.NoError(t, err)

	result, err := New(g, testConfig()).Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Equal(t, StatusFailed, result.TaskResults["bad"].Status)
	assert.Contains(t, result.TaskResults["bad"].Error.Error(), "returned 2 values for 1 declared outputs")
}

func TestExecute_DryRun(t *testing.T) {
	rec := &recorder{}

	raw := pipeline.NewDataset("raw")
	clean := pipeline.NewDataset("clean")
	extract := pipeline.MustTask("extract", nil, []*pipeline.Dataset{raw}, recordingRun(rec, "extract", 1))
	transform := pipeline.MustTask("transform",
		[]pipeline.Input{{Param: "source", Dataset: raw}},
		[]*pipeline.Dataset{clean}, recordingRun(rec, "transform", 1))

	g, err := graph.Build("etl", []*pipeline.Task{extract, transform})
	require.NoError(t, err)

	config := testConfig()
	config.DryRun = true
	exec := New(g, config)

	result, err := exec.Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, rec.names())
	assert.Equal(t, 0, exec.Values().Len())
	assert.Equal(t, StatusSucceeded, result.TaskResults["extract"].Status)
	assert.Equal(t, StatusSucceeded, result.TaskResults["transform"].Status)
}

func TestExecute_CyclicGraphRejected(t *testing.T) {
	ping := pipeline.NewDataset("ping")
	pong := pipeline.NewDataset("pong")

	p := pipeline.MustTask("p",
		[]pipeline.Input{{Param: "in", Dataset: pong}},
		[]*pipeline.Dataset{ping}, nil)
	q := pipeline.MustTask("q",
		[]pipeline.Input{{Param: "in", Dataset: ping}},
		[]*pipeline.Dataset{pong}, nil)

	g, err := graph.Build("cycle", []*pipeline.Task{p, q})
	require.NoError(t, err)

	result, err := New(g, testConfig()).Execute(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	var cycleErr *graph.CycleError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestExecute_LevelConcurrencyBounded(t *testing.T) {
	var mu sync.Mutex
	running, peak := 0, 0

	track := func(name string) pipeline.RunFunc {
		return func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return []interface{}{name}, nil
		}
	}

	tasks := make([]*pipeline.Task, 0, 6)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		tasks = append(tasks, pipeline.MustTask(name, nil,
			[]*pipeline.Dataset{pipeline.NewDataset("out-" + name)}, track(name)))
	}

	g, err := graph.Build("wide", tasks)
	require.NoError(t, err)

	config := &Config{MaxParallelTasks: 2, TaskTimeout: 5 * time.Second}
	result, err := New(g, config).Execute(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.LessOrEqual(t, peak, 2)
}

func TestExecute_CommandTask(t *testing.T) {
	out := pipeline.NewDataset("greeting")
	task := pipeline.MustTask("greet", nil, []*pipeline.Dataset{out}, nil).
		WithConfig(&pipeline.TaskConfig{Command: "echo hello from $PIPECTL_TASK"})

	g, err := graph.Build("shell", []*pipeline.Task{task})
	require.NoError(t, err)

	exec := New(g, testConfig())
	result, err := exec.Execute(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)

	v, ok := exec.Values().Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello from greet\n", v)
}

func TestExecute_CommandTaskFailure(t *testing.T) {
	out := pipeline.NewDataset("never")
	task := pipeline.MustTask("fail", nil, []*pipeline.Dataset{out}, nil).
		WithConfig(&pipeline.TaskConfig{Command: "echo oops >&2; exit 3"})

	g, err := graph.Build("shell", []*pipeline.Task{task})
	require.NoError(t, err)

	result, err := New(g, testConfig()).Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Equal(t, StatusFailed, result.TaskResults["fail"].Status)
	assert.Contains(t, result.TaskResults["fail"].Error.Error(), "oops")
}

func TestExecute_TaskTimeout(t *testing.T) {
	out := pipeline.NewDataset("slow")
	task := pipeline.MustTask("slow", nil, []*pipeline.Dataset{out},
		func(ctx context.Context, inputs map[string]interface{}) ([]interface{}, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return []interface{}{nil}, nil
			}
		})

	g, err := graph.Build("slow", []*pipeline.Task{task})
	require.NoError(t, err)

	config := &Config{MaxParallelTasks: 1, TaskTimeout: 50 * time.Millisecond}
	result, err := New(g, config).Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Equal(t, StatusFailed, result.TaskResults["slow"].Status)
	assert.ErrorIs(t, result.TaskResults["slow"].Error, context.DeadlineExceeded)
}

func TestExecute_CommandTaskTimeout(t *testing.T) {
	out := pipeline.NewDataset("never")
	task := pipeline.MustTask("sleepy", nil, []*pipeline.Dataset{out}, nil).
		WithConfig(&pipeline.TaskConfig{Command: "sleep 5"})

	g, err := graph.Build("shell", []*pipeline.Task{task})
	require.NoError(t, err)

	config := &Config{MaxParallelTasks: 1, TaskTimeout: 50 * time.Millisecond}
	result, err := New(g, config).Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Equal(t, StatusFailed, result.TaskResults["sleepy"].Status)
	// The killed process must report the deadline, not just the signal.
	assert.ErrorIs(t, result.TaskResults["sleepy"].Error, context.DeadlineExceeded)
	assert.ErrorIs(t, result.Error, context.DeadlineExceeded)
}

func TestTaskStatus_String(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "succeeded", StatusSucceeded.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "unknown", TaskStatus(99).String())
}
