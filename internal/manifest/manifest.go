package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mkanzari/pipectl/internal/pipeline"
)

// Manifest is the YAML declaration of a pipeline: datasets first, then the
// tasks that consume and produce them. Dependencies between tasks are never
// declared here; they are inferred by the graph engine.
type Manifest struct {
	Name     string        `yaml:"name" validate:"required"`
	Datasets []DatasetSpec `yaml:"datasets" validate:"dive"`
	Tasks    []TaskSpec    `yaml:"tasks" validate:"required,min=1,dive"`
}

// DatasetSpec declares a named dataset and its opaque descriptors.
type DatasetSpec struct {
	Name     string                 `yaml:"name" validate:"required"`
	Storage  string                 `yaml:"storage,omitempty"`
	Schema   map[string]string      `yaml:"schema,omitempty"`
	Metadata map[string]interface{} `yaml:"metadata,omitempty"`
}

// InputSpec pairs a task parameter with the dataset it reads. Inputs are a
// list, not a map, so declaration order survives parsing.
type InputSpec struct {
	Param   string `yaml:"param" validate:"required"`
	Dataset string `yaml:"dataset" validate:"required"`
}

// ConfigSpec is the opaque execution configuration block of a task.
type ConfigSpec struct {
	Compute  string                 `yaml:"compute,omitempty"`
	Schedule string                 `yaml:"schedule,omitempty"`
	Extra    map[string]interface{} `yaml:"extra,omitempty"`
}

// TaskSpec declares one task: its inputs, its outputs, and optionally a
// shell command the local executor runs for it.
type TaskSpec struct {
	Name    string      `yaml:"name" validate:"required"`
	Inputs  []InputSpec `yaml:"inputs,omitempty" validate:"dive"`
	Outputs []string    `yaml:"outputs,omitempty"`
	Command string      `yaml:"command,omitempty"`
	Config  *ConfigSpec `yaml:"config,omitempty"`
}

var validate = validator.New()

// Parse decodes and validates a manifest document. Unknown fields are
// rejected so typos surface instead of silently dropping declarations.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse pipeline manifest: %w", err)
	}

	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid pipeline manifest: %w", err)
	}

	return &m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Pipeline converts the manifest into pipeline entities. Every dataset
// referenced by a task must be declared in the datasets section; a single
// Dataset instance is shared by all tasks referencing the name.
func (m *Manifest) Pipeline() ([]*pipeline.Task, error) {
	datasets := make(map[string]*pipeline.Dataset, len(m.Datasets))
	for _, spec := range m.Datasets {
		if _, dup := datasets[spec.Name]; dup {
			return nil, fmt.Errorf("dataset %q declared more than once", spec.Name)
		}
		ds := pipeline.NewDataset(spec.Name)
		if spec.Storage != "" {
			ds.WithStorage(spec.Storage)
		}
		if len(spec.Schema) > 0 {
			ds.WithSchema(spec.Schema)
		}
		for k, v := range spec.Metadata {
			ds.WithMetadata(k, v)
		}
		datasets[spec.Name] = ds
	}

	resolve := func(task, name string) (*pipeline.Dataset, error) {
		ds, ok := datasets[name]
		if !ok {
			return nil, fmt.Errorf("task %q references undeclared dataset %q", task, name)
		}
		return ds, nil
	}

	tasks := make([]*pipeline.Task, 0, len(m.Tasks))
	for _, spec := range m.Tasks {
		inputs := make([]pipeline.Input, 0, len(spec.Inputs))
		for _, in := range spec.Inputs {
			ds, err := resolve(spec.Name, in.Dataset)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, pipeline.Input{Param: in.Param, Dataset: ds})
		}

		outputs := make([]*pipeline.Dataset, 0, len(spec.Outputs))
		for _, out := range spec.Outputs {
			ds, err := resolve(spec.Name, out)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, ds)
		}

		task, err := pipeline.NewTask(spec.Name, inputs, outputs, nil)
		if err != nil {
			return nil, err
		}

		if spec.Command != "" || spec.Config != nil {
			cfg := &pipeline.TaskConfig{Command: spec.Command}
			if spec.Config != nil {
				cfg.ComputeTarget = spec.Config.Compute
				cfg.Schedule = spec.Config.Schedule
				cfg.Extra = spec.Config.Extra
			}
			task.WithConfig(cfg)
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}
