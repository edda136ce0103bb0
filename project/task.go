package project

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TaskKind classifies a task definition.
type TaskKind int

// Task kinds.
const (
	// TaskScript runs a single script.
	TaskScript TaskKind = iota
	// TaskSequential runs named tasks in order, stopping on failure.
	TaskSequential
	// TaskParallel runs named tasks concurrently, completing all.
	TaskParallel
)

// TaskDef is one entry under the manifest's tasks section. Three forms
// are accepted:
//
//	clean: src/01_clean.do
//	all: [clean, analyze]
//	outputs: {parallel: [tables, figures]}
//
// The mapping form also takes script, args, and description keys.
type TaskDef struct {
	Script      string
	Steps       []string
	Parallel    []string
	Args        []string
	Description string
}

// Kind reports which form this definition took.
func (t TaskDef) Kind() TaskKind {
	switch {
	case len(t.Parallel) > 0:
		return TaskParallel
	case len(t.Steps) > 0:
		return TaskSequential
	default:
		return TaskScript
	}
}

// References returns the task names this definition depends on.
// Script tasks reference nothing.
func (t TaskDef) References() []string {
	switch t.Kind() {
	case TaskSequential:
		return t.Steps
	case TaskParallel:
		return t.Parallel
	default:
		return nil
	}
}

// UnmarshalYAML accepts the scalar, sequence, and mapping forms.
func (t *TaskDef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Decode(&t.Script)
	case yaml.SequenceNode:
		return value.Decode(&t.Steps)
	case yaml.MappingNode:
		var full struct {
			Script      string   `yaml:"script"`
			Parallel    []string `yaml:"parallel"`
			Args        []string `yaml:"args"`
			Description string   `yaml:"description"`
		}
		if err := value.Decode(&full); err != nil {
			return err
		}
		if full.Script == "" && len(full.Parallel) == 0 {
			return fmt.Errorf("task requires either script or parallel")
		}
		if full.Script != "" && len(full.Parallel) > 0 {
			return fmt.Errorf("task cannot set both script and parallel")
		}
		t.Script = full.Script
		t.Parallel = full.Parallel
		t.Args = full.Args
		t.Description = full.Description
		return nil
	default:
		return fmt.Errorf("unsupported task definition form")
	}
}

// MarshalYAML keeps the most compact accepted form.
func (t TaskDef) MarshalYAML() (interface{}, error) {
	switch {
	case len(t.Steps) > 0:
		return t.Steps, nil
	case len(t.Parallel) > 0 || len(t.Args) > 0 || t.Description != "":
		return struct {
			Script      string   `yaml:"script,omitempty"`
			Parallel    []string `yaml:"parallel,omitempty,flow"`
			Args        []string `yaml:"args,omitempty,flow"`
			Description string   `yaml:"description,omitempty"`
		}{t.Script, t.Parallel, t.Args, t.Description}, nil
	default:
		return t.Script, nil
	}
}
