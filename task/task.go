// Package task resolves and executes manifest task definitions: single
// scripts, ordered sequences, and parallel groups, with reference and
// cycle validation up front.
package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/runtime"
	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/types"
)

// ParallelRunner executes a script group concurrently. The default is
// runtime.RunParallel; the CLI substitutes a progress-view variant for
// --ui.
type ParallelRunner func(ctx context.Context, runner runtime.ScriptRunner, scripts []string, workers int) (types.BatchReport, error)

// Engine runs tasks against a manifest.
type Engine struct {
	manifest *project.Manifest
	// dir is the project root; relative script references resolve
	// against it.
	dir      string
	runner   runtime.ScriptRunner
	workers  int
	parallel ParallelRunner
}

// NewEngine creates a task engine. workers bounds parallel groups.
func NewEngine(m *project.Manifest, dir string, runner runtime.ScriptRunner, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		manifest: m,
		dir:      dir,
		runner:   runner,
		workers:  workers,
		parallel: runtime.RunParallel,
	}
}

// WithParallelRunner substitutes the parallel group executor.
func (e *Engine) WithParallelRunner(fn ParallelRunner) *Engine {
	e.parallel = fn
	return e
}

// Run executes the named task and returns the merged batch report.
func (e *Engine) Run(ctx context.Context, name string) (types.BatchReport, error) {
	if _, ok := e.manifest.Tasks[name]; !ok {
		return types.BatchReport{}, e.unknownTaskError(name)
	}
	if err := e.Validate(); err != nil {
		return types.BatchReport{}, err
	}

	batch := types.BatchReport{Name: name, Success: true}
	start := time.Now()
	err := e.runTask(ctx, name, &batch)
	batch.DurationSecs = time.Since(start).Seconds()
	if batch.Success {
		batch.ExitCode = stata.ExitSuccess
	}
	return batch, err
}

// Validate checks every task definition: references must name a
// defined task or an existing script, and the reference graph must be
// acyclic.
func (e *Engine) Validate() error {
	names := make([]string, 0, len(e.manifest.Tasks))
	for name := range e.manifest.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	state := &walkState{
		onStack: map[string]bool{},
		done:    map[string]bool{},
	}
	for _, name := range names {
		if err := e.walk(name, state); err != nil {
			return err
		}
	}
	return nil
}

type walkState struct {
	onStack map[string]bool
	done    map[string]bool
	stack   []string
}

func (e *Engine) walk(name string, state *walkState) error {
	if state.done[name] {
		return nil
	}
	if state.onStack[name] {
		return fmt.Errorf("task cycle: %s", cycleString(state.stack, name))
	}

	def, ok := e.manifest.Tasks[name]
	if !ok {
		// A reference that is not a task must be a script on disk.
		if _, err := os.Stat(e.scriptPath(name)); err != nil {
			return fmt.Errorf("task reference %q is neither a task nor a script", name)
		}
		return nil
	}

	if def.Kind() == project.TaskScript {
		if _, err := os.Stat(e.scriptPath(def.Script)); err != nil {
			return fmt.Errorf("task %s: script %s not found", name, def.Script)
		}
		state.done[name] = true
		return nil
	}

	state.onStack[name] = true
	state.stack = append(state.stack, name)
	for _, ref := range def.References() {
		if err := e.walk(ref, state); err != nil {
			return err
		}
	}
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.onStack, name)
	state.done[name] = true
	return nil
}

func cycleString(stack []string, repeat string) string {
	start := 0
	for i, name := range stack {
		if name == repeat {
			start = i
			break
		}
	}
	return strings.Join(append(append([]string{}, stack[start:]...), repeat), " -> ")
}

// runTask executes one task, appending per-script reports to batch.
// Sequences stop at the first failure; parallel groups always complete.
func (e *Engine) runTask(ctx context.Context, name string, batch *types.BatchReport) error {
	def := e.manifest.Tasks[name]

	switch def.Kind() {
	case project.TaskScript:
		return e.runScript(ctx, def.Script, batch)

	case project.TaskSequential:
		for _, step := range def.Steps {
			if err := e.runStep(ctx, step, batch); err != nil {
				return err
			}
			if !batch.Success {
				return nil
			}
		}
		return nil

	case project.TaskParallel:
		scripts := make([]string, 0, len(def.Parallel))
		for _, member := range def.Parallel {
			scripts = append(scripts, e.flatten(member)...)
		}
		group, err := e.parallel(ctx, e.runner, scripts, e.workers)
		if err != nil {
			return err
		}
		mergeBatch(batch, group)
		return nil

	default:
		return fmt.Errorf("task %s has no definition", name)
	}
}

// runStep dispatches a sequence step: nested task or direct script.
func (e *Engine) runStep(ctx context.Context, step string, batch *types.BatchReport) error {
	if _, ok := e.manifest.Tasks[step]; ok {
		return e.runTask(ctx, step, batch)
	}
	return e.runScript(ctx, step, batch)
}

func (e *Engine) runScript(ctx context.Context, script string, batch *types.BatchReport) error {
	report, err := e.runner.Run(ctx, e.scriptPath(script))
	batch.Reports = append(batch.Reports, report)
	if err != nil {
		batch.Success = false
		batch.FailedCount++
		batch.ExitCode = report.ExitCode
		return err
	}
	if !report.Success {
		batch.Success = false
		batch.FailedCount++
		batch.ExitCode = report.ExitCode
		return nil
	}
	batch.SuccessCount++
	return nil
}

// flatten expands a parallel group member into its ordered script
// list. Validation has already rejected cycles.
func (e *Engine) flatten(name string) []string {
	def, ok := e.manifest.Tasks[name]
	if !ok {
		return []string{e.scriptPath(name)}
	}
	switch def.Kind() {
	case project.TaskScript:
		return []string{e.scriptPath(def.Script)}
	case project.TaskSequential:
		var scripts []string
		for _, step := range def.Steps {
			scripts = append(scripts, e.flatten(step)...)
		}
		return scripts
	case project.TaskParallel:
		var scripts []string
		for _, member := range def.Parallel {
			scripts = append(scripts, e.flatten(member)...)
		}
		return scripts
	}
	return nil
}

func (e *Engine) scriptPath(name string) string {
	if filepath.Ext(name) == "" {
		name += ".do"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.dir, name)
}

func mergeBatch(into *types.BatchReport, from types.BatchReport) {
	into.Reports = append(into.Reports, from.Reports...)
	into.SuccessCount += from.SuccessCount
	into.FailedCount += from.FailedCount
	if !from.Success {
		into.Success = false
		if into.ExitCode == stata.ExitSuccess {
			into.ExitCode = from.ExitCode
		}
	}
}

// unknownTaskError builds the not-found error, suggesting defined
// tasks within edit distance 2.
func (e *Engine) unknownTaskError(name string) error {
	var candidates []string
	for defined := range e.manifest.Tasks {
		if levenshtein(name, defined) <= 2 {
			candidates = append(candidates, defined)
		}
	}
	sort.Strings(candidates)

	if len(candidates) > 0 {
		return fmt.Errorf("unknown task %q (did you mean %s?)", name, strings.Join(candidates, ", "))
	}
	return fmt.Errorf("unknown task %q", name)
}

// levenshtein computes edit distance with a rolling single-row table.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur := row[j]
			row[j] = minInt(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
