package task

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/types"
)

type runnerFunc func(ctx context.Context, script string) (types.RunReport, error)

func (f runnerFunc) Run(ctx context.Context, script string) (types.RunReport, error) {
	return f(ctx, script)
}

// okRunner succeeds for every script and records execution order.
func okRunner(executed *[]string, mu *sync.Mutex) runnerFunc {
	return func(_ context.Context, script string) (types.RunReport, error) {
		mu.Lock()
		*executed = append(*executed, filepath.Base(script))
		mu.Unlock()
		return types.RunReport{Script: script, Success: true}, nil
	}
}

func writeScripts(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("display 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func manifestWithTasks(tasks map[string]project.TaskDef) *project.Manifest {
	m := project.Default()
	m.Tasks = tasks
	return m
}

func TestRunSingleScriptTask(t *testing.T) {
	dir := writeScripts(t, "clean.do")
	m := manifestWithTasks(map[string]project.TaskDef{
		"clean": {Script: "clean.do"},
	})

	var executed []string
	var mu sync.Mutex
	engine := NewEngine(m, dir, okRunner(&executed, &mu), 1)

	batch, err := engine.Run(context.Background(), "clean")
	if err != nil {
		t.Fatal(err)
	}
	if !batch.Success || batch.SuccessCount != 1 {
		t.Errorf("batch = %+v", batch)
	}
	if len(executed) != 1 || executed[0] != "clean.do" {
		t.Errorf("executed = %v", executed)
	}
}

func TestRunSequenceStopsOnFailure(t *testing.T) {
	dir := writeScripts(t, "a.do", "b.do", "c.do")
	m := manifestWithTasks(map[string]project.TaskDef{
		"all": {Steps: []string{"a", "b", "c"}},
	})

	var executed []string
	var mu sync.Mutex
	runner := runnerFunc(func(_ context.Context, script string) (types.RunReport, error) {
		mu.Lock()
		executed = append(executed, filepath.Base(script))
		mu.Unlock()
		if filepath.Base(script) == "b.do" {
			return types.RunReport{Script: script, ExitCode: 1}, nil
		}
		return types.RunReport{Script: script, Success: true}, nil
	})
	engine := NewEngine(m, dir, runner, 1)

	batch, err := engine.Run(context.Background(), "all")
	if err != nil {
		t.Fatal(err)
	}
	if batch.Success || batch.ExitCode != 1 {
		t.Errorf("batch = %+v", batch)
	}
	if len(executed) != 2 {
		t.Errorf("sequence must stop after the failure, executed %v", executed)
	}
}

func TestRunNestedTasks(t *testing.T) {
	dir := writeScripts(t, "clean.do", "model.do")
	m := manifestWithTasks(map[string]project.TaskDef{
		"clean":   {Script: "clean.do"},
		"analyze": {Script: "model.do"},
		"all":     {Steps: []string{"clean", "analyze"}},
	})

	var executed []string
	var mu sync.Mutex
	engine := NewEngine(m, dir, okRunner(&executed, &mu), 1)

	batch, err := engine.Run(context.Background(), "all")
	if err != nil {
		t.Fatal(err)
	}
	if batch.SuccessCount != 2 {
		t.Errorf("batch = %+v", batch)
	}
	if len(executed) != 2 || executed[0] != "clean.do" || executed[1] != "model.do" {
		t.Errorf("executed = %v", executed)
	}
}

func TestRunParallelGroupCompletesAll(t *testing.T) {
	dir := writeScripts(t, "fig1.do", "fig2.do", "fig3.do")
	m := manifestWithTasks(map[string]project.TaskDef{
		"figures": {Parallel: []string{"fig1", "fig2", "fig3"}},
	})

	var executed []string
	var mu sync.Mutex
	runner := runnerFunc(func(_ context.Context, script string) (types.RunReport, error) {
		mu.Lock()
		executed = append(executed, filepath.Base(script))
		mu.Unlock()
		if filepath.Base(script) == "fig2.do" {
			return types.RunReport{Script: script, ExitCode: 1}, nil
		}
		return types.RunReport{Script: script, Success: true}, nil
	})
	engine := NewEngine(m, dir, runner, 2)

	batch, err := engine.Run(context.Background(), "figures")
	if err != nil {
		t.Fatal(err)
	}
	if batch.Success {
		t.Error("failing member must fail the group")
	}
	if len(executed) != 3 {
		t.Errorf("parallel group must complete all members, executed %v", executed)
	}
	if batch.SuccessCount != 2 || batch.FailedCount != 1 {
		t.Errorf("counts = %d/%d", batch.SuccessCount, batch.FailedCount)
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	m := manifestWithTasks(map[string]project.TaskDef{
		"a": {Steps: []string{"b"}},
		"b": {Steps: []string{"c"}},
		"c": {Steps: []string{"a"}},
	})
	engine := NewEngine(m, t.TempDir(), nil, 1)

	err := engine.Validate()
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(err.Error(), "a -> b -> c -> a") {
		t.Errorf("cycle path missing from error: %v", err)
	}
}

func TestValidateUnknownReference(t *testing.T) {
	m := manifestWithTasks(map[string]project.TaskDef{
		"all": {Steps: []string{"ghost"}},
	})
	engine := NewEngine(m, t.TempDir(), nil, 1)

	if err := engine.Validate(); err == nil {
		t.Fatal("step referencing neither a task nor a script should fail")
	}
}

func TestValidateAcceptsScriptSteps(t *testing.T) {
	dir := writeScripts(t, "setup.do")
	m := manifestWithTasks(map[string]project.TaskDef{
		"all": {Steps: []string{"setup"}},
	})
	engine := NewEngine(m, dir, nil, 1)

	if err := engine.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestUnknownTaskSuggestsNearMatches(t *testing.T) {
	dir := writeScripts(t, "clean.do")
	m := manifestWithTasks(map[string]project.TaskDef{
		"clean": {Script: "clean.do"},
		"build": {Script: "clean.do"},
	})
	engine := NewEngine(m, dir, nil, 1)

	_, err := engine.Run(context.Background(), "claen")
	if err == nil {
		t.Fatal("expected unknown task error")
	}
	if !strings.Contains(err.Error(), "clean") {
		t.Errorf("suggestion missing: %v", err)
	}
	if strings.Contains(err.Error(), "build") {
		t.Errorf("distant name should not be suggested: %v", err)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"clean", "clean", 0},
		{"clean", "claen", 2},
		{"figures", "figure", 1},
		{"all", "build", 4},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
