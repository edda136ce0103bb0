// Package tui provides the Bubble Tea progress view for parallel
// script execution.
//
// TUI rules:
//   - TUI is opt-in only (--ui flag)
//   - The view renders the same data the plain renderer would; no
//     TUI-exclusive information
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/stax/runtime"
	"github.com/justapithecus/stax/types"
)

// scriptState tracks one script's lifecycle in the view.
type scriptState int

const (
	statePending scriptState = iota
	stateRunning
	stateSucceeded
	stateFailed
)

type startedMsg struct{ script string }

type finishedMsg struct {
	script  string
	success bool
}

type batchDoneMsg struct {
	batch types.BatchReport
	err   error
}

// progressModel renders a spinner per in-flight script and a status
// line per finished one.
type progressModel struct {
	title   string
	order   []string
	states  map[string]scriptState
	spinner spinner.Model

	batch    types.BatchReport
	err      error
	quitting bool
	cancel   context.CancelFunc
}

func newProgressModel(title string, scripts []string, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = WarningStyle

	states := make(map[string]scriptState, len(scripts))
	for _, script := range scripts {
		states[script] = statePending
	}
	return progressModel{
		title:   title,
		order:   scripts,
		states:  states,
		spinner: s,
		cancel:  cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			m.cancel()
			return m, nil
		}
		return m, nil

	case startedMsg:
		m.states[msg.script] = stateRunning
		return m, nil

	case finishedMsg:
		if msg.success {
			m.states[msg.script] = stateSucceeded
		} else {
			m.states[msg.script] = stateFailed
		}
		return m, nil

	case batchDoneMsg:
		m.batch = msg.batch
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")

	for _, script := range m.order {
		switch m.states[script] {
		case stateRunning:
			fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), script)
		case stateSucceeded:
			fmt.Fprintf(&b, "%s %s\n", SuccessStyle.Render("✓"), script)
		case stateFailed:
			fmt.Fprintf(&b, "%s %s\n", ErrorStyle.Render("✗"), script)
		default:
			fmt.Fprintf(&b, "%s\n", MutedStyle.Render("· "+script))
		}
	}

	if m.quitting {
		b.WriteString(MutedStyle.Render("cancelling...") + "\n")
	} else {
		b.WriteString(HelpStyle.Render("q/ctrl+c to cancel") + "\n")
	}
	return b.String()
}

// reportingRunner wraps a ScriptRunner, forwarding lifecycle events to
// the view.
type reportingRunner struct {
	inner   runtime.ScriptRunner
	program *tea.Program
}

func (r *reportingRunner) Run(ctx context.Context, script string) (types.RunReport, error) {
	r.program.Send(startedMsg{script: script})
	report, err := r.inner.Run(ctx, script)
	r.program.Send(finishedMsg{script: script, success: err == nil && report.Success})
	return report, err
}

// RunParallelWithProgress executes scripts through the bounded pool
// while showing the live progress view. The batch result is identical
// to runtime.RunParallel's.
func RunParallelWithProgress(ctx context.Context, title string, inner runtime.ScriptRunner, scripts []string, workers int) (types.BatchReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newProgressModel(title, scripts, cancel))

	go func() {
		runner := &reportingRunner{inner: inner, program: program}
		batch, err := runtime.RunParallel(ctx, runner, scripts, workers)
		program.Send(batchDoneMsg{batch: batch, err: err})
	}()

	final, err := program.Run()
	if err != nil {
		return types.BatchReport{}, fmt.Errorf("progress view failed: %w", err)
	}

	m := final.(progressModel)
	return m.batch, m.err
}
