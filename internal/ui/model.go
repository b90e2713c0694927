package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nconklindev/tabjson/internal/batch"
	"github.com/nconklindev/tabjson/internal/types"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateProcessing state = iota
	stateComplete
	stateError
)

const maxProgressWidth = 60

// Model shows a batch run as it converts one job at a time.
type Model struct {
	state    state
	ctx      context.Context
	cancel   context.CancelFunc
	runner   *batch.Runner
	jobs     []types.Job
	current  int
	summary  batch.Summary
	width    int
	progress progress.Model
	// stopping is set once the user asks to quit. The job in flight still
	// reports back before the program exits.
	stopping bool
}

type jobDoneMsg batch.JobResult

func NewModel(ctx context.Context, runner *batch.Runner, jobs []types.Job) Model {
	ctx, cancel := context.WithCancel(ctx)

	prog := progress.New(progress.WithGradient("#FF8C42", "#FF9F5A"))
	prog.Width = maxProgressWidth

	return Model{
		state:    stateProcessing,
		ctx:      ctx,
		cancel:   cancel,
		runner:   runner,
		jobs:     jobs,
		summary:  batch.Summary{RunID: runner.RunID()},
		progress: prog,
	}
}

func (m Model) Init() tea.Cmd {
	if len(m.jobs) == 0 {
		return tea.Quit
	}
	return m.runJob()
}

// runJob converts the current job off the update loop. Jobs still run one
// after another: the next is only started once this one reports back.
func (m Model) runJob() tea.Cmd {
	runner, ctx, job := m.runner, m.ctx, m.jobs[m.current]
	return func() tea.Msg {
		return jobDoneMsg(runner.RunJob(ctx, job))
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-8, maxProgressWidth)
		if m.progress.Width < 10 {
			m.progress.Width = 10
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.stopping {
				m.stopping = true
				m.cancel()
			}
			return m, nil
		}

	case jobDoneMsg:
		m.summary.Add(batch.JobResult(msg))
		m.current++
		if m.current < len(m.jobs) && !m.stopping {
			return m, m.runJob()
		}
		m.cancel()
		if m.summary.HasFailures() {
			m.state = stateError
		} else {
			m.state = stateComplete
		}
		return m, tea.Quit
	}

	return m, nil
}

// Summary returns the results gathered so far. Jobs the view never reached,
// because the user quit early, are reported as skipped.
func (m Model) Summary() batch.Summary {
	s := m.summary
	s.Results = append([]batch.JobResult(nil), m.summary.Results...)
	for _, job := range m.jobs[len(s.Results):] {
		s.Add(batch.JobResult{Job: job, Status: batch.StatusSkipped, Err: context.Canceled})
	}
	return s
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) percent() float64 {
	if len(m.jobs) == 0 {
		return 1
	}
	return float64(len(m.summary.Results)) / float64(len(m.jobs))
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⇄ tabjson - Converting tables to JSON"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Run %s", m.summary.RunID)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.ViewAs(m.percent()))
	s.WriteString("\n\n")
	s.WriteString(m.viewJobs())
	s.WriteString("\n")
	if m.stopping {
		s.WriteString(HelpStyle.Render("Stopping after the current file..."))
	} else {
		s.WriteString(HelpStyle.Render("Press q to stop after the current file"))
	}

	return BoxStyle.Render(s.String())
}

func (m Model) viewJobs() string {
	var s strings.Builder

	for i, job := range m.jobs {
		name := m.truncate(filepath.Base(job.Source) + " → " + filepath.Base(job.Destination))

		var line string
		switch {
		case i < len(m.summary.Results):
			r := m.summary.Results[i]
			switch r.Status {
			case batch.StatusConverted, batch.StatusChecked:
				line = SuccessStyle.Render(fmt.Sprintf("✓ %s (%d rows)", name, r.Result.RowsProcessed))
			case batch.StatusFailed:
				line = ErrorStyle.Render("✗ " + name)
			default:
				line = UnselectedStyle.Render("- " + name)
			}
		case i == m.current:
			line = SelectedStyle.Render("> " + name)
		default:
			line = PendingStyle.Render("  " + name)
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	return s.String()
}

func (m Model) viewComplete() string {
	var s strings.Builder

	if m.stopping && m.current < len(m.jobs) {
		s.WriteString(TitleStyle.Render(fmt.Sprintf("■ Stopped after %d of %d files", m.current, len(m.jobs))))
	} else {
		s.WriteString(TitleStyle.Render("✓ Conversion Complete!"))
	}
	s.WriteString("\n\n")
	s.WriteString(m.viewJobs())
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Files converted: %d\n", m.summary.Converted+m.summary.Checked))
	s.WriteString(fmt.Sprintf("Rows written: %d\n", m.rows()))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render(fmt.Sprintf("✗ %d of %d files failed", m.summary.Failed, len(m.jobs))))
	s.WriteString("\n\n")
	s.WriteString(m.viewJobs())
	for _, r := range m.summary.Results {
		if r.Status == batch.StatusFailed {
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Width(m.textWidth()).Render(r.Err.Error()))
		}
	}

	return BoxStyle.Render(s.String())
}

func (m Model) rows() int {
	n := 0
	for _, r := range m.summary.Results {
		if r.Result != nil {
			n += r.Result.RowsProcessed
		}
	}
	return n
}

func (m Model) textWidth() int {
	w := m.width - 8 // border and padding
	if w < 30 {
		w = 30
	}
	return w
}

// truncate shortens long job labels from the left, keeping the file names.
func (m Model) truncate(s string) string {
	maxLen := m.textWidth() - 16
	r := []rune(s)
	if maxLen < 20 || len(r) <= maxLen {
		return s
	}
	return "..." + string(r[len(r)-maxLen+3:])
}
