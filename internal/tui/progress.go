// Package tui renders a live progress view for a send run.
package tui

import (
	"context"
	"fmt"
	"strings"

	barpkg "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"roomcast/model"
	"roomcast/progress"
)

const maxLogLines = 8

type updateMsg progress.Update

type doneMsg struct {
	resp model.Response
	err  error
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type runModel struct {
	title  string
	bar    barpkg.Model
	last   progress.Update
	lines  []string
	cancel func()

	cancelling bool
	done       bool
	resp       model.Response
	err        error
}

func newRunModel(title string, cancel func()) runModel {
	return runModel{
		title:  title,
		bar:    barpkg.New(barpkg.WithDefaultGradient(), barpkg.WithWidth(40)),
		cancel: cancel,
	}
}

func (m runModel) Init() tea.Cmd { return nil }

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.last = progress.Update(msg)
		if msg.Message != "" && (len(m.lines) == 0 || m.lines[len(m.lines)-1] != msg.Message) {
			m.lines = append(m.lines, msg.Message)
			if len(m.lines) > maxLogLines {
				m.lines = m.lines[len(m.lines)-maxLogLines:]
			}
		}
		return m, nil
	case doneMsg:
		m.done = true
		m.resp = msg.resp
		m.err = msg.err
		return m, tea.Quit
	case tea.WindowSizeMsg:
		w := msg.Width - 8
		if w > 60 {
			w = 60
		}
		if w > 10 {
			m.bar.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && m.cancel != nil {
				m.cancelling = true
				m.cancel()
			}
		}
		return m, nil
	}
	return m, nil
}

func (m runModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.last.Fraction()))
	fmt.Fprintf(&b, "  %d/%d\n", m.last.Current, m.last.Total)

	if len(m.lines) > 0 {
		b.WriteString(panelStyle.Render(strings.Join(m.lines, "\n")))
		b.WriteString("\n")
	}

	switch {
	case m.done && m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	case m.done && m.resp.Success:
		b.WriteString(okStyle.Render(m.resp.Message))
	case m.done:
		b.WriteString(errorStyle.Render(m.resp.Message))
	case m.cancelling:
		b.WriteString(mutedStyle.Render("cancelling after the current step..."))
	default:
		b.WriteString(mutedStyle.Render("do not touch the keyboard or mouse • q to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// RunFunc performs the run, reporting into rep.
type RunFunc func(ctx context.Context, rep progress.Reporter) (model.Response, error)

// Run shows the progress view while fn runs. Pressing q or Ctrl+C cancels ctx
// passed to fn; the view stays until fn returns.
func Run(ctx context.Context, title string, fn RunFunc) (model.Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newRunModel(title, cancel))

	go func() {
		resp, err := fn(ctx, progress.Func(func(u progress.Update) { p.Send(updateMsg(u)) }))
		p.Send(doneMsg{resp: resp, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return model.Response{}, err
	}
	m := final.(runModel)
	return m.resp, m.err
}
