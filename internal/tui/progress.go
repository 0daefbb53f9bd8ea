// Package tui renders pipeline progress and results in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"interiordesigner/internal/design"
	"interiordesigner/internal/events"
)

// Work is the pipeline run being watched.
type Work func(ctx context.Context) (design.Session, error)

// ErrInterrupted is returned when the user quits the spinner before the run ends.
var ErrInterrupted = errors.New("tui: interrupted")

// IsInteractive reports whether w is a terminal the spinner can draw on.
func IsInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type eventMsg events.Event

type resultMsg struct {
	session design.Session
	err     error
}

// Model is the bubbletea model for one run.
type Model struct {
	runID    string
	events   <-chan events.Event
	spinner  spinner.Model
	title    string
	current  string
	finished []string
	result   *resultMsg
	quitting bool
}

// NewModel builds a model listening on ch for events of runID.
func NewModel(title, runID string, ch <-chan events.Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return Model{
		runID:   runID,
		events:  ch,
		spinner: sp,
		title:   title,
		current: "Starting...",
	}
}

// Init starts the spinner and the event listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(evt)
	}
}

// Update handles events, results, spinner ticks and ctrl+c.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case eventMsg:
		if msg.RunID == m.runID && msg.Message != "" {
			if m.current != "" && m.current != "Starting..." {
				m.finished = append(m.finished, m.current)
			}
			m.current = msg.Message
		}
		return m, waitForEvent(m.events)
	case resultMsg:
		m.result = &msg
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View draws the finished stages and the spinner on the current one.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	for _, line := range m.finished {
		b.WriteString(doneStyle.Render("✓ ") + mutedStyle.Render(line) + "\n")
	}
	switch {
	case m.result != nil && m.result.err != nil:
		b.WriteString(errorStyle.Render("✗ "+m.result.err.Error()) + "\n")
	case m.result != nil:
		b.WriteString(doneStyle.Render("✓ ") + m.current + "\n")
	case m.quitting:
		b.WriteString(errorStyle.Render("interrupted") + "\n")
	default:
		b.WriteString(m.spinner.View() + " " + m.current + "\n")
	}
	return b.String()
}

// Run executes work while drawing a spinner on w. Progress comes from the
// broker's events for runID. Quitting with ctrl+c cancels work.
func Run(ctx context.Context, w io.Writer, title string, broker *events.Broker, runID string, work Work) (design.Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := broker.SubscribeRun(runID)
	defer broker.Unsubscribe(ch)

	program := tea.NewProgram(NewModel(title, runID, ch), tea.WithOutput(w), tea.WithContext(ctx))

	done := make(chan resultMsg, 1)
	go func() {
		session, err := work(ctx)
		res := resultMsg{session: session, err: err}
		done <- res
		program.Send(res)
	}()

	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		res := <-done
		if res.err != nil {
			return res.session, res.err
		}
		return res.session, fmt.Errorf("tui: %w", err)
	}
	if m, ok := final.(Model); ok && m.quitting {
		cancel()
		<-done
		return design.Session{}, ErrInterrupted
	}
	res := <-done
	return res.session, res.err
}

// RunPlain executes work and prints one log line per progress event. It is
// used when output is not a terminal.
func RunPlain(ctx context.Context, w io.Writer, broker *events.Broker, runID string, work Work) (design.Session, error) {
	ch := broker.SubscribeRun(runID)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for evt := range ch {
			if evt.Message == "" {
				continue
			}
			fmt.Fprintf(w, "[%s] %s\n", evt.Stage, evt.Message)
		}
	}()

	session, err := work(ctx)
	broker.Unsubscribe(ch)
	<-printed
	return session, err
}
