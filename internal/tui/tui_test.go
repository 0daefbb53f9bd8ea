package tui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interiordesigner/internal/design"
	"interiordesigner/internal/events"
)

func TestModelTracksStagesForItsRun(t *testing.T) {
	m := NewModel("Analyzing", "run-1", nil)

	next, _ := m.Update(eventMsg{RunID: "run-1", Stage: "analyze", Message: "Analyzing room..."})
	next, _ = next.Update(eventMsg{RunID: "other", Stage: "analyze", Message: "ignored"})
	next, _ = next.Update(eventMsg{RunID: "run-1", Stage: "recommend", Message: "Generating recommendations..."})
	m = next.(Model)

	assert.Equal(t, []string{"Analyzing room..."}, m.finished)
	assert.Equal(t, "Generating recommendations...", m.current)
	view := m.View()
	assert.Contains(t, view, "Analyzing room...")
	assert.Contains(t, view, "Generating recommendations...")
	assert.NotContains(t, view, "ignored")
}

func TestModelQuitsOnResult(t *testing.T) {
	m := NewModel("Analyzing", "run-1", nil)
	next, cmd := m.Update(resultMsg{err: errors.New("service error: claude exited")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, next.View(), "claude exited")
}

func TestModelCtrlCQuits(t *testing.T) {
	m := NewModel("Analyzing", "run-1", nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).quitting)
	assert.Contains(t, next.View(), "interrupted")
}

func TestRunPlainPrintsEvents(t *testing.T) {
	broker := events.NewBroker()
	var out bytes.Buffer

	session, err := RunPlain(context.Background(), &out, broker, "run-1", func(context.Context) (design.Session, error) {
		broker.Publish(events.Event{RunID: "run-1", Stage: "analyze", Message: "Analyzing room..."})
		broker.Publish(events.Event{RunID: "run-2", Stage: "analyze", Message: "someone else"})
		broker.Publish(events.Event{RunID: "run-1", Stage: "complete", Message: "Complete!"})
		return design.Session{ID: "s1"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, "[analyze] Analyzing room...\n[complete] Complete!\n", out.String())
	assert.Zero(t, broker.Subscribers())
}

func TestPrintSession(t *testing.T) {
	s := design.SampleSession("20250101_120000_abcdef12", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s.Dir = "/tmp/out/" + s.ID
	s.ReportPath = s.Dir + "/report.pdf"
	s.Warnings = []string{"visualize: timeout"}

	var out bytes.Buffer
	PrintSession(&out, s)

	text := out.String()
	assert.Contains(t, text, "Executive Summary")
	assert.Contains(t, text, s.Recommendations[0].Title())
	assert.Contains(t, text, "[HIGH]")
	assert.Contains(t, text, "visualize: timeout")
	assert.Contains(t, text, s.ReportPath)
}

func TestPrintModelsMarksCurrent(t *testing.T) {
	var out bytes.Buffer
	PrintModels(&out, "opus")
	assert.Contains(t, out.String(), "sonnet")
	assert.Contains(t, out.String(), "*")
}

func TestIsInteractiveRejectsBuffers(t *testing.T) {
	assert.False(t, IsInteractive(&bytes.Buffer{}))
}
