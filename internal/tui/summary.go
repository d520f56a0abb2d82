package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/coordinator"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

type summaryMsg struct {
	vectorID string
	text     string
}

// summaryScreen asks the chosen model to summarize the chosen vector
// database.
type summaryScreen struct {
	vctx   *appctx.Context
	notify *Notifier

	vector pixel.Engine
	model  pixel.Engine
	run    *coordinator.Setter[string]
	text   string
}

func newSummary(v *appctx.Context, n *Notifier) *summaryScreen {
	return &summaryScreen{
		vctx:   v,
		notify: n,
		run:    appctx.Set[string](v, coordinator.Options{OnChange: n.Changed}),
	}
}

func (s *summaryScreen) title() string { return "Summary" }

func (s *summaryScreen) mount() tea.Cmd { return nil }

func (s *summaryScreen) update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case vectorChosenMsg:
		if m.engine.ID != s.vector.ID {
			s.text = ""
		}
		s.vector = m.engine
	case modelChosenMsg:
		s.model = m.engine
	case summaryMsg:
		if m.vectorID == s.vector.ID {
			s.text = m.text
		}
	case tea.KeyMsg:
		if key.Matches(m, keys.Submit) {
			s.summarize()
		}
	}
	return nil
}

func (s *summaryScreen) summarize() {
	if s.vector.ID == "" || s.model.ID == "" {
		s.vctx.Notify("Choose a model and a vector database on the Home tab first", appctx.SeverityWarning)
		return
	}
	vectorID, modelID := s.vector.ID, s.model.ID
	s.run.Do(func(ctx context.Context) (string, error) {
		return s.vctx.Summarize(ctx, vectorID, modelID)
	}, func(text string) {
		s.notify.Post(summaryMsg{vectorID: vectorID, text: text})
	}, reportError(s.vctx))
}

func (s *summaryScreen) refresh() {}

func (s *summaryScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Summary") + "\n")
	b.WriteString(labelStyle.Render("Model: ") + orNone(s.model.Name) + "\n")
	b.WriteString(labelStyle.Render("Vector database: ") + orNone(s.vector.Name) + "\n\n")

	switch {
	case s.run.Loading():
		b.WriteString(f.spin + " summarizing...")
	case s.text != "":
		width := max(20, f.width-4)
		b.WriteString(boxStyle.Width(width).Render(lipgloss.NewStyle().Width(width - 4).Render(s.text)))
	default:
		b.WriteString(mutedStyle.Render("Press enter to summarize the documents."))
	}
	return b.String()
}

func (s *summaryScreen) hints() []key.Binding {
	return []key.Binding{keys.Submit}
}

func (s *summaryScreen) capturing() bool { return false }

func (s *summaryScreen) close() {
	s.run.Close()
}

func orNone(name string) string {
	if name == "" {
		return mutedStyle.Render("(none)")
	}
	return selectedStyle.Render(name)
}
