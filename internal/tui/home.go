package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/coordinator"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

type homeField int

const (
	homeModels homeField = iota
	homeVectors
	homeNewVector
	homeFieldCount
)

type vectorCreatedMsg struct{ engine pixel.Engine }

// homeScreen picks the model and vector database the other tabs work with.
type homeScreen struct {
	vctx   *appctx.Context
	notify *Notifier

	models  picker
	vectors picker
	name    textinput.Model
	field   homeField

	vectorList *coordinator.Fetcher[[]pixel.Engine]
	create     *coordinator.Setter[pixel.Engine]
}

func newHome(v *appctx.Context, n *Notifier) *homeScreen {
	name := textinput.New()
	name.Placeholder = "name of a new vector database"
	name.Prompt = "› "
	name.CharLimit = 64

	list := pixel.MyEngines{Types: []pixel.EngineType{pixel.EngineVector}}
	if tag := v.Settings().TrainingTag; tag != "" {
		list.MetaFilters = map[string]string{"tag": tag}
	}
	return &homeScreen{
		vctx:       v,
		notify:     n,
		models:     newPicker("Model"),
		vectors:    newPicker("Vector database"),
		name:       name,
		vectorList: appctx.Fetch[[]pixel.Engine](v, appctx.Source(list), nil, coordinator.Options{OnChange: n.Changed}),
		create:     appctx.Set[pixel.Engine](v, coordinator.Options{OnChange: n.Changed}),
	}
}

func (h *homeScreen) title() string { return "Home" }

func (h *homeScreen) mount() tea.Cmd {
	h.vectorList.Mount()
	return h.focus()
}

func (h *homeScreen) focus() tea.Cmd {
	h.models.blur()
	h.vectors.blur()
	h.name.Blur()
	switch h.field {
	case homeModels:
		return h.models.focus()
	case homeVectors:
		return h.vectors.focus()
	default:
		return h.name.Focus()
	}
}

func (h *homeScreen) update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case vectorCreatedMsg:
		h.vectors.selected = m.engine
		h.name.Reset()
		return emit(vectorChosenMsg{engine: m.engine})
	case tea.KeyMsg:
		if key.Matches(m, keys.Focus) {
			step := homeField(1)
			if m.String() == "shift+tab" {
				step = homeFieldCount - 1
			}
			h.field = (h.field + step) % homeFieldCount
			return h.focus()
		}
		switch h.field {
		case homeModels:
			changed, cmd := h.models.update(m, h.vctx.Models())
			if changed {
				return tea.Batch(cmd, emit(modelChosenMsg{engine: h.models.selected}))
			}
			return cmd
		case homeVectors:
			changed, cmd := h.vectors.update(m, h.vectorList.Value())
			if changed {
				return tea.Batch(cmd, emit(vectorChosenMsg{engine: h.vectors.selected}))
			}
			return cmd
		default:
			if key.Matches(m, keys.Submit) {
				h.createVector()
				return nil
			}
			var cmd tea.Cmd
			h.name, cmd = h.name.Update(m)
			return cmd
		}
	}
	return nil
}

func (h *homeScreen) createVector() {
	name := strings.TrimSpace(h.name.Value())
	if name == "" {
		h.vctx.Notify("Enter a name for the vector database", appctx.SeverityWarning)
		return
	}
	h.create.Do(func(ctx context.Context) (pixel.Engine, error) {
		return h.vctx.CreateVector(ctx, name)
	}, func(e pixel.Engine) {
		h.vectorList.Refetch()
		h.notify.Post(vectorCreatedMsg{engine: e})
	}, reportError(h.vctx))
}

func (h *homeScreen) refresh() {}

func (h *homeScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Home") + "\n")
	if u, ok := h.vctx.User(); ok {
		fmt.Fprintf(&b, "Welcome, %s.\n", u.Name)
	}
	b.WriteString("\n")
	b.WriteString(h.models.view(h.vctx.Models(), h.vctx.EnginesLoading(), f.spin) + "\n")
	b.WriteString(h.vectors.view(h.vectorList.Value(), h.vectorList.Loading(), f.spin) + "\n")

	b.WriteString(labelStyle.Render("New vector database"))
	if h.create.Loading() {
		b.WriteString(" " + f.spin + " creating...")
	}
	b.WriteString("\n" + h.name.View())
	return b.String()
}

func (h *homeScreen) hints() []key.Binding {
	return []key.Binding{keys.Focus, keys.Up, keys.Down, keys.Submit}
}

func (h *homeScreen) capturing() bool { return true }

func (h *homeScreen) close() {
	h.vectorList.Close()
	h.create.Close()
}
