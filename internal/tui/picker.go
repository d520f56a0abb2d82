package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEMOSS/procode-training/internal/pixel"
)

const pickerRows = 5

// picker chooses one engine from a list, filtered by typing.
type picker struct {
	label    string
	filter   textinput.Model
	cursor   int
	selected pixel.Engine
}

func newPicker(label string) picker {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Prompt = "› "
	ti.CharLimit = 64
	return picker{label: label, filter: ti}
}

func (p *picker) focus() tea.Cmd {
	return p.filter.Focus()
}

func (p *picker) blur() {
	p.filter.Blur()
}

// update handles a key while the picker is focused and reports whether the
// selection changed.
func (p *picker) update(msg tea.KeyMsg, items []pixel.Engine) (bool, tea.Cmd) {
	ranked := rankEngines(items, p.filter.Value())
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		return false, nil
	case key.Matches(msg, keys.Down):
		if p.cursor < len(ranked)-1 {
			p.cursor++
		}
		return false, nil
	case key.Matches(msg, keys.Submit):
		if p.cursor < len(ranked) && ranked[p.cursor].ID != p.selected.ID {
			p.selected = ranked[p.cursor]
			return true, nil
		}
		return false, nil
	}
	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(msg)
	p.cursor = 0
	return false, cmd
}

func (p *picker) view(items []pixel.Engine, loading bool, spin string) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(p.label))
	if p.selected.ID != "" {
		b.WriteString(": " + selectedStyle.Render(p.selected.Name))
	}
	if loading {
		b.WriteString(" " + spin)
	}
	b.WriteString("\n")
	if !p.filter.Focused() {
		return b.String()
	}
	b.WriteString(p.filter.View() + "\n")

	ranked := rankEngines(items, p.filter.Value())
	if len(ranked) == 0 {
		b.WriteString(mutedStyle.Render("  (no matches)") + "\n")
		return b.String()
	}
	start := 0
	if p.cursor >= pickerRows {
		start = p.cursor - pickerRows + 1
	}
	for i := start; i < len(ranked) && i < start+pickerRows; i++ {
		marker := " "
		if i == p.cursor {
			marker = "▶"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, ranked[i].Name)
	}
	return b.String()
}

// rankEngines orders items for a filter query. Names containing the query
// come first (earliest match first); otherwise a name qualifies when one of
// its words is within a small edit distance of the query.
func rankEngines(items []pixel.Engine, query string) []pixel.Engine {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := slices.Clone(items)
		slices.SortStableFunc(out, func(a, b pixel.Engine) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
		return out
	}

	type scored struct {
		engine pixel.Engine
		tier   int
		score  int
	}
	limit := max(1, len([]rune(q))/3)
	var ranked []scored
	for _, e := range items {
		name := strings.ToLower(e.Name)
		if i := strings.Index(name, q); i >= 0 {
			ranked = append(ranked, scored{engine: e, tier: 0, score: i})
			continue
		}
		if d := closestWord(q, name); d <= limit {
			ranked = append(ranked, scored{engine: e, tier: 1, score: d})
		}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		if a.tier != b.tier {
			return a.tier - b.tier
		}
		if a.score != b.score {
			return a.score - b.score
		}
		return strings.Compare(strings.ToLower(a.engine.Name), strings.ToLower(b.engine.Name))
	})
	out := make([]pixel.Engine, len(ranked))
	for i, s := range ranked {
		out[i] = s.engine
	}
	return out
}

func closestWord(q, name string) int {
	best := levenshtein.ComputeDistance(q, name)
	for _, w := range strings.FieldsFunc(name, func(r rune) bool { return r == ' ' || r == '-' || r == '_' }) {
		best = min(best, levenshtein.ComputeDistance(q, w))
	}
	return best
}
