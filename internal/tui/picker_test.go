package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SEMOSS/procode-training/internal/pixel"
)

func names(engines []pixel.Engine) []string {
	out := make([]string, len(engines))
	for i, e := range engines {
		out[i] = e.Name
	}
	return out
}

func TestRankEngines(t *testing.T) {
	t.Parallel()
	items := []pixel.Engine{
		{ID: "1", Name: "Dev Text Model"},
		{ID: "2", Name: "claude-sonnet"},
		{ID: "3", Name: "GPT-4o"},
		{ID: "4", Name: "Text Embedder"},
	}

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty sorts by name", "", []string{"claude-sonnet", "Dev Text Model", "GPT-4o", "Text Embedder"}},
		{"substring earliest first", "text", []string{"Text Embedder", "Dev Text Model"}},
		{"case insensitive", "gpt", []string{"GPT-4o"}},
		{"typo within distance", "clade", []string{"claude-sonnet"}},
		{"no match", "zzz", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, names(rankEngines(items, tc.query)))
		})
	}
}

func TestPicker_SelectsHighlighted(t *testing.T) {
	t.Parallel()
	items := []pixel.Engine{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}}
	p := newPicker("Model")
	p.focus()

	changed, _ := p.update(tea.KeyMsg{Type: tea.KeyDown}, items)
	require.False(t, changed)
	changed, _ = p.update(tea.KeyMsg{Type: tea.KeyEnter}, items)
	require.True(t, changed)
	assert.Equal(t, "b", p.selected.ID)

	changed, _ = p.update(tea.KeyMsg{Type: tea.KeyEnter}, items)
	assert.False(t, changed, "same engine again is not a change")

	p.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("alp")}, items)
	assert.Equal(t, "alp", p.filter.Value())
	assert.Equal(t, 0, p.cursor)
	changed, _ = p.update(tea.KeyMsg{Type: tea.KeyEnter}, items)
	require.True(t, changed)
	assert.Equal(t, "a", p.selected.ID)
}
