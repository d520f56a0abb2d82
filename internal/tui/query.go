package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/coordinator"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

type queryField int

const (
	queryModel queryField = iota
	queryDatabase
	queryQuestion
	queryFieldCount
)

const (
	minColumnWidth = 8
	maxColumnWidth = 30
)

type queryResultMsg struct{ resp pixel.QueryResponse }

// queryScreen turns a question into SQL with a model and shows the result
// rows.
type queryScreen struct {
	vctx   *appctx.Context
	notify *Notifier

	models    picker
	databases picker
	question  textinput.Model
	field     queryField

	run    *coordinator.Setter[pixel.QueryResponse]
	result *pixel.QueryResponse
	table  table.Model
}

func newQuery(v *appctx.Context, n *Notifier) *queryScreen {
	q := textinput.New()
	q.Placeholder = "ask a question about the data"
	q.Prompt = "› "
	q.CharLimit = 512
	return &queryScreen{
		vctx:      v,
		notify:    n,
		models:    newPicker("Model"),
		databases: newPicker("Database"),
		question:  q,
		run:       appctx.Set[pixel.QueryResponse](v, coordinator.Options{OnChange: n.Changed}),
		table:     table.New(table.WithHeight(10), table.WithFocused(true)),
	}
}

func (q *queryScreen) title() string { return "Query" }

func (q *queryScreen) mount() tea.Cmd {
	return q.focus()
}

func (q *queryScreen) focus() tea.Cmd {
	q.models.blur()
	q.databases.blur()
	q.question.Blur()
	switch q.field {
	case queryModel:
		return q.models.focus()
	case queryDatabase:
		return q.databases.focus()
	default:
		return q.question.Focus()
	}
}

func (q *queryScreen) update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case queryResultMsg:
		q.show(m.resp)
	case tea.KeyMsg:
		if key.Matches(m, keys.Focus) {
			step := queryField(1)
			if m.String() == "shift+tab" {
				step = queryFieldCount - 1
			}
			q.field = (q.field + step) % queryFieldCount
			return q.focus()
		}
		switch q.field {
		case queryModel:
			_, cmd := q.models.update(m, q.vctx.Models())
			return cmd
		case queryDatabase:
			_, cmd := q.databases.update(m, q.vctx.Databases())
			return cmd
		default:
			return q.updateQuestion(m)
		}
	}
	return nil
}

func (q *queryScreen) updateQuestion(m tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(m, keys.Submit):
		q.submit()
		return nil
	case key.Matches(m, keys.Up, keys.Down):
		var cmd tea.Cmd
		q.table, cmd = q.table.Update(m)
		return cmd
	}
	var cmd tea.Cmd
	q.question, cmd = q.question.Update(m)
	return cmd
}

func (q *queryScreen) submit() {
	question := strings.TrimSpace(q.question.Value())
	switch {
	case q.models.selected.ID == "" || q.databases.selected.ID == "":
		q.vctx.Notify("Choose a model and a database first", appctx.SeverityWarning)
		return
	case question == "":
		q.vctx.Notify("Enter a question", appctx.SeverityWarning)
		return
	}
	cmd := pixel.QueryDatabase{
		Model:    q.models.selected.ID,
		Question: question,
		Database: q.databases.selected.ID,
	}
	appctx.Submit(q.run, cmd, func(resp pixel.QueryResponse) {
		q.notify.Post(queryResultMsg{resp: resp})
	}, reportError(q.vctx))
}

func (q *queryScreen) show(resp pixel.QueryResponse) {
	q.result = &resp

	cols := make([]table.Column, 0, len(resp.ResultSet.Columns))
	for _, c := range resp.ResultSet.Columns {
		title := c.Label
		if title == "" {
			title = c.Key
		}
		cols = append(cols, table.Column{Title: title, Width: min(maxColumnWidth, max(minColumnWidth, len(title)))})
	}
	rows := make([]table.Row, 0, len(resp.ResultSet.Rows))
	for _, r := range resp.ResultSet.Rows {
		row := make(table.Row, len(cols))
		for i := range row {
			if i < len(r) {
				row[i] = formatCell(r[i])
			}
		}
		rows = append(rows, row)
	}
	// Rows must never be wider than the columns while they are swapped.
	q.table.SetRows(nil)
	q.table.SetColumns(cols)
	q.table.SetRows(rows)
	q.table.SetCursor(0)
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.4g", v)
	default:
		return fmt.Sprint(v)
	}
}

func (q *queryScreen) refresh() {}

func (q *queryScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Query") + "\n\n")
	b.WriteString(q.models.view(q.vctx.Models(), q.vctx.EnginesLoading(), f.spin) + "\n")
	b.WriteString(q.databases.view(q.vctx.Databases(), q.vctx.EnginesLoading(), f.spin) + "\n")
	b.WriteString(labelStyle.Render("Question"))
	if q.run.Loading() {
		b.WriteString(" " + f.spin + " querying...")
	}
	b.WriteString("\n" + q.question.View() + "\n")

	if q.result == nil {
		return b.String()
	}
	b.WriteString("\n" + labelStyle.Render("SQL") + "\n" + codeStyle.Render(q.result.SQL) + "\n")
	if q.result.Explanation != "" {
		b.WriteString("\n" + q.result.Explanation + "\n")
	}
	if len(q.result.ResultSet.Columns) == 0 {
		b.WriteString(mutedStyle.Render("(no rows)"))
		return b.String()
	}
	b.WriteString("\n" + q.table.View())
	return b.String()
}

func (q *queryScreen) hints() []key.Binding {
	return []key.Binding{keys.Focus, keys.Up, keys.Down, keys.Submit}
}

func (q *queryScreen) capturing() bool { return true }

func (q *queryScreen) close() {
	q.run.Close()
}
