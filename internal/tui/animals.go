package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/coordinator"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

type animalsMode int

const (
	animalsBrowse animalsMode = iota
	animalsAdd
	animalsConfirmDelete
)

type animalAddedMsg struct{}

var animalFields = [...]string{"Name", "Type", "Date of birth (YYYY-MM-DD)"}

// animalsScreen is the sample CRUD table.
type animalsScreen struct {
	vctx   *appctx.Context
	notify *Notifier

	list   *coordinator.Fetcher[[]pixel.Animal]
	add    *coordinator.Setter[any]
	remove *coordinator.Setter[any]

	table table.Model
	rows  []pixel.Animal
	mode  animalsMode
	form  [len(animalFields)]textinput.Model
	field int
}

func newAnimals(v *appctx.Context, n *Notifier) *animalsScreen {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 24},
			{Title: "Type", Width: 16},
			{Title: "Born", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	a := &animalsScreen{
		vctx:   v,
		notify: n,
		list:   appctx.Fetch[[]pixel.Animal](v, appctx.Source(pixel.GetAnimals{}), nil, coordinator.Options{OnChange: n.Changed}),
		add:    appctx.Set[any](v, coordinator.Options{OnChange: n.Changed}),
		remove: appctx.Set[any](v, coordinator.Options{OnChange: n.Changed}),
		table:  t,
	}
	for i, label := range animalFields {
		ti := textinput.New()
		ti.Placeholder = label
		ti.CharLimit = 64
		a.form[i] = ti
	}
	return a
}

func (a *animalsScreen) title() string { return "Animals" }

func (a *animalsScreen) mount() tea.Cmd {
	a.list.Mount()
	return nil
}

func (a *animalsScreen) update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case animalAddedMsg:
		a.closeForm()
	case tea.KeyMsg:
		switch a.mode {
		case animalsAdd:
			return a.updateForm(m)
		case animalsConfirmDelete:
			a.updateConfirm(m)
		default:
			return a.updateBrowse(m)
		}
	}
	return nil
}

func (a *animalsScreen) updateBrowse(m tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(m, keys.Refresh):
		a.list.Refetch()
	case key.Matches(m, keys.Add):
		a.mode = animalsAdd
		a.field = 0
		return a.focusForm()
	case key.Matches(m, keys.Delete):
		if len(a.rows) > 0 {
			a.mode = animalsConfirmDelete
		}
	default:
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(m)
		return cmd
	}
	return nil
}

func (a *animalsScreen) updateForm(m tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(m, keys.Cancel):
		a.closeForm()
		return nil
	case key.Matches(m, keys.Focus):
		a.field = (a.field + 1) % len(a.form)
		return a.focusForm()
	case key.Matches(m, keys.Submit):
		if a.field < len(a.form)-1 {
			a.field++
			return a.focusForm()
		}
		a.submit()
		return nil
	}
	var cmd tea.Cmd
	a.form[a.field], cmd = a.form[a.field].Update(m)
	return cmd
}

// submit leaves validation to the backend so its messages reach the user
// unchanged.
func (a *animalsScreen) submit() {
	cmd := pixel.AddAnimal{
		Name:        strings.TrimSpace(a.form[0].Value()),
		Type:        strings.TrimSpace(a.form[1].Value()),
		DateOfBirth: strings.TrimSpace(a.form[2].Value()),
	}
	appctx.Submit(a.add, cmd, func(any) {
		a.list.Refetch()
		a.notify.Post(animalAddedMsg{})
	}, reportError(a.vctx))
}

func (a *animalsScreen) updateConfirm(m tea.KeyMsg) {
	switch {
	case key.Matches(m, keys.Confirm):
		if i := a.table.Cursor(); i >= 0 && i < len(a.rows) {
			cmd := pixel.DeleteAnimal{AnimalID: a.rows[i].ID}
			appctx.Submit(a.remove, cmd, func(any) { a.list.Refetch() }, reportError(a.vctx))
		}
		a.mode = animalsBrowse
	case key.Matches(m, keys.Deny):
		a.mode = animalsBrowse
	}
}

func (a *animalsScreen) focusForm() tea.Cmd {
	for i := range a.form {
		a.form[i].Blur()
	}
	return a.form[a.field].Focus()
}

func (a *animalsScreen) closeForm() {
	for i := range a.form {
		a.form[i].Reset()
		a.form[i].Blur()
	}
	a.field = 0
	a.mode = animalsBrowse
}

func (a *animalsScreen) refresh() {
	rows := a.list.Value()
	if slices.Equal(rows, a.rows) {
		return
	}
	a.rows = rows
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.Name, r.Type, r.DateOfBirth})
	}
	a.table.SetRows(out)
	if a.table.Cursor() >= len(out) {
		a.table.SetCursor(max(0, len(out)-1))
	}
}

func (a *animalsScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Animals"))
	if a.list.Loading() || a.add.Loading() || a.remove.Loading() {
		b.WriteString(" " + f.spin)
	}
	b.WriteString("\n")
	if len(a.rows) == 0 && !a.list.Loading() {
		b.WriteString(mutedStyle.Render("  (no animals yet)") + "\n")
	} else {
		b.WriteString(a.table.View() + "\n")
	}

	switch a.mode {
	case animalsAdd:
		b.WriteString("\n" + labelStyle.Render("Add animal") + "\n")
		for _, in := range a.form {
			b.WriteString(in.View() + "\n")
		}
	case animalsConfirmDelete:
		if i := a.table.Cursor(); i >= 0 && i < len(a.rows) {
			b.WriteString("\n" + titleStyle.Render("Delete "+a.rows[i].Name+"?") + "\n[y] Yes  [n] No")
		}
	}
	return b.String()
}

func (a *animalsScreen) hints() []key.Binding {
	switch a.mode {
	case animalsAdd:
		return []key.Binding{keys.Focus, keys.Submit, keys.Cancel}
	case animalsConfirmDelete:
		return []key.Binding{keys.Confirm, keys.Deny}
	}
	return []key.Binding{keys.Up, keys.Down, keys.Add, keys.Delete, keys.Refresh}
}

func (a *animalsScreen) capturing() bool { return a.mode == animalsAdd }

func (a *animalsScreen) close() {
	a.list.Close()
	a.add.Close()
	a.remove.Close()
}
