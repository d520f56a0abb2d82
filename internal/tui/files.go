package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/coordinator"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

type filesMode int

const (
	filesBrowse filesMode = iota
	filesUpload
	filesConfirmDelete
)

// filesScreen lists, embeds and removes the documents of the chosen vector
// database.
type filesScreen struct {
	vctx   *appctx.Context
	vector pixel.Engine

	list   *coordinator.Fetcher[[]pixel.VectorFile]
	embed  *coordinator.Setter[[]string]
	remove *coordinator.Setter[any]

	mode   filesMode
	cursor int
	paths  textinput.Model
}

func newFiles(v *appctx.Context, n *Notifier) *filesScreen {
	paths := textinput.New()
	paths.Placeholder = "files to embed, separated by spaces or commas"
	paths.Prompt = "› "
	return &filesScreen{
		vctx: v,
		// No source until a vector database is chosen.
		list:   appctx.Fetch[[]pixel.VectorFile](v, nil, nil, coordinator.Options{Suspended: true, OnChange: n.Changed}),
		embed:  appctx.Set[[]string](v, coordinator.Options{OnChange: n.Changed}),
		remove: appctx.Set[any](v, coordinator.Options{OnChange: n.Changed}),
		paths:  paths,
	}
}

func (f *filesScreen) title() string { return "Files" }

func (f *filesScreen) mount() tea.Cmd {
	f.list.Mount()
	return nil
}

func (f *filesScreen) update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case vectorChosenMsg:
		f.bind(m.engine)
	case tea.KeyMsg:
		switch f.mode {
		case filesUpload:
			return f.updateUpload(m)
		case filesConfirmDelete:
			f.updateConfirm(m)
		default:
			return f.updateBrowse(m)
		}
	}
	return nil
}

func (f *filesScreen) bind(vector pixel.Engine) {
	f.vector = vector
	f.cursor = 0
	f.mode = filesBrowse
	f.list.Rebind(appctx.Source(pixel.ListDocumentsInVectorDatabase{Engine: vector.ID}))
	f.list.SetSuspended(false)
}

func (f *filesScreen) updateBrowse(m tea.KeyMsg) tea.Cmd {
	files := f.list.Value()
	switch {
	case key.Matches(m, keys.Up):
		if f.cursor > 0 {
			f.cursor--
		}
	case key.Matches(m, keys.Down):
		if f.cursor < len(files)-1 {
			f.cursor++
		}
	case key.Matches(m, keys.Refresh):
		f.list.Refetch()
	case key.Matches(m, keys.Upload):
		if f.vector.ID == "" {
			f.vctx.Notify("Choose a vector database on the Home tab first", appctx.SeverityWarning)
			return nil
		}
		f.mode = filesUpload
		return f.paths.Focus()
	case key.Matches(m, keys.Delete):
		if f.cursor < len(files) {
			f.mode = filesConfirmDelete
		}
	}
	return nil
}

func (f *filesScreen) updateUpload(m tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(m, keys.Cancel):
		f.paths.Blur()
		f.mode = filesBrowse
		return nil
	case key.Matches(m, keys.Submit):
		paths := splitPaths(f.paths.Value())
		if len(paths) == 0 {
			return nil
		}
		f.embedFiles(f.vector.ID, paths)
		f.paths.Reset()
		f.paths.Blur()
		f.mode = filesBrowse
		return nil
	}
	var cmd tea.Cmd
	f.paths, cmd = f.paths.Update(m)
	return cmd
}

func (f *filesScreen) embedFiles(vectorID string, paths []string) {
	f.embed.Do(func(ctx context.Context) ([]string, error) {
		files := make([]pixel.File, 0, len(paths))
		for _, p := range paths {
			file, err := pixel.FileFromPath(expandHome(p))
			if err != nil {
				return nil, err
			}
			files = append(files, file)
		}
		return f.vctx.EmbedFiles(ctx, vectorID, files...)
	}, func([]string) {
		f.list.Refetch()
	}, reportError(f.vctx))
}

func (f *filesScreen) updateConfirm(m tea.KeyMsg) {
	switch {
	case key.Matches(m, keys.Confirm):
		files := f.list.Value()
		if f.cursor < len(files) {
			cmd := pixel.RemoveDocumentFromVectorDatabase{Engine: f.vector.ID, FileNames: []string{files[f.cursor].Name}}
			appctx.Submit(f.remove, cmd, func(any) { f.list.Refetch() }, reportError(f.vctx))
		}
		f.mode = filesBrowse
	case key.Matches(m, keys.Deny):
		f.mode = filesBrowse
	}
}

func (f *filesScreen) refresh() {
	if n := len(f.list.Value()); f.cursor >= n {
		f.cursor = max(0, n-1)
	}
}

func (f *filesScreen) view(fr frame) string {
	var b strings.Builder
	if f.vector.ID == "" {
		b.WriteString(titleStyle.Render("Files") + "\n")
		b.WriteString(mutedStyle.Render("Choose a vector database on the Home tab."))
		return b.String()
	}
	b.WriteString(titleStyle.Render("Files in " + f.vector.Name))
	if f.list.Loading() || f.embed.Loading() || f.remove.Loading() {
		b.WriteString(" " + fr.spin)
	}
	b.WriteString("\n")

	files := f.list.Value()
	if len(files) == 0 {
		b.WriteString(mutedStyle.Render("  (no documents yet)") + "\n")
	}
	for i, file := range files {
		marker := " "
		if i == f.cursor {
			marker = "▶"
		}
		fmt.Fprintf(&b, "%s %-40s %10.2f KB  %s\n", marker, file.Name, file.Size, mutedStyle.Render(file.LastModified))
	}

	switch f.mode {
	case filesUpload:
		b.WriteString("\n" + labelStyle.Render("Upload and embed") + "\n" + f.paths.View())
	case filesConfirmDelete:
		if f.cursor < len(files) {
			b.WriteString("\n" + titleStyle.Render("Delete "+files[f.cursor].Name+"?") + "\n[y] Yes  [n] No")
		}
	}
	return b.String()
}

func (f *filesScreen) hints() []key.Binding {
	switch f.mode {
	case filesUpload:
		return []key.Binding{keys.Submit, keys.Cancel}
	case filesConfirmDelete:
		return []key.Binding{keys.Confirm, keys.Deny}
	}
	return []key.Binding{keys.Up, keys.Down, keys.Upload, keys.Delete, keys.Refresh}
}

func (f *filesScreen) capturing() bool { return f.mode == filesUpload }

func (f *filesScreen) close() {
	f.list.Close()
	f.embed.Close()
	f.remove.Close()
}

func splitPaths(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
