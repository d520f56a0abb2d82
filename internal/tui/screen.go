package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

// frame carries what a screen needs from the App to render.
type frame struct {
	width int
	spin  string
}

// screen is one tab. Key messages go to the active screen only; every other
// message is broadcast.
type screen interface {
	title() string
	mount() tea.Cmd
	update(msg tea.Msg) tea.Cmd
	// refresh runs on the event loop after shared state changed.
	refresh()
	view(f frame) string
	hints() []key.Binding
	// capturing reports whether typed keys belong to a text input.
	capturing() bool
	close()
}

type (
	signedInMsg     struct{ user pixel.User }
	signedOutMsg    struct{}
	loginFailedMsg  struct{ err error }
	dismissMsg      struct{ id uint64 }
	modelChosenMsg  struct{ engine pixel.Engine }
	vectorChosenMsg struct{ engine pixel.Engine }
)

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// reportError posts err on the message line.
func reportError(v *appctx.Context) func(error) {
	return func(err error) {
		v.Notify(err.Error(), appctx.SeverityError)
	}
}
