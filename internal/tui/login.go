package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

type loginForm struct {
	inputs [2]textinput.Model
	field  int
	busy   bool
	err    string
}

func newLoginForm(username string) loginForm {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 128
	user.SetValue(username)

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 256

	l := loginForm{inputs: [2]textinput.Model{user, pass}}
	if username != "" {
		l.field = 1
	}
	return l
}

func (l *loginForm) focus() tea.Cmd {
	for i := range l.inputs {
		l.inputs[i].Blur()
	}
	return l.inputs[l.field].Focus()
}

func (l *loginForm) reset() {
	l.inputs[1].Reset()
	l.busy = false
	l.err = ""
}

func (l *loginForm) fail(err error) {
	l.busy = false
	l.inputs[1].Reset()
	if errors.Is(err, pixel.ErrUnauthorized) {
		l.err = "Invalid username or password"
		return
	}
	l.err = err.Error()
}

// update handles a key; submit is called with the entered credentials.
func (l *loginForm) update(msg tea.KeyMsg, submit func(username, password string) tea.Cmd) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Focus):
		l.field = (l.field + 1) % len(l.inputs)
		return l.focus()
	case key.Matches(msg, keys.Submit):
		if l.busy {
			return nil
		}
		username := strings.TrimSpace(l.inputs[0].Value())
		password := l.inputs[1].Value()
		if username == "" {
			l.err = "Username is required"
			l.field = 0
			return l.focus()
		}
		if password == "" {
			l.field = 1
			return l.focus()
		}
		l.busy = true
		l.err = ""
		return submit(username, password)
	}
	var cmd tea.Cmd
	l.inputs[l.field], cmd = l.inputs[l.field].Update(msg)
	return cmd
}

func (l *loginForm) view(server, spin string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in") + "\n")
	b.WriteString(mutedStyle.Render(server) + "\n\n")
	b.WriteString(l.inputs[0].View() + "\n")
	b.WriteString(l.inputs[1].View() + "\n\n")
	switch {
	case l.busy:
		b.WriteString(spin + " signing in...")
	case l.err != "":
		b.WriteString(severityStyles[appctx.SeverityError].Render(l.err))
	default:
		b.WriteString("[enter] Sign in  [tab] Next field  [ctrl+c] Quit")
	}
	return b.String()
}
