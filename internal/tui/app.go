// Package tui is the interactive terminal front end.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/appctx"
)

const defaultDismissAfter = 4 * time.Second

// Options tunes the App.
type Options struct {
	// Server is shown on the sign in form.
	Server   string
	Username string
	// Remember is called with the credentials after an interactive sign in.
	Remember     func(username, password string) error
	DismissAfter time.Duration
}

// App is the root model: a sign in gate in front of the tabbed screens.
type App struct {
	ctx      context.Context
	provider *appctx.Provider
	view     *appctx.Context
	notifier *Notifier
	opts     Options

	signedIn bool
	login    loginForm
	screens  []screen
	active   int

	spinner spinner.Model
	help    help.Model
	width   int
	shown   uint64 // id of the last message a dismissal was scheduled for
}

// New builds the App. It registers the notifier as the provider's change
// hook, so it must run before the provider is shared.
func New(ctx context.Context, provider *appctx.Provider, notifier *Notifier, opts Options) *App {
	if opts.DismissAfter <= 0 {
		opts.DismissAfter = defaultDismissAfter
	}
	provider.OnChange(notifier.Changed)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	_, signedIn := provider.Context().User()

	return &App{
		ctx:      ctx,
		provider: provider,
		view:     provider.Context(),
		notifier: notifier,
		opts:     opts,
		signedIn: signedIn,
		login:    newLoginForm(opts.Username),
		spinner:  sp,
		help:     help.New(),
	}
}

func (a *App) Init() tea.Cmd {
	if a.signedIn {
		return tea.Batch(a.spinner.Tick, a.mount())
	}
	return tea.Batch(a.spinner.Tick, a.login.focus(), a.restore())
}

func (a *App) restore() tea.Cmd {
	return func() tea.Msg {
		u, err := a.provider.Restore(a.ctx)
		if err != nil {
			return nil
		}
		return signedInMsg{user: u}
	}
}

func (a *App) signIn(username, password string) tea.Cmd {
	return func() tea.Msg {
		u, err := a.provider.SignIn(a.ctx, username, password)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		if a.opts.Remember != nil {
			if err := a.opts.Remember(username, password); err != nil {
				a.view.Logger().Warn("store credentials", zap.Error(err))
			}
		}
		return signedInMsg{user: u}
	}
}

func (a *App) signOut() tea.Cmd {
	a.unmount()
	a.signedIn = false
	return tea.Batch(a.login.focus(), func() tea.Msg {
		if err := a.provider.SignOut(a.ctx); err != nil {
			a.view.Notify("Sign out failed: "+err.Error(), appctx.SeverityError)
		}
		return signedOutMsg{}
	})
}

func (a *App) mount() tea.Cmd {
	a.screens = []screen{
		newHome(a.view, a.notifier),
		newFiles(a.view, a.notifier),
		newSummary(a.view, a.notifier),
		newAnimals(a.view, a.notifier),
		newQuery(a.view, a.notifier),
	}
	a.active = 0
	cmds := []tea.Cmd{a.loadEngines()}
	for _, s := range a.screens {
		cmds = append(cmds, s.mount())
	}
	return tea.Batch(cmds...)
}

func (a *App) unmount() {
	for _, s := range a.screens {
		s.close()
	}
	a.screens = nil
}

// loadEngines refreshes the model and database lists. Failures are posted on
// the message line by the provider.
func (a *App) loadEngines() tea.Cmd {
	return func() tea.Msg {
		_ = a.provider.LoadEngines(a.ctx)
		return nil
	}
}

func (a *App) quit() tea.Cmd {
	a.unmount()
	return tea.Quit
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(m)
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.help.Width = m.Width
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case refreshMsg:
		a.notifier.ack()
		for _, s := range a.screens {
			s.refresh()
		}
		return a, a.scheduleDismiss()
	case dismissMsg:
		a.provider.Dismiss(m.id)
		return a, nil
	case signedInMsg:
		if a.signedIn {
			return a, nil
		}
		a.signedIn = true
		a.login.reset()
		return a, a.mount()
	case signedOutMsg:
		return a, nil
	case loginFailedMsg:
		a.login.fail(m.err)
		return a, nil
	}
	return a, a.broadcast(msg)
}

func (a *App) handleKey(m tea.KeyMsg) tea.Cmd {
	if key.Matches(m, keys.ForceQuit) {
		return a.quit()
	}
	if !a.signedIn {
		return a.login.update(m, a.signIn)
	}
	cur := a.screens[a.active]
	switch {
	case key.Matches(m, keys.NextTab):
		a.active = (a.active + 1) % len(a.screens)
		return nil
	case key.Matches(m, keys.PrevTab):
		a.active = (a.active + len(a.screens) - 1) % len(a.screens)
		return nil
	case key.Matches(m, keys.SignOut):
		return a.signOut()
	case key.Matches(m, keys.Quit) && !cur.capturing():
		return a.quit()
	}
	return cur.update(m)
}

func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, s := range a.screens {
		cmds = append(cmds, s.update(msg))
	}
	return tea.Batch(cmds...)
}

// scheduleDismiss arms a timer for a newly posted message.
func (a *App) scheduleDismiss() tea.Cmd {
	msg := a.view.Message()
	if msg.Text == "" || msg.ID == a.shown {
		return nil
	}
	a.shown = msg.ID
	id := msg.ID
	return tea.Tick(a.opts.DismissAfter, func(time.Time) tea.Msg {
		return dismissMsg{id: id}
	})
}

func (a *App) View() string {
	var b strings.Builder
	if !a.signedIn {
		b.WriteString(a.login.view(a.opts.Server, a.spinner.View()))
	} else {
		cur := a.screens[a.active]
		b.WriteString(a.renderTabs() + "\n\n")
		b.WriteString(cur.view(frame{width: a.width, spin: a.spinner.View()}))
		b.WriteString("\n\n")
		hints := append(cur.hints(), keys.NextTab, keys.PrevTab, keys.SignOut)
		if !cur.capturing() {
			hints = append(hints, keys.Quit)
		} else {
			hints = append(hints, keys.ForceQuit)
		}
		b.WriteString(a.help.ShortHelpView(hints))
	}
	if msg := renderMessage(a.view.Message()); msg != "" {
		b.WriteString("\n" + msg)
	}
	return b.String()
}

func (a *App) renderTabs() string {
	tabs := make([]string, 0, len(a.screens)+1)
	for i, s := range a.screens {
		if i == a.active {
			tabs = append(tabs, activeTabStyle.Render(s.title()))
		} else {
			tabs = append(tabs, tabStyle.Render(s.title()))
		}
	}
	if u, ok := a.view.User(); ok {
		tabs = append(tabs, mutedStyle.Render("  "+u.Name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
