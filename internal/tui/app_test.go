package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SEMOSS/procode-training/internal/appctx"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(a *App, s string) {
	for _, r := range s {
		a.Update(keyRunes(string(r)))
	}
}

func setupApp(t *testing.T, fb *fakeBackend) (*App, *appctx.Provider) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	provider := appctx.NewProvider(ctx, fb, appctx.Settings{TrainingTag: "pro-code-training"}, zap.NewNop())
	app := New(ctx, provider, NewNotifier(), Options{Server: "http://localhost:9090/Monolith"})
	t.Cleanup(app.unmount)
	return app, provider
}

func signIn(t *testing.T, app *App, password string) tea.Msg {
	t.Helper()
	app.Init()
	typeText(app, "dev")
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(app, password)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	return cmd()
}

func TestApp_SignInMountsScreens(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{engines: []pixel.Engine{{ID: "m1", Name: "Model One", Type: "MODEL"}}}
	app, _ := setupApp(t, fb)
	require.Contains(t, app.View(), "Sign in")

	msg := signIn(t, app, "secret")
	require.IsType(t, signedInMsg{}, msg)
	app.Update(msg)

	require.True(t, app.signedIn)
	view := app.View()
	assert.Contains(t, view, "Welcome, dev.")
	assert.Contains(t, view, "Animals")

	require.Eventually(t, func() bool { return fb.ran("GetAnimals") && fb.ran("MyEngines") }, time.Second, 10*time.Millisecond)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Contains(t, app.View(), "Choose a vector database on the Home tab.")
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Contains(t, app.View(), "Welcome, dev.")
}

func TestApp_WrongPassword(t *testing.T) {
	t.Parallel()
	app, _ := setupApp(t, &fakeBackend{})

	msg := signIn(t, app, "nope")
	require.IsType(t, loginFailedMsg{}, msg)
	app.Update(msg)

	assert.False(t, app.signedIn)
	assert.Contains(t, app.View(), "Invalid username or password")
}

func TestApp_SignOutReturnsToLogin(t *testing.T) {
	t.Parallel()
	fb := &fakeBackend{}
	app, provider := setupApp(t, fb)
	app.Update(signIn(t, app, "secret"))
	require.True(t, app.signedIn)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.False(t, app.signedIn)
	assert.Nil(t, app.screens)

	require.NoError(t, provider.SignOut(context.Background()))
	_, ok := provider.Context().User()
	assert.False(t, ok)
	assert.Contains(t, app.View(), "Sign in")
}

func TestApp_QuitClosesScreens(t *testing.T) {
	t.Parallel()
	app, _ := setupApp(t, &fakeBackend{})
	app.Update(signIn(t, app, "secret"))

	// Animals does not capture keys, so q quits there.
	for i := 0; i < 3; i++ {
		app.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	}
	_, cmd := app.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, app.screens)
}

func TestApp_MessagesAreDismissed(t *testing.T) {
	t.Parallel()
	app, provider := setupApp(t, &fakeBackend{})

	provider.Post("saved", appctx.SeveritySuccess)
	assert.Contains(t, app.View(), "saved")

	_, cmd := app.Update(refreshMsg{})
	require.NotNil(t, cmd, "a new message arms a timer")
	_, cmd = app.Update(refreshMsg{})
	assert.Nil(t, cmd, "the same message is not scheduled twice")

	id := provider.Context().Message().ID
	app.Update(dismissMsg{id: id - 1})
	assert.Equal(t, "saved", provider.Context().Message().Text, "stale timers are ignored")
	app.Update(dismissMsg{id: id})
	assert.Empty(t, provider.Context().Message().Text)
}
