package tui

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/SEMOSS/procode-training/internal/pixel"
)

// fakeBackend answers just enough pixels to drive the screens.
type fakeBackend struct {
	mu       sync.Mutex
	user     *pixel.User
	animals  []pixel.Animal
	engines  []pixel.Engine
	commands []string
}

func (f *fakeBackend) Run(_ context.Context, expression string) (json.RawMessage, error) {
	call, err := pixel.Parse(expression)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, call.Reactor)
	switch call.Reactor {
	case "GetAnimals":
		return json.Marshal(f.animals)
	case "MyEngines":
		return json.Marshal(f.engines)
	default:
		return json.RawMessage("true"), nil
	}
}

func (f *fakeBackend) Upload(context.Context, string, ...pixel.File) ([]pixel.UploadedFile, error) {
	return nil, nil
}

func (f *fakeBackend) Login(_ context.Context, username, password string) (pixel.User, error) {
	if password != "secret" {
		return pixel.User{}, pixel.ErrUnauthorized
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = &pixel.User{ID: "u1", Name: username}
	return *f.user, nil
}

func (f *fakeBackend) UserInfo(context.Context) (pixel.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return pixel.User{}, pixel.ErrUnauthorized
	}
	return *f.user, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = nil
	return nil
}

func (f *fakeBackend) ran(reactor string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commands {
		if c == reactor {
			return true
		}
	}
	return false
}
