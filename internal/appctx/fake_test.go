package appctx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/SEMOSS/procode-training/internal/pixel"
)

type reactor func(call pixel.Call) (any, error)

// fakeBackend dispatches parsed pixels to per-reactor handlers.
type fakeBackend struct {
	mu       sync.Mutex
	reactors map[string]reactor
	seen     []string
	uploads  []string
	user     *pixel.User
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{reactors: map[string]reactor{}}
}

func (f *fakeBackend) handle(name string, r reactor) {
	f.mu.Lock()
	f.reactors[name] = r
	f.mu.Unlock()
}

func (f *fakeBackend) Run(_ context.Context, expression string) (json.RawMessage, error) {
	call, err := pixel.Parse(expression)
	if err != nil {
		return nil, &pixel.Error{Code: pixel.CodeBadRequest, Message: err.Error(), Expression: expression}
	}
	f.mu.Lock()
	f.seen = append(f.seen, expression)
	r := f.reactors[call.Reactor]
	f.mu.Unlock()
	if r == nil {
		return nil, pixel.NewError(pixel.CodeBadRequest, "%s is not available", call.Reactor)
	}
	out, err := r(call)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (f *fakeBackend) Upload(_ context.Context, path string, files ...pixel.File) ([]pixel.UploadedFile, error) {
	out := make([]pixel.UploadedFile, 0, len(files))
	for _, file := range files {
		data, err := io.ReadAll(file.Content)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.uploads = append(f.uploads, fmt.Sprintf("%s=%s", file.Name, data))
		f.mu.Unlock()
		out = append(out, pixel.UploadedFile{Name: file.Name, Location: "/" + path + file.Name})
	}
	return out, nil
}

func (f *fakeBackend) Login(_ context.Context, username, password string) (pixel.User, error) {
	if password != "secret" {
		return pixel.User{}, pixel.ErrUnauthorized
	}
	u := pixel.User{ID: "u-1", Name: username}
	f.mu.Lock()
	f.user = &u
	f.mu.Unlock()
	return u, nil
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
	f.user = nil
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) expressions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}
