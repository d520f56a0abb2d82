// Package appctx holds the state shared by every screen: the backend
// session, the model and database lists, and the message line.
package appctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SEMOSS/procode-training/internal/config"
	"github.com/SEMOSS/procode-training/internal/coordinator"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

// Backend is everything the application needs from the pixel backend.
type Backend interface {
	pixel.Runner
	Upload(ctx context.Context, path string, files ...pixel.File) ([]pixel.UploadedFile, error)
	Login(ctx context.Context, username, password string) (pixel.User, error)
	UserInfo(ctx context.Context) (pixel.User, error)
	Logout(ctx context.Context) error
}

// Settings are the vector database defaults used by the flows.
type Settings struct {
	EmbedderEngine   string
	TrainingTag      string
	VectorType       string
	ContentLength    int
	ContentOverlap   int
	ChunkingStrategy string
	DistanceMethod   string
	QueryLimit       int
	UploadPath       string
}

// SettingsFrom copies the vector section of the configuration.
func SettingsFrom(v config.VectorConfig) Settings {
	return Settings{
		EmbedderEngine:   v.EmbedderEngine,
		TrainingTag:      v.TrainingTag,
		VectorType:       v.VectorType,
		ContentLength:    v.ContentLength,
		ContentOverlap:   v.ContentOverlap,
		ChunkingStrategy: v.ChunkingStrategy,
		DistanceMethod:   v.DistanceMethod,
		QueryLimit:       v.QueryLimit,
	}
}

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is the current notice shown to the user. ID grows with every post
// so a dismissal timer can tell whether its message is still showing.
type Message struct {
	ID       uint64
	Text     string
	Severity Severity
}

// Provider owns the shared state and is its only writer. Screens read it
// through a *Context.
type Provider struct {
	backend  Backend
	settings Settings
	log      *zap.Logger
	base     context.Context

	engines  coordinator.Ledger
	onChange func()

	mu        sync.RWMutex
	user      *pixel.User
	models    []pixel.Engine
	databases []pixel.Engine
	message   Message

	view *Context
}

// NewProvider builds a Provider. base bounds every coordinator created from
// its Context.
func NewProvider(base context.Context, backend Backend, settings Settings, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Provider{backend: backend, settings: settings, log: log, base: base}
	p.view = &Context{p: p}
	p.engines.OnLoading(func(bool) { p.changed() })
	return p
}

// OnChange registers fn to run after every state change. It must be set before
// the provider is used and must not block.
func (p *Provider) OnChange(fn func()) {
	p.onChange = fn
}

// Context returns the read view handed to screens.
func (p *Provider) Context() *Context {
	return p.view
}

// Restore picks up an existing backend session, if any.
func (p *Provider) Restore(ctx context.Context) (pixel.User, error) {
	u, err := p.backend.UserInfo(ctx)
	if err != nil {
		return pixel.User{}, err
	}
	p.setUser(&u)
	return u, nil
}

// SignIn logs in and records the user.
func (p *Provider) SignIn(ctx context.Context, username, password string) (pixel.User, error) {
	u, err := p.backend.Login(ctx, username, password)
	if err != nil {
		return pixel.User{}, err
	}
	p.log.Info("signed in", zap.String("user", u.Name))
	p.setUser(&u)
	return u, nil
}

// SignOut ends the session and forgets everything loaded for it.
func (p *Provider) SignOut(ctx context.Context) error {
	err := p.backend.Logout(ctx)
	if err != nil && !errors.Is(err, pixel.ErrUnauthorized) {
		return err
	}
	p.engines.Reset()
	p.mu.Lock()
	p.user = nil
	p.models = nil
	p.databases = nil
	p.mu.Unlock()
	p.changed()
	return nil
}

func (p *Provider) setUser(u *pixel.User) {
	p.mu.Lock()
	p.user = u
	p.mu.Unlock()
	p.changed()
}

// LoadEngines fetches the text generation models and the databases in
// parallel and publishes both together. A load superseded by a newer one is
// discarded.
func (p *Provider) LoadEngines(ctx context.Context) error {
	tok := p.engines.Begin()

	var models, databases []pixel.Engine
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		models, err = pixel.RunAs[[]pixel.Engine](gctx, p.backend, pixel.MyEngines{
			Types:       []pixel.EngineType{pixel.EngineModel},
			MetaFilters: map[string]string{"tag": "text-generation"},
		})
		return err
	})
	g.Go(func() error {
		var err error
		databases, err = pixel.RunAs[[]pixel.Engine](gctx, p.backend, pixel.MyEngines{
			Types: []pixel.EngineType{pixel.EngineDatabase},
		})
		return err
	})

	if err := g.Wait(); err != nil {
		if p.engines.End(tok, nil) {
			p.log.Warn("load engines failed", zap.Error(err))
			p.Post("Failed to load models and databases: "+err.Error(), SeverityError)
		}
		return fmt.Errorf("load engines: %w", err)
	}
	p.engines.End(tok, func() {
		p.mu.Lock()
		p.models = models
		p.databases = databases
		p.mu.Unlock()
	})
	return nil
}

// Post replaces the current message.
func (p *Provider) Post(text string, severity Severity) {
	p.mu.Lock()
	p.message = Message{ID: p.message.ID + 1, Text: text, Severity: severity}
	p.mu.Unlock()
	p.changed()
}

// Dismiss clears the message if it is still the one with id.
func (p *Provider) Dismiss(id uint64) {
	p.mu.Lock()
	if p.message.ID != id || p.message.Text == "" {
		p.mu.Unlock()
		return
	}
	p.message = Message{ID: id}
	p.mu.Unlock()
	p.changed()
}

func (p *Provider) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}

// Context is the read-mostly view of the Provider given to screens.
type Context struct {
	p *Provider
}

// Run executes pixel text against the backend.
func (c *Context) Run(ctx context.Context, expression string) (json.RawMessage, error) {
	return c.p.backend.Run(ctx, expression)
}

// Upload sends files to the backend's insight space.
func (c *Context) Upload(ctx context.Context, path string, files ...pixel.File) ([]pixel.UploadedFile, error) {
	return c.p.backend.Upload(ctx, path, files...)
}

// User returns the signed in user.
func (c *Context) User() (pixel.User, bool) {
	c.p.mu.RLock()
	defer c.p.mu.RUnlock()
	if c.p.user == nil {
		return pixel.User{}, false
	}
	return *c.p.user, true
}

func (c *Context) Models() []pixel.Engine {
	c.p.mu.RLock()
	defer c.p.mu.RUnlock()
	return c.p.models
}

func (c *Context) Databases() []pixel.Engine {
	c.p.mu.RLock()
	defer c.p.mu.RUnlock()
	return c.p.databases
}

// EnginesLoading reports whether LoadEngines is in flight.
func (c *Context) EnginesLoading() bool {
	return c.p.engines.Loading()
}

func (c *Context) Message() Message {
	c.p.mu.RLock()
	defer c.p.mu.RUnlock()
	return c.p.message
}

// Notify asks the provider to post a message.
func (c *Context) Notify(text string, severity Severity) {
	c.p.Post(text, severity)
}

func (c *Context) Settings() Settings {
	return c.p.settings
}

func (c *Context) Logger() *zap.Logger {
	return c.p.log
}
