package coordinator

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Source resolves the command text for one call. args are whatever was passed
// to Refetch; the automatic fetch passes none.
type Source func(ctx context.Context, args ...any) (string, error)

// Literal returns a Source that always yields command.
func Literal(command string) Source {
	return func(context.Context, ...any) (string, error) {
		return command, nil
	}
}

// Exec performs one remote call for command.
type Exec[T any] func(ctx context.Context, command string) (T, error)

// Options configures a Fetcher or a Setter.
type Options struct {
	// Suspended keeps a Fetcher from calling out until SetSuspended(false).
	Suspended bool
	// OnChange is called after every loading flip and every commit.
	OnChange func()
	// AfterSuccess runs after a Setter's onSuccess callback, for committed
	// results only.
	AfterSuccess func()
	Logger       *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Fetcher runs a read-only call when mounted and whenever its source changes,
// and keeps the value of the latest call that succeeded.
//
// Failed calls leave the previous value in place; the error is only logged.
type Fetcher[T any] struct {
	ledger   Ledger
	exec     Exec[T]
	log      *zap.Logger
	onChange func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	source    Source
	suspended bool
	closed    bool

	valueMu sync.RWMutex
	value   T
}

// NewFetcher builds a Fetcher. Calls run under ctx until Close. Nothing is
// fetched before Mount.
func NewFetcher[T any](ctx context.Context, source Source, exec Exec[T], initial T, opts Options) *Fetcher[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &Fetcher[T]{
		exec:      exec,
		log:       opts.logger(),
		onChange:  opts.OnChange,
		ctx:       ctx,
		cancel:    cancel,
		source:    source,
		suspended: opts.Suspended,
		value:     initial,
	}
}

// Mount issues the automatic fetch unless the fetcher is suspended.
func (f *Fetcher[T]) Mount() {
	f.Refetch()
}

// Rebind replaces the source and fetches again.
func (f *Fetcher[T]) Rebind(source Source) {
	f.mu.Lock()
	f.source = source
	f.mu.Unlock()
	f.Refetch()
}

// SetSuspended changes the suspended flag. Going from suspended to active
// triggers exactly one call.
func (f *Fetcher[T]) SetSuspended(suspended bool) {
	f.mu.Lock()
	was := f.suspended
	f.suspended = suspended
	f.mu.Unlock()
	if was && !suspended {
		f.Refetch()
	}
}

// Suspended reports the suspended flag.
func (f *Fetcher[T]) Suspended() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suspended
}

// Refetch starts a new call with args handed to the source. It is a no-op
// while suspended or after Close. An older call still in flight keeps running
// but its result is dropped.
func (f *Fetcher[T]) Refetch(args ...any) {
	f.mu.Lock()
	if f.suspended || f.closed || f.source == nil {
		f.mu.Unlock()
		return
	}
	source := f.source
	f.wg.Add(1)
	f.mu.Unlock()

	tok := f.ledger.Begin()
	f.changed()
	go f.run(tok, source, args)
}

func (f *Fetcher[T]) run(tok Token, source Source, args []any) {
	defer f.wg.Done()

	value, err := f.call(source, args)
	if err != nil {
		f.log.Debug("fetch failed", zap.Uint64("token", uint64(tok)), zap.Error(err))
		if f.ledger.End(tok, nil) {
			f.changed()
		}
		return
	}
	committed := f.ledger.End(tok, func() {
		f.valueMu.Lock()
		f.value = value
		f.valueMu.Unlock()
	})
	if !committed {
		f.log.Debug("fetch result dropped", zap.Uint64("token", uint64(tok)), zap.Uint64("current", uint64(f.ledger.Current())))
		return
	}
	f.changed()
}

func (f *Fetcher[T]) call(source Source, args []any) (T, error) {
	var zero T
	command, err := source(f.ctx, args...)
	if err != nil {
		return zero, err
	}
	return f.exec(f.ctx, command)
}

// Value returns the last committed value, or the initial value.
func (f *Fetcher[T]) Value() T {
	f.valueMu.RLock()
	defer f.valueMu.RUnlock()
	return f.value
}

// Loading reports whether the latest call is still running.
func (f *Fetcher[T]) Loading() bool {
	return f.ledger.Loading()
}

// Close drops any outstanding result, cancels running calls and waits for
// them to return. Later calls on f are ignored.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.ledger.Reset()
	f.cancel()
	f.wg.Wait()
}

func (f *Fetcher[T]) changed() {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if !closed && f.onChange != nil {
		f.onChange()
	}
}
