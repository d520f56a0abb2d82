package coordinator

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Setter runs mutating calls on demand. Calls are not queued: each Invoke runs
// right away, and only the most recent one clears loading and gets its
// callback fired.
type Setter[T any] struct {
	ledger Ledger
	exec   Exec[T]
	opts   Options
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewSetter builds a Setter that sends commands through exec. exec may be nil
// when the setter is only driven through Do.
func NewSetter[T any](ctx context.Context, exec Exec[T], opts Options) *Setter[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &Setter[T]{
		exec:   exec,
		opts:   opts,
		log:    opts.logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Invoke sends command. Exactly one of onSuccess and onError runs, and only if
// no newer call was started in the meantime. Either callback may be nil.
func (s *Setter[T]) Invoke(command string, onSuccess func(T), onError func(error)) {
	s.Do(func(ctx context.Context) (T, error) {
		return s.exec(ctx, command)
	}, onSuccess, onError)
}

// Do is Invoke for calls that are not a single command, such as multi-step
// flows. The same latest-call-wins rules apply.
//
// Callbacks run while the setter's ledger is locked. They must not block or
// start another call on the same setter synchronously.
func (s *Setter[T]) Do(call func(ctx context.Context) (T, error), onSuccess func(T), onError func(error)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	tok := s.ledger.Begin()
	s.changed()
	go func() {
		defer s.wg.Done()
		value, err := call(s.ctx)
		var committed bool
		if err != nil {
			s.log.Debug("call failed", zap.Uint64("token", uint64(tok)), zap.Error(err))
			committed = s.ledger.End(tok, func() {
				if onError != nil {
					onError(err)
				}
			})
		} else {
			committed = s.ledger.End(tok, func() {
				if onSuccess != nil {
					onSuccess(value)
				}
				if s.opts.AfterSuccess != nil {
					s.opts.AfterSuccess()
				}
			})
		}
		if committed {
			s.changed()
		}
	}()
}

// Loading reports whether the latest call is still running.
func (s *Setter[T]) Loading() bool {
	return s.ledger.Loading()
}

// Close drops outstanding callbacks, cancels running calls and waits for them.
func (s *Setter[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.ledger.Reset()
	s.cancel()
	s.wg.Wait()
}

func (s *Setter[T]) changed() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if !closed && s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}
