package appctx

import (
	"context"

	"github.com/SEMOSS/procode-training/internal/coordinator"
	"github.com/SEMOSS/procode-training/internal/pixel"
)

// Source turns a typed command into a coordinator source.
func Source(cmd pixel.Command) coordinator.Source {
	return func(context.Context, ...any) (string, error) {
		return pixel.Encode(cmd)
	}
}

// SourceFunc builds the command from the Refetch arguments each time.
func SourceFunc(build func(args ...any) (pixel.Command, error)) coordinator.Source {
	return func(_ context.Context, args ...any) (string, error) {
		cmd, err := build(args...)
		if err != nil {
			return "", err
		}
		return pixel.Encode(cmd)
	}
}

// Fetch builds a Fetcher that runs source against the backend and decodes the
// output into T. Call Mount to start it.
func Fetch[T any](c *Context, source coordinator.Source, initial T, opts coordinator.Options) *coordinator.Fetcher[T] {
	if opts.Logger == nil {
		opts.Logger = c.Logger()
	}
	return coordinator.NewFetcher(c.p.base, source, pixel.Exec[T](c), initial, opts)
}

// Set builds a Setter whose committed successes also post a "Success"
// message.
func Set[T any](c *Context, opts coordinator.Options) *coordinator.Setter[T] {
	if opts.Logger == nil {
		opts.Logger = c.Logger()
	}
	after := opts.AfterSuccess
	opts.AfterSuccess = func() {
		c.Notify("Success", SeveritySuccess)
		if after != nil {
			after()
		}
	}
	return coordinator.NewSetter(c.p.base, pixel.Exec[T](c), opts)
}

// Submit encodes cmd and invokes it on s. An encoding failure goes straight
// to onError.
func Submit[T any](s *coordinator.Setter[T], cmd pixel.Command, onSuccess func(T), onError func(error)) {
	expression, err := pixel.Encode(cmd)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	s.Invoke(expression, onSuccess, onError)
}
