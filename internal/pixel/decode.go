package pixel

import (
	"context"
	"encoding/json"
	"fmt"
)

// Runner runs pixel text. *Client is the production Runner.
type Runner interface {
	Run(ctx context.Context, expression string) (json.RawMessage, error)
}

// Decode unmarshals a pixel output into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode pixel output as %T: %w", v, err)
	}
	return v, nil
}

// Exec adapts r into a typed executor.
func Exec[T any](r Runner) func(ctx context.Context, expression string) (T, error) {
	return func(ctx context.Context, expression string) (T, error) {
		raw, err := r.Run(ctx, expression)
		if err != nil {
			var zero T
			return zero, err
		}
		return Decode[T](raw)
	}
}

// RunAs encodes cmd, runs it through r and decodes the output into T.
func RunAs[T any](ctx context.Context, r Runner, cmd Command) (T, error) {
	expression, err := Encode(cmd)
	if err != nil {
		var zero T
		return zero, err
	}
	return Exec[T](r)(ctx, expression)
}
