package dispatch

import (
	"context"
	"fmt"

	"github.com/artpar/schemawire/core/apierr"
)

// Handler executes one operation. The input has already been validated
// against the operation's descriptor; the returned value is serialized as
// the response body. Errors should be *apierr.Error; anything else is
// logged and surfaced as a generic internal error.
type Handler func(ctx context.Context, in Input) (any, error)

// Bind adapts a typed function to a Handler. Decoding into In is mechanical
// because the dispatcher validated every field first.
func Bind[In, Out any](fn func(ctx context.Context, in In) (Out, error)) Handler {
	return func(ctx context.Context, in Input) (any, error) {
		var req In
		if err := in.Decode(&req); err != nil {
			return nil, apierr.Internal(fmt.Errorf("decode validated input: %w", err))
		}
		return fn(ctx, req)
	}
}

// BindNoInput adapts a typed function for operations without an input type.
func BindNoInput[Out any](fn func(ctx context.Context) (Out, error)) Handler {
	return func(ctx context.Context, _ Input) (any, error) {
		return fn(ctx)
	}
}
