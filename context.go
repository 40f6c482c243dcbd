package jwtgen

import (
	"context"
	"slices"
)

type tokenOptionsKey struct{}

// BindTokenOptions stores token options inside the context. Provider.Token applies
// them before the options passed to the call itself, so explicit options win.
func BindTokenOptions(ctx context.Context, opts ...TokenOption) context.Context {
	merged := append(slices.Clone(TokenOptionsFromContext(ctx)), opts...)
	return context.WithValue(ctx, tokenOptionsKey{}, merged)
}

// TokenOptionsFromContext retrieves options previously bound to the context.
func TokenOptionsFromContext(ctx context.Context) []TokenOption {
	if ctx == nil {
		return nil
	}
	opts, _ := ctx.Value(tokenOptionsKey{}).([]TokenOption)
	return opts
}
