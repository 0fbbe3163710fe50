package logging

import "context"

type ctxArgsKey struct{}

// ContextWith returns a context carrying key-value pairs that every Logger
// call made with it prepends to its own args.
func ContextWith(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	prev := contextArgs(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, ctxArgsKey{}, merged)
}

func contextArgs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	args, _ := ctx.Value(ctxArgsKey{}).([]any)
	return args
}

// withContextArgs prepends the pairs stored in ctx to args.
func withContextArgs(ctx context.Context, args []any) []any {
	stored := contextArgs(ctx)
	if len(stored) == 0 {
		return args
	}
	out := make([]any, 0, len(stored)+len(args))
	out = append(out, stored...)
	return append(out, args...)
}
