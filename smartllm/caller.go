package smartllm

import "context"

// DefaultCaller is the caller name used when the context carries none.
const DefaultCaller = "main"

type callerKey struct{}

// WithCaller returns a context that attributes configured-function calls to
// name in the call recorder.
func WithCaller(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, callerKey{}, name)
}

// CallerFrom returns the caller name carried by ctx, or DefaultCaller.
func CallerFrom(ctx context.Context) string {
	if name, ok := ctx.Value(callerKey{}).(string); ok && name != "" {
		return name
	}
	return DefaultCaller
}
