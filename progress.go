package devsummary

import (
	"context"
	"fmt"
)

type progressKey struct{}

// ProgressFunc receives human-readable progress lines.
type ProgressFunc func(line string)

// WithProgress returns a context whose report runs send progress lines to fn.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Progress sends a formatted line to the progress function of ctx, if any.
func Progress(ctx context.Context, format string, args ...any) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(fmt.Sprintf(format, args...))
	}
}
