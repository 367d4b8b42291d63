// Package debug provides context-based debug mode with structured logging.
package debug

import (
	"context"
	"log/slog"
	"os"
	"strconv"
)

type debugKey struct{}

// WithDebug returns a context with debug mode enabled or disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey{}, enabled)
}

// IsEnabled reports whether debug mode is enabled in the context.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(debugKey{}).(bool); ok {
		return v
	}
	return false
}

// FromEnv reports whether HALNAV_DEBUG requests debug mode. Any value
// that is not a recognized boolean counts as enabled.
func FromEnv() bool {
	v := os.Getenv("HALNAV_DEBUG")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

// SetupLogger configures the default slog logger. Debug mode lowers the
// level to Debug; otherwise only warnings and errors are emitted.
func SetupLogger(debugEnabled bool) {
	level := slog.LevelWarn
	if debugEnabled {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
