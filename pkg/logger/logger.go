package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New returns the process logger: JSON on stdout, debug level outside production-like envs.
func New(appEnv string) *slog.Logger {
	return NewTo(os.Stdout, appEnv)
}

// NewTo is New with an explicit sink.
func NewTo(w io.Writer, appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" || appEnv == "test" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
