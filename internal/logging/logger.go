// Package logging defines the structured-logging interface used by the
// console and the server.
//
// SlogLogger is the only implementation. It wraps a *slog.Logger and forwards
// the request context, so handlers can pick values out of it. Components take
// a Logger and tag it with With("module", name) once, at construction:
//
//	l := logging.NewText(os.Stderr, cfg.LogLevel).With("module", "session")
//	l.Warn(ctx, "profile upsert failed", "error", err)
//
// Tests use Discard.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "session restored", "uid", uid)
type Logger interface {
	// Debug logs diagnostic details that are noisy in normal operation.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
